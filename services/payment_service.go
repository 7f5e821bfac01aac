package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/Harrypapa1/patchwork-trades-backend/models"
)

// PaymentEvent is the payment-confirmed webhook payload after controller
// validation: the paid amount and the metadata linking it back to a booking.
type PaymentEvent struct {
	BookingID      string
	Amount         float64
	Currency       string
	CustomerID     string
	CustomerEmail  string
	TradesmanID    string
	TradesmanEmail string
}

// PaymentService promotes a paid booking into an active job. Webhooks are
// delivered at-least-once, so the handoff is idempotent on the booking id.
type PaymentService struct {
	bookings    BookingRepository
	jobs        JobRepository
	comments    CommentRepository
	lock        *SystemLock
	notifier    Notifier
	frontendURL string
}

func NewPaymentService(
	bookings BookingRepository,
	jobs JobRepository,
	comments CommentRepository,
	lock *SystemLock,
	notifier Notifier,
	frontendURL string,
) *PaymentService {
	return &PaymentService{
		bookings:    bookings,
		jobs:        jobs,
		comments:    comments,
		lock:        lock,
		notifier:    notifier,
		frontendURL: frontendURL,
	}
}

// HandlePaymentConfirmed creates exactly one job for the paid booking. Once
// the job exists it is authoritative: a failure updating the booking's
// bookkeeping afterwards is logged, never rolled back, because a payment must
// not be lost even if bookkeeping lags.
func (s *PaymentService) HandlePaymentConfirmed(ctx context.Context, evt PaymentEvent) (*models.ActiveJob, error) {
	if evt.BookingID == "" {
		return nil, newValidationError("payment event has no booking id")
	}
	if evt.Amount <= 0 {
		return nil, newValidationError("payment event has no positive amount")
	}

	token, err := s.lock.Acquire(ctx, "payment_handoff")
	if err != nil {
		return nil, err
	}
	defer s.lock.Release(token, "payment_handoff")

	existing, err := s.jobs.FindByBookingID(ctx, evt.BookingID)
	if err == nil {
		log.Printf("payment for booking %s already processed, job %s exists", evt.BookingID, existing.ID.Hex())
		return existing, nil
	}
	if err != ErrNotFound {
		return nil, fmt.Errorf("look up active job: %w", err)
	}

	b, err := s.bookings.Get(ctx, evt.BookingID)
	if err != nil {
		return nil, newValidationError("payment references unknown booking %s", evt.BookingID)
	}
	if evt.CustomerID != "" && evt.CustomerID != b.CustomerID {
		return nil, newValidationError("payment metadata customer does not match booking %s", evt.BookingID)
	}
	if evt.TradesmanID != "" && evt.TradesmanID != b.TradesmanID {
		return nil, newValidationError("payment metadata tradesman does not match booking %s", evt.BookingID)
	}

	now := time.Now().UTC()
	display := fmt.Sprintf("£%.2f (paid)", evt.Amount)
	job := buildJobFromBooking(b, display, now)
	job.AgreedPrice = evt.Amount
	// The gateway's checkout emails are fresher than the booking snapshot.
	if evt.CustomerEmail != "" {
		job.CustomerEmail = evt.CustomerEmail
	}
	if evt.TradesmanEmail != "" {
		job.TradesmanEmail = evt.TradesmanEmail
	}

	jobID, err := s.jobs.Insert(ctx, job)
	if err != nil {
		return nil, fmt.Errorf("create active job from payment: %w", err)
	}

	// The job is now authoritative. Booking bookkeeping below is best-effort.
	b.Status = models.BookingStatusCompleted
	b.ActiveJobID = jobID
	b.UpdatedAt = now
	if err := s.bookings.Put(ctx, b); err != nil {
		log.Printf("INCONSISTENCY: job %s created for booking %s but booking update failed: %v", jobID, evt.BookingID, err)
	} else if stored, readErr := s.bookings.Get(ctx, evt.BookingID); readErr != nil || stored.Status != models.BookingStatusCompleted {
		log.Printf("INCONSISTENCY: job %s created for booking %s but booking state did not verify (read err: %v)", jobID, evt.BookingID, readErr)
	}

	commentErr := s.comments.Insert(ctx, &models.BookingComment{
		ActiveJobID: jobID,
		UserType:    models.UserTypeSystem,
		Comment:     fmt.Sprintf("Payment of £%.2f received. Job created from booking %s.", evt.Amount, evt.BookingID),
		Timestamp:   now,
	})
	logNonCritical("payment audit comment", commentErr)

	notifyErr := s.notifier.Send(ctx, Notification{
		SenderName:     job.CustomerName,
		RecipientName:  job.TradesmanName,
		RecipientEmail: job.TradesmanEmail,
		MessageText:    fmt.Sprintf("%s has paid £%.2f for \"%s\". The job is confirmed.", job.CustomerName, evt.Amount, job.JobTitle),
		ReplyLink:      fmt.Sprintf("%s/jobs/%s", s.frontendURL, jobID),
	})
	logNonCritical("payment notification", notifyErr)

	return job, nil
}
