package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Harrypapa1/patchwork-trades-backend/models"
)

// BookingService owns the quote negotiation state machine for a single
// booking: one customer, one tradesman, one job ask. All mutating operations
// run under the system lock and re-read authoritative state after acquiring
// it; a snapshot taken before the lock is never trusted.
type BookingService struct {
	bookings    BookingRepository
	jobs        JobRepository
	comments    CommentRepository
	profiles    ProfileRepository
	lock        *SystemLock
	notifier    Notifier
	frontendURL string
}

func NewBookingService(
	bookings BookingRepository,
	jobs JobRepository,
	comments CommentRepository,
	profiles ProfileRepository,
	lock *SystemLock,
	notifier Notifier,
	frontendURL string,
) *BookingService {
	return &BookingService{
		bookings:    bookings,
		jobs:        jobs,
		comments:    comments,
		profiles:    profiles,
		lock:        lock,
		notifier:    notifier,
		frontendURL: frontendURL,
	}
}

type RequestQuoteInput struct {
	CustomerID     string
	TradesmanID    string
	JobTitle       string
	JobDescription string
	Urgency        models.UrgencyTier
	RequestedDates []string
	JobPhotos      []string
}

// RequestQuote creates a new booking in "Quote Requested" with the party
// details and hourly rate snapshotted from the profiles. Creation is not
// guarded: there is no existing state to race against.
func (s *BookingService) RequestQuote(ctx context.Context, in RequestQuoteInput) (*models.Booking, error) {
	customer, err := s.profiles.GetCustomer(ctx, in.CustomerID)
	if err != nil {
		return nil, newValidationError("customer %s not found", in.CustomerID)
	}
	tradesman, err := s.profiles.GetTradesman(ctx, in.TradesmanID)
	if err != nil {
		return nil, newValidationError("tradesman %s not found", in.TradesmanID)
	}
	if strings.TrimSpace(in.JobTitle) == "" {
		return nil, newValidationError("job title is required")
	}

	now := time.Now().UTC()
	b := &models.Booking{
		CustomerID:     customer.ID.Hex(),
		CustomerName:   customer.Name,
		CustomerEmail:  customer.Email,
		CustomerPhoto:  customer.Photo,
		TradesmanID:    tradesman.ID.Hex(),
		TradesmanName:  tradesman.Name,
		TradesmanEmail: tradesman.Email,
		TradesmanPhoto: tradesman.Photo,
		JobTitle:       strings.TrimSpace(in.JobTitle),
		JobDescription: strings.TrimSpace(in.JobDescription),
		Urgency:        in.Urgency,
		RequestedDates: in.RequestedDates,
		JobPhotos:      in.JobPhotos,
		HourlyRate:     tradesman.HourlyRate,
		Status:         models.BookingStatusQuoteRequested,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	id, err := s.bookings.Insert(ctx, b)
	if err != nil {
		return nil, fmt.Errorf("create booking: %w", err)
	}

	s.systemComment(ctx, id, "", fmt.Sprintf("%s requested a quote for \"%s\"", b.CustomerName, b.JobTitle))
	s.notifyTradesman(ctx, b, fmt.Sprintf("%s has requested a quote for \"%s\".", b.CustomerName, b.JobTitle))

	stored, err := s.bookings.Get(ctx, id)
	if err != nil {
		return b, nil
	}
	return stored, nil
}

// OfferQuote sets a fixed-price quote from the tradesman. Legal from the
// initial request and as a counter to a customer counter-offer; any pending
// counter fields are cleared so at most one side's offer is ever open.
func (s *BookingService) OfferQuote(ctx context.Context, bookingID, actorID, quote string) (*models.Booking, error) {
	quote = strings.TrimSpace(quote)
	if quote == "" {
		return nil, newValidationError("quote must not be empty")
	}

	token, err := s.lock.Acquire(ctx, "offer_quote")
	if err != nil {
		return nil, err
	}
	defer s.lock.Release(token, "offer_quote")

	b, err := s.bookings.Get(ctx, bookingID)
	if err != nil {
		return nil, newValidationError("booking %s not found", bookingID)
	}
	if b.TradesmanID != actorID {
		return nil, newValidationError("only the tradesman on this booking can offer a quote")
	}
	if b.Status != models.BookingStatusQuoteRequested {
		return nil, newValidationError("booking is %s and no longer open to quoting", b.Status)
	}
	if b.HasCustomQuote {
		return nil, newValidationError("a quote is already pending on this booking")
	}

	b.CustomQuote = quote
	b.HasCustomQuote = true
	b.CustomerCounterQuote = ""
	b.HasCustomerCounter = false
	b.CustomerReasoning = ""
	b.UpdatedAt = time.Now().UTC()

	if err := s.writeVerified(ctx, b); err != nil {
		return nil, err
	}

	s.systemComment(ctx, bookingID, "", fmt.Sprintf("%s offered a quote: %s", b.TradesmanName, quote))
	s.notifyCustomer(ctx, b, fmt.Sprintf("%s has quoted %s for \"%s\".", b.TradesmanName, quote, b.JobTitle))
	return b, nil
}

// CounterOffer replaces a pending tradesman quote with the customer's counter.
func (s *BookingService) CounterOffer(ctx context.Context, bookingID, actorID, amount, reasoning string) (*models.Booking, error) {
	amount = strings.TrimSpace(amount)
	if amount == "" {
		return nil, newValidationError("counter-offer amount must not be empty")
	}

	token, err := s.lock.Acquire(ctx, "counter_offer")
	if err != nil {
		return nil, err
	}
	defer s.lock.Release(token, "counter_offer")

	b, err := s.bookings.Get(ctx, bookingID)
	if err != nil {
		return nil, newValidationError("booking %s not found", bookingID)
	}
	if b.CustomerID != actorID {
		return nil, newValidationError("only the customer on this booking can counter-offer")
	}
	if b.Status != models.BookingStatusQuoteRequested || !b.HasCustomQuote {
		return nil, newValidationError("there is no pending quote to counter")
	}

	b.CustomQuote = ""
	b.HasCustomQuote = false
	b.CustomerCounterQuote = amount
	b.HasCustomerCounter = true
	b.CustomerReasoning = strings.TrimSpace(reasoning)
	b.UpdatedAt = time.Now().UTC()

	if err := s.writeVerified(ctx, b); err != nil {
		return nil, err
	}

	text := fmt.Sprintf("%s countered with %s", b.CustomerName, amount)
	if b.CustomerReasoning != "" {
		text += fmt.Sprintf(" (%s)", b.CustomerReasoning)
	}
	s.systemComment(ctx, bookingID, "", text)
	s.notifyTradesman(ctx, b, fmt.Sprintf("%s has made a counter-offer of %s for \"%s\".", b.CustomerName, amount, b.JobTitle))
	return b, nil
}

// AcceptQuote closes the negotiation and promotes the booking to an active
// job. The customer accepts a pending tradesman quote; the tradesman accepts
// either the customer's counter-offer or, with nothing on the table, the
// standard hourly rate.
func (s *BookingService) AcceptQuote(ctx context.Context, bookingID, actorID string, actorRole models.UserType) (*models.Booking, error) {
	token, err := s.lock.Acquire(ctx, "accept_quote")
	if err != nil {
		return nil, err
	}
	defer s.lock.Release(token, "accept_quote")

	b, err := s.bookings.Get(ctx, bookingID)
	if err != nil {
		return nil, newValidationError("booking %s not found", bookingID)
	}
	if b.Status != models.BookingStatusQuoteRequested {
		return nil, newValidationError("booking is already %s", b.Status)
	}

	var display string
	switch actorRole {
	case models.UserTypeCustomer:
		if b.CustomerID != actorID {
			return nil, newValidationError("only the customer on this booking can accept its quote")
		}
		if !b.HasCustomQuote {
			return nil, newValidationError("there is no pending quote to accept")
		}
		display = b.CustomQuote
	case models.UserTypeTradesman:
		if b.TradesmanID != actorID {
			return nil, newValidationError("only the tradesman on this booking can accept it")
		}
		if b.HasCustomQuote {
			return nil, newValidationError("your own quote is pending; the customer must respond")
		}
		if b.HasCustomerCounter {
			display = b.CustomerCounterQuote
		} else {
			// Direct accept at the advertised rate, no fixed price agreed.
			display = fmt.Sprintf("Standard rate (£%.2f/hour)", b.HourlyRate)
		}
	default:
		return nil, newValidationError("unknown actor role %q", actorRole)
	}

	now := time.Now().UTC()

	// A job may already exist if a previous accept wrote the job but failed
	// to update the booking. Reuse it rather than creating a duplicate.
	job, err := s.jobs.FindByBookingID(ctx, bookingID)
	if err == ErrNotFound {
		job = buildJobFromBooking(b, display, now)
		jobID, insertErr := s.jobs.Insert(ctx, job)
		if insertErr != nil {
			return nil, fmt.Errorf("create active job: %w", insertErr)
		}
		b.ActiveJobID = jobID
	} else if err != nil {
		return nil, fmt.Errorf("look up active job: %w", err)
	} else {
		b.ActiveJobID = job.ID.Hex()
	}

	b.Status = models.BookingStatusAccepted
	b.UpdatedAt = now

	if err := s.writeVerified(ctx, b); err != nil {
		return nil, err
	}

	s.systemComment(ctx, bookingID, "", fmt.Sprintf("Quote accepted at %s. Job created.", display))
	actorName := s.partyName(b, actorRole)
	s.notifyCounterparty(ctx, b, actorRole, fmt.Sprintf("%s accepted the quote for \"%s\" at %s. The job is now active.", actorName, b.JobTitle, display))
	return b, nil
}

// RejectQuote is asymmetric on purpose. A tradesman rejecting the initial
// request closes the booking for good; a customer rejecting a quote, or a
// tradesman rejecting a counter-offer, clears the offer and reopens the
// booking for a fresh one.
func (s *BookingService) RejectQuote(ctx context.Context, bookingID, actorID string, actorRole models.UserType) (*models.Booking, error) {
	token, err := s.lock.Acquire(ctx, "reject_quote")
	if err != nil {
		return nil, err
	}
	defer s.lock.Release(token, "reject_quote")

	b, err := s.bookings.Get(ctx, bookingID)
	if err != nil {
		return nil, newValidationError("booking %s not found", bookingID)
	}
	if b.Status != models.BookingStatusQuoteRequested {
		return nil, newValidationError("booking is already %s", b.Status)
	}

	var commentText, message string

	switch actorRole {
	case models.UserTypeCustomer:
		if b.CustomerID != actorID {
			return nil, newValidationError("only the customer on this booking can reject its quote")
		}
		if !b.HasCustomQuote {
			return nil, newValidationError("there is no pending quote to reject")
		}
		b.CustomQuote = ""
		b.HasCustomQuote = false
		commentText = fmt.Sprintf("%s declined the quote. Booking reopened for a new offer.", b.CustomerName)
		message = fmt.Sprintf("%s declined your quote for \"%s\". You can offer a new price.", b.CustomerName, b.JobTitle)
	case models.UserTypeTradesman:
		if b.TradesmanID != actorID {
			return nil, newValidationError("only the tradesman on this booking can reject it")
		}
		switch {
		case b.HasCustomerCounter:
			b.CustomerCounterQuote = ""
			b.HasCustomerCounter = false
			b.CustomerReasoning = ""
			commentText = fmt.Sprintf("%s declined the counter-offer. Booking reopened.", b.TradesmanName)
			message = fmt.Sprintf("%s declined your counter-offer for \"%s\".", b.TradesmanName, b.JobTitle)
		case b.HasCustomQuote:
			return nil, newValidationError("your own quote is pending; you can withdraw it by offering a new one")
		default:
			b.Status = models.BookingStatusRejected
			commentText = fmt.Sprintf("%s declined the job request.", b.TradesmanName)
			message = fmt.Sprintf("%s is unable to take on \"%s\".", b.TradesmanName, b.JobTitle)
		}
	default:
		return nil, newValidationError("unknown actor role %q", actorRole)
	}

	b.UpdatedAt = time.Now().UTC()

	if err := s.writeVerified(ctx, b); err != nil {
		return nil, err
	}

	s.systemComment(ctx, bookingID, "", commentText)
	s.notifyCounterparty(ctx, b, actorRole, message)
	return b, nil
}

// writeVerified persists the booking, re-reads it, and asserts the stored
// negotiation state matches what was written. The store has no transactions;
// this read-back is the only confirmation the write actually took.
func (s *BookingService) writeVerified(ctx context.Context, b *models.Booking) error {
	id := b.ID.Hex()
	if err := s.bookings.Put(ctx, b); err != nil {
		return fmt.Errorf("write booking %s: %w", id, err)
	}

	stored, err := s.bookings.Get(ctx, id)
	if err != nil {
		return &IntegrityError{
			Collection: "bookings", DocID: id, Field: "status",
			Expected: b.Status, Actual: fmt.Sprintf("unreadable: %v", err),
		}
	}
	if stored.Status != b.Status || stored.HasCustomQuote != b.HasCustomQuote || stored.HasCustomerCounter != b.HasCustomerCounter {
		return &IntegrityError{
			Collection: "bookings", DocID: id, Field: "status/quote flags",
			Expected: fmt.Sprintf("%s quote=%t counter=%t", b.Status, b.HasCustomQuote, b.HasCustomerCounter),
			Actual:   fmt.Sprintf("%s quote=%t counter=%t", stored.Status, stored.HasCustomQuote, stored.HasCustomerCounter),
		}
	}
	return nil
}

func (s *BookingService) systemComment(ctx context.Context, bookingID, jobID, text string) {
	err := s.comments.Insert(ctx, &models.BookingComment{
		BookingID:   bookingID,
		ActiveJobID: jobID,
		UserType:    models.UserTypeSystem,
		Comment:     text,
		Timestamp:   time.Now().UTC(),
	})
	logNonCritical("booking audit comment", err)
}

func (s *BookingService) notifyCounterparty(ctx context.Context, b *models.Booking, actorRole models.UserType, message string) {
	if actorRole == models.UserTypeCustomer {
		s.notifyTradesman(ctx, b, message)
	} else {
		s.notifyCustomer(ctx, b, message)
	}
}

func (s *BookingService) notifyCustomer(ctx context.Context, b *models.Booking, message string) {
	err := s.notifier.Send(ctx, Notification{
		SenderName:     b.TradesmanName,
		RecipientName:  b.CustomerName,
		RecipientEmail: b.CustomerEmail,
		MessageText:    message,
		ReplyLink:      fmt.Sprintf("%s/bookings/%s", s.frontendURL, b.ID.Hex()),
	})
	logNonCritical("customer notification", err)
}

func (s *BookingService) notifyTradesman(ctx context.Context, b *models.Booking, message string) {
	err := s.notifier.Send(ctx, Notification{
		SenderName:     b.CustomerName,
		RecipientName:  b.TradesmanName,
		RecipientEmail: b.TradesmanEmail,
		MessageText:    message,
		ReplyLink:      fmt.Sprintf("%s/bookings/%s", s.frontendURL, b.ID.Hex()),
	})
	logNonCritical("tradesman notification", err)
}

func (s *BookingService) partyName(b *models.Booking, actorRole models.UserType) string {
	if actorRole == models.UserTypeCustomer {
		return b.CustomerName
	}
	return b.TradesmanName
}
