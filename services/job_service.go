package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Harrypapa1/patchwork-trades-backend/models"
	"go.mongodb.org/mongo-driver/v2/bson"
)

// jobTransitions maps each status to its legal successors and the role that
// drives each edge. pending_approval -> in_progress is the single backward
// edge: the customer requesting changes.
var jobTransitions = map[models.JobStatus]map[models.JobStatus]models.UserType{
	models.JobStatusAccepted: {
		models.JobStatusInProgress: models.UserTypeTradesman,
	},
	models.JobStatusInProgress: {
		models.JobStatusPendingApproval: models.UserTypeTradesman,
	},
	models.JobStatusPendingApproval: {
		models.JobStatusCompleted:  models.UserTypeCustomer,
		models.JobStatusInProgress: models.UserTypeCustomer,
	},
}

// JobService owns the post-acceptance lifecycle: status advancement,
// cancellation with fees, and review eligibility.
type JobService struct {
	jobs        JobRepository
	comments    CommentRepository
	profiles    ProfileRepository
	lock        *SystemLock
	notifier    Notifier
	frontendURL string
}

func NewJobService(
	jobs JobRepository,
	comments CommentRepository,
	profiles ProfileRepository,
	lock *SystemLock,
	notifier Notifier,
	frontendURL string,
) *JobService {
	return &JobService{
		jobs:        jobs,
		comments:    comments,
		profiles:    profiles,
		lock:        lock,
		notifier:    notifier,
		frontendURL: frontendURL,
	}
}

// buildJobFromBooking snapshots the booking's party details onto a new active
// job. The agreed price is derived from the accepted display value through the
// same parser the fee calculator uses, so the two always agree.
func buildJobFromBooking(b *models.Booking, display string, now time.Time) *models.ActiveJob {
	job := &models.ActiveJob{
		BookingID:          b.ID.Hex(),
		CustomerID:         b.CustomerID,
		CustomerName:       b.CustomerName,
		CustomerEmail:      b.CustomerEmail,
		CustomerPhoto:      b.CustomerPhoto,
		TradesmanID:        b.TradesmanID,
		TradesmanName:      b.TradesmanName,
		TradesmanEmail:     b.TradesmanEmail,
		TradesmanPhoto:     b.TradesmanPhoto,
		JobTitle:           b.JobTitle,
		JobDescription:     b.JobDescription,
		Status:             models.JobStatusAccepted,
		AgreedPrice:        ExtractBasePrice(display, b.HourlyRate),
		AgreedPriceDisplay: display,
		HourlyRate:         b.HourlyRate,
		JobPhotos:          b.JobPhotos,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if len(b.RequestedDates) > 0 {
		if d, err := time.Parse("2006-01-02", b.RequestedDates[0]); err == nil {
			job.AgreedDate = &d
		}
	}
	return job
}

// AdvanceJobStatus moves a job along the lifecycle. The tradesman drives
// accepted -> in_progress -> pending_approval; the customer approves to
// completed or sends the job back to in_progress for changes.
func (s *JobService) AdvanceJobStatus(ctx context.Context, jobID string, next models.JobStatus, actorID string, actorRole models.UserType) (*models.ActiveJob, error) {
	token, err := s.lock.Acquire(ctx, "advance_job_status")
	if err != nil {
		return nil, err
	}
	defer s.lock.Release(token, "advance_job_status")

	job, err := s.jobs.Get(ctx, jobID)
	if err != nil {
		return nil, newValidationError("job %s not found", jobID)
	}
	if err := s.checkActor(job, actorID, actorRole); err != nil {
		return nil, err
	}

	allowedRole, ok := jobTransitions[job.Status][next]
	if !ok {
		return nil, newValidationError("cannot move job from %s to %s", job.Status, next)
	}
	if allowedRole != actorRole {
		return nil, newValidationError("only the %s can move a job from %s to %s", allowedRole, job.Status, next)
	}

	previous := job.Status
	job.Status = next
	job.UpdatedAt = time.Now().UTC()

	if err := s.writeVerified(ctx, job); err != nil {
		return nil, err
	}

	s.systemComment(ctx, job, fmt.Sprintf("Status changed from %s to %s by the %s.", previous, next, actorRole))
	s.notifyOtherParty(ctx, job, actorRole, s.advanceMessage(job, previous, next))
	return job, nil
}

func (s *JobService) advanceMessage(job *models.ActiveJob, previous, next models.JobStatus) string {
	switch {
	case next == models.JobStatusInProgress && previous == models.JobStatusAccepted:
		return fmt.Sprintf("%s has started work on \"%s\".", job.TradesmanName, job.JobTitle)
	case next == models.JobStatusPendingApproval:
		return fmt.Sprintf("%s has finished \"%s\" and is waiting for your approval.", job.TradesmanName, job.JobTitle)
	case next == models.JobStatusCompleted:
		return fmt.Sprintf("%s has approved the work on \"%s\". The job is complete.", job.CustomerName, job.JobTitle)
	case next == models.JobStatusInProgress && previous == models.JobStatusPendingApproval:
		return fmt.Sprintf("%s has requested changes on \"%s\".", job.CustomerName, job.JobTitle)
	}
	return fmt.Sprintf("\"%s\" is now %s.", job.JobTitle, next)
}

// CancelJob cancels an active job. Customer cancellations carry a tiered fee
// based on how close the agreed date is; tradesman cancellations carry no fee
// but bump a warning counter on the profile. A tradesman cannot cancel work
// already submitted for approval.
func (s *JobService) CancelJob(ctx context.Context, jobID, actorID string, actorRole models.UserType) (*models.ActiveJob, error) {
	token, err := s.lock.Acquire(ctx, "cancel_job")
	if err != nil {
		return nil, err
	}
	defer s.lock.Release(token, "cancel_job")

	job, err := s.jobs.Get(ctx, jobID)
	if err != nil {
		return nil, newValidationError("job %s not found", jobID)
	}
	if err := s.checkActor(job, actorID, actorRole); err != nil {
		return nil, err
	}

	switch job.Status {
	case models.JobStatusAccepted, models.JobStatusInProgress:
		// cancellable by either party
	case models.JobStatusPendingApproval:
		if actorRole == models.UserTypeTradesman {
			return nil, newValidationError("work submitted for approval cannot be cancelled by the tradesman")
		}
	default:
		return nil, newValidationError("job is %s and cannot be cancelled", job.Status)
	}

	now := time.Now().UTC()
	var commentText string

	if actorRole == models.UserTypeCustomer {
		// No agreed date means the job was never scheduled; charge the
		// lowest tier rather than treating it as imminent.
		days := 8
		if job.AgreedDate != nil {
			days = DaysUntil(*job.AgreedDate, now)
		}
		base := ExtractBasePrice(job.AgreedPriceDisplay, job.HourlyRate)
		outcome := ComputeCancellation(base, models.UserTypeCustomer, days)

		job.CancellationFeeApplied = outcome.FeeAmount
		job.CancellationPercentage = outcome.FeePercent
		job.RefundAmount = outcome.RefundAmount
		commentText = fmt.Sprintf("Job cancelled by the customer. Cancellation fee: £%.2f (%d%%), refund: £%.2f.",
			outcome.FeeAmount, outcome.FeePercent, outcome.RefundAmount)
	} else {
		commentText = "Job cancelled by the tradesman. No fee applies."
	}

	job.Status = models.JobStatusCancelled
	job.CancelledAt = &now
	job.CancelledBy = string(actorRole)
	job.UpdatedAt = now

	if err := s.writeVerified(ctx, job); err != nil {
		return nil, err
	}

	if actorRole == models.UserTypeTradesman {
		s.recordTradesmanWarning(ctx, job.TradesmanID)
	}

	s.systemComment(ctx, job, commentText)
	s.notifyOtherParty(ctx, job, actorRole, fmt.Sprintf("\"%s\" has been cancelled by the %s.", job.JobTitle, actorRole))
	return job, nil
}

// SubmitReview records the customer's one-time review of a completed job on
// the tradesman's profile and recomputes the profile's average rating as a
// plain arithmetic mean.
func (s *JobService) SubmitReview(ctx context.Context, jobID, actorID string, rating int, comment string) (*models.ActiveJob, error) {
	comment = strings.TrimSpace(comment)
	if rating < 1 || rating > 5 {
		return nil, newValidationError("rating must be between 1 and 5")
	}
	if len(comment) < 10 {
		return nil, newValidationError("review comment must be at least 10 characters")
	}

	token, err := s.lock.Acquire(ctx, "submit_review")
	if err != nil {
		return nil, err
	}
	defer s.lock.Release(token, "submit_review")

	job, err := s.jobs.Get(ctx, jobID)
	if err != nil {
		return nil, newValidationError("job %s not found", jobID)
	}
	if job.CustomerID != actorID {
		return nil, newValidationError("only the customer on this job can review it")
	}
	if job.Status != models.JobStatusCompleted {
		return nil, newValidationError("only completed jobs can be reviewed")
	}
	if job.ReviewedByCustomer {
		return nil, newValidationError("this job has already been reviewed")
	}

	tradesman, err := s.profiles.GetTradesman(ctx, job.TradesmanID)
	if err != nil {
		return nil, fmt.Errorf("load tradesman profile: %w", err)
	}

	now := time.Now().UTC()
	tradesman.Reviews = append(tradesman.Reviews, models.Review{
		ID:           bson.NewObjectID(),
		JobID:        jobID,
		CustomerName: job.CustomerName,
		Rating:       rating,
		Comment:      comment,
		Date:         now,
	})

	var sum int
	for _, r := range tradesman.Reviews {
		sum += r.Rating
	}
	tradesman.AverageRating = float64(sum) / float64(len(tradesman.Reviews))
	tradesman.CompletedJobsCount++
	tradesman.UpdatedAt = now

	if err := s.profiles.PutTradesman(ctx, tradesman); err != nil {
		return nil, fmt.Errorf("save review: %w", err)
	}

	job.ReviewedByCustomer = true
	job.UpdatedAt = now

	if err := s.writeVerified(ctx, job); err != nil {
		return nil, err
	}

	s.systemComment(ctx, job, fmt.Sprintf("%s left a %d-star review.", job.CustomerName, rating))
	s.notifyOtherParty(ctx, job, models.UserTypeCustomer,
		fmt.Sprintf("%s left you a %d-star review for \"%s\".", job.CustomerName, rating, job.JobTitle))
	return job, nil
}

func (s *JobService) checkActor(job *models.ActiveJob, actorID string, actorRole models.UserType) error {
	switch actorRole {
	case models.UserTypeCustomer:
		if job.CustomerID != actorID {
			return newValidationError("you are not the customer on this job")
		}
	case models.UserTypeTradesman:
		if job.TradesmanID != actorID {
			return newValidationError("you are not the tradesman on this job")
		}
	default:
		return newValidationError("unknown actor role %q", actorRole)
	}
	return nil
}

// writeVerified persists the job and re-reads it to confirm the status and
// review flag actually stored.
func (s *JobService) writeVerified(ctx context.Context, job *models.ActiveJob) error {
	id := job.ID.Hex()
	if err := s.jobs.Put(ctx, job); err != nil {
		return fmt.Errorf("write job %s: %w", id, err)
	}

	stored, err := s.jobs.Get(ctx, id)
	if err != nil {
		return &IntegrityError{
			Collection: "active_jobs", DocID: id, Field: "status",
			Expected: job.Status, Actual: fmt.Sprintf("unreadable: %v", err),
		}
	}
	if stored.Status != job.Status || stored.ReviewedByCustomer != job.ReviewedByCustomer {
		return &IntegrityError{
			Collection: "active_jobs", DocID: id, Field: "status/reviewed_by_customer",
			Expected: fmt.Sprintf("%s reviewed=%t", job.Status, job.ReviewedByCustomer),
			Actual:   fmt.Sprintf("%s reviewed=%t", stored.Status, stored.ReviewedByCustomer),
		}
	}
	return nil
}

func (s *JobService) recordTradesmanWarning(ctx context.Context, tradesmanID string) {
	tradesman, err := s.profiles.GetTradesman(ctx, tradesmanID)
	if err != nil {
		logNonCritical("tradesman cancellation warning", err)
		return
	}
	tradesman.CancellationWarnings++
	tradesman.UpdatedAt = time.Now().UTC()
	logNonCritical("tradesman cancellation warning", s.profiles.PutTradesman(ctx, tradesman))
}

func (s *JobService) systemComment(ctx context.Context, job *models.ActiveJob, text string) {
	err := s.comments.Insert(ctx, &models.BookingComment{
		ActiveJobID: job.ID.Hex(),
		UserType:    models.UserTypeSystem,
		Comment:     text,
		Timestamp:   time.Now().UTC(),
	})
	logNonCritical("job audit comment", err)
}

func (s *JobService) notifyOtherParty(ctx context.Context, job *models.ActiveJob, actorRole models.UserType, message string) {
	n := Notification{
		MessageText: message,
		ReplyLink:   fmt.Sprintf("%s/jobs/%s", s.frontendURL, job.ID.Hex()),
	}
	if actorRole == models.UserTypeCustomer {
		n.SenderName = job.CustomerName
		n.RecipientName = job.TradesmanName
		n.RecipientEmail = job.TradesmanEmail
	} else {
		n.SenderName = job.TradesmanName
		n.RecipientName = job.CustomerName
		n.RecipientEmail = job.CustomerEmail
	}
	logNonCritical("job notification", s.notifier.Send(ctx, n))
}
