package services

import (
	"context"

	"github.com/Harrypapa1/patchwork-trades-backend/models"
)

// Repositories abstract the document store so the state machines can be
// exercised without a live database. The store offers no transactions, which
// is why the services re-read and verify after every authoritative write.

type BookingRepository interface {
	Get(ctx context.Context, id string) (*models.Booking, error)
	Insert(ctx context.Context, b *models.Booking) (string, error)
	Put(ctx context.Context, b *models.Booking) error
}

type JobRepository interface {
	Get(ctx context.Context, id string) (*models.ActiveJob, error)
	// FindByBookingID returns ErrNotFound when no job references the booking.
	FindByBookingID(ctx context.Context, bookingID string) (*models.ActiveJob, error)
	Insert(ctx context.Context, j *models.ActiveJob) (string, error)
	Put(ctx context.Context, j *models.ActiveJob) error
}

type CommentRepository interface {
	Insert(ctx context.Context, c *models.BookingComment) error
}

type ProfileRepository interface {
	GetCustomer(ctx context.Context, id string) (*models.Customer, error)
	GetTradesman(ctx context.Context, id string) (*models.Tradesman, error)
	PutTradesman(ctx context.Context, t *models.Tradesman) error
}
