package controllers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Harrypapa1/patchwork-trades-backend/models"
	"github.com/Harrypapa1/patchwork-trades-backend/services"
	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/v2/bson"
)

type stubBookingRepo struct {
	booking models.Booking
}

func (r *stubBookingRepo) Get(ctx context.Context, id string) (*models.Booking, error) {
	if r.booking.ID.Hex() != id {
		return nil, services.ErrNotFound
	}
	b := r.booking
	return &b, nil
}

func (r *stubBookingRepo) Insert(ctx context.Context, b *models.Booking) (string, error) {
	if b.ID.IsZero() {
		b.ID = bson.NewObjectID()
	}
	r.booking = *b
	return b.ID.Hex(), nil
}

func (r *stubBookingRepo) Put(ctx context.Context, b *models.Booking) error {
	r.booking = *b
	return nil
}

type stubJobRepo struct {
	jobs map[string]models.ActiveJob
}

func (r *stubJobRepo) Get(ctx context.Context, id string) (*models.ActiveJob, error) {
	j, ok := r.jobs[id]
	if !ok {
		return nil, services.ErrNotFound
	}
	return &j, nil
}

func (r *stubJobRepo) FindByBookingID(ctx context.Context, bookingID string) (*models.ActiveJob, error) {
	for _, j := range r.jobs {
		if j.BookingID == bookingID {
			found := j
			return &found, nil
		}
	}
	return nil, services.ErrNotFound
}

func (r *stubJobRepo) Insert(ctx context.Context, j *models.ActiveJob) (string, error) {
	if j.ID.IsZero() {
		j.ID = bson.NewObjectID()
	}
	r.jobs[j.ID.Hex()] = *j
	return j.ID.Hex(), nil
}

func (r *stubJobRepo) Put(ctx context.Context, j *models.ActiveJob) error {
	r.jobs[j.ID.Hex()] = *j
	return nil
}

type stubCommentRepo struct{}

func (r *stubCommentRepo) Insert(ctx context.Context, c *models.BookingComment) error { return nil }

type stubNotifier struct{}

func (n *stubNotifier) Send(ctx context.Context, msg services.Notification) error { return nil }

func newWebhookRouter(t *testing.T) (*gin.Engine, *stubBookingRepo, *stubJobRepo) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	t.Setenv("PAYMENT_WEBHOOK_SECRET", "hook-secret")

	now := time.Now().UTC()
	bookings := &stubBookingRepo{booking: models.Booking{
		ID:             bson.NewObjectID(),
		CustomerID:     bson.NewObjectID().Hex(),
		CustomerName:   "Alice Carter",
		CustomerEmail:  "alice@example.com",
		TradesmanID:    bson.NewObjectID().Hex(),
		TradesmanName:  "Bob Mason",
		TradesmanEmail: "bob@example.com",
		JobTitle:       "Fix leaking tap",
		HourlyRate:     85,
		Status:         models.BookingStatusQuoteRequested,
		CreatedAt:      now,
		UpdatedAt:      now,
	}}
	jobs := &stubJobRepo{jobs: map[string]models.ActiveJob{}}

	ps := services.NewPaymentService(
		bookings, jobs, &stubCommentRepo{},
		services.NewSystemLockWithTiming(time.Millisecond, 5),
		&stubNotifier{}, "http://localhost:3000",
	)

	r := gin.New()
	r.POST("/webhooks/payment", PaymentWebhook(ps))
	return r, bookings, jobs
}

func TestPaymentWebhook(t *testing.T) {
	r, bookings, jobs := newWebhookRouter(t)

	body := `{"amount":150,"currency":"GBP","metadata":{` +
		`"bookingId":"` + bookings.booking.ID.Hex() + `",` +
		`"customerId":"` + bookings.booking.CustomerID + `",` +
		`"tradesmanId":"` + bookings.booking.TradesmanID + `"}}`

	req := httptest.NewRequest(http.MethodPost, "/webhooks/payment", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Webhook-Secret", "hook-secret")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	if len(jobs.jobs) != 1 {
		t.Fatalf("job count = %d, want 1", len(jobs.jobs))
	}
	if !strings.Contains(w.Body.String(), `"job"`) {
		t.Errorf("response should carry the created job, got %s", w.Body.String())
	}
}

func TestPaymentWebhookRejectsBadSecret(t *testing.T) {
	r, bookings, jobs := newWebhookRouter(t)

	body := `{"amount":150,"currency":"GBP","metadata":{` +
		`"bookingId":"` + bookings.booking.ID.Hex() + `",` +
		`"customerId":"` + bookings.booking.CustomerID + `",` +
		`"tradesmanId":"` + bookings.booking.TradesmanID + `"}}`

	req := httptest.NewRequest(http.MethodPost, "/webhooks/payment", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Webhook-Secret", "wrong")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", w.Code)
	}
	if len(jobs.jobs) != 0 {
		t.Fatalf("no job should be created, got %d", len(jobs.jobs))
	}
}
