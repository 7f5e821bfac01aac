package services

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/Harrypapa1/patchwork-trades-backend/models"
	"go.mongodb.org/mongo-driver/v2/bson"
)

// In-memory repositories backing the service tests. They store copies, not
// pointers, so post-write verification reads see what was actually persisted.

type memBookingRepo struct {
	mu      sync.Mutex
	docs    map[string]models.Booking
	putErr  error
	putHook func(*models.Booking)
}

func newMemBookingRepo() *memBookingRepo {
	return &memBookingRepo{docs: map[string]models.Booking{}}
}

func (r *memBookingRepo) Get(ctx context.Context, id string) (*models.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.docs[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &b, nil
}

func (r *memBookingRepo) Insert(ctx context.Context, b *models.Booking) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if b.ID.IsZero() {
		b.ID = bson.NewObjectID()
	}
	r.docs[b.ID.Hex()] = *b
	return b.ID.Hex(), nil
}

func (r *memBookingRepo) Put(ctx context.Context, b *models.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.putErr != nil {
		return r.putErr
	}
	if _, ok := r.docs[b.ID.Hex()]; !ok {
		return ErrNotFound
	}
	stored := *b
	if r.putHook != nil {
		r.putHook(&stored)
	}
	r.docs[b.ID.Hex()] = stored
	return nil
}

type memJobRepo struct {
	mu      sync.Mutex
	docs    map[string]models.ActiveJob
	putHook func(*models.ActiveJob)
}

func newMemJobRepo() *memJobRepo {
	return &memJobRepo{docs: map[string]models.ActiveJob{}}
}

func (r *memJobRepo) Get(ctx context.Context, id string) (*models.ActiveJob, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	j, ok := r.docs[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &j, nil
}

func (r *memJobRepo) FindByBookingID(ctx context.Context, bookingID string) (*models.ActiveJob, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, j := range r.docs {
		if j.BookingID == bookingID {
			found := j
			return &found, nil
		}
	}
	return nil, ErrNotFound
}

func (r *memJobRepo) Insert(ctx context.Context, j *models.ActiveJob) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if j.ID.IsZero() {
		j.ID = bson.NewObjectID()
	}
	r.docs[j.ID.Hex()] = *j
	return j.ID.Hex(), nil
}

func (r *memJobRepo) Put(ctx context.Context, j *models.ActiveJob) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.docs[j.ID.Hex()]; !ok {
		return ErrNotFound
	}
	stored := *j
	if r.putHook != nil {
		r.putHook(&stored)
	}
	r.docs[j.ID.Hex()] = stored
	return nil
}

func (r *memJobRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.docs)
}

type memCommentRepo struct {
	mu       sync.Mutex
	comments []models.BookingComment
}

func (r *memCommentRepo) Insert(ctx context.Context, c *models.BookingComment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.comments = append(r.comments, *c)
	return nil
}

func (r *memCommentRepo) containing(substr string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, c := range r.comments {
		if strings.Contains(c.Comment, substr) {
			n++
		}
	}
	return n
}

type memProfileRepo struct {
	mu        sync.Mutex
	customers map[string]models.Customer
	tradesmen map[string]models.Tradesman
}

func newMemProfileRepo() *memProfileRepo {
	return &memProfileRepo{
		customers: map[string]models.Customer{},
		tradesmen: map[string]models.Tradesman{},
	}
}

func (r *memProfileRepo) GetCustomer(ctx context.Context, id string) (*models.Customer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.customers[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &c, nil
}

func (r *memProfileRepo) GetTradesman(ctx context.Context, id string) (*models.Tradesman, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tradesmen[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &t, nil
}

func (r *memProfileRepo) PutTradesman(ctx context.Context, t *models.Tradesman) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tradesmen[t.ID.Hex()]; !ok {
		return ErrNotFound
	}
	r.tradesmen[t.ID.Hex()] = *t
	return nil
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []Notification
}

func (n *fakeNotifier) Send(ctx context.Context, msg Notification) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, msg)
	return nil
}

// testEnv wires all three services over the same in-memory store, the way
// main wires them over Mongo. The lock polls every millisecond so contention
// tests finish quickly.
type testEnv struct {
	bookings *memBookingRepo
	jobs     *memJobRepo
	comments *memCommentRepo
	profiles *memProfileRepo
	notifier *fakeNotifier
	lock     *SystemLock

	bookingSvc *BookingService
	jobSvc     *JobService
	paymentSvc *PaymentService

	customerID  string
	tradesmanID string
}

func newTestEnv() *testEnv {
	env := &testEnv{
		bookings: newMemBookingRepo(),
		jobs:     newMemJobRepo(),
		comments: &memCommentRepo{},
		profiles: newMemProfileRepo(),
		notifier: &fakeNotifier{},
		lock:     NewSystemLockWithTiming(time.Millisecond, 20),
	}
	env.bookingSvc = NewBookingService(env.bookings, env.jobs, env.comments, env.profiles, env.lock, env.notifier, "http://localhost:3000")
	env.jobSvc = NewJobService(env.jobs, env.comments, env.profiles, env.lock, env.notifier, "http://localhost:3000")
	env.paymentSvc = NewPaymentService(env.bookings, env.jobs, env.comments, env.lock, env.notifier, "http://localhost:3000")

	now := time.Now().UTC()
	customer := models.Customer{
		ID:        bson.NewObjectID(),
		Name:      "Alice Carter",
		Email:     "alice@example.com",
		CreatedAt: now,
		UpdatedAt: now,
	}
	tradesman := models.Tradesman{
		ID:         bson.NewObjectID(),
		Name:       "Bob Mason",
		Email:      "bob@example.com",
		Trade:      "plumber",
		Slug:       "bob-mason",
		HourlyRate: 85,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	env.customerID = customer.ID.Hex()
	env.tradesmanID = tradesman.ID.Hex()
	env.profiles.customers[env.customerID] = customer
	env.profiles.tradesmen[env.tradesmanID] = tradesman

	return env
}

func (env *testEnv) requestQuote(ctx context.Context) *models.Booking {
	b, err := env.bookingSvc.RequestQuote(ctx, RequestQuoteInput{
		CustomerID:     env.customerID,
		TradesmanID:    env.tradesmanID,
		JobTitle:       "Fix leaking tap",
		JobDescription: "Kitchen tap drips constantly",
		Urgency:        models.UrgencyStandard,
		RequestedDates: []string{time.Now().UTC().AddDate(0, 0, 14).Format("2006-01-02")},
	})
	if err != nil {
		panic("seed booking: " + err.Error())
	}
	return b
}

// seedJob creates an active job directly in the store, bypassing negotiation.
func (env *testEnv) seedJob(status models.JobStatus, agreedDate *time.Time) *models.ActiveJob {
	now := time.Now().UTC()
	job := &models.ActiveJob{
		BookingID:          bson.NewObjectID().Hex(),
		CustomerID:         env.customerID,
		CustomerName:       "Alice Carter",
		CustomerEmail:      "alice@example.com",
		TradesmanID:        env.tradesmanID,
		TradesmanName:      "Bob Mason",
		TradesmanEmail:     "bob@example.com",
		JobTitle:           "Fix leaking tap",
		Status:             status,
		AgreedPrice:        200,
		AgreedPriceDisplay: "£200 fixed",
		HourlyRate:         85,
		AgreedDate:         agreedDate,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if _, err := env.jobs.Insert(context.Background(), job); err != nil {
		panic("seed job: " + err.Error())
	}
	return job
}
