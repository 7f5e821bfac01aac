package services

import (
	"context"
	"testing"

	"github.com/Harrypapa1/patchwork-trades-backend/models"
)

func TestRequestQuote(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	b, err := env.bookingSvc.RequestQuote(ctx, RequestQuoteInput{
		CustomerID:     env.customerID,
		TradesmanID:    env.tradesmanID,
		JobTitle:       "Fix leaking tap",
		JobDescription: "Kitchen tap drips constantly",
		Urgency:        models.UrgencyUrgent,
	})
	if err != nil {
		t.Fatalf("RequestQuote: %v", err)
	}
	if b.Status != models.BookingStatusQuoteRequested {
		t.Errorf("status = %q, want %q", b.Status, models.BookingStatusQuoteRequested)
	}
	if b.HasCustomQuote || b.HasCustomerCounter {
		t.Error("a fresh request must have no quote or counter pending")
	}
	if b.CustomerName != "Alice Carter" || b.TradesmanName != "Bob Mason" {
		t.Errorf("party snapshot wrong: %q / %q", b.CustomerName, b.TradesmanName)
	}
	if b.HourlyRate != 85 {
		t.Errorf("hourly rate snapshot = %v, want 85", b.HourlyRate)
	}
	if env.comments.containing("requested a quote") != 1 {
		t.Error("expected one system comment for the request")
	}
	if len(env.notifier.sent) != 1 || env.notifier.sent[0].RecipientEmail != "bob@example.com" {
		t.Errorf("expected one notification to the tradesman, got %v", env.notifier.sent)
	}
}

func TestRequestQuoteValidation(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	tests := []struct {
		name string
		in   RequestQuoteInput
	}{
		{"unknown customer", RequestQuoteInput{CustomerID: "nope", TradesmanID: env.tradesmanID, JobTitle: "x"}},
		{"unknown tradesman", RequestQuoteInput{CustomerID: env.customerID, TradesmanID: "nope", JobTitle: "x"}},
		{"blank title", RequestQuoteInput{CustomerID: env.customerID, TradesmanID: env.tradesmanID, JobTitle: "   "}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := env.bookingSvc.RequestQuote(ctx, tc.in); !IsValidationError(err) {
				t.Errorf("expected ValidationError, got %v", err)
			}
		})
	}
}

func TestNegotiationQuoteThenCustomerAccepts(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	b := env.requestQuote(ctx)
	id := b.ID.Hex()

	b, err := env.bookingSvc.OfferQuote(ctx, id, env.tradesmanID, "£150 fixed")
	if err != nil {
		t.Fatalf("OfferQuote: %v", err)
	}
	if !b.HasCustomQuote || b.CustomQuote != "£150 fixed" {
		t.Fatalf("quote not recorded: %+v", b)
	}
	if b.HasCustomerCounter {
		t.Fatal("quote and counter must never be pending together")
	}

	b, err = env.bookingSvc.AcceptQuote(ctx, id, env.customerID, models.UserTypeCustomer)
	if err != nil {
		t.Fatalf("AcceptQuote: %v", err)
	}
	if b.Status != models.BookingStatusAccepted {
		t.Errorf("status = %q, want Accepted", b.Status)
	}
	if b.ActiveJobID == "" {
		t.Fatal("accepted booking should link to its active job")
	}

	job, err := env.jobs.Get(ctx, b.ActiveJobID)
	if err != nil {
		t.Fatalf("job missing: %v", err)
	}
	if job.Status != models.JobStatusAccepted {
		t.Errorf("job status = %q, want accepted", job.Status)
	}
	if job.AgreedPrice != 150 {
		t.Errorf("agreed price = %v, want 150 from the quote", job.AgreedPrice)
	}
	if job.AgreedDate == nil {
		t.Error("agreed date should come from the first requested date")
	}
}

func TestNegotiationCounterThenTradesmanAccepts(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	b := env.requestQuote(ctx)
	id := b.ID.Hex()

	if _, err := env.bookingSvc.OfferQuote(ctx, id, env.tradesmanID, "£150"); err != nil {
		t.Fatalf("OfferQuote: %v", err)
	}

	b, err := env.bookingSvc.CounterOffer(ctx, id, env.customerID, "£120", "budget is tight")
	if err != nil {
		t.Fatalf("CounterOffer: %v", err)
	}
	if !b.HasCustomerCounter || b.CustomerCounterQuote != "£120" {
		t.Fatalf("counter not recorded: %+v", b)
	}
	if b.HasCustomQuote || b.CustomQuote != "" {
		t.Fatal("countering must clear the tradesman's quote")
	}

	b, err = env.bookingSvc.AcceptQuote(ctx, id, env.tradesmanID, models.UserTypeTradesman)
	if err != nil {
		t.Fatalf("AcceptQuote: %v", err)
	}
	job, err := env.jobs.Get(ctx, b.ActiveJobID)
	if err != nil {
		t.Fatalf("job missing: %v", err)
	}
	if job.AgreedPrice != 120 {
		t.Errorf("agreed price = %v, want 120 from the counter", job.AgreedPrice)
	}
}

func TestTradesmanAcceptsAtStandardRate(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	b := env.requestQuote(ctx)

	b, err := env.bookingSvc.AcceptQuote(ctx, b.ID.Hex(), env.tradesmanID, models.UserTypeTradesman)
	if err != nil {
		t.Fatalf("AcceptQuote: %v", err)
	}
	job, err := env.jobs.Get(ctx, b.ActiveJobID)
	if err != nil {
		t.Fatalf("job missing: %v", err)
	}
	if job.AgreedPriceDisplay != "Standard rate (£85.00/hour)" {
		t.Errorf("display = %q", job.AgreedPriceDisplay)
	}
	// No fixed number in the display, so the price is the two-hour minimum.
	if job.AgreedPrice != 170 {
		t.Errorf("agreed price = %v, want 170", job.AgreedPrice)
	}
}

func TestNegotiationIllegalMoves(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	b := env.requestQuote(ctx)
	id := b.ID.Hex()

	tests := []struct {
		name string
		call func() error
	}{
		{"counter with no quote pending", func() error {
			_, err := env.bookingSvc.CounterOffer(ctx, id, env.customerID, "£100", "")
			return err
		}},
		{"customer accept with no quote pending", func() error {
			_, err := env.bookingSvc.AcceptQuote(ctx, id, env.customerID, models.UserTypeCustomer)
			return err
		}},
		{"customer reject with no quote pending", func() error {
			_, err := env.bookingSvc.RejectQuote(ctx, id, env.customerID, models.UserTypeCustomer)
			return err
		}},
		{"quote from the wrong tradesman", func() error {
			_, err := env.bookingSvc.OfferQuote(ctx, id, "someone-else", "£10")
			return err
		}},
		{"empty quote", func() error {
			_, err := env.bookingSvc.OfferQuote(ctx, id, env.tradesmanID, "  ")
			return err
		}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if err := tc.call(); !IsValidationError(err) {
				t.Errorf("expected ValidationError, got %v", err)
			}
		})
	}

	if _, err := env.bookingSvc.OfferQuote(ctx, id, env.tradesmanID, "£150"); err != nil {
		t.Fatalf("OfferQuote: %v", err)
	}
	if _, err := env.bookingSvc.OfferQuote(ctx, id, env.tradesmanID, "£160"); !IsValidationError(err) {
		t.Errorf("second quote on top of a pending one should fail, got %v", err)
	}
	if _, err := env.bookingSvc.AcceptQuote(ctx, id, env.tradesmanID, models.UserTypeTradesman); !IsValidationError(err) {
		t.Errorf("tradesman cannot accept his own pending quote, got %v", err)
	}
	if _, err := env.bookingSvc.RejectQuote(ctx, id, env.tradesmanID, models.UserTypeTradesman); !IsValidationError(err) {
		t.Errorf("tradesman cannot reject while his own quote is pending, got %v", err)
	}
}

func TestRejectAsymmetry(t *testing.T) {
	ctx := context.Background()

	t.Run("customer rejecting a quote reopens the booking", func(t *testing.T) {
		env := newTestEnv()
		b := env.requestQuote(ctx)
		id := b.ID.Hex()
		if _, err := env.bookingSvc.OfferQuote(ctx, id, env.tradesmanID, "£150"); err != nil {
			t.Fatalf("OfferQuote: %v", err)
		}

		b, err := env.bookingSvc.RejectQuote(ctx, id, env.customerID, models.UserTypeCustomer)
		if err != nil {
			t.Fatalf("RejectQuote: %v", err)
		}
		if b.Status != models.BookingStatusQuoteRequested || b.HasCustomQuote {
			t.Fatalf("booking should be reopened with no quote, got %+v", b)
		}
		if _, err := env.bookingSvc.OfferQuote(ctx, id, env.tradesmanID, "£130"); err != nil {
			t.Errorf("reopened booking should accept a fresh quote: %v", err)
		}
	})

	t.Run("tradesman rejecting a counter reopens the booking", func(t *testing.T) {
		env := newTestEnv()
		b := env.requestQuote(ctx)
		id := b.ID.Hex()
		if _, err := env.bookingSvc.OfferQuote(ctx, id, env.tradesmanID, "£150"); err != nil {
			t.Fatalf("OfferQuote: %v", err)
		}
		if _, err := env.bookingSvc.CounterOffer(ctx, id, env.customerID, "£90", ""); err != nil {
			t.Fatalf("CounterOffer: %v", err)
		}

		b, err := env.bookingSvc.RejectQuote(ctx, id, env.tradesmanID, models.UserTypeTradesman)
		if err != nil {
			t.Fatalf("RejectQuote: %v", err)
		}
		if b.Status != models.BookingStatusQuoteRequested || b.HasCustomerCounter {
			t.Fatalf("booking should be reopened with no counter, got %+v", b)
		}
	})

	t.Run("tradesman rejecting the bare request is terminal", func(t *testing.T) {
		env := newTestEnv()
		b := env.requestQuote(ctx)
		id := b.ID.Hex()

		b, err := env.bookingSvc.RejectQuote(ctx, id, env.tradesmanID, models.UserTypeTradesman)
		if err != nil {
			t.Fatalf("RejectQuote: %v", err)
		}
		if b.Status != models.BookingStatusRejected {
			t.Fatalf("status = %q, want Rejected", b.Status)
		}
		if _, err := env.bookingSvc.OfferQuote(ctx, id, env.tradesmanID, "£150"); !IsValidationError(err) {
			t.Errorf("rejected booking must stay closed, got %v", err)
		}
	})
}

func TestAcceptIsTerminal(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	b := env.requestQuote(ctx)
	id := b.ID.Hex()

	if _, err := env.bookingSvc.OfferQuote(ctx, id, env.tradesmanID, "£150"); err != nil {
		t.Fatalf("OfferQuote: %v", err)
	}
	if _, err := env.bookingSvc.AcceptQuote(ctx, id, env.customerID, models.UserTypeCustomer); err != nil {
		t.Fatalf("AcceptQuote: %v", err)
	}

	// A stale client retrying the accept sees the post-lock re-read, not its
	// own snapshot.
	if _, err := env.bookingSvc.AcceptQuote(ctx, id, env.customerID, models.UserTypeCustomer); !IsValidationError(err) {
		t.Errorf("second accept should fail validation, got %v", err)
	}
	if env.jobs.count() != 1 {
		t.Errorf("job count = %d, want 1", env.jobs.count())
	}
}

func TestAcceptReusesOrphanedJob(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	b := env.requestQuote(ctx)
	id := b.ID.Hex()

	if _, err := env.bookingSvc.OfferQuote(ctx, id, env.tradesmanID, "£150"); err != nil {
		t.Fatalf("OfferQuote: %v", err)
	}

	// Simulate an earlier accept that created the job but died before the
	// booking update landed.
	orphan := env.seedJob(models.JobStatusAccepted, nil)
	orphan.BookingID = id
	if err := env.jobs.Put(ctx, orphan); err != nil {
		t.Fatalf("seed orphan: %v", err)
	}

	b, err := env.bookingSvc.AcceptQuote(ctx, id, env.customerID, models.UserTypeCustomer)
	if err != nil {
		t.Fatalf("AcceptQuote: %v", err)
	}
	if b.ActiveJobID != orphan.ID.Hex() {
		t.Errorf("accept should adopt the existing job %s, linked %s", orphan.ID.Hex(), b.ActiveJobID)
	}
	if env.jobs.count() != 1 {
		t.Errorf("job count = %d, want 1 (no duplicate)", env.jobs.count())
	}
}

func TestWriteVerificationFailure(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	b := env.requestQuote(ctx)

	// The store silently drops the flag update.
	env.bookings.putHook = func(stored *models.Booking) {
		stored.HasCustomQuote = false
	}

	_, err := env.bookingSvc.OfferQuote(ctx, b.ID.Hex(), env.tradesmanID, "£150")
	if !IsIntegrityError(err) {
		t.Fatalf("expected IntegrityError, got %v", err)
	}
	if env.lock.Held() {
		t.Error("lock must be released even when verification fails")
	}
}
