package services

import (
	"context"
	"errors"
	"testing"
	"time"

	domain "github.com/northlens-media/api/internal/domain"
)

func newBookingFixture(t *testing.T, repo *memoryBookingRepo, publisher NotificationPublisher, recaptcha RecaptchaVerifier) BookingService {
	t.Helper()
	now := time.Date(2026, 4, 10, 12, 0, 0, 0, time.UTC)
	svc, err := NewBookingService(BookingServiceDeps{
		Bookings:      repo,
		Quotes:        newQuoteFixture(t),
		Recaptcha:     recaptcha,
		Notifications: publisher,
		Clock:         func() time.Time { return now },
		IDGenerator:   func() string { return "bk_test" },
	})
	if err != nil {
		t.Fatalf("new booking service: %v", err)
	}
	return svc
}

func TestBookingSubmitPersistsServerComputedBreakdown(t *testing.T) {
	repo := newMemoryBookingRepo()
	publisher := &capturePublisher{}
	svc := newBookingFixture(t, repo, publisher, nil)

	booking, err := svc.Submit(context.Background(), BookingSubmission{
		Name:         "Jordan Lee",
		Email:        "Jordan@Example.com",
		PackageID:    "essential",
		AddOnIDs:     []string{"virtual_staging_4", "drone_aerial"},
		PropertySize: "2000",
		Locale:       "fr-CA",
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	if booking.ID != "bk_test" {
		t.Fatalf("unexpected id %q", booking.ID)
	}
	if booking.Status != domain.BookingPending {
		t.Fatalf("expected pending status, got %s", booking.Status)
	}
	if booking.Email != "jordan@example.com" {
		t.Fatalf("email not normalized: %q", booking.Email)
	}
	if booking.Locale != "fr" {
		t.Fatalf("expected matched locale fr, got %q", booking.Locale)
	}
	if booking.StagingCount != 4 {
		t.Fatalf("expected staging count 4, got %d", booking.StagingCount)
	}
	// essential 299 * 1.15 = 343.85; staging 4*39=156; drone 199.
	if !approxEqual(booking.Breakdown.Subtotal, 698.85) {
		t.Fatalf("unexpected subtotal %v", booking.Breakdown.Subtotal)
	}
	if !approxEqual(booking.Breakdown.FinalTotal, 789.70) {
		t.Fatalf("unexpected total %v", booking.Breakdown.FinalTotal)
	}

	stored, ok := repo.get("bk_test")
	if !ok {
		t.Fatal("booking not persisted")
	}
	if stored.Breakdown.FinalTotal != booking.Breakdown.FinalTotal {
		t.Fatal("persisted breakdown differs from returned booking")
	}

	published := publisher.published()
	if len(published) != 1 {
		t.Fatalf("expected 1 notification, got %d", len(published))
	}
	if published[0].Kind != notificationBookingReceived {
		t.Fatalf("unexpected notification kind %q", published[0].Kind)
	}
	if published[0].Recipient != "jordan@example.com" {
		t.Fatalf("unexpected recipient %q", published[0].Recipient)
	}
}

func TestBookingSubmitAllowsContactRequiredPackages(t *testing.T) {
	repo := newMemoryBookingRepo()
	svc := newBookingFixture(t, repo, nil, nil)

	booking, err := svc.Submit(context.Background(), BookingSubmission{
		Name:      "Jordan Lee",
		Email:     "jordan@example.com",
		PackageID: "tailored",
	})
	if err != nil {
		t.Fatalf("submit tailored: %v", err)
	}
	if !booking.Breakdown.ContactRequired {
		t.Fatal("expected contact-required breakdown")
	}
	if booking.Breakdown.FinalTotal != 0 {
		t.Fatalf("contact-required booking must not carry a total, got %v", booking.Breakdown.FinalTotal)
	}
}

func TestBookingSubmitValidation(t *testing.T) {
	svc := newBookingFixture(t, newMemoryBookingRepo(), nil, nil)
	ctx := context.Background()

	cases := []BookingSubmission{
		{Email: "a@example.com", PackageID: "essential"},           // no name
		{Name: "A", Email: "not-an-email", PackageID: "essential"}, // bad email
		{Name: "A", Email: "a@example.com"},                        // nothing selected
	}
	for i, submission := range cases {
		if _, err := svc.Submit(ctx, submission); !errors.Is(err, ErrBookingInvalid) {
			t.Fatalf("case %d: expected ErrBookingInvalid, got %v", i, err)
		}
	}
}

func TestBookingSubmitRejectsFailedRecaptcha(t *testing.T) {
	repo := newMemoryBookingRepo()
	verifier := &stubRecaptcha{err: errors.New("score too low")}
	svc := newBookingFixture(t, repo, nil, verifier)

	_, err := svc.Submit(context.Background(), BookingSubmission{
		Name:           "Jordan Lee",
		Email:          "jordan@example.com",
		PackageID:      "essential",
		RecaptchaToken: "tok",
	})
	if !errors.Is(err, ErrRecaptchaFailed) {
		t.Fatalf("expected ErrRecaptchaFailed, got %v", err)
	}
	if repo.inserts != 0 {
		t.Fatal("rejected submission must not persist")
	}
	if len(verifier.tokens) != 1 || verifier.tokens[0] != "tok" {
		t.Fatalf("token not forwarded to verifier: %v", verifier.tokens)
	}
}

func TestBookingSubmitSurvivesPublishFailure(t *testing.T) {
	repo := newMemoryBookingRepo()
	publisher := &capturePublisher{err: errors.New("pubsub down")}
	svc := newBookingFixture(t, repo, publisher, nil)

	if _, err := svc.Submit(context.Background(), BookingSubmission{
		Name:      "Jordan Lee",
		Email:     "jordan@example.com",
		PackageID: "essential",
	}); err != nil {
		t.Fatalf("publish failure must not fail the submission: %v", err)
	}
	if repo.inserts != 1 {
		t.Fatal("booking not persisted")
	}
}

func TestBookingLookupRequiresMatchingEmail(t *testing.T) {
	repo := newMemoryBookingRepo(domain.Booking{
		ID:    "bk_1",
		Email: "jordan@example.com",
	})
	svc := newBookingFixture(t, repo, nil, nil)
	ctx := context.Background()

	booking, err := svc.Lookup(ctx, "bk_1", "Jordan@Example.COM")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if booking.ID != "bk_1" {
		t.Fatalf("unexpected booking %q", booking.ID)
	}

	if _, err := svc.Lookup(ctx, "bk_1", "other@example.com"); !errors.Is(err, ErrBookingNotFound) {
		t.Fatalf("expected ErrBookingNotFound for mismatched email, got %v", err)
	}
	if _, err := svc.Lookup(ctx, "bk_missing", "jordan@example.com"); !errors.Is(err, ErrBookingNotFound) {
		t.Fatalf("expected ErrBookingNotFound for unknown id, got %v", err)
	}
}

func TestBookingUpdateEnforcesTransitions(t *testing.T) {
	repo := newMemoryBookingRepo(domain.Booking{ID: "bk_1", Status: domain.BookingPending})
	publisher := &capturePublisher{}
	svc := newBookingFixture(t, repo, publisher, nil)
	ctx := context.Background()

	updated, err := svc.Update(ctx, BookingUpdateCommand{BookingID: "bk_1", Status: domain.BookingConfirmed})
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if updated.Status != domain.BookingConfirmed {
		t.Fatalf("expected confirmed, got %s", updated.Status)
	}

	// Paid is only reachable through MarkPaid.
	if _, err := svc.Update(ctx, BookingUpdateCommand{BookingID: "bk_1", Status: domain.BookingPaid}); !errors.Is(err, ErrBookingStatusInvalid) {
		t.Fatalf("expected ErrBookingStatusInvalid, got %v", err)
	}

	published := publisher.published()
	if len(published) != 1 || published[0].Kind != notificationBookingConfirmed {
		t.Fatalf("expected confirmation notification, got %+v", published)
	}
}

func TestBookingMarkPaidMatchesAmountAndIsIdempotent(t *testing.T) {
	booking := domain.Booking{
		ID:              "bk_1",
		Status:          domain.BookingConfirmed,
		Email:           "jordan@example.com",
		PaymentIntentID: "pi_1",
		Breakdown:       domain.PriceBreakdown{FinalTotal: 388.55},
	}
	repo := newMemoryBookingRepo(booking)
	publisher := &capturePublisher{}
	svc := newBookingFixture(t, repo, publisher, nil)
	ctx := context.Background()
	paidAt := time.Date(2026, 4, 11, 9, 0, 0, 0, time.UTC)

	if _, err := svc.MarkPaid(ctx, "pi_1", 12345, paidAt); !errors.Is(err, ErrPaymentAmountMismatch) {
		t.Fatalf("expected ErrPaymentAmountMismatch, got %v", err)
	}

	paid, err := svc.MarkPaid(ctx, "pi_1", 38855, paidAt)
	if err != nil {
		t.Fatalf("mark paid: %v", err)
	}
	if paid.Status != domain.BookingPaid {
		t.Fatalf("expected paid status, got %s", paid.Status)
	}
	if !paid.PaidAt.Equal(paidAt) {
		t.Fatalf("unexpected PaidAt %s", paid.PaidAt)
	}

	// Webhook redelivery must be a no-op.
	again, err := svc.MarkPaid(ctx, "pi_1", 38855, paidAt.Add(time.Hour))
	if err != nil {
		t.Fatalf("repeat mark paid: %v", err)
	}
	if !again.PaidAt.Equal(paidAt) {
		t.Fatal("repeat delivery must not overwrite PaidAt")
	}

	published := publisher.published()
	if len(published) != 1 || published[0].Kind != notificationBookingPaid {
		t.Fatalf("expected a single paid notification, got %+v", published)
	}

	if _, err := svc.MarkPaid(ctx, "pi_unknown", 100, paidAt); !errors.Is(err, ErrBookingNotFound) {
		t.Fatalf("expected ErrBookingNotFound, got %v", err)
	}
}
