package handlers

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	domain "github.com/northlens-media/api/internal/domain"
	"github.com/northlens-media/api/internal/services"
)

// stripeSignature builds the header Stripe attaches to deliveries: an HMAC
// SHA-256 over "<timestamp>.<payload>" keyed with the endpoint secret.
func stripeSignature(t *testing.T, secret, payload string, ts time.Time) string {
	t.Helper()
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d.%s", ts.Unix(), payload)
	return fmt.Sprintf("t=%d,v1=%s", ts.Unix(), hex.EncodeToString(mac.Sum(nil)))
}

func TestWebhookHandlersPaymentSucceeded(t *testing.T) {
	created := time.Date(2026, 3, 12, 16, 45, 0, 0, time.UTC)

	var gotIntent string
	var gotAmount int64
	var gotPaidAt time.Time
	bookings := &stubBookingService{
		markPaidFunc: func(_ context.Context, intentID string, amountCents int64, paidAt time.Time) (domain.Booking, error) {
			gotIntent = intentID
			gotAmount = amountCents
			gotPaidAt = paidAt
			return domain.Booking{ID: "bk_01HXYZ", Status: domain.BookingPaid}, nil
		},
	}
	handler := NewWebhookHandlers(bookings)
	router := NewRouter(WithWebhookRoutes(handler.Routes))

	body := strings.NewReader(`{
		"id": "evt_1",
		"type": "payment_intent.succeeded",
		"created": 1773593100,
		"data": {"object": {"id": "pi_123", "amount_received": 50042}}
	}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/stripe", body)
	resp := httptest.NewRecorder()

	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", resp.Code, resp.Body.String())
	}
	if gotIntent != "pi_123" || gotAmount != 50042 {
		t.Fatalf("unexpected mark-paid call intent=%s amount=%d", gotIntent, gotAmount)
	}
	if gotPaidAt != time.Unix(1773593100, 0).UTC() {
		t.Fatalf("expected paidAt from event timestamp, got %v (want around %v)", gotPaidAt, created)
	}
}

func TestWebhookHandlersAcceptsStripeSignedPayload(t *testing.T) {
	const secret = "whsec_test_4242"

	var gotIntent string
	bookings := &stubBookingService{
		markPaidFunc: func(_ context.Context, intentID string, _ int64, _ time.Time) (domain.Booking, error) {
			gotIntent = intentID
			return domain.Booking{ID: "bk_01HXYZ", Status: domain.BookingPaid}, nil
		},
	}
	handler := NewWebhookHandlers(bookings, WithWebhookSigningSecret(secret))
	router := NewRouter(WithWebhookRoutes(handler.Routes))

	payload := `{"id":"evt_signed","type":"payment_intent.succeeded","created":1773593100,"data":{"object":{"id":"pi_signed","amount_received":50042}}}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/stripe", strings.NewReader(payload))
	req.Header.Set("Stripe-Signature", stripeSignature(t, secret, payload, time.Now()))
	resp := httptest.NewRecorder()

	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200 for a correctly signed delivery, got %d: %s", resp.Code, resp.Body.String())
	}
	if gotIntent != "pi_signed" {
		t.Fatalf("expected mark-paid for pi_signed, got %q", gotIntent)
	}
}

func TestWebhookHandlersRejectsInvalidSignature(t *testing.T) {
	called := false
	bookings := &stubBookingService{
		markPaidFunc: func(context.Context, string, int64, time.Time) (domain.Booking, error) {
			called = true
			return domain.Booking{}, nil
		},
	}
	handler := NewWebhookHandlers(bookings, WithWebhookSigningSecret("whsec_test_4242"))
	router := NewRouter(WithWebhookRoutes(handler.Routes))

	payload := `{"id":"evt_forged","type":"payment_intent.succeeded","created":1,"data":{"object":{"id":"pi_forged","amount_received":1}}}`

	signed := stripeSignature(t, "whsec_wrong_secret", payload, time.Now())
	for name, header := range map[string]string{
		"wrong secret": signed,
		"missing":      "",
	} {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/stripe", strings.NewReader(payload))
		if header != "" {
			req.Header.Set("Stripe-Signature", header)
		}
		resp := httptest.NewRecorder()

		router.ServeHTTP(resp, req)

		if resp.Code != http.StatusBadRequest {
			t.Fatalf("%s signature: expected status 400, got %d", name, resp.Code)
		}
	}
	if called {
		t.Fatal("expected unverified deliveries to skip mark-paid")
	}
}

func TestWebhookHandlersRejectsStaleSignature(t *testing.T) {
	const secret = "whsec_test_4242"
	handler := NewWebhookHandlers(&stubBookingService{}, WithWebhookSigningSecret(secret))
	router := NewRouter(WithWebhookRoutes(handler.Routes))

	payload := `{"id":"evt_stale","type":"payment_intent.succeeded","created":1,"data":{"object":{"id":"pi_stale","amount_received":1}}}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/stripe", strings.NewReader(payload))
	req.Header.Set("Stripe-Signature", stripeSignature(t, secret, payload, time.Now().Add(-time.Hour)))
	resp := httptest.NewRecorder()

	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400 for a replayed timestamp, got %d", resp.Code)
	}
}

func TestWebhookHandlersAmountMismatch(t *testing.T) {
	bookings := &stubBookingService{
		markPaidFunc: func(context.Context, string, int64, time.Time) (domain.Booking, error) {
			return domain.Booking{}, services.ErrPaymentAmountMismatch
		},
	}
	handler := NewWebhookHandlers(bookings)
	router := NewRouter(WithWebhookRoutes(handler.Routes))

	body := strings.NewReader(`{"type":"payment_intent.succeeded","created":1,"data":{"object":{"id":"pi_123","amount_received":1}}}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/stripe", body)
	resp := httptest.NewRecorder()

	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusConflict {
		t.Fatalf("expected status 409, got %d", resp.Code)
	}
}

func TestWebhookHandlersUnmatchedIntentAcknowledged(t *testing.T) {
	bookings := &stubBookingService{
		markPaidFunc: func(context.Context, string, int64, time.Time) (domain.Booking, error) {
			return domain.Booking{}, services.ErrBookingNotFound
		},
	}
	handler := NewWebhookHandlers(bookings)
	router := NewRouter(WithWebhookRoutes(handler.Routes))

	body := strings.NewReader(`{"type":"payment_intent.succeeded","created":1,"data":{"object":{"id":"pi_orphan","amount_received":1}}}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/stripe", body)
	resp := httptest.NewRecorder()

	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.Code)
	}
}

func TestWebhookHandlersIgnoresUnhandledEvents(t *testing.T) {
	called := false
	bookings := &stubBookingService{
		markPaidFunc: func(context.Context, string, int64, time.Time) (domain.Booking, error) {
			called = true
			return domain.Booking{}, nil
		},
	}
	handler := NewWebhookHandlers(bookings)
	router := NewRouter(WithWebhookRoutes(handler.Routes))

	body := strings.NewReader(`{"type":"payment_intent.created","created":1,"data":{"object":{"id":"pi_123"}}}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/stripe", body)
	resp := httptest.NewRecorder()

	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.Code)
	}
	if called {
		t.Fatal("expected unhandled event to skip mark-paid")
	}
}

func TestWebhookHandlersMalformedPayload(t *testing.T) {
	handler := NewWebhookHandlers(&stubBookingService{})
	router := NewRouter(WithWebhookRoutes(handler.Routes))

	body := strings.NewReader(`{"type":"payment_intent.succeeded","created":1,"data":{"object":{"amount_received":1}}}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/stripe", body)
	resp := httptest.NewRecorder()

	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", resp.Code)
	}
}
