package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	stripe "github.com/stripe/stripe-go/v78"
	"github.com/stripe/stripe-go/v78/webhook"

	"github.com/northlens-media/api/internal/platform/httpx"
	"github.com/northlens-media/api/internal/services"
)

const maxWebhookBodySize = 256 * 1024

// WebhookHandlers receives PSP event deliveries. Stripe signs each delivery
// with the endpoint's signing secret; when one is configured the handlers
// reject payloads whose Stripe-Signature header does not verify.
type WebhookHandlers struct {
	bookings      services.BookingService
	logger        services.Logger
	signingSecret string
}

// WebhookOption customises the webhook handlers.
type WebhookOption func(*WebhookHandlers)

// WithWebhookLogger sets the structured event logger.
func WithWebhookLogger(logger services.Logger) WebhookOption {
	return func(h *WebhookHandlers) {
		h.logger = logger
	}
}

// WithWebhookSigningSecret sets the Stripe endpoint signing secret used to
// verify the Stripe-Signature header. An empty secret disables verification.
func WithWebhookSigningSecret(secret string) WebhookOption {
	return func(h *WebhookHandlers) {
		h.signingSecret = secret
	}
}

// NewWebhookHandlers constructs a WebhookHandlers instance.
func NewWebhookHandlers(bookings services.BookingService, opts ...WebhookOption) *WebhookHandlers {
	h := &WebhookHandlers{bookings: bookings}
	for _, opt := range opts {
		if opt != nil {
			opt(h)
		}
	}
	if h.logger == nil {
		h.logger = func(context.Context, string, map[string]any) {}
	}
	return h
}

// Routes registers the /webhooks endpoints.
func (h *WebhookHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Post("/stripe", h.stripeEvent)
}

func (h *WebhookHandlers) stripeEvent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.bookings == nil {
		httpx.WriteError(ctx, w, httpx.NewError("bookings_unavailable", "booking service unavailable", http.StatusServiceUnavailable))
		return
	}

	body, err := readLimitedBody(r, maxWebhookBodySize)
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_webhook_body", "request body could not be read", http.StatusBadRequest))
		return
	}

	var event stripe.Event
	if h.signingSecret != "" {
		// Stripe sends older API-version payloads for endpoints created
		// before the account upgraded, so only the signature is checked.
		event, err = webhook.ConstructEventWithOptions(body, r.Header.Get("Stripe-Signature"), h.signingSecret,
			webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
		if err != nil {
			h.logger(ctx, "webhook.stripe.signature_rejected", map[string]any{"error": err.Error()})
			httpx.WriteError(ctx, w, httpx.NewError("invalid_signature", "webhook signature verification failed", http.StatusBadRequest))
			return
		}
	} else if err := json.Unmarshal(body, &event); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_webhook_payload", "event payload is not valid JSON", http.StatusBadRequest))
		return
	}

	switch event.Type {
	case "payment_intent.succeeded":
		h.handlePaymentSucceeded(w, r, event)
	default:
		// Unhandled event kinds are acknowledged so the PSP stops retrying.
		h.logger(ctx, "webhook.stripe.ignored", map[string]any{"eventType": string(event.Type)})
		writeJSONResponse(w, http.StatusOK, map[string]any{"received": true})
	}
}

func (h *WebhookHandlers) handlePaymentSucceeded(w http.ResponseWriter, r *http.Request, event stripe.Event) {
	ctx := r.Context()

	var intent stripe.PaymentIntent
	if event.Data == nil || json.Unmarshal(event.Data.Raw, &intent) != nil || intent.ID == "" {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_webhook_payload", "payment_intent payload is malformed", http.StatusBadRequest))
		return
	}

	paidAt := time.Unix(event.Created, 0).UTC()
	booking, err := h.bookings.MarkPaid(ctx, intent.ID, intent.AmountReceived, paidAt)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrBookingNotFound):
			// No booking references the intent. Acknowledge so the PSP does
			// not retry an event this service can never apply.
			h.logger(ctx, "webhook.stripe.unmatched_intent", map[string]any{"paymentIntent": intent.ID})
			writeJSONResponse(w, http.StatusOK, map[string]any{"received": true})
		case errors.Is(err, services.ErrPaymentAmountMismatch):
			httpx.WriteError(ctx, w, httpx.NewError("amount_mismatch", "paid amount does not match the booking total", http.StatusConflict))
		default:
			httpx.WriteError(ctx, w, httpx.NewError("webhook_error", err.Error(), http.StatusInternalServerError))
		}
		return
	}

	h.logger(ctx, "webhook.stripe.payment_succeeded", map[string]any{
		"bookingId":     booking.ID,
		"paymentIntent": intent.ID,
	})
	writeJSONResponse(w, http.StatusOK, map[string]any{"received": true})
}
