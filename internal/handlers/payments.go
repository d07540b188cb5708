package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	domain "github.com/northlens-media/api/internal/domain"
	"github.com/northlens-media/api/internal/platform/httpx"
	"github.com/northlens-media/api/internal/services"
)

const maxPaymentBodySize = 8 * 1024

// PaymentHandlers exposes the public payment-intent creation endpoint. The
// amount is always recomputed server-side; the request only names the booking.
type PaymentHandlers struct {
	payments services.PaymentService
}

// NewPaymentHandlers constructs a PaymentHandlers instance.
func NewPaymentHandlers(payments services.PaymentService) *PaymentHandlers {
	return &PaymentHandlers{payments: payments}
}

// Routes registers the /payments endpoints.
func (h *PaymentHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Post("/intents", h.createIntent)
}

type paymentIntentRequest struct {
	BookingID string `json:"booking_id"`
}

type paymentIntentResponse struct {
	IntentID     string `json:"intent_id"`
	ClientSecret string `json:"client_secret"`
	AmountCents  int64  `json:"amount_cents"`
	Currency     string `json:"currency"`
}

func (h *PaymentHandlers) createIntent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.payments == nil {
		httpx.WriteError(ctx, w, httpx.NewError("payments_unavailable", "payment service unavailable", http.StatusServiceUnavailable))
		return
	}

	var req paymentIntentRequest
	if !decodeJSONBody(w, r, maxPaymentBodySize, &req) {
		return
	}
	if req.BookingID == "" {
		httpx.WriteError(ctx, w, httpx.NewError("booking_id_required", "booking_id is required", http.StatusBadRequest))
		return
	}

	result, err := h.payments.CreateIntent(ctx, services.PaymentIntentCommand{
		BookingID:      req.BookingID,
		IdempotencyKey: r.Header.Get("Idempotency-Key"),
	})
	if err != nil {
		writePaymentError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusCreated, paymentIntentResponse{
		IntentID:     result.IntentID,
		ClientSecret: result.ClientSecret,
		AmountCents:  result.AmountCents,
		Currency:     result.Currency,
	})
}

func writePaymentError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrBookingNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("booking_not_found", "booking not found", http.StatusNotFound))
	case errors.Is(err, services.ErrBookingStatusInvalid):
		httpx.WriteError(ctx, w, httpx.NewError("booking_not_chargeable", "booking cannot be charged in its current status", http.StatusConflict))
	case errors.Is(err, domain.ErrPriceUnresolved):
		httpx.WriteError(ctx, w, httpx.NewError("contact_pricing_required", "this booking is priced by consultation and cannot be charged online", http.StatusUnprocessableEntity))
	case errors.Is(err, services.ErrPaymentAmountTooSmall):
		httpx.WriteError(ctx, w, httpx.NewError("amount_too_small", "amount is below the processor minimum", http.StatusUnprocessableEntity))
	case errors.Is(err, services.ErrPaymentAmountTooLarge):
		httpx.WriteError(ctx, w, httpx.NewError("amount_too_large", "amount is above the processor maximum", http.StatusUnprocessableEntity))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("payment_error", err.Error(), http.StatusBadGateway))
	}
}
