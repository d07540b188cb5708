package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	domain "github.com/northlens-media/api/internal/domain"
	"github.com/northlens-media/api/internal/platform/httpx"
	"github.com/northlens-media/api/internal/services"
)

const (
	maxBookingBodySize = 32 * 1024

	bookingSubmitLimit  = 10
	bookingSubmitWindow = time.Minute
)

// BookingHandlers exposes the public booking submission and status lookup
// endpoints.
type BookingHandlers struct {
	bookings services.BookingService
	limiter  rateLimiter
}

// BookingOption customises the booking handlers.
type BookingOption func(*BookingHandlers)

// WithBookingRateLimiter overrides the per-IP limiter on submissions.
func WithBookingRateLimiter(limiter rateLimiter) BookingOption {
	return func(h *BookingHandlers) {
		h.limiter = limiter
	}
}

// WithBookingRateLimit sets the per-IP submission limit. A non-positive limit
// or window disables throttling.
func WithBookingRateLimit(limit int, window time.Duration) BookingOption {
	return func(h *BookingHandlers) {
		h.limiter = newSimpleRateLimiter(limit, window, nil)
	}
}

// NewBookingHandlers constructs a BookingHandlers instance.
func NewBookingHandlers(bookings services.BookingService, opts ...BookingOption) *BookingHandlers {
	h := &BookingHandlers{
		bookings: bookings,
		limiter:  newSimpleRateLimiter(bookingSubmitLimit, bookingSubmitWindow, nil),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(h)
		}
	}
	return h
}

// Routes registers the /bookings endpoints.
func (h *BookingHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Post("/", h.submit)
	r.Get("/{bookingId}", h.lookup)
}

type bookingSubmitRequest struct {
	Name            string   `json:"name"`
	Email           string   `json:"email"`
	Phone           string   `json:"phone"`
	PropertyAddress string   `json:"property_address"`
	Notes           string   `json:"notes"`
	Locale          string   `json:"locale"`
	PackageID       string   `json:"package_id"`
	AddOnIDs        []string `json:"addon_ids"`
	PropertySize    string   `json:"property_size"`
	PartnerCode     string   `json:"partner_code"`
	PreferredDate   string   `json:"preferred_date"`
	PreferredTime   string   `json:"preferred_time"`
	RecaptchaToken  string   `json:"recaptcha_token"`
}

type bookingPayload struct {
	ID              string           `json:"id"`
	Status          string           `json:"status"`
	Name            string           `json:"name"`
	Email           string           `json:"email"`
	Phone           string           `json:"phone,omitempty"`
	PropertyAddress string           `json:"property_address,omitempty"`
	Notes           string           `json:"notes,omitempty"`
	Locale          string           `json:"locale,omitempty"`
	PackageID       string           `json:"package_id,omitempty"`
	AddOnIDs        []string         `json:"addon_ids,omitempty"`
	StagingCount    int              `json:"staging_count,omitempty"`
	PropertySize    string           `json:"property_size,omitempty"`
	PartnerCode     string           `json:"partner_code,omitempty"`
	PreferredDate   string           `json:"preferred_date,omitempty"`
	PreferredTime   string           `json:"preferred_time,omitempty"`
	Breakdown       breakdownPayload `json:"breakdown"`
	PaidAt          string           `json:"paid_at,omitempty"`
	CreatedAt       string           `json:"created_at,omitempty"`
	UpdatedAt       string           `json:"updated_at,omitempty"`
}

func (h *BookingHandlers) submit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.bookings == nil {
		httpx.WriteError(ctx, w, httpx.NewError("bookings_unavailable", "booking service unavailable", http.StatusServiceUnavailable))
		return
	}
	if h.limiter != nil && !h.limiter.Allow(clientIP(r)) {
		httpx.WriteError(ctx, w, httpx.NewError("rate_limited", "too many requests", http.StatusTooManyRequests))
		return
	}

	var req bookingSubmitRequest
	if !decodeJSONBody(w, r, maxBookingBodySize, &req) {
		return
	}

	var preferredDate time.Time
	if req.PreferredDate != "" {
		parsed, err := time.Parse("2006-01-02", req.PreferredDate)
		if err != nil {
			httpx.WriteError(ctx, w, httpx.NewError("invalid_preferred_date", "preferred_date must be YYYY-MM-DD", http.StatusBadRequest))
			return
		}
		preferredDate = parsed
	}

	booking, err := h.bookings.Submit(ctx, services.BookingSubmission{
		Name:            req.Name,
		Email:           req.Email,
		Phone:           req.Phone,
		PropertyAddress: req.PropertyAddress,
		Notes:           req.Notes,
		Locale:          req.Locale,
		PackageID:       req.PackageID,
		AddOnIDs:        req.AddOnIDs,
		PropertySize:    req.PropertySize,
		PartnerCode:     req.PartnerCode,
		PreferredDate:   preferredDate,
		PreferredTime:   req.PreferredTime,
		RecaptchaToken:  req.RecaptchaToken,
	})
	if err != nil {
		writeBookingError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusCreated, buildBookingPayload(booking))
}

func (h *BookingHandlers) lookup(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.bookings == nil {
		httpx.WriteError(ctx, w, httpx.NewError("bookings_unavailable", "booking service unavailable", http.StatusServiceUnavailable))
		return
	}

	email := r.URL.Query().Get("email")
	if email == "" {
		httpx.WriteError(ctx, w, httpx.NewError("email_required", "email query parameter is required", http.StatusBadRequest))
		return
	}

	booking, err := h.bookings.Lookup(ctx, chi.URLParam(r, "bookingId"), email)
	if err != nil {
		writeBookingError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, buildBookingPayload(booking))
}

func buildBookingPayload(booking domain.Booking) bookingPayload {
	payload := bookingPayload{
		ID:              booking.ID,
		Status:          string(booking.Status),
		Name:            booking.Name,
		Email:           booking.Email,
		Phone:           booking.Phone,
		PropertyAddress: booking.PropertyAddress,
		Notes:           booking.Notes,
		Locale:          booking.Locale,
		PackageID:       booking.PackageID,
		AddOnIDs:        booking.AddOnIDs,
		StagingCount:    booking.StagingCount,
		PropertySize:    booking.PropertySize,
		PartnerCode:     booking.PartnerCode,
		PreferredTime:   booking.PreferredTime,
		Breakdown:       buildBreakdownPayload(booking.Breakdown),
		PaidAt:          formatTime(booking.PaidAt),
		CreatedAt:       formatTime(booking.CreatedAt),
		UpdatedAt:       formatTime(booking.UpdatedAt),
	}
	if !booking.PreferredDate.IsZero() {
		payload.PreferredDate = booking.PreferredDate.Format("2006-01-02")
	}
	return payload
}

func writeBookingError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrBookingInvalid):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_booking", err.Error(), http.StatusBadRequest))
	case errors.Is(err, services.ErrBookingNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("booking_not_found", "booking not found", http.StatusNotFound))
	case errors.Is(err, services.ErrBookingStatusInvalid):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_status_transition", err.Error(), http.StatusConflict))
	case errors.Is(err, services.ErrPackageNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("package_not_found", "selected package does not exist", http.StatusBadRequest))
	case errors.Is(err, services.ErrRecaptchaFailed):
		httpx.WriteError(ctx, w, httpx.NewError("recaptcha_failed", "recaptcha verification failed", http.StatusForbidden))
	case errors.Is(err, services.ErrCatalogUnavailable):
		httpx.WriteError(ctx, w, httpx.NewError("catalog_unavailable", "catalog could not be loaded", http.StatusServiceUnavailable))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("booking_error", err.Error(), http.StatusInternalServerError))
	}
}
