package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/northlens-media/api/internal/platform/httpx"
	"github.com/northlens-media/api/internal/services"
)

// InternalHandlers serves trusted service-to-service lookups. The router
// fronts this group with OIDC verification, so no submitter email check is
// required here.
type InternalHandlers struct {
	bookings services.BookingService
	system   services.SystemService
}

// NewInternalHandlers constructs an InternalHandlers instance.
func NewInternalHandlers(bookings services.BookingService, system services.SystemService) *InternalHandlers {
	return &InternalHandlers{bookings: bookings, system: system}
}

// Routes registers the /internal endpoints.
func (h *InternalHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Get("/bookings/{bookingId}", h.getBooking)
	r.Get("/health", h.health)
}

func (h *InternalHandlers) getBooking(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.bookings == nil {
		httpx.WriteError(ctx, w, httpx.NewError("bookings_unavailable", "booking service unavailable", http.StatusServiceUnavailable))
		return
	}
	booking, err := h.bookings.Get(ctx, chi.URLParam(r, "bookingId"))
	if err != nil {
		writeBookingError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, buildBookingPayload(booking))
}

func (h *InternalHandlers) health(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.system == nil {
		httpx.WriteError(ctx, w, httpx.NewError("system_unavailable", "system service unavailable", http.StatusServiceUnavailable))
		return
	}
	report, err := h.system.HealthReport(ctx)
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("health_error", err.Error(), http.StatusInternalServerError))
		return
	}
	writeJSONResponse(w, http.StatusOK, report)
}
