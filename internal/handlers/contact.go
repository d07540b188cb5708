package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/northlens-media/api/internal/platform/httpx"
	"github.com/northlens-media/api/internal/services"
)

const (
	maxContactBodySize = 32 * 1024

	contactSubmitLimit  = 5
	contactSubmitWindow = time.Minute
)

// ContactHandlers exposes the public contact-form endpoint.
type ContactHandlers struct {
	contact services.ContactService
	limiter rateLimiter
}

// ContactOption customises the contact handlers.
type ContactOption func(*ContactHandlers)

// WithContactRateLimiter overrides the per-IP limiter on submissions.
func WithContactRateLimiter(limiter rateLimiter) ContactOption {
	return func(h *ContactHandlers) {
		h.limiter = limiter
	}
}

// WithContactRateLimit sets the per-IP submission limit. A non-positive limit
// or window disables throttling.
func WithContactRateLimit(limit int, window time.Duration) ContactOption {
	return func(h *ContactHandlers) {
		h.limiter = newSimpleRateLimiter(limit, window, nil)
	}
}

// NewContactHandlers constructs a ContactHandlers instance.
func NewContactHandlers(contact services.ContactService, opts ...ContactOption) *ContactHandlers {
	h := &ContactHandlers{
		contact: contact,
		limiter: newSimpleRateLimiter(contactSubmitLimit, contactSubmitWindow, nil),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(h)
		}
	}
	return h
}

// Routes registers the /contact endpoints.
func (h *ContactHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Post("/", h.submit)
}

type contactSubmitRequest struct {
	Name           string `json:"name"`
	Email          string `json:"email"`
	Phone          string `json:"phone"`
	Subject        string `json:"subject"`
	Message        string `json:"message"`
	RecaptchaToken string `json:"recaptcha_token"`
}

type contactMessagePayload struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Phone     string `json:"phone,omitempty"`
	Subject   string `json:"subject,omitempty"`
	Message   string `json:"message"`
	Read      bool   `json:"read"`
	CreatedAt string `json:"created_at,omitempty"`
}

func (h *ContactHandlers) submit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.contact == nil {
		httpx.WriteError(ctx, w, httpx.NewError("contact_unavailable", "contact service unavailable", http.StatusServiceUnavailable))
		return
	}
	if h.limiter != nil && !h.limiter.Allow(clientIP(r)) {
		httpx.WriteError(ctx, w, httpx.NewError("rate_limited", "too many requests", http.StatusTooManyRequests))
		return
	}

	var req contactSubmitRequest
	if !decodeJSONBody(w, r, maxContactBodySize, &req) {
		return
	}

	message, err := h.contact.Submit(ctx, services.ContactSubmission{
		Name:           req.Name,
		Email:          req.Email,
		Phone:          req.Phone,
		Subject:        req.Subject,
		Message:        req.Message,
		RecaptchaToken: req.RecaptchaToken,
	})
	if err != nil {
		switch {
		case errors.Is(err, services.ErrContactInvalid):
			httpx.WriteError(ctx, w, httpx.NewError("invalid_contact", err.Error(), http.StatusBadRequest))
		case errors.Is(err, services.ErrRecaptchaFailed):
			httpx.WriteError(ctx, w, httpx.NewError("recaptcha_failed", "recaptcha verification failed", http.StatusForbidden))
		default:
			httpx.WriteError(ctx, w, httpx.NewError("contact_error", err.Error(), http.StatusInternalServerError))
		}
		return
	}

	writeJSONResponse(w, http.StatusCreated, map[string]any{
		"id":         message.ID,
		"created_at": formatTime(message.CreatedAt),
	})
}
