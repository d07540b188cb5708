package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	domain "github.com/northlens-media/api/internal/domain"
	"github.com/northlens-media/api/internal/platform/httpx"
	"github.com/northlens-media/api/internal/repositories"
	"github.com/northlens-media/api/internal/services"
)

const (
	maxAdminBodySize = 64 * 1024

	defaultAdminPageSize = 25
	maxAdminPageSize     = 100
)

// AdminHandlers exposes the authenticated management surface: catalog
// mutations, partner codes, booking workflow, refunds, and the contact inbox.
type AdminHandlers struct {
	catalog      services.CatalogService
	partnerCodes services.PartnerCodeService
	bookings     services.BookingService
	payments     services.PaymentService
	contact      services.ContactService
}

// NewAdminHandlers constructs an AdminHandlers instance.
func NewAdminHandlers(
	catalog services.CatalogService,
	partnerCodes services.PartnerCodeService,
	bookings services.BookingService,
	payments services.PaymentService,
	contact services.ContactService,
) *AdminHandlers {
	return &AdminHandlers{
		catalog:      catalog,
		partnerCodes: partnerCodes,
		bookings:     bookings,
		payments:     payments,
		contact:      contact,
	}
}

// Routes registers the /admin endpoints. Authentication middleware is applied
// by the router, not here.
func (h *AdminHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Route("/catalog", func(r chi.Router) {
		r.Put("/packages/{packageId}", h.upsertPackage)
		r.Delete("/packages/{packageId}", h.deletePackage)
		r.Put("/addons/{addonId}", h.upsertAddOn)
		r.Delete("/addons/{addonId}", h.deleteAddOn)
		r.Put("/property-sizes/{bandId}", h.upsertSizeBand)
		r.Delete("/property-sizes/{bandId}", h.deleteSizeBand)
	})
	r.Route("/partner-codes", func(r chi.Router) {
		r.Get("/", h.listPartnerCodes)
		r.Put("/{code}", h.upsertPartnerCode)
		r.Delete("/{code}", h.deletePartnerCode)
	})
	r.Route("/bookings", func(r chi.Router) {
		r.Get("/", h.listBookings)
		r.Get("/{bookingId}", h.getBooking)
		r.Patch("/{bookingId}", h.updateBooking)
		r.Post("/{bookingId}/refund", h.refundBooking)
	})
	r.Route("/contact-messages", func(r chi.Router) {
		r.Get("/", h.listContactMessages)
		r.Post("/{messageId}/read", h.markContactMessageRead)
		r.Delete("/{messageId}", h.deleteContactMessage)
	})
}

type adminPackageRequest struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	BasePrice   float64  `json:"base_price"`
	Category    string   `json:"category"`
	Features    []string `json:"features"`
	SortOrder   int      `json:"sort_order"`
	Published   bool     `json:"published"`
}

func (h *AdminHandlers) upsertPackage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req adminPackageRequest
	if !decodeJSONBody(w, r, maxAdminBodySize, &req) {
		return
	}

	pkg, err := h.catalog.UpsertPackage(ctx, domain.Package{
		ID:          chi.URLParam(r, "packageId"),
		Name:        req.Name,
		Description: req.Description,
		BasePrice:   req.BasePrice,
		Category:    domain.PackageCategory(req.Category),
		Features:    req.Features,
		SortOrder:   req.SortOrder,
		Published:   req.Published,
	})
	if err != nil {
		writeCatalogAdminError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, buildPackagePayload(pkg))
}

func (h *AdminHandlers) deletePackage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := h.catalog.DeletePackage(ctx, chi.URLParam(r, "packageId")); err != nil {
		writeCatalogAdminError(ctx, w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type adminAddOnRequest struct {
	Name                string   `json:"name"`
	Description         string   `json:"description"`
	BasePrice           float64  `json:"base_price"`
	Category            string   `json:"category"`
	PriceWithPackage    *float64 `json:"price_with_package"`
	PriceWithoutPackage *float64 `json:"price_without_package"`
	SortOrder           int      `json:"sort_order"`
	Published           bool     `json:"published"`
}

func (h *AdminHandlers) upsertAddOn(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req adminAddOnRequest
	if !decodeJSONBody(w, r, maxAdminBodySize, &req) {
		return
	}

	addon, err := h.catalog.UpsertAddOn(ctx, domain.AddOn{
		ID:                  chi.URLParam(r, "addonId"),
		Name:                req.Name,
		Description:         req.Description,
		BasePrice:           req.BasePrice,
		Category:            req.Category,
		PriceWithPackage:    req.PriceWithPackage,
		PriceWithoutPackage: req.PriceWithoutPackage,
		SortOrder:           req.SortOrder,
		Published:           req.Published,
	})
	if err != nil {
		writeCatalogAdminError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, addOnPayload{
		ID:                  addon.ID,
		Name:                addon.Name,
		Description:         addon.Description,
		Category:            addon.Category,
		BasePrice:           addon.BasePrice,
		PriceWithPackage:    addon.PriceWithPackage,
		PriceWithoutPackage: addon.PriceWithoutPackage,
		SortOrder:           addon.SortOrder,
	})
}

func (h *AdminHandlers) deleteAddOn(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := h.catalog.DeleteAddOn(ctx, chi.URLParam(r, "addonId")); err != nil {
		writeCatalogAdminError(ctx, w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type adminSizeBandRequest struct {
	Label      string  `json:"label"`
	MinSqft    int     `json:"min_sqft"`
	MaxSqft    *int    `json:"max_sqft"`
	Multiplier float64 `json:"multiplier"`
	SortOrder  int     `json:"sort_order"`
}

func (h *AdminHandlers) upsertSizeBand(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req adminSizeBandRequest
	if !decodeJSONBody(w, r, maxAdminBodySize, &req) {
		return
	}

	band, err := h.catalog.UpsertSizeBand(ctx, domain.PropertySizeConfig{
		ID:         chi.URLParam(r, "bandId"),
		Label:      req.Label,
		MinSqft:    req.MinSqft,
		MaxSqft:    req.MaxSqft,
		Multiplier: req.Multiplier,
		SortOrder:  req.SortOrder,
	})
	if err != nil {
		writeCatalogAdminError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, propertySizePayload{
		ID:         band.ID,
		Label:      band.Label,
		MinSqft:    band.MinSqft,
		MaxSqft:    band.MaxSqft,
		Multiplier: band.Multiplier,
		SortOrder:  band.SortOrder,
	})
}

func (h *AdminHandlers) deleteSizeBand(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := h.catalog.DeleteSizeBand(ctx, chi.URLParam(r, "bandId")); err != nil {
		writeCatalogAdminError(ctx, w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type adminPartnerCodeRequest struct {
	PartnerName            string  `json:"partner_name"`
	PackageDiscountPercent float64 `json:"package_discount_percent"`
	AddonDiscountPercent   float64 `json:"addon_discount_percent"`
	Active                 bool    `json:"active"`
	StartsAt               string  `json:"starts_at"`
	EndsAt                 string  `json:"ends_at"`
}

type adminPartnerCodePayload struct {
	Code                   string  `json:"code"`
	PartnerName            string  `json:"partner_name"`
	PackageDiscountPercent float64 `json:"package_discount_percent"`
	AddonDiscountPercent   float64 `json:"addon_discount_percent"`
	Active                 bool    `json:"active"`
	StartsAt               string  `json:"starts_at,omitempty"`
	EndsAt                 string  `json:"ends_at,omitempty"`
	CreatedAt              string  `json:"created_at,omitempty"`
	UpdatedAt              string  `json:"updated_at,omitempty"`
}

func (h *AdminHandlers) listPartnerCodes(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	pager, err := parsePager(r, defaultAdminPageSize, maxAdminPageSize)
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_pagination", err.Error(), http.StatusBadRequest))
		return
	}

	page, err := h.partnerCodes.List(ctx, pager)
	if err != nil {
		writePartnerCodeAdminError(ctx, w, err)
		return
	}

	payload := make([]adminPartnerCodePayload, 0, len(page.Items))
	for _, code := range page.Items {
		payload = append(payload, buildPartnerCodeAdminPayload(code))
	}
	writeJSONResponse(w, http.StatusOK, map[string]any{
		"partner_codes":   payload,
		"next_page_token": page.NextPageToken,
	})
}

func (h *AdminHandlers) upsertPartnerCode(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req adminPartnerCodeRequest
	if !decodeJSONBody(w, r, maxAdminBodySize, &req) {
		return
	}

	startsAt, ok := parseOptionalTimestamp(ctx, w, "starts_at", req.StartsAt)
	if !ok {
		return
	}
	endsAt, ok := parseOptionalTimestamp(ctx, w, "ends_at", req.EndsAt)
	if !ok {
		return
	}

	code, err := h.partnerCodes.Upsert(ctx, domain.PartnerCode{
		Code:                   chi.URLParam(r, "code"),
		PartnerName:            req.PartnerName,
		PackageDiscountPercent: req.PackageDiscountPercent,
		AddonDiscountPercent:   req.AddonDiscountPercent,
		Active:                 req.Active,
		StartsAt:               startsAt,
		EndsAt:                 endsAt,
	})
	if err != nil {
		writePartnerCodeAdminError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, buildPartnerCodeAdminPayload(code))
}

func (h *AdminHandlers) deletePartnerCode(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := h.partnerCodes.Delete(ctx, chi.URLParam(r, "code")); err != nil {
		writePartnerCodeAdminError(ctx, w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *AdminHandlers) listBookings(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	pager, err := parsePager(r, defaultAdminPageSize, maxAdminPageSize)
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_pagination", err.Error(), http.StatusBadRequest))
		return
	}

	filter := repositories.BookingListFilter{
		Status:    domain.BookingStatus(r.URL.Query().Get("status")),
		PackageID: r.URL.Query().Get("package_id"),
		Pager:     pager,
	}
	from, ok := parseOptionalTimestamp(ctx, w, "from", r.URL.Query().Get("from"))
	if !ok {
		return
	}
	to, ok := parseOptionalTimestamp(ctx, w, "to", r.URL.Query().Get("to"))
	if !ok {
		return
	}
	filter.From = from
	filter.To = to

	page, err := h.bookings.List(ctx, filter)
	if err != nil {
		writeBookingError(ctx, w, err)
		return
	}

	payload := make([]bookingPayload, 0, len(page.Items))
	for _, booking := range page.Items {
		payload = append(payload, buildBookingPayload(booking))
	}
	writeJSONResponse(w, http.StatusOK, map[string]any{
		"bookings":        payload,
		"next_page_token": page.NextPageToken,
	})
}

func (h *AdminHandlers) getBooking(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	booking, err := h.bookings.Get(ctx, chi.URLParam(r, "bookingId"))
	if err != nil {
		writeBookingError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, buildBookingPayload(booking))
}

type adminBookingUpdateRequest struct {
	Status string  `json:"status"`
	Notes  *string `json:"notes"`
}

func (h *AdminHandlers) updateBooking(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req adminBookingUpdateRequest
	if !decodeJSONBody(w, r, maxAdminBodySize, &req) {
		return
	}

	booking, err := h.bookings.Update(ctx, services.BookingUpdateCommand{
		BookingID: chi.URLParam(r, "bookingId"),
		Status:    domain.BookingStatus(req.Status),
		Notes:     req.Notes,
	})
	if err != nil {
		writeBookingError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, buildBookingPayload(booking))
}

type adminRefundRequest struct {
	Reason string `json:"reason"`
}

func (h *AdminHandlers) refundBooking(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.payments == nil {
		httpx.WriteError(ctx, w, httpx.NewError("payments_unavailable", "payment service unavailable", http.StatusServiceUnavailable))
		return
	}

	var req adminRefundRequest
	if r.ContentLength != 0 {
		if !decodeJSONBody(w, r, maxAdminBodySize, &req) {
			return
		}
	}

	booking, err := h.payments.Refund(ctx, services.RefundCommand{
		BookingID: chi.URLParam(r, "bookingId"),
		Reason:    req.Reason,
	})
	if err != nil {
		writePaymentError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, buildBookingPayload(booking))
}

func (h *AdminHandlers) listContactMessages(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	pager, err := parsePager(r, defaultAdminPageSize, maxAdminPageSize)
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_pagination", err.Error(), http.StatusBadRequest))
		return
	}

	page, err := h.contact.List(ctx, pager)
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("contact_list_error", err.Error(), http.StatusInternalServerError))
		return
	}

	payload := make([]contactMessagePayload, 0, len(page.Items))
	for _, message := range page.Items {
		payload = append(payload, contactMessagePayload{
			ID:        message.ID,
			Name:      message.Name,
			Email:     message.Email,
			Phone:     message.Phone,
			Subject:   message.Subject,
			Message:   message.Message,
			Read:      message.Read,
			CreatedAt: formatTime(message.CreatedAt),
		})
	}
	writeJSONResponse(w, http.StatusOK, map[string]any{
		"messages":        payload,
		"next_page_token": page.NextPageToken,
	})
}

func (h *AdminHandlers) markContactMessageRead(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := h.contact.MarkRead(ctx, chi.URLParam(r, "messageId")); err != nil {
		writeContactAdminError(ctx, w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *AdminHandlers) deleteContactMessage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := h.contact.Delete(ctx, chi.URLParam(r, "messageId")); err != nil {
		writeContactAdminError(ctx, w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func buildPartnerCodeAdminPayload(code domain.PartnerCode) adminPartnerCodePayload {
	return adminPartnerCodePayload{
		Code:                   code.Code,
		PartnerName:            code.PartnerName,
		PackageDiscountPercent: code.PackageDiscountPercent,
		AddonDiscountPercent:   code.AddonDiscountPercent,
		Active:                 code.Active,
		StartsAt:               formatTime(code.StartsAt),
		EndsAt:                 formatTime(code.EndsAt),
		CreatedAt:              formatTime(code.CreatedAt),
		UpdatedAt:              formatTime(code.UpdatedAt),
	}
}

func parseOptionalTimestamp(ctx context.Context, w http.ResponseWriter, field, value string) (time.Time, bool) {
	if value == "" {
		return time.Time{}, true
	}
	parsed, err := time.Parse(time.RFC3339, value)
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_timestamp", field+" must be RFC 3339", http.StatusBadRequest))
		return time.Time{}, false
	}
	return parsed, true
}

func writeCatalogAdminError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrCatalogEntryInvalid):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_catalog_entry", err.Error(), http.StatusBadRequest))
	case errors.Is(err, services.ErrPackageNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("package_not_found", "package not found", http.StatusNotFound))
	case errors.Is(err, services.ErrCatalogUnavailable):
		httpx.WriteError(ctx, w, httpx.NewError("catalog_unavailable", "catalog store unavailable", http.StatusServiceUnavailable))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("catalog_error", err.Error(), http.StatusInternalServerError))
	}
}

func writePartnerCodeAdminError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrPartnerCodeInvalid):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_partner_code", err.Error(), http.StatusBadRequest))
	case errors.Is(err, services.ErrPartnerCodeNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("partner_code_not_found", "partner code not found", http.StatusNotFound))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("partner_code_error", err.Error(), http.StatusInternalServerError))
	}
}

func writeContactAdminError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrMessageNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("message_not_found", "contact message not found", http.StatusNotFound))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("contact_error", err.Error(), http.StatusInternalServerError))
	}
}
