package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	domain "github.com/northlens-media/api/internal/domain"
	"github.com/northlens-media/api/internal/platform/httpx"
	"github.com/northlens-media/api/internal/services"
)

const (
	maxQuoteBodySize = 16 * 1024

	quoteRateLimit  = 60
	quoteRateWindow = time.Minute
)

// PublicHandlers exposes the unauthenticated catalog, partner code validation,
// and quote preview endpoints consumed by the booking wizard.
type PublicHandlers struct {
	catalog      services.CatalogService
	partnerCodes services.PartnerCodeService
	quotes       services.QuoteService
	limiter      rateLimiter
}

// PublicOption customises the public handlers.
type PublicOption func(*PublicHandlers)

// WithPublicRateLimiter overrides the per-IP limiter guarding quote endpoints.
func WithPublicRateLimiter(limiter rateLimiter) PublicOption {
	return func(h *PublicHandlers) {
		h.limiter = limiter
	}
}

// WithPublicRateLimit sets the per-IP quote limit. A non-positive limit or
// window disables throttling.
func WithPublicRateLimit(limit int, window time.Duration) PublicOption {
	return func(h *PublicHandlers) {
		h.limiter = newSimpleRateLimiter(limit, window, nil)
	}
}

// NewPublicHandlers constructs a PublicHandlers instance.
func NewPublicHandlers(catalog services.CatalogService, partnerCodes services.PartnerCodeService, quotes services.QuoteService, opts ...PublicOption) *PublicHandlers {
	h := &PublicHandlers{
		catalog:      catalog,
		partnerCodes: partnerCodes,
		quotes:       quotes,
		limiter:      newSimpleRateLimiter(quoteRateLimit, quoteRateWindow, nil),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(h)
		}
	}
	return h
}

// Routes registers the /public endpoints.
func (h *PublicHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Get("/packages", h.listPackages)
	r.Get("/addons", h.listAddOns)
	r.Get("/property-sizes", h.listPropertySizes)
	r.Get("/partner-codes/{code}/validate", h.validatePartnerCode)
	r.Post("/quote", h.quote)
}

type packagePayload struct {
	ID             string   `json:"id"`
	Name           string   `json:"name"`
	Description    string   `json:"description,omitempty"`
	Category       string   `json:"category"`
	BasePrice      *float64 `json:"base_price,omitempty"`
	ContactPricing bool     `json:"contact_pricing,omitempty"`
	Features       []string `json:"features,omitempty"`
	SortOrder      int      `json:"sort_order"`
}

type addOnPayload struct {
	ID                  string   `json:"id"`
	Name                string   `json:"name"`
	Description         string   `json:"description,omitempty"`
	Category            string   `json:"category,omitempty"`
	BasePrice           float64  `json:"base_price"`
	PriceWithPackage    *float64 `json:"price_with_package,omitempty"`
	PriceWithoutPackage *float64 `json:"price_without_package,omitempty"`
	SortOrder           int      `json:"sort_order"`
}

type propertySizePayload struct {
	ID         string  `json:"id"`
	Label      string  `json:"label"`
	MinSqft    int     `json:"min_sqft"`
	MaxSqft    *int    `json:"max_sqft,omitempty"`
	Multiplier float64 `json:"multiplier"`
	SortOrder  int     `json:"sort_order"`
}

func (h *PublicHandlers) listPackages(w http.ResponseWriter, r *http.Request) {
	catalog, ok := h.loadCatalog(w, r)
	if !ok {
		return
	}
	payload := make([]packagePayload, 0, len(catalog.Packages))
	for _, pkg := range catalog.Packages {
		payload = append(payload, buildPackagePayload(pkg))
	}
	writeJSONResponse(w, http.StatusOK, map[string]any{"packages": payload})
}

func (h *PublicHandlers) listAddOns(w http.ResponseWriter, r *http.Request) {
	catalog, ok := h.loadCatalog(w, r)
	if !ok {
		return
	}
	payload := make([]addOnPayload, 0, len(catalog.AddOns))
	for _, addon := range catalog.AddOns {
		payload = append(payload, addOnPayload{
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
	writeJSONResponse(w, http.StatusOK, map[string]any{"addons": payload})
}

func (h *PublicHandlers) listPropertySizes(w http.ResponseWriter, r *http.Request) {
	catalog, ok := h.loadCatalog(w, r)
	if !ok {
		return
	}
	payload := make([]propertySizePayload, 0, len(catalog.SizeBands))
	for _, band := range catalog.SizeBands {
		payload = append(payload, propertySizePayload{
			ID:         band.ID,
			Label:      band.Label,
			MinSqft:    band.MinSqft,
			MaxSqft:    band.MaxSqft,
			Multiplier: band.Multiplier,
			SortOrder:  band.SortOrder,
		})
	}
	writeJSONResponse(w, http.StatusOK, map[string]any{
		"property_sizes":         payload,
		"contact_threshold_sqft": domain.ContactPricingSqftThreshold,
		"tax_rate_percent":       domain.HSTRate * 100,
		"currency":               "CAD",
	})
}

type partnerCodePayload struct {
	Valid                  bool    `json:"valid"`
	Code                   string  `json:"code,omitempty"`
	PartnerName            string  `json:"partner_name,omitempty"`
	PackageDiscountPercent float64 `json:"package_discount_percent,omitempty"`
	AddonDiscountPercent   float64 `json:"addon_discount_percent,omitempty"`
}

func (h *PublicHandlers) validatePartnerCode(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.partnerCodes == nil {
		httpx.WriteError(ctx, w, httpx.NewError("partner_codes_unavailable", "partner code service unavailable", http.StatusServiceUnavailable))
		return
	}
	if !h.allow(w, r) {
		return
	}

	code, err := h.partnerCodes.Resolve(ctx, chi.URLParam(r, "code"))
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("partner_code_error", err.Error(), http.StatusInternalServerError))
		return
	}
	if code == nil {
		writeJSONResponse(w, http.StatusOK, partnerCodePayload{Valid: false})
		return
	}
	writeJSONResponse(w, http.StatusOK, partnerCodePayload{
		Valid:                  true,
		Code:                   code.Code,
		PartnerName:            code.PartnerName,
		PackageDiscountPercent: code.PackageDiscountPercent,
		AddonDiscountPercent:   code.AddonDiscountPercent,
	})
}

type quoteRequest struct {
	PackageID    string   `json:"package_id"`
	AddOnIDs     []string `json:"addon_ids"`
	PropertySize string   `json:"property_size"`
	PartnerCode  string   `json:"partner_code"`
}

type quoteAddOnPayload struct {
	ID    string  `json:"id"`
	Name  string  `json:"name"`
	Count int     `json:"count"`
	Price float64 `json:"price"`
}

type breakdownPayload struct {
	PackagePrice    *float64 `json:"package_price,omitempty"`
	AddOnsPrice     float64  `json:"addons_price"`
	Subtotal        float64  `json:"subtotal"`
	TaxRate         float64  `json:"tax_rate"`
	TaxAmount       float64  `json:"tax_amount"`
	FinalTotal      float64  `json:"final_total"`
	ContactRequired bool     `json:"contact_required"`
}

type quotePayload struct {
	PackageID   string              `json:"package_id,omitempty"`
	AddOns      []quoteAddOnPayload `json:"addons"`
	PartnerCode string              `json:"partner_code,omitempty"`
	Breakdown   breakdownPayload    `json:"breakdown"`
}

func (h *PublicHandlers) quote(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.quotes == nil {
		httpx.WriteError(ctx, w, httpx.NewError("quote_service_unavailable", "quote service unavailable", http.StatusServiceUnavailable))
		return
	}
	if !h.allow(w, r) {
		return
	}

	var req quoteRequest
	if !decodeJSONBody(w, r, maxQuoteBodySize, &req) {
		return
	}

	quote, err := h.quotes.Price(ctx, services.QuoteRequest{
		PackageID:    req.PackageID,
		AddOnIDs:     req.AddOnIDs,
		PropertySize: req.PropertySize,
		PartnerCode:  req.PartnerCode,
	})
	if err != nil {
		writeQuoteError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, buildQuotePayload(quote))
}

func (h *PublicHandlers) loadCatalog(w http.ResponseWriter, r *http.Request) (domain.Catalog, bool) {
	ctx := r.Context()
	if h.catalog == nil {
		httpx.WriteError(ctx, w, httpx.NewError("catalog_unavailable", "catalog service unavailable", http.StatusServiceUnavailable))
		return domain.Catalog{}, false
	}
	catalog, err := h.catalog.Catalog(ctx)
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("catalog_unavailable", "catalog could not be loaded", http.StatusServiceUnavailable))
		return domain.Catalog{}, false
	}
	return catalog, true
}

func (h *PublicHandlers) allow(w http.ResponseWriter, r *http.Request) bool {
	if h.limiter == nil || h.limiter.Allow(clientIP(r)) {
		return true
	}
	httpx.WriteError(r.Context(), w, httpx.NewError("rate_limited", "too many requests", http.StatusTooManyRequests))
	return false
}

func buildPackagePayload(pkg domain.Package) packagePayload {
	payload := packagePayload{
		ID:          pkg.ID,
		Name:        pkg.Name,
		Description: pkg.Description,
		Category:    string(pkg.Category),
		Features:    pkg.Features,
		SortOrder:   pkg.SortOrder,
	}
	if strings.EqualFold(pkg.ID, domain.TailoredPackageID) {
		payload.ContactPricing = true
	} else {
		price := pkg.BasePrice
		payload.BasePrice = &price
	}
	return payload
}

func buildQuotePayload(quote services.Quote) quotePayload {
	payload := quotePayload{
		PackageID:   quote.PackageID,
		PartnerCode: quote.PartnerCode,
		AddOns:      make([]quoteAddOnPayload, 0, len(quote.AddOns)),
		Breakdown:   buildBreakdownPayload(quote.Breakdown),
	}
	for _, line := range quote.AddOns {
		payload.AddOns = append(payload.AddOns, quoteAddOnPayload{
			ID:    line.ID,
			Name:  line.Name,
			Count: line.Count,
			Price: line.Price,
		})
	}
	return payload
}

func buildBreakdownPayload(breakdown domain.PriceBreakdown) breakdownPayload {
	return breakdownPayload{
		PackagePrice:    breakdown.PackagePrice,
		AddOnsPrice:     breakdown.AddOnsPrice,
		Subtotal:        breakdown.Subtotal,
		TaxRate:         breakdown.TaxRate,
		TaxAmount:       breakdown.TaxAmount,
		FinalTotal:      breakdown.FinalTotal,
		ContactRequired: breakdown.ContactRequired,
	}
}

func writeQuoteError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrPackageNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("package_not_found", "selected package does not exist", http.StatusNotFound))
	case errors.Is(err, services.ErrCatalogUnavailable):
		httpx.WriteError(ctx, w, httpx.NewError("catalog_unavailable", "catalog could not be loaded", http.StatusServiceUnavailable))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("quote_error", err.Error(), http.StatusInternalServerError))
	}
}
