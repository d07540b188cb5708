package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	domain "github.com/northlens-media/api/internal/domain"
)

// QuoteServiceDeps bundles dependencies required to construct a QuoteService.
type QuoteServiceDeps struct {
	Catalog      CatalogService
	PartnerCodes PartnerCodeService
	Logger       Logger
}

type quoteService struct {
	catalog      CatalogService
	partnerCodes PartnerCodeService
	logger       Logger
}

// NewQuoteService wires the pricing engine behind the catalog and partner
// code services.
func NewQuoteService(deps QuoteServiceDeps) (QuoteService, error) {
	if deps.Catalog == nil {
		return nil, errors.New("quote service: catalog service is required")
	}
	if deps.PartnerCodes == nil {
		return nil, errors.New("quote service: partner code service is required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}
	return &quoteService{
		catalog:      deps.Catalog,
		partnerCodes: deps.PartnerCodes,
		logger:       logger,
	}, nil
}

// Price computes an authoritative quote from server-trusted catalog values.
// A contact-required package yields a breakdown with ContactRequired set and
// no numeric total; that is a valid quote, not an error.
func (s *quoteService) Price(ctx context.Context, req QuoteRequest) (Quote, error) {
	catalog, err := s.catalog.Catalog(ctx)
	if err != nil {
		return Quote{}, err
	}

	code, err := s.partnerCodes.Resolve(ctx, req.PartnerCode)
	if err != nil {
		return Quote{}, err
	}

	quote := Quote{PackageID: strings.TrimSpace(req.PackageID)}
	if code != nil {
		quote.PartnerCode = code.Code
	}

	var pkgQuote *domain.PackageQuote
	hasPackage := quote.PackageID != ""
	if hasPackage {
		pkg, found := catalog.PackageByID(quote.PackageID)
		if !found {
			return Quote{}, fmt.Errorf("%w: %s", ErrPackageNotFound, quote.PackageID)
		}
		// Size multipliers only apply to listing media; personal-branding
		// shoots are priced independently of the property.
		sizeInput := req.PropertySize
		if pkg.Category != domain.CategoryListing {
			sizeInput = ""
		}
		q := domain.PriceForPackage(pkg.BasePrice, sizeInput, pkg.ID, code, catalog.SizeBands)
		pkgQuote = &q
	}

	selections := domain.NormalizeSelections(req.AddOnIDs)
	addonPrices := make([]float64, 0, len(selections))
	for _, sel := range selections {
		addon, found := catalog.AddOnByID(sel.ID)
		if !found {
			s.logger(ctx, "quote.addon.unknown", map[string]any{"addonId": sel.ID})
			continue
		}
		unit := domain.PriceForAddOn(addon, hasPackage, code)
		// Line totals are rounded before summing so the displayed lines
		// always reconcile with Breakdown.AddOnsPrice.
		lineTotal := domain.RoundToCents(unit * float64(sel.Count))
		line := AddOnLine{ID: addon.ID, Name: addon.Name, Count: sel.Count, Price: lineTotal}
		quote.AddOns = append(quote.AddOns, line)
		addonPrices = append(addonPrices, lineTotal)
	}

	breakdown, err := domain.CalculateTotal(pkgQuote, addonPrices)
	if err != nil && !errors.Is(err, domain.ErrPriceUnresolved) {
		return Quote{}, err
	}
	quote.Breakdown = breakdown
	return quote, nil
}
