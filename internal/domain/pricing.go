package domain

import (
	"errors"
	"math"
	"strconv"
	"strings"
)

const (
	// TailoredPackageID marks the package whose price is always quoted manually.
	TailoredPackageID = "tailored"
	// ContactPricingSqftThreshold forces manual quoting for very large properties
	// regardless of any matched multiplier band.
	ContactPricingSqftThreshold = 5000
	// HSTRate is the Ontario Harmonized Sales Tax applied to every booking.
	HSTRate = 0.13
)

// ErrPriceUnresolved signals that a selected package resolved to the
// contact-for-price sentinel, so no numeric total may be produced. Callers
// must surface a "contact us" state instead of a checkout amount.
var ErrPriceUnresolved = errors.New("pricing: package price unresolved, manual quote required")

// PackageQuote is the outcome of pricing a package. When ContactRequired is
// set, Amount carries no meaning and checkout must be blocked.
type PackageQuote struct {
	Amount          float64
	ContactRequired bool
}

// PriceBreakdown is the persisted monetary record for a booking. TaxRate is a
// percentage (13.00), amounts are CAD dollars rounded to cents.
type PriceBreakdown struct {
	PackagePrice    *float64
	AddOnsPrice     float64
	Subtotal        float64
	TaxRate         float64
	TaxAmount       float64
	FinalTotal      float64
	ContactRequired bool
}

// PriceForPackage computes the effective price of a package for the given
// property size input and optional partner code. The size input comes from
// client-influenced form state and may be arbitrary text; malformed values
// degrade to "no size adjustment" rather than failing. Intermediate results
// keep full precision; rounding happens once in CalculateTotal.
func PriceForPackage(basePrice float64, sizeInput string, packageID string, code *PartnerCode, bands []PropertySizeConfig) PackageQuote {
	if strings.EqualFold(strings.TrimSpace(packageID), TailoredPackageID) {
		return PackageQuote{ContactRequired: true}
	}

	sqft, ok := parseSquareFootage(sizeInput)
	if ok && sqft >= ContactPricingSqftThreshold {
		return PackageQuote{ContactRequired: true}
	}

	multiplier := 1.0
	if ok && sqft > 0 {
		for _, band := range bands {
			if band.Contains(sqft) {
				multiplier = band.Multiplier
				break
			}
		}
	}

	adjusted := basePrice * multiplier
	if code != nil {
		adjusted *= 1 - clampPercent(code.PackageDiscountPercent)/100
	}
	if adjusted < 0 {
		adjusted = 0
	}
	return PackageQuote{Amount: adjusted}
}

// PriceForAddOn computes the effective price of an add-on. The conditional
// override matching the package-attachment state supersedes the base price
// when present; the partner add-on discount applies afterwards.
func PriceForAddOn(addon AddOn, hasPackage bool, code *PartnerCode) float64 {
	base := addon.BasePrice
	switch {
	case hasPackage && addon.PriceWithPackage != nil:
		base = *addon.PriceWithPackage
	case !hasPackage && addon.PriceWithoutPackage != nil:
		base = *addon.PriceWithoutPackage
	}

	if code != nil {
		base *= 1 - clampPercent(code.AddonDiscountPercent)/100
	}
	if base < 0 {
		base = 0
	}
	return base
}

// CalculateTotal sums an optional package quote and a set of add-on prices
// into the persisted breakdown. A nil quote means no package was selected; a
// quote carrying the contact sentinel aborts with ErrPriceUnresolved so an
// unresolved package price is never silently treated as zero.
func CalculateTotal(pkg *PackageQuote, addonPrices []float64) (PriceBreakdown, error) {
	if pkg != nil && pkg.ContactRequired {
		return PriceBreakdown{TaxRate: HSTRate * 100, ContactRequired: true}, ErrPriceUnresolved
	}

	breakdown := PriceBreakdown{TaxRate: HSTRate * 100}

	var packageAmount float64
	if pkg != nil {
		packageAmount = RoundToCents(pkg.Amount)
		breakdown.PackagePrice = &packageAmount
	}

	var addons float64
	for _, price := range addonPrices {
		addons += price
	}
	breakdown.AddOnsPrice = RoundToCents(addons)

	breakdown.Subtotal = RoundToCents(packageAmount + addons)
	breakdown.TaxAmount = RoundToCents(breakdown.Subtotal * HSTRate)
	breakdown.FinalTotal = RoundToCents(breakdown.Subtotal + breakdown.TaxAmount)
	return breakdown, nil
}

// RoundToCents rounds a CAD amount to minor-unit precision.
func RoundToCents(amount float64) float64 {
	return math.Round(amount*100) / 100
}

// ToCents converts a CAD amount to the smallest currency unit for the PSP.
func ToCents(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

func parseSquareFootage(input string) (int, bool) {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return 0, false
	}
	// Tolerate thousands separators pasted from listings ("2,500").
	trimmed = strings.ReplaceAll(trimmed, ",", "")
	sqft, err := strconv.Atoi(trimmed)
	if err != nil {
		f, ferr := strconv.ParseFloat(trimmed, 64)
		if ferr != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, false
		}
		sqft = int(f)
	}
	if sqft <= 0 {
		// Zero or negative footage is "no size supplied", not an error.
		return 0, false
	}
	return sqft, true
}

func clampPercent(percent float64) float64 {
	if percent < 0 {
		return 0
	}
	if percent > 100 {
		return 100
	}
	return percent
}
