package domain

import (
	"math"
	"testing"
)

func testBands() []PropertySizeConfig {
	return DefaultCatalog().SizeBands
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestPriceForPackage(t *testing.T) {
	code20 := &PartnerCode{Code: "AGENTX", PackageDiscountPercent: 20, AddonDiscountPercent: 10, Active: true}

	tests := []struct {
		name        string
		basePrice   float64
		sizeInput   string
		packageID   string
		code        *PartnerCode
		wantAmount  float64
		wantContact bool
	}{
		{name: "base price passes through without size or code", basePrice: 299, packageID: "essential", wantAmount: 299},
		{name: "tailored always requires contact", basePrice: 0, sizeInput: "900", packageID: "tailored", wantContact: true},
		{name: "tailored requires contact even with base price", basePrice: 500, packageID: "Tailored", wantContact: true},
		{name: "size at threshold requires contact", basePrice: 499, sizeInput: "5000", packageID: "premium", wantContact: true},
		{name: "size above threshold requires contact", basePrice: 499, sizeInput: "8200", packageID: "premium", wantContact: true},
		{name: "band boundary belongs to upper band", basePrice: 100, sizeInput: "1500", packageID: "essential", wantAmount: 115},
		{name: "just below boundary stays in lower band", basePrice: 100, sizeInput: "1499", packageID: "essential", wantAmount: 100},
		{name: "mid band multiplier", basePrice: 200, sizeInput: "3000", packageID: "premium", wantAmount: 260},
		{name: "thousands separator tolerated", basePrice: 200, sizeInput: "3,000", packageID: "premium", wantAmount: 260},
		{name: "malformed size means no adjustment", basePrice: 299, sizeInput: "banana", packageID: "essential", wantAmount: 299},
		{name: "negative size means no adjustment", basePrice: 299, sizeInput: "-40", packageID: "essential", wantAmount: 299},
		{name: "zero size means no adjustment", basePrice: 299, sizeInput: "0", packageID: "essential", wantAmount: 299},
		{name: "partner discount applies after multiplier", basePrice: 100, sizeInput: "1500", packageID: "essential", code: code20, wantAmount: 92},
		{name: "twenty percent discount", basePrice: 500, packageID: "premium", code: code20, wantAmount: 400},
		{name: "discount above hundred clamps to free", basePrice: 300, packageID: "essential", code: &PartnerCode{PackageDiscountPercent: 150}, wantAmount: 0},
		{name: "negative discount clamps to none", basePrice: 300, packageID: "essential", code: &PartnerCode{PackageDiscountPercent: -5}, wantAmount: 300},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := PriceForPackage(tc.basePrice, tc.sizeInput, tc.packageID, tc.code, testBands())
			if got.ContactRequired != tc.wantContact {
				t.Fatalf("ContactRequired = %v, want %v", got.ContactRequired, tc.wantContact)
			}
			if tc.wantContact {
				return
			}
			if !almostEqual(got.Amount, tc.wantAmount) {
				t.Fatalf("Amount = %v, want %v", got.Amount, tc.wantAmount)
			}
		})
	}
}

func TestPriceForPackageIdempotent(t *testing.T) {
	code := &PartnerCode{PackageDiscountPercent: 12.5}
	first := PriceForPackage(499, "2600", "premium", code, testBands())
	second := PriceForPackage(499, "2600", "premium", code, testBands())
	if first != second {
		t.Fatalf("expected identical results, got %+v then %+v", first, second)
	}
}

func TestPriceForAddOn(t *testing.T) {
	twilight := AddOn{ID: "twilight_photos", BasePrice: 149, PriceWithPackage: floatPtr(99)}
	intro := AddOn{ID: "agent_intro_video", BasePrice: 299, PriceWithoutPackage: floatPtr(349)}
	plain := AddOn{ID: "drone_aerial", BasePrice: 199}
	code := &PartnerCode{AddonDiscountPercent: 10}

	tests := []struct {
		name       string
		addon      AddOn
		hasPackage bool
		code       *PartnerCode
		want       float64
	}{
		{name: "package-conditional price when attached", addon: twilight, hasPackage: true, want: 99},
		{name: "base price when detached and no override", addon: twilight, hasPackage: false, want: 149},
		{name: "standalone override when detached", addon: intro, hasPackage: false, want: 349},
		{name: "base price when attached and no attached override", addon: intro, hasPackage: true, want: 299},
		{name: "plain base price", addon: plain, hasPackage: true, want: 199},
		{name: "addon discount applies", addon: plain, code: code, want: 179.1},
		{name: "discount on conditional price", addon: twilight, hasPackage: true, code: code, want: 89.1},
		{name: "over-discount floors at zero", addon: plain, code: &PartnerCode{AddonDiscountPercent: 400}, want: 0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := PriceForAddOn(tc.addon, tc.hasPackage, tc.code)
			if !almostEqual(got, tc.want) {
				t.Fatalf("PriceForAddOn = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestCalculateTotal(t *testing.T) {
	t.Run("sums subtotal tax and total", func(t *testing.T) {
		pkg := &PackageQuote{Amount: 100}
		breakdown, err := CalculateTotal(pkg, []float64{50, 20})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if breakdown.Subtotal != 170 {
			t.Fatalf("Subtotal = %v, want 170", breakdown.Subtotal)
		}
		if breakdown.TaxAmount != 22.10 {
			t.Fatalf("TaxAmount = %v, want 22.10", breakdown.TaxAmount)
		}
		if breakdown.FinalTotal != 192.10 {
			t.Fatalf("FinalTotal = %v, want 192.10", breakdown.FinalTotal)
		}
		if breakdown.TaxRate != 13 {
			t.Fatalf("TaxRate = %v, want 13", breakdown.TaxRate)
		}
		if breakdown.PackagePrice == nil || *breakdown.PackagePrice != 100 {
			t.Fatalf("PackagePrice = %v, want 100", breakdown.PackagePrice)
		}
	})

	t.Run("no package selected totals addons only", func(t *testing.T) {
		breakdown, err := CalculateTotal(nil, []float64{50})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if breakdown.PackagePrice != nil {
			t.Fatalf("expected nil package price, got %v", *breakdown.PackagePrice)
		}
		if breakdown.FinalTotal != 56.50 {
			t.Fatalf("FinalTotal = %v, want 56.50", breakdown.FinalTotal)
		}
	})

	t.Run("unresolved package blocks numeric total", func(t *testing.T) {
		breakdown, err := CalculateTotal(&PackageQuote{ContactRequired: true}, []float64{50})
		if err == nil {
			t.Fatalf("expected ErrPriceUnresolved")
		}
		if err != ErrPriceUnresolved {
			t.Fatalf("err = %v, want ErrPriceUnresolved", err)
		}
		if !breakdown.ContactRequired {
			t.Fatalf("expected ContactRequired breakdown")
		}
		if breakdown.FinalTotal != 0 || breakdown.Subtotal != 0 {
			t.Fatalf("expected no numeric amounts, got %+v", breakdown)
		}
	})

	t.Run("rounding happens once at total time", func(t *testing.T) {
		// 33.335 + 33.335 keeps full precision until the subtotal rounds.
		breakdown, err := CalculateTotal(nil, []float64{33.335, 33.335})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if breakdown.Subtotal != 66.67 {
			t.Fatalf("Subtotal = %v, want 66.67", breakdown.Subtotal)
		}
	})
}

func TestRoundToCents(t *testing.T) {
	if got := RoundToCents(22.104999); got != 22.10 {
		t.Fatalf("RoundToCents = %v, want 22.10", got)
	}
	if got := ToCents(192.10); got != 19210 {
		t.Fatalf("ToCents = %v, want 19210", got)
	}
}
