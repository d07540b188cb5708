package domain

import (
	"time"
)

// Pagination defines standard cursor-based paging inputs for list operations.
type Pagination struct {
	PageSize  int
	PageToken string
}

// CursorPage wraps a page of results together with the continuation token.
type CursorPage[T any] struct {
	Items         []T
	NextPageToken string
}

// SortOrder indicates ascending or descending ordering for list queries.
type SortOrder string

const (
	// SortAsc sorts results in ascending order.
	SortAsc SortOrder = "asc"
	// SortDesc sorts results in descending order.
	SortDesc SortOrder = "desc"
)

// PackageCategory distinguishes listing-media bundles from personal-branding bundles.
type PackageCategory string

const (
	// CategoryListing covers real-estate listing media packages. Property size
	// multipliers apply only to this category.
	CategoryListing PackageCategory = "listing"
	// CategoryPersonal covers agent personal-branding packages. Size is
	// meaningless here and never adjusts the price.
	CategoryPersonal PackageCategory = "personal"
)

// Package is a purchasable service bundle from the catalog.
type Package struct {
	ID          string
	Name        string
	Description string
	BasePrice   float64
	Category    PackageCategory
	Features    []string
	SortOrder   int
	Published   bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// AddOn is an optional extra priced independently of a package. When the
// conditional overrides are set they supersede BasePrice depending on whether
// a package is attached to the same booking.
type AddOn struct {
	ID                  string
	Name                string
	Description         string
	BasePrice           float64
	Category            string
	PriceWithPackage    *float64
	PriceWithoutPackage *float64
	SortOrder           int
	Published           bool
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// PropertySizeConfig is a square-footage band with a price multiplier.
// Bands are half-open [MinSqft, MaxSqft); a nil MaxSqft means unbounded.
type PropertySizeConfig struct {
	ID         string
	Label      string
	MinSqft    int
	MaxSqft    *int
	Multiplier float64
	SortOrder  int
}

// Contains reports whether the band covers the given square footage.
func (b PropertySizeConfig) Contains(sqft int) bool {
	if sqft < b.MinSqft {
		return false
	}
	if b.MaxSqft != nil && sqft >= *b.MaxSqft {
		return false
	}
	return true
}

// PartnerCode is a referral discount applied to package and add-on pricing
// with independent percentages. A code only affects pricing after passing the
// validation lookup; unknown or inactive codes are treated as absent.
type PartnerCode struct {
	Code                   string
	PartnerName            string
	PackageDiscountPercent float64
	AddonDiscountPercent   float64
	Active                 bool
	StartsAt               time.Time
	EndsAt                 time.Time
	CreatedAt              time.Time
	UpdatedAt              time.Time
}

// ValidAt reports whether the code may be applied at the given instant.
func (c PartnerCode) ValidAt(now time.Time) bool {
	if !c.Active {
		return false
	}
	if !c.StartsAt.IsZero() && now.Before(c.StartsAt) {
		return false
	}
	if !c.EndsAt.IsZero() && now.After(c.EndsAt) {
		return false
	}
	return true
}

// BookingStatus tracks a booking through its lifecycle.
type BookingStatus string

const (
	// BookingPending is the initial state after a public submission.
	BookingPending BookingStatus = "pending"
	// BookingConfirmed means the shoot date has been accepted by staff.
	BookingConfirmed BookingStatus = "confirmed"
	// BookingPaid means the Stripe payment for the booking succeeded.
	BookingPaid BookingStatus = "paid"
	// BookingCompleted means the media has been delivered.
	BookingCompleted BookingStatus = "completed"
	// BookingCancelled terminates the booking.
	BookingCancelled BookingStatus = "cancelled"
)

// Booking is a persisted booking submission together with the price breakdown
// computed server-side at submission time. The breakdown is stored so audits
// never need to recompute historical prices after catalog edits.
type Booking struct {
	ID              string
	Status          BookingStatus
	Name            string
	Email           string
	Phone           string
	PropertyAddress string
	Notes           string
	Locale          string

	PackageID    string
	AddOnIDs     []string
	StagingCount int
	PropertySize string
	PartnerCode  string

	PreferredDate time.Time
	PreferredTime string

	Breakdown PriceBreakdown

	PaymentIntentID string
	PaidAt          time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// ContactMessage is a persisted contact-form submission.
type ContactMessage struct {
	ID        string
	Name      string
	Email     string
	Phone     string
	Subject   string
	Message   string
	Read      bool
	CreatedAt time.Time
}
