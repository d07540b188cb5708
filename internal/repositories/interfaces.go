package repositories

import (
	"context"
	"time"

	domain "github.com/northlens-media/api/internal/domain"
)

// RepositoryError wraps low-level persistence failures with categorisation used by services.
type RepositoryError interface {
	error
	IsNotFound() bool
	IsConflict() bool
	IsUnavailable() bool
}

// UnitOfWork allows grouping repository operations in a transactional boundary when supported.
type UnitOfWork interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// CatalogRepository persists the admin-managed service catalog. Load returns
// the complete published snapshot the pricing engine reads; an empty snapshot
// signals the caller to fall back to the compiled-in defaults.
type CatalogRepository interface {
	Load(ctx context.Context) (domain.Catalog, error)
	UpsertPackage(ctx context.Context, pkg domain.Package) error
	DeletePackage(ctx context.Context, id string) error
	UpsertAddOn(ctx context.Context, addon domain.AddOn) error
	DeleteAddOn(ctx context.Context, id string) error
	UpsertSizeBand(ctx context.Context, band domain.PropertySizeConfig) error
	DeleteSizeBand(ctx context.Context, id string) error
}

// PartnerCodeRepository manages referral discount codes. FindByCode performs
// the validation lookup by normalised code; callers decide validity-window
// semantics via domain.PartnerCode.ValidAt.
type PartnerCodeRepository interface {
	FindByCode(ctx context.Context, code string) (domain.PartnerCode, error)
	List(ctx context.Context, pager domain.Pagination) (domain.CursorPage[domain.PartnerCode], error)
	Upsert(ctx context.Context, code domain.PartnerCode) error
	Delete(ctx context.Context, code string) error
}

// BookingListFilter narrows admin booking listings.
type BookingListFilter struct {
	Status    domain.BookingStatus
	PackageID string
	From      time.Time
	To        time.Time
	Pager     domain.Pagination
}

// BookingRepository persists booking submissions and their price breakdowns.
type BookingRepository interface {
	Insert(ctx context.Context, booking domain.Booking) error
	Update(ctx context.Context, booking domain.Booking) error
	FindByID(ctx context.Context, id string) (domain.Booking, error)
	FindByPaymentIntent(ctx context.Context, intentID string) (domain.Booking, error)
	List(ctx context.Context, filter BookingListFilter) (domain.CursorPage[domain.Booking], error)
}

// ContactMessageRepository persists contact-form submissions.
type ContactMessageRepository interface {
	Insert(ctx context.Context, message domain.ContactMessage) error
	MarkRead(ctx context.Context, id string, readAt time.Time) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, pager domain.Pagination) (domain.CursorPage[domain.ContactMessage], error)
}

// HealthRepository aggregates dependency probes for readiness endpoints.
type HealthRepository interface {
	Collect(ctx context.Context) (domain.SystemHealthReport, error)
}
