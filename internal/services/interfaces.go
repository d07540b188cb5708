package services

import (
	"context"
	"time"

	domain "github.com/northlens-media/api/internal/domain"
	"github.com/northlens-media/api/internal/repositories"
)

// CatalogService exposes the published service catalog and admin mutations.
type CatalogService interface {
	Catalog(ctx context.Context) (domain.Catalog, error)
	UpsertPackage(ctx context.Context, pkg domain.Package) (domain.Package, error)
	DeletePackage(ctx context.Context, id string) error
	UpsertAddOn(ctx context.Context, addon domain.AddOn) (domain.AddOn, error)
	DeleteAddOn(ctx context.Context, id string) error
	UpsertSizeBand(ctx context.Context, band domain.PropertySizeConfig) (domain.PropertySizeConfig, error)
	DeleteSizeBand(ctx context.Context, id string) error
}

// PartnerCodeService validates referral codes for bookings and manages them
// for the admin surface.
type PartnerCodeService interface {
	// Resolve returns the code when it exists, is active, and is inside its
	// validity window; otherwise (nil, nil) so pricing proceeds undiscounted.
	Resolve(ctx context.Context, code string) (*domain.PartnerCode, error)
	List(ctx context.Context, pager domain.Pagination) (domain.CursorPage[domain.PartnerCode], error)
	Upsert(ctx context.Context, code domain.PartnerCode) (domain.PartnerCode, error)
	Delete(ctx context.Context, code string) error
}

// QuoteRequest carries the raw, client-influenced selection inputs.
type QuoteRequest struct {
	PackageID    string
	AddOnIDs     []string
	PropertySize string
	PartnerCode  string
}

// AddOnLine is one priced add-on in a quote.
type AddOnLine struct {
	ID    string
	Name  string
	Count int
	Price float64
}

// Quote is the engine-derived price breakdown returned to both the public
// preview endpoint and the server-side authorization paths.
type Quote struct {
	PackageID   string
	AddOns      []AddOnLine
	PartnerCode string
	Breakdown   domain.PriceBreakdown
}

// QuoteService computes authoritative quotes from server-trusted catalog
// values. The same implementation backs preview and charge paths so the two
// can never disagree.
type QuoteService interface {
	Price(ctx context.Context, req QuoteRequest) (Quote, error)
}

// BookingSubmission is a public booking-wizard submission.
type BookingSubmission struct {
	Name            string
	Email           string
	Phone           string
	PropertyAddress string
	Notes           string
	Locale          string
	PackageID       string
	AddOnIDs        []string
	PropertySize    string
	PartnerCode     string
	PreferredDate   time.Time
	PreferredTime   string
	RecaptchaToken  string
}

// BookingUpdateCommand mutates a booking from the admin surface.
type BookingUpdateCommand struct {
	BookingID string
	Status    domain.BookingStatus
	Notes     *string
}

// BookingService orchestrates booking submissions and admin management.
type BookingService interface {
	Submit(ctx context.Context, submission BookingSubmission) (domain.Booking, error)
	// Lookup is the public status check and requires the submitter's email;
	// Get is the trusted-caller variant for admin and internal surfaces.
	Lookup(ctx context.Context, bookingID string, email string) (domain.Booking, error)
	Get(ctx context.Context, bookingID string) (domain.Booking, error)
	List(ctx context.Context, filter repositories.BookingListFilter) (domain.CursorPage[domain.Booking], error)
	Update(ctx context.Context, cmd BookingUpdateCommand) (domain.Booking, error)
	MarkPaid(ctx context.Context, intentID string, amountCents int64, paidAt time.Time) (domain.Booking, error)
}

// PaymentIntentCommand requests a charge authorization for a booking.
type PaymentIntentCommand struct {
	BookingID      string
	IdempotencyKey string
}

// PaymentIntentResult returns the PSP handle the client completes payment with.
type PaymentIntentResult struct {
	IntentID     string
	ClientSecret string
	AmountCents  int64
	Currency     string
}

// RefundCommand requests a full refund of a paid booking's charge.
type RefundCommand struct {
	BookingID string
	Reason    string
}

// PaymentService recomputes booking totals server-side and creates PSP
// payment intents. Client-supplied amounts are never trusted.
type PaymentService interface {
	CreateIntent(ctx context.Context, cmd PaymentIntentCommand) (PaymentIntentResult, error)
	// Refund reverses a paid booking's charge and moves the booking to
	// cancelled. Only admin callers reach this path.
	Refund(ctx context.Context, cmd RefundCommand) (domain.Booking, error)
}

// ContactSubmission is a public contact-form submission.
type ContactSubmission struct {
	Name           string
	Email          string
	Phone          string
	Subject        string
	Message        string
	RecaptchaToken string
}

// ContactService handles contact-form submissions and admin inbox management.
type ContactService interface {
	Submit(ctx context.Context, submission ContactSubmission) (domain.ContactMessage, error)
	List(ctx context.Context, pager domain.Pagination) (domain.CursorPage[domain.ContactMessage], error)
	MarkRead(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
}

// SystemHealthReport is the service-level alias for the domain health report.
type SystemHealthReport = domain.SystemHealthReport

// SystemService aggregates health and build metadata for ops endpoints.
type SystemService interface {
	HealthReport(ctx context.Context) (SystemHealthReport, error)
}

// RecaptchaVerifier checks a client token against the verification service.
// Implementations return nil for valid tokens.
type RecaptchaVerifier interface {
	Verify(ctx context.Context, token string, remoteIP string) error
}

// NotificationMessage is the payload published for the mailer worker.
type NotificationMessage struct {
	JobID     string            `json:"jobId"`
	Kind      string            `json:"kind"`
	Locale    string            `json:"locale"`
	Recipient string            `json:"recipient"`
	Subject   string            `json:"subject"`
	Data      map[string]string `json:"data,omitempty"`
}

// NotificationPublisher enqueues outbound email jobs. Delivery is handled by
// an external worker; publish failures must never fail the triggering
// operation.
type NotificationPublisher interface {
	PublishNotification(ctx context.Context, message NotificationMessage) (string, error)
}

// Logger is the minimal structured event logger injected into services.
type Logger func(ctx context.Context, event string, fields map[string]any)
