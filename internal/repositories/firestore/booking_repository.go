package firestore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"

	domain "github.com/northlens-media/api/internal/domain"
	pfirestore "github.com/northlens-media/api/internal/platform/firestore"
	"github.com/northlens-media/api/internal/repositories"
)

const bookingCollection = "bookings"

// BookingRepository persists booking submissions with their computed price
// breakdowns.
type BookingRepository struct {
	provider *pfirestore.Provider
}

// NewBookingRepository constructs a Firestore-backed booking repository.
func NewBookingRepository(provider *pfirestore.Provider) (*BookingRepository, error) {
	if provider == nil {
		return nil, errors.New("booking repository requires firestore provider")
	}
	return &BookingRepository{provider: provider}, nil
}

// Insert creates a booking document. Fails when the id already exists so
// idempotent retries never duplicate a booking.
func (r *BookingRepository) Insert(ctx context.Context, booking domain.Booking) error {
	id := strings.TrimSpace(booking.ID)
	if id == "" {
		return errors.New("booking repository: booking id is required")
	}
	client, err := r.provider.Client(ctx)
	if err != nil {
		return err
	}
	_, err = client.Collection(bookingCollection).Doc(id).Create(ctx, encodeBookingDocument(booking))
	return pfirestore.WrapError("bookings.insert", err)
}

// Update overwrites a booking document.
func (r *BookingRepository) Update(ctx context.Context, booking domain.Booking) error {
	id := strings.TrimSpace(booking.ID)
	if id == "" {
		return errors.New("booking repository: booking id is required")
	}
	client, err := r.provider.Client(ctx)
	if err != nil {
		return err
	}
	_, err = client.Collection(bookingCollection).Doc(id).Set(ctx, encodeBookingDocument(booking))
	return pfirestore.WrapError("bookings.update", err)
}

// FindByID fetches a booking document.
func (r *BookingRepository) FindByID(ctx context.Context, id string) (domain.Booking, error) {
	trimmed := strings.TrimSpace(id)
	if trimmed == "" {
		return domain.Booking{}, errors.New("booking repository: booking id is required")
	}
	client, err := r.provider.Client(ctx)
	if err != nil {
		return domain.Booking{}, err
	}
	snap, err := client.Collection(bookingCollection).Doc(trimmed).Get(ctx)
	if err != nil {
		return domain.Booking{}, pfirestore.WrapError("bookings.findByID", err)
	}
	return decodeBookingDocument(snap)
}

// FindByPaymentIntent locates the booking attached to a PSP intent.
func (r *BookingRepository) FindByPaymentIntent(ctx context.Context, intentID string) (domain.Booking, error) {
	trimmed := strings.TrimSpace(intentID)
	if trimmed == "" {
		return domain.Booking{}, errors.New("booking repository: intent id is required")
	}
	client, err := r.provider.Client(ctx)
	if err != nil {
		return domain.Booking{}, err
	}
	iter := client.Collection(bookingCollection).
		Where("paymentIntentId", "==", trimmed).
		Limit(1).
		Documents(ctx)
	defer iter.Stop()

	snap, err := iter.Next()
	if errors.Is(err, iterator.Done) {
		return domain.Booking{}, pfirestore.NewNotFoundError("bookings.findByPaymentIntent", fmt.Errorf("no booking for intent %s", trimmed))
	}
	if err != nil {
		return domain.Booking{}, pfirestore.WrapError("bookings.findByPaymentIntent", err)
	}
	return decodeBookingDocument(snap)
}

// List returns bookings newest first with optional status/package/date filters.
func (r *BookingRepository) List(ctx context.Context, filter repositories.BookingListFilter) (domain.CursorPage[domain.Booking], error) {
	client, err := r.provider.Client(ctx)
	if err != nil {
		return domain.CursorPage[domain.Booking]{}, err
	}

	query := client.Collection(bookingCollection).Query
	if status := strings.TrimSpace(string(filter.Status)); status != "" {
		query = query.Where("status", "==", status)
	}
	if pkg := strings.TrimSpace(filter.PackageID); pkg != "" {
		query = query.Where("packageId", "==", pkg)
	}
	if !filter.From.IsZero() {
		query = query.Where("createdAt", ">=", filter.From.UTC())
	}
	if !filter.To.IsZero() {
		query = query.Where("createdAt", "<", filter.To.UTC())
	}
	query = query.OrderBy("createdAt", firestore.Desc).OrderBy(firestore.DocumentID, firestore.Desc)

	limit := filter.Pager.PageSize
	if limit < 0 {
		limit = 0
	}
	var fetchLimit int
	if limit > 0 {
		fetchLimit = limit + 1
		query = query.Limit(fetchLimit)
	}
	if token := strings.TrimSpace(filter.Pager.PageToken); token != "" {
		tokenTime, tokenID, err := decodeCursorToken(token)
		if err != nil {
			return domain.CursorPage[domain.Booking]{}, fmt.Errorf("bookings.list: invalid page token: %w", err)
		}
		query = query.StartAfter(tokenTime, tokenID)
	}

	iter := query.Documents(ctx)
	defer iter.Stop()

	var bookings []domain.Booking
	for {
		snap, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return domain.CursorPage[domain.Booking]{}, pfirestore.WrapError("bookings.list", err)
		}
		booking, err := decodeBookingDocument(snap)
		if err != nil {
			return domain.CursorPage[domain.Booking]{}, err
		}
		bookings = append(bookings, booking)
	}

	nextToken := ""
	if limit > 0 && len(bookings) == fetchLimit {
		last := bookings[len(bookings)-1]
		nextToken = encodeCursorToken(last.CreatedAt, last.ID)
		bookings = bookings[:len(bookings)-1]
	}

	return domain.CursorPage[domain.Booking]{Items: bookings, NextPageToken: nextToken}, nil
}

type bookingDocument struct {
	Status          string    `firestore:"status"`
	Name            string    `firestore:"name"`
	Email           string    `firestore:"email"`
	Phone           string    `firestore:"phone"`
	PropertyAddress string    `firestore:"propertyAddress"`
	Notes           string    `firestore:"notes"`
	Locale          string    `firestore:"locale"`
	PackageID       string    `firestore:"packageId"`
	AddOnIDs        []string  `firestore:"addonIds"`
	StagingCount    int       `firestore:"stagingCount"`
	PropertySize    string    `firestore:"propertySize"`
	PartnerCode     string    `firestore:"partnerCode"`
	PreferredDate   time.Time `firestore:"preferredDate"`
	PreferredTime   string    `firestore:"preferredTime"`

	PackagePrice    *float64 `firestore:"packagePrice"`
	AddOnsPrice     float64  `firestore:"addonsPrice"`
	Subtotal        float64  `firestore:"subtotal"`
	TaxRate         float64  `firestore:"taxRate"`
	TaxAmount       float64  `firestore:"taxAmount"`
	FinalTotal      float64  `firestore:"finalTotal"`
	ContactRequired bool     `firestore:"contactRequired"`

	PaymentIntentID string    `firestore:"paymentIntentId"`
	PaidAt          time.Time `firestore:"paidAt"`
	CreatedAt       time.Time `firestore:"createdAt"`
	UpdatedAt       time.Time `firestore:"updatedAt"`
}

func encodeBookingDocument(b domain.Booking) bookingDocument {
	return bookingDocument{
		Status:          string(b.Status),
		Name:            b.Name,
		Email:           b.Email,
		Phone:           b.Phone,
		PropertyAddress: b.PropertyAddress,
		Notes:           b.Notes,
		Locale:          b.Locale,
		PackageID:       b.PackageID,
		AddOnIDs:        b.AddOnIDs,
		StagingCount:    b.StagingCount,
		PropertySize:    b.PropertySize,
		PartnerCode:     b.PartnerCode,
		PreferredDate:   b.PreferredDate,
		PreferredTime:   b.PreferredTime,
		PackagePrice:    b.Breakdown.PackagePrice,
		AddOnsPrice:     b.Breakdown.AddOnsPrice,
		Subtotal:        b.Breakdown.Subtotal,
		TaxRate:         b.Breakdown.TaxRate,
		TaxAmount:       b.Breakdown.TaxAmount,
		FinalTotal:      b.Breakdown.FinalTotal,
		ContactRequired: b.Breakdown.ContactRequired,
		PaymentIntentID: b.PaymentIntentID,
		PaidAt:          b.PaidAt,
		CreatedAt:       b.CreatedAt,
		UpdatedAt:       b.UpdatedAt,
	}
}

func decodeBookingDocument(snapshot *firestore.DocumentSnapshot) (domain.Booking, error) {
	var doc bookingDocument
	if err := snapshot.DataTo(&doc); err != nil {
		return domain.Booking{}, fmt.Errorf("decode booking %s: %w", snapshot.Ref.ID, err)
	}
	return domain.Booking{
		ID:              snapshot.Ref.ID,
		Status:          domain.BookingStatus(doc.Status),
		Name:            doc.Name,
		Email:           doc.Email,
		Phone:           doc.Phone,
		PropertyAddress: doc.PropertyAddress,
		Notes:           doc.Notes,
		Locale:          doc.Locale,
		PackageID:       doc.PackageID,
		AddOnIDs:        doc.AddOnIDs,
		StagingCount:    doc.StagingCount,
		PropertySize:    doc.PropertySize,
		PartnerCode:     doc.PartnerCode,
		PreferredDate:   doc.PreferredDate,
		PreferredTime:   doc.PreferredTime,
		Breakdown: domain.PriceBreakdown{
			PackagePrice:    doc.PackagePrice,
			AddOnsPrice:     doc.AddOnsPrice,
			Subtotal:        doc.Subtotal,
			TaxRate:         doc.TaxRate,
			TaxAmount:       doc.TaxAmount,
			FinalTotal:      doc.FinalTotal,
			ContactRequired: doc.ContactRequired,
		},
		PaymentIntentID: doc.PaymentIntentID,
		PaidAt:          doc.PaidAt,
		CreatedAt:       doc.CreatedAt,
		UpdatedAt:       doc.UpdatedAt,
	}, nil
}
