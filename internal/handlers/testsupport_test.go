package handlers

import (
	"context"
	"time"

	domain "github.com/northlens-media/api/internal/domain"
	"github.com/northlens-media/api/internal/repositories"
	"github.com/northlens-media/api/internal/services"
)

type stubCatalogService struct {
	catalog        domain.Catalog
	catalogErr     error
	upsertPackage  func(ctx context.Context, pkg domain.Package) (domain.Package, error)
	deletePackage  func(ctx context.Context, id string) error
	upsertAddOn    func(ctx context.Context, addon domain.AddOn) (domain.AddOn, error)
	deleteAddOn    func(ctx context.Context, id string) error
	upsertSizeBand func(ctx context.Context, band domain.PropertySizeConfig) (domain.PropertySizeConfig, error)
	deleteSizeBand func(ctx context.Context, id string) error
}

func (s *stubCatalogService) Catalog(context.Context) (domain.Catalog, error) {
	return s.catalog, s.catalogErr
}

func (s *stubCatalogService) UpsertPackage(ctx context.Context, pkg domain.Package) (domain.Package, error) {
	if s.upsertPackage == nil {
		return pkg, nil
	}
	return s.upsertPackage(ctx, pkg)
}

func (s *stubCatalogService) DeletePackage(ctx context.Context, id string) error {
	if s.deletePackage == nil {
		return nil
	}
	return s.deletePackage(ctx, id)
}

func (s *stubCatalogService) UpsertAddOn(ctx context.Context, addon domain.AddOn) (domain.AddOn, error) {
	if s.upsertAddOn == nil {
		return addon, nil
	}
	return s.upsertAddOn(ctx, addon)
}

func (s *stubCatalogService) DeleteAddOn(ctx context.Context, id string) error {
	if s.deleteAddOn == nil {
		return nil
	}
	return s.deleteAddOn(ctx, id)
}

func (s *stubCatalogService) UpsertSizeBand(ctx context.Context, band domain.PropertySizeConfig) (domain.PropertySizeConfig, error) {
	if s.upsertSizeBand == nil {
		return band, nil
	}
	return s.upsertSizeBand(ctx, band)
}

func (s *stubCatalogService) DeleteSizeBand(ctx context.Context, id string) error {
	if s.deleteSizeBand == nil {
		return nil
	}
	return s.deleteSizeBand(ctx, id)
}

var _ services.CatalogService = (*stubCatalogService)(nil)

type stubPartnerCodeService struct {
	resolveFunc func(ctx context.Context, code string) (*domain.PartnerCode, error)
	listFunc    func(ctx context.Context, pager domain.Pagination) (domain.CursorPage[domain.PartnerCode], error)
	upsertFunc  func(ctx context.Context, code domain.PartnerCode) (domain.PartnerCode, error)
	deleteFunc  func(ctx context.Context, code string) error
}

func (s *stubPartnerCodeService) Resolve(ctx context.Context, code string) (*domain.PartnerCode, error) {
	if s.resolveFunc == nil {
		return nil, nil
	}
	return s.resolveFunc(ctx, code)
}

func (s *stubPartnerCodeService) List(ctx context.Context, pager domain.Pagination) (domain.CursorPage[domain.PartnerCode], error) {
	if s.listFunc == nil {
		return domain.CursorPage[domain.PartnerCode]{}, nil
	}
	return s.listFunc(ctx, pager)
}

func (s *stubPartnerCodeService) Upsert(ctx context.Context, code domain.PartnerCode) (domain.PartnerCode, error) {
	if s.upsertFunc == nil {
		return code, nil
	}
	return s.upsertFunc(ctx, code)
}

func (s *stubPartnerCodeService) Delete(ctx context.Context, code string) error {
	if s.deleteFunc == nil {
		return nil
	}
	return s.deleteFunc(ctx, code)
}

var _ services.PartnerCodeService = (*stubPartnerCodeService)(nil)

type stubQuoteService struct {
	priceFunc func(ctx context.Context, req services.QuoteRequest) (services.Quote, error)
}

func (s *stubQuoteService) Price(ctx context.Context, req services.QuoteRequest) (services.Quote, error) {
	if s.priceFunc == nil {
		return services.Quote{}, nil
	}
	return s.priceFunc(ctx, req)
}

var _ services.QuoteService = (*stubQuoteService)(nil)

type stubBookingService struct {
	submitFunc   func(ctx context.Context, submission services.BookingSubmission) (domain.Booking, error)
	lookupFunc   func(ctx context.Context, bookingID, email string) (domain.Booking, error)
	getFunc      func(ctx context.Context, bookingID string) (domain.Booking, error)
	listFunc     func(ctx context.Context, filter repositories.BookingListFilter) (domain.CursorPage[domain.Booking], error)
	updateFunc   func(ctx context.Context, cmd services.BookingUpdateCommand) (domain.Booking, error)
	markPaidFunc func(ctx context.Context, intentID string, amountCents int64, paidAt time.Time) (domain.Booking, error)
}

func (s *stubBookingService) Submit(ctx context.Context, submission services.BookingSubmission) (domain.Booking, error) {
	if s.submitFunc == nil {
		return domain.Booking{}, nil
	}
	return s.submitFunc(ctx, submission)
}

func (s *stubBookingService) Lookup(ctx context.Context, bookingID, email string) (domain.Booking, error) {
	if s.lookupFunc == nil {
		return domain.Booking{}, services.ErrBookingNotFound
	}
	return s.lookupFunc(ctx, bookingID, email)
}

func (s *stubBookingService) Get(ctx context.Context, bookingID string) (domain.Booking, error) {
	if s.getFunc == nil {
		return domain.Booking{}, services.ErrBookingNotFound
	}
	return s.getFunc(ctx, bookingID)
}

func (s *stubBookingService) List(ctx context.Context, filter repositories.BookingListFilter) (domain.CursorPage[domain.Booking], error) {
	if s.listFunc == nil {
		return domain.CursorPage[domain.Booking]{}, nil
	}
	return s.listFunc(ctx, filter)
}

func (s *stubBookingService) Update(ctx context.Context, cmd services.BookingUpdateCommand) (domain.Booking, error) {
	if s.updateFunc == nil {
		return domain.Booking{}, services.ErrBookingNotFound
	}
	return s.updateFunc(ctx, cmd)
}

func (s *stubBookingService) MarkPaid(ctx context.Context, intentID string, amountCents int64, paidAt time.Time) (domain.Booking, error) {
	if s.markPaidFunc == nil {
		return domain.Booking{}, services.ErrBookingNotFound
	}
	return s.markPaidFunc(ctx, intentID, amountCents, paidAt)
}

var _ services.BookingService = (*stubBookingService)(nil)

type stubPaymentService struct {
	createFunc func(ctx context.Context, cmd services.PaymentIntentCommand) (services.PaymentIntentResult, error)
	refundFunc func(ctx context.Context, cmd services.RefundCommand) (domain.Booking, error)
}

func (s *stubPaymentService) CreateIntent(ctx context.Context, cmd services.PaymentIntentCommand) (services.PaymentIntentResult, error) {
	if s.createFunc == nil {
		return services.PaymentIntentResult{}, nil
	}
	return s.createFunc(ctx, cmd)
}

func (s *stubPaymentService) Refund(ctx context.Context, cmd services.RefundCommand) (domain.Booking, error) {
	if s.refundFunc == nil {
		return domain.Booking{}, services.ErrBookingNotFound
	}
	return s.refundFunc(ctx, cmd)
}

var _ services.PaymentService = (*stubPaymentService)(nil)

type stubContactService struct {
	submitFunc   func(ctx context.Context, submission services.ContactSubmission) (domain.ContactMessage, error)
	listFunc     func(ctx context.Context, pager domain.Pagination) (domain.CursorPage[domain.ContactMessage], error)
	markReadFunc func(ctx context.Context, id string) error
	deleteFunc   func(ctx context.Context, id string) error
}

func (s *stubContactService) Submit(ctx context.Context, submission services.ContactSubmission) (domain.ContactMessage, error) {
	if s.submitFunc == nil {
		return domain.ContactMessage{}, nil
	}
	return s.submitFunc(ctx, submission)
}

func (s *stubContactService) List(ctx context.Context, pager domain.Pagination) (domain.CursorPage[domain.ContactMessage], error) {
	if s.listFunc == nil {
		return domain.CursorPage[domain.ContactMessage]{}, nil
	}
	return s.listFunc(ctx, pager)
}

func (s *stubContactService) MarkRead(ctx context.Context, id string) error {
	if s.markReadFunc == nil {
		return nil
	}
	return s.markReadFunc(ctx, id)
}

func (s *stubContactService) Delete(ctx context.Context, id string) error {
	if s.deleteFunc == nil {
		return nil
	}
	return s.deleteFunc(ctx, id)
}

var _ services.ContactService = (*stubContactService)(nil)

// allowAllLimiter disables rate limiting for handler tests that exercise
// behaviour unrelated to abuse protection.
type allowAllLimiter struct{}

func (allowAllLimiter) Allow(string) bool { return true }

// denyAllLimiter simulates an exhausted rate limit.
type denyAllLimiter struct{}

func (denyAllLimiter) Allow(string) bool { return false }
