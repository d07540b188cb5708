package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	domain "github.com/northlens-media/api/internal/domain"
	"github.com/northlens-media/api/internal/repositories"
)

type stubRepositoryError struct {
	notFound    bool
	conflict    bool
	unavailable bool
}

func (e stubRepositoryError) Error() string {
	return fmt.Sprintf("repository error (notFound=%t conflict=%t unavailable=%t)", e.notFound, e.conflict, e.unavailable)
}

func (e stubRepositoryError) IsNotFound() bool    { return e.notFound }
func (e stubRepositoryError) IsConflict() bool    { return e.conflict }
func (e stubRepositoryError) IsUnavailable() bool { return e.unavailable }

type memoryCatalogRepo struct {
	mu        sync.Mutex
	catalog   domain.Catalog
	loadErr   error
	loadCount int
}

func (r *memoryCatalogRepo) Load(context.Context) (domain.Catalog, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.loadCount++
	if r.loadErr != nil {
		return domain.Catalog{}, r.loadErr
	}
	return r.catalog, nil
}

func (r *memoryCatalogRepo) UpsertPackage(_ context.Context, pkg domain.Package) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, existing := range r.catalog.Packages {
		if existing.ID == pkg.ID {
			r.catalog.Packages[i] = pkg
			return nil
		}
	}
	r.catalog.Packages = append(r.catalog.Packages, pkg)
	return nil
}

func (r *memoryCatalogRepo) DeletePackage(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, existing := range r.catalog.Packages {
		if existing.ID == id {
			r.catalog.Packages = append(r.catalog.Packages[:i], r.catalog.Packages[i+1:]...)
			return nil
		}
	}
	return stubRepositoryError{notFound: true}
}

func (r *memoryCatalogRepo) UpsertAddOn(_ context.Context, addon domain.AddOn) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, existing := range r.catalog.AddOns {
		if existing.ID == addon.ID {
			r.catalog.AddOns[i] = addon
			return nil
		}
	}
	r.catalog.AddOns = append(r.catalog.AddOns, addon)
	return nil
}

func (r *memoryCatalogRepo) DeleteAddOn(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, existing := range r.catalog.AddOns {
		if existing.ID == id {
			r.catalog.AddOns = append(r.catalog.AddOns[:i], r.catalog.AddOns[i+1:]...)
			return nil
		}
	}
	return stubRepositoryError{notFound: true}
}

func (r *memoryCatalogRepo) UpsertSizeBand(_ context.Context, band domain.PropertySizeConfig) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, existing := range r.catalog.SizeBands {
		if existing.ID == band.ID {
			r.catalog.SizeBands[i] = band
			return nil
		}
	}
	r.catalog.SizeBands = append(r.catalog.SizeBands, band)
	return nil
}

func (r *memoryCatalogRepo) DeleteSizeBand(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, existing := range r.catalog.SizeBands {
		if existing.ID == id {
			r.catalog.SizeBands = append(r.catalog.SizeBands[:i], r.catalog.SizeBands[i+1:]...)
			return nil
		}
	}
	return stubRepositoryError{notFound: true}
}

type memoryPartnerCodeRepo struct {
	mu    sync.Mutex
	codes map[string]domain.PartnerCode
}

func newMemoryPartnerCodeRepo(codes ...domain.PartnerCode) *memoryPartnerCodeRepo {
	repo := &memoryPartnerCodeRepo{codes: make(map[string]domain.PartnerCode)}
	for _, code := range codes {
		repo.codes[strings.ToUpper(code.Code)] = code
	}
	return repo
}

func (r *memoryPartnerCodeRepo) FindByCode(_ context.Context, code string) (domain.PartnerCode, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	found, ok := r.codes[strings.ToUpper(code)]
	if !ok {
		return domain.PartnerCode{}, stubRepositoryError{notFound: true}
	}
	return found, nil
}

func (r *memoryPartnerCodeRepo) List(context.Context, domain.Pagination) (domain.CursorPage[domain.PartnerCode], error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	page := domain.CursorPage[domain.PartnerCode]{}
	for _, code := range r.codes {
		page.Items = append(page.Items, code)
	}
	return page, nil
}

func (r *memoryPartnerCodeRepo) Upsert(_ context.Context, code domain.PartnerCode) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.codes[strings.ToUpper(code.Code)] = code
	return nil
}

func (r *memoryPartnerCodeRepo) Delete(_ context.Context, code string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.codes[strings.ToUpper(code)]; !ok {
		return stubRepositoryError{notFound: true}
	}
	delete(r.codes, strings.ToUpper(code))
	return nil
}

type memoryBookingRepo struct {
	mu       sync.Mutex
	bookings map[string]domain.Booking
	inserts  int
}

func newMemoryBookingRepo(bookings ...domain.Booking) *memoryBookingRepo {
	repo := &memoryBookingRepo{bookings: make(map[string]domain.Booking)}
	for _, booking := range bookings {
		repo.bookings[booking.ID] = booking
	}
	return repo
}

func (r *memoryBookingRepo) Insert(_ context.Context, booking domain.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.bookings[booking.ID]; exists {
		return stubRepositoryError{conflict: true}
	}
	r.bookings[booking.ID] = booking
	r.inserts++
	return nil
}

func (r *memoryBookingRepo) Update(_ context.Context, booking domain.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.bookings[booking.ID]; !exists {
		return stubRepositoryError{notFound: true}
	}
	r.bookings[booking.ID] = booking
	return nil
}

func (r *memoryBookingRepo) FindByID(_ context.Context, id string) (domain.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	booking, ok := r.bookings[id]
	if !ok {
		return domain.Booking{}, stubRepositoryError{notFound: true}
	}
	return booking, nil
}

func (r *memoryBookingRepo) FindByPaymentIntent(_ context.Context, intentID string) (domain.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, booking := range r.bookings {
		if booking.PaymentIntentID == intentID {
			return booking, nil
		}
	}
	return domain.Booking{}, stubRepositoryError{notFound: true}
}

func (r *memoryBookingRepo) List(_ context.Context, filter repositories.BookingListFilter) (domain.CursorPage[domain.Booking], error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	page := domain.CursorPage[domain.Booking]{}
	for _, booking := range r.bookings {
		if filter.Status != "" && booking.Status != filter.Status {
			continue
		}
		page.Items = append(page.Items, booking)
	}
	return page, nil
}

func (r *memoryBookingRepo) get(id string) (domain.Booking, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	booking, ok := r.bookings[id]
	return booking, ok
}

type memoryContactRepo struct {
	mu       sync.Mutex
	messages map[string]domain.ContactMessage
}

func newMemoryContactRepo() *memoryContactRepo {
	return &memoryContactRepo{messages: make(map[string]domain.ContactMessage)}
}

func (r *memoryContactRepo) Insert(_ context.Context, message domain.ContactMessage) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages[message.ID] = message
	return nil
}

func (r *memoryContactRepo) MarkRead(_ context.Context, id string, _ time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	message, ok := r.messages[id]
	if !ok {
		return stubRepositoryError{notFound: true}
	}
	message.Read = true
	r.messages[id] = message
	return nil
}

func (r *memoryContactRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.messages[id]; !ok {
		return stubRepositoryError{notFound: true}
	}
	delete(r.messages, id)
	return nil
}

func (r *memoryContactRepo) List(context.Context, domain.Pagination) (domain.CursorPage[domain.ContactMessage], error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	page := domain.CursorPage[domain.ContactMessage]{}
	for _, message := range r.messages {
		page.Items = append(page.Items, message)
	}
	return page, nil
}

type capturePublisher struct {
	mu       sync.Mutex
	messages []NotificationMessage
	err      error
}

func (p *capturePublisher) PublishNotification(_ context.Context, message NotificationMessage) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return "", p.err
	}
	p.messages = append(p.messages, message)
	return fmt.Sprintf("job-%d", len(p.messages)), nil
}

func (p *capturePublisher) published() []NotificationMessage {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]NotificationMessage, len(p.messages))
	copy(out, p.messages)
	return out
}

type stubRecaptcha struct {
	err    error
	tokens []string
}

func (s *stubRecaptcha) Verify(_ context.Context, token string, _ string) error {
	s.tokens = append(s.tokens, token)
	return s.err
}

func mustCatalogService(t interface {
	Helper()
	Fatalf(format string, args ...any)
}, repo repositories.CatalogRepository, clock func() time.Time) CatalogService {
	t.Helper()
	svc, err := NewCatalogService(CatalogServiceDeps{Repository: repo, Clock: clock})
	if err != nil {
		t.Fatalf("new catalog service: %v", err)
	}
	return svc
}

func mustPartnerCodeService(t interface {
	Helper()
	Fatalf(format string, args ...any)
}, repo repositories.PartnerCodeRepository, clock func() time.Time) PartnerCodeService {
	t.Helper()
	svc, err := NewPartnerCodeService(PartnerCodeServiceDeps{Repository: repo, Clock: clock})
	if err != nil {
		t.Fatalf("new partner code service: %v", err)
	}
	return svc
}
