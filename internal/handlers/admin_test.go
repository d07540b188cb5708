package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	domain "github.com/northlens-media/api/internal/domain"
	"github.com/northlens-media/api/internal/repositories"
	"github.com/northlens-media/api/internal/services"
)

func newAdminRouter(h *AdminHandlers) http.Handler {
	return NewRouter(WithAdminRoutes(h.Routes))
}

func TestAdminHandlersUpsertPackage(t *testing.T) {
	var captured domain.Package
	catalog := &stubCatalogService{
		upsertPackage: func(_ context.Context, pkg domain.Package) (domain.Package, error) {
			captured = pkg
			pkg.CreatedAt = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
			return pkg, nil
		},
	}
	handler := NewAdminHandlers(catalog, &stubPartnerCodeService{}, &stubBookingService{}, &stubPaymentService{}, &stubContactService{})
	router := newAdminRouter(handler)

	body := strings.NewReader(`{"name":"Essential","base_price":299,"category":"listing","features":["photos"],"sort_order":1,"published":true}`)
	req := httptest.NewRequest(http.MethodPut, "/api/v1/admin/catalog/packages/essential", body)
	resp := httptest.NewRecorder()

	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", resp.Code, resp.Body.String())
	}
	if captured.ID != "essential" || captured.BasePrice != 299 || !captured.Published {
		t.Fatalf("unexpected upserted package %+v", captured)
	}
	if captured.Category != domain.CategoryListing {
		t.Fatalf("expected listing category, got %s", captured.Category)
	}
}

func TestAdminHandlersUpsertPackageInvalid(t *testing.T) {
	catalog := &stubCatalogService{
		upsertPackage: func(context.Context, domain.Package) (domain.Package, error) {
			return domain.Package{}, services.ErrCatalogEntryInvalid
		},
	}
	handler := NewAdminHandlers(catalog, &stubPartnerCodeService{}, &stubBookingService{}, &stubPaymentService{}, &stubContactService{})
	router := newAdminRouter(handler)

	req := httptest.NewRequest(http.MethodPut, "/api/v1/admin/catalog/packages/essential", strings.NewReader(`{"base_price":-1}`))
	resp := httptest.NewRecorder()

	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", resp.Code)
	}
}

func TestAdminHandlersUpsertPartnerCode(t *testing.T) {
	var captured domain.PartnerCode
	codes := &stubPartnerCodeService{
		upsertFunc: func(_ context.Context, code domain.PartnerCode) (domain.PartnerCode, error) {
			captured = code
			code.Code = "ROYAL20"
			return code, nil
		},
	}
	handler := NewAdminHandlers(&stubCatalogService{}, codes, &stubBookingService{}, &stubPaymentService{}, &stubContactService{})
	router := newAdminRouter(handler)

	body := strings.NewReader(`{
		"partner_name": "Royal LePage West",
		"package_discount_percent": 20,
		"addon_discount_percent": 10,
		"active": true,
		"starts_at": "2026-01-01T00:00:00Z",
		"ends_at": "2026-12-31T23:59:59Z"
	}`)
	req := httptest.NewRequest(http.MethodPut, "/api/v1/admin/partner-codes/royal20", body)
	resp := httptest.NewRecorder()

	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", resp.Code, resp.Body.String())
	}
	if captured.Code != "royal20" || captured.PackageDiscountPercent != 20 {
		t.Fatalf("unexpected upserted code %+v", captured)
	}
	if captured.StartsAt != time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC) {
		t.Fatalf("expected parsed starts_at, got %v", captured.StartsAt)
	}
}

func TestAdminHandlersUpsertPartnerCodeBadTimestamp(t *testing.T) {
	handler := NewAdminHandlers(&stubCatalogService{}, &stubPartnerCodeService{}, &stubBookingService{}, &stubPaymentService{}, &stubContactService{})
	router := newAdminRouter(handler)

	req := httptest.NewRequest(http.MethodPut, "/api/v1/admin/partner-codes/royal20", strings.NewReader(`{"starts_at":"next week"}`))
	resp := httptest.NewRecorder()

	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", resp.Code)
	}
}

func TestAdminHandlersListBookings(t *testing.T) {
	var captured repositories.BookingListFilter
	bookings := &stubBookingService{
		listFunc: func(_ context.Context, filter repositories.BookingListFilter) (domain.CursorPage[domain.Booking], error) {
			captured = filter
			return domain.CursorPage[domain.Booking]{
				Items:         []domain.Booking{{ID: "bk_1", Status: domain.BookingPaid}},
				NextPageToken: "tok_next",
			}, nil
		},
	}
	handler := NewAdminHandlers(&stubCatalogService{}, &stubPartnerCodeService{}, bookings, &stubPaymentService{}, &stubContactService{})
	router := newAdminRouter(handler)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/bookings/?status=paid&package_id=essential&from=2026-01-01T00:00:00Z&pageSize=10", nil)
	resp := httptest.NewRecorder()

	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", resp.Code, resp.Body.String())
	}
	if captured.Status != domain.BookingPaid || captured.PackageID != "essential" {
		t.Fatalf("unexpected filter %+v", captured)
	}
	if captured.From != time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC) {
		t.Fatalf("expected parsed from bound, got %v", captured.From)
	}
	if captured.Pager.PageSize != 10 {
		t.Fatalf("expected page size 10, got %d", captured.Pager.PageSize)
	}

	var body struct {
		Bookings      []bookingPayload `json:"bookings"`
		NextPageToken string           `json:"next_page_token"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(body.Bookings) != 1 || body.Bookings[0].ID != "bk_1" {
		t.Fatalf("unexpected bookings payload %+v", body.Bookings)
	}
	if body.NextPageToken != "tok_next" {
		t.Fatalf("expected continuation token, got %q", body.NextPageToken)
	}
}

func TestAdminHandlersUpdateBookingTransition(t *testing.T) {
	var captured services.BookingUpdateCommand
	bookings := &stubBookingService{
		updateFunc: func(_ context.Context, cmd services.BookingUpdateCommand) (domain.Booking, error) {
			captured = cmd
			return domain.Booking{ID: cmd.BookingID, Status: cmd.Status}, nil
		},
	}
	handler := NewAdminHandlers(&stubCatalogService{}, &stubPartnerCodeService{}, bookings, &stubPaymentService{}, &stubContactService{})
	router := newAdminRouter(handler)

	body := strings.NewReader(`{"status":"confirmed","notes":"call before shoot"}`)
	req := httptest.NewRequest(http.MethodPatch, "/api/v1/admin/bookings/bk_1", body)
	resp := httptest.NewRecorder()

	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", resp.Code, resp.Body.String())
	}
	if captured.BookingID != "bk_1" || captured.Status != domain.BookingConfirmed {
		t.Fatalf("unexpected command %+v", captured)
	}
	if captured.Notes == nil || *captured.Notes != "call before shoot" {
		t.Fatalf("expected notes forwarded, got %v", captured.Notes)
	}
}

func TestAdminHandlersUpdateBookingInvalidTransition(t *testing.T) {
	bookings := &stubBookingService{
		updateFunc: func(context.Context, services.BookingUpdateCommand) (domain.Booking, error) {
			return domain.Booking{}, services.ErrBookingStatusInvalid
		},
	}
	handler := NewAdminHandlers(&stubCatalogService{}, &stubPartnerCodeService{}, bookings, &stubPaymentService{}, &stubContactService{})
	router := newAdminRouter(handler)

	req := httptest.NewRequest(http.MethodPatch, "/api/v1/admin/bookings/bk_1", strings.NewReader(`{"status":"paid"}`))
	resp := httptest.NewRecorder()

	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusConflict {
		t.Fatalf("expected status 409, got %d", resp.Code)
	}
}

func TestAdminHandlersRefundBooking(t *testing.T) {
	var captured services.RefundCommand
	payments := &stubPaymentService{
		refundFunc: func(_ context.Context, cmd services.RefundCommand) (domain.Booking, error) {
			captured = cmd
			return domain.Booking{ID: cmd.BookingID, Status: domain.BookingCancelled}, nil
		},
	}
	handler := NewAdminHandlers(&stubCatalogService{}, &stubPartnerCodeService{}, &stubBookingService{}, payments, &stubContactService{})
	router := newAdminRouter(handler)

	body := strings.NewReader(`{"reason":"client moved listing"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/bookings/bk_1/refund", body)
	resp := httptest.NewRecorder()

	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", resp.Code, resp.Body.String())
	}
	if captured.BookingID != "bk_1" || captured.Reason != "client moved listing" {
		t.Fatalf("unexpected refund command %+v", captured)
	}

	var payload bookingPayload
	if err := json.Unmarshal(resp.Body.Bytes(), &payload); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if payload.Status != string(domain.BookingCancelled) {
		t.Fatalf("expected cancelled, got %s", payload.Status)
	}
}

func TestAdminHandlersRefundNotPaid(t *testing.T) {
	payments := &stubPaymentService{
		refundFunc: func(context.Context, services.RefundCommand) (domain.Booking, error) {
			return domain.Booking{}, services.ErrBookingStatusInvalid
		},
	}
	handler := NewAdminHandlers(&stubCatalogService{}, &stubPartnerCodeService{}, &stubBookingService{}, payments, &stubContactService{})
	router := newAdminRouter(handler)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/bookings/bk_1/refund", strings.NewReader(`{}`))
	resp := httptest.NewRecorder()

	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusConflict {
		t.Fatalf("expected status 409, got %d", resp.Code)
	}
}

func TestAdminHandlersContactInbox(t *testing.T) {
	now := time.Date(2026, 2, 1, 9, 30, 0, 0, time.UTC)
	contact := &stubContactService{
		listFunc: func(_ context.Context, pager domain.Pagination) (domain.CursorPage[domain.ContactMessage], error) {
			return domain.CursorPage[domain.ContactMessage]{
				Items: []domain.ContactMessage{
					{ID: "msg_1", Name: "Dana", Email: "dana@example.com", Message: "Hello", CreatedAt: now},
				},
			}, nil
		},
	}
	handler := NewAdminHandlers(&stubCatalogService{}, &stubPartnerCodeService{}, &stubBookingService{}, &stubPaymentService{}, contact)
	router := newAdminRouter(handler)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/contact-messages/", nil)
	resp := httptest.NewRecorder()

	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", resp.Code, resp.Body.String())
	}

	var body struct {
		Messages []contactMessagePayload `json:"messages"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(body.Messages) != 1 || body.Messages[0].ID != "msg_1" {
		t.Fatalf("unexpected messages payload %+v", body.Messages)
	}
}

func TestAdminHandlersMarkContactMessageReadNotFound(t *testing.T) {
	contact := &stubContactService{
		markReadFunc: func(context.Context, string) error {
			return services.ErrMessageNotFound
		},
	}
	handler := NewAdminHandlers(&stubCatalogService{}, &stubPartnerCodeService{}, &stubBookingService{}, &stubPaymentService{}, contact)
	router := newAdminRouter(handler)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/contact-messages/msg_missing/read", nil)
	resp := httptest.NewRecorder()

	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", resp.Code)
	}
}

func TestAdminHandlersDeletePartnerCodeNotFound(t *testing.T) {
	codes := &stubPartnerCodeService{
		deleteFunc: func(context.Context, string) error {
			return services.ErrPartnerCodeNotFound
		},
	}
	handler := NewAdminHandlers(&stubCatalogService{}, codes, &stubBookingService{}, &stubPaymentService{}, &stubContactService{})
	router := newAdminRouter(handler)

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/admin/partner-codes/GHOST", nil)
	resp := httptest.NewRecorder()

	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", resp.Code)
	}
}
