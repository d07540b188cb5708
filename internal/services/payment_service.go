package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	domain "github.com/northlens-media/api/internal/domain"
	"github.com/northlens-media/api/internal/payments"
	"github.com/northlens-media/api/internal/repositories"
)

const (
	paymentCurrency = "CAD"

	// Stripe rejects charges under 50 cents; anything above the cap is
	// assumed to be a pricing bug rather than a real booking.
	minChargeCents int64 = 50
	maxChargeCents int64 = 99_999_999
)

// PaymentProcessor abstracts the payments manager so tests can stub the PSP.
type PaymentProcessor interface {
	CreateIntent(ctx context.Context, paymentCtx payments.PaymentContext, req payments.IntentRequest) (payments.Intent, error)
	Refund(ctx context.Context, paymentCtx payments.PaymentContext, req payments.RefundRequest) (payments.PaymentDetails, error)
}

// PaymentServiceDeps bundles collaborators required to construct the payment service.
type PaymentServiceDeps struct {
	Bookings  repositories.BookingRepository
	Processor PaymentProcessor
	Clock     func() time.Time
	Logger    Logger
}

type paymentService struct {
	bookings  repositories.BookingRepository
	processor PaymentProcessor
	clock     func() time.Time
	logger    Logger
}

// NewPaymentService wires dependencies into a concrete PaymentService implementation.
func NewPaymentService(deps PaymentServiceDeps) (PaymentService, error) {
	if deps.Bookings == nil {
		return nil, errors.New("payment service: booking repository is required")
	}
	if deps.Processor == nil {
		return nil, errors.New("payment service: payment processor is required")
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}
	return &paymentService{
		bookings:  deps.Bookings,
		processor: deps.Processor,
		clock: func() time.Time {
			return clock().UTC()
		},
		logger: logger,
	}, nil
}

// CreateIntent authorizes a charge for the booking's frozen breakdown. The
// amount is taken from the stored server-computed total, never from the
// client. Repeat calls for the same booking reuse the booking-scoped
// idempotency key so Stripe returns the original intent.
func (s *paymentService) CreateIntent(ctx context.Context, cmd PaymentIntentCommand) (PaymentIntentResult, error) {
	id := strings.TrimSpace(cmd.BookingID)
	if id == "" {
		return PaymentIntentResult{}, fmt.Errorf("%w: booking id is required", ErrBookingInvalid)
	}

	booking, err := s.bookings.FindByID(ctx, id)
	if err != nil {
		var repoErr repositories.RepositoryError
		if errors.As(err, &repoErr) && repoErr.IsNotFound() {
			return PaymentIntentResult{}, ErrBookingNotFound
		}
		return PaymentIntentResult{}, err
	}

	switch booking.Status {
	case domain.BookingPending, domain.BookingConfirmed:
	default:
		return PaymentIntentResult{}, fmt.Errorf("%w: booking is %s", ErrBookingStatusInvalid, booking.Status)
	}
	if booking.Breakdown.ContactRequired {
		return PaymentIntentResult{}, domain.ErrPriceUnresolved
	}

	amount := domain.ToCents(booking.Breakdown.FinalTotal)
	if amount < minChargeCents {
		return PaymentIntentResult{}, ErrPaymentAmountTooSmall
	}
	if amount > maxChargeCents {
		return PaymentIntentResult{}, ErrPaymentAmountTooLarge
	}

	idempotencyKey := strings.TrimSpace(cmd.IdempotencyKey)
	if idempotencyKey == "" {
		idempotencyKey = "intent_" + booking.ID
	}

	intent, err := s.processor.CreateIntent(ctx, payments.PaymentContext{Currency: paymentCurrency}, payments.IntentRequest{
		Amount:         amount,
		Currency:       paymentCurrency,
		Description:    paymentDescription(booking),
		ReceiptEmail:   booking.Email,
		IdempotencyKey: idempotencyKey,
		Metadata: map[string]string{
			"bookingId": booking.ID,
			"packageId": booking.PackageID,
		},
	})
	if err != nil {
		return PaymentIntentResult{}, err
	}

	if booking.PaymentIntentID != intent.ID {
		booking.PaymentIntentID = intent.ID
		booking.UpdatedAt = s.clock()
		if err := s.bookings.Update(ctx, booking); err != nil {
			return PaymentIntentResult{}, err
		}
	}

	s.logger(ctx, "payment.intent.created", map[string]any{
		"bookingId":     booking.ID,
		"paymentIntent": intent.ID,
		"amountCents":   amount,
	})

	return PaymentIntentResult{
		IntentID:     intent.ID,
		ClientSecret: intent.ClientSecret,
		AmountCents:  amount,
		Currency:     paymentCurrency,
	}, nil
}

// Refund reverses the full charge on a paid booking and cancels it. The
// refund is keyed on the booking so PSP retries cannot double-refund.
func (s *paymentService) Refund(ctx context.Context, cmd RefundCommand) (domain.Booking, error) {
	id := strings.TrimSpace(cmd.BookingID)
	if id == "" {
		return domain.Booking{}, fmt.Errorf("%w: booking id is required", ErrBookingInvalid)
	}

	booking, err := s.bookings.FindByID(ctx, id)
	if err != nil {
		var repoErr repositories.RepositoryError
		if errors.As(err, &repoErr) && repoErr.IsNotFound() {
			return domain.Booking{}, ErrBookingNotFound
		}
		return domain.Booking{}, err
	}

	if booking.Status != domain.BookingPaid {
		return domain.Booking{}, fmt.Errorf("%w: booking is %s, only paid bookings can be refunded", ErrBookingStatusInvalid, booking.Status)
	}
	if booking.PaymentIntentID == "" {
		return domain.Booking{}, fmt.Errorf("%w: booking has no payment intent", ErrBookingStatusInvalid)
	}

	if _, err := s.processor.Refund(ctx, payments.PaymentContext{Currency: paymentCurrency}, payments.RefundRequest{
		IntentID:       booking.PaymentIntentID,
		Reason:         strings.TrimSpace(cmd.Reason),
		IdempotencyKey: "refund_" + booking.ID,
		Metadata: map[string]string{
			"bookingId": booking.ID,
		},
	}); err != nil {
		return domain.Booking{}, err
	}

	booking.Status = domain.BookingCancelled
	booking.UpdatedAt = s.clock()
	if err := s.bookings.Update(ctx, booking); err != nil {
		return domain.Booking{}, err
	}

	s.logger(ctx, "payment.refunded", map[string]any{
		"bookingId":     booking.ID,
		"paymentIntent": booking.PaymentIntentID,
	})
	return booking, nil
}

func paymentDescription(booking domain.Booking) string {
	if booking.PackageID != "" {
		return fmt.Sprintf("NorthLens booking %s (%s)", booking.ID, booking.PackageID)
	}
	return fmt.Sprintf("NorthLens booking %s", booking.ID)
}
