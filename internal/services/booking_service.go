package services

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"github.com/oklog/ulid/v2"
	"golang.org/x/text/language"

	domain "github.com/northlens-media/api/internal/domain"
	"github.com/northlens-media/api/internal/repositories"
)

const (
	bookingIDPrefix = "bk_"

	notificationBookingReceived  = "booking.received"
	notificationBookingConfirmed = "booking.confirmed"
	notificationBookingPaid      = "booking.paid"
	notificationBookingCancelled = "booking.cancelled"
)

// bookingStatusTransitions lists the admin-reachable states from each status.
// Paid is only entered through MarkPaid so a manual edit cannot fabricate a
// payment.
var bookingStatusTransitions = map[domain.BookingStatus][]domain.BookingStatus{
	domain.BookingPending:   {domain.BookingConfirmed, domain.BookingCancelled},
	domain.BookingConfirmed: {domain.BookingCompleted, domain.BookingCancelled},
	domain.BookingPaid:      {domain.BookingCompleted, domain.BookingCancelled},
	domain.BookingCompleted: {},
	domain.BookingCancelled: {},
}

var supportedLocales = language.NewMatcher([]language.Tag{
	language.English, // default
	language.French,
})

// BookingServiceDeps bundles collaborators required to construct the booking service.
type BookingServiceDeps struct {
	Bookings      repositories.BookingRepository
	Quotes        QuoteService
	Recaptcha     RecaptchaVerifier
	Notifications NotificationPublisher
	Clock         func() time.Time
	IDGenerator   func() string
	Logger        Logger
}

type bookingService struct {
	bookings      repositories.BookingRepository
	quotes        QuoteService
	recaptcha     RecaptchaVerifier
	notifications NotificationPublisher
	sanitizer     *bluemonday.Policy
	clock         func() time.Time
	newID         func() string
	logger        Logger
}

// NewBookingService wires dependencies into a concrete BookingService implementation.
func NewBookingService(deps BookingServiceDeps) (BookingService, error) {
	if deps.Bookings == nil {
		return nil, errors.New("booking service: booking repository is required")
	}
	if deps.Quotes == nil {
		return nil, errors.New("booking service: quote service is required")
	}

	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	idGen := deps.IDGenerator
	if idGen == nil {
		idGen = func() string {
			return bookingIDPrefix + ulid.Make().String()
		}
	}
	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}

	return &bookingService{
		bookings:      deps.Bookings,
		quotes:        deps.Quotes,
		recaptcha:     deps.Recaptcha,
		notifications: deps.Notifications,
		sanitizer:     bluemonday.StrictPolicy(),
		clock: func() time.Time {
			return clock().UTC()
		},
		newID:  idGen,
		logger: logger,
	}, nil
}

// Submit validates a public booking-wizard submission, prices it server-side,
// persists the booking with its frozen breakdown, and enqueues the
// acknowledgement email.
func (s *bookingService) Submit(ctx context.Context, submission BookingSubmission) (domain.Booking, error) {
	name := strings.TrimSpace(submission.Name)
	email := strings.ToLower(strings.TrimSpace(submission.Email))
	if name == "" {
		return domain.Booking{}, fmt.Errorf("%w: name is required", ErrBookingInvalid)
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return domain.Booking{}, fmt.Errorf("%w: a valid email is required", ErrBookingInvalid)
	}
	if strings.TrimSpace(submission.PackageID) == "" && len(submission.AddOnIDs) == 0 {
		return domain.Booking{}, fmt.Errorf("%w: at least one package or add-on must be selected", ErrBookingInvalid)
	}

	if s.recaptcha != nil {
		if err := s.recaptcha.Verify(ctx, submission.RecaptchaToken, ""); err != nil {
			s.logger(ctx, "booking.recaptcha.rejected", map[string]any{"email": email})
			return domain.Booking{}, ErrRecaptchaFailed
		}
	}

	quote, err := s.quotes.Price(ctx, QuoteRequest{
		PackageID:    submission.PackageID,
		AddOnIDs:     submission.AddOnIDs,
		PropertySize: submission.PropertySize,
		PartnerCode:  submission.PartnerCode,
	})
	if err != nil {
		return domain.Booking{}, err
	}

	selections := domain.NormalizeSelections(submission.AddOnIDs)
	now := s.clock()
	booking := domain.Booking{
		ID:              s.newID(),
		Status:          domain.BookingPending,
		Name:            name,
		Email:           email,
		Phone:           strings.TrimSpace(submission.Phone),
		PropertyAddress: strings.TrimSpace(s.sanitizer.Sanitize(submission.PropertyAddress)),
		Notes:           strings.TrimSpace(s.sanitizer.Sanitize(submission.Notes)),
		Locale:          matchLocale(submission.Locale),
		PackageID:       quote.PackageID,
		AddOnIDs:        domain.SelectionIDs(selections),
		StagingCount:    domain.StagingCount(selections),
		PropertySize:    strings.TrimSpace(submission.PropertySize),
		PartnerCode:     quote.PartnerCode,
		PreferredDate:   submission.PreferredDate,
		PreferredTime:   strings.TrimSpace(submission.PreferredTime),
		Breakdown:       quote.Breakdown,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := s.bookings.Insert(ctx, booking); err != nil {
		return domain.Booking{}, err
	}

	s.logger(ctx, "booking.submitted", map[string]any{
		"bookingId":       booking.ID,
		"packageId":       booking.PackageID,
		"contactRequired": booking.Breakdown.ContactRequired,
	})
	s.publishNotification(ctx, notificationBookingReceived, booking)
	return booking, nil
}

// Lookup fetches a booking by id, requiring the submitter's email as a shared
// secret so the public status endpoint cannot be enumerated.
func (s *bookingService) Lookup(ctx context.Context, bookingID string, email string) (domain.Booking, error) {
	id := strings.TrimSpace(bookingID)
	if id == "" {
		return domain.Booking{}, fmt.Errorf("%w: booking id is required", ErrBookingInvalid)
	}

	booking, err := s.bookings.FindByID(ctx, id)
	if err != nil {
		return domain.Booking{}, s.mapRepositoryError(err)
	}
	if !strings.EqualFold(strings.TrimSpace(email), booking.Email) {
		return domain.Booking{}, ErrBookingNotFound
	}
	return booking, nil
}

func (s *bookingService) Get(ctx context.Context, bookingID string) (domain.Booking, error) {
	id := strings.TrimSpace(bookingID)
	if id == "" {
		return domain.Booking{}, fmt.Errorf("%w: booking id is required", ErrBookingInvalid)
	}
	booking, err := s.bookings.FindByID(ctx, id)
	if err != nil {
		return domain.Booking{}, s.mapRepositoryError(err)
	}
	return booking, nil
}

func (s *bookingService) List(ctx context.Context, filter repositories.BookingListFilter) (domain.CursorPage[domain.Booking], error) {
	return s.bookings.List(ctx, filter)
}

// Update applies an admin mutation, enforcing the status transition table.
func (s *bookingService) Update(ctx context.Context, cmd BookingUpdateCommand) (domain.Booking, error) {
	booking, err := s.bookings.FindByID(ctx, strings.TrimSpace(cmd.BookingID))
	if err != nil {
		return domain.Booking{}, s.mapRepositoryError(err)
	}

	previous := booking.Status
	if cmd.Status != "" && cmd.Status != booking.Status {
		if !transitionAllowed(booking.Status, cmd.Status) {
			return domain.Booking{}, fmt.Errorf("%w: %s -> %s", ErrBookingStatusInvalid, booking.Status, cmd.Status)
		}
		booking.Status = cmd.Status
	}
	if cmd.Notes != nil {
		booking.Notes = strings.TrimSpace(s.sanitizer.Sanitize(*cmd.Notes))
	}
	booking.UpdatedAt = s.clock()

	if err := s.bookings.Update(ctx, booking); err != nil {
		return domain.Booking{}, s.mapRepositoryError(err)
	}

	if booking.Status != previous {
		s.logger(ctx, "booking.status.changed", map[string]any{
			"bookingId": booking.ID,
			"from":      string(previous),
			"to":        string(booking.Status),
		})
		switch booking.Status {
		case domain.BookingConfirmed:
			s.publishNotification(ctx, notificationBookingConfirmed, booking)
		case domain.BookingCancelled:
			s.publishNotification(ctx, notificationBookingCancelled, booking)
		}
	}
	return booking, nil
}

// MarkPaid transitions the booking referenced by a succeeded payment intent.
// The settled amount must match the frozen breakdown exactly; a mismatch is
// surfaced for manual review instead of being accepted.
func (s *bookingService) MarkPaid(ctx context.Context, intentID string, amountCents int64, paidAt time.Time) (domain.Booking, error) {
	trimmed := strings.TrimSpace(intentID)
	if trimmed == "" {
		return domain.Booking{}, fmt.Errorf("%w: payment intent id is required", ErrBookingInvalid)
	}

	booking, err := s.bookings.FindByPaymentIntent(ctx, trimmed)
	if err != nil {
		return domain.Booking{}, s.mapRepositoryError(err)
	}
	if booking.Status == domain.BookingPaid {
		// Stripe retries webhook delivery; a repeat is not an error.
		return booking, nil
	}
	if expected := domain.ToCents(booking.Breakdown.FinalTotal); expected != amountCents {
		s.logger(ctx, "booking.payment.amount_mismatch", map[string]any{
			"bookingId": booking.ID,
			"expected":  expected,
			"received":  amountCents,
		})
		return domain.Booking{}, ErrPaymentAmountMismatch
	}

	booking.Status = domain.BookingPaid
	booking.PaidAt = paidAt.UTC()
	booking.UpdatedAt = s.clock()
	if err := s.bookings.Update(ctx, booking); err != nil {
		return domain.Booking{}, s.mapRepositoryError(err)
	}

	s.logger(ctx, "booking.paid", map[string]any{"bookingId": booking.ID, "amountCents": amountCents})
	s.publishNotification(ctx, notificationBookingPaid, booking)
	return booking, nil
}

// publishNotification enqueues an email job. Publish failures are logged and
// swallowed: the booking operation has already committed.
func (s *bookingService) publishNotification(ctx context.Context, kind string, booking domain.Booking) {
	if s.notifications == nil {
		return
	}
	message := NotificationMessage{
		Kind:      kind,
		Locale:    booking.Locale,
		Recipient: booking.Email,
		Data: map[string]string{
			"bookingId": booking.ID,
			"name":      booking.Name,
			"packageId": booking.PackageID,
			"total":     fmt.Sprintf("%.2f", booking.Breakdown.FinalTotal),
		},
	}
	if _, err := s.notifications.PublishNotification(ctx, message); err != nil {
		s.logger(ctx, "booking.notification.publish_failed", map[string]any{
			"bookingId": booking.ID,
			"kind":      kind,
			"error":     err.Error(),
		})
	}
}

func (s *bookingService) mapRepositoryError(err error) error {
	var repoErr repositories.RepositoryError
	if errors.As(err, &repoErr) && repoErr.IsNotFound() {
		return ErrBookingNotFound
	}
	return err
}

func transitionAllowed(from, to domain.BookingStatus) bool {
	for _, allowed := range bookingStatusTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// matchLocale resolves a client-supplied language tag against the locales the
// mailer has templates for, defaulting to English.
func matchLocale(tag string) string {
	trimmed := strings.ReplaceAll(strings.TrimSpace(tag), "_", "-")
	if trimmed == "" {
		return language.English.String()
	}
	parsed, err := language.Parse(trimmed)
	if err != nil {
		return language.English.String()
	}
	matched, _, _ := supportedLocales.Match(parsed)
	base, _ := matched.Base()
	return base.String()
}
