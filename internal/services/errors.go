package services

import "errors"

var (
	// ErrCatalogUnavailable signals the catalog store could not be read and no
	// fallback applies.
	ErrCatalogUnavailable = errors.New("catalog: store unavailable")
	// ErrCatalogEntryInvalid signals an admin upsert failed validation.
	ErrCatalogEntryInvalid = errors.New("catalog: invalid entry")
	// ErrPackageNotFound signals an unknown package id in a submission.
	ErrPackageNotFound = errors.New("catalog: package not found")

	// ErrPartnerCodeInvalid signals an admin upsert with out-of-range discounts.
	ErrPartnerCodeInvalid = errors.New("partner code: invalid definition")
	// ErrPartnerCodeNotFound signals a missing code on admin operations.
	ErrPartnerCodeNotFound = errors.New("partner code: not found")

	// ErrBookingInvalid signals a submission missing required fields.
	ErrBookingInvalid = errors.New("booking: invalid submission")
	// ErrBookingNotFound signals an unknown booking id.
	ErrBookingNotFound = errors.New("booking: not found")
	// ErrBookingStatusInvalid signals a disallowed status transition.
	ErrBookingStatusInvalid = errors.New("booking: invalid status transition")
	// ErrRecaptchaFailed signals the verification service rejected the token.
	ErrRecaptchaFailed = errors.New("recaptcha verification failed")

	// ErrPaymentAmountTooSmall rejects charges under the processor minimum.
	ErrPaymentAmountTooSmall = errors.New("payment: amount below processor minimum")
	// ErrPaymentAmountTooLarge rejects charges over the processor maximum.
	ErrPaymentAmountTooLarge = errors.New("payment: amount above processor maximum")
	// ErrPaymentAmountMismatch signals a webhook amount that does not match the
	// server-computed total for the booking.
	ErrPaymentAmountMismatch = errors.New("payment: amount mismatch")

	// ErrContactInvalid signals a contact submission missing required fields.
	ErrContactInvalid = errors.New("contact: invalid submission")
	// ErrMessageNotFound signals an unknown contact message id.
	ErrMessageNotFound = errors.New("contact: message not found")
)
