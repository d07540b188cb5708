package services

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
	"github.com/oklog/ulid/v2"

	domain "github.com/northlens-media/api/internal/domain"
	"github.com/northlens-media/api/internal/repositories"
)

const (
	contactMessageIDPrefix = "msg_"

	notificationContactReceived = "contact.received"

	maxContactMessageRunes = 5000
)

// ContactServiceDeps bundles collaborators required to construct the contact service.
type ContactServiceDeps struct {
	Messages      repositories.ContactMessageRepository
	Recaptcha     RecaptchaVerifier
	Notifications NotificationPublisher
	Clock         func() time.Time
	IDGenerator   func() string
	Logger        Logger
}

type contactService struct {
	messages      repositories.ContactMessageRepository
	recaptcha     RecaptchaVerifier
	notifications NotificationPublisher
	sanitizer     *bluemonday.Policy
	clock         func() time.Time
	newID         func() string
	logger        Logger
}

// NewContactService wires dependencies into a concrete ContactService implementation.
func NewContactService(deps ContactServiceDeps) (ContactService, error) {
	if deps.Messages == nil {
		return nil, errors.New("contact service: message repository is required")
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	idGen := deps.IDGenerator
	if idGen == nil {
		idGen = func() string {
			return contactMessageIDPrefix + ulid.Make().String()
		}
	}
	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}
	return &contactService{
		messages:      deps.Messages,
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

// Submit validates and stores a contact-form submission. Free-text fields are
// stripped of markup before persistence since admin tooling renders them.
func (s *contactService) Submit(ctx context.Context, submission ContactSubmission) (domain.ContactMessage, error) {
	name := s.sanitize(submission.Name)
	email := strings.ToLower(strings.TrimSpace(submission.Email))
	body := s.sanitize(submission.Message)

	if name == "" {
		return domain.ContactMessage{}, fmt.Errorf("%w: name is required", ErrContactInvalid)
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return domain.ContactMessage{}, fmt.Errorf("%w: a valid email is required", ErrContactInvalid)
	}
	if body == "" {
		return domain.ContactMessage{}, fmt.Errorf("%w: message is required", ErrContactInvalid)
	}
	if utf8.RuneCountInString(body) > maxContactMessageRunes {
		return domain.ContactMessage{}, fmt.Errorf("%w: message is too long", ErrContactInvalid)
	}

	if s.recaptcha != nil {
		if err := s.recaptcha.Verify(ctx, submission.RecaptchaToken, ""); err != nil {
			s.logger(ctx, "contact.recaptcha.rejected", map[string]any{"email": email})
			return domain.ContactMessage{}, ErrRecaptchaFailed
		}
	}

	message := domain.ContactMessage{
		ID:        s.newID(),
		Name:      name,
		Email:     email,
		Phone:     strings.TrimSpace(submission.Phone),
		Subject:   s.sanitize(submission.Subject),
		Message:   body,
		CreatedAt: s.clock(),
	}

	if err := s.messages.Insert(ctx, message); err != nil {
		return domain.ContactMessage{}, err
	}

	s.logger(ctx, "contact.submitted", map[string]any{"messageId": message.ID})
	s.notifyInbox(ctx, message)
	return message, nil
}

func (s *contactService) List(ctx context.Context, pager domain.Pagination) (domain.CursorPage[domain.ContactMessage], error) {
	return s.messages.List(ctx, pager)
}

func (s *contactService) MarkRead(ctx context.Context, id string) error {
	trimmed := strings.TrimSpace(id)
	if trimmed == "" {
		return fmt.Errorf("%w: message id is required", ErrContactInvalid)
	}
	return s.mapRepositoryError(s.messages.MarkRead(ctx, trimmed, s.clock()))
}

func (s *contactService) Delete(ctx context.Context, id string) error {
	trimmed := strings.TrimSpace(id)
	if trimmed == "" {
		return fmt.Errorf("%w: message id is required", ErrContactInvalid)
	}
	return s.mapRepositoryError(s.messages.Delete(ctx, trimmed))
}

// notifyInbox enqueues the studio-inbox alert. Failures are logged and
// swallowed because the message is already persisted.
func (s *contactService) notifyInbox(ctx context.Context, message domain.ContactMessage) {
	if s.notifications == nil {
		return
	}
	_, err := s.notifications.PublishNotification(ctx, NotificationMessage{
		Kind:    notificationContactReceived,
		Subject: message.Subject,
		Data: map[string]string{
			"messageId":  message.ID,
			"name":       message.Name,
			"replyEmail": message.Email,
		},
	})
	if err != nil {
		s.logger(ctx, "contact.notification.publish_failed", map[string]any{
			"messageId": message.ID,
			"error":     err.Error(),
		})
	}
}

func (s *contactService) sanitize(input string) string {
	return strings.TrimSpace(s.sanitizer.Sanitize(input))
}

func (s *contactService) mapRepositoryError(err error) error {
	var repoErr repositories.RepositoryError
	if errors.As(err, &repoErr) && repoErr.IsNotFound() {
		return ErrMessageNotFound
	}
	return err
}
