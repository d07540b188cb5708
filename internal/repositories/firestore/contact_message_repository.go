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
)

const contactMessageCollection = "contact_messages"

// ContactMessageRepository stores contact-form submissions.
type ContactMessageRepository struct {
	provider *pfirestore.Provider
}

// NewContactMessageRepository constructs a Firestore-backed message repository.
func NewContactMessageRepository(provider *pfirestore.Provider) (*ContactMessageRepository, error) {
	if provider == nil {
		return nil, errors.New("contact message repository requires firestore provider")
	}
	return &ContactMessageRepository{provider: provider}, nil
}

// Insert creates a message document.
func (r *ContactMessageRepository) Insert(ctx context.Context, message domain.ContactMessage) error {
	id := strings.TrimSpace(message.ID)
	if id == "" {
		return errors.New("contact message repository: message id is required")
	}
	client, err := r.provider.Client(ctx)
	if err != nil {
		return err
	}
	doc := contactMessageDocument{
		Name:      message.Name,
		Email:     message.Email,
		Phone:     message.Phone,
		Subject:   message.Subject,
		Message:   message.Message,
		Read:      message.Read,
		CreatedAt: message.CreatedAt,
	}
	_, err = client.Collection(contactMessageCollection).Doc(id).Create(ctx, doc)
	return pfirestore.WrapError("contactMessages.insert", err)
}

// MarkRead flags a message as read.
func (r *ContactMessageRepository) MarkRead(ctx context.Context, id string, readAt time.Time) error {
	trimmed := strings.TrimSpace(id)
	if trimmed == "" {
		return errors.New("contact message repository: message id is required")
	}
	client, err := r.provider.Client(ctx)
	if err != nil {
		return err
	}
	_, err = client.Collection(contactMessageCollection).Doc(trimmed).Update(ctx, []firestore.Update{
		{Path: "read", Value: true},
		{Path: "readAt", Value: readAt.UTC()},
	})
	return pfirestore.WrapError("contactMessages.markRead", err)
}

// Delete removes a message document.
func (r *ContactMessageRepository) Delete(ctx context.Context, id string) error {
	trimmed := strings.TrimSpace(id)
	if trimmed == "" {
		return errors.New("contact message repository: message id is required")
	}
	client, err := r.provider.Client(ctx)
	if err != nil {
		return err
	}
	_, err = client.Collection(contactMessageCollection).Doc(trimmed).Delete(ctx)
	return pfirestore.WrapError("contactMessages.delete", err)
}

// List returns messages newest first.
func (r *ContactMessageRepository) List(ctx context.Context, pager domain.Pagination) (domain.CursorPage[domain.ContactMessage], error) {
	client, err := r.provider.Client(ctx)
	if err != nil {
		return domain.CursorPage[domain.ContactMessage]{}, err
	}

	limit := pager.PageSize
	if limit < 0 {
		limit = 0
	}
	query := client.Collection(contactMessageCollection).
		OrderBy("createdAt", firestore.Desc).
		OrderBy(firestore.DocumentID, firestore.Desc)
	var fetchLimit int
	if limit > 0 {
		fetchLimit = limit + 1
		query = query.Limit(fetchLimit)
	}
	if token := strings.TrimSpace(pager.PageToken); token != "" {
		tokenTime, tokenID, err := decodeCursorToken(token)
		if err != nil {
			return domain.CursorPage[domain.ContactMessage]{}, fmt.Errorf("contactMessages.list: invalid page token: %w", err)
		}
		query = query.StartAfter(tokenTime, tokenID)
	}

	iter := query.Documents(ctx)
	defer iter.Stop()

	var messages []domain.ContactMessage
	for {
		snap, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return domain.CursorPage[domain.ContactMessage]{}, pfirestore.WrapError("contactMessages.list", err)
		}
		message, err := decodeContactMessageDocument(snap)
		if err != nil {
			return domain.CursorPage[domain.ContactMessage]{}, err
		}
		messages = append(messages, message)
	}

	nextToken := ""
	if limit > 0 && len(messages) == fetchLimit {
		last := messages[len(messages)-1]
		nextToken = encodeCursorToken(last.CreatedAt, last.ID)
		messages = messages[:len(messages)-1]
	}

	return domain.CursorPage[domain.ContactMessage]{Items: messages, NextPageToken: nextToken}, nil
}

type contactMessageDocument struct {
	Name      string    `firestore:"name"`
	Email     string    `firestore:"email"`
	Phone     string    `firestore:"phone"`
	Subject   string    `firestore:"subject"`
	Message   string    `firestore:"message"`
	Read      bool      `firestore:"read"`
	CreatedAt time.Time `firestore:"createdAt"`
}

func decodeContactMessageDocument(snapshot *firestore.DocumentSnapshot) (domain.ContactMessage, error) {
	var doc contactMessageDocument
	if err := snapshot.DataTo(&doc); err != nil {
		return domain.ContactMessage{}, fmt.Errorf("decode contact message %s: %w", snapshot.Ref.ID, err)
	}
	return domain.ContactMessage{
		ID:        snapshot.Ref.ID,
		Name:      doc.Name,
		Email:     doc.Email,
		Phone:     doc.Phone,
		Subject:   doc.Subject,
		Message:   doc.Message,
		Read:      doc.Read,
		CreatedAt: doc.CreatedAt,
	}, nil
}
