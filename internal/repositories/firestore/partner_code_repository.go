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

const partnerCodeCollection = "partner_codes"

// PartnerCodeRepository stores referral discount codes keyed by their
// normalised (upper-case) code.
type PartnerCodeRepository struct {
	provider *pfirestore.Provider
}

// NewPartnerCodeRepository constructs a Firestore-backed partner code repository.
func NewPartnerCodeRepository(provider *pfirestore.Provider) (*PartnerCodeRepository, error) {
	if provider == nil {
		return nil, errors.New("partner code repository requires firestore provider")
	}
	return &PartnerCodeRepository{provider: provider}, nil
}

// FindByCode performs the validation lookup for a code.
func (r *PartnerCodeRepository) FindByCode(ctx context.Context, code string) (domain.PartnerCode, error) {
	normalized := normalizePartnerCode(code)
	if normalized == "" {
		return domain.PartnerCode{}, errors.New("partner code repository: code is required")
	}
	client, err := r.provider.Client(ctx)
	if err != nil {
		return domain.PartnerCode{}, err
	}
	snap, err := client.Collection(partnerCodeCollection).Doc(normalized).Get(ctx)
	if err != nil {
		return domain.PartnerCode{}, pfirestore.WrapError("partnerCodes.findByCode", err)
	}
	return decodePartnerCodeDocument(snap)
}

// List returns codes ordered by creation time, newest first.
func (r *PartnerCodeRepository) List(ctx context.Context, pager domain.Pagination) (domain.CursorPage[domain.PartnerCode], error) {
	client, err := r.provider.Client(ctx)
	if err != nil {
		return domain.CursorPage[domain.PartnerCode]{}, err
	}

	limit := pager.PageSize
	if limit < 0 {
		limit = 0
	}

	query := client.Collection(partnerCodeCollection).
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
			return domain.CursorPage[domain.PartnerCode]{}, fmt.Errorf("partnerCodes.list: invalid page token: %w", err)
		}
		query = query.StartAfter(tokenTime, tokenID)
	}

	iter := query.Documents(ctx)
	defer iter.Stop()

	var codes []domain.PartnerCode
	for {
		snap, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return domain.CursorPage[domain.PartnerCode]{}, pfirestore.WrapError("partnerCodes.list", err)
		}
		code, err := decodePartnerCodeDocument(snap)
		if err != nil {
			return domain.CursorPage[domain.PartnerCode]{}, err
		}
		codes = append(codes, code)
	}

	nextToken := ""
	if limit > 0 && len(codes) == fetchLimit {
		last := codes[len(codes)-1]
		nextToken = encodeCursorToken(last.CreatedAt, last.Code)
		codes = codes[:len(codes)-1]
	}

	return domain.CursorPage[domain.PartnerCode]{Items: codes, NextPageToken: nextToken}, nil
}

// Upsert writes a code document keyed by the normalised code.
func (r *PartnerCodeRepository) Upsert(ctx context.Context, code domain.PartnerCode) error {
	normalized := normalizePartnerCode(code.Code)
	if normalized == "" {
		return errors.New("partner code repository: code is required")
	}
	client, err := r.provider.Client(ctx)
	if err != nil {
		return err
	}
	doc := partnerCodeDocument{
		PartnerName:            code.PartnerName,
		PackageDiscountPercent: code.PackageDiscountPercent,
		AddonDiscountPercent:   code.AddonDiscountPercent,
		Active:                 code.Active,
		StartsAt:               code.StartsAt,
		EndsAt:                 code.EndsAt,
		CreatedAt:              code.CreatedAt,
		UpdatedAt:              code.UpdatedAt,
	}
	_, err = client.Collection(partnerCodeCollection).Doc(normalized).Set(ctx, doc)
	return pfirestore.WrapError("partnerCodes.upsert", err)
}

// Delete removes a code document.
func (r *PartnerCodeRepository) Delete(ctx context.Context, code string) error {
	normalized := normalizePartnerCode(code)
	if normalized == "" {
		return errors.New("partner code repository: code is required")
	}
	client, err := r.provider.Client(ctx)
	if err != nil {
		return err
	}
	_, err = client.Collection(partnerCodeCollection).Doc(normalized).Delete(ctx)
	return pfirestore.WrapError("partnerCodes.delete", err)
}

func normalizePartnerCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

type partnerCodeDocument struct {
	PartnerName            string    `firestore:"partnerName"`
	PackageDiscountPercent float64   `firestore:"packageDiscountPercent"`
	AddonDiscountPercent   float64   `firestore:"addonDiscountPercent"`
	Active                 bool      `firestore:"active"`
	StartsAt               time.Time `firestore:"startsAt"`
	EndsAt                 time.Time `firestore:"endsAt"`
	CreatedAt              time.Time `firestore:"createdAt"`
	UpdatedAt              time.Time `firestore:"updatedAt"`
}

func decodePartnerCodeDocument(snapshot *firestore.DocumentSnapshot) (domain.PartnerCode, error) {
	var doc partnerCodeDocument
	if err := snapshot.DataTo(&doc); err != nil {
		return domain.PartnerCode{}, fmt.Errorf("decode partner code %s: %w", snapshot.Ref.ID, err)
	}
	return domain.PartnerCode{
		Code:                   snapshot.Ref.ID,
		PartnerName:            doc.PartnerName,
		PackageDiscountPercent: doc.PackageDiscountPercent,
		AddonDiscountPercent:   doc.AddonDiscountPercent,
		Active:                 doc.Active,
		StartsAt:               doc.StartsAt,
		EndsAt:                 doc.EndsAt,
		CreatedAt:              doc.CreatedAt,
		UpdatedAt:              doc.UpdatedAt,
	}, nil
}
