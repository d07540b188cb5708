package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	domain "github.com/northlens-media/api/internal/domain"
	"github.com/northlens-media/api/internal/repositories"
)

// PartnerCodeServiceDeps bundles dependencies required to construct a PartnerCodeService.
type PartnerCodeServiceDeps struct {
	Repository repositories.PartnerCodeRepository
	Clock      func() time.Time
	Logger     Logger
}

type partnerCodeService struct {
	repo   repositories.PartnerCodeRepository
	clock  func() time.Time
	logger Logger
}

// NewPartnerCodeService wires a PartnerCodeService backed by the provided repository.
func NewPartnerCodeService(deps PartnerCodeServiceDeps) (PartnerCodeService, error) {
	if deps.Repository == nil {
		return nil, errors.New("partner code service: repository is required")
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}
	return &partnerCodeService{
		repo:   deps.Repository,
		clock:  func() time.Time { return clock().UTC() },
		logger: logger,
	}, nil
}

// Resolve looks a code up and checks activity and validity window. Unknown,
// inactive, or out-of-window codes resolve to nil so the rest of the booking
// proceeds without a discount instead of failing.
func (s *partnerCodeService) Resolve(ctx context.Context, code string) (*domain.PartnerCode, error) {
	normalized := strings.ToUpper(strings.TrimSpace(code))
	if normalized == "" {
		return nil, nil
	}

	found, err := s.repo.FindByCode(ctx, normalized)
	if err != nil {
		var repoErr repositories.RepositoryError
		if errors.As(err, &repoErr) && repoErr.IsNotFound() {
			s.logger(ctx, "partner_code.unknown", map[string]any{"code": normalized})
			return nil, nil
		}
		return nil, err
	}

	if !found.ValidAt(s.clock()) {
		s.logger(ctx, "partner_code.inactive", map[string]any{"code": normalized})
		return nil, nil
	}
	return &found, nil
}

func (s *partnerCodeService) List(ctx context.Context, pager domain.Pagination) (domain.CursorPage[domain.PartnerCode], error) {
	return s.repo.List(ctx, pager)
}

func (s *partnerCodeService) Upsert(ctx context.Context, code domain.PartnerCode) (domain.PartnerCode, error) {
	code.Code = strings.ToUpper(strings.TrimSpace(code.Code))
	code.PartnerName = strings.TrimSpace(code.PartnerName)
	if code.Code == "" {
		return domain.PartnerCode{}, fmt.Errorf("%w: code is required", ErrPartnerCodeInvalid)
	}
	if code.PackageDiscountPercent < 0 || code.PackageDiscountPercent > 100 {
		return domain.PartnerCode{}, fmt.Errorf("%w: package discount must be within [0, 100]", ErrPartnerCodeInvalid)
	}
	if code.AddonDiscountPercent < 0 || code.AddonDiscountPercent > 100 {
		return domain.PartnerCode{}, fmt.Errorf("%w: addon discount must be within [0, 100]", ErrPartnerCodeInvalid)
	}
	if !code.StartsAt.IsZero() && !code.EndsAt.IsZero() && code.EndsAt.Before(code.StartsAt) {
		return domain.PartnerCode{}, fmt.Errorf("%w: validity window ends before it starts", ErrPartnerCodeInvalid)
	}

	now := s.clock()
	if code.CreatedAt.IsZero() {
		code.CreatedAt = now
	}
	code.UpdatedAt = now

	if err := s.repo.Upsert(ctx, code); err != nil {
		return domain.PartnerCode{}, err
	}
	return code, nil
}

func (s *partnerCodeService) Delete(ctx context.Context, code string) error {
	normalized := strings.ToUpper(strings.TrimSpace(code))
	if normalized == "" {
		return fmt.Errorf("%w: code is required", ErrPartnerCodeInvalid)
	}
	err := s.repo.Delete(ctx, normalized)
	if err != nil {
		var repoErr repositories.RepositoryError
		if errors.As(err, &repoErr) && repoErr.IsNotFound() {
			return ErrPartnerCodeNotFound
		}
	}
	return err
}
