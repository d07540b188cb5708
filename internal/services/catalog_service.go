package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	domain "github.com/northlens-media/api/internal/domain"
	"github.com/northlens-media/api/internal/platform/cache"
	"github.com/northlens-media/api/internal/repositories"
)

const catalogCacheKey = "catalog"

// CatalogServiceDeps bundles dependencies required to construct a CatalogService.
type CatalogServiceDeps struct {
	Repository repositories.CatalogRepository
	Clock      func() time.Time
	CacheTTL   time.Duration
	Logger     Logger
}

type catalogService struct {
	repo   repositories.CatalogRepository
	clock  func() time.Time
	cache  *cache.TTLStore[domain.Catalog]
	logger Logger
}

// NewCatalogService wires a CatalogService backed by the provided repository.
// Reads go through a TTL snapshot cache so the booking wizard does not hit the
// store on every keystroke; admin mutations invalidate it.
func NewCatalogService(deps CatalogServiceDeps) (CatalogService, error) {
	if deps.Repository == nil {
		return nil, errors.New("catalog service: repository is required")
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}
	utcClock := func() time.Time { return clock().UTC() }
	return &catalogService{
		repo:   deps.Repository,
		clock:  utcClock,
		cache:  cache.NewTTLStore[domain.Catalog](deps.CacheTTL, utcClock),
		logger: logger,
	}, nil
}

// Catalog returns the published catalog, falling back to the compiled-in
// defaults when the store holds no published entries.
func (s *catalogService) Catalog(ctx context.Context) (domain.Catalog, error) {
	if cached, ok := s.cache.Get(catalogCacheKey); ok {
		return cached, nil
	}

	stored, err := s.repo.Load(ctx)
	if err != nil {
		var repoErr repositories.RepositoryError
		if errors.As(err, &repoErr) && repoErr.IsUnavailable() {
			// Serve defaults rather than blanking the booking wizard during a
			// store outage; the cache stays cold so recovery is picked up.
			s.logger(ctx, "catalog.load.fallback", map[string]any{"error": err.Error()})
			return domain.DefaultCatalog(), nil
		}
		return domain.Catalog{}, fmt.Errorf("%w: %v", ErrCatalogUnavailable, err)
	}

	catalog := filterPublished(stored)
	if catalog.IsEmpty() {
		catalog = domain.DefaultCatalog()
	}
	if len(catalog.SizeBands) == 0 {
		catalog.SizeBands = domain.DefaultCatalog().SizeBands
	}

	s.cache.Set(catalogCacheKey, catalog)
	return catalog, nil
}

func (s *catalogService) UpsertPackage(ctx context.Context, pkg domain.Package) (domain.Package, error) {
	pkg.ID = strings.TrimSpace(pkg.ID)
	pkg.Name = strings.TrimSpace(pkg.Name)
	pkg.Description = strings.TrimSpace(pkg.Description)
	if pkg.ID == "" || pkg.Name == "" {
		return domain.Package{}, fmt.Errorf("%w: package id and name are required", ErrCatalogEntryInvalid)
	}
	if pkg.BasePrice < 0 {
		return domain.Package{}, fmt.Errorf("%w: base price must not be negative", ErrCatalogEntryInvalid)
	}
	if pkg.Category != domain.CategoryListing && pkg.Category != domain.CategoryPersonal {
		return domain.Package{}, fmt.Errorf("%w: unknown category %q", ErrCatalogEntryInvalid, pkg.Category)
	}

	now := s.clock()
	if pkg.CreatedAt.IsZero() {
		pkg.CreatedAt = now
	}
	pkg.UpdatedAt = now

	if err := s.repo.UpsertPackage(ctx, pkg); err != nil {
		return domain.Package{}, err
	}
	s.cache.Clear()
	return pkg, nil
}

func (s *catalogService) DeletePackage(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("%w: package id is required", ErrCatalogEntryInvalid)
	}
	if err := s.repo.DeletePackage(ctx, id); err != nil {
		return err
	}
	s.cache.Clear()
	return nil
}

func (s *catalogService) UpsertAddOn(ctx context.Context, addon domain.AddOn) (domain.AddOn, error) {
	addon.ID = strings.TrimSpace(addon.ID)
	addon.Name = strings.TrimSpace(addon.Name)
	addon.Description = strings.TrimSpace(addon.Description)
	if addon.ID == "" || addon.Name == "" {
		return domain.AddOn{}, fmt.Errorf("%w: addon id and name are required", ErrCatalogEntryInvalid)
	}
	if addon.BasePrice < 0 {
		return domain.AddOn{}, fmt.Errorf("%w: base price must not be negative", ErrCatalogEntryInvalid)
	}
	if addon.PriceWithPackage != nil && *addon.PriceWithPackage < 0 {
		return domain.AddOn{}, fmt.Errorf("%w: attached price must not be negative", ErrCatalogEntryInvalid)
	}
	if addon.PriceWithoutPackage != nil && *addon.PriceWithoutPackage < 0 {
		return domain.AddOn{}, fmt.Errorf("%w: standalone price must not be negative", ErrCatalogEntryInvalid)
	}

	now := s.clock()
	if addon.CreatedAt.IsZero() {
		addon.CreatedAt = now
	}
	addon.UpdatedAt = now

	if err := s.repo.UpsertAddOn(ctx, addon); err != nil {
		return domain.AddOn{}, err
	}
	s.cache.Clear()
	return addon, nil
}

func (s *catalogService) DeleteAddOn(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("%w: addon id is required", ErrCatalogEntryInvalid)
	}
	if err := s.repo.DeleteAddOn(ctx, id); err != nil {
		return err
	}
	s.cache.Clear()
	return nil
}

func (s *catalogService) UpsertSizeBand(ctx context.Context, band domain.PropertySizeConfig) (domain.PropertySizeConfig, error) {
	band.ID = strings.TrimSpace(band.ID)
	band.Label = strings.TrimSpace(band.Label)
	if band.ID == "" {
		return domain.PropertySizeConfig{}, fmt.Errorf("%w: size band id is required", ErrCatalogEntryInvalid)
	}
	if band.MinSqft < 0 {
		return domain.PropertySizeConfig{}, fmt.Errorf("%w: min sqft must not be negative", ErrCatalogEntryInvalid)
	}
	if band.MaxSqft != nil && *band.MaxSqft <= band.MinSqft {
		return domain.PropertySizeConfig{}, fmt.Errorf("%w: max sqft must exceed min sqft", ErrCatalogEntryInvalid)
	}
	if band.Multiplier < 0 {
		return domain.PropertySizeConfig{}, fmt.Errorf("%w: multiplier must not be negative", ErrCatalogEntryInvalid)
	}

	if err := s.repo.UpsertSizeBand(ctx, band); err != nil {
		return domain.PropertySizeConfig{}, err
	}
	s.cache.Clear()
	return band, nil
}

func (s *catalogService) DeleteSizeBand(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("%w: size band id is required", ErrCatalogEntryInvalid)
	}
	if err := s.repo.DeleteSizeBand(ctx, id); err != nil {
		return err
	}
	s.cache.Clear()
	return nil
}

func filterPublished(catalog domain.Catalog) domain.Catalog {
	filtered := domain.Catalog{SizeBands: catalog.SizeBands}
	for _, pkg := range catalog.Packages {
		if pkg.Published {
			filtered.Packages = append(filtered.Packages, pkg)
		}
	}
	for _, addon := range catalog.AddOns {
		if addon.Published {
			filtered.AddOns = append(filtered.AddOns, addon)
		}
	}
	return filtered
}
