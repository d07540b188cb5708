package firestore

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"

	domain "github.com/northlens-media/api/internal/domain"
	pfirestore "github.com/northlens-media/api/internal/platform/firestore"
)

const (
	packageCollection  = "catalog_packages"
	addonCollection    = "catalog_addons"
	sizeBandCollection = "catalog_size_bands"
)

// CatalogRepository stores the admin-managed service catalog in Firestore.
type CatalogRepository struct {
	provider *pfirestore.Provider
}

// NewCatalogRepository constructs a Firestore-backed catalog repository.
func NewCatalogRepository(provider *pfirestore.Provider) (*CatalogRepository, error) {
	if provider == nil {
		return nil, errors.New("catalog repository requires firestore provider")
	}
	return &CatalogRepository{provider: provider}, nil
}

// Load reads the full published catalog snapshot. Unpublished entries are
// filtered service-side so drafts never leak into pricing.
func (r *CatalogRepository) Load(ctx context.Context) (domain.Catalog, error) {
	client, err := r.provider.Client(ctx)
	if err != nil {
		return domain.Catalog{}, err
	}

	var catalog domain.Catalog

	pkgIter := client.Collection(packageCollection).Documents(ctx)
	defer pkgIter.Stop()
	for {
		snap, err := pkgIter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return domain.Catalog{}, pfirestore.WrapError("catalog.load.packages", err)
		}
		pkg, err := decodePackageDocument(snap)
		if err != nil {
			return domain.Catalog{}, err
		}
		catalog.Packages = append(catalog.Packages, pkg)
	}

	addonIter := client.Collection(addonCollection).Documents(ctx)
	defer addonIter.Stop()
	for {
		snap, err := addonIter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return domain.Catalog{}, pfirestore.WrapError("catalog.load.addons", err)
		}
		addon, err := decodeAddOnDocument(snap)
		if err != nil {
			return domain.Catalog{}, err
		}
		catalog.AddOns = append(catalog.AddOns, addon)
	}

	bandIter := client.Collection(sizeBandCollection).Documents(ctx)
	defer bandIter.Stop()
	for {
		snap, err := bandIter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return domain.Catalog{}, pfirestore.WrapError("catalog.load.sizeBands", err)
		}
		band, err := decodeSizeBandDocument(snap)
		if err != nil {
			return domain.Catalog{}, err
		}
		catalog.SizeBands = append(catalog.SizeBands, band)
	}

	sort.SliceStable(catalog.Packages, func(i, j int) bool {
		return catalog.Packages[i].SortOrder < catalog.Packages[j].SortOrder
	})
	sort.SliceStable(catalog.AddOns, func(i, j int) bool {
		return catalog.AddOns[i].SortOrder < catalog.AddOns[j].SortOrder
	})
	sort.SliceStable(catalog.SizeBands, func(i, j int) bool {
		return catalog.SizeBands[i].MinSqft < catalog.SizeBands[j].MinSqft
	})

	return catalog, nil
}

// UpsertPackage writes a package document keyed by its stable code.
func (r *CatalogRepository) UpsertPackage(ctx context.Context, pkg domain.Package) error {
	id := strings.TrimSpace(pkg.ID)
	if id == "" {
		return errors.New("catalog repository: package id is required")
	}
	client, err := r.provider.Client(ctx)
	if err != nil {
		return err
	}
	doc := packageDocument{
		Name:        pkg.Name,
		Description: pkg.Description,
		BasePrice:   pkg.BasePrice,
		Category:    string(pkg.Category),
		Features:    pkg.Features,
		SortOrder:   pkg.SortOrder,
		Published:   pkg.Published,
		CreatedAt:   pkg.CreatedAt,
		UpdatedAt:   pkg.UpdatedAt,
	}
	_, err = client.Collection(packageCollection).Doc(id).Set(ctx, doc)
	return pfirestore.WrapError("catalog.upsertPackage", err)
}

// DeletePackage removes a package document.
func (r *CatalogRepository) DeletePackage(ctx context.Context, id string) error {
	return r.deleteDoc(ctx, packageCollection, id, "catalog.deletePackage")
}

// UpsertAddOn writes an add-on document keyed by its stable code.
func (r *CatalogRepository) UpsertAddOn(ctx context.Context, addon domain.AddOn) error {
	id := strings.TrimSpace(addon.ID)
	if id == "" {
		return errors.New("catalog repository: addon id is required")
	}
	client, err := r.provider.Client(ctx)
	if err != nil {
		return err
	}
	doc := addonDocument{
		Name:                addon.Name,
		Description:         addon.Description,
		BasePrice:           addon.BasePrice,
		Category:            addon.Category,
		PriceWithPackage:    addon.PriceWithPackage,
		PriceWithoutPackage: addon.PriceWithoutPackage,
		SortOrder:           addon.SortOrder,
		Published:           addon.Published,
		CreatedAt:           addon.CreatedAt,
		UpdatedAt:           addon.UpdatedAt,
	}
	_, err = client.Collection(addonCollection).Doc(id).Set(ctx, doc)
	return pfirestore.WrapError("catalog.upsertAddOn", err)
}

// DeleteAddOn removes an add-on document.
func (r *CatalogRepository) DeleteAddOn(ctx context.Context, id string) error {
	return r.deleteDoc(ctx, addonCollection, id, "catalog.deleteAddOn")
}

// UpsertSizeBand writes a property-size multiplier band.
func (r *CatalogRepository) UpsertSizeBand(ctx context.Context, band domain.PropertySizeConfig) error {
	id := strings.TrimSpace(band.ID)
	if id == "" {
		return errors.New("catalog repository: size band id is required")
	}
	client, err := r.provider.Client(ctx)
	if err != nil {
		return err
	}
	doc := sizeBandDocument{
		Label:      band.Label,
		MinSqft:    band.MinSqft,
		MaxSqft:    band.MaxSqft,
		Multiplier: band.Multiplier,
		SortOrder:  band.SortOrder,
	}
	_, err = client.Collection(sizeBandCollection).Doc(id).Set(ctx, doc)
	return pfirestore.WrapError("catalog.upsertSizeBand", err)
}

// DeleteSizeBand removes a size band document.
func (r *CatalogRepository) DeleteSizeBand(ctx context.Context, id string) error {
	return r.deleteDoc(ctx, sizeBandCollection, id, "catalog.deleteSizeBand")
}

func (r *CatalogRepository) deleteDoc(ctx context.Context, collection string, id string, op string) error {
	trimmed := strings.TrimSpace(id)
	if trimmed == "" {
		return fmt.Errorf("%s: id is required", op)
	}
	client, err := r.provider.Client(ctx)
	if err != nil {
		return err
	}
	_, err = client.Collection(collection).Doc(trimmed).Delete(ctx)
	return pfirestore.WrapError(op, err)
}

type packageDocument struct {
	Name        string    `firestore:"name"`
	Description string    `firestore:"description"`
	BasePrice   float64   `firestore:"basePrice"`
	Category    string    `firestore:"category"`
	Features    []string  `firestore:"features"`
	SortOrder   int       `firestore:"sortOrder"`
	Published   bool      `firestore:"published"`
	CreatedAt   time.Time `firestore:"createdAt"`
	UpdatedAt   time.Time `firestore:"updatedAt"`
}

type addonDocument struct {
	Name                string    `firestore:"name"`
	Description         string    `firestore:"description"`
	BasePrice           float64   `firestore:"basePrice"`
	Category            string    `firestore:"category"`
	PriceWithPackage    *float64  `firestore:"priceWithPackage"`
	PriceWithoutPackage *float64  `firestore:"priceWithoutPackage"`
	SortOrder           int       `firestore:"sortOrder"`
	Published           bool      `firestore:"published"`
	CreatedAt           time.Time `firestore:"createdAt"`
	UpdatedAt           time.Time `firestore:"updatedAt"`
}

type sizeBandDocument struct {
	Label      string  `firestore:"label"`
	MinSqft    int     `firestore:"minSqft"`
	MaxSqft    *int    `firestore:"maxSqft"`
	Multiplier float64 `firestore:"multiplier"`
	SortOrder  int     `firestore:"sortOrder"`
}

func decodePackageDocument(snapshot *firestore.DocumentSnapshot) (domain.Package, error) {
	var doc packageDocument
	if err := snapshot.DataTo(&doc); err != nil {
		return domain.Package{}, fmt.Errorf("decode package %s: %w", snapshot.Ref.ID, err)
	}
	return domain.Package{
		ID:          snapshot.Ref.ID,
		Name:        doc.Name,
		Description: doc.Description,
		BasePrice:   doc.BasePrice,
		Category:    domain.PackageCategory(doc.Category),
		Features:    doc.Features,
		SortOrder:   doc.SortOrder,
		Published:   doc.Published,
		CreatedAt:   doc.CreatedAt,
		UpdatedAt:   doc.UpdatedAt,
	}, nil
}

func decodeAddOnDocument(snapshot *firestore.DocumentSnapshot) (domain.AddOn, error) {
	var doc addonDocument
	if err := snapshot.DataTo(&doc); err != nil {
		return domain.AddOn{}, fmt.Errorf("decode addon %s: %w", snapshot.Ref.ID, err)
	}
	return domain.AddOn{
		ID:                  snapshot.Ref.ID,
		Name:                doc.Name,
		Description:         doc.Description,
		BasePrice:           doc.BasePrice,
		Category:            doc.Category,
		PriceWithPackage:    doc.PriceWithPackage,
		PriceWithoutPackage: doc.PriceWithoutPackage,
		SortOrder:           doc.SortOrder,
		Published:           doc.Published,
		CreatedAt:           doc.CreatedAt,
		UpdatedAt:           doc.UpdatedAt,
	}, nil
}

func decodeSizeBandDocument(snapshot *firestore.DocumentSnapshot) (domain.PropertySizeConfig, error) {
	var doc sizeBandDocument
	if err := snapshot.DataTo(&doc); err != nil {
		return domain.PropertySizeConfig{}, fmt.Errorf("decode size band %s: %w", snapshot.Ref.ID, err)
	}
	return domain.PropertySizeConfig{
		ID:         snapshot.Ref.ID,
		Label:      doc.Label,
		MinSqft:    doc.MinSqft,
		MaxSqft:    doc.MaxSqft,
		Multiplier: doc.Multiplier,
		SortOrder:  doc.SortOrder,
	}, nil
}
