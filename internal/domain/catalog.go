package domain

import "strings"

// Catalog bundles the lookup tables the pricing engine operates on. The
// engine treats a catalog as read-only; admin edits produce a new snapshot.
type Catalog struct {
	Packages  []Package
	AddOns    []AddOn
	SizeBands []PropertySizeConfig
}

// PackageByID finds a package by its stable code.
func (c Catalog) PackageByID(id string) (Package, bool) {
	want := strings.TrimSpace(id)
	for _, pkg := range c.Packages {
		if pkg.ID == want {
			return pkg, true
		}
	}
	return Package{}, false
}

// AddOnByID finds an add-on by its stable code.
func (c Catalog) AddOnByID(id string) (AddOn, bool) {
	want := strings.TrimSpace(id)
	for _, addon := range c.AddOns {
		if addon.ID == want {
			return addon, true
		}
	}
	return AddOn{}, false
}

// IsEmpty reports whether the catalog carries no sellable entries.
func (c Catalog) IsEmpty() bool {
	return len(c.Packages) == 0 && len(c.AddOns) == 0
}

func floatPtr(v float64) *float64 { return &v }
func intPtr(v int) *int           { return &v }

// DefaultCatalog returns the compiled-in catalog used until admin-published
// entries exist in the data store. Prices are CAD.
func DefaultCatalog() Catalog {
	return Catalog{
		Packages: []Package{
			{ID: "essential", Name: "Essential", Category: CategoryListing, BasePrice: 299,
				Description: "HDR photography for standard listings",
				Features:    []string{"25 HDR photos", "Next-day delivery", "MLS-ready sizing"},
				SortOrder:   1, Published: true},
			{ID: "premium", Name: "Premium", Category: CategoryListing, BasePrice: 499,
				Description: "Photos plus cinematic video walkthrough",
				Features:    []string{"35 HDR photos", "60s cinematic video", "Drone exterior", "Next-day delivery"},
				SortOrder:   2, Published: true},
			{ID: "luxury", Name: "Luxury", Category: CategoryListing, BasePrice: 799,
				Description: "Full media suite for high-end listings",
				Features:    []string{"45 HDR photos", "Cinematic video", "Drone photo + video", "Twilight shoot", "2D floor plan"},
				SortOrder:   3, Published: true},
			{ID: "growth", Name: "Growth", Category: CategoryPersonal, BasePrice: 899,
				Description: "Monthly personal-branding content",
				Features:    []string{"Half-day shoot", "4 social reels", "20 edited portraits"},
				SortOrder:   4, Published: true},
			{ID: "accelerator", Name: "Accelerator", Category: CategoryPersonal, BasePrice: 1499,
				Description: "Full personal-branding production",
				Features:    []string{"Full-day shoot", "8 social reels", "Agent intro video", "40 edited portraits"},
				SortOrder:   5, Published: true},
			{ID: TailoredPackageID, Name: "Tailored", Category: CategoryPersonal,
				Description: "Custom scope quoted per project",
				Features:    []string{"Custom deliverables", "Dedicated producer"},
				SortOrder:   6, Published: true},
		},
		AddOns: []AddOn{
			{ID: "drone_aerial", Name: "Drone Aerials", Category: "photo", BasePrice: 199, SortOrder: 1, Published: true},
			{ID: "twilight_photos", Name: "Twilight Photos", Category: "photo", BasePrice: 149,
				PriceWithPackage: floatPtr(99), SortOrder: 2, Published: true},
			{ID: "floor_plan_2d", Name: "2D Floor Plan", Category: "plans", BasePrice: 99, SortOrder: 3, Published: true},
			{ID: "floor_plan_3d", Name: "3D Floor Plan", Category: "plans", BasePrice: 179, SortOrder: 4, Published: true},
			{ID: "virtual_tour_360", Name: "360 Virtual Tour", Category: "tour", BasePrice: 249, SortOrder: 5, Published: true},
			{ID: VirtualStagingID, Name: "Virtual Staging", Category: "staging", BasePrice: 39, SortOrder: 6, Published: true},
			{ID: "property_website", Name: "Property Website", Category: "web", BasePrice: 129,
				PriceWithPackage: floatPtr(79), SortOrder: 7, Published: true},
			{ID: "social_media_reel", Name: "Social Media Reel", Category: "video", BasePrice: 199, SortOrder: 8, Published: true},
			{ID: "agent_intro_video", Name: "Agent Intro Video", Category: "video", BasePrice: 299,
				PriceWithoutPackage: floatPtr(349), SortOrder: 9, Published: true},
		},
		SizeBands: []PropertySizeConfig{
			{ID: "band_0", Label: "Up to 1,500 sqft", MinSqft: 0, MaxSqft: intPtr(1500), Multiplier: 1.0, SortOrder: 1},
			{ID: "band_1500", Label: "1,500 - 2,500 sqft", MinSqft: 1500, MaxSqft: intPtr(2500), Multiplier: 1.15, SortOrder: 2},
			{ID: "band_2500", Label: "2,500 - 3,500 sqft", MinSqft: 2500, MaxSqft: intPtr(3500), Multiplier: 1.3, SortOrder: 3},
			{ID: "band_3500", Label: "3,500 - 5,000 sqft", MinSqft: 3500, MaxSqft: intPtr(5000), Multiplier: 1.5, SortOrder: 4},
		},
	}
}
