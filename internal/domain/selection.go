package domain

import (
	"strconv"
	"strings"
)

const (
	// VirtualStagingID is the canonical add-on id for per-photo virtual staging.
	VirtualStagingID = "virtual_staging"

	virtualStagingPrefix = VirtualStagingID + "_"
	maxStagingPhotos     = 100
)

// SelectionKind tags the two shapes an add-on selection can take.
type SelectionKind string

const (
	// SelectionSimple is a plain add-on picked once.
	SelectionSimple SelectionKind = "simple"
	// SelectionStaged is the virtual-staging add-on carrying a photo count.
	SelectionStaged SelectionKind = "staged"
)

// AddOnSelection is the structured form of a booking-wizard add-on choice.
// The wire format allows a synthetic "virtual_staging_<n>" id; it is parsed
// exactly once at the system boundary and handled structurally afterwards.
type AddOnSelection struct {
	Kind  SelectionKind
	ID    string
	Count int
}

// ParseAddOnSelection converts a raw add-on id into its structured form.
// A staging count that fails to parse or is non-positive falls back to one
// photo; counts are clamped to [1, 100].
func ParseAddOnSelection(raw string) AddOnSelection {
	id := strings.TrimSpace(raw)

	if id == VirtualStagingID {
		return AddOnSelection{Kind: SelectionStaged, ID: VirtualStagingID, Count: 1}
	}
	if strings.HasPrefix(id, virtualStagingPrefix) {
		count, err := strconv.Atoi(id[len(virtualStagingPrefix):])
		if err != nil || count < 1 {
			count = 1
		}
		if count > maxStagingPhotos {
			count = maxStagingPhotos
		}
		return AddOnSelection{Kind: SelectionStaged, ID: VirtualStagingID, Count: count}
	}
	return AddOnSelection{Kind: SelectionSimple, ID: id, Count: 1}
}

// NormalizeSelections parses raw add-on ids and collapses duplicates. Staging
// selections merge into a single line item carrying the largest requested
// count, so a booking never double-counts virtual staging when both the plain
// id and a counted variant are present. Empty ids are dropped. Selection
// order is preserved otherwise.
func NormalizeSelections(rawIDs []string) []AddOnSelection {
	selections := make([]AddOnSelection, 0, len(rawIDs))
	index := make(map[string]int, len(rawIDs))

	for _, raw := range rawIDs {
		sel := ParseAddOnSelection(raw)
		if sel.ID == "" {
			continue
		}
		if at, seen := index[sel.ID]; seen {
			if sel.Kind == SelectionStaged && sel.Count > selections[at].Count {
				selections[at].Count = sel.Count
			}
			continue
		}
		index[sel.ID] = len(selections)
		selections = append(selections, sel)
	}
	return selections
}

// SelectionIDs returns the canonical add-on id set sent downstream.
func SelectionIDs(selections []AddOnSelection) []string {
	ids := make([]string, 0, len(selections))
	for _, sel := range selections {
		ids = append(ids, sel.ID)
	}
	return ids
}

// StagingCount returns the photo count of the staging selection, or zero when
// virtual staging was not selected.
func StagingCount(selections []AddOnSelection) int {
	for _, sel := range selections {
		if sel.Kind == SelectionStaged {
			return sel.Count
		}
	}
	return 0
}
