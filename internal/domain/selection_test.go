package domain

import (
	"reflect"
	"testing"
)

func TestParseAddOnSelection(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want AddOnSelection
	}{
		{name: "plain addon", raw: "drone_aerial", want: AddOnSelection{Kind: SelectionSimple, ID: "drone_aerial", Count: 1}},
		{name: "plain staging is one photo", raw: "virtual_staging", want: AddOnSelection{Kind: SelectionStaged, ID: VirtualStagingID, Count: 1}},
		{name: "counted staging", raw: "virtual_staging_5", want: AddOnSelection{Kind: SelectionStaged, ID: VirtualStagingID, Count: 5}},
		{name: "count clamps to hundred", raw: "virtual_staging_250", want: AddOnSelection{Kind: SelectionStaged, ID: VirtualStagingID, Count: 100}},
		{name: "zero count falls back to one", raw: "virtual_staging_0", want: AddOnSelection{Kind: SelectionStaged, ID: VirtualStagingID, Count: 1}},
		{name: "negative count falls back to one", raw: "virtual_staging_-3", want: AddOnSelection{Kind: SelectionStaged, ID: VirtualStagingID, Count: 1}},
		{name: "garbage count falls back to one", raw: "virtual_staging_lots", want: AddOnSelection{Kind: SelectionStaged, ID: VirtualStagingID, Count: 1}},
		{name: "surrounding whitespace trimmed", raw: "  floor_plan_2d ", want: AddOnSelection{Kind: SelectionSimple, ID: "floor_plan_2d", Count: 1}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := ParseAddOnSelection(tc.raw); got != tc.want {
				t.Fatalf("ParseAddOnSelection(%q) = %+v, want %+v", tc.raw, got, tc.want)
			}
		})
	}
}

func TestNormalizeSelections(t *testing.T) {
	t.Run("counted staging yields single canonical line item", func(t *testing.T) {
		got := NormalizeSelections([]string{"virtual_staging_5"})
		want := []AddOnSelection{{Kind: SelectionStaged, ID: VirtualStagingID, Count: 5}}
		if !reflect.DeepEqual(got, want) {
			t.Fatalf("got %+v, want %+v", got, want)
		}
	})

	t.Run("plain and counted staging never duplicate", func(t *testing.T) {
		got := NormalizeSelections([]string{"virtual_staging", "drone_aerial", "virtual_staging_7"})
		staging := 0
		for _, sel := range got {
			if sel.ID == VirtualStagingID {
				staging++
				if sel.Count != 7 {
					t.Fatalf("expected merged count 7, got %d", sel.Count)
				}
			}
		}
		if staging != 1 {
			t.Fatalf("expected exactly one staging line item, got %d in %+v", staging, got)
		}
		if len(got) != 2 {
			t.Fatalf("expected 2 selections, got %+v", got)
		}
	})

	t.Run("larger count wins regardless of order", func(t *testing.T) {
		got := NormalizeSelections([]string{"virtual_staging_9", "virtual_staging_3"})
		if len(got) != 1 || got[0].Count != 9 {
			t.Fatalf("expected single selection with count 9, got %+v", got)
		}
	})

	t.Run("duplicate simple addons collapse", func(t *testing.T) {
		got := NormalizeSelections([]string{"drone_aerial", "drone_aerial", "", "  "})
		want := []AddOnSelection{{Kind: SelectionSimple, ID: "drone_aerial", Count: 1}}
		if !reflect.DeepEqual(got, want) {
			t.Fatalf("got %+v, want %+v", got, want)
		}
	})

	t.Run("downstream id set uses canonical ids", func(t *testing.T) {
		ids := SelectionIDs(NormalizeSelections([]string{"virtual_staging_4", "floor_plan_2d"}))
		want := []string{VirtualStagingID, "floor_plan_2d"}
		if !reflect.DeepEqual(ids, want) {
			t.Fatalf("got %v, want %v", ids, want)
		}
	})

	t.Run("staging count helper", func(t *testing.T) {
		if got := StagingCount(NormalizeSelections([]string{"virtual_staging_6"})); got != 6 {
			t.Fatalf("StagingCount = %d, want 6", got)
		}
		if got := StagingCount(NormalizeSelections([]string{"drone_aerial"})); got != 0 {
			t.Fatalf("StagingCount = %d, want 0", got)
		}
	})
}
