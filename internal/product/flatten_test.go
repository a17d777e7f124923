package product

import (
	"reflect"
	"testing"
)

func nestedFixture() []Row {
	return []Row{
		{Name: "Vitamin C", Order: 1, Quantities: []Quantity{{Amount: 500, Unit: "mg"}}},
		{
			Name:  "Energy Blend",
			Order: 2,
			Nested: []Row{
				{Name: "Caffeine Anhydrous", Order: 3, Quantities: []Quantity{{Amount: 100, Unit: "mg"}}},
				{
					Name:  "Focus Matrix",
					Order: 4,
					Nested: []Row{
						{Name: "L-Theanine", Order: 5},
					},
				},
			},
		},
		{Name: "Zinc", Order: 6},
	}
}

func TestFlattenRowsOrderAndParents(t *testing.T) {
	got := FlattenRows(nestedFixture())

	wantNames := []string{"Vitamin C", "Energy Blend", "Caffeine Anhydrous", "Focus Matrix", "L-Theanine", "Zinc"}
	if len(got) != len(wantNames) {
		t.Fatalf("flattened %d rows, want %d", len(got), len(wantNames))
	}
	for i, name := range wantNames {
		if got[i].Row.Name != name {
			t.Errorf("row %d = %q, want %q", i, got[i].Row.Name, name)
		}
	}

	byName := map[string]FlatRow{}
	for _, fr := range got {
		byName[fr.Row.Name] = fr
	}
	if fr := byName["Caffeine Anhydrous"]; fr.ParentBlend != "Energy Blend" || !fr.IsNested {
		t.Errorf("caffeine = %+v, want nested under Energy Blend", fr)
	}
	if fr := byName["L-Theanine"]; fr.ParentBlend != "Focus Matrix" || !fr.IsNested {
		t.Errorf("l-theanine = %+v, want nested under Focus Matrix", fr)
	}
	if fr := byName["Vitamin C"]; fr.ParentBlend != "" || fr.IsNested {
		t.Errorf("vitamin c = %+v, want top-level", fr)
	}
}

func TestFlattenRowsLeavesInputIntact(t *testing.T) {
	rows := nestedFixture()
	want := nestedFixture()

	FlattenRows(rows)

	if !reflect.DeepEqual(rows, want) {
		t.Fatal("FlattenRows modified its input")
	}
}

func TestFlattenRowsUnnamedBlend(t *testing.T) {
	rows := []Row{{Nested: []Row{{Name: "Child"}}}}
	got := FlattenRows(rows)
	if len(got) != 2 {
		t.Fatalf("flattened %d rows, want 2", len(got))
	}
	if got[1].ParentBlend != "Unknown Blend" {
		t.Fatalf("parent = %q, want Unknown Blend fallback", got[1].ParentBlend)
	}
}

func TestFlattenRowsEmpty(t *testing.T) {
	if got := FlattenRows(nil); len(got) != 0 {
		t.Fatalf("FlattenRows(nil) = %v, want empty", got)
	}
}
