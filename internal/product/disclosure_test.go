package product

import "testing"

func TestDisclosure(t *testing.T) {
	qty := func(amount float64) []Quantity {
		return []Quantity{{Amount: amount, Unit: "mg"}}
	}

	tests := []struct {
		name    string
		row     Row
		level   string
		isBlend bool
	}{
		{
			name: "all children quantified",
			row: Row{Name: "Energy Blend", Nested: []Row{
				{Name: "Caffeine", Quantities: qty(100)},
				{Name: "Theanine", Quantities: qty(200)},
				{Name: "Taurine", Quantities: qty(50)},
			}},
			level:   DisclosureFull,
			isBlend: true,
		},
		{
			name: "some children quantified",
			row: Row{Name: "Energy Blend", Nested: []Row{
				{Name: "Caffeine", Quantities: qty(100)},
				{Name: "Theanine", Quantities: qty(200)},
				{Name: "Taurine"},
			}},
			level:   DisclosurePartial,
			isBlend: true,
		},
		{
			name: "no children quantified",
			row: Row{Name: "Energy Blend", Nested: []Row{
				{Name: "Caffeine"},
				{Name: "Theanine", Quantities: []Quantity{{Amount: 0, Unit: "NP"}}},
				{Name: "Taurine"},
			}},
			level:   DisclosureNone,
			isBlend: true,
		},
		{
			name:    "blend-named row without children",
			row:     Row{Name: "Proprietary Blend", Quantities: qty(450)},
			level:   DisclosureNone,
			isBlend: true,
		},
		{
			name:    "unquantified leaf treated as undisclosed blend",
			row:     Row{Name: "Herbal Complex"},
			level:   DisclosureNone,
			isBlend: true,
		},
		{
			name:    "quantified leaf is not a blend",
			row:     Row{Name: "Vitamin C", Quantities: qty(500)},
			isBlend: false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			level, isBlend := Disclosure(tt.row)
			if isBlend != tt.isBlend {
				t.Fatalf("isBlend = %v, want %v", isBlend, tt.isBlend)
			}
			if isBlend && level != tt.level {
				t.Errorf("level = %q, want %q", level, tt.level)
			}
		})
	}
}

func TestIsBlendName(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"Proprietary Blend", true},
		{"Energy Matrix", true},
		{"DIGESTIVE COMPLEX", true},
		{"Vitamin C", false},
		{"Magnesium Stearate", false},
	}
	for _, tt := range tests {
		if got := IsBlendName(tt.name); got != tt.want {
			t.Errorf("IsBlendName(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}
