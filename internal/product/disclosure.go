package product

import "strings"

// Disclosure levels for proprietary blends.
const (
	DisclosureFull    = "full"
	DisclosurePartial = "partial"
	DisclosureNone    = "none"
)

// blendIndicators are name fragments that mark a row as a proprietary blend
// even when it carries quantities.
var blendIndicators = []string{
	"proprietary blend",
	"proprietary complex",
	"proprietary formula",
	"proprietary matrix",
	"exclusive blend",
	"exclusive formula",
	"patent-pending complex",
	"signature blend",
	"blend",
	"matrix",
	"complex",
	"formula",
	"system",
	"stack",
	"mixture",
	"compound",
	"powder blend",
	"extract blend",
	"herbal blend",
	"nutrient blend",
	"vitamin blend",
	"mineral blend",
	"enzyme blend",
	"probiotic blend",
	"amino blend",
	"protein blend",
	"botanical blend",
	"fruit blend",
	"vegetable blend",
	"greens blend",
	"antioxidant blend",
	"superfood blend",
}

// IsBlendName reports whether name matches a proprietary-blend indicator.
func IsBlendName(name string) bool {
	lower := strings.ToLower(name)
	for _, indicator := range blendIndicators {
		if strings.Contains(lower, indicator) {
			return true
		}
	}
	return false
}

// Disclosure scores how completely a blend row discloses its children.
// Returns ("", false) for rows that are not blends: named like a single
// ingredient, carrying a real quantity, and declaring no children.
//
// "full" means every child has a real non-zero quantity with a concrete
// unit, "partial" means some do, "none" means children exist without any
// quantities, or the row looks like a blend while declaring no breakdown at
// all.
func Disclosure(row Row) (string, bool) {
	if len(row.Nested) == 0 {
		// No child breakdown: a row that still reads as a blend, or hides
		// its amount, discloses nothing. A plainly named quantified row is
		// just a single ingredient.
		if IsBlendName(row.Name) || row.FirstQuantity().Zero() {
			return DisclosureNone, true
		}
		return "", false
	}

	withQuantity := 0
	for _, child := range row.Nested {
		if !child.FirstQuantity().Zero() {
			withQuantity++
		}
	}
	switch {
	case withQuantity == len(row.Nested):
		return DisclosureFull, true
	case withQuantity > 0:
		return DisclosurePartial, true
	default:
		return DisclosureNone, true
	}
}
