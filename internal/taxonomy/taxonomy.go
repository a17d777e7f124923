// Package taxonomy loads the reference taxonomies and builds the exact-match
// variation indexes the classifier runs against. Each taxonomy file has its
// own record shape; the loader converts every shape into the common Entry
// type so the index builder and matcher never care which file a record came
// from.
package taxonomy

// Kind identifies which reference taxonomy an entry belongs to.
type Kind string

const (
	KindNutrient   Kind = "nutrient"
	KindHarmful    Kind = "harmful"
	KindNonHarmful Kind = "non_harmful"
	KindAllergen   Kind = "allergen"
	KindBanned     Kind = "banned"
	KindPassive    Kind = "passive"
	KindBotanical  Kind = "botanical"
)

// Kinds lists every taxonomy in classification priority order, highest first.
// Allergen sits below non-harmful but is allowed to coexist with both harmful
// kinds during classification.
var Kinds = []Kind{KindBanned, KindHarmful, KindNonHarmful, KindAllergen, KindPassive, KindNutrient, KindBotanical}

// Form is a sub-form of a nutrient entry, e.g. "methylcobalamin" under
// "vitamin b12". Context rules, when present, gate matches on surrounding
// label text.
type Form struct {
	Name           string
	Aliases        []string
	Natural        bool
	BioScore       float64
	ContextInclude []string
	ContextExclude []string
}

// Entry is the loader-normalized record shared by every taxonomy. Fields
// beyond CanonicalName and Aliases are populated only where the source
// taxonomy carries them.
type Entry struct {
	Kind          Kind
	CanonicalName string
	Aliases       []string

	// Harmful / non-harmful additive metadata.
	Category        string
	RiskLevel       string
	AdditiveType    string
	CleanLabelScore int

	// Allergen metadata.
	Severity string

	// Banned/recalled metadata: which list within the file the entry came
	// from (permanently_banned, wada_prohibited, ...).
	ListName string

	// Nutrient sub-forms.
	Forms []Form
}

// Set holds all loaded taxonomies for one run. Built once at startup and
// shared read-only by every worker.
type Set struct {
	Nutrients  []Entry
	Harmful    []Entry
	NonHarmful []Entry
	Allergens  []Entry
	Banned     []Entry
	Passive    []Entry
	Botanical  []Entry
}

// ByKind returns the entries for one taxonomy.
func (s *Set) ByKind(kind Kind) []Entry {
	switch kind {
	case KindNutrient:
		return s.Nutrients
	case KindHarmful:
		return s.Harmful
	case KindNonHarmful:
		return s.NonHarmful
	case KindAllergen:
		return s.Allergens
	case KindBanned:
		return s.Banned
	case KindPassive:
		return s.Passive
	case KindBotanical:
		return s.Botanical
	}
	return nil
}

// Counts returns the number of entries per taxonomy, for startup logging and
// the taxonomy validate command.
func (s *Set) Counts() map[Kind]int {
	counts := make(map[Kind]int, len(Kinds))
	for _, kind := range Kinds {
		counts[kind] = len(s.ByKind(kind))
	}
	return counts
}
