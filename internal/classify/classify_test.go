package classify

import (
	"testing"

	"labelclean/internal/match"
	"labelclean/internal/taxonomy"
)

func newTestClassifier() *Classifier {
	set := &taxonomy.Set{
		Nutrients: []taxonomy.Entry{
			{
				Kind:          taxonomy.KindNutrient,
				CanonicalName: "Vitamin B12",
				Forms: []taxonomy.Form{
					{Name: "Methylcobalamin", Aliases: []string{"methyl b12"}},
					{
						Name:           "Cyanocobalamin",
						ContextInclude: []string{"cyanocobalamin", "cyano"},
						ContextExclude: []string{"methyl"},
					},
				},
			},
			{
				Kind:          taxonomy.KindNutrient,
				CanonicalName: "Magnesium",
				Forms: []taxonomy.Form{
					{Name: "Magnesium Citrate", Aliases: []string{"mag citrate"}},
				},
			},
		},
		Harmful: []taxonomy.Entry{
			{
				Kind:          taxonomy.KindHarmful,
				CanonicalName: "Carmine",
				Aliases:       []string{"cochineal"},
				Category:      "colorant",
				RiskLevel:     "moderate",
			},
		},
		NonHarmful: []taxonomy.Entry{
			{
				Kind:          taxonomy.KindNonHarmful,
				CanonicalName: "Soy Lecithin",
				Category:      "emulsifier",
				AdditiveType:  "lecithin",
			},
		},
		Allergens: []taxonomy.Entry{
			{Kind: taxonomy.KindAllergen, CanonicalName: "Carmine", Severity: "moderate"},
			{Kind: taxonomy.KindAllergen, CanonicalName: "Soy", Aliases: []string{"soy lecithin"}, Severity: "moderate"},
			{Kind: taxonomy.KindAllergen, CanonicalName: "Ephedra Pollen", Aliases: []string{"ephedra"}},
		},
		Banned: []taxonomy.Entry{
			{Kind: taxonomy.KindBanned, CanonicalName: "Ephedra", Aliases: []string{"ma huang"}, ListName: "permanently_banned"},
		},
		Passive: []taxonomy.Entry{
			{Kind: taxonomy.KindPassive, CanonicalName: "Magnesium Stearate", Category: "flow_agent"},
			{Kind: taxonomy.KindPassive, CanonicalName: "Ephedra", Category: "flow_agent"},
		},
		Botanical: []taxonomy.Entry{
			{Kind: taxonomy.KindBotanical, CanonicalName: "Ginkgo Biloba", Aliases: []string{"ginkgo"}},
		},
	}
	return New(taxonomy.BuildIndexes(set), match.New(match.Options{}))
}

func TestClassifyBannedSuppressesEverything(t *testing.T) {
	c := newTestClassifier()
	got := c.Classify("Ephedra", nil)

	if !got.Banned.Banned {
		t.Fatal("expected banned classification")
	}
	if got.Banned.ListName != "permanently_banned" {
		t.Errorf("list = %q, want permanently_banned", got.Banned.ListName)
	}
	if got.Allergen.Allergen {
		t.Error("allergen info must be suppressed when banned")
	}
	if got.Passive.Passive {
		t.Error("passive info must be suppressed when banned")
	}
	if !got.Mapped {
		t.Error("banned ingredients are mapped")
	}
}

func TestClassifyHarmfulCoexistsWithAllergen(t *testing.T) {
	c := newTestClassifier()
	got := c.Classify("Carmine", nil)

	if !got.Harmful.Flagged {
		t.Fatal("expected harmful classification")
	}
	if got.Harmful.Category != "colorant" || got.Harmful.RiskLevel != "moderate" {
		t.Errorf("harmful = %+v, want colorant/moderate", got.Harmful)
	}
	if !got.Allergen.Allergen {
		t.Error("allergen status should coexist with harmful")
	}
	if got.NonHarmful.Flagged || got.Passive.Passive {
		t.Error("lower-priority classifications must be suppressed")
	}
}

func TestClassifyNonHarmfulCoexistsWithAllergen(t *testing.T) {
	c := newTestClassifier()
	got := c.Classify("Soy Lecithin", nil)

	if !got.NonHarmful.Flagged {
		t.Fatal("expected non-harmful classification")
	}
	if got.NonHarmful.CleanLabelScore != 7 {
		t.Errorf("clean label score = %d, want default 7", got.NonHarmful.CleanLabelScore)
	}
	if !got.Allergen.Allergen || got.Allergen.Type != "soy" {
		t.Errorf("allergen = %+v, want coexisting soy allergen", got.Allergen)
	}
}

func TestClassifyPassiveOnly(t *testing.T) {
	c := newTestClassifier()
	got := c.Classify("Magnesium Stearate", nil)

	if !got.Passive.Passive {
		t.Fatal("expected passive classification")
	}
	if got.Passive.Category != "flow_agent" {
		t.Errorf("category = %q, want flow_agent", got.Passive.Category)
	}
	if got.Harmful.Flagged || got.Allergen.Allergen {
		t.Errorf("unexpected higher-priority hits: %+v", got)
	}
}

func TestClassifyUnmappedRecordsVariations(t *testing.T) {
	c := newTestClassifier()
	got := c.Classify("Proprietary Zyzzite Complex", nil)

	if got.Mapped {
		t.Fatalf("Classify = %+v, want unmapped", got)
	}
	if len(got.VariationsTried) == 0 {
		t.Fatal("unmapped result must carry the variations tried")
	}
	if got.VariationsTried[0] != "proprietary zyzzite complex" {
		t.Errorf("first variation = %q, want preprocessed input", got.VariationsTried[0])
	}
}

func TestMapNutrient(t *testing.T) {
	c := newTestClassifier()

	got := c.MapNutrient("Vitamin B12", []string{"methyl b12"})
	if !got.Mapped || got.StandardName != "Vitamin B12" {
		t.Fatalf("MapNutrient = %+v, want mapped Vitamin B12", got)
	}
	if len(got.Forms) != 1 || got.Forms[0] != "Methylcobalamin" {
		t.Fatalf("forms = %v, want [Methylcobalamin]", got.Forms)
	}

	// Fuzzy resolution for a misspelled name.
	got = c.MapNutrient("Magnesum Citrate", nil)
	if !got.Mapped || got.StandardName != "Magnesium" {
		t.Fatalf("MapNutrient fuzzy = %+v, want Magnesium", got)
	}
}

func TestMapNutrientContextRules(t *testing.T) {
	c := newTestClassifier()

	// "cyanocobalamin" resolves to the Cyanocobalamin form; its exclude rule
	// vetoes the match when the label says methyl.
	got := c.MapNutrient("cyanocobalamin", nil)
	if !got.Mapped {
		t.Fatalf("MapNutrient = %+v, want mapped via cyano form", got)
	}

	got = c.MapNutrient("cyanocobalamin methyl blend", nil)
	if got.Mapped {
		t.Fatalf("MapNutrient = %+v, want rejection from exclude keyword", got)
	}
}

func TestClassifyBotanical(t *testing.T) {
	c := newTestClassifier()
	got := c.Classify("Ginkgo Biloba", nil)
	if !got.Botanical || !got.Mapped {
		t.Fatalf("Classify = %+v, want botanical and mapped", got)
	}
}

func TestClassifyResultsAreCached(t *testing.T) {
	c := newTestClassifier()
	first := c.Classify("Carmine", nil)
	second := c.Classify("Carmine", nil)
	if first.Harmful != second.Harmful || first.Mapped != second.Mapped {
		t.Fatalf("cached classification differs: %+v vs %+v", first, second)
	}
}

func TestClassifyCacheEvictsOldest(t *testing.T) {
	c := newTestClassifier()
	c.cacheSize = 3

	for _, name := range []string{"alpha compound", "beta compound", "gamma compound"} {
		c.Classify(name, nil)
	}
	if got := len(c.cache); got != 3 {
		t.Fatalf("cache length = %d, want the full bound of 3", got)
	}

	// A new name at capacity evicts the oldest entry and is itself cached.
	c.Classify("delta compound", nil)
	if got := len(c.cache); got != 3 {
		t.Fatalf("cache length = %d, want 3 after eviction", got)
	}
	if _, ok := c.cache["alpha compound\x00"]; ok {
		t.Error("oldest entry survived eviction")
	}
	if _, ok := c.cache["delta compound\x00"]; !ok {
		t.Error("new entry was not cached at capacity")
	}
}
