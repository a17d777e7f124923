package taxonomy

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"labelclean/internal/pipeline"
)

func writeReference(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func writeMinimalSet(t *testing.T, dir string) {
	t.Helper()
	writeReference(t, dir, "ingredient_quality_map.json", `{
		"Vitamin C": {
			"standard_name": "Vitamin C",
			"forms": {
				"Ascorbic Acid": {"aliases": ["l-ascorbic acid"], "natural": false, "bio_score": 7.0}
			}
		}
	}`)
	writeReference(t, dir, "harmful_additives.json", `{
		"harmful_additives": [
			{"standard_name": "Titanium Dioxide", "aliases": ["tio2"], "category": "colorant", "risk_level": "high"}
		]
	}`)
	writeReference(t, dir, "non_harmful_additives.json", `{
		"non_harmful_additives": [
			{"standard_name": "Citric Acid", "aliases": [], "category": "preservative", "additive_type": "acidulant", "clean_label_score": 8}
		]
	}`)
	writeReference(t, dir, "allergens.json", `{
		"common_allergens": [
			{"standard_name": "Soy", "aliases": ["soybean"], "severity_level": "moderate"}
		]
	}`)
	writeReference(t, dir, "banned_recalled_ingredients.json", `{
		"permanently_banned": [
			{"standard_name": "Ephedra", "aliases": ["ma huang"]}
		],
		"wada_prohibited_2024": [
			{"standard_name": "Ostarine", "aliases": []}
		]
	}`)
	writeReference(t, dir, "passive_inactive_ingredients.json", `{
		"passive_inactive_ingredients": [
			{"standard_name": "Magnesium Stearate", "aliases": ["vegetable stearate"], "category": "flow_agent"}
		]
	}`)
	writeReference(t, dir, "botanical_ingredients.json", `{
		"botanical_ingredients": [
			{"standard_name": "Ginkgo Biloba", "aliases": ["ginkgo"]}
		]
	}`)
}

func TestLoadSet(t *testing.T) {
	dir := t.TempDir()
	writeMinimalSet(t, dir)

	set, err := LoadSet(dir)
	if err != nil {
		t.Fatalf("LoadSet: %v", err)
	}

	counts := set.Counts()
	want := map[Kind]int{
		KindNutrient:   1,
		KindHarmful:    1,
		KindNonHarmful: 1,
		KindAllergen:   1,
		KindBanned:     2,
		KindPassive:    1,
		KindBotanical:  1,
	}
	for kind, n := range want {
		if counts[kind] != n {
			t.Errorf("%s count = %d, want %d", kind, counts[kind], n)
		}
	}

	if got := set.Nutrients[0].Forms[0].Name; got != "Ascorbic Acid" {
		t.Errorf("nutrient form = %q, want Ascorbic Acid", got)
	}
	if got := set.Harmful[0].RiskLevel; got != "high" {
		t.Errorf("harmful risk level = %q, want high", got)
	}
	if got := set.Banned[0].ListName; got != "permanently_banned" {
		t.Errorf("banned list = %q, want permanently_banned", got)
	}
	if got := set.Banned[1].ListName; got != "wada_prohibited_2024" {
		t.Errorf("banned list = %q, want wada_prohibited_2024", got)
	}
}

func TestLoadSetYAML(t *testing.T) {
	dir := t.TempDir()
	writeMinimalSet(t, dir)

	// Replace one file with a YAML equivalent; the loader should pick it up.
	if err := os.Remove(filepath.Join(dir, "allergens.json")); err != nil {
		t.Fatal(err)
	}
	writeReference(t, dir, "allergens.yaml", `
common_allergens:
  - standard_name: Wheat
    aliases: [gluten]
    severity_level: severe
`)

	set, err := LoadSet(dir)
	if err != nil {
		t.Fatalf("LoadSet: %v", err)
	}
	if len(set.Allergens) != 1 || set.Allergens[0].CanonicalName != "Wheat" {
		t.Fatalf("allergens = %+v, want single Wheat entry", set.Allergens)
	}
	if set.Allergens[0].Severity != "severe" {
		t.Fatalf("severity = %q, want severe", set.Allergens[0].Severity)
	}
}

func TestLoadSetMissingFile(t *testing.T) {
	dir := t.TempDir()
	writeMinimalSet(t, dir)
	if err := os.Remove(filepath.Join(dir, "harmful_additives.json")); err != nil {
		t.Fatal(err)
	}

	_, err := LoadSet(dir)
	if err == nil {
		t.Fatal("LoadSet succeeded with missing file")
	}
	if !errors.Is(err, pipeline.ErrReferenceData) {
		t.Fatalf("error = %v, want ErrReferenceData", err)
	}
}

func TestLoadSetMalformedFile(t *testing.T) {
	dir := t.TempDir()
	writeMinimalSet(t, dir)
	writeReference(t, dir, "botanical_ingredients.json", `{"botanical_ingredients": [`)

	_, err := LoadSet(dir)
	if err == nil {
		t.Fatal("LoadSet succeeded with malformed file")
	}
	if !errors.Is(err, pipeline.ErrReferenceData) {
		t.Fatalf("error = %v, want ErrReferenceData", err)
	}
}

func TestFormAllows(t *testing.T) {
	cases := []struct {
		name    string
		form    Form
		context string
		want    bool
	}{
		{"no rules accepts", Form{}, "anything at all", true},
		{
			"exclude hit rejects",
			Form{ContextExclude: []string{"oxide"}},
			"magnesium oxide 400 mg", false,
		},
		{
			"include hit accepts",
			Form{ContextInclude: []string{"citrate"}},
			"magnesium citrate 200 mg", true,
		},
		{
			"include rules without hit reject",
			Form{ContextInclude: []string{"citrate"}},
			"magnesium 200 mg", false,
		},
		{
			"exclude-only rules without hit accept",
			Form{ContextExclude: []string{"oxide"}},
			"magnesium citrate", true,
		},
		{
			"exclude beats include",
			Form{ContextInclude: []string{"magnesium"}, ContextExclude: []string{"oxide"}},
			"magnesium oxide", false,
		},
		{
			"word boundaries respected",
			Form{ContextExclude: []string{"ox"}},
			"magnesium oxide", true,
		},
		{
			"case insensitive",
			Form{ContextInclude: []string{"Citrate"}},
			"MAGNESIUM CITRATE", true,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.form.Allows(tc.context); got != tc.want {
				t.Fatalf("Allows(%q) = %v, want %v", tc.context, got, tc.want)
			}
		})
	}
}
