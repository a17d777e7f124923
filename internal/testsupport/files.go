// Package testsupport provides shared fixtures for package tests: temp-dir
// configs, minimal reference taxonomy files, and sample product records.
package testsupport

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"
)

// Reference taxonomy fixtures. Small but shaped exactly like production
// files, so loader and engine tests run against the real decode path.
var referenceFixtures = map[string]string{
	"ingredient_quality_map.json": `{
  "vitamin c": {
    "standard_name": "Vitamin C",
    "forms": {
      "ascorbic acid": {"aliases": ["l-ascorbic acid"], "natural": false, "bio_score": 6}
    }
  },
  "magnesium": {"standard_name": "Magnesium", "forms": {}}
}`,
	"harmful_additives.json": `{
  "harmful_additives": [
    {"standard_name": "Titanium Dioxide", "aliases": ["tio2", "ci 77891"], "category": "colorant", "risk_level": "medium"}
  ]
}`,
	"non_harmful_additives.json": `{
  "non_harmful_additives": [
    {"standard_name": "Citric Acid", "aliases": ["e330"], "category": "preservative", "additive_type": "acidulant", "clean_label_score": 8}
  ]
}`,
	"allergens.json": `{
  "common_allergens": [
    {"standard_name": "Soy", "aliases": ["soy lecithin", "soybean"], "severity_level": "moderate"}
  ]
}`,
	"banned_recalled_ingredients.json": `{
  "permanently_banned": [
    {"standard_name": "Ephedra", "aliases": ["ma huang", "ephedrine"]}
  ]
}`,
	"passive_inactive_ingredients.json": `{
  "passive_inactive_ingredients": [
    {"standard_name": "Magnesium Stearate", "aliases": ["vegetable stearate"], "category": "flow agent"},
    {"standard_name": "Silicon Dioxide", "aliases": [], "category": "anti-caking"}
  ]
}`,
	"botanical_ingredients.json": `{
  "botanical_ingredients": [
    {"standard_name": "Ginkgo Biloba", "aliases": ["ginkgo"]}
  ]
}`,
}

// WriteReferenceFixture writes a loadable set of all seven reference
// taxonomy files into dir.
func WriteReferenceFixture(t testing.TB, dir string) {
	t.Helper()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("create reference dir: %v", err)
	}
	for name, body := range referenceFixtures {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
			t.Fatalf("write reference fixture %s: %v", name, err)
		}
	}
}

// SampleProduct returns a complete raw product document as a JSON-ready map.
// The id distinguishes products written by the same test.
func SampleProduct(id int) map[string]any {
	return map[string]any{
		"id":        fmt.Sprintf("%d", id),
		"fullName":  fmt.Sprintf("Test Product %d", id),
		"brandName": "Test Brand",
		"upcSku":    "012345678905",
		"productType": map[string]any{
			"langualCodeDescription": "Supplement",
		},
		"physicalState": map[string]any{
			"langualCodeDescription": "Tablet",
		},
		"servingsPerContainer": 30,
		"offMarket":            0,
		"ingredientRows": []map[string]any{
			{
				"name":  "Vitamin C",
				"order": 1,
				"quantity": []map[string]any{
					{"value": 500.0, "unit": "mg"},
				},
			},
			{
				"name":  "Unmappable Compound X",
				"order": 2,
			},
		},
		"otheringredients": map[string]any{
			"ingredients": []map[string]any{
				{"name": "Magnesium Stearate", "order": 3},
			},
		},
	}
}

// WriteProductFile marshals one product document to path.
func WriteProductFile(t testing.TB, path string, doc any) {
	t.Helper()
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		t.Fatalf("marshal product: %v", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("create input dir: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write product file %s: %v", path, err)
	}
}

// WriteProducts writes count sample products into dir, one file each, named
// product-0001.json onward. Returns the file paths in name order.
func WriteProducts(t testing.TB, dir string, count int) []string {
	t.Helper()
	paths := make([]string, 0, count)
	for i := 0; i < count; i++ {
		path := filepath.Join(dir, fmt.Sprintf("product-%04d.json", i+1))
		WriteProductFile(t, path, SampleProduct(i+1))
		paths = append(paths, path)
	}
	return paths
}
