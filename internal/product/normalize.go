package product

import (
	"log/slog"
	"sync"

	"labelclean/internal/classify"
	"labelclean/internal/unmapped"
)

// Ingredient is one classified ingredient in a cleaned record.
type Ingredient struct {
	Name            string                  `json:"name"`
	StandardName    string                  `json:"standard_name"`
	Mapped          bool                    `json:"mapped"`
	Forms           []string                `json:"forms,omitempty"`
	Quantities      []Quantity              `json:"quantities,omitempty"`
	Notes           string                  `json:"notes,omitempty"`
	Order           int                     `json:"order"`
	Active          bool                    `json:"active"`
	ParentBlend     string                  `json:"parent_blend,omitempty"`
	IsNested        bool                    `json:"is_nested,omitempty"`
	DisclosureLevel string                  `json:"disclosure_level,omitempty"`
	Banned          classify.BannedInfo     `json:"banned_info"`
	Harmful         classify.HarmfulInfo    `json:"harmful_info"`
	NonHarmful      classify.NonHarmfulInfo `json:"non_harmful_info"`
	Allergen        classify.AllergenInfo   `json:"allergen_info"`
	Passive         classify.PassiveInfo    `json:"passive_info"`
	Botanical       bool                    `json:"botanical"`
}

// MappingStats summarizes taxonomy coverage for one record.
type MappingStats struct {
	TotalIngredients    int     `json:"total_ingredients"`
	MappedIngredients   int     `json:"mapped_ingredients"`
	UnmappedIngredients int     `json:"unmapped_ingredients"`
	MappingRate         float64 `json:"mapping_rate"`
}

// BlendStats summarizes proprietary blend disclosure for one record.
type BlendStats struct {
	TotalBlends        int `json:"total_blends"`
	FullyDisclosed     int `json:"fully_disclosed"`
	PartiallyDisclosed int `json:"partially_disclosed"`
	Undisclosed        int `json:"undisclosed"`
}

// Cleaned is the normalized output record for one product. It carries no
// timestamps: normalizing the same raw record always yields an identical
// Cleaned value.
type Cleaned struct {
	ID                   string       `json:"id"`
	FullName             string       `json:"full_name"`
	BrandName            string       `json:"brand_name"`
	UPCSKU               string       `json:"upc_sku"`
	UPCValid             bool         `json:"upc_valid"`
	ProductStatus        string       `json:"product_status"`
	ProductType          string       `json:"product_type"`
	PhysicalState        string       `json:"physical_state"`
	ServingsPerContainer int          `json:"servings_per_container"`
	Active               []Ingredient `json:"active_ingredients"`
	Inactive             []Ingredient `json:"inactive_ingredients"`
	MappingStats         MappingStats `json:"mapping_stats"`
	BlendStats           BlendStats   `json:"blend_stats"`
}

// NormalizerOptions tunes record normalization.
type NormalizerOptions struct {
	// SkipNutritionFacts drops nutrition-fact lines and label boilerplate
	// from ingredient rows instead of classifying them.
	SkipNutritionFacts bool
	// ParallelMinIngredients is the row count at which a single record's
	// ingredients are classified concurrently. Zero disables the parallel
	// path. The classifier and matcher caches are mutex-guarded, so
	// concurrent classification within one record is safe.
	ParallelMinIngredients int
}

// Normalizer turns raw records into cleaned ones. Each worker owns a
// Normalizer wrapping its own classifier; the unmapped accumulator may be
// shared (it is concurrency safe).
type Normalizer struct {
	classifier *classify.Classifier
	acc        *unmapped.Accumulator
	opts       NormalizerOptions
	log        *slog.Logger
}

// NewNormalizer builds a Normalizer. acc may be nil when unmapped tracking
// is not wanted (dry runs).
func NewNormalizer(classifier *classify.Classifier, acc *unmapped.Accumulator, opts NormalizerOptions, logger *slog.Logger) *Normalizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Normalizer{classifier: classifier, acc: acc, opts: opts, log: logger}
}

// Normalize flattens, classifies, and scores one raw record. The raw record
// is never modified.
func (n *Normalizer) Normalize(raw *Raw) *Cleaned {
	cleaned := &Cleaned{
		ID:                   raw.ID.String(),
		FullName:             raw.FullName,
		BrandName:            raw.BrandName,
		UPCSKU:               raw.UPCSKU,
		UPCValid:             ValidUPCSKU(raw.UPCSKU),
		ProductStatus:        productStatus(raw.OffMarket),
		ProductType:          raw.ProductType.Description,
		PhysicalState:        raw.PhysicalState.Description,
		ServingsPerContainer: raw.Servings(),
	}

	active := FlattenRows(raw.IngredientRows)
	inactive := raw.OtherIngredients.Ingredients
	if n.opts.SkipNutritionFacts {
		active = dropNutritionFacts(active)
		inactive = dropNutritionRows(inactive)
	}

	cleaned.Active, cleaned.Inactive = n.classifyRows(active, inactive)
	cleaned.MappingStats = n.mappingStats(cleaned)
	cleaned.BlendStats = blendStats(cleaned)
	return cleaned
}

// classifyRows builds every ingredient, concurrently when the record is
// large enough to make it worthwhile. Output ordering matches input ordering
// either way.
func (n *Normalizer) classifyRows(active []FlatRow, inactive []Row) ([]Ingredient, []Ingredient) {
	total := len(active) + len(inactive)
	if total == 0 {
		return nil, nil
	}

	activeOut := make([]Ingredient, len(active))
	inactiveOut := make([]Ingredient, len(inactive))

	if n.opts.ParallelMinIngredients <= 0 || total < n.opts.ParallelMinIngredients {
		for i, flat := range active {
			activeOut[i] = n.buildIngredient(flat, true)
		}
		for i, row := range inactive {
			inactiveOut[i] = n.buildIngredient(FlatRow{Row: row}, false)
		}
		return activeOut, inactiveOut
	}

	var wg sync.WaitGroup
	for i, flat := range active {
		i, flat := i, flat
		wg.Add(1)
		go func() {
			defer wg.Done()
			activeOut[i] = n.buildIngredient(flat, true)
		}()
	}
	for i, row := range inactive {
		i, row := i, row
		wg.Add(1)
		go func() {
			defer wg.Done()
			inactiveOut[i] = n.buildIngredient(FlatRow{Row: row}, false)
		}()
	}
	wg.Wait()
	return activeOut, inactiveOut
}

func dropNutritionFacts(rows []FlatRow) []FlatRow {
	kept := rows[:0:0]
	for _, row := range rows {
		if IsNutritionFact(row.Row.Name) {
			continue
		}
		kept = append(kept, row)
	}
	return kept
}

func dropNutritionRows(rows []Row) []Row {
	kept := rows[:0:0]
	for _, row := range rows {
		if IsNutritionFact(row.Name) {
			continue
		}
		kept = append(kept, row)
	}
	return kept
}

func (n *Normalizer) buildIngredient(flat FlatRow, active bool) Ingredient {
	row := flat.Row
	result := n.classifier.Classify(row.Name, row.Forms)

	ing := Ingredient{
		Name:        row.Name,
		Mapped:      result.Mapped,
		Quantities:  row.Quantities,
		Notes:       row.Notes,
		Order:       row.Order,
		Active:      active,
		ParentBlend: flat.ParentBlend,
		IsNested:    flat.IsNested,
		Banned:      result.Banned,
		Harmful:     result.Harmful,
		NonHarmful:  result.NonHarmful,
		Allergen:    result.Allergen,
		Passive:     result.Passive,
		Botanical:   result.Botanical,
	}
	if result.Nutrient.Mapped {
		ing.StandardName = result.Nutrient.StandardName
		ing.Forms = result.Nutrient.Forms
	} else {
		ing.StandardName = row.Name
		ing.Forms = row.Forms
	}
	if level, ok := Disclosure(row); ok {
		ing.DisclosureLevel = level
	}

	// Nutrition facts never reach the curation reports, even when they are
	// kept in the output.
	if !result.Mapped && n.acc != nil && !IsNutritionFact(row.Name) {
		n.acc.Add(row.Name, active, result.VariationsTried)
	}
	return ing
}

func (n *Normalizer) mappingStats(cleaned *Cleaned) MappingStats {
	stats := MappingStats{
		TotalIngredients: len(cleaned.Active) + len(cleaned.Inactive),
	}
	for _, ing := range cleaned.Active {
		if ing.Mapped {
			stats.MappedIngredients++
		}
	}
	for _, ing := range cleaned.Inactive {
		if ing.Mapped {
			stats.MappedIngredients++
		}
	}
	stats.UnmappedIngredients = stats.TotalIngredients - stats.MappedIngredients
	if stats.TotalIngredients > 0 {
		stats.MappingRate = float64(stats.MappedIngredients) / float64(stats.TotalIngredients) * 100
	} else {
		stats.MappingRate = 100
	}
	return stats
}

func blendStats(cleaned *Cleaned) BlendStats {
	var stats BlendStats
	for _, ing := range append(append([]Ingredient{}, cleaned.Active...), cleaned.Inactive...) {
		switch ing.DisclosureLevel {
		case DisclosureFull:
			stats.FullyDisclosed++
		case DisclosurePartial:
			stats.PartiallyDisclosed++
		case DisclosureNone:
			stats.Undisclosed++
		default:
			continue
		}
		stats.TotalBlends++
	}
	return stats
}

func productStatus(offMarket int) string {
	if offMarket == 1 {
		return "discontinued"
	}
	return "active"
}
