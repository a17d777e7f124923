// Package classify resolves a single ingredient name against every taxonomy
// and merges the results under a strict priority order: banned > harmful >
// non-harmful > allergen > passive. Allergen status may coexist with harmful
// or non-harmful classifications but is suppressed by banned status.
package classify

import (
	"strings"
	"sync"

	"labelclean/internal/match"
	"labelclean/internal/taxonomy"
	"labelclean/internal/textnorm"
)

// BannedInfo reports a banned/recalled hit.
type BannedInfo struct {
	Banned   bool   `json:"banned"`
	ListName string `json:"list_name,omitempty"`
	Name     string `json:"name,omitempty"`
}

// HarmfulInfo reports a harmful-additive hit.
type HarmfulInfo struct {
	Flagged   bool   `json:"flagged"`
	Category  string `json:"category,omitempty"`
	RiskLevel string `json:"risk_level,omitempty"`
}

// NonHarmfulInfo reports a recognized-but-safe additive hit.
type NonHarmfulInfo struct {
	Flagged         bool   `json:"flagged"`
	Category        string `json:"category,omitempty"`
	AdditiveType    string `json:"additive_type,omitempty"`
	CleanLabelScore int    `json:"clean_label_score,omitempty"`
}

// AllergenInfo reports an allergen hit.
type AllergenInfo struct {
	Allergen bool   `json:"allergen"`
	Type     string `json:"type,omitempty"`
	Severity string `json:"severity,omitempty"`
}

// PassiveInfo reports a passive/inactive excipient hit.
type PassiveInfo struct {
	Passive  bool   `json:"passive"`
	Category string `json:"category,omitempty"`
}

// NutrientMapping is the result of resolving an active ingredient against
// the nutrient quality taxonomy.
type NutrientMapping struct {
	StandardName string   `json:"standard_name"`
	Mapped       bool     `json:"mapped"`
	Forms        []string `json:"forms,omitempty"`
}

// Classification is the merged multi-taxonomy result for one ingredient.
// Mapped is true iff at least one taxonomy produced a positive match. When
// nothing matched, VariationsTried carries the lookup variants attempted so
// unmapped tracking can surface them for curation.
type Classification struct {
	Name            string          `json:"name"`
	Mapped          bool            `json:"mapped"`
	Banned          BannedInfo      `json:"banned_info"`
	Harmful         HarmfulInfo     `json:"harmful_info"`
	NonHarmful      NonHarmfulInfo  `json:"non_harmful_info"`
	Allergen        AllergenInfo    `json:"allergen_info"`
	Passive         PassiveInfo     `json:"passive_info"`
	Botanical       bool            `json:"botanical"`
	Nutrient        NutrientMapping `json:"nutrient"`
	VariationsTried []string        `json:"-"`
}

const classificationCacheSize = 50000

// Classifier runs taxonomy lookups for ingredient names. Each Classifier
// owns its matcher caches, so workers build their own instance and share
// only the read-only index set.
type Classifier struct {
	indexes   *taxonomy.IndexSet
	matcher   *match.Matcher
	cacheSize int

	mu    sync.Mutex
	cache map[string]Classification
	order []string
}

// New builds a Classifier over the given indexes.
func New(indexes *taxonomy.IndexSet, matcher *match.Matcher) *Classifier {
	return &Classifier{
		indexes:   indexes,
		matcher:   matcher,
		cacheSize: classificationCacheSize,
		cache:     make(map[string]Classification),
	}
}

// Classify resolves name against every taxonomy and applies the priority
// merge. forms are label-declared sub-forms considered during nutrient and
// allergen resolution. Results are cached per (name, forms); at capacity the
// oldest tenth of the entries is evicted in insertion order.
func (c *Classifier) Classify(name string, forms []string) Classification {
	key := name + "\x00" + strings.Join(forms, "\x00")
	c.mu.Lock()
	if cached, ok := c.cache[key]; ok {
		c.mu.Unlock()
		return cached
	}
	c.mu.Unlock()

	result := c.classify(name, forms)

	c.mu.Lock()
	if _, ok := c.cache[key]; !ok {
		if len(c.cache) >= c.cacheSize {
			c.evictOldest()
		}
		c.cache[key] = result
		c.order = append(c.order, key)
	}
	c.mu.Unlock()
	return result
}

// evictOldest drops the oldest tenth of the cache, at least one entry.
// Callers must hold mu.
func (c *Classifier) evictOldest() {
	drop := c.cacheSize / 10
	if drop < 1 {
		drop = 1
	}
	if drop > len(c.order) {
		drop = len(c.order)
	}
	for _, key := range c.order[:drop] {
		delete(c.cache, key)
	}
	c.order = append(c.order[:0], c.order[drop:]...)
}

func (c *Classifier) classify(name string, forms []string) Classification {
	result := Classification{Name: name}

	banned := c.CheckBanned(name)
	harmful := c.CheckHarmful(name)
	nonHarmful := c.CheckNonHarmful(name)
	allergen := c.CheckAllergen(name, forms)
	passive := c.CheckPassive(name)

	switch {
	case banned.Banned:
		// Highest priority: everything else is suppressed, allergen
		// included.
		result.Banned = banned
	case harmful.Flagged:
		result.Harmful = harmful
		result.Allergen = allergen
	case nonHarmful.Flagged:
		result.NonHarmful = nonHarmful
		result.Allergen = allergen
	case allergen.Allergen:
		result.Allergen = allergen
	case passive.Passive:
		result.Passive = passive
	}

	result.Nutrient = c.MapNutrient(name, forms)
	result.Botanical = c.CheckBotanical(name)

	result.Mapped = banned.Banned || harmful.Flagged || nonHarmful.Flagged ||
		allergen.Allergen || passive.Passive || result.Nutrient.Mapped || result.Botanical

	if !result.Mapped {
		result.VariationsTried = textnorm.GenerateVariations(textnorm.Preprocess(name))
	}
	return result
}

// resolve performs the exact-then-fuzzy lookup shared by every check.
func (c *Classifier) resolve(kind taxonomy.Kind, name string) (taxonomy.Ref, bool) {
	idx := c.indexes.Index(kind)
	processed := textnorm.Preprocess(name)
	if processed == "" {
		return taxonomy.Ref{}, false
	}
	if ref, ok := idx.Lookup(processed); ok {
		return ref, true
	}
	if best := c.matcher.Best(processed, idx.Variants()); best.Target != "" {
		return idx.Lookup(best.Target)
	}
	return taxonomy.Ref{}, false
}

// CheckBanned reports whether name appears on any banned/recalled list.
func (c *Classifier) CheckBanned(name string) BannedInfo {
	ref, ok := c.resolve(taxonomy.KindBanned, name)
	if !ok {
		return BannedInfo{}
	}
	return BannedInfo{
		Banned:   true,
		ListName: ref.Entry.ListName,
		Name:     ref.Entry.CanonicalName,
	}
}

// CheckHarmful reports whether name is a known harmful additive.
func (c *Classifier) CheckHarmful(name string) HarmfulInfo {
	ref, ok := c.resolve(taxonomy.KindHarmful, name)
	if !ok {
		return HarmfulInfo{}
	}
	return HarmfulInfo{
		Flagged:   true,
		Category:  categoryOr(ref.Entry.Category, "other"),
		RiskLevel: categoryOr(ref.Entry.RiskLevel, "low"),
	}
}

// CheckNonHarmful reports whether name is a recognized safe additive.
func (c *Classifier) CheckNonHarmful(name string) NonHarmfulInfo {
	ref, ok := c.resolve(taxonomy.KindNonHarmful, name)
	if !ok {
		return NonHarmfulInfo{}
	}
	info := NonHarmfulInfo{
		Flagged:      true,
		Category:     categoryOr(ref.Entry.Category, "other"),
		AdditiveType: categoryOr(ref.Entry.AdditiveType, "unknown"),
	}
	if info.CleanLabelScore = ref.Entry.CleanLabelScore; info.CleanLabelScore == 0 {
		info.CleanLabelScore = 7
	}
	return info
}

// CheckAllergen checks name and each declared form against the allergen
// taxonomy.
func (c *Classifier) CheckAllergen(name string, forms []string) AllergenInfo {
	for _, term := range append([]string{name}, forms...) {
		ref, ok := c.resolve(taxonomy.KindAllergen, term)
		if !ok {
			continue
		}
		return AllergenInfo{
			Allergen: true,
			Type:     strings.ToLower(ref.Entry.CanonicalName),
			Severity: categoryOr(ref.Entry.Severity, "low"),
		}
	}
	return AllergenInfo{}
}

// CheckPassive reports whether name is a passive/inactive excipient.
func (c *Classifier) CheckPassive(name string) PassiveInfo {
	ref, ok := c.resolve(taxonomy.KindPassive, name)
	if !ok {
		return PassiveInfo{}
	}
	return PassiveInfo{
		Passive:  true,
		Category: categoryOr(ref.Entry.Category, "passive_ingredient"),
	}
}

// CheckBotanical reports whether name is a recognized botanical.
func (c *Classifier) CheckBotanical(name string) bool {
	_, ok := c.resolve(taxonomy.KindBotanical, name)
	return ok
}

// MapNutrient resolves an active ingredient to its canonical nutrient name
// and sub-forms. Context disambiguation rules on the matched form are
// evaluated against the original, unpreprocessed name; an exact hit whose
// disambiguation fails falls through to fuzzy matching before giving up.
func (c *Classifier) MapNutrient(name string, forms []string) NutrientMapping {
	idx := c.indexes.Index(taxonomy.KindNutrient)
	processed := textnorm.Preprocess(name)
	if processed == "" {
		return NutrientMapping{StandardName: name}
	}

	context := strings.ToLower(name)
	if ref, ok := idx.Lookup(processed); ok {
		if ref.Form == nil || !ref.Form.HasContextRules() || ref.Form.Allows(context) {
			return NutrientMapping{
				StandardName: ref.Entry.CanonicalName,
				Mapped:       true,
				Forms:        c.mapForms(forms),
			}
		}
	}

	if best := c.matcher.Best(processed, idx.Variants()); best.Target != "" {
		if ref, ok := idx.Lookup(best.Target); ok {
			if ref.Form == nil || !ref.Form.HasContextRules() || ref.Form.Allows(context) {
				return NutrientMapping{
					StandardName: ref.Entry.CanonicalName,
					Mapped:       true,
					Forms:        c.mapForms(forms),
				}
			}
		}
	}

	return NutrientMapping{StandardName: name}
}

// mapForms resolves declared form strings to canonical form names where the
// nutrient index knows them; unresolvable forms pass through unchanged.
func (c *Classifier) mapForms(forms []string) []string {
	if len(forms) == 0 {
		return nil
	}
	idx := c.indexes.Index(taxonomy.KindNutrient)
	mapped := make([]string, 0, len(forms))
	resolvedAny := false
	for _, form := range forms {
		processed := textnorm.Preprocess(form)
		if ref, ok := idx.Lookup(processed); ok && ref.Form != nil {
			mapped = append(mapped, ref.Form.Name)
			resolvedAny = true
			continue
		}
		if best := c.matcher.Best(processed, idx.Variants()); best.Target != "" {
			if ref, ok := idx.Lookup(best.Target); ok && ref.Form != nil {
				mapped = append(mapped, ref.Form.Name)
				resolvedAny = true
				continue
			}
		}
		mapped = append(mapped, form)
	}
	if !resolvedAny {
		return forms
	}
	return mapped
}

func categoryOr(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
