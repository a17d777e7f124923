package match

import (
	"regexp"
	"strconv"
	"strings"
)

// dosageRe captures the first amount+unit pair in a string, e.g. "1000 iu".
var dosageRe = regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*(mg|mcg|iu|g|units?|billion|million)`)

// dangerousUnitPairs lists unit families that must never fuzzy-match each
// other regardless of how close the numbers look. mg/g and mcg/mg are
// convertible on paper but a magnitude mix-up there is exactly the mistake
// the guard exists to catch.
var dangerousUnitPairs = [][2]string{
	{"iu", "mcg"},
	{"iu", "mg"},
	{"mg", "g"},
	{"mcg", "mg"},
	{"billion", "million"},
}

// blacklistPairs holds substring pairs denoting materially different
// substances. A fuzzy match is rejected when one side of the pair appears in
// the query and the other in the candidate, in either direction. Halves are
// spelled as they appear after preprocessing, which strips isomer prefixes
// such as "l-" from the start of a name.
var blacklistPairs = [][2]string{
	// Natural vs synthetic.
	{"natural", "artificial"},
	{"organic", "synthetic"},
	{"whole", "isolated"},
	{"extract", "synthetic"},
	// Different products of the same food source.
	{"corn starch", "corn syrup"},
	{"corn flour", "corn syrup"},
	{"wheat flour", "wheat protein"},
	{"soy oil", "soy protein"},
	{"milk powder", "milk protein"},
	{"rice bran", "rice protein"},
	{"pea fiber", "pea protein"},
	// Sugars vs sugar alcohols.
	{"sugar", "sugar alcohol"},
	{"glucose", "mannitol"},
	{"glucose", "sorbitol"},
	{"fructose", "erythritol"},
	{"sucrose", "xylitol"},
	// Different vitamin chemical forms.
	{"vitamin d", "vitamin d2"},
	{"vitamin d", "vitamin d3"},
	{"vitamin b12", "methylcobalamin"},
	{"vitamin b12", "cyanocobalamin"},
	{"vitamin k", "vitamin k2"},
	{"vitamin e", "alpha tocopherol"},
	{"folate", "folic acid"},
	{"beta carotene", "vitamin a"},
	// Different fatty acids.
	{"omega 3", "omega 6"},
	{"omega 3", "omega 9"},
	{"epa", "dha"},
	{"linoleic acid", "linolenic acid"},
	// Gut health lookalikes.
	{"probiotic", "prebiotic"},
	{"lactose", "lactase"},
	{"digestive enzyme", "probiotic"},
	{"fiber", "probiotic"},
	// Amino acids vs similar compounds.
	{"glucose", "glucosamine"},
	{"glycine", "glycerol"},
	{"taurine", "tyrosine"},
	{"arginine", "ornithine"},
	{"lysine", "glycine"},
	{"methionine", "metformin"},
	// Elemental minerals vs specific salts.
	{"calcium", "calcium carbonate"},
	{"magnesium", "magnesium oxide"},
	{"iron", "iron sulfate"},
	{"zinc", "zinc oxide"},
	{"chromium", "chromium picolinate"},
	// Acid vs salt forms.
	{"folic acid", "folinic acid"},
	{"citric acid", "citrate"},
	{"lactic acid", "lactate"},
	{"ascorbic acid", "ascorbate"},
	{"malic acid", "malate"},
	// Whole herb vs isolated compound.
	{"ginkgo", "ginkgo extract"},
	{"ginseng", "ginseng extract"},
	{"turmeric", "curcumin"},
	{"milk thistle", "silymarin"},
	{"green tea", "egcg"},
	{"grape seed", "resveratrol"},
	// Stimulants vs non-stimulants.
	{"caffeine", "theanine"},
	{"guarana", "gaba"},
	{"ephedra", "echinacea"},
	// Hormones vs precursors.
	{"melatonin", "tryptophan"},
	{"testosterone", "tribulus"},
	{"dhea", "dha"},
	{"growth hormone", "arginine"},
	// Antioxidants with different mechanisms.
	{"vitamin c", "vitamin e"},
	{"coq10", "alpha lipoic acid"},
	{"glutathione", "n-acetyl cysteine"},
	{"selenium", "sulfur"},
	// Joint support compounds.
	{"glucosamine", "chondroitin"},
	{"msm", "dmso"},
	{"collagen", "gelatin"},
	{"hyaluronic acid", "chondroitin"},
	// Cognitive compounds.
	{"ginkgo", "gaba"},
	{"phosphatidylserine", "phosphatidylcholine"},
	{"acetyl l-carnitine", "l-carnitine"},
	{"dmae", "choline"},
	// Energy and metabolism.
	{"creatine", "carnitine"},
	{"pyruvate", "citrate"},
	{"ribose", "glucose"},
	{"chromium", "vanadium"},
}

// guard rejects fuzzy matches between strings that denote different
// substances, dosages, or unit families.
type guard struct {
	dosageTolerance float64
}

// Rejects reports whether a fuzzy match from query to target must be
// discarded. Both inputs are expected lowercase.
func (g guard) Rejects(query, target string) bool {
	return g.dosageConflict(query, target) ||
		unitFamilyConflict(query, target) ||
		blacklisted(query, target)
}

// dosageConflict reports whether both strings carry dosages whose normalized
// amounts differ by more than the configured tolerance.
func (g guard) dosageConflict(query, target string) bool {
	qAmount, qUnit, qOK := parseDosage(query)
	tAmount, tUnit, tOK := parseDosage(target)
	if !qOK || !tOK {
		return false
	}
	qNorm := normalizeAmount(qAmount, qUnit)
	tNorm := normalizeAmount(tAmount, tUnit)
	if qNorm == 0 && tNorm == 0 {
		return false
	}
	diff := qNorm - tNorm
	if diff < 0 {
		diff = -diff
	}
	return diff/max(qNorm, tNorm) > g.dosageTolerance
}

// parseDosage extracts the first amount+unit pair from s.
func parseDosage(s string) (float64, string, bool) {
	m := dosageRe.FindStringSubmatch(s)
	if m == nil {
		return 0, "", false
	}
	amount, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, "", false
	}
	return amount, strings.ToLower(m[2]), true
}

// normalizeAmount converts mass units to milligrams. IU and count-based
// potency units have no universal mass conversion, so their amounts compare
// at face value.
func normalizeAmount(amount float64, unit string) float64 {
	switch unit {
	case "mcg":
		return amount / 1000
	case "g":
		return amount * 1000
	default:
		return amount
	}
}

// unitFamilyConflict reports whether the two strings dose in units from
// incompatible families.
func unitFamilyConflict(query, target string) bool {
	_, qUnit, qOK := parseDosage(query)
	_, tUnit, tOK := parseDosage(target)
	if !qOK || !tOK {
		return false
	}
	for _, pair := range dangerousUnitPairs {
		if (qUnit == pair[0] && tUnit == pair[1]) || (qUnit == pair[1] && tUnit == pair[0]) {
			return true
		}
	}
	return false
}

// blacklisted reports whether query and target each contain one half of a
// curated different-substance pair, checked in both directions.
func blacklisted(query, target string) bool {
	for _, pair := range blacklistPairs {
		if strings.Contains(query, pair[0]) && strings.Contains(target, pair[1]) {
			return true
		}
		if strings.Contains(query, pair[1]) && strings.Contains(target, pair[0]) {
			return true
		}
	}
	return false
}
