package product

import (
	"regexp"
	"strings"

	"labelclean/internal/textnorm"
)

// Nutrition-fact rows and label boilerplate appear inside ingredientRows on
// many labels but are not supplement ingredients. They are excluded from
// classification and from unmapped tracking.
var excludedNutritionFacts = map[string]struct{}{
	"calories": {}, "energy": {}, "kcal": {}, "cal": {},
	"total fat": {}, "fat": {}, "saturated fat": {}, "trans fat": {},
	"polyunsaturated fat": {}, "monounsaturated fat": {},
	"cholesterol": {}, "total cholesterol": {}, "dietary cholesterol": {},
	"total carbohydrates": {}, "carbohydrates": {}, "carbs": {},
	"total carbs": {}, "total carbohydrate": {},
	"dietary fiber": {}, "fiber": {}, "soluble fiber": {}, "insoluble fiber": {},
	"sugars": {}, "total sugars": {}, "added sugars": {}, "sugar": {}, "natural sugars": {},
	"sugar alcohols": {}, "sugar alcohol": {}, "polyols": {},
	"protein": {}, "total protein": {}, "proteins": {},
	"water": {}, "moisture": {},
	"sodium": {}, "salt": {}, "sodium chloride": {},
	"serving size": {}, "servings per container": {}, "amount per serving": {},
}

var excludedLabelPhrases = map[string]struct{}{
	"contains <2% of:": {}, "contains <2% of": {}, "contains < 2% of": {},
	"contains 2% or less of the following": {}, "contains less than 2% of": {},
	"contains less than 2% of the following": {}, "contains 2% or less of": {},
	"less than 2% of": {}, "less than 2%": {}, "<2% of": {},
	"less than 2% of:": {}, "contains less than 2%": {}, "less than 1% of": {},
	"other carbohydrates": {}, "other carbohydrate": {}, "other carbs": {},
	"may contain one or more of the following": {}, "may contain one or more of the following:": {},
	"may contain": {}, "contains one or more of the following": {},
	"calories from fat": {}, "calories from saturated fat": {},
	"flavor, natural": {}, "artificial and natural flavorings": {},
	"water, purified": {},
	"other ingredients": {}, "inactive ingredients": {}, "active ingredients": {},
	"contains": {}, "includes": {}, "consisting of": {}, "also contains": {},
}

// Percentage headers survive preprocessing in many spellings; the pattern
// checks catch what the exact sets miss.
var percentagePatterns = []*regexp.Regexp{
	regexp.MustCompile(`less\s+than\s+\d+%`),
	regexp.MustCompile(`contains?\s+less\s+than\s+\d+%`),
	regexp.MustCompile(`contains?\s+<?\s*\d+%\s+of`),
	regexp.MustCompile(`<\s*\d+%\s+of`),
	regexp.MustCompile(`other\s+carbohydrate`),
	regexp.MustCompile(`contains?\s*<?\d+\s*%\s*(or\s*less\s*)?of`),
}

// IsNutritionFact reports whether name is a nutrition-fact line or label
// boilerplate rather than an ingredient.
func IsNutritionFact(name string) bool {
	if name == "" {
		return false
	}
	processed := textnorm.Preprocess(name)
	if _, ok := excludedNutritionFacts[processed]; ok {
		return true
	}
	if _, ok := excludedLabelPhrases[processed]; ok {
		return true
	}

	lower := strings.ToLower(name)
	for _, pattern := range percentagePatterns {
		if pattern.MatchString(lower) || pattern.MatchString(processed) {
			return true
		}
	}
	return false
}
