package product

import "regexp"

// Status is the four-way processing outcome for one product record.
type Status string

const (
	StatusSuccess     Status = "success"
	StatusNeedsReview Status = "needs_review"
	StatusIncomplete  Status = "incomplete"
	StatusError       Status = "error"
)

// Field lists are ordered: ordering decides which single missing important
// field is forgivable (only the trailing identifier check on upcSku).
var (
	criticalFields  = []string{"id", "fullName", "brandName", "ingredientRows"}
	importantFields = []string{"upcSku", "productType", "physicalState"}
)

// ValidationDetails summarizes field completeness and data-quality findings
// for one record.
type ValidationDetails struct {
	CompletenessScore      float64  `json:"completeness_score"`
	CriticalFieldsComplete bool     `json:"critical_fields_complete"`
	QualityIssues          []string `json:"data_quality_issues,omitempty"`
}

var (
	upcPrefixRe   = regexp.MustCompile(`(?i)^(#|Rev\.|SKU:?|Item:?|Code:?)\s*`)
	upcStripRe    = regexp.MustCompile(`[\s-]`)
	upcDigitsRe   = regexp.MustCompile(`^\d{6}$|^\d{8}$|^\d{12}$|^\d{13}$`)
	skuFormatRe   = regexp.MustCompile(`^[A-Za-z0-9\-_#./]{2,40}$`)
	versionLikeRe = regexp.MustCompile(`(?i)^(v|ver|version|rev|revision)\.?\s*\d+(\.\d+)?$`)
)

// ValidUPCSKU reports whether a UPC or SKU value looks plausible: UPC-E,
// EAN-8, UPC-A, or EAN-13 digit runs, a reasonable alphanumeric SKU, or a
// version-style revision code.
func ValidUPCSKU(code string) bool {
	if code == "" {
		return false
	}
	clean := upcStripRe.ReplaceAllString(upcPrefixRe.ReplaceAllString(code, ""), "")
	if upcDigitsRe.MatchString(clean) {
		return true
	}
	if skuFormatRe.MatchString(clean) {
		return true
	}
	return versionLikeRe.MatchString(code)
}

// Validate classifies a raw record by field completeness and data quality.
// Missing critical fields make the record incomplete outright; accumulating
// missing important fields or quality issues pushes it to needs-review. A
// record whose only blemish is a missing or malformed upcSku still counts as
// success.
func Validate(raw *Raw) (Status, []string, ValidationDetails) {
	details := ValidationDetails{CriticalFieldsComplete: true}

	missingCritical := missingOf(raw, criticalFields)
	if len(missingCritical) > 0 {
		details.CriticalFieldsComplete = false
	}
	missingImportant := missingOf(raw, importantFields)
	missing := append(append([]string{}, missingCritical...), missingImportant...)

	totalFields := len(criticalFields) + len(importantFields)
	present := totalFields - len(missing)
	details.CompletenessScore = float64(present) / float64(totalFields) * 100

	if raw.UPCSKU != "" && !ValidUPCSKU(raw.UPCSKU) {
		details.QualityIssues = append(details.QualityIssues, "invalid_upc_sku_format")
	}
	if len(raw.IngredientRows) == 0 {
		details.QualityIssues = append(details.QualityIssues, "no_ingredients")
	}

	var status Status
	switch {
	case len(missingCritical) > 0:
		status = StatusIncomplete
	case len(missingImportant) > 2:
		status = StatusIncomplete
	case len(details.QualityIssues) > 3:
		status = StatusNeedsReview
	case len(missingImportant) > 1,
		len(missingImportant) > 0 && len(details.QualityIssues) > 0:
		status = StatusNeedsReview
	case len(missingImportant) == 1 && missingImportant[0] != "upcSku":
		status = StatusNeedsReview
	case len(details.QualityIssues) > 0 && !onlyInvalidUPC(details.QualityIssues):
		status = StatusNeedsReview
	default:
		status = StatusSuccess
	}
	return status, missing, details
}

// Finalize applies the post-normalization promotion: a needs-review record
// with excellent ingredient mapping whose only missing field is the upcSku
// identifier is promoted to success.
func Finalize(status Status, missing []string, details ValidationDetails, mappingRate float64) Status {
	if status != StatusNeedsReview {
		return status
	}
	if mappingRate >= 90 && len(missing) == 1 && missing[0] == "upcSku" && details.CriticalFieldsComplete {
		return StatusSuccess
	}
	return status
}

func missingOf(raw *Raw, fields []string) []string {
	var missing []string
	for _, field := range fields {
		if fieldEmpty(raw, field) {
			missing = append(missing, field)
		}
	}
	return missing
}

func fieldEmpty(raw *Raw, field string) bool {
	switch field {
	case "id":
		return raw.ID == ""
	case "fullName":
		return raw.FullName == ""
	case "brandName":
		return raw.BrandName == ""
	case "ingredientRows":
		return len(raw.IngredientRows) == 0
	case "upcSku":
		return raw.UPCSKU == ""
	case "productType":
		return raw.ProductType.Description == ""
	case "physicalState":
		return raw.PhysicalState.Description == ""
	}
	return false
}

func onlyInvalidUPC(issues []string) bool {
	return len(issues) == 1 && issues[0] == "invalid_upc_sku_format"
}
