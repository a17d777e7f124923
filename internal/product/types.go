// Package product models raw supplement label records and normalizes them:
// nested blends are flattened, every ingredient is classified, proprietary
// blend disclosure is scored, and the record is validated into a four-way
// processing status.
package product

import (
	"encoding/json"
	"strconv"
	"strings"
)

// FlexID decodes a product identifier that source feeds serialize as either
// a JSON string or a number.
type FlexID string

func (id *FlexID) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*id = FlexID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*id = FlexID(n.String())
	return nil
}

func (id FlexID) String() string { return string(id) }

// Quantity is one declared amount for an ingredient row.
type Quantity struct {
	Amount            float64 `json:"value"`
	Unit              string  `json:"unit"`
	DailyValuePercent float64 `json:"daily_value_percent,omitempty"`
}

// Zero reports whether the quantity carries no usable amount. "NP" is the
// source convention for "not provided".
func (q Quantity) Zero() bool {
	return q.Amount <= 0 || q.Unit == "" || strings.EqualFold(q.Unit, "NP")
}

// Row is one ingredient row as it appears on the label, possibly nesting
// blend children.
type Row struct {
	Name       string     `json:"name"`
	Quantities []Quantity `json:"quantity"`
	Forms      []string   `json:"forms"`
	Notes      string     `json:"notes"`
	Order      int        `json:"order"`
	Nested     []Row      `json:"nestedRows"`
}

// FirstQuantity returns the row's leading quantity, or a zero Quantity when
// none is declared.
func (r Row) FirstQuantity() Quantity {
	if len(r.Quantities) == 0 {
		return Quantity{}
	}
	return r.Quantities[0]
}

// OtherIngredients is the flat names-only list of inactive ingredients.
type OtherIngredients struct {
	Ingredients []Row `json:"ingredients"`
}

// langualCode carries the coded description fields the source nests under
// productType and physicalState.
type langualCode struct {
	Description string `json:"langualCodeDescription"`
}

// Raw is one product record as read from an input file.
type Raw struct {
	ID                   FlexID           `json:"id"`
	FullName             string           `json:"fullName"`
	BrandName            string           `json:"brandName"`
	UPCSKU               string           `json:"upcSku"`
	ProductType          langualCode      `json:"productType"`
	PhysicalState        langualCode      `json:"physicalState"`
	ServingsPerContainer FlexInt          `json:"servingsPerContainer"`
	OffMarket            int              `json:"offMarket"`
	IngredientRows       []Row            `json:"ingredientRows"`
	OtherIngredients     OtherIngredients `json:"otheringredients"`
}

// FlexInt decodes an integer that source feeds serialize as a number, a
// float, or a numeric string. Unparseable values decode as zero rather than
// failing the record.
type FlexInt int

func (v *FlexInt) UnmarshalJSON(data []byte) error {
	var n json.Number
	if err := json.Unmarshal(data, &n); err == nil {
		if f, err := n.Float64(); err == nil {
			*v = FlexInt(int(f))
			return nil
		}
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if f, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
		*v = FlexInt(int(f))
	}
	return nil
}

// Servings returns servingsPerContainer as an int.
func (r *Raw) Servings() int { return int(r.ServingsPerContainer) }
