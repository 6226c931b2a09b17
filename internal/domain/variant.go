package domain

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// SourceKind identifies which field naming convention a raw variant list uses
type SourceKind string

const (
	SourceShopifyWebhook SourceKind = "shopify_webhook"
	SourceAIContentTable SourceKind = "ai_content_table"
	SourceLocalStore     SourceKind = "local_store"
)

// Field names a comparable attribute of a VariantRecord
type Field string

const (
	FieldDisplayName       Field = "display_name"
	FieldSKU               Field = "sku"
	FieldPrice             Field = "price"
	FieldCompareAtPrice    Field = "compare_at_price"
	FieldOption1           Field = "option1"
	FieldOption2           Field = "option2"
	FieldOption3           Field = "option3"
	FieldInventoryQuantity Field = "inventory_quantity"
	FieldWeight            Field = "weight"
	FieldWeightUnit        Field = "weight_unit"
	FieldTaxable           Field = "taxable"
	FieldBarcode           Field = "barcode"
	FieldTechSpecsSummary  Field = "tech_specs_summary"
	FieldFullSpecification Field = "full_specification"
)

// AllFields lists every comparable field in the order field changes are reported
var AllFields = []Field{
	FieldDisplayName,
	FieldSKU,
	FieldPrice,
	FieldCompareAtPrice,
	FieldOption1,
	FieldOption2,
	FieldOption3,
	FieldInventoryQuantity,
	FieldWeight,
	FieldWeightUnit,
	FieldTaxable,
	FieldBarcode,
	FieldTechSpecsSummary,
	FieldFullSpecification,
}

var fieldLabels = map[Field]string{
	FieldDisplayName:       "Name",
	FieldSKU:               "SKU",
	FieldPrice:             "Price",
	FieldCompareAtPrice:    "Compare-at price",
	FieldOption1:           "Option 1",
	FieldOption2:           "Option 2",
	FieldOption3:           "Option 3",
	FieldInventoryQuantity: "Inventory",
	FieldWeight:            "Weight",
	FieldWeightUnit:        "Weight unit",
	FieldTaxable:           "Taxable",
	FieldBarcode:           "Barcode",
	FieldTechSpecsSummary:  "Tech specs summary",
	FieldFullSpecification: "Full specification",
}

// Label returns the human readable name of the field
func (f Field) Label() string {
	if l, ok := fieldLabels[f]; ok {
		return l
	}
	return string(f)
}

// FieldSet is an unordered set of fields to compare
type FieldSet map[Field]struct{}

// NewFieldSet builds a FieldSet from the given fields
func NewFieldSet(fields ...Field) FieldSet {
	set := make(FieldSet, len(fields))
	for _, f := range fields {
		set[f] = struct{}{}
	}
	return set
}

// Has reports whether f is in the set
func (s FieldSet) Has(f Field) bool {
	_, ok := s[f]
	return ok
}

// VariantRecord is the canonical, source independent form of a variant.
// Optional attributes are nil when the source did not carry them.
type VariantRecord struct {
	IdentityKey       string          `json:"identity_key"`
	DisplayName       string          `json:"display_name"`
	RowID             *int64          `json:"row_id,omitempty"`
	SKU               *string         `json:"sku,omitempty"`
	Price             *string         `json:"price,omitempty"`
	CompareAtPrice    *string         `json:"compare_at_price,omitempty"`
	Option1           *string         `json:"option1,omitempty"`
	Option2           *string         `json:"option2,omitempty"`
	Option3           *string         `json:"option3,omitempty"`
	InventoryQuantity *int            `json:"inventory_quantity,omitempty"`
	Weight            *float64        `json:"weight,omitempty"`
	WeightUnit        *string         `json:"weight_unit,omitempty"`
	Taxable           *bool           `json:"taxable,omitempty"`
	Barcode           *string         `json:"barcode,omitempty"`
	TechSpecsSummary  *string         `json:"tech_specs_summary,omitempty"`
	FullSpecification *string         `json:"full_specification,omitempty"`
	Raw               json.RawMessage `json:"raw,omitempty"`
}

// Value returns the field rendered as a string, and false when it is unset
func (v *VariantRecord) Value(f Field) (string, bool) {
	switch f {
	case FieldDisplayName:
		return v.DisplayName, true
	case FieldSKU:
		return derefString(v.SKU)
	case FieldPrice:
		return derefString(v.Price)
	case FieldCompareAtPrice:
		return derefString(v.CompareAtPrice)
	case FieldOption1:
		return derefString(v.Option1)
	case FieldOption2:
		return derefString(v.Option2)
	case FieldOption3:
		return derefString(v.Option3)
	case FieldInventoryQuantity:
		if v.InventoryQuantity == nil {
			return "", false
		}
		return strconv.Itoa(*v.InventoryQuantity), true
	case FieldWeight:
		if v.Weight == nil {
			return "", false
		}
		return strconv.FormatFloat(*v.Weight, 'f', -1, 64), true
	case FieldWeightUnit:
		return derefString(v.WeightUnit)
	case FieldTaxable:
		if v.Taxable == nil {
			return "", false
		}
		return strconv.FormatBool(*v.Taxable), true
	case FieldBarcode:
		return derefString(v.Barcode)
	case FieldTechSpecsSummary:
		return derefString(v.TechSpecsSummary)
	case FieldFullSpecification:
		return derefString(v.FullSpecification)
	}
	return "", false
}

func derefString(s *string) (string, bool) {
	if s == nil {
		return "", false
	}
	return *s, true
}

// ComparisonStatus classifies one row of a variant diff
type ComparisonStatus string

const (
	StatusMatched ComparisonStatus = "matched"
	StatusChanged ComparisonStatus = "changed"
	StatusOnlyInA ComparisonStatus = "only_in_a"
	StatusOnlyInB ComparisonStatus = "only_in_b"
)

// FieldChange is one differing field of a matched pair.
// Side A is the source of truth, so Old is what side B holds and New is what side A proposes.
type FieldChange struct {
	Field Field  `json:"field"`
	Old   string `json:"old_value"`
	New   string `json:"new_value"`
}

// Describe renders the change for display, showing unset values as N/A
func (c FieldChange) Describe() string {
	return fmt.Sprintf("%s: %q → %q", c.Field.Label(), displayValue(c.Old), displayValue(c.New))
}

func displayValue(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}

// ComparisonEntry is one row of a variant diff between side A and side B
type ComparisonEntry struct {
	Key          string           `json:"key"`
	SideA        *VariantRecord   `json:"side_a,omitempty"`
	SideB        *VariantRecord   `json:"side_b,omitempty"`
	Status       ComparisonStatus `json:"status"`
	FieldChanges []FieldChange    `json:"field_changes,omitempty"`
}

// Differences renders FieldChanges for display
func (e ComparisonEntry) Differences() []string {
	out := make([]string, 0, len(e.FieldChanges))
	for _, c := range e.FieldChanges {
		out = append(out, c.Describe())
	}
	return out
}

// DiscrepancyReport summarizes missing and extra variants between two sources
type DiscrepancyReport struct {
	OverallOK    bool     `json:"overall_ok"`
	Messages     []string `json:"messages"`
	OnlyInANames []string `json:"only_in_a_names"`
	OnlyInBNames []string `json:"only_in_b_names"`
}

// ParentSummary is the context a discrepancy report is built from
type ParentSummary struct {
	ExpectedVariantCount *int              `json:"expected_variant_count,omitempty"`
	Entries              []ComparisonEntry `json:"entries"`
}

// UpdateInstruction is a patch to apply to one existing local variant row
type UpdateInstruction struct {
	Key   string                 `json:"key"`
	RowID int64                  `json:"row_id"`
	Patch map[string]interface{} `json:"patch"`
}

// SyncFailure records an instruction that could not be applied
type SyncFailure struct {
	Key   string `json:"key"`
	RowID int64  `json:"row_id"`
	Error string `json:"error"`
}

// SyncResult aggregates the outcome of executing a batch of instructions
type SyncResult struct {
	BatchID      string        `json:"batch_id"`
	SuccessCount int           `json:"success_count"`
	ErrorCount   int           `json:"error_count"`
	Failures     []SyncFailure `json:"failures,omitempty"`
}
