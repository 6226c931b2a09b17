package usecase

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/contentreview/backend/internal/domain"
	"github.com/tidwall/gjson"
)

// maxEmbeddedDepth bounds how many layers of string-encoded JSON are unwrapped
const maxEmbeddedDepth = 3

// variantShape is the field lookup table for one source kind
type variantShape struct {
	idPath     string
	namePath   string
	rowIDPaths []string
	fields     map[domain.Field]string
}

var variantShapes = map[domain.SourceKind]variantShape{
	domain.SourceShopifyWebhook: {
		idPath:   "id",
		namePath: "title",
		fields: map[domain.Field]string{
			domain.FieldSKU:               "sku",
			domain.FieldPrice:             "price",
			domain.FieldCompareAtPrice:    "compare_at_price",
			domain.FieldOption1:           "option1",
			domain.FieldOption2:           "option2",
			domain.FieldOption3:           "option3",
			domain.FieldInventoryQuantity: "inventory_quantity",
			domain.FieldWeight:            "weight",
			domain.FieldWeightUnit:        "weight_unit",
			domain.FieldTaxable:           "taxable",
			domain.FieldBarcode:           "barcode",
		},
	},
	domain.SourceAIContentTable: {
		idPath:   "variant_id",
		namePath: "variant_name",
		fields: map[domain.Field]string{
			domain.FieldSKU:               "sku",
			domain.FieldPrice:             "price",
			domain.FieldCompareAtPrice:    "compare_at_price",
			domain.FieldOption1:           "option1",
			domain.FieldOption2:           "option2",
			domain.FieldOption3:           "option3",
			domain.FieldTechSpecsSummary:  "tech_specs_summary",
			domain.FieldFullSpecification: "full_specification",
		},
	},
	domain.SourceLocalStore: {
		idPath:     "shopify_variant_id",
		namePath:   "variant_name",
		rowIDPaths: []string{"id", "Id"},
		fields: map[domain.Field]string{
			domain.FieldTechSpecsSummary:  "tech_specs_summary",
			domain.FieldFullSpecification: "full_specification",
		},
	},
}

// variantListPaths are the places a product document keeps its variant list
var variantListPaths = map[domain.SourceKind][]string{
	domain.SourceShopifyWebhook: {"variants", "product.variants"},
	domain.SourceAIContentTable: {"variants", "product_variants", "product.variants"},
}

// ParseEmbeddedDocument decodes value into a JSON document. value may be a
// native Go value, raw bytes, or a string holding JSON (possibly encoded more
// than once). Unparseable input and JSON null report false.
func ParseEmbeddedDocument(value interface{}) (gjson.Result, bool) {
	var raw string
	switch v := value.(type) {
	case nil:
		return gjson.Result{}, false
	case string:
		raw = v
	case []byte:
		raw = string(v)
	case json.RawMessage:
		raw = string(v)
	case gjson.Result:
		raw = v.Raw
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return gjson.Result{}, false
		}
		raw = string(b)
	}

	for depth := 0; depth < maxEmbeddedDepth; depth++ {
		raw = strings.TrimSpace(raw)
		if raw == "" || !gjson.Valid(raw) {
			return gjson.Result{}, false
		}
		doc := gjson.Parse(raw)
		switch doc.Type {
		case gjson.Null:
			return gjson.Result{}, false
		case gjson.String:
			raw = doc.Str
			continue
		}
		return doc, true
	}
	return gjson.Result{}, false
}

// ParseEmbeddedJSON returns the elements of a JSON array that may arrive in
// any form ParseEmbeddedDocument accepts. Anything that is not an array,
// including malformed JSON, yields an empty list.
func ParseEmbeddedJSON(value interface{}) []gjson.Result {
	doc, ok := ParseEmbeddedDocument(value)
	if !ok || !doc.IsArray() {
		return nil
	}
	return doc.Array()
}

// VariantListFrom locates the variant list inside a product document of the
// given kind. The result can be passed straight to Normalize.
func VariantListFrom(kind domain.SourceKind, document interface{}) gjson.Result {
	doc, ok := ParseEmbeddedDocument(document)
	if !ok {
		return gjson.Result{}
	}
	if doc.IsArray() {
		return doc
	}
	for _, path := range variantListPaths[kind] {
		if list := doc.Get(path); present(list) {
			return list
		}
	}
	return gjson.Result{}
}

// Normalize converts a raw variant list of the given source kind into
// canonical records. Absent or malformed input yields an empty list, and so
// does an unknown kind. Elements that are not JSON objects are skipped.
func Normalize(kind domain.SourceKind, rawVariantList interface{}) []domain.VariantRecord {
	shape, ok := variantShapes[kind]
	if !ok {
		return []domain.VariantRecord{}
	}

	items := ParseEmbeddedJSON(rawVariantList)
	records := make([]domain.VariantRecord, 0, len(items))
	for i, item := range items {
		if !item.IsObject() {
			continue
		}
		records = append(records, normalizeOne(shape, item, i))
	}
	return records
}

func normalizeOne(shape variantShape, item gjson.Result, index int) domain.VariantRecord {
	rec := domain.VariantRecord{
		Raw: json.RawMessage(item.Raw),
	}

	for field, path := range shape.fields {
		setField(&rec, field, item.Get(path))
	}

	for _, path := range shape.rowIDPaths {
		if r := item.Get(path); present(r) {
			if id, err := strconv.ParseInt(textValue(r), 10, 64); err == nil {
				rec.RowID = &id
				break
			}
		}
	}

	name := ""
	if r := item.Get(shape.namePath); present(r) {
		name = strings.TrimSpace(textValue(r))
	}
	options := joinOptions(&rec)

	switch {
	case name != "":
		rec.DisplayName = name
	case options != "":
		rec.DisplayName = options
	default:
		rec.DisplayName = fmt.Sprintf("Variant %d", index+1)
	}

	rec.IdentityKey = rec.DisplayName
	if r := item.Get(shape.idPath); present(r) {
		if id := strings.TrimSpace(textValue(r)); id != "" {
			rec.IdentityKey = id
			return rec
		}
	}
	if options != "" {
		rec.IdentityKey = options
	} else if name != "" {
		rec.IdentityKey = name
	}
	return rec
}

func joinOptions(rec *domain.VariantRecord) string {
	var parts []string
	for _, opt := range []*string{rec.Option1, rec.Option2, rec.Option3} {
		if opt != nil && strings.TrimSpace(*opt) != "" {
			parts = append(parts, strings.TrimSpace(*opt))
		}
	}
	return strings.Join(parts, " / ")
}

func setField(rec *domain.VariantRecord, field domain.Field, r gjson.Result) {
	if !present(r) {
		return
	}

	switch field {
	case domain.FieldInventoryQuantity:
		if n, ok := intValue(r); ok {
			rec.InventoryQuantity = &n
		}
		return
	case domain.FieldWeight:
		if f, ok := floatValue(r); ok {
			rec.Weight = &f
		}
		return
	case domain.FieldTaxable:
		if b, ok := boolValue(r); ok {
			rec.Taxable = &b
		}
		return
	}

	s := textValue(r)
	switch field {
	case domain.FieldSKU:
		rec.SKU = &s
	case domain.FieldPrice:
		rec.Price = &s
	case domain.FieldCompareAtPrice:
		rec.CompareAtPrice = &s
	case domain.FieldOption1:
		rec.Option1 = &s
	case domain.FieldOption2:
		rec.Option2 = &s
	case domain.FieldOption3:
		rec.Option3 = &s
	case domain.FieldWeightUnit:
		rec.WeightUnit = &s
	case domain.FieldBarcode:
		rec.Barcode = &s
	case domain.FieldTechSpecsSummary:
		rec.TechSpecsSummary = &s
	case domain.FieldFullSpecification:
		rec.FullSpecification = &s
	}
}

// present reports whether the value exists and is not JSON null
func present(r gjson.Result) bool {
	return r.Exists() && r.Type != gjson.Null
}

// textValue renders a JSON value as text. Numbers keep their literal form so
// "10.00" never turns into "10".
func textValue(r gjson.Result) string {
	switch r.Type {
	case gjson.String:
		return r.Str
	case gjson.Number, gjson.JSON:
		return r.Raw
	default:
		return r.String()
	}
}

func intValue(r gjson.Result) (int, bool) {
	switch r.Type {
	case gjson.Number:
		return int(r.Int()), true
	case gjson.String:
		n, err := strconv.Atoi(strings.TrimSpace(r.Str))
		return n, err == nil
	}
	return 0, false
}

func floatValue(r gjson.Result) (float64, bool) {
	switch r.Type {
	case gjson.Number:
		return r.Float(), true
	case gjson.String:
		f, err := strconv.ParseFloat(strings.TrimSpace(r.Str), 64)
		return f, err == nil
	}
	return 0, false
}

func boolValue(r gjson.Result) (bool, bool) {
	switch r.Type {
	case gjson.True:
		return true, true
	case gjson.False:
		return false, true
	case gjson.String:
		b, err := strconv.ParseBool(strings.TrimSpace(r.Str))
		return b, err == nil
	}
	return false, false
}
