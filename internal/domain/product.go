package domain

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// ProductStatus is the review state of a parent product
type ProductStatus string

const (
	StatusPending  ProductStatus = "pending"
	StatusApproved ProductStatus = "approved"
	StatusRejected ProductStatus = "rejected"
)

// ParseProductStatus returns the status for s, or false when s is not a known status
func ParseProductStatus(s string) (ProductStatus, bool) {
	switch ProductStatus(s) {
	case StatusPending, StatusApproved, StatusRejected:
		return ProductStatus(s), true
	}
	return "", false
}

// FlexString decodes a JSON string or number into a string.
// NocoDB and Shopify disagree on whether product and variant ids are numbers.
type FlexString string

// UnmarshalJSON implements json.Unmarshaler
func (f *FlexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = FlexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = FlexString(n.String())
	return nil
}

// String returns the underlying value
func (f FlexString) String() string {
	return string(f)
}

// ParentProduct is a row of the parents table: AI generated content awaiting review
type ParentProduct struct {
	ID                     int64           `json:"id"`
	ParentID               int64           `json:"parent_id"`
	ShopifyProductID       FlexString      `json:"shopify_product_id"`
	GenericTitle           *string         `json:"generic_title"`
	GenericDescription     *string         `json:"generic_description"`
	GenericKeywords        *string         `json:"generic_keywords"`
	BaseTechSpecs          *string         `json:"base_tech_specs"`
	FAQs                   json.RawMessage `json:"faqs,omitempty"`
	Glossary               json.RawMessage `json:"glossary,omitempty"`
	Status                 ProductStatus   `json:"status"`
	CreatedAt              string          `json:"created_at,omitempty"`
	UpdatedAt              string          `json:"updated_at,omitempty"`
	ProductContentVariants *int            `json:"product_content_variants,omitempty"`
}

// UnmarshalJSON decodes a parents row. The numeric columns may arrive as
// numbers, numeric strings or blanks; anything unreadable is left unset.
func (p *ParentProduct) UnmarshalJSON(data []byte) error {
	type plain ParentProduct
	aux := struct {
		*plain
		ParentID               json.RawMessage `json:"parent_id"`
		ProductContentVariants json.RawMessage `json:"product_content_variants"`
	}{plain: (*plain)(p)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	p.ParentID = 0
	if n, ok := parseLooseInt(aux.ParentID); ok {
		p.ParentID = n
	}
	p.ProductContentVariants = nil
	if n, ok := parseLooseInt(aux.ProductContentVariants); ok {
		count := int(n)
		p.ProductContentVariants = &count
	}
	return nil
}

// parseLooseInt reads a JSON number or a string holding one
func parseLooseInt(data json.RawMessage) (int64, bool) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return 0, false
	}
	text := string(data)
	if data[0] == '"' {
		if err := json.Unmarshal(data, &text); err != nil {
			return 0, false
		}
		text = strings.TrimSpace(text)
	}
	if n, err := strconv.ParseInt(text, 10, 64); err == nil {
		return n, true
	}
	if f, err := strconv.ParseFloat(text, 64); err == nil && f == float64(int64(f)) {
		return int64(f), true
	}
	return 0, false
}

// ProductVariant is a row of the variants table, stored locally per parent product
type ProductVariant struct {
	ID                int64      `json:"id"`
	ShopifyProductID  FlexString `json:"shopify_product_id"`
	ShopifyVariantID  FlexString `json:"shopify_variant_id"`
	VariantName       string     `json:"variant_name"`
	TechSpecsSummary  *string    `json:"tech_specs_summary"`
	FullSpecification *string    `json:"full_specification"`
	CreatedAt         string     `json:"created_at,omitempty"`
	UpdatedAt         string     `json:"updated_at,omitempty"`
}

// ShopifyRawWebhook is the untouched webhook body received from Shopify.
// RawPayload is either a JSON object or a string holding JSON.
type ShopifyRawWebhook struct {
	ID               int64           `json:"id"`
	ShopifyProductID FlexString      `json:"shopify_product_id"`
	RawPayload       json.RawMessage `json:"raw_payload"`
	ReceivedAt       string          `json:"received_at,omitempty"`
	CreatedAt        string          `json:"created_at,omitempty"`
}

// ProductsRow is a row of the products table holding the AI processed content
type ProductsRow struct {
	ID                 int64           `json:"id"`
	ShopifyProductID   FlexString      `json:"shopify_product_id"`
	Title              *string         `json:"title"`
	Vendor             *string         `json:"vendor"`
	ProductType        *string         `json:"product_type"`
	BodyHTML           *string         `json:"body_html"`
	Tags               *string         `json:"tags"`
	AIGeneratedContent json.RawMessage `json:"ai_generated_content"`
	CreatedAt          string          `json:"created_at,omitempty"`
	UpdatedAt          string          `json:"updated_at,omitempty"`
}

// ShopifyVariant is a variant as returned by the Shopify Admin REST API
type ShopifyVariant struct {
	ID                int64   `json:"id"`
	ProductID         int64   `json:"product_id"`
	Title             string  `json:"title"`
	Price             string  `json:"price"`
	SKU               string  `json:"sku"`
	Position          int     `json:"position"`
	CompareAtPrice    *string `json:"compare_at_price"`
	Option1           *string `json:"option1"`
	Option2           *string `json:"option2"`
	Option3           *string `json:"option3"`
	Taxable           bool    `json:"taxable"`
	Barcode           *string `json:"barcode"`
	Grams             int     `json:"grams"`
	Weight            float64 `json:"weight"`
	WeightUnit        string  `json:"weight_unit"`
	InventoryItemID   int64   `json:"inventory_item_id"`
	InventoryQuantity int     `json:"inventory_quantity"`
}

// ShopifyProduct is a product as returned by the Shopify Admin REST API.
// Raw keeps the product object exactly as received so variants can be
// normalized without losing fields the typed struct does not declare.
type ShopifyProduct struct {
	ID          int64            `json:"id"`
	Title       string           `json:"title"`
	BodyHTML    string           `json:"body_html"`
	Vendor      string           `json:"vendor"`
	ProductType string           `json:"product_type"`
	Tags        string           `json:"tags"`
	Status      string           `json:"status"`
	Variants    []ShopifyVariant `json:"variants"`
	Raw         json.RawMessage  `json:"-"`
}

// ProductStats counts parents per review status
type ProductStats struct {
	Total    int `json:"total"`
	Pending  int `json:"pending"`
	Approved int `json:"approved"`
	Rejected int `json:"rejected"`
}
