package nocodb

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"

	"go.uber.org/zap"

	"github.com/contentreview/backend/internal/domain"
)

// ListParents returns up to one page of parent products. A missing status
// is reported as pending.
func (c *Client) ListParents(ctx context.Context) ([]domain.ParentProduct, error) {
	params := url.Values{}
	params.Set("limit", strconv.Itoa(c.pageSize))

	rows, err := c.fetchRows(ctx, c.tables.Parents, params)
	if err != nil {
		return nil, err
	}

	parents := decodeRows[domain.ParentProduct](c.logger, c.tables.Parents, rows)
	for i := range parents {
		defaultStatus(&parents[i])
	}
	c.logger.Debug("parents loaded", zap.Int("count", len(parents)))
	return parents, nil
}

// GetParent returns the parent with the given row id
func (c *Client) GetParent(ctx context.Context, id int64) (*domain.ParentProduct, error) {
	parents, err := c.ListParents(ctx)
	if err != nil {
		return nil, err
	}
	for i := range parents {
		if parents[i].ID == id {
			return &parents[i], nil
		}
	}
	return nil, fmt.Errorf("%w: parent %d", domain.ErrNotFound, id)
}

// UpdateParent patches a parent row and returns it as stored
func (c *Client) UpdateParent(ctx context.Context, id int64, patch map[string]interface{}) (*domain.ParentProduct, error) {
	body, err := c.patchRow(ctx, c.tables.Parents, id, patch)
	if err != nil {
		return nil, err
	}

	// v2 answers with the id only, so the row is read back
	if rows, err := decodeRecords(body); err == nil && len(rows) == 1 && hasColumns(rows[0]) {
		var p domain.ParentProduct
		if err := json.Unmarshal(rows[0], &p); err == nil {
			defaultStatus(&p)
			return &p, nil
		}
	}
	return c.GetParent(ctx, id)
}

// ListVariants returns the local variant rows of a Shopify product
func (c *Client) ListVariants(ctx context.Context, shopifyProductID string) ([]domain.ProductVariant, error) {
	params := url.Values{}
	params.Set("where", eqFilter("shopify_product_id", shopifyProductID))
	params.Set("limit", strconv.Itoa(c.variantPageSize))

	rows, err := c.fetchRows(ctx, c.tables.Variants, params)
	if err != nil {
		return nil, err
	}
	return decodeRows[domain.ProductVariant](c.logger, c.tables.Variants, rows), nil
}

// UpdateVariant patches a variant row
func (c *Client) UpdateVariant(ctx context.Context, id int64, patch map[string]interface{}) (*domain.ProductVariant, error) {
	body, err := c.patchRow(ctx, c.tables.Variants, id, patch)
	if err != nil {
		return nil, err
	}

	v := &domain.ProductVariant{ID: id}
	if rows, err := decodeRecords(body); err == nil && len(rows) == 1 {
		_ = json.Unmarshal(rows[0], v)
	}
	return v, nil
}

// GetRawWebhook returns the most recent raw webhook stored for a product
func (c *Client) GetRawWebhook(ctx context.Context, shopifyProductID string) (*domain.ShopifyRawWebhook, error) {
	row, err := c.latestRow(ctx, c.tables.Webhooks, shopifyProductID)
	if err != nil {
		return nil, err
	}
	var w domain.ShopifyRawWebhook
	if err := json.Unmarshal(row, &w); err != nil {
		return nil, fmt.Errorf("%w: webhook row: %v", domain.ErrStoreUnavailable, err)
	}
	return &w, nil
}

// GetProductsRow returns the products table row holding the AI content
func (c *Client) GetProductsRow(ctx context.Context, shopifyProductID string) (*domain.ProductsRow, error) {
	row, err := c.latestRow(ctx, c.tables.Products, shopifyProductID)
	if err != nil {
		return nil, err
	}
	var p domain.ProductsRow
	if err := json.Unmarshal(row, &p); err != nil {
		return nil, fmt.Errorf("%w: products row: %v", domain.ErrStoreUnavailable, err)
	}
	return &p, nil
}

// latestRow returns the row with the highest id matching shopifyProductID
func (c *Client) latestRow(ctx context.Context, table, shopifyProductID string) (json.RawMessage, error) {
	params := url.Values{}
	params.Set("where", eqFilter("shopify_product_id", shopifyProductID))
	params.Set("limit", strconv.Itoa(c.variantPageSize))

	rows, err := c.fetchRows(ctx, table, params)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: %s for product %s", domain.ErrNotFound, table, shopifyProductID)
	}

	latest := rows[0]
	for _, row := range rows[1:] {
		if rowID(row) > rowID(latest) {
			latest = row
		}
	}
	return latest, nil
}

func defaultStatus(p *domain.ParentProduct) {
	if p.Status == "" {
		p.Status = domain.StatusPending
	}
}

// hasColumns reports whether a row carries more than its id
func hasColumns(row json.RawMessage) bool {
	var m map[string]json.RawMessage
	if err := json.Unmarshal(row, &m); err != nil {
		return false
	}
	for k := range m {
		if k != "id" && k != "Id" {
			return true
		}
	}
	return false
}
