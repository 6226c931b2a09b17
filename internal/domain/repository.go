package domain

import (
	"context"
	"time"
)

// CacheRepository defines the interface for caching operations.
// Values are opaque bytes, callers own their encoding.
type CacheRepository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}

// ContentStore reads and patches the review tables (parents and variants)
type ContentStore interface {
	ListParents(ctx context.Context) ([]ParentProduct, error)
	GetParent(ctx context.Context, id int64) (*ParentProduct, error)
	UpdateParent(ctx context.Context, id int64, patch map[string]interface{}) (*ParentProduct, error)
	ListVariants(ctx context.Context, shopifyProductID string) ([]ProductVariant, error)
	UpdateVariant(ctx context.Context, id int64, patch map[string]interface{}) (*ProductVariant, error)
}

// SourceStore reads the source-of-truth tables. Missing rows return ErrNotFound.
type SourceStore interface {
	GetRawWebhook(ctx context.Context, shopifyProductID string) (*ShopifyRawWebhook, error)
	GetProductsRow(ctx context.Context, shopifyProductID string) (*ProductsRow, error)
}

// ShopifySource fetches the live product from Shopify
type ShopifySource interface {
	FetchProduct(ctx context.Context, shopifyProductID string) (*ShopifyProduct, error)
}

// Notifier surfaces success and failure messages to the operator.
// Calls are fire-and-forget.
type Notifier interface {
	Success(message string)
	Error(message string)
}
