package domain

import "errors"

var (
	// ErrNotFound is returned when a row or remote product does not exist
	ErrNotFound = errors.New("not found")

	// ErrInvalidRequest is returned when request parameters are invalid
	ErrInvalidRequest = errors.New("invalid request parameters")

	// ErrStoreUnavailable is returned when every NocoDB endpoint failed
	ErrStoreUnavailable = errors.New("content store unavailable")

	// ErrShopifyUnavailable is returned when the Shopify source request fails
	ErrShopifyUnavailable = errors.New("shopify request failed")

	// ErrShopifyNotConfigured is returned when no Shopify source is configured
	ErrShopifyNotConfigured = errors.New("shopify source not configured")

	// ErrNothingSelected is returned when a sync is requested without selected variants
	ErrNothingSelected = errors.New("no variants selected")

	// ErrCacheMiss is returned when data is not found in cache
	ErrCacheMiss = errors.New("cache miss")

	// ErrCacheUnavailable is returned when cache service is unavailable
	ErrCacheUnavailable = errors.New("cache service unavailable")
)
