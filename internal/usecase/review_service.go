package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/contentreview/backend/internal/domain"
)

const noSourceDataMessage = "No data available for this product"

// ReviewServiceConfig holds configuration for the review service
type ReviewServiceConfig struct {
	CacheTTL time.Duration
}

// ReviewService drives the human review workflow: listing parents, editing
// generated content, approving or rejecting, and comparing source data.
type ReviewService struct {
	store    domain.ContentStore
	sources  domain.SourceStore
	cache    domain.CacheRepository
	notifier domain.Notifier
	logger   *zap.Logger
	cacheTTL time.Duration
}

// NewReviewService creates a new review service with dependencies
func NewReviewService(
	store domain.ContentStore,
	sources domain.SourceStore,
	cache domain.CacheRepository,
	notifier domain.Notifier,
	logger *zap.Logger,
	config ReviewServiceConfig,
) *ReviewService {
	cacheTTL := config.CacheTTL
	if cacheTTL == 0 {
		cacheTTL = 5 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &ReviewService{
		store:    store,
		sources:  sources,
		cache:    cache,
		notifier: notifier,
		logger:   logger,
		cacheTTL: cacheTTL,
	}
}

// ProductList is a filtered page of parents. Stats cover every parent, not
// only the filtered ones.
type ProductList struct {
	Products []domain.ParentProduct `json:"products"`
	Stats    domain.ProductStats    `json:"stats"`
}

// ProductDetail is a parent with its locally stored variants
type ProductDetail struct {
	Product       *domain.ParentProduct   `json:"product"`
	Variants      []domain.ProductVariant `json:"variants"`
	VariantsError string                  `json:"variants_error,omitempty"`
}

// ContentUpdate carries the generated fields an operator edited. Nil fields are left untouched.
type ContentUpdate struct {
	Title       *string `json:"generic_title"`
	Description *string `json:"generic_description"`
	Keywords    *string `json:"generic_keywords"`
}

// VariantSpecsUpdate carries edited variant specs. Nil fields are left untouched.
type VariantSpecsUpdate struct {
	FullSpecification *string `json:"full_specification"`
	TechSpecsSummary  *string `json:"tech_specs_summary"`
}

// SourceData holds the source-of-truth rows for one product. Either may be nil.
type SourceData struct {
	Webhook *domain.ShopifyRawWebhook `json:"webhook"`
	Content *domain.ProductsRow       `json:"content"`
}

// SourceComparison compares the variants in the raw Shopify webhook against
// the variants in the AI generated content.
type SourceComparison struct {
	ParentID         int64                           `json:"parent_id"`
	ShopifyProductID string                          `json:"shopify_product_id"`
	WebhookAvailable bool                            `json:"webhook_available"`
	ContentAvailable bool                            `json:"content_available"`
	WebhookVariants  []domain.VariantRecord          `json:"webhook_variants"`
	ContentVariants  []domain.VariantRecord          `json:"content_variants"`
	Entries          []domain.ComparisonEntry        `json:"entries"`
	Counts           map[domain.ComparisonStatus]int `json:"counts"`
	Report           domain.DiscrepancyReport        `json:"report"`
	Message          string                          `json:"message,omitempty"`
}

// ListProducts returns the parents matching query along with review stats
func (s *ReviewService) ListProducts(ctx context.Context, query ProductQuery) (*ProductList, error) {
	parents, err := s.store.ListParents(ctx)
	if err != nil {
		s.notifier.Error(fmt.Sprintf("Failed to load products: %v", err))
		return nil, err
	}

	return &ProductList{
		Products: FilterProducts(parents, query),
		Stats:    ComputeStats(parents),
	}, nil
}

// GetParent returns one parent row without its variants. Store failures are
// surfaced to the notifier; an unknown id is not.
func (s *ReviewService) GetParent(ctx context.Context, id int64) (*domain.ParentProduct, error) {
	parent, err := s.store.GetParent(ctx, id)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			s.notifier.Error(fmt.Sprintf("Failed to load product: %v", err))
		}
		return nil, err
	}
	return parent, nil
}

// GetProduct returns a parent and its variants. A failed variant lookup does
// not fail the call, the parent is still returned.
func (s *ReviewService) GetProduct(ctx context.Context, id int64) (*ProductDetail, error) {
	parent, err := s.GetParent(ctx, id)
	if err != nil {
		return nil, err
	}

	detail := &ProductDetail{Product: parent, Variants: []domain.ProductVariant{}}
	if parent.ShopifyProductID == "" {
		return detail, nil
	}

	variants, err := s.store.ListVariants(ctx, parent.ShopifyProductID.String())
	if err != nil {
		s.logger.Warn("failed to load variants",
			zap.Int64("parent_id", id),
			zap.String("shopify_product_id", parent.ShopifyProductID.String()),
			zap.Error(err))
		detail.VariantsError = err.Error()
		return detail, nil
	}
	detail.Variants = variants
	return detail, nil
}

// UpdateContent patches the generated title, description and keywords of a parent
func (s *ReviewService) UpdateContent(ctx context.Context, id int64, update ContentUpdate) (*domain.ParentProduct, error) {
	patch := map[string]interface{}{}
	if update.Title != nil {
		patch["generic_title"] = *update.Title
	}
	if update.Description != nil {
		patch["generic_description"] = *update.Description
	}
	if update.Keywords != nil {
		patch["generic_keywords"] = *update.Keywords
	}
	if len(patch) == 0 {
		return nil, fmt.Errorf("%w: no content fields provided", domain.ErrInvalidRequest)
	}

	parent, err := s.store.UpdateParent(ctx, id, patch)
	if err != nil {
		s.notifier.Error(fmt.Sprintf("Failed to save content: %v", err))
		return nil, err
	}
	s.notifier.Success("Content saved")
	return parent, nil
}

// SetStatus approves or rejects a parent
func (s *ReviewService) SetStatus(ctx context.Context, id int64, status domain.ProductStatus) (*domain.ParentProduct, error) {
	if status != domain.StatusApproved && status != domain.StatusRejected {
		return nil, fmt.Errorf("%w: status must be approved or rejected", domain.ErrInvalidRequest)
	}

	parent, err := s.store.UpdateParent(ctx, id, map[string]interface{}{"status": string(status)})
	if err != nil {
		s.notifier.Error(fmt.Sprintf("Failed to mark product %s: %v", status, err))
		return nil, err
	}
	s.notifier.Success(fmt.Sprintf("Product %s", status))
	return parent, nil
}

// UpdateVariantSpecs patches the specs of one local variant row
func (s *ReviewService) UpdateVariantSpecs(ctx context.Context, id int64, update VariantSpecsUpdate) (*domain.ProductVariant, error) {
	patch := map[string]interface{}{}
	if update.FullSpecification != nil {
		patch["full_specification"] = *update.FullSpecification
	}
	if update.TechSpecsSummary != nil {
		patch["tech_specs_summary"] = *update.TechSpecsSummary
	}
	if len(patch) == 0 {
		return nil, fmt.Errorf("%w: no variant fields provided", domain.ErrInvalidRequest)
	}

	variant, err := s.store.UpdateVariant(ctx, id, patch)
	if err != nil {
		s.notifier.Error(fmt.Sprintf("Failed to save variant: %v", err))
		return nil, err
	}
	s.notifier.Success("Variant saved")
	return variant, nil
}

// LoadSources fetches the raw webhook and the products table row for a
// Shopify product concurrently. A failed or missing source is returned as
// nil and never fails the call.
func (s *ReviewService) LoadSources(ctx context.Context, shopifyProductID string) (*SourceData, error) {
	if shopifyProductID == "" {
		return nil, fmt.Errorf("%w: shopify product id is required", domain.ErrInvalidRequest)
	}

	data := &SourceData{}
	var g errgroup.Group

	g.Go(func() error {
		var webhook domain.ShopifyRawWebhook
		if s.loadCached(ctx, "webhook:"+shopifyProductID, &webhook, func() (interface{}, error) {
			return s.sources.GetRawWebhook(ctx, shopifyProductID)
		}) {
			data.Webhook = &webhook
		}
		return nil
	})
	g.Go(func() error {
		var row domain.ProductsRow
		if s.loadCached(ctx, "content:"+shopifyProductID, &row, func() (interface{}, error) {
			return s.sources.GetProductsRow(ctx, shopifyProductID)
		}) {
			data.Content = &row
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return data, nil
}

// loadCached decodes key from the cache into dst, falling back to fetch and
// caching its result. It reports whether dst was filled.
func (s *ReviewService) loadCached(ctx context.Context, key string, dst interface{}, fetch func() (interface{}, error)) bool {
	if s.cache != nil {
		if b, err := s.cache.Get(ctx, key); err == nil {
			if err := json.Unmarshal(b, dst); err == nil {
				return true
			}
		} else if !errors.Is(err, domain.ErrCacheMiss) {
			s.logger.Warn("cache read failed", zap.String("key", key), zap.Error(err))
		}
	}

	v, err := fetch()
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			s.logger.Debug("source not found", zap.String("key", key))
		} else {
			s.logger.Warn("source fetch failed", zap.String("key", key), zap.Error(err))
		}
		return false
	}

	b, err := json.Marshal(v)
	if err != nil {
		return false
	}
	if err := json.Unmarshal(b, dst); err != nil {
		return false
	}
	if s.cache != nil {
		if err := s.cache.Set(ctx, key, b, s.cacheTTL); err != nil {
			s.logger.Warn("cache write failed", zap.String("key", key), zap.Error(err))
		}
	}
	return true
}

// CompareSources compares the webhook variants of a parent against its AI
// content variants. Missing sources compare as empty lists.
func (s *ReviewService) CompareSources(ctx context.Context, parentID int64) (*SourceComparison, error) {
	parent, err := s.GetParent(ctx, parentID)
	if err != nil {
		return nil, err
	}

	result := &SourceComparison{
		ParentID:         parentID,
		ShopifyProductID: parent.ShopifyProductID.String(),
	}

	var webhookList, contentList interface{}
	if parent.ShopifyProductID != "" {
		sources, err := s.LoadSources(ctx, parent.ShopifyProductID.String())
		if err != nil {
			return nil, err
		}
		if sources.Webhook != nil {
			result.WebhookAvailable = true
			webhookList = VariantListFrom(domain.SourceShopifyWebhook, sources.Webhook.RawPayload)
		}
		if sources.Content != nil {
			result.ContentAvailable = true
			contentList = VariantListFrom(domain.SourceAIContentTable, sources.Content.AIGeneratedContent)
		}
	}

	result.WebhookVariants = Normalize(domain.SourceShopifyWebhook, webhookList)
	result.ContentVariants = Normalize(domain.SourceAIContentTable, contentList)
	result.Entries = Compare(result.WebhookVariants, result.ContentVariants, ContentFields)
	result.Counts = CountByStatus(result.Entries)
	result.Report = WebhookContentLabels.SummarizeParent(domain.ParentSummary{
		ExpectedVariantCount: parent.ProductContentVariants,
		Entries:              result.Entries,
	}, len(result.ContentVariants))

	if !result.WebhookAvailable && !result.ContentAvailable {
		result.Message = noSourceDataMessage
	}
	return result, nil
}
