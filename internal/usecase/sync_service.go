package usecase

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/contentreview/backend/internal/domain"
)

// SyncServiceConfig holds configuration for the sync service
type SyncServiceConfig struct {
	// Workers bounds concurrent row updates. 1 runs them one after another.
	Workers int
}

// SyncService compares live Shopify variants with the local variants table
// and writes selected changes back to the local rows.
type SyncService struct {
	store    domain.ContentStore
	shopify  domain.ShopifySource
	notifier domain.Notifier
	logger   *zap.Logger
	workers  int
	newID    func() string
}

// NewSyncService creates a new sync service with dependencies
func NewSyncService(
	store domain.ContentStore,
	shopify domain.ShopifySource,
	notifier domain.Notifier,
	logger *zap.Logger,
	config SyncServiceConfig,
) *SyncService {
	workers := config.Workers
	if workers < 1 {
		workers = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &SyncService{
		store:    store,
		shopify:  shopify,
		notifier: notifier,
		logger:   logger,
		workers:  workers,
		newID:    uuid.NewString,
	}
}

// PullResult is a live Shopify vs local variants comparison
type PullResult struct {
	ParentID         int64                           `json:"parent_id"`
	ShopifyProductID string                          `json:"shopify_product_id"`
	ShopifyVariants  []domain.VariantRecord          `json:"shopify_variants"`
	LocalVariants    []domain.VariantRecord          `json:"local_variants"`
	Entries          []domain.ComparisonEntry        `json:"entries"`
	Counts           map[domain.ComparisonStatus]int `json:"counts"`
	Report           domain.DiscrepancyReport        `json:"report"`
	SelectedKeys     []string                        `json:"selected_keys"`
}

// PullFromShopify fetches the live product and compares its variants with
// the local rows. Entries needing attention are preselected.
func (s *SyncService) PullFromShopify(ctx context.Context, parentID int64) (*PullResult, error) {
	result, err := s.pull(ctx, parentID)
	if err != nil {
		s.notifier.Error(fmt.Sprintf("Failed to pull from Shopify: %v", err))
		return nil, err
	}
	s.notifier.Success(fmt.Sprintf("Pulled %d variant(s) from Shopify", len(result.ShopifyVariants)))
	return result, nil
}

func (s *SyncService) pull(ctx context.Context, parentID int64) (*PullResult, error) {
	parent, err := s.store.GetParent(ctx, parentID)
	if err != nil {
		return nil, err
	}
	productID := parent.ShopifyProductID.String()
	if productID == "" {
		return nil, fmt.Errorf("%w: product %d has no shopify product id", domain.ErrInvalidRequest, parentID)
	}

	product, err := s.shopify.FetchProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	local, err := s.store.ListVariants(ctx, productID)
	if err != nil {
		return nil, err
	}

	var live interface{} = product
	if len(product.Raw) > 0 {
		live = product.Raw
	}

	result := &PullResult{
		ParentID:         parentID,
		ShopifyProductID: productID,
		ShopifyVariants:  Normalize(domain.SourceShopifyWebhook, VariantListFrom(domain.SourceShopifyWebhook, live)),
		LocalVariants:    Normalize(domain.SourceLocalStore, local),
	}
	result.Entries = Compare(result.ShopifyVariants, result.LocalVariants, LocalFields)
	result.Counts = CountByStatus(result.Entries)
	result.Report = ShopifyLocalLabels.Summarize(result.Entries, nil, len(result.LocalVariants))
	result.SelectedKeys = AutoSelect(result.Entries)
	return result, nil
}

// SyncFromShopify pulls fresh data, plans updates for the selected keys and
// applies them to the local rows.
func (s *SyncService) SyncFromShopify(ctx context.Context, parentID int64, selectedKeys []string) (*domain.SyncResult, error) {
	if len(selectedKeys) == 0 {
		return nil, domain.ErrNothingSelected
	}

	pulled, err := s.pull(ctx, parentID)
	if err != nil {
		s.notifier.Error(fmt.Sprintf("Failed to sync from Shopify: %v", err))
		return nil, err
	}

	instructions := Plan(pulled.Entries, NewKeySet(selectedKeys...))
	s.logger.Info("sync planned",
		zap.Int64("parent_id", parentID),
		zap.Int("selected", len(selectedKeys)),
		zap.Int("instructions", len(instructions)))

	result := s.Execute(ctx, instructions)
	return &result, nil
}

// Execute applies every instruction and aggregates the outcome. A failing
// update never stops the others. Updates keep running if ctx is cancelled.
func (s *SyncService) Execute(ctx context.Context, instructions []domain.UpdateInstruction) domain.SyncResult {
	ctx = context.WithoutCancel(ctx)
	result := domain.SyncResult{BatchID: s.newID()}

	outcomes := make([]error, len(instructions))
	apply := func(i int) {
		in := instructions[i]
		_, outcomes[i] = s.store.UpdateVariant(ctx, in.RowID, in.Patch)
	}

	if s.workers <= 1 {
		for i := range instructions {
			apply(i)
		}
	} else {
		var g errgroup.Group
		g.SetLimit(s.workers)
		for i := range instructions {
			i := i
			g.Go(func() error {
				apply(i)
				return nil
			})
		}
		_ = g.Wait()
	}

	for i, err := range outcomes {
		in := instructions[i]
		if err != nil {
			result.ErrorCount++
			result.Failures = append(result.Failures, domain.SyncFailure{
				Key:   in.Key,
				RowID: in.RowID,
				Error: err.Error(),
			})
			s.logger.Warn("variant update failed",
				zap.String("batch_id", result.BatchID),
				zap.Int64("row_id", in.RowID),
				zap.Error(err))
			continue
		}
		result.SuccessCount++
	}

	s.logger.Info("sync finished",
		zap.String("batch_id", result.BatchID),
		zap.Int("success", result.SuccessCount),
		zap.Int("errors", result.ErrorCount))

	if result.SuccessCount > 0 {
		s.notifier.Success(fmt.Sprintf("Updated %d variant(s)", result.SuccessCount))
	}
	if result.ErrorCount > 0 {
		s.notifier.Error(fmt.Sprintf("Failed to update %d variant(s)", result.ErrorCount))
	}
	if len(instructions) == 0 {
		s.notifier.Success("No variant updates needed")
	}
	return result
}
