package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/contentreview/backend/internal/domain"
)

// MockCacheRepository is a mock implementation of domain.CacheRepository
type MockCacheRepository struct {
	mu       sync.Mutex
	data     map[string][]byte
	getError error
	setError error
	gets     int
	sets     int
}

func NewMockCacheRepository() *MockCacheRepository {
	return &MockCacheRepository{
		data: make(map[string][]byte),
	}
}

func (m *MockCacheRepository) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gets++
	if m.getError != nil {
		return nil, m.getError
	}
	if value, ok := m.data[key]; ok {
		return value, nil
	}
	return nil, domain.ErrCacheMiss
}

func (m *MockCacheRepository) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sets++
	if m.setError != nil {
		return m.setError
	}
	m.data[key] = value
	return nil
}

func (m *MockCacheRepository) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

func (m *MockCacheRepository) Exists(ctx context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.data[key]
	return ok, nil
}

// MockContentStore is an in-memory domain.ContentStore
type MockContentStore struct {
	mu              sync.Mutex
	parents         []domain.ParentProduct
	variants        []domain.ProductVariant
	listError       error
	getError        error
	variantsError   error
	updateError     error
	failVariantRows map[int64]bool
	parentPatches   []map[string]interface{}
	variantPatches  map[int64]map[string]interface{}
}

func NewMockContentStore() *MockContentStore {
	return &MockContentStore{
		failVariantRows: make(map[int64]bool),
		variantPatches:  make(map[int64]map[string]interface{}),
	}
}

func (m *MockContentStore) ListParents(ctx context.Context) ([]domain.ParentProduct, error) {
	if m.listError != nil {
		return nil, m.listError
	}
	return m.parents, nil
}

func (m *MockContentStore) GetParent(ctx context.Context, id int64) (*domain.ParentProduct, error) {
	if m.getError != nil {
		return nil, m.getError
	}
	for i := range m.parents {
		if m.parents[i].ID == id {
			p := m.parents[i]
			return &p, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *MockContentStore) UpdateParent(ctx context.Context, id int64, patch map[string]interface{}) (*domain.ParentProduct, error) {
	if m.updateError != nil {
		return nil, m.updateError
	}
	m.parentPatches = append(m.parentPatches, patch)
	p, err := m.GetParent(ctx, id)
	if err != nil {
		return nil, err
	}
	if s, ok := patch["status"].(string); ok {
		p.Status = domain.ProductStatus(s)
	}
	if s, ok := patch["generic_title"].(string); ok {
		p.GenericTitle = &s
	}
	return p, nil
}

func (m *MockContentStore) ListVariants(ctx context.Context, shopifyProductID string) ([]domain.ProductVariant, error) {
	if m.variantsError != nil {
		return nil, m.variantsError
	}
	var out []domain.ProductVariant
	for _, v := range m.variants {
		if v.ShopifyProductID.String() == shopifyProductID {
			out = append(out, v)
		}
	}
	return out, nil
}

func (m *MockContentStore) UpdateVariant(ctx context.Context, id int64, patch map[string]interface{}) (*domain.ProductVariant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.updateError != nil {
		return nil, m.updateError
	}
	if m.failVariantRows[id] {
		return nil, domain.ErrStoreUnavailable
	}
	m.variantPatches[id] = patch
	return &domain.ProductVariant{ID: id}, nil
}

// MockSourceStore is a mock implementation of domain.SourceStore
type MockSourceStore struct {
	mu           sync.Mutex
	webhook      *domain.ShopifyRawWebhook
	content      *domain.ProductsRow
	webhookError error
	contentError error
	webhookCalls int
	contentCalls int
}

func (m *MockSourceStore) GetRawWebhook(ctx context.Context, shopifyProductID string) (*domain.ShopifyRawWebhook, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.webhookCalls++
	if m.webhookError != nil {
		return nil, m.webhookError
	}
	if m.webhook == nil {
		return nil, domain.ErrNotFound
	}
	return m.webhook, nil
}

func (m *MockSourceStore) GetProductsRow(ctx context.Context, shopifyProductID string) (*domain.ProductsRow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.contentCalls++
	if m.contentError != nil {
		return nil, m.contentError
	}
	if m.content == nil {
		return nil, domain.ErrNotFound
	}
	return m.content, nil
}

// MockShopifySource is a mock implementation of domain.ShopifySource
type MockShopifySource struct {
	product *domain.ShopifyProduct
	err     error
}

func (m *MockShopifySource) FetchProduct(ctx context.Context, shopifyProductID string) (*domain.ShopifyProduct, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.product, nil
}

// MockNotifier records notifications
type MockNotifier struct {
	mu        sync.Mutex
	successes []string
	errors    []string
}

func (m *MockNotifier) Success(message string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.successes = append(m.successes, message)
}

func (m *MockNotifier) Error(message string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors = append(m.errors, message)
}
