package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/contentreview/backend/config"
	"github.com/contentreview/backend/internal/domain"
	"github.com/contentreview/backend/internal/infrastructure/cache"
	"github.com/contentreview/backend/internal/infrastructure/notify"
	"github.com/contentreview/backend/internal/usecase"
)

// TestMain sets up test environment before running tests
func TestMain(m *testing.M) {
	// Set Gin to test mode once for all tests
	gin.SetMode(gin.TestMode)

	exitCode := m.Run()

	os.Exit(exitCode)
}

func strPtr(s string) *string { return &s }

func intPtr(n int) *int { return &n }

// fakeStore serves the review tables and source tables from memory
type fakeStore struct {
	mu             sync.Mutex
	parents        []domain.ParentProduct
	variants       []domain.ProductVariant
	webhooks       map[string]*domain.ShopifyRawWebhook
	content        map[string]*domain.ProductsRow
	listError      error
	variantPatches map[int64]map[string]interface{}
	variantLists   int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		parents: []domain.ParentProduct{
			{ID: 1, ShopifyProductID: "9001", GenericTitle: strPtr("Cotton Tee"), Status: domain.StatusPending, ProductContentVariants: intPtr(2)},
			{ID: 2, ShopifyProductID: "9002", GenericTitle: strPtr("Wool Scarf"), Status: domain.StatusApproved},
			{ID: 3, ShopifyProductID: "7003", Status: domain.StatusRejected},
			{ID: 4, GenericTitle: strPtr("Orphan"), Status: domain.StatusPending},
		},
		variants: []domain.ProductVariant{
			{ID: 10, ShopifyProductID: "9001", ShopifyVariantID: "1", VariantName: "red / s"},
			{ID: 11, ShopifyProductID: "9001", ShopifyVariantID: "2", VariantName: "Blue / M"},
		},
		webhooks: map[string]*domain.ShopifyRawWebhook{
			"9001": {ID: 1, ShopifyProductID: "9001", RawPayload: json.RawMessage(
				`{"id": 9001, "variants": [{"id": 1, "title": "Red / S"}, {"id": 2, "title": "Blue / M"}]}`)},
		},
		content: map[string]*domain.ProductsRow{
			"9001": {ID: 5, ShopifyProductID: "9001", AIGeneratedContent: json.RawMessage(
				`"{\"variants\": [{\"variant_name\": \"Red / S\"}, {\"variant_name\": \"Blue / M\"}]}"`)},
		},
		variantPatches: make(map[int64]map[string]interface{}),
	}
}

func (s *fakeStore) ListParents(ctx context.Context) ([]domain.ParentProduct, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listError != nil {
		return nil, s.listError
	}
	return append([]domain.ParentProduct(nil), s.parents...), nil
}

func (s *fakeStore) GetParent(ctx context.Context, id int64) (*domain.ParentProduct, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.parents {
		if s.parents[i].ID == id {
			p := s.parents[i]
			return &p, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (s *fakeStore) UpdateParent(ctx context.Context, id int64, patch map[string]interface{}) (*domain.ParentProduct, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.parents {
		p := &s.parents[i]
		if p.ID != id {
			continue
		}
		if v, ok := patch["status"].(string); ok {
			p.Status = domain.ProductStatus(v)
		}
		if v, ok := patch["generic_title"].(string); ok {
			p.GenericTitle = &v
		}
		out := *p
		return &out, nil
	}
	return nil, domain.ErrNotFound
}

func (s *fakeStore) ListVariants(ctx context.Context, shopifyProductID string) ([]domain.ProductVariant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.variantLists++
	var out []domain.ProductVariant
	for _, v := range s.variants {
		if v.ShopifyProductID.String() == shopifyProductID {
			out = append(out, v)
		}
	}
	return out, nil
}

func (s *fakeStore) UpdateVariant(ctx context.Context, id int64, patch map[string]interface{}) (*domain.ProductVariant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.variants {
		v := &s.variants[i]
		if v.ID != id {
			continue
		}
		s.variantPatches[id] = patch
		if name, ok := patch["variant_name"].(string); ok {
			v.VariantName = name
		}
		if spec, ok := patch["full_specification"].(string); ok {
			v.FullSpecification = &spec
		}
		out := *v
		return &out, nil
	}
	return nil, domain.ErrNotFound
}

func (s *fakeStore) GetRawWebhook(ctx context.Context, shopifyProductID string) (*domain.ShopifyRawWebhook, error) {
	if w, ok := s.webhooks[shopifyProductID]; ok {
		return w, nil
	}
	return nil, domain.ErrNotFound
}

func (s *fakeStore) GetProductsRow(ctx context.Context, shopifyProductID string) (*domain.ProductsRow, error) {
	if c, ok := s.content[shopifyProductID]; ok {
		return c, nil
	}
	return nil, domain.ErrNotFound
}

// fakeShopify returns a fixed live product or error
type fakeShopify struct {
	product *domain.ShopifyProduct
	err     error
}

func (f *fakeShopify) FetchProduct(ctx context.Context, shopifyProductID string) (*domain.ShopifyProduct, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.product, nil
}

func liveShopify() *fakeShopify {
	return &fakeShopify{product: &domain.ShopifyProduct{
		ID: 9001,
		Raw: json.RawMessage(`{"id": 9001, "variants": [
			{"id": 1, "title": "Red / S", "price": "10.00"},
			{"id": 2, "title": "Blue / M", "price": "12.00"}
		]}`),
	}}
}

type testEnv struct {
	router *gin.Engine
	store  *fakeStore
	feed   *notify.Feed
}

// setupTestRouter wires the real services over in-memory stores
func setupTestRouter(t *testing.T, shop *fakeShopify) *testEnv {
	t.Helper()

	cfg := &config.Config{
		Server: config.ServerConfig{
			Port:           "8080",
			Environment:    "test",
			AllowedOrigins: []string{"http://localhost:*"},
		},
		Cache: config.CacheConfig{Type: "memory"},
	}

	store := newFakeStore()
	memoryCache := cache.NewMemoryCache(time.Minute)
	t.Cleanup(func() { memoryCache.Close() })
	feed := notify.NewFeed(10, nil)

	review := usecase.NewReviewService(store, store, memoryCache, feed, nil, usecase.ReviewServiceConfig{})
	syncService := usecase.NewSyncService(store, shop, feed, nil, usecase.SyncServiceConfig{Workers: 2})

	handler := NewHandler(review, syncService, feed, nil)
	router := SetupRouter(cfg, handler, nil)
	require.NotNil(t, router)

	return &testEnv{router: router, store: store, feed: feed}
}

func (e *testEnv) do(method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response), "body: %s", w.Body.String())
	return response
}

func TestHealthCheckEndpoint(t *testing.T) {
	t.Run("returns healthy status", func(t *testing.T) {
		env := setupTestRouter(t, liveShopify())

		w := env.do("GET", "/health", "")
		require.Equal(t, http.StatusOK, w.Code)

		response := decodeBody(t, w)
		assert.Equal(t, "healthy", response["status"])
		assert.Equal(t, "contentreview-backend", response["service"])
		assert.NotEmpty(t, response["version"])
	})

	t.Run("accepts GET requests only", func(t *testing.T) {
		env := setupTestRouter(t, liveShopify())

		for _, method := range []string{"POST", "PUT", "DELETE", "PATCH"} {
			w := env.do(method, "/health", "")
			if w.Code != http.StatusNotFound {
				t.Errorf("Method %s: Status = %d, want %d", method, w.Code, http.StatusNotFound)
			}
		}
	})
}

func TestListProductsEndpoint(t *testing.T) {
	tests := []struct {
		name       string
		query      string
		wantStatus int
		wantIDs    []float64
	}{
		{name: "all products", query: "", wantStatus: http.StatusOK, wantIDs: []float64{1, 2, 3, 4}},
		{name: "explicit all status", query: "?status=all", wantStatus: http.StatusOK, wantIDs: []float64{1, 2, 3, 4}},
		{name: "pending only", query: "?status=pending", wantStatus: http.StatusOK, wantIDs: []float64{1, 4}},
		{name: "search title", query: "?search=wool", wantStatus: http.StatusOK, wantIDs: []float64{2}},
		{name: "search shopify id", query: "?search=7003", wantStatus: http.StatusOK, wantIDs: []float64{3}},
		{name: "unknown status", query: "?status=archived", wantStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := setupTestRouter(t, liveShopify())

			w := env.do("GET", "/api/v1/products"+tt.query, "")
			require.Equal(t, tt.wantStatus, w.Code, w.Body.String())
			if tt.wantStatus != http.StatusOK {
				return
			}

			response := decodeBody(t, w)
			products, _ := response["products"].([]interface{})
			var ids []float64
			for _, p := range products {
				ids = append(ids, p.(map[string]interface{})["id"].(float64))
			}
			assert.Equal(t, tt.wantIDs, ids)

			stats := response["stats"].(map[string]interface{})
			assert.Equal(t, float64(4), stats["total"])
			assert.Equal(t, float64(2), stats["pending"])
		})
	}

	t.Run("store failure maps to bad gateway", func(t *testing.T) {
		env := setupTestRouter(t, liveShopify())
		env.store.listError = domain.ErrStoreUnavailable

		w := env.do("GET", "/api/v1/products", "")
		assert.Equal(t, http.StatusBadGateway, w.Code)

		notes := env.feed.Recent(1)
		require.Len(t, notes, 1)
		assert.Equal(t, notify.LevelError, notes[0].Level)
	})
}

func TestGetProductEndpoint(t *testing.T) {
	tests := []struct {
		name       string
		path       string
		wantStatus int
	}{
		{name: "existing product", path: "/api/v1/products/1", wantStatus: http.StatusOK},
		{name: "missing product", path: "/api/v1/products/999", wantStatus: http.StatusNotFound},
		{name: "non numeric id", path: "/api/v1/products/abc", wantStatus: http.StatusBadRequest},
		{name: "zero id", path: "/api/v1/products/0", wantStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := setupTestRouter(t, liveShopify())
			w := env.do("GET", tt.path, "")
			assert.Equal(t, tt.wantStatus, w.Code, w.Body.String())
		})
	}

	t.Run("includes local variants", func(t *testing.T) {
		env := setupTestRouter(t, liveShopify())

		w := env.do("GET", "/api/v1/products/1", "")
		require.Equal(t, http.StatusOK, w.Code)

		response := decodeBody(t, w)
		variants := response["variants"].([]interface{})
		assert.Len(t, variants, 2)
		assert.Equal(t, "Cotton Tee", response["product"].(map[string]interface{})["generic_title"])
	})
}

func TestUpdateContentEndpoint(t *testing.T) {
	t.Run("saves title and notifies", func(t *testing.T) {
		env := setupTestRouter(t, liveShopify())

		w := env.do("PATCH", "/api/v1/products/1/content", `{"generic_title": "Organic Cotton Tee"}`)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.Equal(t, "Organic Cotton Tee", decodeBody(t, w)["generic_title"])

		notes := env.feed.Recent(1)
		require.Len(t, notes, 1)
		assert.Equal(t, "Content saved", notes[0].Message)
	})

	t.Run("empty patch is rejected", func(t *testing.T) {
		env := setupTestRouter(t, liveShopify())
		w := env.do("PATCH", "/api/v1/products/1/content", `{}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("malformed body is rejected", func(t *testing.T) {
		env := setupTestRouter(t, liveShopify())
		w := env.do("PATCH", "/api/v1/products/1/content", `{"generic_title":`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestStatusEndpoints(t *testing.T) {
	tests := []struct {
		name       string
		path       string
		wantStatus int
		want       string
	}{
		{name: "approve", path: "/api/v1/products/1/approve", wantStatus: http.StatusOK, want: "approved"},
		{name: "reject", path: "/api/v1/products/2/reject", wantStatus: http.StatusOK, want: "rejected"},
		{name: "approve missing", path: "/api/v1/products/42/approve", wantStatus: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := setupTestRouter(t, liveShopify())

			w := env.do("POST", tt.path, "")
			require.Equal(t, tt.wantStatus, w.Code, w.Body.String())
			if tt.want != "" {
				assert.Equal(t, tt.want, decodeBody(t, w)["status"])
			}
		})
	}
}

func TestSourcesEndpoint(t *testing.T) {
	t.Run("returns both sources", func(t *testing.T) {
		env := setupTestRouter(t, liveShopify())

		w := env.do("GET", "/api/v1/products/1/sources", "")
		require.Equal(t, http.StatusOK, w.Code)

		response := decodeBody(t, w)
		assert.Equal(t, true, response["webhook_available"])
		assert.Equal(t, true, response["content_available"])
	})

	t.Run("does not load variants", func(t *testing.T) {
		env := setupTestRouter(t, liveShopify())

		w := env.do("GET", "/api/v1/products/1/sources", "")
		require.Equal(t, http.StatusOK, w.Code)

		env.store.mu.Lock()
		defer env.store.mu.Unlock()
		assert.Equal(t, 0, env.store.variantLists)
	})

	t.Run("missing sources are not an error", func(t *testing.T) {
		env := setupTestRouter(t, liveShopify())

		w := env.do("GET", "/api/v1/products/3/sources", "")
		require.Equal(t, http.StatusOK, w.Code)

		response := decodeBody(t, w)
		assert.Equal(t, false, response["webhook_available"])
		assert.Equal(t, false, response["content_available"])
		assert.Nil(t, response["webhook"])
	})
}

func TestComparisonEndpoint(t *testing.T) {
	t.Run("matching sources", func(t *testing.T) {
		env := setupTestRouter(t, liveShopify())

		w := env.do("GET", "/api/v1/products/1/comparison", "")
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		response := decodeBody(t, w)
		counts := response["counts"].(map[string]interface{})
		assert.Equal(t, float64(2), counts["matched"])

		report := response["report"].(map[string]interface{})
		assert.Equal(t, true, report["overall_ok"])
		assert.Empty(t, response["message"])
	})

	t.Run("no sources available", func(t *testing.T) {
		env := setupTestRouter(t, liveShopify())

		w := env.do("GET", "/api/v1/products/3/comparison", "")
		require.Equal(t, http.StatusOK, w.Code)

		response := decodeBody(t, w)
		assert.Equal(t, "No data available for this product", response["message"])
		assert.Empty(t, response["entries"])
	})
}

func TestShopifyPullEndpoint(t *testing.T) {
	t.Run("preselects changed variants", func(t *testing.T) {
		env := setupTestRouter(t, liveShopify())

		w := env.do("POST", "/api/v1/products/1/shopify/pull", "")
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		response := decodeBody(t, w)
		assert.Equal(t, []interface{}{"Red / S"}, response["selected_keys"])

		entries := response["entries"].([]interface{})
		require.Len(t, entries, 2)
		first := entries[0].(map[string]interface{})
		assert.Equal(t, "changed", first["status"])
		assert.NotEmpty(t, first["differences"])
	})

	t.Run("disabled shopify is unavailable", func(t *testing.T) {
		env := setupTestRouter(t, &fakeShopify{err: domain.ErrShopifyNotConfigured})
		w := env.do("POST", "/api/v1/products/1/shopify/pull", "")
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	})

	t.Run("shopify failure is bad gateway", func(t *testing.T) {
		env := setupTestRouter(t, &fakeShopify{err: domain.ErrShopifyUnavailable})
		w := env.do("POST", "/api/v1/products/1/shopify/pull", "")
		assert.Equal(t, http.StatusBadGateway, w.Code)
	})

	t.Run("parent without shopify id", func(t *testing.T) {
		env := setupTestRouter(t, liveShopify())
		w := env.do("POST", "/api/v1/products/4/shopify/pull", "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestShopifySyncEndpoint(t *testing.T) {
	t.Run("updates selected rows", func(t *testing.T) {
		env := setupTestRouter(t, liveShopify())

		w := env.do("POST", "/api/v1/products/1/shopify/sync", `{"selected_keys": ["Red / S"]}`)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		response := decodeBody(t, w)
		assert.Equal(t, float64(1), response["success_count"])
		assert.Equal(t, float64(0), response["error_count"])
		assert.NotEmpty(t, response["batch_id"])

		assert.Equal(t, map[int64]map[string]interface{}{
			10: {"variant_name": "Red / S"},
		}, env.store.variantPatches)
	})

	t.Run("nothing selected", func(t *testing.T) {
		env := setupTestRouter(t, liveShopify())
		w := env.do("POST", "/api/v1/products/1/shopify/sync", `{"selected_keys": []}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Empty(t, env.store.variantPatches)
	})

	t.Run("missing body", func(t *testing.T) {
		env := setupTestRouter(t, liveShopify())
		w := env.do("POST", "/api/v1/products/1/shopify/sync", "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestUpdateVariantEndpoint(t *testing.T) {
	t.Run("saves specification", func(t *testing.T) {
		env := setupTestRouter(t, liveShopify())

		w := env.do("PATCH", "/api/v1/variants/11", `{"full_specification": "100% cotton"}`)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.Equal(t, "100% cotton", decodeBody(t, w)["full_specification"])
	})

	t.Run("missing variant", func(t *testing.T) {
		env := setupTestRouter(t, liveShopify())
		w := env.do("PATCH", "/api/v1/variants/99", `{"full_specification": "x"}`)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("empty patch", func(t *testing.T) {
		env := setupTestRouter(t, liveShopify())
		w := env.do("PATCH", "/api/v1/variants/11", `{}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestNotificationsEndpoint(t *testing.T) {
	env := setupTestRouter(t, liveShopify())
	env.do("POST", "/api/v1/products/1/approve", "")
	env.do("POST", "/api/v1/products/2/reject", "")

	t.Run("newest first", func(t *testing.T) {
		w := env.do("GET", "/api/v1/notifications", "")
		require.Equal(t, http.StatusOK, w.Code)

		notes := decodeBody(t, w)["notifications"].([]interface{})
		require.Len(t, notes, 2)
		assert.Equal(t, "Product rejected", notes[0].(map[string]interface{})["message"])
		assert.Equal(t, "Product approved", notes[1].(map[string]interface{})["message"])
	})

	t.Run("respects limit", func(t *testing.T) {
		w := env.do("GET", "/api/v1/notifications?limit=1", "")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Len(t, decodeBody(t, w)["notifications"], 1)
	})

	t.Run("invalid limit", func(t *testing.T) {
		w := env.do("GET", "/api/v1/notifications?limit=-3", "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}
