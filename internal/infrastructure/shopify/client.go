package shopify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"github.com/contentreview/backend/internal/domain"
)

// Mode selects how live product data is fetched
type Mode string

const (
	// ModeDirect calls the Shopify Admin REST API
	ModeDirect Mode = "direct"
	// ModeProxy posts to a webhook that fetches the product on our behalf
	ModeProxy Mode = "proxy"
	// ModeDisabled turns the live source off
	ModeDisabled Mode = "disabled"
)

// Config holds Shopify source settings
type Config struct {
	Mode        Mode
	ShopDomain  string
	AccessToken string
	APIVersion  string
	ProxyURL    string
	Timeout     time.Duration
}

// Client fetches live products from Shopify
type Client struct {
	httpClient  *http.Client
	mode        Mode
	shopDomain  string
	accessToken string
	apiVersion  string
	proxyURL    string
	logger      *zap.Logger
}

// NewClient creates a new Shopify client
func NewClient(cfg Config, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	apiVersion := cfg.APIVersion
	if apiVersion == "" {
		apiVersion = "2024-01"
	}
	mode := cfg.Mode
	if mode == "" {
		mode = ModeDisabled
	}

	return &Client{
		httpClient:  &http.Client{Timeout: timeout},
		mode:        mode,
		shopDomain:  shopBaseURL(cfg.ShopDomain),
		accessToken: cfg.AccessToken,
		apiVersion:  apiVersion,
		proxyURL:    cfg.ProxyURL,
		logger:      logger.Named("shopify"),
	}
}

// shopBaseURL accepts "shop.myshopify.com" or a full URL
func shopBaseURL(shop string) string {
	shop = strings.TrimRight(strings.TrimSpace(shop), "/")
	if shop == "" || strings.HasPrefix(shop, "http://") || strings.HasPrefix(shop, "https://") {
		return shop
	}
	return "https://" + shop
}

// FetchProduct returns the live product with its variants
func (c *Client) FetchProduct(ctx context.Context, shopifyProductID string) (*domain.ShopifyProduct, error) {
	if shopifyProductID == "" {
		return nil, fmt.Errorf("%w: shopify product id is required", domain.ErrInvalidRequest)
	}

	switch c.mode {
	case ModeDirect:
		return c.fetchDirect(ctx, shopifyProductID)
	case ModeProxy:
		return c.fetchViaProxy(ctx, shopifyProductID)
	default:
		return nil, domain.ErrShopifyNotConfigured
	}
}

func (c *Client) fetchDirect(ctx context.Context, shopifyProductID string) (*domain.ShopifyProduct, error) {
	reqURL := fmt.Sprintf("%s/admin/api/%s/products/%s.json", c.shopDomain, c.apiVersion, shopifyProductID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("X-Shopify-Access-Token", c.accessToken)
	req.Header.Set("Accept", "application/json")

	body, err := c.send(req)
	if err != nil {
		return nil, err
	}
	return decodeProduct(body)
}

func (c *Client) fetchViaProxy(ctx context.Context, shopifyProductID string) (*domain.ShopifyProduct, error) {
	payload, err := json.Marshal(map[string]string{
		"action":             "fetch_product",
		"shopify_product_id": shopifyProductID,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.proxyURL, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	body, err := c.send(req)
	if err != nil {
		return nil, err
	}
	return decodeProduct(body)
}

func (c *Client) send(req *http.Request) ([]byte, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("request failed", zap.String("mode", string(c.mode)), zap.Error(err))
		return nil, fmt.Errorf("%w: %v", domain.ErrShopifyUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read response: %v", domain.ErrShopifyUnavailable, err)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, domain.ErrNotFound
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		c.logger.Warn("unexpected status",
			zap.String("mode", string(c.mode)),
			zap.Int("status", resp.StatusCode),
			zap.String("body", string(body)))
		return nil, fmt.Errorf("%w: status %d - %s", domain.ErrShopifyUnavailable, resp.StatusCode, string(body))
	}
	return body, nil
}

// decodeProduct unwraps {"product": {...}}, a bare product, or a bare
// {"variants": [...]} object. Empty bodies and null mean not found.
func decodeProduct(body []byte) (*domain.ShopifyProduct, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return nil, domain.ErrNotFound
	}
	if !gjson.ValidBytes(trimmed) {
		return nil, fmt.Errorf("%w: invalid response body", domain.ErrShopifyUnavailable)
	}

	doc := gjson.ParseBytes(trimmed)
	if doc.IsArray() {
		// single result wrapped in a list
		doc = doc.Get("0")
	}
	if p := doc.Get("product"); p.IsObject() {
		doc = p
	}
	if !doc.IsObject() {
		return nil, domain.ErrNotFound
	}

	// typed fields are best effort, variants are normalized from Raw
	var product domain.ShopifyProduct
	if err := json.Unmarshal([]byte(doc.Raw), &product); err != nil {
		product = domain.ShopifyProduct{
			ID:    doc.Get("id").Int(),
			Title: doc.Get("title").String(),
		}
	}
	product.Raw = json.RawMessage(doc.Raw)
	return &product, nil
}
