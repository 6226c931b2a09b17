package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/contentreview/backend/internal/domain"
	"github.com/contentreview/backend/internal/infrastructure/notify"
	"github.com/contentreview/backend/internal/usecase"
)

const defaultNotificationLimit = 20

// NotificationLister reads the notification feed
type NotificationLister interface {
	Recent(limit int) []notify.Notification
}

// Handler holds dependencies for HTTP handlers
type Handler struct {
	review        *usecase.ReviewService
	sync          *usecase.SyncService
	notifications NotificationLister
	logger        *zap.Logger
}

// NewHandler creates a new HTTP handler
func NewHandler(review *usecase.ReviewService, sync *usecase.SyncService, notifications NotificationLister, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		review:        review,
		sync:          sync,
		notifications: notifications,
		logger:        logger,
	}
}

// entryResponse is a comparison entry with its rendered change descriptions
type entryResponse struct {
	domain.ComparisonEntry
	Differences []string `json:"differences"`
}

func renderEntries(entries []domain.ComparisonEntry) []entryResponse {
	out := make([]entryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, entryResponse{ComparisonEntry: e, Differences: e.Differences()})
	}
	return out
}

// HealthCheck returns the health status of the API
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "contentreview-backend",
		"version": "1.0.0",
	})
}

// ListProducts handles GET /products?search=&status=
func (h *Handler) ListProducts(c *gin.Context) {
	query := usecase.ProductQuery{Search: c.Query("search")}
	if s := c.Query("status"); s != "" && s != "all" {
		status, ok := domain.ParseProductStatus(s)
		if !ok {
			h.respondError(c, domain.ErrInvalidRequest)
			return
		}
		query.Status = status
	}

	list, err := h.review.ListProducts(c.Request.Context(), query)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// GetProduct handles GET /products/:id
func (h *Handler) GetProduct(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	detail, err := h.review.GetProduct(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

// UpdateContent handles PATCH /products/:id/content
func (h *Handler) UpdateContent(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	var req usecase.ContentUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, domain.ErrInvalidRequest)
		return
	}

	product, err := h.review.UpdateContent(c.Request.Context(), id, req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

// Approve handles POST /products/:id/approve
func (h *Handler) Approve(c *gin.Context) {
	h.setStatus(c, domain.StatusApproved)
}

// Reject handles POST /products/:id/reject
func (h *Handler) Reject(c *gin.Context) {
	h.setStatus(c, domain.StatusRejected)
}

func (h *Handler) setStatus(c *gin.Context, status domain.ProductStatus) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	product, err := h.review.SetStatus(c.Request.Context(), id, status)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

// GetSources handles GET /products/:id/sources
func (h *Handler) GetSources(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	parent, err := h.review.GetParent(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}

	sources := &usecase.SourceData{}
	if pid := parent.ShopifyProductID.String(); pid != "" {
		if sources, err = h.review.LoadSources(c.Request.Context(), pid); err != nil {
			h.respondError(c, err)
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"parent_id":          id,
		"shopify_product_id": parent.ShopifyProductID,
		"webhook":            sources.Webhook,
		"content":            sources.Content,
		"webhook_available":  sources.Webhook != nil,
		"content_available":  sources.Content != nil,
	})
}

// CompareSources handles GET /products/:id/comparison
func (h *Handler) CompareSources(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	result, err := h.review.CompareSources(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"parent_id":          result.ParentID,
		"shopify_product_id": result.ShopifyProductID,
		"webhook_available":  result.WebhookAvailable,
		"content_available":  result.ContentAvailable,
		"webhook_variants":   result.WebhookVariants,
		"content_variants":   result.ContentVariants,
		"entries":            renderEntries(result.Entries),
		"counts":             result.Counts,
		"report":             result.Report,
		"message":            result.Message,
	})
}

// PullFromShopify handles POST /products/:id/shopify/pull
func (h *Handler) PullFromShopify(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	result, err := h.sync.PullFromShopify(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"parent_id":          result.ParentID,
		"shopify_product_id": result.ShopifyProductID,
		"shopify_variants":   result.ShopifyVariants,
		"local_variants":     result.LocalVariants,
		"entries":            renderEntries(result.Entries),
		"counts":             result.Counts,
		"report":             result.Report,
		"selected_keys":      result.SelectedKeys,
	})
}

// syncRequest is the body of a sync call
type syncRequest struct {
	SelectedKeys []string `json:"selected_keys"`
}

// SyncFromShopify handles POST /products/:id/shopify/sync
func (h *Handler) SyncFromShopify(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	var req syncRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, domain.ErrInvalidRequest)
		return
	}

	result, err := h.sync.SyncFromShopify(c.Request.Context(), id, req.SelectedKeys)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// UpdateVariant handles PATCH /variants/:id
func (h *Handler) UpdateVariant(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	var req usecase.VariantSpecsUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, domain.ErrInvalidRequest)
		return
	}

	variant, err := h.review.UpdateVariantSpecs(c.Request.Context(), id, req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, variant)
}

// ListNotifications handles GET /notifications?limit=
func (h *Handler) ListNotifications(c *gin.Context) {
	limit := defaultNotificationLimit
	if s := c.Query("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			h.respondError(c, domain.ErrInvalidRequest)
			return
		}
		limit = n
	}

	c.JSON(http.StatusOK, gin.H{
		"notifications": h.notifications.Recent(limit),
	})
}

// parseID reads the :id path parameter, answering 400 when it is not a positive integer
func (h *Handler) parseID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		h.respondError(c, domain.ErrInvalidRequest)
		return 0, false
	}
	return id, true
}

// respondError maps domain errors to HTTP status codes
func (h *Handler) respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrInvalidRequest), errors.Is(err, domain.ErrNothingSelected):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrShopifyNotConfigured):
		status = http.StatusServiceUnavailable
	case errors.Is(err, domain.ErrStoreUnavailable), errors.Is(err, domain.ErrShopifyUnavailable):
		status = http.StatusBadGateway
	}

	if status == http.StatusInternalServerError {
		h.logger.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
	}
	_ = c.Error(err)
	c.JSON(status, gin.H{"error": err.Error()})
}
