package usecase

import (
	"regexp"
	"strings"

	"github.com/contentreview/backend/internal/domain"
)

var multiSpacePattern = regexp.MustCompile(`\s+`)

// ProductQuery filters the parent product list
type ProductQuery struct {
	Search string
	Status domain.ProductStatus
}

// normalizeSearch lowercases the query and collapses whitespace
func normalizeSearch(s string) string {
	s = multiSpacePattern.ReplaceAllString(s, " ")
	return strings.ToLower(strings.TrimSpace(s))
}

// FilterProducts keeps parents whose generic title or Shopify id contains the
// search text (case-insensitive) and, when set, whose status matches.
func FilterProducts(products []domain.ParentProduct, query ProductQuery) []domain.ParentProduct {
	search := normalizeSearch(query.Search)
	filtered := make([]domain.ParentProduct, 0, len(products))
	for _, p := range products {
		if query.Status != "" && p.Status != query.Status {
			continue
		}
		if search != "" && !matchesSearch(p, search) {
			continue
		}
		filtered = append(filtered, p)
	}
	return filtered
}

func matchesSearch(p domain.ParentProduct, search string) bool {
	if p.GenericTitle != nil && strings.Contains(normalizeSearch(*p.GenericTitle), search) {
		return true
	}
	return strings.Contains(strings.ToLower(p.ShopifyProductID.String()), search)
}

// ComputeStats counts parents per review status
func ComputeStats(products []domain.ParentProduct) domain.ProductStats {
	stats := domain.ProductStats{Total: len(products)}
	for _, p := range products {
		switch p.Status {
		case domain.StatusApproved:
			stats.Approved++
		case domain.StatusRejected:
			stats.Rejected++
		default:
			stats.Pending++
		}
	}
	return stats
}
