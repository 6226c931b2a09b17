package usecase

import (
	"fmt"
	"strings"

	"github.com/contentreview/backend/internal/domain"
)

// ReportLabels name the two sides of a comparison in report messages
type ReportLabels struct {
	A string
	B string
}

var (
	// DefaultLabels is used by Summarize
	DefaultLabels = ReportLabels{A: "source A", B: "source B"}

	// WebhookContentLabels label a webhook vs content table comparison
	WebhookContentLabels = ReportLabels{A: "Shopify webhook", B: "content table"}

	// ShopifyLocalLabels label a live Shopify vs local variants comparison
	ShopifyLocalLabels = ReportLabels{A: "Shopify", B: "local variants"}
)

// Summarize builds a discrepancy report with DefaultLabels
func Summarize(entries []domain.ComparisonEntry, expectedCount *int, sideBCount int) domain.DiscrepancyReport {
	return DefaultLabels.Summarize(entries, expectedCount, sideBCount)
}

// Summarize reports count mismatches and variants present on only one side.
// Every rule is evaluated, so several messages can be emitted at once. Field
// level changes do not affect the result.
func (l ReportLabels) Summarize(entries []domain.ComparisonEntry, expectedCount *int, sideBCount int) domain.DiscrepancyReport {
	report := domain.DiscrepancyReport{
		Messages:     []string{},
		OnlyInANames: []string{},
		OnlyInBNames: []string{},
	}

	countA, countB := 0, 0
	for _, e := range entries {
		if e.SideA != nil {
			countA++
		}
		if e.SideB != nil {
			countB++
		}
		switch e.Status {
		case domain.StatusOnlyInA:
			report.OnlyInANames = append(report.OnlyInANames, e.SideA.DisplayName)
		case domain.StatusOnlyInB:
			report.OnlyInBNames = append(report.OnlyInBNames, e.SideB.DisplayName)
		}
	}

	if expectedCount != nil && *expectedCount != sideBCount {
		report.Messages = append(report.Messages,
			fmt.Sprintf("Expected %d variants but %s has %d", *expectedCount, l.B, sideBCount))
	}

	if countA != countB {
		report.Messages = append(report.Messages,
			fmt.Sprintf("Variant count mismatch: %s has %d, %s has %d", l.A, countA, l.B, countB))
	}

	if n := len(report.OnlyInANames); n > 0 {
		report.Messages = append(report.Messages,
			fmt.Sprintf("%d variant(s) only in %s: %s", n, l.A, strings.Join(report.OnlyInANames, ", ")))
	}

	if n := len(report.OnlyInBNames); n > 0 {
		report.Messages = append(report.Messages,
			fmt.Sprintf("%d variant(s) only in %s: %s", n, l.B, strings.Join(report.OnlyInBNames, ", ")))
	}

	report.OverallOK = len(report.Messages) == 0
	return report
}

// SummarizeParent summarizes a parent's comparison against its expected variant count
func (l ReportLabels) SummarizeParent(summary domain.ParentSummary, sideBCount int) domain.DiscrepancyReport {
	return l.Summarize(summary.Entries, summary.ExpectedVariantCount, sideBCount)
}
