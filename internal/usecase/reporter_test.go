package usecase

import (
	"strings"
	"testing"

	"github.com/contentreview/backend/internal/domain"
)

func intPtr(n int) *int { return &n }

func TestSummarize(t *testing.T) {
	t.Run("all matched is ok", func(t *testing.T) {
		entries := Compare(named("A", "B"), named("a", "b"), ContentFields)
		report := Summarize(entries, intPtr(2), 2)
		if !report.OverallOK {
			t.Errorf("OverallOK = false, messages = %v", report.Messages)
		}
		if report.Messages == nil || report.OnlyInANames == nil || report.OnlyInBNames == nil {
			t.Error("expected empty, non-nil lists")
		}
	})

	t.Run("changed entries do not fail the report", func(t *testing.T) {
		entries := Compare(named("Red"), named("red"), LocalFields)
		if entries[0].Status != domain.StatusChanged {
			t.Fatalf("Status = %s, want changed", entries[0].Status)
		}
		if report := Summarize(entries, nil, 1); !report.OverallOK {
			t.Errorf("OverallOK = false, messages = %v", report.Messages)
		}
	})

	t.Run("lists variants missing on each side", func(t *testing.T) {
		entries := Compare(named("Blue / M"), named("Green / L"), ContentFields)
		report := Summarize(entries, nil, 1)

		if report.OverallOK {
			t.Error("OverallOK = true, want false")
		}
		if len(report.Messages) != 2 {
			t.Fatalf("Messages = %v, want 2", report.Messages)
		}
		if !strings.Contains(report.Messages[0], "Blue / M") || !strings.Contains(report.Messages[1], "Green / L") {
			t.Errorf("Messages = %v", report.Messages)
		}
		if len(report.OnlyInANames) != 1 || report.OnlyInANames[0] != "Blue / M" {
			t.Errorf("OnlyInANames = %v", report.OnlyInANames)
		}
		if len(report.OnlyInBNames) != 1 || report.OnlyInBNames[0] != "Green / L" {
			t.Errorf("OnlyInBNames = %v", report.OnlyInBNames)
		}
	})

	t.Run("flags expected count mismatch", func(t *testing.T) {
		entries := Compare(named("A", "B"), named("A", "B"), ContentFields)
		report := Summarize(entries, intPtr(3), 2)

		if report.OverallOK {
			t.Error("OverallOK = true, want false")
		}
		if len(report.Messages) != 1 {
			t.Fatalf("Messages = %v, want 1", report.Messages)
		}
		if !strings.Contains(report.Messages[0], "3") || !strings.Contains(report.Messages[0], "2") {
			t.Errorf("message %q should cite 3 and 2", report.Messages[0])
		}
	})

	t.Run("emits both count messages independently", func(t *testing.T) {
		entries := Compare(named("A", "B", "C"), named("A"), ContentFields)
		report := Summarize(entries, intPtr(5), 1)

		// expected count, side count, only in A
		if len(report.Messages) != 3 {
			t.Fatalf("Messages = %v, want 3", report.Messages)
		}
		if !strings.HasPrefix(report.Messages[0], "Expected 5") {
			t.Errorf("Messages[0] = %q", report.Messages[0])
		}
		if !strings.HasPrefix(report.Messages[1], "Variant count mismatch") {
			t.Errorf("Messages[1] = %q", report.Messages[1])
		}
		if report.Messages[2] != "2 variant(s) only in source A: B, C" {
			t.Errorf("Messages[2] = %q", report.Messages[2])
		}
	})

	t.Run("absent sources summarize without messages", func(t *testing.T) {
		report := Summarize(Compare(nil, nil, ContentFields), nil, 0)
		if !report.OverallOK || len(report.Messages) != 0 {
			t.Errorf("report = %+v", report)
		}
	})

	t.Run("uses side labels", func(t *testing.T) {
		entries := Compare(nil, named("X"), ContentFields)
		report := WebhookContentLabels.Summarize(entries, nil, 1)
		want := "Variant count mismatch: Shopify webhook has 0, content table has 1"
		if report.Messages[0] != want {
			t.Errorf("Messages[0] = %q, want %q", report.Messages[0], want)
		}
	})

	t.Run("parent summary supplies the expected count", func(t *testing.T) {
		summary := domain.ParentSummary{
			ExpectedVariantCount: intPtr(3),
			Entries:              Compare(named("A", "B"), named("a", "b"), ContentFields),
		}
		report := WebhookContentLabels.SummarizeParent(summary, 2)
		if report.OverallOK || len(report.Messages) != 1 {
			t.Fatalf("report = %+v", report)
		}
		if report.Messages[0] != "Expected 3 variants but content table has 2" {
			t.Errorf("Messages[0] = %q", report.Messages[0])
		}
	})
}
