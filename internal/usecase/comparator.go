package usecase

import (
	"strings"

	"github.com/contentreview/backend/internal/domain"
)

// ContentFields are compared between the raw webhook and the AI content table.
// Names already decide the match and the content table carries no pricing, so
// a matched pair never reports field changes.
var ContentFields = domain.NewFieldSet()

// LocalFields are compared between live Shopify data and the local variants table
var LocalFields = domain.NewFieldSet(domain.FieldDisplayName)

// Compare diffs two normalized variant lists. Records are matched by
// case-insensitive display name; the first B record with a given name is the
// only candidate for that name, so later duplicates on either side fall out as
// only_in_a or only_in_b. Entries keep A's order, followed by unmatched B
// records in B's order. Side A is treated as the source of truth when
// recording field changes.
func Compare(listA, listB []domain.VariantRecord, fields domain.FieldSet) []domain.ComparisonEntry {
	lookup := make(map[string]int, len(listB))
	for i := range listB {
		key := matchKey(listB[i].DisplayName)
		if _, seen := lookup[key]; !seen {
			lookup[key] = i
		}
	}

	matchedB := make([]bool, len(listB))
	entries := make([]domain.ComparisonEntry, 0, len(listA)+len(listB))

	for i := range listA {
		a := listA[i]
		key := matchKey(a.DisplayName)

		j, ok := lookup[key]
		if !ok {
			entries = append(entries, domain.ComparisonEntry{
				Key:    a.DisplayName,
				SideA:  &a,
				Status: domain.StatusOnlyInA,
			})
			continue
		}

		delete(lookup, key)
		matchedB[j] = true
		b := listB[j]

		entry := domain.ComparisonEntry{
			Key:    a.DisplayName,
			SideA:  &a,
			SideB:  &b,
			Status: domain.StatusMatched,
		}
		if changes := diffFields(&a, &b, fields); len(changes) > 0 {
			entry.Status = domain.StatusChanged
			entry.FieldChanges = changes
		}
		entries = append(entries, entry)
	}

	for j := range listB {
		if matchedB[j] {
			continue
		}
		b := listB[j]
		entries = append(entries, domain.ComparisonEntry{
			Key:    b.DisplayName,
			SideB:  &b,
			Status: domain.StatusOnlyInB,
		})
	}

	return entries
}

// diffFields lists the fields whose trimmed string values differ, in AllFields order
func diffFields(a, b *domain.VariantRecord, fields domain.FieldSet) []domain.FieldChange {
	var changes []domain.FieldChange
	for _, f := range domain.AllFields {
		if !fields.Has(f) {
			continue
		}
		newValue := comparableValue(a, f)
		oldValue := comparableValue(b, f)
		if newValue != oldValue {
			changes = append(changes, domain.FieldChange{Field: f, Old: oldValue, New: newValue})
		}
	}
	return changes
}

// comparableValue is the trimmed value of f, or empty when unset
func comparableValue(v *domain.VariantRecord, f domain.Field) string {
	s, _ := v.Value(f)
	return strings.TrimSpace(s)
}

func matchKey(displayName string) string {
	return strings.ToLower(displayName)
}

// CountByStatus tallies comparison entries per status
func CountByStatus(entries []domain.ComparisonEntry) map[domain.ComparisonStatus]int {
	counts := map[domain.ComparisonStatus]int{
		domain.StatusMatched: 0,
		domain.StatusChanged: 0,
		domain.StatusOnlyInA: 0,
		domain.StatusOnlyInB: 0,
	}
	for _, e := range entries {
		counts[e.Status]++
	}
	return counts
}
