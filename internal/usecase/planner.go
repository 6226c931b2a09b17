package usecase

import "github.com/contentreview/backend/internal/domain"

// KeySet is a set of comparison entry keys selected by the operator
type KeySet map[string]struct{}

// NewKeySet builds a KeySet from keys
func NewKeySet(keys ...string) KeySet {
	set := make(KeySet, len(keys))
	for _, k := range keys {
		set[k] = struct{}{}
	}
	return set
}

// Has reports whether key is selected
func (s KeySet) Has(key string) bool {
	_, ok := s[key]
	return ok
}

// syncColumn maps a field that may be written back to its local store column
type syncColumn struct {
	field  domain.Field
	column string
}

// syncableColumns is the write whitelist. Pricing and inventory are not synced.
var syncableColumns = []syncColumn{
	{field: domain.FieldDisplayName, column: "variant_name"},
}

// Plan turns selected comparison entries into patches for existing local rows.
// Side A is the live source, side B the local row being updated. Entries
// without a local row (or whose row id is unknown) are skipped: the planner
// never creates rows.
func Plan(entries []domain.ComparisonEntry, selectedKeys KeySet) []domain.UpdateInstruction {
	var instructions []domain.UpdateInstruction
	for _, e := range entries {
		if e.Status != domain.StatusChanged && e.Status != domain.StatusOnlyInA {
			continue
		}
		if !selectedKeys.Has(e.Key) || e.SideA == nil || e.SideB == nil || e.SideB.RowID == nil {
			continue
		}

		patch := make(map[string]interface{}, len(syncableColumns))
		for _, sc := range syncableColumns {
			if v, ok := e.SideA.Value(sc.field); ok {
				patch[sc.column] = v
			}
		}
		if len(patch) == 0 {
			continue
		}

		instructions = append(instructions, domain.UpdateInstruction{
			Key:   e.Key,
			RowID: *e.SideB.RowID,
			Patch: patch,
		})
	}
	return instructions
}

// AutoSelect returns the keys of entries that need attention: changed
// variants and variants present only on the live side.
func AutoSelect(entries []domain.ComparisonEntry) []string {
	keys := []string{}
	seen := make(map[string]bool)
	for _, e := range entries {
		if e.Status != domain.StatusChanged && e.Status != domain.StatusOnlyInA {
			continue
		}
		if seen[e.Key] {
			continue
		}
		seen[e.Key] = true
		keys = append(keys, e.Key)
	}
	return keys
}
