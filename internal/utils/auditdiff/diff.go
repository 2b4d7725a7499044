package auditdiff

import (
	"reflect"
	"sort"
	"strings"

	"github.com/finbooks/finbooks_backend/internal/core/domain"
)

// Diff computes a shallow field-by-field comparison between a pre-mutation and
// post-mutation snapshot. Snapshots are plain maps captured explicitly by the
// caller immediately before and after the mutation. Fields named in exclude
// (case-insensitive) are dropped before the diff is stored, so secrets never
// reach the audit log. A nil before means creation; a nil after means removal.
func Diff(before, after map[string]interface{}, exclude []string) map[string]domain.FieldChange {
	excluded := make(map[string]struct{}, len(exclude))
	for _, f := range exclude {
		excluded[strings.ToLower(f)] = struct{}{}
	}

	changes := make(map[string]domain.FieldChange)
	for _, field := range unionKeys(before, after) {
		if _, skip := excluded[strings.ToLower(field)]; skip {
			continue
		}
		oldVal, hadOld := lookup(before, field)
		newVal, hadNew := lookup(after, field)
		if hadOld && hadNew && reflect.DeepEqual(oldVal, newVal) {
			continue
		}
		changes[field] = domain.FieldChange{From: oldVal, To: newVal}
	}
	if len(changes) == 0 {
		return nil
	}
	return changes
}

func lookup(snapshot map[string]interface{}, field string) (interface{}, bool) {
	if snapshot == nil {
		return nil, false
	}
	v, ok := snapshot[field]
	return v, ok
}

func unionKeys(a, b map[string]interface{}) []string {
	seen := make(map[string]struct{}, len(a)+len(b))
	for k := range a {
		seen[k] = struct{}{}
	}
	for k := range b {
		seen[k] = struct{}{}
	}
	keys := make([]string, 0, len(seen))
	for k := range seen {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
