package audit

import (
	"reflect"
	"strings"
	"time"
)

// Change holds the before/after values of a single field. A nil From means
// the field did not exist before; a nil To means it was removed.
type Change struct {
	From any `json:"from"`
	To   any `json:"to"`
}

// defaultExcludes are storage/version/timestamp fields that never belong
// in a field-level diff.
var defaultExcludes = []string{"id", "createdAt", "updatedAt"}

// Diff structurally compares two snapshots and returns the changed fields.
// Either snapshot may be nil: fields present only in after surface with a
// nil From, fields present only in before with a nil To.
func Diff(before, after map[string]any, exclude ...string) map[string]Change {
	changes := make(map[string]Change)
	excluded := make(map[string]bool, len(defaultExcludes)+len(exclude))
	for _, f := range defaultExcludes {
		excluded[f] = true
	}
	for _, f := range exclude {
		excluded[f] = true
	}

	for key, newValue := range after {
		if excluded[key] {
			continue
		}
		oldValue, existed := before[key]
		if !existed {
			oldValue = nil
		}
		if !equal(oldValue, newValue) {
			changes[key] = Change{From: oldValue, To: newValue}
		}
	}

	for key, oldValue := range before {
		if excluded[key] {
			continue
		}
		if _, stillThere := after[key]; !stillThere {
			changes[key] = Change{From: oldValue, To: nil}
		}
	}

	return changes
}

// equal compares two snapshot values: primitives by value, dates by
// instant, slices by length then element-wise, maps by key set then
// per-key recursion.
func equal(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}

	if at, ok := a.(time.Time); ok {
		bt, ok := b.(time.Time)
		return ok && at.Equal(bt)
	}
	if at, ok := a.(*time.Time); ok {
		bt, ok := b.(*time.Time)
		if !ok {
			return false
		}
		if at == nil || bt == nil {
			return at == bt
		}
		return at.Equal(*bt)
	}

	av := reflect.ValueOf(a)
	bv := reflect.ValueOf(b)
	if av.Kind() == reflect.Slice && bv.Kind() == reflect.Slice {
		if av.Len() != bv.Len() {
			return false
		}
		for i := 0; i < av.Len(); i++ {
			if !equal(av.Index(i).Interface(), bv.Index(i).Interface()) {
				return false
			}
		}
		return true
	}

	if am, ok := a.(map[string]any); ok {
		bm, ok := b.(map[string]any)
		if !ok || len(am) != len(bm) {
			return false
		}
		for key, avVal := range am {
			bvVal, exists := bm[key]
			if !exists || !equal(avVal, bvVal) {
				return false
			}
		}
		return true
	}

	return a == b
}

// Sanitize prepares a snapshot for storage: function-valued fields and
// internal underscore-prefixed fields (except the primary "_id") are
// dropped, nested maps and slices are cleaned recursively.
func Sanitize(snapshot map[string]any) map[string]any {
	if snapshot == nil {
		return nil
	}
	cleaned := make(map[string]any, len(snapshot))
	for key, value := range snapshot {
		if strings.HasPrefix(key, "_") && key != "_id" {
			continue
		}
		if value != nil && reflect.TypeOf(value).Kind() == reflect.Func {
			continue
		}
		cleaned[key] = sanitizeValue(value)
	}
	return cleaned
}

func sanitizeValue(value any) any {
	switch v := value.(type) {
	case map[string]any:
		return Sanitize(v)
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = sanitizeValue(item)
		}
		return out
	default:
		return value
	}
}
