package model

import (
	"math"
	"reflect"
	"sort"
)

// Well-known attribute names.
const (
	AttrLevel    = "level"
	AttrID       = "id"
	AttrStart    = "start"
	AttrLanguage = "language"
)

// Attrs maps attribute names to values. Values are scalars (string, int,
// bool). An Attrs owned by a Node must not be modified; use With or Clone.
type Attrs map[string]any

// Clone returns a shallow copy.
func (a Attrs) Clone() Attrs {
	if a == nil {
		return nil
	}
	out := make(Attrs, len(a))
	for k, v := range a {
		out[k] = v
	}
	return out
}

// With returns a copy with key set to value.
func (a Attrs) With(key string, value any) Attrs {
	out := make(Attrs, len(a)+1)
	for k, v := range a {
		out[k] = v
	}
	out[key] = normalizeAttrValue(value)
	return out
}

// Without returns a copy with key removed.
func (a Attrs) Without(key string) Attrs {
	out := make(Attrs, len(a))
	for k, v := range a {
		if k != key {
			out[k] = v
		}
	}
	return out
}

// String returns the value of key if it is a string.
func (a Attrs) String(key string) string {
	s, _ := a[key].(string)
	return s
}

// Int returns the value of key as an int.
func (a Attrs) Int(key string) (int, bool) {
	switch v := a[key].(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case int32:
		return int(v), true
	case uint64:
		return int(v), true
	case float64:
		if v == math.Trunc(v) {
			return int(v), true
		}
	}
	return 0, false
}

// Equal reports whether two attribute maps hold the same values.
func (a Attrs) Equal(b Attrs) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		w, ok := b[k]
		if !ok || !reflect.DeepEqual(v, w) {
			return false
		}
	}
	return true
}

// Keys returns the attribute names in sorted order.
func (a Attrs) Keys() []string {
	keys := make([]string, 0, len(a))
	for k := range a {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// mergeAttrs builds the attribute map for a new node: defaults first, then
// explicit values, with numeric values normalized.
func mergeAttrs(t NodeType, attrs Attrs) Attrs {
	defaults := t.Spec().Defaults
	if len(defaults) == 0 && len(attrs) == 0 {
		return nil
	}
	out := make(Attrs, len(defaults)+len(attrs))
	for k, v := range defaults {
		out[k] = v
	}
	for k, v := range attrs {
		if v == nil {
			continue
		}
		out[k] = normalizeAttrValue(v)
	}
	return out
}

// normalizeAttrValue folds the numeric types decoders produce into int so
// that attribute comparison does not depend on the source format.
func normalizeAttrValue(v any) any {
	switch n := v.(type) {
	case int64:
		return int(n)
	case int32:
		return int(n)
	case uint64:
		return int(n)
	case float64:
		if n == math.Trunc(n) && math.Abs(n) < math.MaxInt32 {
			return int(n)
		}
	}
	return v
}
