package georegion

import (
	"fmt"
	"maps"
	"reflect"
	"slices"
)

// Record keys with meaning to the loader. Everything else is carried through
// untouched.
const (
	keyType    = "type"
	keyCode    = "code"
	keyAlpha2  = "alpha_2_code"
	keyAlpha3  = "alpha_3_code"
	keyNumeric = "numeric_code"
	keyLat     = "latitude"
	keyLng     = "longitude"
	keyEnabled = "_enabled"
)

// Record is one entry of a data file, as decoded from YAML.
type Record map[string]any

// Text returns the value at key as a string. Scalars that YAML decoded as
// numbers or booleans are formatted; missing and nil values yield "".
func (r Record) Text(key string) string {
	switch v := r[key].(type) {
	case nil:
		return ""
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}

// Float returns the numeric value at key.
func (r Record) Float(key string) (float64, bool) {
	switch v := r[key].(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case uint64:
		return float64(v), true
	}
	return 0, false
}

// disabled reports whether the record asks for its match to be removed.
// Only a literal boolean false counts.
func (r Record) disabled() bool {
	v, ok := r[keyEnabled].(bool)
	return ok && !v
}

// hasNaturalKey reports whether the record can ever be matched by Merge.
func (r Record) hasNaturalKey() bool {
	return r.Text(keyCode) != "" || r.Text(keyAlpha2) != ""
}

// matches reports whether base record r is the merge target for overlay
// record s: same non-empty code, or same non-empty alpha-2 code. Values of
// different types never match, so 1 and "1" are different codes.
func (r Record) matches(s Record) bool {
	return sameKey(r[keyCode], s[keyCode]) || sameKey(r[keyAlpha2], s[keyAlpha2])
}

func sameKey(a, b any) bool {
	if a == nil || b == nil || a == "" {
		return false
	}
	if !reflect.TypeOf(a).Comparable() {
		return false
	}
	return a == b
}

// MergeStats counts what an overlay did to a base dataset.
type MergeStats struct {
	Added      int
	Overridden int
	Removed    int
}

// Merge applies overlay to base and returns the result. For each overlay
// record, in order:
//
//   - its target is the first base record, in current order, that has the
//     same code or the same alpha_2_code; either key is enough, and empty
//     keys never match
//   - without a target the overlay record is appended
//   - with a target and "_enabled: false" the target is removed
//   - otherwise the overlay fields are copied over the target's, keeping
//     fields only the target has
//
// Each overlay record sees the base as left by the previous ones. The
// "_enabled" key is never part of the result. base may be modified in place.
func Merge(base, overlay []Record) []Record {
	merged, _ := mergeRecords(base, overlay)
	return merged
}

func mergeRecords(base, overlay []Record) ([]Record, MergeStats) {
	var stats MergeStats
	for _, s := range overlay {
		i := slices.IndexFunc(base, func(t Record) bool { return t.matches(s) })
		switch {
		case i < 0:
			added := maps.Clone(s)
			delete(added, keyEnabled)
			base = append(base, added)
			stats.Added++
		case s.disabled():
			base = slices.Delete(base, i, i+1)
			stats.Removed++
		default:
			maps.Copy(base[i], s)
			delete(base[i], keyEnabled)
			stats.Overridden++
		}
	}
	return base, stats
}
