// Package value implements the generic, JSON-shaped document tree that the
// rest of semdiff diffs, patches, and intersects: maps, arrays, strings,
// arbitrary-precision numerics, booleans, and null.
package value

import "sort"

// Kind identifies which variant a Value holds.
type Kind uint8

const (
	KindNull Kind = iota
	KindBool
	KindNumeric
	KindString
	KindArray
	KindMap
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindNumeric:
		return "numeric"
	case KindString:
		return "string"
	case KindArray:
		return "array"
	case KindMap:
		return "map"
	default:
		return "invalid"
	}
}

// Value is a tagged union over the document model. The zero Value is Null.
type Value struct {
	kind Kind
	b    bool
	num  string // canonical decimal text, for KindNumeric
	str  string // for KindString
	arr  []Value
	m    map[string]Value
}

// Null returns the Null value.
func Null() Value { return Value{kind: KindNull} }

// Bool returns a Boolean value.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// Numeric returns a Numeric value from its canonical decimal text. The text
// is stored and compared verbatim; callers wanting numeric normalization
// must normalize before constructing the Value.
func Numeric(lexeme string) Value { return Value{kind: KindNumeric, num: lexeme} }

// String returns a String value.
func String(s string) Value { return Value{kind: KindString, str: s} }

// Array returns an Array value. The given slice is retained, not copied.
func Array(els []Value) Value { return Value{kind: KindArray, arr: els} }

// Map returns a Map value. The given map is retained, not copied.
func Map(m map[string]Value) Value { return Value{kind: KindMap, m: m} }

func (v Value) Kind() Kind { return v.kind }

func (v Value) IsNull() bool { return v.kind == KindNull }

// BoolValue returns the boolean payload; valid only when Kind() == KindBool.
func (v Value) BoolValue() bool { return v.b }

// NumericText returns the canonical decimal text payload; valid only when
// Kind() == KindNumeric.
func (v Value) NumericText() string { return v.num }

// StringValue returns the string payload; valid only when Kind() == KindString.
func (v Value) StringValue() string { return v.str }

// Elements returns the backing array slice; valid only when Kind() == KindArray.
// The returned slice must not be mutated by callers outside this module.
func (v Value) Elements() []Value { return v.arr }

// Entries returns the backing map; valid only when Kind() == KindMap.
// The returned map must not be mutated by callers outside this module.
func (v Value) Entries() map[string]Value { return v.m }

// Len returns the number of elements (array) or entries (map); it is zero
// for all other kinds.
func (v Value) Len() int {
	switch v.kind {
	case KindArray:
		return len(v.arr)
	case KindMap:
		return len(v.m)
	default:
		return 0
	}
}

// SortedKeys returns the Map's keys in lexicographic order. Empty for
// non-Map values.
func (v Value) SortedKeys() []string {
	if v.kind != KindMap {
		return nil
	}
	keys := make([]string, 0, len(v.m))
	for k := range v.m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Equal reports whether a and b are structurally equal: same variant and
// equal contents. Map equality is order-independent; Numeric equality is
// lexical (spec.md §3, §9 open question).
func Equal(a, b Value) bool {
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case KindNull:
		return true
	case KindBool:
		return a.b == b.b
	case KindNumeric:
		return a.num == b.num
	case KindString:
		return a.str == b.str
	case KindArray:
		if len(a.arr) != len(b.arr) {
			return false
		}
		for i := range a.arr {
			if !Equal(a.arr[i], b.arr[i]) {
				return false
			}
		}
		return true
	case KindMap:
		if len(a.m) != len(b.m) {
			return false
		}
		for k, av := range a.m {
			bv, ok := b.m[k]
			if !ok || !Equal(av, bv) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// Comparable reports whether a and b can be meaningfully diffed against
// each other rather than wholesale replaced: both Null, or same non-Map/
// non-Array kind, or both Array, or both Map. Mismatched kinds (e.g. a
// String against a Map) are not comparable.
func Comparable(a, b Value) bool {
	return a.kind == b.kind
}
