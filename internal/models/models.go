package models

import (
	"fmt"
	"iter"
	"reflect"
	"sort"
)

// Kind is the discriminant of a Value.
type Kind int

const (
	KindNull Kind = iota
	KindScalar
	KindSequence
	KindMapping
)

// String returns the lowercase name of the kind
func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindScalar:
		return "scalar"
	case KindSequence:
		return "sequence"
	case KindMapping:
		return "mapping"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Value is a node of a JSON-like document tree.
// The zero Value is Null.
type Value struct {
	kind   Kind
	scalar any
	elems  []Value
	m      *Mapping
}

// Null returns the null value.
func Null() Value {
	return Value{kind: KindNull}
}

// Scalar wraps a leaf value such as a string, json.Number or bool.
// A nil payload yields Null.
func Scalar(v any) Value {
	if v == nil {
		return Null()
	}
	return Value{kind: KindScalar, scalar: v}
}

// Sequence returns a sequence holding a copy of elems.
func Sequence(elems ...Value) Value {
	s := make([]Value, len(elems))
	copy(s, elems)
	return Value{kind: KindSequence, elems: s}
}

// Map wraps a mapping. A nil mapping is treated as empty.
func Map(m *Mapping) Value {
	if m == nil {
		m = NewMapping()
	}
	return Value{kind: KindMapping, m: m}
}

// Kind reports which variant v holds.
func (v Value) Kind() Kind {
	return v.kind
}

// IsNull reports whether v is the null value.
func (v Value) IsNull() bool {
	return v.kind == KindNull
}

// IsEmptySequence reports whether v is a sequence with no elements.
func (v Value) IsEmptySequence() bool {
	return v.kind == KindSequence && len(v.elems) == 0
}

// ScalarValue returns the payload of a scalar, or nil for other kinds.
func (v Value) ScalarValue() any {
	return v.scalar
}

// Elems returns the elements of a sequence. The slice must not be modified.
func (v Value) Elems() []Value {
	return v.elems
}

// Mapping returns the mapping of a mapping value, or nil for other kinds.
func (v Value) Mapping() *Mapping {
	return v.m
}

// Len returns the number of elements of a sequence or entries of a mapping.
func (v Value) Len() int {
	switch v.kind {
	case KindSequence:
		return len(v.elems)
	case KindMapping:
		return v.m.Len()
	default:
		return 0
	}
}

// Equal reports whether v and other are structurally equal.
// Mapping comparison is sensitive to key order.
func (v Value) Equal(other Value) bool {
	if v.kind != other.kind {
		return false
	}
	switch v.kind {
	case KindNull:
		return true
	case KindScalar:
		return reflect.DeepEqual(v.scalar, other.scalar)
	case KindSequence:
		if len(v.elems) != len(other.elems) {
			return false
		}
		for i := range v.elems {
			if !v.elems[i].Equal(other.elems[i]) {
				return false
			}
		}
		return true
	case KindMapping:
		return v.m.equal(other.m)
	}
	return false
}

// Interface converts v into plain Go data: map[string]any, []any, the scalar
// payload or nil. Mapping order is lost.
func (v Value) Interface() any {
	switch v.kind {
	case KindScalar:
		return v.scalar
	case KindSequence:
		out := make([]any, len(v.elems))
		for i, e := range v.elems {
			out[i] = e.Interface()
		}
		return out
	case KindMapping:
		out := make(map[string]any, v.m.Len())
		for key, val := range v.m.All() {
			out[key] = val.Interface()
		}
		return out
	default:
		return nil
	}
}

// FromInterface converts plain Go data into a Value. Keys of Go maps are
// inserted in sorted order.
func FromInterface(in any) Value {
	switch t := in.(type) {
	case nil:
		return Null()
	case Value:
		return t
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		m := NewMapping()
		for _, k := range keys {
			m.Set(k, FromInterface(t[k]))
		}
		return Map(m)
	case []any:
		elems := make([]Value, len(t))
		for i, e := range t {
			elems[i] = FromInterface(e)
		}
		return Value{kind: KindSequence, elems: elems}
	default:
		return Scalar(t)
	}
}

// Mapping is an insertion-ordered map of string keys to Values.
type Mapping struct {
	keys   []string
	values map[string]Value
}

// NewMapping creates an empty Mapping.
func NewMapping() *Mapping {
	return &Mapping{
		keys:   []string{},
		values: make(map[string]Value),
	}
}

// Set stores value under key. A new key is appended to the order; an existing
// key keeps its position.
func (m *Mapping) Set(key string, value Value) {
	if _, ok := m.values[key]; !ok {
		m.keys = append(m.keys, key)
	}
	m.values[key] = value
}

// Get returns the value stored under key.
func (m *Mapping) Get(key string) (Value, bool) {
	if m == nil {
		return Value{}, false
	}
	value, ok := m.values[key]
	return value, ok
}

// Delete removes key, closing the gap in the order. It reports whether key was present.
func (m *Mapping) Delete(key string) bool {
	if _, ok := m.values[key]; !ok {
		return false
	}
	delete(m.values, key)
	for i, k := range m.keys {
		if k == key {
			m.keys = append(m.keys[:i:i], m.keys[i+1:]...)
			break
		}
	}
	return true
}

// Clone returns a shallow copy of m. Values are shared, the order is not.
func (m *Mapping) Clone() *Mapping {
	out := NewMapping()
	for key, value := range m.All() {
		out.Set(key, value)
	}
	return out
}

// Keys returns a copy of the keys in insertion order.
func (m *Mapping) Keys() []string {
	if m == nil {
		return nil
	}
	keys := make([]string, len(m.keys))
	copy(keys, m.keys)
	return keys
}

// Len returns the number of entries.
func (m *Mapping) Len() int {
	if m == nil {
		return 0
	}
	return len(m.keys)
}

// All iterates over all entries in insertion order.
func (m *Mapping) All() iter.Seq2[string, Value] {
	return func(yield func(string, Value) bool) {
		if m == nil {
			return
		}
		for _, key := range m.keys {
			if !yield(key, m.values[key]) {
				return
			}
		}
	}
}

func (m *Mapping) equal(other *Mapping) bool {
	if m.Len() != other.Len() {
		return false
	}
	for i, key := range m.keys {
		if other.keys[i] != key {
			return false
		}
		if !m.values[key].Equal(other.values[key]) {
			return false
		}
	}
	return true
}

// Document is a decoded input document.
type Document struct {
	Root     Value
	RootKind Kind
}
