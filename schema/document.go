// Package schema loads schema documents and checks them against the
// meta-schema before compilation.
//
// A document is a tree of *Map (ordered mapping), []any, string, int64,
// float64, bool and nil. Mapping order is significant: the order of the
// fields of a fact is the order of the engine term arguments.
package schema

// Position is a 1-based line/column in the source document (0 when unknown).
type Position struct {
	Line int
	Col  int
}

// Map is an insertion-ordered mapping with string keys.
type Map struct {
	keys   []string
	values map[string]any
	pos    map[string]Position
}

// NewMap returns an empty Map.
func NewMap() *Map {
	return &Map{values: map[string]any{}, pos: map[string]Position{}}
}

// Set inserts or replaces key; replacing keeps the original position in the order.
func (m *Map) Set(key string, v any) {
	if _, ok := m.values[key]; !ok {
		m.keys = append(m.keys, key)
	}
	m.values[key] = v
}

// SetAt is Set recording the source position of key.
func (m *Map) SetAt(key string, v any, p Position) {
	m.Set(key, v)
	m.pos[key] = p
}

// Get returns the value of key.
func (m *Map) Get(key string) (any, bool) {
	if m == nil {
		return nil, false
	}
	v, ok := m.values[key]
	return v, ok
}

// Has reports whether key is present.
func (m *Map) Has(key string) bool {
	_, ok := m.Get(key)
	return ok
}

// Keys returns the keys in insertion order.
func (m *Map) Keys() []string {
	if m == nil {
		return nil
	}
	return append([]string(nil), m.keys...)
}

func (m *Map) Len() int {
	if m == nil {
		return 0
	}
	return len(m.keys)
}

// Pos returns the source position of key.
func (m *Map) Pos(key string) Position {
	if m == nil {
		return Position{}
	}
	return m.pos[key]
}

// Document is a loaded schema.
type Document struct {
	Root *Map
}

// FromMap builds a Document from plain Go values, converting nested
// map[string]any into *Map with sorted keys. It is meant for programmatic
// construction where field order does not matter; use *Map directly when it does.
func FromMap(root map[string]any) *Document {
	return &Document{Root: toMap(root)}
}

func toMap(in map[string]any) *Map {
	m := NewMap()
	for _, k := range sortedKeys(in) {
		m.Set(k, normalize(in[k]))
	}
	return m
}

func normalize(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return toMap(t)
	case []any:
		out := make([]any, len(t))
		for i := range t {
			out[i] = normalize(t[i])
		}
		return out
	case []string:
		out := make([]any, len(t))
		for i := range t {
			out[i] = t[i]
		}
		return out
	case int:
		return int64(t)
	case int32:
		return int64(t)
	}
	return v
}
