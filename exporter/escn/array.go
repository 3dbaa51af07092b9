package escn

import "strings"

// Array serializes a typed value list, e.g. Vector3Array(1, 2, 3, ...).
// Prefix, separator and suffix are configurable because the grammar uses
// the same shape for typed pools and for plain bracket lists.
type Array struct {
	Prefix    string
	Separator string
	Suffix    string
	Values    []interface{}
}

// NewArray returns a typed array such as NewArray("Vector3Array(").
func NewArray(prefix string) *Array {
	return &Array{Prefix: prefix, Separator: ", ", Suffix: ")"}
}

// NewBracketArray returns a plain [ ... ] list.
func NewBracketArray() *Array {
	return &Array{Prefix: "[", Separator: ", ", Suffix: "]"}
}

func (a *Array) Append(vs ...interface{}) {
	a.Values = append(a.Values, vs...)
}

func (a *Array) Len() int {
	return len(a.Values)
}

func (a *Array) encodeTo(b *strings.Builder, e *Encoder) {
	b.WriteString(a.Prefix)
	for i, v := range a.Values {
		if i > 0 {
			b.WriteString(a.Separator)
		}
		e.encodeValue(b, v)
	}
	b.WriteString(a.Suffix)
}

// Map serializes an insertion-ordered dictionary with quoted keys:
//
//	{
//	"points": PoolVector3Array( ... ),
//	"tilts": PoolRealArray( ... )
//	}
type Map struct {
	keys   []string
	values map[string]interface{}
}

func NewMap() *Map {
	return &Map{values: make(map[string]interface{})}
}

func (m *Map) Set(key string, v interface{}) {
	if _, ok := m.values[key]; !ok {
		m.keys = append(m.keys, key)
	}
	m.values[key] = v
}

func (m *Map) Get(key string) (interface{}, bool) {
	v, ok := m.values[key]
	return v, ok
}

func (m *Map) encodeTo(b *strings.Builder, e *Encoder) {
	b.WriteString("{\n")
	for i, k := range m.keys {
		if i > 0 {
			b.WriteString(",\n")
		}
		b.WriteString("\"")
		b.WriteString(k)
		b.WriteString("\": ")
		e.encodeValue(b, m.values[k])
	}
	b.WriteString("\n}")
}
