package evaluator

import (
	"strings"

	"github.com/iancoleman/orderedmap"
)

// Array is an ordered, mutable sequence of values.
type Array struct {
	Elements []Value
}

func NewArray(elements []Value) *Array {
	return &Array{Elements: elements}
}

func (a *Array) Type() ValueType { return ArrayType }
func (a *Array) Inspect() string {
	parts := make([]string, len(a.Elements))
	for i, el := range a.Elements {
		parts[i] = formatValue(el)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

func (a *Array) Clone() Value {
	elements := make([]Value, len(a.Elements))
	for i, el := range a.Elements {
		elements[i] = el.Clone()
	}
	return &Array{Elements: elements}
}

func (a *Array) Len() int { return len(a.Elements) }

// Map is a name-keyed mapping with insertion order preserved.
type Map struct {
	entries *orderedmap.OrderedMap
}

func NewMap() *Map {
	return &Map{entries: orderedmap.New()}
}

func (m *Map) Type() ValueType { return MapType }
func (m *Map) Inspect() string {
	keys := m.entries.Keys()
	parts := make([]string, len(keys))
	for i, k := range keys {
		v, _ := m.Get(k)
		parts[i] = k + ": " + formatValue(v)
	}
	return "#{" + strings.Join(parts, ", ") + "}"
}

func (m *Map) Clone() Value {
	clone := NewMap()
	for _, k := range m.entries.Keys() {
		v, _ := m.Get(k)
		clone.Set(k, v.Clone())
	}
	return clone
}

func (m *Map) Get(key string) (Value, bool) {
	raw, ok := m.entries.Get(key)
	if !ok {
		return nil, false
	}
	return raw.(Value), true
}

func (m *Map) Set(key string, v Value) {
	m.entries.Set(key, v)
}

func (m *Map) Delete(key string) {
	m.entries.Delete(key)
}

func (m *Map) Has(key string) bool {
	_, ok := m.entries.Get(key)
	return ok
}

func (m *Map) Keys() []string { return m.entries.Keys() }
func (m *Map) Len() int       { return len(m.entries.Keys()) }

// CustomType describes a host-registered opaque type. Copy implements
// the value-copy semantics the value model requires; a nil Copy makes
// Clone share the underlying data, which is only sound for hosts that
// treat the payload as immutable.
type CustomType struct {
	Name    string
	Display string
	Copy    func(data any) any
}

// DisplayName returns the host-facing name of the type.
func (ct *CustomType) DisplayName() string {
	if ct.Display != "" {
		return ct.Display
	}
	return ct.Name
}

// Custom is the opaque slot for host types with no special integration.
// It has no default equality, ordering, or display; those arrive only
// through explicit registration in the dispatcher.
type Custom struct {
	TypeInfo *CustomType
	Data     any
}

func (c *Custom) Type() ValueType { return ValueType(c.TypeInfo.Name) }
func (c *Custom) Inspect() string { return "<" + c.TypeInfo.DisplayName() + ">" }
func (c *Custom) Clone() Value {
	if c.TypeInfo.Copy != nil {
		return &Custom{TypeInfo: c.TypeInfo, Data: c.TypeInfo.Copy(c.Data)}
	}
	return &Custom{TypeInfo: c.TypeInfo, Data: c.Data}
}
