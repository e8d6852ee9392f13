package evaluator

import (
	"fmt"
	"strconv"
)

// ValueType is the runtime tag of a Value. Custom host types carry their
// registered canonical name as the tag, so the tag space is open-ended
// but every built-in tag is fixed.
type ValueType string

const (
	UnitType   ValueType = "Unit"
	BoolType   ValueType = "Bool"
	IntType    ValueType = "Int"
	FloatType  ValueType = "Float"
	CharType   ValueType = "Char"
	StringType ValueType = "String"
	ArrayType  ValueType = "Array"
	MapType    ValueType = "Map"
	FnType     ValueType = "Fn"
	SharedType ValueType = "Shared"

	// AnyType is the wildcard parameter descriptor. No value ever
	// carries this tag.
	AnyType ValueType = "Any"

	// Internal signal tags. They never escape an evaluation.
	ReturnValueType ValueType = "return"
	ErrorValueType  ValueType = "error"
)

// Value is the tagged runtime datum. Every operation on a Value first
// inspects its tag; there is no implicit coercion outside the fixed
// numeric promotion the dispatcher applies during overload resolution.
type Value interface {
	Type() ValueType
	Inspect() string
	// Clone produces an independent copy: deep for built-in containers,
	// a handle copy for shared wrappers, the registered copy function
	// for custom types.
	Clone() Value
}

// IsBuiltinType reports whether a tag names one of the built-in value
// tags (as opposed to a registered custom type).
func IsBuiltinType(t ValueType) bool {
	switch t {
	case UnitType, BoolType, IntType, FloatType, CharType, StringType,
		ArrayType, MapType, FnType, SharedType:
		return true
	}
	return false
}

type Unit struct{}

func (u *Unit) Type() ValueType { return UnitType }
func (u *Unit) Inspect() string { return "()" }
func (u *Unit) Clone() Value    { return u }

type Boolean struct {
	Value bool
}

func (b *Boolean) Type() ValueType { return BoolType }
func (b *Boolean) Inspect() string { return strconv.FormatBool(b.Value) }
func (b *Boolean) Clone() Value    { return b }

type Integer struct {
	Value int64
}

func (i *Integer) Type() ValueType { return IntType }
func (i *Integer) Inspect() string { return strconv.FormatInt(i.Value, 10) }
func (i *Integer) Clone() Value    { return &Integer{Value: i.Value} }

type Float struct {
	Value float64
}

func (f *Float) Type() ValueType { return FloatType }
func (f *Float) Inspect() string { return strconv.FormatFloat(f.Value, 'g', -1, 64) }
func (f *Float) Clone() Value    { return &Float{Value: f.Value} }

type Char struct {
	Value rune
}

func (c *Char) Type() ValueType { return CharType }
func (c *Char) Inspect() string { return string(c.Value) }
func (c *Char) Clone() Value    { return &Char{Value: c.Value} }

// String is immutable and value-equal. Go strings already share their
// backing storage on copy, which gives the shared-immutable semantics
// for free.
type String struct {
	Value string
}

func (s *String) Type() ValueType { return StringType }
func (s *String) Inspect() string { return s.Value }
func (s *String) Clone() Value    { return &String{Value: s.Value} }

var (
	UNIT  = &Unit{}
	TRUE  = &Boolean{Value: true}
	FALSE = &Boolean{Value: false}
)

// BoolValue returns the shared singleton for a Go bool.
func BoolValue(v bool) *Boolean {
	if v {
		return TRUE
	}
	return FALSE
}

// ReturnValue carries a return statement's result up to the enclosing
// call frame.
type ReturnValue struct {
	Value Value
}

func (rv *ReturnValue) Type() ValueType { return ReturnValueType }
func (rv *ReturnValue) Inspect() string { return rv.Value.Inspect() }
func (rv *ReturnValue) Clone() Value    { return &ReturnValue{Value: rv.Value.Clone()} }

// TypeName returns the tag used for display purposes, dereferencing
// shared wrappers first.
func TypeName(v Value) ValueType {
	return Deref(v).Type()
}

func unwrapReturnValue(v Value) Value {
	if rv, ok := v.(*ReturnValue); ok {
		return rv.Value
	}
	return v
}

// Typed extraction helpers. Each fails with a TypeMismatch error-object
// when the tag does not match. Shared wrappers are dereferenced first.

func AsInt(v Value) (int64, *Error) {
	if i, ok := Deref(v).(*Integer); ok {
		return i.Value, nil
	}
	return 0, newTypeMismatch(IntType, TypeName(v))
}

func AsFloat(v Value) (float64, *Error) {
	if f, ok := Deref(v).(*Float); ok {
		return f.Value, nil
	}
	return 0, newTypeMismatch(FloatType, TypeName(v))
}

func AsBool(v Value) (bool, *Error) {
	if b, ok := Deref(v).(*Boolean); ok {
		return b.Value, nil
	}
	return false, newTypeMismatch(BoolType, TypeName(v))
}

func AsChar(v Value) (rune, *Error) {
	if c, ok := Deref(v).(*Char); ok {
		return c.Value, nil
	}
	return 0, newTypeMismatch(CharType, TypeName(v))
}

func AsString(v Value) (string, *Error) {
	if s, ok := Deref(v).(*String); ok {
		return s.Value, nil
	}
	return "", newTypeMismatch(StringType, TypeName(v))
}

func AsArray(v Value) (*Array, *Error) {
	if a, ok := Deref(v).(*Array); ok {
		return a, nil
	}
	return nil, newTypeMismatch(ArrayType, TypeName(v))
}

func AsMap(v Value) (*Map, *Error) {
	if m, ok := Deref(v).(*Map); ok {
		return m, nil
	}
	return nil, newTypeMismatch(MapType, TypeName(v))
}

func AsFnPtr(v Value) (*FnPtr, *Error) {
	if f, ok := Deref(v).(*FnPtr); ok {
		return f, nil
	}
	return nil, newTypeMismatch(FnType, TypeName(v))
}

func AsCustom(v Value, typeName string) (any, *Error) {
	if c, ok := Deref(v).(*Custom); ok && c.TypeInfo.Name == typeName {
		return c.Data, nil
	}
	return nil, newTypeMismatch(ValueType(typeName), TypeName(v))
}

func formatValue(v Value) string {
	if s, ok := v.(*String); ok {
		return fmt.Sprintf("%q", s.Value)
	}
	return v.Inspect()
}
