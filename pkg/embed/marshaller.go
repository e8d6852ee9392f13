package quoll

import (
	"fmt"
	"reflect"

	"github.com/quoll-lang/quoll/internal/evaluator"
)

// Marshaller converts between Go values and engine values.
type Marshaller struct{}

func NewMarshaller() *Marshaller {
	return &Marshaller{}
}

var valueInterfaceType = reflect.TypeOf((*evaluator.Value)(nil)).Elem()
var errorInterfaceType = reflect.TypeOf((*error)(nil)).Elem()

// ToValue converts a Go value to an engine Value.
func (m *Marshaller) ToValue(val any) (evaluator.Value, error) {
	if val == nil {
		return evaluator.UNIT, nil
	}
	if v, ok := val.(evaluator.Value); ok {
		return v, nil
	}

	v := reflect.ValueOf(val)
	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return &evaluator.Integer{Value: v.Int()}, nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return &evaluator.Integer{Value: int64(v.Uint())}, nil
	case reflect.Float32, reflect.Float64:
		return &evaluator.Float{Value: v.Float()}, nil
	case reflect.Bool:
		return evaluator.BoolValue(v.Bool()), nil
	case reflect.String:
		return &evaluator.String{Value: v.String()}, nil
	case reflect.Slice, reflect.Array:
		return m.sliceToArray(v)
	case reflect.Map:
		return m.mapToMap(v)
	}
	return nil, fmt.Errorf("unsupported Go type %T", val)
}

// FromValue converts an engine Value back to a Go value. targetType is
// optional; when given, the result is converted to it.
func (m *Marshaller) FromValue(v evaluator.Value, targetType reflect.Type) (any, error) {
	if v == nil {
		return nil, nil
	}
	if targetType != nil && targetType == valueInterfaceType {
		return v, nil
	}

	switch v := evaluator.Deref(v).(type) {
	case *evaluator.Unit:
		return nil, nil
	case *evaluator.Integer:
		if targetType != nil {
			switch targetType.Kind() {
			case reflect.Int:
				return int(v.Value), nil
			case reflect.Int64:
				return v.Value, nil
			case reflect.Float64:
				return float64(v.Value), nil
			}
		}
		return v.Value, nil
	case *evaluator.Float:
		return v.Value, nil
	case *evaluator.Boolean:
		return v.Value, nil
	case *evaluator.Char:
		return v.Value, nil
	case *evaluator.String:
		return v.Value, nil
	case *evaluator.Array:
		return m.arrayToSlice(v, targetType)
	case *evaluator.Map:
		return m.mapToGoMap(v, targetType)
	case *evaluator.Custom:
		return v.Data, nil
	}
	return nil, fmt.Errorf("unsupported value tag %s for conversion", v.Type())
}

func (m *Marshaller) sliceToArray(v reflect.Value) (evaluator.Value, error) {
	elements := make([]evaluator.Value, v.Len())
	for i := 0; i < v.Len(); i++ {
		el, err := m.ToValue(v.Index(i).Interface())
		if err != nil {
			return nil, err
		}
		elements[i] = el
	}
	return evaluator.NewArray(elements), nil
}

func (m *Marshaller) mapToMap(v reflect.Value) (evaluator.Value, error) {
	if v.Type().Key().Kind() != reflect.String {
		return nil, fmt.Errorf("map keys must be strings, got %s", v.Type().Key())
	}
	result := evaluator.NewMap()
	iter := v.MapRange()
	for iter.Next() {
		val, err := m.ToValue(iter.Value().Interface())
		if err != nil {
			return nil, fmt.Errorf("map value: %w", err)
		}
		result.Set(iter.Key().String(), val)
	}
	return result, nil
}

func (m *Marshaller) arrayToSlice(a *evaluator.Array, targetType reflect.Type) (any, error) {
	elemType := reflect.TypeOf((*any)(nil)).Elem()
	if targetType != nil && targetType.Kind() == reflect.Slice {
		elemType = targetType.Elem()
	}

	slice := reflect.MakeSlice(reflect.SliceOf(elemType), 0, len(a.Elements))
	for _, el := range a.Elements {
		val, err := m.FromValue(el, elemType)
		if err != nil {
			return nil, err
		}
		if val == nil {
			slice = reflect.Append(slice, reflect.Zero(elemType))
			continue
		}
		rv := reflect.ValueOf(val)
		switch {
		case rv.Type().AssignableTo(elemType):
			slice = reflect.Append(slice, rv)
		case rv.Type().ConvertibleTo(elemType):
			slice = reflect.Append(slice, rv.Convert(elemType))
		default:
			return nil, fmt.Errorf("cannot convert %s to %s", rv.Type(), elemType)
		}
	}
	return slice.Interface(), nil
}

func (m *Marshaller) mapToGoMap(mv *evaluator.Map, targetType reflect.Type) (any, error) {
	if targetType != nil && targetType.Kind() == reflect.Map {
		if targetType.Key().Kind() != reflect.String {
			return nil, fmt.Errorf("map keys must be strings, got %s", targetType.Key())
		}
		valType := targetType.Elem()
		result := reflect.MakeMapWithSize(targetType, mv.Len())
		for _, k := range mv.Keys() {
			v, _ := mv.Get(k)
			val, err := m.FromValue(v, valType)
			if err != nil {
				return nil, fmt.Errorf("map value: %w", err)
			}
			vv := reflect.ValueOf(val)
			if val == nil {
				vv = reflect.Zero(valType)
			} else if vv.Type().ConvertibleTo(valType) {
				vv = vv.Convert(valType)
			}
			result.SetMapIndex(reflect.ValueOf(k), vv)
		}
		return result.Interface(), nil
	}

	result := make(map[string]any, mv.Len())
	for _, k := range mv.Keys() {
		v, _ := mv.Get(k)
		val, err := m.FromValue(v, nil)
		if err != nil {
			return nil, err
		}
		result[k] = val
	}
	return result, nil
}

// RegisterGoFunc wraps an arbitrary Go function with reflection and
// registers it under name. Parameter descriptors are inferred from the
// Go parameter types; a trailing error return marks the function
// fallible.
func (e *Engine) RegisterGoFunc(name string, goFn any) error {
	fn := reflect.ValueOf(goFn)
	t := fn.Type()
	if t.Kind() != reflect.Func {
		return fmt.Errorf("%q: expected a function, got %T", name, goFn)
	}
	if t.IsVariadic() {
		return fmt.Errorf("%q: variadic functions are not supported", name)
	}

	params := make([]ParamDecl, t.NumIn())
	for i := range params {
		params[i] = ParamDecl{
			Name: fmt.Sprintf("arg%d", i),
			Type: string(descriptorForGoType(t.In(i))),
		}
	}

	fallible := t.NumOut() > 0 && t.Out(t.NumOut()-1) == errorInterfaceType
	returnTag := ""
	if t.NumOut() > boolToInt(fallible) {
		returnTag = string(descriptorForGoType(t.Out(0)))
	}

	m := e.marshaller
	native := func(ctx *evaluator.CallContext, args []evaluator.Value) (evaluator.Value, error) {
		goArgs := make([]reflect.Value, len(args))
		for i, arg := range args {
			val, err := m.FromValue(arg, t.In(i))
			if err != nil {
				return nil, fmt.Errorf("argument %d: %w", i, err)
			}
			if val == nil {
				goArgs[i] = reflect.Zero(t.In(i))
			} else {
				goArgs[i] = reflect.ValueOf(val)
			}
		}

		results := fn.Call(goArgs)

		if fallible {
			if errv := results[len(results)-1]; !errv.IsNil() {
				return nil, errv.Interface().(error)
			}
			results = results[:len(results)-1]
		}
		if len(results) == 0 {
			return evaluator.UNIT, nil
		}
		return m.ToValue(results[0].Interface())
	}

	return e.RegisterFunction(FunctionDecl{
		Name:     name,
		Params:   params,
		Return:   returnTag,
		Fallible: fallible,
		Fn:       native,
	})
}

// descriptorForGoType infers the parameter descriptor used during
// overload resolution for a Go parameter type.
func descriptorForGoType(t reflect.Type) evaluator.ValueType {
	if t == valueInterfaceType {
		return evaluator.AnyType
	}
	switch t.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return evaluator.IntType
	case reflect.Float32, reflect.Float64:
		return evaluator.FloatType
	case reflect.Bool:
		return evaluator.BoolType
	case reflect.String:
		return evaluator.StringType
	case reflect.Slice, reflect.Array:
		return evaluator.ArrayType
	case reflect.Map:
		return evaluator.MapType
	}
	return evaluator.AnyType
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
