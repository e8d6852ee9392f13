package evaluator

// RegisterBuiltins installs the small default function set into the
// global namespace. Everything here is an ordinary registration and may
// be overridden by the host like any other key.
func RegisterBuiltins(reg *Registry) {
	registerNative := func(name string, params []Param, ret ValueType, fn NativeFunc) {
		reg.Register(nil, &Function{
			Sig:        Signature{Name: name, Params: params},
			Visibility: Public,
			Origin:     NativeOrigin,
			Return:     ret,
			Native:     fn,
		})
	}

	// type_of reports the display name of any value's type.
	registerNative("type_of", []Param{{Name: "value", Type: AnyType}}, StringType,
		func(ctx *CallContext, args []Value) (Value, error) {
			v := Deref(args[0])
			if c, ok := v.(*Custom); ok {
				return &String{Value: c.TypeInfo.DisplayName()}, nil
			}
			return &String{Value: string(v.Type())}, nil
		})

	lenFn := func(measure func(Value) int64) NativeFunc {
		return func(ctx *CallContext, args []Value) (Value, error) {
			return &Integer{Value: measure(Deref(args[0]))}, nil
		}
	}
	registerNative("len", []Param{{Name: "s", Type: StringType}}, IntType,
		lenFn(func(v Value) int64 { return int64(len([]rune(v.(*String).Value))) }))
	registerNative("len", []Param{{Name: "a", Type: ArrayType}}, IntType,
		lenFn(func(v Value) int64 { return int64(len(v.(*Array).Elements)) }))
	registerNative("len", []Param{{Name: "m", Type: MapType}}, IntType,
		lenFn(func(v Value) int64 { return int64(v.(*Map).Len()) }))

	// to_string is the display operation, available for built-in tags
	// only. Custom types gain display through explicit registration.
	toString := func(ctx *CallContext, args []Value) (Value, error) {
		return &String{Value: Deref(args[0]).Inspect()}, nil
	}
	for _, t := range []ValueType{UnitType, BoolType, IntType, FloatType, CharType, StringType, ArrayType, MapType} {
		registerNative("to_string", []Param{{Name: "value", Type: t}}, StringType, toString)
	}
}
