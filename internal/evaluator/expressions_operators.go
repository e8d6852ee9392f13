package evaluator

import (
	"math"

	"github.com/quoll-lang/quoll/internal/ast"
)

func (e *Evaluator) evalInfixNode(node *ast.InfixExpression, env *Environment) Value {
	left := e.Eval(node.Left, env)
	if isError(left) {
		return left
	}
	right := e.Eval(node.Right, env)
	if isError(right) {
		return right
	}
	return e.evalInfixOperator(node.Operator, Deref(left), Deref(right))
}

// evalInfixOperator dispatches a binary operator: a registered override
// wins over the built-in default semantics; with neither, the call
// fails like any unresolved function would.
func (e *Evaluator) evalInfixOperator(op string, left, right Value) Value {
	tags := []ValueType{left.Type(), right.Type()}
	if fn, err := e.resolve(nil, op, tags); err == nil {
		return e.checkContainerSize(e.applyFunction(fn, nil, []Value{left, right}, nil))
	}

	result, err := DefaultInfix(op, left, right, e.limits.Unchecked)
	if err != nil {
		return err
	}
	if result == nil {
		return newFunctionNotFound(op, tags)
	}
	return e.checkContainerSize(result)
}

func (e *Evaluator) evalPrefixExpression(node *ast.PrefixExpression, env *Environment) Value {
	operand := e.Eval(node.Right, env)
	if isError(operand) {
		return operand
	}
	v := Deref(operand)

	if fn, err := e.resolve(nil, node.Operator, []ValueType{v.Type()}); err == nil {
		return e.applyFunction(fn, nil, []Value{v}, nil)
	}

	result, err := DefaultPrefix(node.Operator, v, e.limits.Unchecked)
	if err != nil {
		return err
	}
	if result == nil {
		return newFunctionNotFound(node.Operator, []ValueType{v.Type()})
	}
	return result
}

// The short-circuiting connectives are control-flow primitives: they
// are evaluated directly and never looked up in the registry.

func (e *Evaluator) evalAndExpression(node *ast.AndExpression, env *Environment) Value {
	left := e.Eval(node.Left, env)
	if isError(left) {
		return left
	}
	l, err := AsBool(left)
	if err != nil {
		return err
	}
	if !l {
		return FALSE
	}
	right := e.Eval(node.Right, env)
	if isError(right) {
		return right
	}
	r, err := AsBool(right)
	if err != nil {
		return err
	}
	return BoolValue(r)
}

func (e *Evaluator) evalOrExpression(node *ast.OrExpression, env *Environment) Value {
	left := e.Eval(node.Left, env)
	if isError(left) {
		return left
	}
	l, err := AsBool(left)
	if err != nil {
		return err
	}
	if l {
		return TRUE
	}
	right := e.Eval(node.Right, env)
	if isError(right) {
		return right
	}
	r, err := AsBool(right)
	if err != nil {
		return err
	}
	return BoolValue(r)
}

func (e *Evaluator) evalIfExpression(node *ast.IfExpression, env *Environment) Value {
	cond := e.Eval(node.Condition, env)
	if isError(cond) {
		return cond
	}
	b, err := AsBool(cond)
	if err != nil {
		return err
	}
	if b {
		return e.Eval(node.Consequence, env)
	}
	if node.Alternative != nil {
		return e.Eval(node.Alternative, env)
	}
	return UNIT
}

// checkContainerSize applies the growth ceilings to a freshly produced
// string or array before it escapes, so oversized results never commit.
func (e *Evaluator) checkContainerSize(v Value) Value {
	switch v := v.(type) {
	case *String:
		if err := e.gov.CheckStringSize(len(v.Value)); err != nil {
			return err
		}
	case *Array:
		if err := e.gov.CheckArraySize(len(v.Elements)); err != nil {
			return err
		}
	case *Map:
		if err := e.gov.CheckMapSize(v.Len()); err != nil {
			return err
		}
	}
	return v
}

// DefaultInfix implements the built-in binary operator semantics for
// built-in tags. It returns (nil, nil) when no default applies — custom
// types gain operators only through explicit registration. The Simple
// optimization level folds through this exact table, so it must stay a
// pure function of its operands.
func DefaultInfix(op string, left, right Value, unchecked bool) (Value, *Error) {
	switch {
	case left.Type() == IntType && right.Type() == IntType:
		return intInfix(op, left.(*Integer).Value, right.(*Integer).Value, unchecked)
	case left.Type() == FloatType && right.Type() == FloatType:
		return floatInfix(op, left.(*Float).Value, right.(*Float).Value)
	case left.Type() == IntType && right.Type() == FloatType:
		// The single fixed numeric promotion.
		return floatInfix(op, float64(left.(*Integer).Value), right.(*Float).Value)
	case left.Type() == FloatType && right.Type() == IntType:
		return floatInfix(op, left.(*Float).Value, float64(right.(*Integer).Value))
	case left.Type() == StringType && right.Type() == StringType:
		return stringInfix(op, left.(*String).Value, right.(*String).Value)
	case left.Type() == StringType && right.Type() == CharType && op == "+":
		return &String{Value: left.(*String).Value + string(right.(*Char).Value)}, nil
	case left.Type() == CharType && right.Type() == CharType:
		return charInfix(op, left.(*Char).Value, right.(*Char).Value)
	case left.Type() == BoolType && right.Type() == BoolType:
		switch op {
		case "==":
			return BoolValue(left.(*Boolean).Value == right.(*Boolean).Value), nil
		case "!=":
			return BoolValue(left.(*Boolean).Value != right.(*Boolean).Value), nil
		}
		return nil, nil
	case left.Type() == ArrayType && right.Type() == ArrayType && op == "+":
		l, r := left.(*Array), right.(*Array)
		elements := make([]Value, 0, len(l.Elements)+len(r.Elements))
		elements = append(elements, l.Elements...)
		elements = append(elements, r.Elements...)
		return NewArray(elements), nil
	}

	switch op {
	case "==":
		if eq, ok := ValuesEqual(left, right); ok {
			return BoolValue(eq), nil
		}
	case "!=":
		if eq, ok := ValuesEqual(left, right); ok {
			return BoolValue(!eq), nil
		}
	}
	return nil, nil
}

func intInfix(op string, l, r int64, unchecked bool) (Value, *Error) {
	switch op {
	case "+":
		return checkedIntOp(l, r, l+r, op, unchecked)
	case "-":
		return checkedIntOp(l, r, l-r, op, unchecked)
	case "*":
		return checkedIntMul(l, r, unchecked)
	case "/":
		if r == 0 && !unchecked {
			return nil, newError(ErrArithmetic, "division by zero")
		}
		if l == math.MinInt64 && r == -1 && !unchecked {
			return nil, newError(ErrArithmetic, "integer overflow in /")
		}
		return &Integer{Value: l / r}, nil
	case "%":
		if r == 0 && !unchecked {
			return nil, newError(ErrArithmetic, "division by zero")
		}
		if l == math.MinInt64 && r == -1 {
			return &Integer{Value: 0}, nil
		}
		return &Integer{Value: l % r}, nil
	case "&":
		return &Integer{Value: l & r}, nil
	case "|":
		return &Integer{Value: l | r}, nil
	case "^":
		return &Integer{Value: l ^ r}, nil
	case "<<":
		if (r < 0 || r > 63) && !unchecked {
			return nil, newError(ErrArithmetic, "shift amount %d out of range", r)
		}
		return &Integer{Value: l << uint(r&63)}, nil
	case ">>":
		if (r < 0 || r > 63) && !unchecked {
			return nil, newError(ErrArithmetic, "shift amount %d out of range", r)
		}
		return &Integer{Value: l >> uint(r&63)}, nil
	case "==":
		return BoolValue(l == r), nil
	case "!=":
		return BoolValue(l != r), nil
	case "<":
		return BoolValue(l < r), nil
	case "<=":
		return BoolValue(l <= r), nil
	case ">":
		return BoolValue(l > r), nil
	case ">=":
		return BoolValue(l >= r), nil
	}
	return nil, nil
}

func checkedIntOp(l, r, result int64, op string, unchecked bool) (Value, *Error) {
	if !unchecked {
		overflow := false
		switch op {
		case "+":
			overflow = (r > 0 && l > math.MaxInt64-r) || (r < 0 && l < math.MinInt64-r)
		case "-":
			overflow = (r < 0 && l > math.MaxInt64+r) || (r > 0 && l < math.MinInt64+r)
		}
		if overflow {
			return nil, newError(ErrArithmetic, "integer overflow in %s", op)
		}
	}
	return &Integer{Value: result}, nil
}

func checkedIntMul(l, r int64, unchecked bool) (Value, *Error) {
	result := l * r
	if !unchecked && l != 0 && r != 0 {
		if result/r != l || (l == math.MinInt64 && r == -1) {
			return nil, newError(ErrArithmetic, "integer overflow in *")
		}
	}
	return &Integer{Value: result}, nil
}

func floatInfix(op string, l, r float64) (Value, *Error) {
	switch op {
	case "+":
		return &Float{Value: l + r}, nil
	case "-":
		return &Float{Value: l - r}, nil
	case "*":
		return &Float{Value: l * r}, nil
	case "/":
		return &Float{Value: l / r}, nil
	case "%":
		return &Float{Value: math.Mod(l, r)}, nil
	case "==":
		return BoolValue(l == r), nil
	case "!=":
		return BoolValue(l != r), nil
	case "<":
		return BoolValue(l < r), nil
	case "<=":
		return BoolValue(l <= r), nil
	case ">":
		return BoolValue(l > r), nil
	case ">=":
		return BoolValue(l >= r), nil
	}
	return nil, nil
}

func stringInfix(op string, l, r string) (Value, *Error) {
	switch op {
	case "+":
		return &String{Value: l + r}, nil
	case "==":
		return BoolValue(l == r), nil
	case "!=":
		return BoolValue(l != r), nil
	case "<":
		return BoolValue(l < r), nil
	case "<=":
		return BoolValue(l <= r), nil
	case ">":
		return BoolValue(l > r), nil
	case ">=":
		return BoolValue(l >= r), nil
	}
	return nil, nil
}

func charInfix(op string, l, r rune) (Value, *Error) {
	switch op {
	case "==":
		return BoolValue(l == r), nil
	case "!=":
		return BoolValue(l != r), nil
	case "<":
		return BoolValue(l < r), nil
	case "<=":
		return BoolValue(l <= r), nil
	case ">":
		return BoolValue(l > r), nil
	case ">=":
		return BoolValue(l >= r), nil
	case "+":
		return &String{Value: string(l) + string(r)}, nil
	}
	return nil, nil
}

// DefaultPrefix implements the built-in unary operator semantics.
// Returns (nil, nil) when no default applies.
func DefaultPrefix(op string, v Value, unchecked bool) (Value, *Error) {
	switch op {
	case "-":
		switch v := v.(type) {
		case *Integer:
			if v.Value == math.MinInt64 && !unchecked {
				return nil, newError(ErrArithmetic, "integer overflow in unary -")
			}
			return &Integer{Value: -v.Value}, nil
		case *Float:
			return &Float{Value: -v.Value}, nil
		}
	case "+":
		switch v.(type) {
		case *Integer, *Float:
			return v, nil
		}
	case "!":
		if b, ok := v.(*Boolean); ok {
			return BoolValue(!b.Value), nil
		}
	case "~":
		if i, ok := v.(*Integer); ok {
			return &Integer{Value: ^i.Value}, nil
		}
	}
	return nil, nil
}

// ValuesEqual is the built-in equality over built-in tags: deep for
// containers, value-equal for scalars and strings, pointer identity for
// function targets. Custom types have no default equality.
func ValuesEqual(a, b Value) (equal, ok bool) {
	a, b = Deref(a), Deref(b)
	switch a := a.(type) {
	case *Unit:
		_, isUnit := b.(*Unit)
		return isUnit, true
	case *Boolean:
		bb, isBool := b.(*Boolean)
		return isBool && a.Value == bb.Value, true
	case *Integer:
		bi, isInt := b.(*Integer)
		return isInt && a.Value == bi.Value, true
	case *Float:
		bf, isFloat := b.(*Float)
		return isFloat && a.Value == bf.Value, true
	case *Char:
		bc, isChar := b.(*Char)
		return isChar && a.Value == bc.Value, true
	case *String:
		bs, isString := b.(*String)
		return isString && a.Value == bs.Value, true
	case *FnPtr:
		bp, isPtr := b.(*FnPtr)
		if !isPtr || a.Name != bp.Name || len(a.Curry) != len(bp.Curry) {
			return false, true
		}
		for i := range a.Curry {
			eq, cok := ValuesEqual(a.Curry[i], bp.Curry[i])
			if !cok || !eq {
				return false, true
			}
		}
		return true, true
	case *Array:
		ba, isArr := b.(*Array)
		if !isArr || len(a.Elements) != len(ba.Elements) {
			return false, true
		}
		for i := range a.Elements {
			eq, eok := ValuesEqual(a.Elements[i], ba.Elements[i])
			if !eok {
				return false, false
			}
			if !eq {
				return false, true
			}
		}
		return true, true
	case *Map:
		bm, isMap := b.(*Map)
		if !isMap || a.Len() != bm.Len() {
			return false, true
		}
		for _, k := range a.Keys() {
			av, _ := a.Get(k)
			bv, found := bm.Get(k)
			if !found {
				return false, true
			}
			eq, eok := ValuesEqual(av, bv)
			if !eok {
				return false, false
			}
			if !eq {
				return false, true
			}
		}
		return true, true
	}
	return false, false
}
