package evaluator

import (
	"github.com/quoll-lang/quoll/internal/ast"
)

// evalIndexExpression handles a[i]. Built-in array, map, and string
// indexing bypasses the registry entirely; everything else looks up a
// registered getter keyed by (ownerTag, indexTag).
func (e *Evaluator) evalIndexExpression(node *ast.IndexExpression, env *Environment) Value {
	left := e.Eval(node.Left, env)
	if isError(left) {
		return left
	}
	index := e.Eval(node.Index, env)
	if isError(index) {
		return index
	}
	owner, idx := Deref(left), Deref(index)

	switch owner := owner.(type) {
	case *Array:
		i, err := AsInt(idx)
		if err != nil {
			return err
		}
		pos, err := arrayPosition(i, len(owner.Elements))
		if err != nil {
			return err
		}
		return owner.Elements[pos]
	case *Map:
		key, err := AsString(idx)
		if err != nil {
			return err
		}
		if v, ok := owner.Get(key); ok {
			return v
		}
		return UNIT
	case *String:
		i, err := AsInt(idx)
		if err != nil {
			return err
		}
		runes := []rune(owner.Value)
		pos, err := arrayPosition(i, len(runes))
		if err != nil {
			return err
		}
		return &Char{Value: runes[pos]}
	}

	getter, ok := e.registry.lookupIndexGetter(owner.Type(), idx.Type())
	if !ok {
		return newFunctionNotFound("[]", []ValueType{owner.Type(), idx.Type()})
	}
	ctx := &CallContext{Eval: e, Env: e.globalEnv, Depth: e.gov.Depth()}
	result, err := getter.Native(ctx, []Value{owner, idx})
	if err != nil {
		if errv, ok := err.(*Error); ok {
			return errv
		}
		return newRaised(&String{Value: err.Error()})
	}
	if result == nil {
		return UNIT
	}
	return result
}

// evalIndexAssign handles a[i] = v. The prospective size of a growing
// container is checked before the mutation commits.
func (e *Evaluator) evalIndexAssign(target *ast.IndexExpression, valueExpr ast.Expression, env *Environment) Value {
	left := e.Eval(target.Left, env)
	if isError(left) {
		return left
	}
	index := e.Eval(target.Index, env)
	if isError(index) {
		return index
	}
	value := e.Eval(valueExpr, env)
	if isError(value) {
		return value
	}
	owner, idx, val := Deref(left), Deref(index), Deref(value)

	switch owner := owner.(type) {
	case *Array:
		i, err := AsInt(idx)
		if err != nil {
			return err
		}
		pos, err := arrayPosition(i, len(owner.Elements))
		if err != nil {
			return err
		}
		owner.Elements[pos] = val
		return UNIT
	case *Map:
		key, err := AsString(idx)
		if err != nil {
			return err
		}
		if !owner.Has(key) {
			if err := e.gov.CheckMapSize(owner.Len() + 1); err != nil {
				return err
			}
		}
		owner.Set(key, val)
		return UNIT
	case *String:
		// Strings are immutable; no built-in setter exists and a custom
		// one cannot be registered.
		return newFunctionNotFound("[]=", []ValueType{StringType, idx.Type(), val.Type()})
	}

	setter, ok := e.registry.lookupIndexSetter(owner.Type(), idx.Type(), val.Type())
	if !ok {
		return newFunctionNotFound("[]=", []ValueType{owner.Type(), idx.Type(), val.Type()})
	}
	ctx := &CallContext{Eval: e, Env: e.globalEnv, Depth: e.gov.Depth()}
	if _, err := setter.Native(ctx, []Value{owner, idx, val}); err != nil {
		if errv, ok := err.(*Error); ok {
			return errv
		}
		return newRaised(&String{Value: err.Error()})
	}
	return UNIT
}

// arrayPosition resolves an index, letting negative values count from
// the end.
func arrayPosition(i int64, length int) (int, *Error) {
	pos := i
	if pos < 0 {
		pos += int64(length)
	}
	if pos < 0 || pos >= int64(length) {
		return 0, newError(ErrIndexOutOfBounds, "index %d out of range for length %d", i, length)
	}
	return int(pos), nil
}
