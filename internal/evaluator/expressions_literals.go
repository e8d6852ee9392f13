package evaluator

import (
	"github.com/google/uuid"
	"github.com/quoll-lang/quoll/internal/ast"
	"github.com/quoll-lang/quoll/internal/config"
)

func (e *Evaluator) evalArrayLiteral(node *ast.ArrayLiteral, env *Environment) Value {
	if err := e.gov.CheckArraySize(len(node.Elements)); err != nil {
		return err
	}
	elements := make([]Value, len(node.Elements))
	for i, el := range node.Elements {
		v := e.Eval(el, env)
		if isError(v) {
			return v
		}
		elements[i] = Deref(v)
	}
	return NewArray(elements)
}

func (e *Evaluator) evalMapLiteral(node *ast.MapLiteral, env *Environment) Value {
	m := NewMap()
	for _, entry := range node.Entries {
		v := e.Eval(entry.Value, env)
		if isError(v) {
			return v
		}
		// Duplicate keys overwrite, so the ceiling applies to the
		// committed entry count, not the entry list.
		if !m.Has(entry.Key) {
			if err := e.gov.CheckMapSize(m.Len() + 1); err != nil {
				return err
			}
		}
		m.Set(entry.Key, Deref(v))
	}
	return m
}

func (e *Evaluator) evalIdentifier(node *ast.Identifier, env *Environment) Value {
	if v, ok := env.Get(node.Value); ok {
		return v
	}
	return newError(ErrVariableNotFound, "variable %q is not defined", node.Value)
}

// evalFunctionLiteral turns an anonymous function into a closure: the
// body is registered under a generated global name and the resulting
// pointer captures the defining environment.
func (e *Evaluator) evalFunctionLiteral(node *ast.FunctionLiteral, env *Environment) Value {
	name := config.AnonFuncPrefix + uuid.NewString()
	e.registry.Register(nil, scriptFunction(name, node.Parameters, node.Body, env))
	return &FnPtr{Name: name, Env: env}
}
