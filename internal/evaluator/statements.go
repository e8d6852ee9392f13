package evaluator

import (
	"github.com/quoll-lang/quoll/internal/ast"
)

func (e *Evaluator) evalBlockStatement(block *ast.BlockStatement, env *Environment) Value {
	inner := NewEnclosedEnvironment(env)
	var result Value = UNIT
	for _, stmt := range block.Statements {
		result = e.Eval(stmt, inner)
		if result != nil {
			t := result.Type()
			if t == ErrorValueType || t == ReturnValueType {
				return result
			}
		}
	}
	return result
}

func (e *Evaluator) evalLetStatement(node *ast.LetStatement, env *Environment, constant bool) Value {
	v := e.Eval(node.Value, env)
	if isError(v) {
		return v
	}
	env.Define(node.Name, e.newCell(Deref(v)), constant)
	return UNIT
}

func (e *Evaluator) evalConstStatement(node *ast.ConstStatement, env *Environment) Value {
	v := e.Eval(node.Value, env)
	if isError(v) {
		return v
	}
	env.Define(node.Name, e.newCell(Deref(v)), true)
	return UNIT
}

func (e *Evaluator) evalAssignStatement(node *ast.AssignStatement, env *Environment) Value {
	switch target := node.Target.(type) {
	case *ast.Identifier:
		v := e.Eval(node.Value, env)
		if isError(v) {
			return v
		}
		found, constant := env.Assign(target.Value, Deref(v))
		if constant {
			return newError(ErrConstAssignment, "cannot assign to constant %q", target.Value)
		}
		if !found {
			return newError(ErrVariableNotFound, "variable %q is not defined", target.Value)
		}
		return UNIT
	case *ast.IndexExpression:
		return e.evalIndexAssign(target, node.Value, env)
	}
	return newError(ErrTypeMismatch, "cannot assign to %s", node.Target.String())
}

func (e *Evaluator) evalReturnStatement(node *ast.ReturnStatement, env *Environment) Value {
	if node.Value == nil {
		return &ReturnValue{Value: UNIT}
	}
	v := e.Eval(node.Value, env)
	if isError(v) {
		return v
	}
	return &ReturnValue{Value: v}
}

func (e *Evaluator) evalWhileStatement(node *ast.WhileStatement, env *Environment) Value {
	for {
		cond := e.Eval(node.Condition, env)
		if isError(cond) {
			return cond
		}
		b, err := AsBool(cond)
		if err != nil {
			return err
		}
		if !b {
			return UNIT
		}
		v := e.Eval(node.Body, env)
		if v != nil {
			t := v.Type()
			if t == ErrorValueType || t == ReturnValueType {
				return v
			}
		}
	}
}

// registerScriptFunction inserts a script-defined function into the
// global namespace. Script definitions always land at global scope,
// never nested inside another callable, and an identical signature key
// overwrites the previous registration.
func (e *Evaluator) registerScriptFunction(node *ast.FunctionStatement) {
	e.registry.Register(nil, scriptFunction(node.Name, node.Parameters, node.Body, nil))
}

func scriptFunction(name string, params []*ast.Parameter, body *ast.BlockStatement, env *Environment) *Function {
	sig := Signature{Name: name, Params: make([]Param, len(params))}
	for i, p := range params {
		t := AnyType
		if p.TypeName != "" {
			t = ValueType(p.TypeName)
		}
		sig.Params[i] = Param{Name: p.Name, Type: t, Mutable: p.Mutable}
	}
	return &Function{
		Sig:        sig,
		Visibility: Public,
		Origin:     ScriptOrigin,
		Parameters: params,
		Body:       body,
		Env:        env,
	}
}
