package evaluator

import (
	"github.com/quoll-lang/quoll/internal/ast"
	"github.com/quoll-lang/quoll/internal/config"
)

// CallContext is the per-invocation record handed to native functions:
// the bound receiver (if any), the evaluator, and the current depth.
// It is created on call entry and discarded on return.
type CallContext struct {
	Eval  *Evaluator
	Env   *Environment
	This  *Shared
	Depth int
}

// CallFnPtr lets a native function invoke a script closure or any other
// function pointer. Resolution happens now, not at pointer creation.
func (c *CallContext) CallFnPtr(ptr *FnPtr, args []Value) (Value, error) {
	v := c.Eval.invokeFnPtr(ptr, nil, args)
	if err, ok := v.(*Error); ok {
		return nil, err
	}
	return v, nil
}

func (e *Evaluator) evalCallExpression(node *ast.CallExpression, env *Environment) Value {
	// Function-pointer keywords are dispatched directly; they never hit
	// the registry.
	if len(node.Namespace) == 0 {
		switch node.Function {
		case config.FnPtrFuncName:
			return e.evalFnPtrConstructor(node, env)
		case config.CurryFuncName:
			return e.evalCurryCall(node, env)
		case config.CallFuncName:
			return e.evalPointerCall(node, env)
		}
	}

	args, cells, errv := e.evalArguments(node.Arguments, env)
	if errv != nil {
		return errv
	}

	fn, err := e.resolve(node.Namespace, node.Function, argTags(args))
	if err != nil {
		// A variable holding a function pointer is callable like a
		// function.
		if len(node.Namespace) == 0 {
			if v, ok := env.Get(node.Function); ok {
				if ptr, isPtr := Deref(v).(*FnPtr); isPtr {
					return e.invokeFnPtr(ptr, nil, args)
				}
			}
		}
		return err
	}
	return e.applyFunction(fn, nil, args, cells)
}

// Fn("name") produces a function pointer, validating the name eagerly;
// the target itself may not exist yet (late binding).
func (e *Evaluator) evalFnPtrConstructor(node *ast.CallExpression, env *Environment) Value {
	if len(node.Arguments) != 1 {
		return newError(ErrTypeMismatch, "Fn expects one string argument")
	}
	v := e.Eval(node.Arguments[0], env)
	if isError(v) {
		return v
	}
	name, err := AsString(v)
	if err != nil {
		return err
	}
	ptr, err := NewFnPtr(name)
	if err != nil {
		return err
	}
	return ptr
}

// curry(ptr, args...) produces a new pointer with fixed leading args.
func (e *Evaluator) evalCurryCall(node *ast.CallExpression, env *Environment) Value {
	if len(node.Arguments) == 0 {
		return newError(ErrTypeMismatch, "curry expects a function pointer")
	}
	args, _, errv := e.evalArguments(node.Arguments, env)
	if errv != nil {
		return errv
	}
	ptr, err := AsFnPtr(args[0])
	if err != nil {
		return err
	}
	return ptr.WithCurried(args[1:])
}

// call(ptr, args...) invokes a pointer with no bound receiver.
func (e *Evaluator) evalPointerCall(node *ast.CallExpression, env *Environment) Value {
	if len(node.Arguments) == 0 {
		return newError(ErrTypeMismatch, "call expects a function pointer")
	}
	args, _, errv := e.evalArguments(node.Arguments, env)
	if errv != nil {
		return errv
	}
	ptr, err := AsFnPtr(args[0])
	if err != nil {
		return err
	}
	return e.invokeFnPtr(ptr, nil, args[1:])
}

func (e *Evaluator) evalMethodCall(node *ast.MethodCallExpression, env *Environment) Value {
	recv := e.Eval(node.Receiver, env)
	if isError(recv) {
		return recv
	}
	recvCell := e.receiverCell(node.Receiver, recv, env)
	recvVal := Deref(recv)

	// recv.call(...) is the one place a receiver binds as "this";
	// ptr.call(...) invokes the pointer unbound.
	if node.Method == config.CallFuncName {
		return e.evalMethodPointerCall(recvVal, recvCell, node, env)
	}

	if node.Method == config.CurryFuncName {
		if ptr, ok := recvVal.(*FnPtr); ok {
			args, _, errv := e.evalArguments(node.Arguments, env)
			if errv != nil {
				return errv
			}
			return ptr.WithCurried(args)
		}
	}

	// Method-call sugar: a.f(args) desugars to f(a, args...).
	args, cells, errv := e.evalArguments(node.Arguments, env)
	if errv != nil {
		return errv
	}
	fullArgs := append([]Value{recvVal}, args...)
	fullCells := append([]*Shared{recvCell}, cells...)

	fn, err := e.resolve(nil, node.Method, argTags(fullArgs))
	if err != nil {
		return err
	}
	return e.applyFunction(fn, nil, fullArgs, fullCells)
}

func (e *Evaluator) evalMethodPointerCall(recvVal Value, recvCell *Shared, node *ast.MethodCallExpression, env *Environment) Value {
	args, _, errv := e.evalArguments(node.Arguments, env)
	if errv != nil {
		return errv
	}

	if ptr, ok := recvVal.(*FnPtr); ok {
		return e.invokeFnPtr(ptr, nil, args)
	}

	if len(args) == 0 {
		return newError(ErrTypeMismatch, "call expects a function pointer")
	}
	ptr, err := AsFnPtr(args[0])
	if err != nil {
		return err
	}
	this := recvCell
	if this == nil {
		this = e.newCell(recvVal)
	}
	return e.invokeFnPtr(ptr, this, args[1:])
}

// invokeFnPtr re-runs overload resolution at call time: a pointer
// created before its target exists succeeds once the target is defined,
// and fails with FunctionNotFound only at the moment of invocation.
// Only the global namespace is searched.
func (e *Evaluator) invokeFnPtr(ptr *FnPtr, this *Shared, args []Value) Value {
	full := make([]Value, 0, len(ptr.Curry)+len(args))
	full = append(full, ptr.Curry...)
	full = append(full, args...)

	fn, err := e.resolve(nil, ptr.Name, argTags(full))
	if err != nil {
		return err
	}
	return e.applyFunction(fn, this, full, nil)
}

// evalArguments evaluates call arguments, remembering the shared cell
// of any argument that is a plain identifier so mutable parameters can
// write back through it.
func (e *Evaluator) evalArguments(exprs []ast.Expression, env *Environment) ([]Value, []*Shared, *Error) {
	args := make([]Value, len(exprs))
	cells := make([]*Shared, len(exprs))
	for i, expr := range exprs {
		v := e.Eval(expr, env)
		if err, ok := v.(*Error); ok {
			return nil, nil, err
		}
		if ident, ok := expr.(*ast.Identifier); ok {
			if cell, found := env.Cell(ident.Value); found {
				cells[i] = cell
			}
		}
		args[i] = Deref(v)
	}
	return args, cells, nil
}

func (e *Evaluator) receiverCell(expr ast.Expression, v Value, env *Environment) *Shared {
	if s, ok := v.(*Shared); ok {
		return s
	}
	if ident, ok := expr.(*ast.Identifier); ok {
		if cell, found := env.Cell(ident.Value); found {
			return cell
		}
	}
	return nil
}

// applyFunction invokes a resolved function. The governor checks depth
// before the callee body executes; arguments are promoted per the
// resolved signature; mutable parameters receive the caller's cell.
func (e *Evaluator) applyFunction(fn *Function, this *Shared, args []Value, cells []*Shared) Value {
	if err := e.gov.EnterCall(); err != nil {
		return err
	}
	defer e.gov.ExitCall()

	args = promoteArgs(fn.Sig, args)

	if fn.Origin == NativeOrigin {
		return e.applyNative(fn, this, args, cells)
	}
	return e.applyScript(fn, this, args, cells)
}

func (e *Evaluator) applyNative(fn *Function, this *Shared, args []Value, cells []*Shared) Value {
	callArgs := make([]Value, len(args))
	for i, a := range args {
		if fn.Sig.Params[i].Mutable {
			cell := cellAt(cells, i)
			if cell == nil {
				cell = e.newCell(a)
			}
			callArgs[i] = cell
		} else {
			callArgs[i] = a
		}
	}

	ctx := &CallContext{Eval: e, Env: e.globalEnv, This: this, Depth: e.gov.Depth()}
	result, err := fn.Native(ctx, callArgs)
	if err != nil {
		if errv, ok := err.(*Error); ok {
			return errv
		}
		// A fallible native's failure becomes a script-visible raised
		// error; an unexpected failure from an infallible one does too,
		// since the core never recovers anything silently.
		return newRaised(&String{Value: err.Error()})
	}
	if result == nil {
		result = UNIT
	}
	return e.checkContainerSize(result)
}

func (e *Evaluator) applyScript(fn *Function, this *Shared, args []Value, cells []*Shared) Value {
	outer := fn.Env
	if outer == nil {
		outer = e.globalEnv
	}
	env := NewEnclosedEnvironment(outer)

	for i, p := range fn.Sig.Params {
		if p.Mutable {
			cell := cellAt(cells, i)
			if cell == nil {
				cell = e.newCell(args[i])
			}
			env.Define(p.Name, cell, false)
		} else {
			env.Define(p.Name, e.newCell(args[i].Clone()), false)
		}
	}
	if this != nil {
		env.Define(config.ThisName, this, false)
	}

	v := e.Eval(fn.Body, env)
	if isError(v) {
		return v
	}
	return unwrapReturnValue(v)
}

func cellAt(cells []*Shared, i int) *Shared {
	if i < len(cells) {
		return cells[i]
	}
	return nil
}

// promoteArgs converts integer arguments bound to float parameters, the
// one promotion resolution is allowed to apply.
func promoteArgs(sig Signature, args []Value) []Value {
	for i, p := range sig.Params {
		if i >= len(args) {
			break
		}
		if p.Type == FloatType {
			if n, ok := args[i].(*Integer); ok {
				args[i] = &Float{Value: float64(n.Value)}
			}
		}
	}
	return args
}
