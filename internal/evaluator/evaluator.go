package evaluator

import (
	"strings"

	"github.com/quoll-lang/quoll/internal/ast"
)

// Evaluator walks an AST depth-first, single-threaded and cooperative.
// Every call passes through overload resolution and every container
// mutation through the governor. One Evaluator serves one evaluation at
// a time; hosts wanting parallelism run independent Evaluators over a
// shared read-only registry.
type Evaluator struct {
	registry          *Registry
	limits            Limits
	progress          ProgressFunc
	concurrentSharing bool

	gov       *Governor
	globalEnv *Environment

	// Per-evaluation function resolution cache, keyed on the registry
	// version so script-level definitions invalidate stale entries.
	cache        map[string]*Function
	cacheVersion uint64
}

func New(registry *Registry) *Evaluator {
	return &Evaluator{
		registry: registry,
		limits:   DefaultLimits(),
		cache:    make(map[string]*Function),
	}
}

func (e *Evaluator) Registry() *Registry { return e.registry }

// SetLimits replaces the resource configuration used by subsequent
// evaluations. Limits are snapshotted per evaluation.
func (e *Evaluator) SetLimits(l Limits) { e.limits = l }

func (e *Evaluator) Limits() Limits { return e.limits }

// SetProgress installs the host cancellation hook.
func (e *Evaluator) SetProgress(f ProgressFunc) { e.progress = f }

// SetConcurrentSharing switches shared cells to mutex-guarded access
// for engines whose closures cross goroutines. Configuration-time
// choice, not per call.
func (e *Evaluator) SetConcurrentSharing(on bool) { e.concurrentSharing = on }

func (e *Evaluator) newCell(v Value) *Shared {
	return NewShared(v, e.concurrentSharing)
}

// Evaluate runs a program in env and returns the value of its last
// expression statement (unit when there is none). Function definitions
// are hoisted into the global namespace first, so calls may precede
// their textual definition.
func (e *Evaluator) Evaluate(program *ast.Program, env *Environment) (Value, *Error) {
	e.gov = NewGovernor(e.limits, e.progress)
	e.globalEnv = env
	e.cache = make(map[string]*Function)
	e.cacheVersion = e.registry.Version()

	for _, stmt := range program.Statements {
		if fs, ok := stmt.(*ast.FunctionStatement); ok {
			e.registerScriptFunction(fs)
		}
	}

	var result Value = UNIT
	for _, stmt := range program.Statements {
		v := e.Eval(stmt, env)
		if err, ok := v.(*Error); ok {
			return nil, err
		}
		if rv, ok := v.(*ReturnValue); ok {
			return Deref(rv.Value), nil
		}
		result = v
	}
	return Deref(result), nil
}

// CallFunctionByName resolves name in the global namespace against the
// argument tags and invokes it. Used by the embedding API and by the
// Full optimization level.
func (e *Evaluator) CallFunctionByName(name string, args []Value) (Value, *Error) {
	if e.gov == nil {
		e.gov = NewGovernor(e.limits, e.progress)
	}
	if e.globalEnv == nil {
		e.globalEnv = NewEnvironment()
	}
	fn, err := e.resolve(nil, name, argTags(args))
	if err != nil {
		return nil, err
	}
	v := e.applyFunction(fn, nil, args, nil)
	if errv, ok := v.(*Error); ok {
		return nil, errv
	}
	return Deref(v), nil
}

// Eval dispatches one AST node. Errors travel back as *Error values.
func (e *Evaluator) Eval(node ast.Node, env *Environment) Value {
	if err := e.gov.Step(); err != nil {
		return err
	}

	switch node := node.(type) {
	// Statements
	case *ast.Program:
		v, err := e.Evaluate(node, env)
		if err != nil {
			return err
		}
		return v
	case *ast.ExpressionStatement:
		return e.Eval(node.Expression, env)
	case *ast.BlockStatement:
		return e.evalBlockStatement(node, env)
	case *ast.LetStatement:
		return e.evalLetStatement(node, env, false)
	case *ast.ConstStatement:
		return e.evalConstStatement(node, env)
	case *ast.AssignStatement:
		return e.evalAssignStatement(node, env)
	case *ast.ReturnStatement:
		return e.evalReturnStatement(node, env)
	case *ast.WhileStatement:
		return e.evalWhileStatement(node, env)
	case *ast.FunctionStatement:
		e.registerScriptFunction(node)
		return UNIT

	// Expressions
	case ast.Expression:
		if err := e.gov.EnterExpr(); err != nil {
			return err
		}
		defer e.gov.ExitExpr()
		return e.evalExpression(node, env)
	}

	return newError(ErrTypeMismatch, "unknown node type %T", node)
}

func (e *Evaluator) evalExpression(node ast.Expression, env *Environment) Value {
	switch node := node.(type) {
	case *ast.UnitLiteral:
		return UNIT
	case *ast.BooleanLiteral:
		return BoolValue(node.Value)
	case *ast.IntegerLiteral:
		return &Integer{Value: node.Value}
	case *ast.FloatLiteral:
		return &Float{Value: node.Value}
	case *ast.CharLiteral:
		return &Char{Value: node.Value}
	case *ast.StringLiteral:
		return &String{Value: node.Value}
	case *ast.ArrayLiteral:
		return e.evalArrayLiteral(node, env)
	case *ast.MapLiteral:
		return e.evalMapLiteral(node, env)
	case *ast.Identifier:
		return e.evalIdentifier(node, env)
	case *ast.PrefixExpression:
		return e.evalPrefixExpression(node, env)
	case *ast.InfixExpression:
		return e.evalInfixNode(node, env)
	case *ast.AndExpression:
		return e.evalAndExpression(node, env)
	case *ast.OrExpression:
		return e.evalOrExpression(node, env)
	case *ast.IfExpression:
		return e.evalIfExpression(node, env)
	case *ast.IndexExpression:
		return e.evalIndexExpression(node, env)
	case *ast.CallExpression:
		return e.evalCallExpression(node, env)
	case *ast.MethodCallExpression:
		return e.evalMethodCall(node, env)
	case *ast.FunctionLiteral:
		return e.evalFunctionLiteral(node, env)
	}
	return newError(ErrTypeMismatch, "unknown expression type %T", node)
}

func argTags(args []Value) []ValueType {
	tags := make([]ValueType, len(args))
	for i, a := range args {
		tags[i] = Deref(a).Type()
	}
	return tags
}

// resolve is the cached front of Registry.Resolve. Only global-namespace
// hits are cached; qualified calls are rare enough to go straight
// through.
func (e *Evaluator) resolve(path []string, name string, tags []ValueType) (*Function, *Error) {
	if len(path) > 0 {
		return e.registry.Resolve(path, name, tags)
	}
	if v := e.registry.Version(); v != e.cacheVersion {
		e.cache = make(map[string]*Function)
		e.cacheVersion = v
	}
	key := cacheKey(name, tags)
	if fn, ok := e.cache[key]; ok {
		return fn, nil
	}
	fn, err := e.registry.Resolve(nil, name, tags)
	if err != nil {
		return nil, err
	}
	e.cache[key] = fn
	return fn, nil
}

func cacheKey(name string, tags []ValueType) string {
	var b strings.Builder
	b.WriteString(name)
	for _, t := range tags {
		b.WriteByte('|')
		b.WriteString(string(t))
	}
	return b.String()
}
