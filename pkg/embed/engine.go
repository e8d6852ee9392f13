// Package quoll provides the host-facing embedding API for the Quoll
// evaluation core: function and type registration, AST evaluation with
// resource limits, and read-only introspection of the callable surface.
package quoll

import (
	"fmt"

	"github.com/quoll-lang/quoll/internal/ast"
	"github.com/quoll-lang/quoll/internal/config"
	"github.com/quoll-lang/quoll/internal/evaluator"
	"github.com/quoll-lang/quoll/internal/optimizer"
)

// Engine owns a function registry and the evaluation configuration.
// Registration happens during a build phase; evaluations then treat the
// registry as read-only. Hosts running evaluations on several threads
// must either stop mutating the registry or give each evaluation a
// Snapshot.
type Engine struct {
	registry          *evaluator.Registry
	marshaller        *Marshaller
	limits            evaluator.Limits
	level             optimizer.Level
	progress          evaluator.ProgressFunc
	concurrentSharing bool
}

// New creates an engine with the built-in function set and default
// limits. The default optimization level is Simple.
func New() *Engine {
	registry := evaluator.NewRegistry()
	evaluator.RegisterBuiltins(registry)
	return &Engine{
		registry:   registry,
		marshaller: NewMarshaller(),
		limits:     evaluator.DefaultLimits(),
		level:      optimizer.Simple,
	}
}

// Registry exposes the underlying registry, mainly for tests and
// advanced hosts.
func (e *Engine) Registry() *evaluator.Registry { return e.registry }

// SetOptimizationLevel selects the AST rewrite level for subsequent
// evaluations.
func (e *Engine) SetOptimizationLevel(level optimizer.Level) { e.level = level }

// SetLimits replaces the resource ceilings. The snapshot is taken per
// evaluation.
func (e *Engine) SetLimits(l evaluator.Limits) { e.limits = l }

// Limits returns the current resource configuration.
func (e *Engine) Limits() evaluator.Limits { return e.limits }

// OnProgress installs the cancellation hook polled at every governor
// checkpoint. Returning true from the hook terminates the evaluation
// with a ScriptTerminated error.
func (e *Engine) OnProgress(hook evaluator.ProgressFunc) { e.progress = hook }

// SetConcurrentSharing switches shared cells to mutex-guarded access so
// closures may cross goroutines. This is a configuration-time choice.
func (e *Engine) SetConcurrentSharing(on bool) { e.concurrentSharing = on }

// ApplyOptions maps a parsed configuration onto the engine.
func (e *Engine) ApplyOptions(opts *config.Options) error {
	level, ok := optimizer.LevelFromName(opts.Optimization)
	if !ok {
		return fmt.Errorf("unknown optimization level %q", opts.Optimization)
	}
	e.level = level
	e.limits = evaluator.Limits{
		MaxCallDepth:  opts.Limits.MaxCallDepth,
		MaxOperations: opts.Limits.MaxOperations,
		MaxStringSize: opts.Limits.MaxStringSize,
		MaxArraySize:  opts.Limits.MaxArraySize,
		MaxMapSize:    opts.Limits.MaxMapSize,
		MaxExprDepth:  opts.Limits.MaxExprDepth,
		Unchecked:     opts.Unchecked,
	}
	return nil
}

// Snapshot returns an engine sharing this engine's configuration over a
// copy-on-write clone of the registry, isolating its evaluations from
// later registration.
func (e *Engine) Snapshot() *Engine {
	clone := *e
	clone.registry = e.registry.Clone()
	return &clone
}

// ParamDecl declares one parameter of a registered function. An empty
// Type is the wildcard. Mutable parameters receive the caller's shared
// cell (method-call receivers in particular).
type ParamDecl struct {
	Name    string
	Type    string
	Mutable bool
}

// FunctionDecl describes a native function registration.
type FunctionDecl struct {
	Name       string
	Namespace  []string
	Params     []ParamDecl
	Return     string
	Visibility evaluator.Visibility
	Fallible   bool
	Fn         evaluator.NativeFunc
}

// RegisterFunction inserts a native function. Re-registering an
// identical (name, parameter descriptors) key overwrites it.
func (e *Engine) RegisterFunction(decl FunctionDecl) error {
	if decl.Name == "" {
		return fmt.Errorf("function name must not be empty")
	}
	if decl.Fn == nil {
		return fmt.Errorf("function %q has no body", decl.Name)
	}
	sig := evaluator.Signature{Name: decl.Name, Params: make([]evaluator.Param, len(decl.Params))}
	for i, p := range decl.Params {
		t := evaluator.AnyType
		if p.Type != "" {
			t = evaluator.ValueType(p.Type)
		}
		sig.Params[i] = evaluator.Param{Name: p.Name, Type: t, Mutable: p.Mutable}
	}
	e.registry.Register(decl.Namespace, &evaluator.Function{
		Sig:        sig,
		Visibility: decl.Visibility,
		Origin:     evaluator.NativeOrigin,
		Fallible:   decl.Fallible,
		Return:     evaluator.ValueType(decl.Return),
		Native:     decl.Fn,
	})
	return nil
}

// RegisterType records a custom type under its canonical name with an
// optional display name and the value-copy function custom values use
// when cloned.
func (e *Engine) RegisterType(name, display string, copyFn func(any) any) *evaluator.CustomType {
	t := &evaluator.CustomType{Name: name, Display: display, Copy: copyFn}
	e.registry.RegisterType(t)
	return t
}

// NewCustomValue wraps host data in a previously registered type.
func (e *Engine) NewCustomValue(typeName string, data any) (evaluator.Value, error) {
	t, ok := e.registry.TypeInfo(typeName)
	if !ok {
		return nil, fmt.Errorf("type %q is not registered", typeName)
	}
	return &evaluator.Custom{TypeInfo: t, Data: data}, nil
}

// RegisterIndexGetter registers an indexer getter keyed by (owner,
// index) tags. Registration for the built-in array, map, or string
// tags fails immediately.
func (e *Engine) RegisterIndexGetter(owner, index string, fn evaluator.NativeFunc) error {
	if err := e.registry.RegisterIndexGetter(evaluator.ValueType(owner), evaluator.ValueType(index), fn); err != nil {
		return err
	}
	return nil
}

// RegisterIndexSetter registers an indexer setter keyed by (owner,
// index, value) tags.
func (e *Engine) RegisterIndexSetter(owner, index, value string, fn evaluator.NativeFunc) error {
	if err := e.registry.RegisterIndexSetter(evaluator.ValueType(owner), evaluator.ValueType(index), evaluator.ValueType(value), fn); err != nil {
		return err
	}
	return nil
}

// Optimize rewrites a program at the engine's optimization level
// without evaluating it, so tooling can inspect the reduced AST.
func (e *Engine) Optimize(program *ast.Program) *ast.Program {
	ev := e.newEvaluator()
	return optimizer.New(e.level, ev).Optimize(program)
}

// Evaluate optimizes and runs a program, returning the value of its
// last expression statement.
func (e *Engine) Evaluate(program *ast.Program) (evaluator.Value, error) {
	ev := e.newEvaluator()
	optimized := optimizer.New(e.level, ev).Optimize(program)
	result, err := ev.Evaluate(optimized, evaluator.NewEnvironment())
	if err != nil {
		return nil, err
	}
	return result, nil
}

// EvaluateAs evaluates and checks the result tag, failing with a
// TypeMismatch error when the caller's expectation does not match.
func (e *Engine) EvaluateAs(program *ast.Program, expect evaluator.ValueType) (evaluator.Value, error) {
	result, err := e.Evaluate(program)
	if err != nil {
		return nil, err
	}
	if actual := evaluator.TypeName(result); actual != expect {
		return nil, &evaluator.Error{
			Kind:     evaluator.ErrTypeMismatch,
			Message:  fmt.Sprintf("evaluation produced %s, expected %s", actual, expect),
			Expected: expect,
			Actual:   actual,
		}
	}
	return result, nil
}

// CallFn resolves and invokes a global function by name, outside any
// program evaluation.
func (e *Engine) CallFn(name string, args ...evaluator.Value) (evaluator.Value, error) {
	ev := e.newEvaluator()
	result, err := ev.CallFunctionByName(name, args)
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (e *Engine) newEvaluator() *evaluator.Evaluator {
	ev := evaluator.New(e.registry)
	ev.SetLimits(e.limits)
	ev.SetProgress(e.progress)
	ev.SetConcurrentSharing(e.concurrentSharing)
	return ev
}
