package config

// Default resource ceilings applied when the host does not configure its
// own. A zero ceiling means unlimited, so only call depth and expression
// nesting get non-zero defaults: they guard the Go stack itself.
const (
	DefaultMaxCallDepth = 64
	DefaultMaxExprDepth = 64

	DefaultMaxOperations = 0 // unlimited
	DefaultMaxStringSize = 0 // unlimited
	DefaultMaxArraySize  = 0 // unlimited
	DefaultMaxMapSize    = 0 // unlimited
)

// Reserved callable names handled directly by the dispatcher. They are
// never looked up in the registry.
const (
	FnPtrFuncName = "Fn"
	CurryFuncName = "curry"
	CallFuncName  = "call"
)

// ThisName is the identifier bound to the receiver inside a method call.
const ThisName = "this"

// AnonFuncPrefix prefixes the generated global names of anonymous
// function literals.
const AnonFuncPrefix = "anon$"

// Optimization level names accepted in configuration files.
const (
	OptimizationNone   = "none"
	OptimizationSimple = "simple"
	OptimizationFull   = "full"
)
