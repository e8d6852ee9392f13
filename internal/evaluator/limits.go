package evaluator

import "github.com/quoll-lang/quoll/internal/config"

// Limits is the immutable-per-evaluation resource configuration. A zero
// ceiling means unlimited. Unchecked disables every check, including
// arithmetic overflow and divide-by-zero detection, trading safety for
// throughput.
type Limits struct {
	MaxCallDepth  int
	MaxOperations uint64
	MaxStringSize int
	MaxArraySize  int
	MaxMapSize    int
	MaxExprDepth  int
	Unchecked     bool
}

// DefaultLimits guards the Go stack (call depth, expression nesting)
// and leaves everything else unlimited.
func DefaultLimits() Limits {
	return Limits{
		MaxCallDepth:  config.DefaultMaxCallDepth,
		MaxOperations: config.DefaultMaxOperations,
		MaxStringSize: config.DefaultMaxStringSize,
		MaxArraySize:  config.DefaultMaxArraySize,
		MaxMapSize:    config.DefaultMaxMapSize,
		MaxExprDepth:  config.DefaultMaxExprDepth,
	}
}

// ProgressFunc is the cancellation hook. It receives the running
// operation count at every checkpoint; returning true aborts evaluation
// at that checkpoint with ScriptTerminated. Cancellation is cooperative
// and bounded by checkpoint granularity, never preemptive.
type ProgressFunc func(ops uint64) bool

// Governor enforces the resource ceilings for one evaluation. Limits
// are snapshotted at construction; concurrent mutation mid-evaluation
// is the host's problem to prevent.
type Governor struct {
	limits    Limits
	progress  ProgressFunc
	ops       uint64
	depth     int
	exprDepth int
}

func NewGovernor(limits Limits, progress ProgressFunc) *Governor {
	return &Governor{limits: limits, progress: progress}
}

// Ops returns the running operation count.
func (g *Governor) Ops() uint64 { return g.ops }

// Step is the per-evaluation-step checkpoint: it ticks the operation
// counter, enforces the operation ceiling, and polls the cancellation
// hook.
func (g *Governor) Step() *Error {
	if g.limits.Unchecked {
		return nil
	}
	g.ops++
	if g.limits.MaxOperations > 0 && g.ops > g.limits.MaxOperations {
		return &Error{
			Kind:      ErrTooManyOperations,
			Message:   "operation count exceeded",
			LimitKind: "operations",
			Limit:     int64(g.limits.MaxOperations),
		}
	}
	if g.progress != nil && g.progress(g.ops) {
		return newError(ErrScriptTerminated, "terminated by host")
	}
	return nil
}

// EnterCall checks the call-depth ceiling before a callee body runs.
func (g *Governor) EnterCall() *Error {
	g.depth++
	if g.limits.Unchecked {
		return nil
	}
	if g.limits.MaxCallDepth > 0 && g.depth > g.limits.MaxCallDepth {
		g.depth--
		return &Error{
			Kind:      ErrCallStackOverflow,
			Message:   "call stack exceeded maximum depth",
			LimitKind: "call depth",
			Limit:     int64(g.limits.MaxCallDepth),
		}
	}
	return nil
}

func (g *Governor) ExitCall() {
	if g.depth > 0 {
		g.depth--
	}
}

// Depth returns the current call depth.
func (g *Governor) Depth() int { return g.depth }

// EnterExpr checks the expression-nesting ceiling.
func (g *Governor) EnterExpr() *Error {
	g.exprDepth++
	if g.limits.Unchecked {
		return nil
	}
	if g.limits.MaxExprDepth > 0 && g.exprDepth > g.limits.MaxExprDepth {
		g.exprDepth--
		return &Error{
			Kind:      ErrExpressionTooDeep,
			Message:   "expression nesting exceeded maximum depth",
			LimitKind: "expression depth",
			Limit:     int64(g.limits.MaxExprDepth),
		}
	}
	return nil
}

func (g *Governor) ExitExpr() {
	if g.exprDepth > 0 {
		g.exprDepth--
	}
}

// CheckStringSize verifies a prospective string length before the
// mutation or result commits.
func (g *Governor) CheckStringSize(size int) *Error {
	if g.limits.Unchecked || g.limits.MaxStringSize <= 0 {
		return nil
	}
	if size > g.limits.MaxStringSize {
		return newDataTooLarge("string", g.limits.MaxStringSize)
	}
	return nil
}

// CheckArraySize verifies a prospective array length.
func (g *Governor) CheckArraySize(size int) *Error {
	if g.limits.Unchecked || g.limits.MaxArraySize <= 0 {
		return nil
	}
	if size > g.limits.MaxArraySize {
		return newDataTooLarge("array", g.limits.MaxArraySize)
	}
	return nil
}

// CheckMapSize verifies a prospective map entry count.
func (g *Governor) CheckMapSize(size int) *Error {
	if g.limits.Unchecked || g.limits.MaxMapSize <= 0 {
		return nil
	}
	if size > g.limits.MaxMapSize {
		return newDataTooLarge("map", g.limits.MaxMapSize)
	}
	return nil
}
