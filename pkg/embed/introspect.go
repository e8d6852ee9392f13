package quoll

import (
	"github.com/quoll-lang/quoll/internal/evaluator"
)

// FunctionInfo is the read-only description of one registered callable,
// enough structural information for an external process to enumerate
// the full callable surface.
type FunctionInfo struct {
	Namespace  []string
	Name       string
	Arity      int
	Params     []string
	Return     string
	Visibility string
	Origin     string
	Fallible   bool
}

// Functions enumerates every registered function in deterministic
// order, including private ones (flagged by Visibility).
func (e *Engine) Functions() []FunctionInfo {
	var infos []FunctionInfo
	e.registry.Walk(func(path []string, fn *evaluator.Function) {
		params := make([]string, len(fn.Sig.Params))
		for i, p := range fn.Sig.Params {
			params[i] = string(p.Type)
		}
		ns := make([]string, len(path))
		copy(ns, path)
		infos = append(infos, FunctionInfo{
			Namespace:  ns,
			Name:       fn.Sig.Name,
			Arity:      len(fn.Sig.Params),
			Params:     params,
			Return:     string(fn.Return),
			Visibility: fn.Visibility.String(),
			Origin:     fn.Origin.String(),
			Fallible:   fn.Fallible,
		})
	})
	return infos
}
