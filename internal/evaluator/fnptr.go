package evaluator

import "strings"

// FnPtr is an opaque handle referencing a function by name, resolved at
// call time (late binding). A pointer may carry curried leading
// arguments and, for closures created from anonymous literals, the
// captured defining environment.
type FnPtr struct {
	Name  string
	Curry []Value
	Env   *Environment
}

// NewFnPtr validates the target name and creates an un-curried pointer.
// Qualified names are rejected: function pointers only ever search the
// global namespace.
func NewFnPtr(name string) (*FnPtr, *Error) {
	if !isValidFunctionName(name) {
		return nil, newFunctionNotFound(name, nil)
	}
	return &FnPtr{Name: name}, nil
}

func isValidFunctionName(name string) bool {
	if name == "" || strings.Contains(name, "::") {
		return false
	}
	for _, r := range name {
		if r == ' ' || r == '\t' || r == '\n' || r == '(' || r == ')' {
			return false
		}
	}
	return true
}

func (f *FnPtr) Type() ValueType { return FnType }

func (f *FnPtr) Inspect() string { return "Fn(" + f.Name + ")" }

// Clone copies the curried arguments; the captured environment is a
// shared capture table by definition and stays aliased.
func (f *FnPtr) Clone() Value {
	curry := make([]Value, len(f.Curry))
	for i, v := range f.Curry {
		curry[i] = v.Clone()
	}
	return &FnPtr{Name: f.Name, Curry: curry, Env: f.Env}
}

// WithCurried returns a new pointer that prepends the fixed arguments
// to every future call through it.
func (f *FnPtr) WithCurried(args []Value) *FnPtr {
	curry := make([]Value, 0, len(f.Curry)+len(args))
	curry = append(curry, f.Curry...)
	curry = append(curry, args...)
	return &FnPtr{Name: f.Name, Curry: curry, Env: f.Env}
}

// IsCurried reports whether the pointer carries fixed arguments.
func (f *FnPtr) IsCurried() bool { return len(f.Curry) > 0 }
