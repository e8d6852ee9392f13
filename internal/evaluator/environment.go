package evaluator

import "sync"

// binding associates a name with a shared cell. Const bindings reject
// assignment but their cell may still be captured by closures.
type binding struct {
	cell     *Shared
	constant bool
}

type Environment struct {
	mu    sync.RWMutex
	store map[string]*binding
	outer *Environment
}

func NewEnvironment() *Environment {
	return &Environment{store: make(map[string]*binding)}
}

func NewEnclosedEnvironment(outer *Environment) *Environment {
	env := NewEnvironment()
	env.outer = outer
	return env
}

// Get resolves a name and dereferences its cell.
func (e *Environment) Get(name string) (Value, bool) {
	cell, ok := e.Cell(name)
	if !ok {
		return nil, false
	}
	return cell.Get(), true
}

// Cell resolves a name to its shared cell, walking enclosing scopes.
func (e *Environment) Cell(name string) (*Shared, bool) {
	e.mu.RLock()
	b, ok := e.store[name]
	e.mu.RUnlock()
	if ok {
		return b.cell, true
	}
	if e.outer != nil {
		return e.outer.Cell(name)
	}
	return nil, false
}

// Define binds a name to a cell in this scope, shadowing any outer
// binding of the same name.
func (e *Environment) Define(name string, cell *Shared, constant bool) {
	e.mu.Lock()
	e.store[name] = &binding{cell: cell, constant: constant}
	e.mu.Unlock()
}

// Assign writes through the nearest binding of name. It reports whether
// the name was found and whether the binding rejected the write for
// being constant.
func (e *Environment) Assign(name string, v Value) (found, constant bool) {
	e.mu.RLock()
	b, ok := e.store[name]
	e.mu.RUnlock()
	if ok {
		if b.constant {
			return true, true
		}
		b.cell.Set(v)
		return true, false
	}
	if e.outer != nil {
		return e.outer.Assign(name, v)
	}
	return false, false
}
