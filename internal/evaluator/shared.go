package evaluator

import "sync"

// Shared is an aliasable mutable cell wrapping one Value. Reading
// dereferences to the current inner value; writing through any alias is
// visible to every holder. Closures and scopes holding the same cell
// keep it alive for as long as the longest-lived holder.
//
// A cell is either plain or locked. Locked cells guard the interior
// with a mutex so closures may be invoked from other goroutines; the
// choice is made once, when the engine is configured for cross-thread
// use, never per call.
type Shared struct {
	cell *sharedCell
}

type sharedCell struct {
	mu     sync.RWMutex
	locked bool
	value  Value
}

// NewShared wraps a value in a fresh cell.
func NewShared(v Value, locked bool) *Shared {
	return &Shared{cell: &sharedCell{locked: locked, value: v}}
}

func (s *Shared) Type() ValueType { return SharedType }
func (s *Shared) Inspect() string { return s.Get().Inspect() }

// Clone is a shallow handle copy: the new wrapper aliases the same cell.
func (s *Shared) Clone() Value { return &Shared{cell: s.cell} }

// Get reads the current inner value.
func (s *Shared) Get() Value {
	if s.cell.locked {
		s.cell.mu.RLock()
		defer s.cell.mu.RUnlock()
	}
	return s.cell.value
}

// Set replaces the inner value; the write is visible to every alias.
func (s *Shared) Set(v Value) {
	if s.cell.locked {
		s.cell.mu.Lock()
		defer s.cell.mu.Unlock()
	}
	s.cell.value = v
}

// Aliases reports whether two wrappers share the same cell.
func (s *Shared) Aliases(other *Shared) bool {
	return other != nil && s.cell == other.cell
}

// Deref unwraps a shared wrapper to its current inner value. Non-shared
// values pass through unchanged.
func Deref(v Value) Value {
	if s, ok := v.(*Shared); ok {
		return s.Get()
	}
	return v
}
