package evaluator

import (
	"sort"
	"strings"
	"sync"

	"github.com/quoll-lang/quoll/internal/ast"
)

type Visibility int

const (
	Public Visibility = iota
	Private
)

func (v Visibility) String() string {
	if v == Private {
		return "private"
	}
	return "public"
}

type Origin int

const (
	NativeOrigin Origin = iota
	ScriptOrigin
)

func (o Origin) String() string {
	if o == ScriptOrigin {
		return "script"
	}
	return "native"
}

// Param is one declared parameter of a registered function. Type AnyType
// is the wildcard descriptor.
type Param struct {
	Name    string
	Type    ValueType
	Mutable bool
}

// Signature is the identity key of a registered function: name plus the
// ordered parameter descriptors. Signatures are unique per key and
// re-registering a key overwrites it.
type Signature struct {
	Name   string
	Params []Param
}

// Key encodes the signature identity. Two signatures with the same key
// are the same registration slot.
func (s Signature) Key() string {
	descs := make([]string, len(s.Params))
	for i, p := range s.Params {
		descs[i] = string(p.Type)
	}
	return s.Name + "|" + strings.Join(descs, ",")
}

func (s Signature) String() string {
	tags := make([]ValueType, len(s.Params))
	for i, p := range s.Params {
		tags[i] = p.Type
	}
	return formatSignature(s.Name, tags)
}

// NativeFunc is the Go shape of a host-registered callable.
type NativeFunc func(ctx *CallContext, args []Value) (Value, error)

// Function is a registered callable, native or script-defined.
type Function struct {
	Sig        Signature
	Visibility Visibility
	Origin     Origin
	Fallible   bool
	Return     ValueType // "" when unknown

	Native NativeFunc

	// Script functions carry their body and, for closures created from
	// anonymous literals, the captured defining environment.
	Parameters []*ast.Parameter
	Body       *ast.BlockStatement
	Env        *Environment
}

// Namespace is one node of the registry tree. The root is the global
// namespace, the only one reachable by function pointers.
type Namespace struct {
	name      string
	functions map[string]*Function // signature key -> function
	children  map[string]*Namespace
}

func newNamespace(name string) *Namespace {
	return &Namespace{
		name:      name,
		functions: make(map[string]*Function),
		children:  make(map[string]*Namespace),
	}
}

func (ns *Namespace) clone() *Namespace {
	c := newNamespace(ns.name)
	for k, f := range ns.functions {
		c.functions[k] = f
	}
	for k, child := range ns.children {
		c.children[k] = child.clone()
	}
	return c
}

// Registry stores every callable the engine can dispatch to, organized
// as a namespace tree, plus custom type metadata and indexer tables.
// Registered *Function values are immutable; the registry itself is
// guarded so script-level definitions can insert while evaluation reads.
type Registry struct {
	mu           sync.RWMutex
	version      uint64
	root         *Namespace
	types        map[string]*CustomType
	indexGetters map[string]*Function
	indexSetters map[string]*Function
}

func NewRegistry() *Registry {
	return &Registry{
		root:         newNamespace(""),
		types:        make(map[string]*CustomType),
		indexGetters: make(map[string]*Function),
		indexSetters: make(map[string]*Function),
	}
}

// Version increases on every mutation; resolution caches key on it.
func (r *Registry) Version() uint64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.version
}

// Register inserts fn under the namespace path (nil or empty for the
// global namespace), overwriting any function with an identical key.
func (r *Registry) Register(path []string, fn *Function) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ns := r.root
	for _, part := range path {
		child, ok := ns.children[part]
		if !ok {
			child = newNamespace(part)
			ns.children[part] = child
		}
		ns = child
	}
	ns.functions[fn.Sig.Key()] = fn
	r.version++
}

// RegisterType records a custom type with its canonical and display
// names plus its value-copy function.
func (r *Registry) RegisterType(t *CustomType) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.types[t.Name] = t
	r.version++
}

// TypeInfo looks up a registered custom type by canonical name.
func (r *Registry) TypeInfo(name string) (*CustomType, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.types[name]
	return t, ok
}

func indexGetterKey(owner, index ValueType) string {
	return string(owner) + "|" + string(index)
}

func indexSetterKey(owner, index, value ValueType) string {
	return string(owner) + "|" + string(index) + "|" + string(value)
}

// builtinIndexOwner reports whether the owner tag has built-in indexing
// that bypasses the registry for performance. Attempting to register an
// indexer for these tags fails immediately, unconditionally.
func builtinIndexOwner(owner ValueType) bool {
	return owner == ArrayType || owner == MapType || owner == StringType
}

// RegisterIndexGetter registers a getter keyed by (owner, index).
func (r *Registry) RegisterIndexGetter(owner, index ValueType, fn NativeFunc) *Error {
	if builtinIndexOwner(owner) {
		return newError(ErrIndexerConflict,
			"cannot register indexer for built-in type %s", owner)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.indexGetters[indexGetterKey(owner, index)] = &Function{
		Sig: Signature{Name: "index$get", Params: []Param{
			{Name: "owner", Type: owner}, {Name: "index", Type: index},
		}},
		Origin: NativeOrigin,
		Native: fn,
	}
	r.version++
	return nil
}

// RegisterIndexSetter registers a setter keyed by (owner, index, value).
func (r *Registry) RegisterIndexSetter(owner, index, value ValueType, fn NativeFunc) *Error {
	if builtinIndexOwner(owner) {
		return newError(ErrIndexerConflict,
			"cannot register indexer for built-in type %s", owner)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.indexSetters[indexSetterKey(owner, index, value)] = &Function{
		Sig: Signature{Name: "index$set", Params: []Param{
			{Name: "owner", Type: owner}, {Name: "index", Type: index},
			{Name: "value", Type: value},
		}},
		Origin: NativeOrigin,
		Native: fn,
	}
	r.version++
	return nil
}

func (r *Registry) lookupIndexGetter(owner, index ValueType) (*Function, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if fn, ok := r.indexGetters[indexGetterKey(owner, index)]; ok {
		return fn, true
	}
	fn, ok := r.indexGetters[indexGetterKey(owner, AnyType)]
	return fn, ok
}

func (r *Registry) lookupIndexSetter(owner, index, value ValueType) (*Function, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if fn, ok := r.indexSetters[indexSetterKey(owner, index, value)]; ok {
		return fn, true
	}
	if fn, ok := r.indexSetters[indexSetterKey(owner, index, AnyType)]; ok {
		return fn, true
	}
	fn, ok := r.indexSetters[indexSetterKey(owner, AnyType, AnyType)]
	return fn, ok
}

// Clone produces a copy-on-write snapshot: namespace tables are copied,
// registered functions are shared. Hosts use it to isolate evaluations
// from later registry mutation.
func (r *Registry) Clone() *Registry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c := NewRegistry()
	c.root = r.root.clone()
	for k, t := range r.types {
		c.types[k] = t
	}
	for k, f := range r.indexGetters {
		c.indexGetters[k] = f
	}
	for k, f := range r.indexSetters {
		c.indexSetters[k] = f
	}
	return c
}

// Walk visits every registered function depth-first in deterministic
// (sorted) order, passing the namespace path of each.
func (r *Registry) Walk(visit func(path []string, fn *Function)) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	walkNamespace(r.root, nil, visit)
}

func walkNamespace(ns *Namespace, path []string, visit func([]string, *Function)) {
	keys := make([]string, 0, len(ns.functions))
	for k := range ns.functions {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		visit(path, ns.functions[k])
	}
	children := make([]string, 0, len(ns.children))
	for name := range ns.children {
		children = append(children, name)
	}
	sort.Strings(children)
	for _, name := range children {
		walkNamespace(ns.children[name], append(path, name), visit)
	}
}

func (r *Registry) namespace(path []string) (*Namespace, bool) {
	ns := r.root
	for _, part := range path {
		child, ok := ns.children[part]
		if !ok {
			return nil, false
		}
		ns = child
	}
	return ns, true
}
