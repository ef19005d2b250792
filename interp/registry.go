package interp

import (
	"sync"

	"github.com/pyanalyze/pyanalyze/ast"
	"github.com/pyanalyze/pyanalyze/scope"
	"github.com/pyanalyze/pyanalyze/value"
)

// DefRegistry maps the opaque value.DefID a Function/Class value carries
// back to the concrete AST node that defines it. value stays independent of
// ast (avoiding an import cycle, since ast doesn't know about value) by
// deferring this lookup to whichever package actually owns both — here,
// interp.
type DefRegistry struct {
	mu      sync.RWMutex
	nextOff int
	funcs   map[value.DefID]*ast.FuncDef
	classes map[value.DefID]*ast.ClassDef
	lambdas map[value.DefID]*ast.Expr
}

func NewDefRegistry() *DefRegistry {
	return &DefRegistry{
		funcs:   map[value.DefID]*ast.FuncDef{},
		classes: map[value.DefID]*ast.ClassDef{},
		lambdas: map[value.DefID]*ast.Expr{},
	}
}

// RegisterLambda assigns a fresh DefID to a lambda expression within module.
// Lambdas are registered separately from RegisterFunc since their body is a
// single expression, not a statement list.
func (r *DefRegistry) RegisterLambda(module string, e *ast.Expr) value.DefID {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextOff++
	id := value.DefID{Module: module, Offset: r.nextOff}
	r.lambdas[id] = e
	return id
}

func (r *DefRegistry) Lambda(id value.DefID) (*ast.Expr, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.lambdas[id]
	return e, ok
}

// RegisterFunc assigns a fresh DefID to def within module and records it.
func (r *DefRegistry) RegisterFunc(module string, def *ast.FuncDef) value.DefID {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextOff++
	id := value.DefID{Module: module, Offset: r.nextOff}
	r.funcs[id] = def
	return id
}

// RegisterClass assigns a fresh DefID to def within module and records it.
func (r *DefRegistry) RegisterClass(module string, def *ast.ClassDef) value.DefID {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextOff++
	id := value.DefID{Module: module, Offset: r.nextOff}
	r.classes[id] = def
	return id
}

func (r *DefRegistry) Func(id value.DefID) (*ast.FuncDef, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.funcs[id]
	return d, ok
}

func (r *DefRegistry) Class(id value.DefID) (*ast.ClassDef, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.classes[id]
	return d, ok
}

// ScopeRegistry maps a value.ScopeID (the closure identity a Function value
// carries) back to the concrete *scope.Scope it closed over.
type ScopeRegistry struct {
	mu    sync.RWMutex
	byID  map[value.ScopeID]*scope.Scope
}

func NewScopeRegistry() *ScopeRegistry {
	return &ScopeRegistry{byID: map[value.ScopeID]*scope.Scope{}}
}

// Register records s under its own scope.Scope.ID (reused verbatim as the
// value.ScopeID — both are just uint64 identity tokens).
func (r *ScopeRegistry) Register(s *scope.Scope) value.ScopeID {
	id := value.ScopeID(s.ID)
	r.mu.Lock()
	r.byID[id] = s
	r.mu.Unlock()
	return id
}

func (r *ScopeRegistry) Get(id value.ScopeID) (*scope.Scope, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.byID[id]
	return s, ok
}
