// Package scope implements the lexical scope tree: module, class, function,
// lambda, comprehension, and isinstance-narrowed sub-scopes, with name
// resolution (local -> enclosing -> module -> builtin), name mangling, and
// isinstance narrowing. It mirrors the teacher's scope struct in
// interpreter.go, generalized from a single flat BUILD-file scope to the
// full Python lexical-nesting rule set.
package scope

import (
	"strings"
	"sync"

	"github.com/pyanalyze/pyanalyze/stub"
	"github.com/pyanalyze/pyanalyze/value"
)

// Kind tags which lexical construct a Scope represents.
type Kind int

const (
	Module Kind = iota
	Class
	Function
	Lambda
	Comprehension
	Narrowed
)

func (k Kind) String() string {
	switch k {
	case Module:
		return "module"
	case Class:
		return "class"
	case Function:
		return "function"
	case Lambda:
		return "lambda"
	case Comprehension:
		return "comprehension"
	case Narrowed:
		return "narrowed"
	}
	return "scope"
}

// VariableInfo is per-name, per-scope state: every definition/reference site
// (identified by source offset, since scope doesn't depend on ast) and the
// accumulated value set (spec §3 "Variable Info"). For call-context
// sensitive function parameters, ByContext holds the per-context value set
// instead of (or in addition to) Value.
type VariableInfo struct {
	DefSites  []int
	RefSites  []int
	Value     value.Set
	ByContext map[uint64]value.Set
	IsGlobal  bool // forced into module scope by a `global` statement
	IsNonlocal bool // forced into nearest enclosing function scope
}

// A Scope is one node of the lexical tree.
type Scope struct {
	mu sync.RWMutex

	Parent    *Scope
	Kind      Kind
	ClassName string // set only for Kind == Class, used for name mangling
	Children  []*Scope
	locals    map[string]*VariableInfo

	// ID uniquely identifies this scope within a Session for Function
	// closures (value.ScopeID) and queue unit keys.
	ID uint64
}

var idCounter struct {
	mu sync.Mutex
	n  uint64
}

func nextID() uint64 {
	idCounter.mu.Lock()
	defer idCounter.mu.Unlock()
	idCounter.n++
	return idCounter.n
}

// New creates a root (module) scope.
func New() *Scope {
	return &Scope{Kind: Module, locals: map[string]*VariableInfo{}, ID: nextID()}
}

// NewChild creates a child scope of the given kind, recording it on the
// parent's Children list (spec §3 "Scope": "ordered list of child scopes").
func (s *Scope) NewChild(kind Kind, className string) *Scope {
	child := &Scope{Parent: s, Kind: kind, ClassName: className, locals: map[string]*VariableInfo{}, ID: nextID()}
	s.mu.Lock()
	s.Children = append(s.Children, child)
	s.mu.Unlock()
	return child
}

// ModuleScope walks up to the nearest module-kind ancestor (or self).
func (s *Scope) ModuleScope() *Scope {
	for cur := s; cur != nil; cur = cur.Parent {
		if cur.Kind == Module {
			return cur
		}
	}
	return s
}

// EnclosingFunctionScope walks up to the nearest function/lambda ancestor,
// skipping class scopes per Python's "class scopes aren't part of the
// closure chain" rule.
func (s *Scope) EnclosingFunctionScope() *Scope {
	for cur := s.Parent; cur != nil; cur = cur.Parent {
		if cur.Kind == Function || cur.Kind == Lambda {
			return cur
		}
	}
	return nil
}

func (s *Scope) getLocal(name string) (*VariableInfo, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	vi, ok := s.locals[name]
	return vi, ok
}

func (s *Scope) ensureLocal(name string) *VariableInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	vi, ok := s.locals[name]
	if !ok {
		vi = &VariableInfo{}
		s.locals[name] = vi
	}
	return vi
}

// MangleName applies Python's class-private name mangling: an identifier
// beginning with exactly two leading underscores and not ending with two
// trailing underscores, referenced inside a class scope, resolves as
// "_<ClassName><ident>" (spec §3 "Scope" invariant, §9 "Name mangling" —
// applied once, at parse/construction time, not as a lookup-time rewrite).
func MangleName(name string, enclosingClass string) string {
	if enclosingClass == "" {
		return name
	}
	if !strings.HasPrefix(name, "__") || strings.HasSuffix(name, "__") {
		return name
	}
	return "_" + strings.TrimLeft(enclosingClass, "_") + name
}

// nearestEnclosingClassName finds the class name to mangle against: the
// innermost class scope enclosing this scope (this scope included), so a
// class body, its method bodies, and functions nested in those methods all
// mangle against that class.
func (s *Scope) nearestEnclosingClassName() string {
	for cur := s; cur != nil; cur = cur.Parent {
		if cur.Kind == Class {
			return cur.ClassName
		}
	}
	return ""
}

// Locals returns a snapshot of this scope's own name -> VariableInfo table,
// excluding ancestors (spec §3 "Scope": "map of bound names to VariableInfo"),
// for callers that need to enumerate bindings directly (e.g. references_of).
func (s *Scope) Locals() map[string]*VariableInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]*VariableInfo, len(s.locals))
	for k, v := range s.locals {
		out[k] = v
	}
	return out
}

// Define records a write to name at this scope, applying name mangling if
// this scope is nested in a class body.
func (s *Scope) Define(name string, defSite int, v value.Set, budgets value.Budgets) *VariableInfo {
	name = MangleName(name, s.nearestEnclosingClassName())
	vi := s.ensureLocal(name)
	s.mu.Lock()
	vi.DefSites = append(vi.DefSites, defSite)
	vi.Value = value.Join(vi.Value, v, budgets.Assignment)
	s.mu.Unlock()
	return vi
}

// DefineContextual records a call-context-sensitive write (a function
// parameter binding), keyed by the call context's token.
func (s *Scope) DefineContextual(name string, ctxToken uint64, v value.Set, budgets value.Budgets) {
	name = MangleName(name, s.nearestEnclosingClassName())
	vi := s.ensureLocal(name)
	s.mu.Lock()
	defer s.mu.Unlock()
	if vi.ByContext == nil {
		vi.ByContext = map[uint64]value.Set{}
	}
	vi.ByContext[ctxToken] = value.Join(vi.ByContext[ctxToken], v, budgets.Assignment)
}

// RecordRef records a read of vi at site (a byte offset into its source
// file), feeding the references_of query (spec §4.I) without entangling
// scope with position/query concerns beyond this one slice.
func (vi *VariableInfo) RecordRef(site int) {
	vi.RefSites = append(vi.RefSites, site)
}

// Builtins is the root scope representing Python's builtin namespace,
// consulted as the final fallback in Lookup. It is seeded once at package
// init time from stub.NewTable() (spec §4.H) rather than per-Session, since
// the curated builtin set doesn't vary across sessions the way resolver
// search paths or stub caches do.
var Builtins = newBuiltinsScope()

func newBuiltinsScope() *Scope {
	s := New()
	budgets := value.DefaultBudgets()
	for name, fn := range stub.NewTable() {
		s.Define(name, 0, value.NewSet(fn), budgets)
	}
	return s
}

// Lookup resolves name per spec §4.D: local -> enclosing function scopes ->
// module scope -> builtin scope. A `global`/`nonlocal` declaration recorded
// on this scope's VariableInfo (via ForceGlobal/ForceNonlocal) redirects the
// search to start at the module or nearest enclosing function scope
// instead.
func (s *Scope) Lookup(name string) (*VariableInfo, *Scope, bool) {
	mangled := MangleName(name, s.nearestEnclosingClassName())
	for cur := s; cur != nil; cur = cur.searchNext() {
		if vi, ok := cur.getLocal(mangled); ok {
			return vi, cur, true
		}
		if cur.Kind == Class {
			// Class scopes are skipped for enclosed functions' free-variable
			// lookup, but direct lookups from the class body itself still see
			// their own locals (handled above) before moving on.
		}
	}
	if vi, ok := Builtins.getLocal(name); ok {
		return vi, Builtins, true
	}
	return nil, nil, false
}

// searchNext implements the "skip class scopes for closures" rule: when
// walking up from inside a function nested in a class (a method), the class
// body's own namespace is not part of the closure chain.
func (s *Scope) searchNext() *Scope {
	if s.Parent == nil {
		return nil
	}
	if s.Kind == Function || s.Kind == Lambda {
		for cur := s.Parent; cur != nil; cur = cur.Parent {
			if cur.Kind != Class {
				return cur
			}
		}
		return nil
	}
	return s.Parent
}

// ForceGlobal implements `global X`: lookups/writes for name in this scope
// go straight to the module scope.
func (s *Scope) ForceGlobal(name string) {
	mod := s.ModuleScope()
	vi := mod.ensureLocal(name)
	vi.IsGlobal = true
	s.mu.Lock()
	s.locals[name] = vi
	s.mu.Unlock()
}

// ForceNonlocal implements `nonlocal X`: lookups/writes for name in this
// scope go to the nearest enclosing function scope.
func (s *Scope) ForceNonlocal(name string) bool {
	target := s.EnclosingFunctionScope()
	if target == nil {
		return false
	}
	vi := target.ensureLocal(name)
	vi.IsNonlocal = true
	s.mu.Lock()
	s.locals[name] = vi
	s.mu.Unlock()
	return true
}
