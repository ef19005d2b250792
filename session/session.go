// Package session implements the long-lived analysis session (spec §3
// "Session", §9 "there is no singleton"): it owns the import resolver, the
// stub/summary loader, the dependency queue, and the table of Module
// Entries that back every other package's work, generalized from the
// teacher's core.BuildState — a single mutable object threaded through a
// whole build/analysis run rather than package-level globals — to Python
// module analysis instead of BUILD-file parsing.
package session

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
	logging "gopkg.in/op/go-logging.v1"

	"github.com/pyanalyze/pyanalyze/ast"
	"github.com/pyanalyze/pyanalyze/interp"
	"github.com/pyanalyze/pyanalyze/query"
	"github.com/pyanalyze/pyanalyze/queue"
	"github.com/pyanalyze/pyanalyze/resolve"
	"github.com/pyanalyze/pyanalyze/scope"
	"github.com/pyanalyze/pyanalyze/stub"
	"github.com/pyanalyze/pyanalyze/token"
	"github.com/pyanalyze/pyanalyze/value"
)

var log = logging.MustGetLogger("session")

// Config governs a Session's resolver search path, Python version, and
// queue/stub sizing. Zero-value fields fall back to the same defaults their
// owning packages already apply.
type Config struct {
	SearchPaths []string
	StdlibRoots []string
	Version     token.Version
	Budgets     value.Budgets
	Queue       queue.Config
	Stub        stub.Config
}

// Entry is a Session's view of a single analyzed module (spec §3 "Module
// Entry"): its source version, parsed AST, top-level scope, interpreter
// diagnostics, and the set of modules depending on it for invalidation
// (spec §4.G "re-enqueue dependents whose inputs changed").
type Entry struct {
	DottedName string
	Path       string
	Version    int
	Source     []byte

	AST        *ast.File
	ParseDiags []token.Diagnostic
	Root       *scope.Scope
	Interp     *interp.Interpreter

	// Dependents lists the dotted names of modules that imported this one,
	// populated as those modules are themselves analyzed.
	Dependents map[string]bool
}

// Session is the non-singleton owner of one analysis run's state: an
// import resolver, a stub/summary loader, a dependency queue, and every
// Module Entry analyzed so far. Nothing here is package-level; a process
// embedding pyanalyze may hold many concurrent Sessions (e.g. one per
// open workspace), matching the teacher's one-BuildState-per-invocation
// model generalized to persist across edits rather than exit at build end.
type Session struct {
	ID uuid.UUID

	Resolver *resolve.Resolver
	Loader   *stub.Loader
	Queue    *queue.Queue
	Version  token.Version
	Budgets  value.Budgets
	Builtins value.Module

	queueCfg queue.Config

	mu      sync.RWMutex
	modules map[string]*Entry

	visitMu  sync.Mutex
	visiting map[string]bool
}

// New creates a Session with its own resolver, stub loader, and dependency
// queue — never shared with any other Session.
func New(cfg Config) *Session {
	if cfg.Version == (token.Version{}) {
		cfg.Version = token.V37
	}
	if cfg.Budgets == (value.Budgets{}) {
		cfg.Budgets = value.DefaultBudgets()
	}
	return &Session{
		ID:       uuid.New(),
		Resolver: resolve.New(cfg.SearchPaths, cfg.StdlibRoots),
		Loader:   stub.NewLoader(cfg.Stub),
		Queue:    queue.New(cfg.Queue, 0),
		Version:  cfg.Version,
		Budgets:  cfg.Budgets,
		Builtins: stub.NewTable().Module(),
		queueCfg: cfg.Queue,
		modules:  map[string]*Entry{},
		visiting: map[string]bool{},
	}
}

// Get returns the previously analyzed Entry for a dotted module name, if
// any.
func (sess *Session) Get(dotted string) (*Entry, bool) {
	sess.mu.RLock()
	defer sess.mu.RUnlock()
	e, ok := sess.modules[dotted]
	return e, ok
}

// Analyze parses dotted's source and (re-)interprets it to a fixed point
// together with every module its import graph reaches (spec §4.G "the
// Dependency Queue"): a discovery pass registers an Entry — AST parsed, not
// yet interpreted — for every as-yet-unseen module dotted's imports can
// reach, the already-recorded Dependents of dotted are pulled into the same
// batch, and one queue.Unit per batch member is drained together. Because
// every Unit in the batch is registered before any of them runs, a cyclic
// import (dotted imports something that imports dotted back) resolves
// against a placeholder Entry instead of recursing into Analyze, and the
// queue's own re-enqueue-on-change machinery — not ad hoc recursion over
// Dependents — is what propagates a changed dependency to its dependents and
// bounds re-entrant cycles via MaxModuleReanalyses/widening.
func (sess *Session) Analyze(dotted, path string, src []byte) (*Entry, error) {
	file, diags := ast.Parse(strings.NewReader(string(src)), path, sess.Version)

	sess.mu.Lock()
	prev, existed := sess.modules[dotted]
	entry := &Entry{
		DottedName: dotted,
		Path:       path,
		Source:     src,
		AST:        file,
		ParseDiags: diags,
		Dependents: map[string]bool{},
	}
	if existed {
		entry.Version = prev.Version
		entry.Dependents = prev.Dependents
	}
	sess.modules[dotted] = entry
	sess.mu.Unlock()

	existedBefore := map[string]bool{dotted: existed}
	batch := map[string]bool{dotted: true}
	sess.discoverImports(dotted, file, path, batch, map[string]bool{dotted: true}, existedBefore)
	sess.collectDependents(dotted, batch, map[string]bool{dotted: true})
	for name := range batch {
		if _, ok := existedBefore[name]; !ok {
			// Only reachable through a Dependents edge, meaning it was
			// analyzed in an earlier Analyze call.
			existedBefore[name] = true
		}
	}

	q := queue.New(sess.queueCfg, 0)
	sess.mu.Lock()
	sess.Queue = q
	sess.mu.Unlock()
	for name := range batch {
		q.Enqueue(sess.moduleUnit(name))
	}

	drained := make(chan struct{})
	go func() {
		for range q.Results {
		}
		close(drained)
	}()
	if err := q.Drain(context.Background()); err != nil {
		log.Warningf("draining analysis batch for %s: %s", dotted, err)
	}
	<-drained

	sess.mu.Lock()
	for name := range batch {
		if existedBefore[name] {
			if e, ok := sess.modules[name]; ok {
				e.Version++
			}
		}
	}
	result := sess.modules[dotted]
	sess.mu.Unlock()

	log.Debugf("analyzed %s (version %d, %d modules in batch)", dotted, result.Version, len(batch))
	return result, nil
}

// discoverImports walks dotted's (and transitively, its locally resolvable
// imports') import statements without interpreting anything, registering a
// parsed-but-not-yet-interpreted Entry for every module file this reaches
// for the first time and adding it to batch. visited bounds the walk
// against import cycles the same way a recursive interpreter would need to
// be bounded, except here the bound is on AST traversal rather than on the
// Go call stack doing the actual analysis.
func (sess *Session) discoverImports(dotted string, file *ast.File, path string, batch, visited, existedBefore map[string]bool) {
	pkgDir := filepath.Dir(path)
	for _, dep := range importedDottedNames(file) {
		if visited[dep] {
			continue
		}
		visited[dep] = true

		sess.mu.RLock()
		depEntry, known := sess.modules[dep]
		sess.mu.RUnlock()
		if known {
			batch[dep] = true
			existedBefore[dep] = true
			if depEntry.AST != nil {
				sess.discoverImports(dep, depEntry.AST, depEntry.Path, batch, visited, existedBefore)
			}
			continue
		}

		resolved, err := sess.Resolver.Resolve(dep, pkgDir)
		if err != nil {
			continue // unresolved: left to ResolveImport to diagnose at interpretation time
		}
		if resolved.IsCompiled || resolved.Path == "" {
			continue // stub/namespace package: no source AST to walk for further imports
		}
		depSrc, err := readFile(resolved.Path)
		if err != nil {
			continue
		}
		depFile, depDiags := ast.Parse(strings.NewReader(string(depSrc)), resolved.Path, sess.Version)

		sess.mu.Lock()
		sess.modules[dep] = &Entry{
			DottedName: dep,
			Path:       resolved.Path,
			Source:     depSrc,
			AST:        depFile,
			ParseDiags: depDiags,
			Dependents: map[string]bool{},
		}
		sess.mu.Unlock()

		batch[dep] = true
		existedBefore[dep] = false
		sess.discoverImports(dep, depFile, resolved.Path, batch, visited, existedBefore)
	}
}

// collectDependents pulls every already-analyzed module transitively
// depending on dotted into batch, so a changed module cascades to the
// modules that import it (spec §4.G "re-enqueue dependents").
func (sess *Session) collectDependents(dotted string, batch, visited map[string]bool) {
	sess.mu.RLock()
	entry, ok := sess.modules[dotted]
	sess.mu.RUnlock()
	if !ok {
		return
	}
	for dep := range entry.Dependents {
		if visited[dep] {
			continue
		}
		visited[dep] = true
		batch[dep] = true
		sess.collectDependents(dep, batch, visited)
	}
}

// importedDottedNames collects the dotted module names named by every
// import/import-from statement in file, in first-occurrence order.
func importedDottedNames(file *ast.File) []string {
	if file == nil {
		return nil
	}
	var names []string
	seen := map[string]bool{}
	add := func(name string) {
		if name != "" && !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}
	ast.WalkStmts(file.Statements, func(s *ast.Stmt) bool {
		switch s.Kind {
		case ast.SImport:
			for _, imp := range s.Imports {
				add(imp.Name)
			}
		case ast.SImportFrom:
			add(s.FromModule)
		}
		return true
	})
	return names
}

// moduleUnit builds the queue.Unit that (re-)interprets an already
// registered module Entry. Its Reads are the module-level bindings of
// every module dotted's source imports, so the queue re-enqueues it
// whenever one of those dependencies' own batch-unit writes change (spec
// §4.G), instead of dotted's own ResolveImport callback recursing into
// Analyze.
func (sess *Session) moduleUnit(dotted string) *queue.Unit {
	sess.mu.RLock()
	entry := sess.modules[dotted]
	sess.mu.RUnlock()

	run := func() map[queue.Binding]value.Set {
		ip := interp.New(sess.Budgets)
		ip.ResolveImport = sess.moduleResolverFor(dotted, entry.Path)
		root := ip.InterpretModule(dotted, entry.AST)

		sess.mu.Lock()
		entry.Root = root
		entry.Interp = ip
		sess.mu.Unlock()

		return map[queue.Binding]value.Set{moduleBinding(dotted): moduleFingerprint(sess.Budgets, root)}
	}

	u := queue.NewUnit("module:"+dotted, queue.KindModule, run)
	for _, dep := range importedDottedNames(entry.AST) {
		u.Reads[moduleBinding(dep)] = true
	}
	return u
}

// moduleBinding is the synthetic queue.Binding a module unit writes on
// completion and its importers read, keying the queue's dependent
// re-enqueue on "this module's exported names changed" rather than on any
// one (scope, name) pair inside it.
func moduleBinding(dotted string) queue.Binding {
	return queue.Binding{Name: "module:" + dotted}
}

// moduleFingerprint renders a module's top-level scope as a single value.Set
// the queue can diff against its previous run to decide whether importers
// need re-enqueuing — a deterministic (sorted) summary of each exported
// name's value types, not the values themselves.
func moduleFingerprint(budgets value.Budgets, root *scope.Scope) value.Set {
	if root == nil {
		return value.Set{}
	}
	locals := root.Locals()
	names := make([]string, 0, len(locals))
	for name := range locals {
		names = append(names, name)
	}
	sort.Strings(names)

	var out value.Set
	for _, name := range names {
		types := make([]string, 0, locals[name].Value.Len())
		for _, v := range locals[name].Value.Values() {
			types = append(types, v.Type())
		}
		sort.Strings(types)
		out = value.Join(out, value.NewSet(value.Primitive{TypeName: name + ":" + strings.Join(types, ",")}), budgets.CrossModule)
	}
	return out
}

// moduleResolverFor builds the per-module ResolveImport closure an
// Interpreter needs (spec §4.E/§4.F). It never recurses into Analyze: a
// dependency already known to this Session (including one only registered
// as a discovery-phase placeholder, not yet interpreted) is read directly
// off the module table, and a dependency this Session has never heard of
// (import resolved outside the statically-discovered batch, e.g. reached
// only through a branch discovery doesn't follow) is analyzed once as a
// leaf, guarded against re-entering itself by Session.visiting.
func (sess *Session) moduleResolverFor(importingDotted, importingPath string) func(string) (value.Module, error) {
	pkgDir := filepath.Dir(importingPath)
	return func(dotted string) (value.Module, error) {
		if dotted == "builtins" {
			return sess.Builtins, nil
		}
		if dotted == "functools" || dotted == "_functools" {
			return stub.FunctoolsModule(), nil
		}

		if existing, ok := sess.Get(dotted); ok {
			sess.recordDependent(dotted, importingDotted)
			return moduleFromScope(dotted, existing.Root), nil
		}

		resolved, err := sess.Resolver.Resolve(dotted, pkgDir)
		if err != nil {
			return value.Module{}, err
		}
		if resolved.IsCompiled {
			mod, err := sess.Loader.Load(resolved.Path, sess.Version)
			if err != nil {
				return value.Module{}, fmt.Errorf("loading stub for %s: %w", dotted, err)
			}
			mod.Name = dotted
			return mod, nil
		}
		if resolved.Path == "" {
			// Namespace package with no __init__.py: present as an empty
			// module rather than failing the import outright.
			return value.Module{Name: dotted, Members: map[string]value.Set{}}, nil
		}

		return sess.analyzeLeaf(dotted, resolved.Path, importingDotted)
	}
}

// recordDependent marks importingDotted as depending on dotted, if dotted
// has an Entry to record it against.
func (sess *Session) recordDependent(dotted, importingDotted string) {
	sess.mu.Lock()
	if e, ok := sess.modules[dotted]; ok {
		e.Dependents[importingDotted] = true
	}
	sess.mu.Unlock()
}

// analyzeLeaf analyzes a module resolved outside the current batch as a
// one-shot unit, rather than recursing through Analyze. sess.visiting
// tracks dotted names currently being analyzed this way; re-entering one
// (a circular import this leaf path, rather than the batch discovery pass,
// is resolving) short-circuits to an empty placeholder module instead of
// recursing forever (spec §1 "resolution is re-entrant across modules").
func (sess *Session) analyzeLeaf(dotted, path, importingDotted string) (value.Module, error) {
	sess.visitMu.Lock()
	if sess.visiting[dotted] {
		sess.visitMu.Unlock()
		log.Debugf("circular import resolving %s while it is already being analyzed; using empty placeholder", dotted)
		return value.Module{Name: dotted, Members: map[string]value.Set{}}, nil
	}
	sess.visiting[dotted] = true
	sess.visitMu.Unlock()
	defer func() {
		sess.visitMu.Lock()
		delete(sess.visiting, dotted)
		sess.visitMu.Unlock()
	}()

	if existing, ok := sess.Get(dotted); ok {
		sess.recordDependent(dotted, importingDotted)
		return moduleFromScope(dotted, existing.Root), nil
	}

	src, err := readFile(path)
	if err != nil {
		return value.Module{}, fmt.Errorf("reading %s: %w", path, err)
	}
	file, diags := ast.Parse(strings.NewReader(string(src)), path, sess.Version)

	entry := &Entry{
		DottedName: dotted,
		Path:       path,
		Source:     src,
		AST:        file,
		ParseDiags: diags,
		Dependents: map[string]bool{importingDotted: true},
	}
	sess.mu.Lock()
	sess.modules[dotted] = entry
	sess.mu.Unlock()

	ip := interp.New(sess.Budgets)
	ip.ResolveImport = sess.moduleResolverFor(dotted, path)
	root := ip.InterpretModule(dotted, file)

	sess.mu.Lock()
	entry.Root = root
	entry.Interp = ip
	sess.mu.Unlock()

	return moduleFromScope(dotted, root), nil
}

// Snapshot builds a query.Snapshot for the given already-analyzed module,
// the handoff point between this package and the read-only Query API
// (spec §4.I).
func (sess *Session) Snapshot(dotted string) (*query.Snapshot, error) {
	entry, ok := sess.Get(dotted)
	if !ok {
		return nil, fmt.Errorf("module %q has not been analyzed", dotted)
	}
	return &query.Snapshot{
		Module: entry.DottedName,
		File:   token.NewFile(entry.Path, entry.Source),
		AST:    entry.AST,
		Root:   entry.Root,
		Interp: entry.Interp,
	}, nil
}

// moduleFromScope renders a module's top-level scope as a value.Module
// member dictionary (spec §3 "Module" exposes its top-level scope"). root
// is nil for a module registered by discoverImports but not yet
// interpreted (e.g. a dependency resolved through a not-yet-drained cycle);
// such a module presents as having no members yet, the same placeholder the
// namespace-package-with-no-__init__.py case uses.
func moduleFromScope(dotted string, root *scope.Scope) value.Module {
	if root == nil {
		return value.Module{Name: dotted, Members: map[string]value.Set{}}
	}
	locals := root.Locals()
	members := make(map[string]value.Set, len(locals))
	for name, vi := range locals {
		members[name] = vi.Value
	}
	return value.Module{Name: dotted, Members: members}
}
