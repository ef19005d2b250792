// Package query implements the read-only Query API (spec §4.I) that sits in
// front of a completed analysis: type_of, members_of, signatures_of,
// definition_of and references_of, plus diagnostics_of. It is grounded on the
// teacher's tools/build_langserver/lsp package, which answers the same shape
// of question (what's at this cursor, where's it defined, what references
// it) over a BUILD-file AST; here the same WalkAST/WithinRange idioms answer
// them over a Python AST instead. Positions at the API boundary are
// sourcegraph/go-lsp types, matching the teacher's own LSP wire shapes, even
// though pyanalyze exposes them through a CLI rather than an LSP transport
// (spec §4.I Non-goals).
package query

import (
	"sort"

	"github.com/sourcegraph/go-lsp"

	"github.com/pyanalyze/pyanalyze/ast"
	"github.com/pyanalyze/pyanalyze/interp"
	"github.com/pyanalyze/pyanalyze/scope"
	"github.com/pyanalyze/pyanalyze/token"
	"github.com/pyanalyze/pyanalyze/value"
)

// Snapshot is everything a query needs about one analyzed module: its
// parsed AST, its source file's line table (for lsp.Position conversion),
// its module-level scope, and the interpreter instance that produced
// NodeValues for it. A session hands out a fresh Snapshot per module after
// each re-analysis; Snapshot itself holds no mutable state of its own.
type Snapshot struct {
	Module string
	File   *token.File
	AST    *ast.File
	Root   *scope.Scope
	Interp *interp.Interpreter
}

func toPos(f *token.File, p lsp.Position) token.Position {
	return f.Offset(p.Line, p.Character)
}

func toLSPRange(f *token.File, start, end token.Position) lsp.Range {
	s, e := f.Pos(start), f.Pos(end)
	return lsp.Range{
		Start: lsp.Position{Line: s.Line - 1, Character: s.Column - 1},
		End:   lsp.Position{Line: e.Line - 1, Character: e.Column - 1},
	}
}

// TypeOf returns the value set recorded for the innermost expression whose
// span contains pos (spec §4.I "type_of(position) -> value set"). Innermost
// is chosen by smallest span width, matching the way a cursor nested inside
// `a.b.c` should resolve to `c`'s type rather than the whole attribute chain.
func (snap *Snapshot) TypeOf(pos lsp.Position) (value.Set, bool) {
	target := toPos(snap.File, pos)
	best := -1
	var bestWidth int
	for i, nv := range snap.Interp.NodeValues {
		if int(target) < nv.Start || int(target) > nv.End {
			continue
		}
		width := nv.End - nv.Start
		if best == -1 || width < bestWidth {
			best, bestWidth = i, width
		}
	}
	if best == -1 {
		return value.Set{}, false
	}
	return snap.Interp.NodeValues[best].Value, true
}

// MembersOf returns the union of attribute names visible on every value in
// s, resolved the way Property would resolve them (spec §4.I "members_of").
func MembersOf(s value.Set) []string {
	seen := map[string]bool{}
	for _, v := range s.Values() {
		for _, name := range memberNames(v) {
			seen[name] = true
		}
	}
	out := make([]string, 0, len(seen))
	for name := range seen {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

func memberNames(v value.Value) []string {
	switch t := v.(type) {
	case value.Module:
		names := make([]string, 0, len(t.Members))
		for name := range t.Members {
			names = append(names, name)
		}
		return names
	case *value.Class:
		names := make([]string, 0, len(t.Members))
		for _, k := range t.MRO {
			if k == nil {
				continue
			}
			for name := range k.Members {
				names = append(names, name)
			}
		}
		return names
	case *value.Instance:
		names := make([]string, 0, len(t.Attrs))
		for name := range t.Attrs {
			names = append(names, name)
		}
		if t.Class != nil {
			names = append(names, memberNames(t.Class)...)
		}
		return names
	default:
		return nil
	}
}

// Signature describes one callable member surfaced by SignaturesOf.
type Signature struct {
	Name     string
	Params   []string
	Returns  *ast.Expr
	IsAsync  bool
}

// SignaturesOf returns the parameter lists of every Function value in s
// (spec §4.I "signatures_of"), resolving each Function's DefID back to its
// AST node through the interpreter's DefRegistry.
func (snap *Snapshot) SignaturesOf(s value.Set) []Signature {
	var out []Signature
	for _, v := range s.Values() {
		fn, ok := v.(value.Function)
		if !ok {
			if bm, ok := v.(value.BoundMethod); ok {
				fn = bm.Func
			} else {
				continue
			}
		}
		def, ok := snap.Interp.Defs.Func(fn.Def)
		if !ok {
			out = append(out, Signature{Name: fn.Name})
			continue
		}
		params := make([]string, len(def.Params))
		for i, p := range def.Params {
			params[i] = p.Name
		}
		out = append(out, Signature{Name: def.Name, Params: params, Returns: def.Returns, IsAsync: def.IsAsync})
	}
	return out
}

// DefinitionOf finds the name expression under pos and returns every
// location recorded as a definition site for that binding (spec §4.I
// "definition_of"), walking outward from the innermost scope containing pos
// the way Lookup does for a live read.
func (snap *Snapshot) DefinitionOf(pos lsp.Position) []lsp.Location {
	target := toPos(snap.File, pos)
	name, scopeAt := snap.nameAt(target)
	if name == "" {
		return nil
	}
	vi, _, ok := scopeAt.Lookup(name)
	if !ok {
		return nil
	}
	return snap.sitesToLocations(vi.DefSites)
}

// ReferencesOf finds the name expression under pos and returns every
// location recorded as a read of that binding (spec §4.I "references_of"),
// optionally including the definition sites alongside the read sites.
func (snap *Snapshot) ReferencesOf(pos lsp.Position, includeDeclaration bool) []lsp.Location {
	target := toPos(snap.File, pos)
	name, scopeAt := snap.nameAt(target)
	if name == "" {
		return nil
	}
	vi, _, ok := scopeAt.Lookup(name)
	if !ok {
		return nil
	}
	sites := append([]int(nil), vi.RefSites...)
	if includeDeclaration {
		sites = append(sites, vi.DefSites...)
	}
	return snap.sitesToLocations(sites)
}

// BindingAt returns the name and lexical scope of the EName expression
// under pos, if any — the same binding-identity step DefinitionOf and
// ReferencesOf resolve before consulting VariableInfo, exposed for a caller
// (the session package's cross-module reference search) that needs to test
// whether a position names a module-level binding without re-walking the
// AST itself.
func (snap *Snapshot) BindingAt(pos lsp.Position) (string, *scope.Scope) {
	return snap.nameAt(toPos(snap.File, pos))
}

// nameAt walks the AST to find the EName expression (if any) covering pos,
// and the lexical scope that was current for that position — found by
// descending WalkStmts into the smallest enclosing def/class body, mirroring
// the teacher's references.go checking function-def spans before falling
// back to the module scope.
func (snap *Snapshot) nameAt(pos token.Position) (string, *scope.Scope) {
	name := ""
	scopeAt := snap.Root
	ast.WalkExprs(snap.AST.Statements, func(e *ast.Expr) bool {
		if !ast.WithinRange(pos, e.Pos, e.End) {
			return false
		}
		if e.Kind == ast.EName {
			name = e.Name
		}
		return true
	})
	if name == "" {
		return "", nil
	}
	scopeAt = snap.enclosingScope(pos)
	return name, scopeAt
}

// enclosingScope finds the innermost child scope whose defining def/class
// statement spans pos, falling back to the module root. Child scopes don't
// carry their own span, so this walks the AST alongside scope.Children in
// lockstep, matching each FuncDef/ClassDef statement (in traversal order) to
// the correspondingly-ordered child scope the interpreter created for it.
func (snap *Snapshot) enclosingScope(pos token.Position) *scope.Scope {
	best := snap.Root
	var walk func(stmts []*ast.Stmt, s *scope.Scope)
	walk = func(stmts []*ast.Stmt, s *scope.Scope) {
		childIdx := 0
		for _, stmt := range stmts {
			if stmt.Kind != ast.SFuncDef && stmt.Kind != ast.SClassDef {
				continue
			}
			if childIdx >= len(s.Children) {
				break
			}
			child := s.Children[childIdx]
			childIdx++
			if !ast.WithinRange(pos, stmt.Pos, stmt.End) {
				continue
			}
			best = child
			if stmt.FuncDef != nil {
				walk(stmt.FuncDef.Body, child)
			} else if stmt.ClassDef != nil {
				walk(stmt.ClassDef.Body, child)
			}
		}
	}
	walk(snap.AST.Statements, snap.Root)
	return best
}

func (snap *Snapshot) sitesToLocations(sites []int) []lsp.Location {
	out := make([]lsp.Location, 0, len(sites))
	for _, site := range sites {
		p := token.Position(site)
		out = append(out, lsp.Location{
			URI:   lsp.DocumentURI("file://" + snap.File.Name),
			Range: toLSPRange(snap.File, p, p),
		})
	}
	return out
}
