package session

import (
	"github.com/sourcegraph/go-lsp"

	"github.com/pyanalyze/pyanalyze/ast"
	"github.com/pyanalyze/pyanalyze/token"
)

// ReferencesOf answers spec §4.I's references_of for a module-level binding
// across the whole session, not just the one module the cursor sits in
// (spec §8 S7: references to mod1.f must surface its uses in mod2.py too).
// It starts from the same-module result query.Snapshot.ReferencesOf already
// computes correctly, then — only when the position names a module-level
// binding — walks every other analyzed module's AST for a qualified access
// (`alias.name`) through an alias that module bound via `import dotted`.
func (sess *Session) ReferencesOf(dotted string, pos lsp.Position, includeDeclaration bool) ([]lsp.Location, error) {
	snap, err := sess.Snapshot(dotted)
	if err != nil {
		return nil, err
	}
	locations := snap.ReferencesOf(pos, includeDeclaration)

	name, scopeAt := snap.BindingAt(pos)
	if name == "" || scopeAt == nil || scopeAt != snap.Root {
		// Only a module-level binding can be imported by name elsewhere;
		// a function-local or class-local binding stays local.
		return locations, nil
	}

	sess.mu.RLock()
	others := make([]*Entry, 0, len(sess.modules))
	for otherDotted, entry := range sess.modules {
		if otherDotted == dotted {
			continue
		}
		others = append(others, entry)
	}
	sess.mu.RUnlock()

	for _, entry := range others {
		locations = append(locations, qualifiedReferencesIn(entry, dotted, name)...)
	}
	return locations, nil
}

// qualifiedReferencesIn finds every `alias.name` attribute access in entry
// where alias is bound by entry's own `import targetDotted[ as alias]`
// statement(s).
func qualifiedReferencesIn(entry *Entry, targetDotted, name string) []lsp.Location {
	if entry.AST == nil {
		return nil
	}
	aliases := importAliasesFor(entry.AST, targetDotted)
	if len(aliases) == 0 {
		return nil
	}

	file := token.NewFile(entry.Path, entry.Source)
	var out []lsp.Location
	ast.WalkExprs(entry.AST.Statements, func(e *ast.Expr) bool {
		if e.Kind == ast.EAttribute && e.Attr == name &&
			e.Value != nil && e.Value.Kind == ast.EName && aliases[e.Value.Name] {
			out = append(out, lsp.Location{
				URI:   lsp.DocumentURI("file://" + file.Name),
				Range: qualifiedRange(file, e.Pos, e.End),
			})
		}
		return true
	})
	return out
}

// importAliasesFor collects the local names a module binds targetDotted
// under via plain `import targetDotted` / `import targetDotted as alias`
// statements (spec §4.E); `from targetDotted import ...` binds individual
// names rather than the module itself, so it isn't a qualified-access alias
// and is left to the same-module reference search.
func importAliasesFor(file *ast.File, targetDotted string) map[string]bool {
	aliases := map[string]bool{}
	ast.WalkStmts(file.Statements, func(s *ast.Stmt) bool {
		if s.Kind != ast.SImport {
			return true
		}
		for _, imp := range s.Imports {
			if imp.Name != targetDotted {
				continue
			}
			alias := imp.Name
			if imp.Alias != "" {
				alias = imp.Alias
			}
			aliases[alias] = true
		}
		return true
	})
	return aliases
}

func qualifiedRange(file *token.File, start, end token.Position) lsp.Range {
	s, e := file.Pos(start), file.Pos(end)
	return lsp.Range{
		Start: lsp.Position{Line: s.Line - 1, Character: s.Column - 1},
		End:   lsp.Position{Line: e.Line - 1, Character: e.Column - 1},
	}
}
