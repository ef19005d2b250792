// Package resolve implements the import resolver (spec §4.E): resolving a
// dotted module name to a Module Entry by walking search-path roots, honoring
// sys.modules-style overrides and PEP 328 relative imports, generalized from
// the teacher's BUILD-file/subinclude package resolution in
// src/core/subincludes.go and src/fs/walk.go to Python module discovery.
package resolve

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	logging "gopkg.in/op/go-logging.v1"

	"github.com/pyanalyze/pyanalyze/cmap"
	"github.com/pyanalyze/pyanalyze/scope"
)

var log = logging.MustGetLogger("resolve")

// Entry is the analysis-level handle for a single Python source file or
// package (spec §3 "Module Entry"). Full lifecycle management (version
// bumps, dependent invalidation) is owned by the session package; Entry here
// is the resolver's view of what was found.
type Entry struct {
	DottedName  string
	Path        string // "" for a compiled-module summary with no backing source
	IsPackage   bool   // true when resolved via a package __init__
	IsCompiled  bool   // resolved to a stub/compiled-module summary, not source
	Scope       *scope.Scope
	SourceVersion int
}

// Resolver resolves dotted module names against a search-path list, a set of
// standard-library roots, and an explicit override map standing in for
// Python's sys.modules (spec §4.E point 4).
type Resolver struct {
	SearchPaths []string
	StdlibRoots []string

	// overrides holds explicit non-module values injected during prior
	// analysis (e.g. `sys.modules['A.B.C'] = fake_module`); checked before
	// any filesystem search. Sharded so concurrent queue workers resolving
	// imports from different modules don't contend on one lock.
	overrides *cmap.Map[string, *Entry]

	// cache memoizes resolved entries by dotted name so repeated imports of
	// the same module across the codebase don't re-walk the filesystem.
	cache *cmap.Map[string, *Entry]
}

// New creates a Resolver over the given search paths and standard-library
// roots, searched in that order after the importing module's own package.
func New(searchPaths, stdlibRoots []string) *Resolver {
	return &Resolver{
		SearchPaths: searchPaths,
		StdlibRoots: stdlibRoots,
		overrides:   cmap.New[string, *Entry](8, cmap.StringHasher),
		cache:       cmap.New[string, *Entry](8, cmap.StringHasher),
	}
}

// SetOverride installs a sys.modules-style override: future resolutions of
// dotted return entry directly without filesystem search.
func (r *Resolver) SetOverride(dotted string, entry *Entry) {
	r.overrides.Set(dotted, entry)
}

// Resolve implements spec §4.E's algorithm for `import A.B.C`: search order is
// the importing module's own package directory (relative-import support),
// then configured search paths, then stdlib roots; for each candidate root,
// `A/__init__.py`, then `A.py`, then a compiled-module summary named `A` is
// tried, first hit wins; then the walk recurses into `B`, then `C`.
func (r *Resolver) Resolve(dotted string, importingPackageDir string) (*Entry, error) {
	if e, ok := r.overrides.Get(dotted); ok {
		return e, nil
	}
	if e, ok := r.cache.Get(dotted); ok {
		return e, nil
	}

	roots := r.candidateRoots(importingPackageDir)
	parts := strings.Split(dotted, ".")
	entry, err := r.resolveParts(roots, parts)
	if err != nil {
		return nil, err
	}
	r.cache.Set(dotted, entry)
	return entry, nil
}

func (r *Resolver) candidateRoots(importingPackageDir string) []string {
	var roots []string
	if importingPackageDir != "" {
		roots = append(roots, importingPackageDir)
	}
	roots = append(roots, r.SearchPaths...)
	roots = append(roots, r.StdlibRoots...)
	return roots
}

// resolveParts walks A, then B, then C against each candidate root in turn,
// descending into the directory that resolved the previous segment.
func (r *Resolver) resolveParts(roots []string, parts []string) (*Entry, error) {
	var lastErr error
	for _, root := range roots {
		entry, dir, err := resolveSegment(root, parts[0])
		if err != nil {
			lastErr = err
			continue
		}
		dotted := parts[0]
		for _, seg := range parts[1:] {
			next, nextDir, err := resolveSegment(dir, seg)
			if err != nil {
				return nil, fmt.Errorf("resolving %q: %w", dotted+"."+seg, err)
			}
			entry, dir = next, nextDir
			dotted += "." + seg
		}
		entry.DottedName = strings.Join(parts, ".")
		log.Debugf("resolved %s under %s", entry.DottedName, root)
		return entry, nil
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("module %q not found", strings.Join(parts, "."))
	}
	return nil, lastErr
}

// resolveSegment tries A/__init__.py, then A.py, then a compiled-module
// summary named A, first hit wins (spec §4.E point 2). It returns the
// resolved entry and, for packages, the directory to recurse into for the
// next dotted segment.
func resolveSegment(root, name string) (*Entry, string, error) {
	pkgDir := filepath.Join(root, name)
	initFile := filepath.Join(pkgDir, "__init__.py")
	if fileExists(initFile) {
		return &Entry{Path: initFile, IsPackage: true}, pkgDir, nil
	}
	moduleFile := filepath.Join(root, name+".py")
	if fileExists(moduleFile) {
		return &Entry{Path: moduleFile}, pkgDir, nil
	}
	stubFile := filepath.Join(root, name+".pyi")
	if fileExists(stubFile) {
		return &Entry{Path: stubFile, IsCompiled: true}, pkgDir, nil
	}
	if dirExists(pkgDir) {
		// PEP 420 namespace package: no __init__.py, but submodules may
		// still live under it. godirwalk-backed discovery (walk.go) confirms
		// there's at least one .py file worth resolving into before
		// treating this as a hit.
		found := false
		_ = walk(pkgDir, func(entryName string, isDir bool) error {
			if !isDir && strings.HasSuffix(entryName, ".py") {
				found = true
			}
			return nil
		})
		if found {
			return &Entry{Path: "", IsPackage: true}, pkgDir, nil
		}
	}
	return nil, "", fmt.Errorf("no candidate for %q under %s", name, root)
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
