package session

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sourcegraph/go-lsp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pyanalyze/pyanalyze/value"
)

func writeFile(t *testing.T, path, contents string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
}

func TestAnalyzeResolvesImportAcrossModules(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "greeter.py"), "def hello():\n    return 1\n")
	mainPath := filepath.Join(root, "main.py")
	writeFile(t, mainPath, "import greeter\nx = greeter.hello()\n")

	sess := New(Config{SearchPaths: []string{root}})
	entry, err := sess.Analyze("main", mainPath, []byte("import greeter\nx = greeter.hello()\n"))
	require.NoError(t, err)
	assert.Empty(t, entry.Interp.Diagnostics)

	greeter, ok := sess.Get("greeter")
	require.True(t, ok)
	assert.Contains(t, greeter.Root.Locals(), "hello")
}

func TestAnalyzeReanalyzesDependentsOnDependencyChange(t *testing.T) {
	root := t.TempDir()
	libPath := filepath.Join(root, "lib.py")
	writeFile(t, libPath, "VALUE = 1\n")
	mainPath := filepath.Join(root, "main.py")
	mainSrc := "import lib\ny = lib.VALUE\n"
	writeFile(t, mainPath, mainSrc)

	sess := New(Config{SearchPaths: []string{root}})
	_, err := sess.Analyze("main", mainPath, []byte(mainSrc))
	require.NoError(t, err)

	lib, ok := sess.Get("lib")
	require.True(t, ok)
	assert.Equal(t, 0, lib.Version)

	_, err = sess.Analyze("lib", libPath, []byte("VALUE = 2\nOTHER = 3\n"))
	require.NoError(t, err)

	lib, ok = sess.Get("lib")
	require.True(t, ok)
	assert.Equal(t, 1, lib.Version)

	main, ok := sess.Get("main")
	require.True(t, ok)
	assert.Equal(t, 1, main.Version)
}

// TestAnalyzeHandlesCircularImportsWithoutInfiniteRecursion is the textbook
// re-entrant-resolution case spec §1 calls out: a.py imports b.py, which
// imports a.py back. Neither module is known to the Session yet when the
// cycle is first walked, so resolving it must bottom out on a placeholder
// instead of recursing forever.
func TestAnalyzeHandlesCircularImportsWithoutInfiniteRecursion(t *testing.T) {
	root := t.TempDir()
	aPath := filepath.Join(root, "a.py")
	bPath := filepath.Join(root, "b.py")
	aSrc := "import b\ndef a_value():\n    return 1\n"
	bSrc := "import a\ndef b_value():\n    return 2\n"
	writeFile(t, aPath, aSrc)
	writeFile(t, bPath, bSrc)

	sess := New(Config{SearchPaths: []string{root}})
	done := make(chan struct{})
	var entry *Entry
	var err error
	go func() {
		entry, err = sess.Analyze("a", aPath, []byte(aSrc))
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Analyze did not return, likely recursing on the import cycle")
	}
	require.NoError(t, err)

	_, _, hasA := entry.Root.Lookup("a_value")
	assert.True(t, hasA)

	b, ok := sess.Get("b")
	require.True(t, ok)
	require.NotNil(t, b.Root)
	_, _, hasB := b.Root.Lookup("b_value")
	assert.True(t, hasB)
}

func TestUnresolvedImportReportsDiagnostic(t *testing.T) {
	root := t.TempDir()
	mainPath := filepath.Join(root, "main.py")
	src := "import nonexistent_module\n"

	sess := New(Config{SearchPaths: []string{root}})
	entry, err := sess.Analyze("main", mainPath, []byte(src))
	require.NoError(t, err)
	require.NotEmpty(t, entry.Interp.Diagnostics)
	assert.Equal(t, "unresolved-import", entry.Interp.Diagnostics[0].Code)
}

// TestFunctoolsPartialBindsArgumentPrefix is spec §8 scenario S6: calling a
// functools.partial over a 4-argument function with two bound arguments
// should still walk the wrapped function's body and produce the full
// 4-tuple of observed argument types.
func TestFunctoolsPartialBindsArgumentPrefix(t *testing.T) {
	root := t.TempDir()
	mainPath := filepath.Join(root, "main.py")
	src := "from _functools import partial\n" +
		"def fob(a, b, c, d):\n" +
		"    return a, b, c, d\n" +
		"p = partial(fob, 123, 3.14)\n" +
		"r = p('abc', [])\n"
	writeFile(t, mainPath, src)

	sess := New(Config{SearchPaths: []string{root}})
	entry, err := sess.Analyze("main", mainPath, []byte(src))
	require.NoError(t, err)
	assert.Empty(t, entry.Interp.Diagnostics)

	vi, _, ok := entry.Root.Lookup("r")
	require.True(t, ok)
	assert.Equal(t, 1, vi.Value.Len())
	seq, ok := vi.Value.Values()[0].(value.Sequence)
	require.True(t, ok)
	assert.Equal(t, 4, seq.KnownLength)
}

// TestPropertyDecoratorInvokesGetterOnAttributeAccess is spec §4.F's
// "property marker flips the attribute's descriptor behavior": reading
// `w.area` should run the decorated getter's body rather than exposing it
// as a bound method.
func TestPropertyDecoratorInvokesGetterOnAttributeAccess(t *testing.T) {
	root := t.TempDir()
	mainPath := filepath.Join(root, "main.py")
	src := "class Widget:\n" +
		"    @property\n" +
		"    def area(self):\n" +
		"        return 1\n" +
		"    @staticmethod\n" +
		"    def make():\n" +
		"        return 2\n" +
		"w = Widget()\n" +
		"a = w.area\n" +
		"m = Widget.make()\n"
	writeFile(t, mainPath, src)

	sess := New(Config{SearchPaths: []string{root}})
	entry, err := sess.Analyze("main", mainPath, []byte(src))
	require.NoError(t, err)
	assert.Empty(t, entry.Interp.Diagnostics)

	a, _, ok := entry.Root.Lookup("a")
	require.True(t, ok)
	assert.Equal(t, 1, a.Value.Len())

	m, _, ok := entry.Root.Lookup("m")
	require.True(t, ok)
	assert.Equal(t, 1, m.Value.Len())
}

// TestBareBuiltinNameResolves is spec §4.D's builtin-namespace fallback
// tier: calling `len(...)` without importing anything must resolve through
// scope.Builtins rather than raising undefined-variable.
func TestBareBuiltinNameResolves(t *testing.T) {
	root := t.TempDir()
	mainPath := filepath.Join(root, "main.py")
	src := "xs = [1, 2, 3]\nn = len(xs)\n"
	writeFile(t, mainPath, src)

	sess := New(Config{SearchPaths: []string{root}})
	entry, err := sess.Analyze("main", mainPath, []byte(src))
	require.NoError(t, err)
	assert.Empty(t, entry.Interp.Diagnostics)

	n, _, ok := entry.Root.Lookup("n")
	require.True(t, ok)
	assert.Equal(t, 1, n.Value.Len())
}

// TestReferencesOfFindsReadSiteInAnotherModule is spec §8 scenario S7:
// references to mod1.f's definition must include its qualified use sites in
// every other analyzed module, not just reads within mod1 itself.
func TestReferencesOfFindsReadSiteInAnotherModule(t *testing.T) {
	root := t.TempDir()
	mod1Path := filepath.Join(root, "mod1.py")
	mod1Src := "def f(x):\n    return x\n\ng = f\n"
	writeFile(t, mod1Path, mod1Src)
	mod2Path := filepath.Join(root, "mod2.py")
	mod2Src := "import mod1\nz = mod1.f(42)\n"
	writeFile(t, mod2Path, mod2Src)

	sess := New(Config{SearchPaths: []string{root}})
	_, err := sess.Analyze("mod2", mod2Path, []byte(mod2Src))
	require.NoError(t, err)

	// "f" read by "g = f" on line 4 (0-based line 3), column 4.
	locs, err := sess.ReferencesOf("mod1", lsp.Position{Line: 3, Character: 4}, false)
	require.NoError(t, err)

	foundInMod2 := false
	for _, loc := range locs {
		if loc.URI == lsp.DocumentURI("file://"+mod2Path) {
			foundInMod2 = true
		}
	}
	assert.True(t, foundInMod2, "expected a reference site in mod2.py, got %+v", locs)
}

func TestSnapshotExposesAnalyzedModule(t *testing.T) {
	root := t.TempDir()
	mainPath := filepath.Join(root, "main.py")
	src := "x = 1\n"
	writeFile(t, mainPath, src)

	sess := New(Config{SearchPaths: []string{root}})
	_, err := sess.Analyze("main", mainPath, []byte(src))
	require.NoError(t, err)

	snap, err := sess.Snapshot("main")
	require.NoError(t, err)
	assert.Equal(t, "main", snap.Module)
}
