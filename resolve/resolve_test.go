package resolve

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pyanalyze/pyanalyze/value"
)

func writeFile(t *testing.T, path, contents string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
}

func TestResolveFindsPackageInitBeforePlainModule(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "pkg", "__init__.py"), "")
	writeFile(t, filepath.Join(root, "pkg.py"), "")

	r := New([]string{root}, nil)
	entry, err := r.Resolve("pkg", "")
	require.NoError(t, err)
	assert.True(t, entry.IsPackage)
}

func TestResolveRecursesIntoSubmodules(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a", "__init__.py"), "")
	writeFile(t, filepath.Join(root, "a", "b", "__init__.py"), "")
	writeFile(t, filepath.Join(root, "a", "b", "c.py"), "")

	r := New([]string{root}, nil)
	entry, err := r.Resolve("a.b.c", "")
	require.NoError(t, err)
	assert.Equal(t, "a.b.c", entry.DottedName)
	assert.False(t, entry.IsPackage)
}

func TestResolveFallsBackToStdlibRoots(t *testing.T) {
	stdlib := t.TempDir()
	writeFile(t, filepath.Join(stdlib, "os.py"), "")

	r := New(nil, []string{stdlib})
	entry, err := r.Resolve("os", "")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(stdlib, "os.py"), entry.Path)
}

func TestResolveMissingModuleReturnsError(t *testing.T) {
	r := New([]string{t.TempDir()}, nil)
	_, err := r.Resolve("nope", "")
	assert.Error(t, err)
}

func TestOverrideShortCircuitsFilesystemSearch(t *testing.T) {
	r := New([]string{t.TempDir()}, nil)
	fake := &Entry{DottedName: "sys.modules.fake", IsCompiled: true}
	r.SetOverride("sys.modules.fake", fake)

	entry, err := r.Resolve("sys.modules.fake", "")
	require.NoError(t, err)
	assert.Same(t, fake, entry)
}

func TestResolveCachesRepeatedLookups(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "m.py"), "")
	r := New([]string{root}, nil)

	e1, err := r.Resolve("m", "")
	require.NoError(t, err)
	e2, err := r.Resolve("m", "")
	require.NoError(t, err)
	assert.Same(t, e1, e2)
}

func TestRelativeAnchorSingleDotFromModule(t *testing.T) {
	anchor, err := RelativeAnchor("a.b.c", false, 1)
	require.NoError(t, err)
	assert.Equal(t, "a.b", anchor)
}

func TestRelativeAnchorTwoDotsFromModule(t *testing.T) {
	anchor, err := RelativeAnchor("a.b.c", false, 2)
	require.NoError(t, err)
	assert.Equal(t, "a", anchor)
}

func TestRelativeAnchorSingleDotFromPackage(t *testing.T) {
	anchor, err := RelativeAnchor("a.b", true, 1)
	require.NoError(t, err)
	assert.Equal(t, "a.b", anchor)
}

func TestRelativeAnchorAscendingAboveTopLevelErrors(t *testing.T) {
	_, err := RelativeAnchor("a.b.c", false, 3)
	assert.Error(t, err)
}

func TestStarImportSkipsPrivateNames(t *testing.T) {
	members := map[string]value.Set{
		"Public":  value.NewSet(value.Constant{TypeName: "int", Literal: 1}),
		"_hidden": value.NewSet(value.Constant{TypeName: "int", Literal: 2}),
	}
	out := StarImportNames(members)
	_, hasPublic := out["Public"]
	_, hasHidden := out["_hidden"]
	assert.True(t, hasPublic)
	assert.False(t, hasHidden)
}

func TestStarImportRespectsAllList(t *testing.T) {
	in := value.NewInterner()
	h := in.Intern(value.NewSet(value.Constant{TypeName: "str", Literal: "Public"}))
	allSeq := value.Sequence{
		SeqKind:     value.SeqList,
		Interner:    in,
		KnownLength: 1,
		Elements:    []value.Handle{h},
		AnyIndex:    in.Intern(value.Set{}),
	}
	members := map[string]value.Set{
		"__all__": value.NewSet(allSeq),
		"Public":  value.NewSet(value.Constant{TypeName: "int", Literal: 1}),
		"_hidden": value.NewSet(value.Constant{TypeName: "int", Literal: 2}),
	}
	out := StarImportNames(members)
	_, hasPublic := out["Public"]
	_, hasHidden := out["_hidden"]
	assert.True(t, hasPublic)
	assert.False(t, hasHidden)
}
