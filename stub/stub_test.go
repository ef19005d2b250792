package stub

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pyanalyze/pyanalyze/token"
	"github.com/pyanalyze/pyanalyze/value"
)

func TestBuiltinTableCoversCuratedList(t *testing.T) {
	table := NewTable()
	for _, name := range []string{
		"len", "abs", "range", "xrange", "open", "iter", "next", "getattr",
		"setattr", "vars", "dir", "sorted", "list", "tuple", "set",
		"frozenset", "dict", "super", "isinstance", "issubclass",
	} {
		_, ok := table[name]
		assert.True(t, ok, "missing builtin %q", name)
	}
}

func TestBuiltinLenReturnsInt(t *testing.T) {
	table := NewTable()
	out := table["len"].Call([]value.Set{value.NewSet(value.Primitive{TypeName: "str"})}, nil, value.RootCallContext)
	require.Equal(t, 1, out.Len())
	p, ok := out.Values()[0].(value.Primitive)
	require.True(t, ok)
	assert.Equal(t, "int", p.TypeName)
}

func TestBuiltinGetattrReturnsDefaultWhenMissing(t *testing.T) {
	table := NewTable()
	recv := value.NewSet(value.Primitive{TypeName: "str"})
	name := value.NewSet(value.Constant{TypeName: "str", Literal: "nope"})
	def := value.NewSet(value.Constant{TypeName: "int", Literal: 42})
	out := table["getattr"].Call([]value.Set{recv, name, def}, nil, value.RootCallContext)
	require.Equal(t, 1, out.Len())
	c, ok := out.Values()[0].(value.Constant)
	require.True(t, ok)
	assert.Equal(t, 42, c.Literal)
}

func TestLoaderParsesAndCachesSummary(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "os.pyi.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"module": "os",
		"entries": [
			{"kind": "function", "name": "getcwd", "doc": "returns the current directory"},
			{"kind": "constant", "name": "sep", "type": "str", "literal": "/"}
		]
	}`), 0o644))

	loader := NewLoader(DefaultConfig())
	mod, err := loader.Load(path, token.V37)
	require.NoError(t, err)
	assert.Equal(t, "os", mod.Name)
	_, ok := mod.Members["getcwd"]
	assert.True(t, ok)
	_, ok = mod.Members["sep"]
	assert.True(t, ok)

	mod2, err := loader.Load(path, token.V37)
	require.NoError(t, err)
	assert.Equal(t, mod.Name, mod2.Name)
}

func TestLoaderEvictsLeastRecentlyUsedEntry(t *testing.T) {
	dir := t.TempDir()
	write := func(name string) string {
		p := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(p, []byte(`{"module": "`+name+`", "entries": []}`), 0o644))
		return p
	}
	p1, p2, p3 := write("a.json"), write("b.json"), write("c.json")

	loader := NewLoader(Config{StubCacheEntries: 2})
	_, err := loader.Load(p1, token.V37)
	require.NoError(t, err)
	_, err = loader.Load(p2, token.V37)
	require.NoError(t, err)
	_, err = loader.Load(p3, token.V37)
	require.NoError(t, err)

	assert.LessOrEqual(t, loader.cache.Len(), 2)
}
