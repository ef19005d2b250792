package resolve

import (
	"strings"

	"github.com/pyanalyze/pyanalyze/value"
)

// StarImportNames implements spec §4.E point 6: `from X import *` copies all
// non-private names (no leading underscore, unless explicitly listed in
// `__all__`) from X's top-level scope into the importing scope. Re-export
// chains are followed by the caller re-invoking StarImportNames against
// modules that were themselves populated by a prior `import *`.
func StarImportNames(members map[string]value.Set) map[string]value.Set {
	out := map[string]value.Set{}

	if allSet, ok := members["__all__"]; ok {
		for _, name := range stringConstants(allSet) {
			if s, ok := members[name]; ok {
				out[name] = s
			}
		}
		return out
	}

	for name, s := range members {
		if strings.HasPrefix(name, "_") {
			continue
		}
		out[name] = s
	}
	return out
}

// stringConstants extracts the literal string members of a value set,
// matching how `__all__ = ["foo", "bar"]` is represented as a Sequence of
// Constant string values once the interpreter evaluates the list literal.
func stringConstants(s value.Set) []string {
	var names []string
	collect := func(elemSet value.Set) {
		for _, v := range elemSet.Values() {
			if c, ok := v.(value.Constant); ok && c.TypeName == "str" {
				if str, ok := c.Literal.(string); ok {
					names = append(names, str)
				}
			}
		}
	}
	for _, v := range s.Values() {
		if seq, ok := v.(value.Sequence); ok {
			collect(seq.ElementSet(value.DefaultBudgets()))
			continue
		}
		collect(value.NewSet(v))
	}
	return names
}
