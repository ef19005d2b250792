package value

// Budgets bounds how large a Set is allowed to grow before widening kicks
// in, per spec §3 "Value Set" and §4.C "Widening". Defaults mirror the
// teacher's own "standard library" limits used for BUILD-file config merges,
// generalized to the value lattice's three join contexts plus call-context
// depth.
type Budgets struct {
	Assignment      int // default join context: set(...) = ...
	SelfAttribute   int // self.x = ... across all methods of a class
	CrossModule     int // value sets that cross a module boundary
	CallContextDepth int // Cartesian Product Algorithm recursion bound
}

// DefaultBudgets returns the spec's stated defaults (assignment ≤ 10,
// self-attribute ≤ 50, cross-module ≤ 100, call-context depth ≤ 3).
func DefaultBudgets() Budgets {
	return Budgets{
		Assignment:       10,
		SelfAttribute:    50,
		CrossModule:      100,
		CallContextDepth: 3,
	}
}
