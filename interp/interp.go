// Package interp implements the abstract interpreter (spec §4.F): it walks
// an AST unit, evaluating expressions to value sets and writing value sets
// to scope bindings, applying the Cartesian Product Algorithm for
// call-context-sensitive function analysis. It mirrors the teacher's
// scope.interpretStatements/interpretExpression design in
// src/parse/asp/interpreter.go, generalized from the teacher's single BUILD
// grammar to the full Python expression/statement set.
package interp

import (
	"fmt"

	logging "gopkg.in/op/go-logging.v1"

	"github.com/pyanalyze/pyanalyze/ast"
	"github.com/pyanalyze/pyanalyze/scope"
	"github.com/pyanalyze/pyanalyze/token"
	"github.com/pyanalyze/pyanalyze/value"
)

var log = logging.MustGetLogger("interp")

// Interpreter owns the registries value.Function/value.Class defer to
// (DefID -> AST node, ScopeID -> *scope.Scope) and the widening budgets in
// force for this analysis run. Unlike the teacher's single process-wide
// interpreter, a pyanalyze Interpreter is created per session — spec §9
// "there is no singleton".
type Interpreter struct {
	Budgets value.Budgets
	Defs    *DefRegistry
	Scopes  *ScopeRegistry

	// Module is the dotted name of the module currently being interpreted;
	// used to stamp DefID.Module for every def/class encountered.
	Module string

	// ResolveImport, when set by the owning session, resolves a dotted
	// import name to its module value (spec §4.E/§4.F import-statement
	// semantics). A nil ResolveImport (the zero-value Interpreter, as used
	// standalone in tests) binds every import to a member-less value.Module
	// of that name without attempting resolution or raising
	// unresolved-import.
	ResolveImport func(dotted string) (value.Module, error)

	// NodeValues records every evaluated expression's result value set
	// alongside its source span, feeding the query package's
	// type_of(position) (spec §4.I): type_of picks the innermost recorded
	// span containing the query position.
	NodeValues []NodeValue

	// Diagnostics accumulates semantic (not lex/parse) diagnostics raised
	// during interpretation: undefined-variable, not-callable, invalid-mro
	// (spec §7/§4.I diagnostic codes). Parse-time diagnostics are kept
	// separately on the ast.Parse result and merged by the caller.
	Diagnostics []token.Diagnostic
}

func (ip *Interpreter) diagnose(code string, span token.Span, format string, args ...interface{}) {
	ip.Diagnostics = append(ip.Diagnostics, token.Diagnostic{
		Severity: token.Error,
		Code:     code,
		Span:     span,
		Message:  fmt.Sprintf(format, args...),
	})
}

// NodeValue is one evaluated expression's span and resulting value set.
type NodeValue struct {
	Start, End int
	Value      value.Set
}

// New creates an Interpreter with the given budgets (spec §4.C defaults are
// supplied by value.DefaultBudgets when the caller passes a zero Budgets).
func New(budgets value.Budgets) *Interpreter {
	if budgets == (value.Budgets{}) {
		budgets = value.DefaultBudgets()
	}
	return &Interpreter{
		Budgets: budgets,
		Defs:    NewDefRegistry(),
		Scopes:  NewScopeRegistry(),
	}
}

// control is what a statement's evaluation yields to its enclosing block:
// ctrlNone means "fell through", the others propagate out of the nearest
// enclosing loop/function the way the teacher's continueIteration/
// stopIteration sentinel values do.
type controlKind int

const (
	ctrlNone controlKind = iota
	ctrlReturn
	ctrlBreak
	ctrlContinue
)

type control struct {
	kind  controlKind
	value value.Set
}

var noControl = control{kind: ctrlNone}

// InterpretModule runs the module-toplevel unit: it creates the module's
// scope, registers it, and interprets every top-level statement.
func (ip *Interpreter) InterpretModule(moduleName string, file *ast.File) *scope.Scope {
	ip.Module = moduleName
	s := scope.New()
	ip.Scopes.Register(s)
	ip.evalBlock(s, file.Statements)
	return s
}
