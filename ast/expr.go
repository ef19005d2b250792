package ast

import "github.com/pyanalyze/pyanalyze/token"

// ExprKind tags which variant of Expr is populated.
type ExprKind int

const (
	ENone ExprKind = iota
	EBool
	EEllipsis
	EInt
	EFloat
	EStr
	EFString
	EBytes
	EName
	ETuple
	EList
	EDict
	ESet
	EListComp
	ESetComp
	EDictComp
	EGeneratorExp
	ELambda
	EIfExp
	EBoolOp
	EBinOp
	EUnaryOp
	ECompare
	ECall
	EAttribute
	ESubscript
	ESlice
	EStarred
	EYield
	EYieldFrom
	EAwait
	EError
)

// An Expr is a generalised Python expression node. As with Stmt, only the
// field(s) matching Kind are populated (spec §3 "Expression", following the
// teacher's ValueExpression tagged-union shape).
type Expr struct {
	Kind     ExprKind
	Pos, End token.Position
	Leading  string

	// Literals
	BoolVal  bool
	IntVal   string // preserves original text (hex/octal/underscore literals etc)
	FloatVal string
	StrVal   string   // decoded string content
	StrRaw   string   // verbatim source text including quotes/prefix
	StrFlags token.StringFlags
	FStrVars []FStringVar // for EFString, the {expr} substitutions found

	// EName
	Name string

	// ETuple / EList / ESet
	Elts []*Expr

	// EDict
	Keys   []*Expr // nil entries represent ** spreads
	DictV  []*Expr

	// Comprehensions (EListComp/ESetComp/EDictComp/EGeneratorExp)
	CompElt  *Expr // element expr, or key for dict comp (use CompVal for value)
	CompVal  *Expr
	CompFors []CompFor

	// ELambda
	Params []Param
	Body   *Expr

	// EIfExp
	Test *Expr
	Then *Expr
	Orelse *Expr

	// EBoolOp ("and"/"or" chain)
	BoolOpKind string // "and" | "or"
	Values     []*Expr

	// EBinOp / EUnaryOp / ECompare
	Op    string
	Left  *Expr
	Right *Expr
	// ECompare supports chained comparisons: a < b < c
	CompareOps     []string
	CompareRights  []*Expr

	// ECall
	Func     *Expr
	Args     []*Expr
	Keywords []Keyword

	// EAttribute
	Value *Expr
	Attr  string

	// ESubscript
	Subject *Expr
	Index   *Expr

	// ESlice
	Lower *Expr
	Upper *Expr
	Step  *Expr

	// EStarred / EYield / EYieldFrom / EAwait
	Inner *Expr

	// EError: raw unparsed text
	ErrorText string
}

func (e *Expr) Span() token.Span { return token.Span{Start: e.Pos, End: e.End} }

// A CompFor is one "for targets in iter [if cond]" clause of a comprehension;
// comprehensions may chain multiple of these (spec §4.F "second 'for' clause").
type CompFor struct {
	Targets []*Expr
	Iter    *Expr
	Ifs     []*Expr
	IsAsync bool
}

// An FStringVar is one {expr} substitution found inside an f-string literal.
// Per spec §4.A/§4.F, the inner expression is recorded as opaque text — it is
// not sub-lexed or sub-parsed.
type FStringVar struct {
	Prefix string // literal text preceding this substitution
	Expr   string // raw text of the {..} expression, braces stripped
}
