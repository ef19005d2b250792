package ast

// A Tri is a tri-valued formatting switch: leave as-is, or force on/off.
type Tri int

const (
	Preserve Tri = iota
	EnforceOn
	EnforceOff
)

// FormatOptions is the full code-formatting options bundle: every option
// defaults to Preserve, meaning the emitter keeps its own canonical spacing
// for that construct. The parser records no source whitespace, so Preserve
// does not reproduce the spacing the source had.
type FormatOptions struct {
	SpaceAroundDefaultEquals              Tri
	SpaceBeforeFunctionParen              Tri
	SpaceWithinEmptyParen                 Tri
	SpaceWithinFunctionDeclarationParens  Tri
	SpaceAroundAnnotationArrow            Tri
	SpaceBeforeClassParen                 Tri
	SpaceWithinEmptyBaseClassList         Tri
	SpaceWithinClassDeclarationParens     Tri
	SpaceBeforeCallParen                  Tri
	SpaceWithinEmptyCallArgumentList      Tri
	SpaceWithinCallParens                 Tri
	SpaceWithinIndexBrackets              Tri
	SpaceBeforeIndexBracket               Tri
	SpacesWithinParens                    Tri
	SpaceWithinEmptyTuple                 Tri
	SpacesWithinParenthesisedTuple        Tri
	SpacesWithinEmptyList                 Tri
	SpacesWithinList                      Tri
	SpacesAroundBinaryOperators           Tri
	SpacesAroundAssignmentOperator        Tri
	ReplaceMultipleImportsWithStatements  Tri
	RemoveTrailingSemicolons              Tri
	BreakMultipleStatementsPerLine        Tri
	WrapComments                         Tri
	WrappingWidth                         int
}

// DefaultFormatOptions sets every switch to Preserve and disables wrapping,
// so Emit writes its canonical spacing throughout.
func DefaultFormatOptions() FormatOptions {
	return FormatOptions{WrappingWidth: 0}
}

func (o FormatOptions) spaceBefore(opt Tri, def bool) bool {
	switch opt {
	case EnforceOn:
		return true
	case EnforceOff:
		return false
	default:
		return def
	}
}
