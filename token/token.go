package token

// A Kind identifies the lexical class of a Token.
type Kind int

const (
	EOF Kind = iota
	Ident
	Keyword
	Int
	Float
	String
	FString
	Op
	Newline
	Dedent
	Comment
)

func (k Kind) String() string {
	switch k {
	case EOF:
		return "end of file"
	case Ident:
		return "identifier"
	case Keyword:
		return "keyword"
	case Int:
		return "integer"
	case Float:
		return "float"
	case String:
		return "string"
	case FString:
		return "f-string"
	case Op:
		return "operator"
	case Newline:
		return "newline"
	case Dedent:
		return "dedent"
	case Comment:
		return "comment"
	}
	return "unknown"
}

// StringFlags is a bitmask of the prefix flags recognised on a Python string
// literal (spec §4.A "String prefixes are parsed as a bitmask of flags").
type StringFlags uint8

const (
	Raw StringFlags = 1 << iota
	Bytes
	Unicode
	Formatted
)

// A Token is a single lexical element, carrying enough trivia to support a
// verbatim round-trip of the source (spec §3 "AST Node" invariant).
type Token struct {
	Kind Kind
	// Text is the literal source text of the token, unmodified.
	Text string
	// Leading is the whitespace/comment text between the previous token and this one.
	Leading string
	Span    Span
	// StrFlags is populated only for String/FString tokens.
	StrFlags StringFlags
}

func (t Token) String() string {
	if t.Text != "" {
		return t.Text
	}
	return t.Kind.String()
}
