package lexer

import "strings"

type TokenKind int

type Token struct {
	Text string    // Actual string from source code
	Kind TokenKind // Classification of Text
	Pos  Position  // Position in source code
}

// NewToken creates a new Token instance, classifying its text
func NewToken(text string, pos Position) Token {
	return Token{
		Text: text,
		Kind: Classify(text),
		Pos:  pos,
	}
}

const (
	ILLEGAL TokenKind = iota // anything else

	UINT  // unsigned integer literal
	INT   // signed integer literal with a leading sign
	IDENT // mnemonic, label or procedure name
)

// CommentMarker starts a comment that runs to the end of the line.
const CommentMarker = "--"

// Line is one non-blank, non-comment source line split on whitespace.
type Line struct {
	Tokens []Token
	Pos    Position
}

// Texts returns the raw token strings of the line
func (l Line) Texts() []string {
	out := make([]string, len(l.Tokens))
	for i, t := range l.Tokens {
		out[i] = t.Text
	}
	return out
}

// Head returns the first token text, or "" for an empty line
func (l Line) Head() string {
	if len(l.Tokens) == 0 {
		return ""
	}
	return l.Tokens[0].Text
}

// IsInteger reports whether the token is a signed or unsigned integer literal
func (t Token) IsInteger() bool {
	return t.Kind == INT || t.Kind == UINT
}

// String joins the tokens with single spaces
func (l Line) String() string {
	return strings.Join(l.Texts(), " ")
}

// String returns a string representation of the token kind
func (k TokenKind) String() string {
	switch k {
	case UINT:
		return "uint"
	case INT:
		return "int"
	case IDENT:
		return "ident"
	default:
		return "illegal"
	}
}
