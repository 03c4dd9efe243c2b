package lexer

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

type Lexer struct {
	input    string // input string to be tokenized
	length   int    // length of the input string
	position int    // current position in the input string
	line     int    // current line number for error reporting
}

// Create a new lexer instance
func NewLexer(s string) *Lexer {
	return &Lexer{
		input:    s,
		length:   len(s),
		position: 0,
		line:     1,
	}
}

// Lines tokenizes the whole input, dropping blank and comment lines.
// Positions are only assigned to the lines that are kept.
func (l *Lexer) Lines() []Line {
	var lines []Line
	for l.HasMore() {
		if line, ok := l.NextLine(); ok {
			lines = append(lines, line)
		}
	}
	return lines
}

// NextLine reads one physical line. ok is false when the line is blank
// or a comment.
func (l *Lexer) NextLine() (Line, bool) {
	start := l.position
	end := strings.IndexByte(l.input[start:], '\n')
	if end < 0 {
		end = l.length
	} else {
		end += start
	}

	raw := strings.TrimSuffix(l.input[start:end], "\r")
	lineNo := l.line

	l.position = end + 1
	l.line++

	tokens := splitTokens(raw, lineNo)
	if len(tokens) == 0 {
		return Line{}, false
	}

	return Line{Tokens: tokens, Pos: NewPosition(lineNo, tokens[0].Pos.Column)}, true
}

// Check if there are more characters to read
func (l *Lexer) HasMore() bool {
	return l.position < l.length
}

// splitTokens splits raw on Unicode whitespace, stopping at a comment
// marker. Columns are 1-based byte offsets.
func splitTokens(raw string, lineNo int) []Token {
	var tokens []Token

	col := 0
	for col < len(raw) {
		// skip whitespace
		if r, size := utf8.DecodeRuneInString(raw[col:]); unicode.IsSpace(r) {
			col += size
			continue
		}

		end := col
		for end < len(raw) {
			r, size := utf8.DecodeRuneInString(raw[end:])
			if unicode.IsSpace(r) {
				break
			}
			end += size
		}

		text := raw[col:end]
		if text == CommentMarker {
			break
		}

		tokens = append(tokens, NewToken(text, NewPosition(lineNo, col+1)))
		col = end
	}

	return tokens
}
