package lexer

import "fmt"

type Position struct {
	Line   int
	Column int
}

// Returns a string representation of the Position
func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// Creates a new Position instance
func NewPosition(line, column int) Position {
	return Position{
		Line:   line,
		Column: column,
	}
}
