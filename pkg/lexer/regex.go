package lexer

import (
	"regexp"
)

type tokenRegex struct {
	Pattern *regexp.Regexp
	Raw     string
}

// Token regex patterns, checked in tokenOrder
var tokenRegexes = map[TokenKind]tokenRegex{
	UINT:  {regexp.MustCompile(`^\d+$`), `^\d+$`},
	INT:   {regexp.MustCompile(`^[+-]\d+$`), `^[+-]\d+$`},
	IDENT: {regexp.MustCompile(`^[A-Za-z_.$][A-Za-z0-9_.$-]*$`), `^[A-Za-z_.$][A-Za-z0-9_.$-]*$`},
}

var tokenOrder = []TokenKind{UINT, INT, IDENT}

// Classify reports which kind of token text is. Text that matches
// no pattern is ILLEGAL.
func Classify(text string) TokenKind {
	for _, kind := range tokenOrder {
		if tokenRegexes[kind].Pattern.MatchString(text) {
			return kind
		}
	}

	return ILLEGAL
}
