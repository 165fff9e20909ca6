// Package address tokenizes and parses free-form US street addresses into
// structured components: house number, block flag, direction, street name,
// street type and an optional cross street.
package address

import (
	"fmt"
	"strings"
	"unicode"
)

// TokenType classifies a scanned token.
type TokenType int

const (
	Word TokenType = iota
	Number
	Other
	End
)

func (t TokenType) String() string {
	switch t {
	case Word:
		return "WORD"
	case Number:
		return "NUMBER"
	case Other:
		return "OTHER"
	case End:
		return "END"
	default:
		return fmt.Sprintf("TokenType(%d)", int(t))
	}
}

// Token is one lexical unit of an address.
type Token struct {
	Type TokenType
	Text string
}

func (t Token) String() string {
	return fmt.Sprintf("(%s,%q)", t.Type, t.Text)
}

var endToken = Token{Type: End}

// Scan splits text into Word, Number and Other tokens followed by a single
// End token. Words are runs of ASCII letters, dots and dashes, lower-cased
// with trailing dots removed. Numbers are runs of ASCII digits. Any other
// non-space rune is its own Other token.
func Scan(text string) []Token {
	tokens := make([]Token, 0, 8)
	runes := []rune(text)

	for i := 0; i < len(runes); {
		r := runes[i]
		switch {
		case unicode.IsSpace(r):
			i++
		case isWordRune(r):
			start := i
			for i < len(runes) && isWordRune(runes[i]) {
				i++
			}
			word := strings.TrimRight(strings.ToLower(string(runes[start:i])), ".")
			if word != "" {
				tokens = append(tokens, Token{Type: Word, Text: word})
			}
		case isDigitRune(r):
			start := i
			for i < len(runes) && isDigitRune(runes[i]) {
				i++
			}
			tokens = append(tokens, Token{Type: Number, Text: string(runes[start:i])})
		default:
			tokens = append(tokens, Token{Type: Other, Text: strings.TrimSpace(strings.ToLower(string(r)))})
			i++
		}
	}

	return append(tokens, endToken)
}

func isWordRune(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || r == '.' || r == '-'
}

func isDigitRune(r rune) bool {
	return r >= '0' && r <= '9'
}
