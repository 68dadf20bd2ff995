package pattern

import "strings"

type TokenKind int

const (
	TokenText TokenKind = iota
	TokenPlaceholder
)

type Token struct {
	Kind TokenKind
	// Raw is the exact source text, delimiters included.
	Raw  string
	Name string
	Pos  int
}

func closerFor(open byte) byte {
	if open == '{' {
		return '}'
	}
	return ']'
}

func isOpener(b byte) bool { return b == '{' || b == '[' }

// Tokenize splits pattern into text and placeholder tokens.
func Tokenize(pattern string) ([]Token, error) {
	var tokens []Token
	textStart := 0
	flushText := func(end int) {
		if end > textStart {
			tokens = append(tokens, Token{Kind: TokenText, Raw: pattern[textStart:end], Pos: textStart})
		}
	}

	i := 0
	for i < len(pattern) {
		open := pattern[i]
		if !isOpener(open) {
			i++
			continue
		}
		closer := closerFor(open)
		j := i + 1
		for ; j < len(pattern); j++ {
			c := pattern[j]
			if c == closer {
				break
			}
			if isOpener(c) {
				return nil, &ParseError{Pos: j, Delim: c, Msg: "nested opening delimiter inside placeholder"}
			}
		}
		if j >= len(pattern) {
			return nil, &ParseError{Pos: i, Delim: open, Msg: "unterminated placeholder"}
		}
		name := strings.TrimSpace(pattern[i+1 : j])
		if name == "" {
			return nil, &ParseError{Pos: i, Delim: open, Msg: "empty placeholder name"}
		}
		flushText(i)
		tokens = append(tokens, Token{Kind: TokenPlaceholder, Raw: pattern[i : j+1], Name: name, Pos: i})
		i = j + 1
		textStart = i
	}
	flushText(len(pattern))
	return tokens, nil
}
