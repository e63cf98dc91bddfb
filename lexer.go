package kiwi

import "fmt"

// Token kinds produced by the schema text scanner.
type tokenKind uint8

const (
	tokenEOF tokenKind = iota
	tokenIdent
	tokenInt
	tokenEquals
	tokenSemicolon
	tokenLeftBrace
	tokenRightBrace
	tokenArray      // []
	tokenDeprecated // [deprecated]
)

func (k tokenKind) String() string {
	switch k {
	case tokenEOF:
		return "end of input"
	case tokenIdent:
		return "identifier"
	case tokenInt:
		return "integer"
	case tokenEquals:
		return "'='"
	case tokenSemicolon:
		return "';'"
	case tokenLeftBrace:
		return "'{'"
	case tokenRightBrace:
		return "'}'"
	case tokenArray:
		return "'[]'"
	case tokenDeprecated:
		return "'[deprecated]'"
	default:
		return "unknown token"
	}
}

type token struct {
	kind   tokenKind
	text   string
	line   int // 1-based
	column int // 1-based, in bytes
}

const deprecatedMarker = "[deprecated]"

// scanTokens splits schema text into tokens: identifiers, integer
// literals (optional leading '-'), the punctuation = ; { }, the markers
// [] and [deprecated]. Line comments (//) and whitespace are dropped.
//
// Scanning does not stop at the first bad byte; each one becomes a
// [ParseError] and the scan continues, so a single pass reports every
// lexical problem. The token stream always ends with a tokenEOF carrying
// the final position.
func scanTokens(text string) ([]token, []error) {
	var (
		tokens []token
		errs   []error
	)

	line, lineStart := 1, 0

	i := 0
	for i < len(text) {
		c := text[i]
		start := i
		col := i - lineStart + 1

		switch {
		case c == '\n':
			line++

			i++
			lineStart = i

		case c == ' ' || c == '\t' || c == '\r':
			i++

		case c == '/' && i+1 < len(text) && text[i+1] == '/':
			for i < len(text) && text[i] != '\n' {
				i++
			}

		case c == '=':
			tokens = append(tokens, token{kind: tokenEquals, text: "=", line: line, column: col})
			i++

		case c == ';':
			tokens = append(tokens, token{kind: tokenSemicolon, text: ";", line: line, column: col})
			i++

		case c == '{':
			tokens = append(tokens, token{kind: tokenLeftBrace, text: "{", line: line, column: col})
			i++

		case c == '}':
			tokens = append(tokens, token{kind: tokenRightBrace, text: "}", line: line, column: col})
			i++

		case c == '[':
			if i+1 < len(text) && text[i+1] == ']' {
				tokens = append(tokens, token{kind: tokenArray, text: "[]", line: line, column: col})
				i += 2

				break
			}

			if len(text)-i >= len(deprecatedMarker) && text[i:i+len(deprecatedMarker)] == deprecatedMarker {
				tokens = append(tokens, token{kind: tokenDeprecated, text: deprecatedMarker, line: line, column: col})
				i += len(deprecatedMarker)

				break
			}

			errs = append(errs, &ParseError{Line: line, Column: col, Msg: "expected '[]' or '[deprecated]'"})
			i++

		case isIdentStart(c):
			for i < len(text) && isIdentPart(text[i]) {
				i++
			}

			tokens = append(tokens, token{kind: tokenIdent, text: text[start:i], line: line, column: col})

		case isDigit(c) || (c == '-' && i+1 < len(text) && isDigit(text[i+1])):
			i++
			for i < len(text) && isDigit(text[i]) {
				i++
			}

			// "123abc" is one malformed token, not an integer then an
			// identifier.
			if i < len(text) && isIdentStart(text[i]) {
				for i < len(text) && isIdentPart(text[i]) {
					i++
				}

				errs = append(errs, &ParseError{
					Line:   line,
					Column: col,
					Msg:    fmt.Sprintf("malformed number %q", text[start:i]),
				})

				break
			}

			tokens = append(tokens, token{kind: tokenInt, text: text[start:i], line: line, column: col})

		default:
			errs = append(errs, &ParseError{
				Line:   line,
				Column: col,
				Msg:    fmt.Sprintf("unexpected character %q", string(c)),
			})
			i++
		}
	}

	tokens = append(tokens, token{kind: tokenEOF, line: line, column: len(text) - lineStart + 1})

	return tokens, errs
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || isDigit(c)
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}
