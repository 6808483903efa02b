package cypher

import (
	"strings"

	"github.com/orneryd/graphexec/pkg/qerr"
)

const opCompile = "compile"

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokIdent
	tokString
	tokNumber
	tokPunct
)

type token struct {
	kind tokenKind
	text string
	pos  int
}

// is reports whether t is the keyword or punctuation s (keywords are
// case-insensitive).
func (t token) is(s string) bool {
	switch t.kind {
	case tokIdent:
		return strings.EqualFold(t.text, s)
	case tokPunct:
		return t.text == s
	}
	return false
}

// lex splits query into tokens, dropping whitespace and //, -- and /* */
// comments. Backquoted identifiers keep their inner text verbatim.
func lex(query string) ([]token, error) {
	var toks []token
	i := 0
	for i < len(query) {
		c := query[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			i++
		case strings.HasPrefix(query[i:], "//") || strings.HasPrefix(query[i:], "--"):
			for i < len(query) && query[i] != '\n' {
				i++
			}
		case strings.HasPrefix(query[i:], "/*"):
			end := strings.Index(query[i+2:], "*/")
			if end < 0 {
				return nil, qerr.Parse(opCompile, nil, "unterminated comment at offset %d", i)
			}
			i += end + 4
		case isIdentStart(c):
			start := i
			for i < len(query) && isIdentPart(query[i]) {
				i++
			}
			toks = append(toks, token{tokIdent, query[start:i], start})
		case c == '`':
			end := strings.IndexByte(query[i+1:], '`')
			if end < 0 {
				return nil, qerr.Parse(opCompile, nil, "unterminated identifier at offset %d", i)
			}
			toks = append(toks, token{tokIdent, query[i+1 : i+1+end], i})
			i += end + 2
		case c == '\'' || c == '"':
			s, n, err := lexString(query[i:])
			if err != nil {
				return nil, qerr.Parse(opCompile, nil, "%v at offset %d", err, i)
			}
			toks = append(toks, token{tokString, s, i})
			i += n
		case c >= '0' && c <= '9':
			start := i
			for i < len(query) && (query[i] >= '0' && query[i] <= '9' || query[i] == '.') {
				i++
			}
			toks = append(toks, token{tokNumber, query[start:i], start})
		case strings.HasPrefix(query[i:], "<>"):
			toks = append(toks, token{tokPunct, "<>", i})
			i += 2
		case strings.ContainsRune("()[]{}:,.-><=;", rune(c)):
			toks = append(toks, token{tokPunct, string(c), i})
			i++
		default:
			return nil, qerr.Parse(opCompile, nil, "unexpected character %q at offset %d", c, i)
		}
	}
	return append(toks, token{kind: tokEOF, pos: len(query)}), nil
}

type lexError string

func (e lexError) Error() string { return string(e) }

// lexString reads a quoted literal starting at s[0] and returns its unescaped
// text and the number of bytes consumed.
func lexString(s string) (string, int, error) {
	quote := s[0]
	var sb strings.Builder
	for i := 1; i < len(s); i++ {
		switch s[i] {
		case '\\':
			if i+1 >= len(s) {
				return "", 0, lexError("unterminated string")
			}
			i++
			switch s[i] {
			case 'n':
				sb.WriteByte('\n')
			case 't':
				sb.WriteByte('\t')
			default:
				sb.WriteByte(s[i])
			}
		case quote:
			return sb.String(), i + 1, nil
		default:
			sb.WriteByte(s[i])
		}
	}
	return "", 0, lexError("unterminated string")
}

func isIdentStart(c byte) bool {
	return c == '_' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z'
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || c >= '0' && c <= '9'
}
