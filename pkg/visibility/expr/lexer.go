package expr

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

type tokenKind int

const (
	tokIdent tokenKind = iota
	tokString
	tokNumber
	tokBool
	tokNull
	tokEq
	tokNeq
	tokLt
	tokLte
	tokGt
	tokGte
	tokHas
	tokAnd
	tokOr
	tokNot
	tokLParen
	tokRParen
)

var opText = map[tokenKind]string{
	tokEq:  "==",
	tokNeq: "!=",
	tokLt:  "<",
	tokLte: "<=",
	tokGt:  ">",
	tokGte: ">=",
	tokHas: "has",
}

type token struct {
	kind tokenKind
	text string
}

func isOperator(kind tokenKind) bool {
	_, ok := opText[kind]
	return ok
}

func isDelimiter(r rune) bool {
	return unicode.IsSpace(r) || strings.ContainsRune("()!=<>&|\"'", r)
}

// lex splits a rule into tokens. Identifiers are field names; the keyword
// "has" tests list membership.
func lex(input string) ([]token, error) {
	runes := []rune(input)
	var out []token

	for i := 0; i < len(runes); {
		r := runes[i]
		if unicode.IsSpace(r) {
			i++
			continue
		}

		two := ""
		if i+1 < len(runes) {
			two = string(runes[i : i+2])
		}

		switch {
		case two == "==":
			out = append(out, token{kind: tokEq, text: two})
			i += 2
		case two == "!=":
			out = append(out, token{kind: tokNeq, text: two})
			i += 2
		case two == "<=":
			out = append(out, token{kind: tokLte, text: two})
			i += 2
		case two == ">=":
			out = append(out, token{kind: tokGte, text: two})
			i += 2
		case two == "&&":
			out = append(out, token{kind: tokAnd, text: two})
			i += 2
		case two == "||":
			out = append(out, token{kind: tokOr, text: two})
			i += 2
		case r == '<':
			out = append(out, token{kind: tokLt, text: "<"})
			i++
		case r == '>':
			out = append(out, token{kind: tokGt, text: ">"})
			i++
		case r == '!':
			out = append(out, token{kind: tokNot, text: "!"})
			i++
		case r == '(':
			out = append(out, token{kind: tokLParen, text: "("})
			i++
		case r == ')':
			out = append(out, token{kind: tokRParen, text: ")"})
			i++
		case r == '"' || r == '\'':
			text, next, err := lexString(runes, i)
			if err != nil {
				return nil, err
			}
			out = append(out, token{kind: tokString, text: text})
			i = next
		case r == '=' || r == '&' || r == '|':
			return nil, fmt.Errorf("visibility/expr: unexpected %q at %d", r, i)
		default:
			start := i
			for i < len(runes) && !isDelimiter(runes[i]) {
				i++
			}
			out = append(out, word(string(runes[start:i])))
		}
	}
	return out, nil
}

func lexString(runes []rune, start int) (string, int, error) {
	quote := runes[start]
	var b strings.Builder
	for i := start + 1; i < len(runes); i++ {
		r := runes[i]
		if r == '\\' && i+1 < len(runes) {
			i++
			b.WriteRune(runes[i])
			continue
		}
		if r == quote {
			return b.String(), i + 1, nil
		}
		b.WriteRune(r)
	}
	return "", 0, errors.New("visibility/expr: unterminated string literal")
}

func word(text string) token {
	switch strings.ToLower(text) {
	case "true", "false":
		return token{kind: tokBool, text: strings.ToLower(text)}
	case "null", "nil":
		return token{kind: tokNull, text: "null"}
	case "has":
		return token{kind: tokHas, text: "has"}
	}
	if _, err := strconv.ParseFloat(text, 64); err == nil {
		return token{kind: tokNumber, text: text}
	}
	return token{kind: tokIdent, text: text}
}
