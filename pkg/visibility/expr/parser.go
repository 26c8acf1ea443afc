package expr

import (
	"errors"
	"fmt"
)

type node interface {
	eval(answers map[string]any) (bool, error)
}

type orNode struct{ left, right node }
type andNode struct{ left, right node }
type notNode struct{ inner node }
type truthyNode struct{ name string }
type compareNode struct {
	name  string
	op    tokenKind
	value token
}

type parser struct {
	tokens []token
	pos    int
}

func parse(tokens []token) (node, error) {
	p := &parser{tokens: tokens}
	n, err := p.or()
	if err != nil {
		return nil, err
	}
	if p.pos < len(p.tokens) {
		return nil, fmt.Errorf("visibility/expr: unexpected token %q", p.tokens[p.pos].text)
	}
	return n, nil
}

func (p *parser) peek() (token, bool) {
	if p.pos >= len(p.tokens) {
		return token{}, false
	}
	return p.tokens[p.pos], true
}

func (p *parser) accept(kind tokenKind) bool {
	if tok, ok := p.peek(); ok && tok.kind == kind {
		p.pos++
		return true
	}
	return false
}

func (p *parser) or() (node, error) {
	left, err := p.and()
	if err != nil {
		return nil, err
	}
	for p.accept(tokOr) {
		right, err := p.and()
		if err != nil {
			return nil, err
		}
		left = orNode{left: left, right: right}
	}
	return left, nil
}

func (p *parser) and() (node, error) {
	left, err := p.unary()
	if err != nil {
		return nil, err
	}
	for p.accept(tokAnd) {
		right, err := p.unary()
		if err != nil {
			return nil, err
		}
		left = andNode{left: left, right: right}
	}
	return left, nil
}

func (p *parser) unary() (node, error) {
	if p.accept(tokNot) {
		inner, err := p.unary()
		if err != nil {
			return nil, err
		}
		return notNode{inner: inner}, nil
	}
	return p.primary()
}

func (p *parser) primary() (node, error) {
	if p.accept(tokLParen) {
		inner, err := p.or()
		if err != nil {
			return nil, err
		}
		if !p.accept(tokRParen) {
			return nil, errors.New("visibility/expr: missing closing ')'")
		}
		return inner, nil
	}

	tok, ok := p.peek()
	if !ok {
		return nil, errors.New("visibility/expr: empty expression")
	}
	if tok.kind != tokIdent {
		return nil, fmt.Errorf("visibility/expr: expected field name, got %q", tok.text)
	}
	p.pos++

	op, ok := p.peek()
	if !ok || !isOperator(op.kind) {
		return truthyNode{name: tok.text}, nil
	}
	p.pos++

	value, ok := p.peek()
	if !ok {
		return nil, fmt.Errorf("visibility/expr: missing value after %q", opText[op.kind])
	}
	switch value.kind {
	case tokString, tokNumber, tokBool, tokNull:
	case tokIdent:
		// bare words compare as strings
		value.kind = tokString
	default:
		return nil, fmt.Errorf("visibility/expr: expected value, got %q", value.text)
	}
	p.pos++
	return compareNode{name: tok.text, op: op.kind, value: value}, nil
}
