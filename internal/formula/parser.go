package formula

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// maxExpressionLength bounds parser input so a stored formula cannot blow up
// authoring or calculation requests.
const maxExpressionLength = 4096

type nodeKind int

const (
	nodeNumber nodeKind = iota
	nodeVariable
	nodeUnary
	nodeBinary
	nodeCall
)

type node struct {
	kind  nodeKind
	value float64
	name  string // variable name, function name, or operator
	args  []*node
}

type tokenKind int

const (
	tokenNumber tokenKind = iota
	tokenIdent
	tokenOperator
	tokenLeftParen
	tokenRightParen
	tokenComma
	tokenEOF
)

type token struct {
	kind tokenKind
	text string
	pos  int
}

type parser struct {
	tokens []token
	pos    int
}

func parse(expression string) (*node, error) {
	trimmed := strings.TrimSpace(expression)
	if trimmed == "" {
		return nil, fmt.Errorf("expression is empty")
	}
	if len(trimmed) > maxExpressionLength {
		return nil, fmt.Errorf("expression exceeds %d characters", maxExpressionLength)
	}

	tokens, err := scan(trimmed)
	if err != nil {
		return nil, err
	}

	p := &parser{tokens: tokens}
	root, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if tok := p.peek(); tok.kind != tokenEOF {
		return nil, fmt.Errorf("unexpected %q at position %d", tok.text, tok.pos)
	}
	return root, nil
}

func scan(input string) ([]token, error) {
	var tokens []token
	runes := []rune(input)
	i := 0
	for i < len(runes) {
		r := runes[i]
		switch {
		case unicode.IsSpace(r):
			i++
		case unicode.IsDigit(r) || r == '.':
			start := i
			seenDot := false
			for i < len(runes) && (unicode.IsDigit(runes[i]) || runes[i] == '.') {
				if runes[i] == '.' {
					if seenDot {
						return nil, fmt.Errorf("malformed number at position %d", start)
					}
					seenDot = true
				}
				i++
			}
			tokens = append(tokens, token{kind: tokenNumber, text: string(runes[start:i]), pos: start})
		case unicode.IsLetter(r) || r == '_':
			start := i
			for i < len(runes) && (unicode.IsLetter(runes[i]) || unicode.IsDigit(runes[i]) || runes[i] == '_') {
				i++
			}
			tokens = append(tokens, token{kind: tokenIdent, text: string(runes[start:i]), pos: start})
		case r == '(':
			tokens = append(tokens, token{kind: tokenLeftParen, text: "(", pos: i})
			i++
		case r == ')':
			tokens = append(tokens, token{kind: tokenRightParen, text: ")", pos: i})
			i++
		case r == ',':
			tokens = append(tokens, token{kind: tokenComma, text: ",", pos: i})
			i++
		case strings.ContainsRune("+-*/%^", r):
			tokens = append(tokens, token{kind: tokenOperator, text: string(r), pos: i})
			i++
		case r == '<' || r == '>':
			op := string(r)
			if i+1 < len(runes) && runes[i+1] == '=' {
				op += "="
				i++
			}
			tokens = append(tokens, token{kind: tokenOperator, text: op, pos: i})
			i++
		case r == '=' || r == '!':
			if i+1 < len(runes) && runes[i+1] == '=' {
				tokens = append(tokens, token{kind: tokenOperator, text: string(r) + "=", pos: i})
				i += 2
			} else if r == '!' {
				tokens = append(tokens, token{kind: tokenOperator, text: "!", pos: i})
				i++
			} else {
				return nil, fmt.Errorf("unexpected %q at position %d", string(r), i)
			}
		case r == '&' || r == '|':
			if i+1 < len(runes) && runes[i+1] == r {
				tokens = append(tokens, token{kind: tokenOperator, text: string(r) + string(r), pos: i})
				i += 2
			} else {
				return nil, fmt.Errorf("unexpected %q at position %d", string(r), i)
			}
		default:
			return nil, fmt.Errorf("forbidden character %q at position %d", string(r), i)
		}
	}
	tokens = append(tokens, token{kind: tokenEOF, pos: len(runes)})
	return tokens, nil
}

func (p *parser) peek() token {
	return p.tokens[p.pos]
}

func (p *parser) next() token {
	tok := p.tokens[p.pos]
	if tok.kind != tokenEOF {
		p.pos++
	}
	return tok
}

func (p *parser) acceptOperator(ops ...string) (string, bool) {
	tok := p.peek()
	if tok.kind != tokenOperator {
		return "", false
	}
	for _, op := range ops {
		if tok.text == op {
			p.next()
			return op, true
		}
	}
	return "", false
}

func (p *parser) parseOr() (*node, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for {
		if _, ok := p.acceptOperator("||"); !ok {
			return left, nil
		}
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = &node{kind: nodeBinary, name: "||", args: []*node{left, right}}
	}
}

func (p *parser) parseAnd() (*node, error) {
	left, err := p.parseComparison()
	if err != nil {
		return nil, err
	}
	for {
		if _, ok := p.acceptOperator("&&"); !ok {
			return left, nil
		}
		right, err := p.parseComparison()
		if err != nil {
			return nil, err
		}
		left = &node{kind: nodeBinary, name: "&&", args: []*node{left, right}}
	}
}

func (p *parser) parseComparison() (*node, error) {
	left, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}
	op, ok := p.acceptOperator("<", "<=", ">", ">=", "==", "!=")
	if !ok {
		return left, nil
	}
	right, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}
	return &node{kind: nodeBinary, name: op, args: []*node{left, right}}, nil
}

func (p *parser) parseAdditive() (*node, error) {
	left, err := p.parseMultiplicative()
	if err != nil {
		return nil, err
	}
	for {
		op, ok := p.acceptOperator("+", "-")
		if !ok {
			return left, nil
		}
		right, err := p.parseMultiplicative()
		if err != nil {
			return nil, err
		}
		left = &node{kind: nodeBinary, name: op, args: []*node{left, right}}
	}
}

func (p *parser) parseMultiplicative() (*node, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for {
		op, ok := p.acceptOperator("*", "/", "%")
		if !ok {
			return left, nil
		}
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = &node{kind: nodeBinary, name: op, args: []*node{left, right}}
	}
}

func (p *parser) parseUnary() (*node, error) {
	if op, ok := p.acceptOperator("-", "!"); ok {
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &node{kind: nodeUnary, name: op, args: []*node{operand}}, nil
	}
	return p.parsePower()
}

func (p *parser) parsePower() (*node, error) {
	base, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	if _, ok := p.acceptOperator("^"); !ok {
		return base, nil
	}
	// right associative: 2^3^2 == 2^(3^2)
	exponent, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	return &node{kind: nodeBinary, name: "^", args: []*node{base, exponent}}, nil
}

func (p *parser) parsePrimary() (*node, error) {
	tok := p.next()
	switch tok.kind {
	case tokenNumber:
		value, err := strconv.ParseFloat(tok.text, 64)
		if err != nil {
			return nil, fmt.Errorf("malformed number %q at position %d", tok.text, tok.pos)
		}
		return &node{kind: nodeNumber, value: value}, nil
	case tokenIdent:
		if p.peek().kind == tokenLeftParen {
			p.next()
			args, err := p.parseArgs()
			if err != nil {
				return nil, err
			}
			return &node{kind: nodeCall, name: tok.text, args: args}, nil
		}
		return &node{kind: nodeVariable, name: tok.text}, nil
	case tokenLeftParen:
		inner, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if closing := p.next(); closing.kind != tokenRightParen {
			return nil, fmt.Errorf("missing closing parenthesis at position %d", closing.pos)
		}
		return inner, nil
	default:
		return nil, fmt.Errorf("unexpected %q at position %d", tok.text, tok.pos)
	}
}

func (p *parser) parseArgs() ([]*node, error) {
	if p.peek().kind == tokenRightParen {
		p.next()
		return nil, nil
	}
	var args []*node
	for {
		arg, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
		switch tok := p.next(); tok.kind {
		case tokenComma:
			continue
		case tokenRightParen:
			return args, nil
		default:
			return nil, fmt.Errorf("unexpected %q at position %d", tok.text, tok.pos)
		}
	}
}
