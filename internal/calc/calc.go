// Package calc evaluates the arithmetic expressions users type into the
// calculator. Only numbers, + - * /, parentheses and spaces are understood.
package calc

import (
	"errors"
	"fmt"
	"strings"

	"github.com/govalues/decimal"
)

var (
	ErrInvalidCharacters = errors.New("expression contains invalid characters")
	ErrDivisionByZero    = errors.New("division by zero")
	ErrEvaluation        = errors.New("malformed expression")
)

const (
	maxExpressionLen = 256
	maxDepth         = 64
)

var replacer = strings.NewReplacer("×", "*", ":", "/")

// Normalize maps the alternative operator glyphs users type onto + - * /.
func Normalize(expr string) string {
	return replacer.Replace(strings.TrimSpace(expr))
}

// Evaluate computes expr with the usual precedence: parentheses, unary sign,
// then * and /, then + and -. The result has trailing zeros trimmed.
func Evaluate(expr string) (decimal.Decimal, error) {
	expr = Normalize(expr)
	for _, r := range expr {
		if !allowed(r) {
			return decimal.Zero, ErrInvalidCharacters
		}
	}
	expr = strings.ReplaceAll(expr, " ", "")
	if expr == "" {
		return decimal.Zero, fmt.Errorf("%w: empty", ErrEvaluation)
	}
	if len(expr) > maxExpressionLen {
		return decimal.Zero, fmt.Errorf("%w: too long", ErrEvaluation)
	}

	p := &parser{src: expr}
	result, err := p.expression(0)
	if err != nil {
		return decimal.Zero, err
	}
	if p.pos != len(p.src) {
		return decimal.Zero, fmt.Errorf("%w: unexpected %q at %d", ErrEvaluation, p.src[p.pos], p.pos+1)
	}
	return result.Trim(0), nil
}

func allowed(r rune) bool {
	switch {
	case r >= '0' && r <= '9':
		return true
	case strings.ContainsRune("+-*/.() ", r):
		return true
	}
	return false
}

type parser struct {
	src string
	pos int
}

func (p *parser) peek() byte {
	if p.pos < len(p.src) {
		return p.src[p.pos]
	}
	return 0
}

func (p *parser) expression(depth int) (decimal.Decimal, error) {
	left, err := p.term(depth)
	if err != nil {
		return decimal.Zero, err
	}
	for {
		op := p.peek()
		if op != '+' && op != '-' {
			return left, nil
		}
		p.pos++
		right, err := p.term(depth)
		if err != nil {
			return decimal.Zero, err
		}
		if op == '+' {
			left, err = left.Add(right)
		} else {
			left, err = left.Sub(right)
		}
		if err != nil {
			return decimal.Zero, fmt.Errorf("%w: %v", ErrEvaluation, err)
		}
	}
}

func (p *parser) term(depth int) (decimal.Decimal, error) {
	left, err := p.factor(depth)
	if err != nil {
		return decimal.Zero, err
	}
	for {
		op := p.peek()
		if op != '*' && op != '/' {
			return left, nil
		}
		p.pos++
		right, err := p.factor(depth)
		if err != nil {
			return decimal.Zero, err
		}
		if op == '*' {
			left, err = left.Mul(right)
		} else {
			if right.IsZero() {
				return decimal.Zero, ErrDivisionByZero
			}
			left, err = left.Quo(right)
		}
		if err != nil {
			return decimal.Zero, fmt.Errorf("%w: %v", ErrEvaluation, err)
		}
	}
}

func (p *parser) factor(depth int) (decimal.Decimal, error) {
	if depth > maxDepth {
		return decimal.Zero, fmt.Errorf("%w: nesting too deep", ErrEvaluation)
	}
	switch p.peek() {
	case '-':
		p.pos++
		v, err := p.factor(depth + 1)
		if err != nil {
			return decimal.Zero, err
		}
		return v.Neg(), nil
	case '+':
		p.pos++
		return p.factor(depth + 1)
	case '(':
		p.pos++
		v, err := p.expression(depth + 1)
		if err != nil {
			return decimal.Zero, err
		}
		if p.peek() != ')' {
			return decimal.Zero, fmt.Errorf("%w: missing closing parenthesis", ErrEvaluation)
		}
		p.pos++
		return v, nil
	default:
		return p.number()
	}
}

func (p *parser) number() (decimal.Decimal, error) {
	start := p.pos
	dots := 0
	for p.pos < len(p.src) {
		c := p.src[p.pos]
		if c == '.' {
			dots++
		} else if c < '0' || c > '9' {
			break
		}
		p.pos++
	}
	lit := p.src[start:p.pos]
	if lit == "" {
		if p.pos < len(p.src) {
			return decimal.Zero, fmt.Errorf("%w: unexpected %q at %d", ErrEvaluation, p.src[p.pos], p.pos+1)
		}
		return decimal.Zero, fmt.Errorf("%w: unexpected end of expression", ErrEvaluation)
	}
	if dots > 1 || lit == "." {
		return decimal.Zero, fmt.Errorf("%w: bad number %q", ErrEvaluation, lit)
	}
	if strings.HasPrefix(lit, ".") {
		lit = "0" + lit
	}
	lit = strings.TrimSuffix(lit, ".")

	v, err := decimal.Parse(lit)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %v", ErrEvaluation, err)
	}
	return v, nil
}
