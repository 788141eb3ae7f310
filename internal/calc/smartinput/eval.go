package smartinput

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var ErrSyntax = errors.New("smartinput: syntax error")

// Eval evaluates an arithmetic expression made of decimal literals, the binary
// operators + - * /, unary signs and parentheses. Anything else is rejected.
// Division by zero yields an infinity, which Parse clamps to 0.
func Eval(expr string) (float64, error) {
	// "--" and "++" are not operators in the form language, wherever they sit.
	for _, op := range []string{"--", "++"} {
		if i := strings.Index(expr, op); i >= 0 {
			return 0, fmt.Errorf("%w: repeated %q at %d", ErrSyntax, op[0], i)
		}
	}
	p := &evaluator{src: expr}
	v, err := p.expr()
	if err != nil {
		return 0, err
	}
	if p.pos != len(p.src) {
		return 0, fmt.Errorf("%w: unexpected %q at %d", ErrSyntax, p.src[p.pos], p.pos)
	}
	return v, nil
}

// maxDepth bounds parenthesis and unary-sign nesting.
const maxDepth = 64

type evaluator struct {
	src   string
	pos   int
	depth int
}

func (p *evaluator) peek() byte {
	if p.pos < len(p.src) {
		return p.src[p.pos]
	}
	return 0
}

// expr := term { ("+" | "-") term }
func (p *evaluator) expr() (float64, error) {
	v, err := p.term()
	if err != nil {
		return 0, err
	}
	for {
		op := p.peek()
		if op != '+' && op != '-' {
			return v, nil
		}
		p.pos++
		rhs, err := p.term()
		if err != nil {
			return 0, err
		}
		if op == '+' {
			v += rhs
		} else {
			v -= rhs
		}
	}
}

// term := unary { ("*" | "/") unary }
func (p *evaluator) term() (float64, error) {
	v, err := p.unary()
	if err != nil {
		return 0, err
	}
	for {
		op := p.peek()
		if op != '*' && op != '/' {
			return v, nil
		}
		p.pos++
		rhs, err := p.unary()
		if err != nil {
			return 0, err
		}
		if op == '*' {
			v *= rhs
		} else {
			v /= rhs
		}
	}
}

// unary := ("+" | "-") unary | primary
func (p *evaluator) unary() (float64, error) {
	op := p.peek()
	if op != '+' && op != '-' {
		return p.primary()
	}
	if err := p.enter(); err != nil {
		return 0, err
	}
	defer p.leave()
	p.pos++
	v, err := p.unary()
	if err != nil {
		return 0, err
	}
	if op == '-' {
		v = -v
	}
	return v, nil
}

// primary := number | "(" expr ")"
func (p *evaluator) primary() (float64, error) {
	if p.peek() == '(' {
		if err := p.enter(); err != nil {
			return 0, err
		}
		defer p.leave()
		p.pos++
		v, err := p.expr()
		if err != nil {
			return 0, err
		}
		if p.peek() != ')' {
			return 0, fmt.Errorf("%w: missing ')' at %d", ErrSyntax, p.pos)
		}
		p.pos++
		return v, nil
	}
	return p.number()
}

func (p *evaluator) number() (float64, error) {
	start := p.pos
	for p.pos < len(p.src) {
		c := p.src[p.pos]
		if (c < '0' || c > '9') && c != '.' {
			break
		}
		p.pos++
	}
	lit := p.src[start:p.pos]
	if lit == "" || lit == "." {
		return 0, fmt.Errorf("%w: expected number at %d", ErrSyntax, start)
	}
	v, err := strconv.ParseFloat(lit, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: bad literal %q", ErrSyntax, lit)
	}
	return v, nil
}

func (p *evaluator) enter() error {
	p.depth++
	if p.depth > maxDepth {
		return fmt.Errorf("%w: nesting deeper than %d", ErrSyntax, maxDepth)
	}
	return nil
}

func (p *evaluator) leave() { p.depth-- }
