package term

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/wippyai/bqn-bridge/errors"
)

// Parse reads a single term written in the host's literal syntax. A trailing
// full stop is allowed. Pids, ports, references and funs have no literal form.
func Parse(src string) (Term, error) {
	p := &parser{src: src}
	t, err := p.term()
	if err != nil {
		return nil, err
	}
	p.skipSpace()
	if p.pos < len(p.src) && p.src[p.pos] == '.' {
		p.pos++
		p.skipSpace()
	}
	if p.pos != len(p.src) {
		return nil, p.errorf("unexpected %q after term", p.src[p.pos:])
	}
	return t, nil
}

type parser struct {
	src string
	pos int
}

func (p *parser) errorf(format string, args ...any) error {
	return errors.Syntax(p.pos, fmt.Sprintf(format, args...))
}

func (p *parser) skipSpace() {
	for p.pos < len(p.src) {
		switch p.src[p.pos] {
		case ' ', '\t', '\n', '\r':
			p.pos++
		case '%':
			for p.pos < len(p.src) && p.src[p.pos] != '\n' {
				p.pos++
			}
		default:
			return
		}
	}
}

func (p *parser) peek() byte {
	if p.pos < len(p.src) {
		return p.src[p.pos]
	}
	return 0
}

func (p *parser) hasPrefix(s string) bool {
	return strings.HasPrefix(p.src[p.pos:], s)
}

func (p *parser) expect(s string) error {
	p.skipSpace()
	if !p.hasPrefix(s) {
		if p.pos >= len(p.src) {
			return p.errorf("expected %q, got end of input", s)
		}
		return p.errorf("expected %q", s)
	}
	p.pos += len(s)
	return nil
}

func (p *parser) term() (Term, error) {
	p.skipSpace()
	c := p.peek()
	switch {
	case c == 0:
		return nil, p.errorf("unexpected end of input")
	case c == '[':
		return p.list()
	case c == '{':
		p.pos++
		elems, err := p.seq('}')
		if err != nil {
			return nil, err
		}
		return Tuple(elems), nil
	case p.hasPrefix("#{"):
		return p.mapTerm()
	case p.hasPrefix("<<"):
		return p.binary()
	case c == '"':
		s, err := p.quoted('"')
		if err != nil {
			return nil, err
		}
		out := make(List, 0, len(s))
		for _, r := range s {
			out = append(out, Integer(r))
		}
		return out, nil
	case c == '\'':
		s, err := p.quoted('\'')
		if err != nil {
			return nil, err
		}
		return Atom(s), nil
	case c == '-' || c == '+' || isDigit(c):
		return p.number()
	case c >= 'a' && c <= 'z':
		start := p.pos
		for p.pos < len(p.src) && isAtomChar(p.src[p.pos]) {
			p.pos++
		}
		return Atom(p.src[start:p.pos]), nil
	}
	return nil, p.errorf("unexpected %q", string(c))
}

// seq reads comma separated terms up to the closing byte, which is consumed.
func (p *parser) seq(closing byte) ([]Term, error) {
	elems := []Term{}
	p.skipSpace()
	if p.peek() == closing {
		p.pos++
		return elems, nil
	}
	for {
		t, err := p.term()
		if err != nil {
			return nil, err
		}
		elems = append(elems, t)
		p.skipSpace()
		switch p.peek() {
		case ',':
			p.pos++
		case closing:
			p.pos++
			return elems, nil
		default:
			return nil, p.errorf("expected ',' or %q", string(closing))
		}
	}
}

func (p *parser) list() (Term, error) {
	p.pos++ // '['
	elems := List{}
	p.skipSpace()
	if p.peek() == ']' {
		p.pos++
		return elems, nil
	}
	for {
		t, err := p.term()
		if err != nil {
			return nil, err
		}
		elems = append(elems, t)
		p.skipSpace()
		switch p.peek() {
		case ',':
			p.pos++
		case ']':
			p.pos++
			return elems, nil
		case '|':
			p.pos++
			tail, err := p.term()
			if err != nil {
				return nil, err
			}
			if err := p.expect("]"); err != nil {
				return nil, err
			}
			// [a|[b]] is the proper list [a,b].
			switch tl := tail.(type) {
			case List:
				return append(elems, tl...), nil
			case ImproperList:
				return ImproperList{Elems: append(elems, tl.Elems...), Tail: tl.Tail}, nil
			}
			return ImproperList{Elems: elems, Tail: tail}, nil
		default:
			return nil, p.errorf("expected ',', '|' or ']'")
		}
	}
}

func (p *parser) mapTerm() (Term, error) {
	p.pos += 2 // "#{"
	var keys, values []Term
	p.skipSpace()
	if p.peek() == '}' {
		p.pos++
		m, _ := MapFromArrays(nil, nil)
		return m, nil
	}
	for {
		k, err := p.term()
		if err != nil {
			return nil, err
		}
		if err := p.expect("=>"); err != nil {
			return nil, err
		}
		v, err := p.term()
		if err != nil {
			return nil, err
		}
		keys = append(keys, k)
		values = append(values, v)
		p.skipSpace()
		switch p.peek() {
		case ',':
			p.pos++
			continue
		case '}':
			p.pos++
		default:
			return nil, p.errorf("expected ',' or '}'")
		}
		break
	}
	m, ok := MapFromArrays(keys, values)
	if !ok {
		return nil, p.errorf("duplicate map key")
	}
	return m, nil
}

func (p *parser) binary() (Term, error) {
	p.pos += 2 // "<<"
	out := Binary{}
	p.skipSpace()
	if p.hasPrefix(">>") {
		p.pos += 2
		return out, nil
	}
	for {
		p.skipSpace()
		switch c := p.peek(); {
		case c == '"':
			s, err := p.quoted('"')
			if err != nil {
				return nil, err
			}
			out = append(out, s...)
		case isDigit(c):
			start := p.pos
			for p.pos < len(p.src) && isDigit(p.src[p.pos]) {
				p.pos++
			}
			n, err := strconv.ParseUint(p.src[start:p.pos], 10, 64)
			if err != nil {
				return nil, p.errorf("bad byte %q", p.src[start:p.pos])
			}
			// segments are 8 bits wide and wrap like the host's
			out = append(out, byte(n))
		default:
			return nil, p.errorf("expected string or byte in binary")
		}
		p.skipSpace()
		if p.peek() == ',' {
			p.pos++
			continue
		}
		if err := p.expect(">>"); err != nil {
			return nil, err
		}
		return out, nil
	}
}

func (p *parser) quoted(q byte) (string, error) {
	p.pos++ // opening quote
	var b strings.Builder
	for p.pos < len(p.src) {
		c := p.src[p.pos]
		switch {
		case c == q:
			p.pos++
			return b.String(), nil
		case c == '\\':
			p.pos++
			if p.pos >= len(p.src) {
				return "", p.errorf("unterminated escape")
			}
			switch e := p.src[p.pos]; e {
			case 'n':
				b.WriteByte('\n')
			case 't':
				b.WriteByte('\t')
			case 'r':
				b.WriteByte('\r')
			case '0':
				b.WriteByte(0)
			default:
				b.WriteByte(e)
			}
			p.pos++
		default:
			b.WriteByte(c)
			p.pos++
		}
	}
	return "", p.errorf("unterminated %c", q)
}

func (p *parser) number() (Term, error) {
	start := p.pos
	if c := p.peek(); c == '-' || c == '+' {
		p.pos++
	}
	digits := p.pos
	for p.pos < len(p.src) && isDigit(p.src[p.pos]) {
		p.pos++
	}
	if p.pos == digits {
		return nil, p.errorf("expected digits")
	}
	isFloat := false
	if p.peek() == '.' && p.pos+1 < len(p.src) && isDigit(p.src[p.pos+1]) {
		isFloat = true
		p.pos++
		for p.pos < len(p.src) && isDigit(p.src[p.pos]) {
			p.pos++
		}
		if c := p.peek(); c == 'e' || c == 'E' {
			p.pos++
			if c := p.peek(); c == '-' || c == '+' {
				p.pos++
			}
			exp := p.pos
			for p.pos < len(p.src) && isDigit(p.src[p.pos]) {
				p.pos++
			}
			if p.pos == exp {
				return nil, p.errorf("expected exponent digits")
			}
		}
	}
	text := p.src[start:p.pos]
	if isFloat {
		f, err := strconv.ParseFloat(text, 64)
		if err != nil || math.IsInf(f, 0) {
			return nil, p.errorf("float %s out of range", text)
		}
		return Float(f), nil
	}
	n, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		return nil, p.errorf("integer %s out of range", text)
	}
	return Integer(n), nil
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }
