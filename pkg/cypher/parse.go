package cypher

import (
	"github.com/orneryd/graphexec/pkg/qerr"
)

type parser struct {
	toks []token
	pos  int
}

func (p *parser) peek() token { return p.toks[p.pos] }

func (p *parser) peekAt(n int) token {
	if p.pos+n >= len(p.toks) {
		return p.toks[len(p.toks)-1]
	}
	return p.toks[p.pos+n]
}

func (p *parser) advance() token {
	t := p.toks[p.pos]
	if t.kind != tokEOF {
		p.pos++
	}
	return t
}

// accept consumes the next token if it is s.
func (p *parser) accept(s string) bool {
	if p.peek().is(s) {
		p.pos++
		return true
	}
	return false
}

func (p *parser) expect(s string) error {
	if p.accept(s) {
		return nil
	}
	return p.errorf("expected %q", s)
}

func (p *parser) errorf(format string, args ...any) error {
	t := p.peek()
	found := t.text
	if t.kind == tokEOF {
		found = "end of input"
	}
	return qerr.Parse(opCompile, nil, format+" at offset %d, found %q", append(args, t.pos, found)...)
}

func (p *parser) ident() (string, error) {
	t := p.peek()
	if t.kind != tokIdent {
		return "", p.errorf("expected identifier")
	}
	p.pos++
	return t.text, nil
}

// parseQuery parses MATCH pattern [WHERE cond] RETURN items [;].
func (p *parser) parseQuery() (*query, error) {
	if err := p.expect("MATCH"); err != nil {
		return nil, err
	}
	q := &query{}
	var err error
	if q.src, err = p.parseNode(); err != nil {
		return nil, err
	}
	if p.peek().is("-") {
		p.advance()
		if err := p.expect("["); err != nil {
			return nil, err
		}
		if q.rel, err = p.parseElement("]"); err != nil {
			return nil, err
		}
		for _, s := range []string{"]", "-", ">"} {
			if err := p.expect(s); err != nil {
				return nil, err
			}
		}
		if q.dst, err = p.parseNode(); err != nil {
			return nil, err
		}
		q.hasRel = true
	}
	if p.accept("WHERE") {
		if q.where, err = p.parseOr(); err != nil {
			return nil, err
		}
	}
	if err := p.expect("RETURN"); err != nil {
		return nil, err
	}
	for {
		it, err := p.parseItem()
		if err != nil {
			return nil, err
		}
		q.items = append(q.items, it)
		if !p.accept(",") {
			break
		}
	}
	p.accept(";")
	if p.peek().kind != tokEOF {
		return nil, p.errorf("unsupported clause")
	}
	return q, nil
}

func (p *parser) parseNode() (nodePattern, error) {
	if err := p.expect("("); err != nil {
		return nodePattern{}, err
	}
	n, err := p.parseElement(")")
	if err != nil {
		return nodePattern{}, err
	}
	return n, p.expect(")")
}

// parseElement reads [variable][:Name] up to the closing token.
func (p *parser) parseElement(closing string) (nodePattern, error) {
	var n nodePattern
	if p.peek().kind == tokIdent {
		n.variable = p.advance().text
	}
	if p.accept(":") {
		name, err := p.ident()
		if err != nil {
			return n, err
		}
		n.label = name
	}
	if !p.peek().is(closing) {
		return n, p.errorf("expected %q", closing)
	}
	return n, nil
}

func (p *parser) parseItem() (returnItem, error) {
	v, err := p.ident()
	if err != nil {
		return returnItem{}, err
	}
	it := returnItem{variable: v}
	if p.accept(".") {
		if it.key, err = p.ident(); err != nil {
			return it, err
		}
	}
	if p.accept("AS") {
		if it.alias, err = p.ident(); err != nil {
			return it, err
		}
	}
	return it, nil
}
