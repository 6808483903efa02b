package cypher

import (
	"github.com/orneryd/graphexec/pkg/binding"
	"github.com/orneryd/graphexec/pkg/exec"
	"github.com/orneryd/graphexec/pkg/expr"
	"github.com/orneryd/graphexec/pkg/qerr"
)

type condOp int

const (
	condOr condOp = iota
	condAnd
	condNot
	condEq
	condNeq
	condIn
	condNotIn
	condOperand
)

// condition is the parsed WHERE tree. Leaves are operands: a variable, a
// property read or a literal.
type condition struct {
	op       condOp
	children []*condition
	list     []*condition

	item    *returnItem
	literal binding.Value
}

func (p *parser) parseOr() (*condition, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	c := &condition{op: condOr, children: []*condition{left}}
	for p.accept("OR") {
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		c.children = append(c.children, right)
	}
	if len(c.children) == 1 {
		return left, nil
	}
	return c, nil
}

func (p *parser) parseAnd() (*condition, error) {
	left, err := p.parseNot()
	if err != nil {
		return nil, err
	}
	c := &condition{op: condAnd, children: []*condition{left}}
	for p.accept("AND") {
		right, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		c.children = append(c.children, right)
	}
	if len(c.children) == 1 {
		return left, nil
	}
	return c, nil
}

func (p *parser) parseNot() (*condition, error) {
	if p.accept("NOT") {
		inner, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		return &condition{op: condNot, children: []*condition{inner}}, nil
	}
	return p.parseComparison()
}

func (p *parser) parseComparison() (*condition, error) {
	if p.accept("(") {
		c, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		return c, p.expect(")")
	}
	left, err := p.parseOperand()
	if err != nil {
		return nil, err
	}
	switch {
	case p.accept("="):
		right, err := p.parseOperand()
		if err != nil {
			return nil, err
		}
		return &condition{op: condEq, children: []*condition{left, right}}, nil
	case p.accept("<>"):
		right, err := p.parseOperand()
		if err != nil {
			return nil, err
		}
		return &condition{op: condNeq, children: []*condition{left, right}}, nil
	case p.peek().is("NOT") && p.peekAt(1).is("IN"):
		p.advance()
		p.advance()
		list, err := p.parseList()
		if err != nil {
			return nil, err
		}
		return &condition{op: condNotIn, children: []*condition{left}, list: list}, nil
	case p.accept("IN"):
		list, err := p.parseList()
		if err != nil {
			return nil, err
		}
		return &condition{op: condIn, children: []*condition{left}, list: list}, nil
	}
	return left, nil
}

func (p *parser) parseList() ([]*condition, error) {
	if err := p.expect("["); err != nil {
		return nil, err
	}
	var list []*condition
	if p.accept("]") {
		return list, nil
	}
	for {
		c, err := p.parseOperand()
		if err != nil {
			return nil, err
		}
		list = append(list, c)
		if !p.accept(",") {
			break
		}
	}
	return list, p.expect("]")
}

func (p *parser) parseOperand() (*condition, error) {
	t := p.peek()
	if t.kind == tokIdent && !t.is("true") && !t.is("false") && !t.is("null") {
		p.advance()
		it := &returnItem{variable: t.text}
		if p.accept(".") {
			key, err := p.ident()
			if err != nil {
				return nil, err
			}
			it.key = key
		}
		return &condition{op: condOperand, item: it}, nil
	}
	negative := p.accept("-")
	v, err := literal(p.advance(), negative)
	if err != nil {
		return nil, err
	}
	return &condition{op: condOperand, literal: v}, nil
}

// build turns the condition into an expression over the plan's variables.
func (c *condition) build(reg *binding.Registry, types map[string]exec.VarKind, reader expr.PropertyReader) (expr.Expression, error) {
	buildAll := func(cs []*condition) ([]expr.Expression, error) {
		out := make([]expr.Expression, len(cs))
		for i, child := range cs {
			e, err := child.build(reg, types, reader)
			if err != nil {
				return nil, err
			}
			out[i] = e
		}
		return out, nil
	}

	switch c.op {
	case condOperand:
		if c.item == nil {
			return expr.Const{Value: c.literal}, nil
		}
		h, ok := reg.Lookup(c.item.variable)
		if _, declared := types[c.item.variable]; !ok || !declared {
			return nil, qerr.Parse(opCompile, nil, "variable %q not defined", c.item.variable)
		}
		var e expr.Expression = expr.Var{Handle: h}
		if c.item.key != "" {
			e = expr.Property{Of: e, Key: c.item.key, Reader: reader}
		}
		return e, nil
	}

	children, err := buildAll(c.children)
	if err != nil {
		return nil, err
	}
	switch c.op {
	case condOr:
		return expr.NewOr(children...), nil
	case condAnd:
		return expr.NewAnd(children...), nil
	case condNot:
		return expr.Not{Operand: children[0]}, nil
	case condEq:
		return expr.Equals{Left: children[0], Right: children[1]}, nil
	case condNeq:
		return expr.Not{Operand: expr.Equals{Left: children[0], Right: children[1]}}, nil
	}

	list, err := buildAll(c.list)
	if err != nil {
		return nil, err
	}
	if c.op == condIn {
		return expr.In{LHS: children[0], RHS: list}, nil
	}
	return expr.NotIn{LHS: children[0], RHS: list}, nil
}
