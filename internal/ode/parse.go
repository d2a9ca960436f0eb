package ode

import (
	"fmt"
	"strconv"
	"strings"
)

// builtins are identifiers an expression may reference without a
// declaration. Only the simulation time is predefined.
var builtins = map[string]bool{"time": true}

// mathFuncs are the call targets the expression grammar accepts.
var mathFuncs = map[string]bool{
	"exp": true, "ln": true, "log": true, "sqrt": true, "Abs": true,
	"Conditional": true, "Ge": true, "Gt": true, "Le": true, "Lt": true,
	"And": true, "Or": true, "Not": true,
}

type logicalLine struct {
	text string
	line int
}

// Parse parses gotran ODE source into a Model named name.
func Parse(name, src string) (*Model, error) {
	lines, err := splitLogical(src)
	if err != nil {
		return nil, err
	}

	m := &Model{Name: name}
	component := ""

	for _, ll := range lines {
		toks, err := lexLine(ll.text, ll.line)
		if err != nil {
			return nil, err
		}
		if len(toks) == 0 {
			continue
		}

		p := &parser{toks: toks, line: ll.line}
		head := toks[0]
		switch {
		case head.kind == tokIdent && len(toks) > 1 && toks[1].text == "(" &&
			(head.text == "parameters" || head.text == "states" || head.text == "expressions"):
			err = p.statement(m, &component)
		case head.kind == tokIdent && len(toks) > 1 && toks[1].text == "=":
			err = p.assignment(m, component)
		default:
			err = fmt.Errorf("line %d: unrecognized statement starting with %q", ll.line, head.text)
		}
		if err != nil {
			return nil, err
		}
	}

	if err := m.checkReferences(); err != nil {
		return nil, err
	}
	return m, nil
}

// splitLogical joins physical lines into statements: comments are removed,
// and a statement continues while parentheses remain open or the line ends
// with a backslash.
func splitLogical(src string) ([]logicalLine, error) {
	var out []logicalLine
	var buf strings.Builder
	depth, start := 0, 0

	flush := func(line int) {
		text := strings.TrimSpace(buf.String())
		buf.Reset()
		if text != "" {
			out = append(out, logicalLine{text, line})
		}
	}

	for i, raw := range strings.Split(src, "\n") {
		lineno := i + 1
		if buf.Len() == 0 {
			start = lineno
		}
		line := stripComment(raw)
		cont := strings.HasSuffix(line, "\\")
		if cont {
			line = line[:len(line)-1]
		}
		var quote byte
		for j := 0; j < len(line); j++ {
			c := line[j]
			switch {
			case quote != 0:
				if c == quote {
					quote = 0
				}
			case c == '"' || c == '\'':
				quote = c
			case c == '(':
				depth++
			case c == ')':
				depth--
				if depth < 0 {
					return nil, fmt.Errorf("line %d: unbalanced parenthesis", lineno)
				}
			}
		}
		if quote != 0 {
			return nil, fmt.Errorf("line %d: unterminated string", lineno)
		}
		buf.WriteString(line)
		if cont || depth > 0 {
			buf.WriteString(" ")
			continue
		}
		flush(start)
	}
	if depth > 0 {
		return nil, fmt.Errorf("line %d: statement ends with unclosed parenthesis", start)
	}
	flush(start)
	return out, nil
}

// stripComment drops everything from an unquoted '#' onwards.
func stripComment(line string) string {
	var quote byte
	for i := 0; i < len(line); i++ {
		c := line[i]
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case c == '"' || c == '\'':
			quote = c
		case c == '#':
			return line[:i]
		}
	}
	return line
}

type parser struct {
	toks []token
	pos  int
	line int
}

func (p *parser) peek() token {
	if p.pos < len(p.toks) {
		return p.toks[p.pos]
	}
	return token{kind: tokEOF}
}

func (p *parser) next() token {
	t := p.peek()
	p.pos++
	return t
}

func (p *parser) expectOp(op string) error {
	if t := p.next(); t.kind != tokOp || t.text != op {
		return fmt.Errorf("line %d: expected %q, found %q", p.line, op, t.text)
	}
	return nil
}

// statement handles parameters(...), states(...) and expressions(...).
func (p *parser) statement(m *Model, component *string) error {
	kind := p.next().text
	if err := p.expectOp("("); err != nil {
		return err
	}

	comp := *component
	if p.peek().kind == tokString {
		comp = p.next().text
		if kind == "expressions" {
			if err := p.expectOp(")"); err != nil {
				return err
			}
			*component = comp
			return nil
		}
		if err := p.expectOp(","); err != nil {
			return err
		}
	} else if kind == "expressions" {
		return fmt.Errorf("line %d: expressions() requires a component name", p.line)
	}

	for {
		nameTok := p.next()
		if nameTok.kind != tokIdent {
			return fmt.Errorf("line %d: expected name in %s(), found %q", p.line, kind, nameTok.text)
		}
		if err := p.expectOp("="); err != nil {
			return err
		}
		raw, value, unit, err := p.value()
		if err != nil {
			return err
		}

		if _, dup := m.State(nameTok.text); dup {
			return fmt.Errorf("line %d: %q already declared as a state", p.line, nameTok.text)
		}
		if _, dup := m.Param(nameTok.text); dup {
			return fmt.Errorf("line %d: %q already declared as a parameter", p.line, nameTok.text)
		}

		if kind == "states" {
			m.States = append(m.States, State{Name: nameTok.text, Init: value, Raw: raw, Component: comp})
		} else {
			m.Parameters = append(m.Parameters, Param{Name: nameTok.text, Value: value, Raw: raw, Unit: unit, Component: comp})
		}

		switch t := p.next(); {
		case t.kind == tokOp && t.text == ",":
			continue
		case t.kind == tokOp && t.text == ")":
			return nil
		default:
			return fmt.Errorf("line %d: expected \",\" or \")\" in %s(), found %q", p.line, kind, t.text)
		}
	}
}

// value parses a numeric literal or a ScalarParam(...) wrapper.
func (p *parser) value() (raw string, value float64, unit string, err error) {
	if t := p.peek(); t.kind == tokIdent && t.text == "ScalarParam" {
		p.next()
		if err = p.expectOp("("); err != nil {
			return
		}
		raw, value, err = p.number()
		if err != nil {
			return
		}
		for p.peek().kind == tokOp && p.peek().text == "," {
			p.next()
			kw := p.next()
			if kw.kind != tokIdent {
				err = fmt.Errorf("line %d: expected keyword in ScalarParam, found %q", p.line, kw.text)
				return
			}
			if err = p.expectOp("="); err != nil {
				return
			}
			arg := p.next()
			if kw.text == "unit" && arg.kind == tokString {
				unit = arg.text
			}
		}
		err = p.expectOp(")")
		return
	}
	raw, value, err = p.number()
	return
}

func (p *parser) number() (string, float64, error) {
	neg := false
	if t := p.peek(); t.kind == tokOp && (t.text == "-" || t.text == "+") {
		neg = t.text == "-"
		p.next()
	}
	t := p.next()
	if t.kind != tokNumber {
		return "", 0, fmt.Errorf("line %d: expected number, found %q", p.line, t.text)
	}
	raw := t.text
	if neg {
		raw = "-" + raw
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return "", 0, fmt.Errorf("line %d: invalid number %q", p.line, raw)
	}
	return raw, v, nil
}

// assignment handles "name = expr" and "dX_dt = expr" lines.
func (p *parser) assignment(m *Model, component string) error {
	name := p.next().text
	p.next() // "="

	rhs, err := p.expr(1)
	if err != nil {
		return err
	}
	if t := p.peek(); t.kind != tokEOF {
		return fmt.Errorf("line %d: unexpected %q after expression", p.line, t.text)
	}

	deriv := false
	target := name
	if s, ok := strings.CutPrefix(name, "d"); ok {
		if s, ok := strings.CutSuffix(s, "_dt"); ok && s != "" {
			if _, declared := m.State(s); !declared {
				return fmt.Errorf("line %d: derivative %q of undeclared state %q", p.line, name, s)
			}
			deriv = true
			target = s
		}
	}

	if deriv {
		if _, dup := m.DerivativeOf(target); dup {
			return fmt.Errorf("line %d: duplicate derivative for state %q", p.line, target)
		}
	} else {
		if _, dup := m.Intermediate(name); dup {
			return fmt.Errorf("line %d: %q assigned twice", p.line, name)
		}
		if _, dup := m.State(name); dup {
			return fmt.Errorf("line %d: cannot assign to state %q", p.line, name)
		}
		if _, dup := m.Param(name); dup {
			return fmt.Errorf("line %d: cannot assign to parameter %q", p.line, name)
		}
	}

	m.Expressions = append(m.Expressions, Expression{
		Name:      target,
		Deriv:     deriv,
		RHS:       rhs,
		Component: component,
		Line:      p.line,
	})
	return nil
}

// Operator precedence levels. Power is right-associative and binds inside
// a unary minus, matching the source language.
const (
	precAdd   = 1
	precMul   = 2
	precUnary = 3
	precPow   = 4
)

func opPrec(op string) int {
	switch op {
	case "+", "-":
		return precAdd
	case "*", "/":
		return precMul
	case "**":
		return precPow
	}
	return 0
}

func (p *parser) expr(minPrec int) (Expr, error) {
	lhs, err := p.unary()
	if err != nil {
		return nil, err
	}
	for {
		t := p.peek()
		if t.kind != tokOp {
			break
		}
		prec := opPrec(t.text)
		if prec == 0 || prec < minPrec {
			break
		}
		p.next()
		next := prec + 1
		if t.text == "**" {
			next = prec // right-associative
		}
		rhs, err := p.expr(next)
		if err != nil {
			return nil, err
		}
		lhs = &Binary{Op: t.text, X: lhs, Y: rhs}
	}
	return lhs, nil
}

func (p *parser) unary() (Expr, error) {
	if t := p.peek(); t.kind == tokOp && t.text == "-" {
		p.next()
		x, err := p.expr(precUnary)
		if err != nil {
			return nil, err
		}
		return &Unary{Op: "-", X: x}, nil
	}
	if t := p.peek(); t.kind == tokOp && t.text == "+" {
		p.next()
		return p.expr(precUnary)
	}
	return p.primary()
}

func (p *parser) primary() (Expr, error) {
	t := p.next()
	switch {
	case t.kind == tokNumber:
		v, err := strconv.ParseFloat(t.text, 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid number %q", p.line, t.text)
		}
		return &Num{Raw: t.text, Value: v}, nil
	case t.kind == tokIdent:
		if p.peek().kind == tokOp && p.peek().text == "(" {
			if !mathFuncs[t.text] {
				return nil, fmt.Errorf("line %d: unknown function %q", p.line, t.text)
			}
			p.next()
			var args []Expr
			if !(p.peek().kind == tokOp && p.peek().text == ")") {
				for {
					a, err := p.expr(1)
					if err != nil {
						return nil, err
					}
					args = append(args, a)
					if p.peek().kind == tokOp && p.peek().text == "," {
						p.next()
						continue
					}
					break
				}
			}
			if err := p.expectOp(")"); err != nil {
				return nil, err
			}
			return &Call{Func: t.text, Args: args}, nil
		}
		return &Ident{Name: t.text}, nil
	case t.kind == tokOp && t.text == "(":
		e, err := p.expr(1)
		if err != nil {
			return nil, err
		}
		if err := p.expectOp(")"); err != nil {
			return nil, err
		}
		return e, nil
	}
	return nil, fmt.Errorf("line %d: unexpected %q in expression", p.line, t.text)
}

// checkReferences verifies every identifier resolves to a state, parameter,
// builtin, or an intermediate defined on an earlier line. Forward references
// would produce generated code that reads a variable before assigning it.
func (m *Model) checkReferences() error {
	defined := map[string]bool{}
	for _, s := range m.States {
		defined[s.Name] = true
	}
	for _, p := range m.Parameters {
		defined[p.Name] = true
	}
	for _, e := range m.Expressions {
		for _, id := range Idents(e.RHS, nil) {
			if !defined[id] && !builtins[id] {
				return fmt.Errorf("line %d: reference to undefined symbol %q", e.Line, id)
			}
		}
		if !e.Deriv {
			defined[e.Name] = true
		}
	}
	for _, s := range m.States {
		if _, ok := m.DerivativeOf(s.Name); !ok {
			return fmt.Errorf("state %q has no derivative d%s_dt", s.Name, s.Name)
		}
	}
	return nil
}
