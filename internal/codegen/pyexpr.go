package codegen

import (
	"fmt"
	"strings"

	"github.com/cellmlab/cellgen/internal/ode"
)

// Target-language precedence levels used to decide parenthesization.
const (
	precAdd   = 1
	precMul   = 2
	precUnary = 3
	precAtom  = 9
)

// ufl spellings for the math functions the ODE grammar accepts.
var uflFuncs = map[string]string{
	"exp":         "ufl.exp",
	"ln":          "ufl.ln",
	"log":         "ufl.ln",
	"sqrt":        "ufl.sqrt",
	"Abs":         "abs",
	"Conditional": "ufl.conditional",
	"Ge":          "ufl.ge",
	"Gt":          "ufl.gt",
	"Le":          "ufl.le",
	"Lt":          "ufl.lt",
	"And":         "ufl.And",
	"Or":          "ufl.Or",
	"Not":         "ufl.Not",
}

// pyExpr renders an expression tree as Python source using ufl calls for
// the math functions.
func pyExpr(e ode.Expr) string {
	s, _ := render(e)
	return s
}

func render(e ode.Expr) (string, int) {
	switch n := e.(type) {
	case *ode.Num:
		return n.Raw, precAtom
	case *ode.Ident:
		return n.Name, precAtom
	case *ode.Unary:
		x := renderAt(n.X, precUnary)
		return "-" + x, precUnary
	case *ode.Binary:
		return renderBinary(n)
	case *ode.Call:
		args := make([]string, len(n.Args))
		for i, a := range n.Args {
			args[i], _ = render(a)
		}
		name := uflFuncs[n.Func]
		if name == "" {
			name = n.Func
		}
		return fmt.Sprintf("%s(%s)", name, strings.Join(args, ", ")), precAtom
	}
	return "", precAtom
}

func renderBinary(n *ode.Binary) (string, int) {
	if n.Op == "**" {
		return renderPow(n), precAtom
	}
	prec := precAdd
	op := " " + n.Op + " "
	if n.Op == "*" || n.Op == "/" {
		prec = precMul
		op = n.Op
	}
	lhs := renderAt(n.X, prec)
	rhsMin := prec
	if n.Op == "-" || n.Op == "/" {
		// Subtraction and division do not associate on the right.
		rhsMin = prec + 1
	}
	rhs := renderAt(n.Y, rhsMin)
	return lhs + op + rhs, prec
}

// renderPow expands small integer powers into products, the form the
// downstream form compiler handles best; everything else becomes elem_pow.
func renderPow(n *ode.Binary) string {
	if num, ok := n.Y.(*ode.Num); ok {
		k := int(num.Value)
		if float64(k) == num.Value && k >= 2 && k <= 4 {
			base := renderAt(n.X, precAtom)
			factors := make([]string, k)
			for i := range factors {
				factors[i] = base
			}
			return "(" + strings.Join(factors, "*") + ")"
		}
	}
	base, _ := render(n.X)
	exp, _ := render(n.Y)
	return fmt.Sprintf("ufl.elem_pow(%s, %s)", base, exp)
}

func renderAt(e ode.Expr, min int) string {
	s, p := render(e)
	if p < min {
		return "(" + s + ")"
	}
	return s
}
