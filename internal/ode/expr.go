package ode

// Expr is a node in an expression syntax tree.
type Expr interface {
	isExpr()
}

// Num is a numeric literal. Raw preserves the spelling from the source
// (e.g. "3e-05") so generated code can reproduce it exactly.
type Num struct {
	Raw   string
	Value float64
}

// Ident references a state, parameter, intermediate expression, or the
// builtin time variable.
type Ident struct {
	Name string
}

// Unary is a prefix operation; Op is "-".
type Unary struct {
	Op string
	X  Expr
}

// Binary is an infix operation; Op is one of "+", "-", "*", "/", "**".
type Binary struct {
	Op   string
	X, Y Expr
}

// Call is a function application such as exp(x) or Conditional(c, a, b).
type Call struct {
	Func string
	Args []Expr
}

func (*Num) isExpr()    {}
func (*Ident) isExpr()  {}
func (*Unary) isExpr()  {}
func (*Binary) isExpr() {}
func (*Call) isExpr()   {}

// Idents appends the names referenced anywhere under e to dst, in
// left-to-right order and with duplicates.
func Idents(e Expr, dst []string) []string {
	switch n := e.(type) {
	case *Ident:
		dst = append(dst, n.Name)
	case *Unary:
		dst = Idents(n.X, dst)
	case *Binary:
		dst = Idents(n.X, dst)
		dst = Idents(n.Y, dst)
	case *Call:
		for _, a := range n.Args {
			dst = Idents(a, dst)
		}
	}
	return dst
}
