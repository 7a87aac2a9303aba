package expr

// Equal reports whether a and b have the same structure and values.
// Linkage tags and the implicit flag of multiplications are ignored.
func Equal(a, b Node) bool {
	switch x := a.(type) {
	case *Number:
		y, ok := b.(*Number)
		return ok && x.Value.Cmp(y.Value) == 0
	case *Symbol:
		y, ok := b.(*Symbol)
		return ok && x.Name == y.Name
	case *UnaryMinus:
		y, ok := b.(*UnaryMinus)
		return ok && Equal(x.Operand, y.Operand)
	case *Parenthesis:
		y, ok := b.(*Parenthesis)
		return ok && Equal(x.Inner, y.Inner)
	case *BinaryOp:
		y, ok := b.(*BinaryOp)
		return ok && x.Op == y.Op && Equal(x.Left, y.Left) && Equal(x.Right, y.Right)
	}
	return false
}

// EqualUnparen is Equal after stripping enclosing parentheses from both
// sides, so "(x + 1)" matches "x + 1".
func EqualUnparen(a, b Node) bool { return Equal(Unparen(a), Unparen(b)) }

// Index returns the position of the first node in list equal to n, or -1.
func Index(list []Node, n Node) int {
	for i, m := range list {
		if Equal(m, n) {
			return i
		}
	}
	return -1
}
