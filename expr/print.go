package expr

import "strings"

// String prints n. It is the printer collaborator: diagnostics and
// snapshots only, never a basis for rewriting decisions.
func String(n Node) string {
	if n == nil {
		return ""
	}
	return n.String()
}

func (u *UnaryMinus) String() string {
	if u.Operand.Precedence() <= NegPrecedence {
		return "-(" + u.Operand.String() + ")"
	}
	return "-" + u.Operand.String()
}

// String prints the operation, adding parentheses wherever the operands
// bind more loosely than the operator requires.
func (b *BinaryOp) String() string {
	p := b.Precedence()
	left, right := b.Left.String(), b.Right.String()
	lp, rp := b.Left.Precedence(), b.Right.Precedence()

	if b.Op == Pow {
		if lp <= p {
			left = "(" + left + ")"
		}
		if rp < NegPrecedence {
			right = "(" + right + ")"
		}
		return left + "^" + right
	}

	if lp < p {
		left = "(" + left + ")"
	}
	if rp < p || (rp == p && b.rightNeedsGrouping()) {
		right = "(" + right + ")"
	}

	switch b.Op {
	case Add, Sub:
		return left + " " + b.Op.String() + " " + right
	case Mul:
		if b.Implicit && !strings.HasPrefix(right, "-") {
			return left + " " + right
		}
	}
	return left + b.Op.String() + right
}

// rightNeedsGrouping reports whether a right operand of equal precedence
// changes meaning without parentheses.
func (b *BinaryOp) rightNeedsGrouping() bool {
	switch b.Op {
	case Sub, Div:
		return true
	case Mul:
		return IsOp(b.Right, Div)
	}
	return false
}
