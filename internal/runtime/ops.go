package runtime

import (
	"math"

	"quill-lang/internal/ast"
	"quill-lang/internal/span"
	"quill-lang/internal/token"
)

func (i *Interpreter) evalUnary(e *ast.Unary) (Value, error) {
	operand, err := i.evalExpr(e.Operand)
	if err != nil {
		return nil, err
	}

	switch e.Op {
	case token.MINUS:
		if n, ok := operand.(NumberVal); ok {
			return -n, nil
		}
		return nil, runtimeErr(ErrIncompatibleOperandTypes, e.GetSpan(), "operator '-' cannot be applied to %s", operand.TypeName())
	case token.BANG:
		return BoolVal(!IsTruthy(operand)), nil
	default:
		return nil, runtimeErr(nil, e.GetSpan(), "unknown unary operator '%s'", e.Op)
	}
}

// evalBinary evaluates both operands before applying the operator; && and
// || do not short-circuit.
func (i *Interpreter) evalBinary(e *ast.Binary) (Value, error) {
	left, err := i.evalExpr(e.Left)
	if err != nil {
		return nil, err
	}
	right, err := i.evalExpr(e.Right)
	if err != nil {
		return nil, err
	}
	return BinaryOp(e.Op, left, right, e.GetSpan())
}

// BinaryOp applies an infix operator. '+' concatenates when either side is a
// String; every other operator needs two Numbers or two Booleans. == and !=
// compare any two values.
func BinaryOp(op token.Kind, left, right Value, s span.Span) (Value, error) {
	switch op {
	case token.EQ:
		return BoolVal(ValuesEqual(left, right)), nil
	case token.NEQ:
		return BoolVal(!ValuesEqual(left, right)), nil
	case token.PLUS:
		_, ls := left.(StringVal)
		_, rs := right.(StringVal)
		if ls || rs {
			return StringVal(left.String() + right.String()), nil
		}
	}

	switch l := left.(type) {
	case NumberVal:
		if r, ok := right.(NumberVal); ok {
			return numberOp(op, l, r, s)
		}
	case BoolVal:
		if r, ok := right.(BoolVal); ok {
			return boolOp(op, l, r, s)
		}
	}
	return nil, incompatible(op, left, right, s)
}

// boolOp orders false before true.
func boolOp(op token.Kind, l, r BoolVal, s span.Span) (Value, error) {
	li, ri := boolRank(l), boolRank(r)
	switch op {
	case token.AND:
		return l && r, nil
	case token.OR:
		return l || r, nil
	case token.LT:
		return BoolVal(li < ri), nil
	case token.LTE:
		return BoolVal(li <= ri), nil
	case token.GT:
		return BoolVal(li > ri), nil
	case token.GTE:
		return BoolVal(li >= ri), nil
	}
	return nil, incompatible(op, l, r, s)
}

func boolRank(b BoolVal) int {
	if b {
		return 1
	}
	return 0
}

func numberOp(op token.Kind, l, r NumberVal, s span.Span) (Value, error) {
	switch op {
	case token.PLUS:
		return l + r, nil
	case token.MINUS:
		return l - r, nil
	case token.STAR:
		return l * r, nil
	case token.SLASH:
		if r == 0 {
			return nil, runtimeErr(ErrDivisionByZero, s, "division by zero")
		}
		return l / r, nil
	case token.PERCENT:
		if r == 0 {
			return nil, runtimeErr(ErrDivisionByZero, s, "modulo by zero")
		}
		return NumberVal(math.Mod(float64(l), float64(r))), nil
	case token.LT:
		return BoolVal(l < r), nil
	case token.LTE:
		return BoolVal(l <= r), nil
	case token.GT:
		return BoolVal(l > r), nil
	case token.GTE:
		return BoolVal(l >= r), nil
	case token.AND:
		return BoolVal(l != 0 && r != 0), nil
	case token.OR:
		return BoolVal(l != 0 || r != 0), nil
	}
	return nil, incompatible(op, l, r, s)
}

func incompatible(op token.Kind, left, right Value, s span.Span) error {
	return runtimeErr(ErrIncompatibleOperandTypes, s, "operator '%s' cannot combine %s and %s", op, left.TypeName(), right.TypeName())
}
