package expr

import (
	"fmt"
	"math"

	"github.com/randalmurphal/exprbind/pkg/exprbind/value"
)

// Binary applies a non-short-circuit binary operator to two evaluated
// operands. && and || are handled by the evaluator. Returns an error for
// unknown operators.
func Binary(op string, left, right any) (any, error) {
	switch op {
	case "+":
		return add(left, right), nil
	case "-":
		return value.ToNumber(left) - value.ToNumber(right), nil
	case "*":
		return value.ToNumber(left) * value.ToNumber(right), nil
	case "/":
		return value.ToNumber(left) / value.ToNumber(right), nil
	case "%":
		return math.Mod(value.ToNumber(left), value.ToNumber(right)), nil
	case "==":
		return value.LooseEqual(left, right), nil
	case "!=":
		return !value.LooseEqual(left, right), nil
	case "===":
		return value.StrictEqual(left, right), nil
	case "!==":
		return !value.StrictEqual(left, right), nil
	case "<":
		return compareLT(left, right), nil
	case "<=":
		return compareLTE(left, right), nil
	case ">":
		return compareLT(right, left), nil
	case ">=":
		return compareLTE(right, left), nil
	default:
		return nil, fmt.Errorf("unknown operator: %s", op)
	}
}

// Unary applies a prefix operator.
func Unary(op string, operand any) (any, error) {
	switch op {
	case "!":
		return !value.IsTruthy(operand), nil
	case "-":
		return -value.ToNumber(operand), nil
	case "+":
		return value.ToNumber(operand), nil
	default:
		return nil, fmt.Errorf("unknown operator: %s", op)
	}
}

// add concatenates when either primitive operand is a string and adds
// numerically otherwise.
func add(left, right any) any {
	l, r := value.ToPrimitive(left), value.ToPrimitive(right)
	if value.KindOf(l) == value.KindString || value.KindOf(r) == value.KindString {
		return value.ToString(l) + value.ToString(r)
	}
	return value.ToNumber(l) + value.ToNumber(r)
}

// compareLT reports left < right. Unordered operands compare false.
func compareLT(left, right any) bool {
	c, ok := value.Compare(left, right)
	return ok && c < 0
}

// compareLTE reports left <= right. Unordered operands compare false.
func compareLTE(left, right any) bool {
	c, ok := value.Compare(left, right)
	return ok && c <= 0
}
