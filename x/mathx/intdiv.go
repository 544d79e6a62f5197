package mathx

import (
	"errors"
	"math/bits"

	"golang.org/x/exp/constraints"
)

// ErrOverflow is returned when a quotient does not fit the result type.
var ErrOverflow = errors.New("mathx: overflow")

// ErrDivZero is returned for a zero divisor.
var ErrDivZero = errors.New("mathx: division by zero")

// GCD returns the greatest common divisor of a and b. GCD(0, 0) is 0.
func GCD[T constraints.Unsigned](a, b T) T {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}

// MulDiv returns floor(a*b/c) with a 128-bit intermediate product.
func MulDiv(a, b, c uint64) (uint64, error) {
	if c == 0 {
		return 0, ErrDivZero
	}
	hi, lo := bits.Mul64(a, b)
	if hi >= c {
		return 0, ErrOverflow
	}
	q, _ := bits.Div64(hi, lo, c)
	return q, nil
}
