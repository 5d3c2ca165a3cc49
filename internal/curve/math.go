package curve

import (
	"errors"

	"github.com/holiman/uint256"
)

// Rounding selects the direction of the final division in MulDiv.
type Rounding int

const (
	RoundingDown Rounding = iota
	RoundingUp
)

var (
	ErrMulOverflow    = errors.New("math: multiplication overflow")
	ErrAddOverflow    = errors.New("math: addition overflow")
	ErrSubUnderflow   = errors.New("math: subtraction underflow")
	ErrDivisionByZero = errors.New("math: division by zero")
)

func add(x, y *uint256.Int) (*uint256.Int, error) {
	z, overflow := new(uint256.Int).AddOverflow(x, y)
	if overflow {
		return nil, ErrAddOverflow
	}
	return z, nil
}

func sub(x, y *uint256.Int) (*uint256.Int, error) {
	if y.Gt(x) {
		return nil, ErrSubUnderflow
	}
	return new(uint256.Int).Sub(x, y), nil
}

func mul(x, y *uint256.Int) (*uint256.Int, error) {
	z, overflow := new(uint256.Int).MulOverflow(x, y)
	if overflow {
		return nil, ErrMulOverflow
	}
	return z, nil
}

// mulDiv computes x*y/denominator with a 512-bit intermediate product, so the
// product itself can never wrap; only a result wider than 256 bits is an error.
func mulDiv(x, y, denominator *uint256.Int, rounding Rounding) (*uint256.Int, error) {
	if denominator.IsZero() {
		return nil, ErrDivisionByZero
	}
	z, overflow := new(uint256.Int).MulDivOverflow(x, y, denominator)
	if overflow {
		return nil, ErrMulOverflow
	}
	if rounding == RoundingUp {
		rem := new(uint256.Int).MulMod(x, y, denominator)
		if !rem.IsZero() {
			var carried bool
			z, carried = z.AddOverflow(z, one)
			if carried {
				return nil, ErrAddOverflow
			}
		}
	}
	return z, nil
}

// sqrt returns the floor of the square root of x. The floor direction is what
// keeps the quadratic solver from ever issuing token value the payment did
// not cover.
func sqrt(x *uint256.Int) *uint256.Int {
	return new(uint256.Int).Sqrt(x)
}
