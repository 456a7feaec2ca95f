package ilp

import (
	"math/big"
	"strings"

	"github.com/pkg/errors"
)

// Fraction is an immutable exact rational number.
// The zero value represents 0. Operations never modify their operands.
type Fraction struct {
	r *big.Rat
}

var (
	zeroRat = new(big.Rat)
	oneRat  = big.NewRat(1, 1)
)

// NewFraction returns num/den. It panics if den is 0.
func NewFraction(num, den int64) Fraction {
	if den == 0 {
		panic("ilp: fraction with zero denominator")
	}
	return Fraction{r: big.NewRat(num, den)}
}

// FractionFromInt returns the integer i as a Fraction.
func FractionFromInt(i int64) Fraction {
	return Fraction{r: new(big.Rat).SetInt64(i)}
}

// FractionFromRat copies r into a Fraction.
func FractionFromRat(r *big.Rat) Fraction {
	return Fraction{r: new(big.Rat).Set(r)}
}

// ParseFraction parses "a", "a/b" or a decimal such as "1.25".
func ParseFraction(s string) (Fraction, error) {
	r, ok := new(big.Rat).SetString(strings.TrimSpace(s))
	if !ok {
		return Fraction{}, errors.Errorf("ilp: cannot parse fraction %q", s)
	}
	return Fraction{r: r}, nil
}

// wrap takes ownership of r.
func wrap(r *big.Rat) Fraction {
	return Fraction{r: r}
}

func (f Fraction) rat() *big.Rat {
	if f.r == nil {
		return zeroRat
	}
	return f.r
}

// Rat returns a copy of the underlying rational.
func (f Fraction) Rat() *big.Rat {
	return new(big.Rat).Set(f.rat())
}

func (f Fraction) Add(o Fraction) Fraction {
	return wrap(new(big.Rat).Add(f.rat(), o.rat()))
}

func (f Fraction) Sub(o Fraction) Fraction {
	return wrap(new(big.Rat).Sub(f.rat(), o.rat()))
}

func (f Fraction) Mul(o Fraction) Fraction {
	return wrap(new(big.Rat).Mul(f.rat(), o.rat()))
}

// Div returns f/o. It panics if o is zero.
func (f Fraction) Div(o Fraction) Fraction {
	if o.IsZero() {
		panic("ilp: division by zero fraction")
	}
	return wrap(new(big.Rat).Quo(f.rat(), o.rat()))
}

func (f Fraction) Neg() Fraction {
	return wrap(new(big.Rat).Neg(f.rat()))
}

// Cmp compares f and o and returns -1, 0 or +1.
func (f Fraction) Cmp(o Fraction) int {
	return f.rat().Cmp(o.rat())
}

func (f Fraction) Sign() int {
	return f.rat().Sign()
}

func (f Fraction) IsZero() bool {
	return f.Sign() == 0
}

func (f Fraction) IsInteger() bool {
	return f.rat().IsInt()
}

// Floor returns the largest integer not greater than f.
func (f Fraction) Floor() Fraction {
	return wrap(new(big.Rat).SetInt(floorRat(f.rat())))
}

// Int returns f as an integer, or ErrNotInteger if its denominator is not 1.
func (f Fraction) Int() (*big.Int, error) {
	if !f.IsInteger() {
		return nil, errors.Wrapf(ErrNotInteger, "value %s", f)
	}
	return new(big.Int).Set(f.rat().Num()), nil
}

// Float64 returns the nearest float64 value. Only meant for display.
func (f Fraction) Float64() float64 {
	v, _ := f.rat().Float64()
	return v
}

func (f Fraction) String() string {
	return f.rat().RatString()
}

func floorRat(r *big.Rat) *big.Int {
	// big.Int.Div is Euclidean, which floors for the positive denominators big.Rat keeps.
	return new(big.Int).Div(r.Num(), r.Denom())
}
