package ilp

import (
	"math/big"
	"sort"
	"strings"

	"github.com/pkg/errors"
)

// DecisionVariable is a non-negative variable owned by a Model.
// Its id is the sole identity: tableaus and results refer to variables by id.
type DecisionVariable struct {
	id   int
	name string
}

func (v *DecisionVariable) ID() int {
	return v.id
}

func (v *DecisionVariable) Name() string {
	return v.name
}

// Term is a variable multiplied by a nonzero coefficient.
type Term struct {
	Variable    *DecisionVariable
	Coefficient Fraction
}

// Expression is an immutable linear combination of decision variables plus a constant.
// Terms are kept sorted by variable id and never carry a zero coefficient.
type Expression struct {
	terms    []Term
	constant Fraction
}

// Constant returns an expression without variables.
func Constant(f Fraction) Expression {
	return Expression{constant: f}
}

// ConstantInt returns the integer i as an expression.
func ConstantInt(i int64) Expression {
	return Constant(FractionFromInt(i))
}

func variableExpression(v *DecisionVariable) Expression {
	return Expression{terms: []Term{{Variable: v, Coefficient: FractionFromInt(1)}}}
}

// Terms returns a copy of the expression's terms in variable id order.
func (e Expression) Terms() []Term {
	out := make([]Term, len(e.terms))
	copy(out, e.terms)
	return out
}

func (e Expression) ConstantTerm() Fraction {
	return e.constant
}

// Coefficient returns the coefficient of v, zero if v does not occur.
func (e Expression) Coefficient(v *DecisionVariable) Fraction {
	i := sort.Search(len(e.terms), func(i int) bool { return e.terms[i].Variable.id >= v.id })
	if i < len(e.terms) && e.terms[i].Variable.id == v.id {
		return e.terms[i].Coefficient
	}
	return Fraction{}
}

func (e Expression) Variables() []*DecisionVariable {
	out := make([]*DecisionVariable, len(e.terms))
	for i, t := range e.terms {
		out[i] = t.Variable
	}
	return out
}

// IsConstant reports whether the expression has no variable terms.
func (e Expression) IsConstant() bool {
	return len(e.terms) == 0
}

// merge two sorted term lists, multiplying the second by factor. Cancelled terms are dropped.
func mergeTerms(a, b []Term, factor *big.Rat) []Term {
	out := make([]Term, 0, len(a)+len(b))
	i, j := 0, 0
	for i < len(a) || j < len(b) {
		switch {
		case j == len(b) || (i < len(a) && a[i].Variable.id < b[j].Variable.id):
			out = append(out, a[i])
			i++
		case i == len(a) || b[j].Variable.id < a[i].Variable.id:
			c := new(big.Rat).Mul(b[j].Coefficient.rat(), factor)
			if c.Sign() != 0 {
				out = append(out, Term{Variable: b[j].Variable, Coefficient: wrap(c)})
			}
			j++
		default:
			c := new(big.Rat).Mul(b[j].Coefficient.rat(), factor)
			c.Add(c, a[i].Coefficient.rat())
			if c.Sign() != 0 {
				out = append(out, Term{Variable: a[i].Variable, Coefficient: wrap(c)})
			}
			i++
			j++
		}
	}
	return out
}

func (e Expression) Add(o Expression) Expression {
	return Expression{
		terms:    mergeTerms(e.terms, o.terms, oneRat),
		constant: e.constant.Add(o.constant),
	}
}

func (e Expression) Sub(o Expression) Expression {
	return Expression{
		terms:    mergeTerms(e.terms, o.terms, big.NewRat(-1, 1)),
		constant: e.constant.Sub(o.constant),
	}
}

func (e Expression) AddFraction(f Fraction) Expression {
	return Expression{terms: e.terms, constant: e.constant.Add(f)}
}

func (e Expression) AddInt(i int64) Expression {
	return e.AddFraction(FractionFromInt(i))
}

// MulFraction multiplies every term and the constant by f.
func (e Expression) MulFraction(f Fraction) Expression {
	if f.IsZero() {
		return Expression{}
	}
	terms := make([]Term, len(e.terms))
	for i, t := range e.terms {
		terms[i] = Term{Variable: t.Variable, Coefficient: t.Coefficient.Mul(f)}
	}
	return Expression{terms: terms, constant: e.constant.Mul(f)}
}

func (e Expression) MulInt(i int64) Expression {
	return e.MulFraction(FractionFromInt(i))
}

// Mul multiplies two expressions. At least one of them must be constant,
// otherwise the product is not linear and Mul panics.
func (e Expression) Mul(o Expression) Expression {
	switch {
	case o.IsConstant():
		return e.MulFraction(o.constant)
	case e.IsConstant():
		return o.MulFraction(e.constant)
	}
	panic("ilp: product of two non-constant expressions is not linear")
}

// DivFraction divides every term and the constant by f.
func (e Expression) DivFraction(f Fraction) (Expression, error) {
	if f.IsZero() {
		return Expression{}, errors.WithStack(ErrDivisionByZero)
	}
	return e.MulFraction(wrap(new(big.Rat).Inv(f.rat()))), nil
}

// Div divides by a constant expression.
func (e Expression) Div(o Expression) (Expression, error) {
	if !o.IsConstant() {
		panic("ilp: division by a non-constant expression is not linear")
	}
	return e.DivFraction(o.constant)
}

func (e Expression) Neg() Expression {
	return e.MulFraction(FractionFromInt(-1))
}

// Eq returns the constraint e = o.
func (e Expression) Eq(o Expression) Constraint {
	return Constraint{expression: e.Sub(o), comparison: EQ}
}

// Lte returns the constraint e ≤ o.
func (e Expression) Lte(o Expression) Constraint {
	return Constraint{expression: e.Sub(o), comparison: LTE}
}

// Gte returns the constraint e ≥ o.
func (e Expression) Gte(o Expression) Constraint {
	return Constraint{expression: e.Sub(o), comparison: GTE}
}

// evaluate the expression given a value lookup by variable id
func (e Expression) evaluate(value func(id int) *big.Rat) Fraction {
	sum := new(big.Rat).Set(e.constant.rat())
	tmp := new(big.Rat)
	for _, t := range e.terms {
		v := value(t.Variable.id)
		if v == nil || v.Sign() == 0 {
			continue
		}
		sum.Add(sum, tmp.Mul(t.Coefficient.rat(), v))
	}
	return wrap(sum)
}

func (e Expression) String() string {
	var sb strings.Builder
	for i, t := range e.terms {
		c := t.Coefficient
		switch {
		case i == 0 && c.Sign() < 0:
			sb.WriteString("-")
		case i > 0 && c.Sign() < 0:
			sb.WriteString(" - ")
		case i > 0:
			sb.WriteString(" + ")
		}
		if abs := wrap(new(big.Rat).Abs(c.rat())); abs.Cmp(FractionFromInt(1)) != 0 {
			sb.WriteString(abs.String())
			sb.WriteString("*")
		}
		sb.WriteString(t.Variable.name)
	}
	switch {
	case len(e.terms) == 0:
		sb.WriteString(e.constant.String())
	case e.constant.Sign() > 0:
		sb.WriteString(" + " + e.constant.String())
	case e.constant.Sign() < 0:
		sb.WriteString(" - " + e.constant.Neg().String())
	}
	return sb.String()
}

// Comparison is the relation of a constraint's expression to zero.
type Comparison int

const (
	LTE Comparison = iota
	GTE
	EQ
)

func (c Comparison) String() string {
	switch c {
	case LTE:
		return "<="
	case GTE:
		return ">="
	case EQ:
		return "="
	}
	return "?"
}

func parseComparison(s string) (Comparison, error) {
	switch s {
	case "<=":
		return LTE, nil
	case ">=":
		return GTE, nil
	case "=", "==":
		return EQ, nil
	}
	return 0, errors.Errorf("ilp: invalid comparison %q", s)
}

// Constraint states that an expression compares to zero: expression ∘ 0.
type Constraint struct {
	expression Expression
	comparison Comparison
}

// NewConstraint returns the constraint expr ∘ 0.
func NewConstraint(expr Expression, cmp Comparison) Constraint {
	if cmp != LTE && cmp != GTE && cmp != EQ {
		panic("ilp: invalid comparison type")
	}
	return Constraint{expression: expr, comparison: cmp}
}

func (c Constraint) Expression() Expression {
	return c.expression
}

func (c Constraint) Comparison() Comparison {
	return c.comparison
}

// satisfiedBy reports whether the constraint holds for the given value of its expression.
func (c Constraint) satisfiedBy(v Fraction) bool {
	switch c.comparison {
	case LTE:
		return v.Sign() <= 0
	case GTE:
		return v.Sign() >= 0
	default:
		return v.Sign() == 0
	}
}

func (c Constraint) String() string {
	return c.expression.String() + " " + c.comparison.String() + " 0"
}
