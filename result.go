package ilp

import (
	"math/big"

	"github.com/pkg/errors"
)

// OptimizationResult holds the achieved objective values, in the order the
// objectives were given, and the value of every decision variable.
// It is immutable.
type OptimizationResult struct {
	objectives []Fraction
	variables  []*DecisionVariable
	values     map[int]*big.Rat
	names      map[string]int
}

func newOptimizationResult(objectives []Fraction, variables []*DecisionVariable, t *tableau) *OptimizationResult {
	r := &OptimizationResult{
		objectives: objectives,
		variables:  variables,
		values:     make(map[int]*big.Rat, len(variables)),
		names:      make(map[string]int, len(variables)),
	}
	for _, v := range variables {
		r.values[v.id] = new(big.Rat).Set(t.value(v.id))
		r.names[v.name] = v.id
	}
	return r
}

// ObjectiveValues returns the achieved value of each objective.
func (r *OptimizationResult) ObjectiveValues() []Fraction {
	out := make([]Fraction, len(r.objectives))
	copy(out, r.objectives)
	return out
}

func (r *OptimizationResult) value(id int) *big.Rat {
	return r.values[id]
}

// FractionValue evaluates expr at the solution. It panics if expr contains a
// variable of another model.
func (r *OptimizationResult) FractionValue(expr Expression) Fraction {
	for _, t := range expr.terms {
		if t.Variable.id >= len(r.variables) || r.variables[t.Variable.id] != t.Variable {
			panic("provided expression contains a variable that has not been declared to this model")
		}
	}
	return expr.evaluate(r.value)
}

// IntegerValue evaluates expr at the solution and fails with ErrNotInteger if the value is fractional.
func (r *OptimizationResult) IntegerValue(expr Expression) (*big.Int, error) {
	return r.FractionValue(expr).Int()
}

// Int64Value is IntegerValue for values that fit an int64.
func (r *OptimizationResult) Int64Value(expr Expression) (int64, error) {
	i, err := r.IntegerValue(expr)
	if err != nil {
		return 0, err
	}
	if !i.IsInt64() {
		return 0, errors.Errorf("ilp: value %s overflows int64", i)
	}
	return i.Int64(), nil
}

// BooleanValue evaluates expr at the solution and fails with ErrNotBoolean unless it is 0 or 1.
func (r *OptimizationResult) BooleanValue(expr Expression) (bool, error) {
	v := r.FractionValue(expr)
	switch {
	case v.IsZero():
		return false, nil
	case v.Cmp(FractionFromInt(1)) == 0:
		return true, nil
	}
	return false, errors.Wrapf(ErrNotBoolean, "value %s", v)
}

// Values returns the value of every decision variable by name.
func (r *OptimizationResult) Values() map[string]Fraction {
	out := make(map[string]Fraction, len(r.names))
	for name, id := range r.names {
		out[name] = FractionFromRat(r.values[id])
	}
	return out
}
