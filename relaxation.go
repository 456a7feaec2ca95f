package ilp

import (
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize/convex/lp"
)

// EstimateRelaxation maximizes objective over the LP relaxation in floating point,
// using gonum's simplex. Branching constraints are ignored, so for a solvable model
// the result bounds the exact optimum from above, up to rounding.
// It is a diagnostic only and never used by Maximize.
func (m *Model) EstimateRelaxation(objective Expression) (float64, error) {
	if !m.checkExpression(objective) {
		panic("provided objective contains a variable that has not been declared to this model")
	}
	if len(m.variables) == 0 {
		return objective.constant.Float64(), nil
	}
	constraints, err := presolve(m.constraints)
	if err != nil {
		return 0, err
	}

	c, A, b := m.standardForm(objective, constraints)
	if A == nil {
		return 0, errors.New("ilp: relaxation has no constraints")
	}
	A, b, err = removeEmptyRows(A, b)
	if err != nil {
		return 0, err
	}
	if rows, cols := A.Dims(); rows > cols {
		return 0, errors.Errorf("ilp: relaxation has %d equality rows for %d columns", rows, cols)
	}

	// lp.Simplex minimizes, so the objective was negated in c
	z, _, err := lp.Simplex(c, A, b, 0, nil)
	switch {
	case errors.Is(err, lp.ErrInfeasible):
		return 0, errors.Wrap(ErrInfeasible, "float relaxation")
	case errors.Is(err, lp.ErrUnbounded):
		return 0, errors.Wrap(ErrUnbounded, "float relaxation")
	case err != nil:
		return 0, errors.Wrap(err, "float relaxation")
	}
	return -z + objective.constant.Float64(), nil
}

// standardForm converts the model to minimize cᵀx subject to Ax = b, x ≥ 0.
// Every inequality gets a slack column of its own after the decision variables;
// ≥ rows are negated first so all slacks enter with coefficient 1.
func (m *Model) standardForm(objective Expression, constraints []Constraint) (c []float64, A *mat.Dense, b []float64) {
	n := len(m.variables)
	slacks := 0
	for _, con := range constraints {
		if con.comparison != EQ {
			slacks++
		}
	}
	cols := n + slacks

	c = make([]float64, cols)
	for _, t := range objective.terms {
		c[t.Variable.id] = -t.Coefficient.Float64()
	}
	if len(constraints) == 0 {
		return c, nil, nil
	}

	A = mat.NewDense(len(constraints), cols, nil)
	b = make([]float64, len(constraints))
	slack := n
	for i, con := range constraints {
		sign := 1.0
		if con.comparison == GTE {
			sign = -1
		}
		for _, t := range con.expression.terms {
			A.Set(i, t.Variable.id, sign*t.Coefficient.Float64())
		}
		b[i] = -sign * con.expression.constant.Float64()
		if con.comparison != EQ {
			A.Set(i, slack, 1)
			slack++
		}
	}
	return c, A, b
}
