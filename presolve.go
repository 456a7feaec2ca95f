package ilp

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// TODO: see Andersen 1995 for a nice enumeration of simple presolving operations,
// singleton rows in particular could become bounds instead of tableau rows.

// presolve drops constraints that carry no information before they reach the tableau:
// constant constraints are checked once and dropped, exact duplicates are removed.
// Note that the model's own constraint slice is never modified.
func presolve(constraints []Constraint) ([]Constraint, error) {
	out := make([]Constraint, 0, len(constraints))
	seen := make(map[string]bool, len(constraints))
	for _, c := range constraints {
		if c.expression.IsConstant() {
			if !c.satisfiedBy(c.expression.constant) {
				return nil, errors.Wrapf(ErrInfeasible, "constant constraint %s does not hold", c)
			}
			continue
		}
		key := constraintKey(c)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, c)
	}
	return out, nil
}

// a canonical string of a constraint, using variable ids rather than names
func constraintKey(c Constraint) string {
	var sb strings.Builder
	sb.WriteString(c.comparison.String())
	sb.WriteString("|")
	sb.WriteString(c.expression.constant.String())
	for _, t := range c.expression.terms {
		sb.WriteString("|")
		sb.WriteString(strconv.Itoa(t.Variable.id))
		sb.WriteString(":")
		sb.WriteString(t.Coefficient.String())
	}
	return sb.String()
}

// removeEmptyRows drops the all-zero rows of Ax = b. Such a row with a nonzero
// right hand side can never hold, so that is reported as infeasible.
// A is returned as is when no row is dropped.
func removeEmptyRows(A *mat.Dense, b []float64) (*mat.Dense, []float64, error) {
	rows, cols := A.Dims()
	var data, kept []float64
	for i := 0; i < rows; i++ {
		row := A.RawRowView(i)
		if floats.Norm(row, 1) != 0 {
			data = append(data, row...)
			kept = append(kept, b[i])
		} else if b[i] != 0 {
			return nil, nil, errors.Wrapf(ErrInfeasible, "row %d reads 0 = %g", i, b[i])
		}
	}
	switch len(kept) {
	case 0:
		return nil, nil, errors.New("ilp: all rows of A are empty")
	case rows:
		return A, b, nil
	}
	return mat.NewDense(len(kept), cols, data), kept, nil
}
