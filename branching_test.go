package ilp

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func constraintStrings(cs []Constraint) []string {
	out := make([]string, len(cs))
	for i, c := range cs {
		out[i] = c.String()
	}
	return out
}

func TestBranchingConstraint_Alternatives(t *testing.T) {
	m := NewModel()
	x := m.AddVariable("x")

	tests := []struct {
		name       string
		constraint BranchingConstraint
		value      Fraction
		holds      bool
		want       []string
	}{
		{
			name:       "integer, fractional value",
			constraint: IntegerConstraint(x),
			value:      frac(7, 2),
			want:       []string{"x - 3 <= 0", "x - 4 >= 0"},
		},
		{
			name:       "integer, negative fractional value",
			constraint: IntegerConstraint(x),
			value:      frac(-1, 3),
			want:       []string{"x + 1 <= 0", "x >= 0"},
		},
		{
			name:       "integer, integral value",
			constraint: IntegerConstraint(x),
			value:      FractionFromInt(4),
			holds:      true,
		},
		{
			name:       "zero if less than, in the gap",
			constraint: ZeroIfLessThanConstraint(x, FractionFromInt(5)),
			value:      FractionFromInt(2),
			want:       []string{"x = 0", "x - 5 >= 0"},
		},
		{
			name:       "zero if less than, zero",
			constraint: ZeroIfLessThanConstraint(x, FractionFromInt(5)),
			value:      Fraction{},
			holds:      true,
		},
		{
			name:       "zero if less than, at threshold",
			constraint: ZeroIfLessThanConstraint(x, FractionFromInt(5)),
			value:      FractionFromInt(5),
			holds:      true,
		},
		{
			name:       "zero if greater than, in the gap",
			constraint: ZeroIfGreaterThanConstraint(x, FractionFromInt(-3)),
			value:      frac(-1, 2),
			want:       []string{"x = 0", "x + 3 <= 0"},
		},
		{
			name:       "zero if greater than, beyond threshold",
			constraint: ZeroIfGreaterThanConstraint(x, FractionFromInt(-3)),
			value:      FractionFromInt(-10),
			holds:      true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.holds, tt.constraint.holds(tt.value))
			if tt.holds {
				return
			}
			alternatives := tt.constraint.alternatives(tt.value)
			assert.Equal(t, tt.want, constraintStrings(alternatives))
			// every alternative cuts off the violating value
			for _, c := range alternatives {
				value := c.expression.evaluate(func(int) *big.Rat { return tt.value.rat() })
				assert.False(t, c.satisfiedBy(value), c.String())
			}
		})
	}
}

func TestBranchingConstraint_ThresholdSign(t *testing.T) {
	m := NewModel()
	x := m.AddVariable("x")

	assert.Panics(t, func() { ZeroIfLessThanConstraint(x, Fraction{}) })
	assert.Panics(t, func() { ZeroIfLessThanConstraint(x, FractionFromInt(-1)) })
	assert.Panics(t, func() { ZeroIfGreaterThanConstraint(x, Fraction{}) })
	assert.Panics(t, func() { ZeroIfGreaterThanConstraint(x, FractionFromInt(1)) })
	assert.NotPanics(t, func() { ZeroIfGreaterThanConstraint(x, frac(-1, 2)) })
}

func TestSelectBranch(t *testing.T) {
	m := NewModel()
	x := m.AddVariable("x")
	y := m.AddVariable("y")
	z := m.AddVariable("z")

	constraints := []BranchingConstraint{
		ZeroIfLessThanConstraint(z, FractionFromInt(10)),
		IntegerConstraint(x),
		IntegerConstraint(y),
	}

	tests := []struct {
		name      string
		heuristic BranchHeuristic
		values    []Fraction
		wantIndex int
	}{
		{
			name:      "first violated",
			heuristic: BranchFirstViolated,
			values:    []Fraction{frac(9, 10), frac(1, 2), FractionFromInt(3)},
			wantIndex: 0,
		},
		{
			name:      "first violated skips satisfied constraints",
			heuristic: BranchFirstViolated,
			values:    []Fraction{frac(9, 10), frac(1, 2), Fraction{}},
			wantIndex: 1,
		},
		{
			name:      "most fractional prefers integrality",
			heuristic: BranchMostFractional,
			values:    []Fraction{frac(9, 10), FractionFromInt(3), FractionFromInt(3)},
			wantIndex: 1,
		},
		{
			name:      "most fractional picks value closest to a half",
			heuristic: BranchMostFractional,
			values:    []Fraction{frac(9, 10), frac(2, 5), FractionFromInt(3)},
			wantIndex: 2,
		},
		{
			name:      "most fractional ties keep the earliest",
			heuristic: BranchMostFractional,
			values:    []Fraction{frac(1, 4), frac(3, 4), FractionFromInt(1)},
			wantIndex: 1,
		},
		{
			name:      "most fractional falls back to zero-if constraints",
			heuristic: BranchMostFractional,
			values:    []Fraction{FractionFromInt(1), FractionFromInt(2), FractionFromInt(3)},
			wantIndex: 0,
		},
		{
			name:      "nothing violated",
			heuristic: BranchMostFractional,
			values:    []Fraction{FractionFromInt(1), FractionFromInt(2), FractionFromInt(10)},
			wantIndex: -1,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tab := tableauWithValues(m.Variables(), tt.values...)
			idx, alternatives := selectBranch(tt.heuristic, constraints, tab)
			assert.Equal(t, tt.wantIndex, idx)
			if tt.wantIndex < 0 {
				assert.Nil(t, alternatives)
				return
			}
			require.Len(t, alternatives, 2)
			value := tab.evaluate(constraints[idx].expression)
			assert.Equal(t, constraintStrings(constraints[idx].alternatives(value)), constraintStrings(alternatives))
		})
	}
}

func TestSelectBranch_UnknownHeuristicPanics(t *testing.T) {
	m := NewModel()
	x := m.AddVariable("x")
	tab := tableauWithValues(m.Variables(), frac(1, 2))

	assert.Panics(t, func() {
		selectBranch(BranchHeuristic(42), []BranchingConstraint{IntegerConstraint(x)}, tab)
	})
}

func TestBranchHeuristic_String(t *testing.T) {
	assert.Equal(t, "first-violated", BranchFirstViolated.String())
	assert.Equal(t, "most-fractional", BranchMostFractional.String())
	assert.Equal(t, "unknown", BranchHeuristic(42).String())
}
