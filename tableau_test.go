package ilp

import (
	"context"
	"math/big"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// decisionVariables returns the model's variables, for building bare tableaus.
func decisionVariables(m *Model) []*DecisionVariable {
	return m.Variables()
}

// tableauWithValues returns a tableau in which each variable is basic in a row of its own,
// holding the given value.
func tableauWithValues(vars []*DecisionVariable, values ...Fraction) *tableau {
	t := newTableau(vars, nil)
	for i, v := range vars {
		if values[i].IsZero() {
			continue
		}
		t.registerRow(&row{
			id:       t.nextRow,
			basic:    v.id,
			constant: values[i].Rat(),
			coefs:    map[int]*big.Rat{v.id: big.NewRat(1, 1)},
		})
		t.nextRow++
	}
	return t
}

func TestTableau_AddConstraintChoosesBasicVariable(t *testing.T) {
	m := NewModel()
	x := m.AddVariable("x")
	y := m.AddVariable("y")

	tests := []struct {
		name           string
		constraint     Constraint
		wantArtificial bool
	}{
		{"lte with non-negative bound", x.Add(y).Lte(ConstantInt(4)), false},
		{"lte with negative bound", x.Sub(y).Lte(ConstantInt(-4)), true},
		{"gte with positive bound", x.Gte(ConstantInt(1)), true},
		{"gte with zero bound", x.Gte(y), false},
		{"equality", x.Eq(ConstantInt(2)), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tab := newTableau(decisionVariables(m), nil)
			require.NoError(t, tab.addConstraint(tt.constraint))
			require.Len(t, tab.rows, 1)

			r := tab.rows[0]
			assert.GreaterOrEqual(t, r.constant.Sign(), 0)
			assert.Equal(t, 0, r.coefs[r.basic].Cmp(big.NewRat(1, 1)))
			assert.Equal(t, tt.wantArtificial, tab.variables[r.basic].kind == artificialVariable)
			assert.Equal(t, tt.wantArtificial, len(tab.artificial) == 1)
		})
	}
}

func TestTableau_AddConstraintWithoutCoefficients(t *testing.T) {
	m := NewModel()
	x := m.AddVariable("x")

	tab := newTableau(decisionVariables(m), nil)
	require.NoError(t, tab.addConstraint(x.Eq(ConstantInt(3))))
	require.NoError(t, tab.solveFeasibility(context.Background()))

	// x is pinned to 3, so these reduce to constant rows that are dropped
	assert.NoError(t, tab.addConstraint(x.Lte(ConstantInt(3))))
	assert.NoError(t, tab.addConstraint(x.Eq(ConstantInt(3))))
	assert.NoError(t, tab.addConstraint(x.Gte(ConstantInt(1))))
	assert.Len(t, tab.rows, 1)

	for _, c := range []Constraint{x.Gte(ConstantInt(4)), x.Lte(ConstantInt(2)), x.Eq(ConstantInt(4))} {
		err := tab.addConstraint(c)
		assert.True(t, errors.Is(err, ErrInfeasible), c.String())
	}
	assert.Len(t, tab.rows, 1)
}

func TestTableau_SolveFeasibilityRetiresArtificials(t *testing.T) {
	m := NewModel()
	x := m.AddVariable("x")
	y := m.AddVariable("y")

	tab := newTableau(decisionVariables(m), nil)
	require.NoError(t, tab.addConstraint(x.Add(y).Eq(ConstantInt(6))))
	require.NoError(t, tab.addConstraint(x.Gte(ConstantInt(2))))
	require.NoError(t, tab.solveFeasibility(context.Background()))

	assert.Empty(t, tab.artificial)
	assert.Empty(t, tab.objectives)
	for _, v := range tab.variables {
		assert.NotEqual(t, artificialVariable, v.kind, v.name)
		assert.NotEqual(t, objectiveVariable, v.kind, v.name)
	}

	xv := tab.evaluate(x)
	yv := tab.evaluate(y)
	assert.Equal(t, "6", xv.Add(yv).String())
	assert.GreaterOrEqual(t, xv.Cmp(FractionFromInt(2)), 0)
}

func TestTableau_SolveFeasibilityInfeasible(t *testing.T) {
	m := NewModel()
	x := m.AddVariable("x")
	y := m.AddVariable("y")

	tab := newTableau(decisionVariables(m), nil)
	require.NoError(t, tab.addConstraint(x.Add(y).Lte(ConstantInt(1))))
	require.NoError(t, tab.addConstraint(x.Add(y).Gte(ConstantInt(2))))
	err := tab.solveFeasibility(context.Background())
	assert.True(t, errors.Is(err, ErrInfeasible))
}

func TestTableau_RemoveKnownZeros(t *testing.T) {
	m := NewModel()
	x := m.AddVariable("x")
	y := m.AddVariable("y")
	z := m.AddVariable("z")

	tab := newTableau(decisionVariables(m), nil)
	require.NoError(t, tab.addConstraint(x.Add(y).Eq(ConstantInt(0))))
	require.NoError(t, tab.addConstraint(z.Lte(ConstantInt(5))))
	require.NoError(t, tab.solveFeasibility(context.Background()))

	assert.True(t, tab.variables[0].knownZero)
	assert.True(t, tab.variables[1].knownZero)
	assert.False(t, tab.variables[2].knownZero)
	assert.Len(t, tab.rows, 1)

	// constraints on known-zero variables reduce to constants
	assert.NoError(t, tab.addConstraint(x.Lte(ConstantInt(1))))
	err := tab.addConstraint(y.Gte(ConstantInt(1)))
	assert.True(t, errors.Is(err, ErrInfeasible))

	obj := tab.addObjective(x.Add(y).Add(z))
	value, err := tab.maximize(context.Background(), obj)
	require.NoError(t, err)
	assert.Equal(t, "5", value.String())
}

func TestTableau_CopyIsIndependent(t *testing.T) {
	m := NewModel()
	x := m.AddVariable("x")
	y := m.AddVariable("y")

	tab := newTableau(decisionVariables(m), nil)
	require.NoError(t, tab.addConstraint(x.Add(y).Lte(ConstantInt(10))))
	obj := tab.addObjective(x.Add(y.MulInt(2)))

	cp := tab.copy()
	require.NoError(t, cp.addConstraint(y.Lte(ConstantInt(3))))
	value, err := cp.maximize(context.Background(), obj)
	require.NoError(t, err)
	assert.Equal(t, "13", value.String())

	// the original is untouched and reaches its own optimum
	assert.Len(t, tab.rows, 2)
	assert.True(t, tab.objectiveValue(obj).IsZero())
	value, err = tab.maximize(context.Background(), obj)
	require.NoError(t, err)
	assert.Equal(t, "20", value.String())
	assert.Equal(t, "13", cp.objectiveValue(obj).String())
}

func TestTableau_MaximizeUnbounded(t *testing.T) {
	m := NewModel()
	x := m.AddVariable("x")
	y := m.AddVariable("y")

	tab := newTableau(decisionVariables(m), nil)
	require.NoError(t, tab.addConstraint(x.Sub(y).Lte(ConstantInt(1))))
	obj := tab.addObjective(x)

	_, err := tab.maximize(context.Background(), obj)
	require.Error(t, err)
	var unbounded *UnboundedError
	require.True(t, errors.As(err, &unbounded))
	assert.Equal(t, "y", unbounded.Variable)
}

func TestTableau_MaximizeCancelled(t *testing.T) {
	m := NewModel()
	x := m.AddVariable("x")

	tab := newTableau(decisionVariables(m), nil)
	require.NoError(t, tab.addConstraint(x.Lte(ConstantInt(1))))
	obj := tab.addObjective(x)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := tab.maximize(ctx, obj)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestTableau_DegenerateVertexTerminates(t *testing.T) {
	// a classic cycling example for the largest-coefficient rule
	m := NewModel()
	x1 := m.AddVariable("x1")
	x2 := m.AddVariable("x2")
	x3 := m.AddVariable("x3")
	x4 := m.AddVariable("x4")

	tab := newTableau(decisionVariables(m), nil)
	require.NoError(t, tab.addConstraint(
		x1.MulFraction(frac(1, 2)).Sub(x2.MulFraction(frac(11, 2))).Sub(x3.MulFraction(frac(5, 2))).Add(x4.MulInt(9)).Lte(ConstantInt(0))))
	require.NoError(t, tab.addConstraint(
		x1.MulFraction(frac(1, 2)).Sub(x2.MulFraction(frac(3, 2))).Sub(x3.MulFraction(frac(1, 2))).Add(x4).Lte(ConstantInt(0))))
	require.NoError(t, tab.addConstraint(x1.Lte(ConstantInt(1))))
	obj := tab.addObjective(x1.MulInt(10).Sub(x2.MulInt(57)).Sub(x3.MulInt(9)).Sub(x4.MulInt(24)))

	value, err := tab.maximize(context.Background(), obj)
	require.NoError(t, err)
	assert.Equal(t, "1", value.String())
}

func TestTableau_Trace(t *testing.T) {
	m := NewModel()
	x := m.AddVariable("x")

	var lines []string
	tab := newTableau(decisionVariables(m), newTracer(func(s string) { lines = append(lines, s) }))
	require.NoError(t, tab.addConstraint(x.Lte(ConstantInt(2))))
	obj := tab.addObjective(x)
	_, err := tab.maximize(context.Background(), obj)
	require.NoError(t, err)

	require.NotEmpty(t, lines)
	joined := strings.Join(lines, "\n")
	assert.Contains(t, joined, "pivot 0: x enters row 0")
	assert.Contains(t, joined, "optimal after 1 pivots")
	assert.Contains(t, tab.String(), "columns: x s0 z1 | rhs")
}

func TestTableau_StringEmpty(t *testing.T) {
	tab := newTableau(nil, nil)
	assert.Equal(t, "(empty tableau)", tab.String())
}
