// Package ilp solves mixed-integer linear programs exactly.
//
// Coefficients and values are rationals (math/big), so solutions carry no
// floating-point error. Integrality and "zero or beyond a threshold"
// constraints are enforced by a parallel branch-and-bound search on top of a
// two-phase simplex.
//
// A Model collects non-negative decision variables, linear constraints and
// branching constraints; Maximize and Minimize solve it for a priority-ordered
// list of objectives.
package ilp

import (
	"fmt"
)

// Model is the variable registry and constraint collection of a problem.
// A Model is not safe for concurrent modification.
type Model struct {
	variables   []*DecisionVariable
	names       map[string]*DecisionVariable
	constraints []Constraint
	branching   []BranchingConstraint
	options     Options
}

// NewModel returns an empty model configured by opts.
func NewModel(opts ...Option) *Model {
	o := DefaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &Model{
		names:   make(map[string]*DecisionVariable),
		options: o,
	}
}

// AddVariable allocates a new non-negative decision variable and returns it as an expression.
// Variable names must be unique within the model.
func (m *Model) AddVariable(name string) Expression {
	if _, ok := m.names[name]; ok {
		panic(fmt.Sprintf("ilp: duplicate variable name %q", name))
	}
	v := &DecisionVariable{
		id:   len(m.variables),
		name: name,
	}
	m.variables = append(m.variables, v)
	m.names[name] = v
	return variableExpression(v)
}

// AddFreeVariable returns a variable of either sign, represented as the
// difference of two non-negative variables named "+name" and "-name".
func (m *Model) AddFreeVariable(name string) Expression {
	return m.AddVariable("+" + name).Sub(m.AddVariable("-" + name))
}

// AddIntegerVariable adds a variable that must take an integer value.
func (m *Model) AddIntegerVariable(name string) Expression {
	v := m.AddVariable(name)
	m.AddIntegerConstraint(v)
	return v
}

// AddBinaryVariable adds an integer variable bounded by 1.
func (m *Model) AddBinaryVariable(name string) Expression {
	v := m.AddIntegerVariable(name)
	m.AddConstraint(v.Lte(ConstantInt(1)))
	return v
}

// AddIntegerConstraint requires expr to take an integer value.
func (m *Model) AddIntegerConstraint(expr Expression) {
	m.addBranchingConstraint(IntegerConstraint(expr))
}

// AddZeroIfLessThanConstraint requires expr to be either 0 or at least min. min must be positive.
func (m *Model) AddZeroIfLessThanConstraint(expr Expression, min Fraction) {
	m.addBranchingConstraint(ZeroIfLessThanConstraint(expr, min))
}

// AddZeroIfMoreThanConstraint requires expr to be either 0 or at most max. max must be negative.
func (m *Model) AddZeroIfMoreThanConstraint(expr Expression, max Fraction) {
	m.addBranchingConstraint(ZeroIfGreaterThanConstraint(expr, max))
}

func (m *Model) addBranchingConstraint(b BranchingConstraint) {
	if !m.checkExpression(b.expression) {
		panic("provided expression contains a variable that has not been declared to this model")
	}
	m.branching = append(m.branching, b)
}

// AddConstraint adds a linear constraint.
func (m *Model) AddConstraint(c Constraint) {
	if !m.checkExpression(c.expression) {
		panic("provided expression contains a variable that has not been declared to this model")
	}
	m.constraints = append(m.constraints, c)
}

// Variables returns the model's decision variables in creation order.
func (m *Model) Variables() []*DecisionVariable {
	out := make([]*DecisionVariable, len(m.variables))
	copy(out, m.variables)
	return out
}

// Variable looks a decision variable up by name.
func (m *Model) Variable(name string) (*DecisionVariable, bool) {
	v, ok := m.names[name]
	return v, ok
}

func (m *Model) Constraints() []Constraint {
	out := make([]Constraint, len(m.constraints))
	copy(out, m.constraints)
	return out
}

func (m *Model) BranchingConstraints() []BranchingConstraint {
	out := make([]BranchingConstraint, len(m.branching))
	copy(out, m.branching)
	return out
}

// Check whether the expression is legal considering the variables currently present in the model
func (m *Model) checkExpression(e Expression) bool {
	for _, t := range e.terms {
		// compare pointers: a variable of another model with the same id is not ours
		if t.Variable.id >= len(m.variables) || m.variables[t.Variable.id] != t.Variable {
			return false
		}
	}
	return true
}
