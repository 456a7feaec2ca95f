package ilp

import (
	"math/big"
)

// BranchHeuristic selects which violated branching constraint to branch on.
type BranchHeuristic int

const (
	// BranchFirstViolated branches on the first violated constraint in registration order.
	BranchFirstViolated BranchHeuristic = iota

	// BranchMostFractional branches on the integrality constraint whose value has
	// a fractional part closest to 1/2. Zero-if constraints are only branched on
	// once every integrality constraint holds.
	BranchMostFractional
)

func (h BranchHeuristic) String() string {
	switch h {
	case BranchFirstViolated:
		return "first-violated"
	case BranchMostFractional:
		return "most-fractional"
	}
	return "unknown"
}

type branchingKind int

const (
	integerBranching branchingKind = iota
	zeroIfLessThanBranching
	zeroIfGreaterThanBranching
)

// BranchingConstraint is a side constraint the LP relaxation ignores and
// branch-and-bound enforces: integrality, or "zero or beyond a threshold".
type BranchingConstraint struct {
	kind       branchingKind
	expression Expression
	threshold  Fraction
}

// IntegerConstraint requires expr to take an integer value.
func IntegerConstraint(expr Expression) BranchingConstraint {
	return BranchingConstraint{kind: integerBranching, expression: expr}
}

// ZeroIfLessThanConstraint requires expr to be 0 or at least min. It panics unless min > 0.
func ZeroIfLessThanConstraint(expr Expression, min Fraction) BranchingConstraint {
	if min.Sign() <= 0 {
		panic("ilp: zero-if-less-than threshold must be positive")
	}
	return BranchingConstraint{kind: zeroIfLessThanBranching, expression: expr, threshold: min}
}

// ZeroIfGreaterThanConstraint requires expr to be 0 or at most max. It panics unless max < 0.
func ZeroIfGreaterThanConstraint(expr Expression, max Fraction) BranchingConstraint {
	if max.Sign() >= 0 {
		panic("ilp: zero-if-greater-than threshold must be negative")
	}
	return BranchingConstraint{kind: zeroIfGreaterThanBranching, expression: expr, threshold: max}
}

func (b BranchingConstraint) Expression() Expression {
	return b.expression
}

func (b BranchingConstraint) Threshold() Fraction {
	return b.threshold
}

// holds reports whether value satisfies the constraint.
func (b BranchingConstraint) holds(value Fraction) bool {
	switch b.kind {
	case integerBranching:
		return value.IsInteger()
	case zeroIfLessThanBranching:
		return value.IsZero() || value.Cmp(b.threshold) >= 0
	default:
		return value.IsZero() || value.Cmp(b.threshold) <= 0
	}
}

// alternatives returns the constraints splitting the region around a violating value.
// Each alternative excludes value, so every branch strictly tightens the problem.
func (b BranchingConstraint) alternatives(value Fraction) []Constraint {
	e := b.expression
	switch b.kind {
	case integerBranching:
		floor := value.Floor()
		return []Constraint{
			e.Lte(Constant(floor)),
			e.Gte(Constant(floor.Add(FractionFromInt(1)))),
		}
	case zeroIfLessThanBranching:
		return []Constraint{
			e.Eq(ConstantInt(0)),
			e.Gte(Constant(b.threshold)),
		}
	default:
		return []Constraint{
			e.Eq(ConstantInt(0)),
			e.Lte(Constant(b.threshold)),
		}
	}
}

// constraintsGiven evaluates the constraint against the tableau's current solution.
// It returns nil when the constraint holds.
func (b BranchingConstraint) constraintsGiven(t *tableau) []Constraint {
	value := t.evaluate(b.expression)
	if b.holds(value) {
		return nil
	}
	return b.alternatives(value)
}

// distance of the fractional part of v from 1/2
func fractionality(v Fraction) *big.Rat {
	frac := new(big.Rat).Sub(v.rat(), v.Floor().rat())
	frac.Sub(frac, big.NewRat(1, 2))
	return frac.Abs(frac)
}

// selectBranch picks the constraint to branch on and returns its index and alternatives.
// An index of -1 means every branching constraint holds.
func selectBranch(h BranchHeuristic, constraints []BranchingConstraint, t *tableau) (int, []Constraint) {
	switch h {
	case BranchFirstViolated:
		return firstViolatedBranchPoint(constraints, t)
	case BranchMostFractional:
		return mostFractionalBranchPoint(constraints, t)
	}
	panic("provided branching heuristic config variable unknown")
}

func firstViolatedBranchPoint(constraints []BranchingConstraint, t *tableau) (int, []Constraint) {
	for i, b := range constraints {
		if alts := b.constraintsGiven(t); len(alts) > 0 {
			return i, alts
		}
	}
	return -1, nil
}

func mostFractionalBranchPoint(constraints []BranchingConstraint, t *tableau) (int, []Constraint) {
	candidate := -1
	var candidateValue Fraction
	var candidateDistance *big.Rat
	firstOther := -1

	for i, b := range constraints {
		value := t.evaluate(b.expression)
		if b.holds(value) {
			continue
		}
		if b.kind != integerBranching {
			if firstOther < 0 {
				firstOther = i
			}
			continue
		}
		d := fractionality(value)
		// strictly closer only, so ties keep the earliest constraint
		if candidate < 0 || d.Cmp(candidateDistance) < 0 {
			candidate, candidateValue, candidateDistance = i, value, d
		}
	}

	switch {
	case candidate >= 0:
		return candidate, constraints[candidate].alternatives(candidateValue)
	case firstOther >= 0:
		return firstOther, constraints[firstOther].constraintsGiven(t)
	}
	return -1, nil
}
