package ilp

import (
	"context"
)

// subProblem is a node of the branch-and-bound tree: a tableau owned exclusively
// by this node, plus the branch constraint that distinguishes it from its parent.
type subProblem struct {

	// unique identifier for the subproblem
	id int64

	// id of the parent problem, -1 for the root
	parent int64

	// index of the alternative taken at each level, from the root down
	path []int

	tableau *tableau

	// row id of the objective inside the tableau
	objective int

	// constraint to add to the inherited tableau before solving. nil for the root.
	constraint *Constraint

	// objective value after solving
	value Fraction
}

// solve adds the branch constraint, restores feasibility and re-optimizes the carried objective.
func (p *subProblem) solve(ctx context.Context) error {
	p.tableau.trace = p.tableau.trace.forNode(p.id)
	if p.constraint != nil {
		if err := p.tableau.addConstraint(*p.constraint); err != nil {
			return err
		}
		if err := p.tableau.solveFeasibility(ctx); err != nil {
			return err
		}
	}
	value, err := p.tableau.maximize(ctx, p.objective)
	if err != nil {
		return err
	}
	p.value = value
	return nil
}

// branch creates one unsolved child per alternative constraint.
// The first child takes over the parent's tableau, so the copies for the other
// children are taken here, before anything mutates it.
func (p *subProblem) branch(alternatives []Constraint, nextID func() int64) []*subProblem {
	children := make([]*subProblem, len(alternatives))
	for i := len(alternatives) - 1; i >= 0; i-- {
		t := p.tableau
		if i > 0 {
			t = p.tableau.copy()
		}
		path := make([]int, len(p.path)+1)
		copy(path, p.path)
		path[len(p.path)] = i

		c := alternatives[i]
		children[i] = &subProblem{
			parent:     p.id,
			path:       path,
			tableau:    t,
			objective:  p.objective,
			constraint: &c,
		}
	}
	for _, c := range children {
		c.id = nextID()
	}
	// the parent no longer owns a tableau
	p.tableau = nil
	return children
}

func (p *subProblem) node() SearchNode {
	return SearchNode{
		ID:        p.id,
		Parent:    p.parent,
		Path:      p.path,
		Objective: p.value,
	}
}

// pathLess orders branch paths lexicographically.
func pathLess(a, b []int) bool {
	for i := 0; i < len(a) && i < len(b); i++ {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return len(a) < len(b)
}
