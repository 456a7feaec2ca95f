package ilp

import (
	"context"
	"math/big"

	"github.com/pkg/errors"
)

// a candidate pivot: entering variable, leaving row and the ratio of the leaving row
type pivotCandidate struct {
	variable int
	row      int
	ratio    *big.Rat
}

// eligible reports whether a variable may enter the basis.
func (t *tableau) eligible(v *tableauVariable) bool {
	return v.kind != objectiveVariable && !v.knownZero
}

// maximize pivots until the objective row has no negative coefficient left and
// returns the optimal objective value.
func (t *tableau) maximize(ctx context.Context, objective int) (Fraction, error) {
	obj := t.rows[objective]
	for iteration := 0; ; iteration++ {
		if err := ctx.Err(); err != nil {
			return Fraction{}, interrupted(err)
		}
		p, err := t.selectPivot(obj)
		if err != nil {
			return Fraction{}, err
		}
		if p == nil {
			if t.trace.enabled() {
				t.trace.printf("optimal after %d pivots, objective %s", iteration, obj.constant.RatString())
			}
			return FractionFromRat(obj.constant), nil
		}
		if t.trace.enabled() {
			t.trace.printf("pivot %d: %s enters row %d replacing %s (ratio %s)",
				iteration, t.variables[p.variable].name, p.row,
				t.variables[t.rows[p.row].basic].name, p.ratio.RatString())
		}
		t.pivot(p.variable, p.row)
		if t.trace.enabled() {
			t.trace.printf("%s", t)
		}
	}
}

// selectPivot picks the entering variable with the largest objective increase.
// At a degenerate vertex, where no candidate increases the objective, it falls
// back to Bland's rule: the lowest-id candidate enters. Returns nil at the optimum.
func (t *tableau) selectPivot(obj *row) (*pivotCandidate, error) {
	var (
		best        *pivotCandidate
		bestGain    *big.Rat
		lowest      *pivotCandidate
		gain        = new(big.Rat)
		nCandidates int
	)
	for _, id := range sortedKeys(obj.coefs) {
		c := obj.coefs[id]
		if c.Sign() >= 0 || id == obj.basic {
			continue
		}
		v := t.variables[id]
		if !t.eligible(v) {
			continue
		}
		nCandidates++
		p, ok := t.ratioTest(v)
		if !ok {
			return nil, errors.WithStack(&UnboundedError{Variable: v.name})
		}
		if lowest == nil {
			lowest = p
		}
		gain.Mul(c, p.ratio)
		gain.Neg(gain)
		if bestGain == nil || gain.Cmp(bestGain) > 0 {
			best = p
			bestGain = new(big.Rat).Set(gain)
		}
	}
	if nCandidates == 0 {
		return nil, nil
	}
	if bestGain.Sign() == 0 {
		return lowest, nil
	}
	return best, nil
}

// ratioTest finds the row that limits how far v can increase: the smallest
// constant/coefficient over rows with a positive coefficient. Ties go to the
// row with the lowest basic variable id. ok is false if no row limits v.
func (t *tableau) ratioTest(v *tableauVariable) (p *pivotCandidate, ok bool) {
	ratio := new(big.Rat)
	for rid := range v.rows {
		if t.isObjectiveRow(rid) {
			continue
		}
		r := t.rows[rid]
		a := r.coefs[v.id]
		if a.Sign() <= 0 || r.constant.Sign() < 0 {
			continue
		}
		ratio.Quo(r.constant, a)
		if p != nil {
			cmp := ratio.Cmp(p.ratio)
			if cmp > 0 || (cmp == 0 && r.basic > t.rows[p.row].basic) {
				continue
			}
		}
		p = &pivotCandidate{variable: v.id, row: rid, ratio: new(big.Rat).Set(ratio)}
	}
	return p, p != nil
}

// pivot makes v the basic variable of the given row and eliminates v from every other row.
func (t *tableau) pivot(v, rowID int) {
	r := t.rows[rowID]
	if a := r.coefs[v]; a.Cmp(oneRat) != 0 {
		inv := new(big.Rat).Inv(a)
		for _, c := range r.coefs {
			c.Mul(c, inv)
		}
		r.constant.Mul(r.constant, inv)
	}

	t.variables[r.basic].basicRow = -1
	r.basic = v
	t.variables[v].basicRow = rowID

	for _, other := range sortedKeys(t.variables[v].rows) {
		if other == rowID {
			continue
		}
		o := t.rows[other]
		t.subtractRow(o, r, new(big.Rat).Set(o.coefs[v]), true)
	}
}

// solveFeasibility drives all artificial variables to zero and removes them.
// It returns ErrInfeasible if that is impossible.
func (t *tableau) solveFeasibility(ctx context.Context) error {
	if len(t.artificial) == 0 {
		return nil
	}

	// maximize w = -Σa, expressed as the row w + Σa = 0
	w := t.newVariable("w", objectiveVariable)
	r := &row{
		id:       t.nextRow,
		basic:    w,
		constant: new(big.Rat),
		coefs:    map[int]*big.Rat{w: big.NewRat(1, 1)},
	}
	t.nextRow++
	for a := range t.artificial {
		r.coefs[a] = big.NewRat(1, 1)
	}
	t.eliminateBasicVariables(r)
	t.registerRow(r)
	t.objectives[r.id] = struct{}{}

	value, err := t.maximize(ctx, r.id)
	t.removeObjective(r.id)
	if err != nil {
		return err
	}
	if value.Sign() < 0 {
		return errors.Wrapf(ErrInfeasible, "artificial variables sum to %s", value.Neg())
	}

	for _, a := range sortedKeys(t.artificial) {
		if err := t.retireArtificial(a); err != nil {
			return err
		}
	}

	t.removeKnownZeros()
	return nil
}

// retireArtificial pivots a zero-valued basic artificial variable out of the
// basis, or drops its row if nothing else can take its place, and removes it.
func (t *tableau) retireArtificial(a int) error {
	v := t.variables[a]
	if v.basicRow >= 0 {
		r := t.rows[v.basicRow]
		if r.constant.Sign() != 0 {
			return errors.Wrapf(ErrInfeasible, "artificial variable %s stays at %s", v.name, r.constant.RatString())
		}
		replacement := -1
		for _, id := range sortedKeys(r.coefs) {
			u := t.variables[id]
			if id != a && u.kind != artificialVariable && t.eligible(u) {
				replacement = id
				break
			}
		}
		if replacement >= 0 {
			t.pivot(replacement, r.id)
		} else {
			t.removeRow(r)
		}
	}
	t.removeVariable(a)
	return nil
}

// removeKnownZeros finds rows with a zero right hand side and only non-negative
// coefficients. Every variable in such a row is zero in any feasible solution,
// so the variables are marked and their columns dropped together with the row.
func (t *tableau) removeKnownZeros() {
	for changed := true; changed; {
		changed = false
		for _, rid := range sortedKeys(t.rows) {
			r, ok := t.rows[rid]
			if !ok || t.isObjectiveRow(rid) || r.constant.Sign() != 0 {
				continue
			}
			allNonNegative := true
			for _, a := range r.coefs {
				if a.Sign() < 0 {
					allNonNegative = false
					break
				}
			}
			if !allNonNegative {
				continue
			}

			vars := sortedKeys(r.coefs)
			t.removeRow(r)
			for _, id := range vars {
				v := t.variables[id]
				v.knownZero = true
				for other := range v.rows {
					delete(t.rows[other].coefs, id)
				}
				v.rows = make(map[int]struct{})
			}
			if t.trace.enabled() {
				t.trace.printf("row %d proves %d variables zero", rid, len(vars))
			}
			changed = true
		}
	}
}
