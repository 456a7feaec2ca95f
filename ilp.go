package ilp

import (
	"context"
	"fmt"

	log "github.com/golang/glog"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/jjhbw/exactmilp"

// Maximize optimizes the objectives lexicographically: each objective is
// maximized while all earlier ones are held at their optimum. Remaining freedom
// is resolved by pinning the variables of the last objective and minimizing the
// sum of all other variables.
//
// It returns an error matching ErrInfeasible or ErrUnbounded, or the context's
// error if ctx is cancelled.
func (m *Model) Maximize(ctx context.Context, objectives ...Expression) (*OptimizationResult, error) {
	return m.solve(ctx, objectives, false)
}

// Minimize is Maximize for objectives to be minimized. The reported objective
// values are those of the objectives as given, not their negations.
func (m *Model) Minimize(ctx context.Context, objectives ...Expression) (*OptimizationResult, error) {
	return m.solve(ctx, objectives, true)
}

func (m *Model) solve(ctx context.Context, objectives []Expression, minimize bool) (result *OptimizationResult, err error) {
	for _, o := range objectives {
		if !m.checkExpression(o) {
			panic("provided objective contains a variable that has not been declared to this model")
		}
	}

	runID := uuid.NewString()
	spanName := "ilp.Maximize"
	if minimize {
		spanName = "ilp.Minimize"
	}
	ctx, span := otel.Tracer(tracerName).Start(ctx, spanName,
		trace.WithAttributes(
			attribute.String("run_id", runID),
			attribute.Int("variables", len(m.variables)),
			attribute.Int("constraints", len(m.constraints)),
			attribute.Int("branching_constraints", len(m.branching)),
			attribute.Int("objectives", len(objectives)),
		))
	defer span.End()
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "solve failed")
		}
	}()

	goals := make([]Expression, len(objectives))
	for i, o := range objectives {
		if minimize {
			o = o.Neg()
		}
		goals[i] = o
	}

	base, err := m.buildTableau(ctx, newTracer(m.options.Logger))
	if err != nil {
		return nil, err
	}

	values := make([]Fraction, 0, len(goals))
	var best *tableau
	for i, goal := range goals {
		var value Fraction
		best, value, err = m.optimize(ctx, base, goal, fmt.Sprintf("objective %d", i))
		if err != nil {
			return nil, err
		}
		if minimize {
			values = append(values, value.Neg())
		} else {
			values = append(values, value)
		}
		if log.V(1) {
			log.Infof("run %s: objective %d optimum %s", runID, i, values[i])
		}

		// hold this objective at its optimum while solving the next ones
		if err := base.addConstraint(goal.Eq(Constant(value))); err != nil {
			return nil, err
		}
		if err := base.solveFeasibility(ctx); err != nil {
			return nil, err
		}
	}

	best, err = m.tieBreak(ctx, base, best, goals)
	if err != nil {
		return nil, err
	}

	span.SetAttributes(attribute.Bool("success", true))
	return newOptimizationResult(values, m.variables, best), nil
}

// buildTableau presolves the constraints and returns a feasible tableau without objective.
func (m *Model) buildTableau(ctx context.Context, tr *tracer) (*tableau, error) {
	constraints, err := presolve(m.constraints)
	if err != nil {
		return nil, err
	}
	t := newTableau(m.variables, tr)
	for _, c := range constraints {
		if err := t.addConstraint(c); err != nil {
			return nil, err
		}
	}
	if err := t.solveFeasibility(ctx); err != nil {
		return nil, err
	}
	return t, nil
}

// optimize maximizes goal by branch-and-bound on a copy of base and returns the
// best tableau, with the objective row removed, and the achieved value.
func (m *Model) optimize(ctx context.Context, base *tableau, goal Expression, label string) (*tableau, Fraction, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "ilp.optimize",
		trace.WithAttributes(attribute.String("objective", label)))
	defer span.End()

	t := base.copy()
	obj := t.addObjective(goal)
	tree := newEnumerationTree(m.branching, m.options)
	best, err := tree.startSearch(ctx, t, obj)
	span.SetAttributes(attribute.Int64("nodes", tree.nodes.Load()))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "search failed")
		return nil, Fraction{}, err
	}
	if log.V(1) {
		log.Infof("%s: %s after %d nodes", label, best.value, tree.nodes.Load())
	}
	best.tableau.removeObjective(obj)
	return best.tableau, best.value, nil
}

// tieBreak pins the variables of the last objective to their values in best and
// drives every other variable as low as possible.
func (m *Model) tieBreak(ctx context.Context, base *tableau, best *tableau, goals []Expression) (*tableau, error) {
	pinned := make(map[int]bool)
	if best != nil && len(goals) > 0 {
		for _, v := range goals[len(goals)-1].Variables() {
			pinned[v.id] = true
			value := FractionFromRat(best.value(v.id))
			if err := base.addConstraint(variableExpression(v).Eq(Constant(value))); err != nil {
				return nil, err
			}
		}
		if err := base.solveFeasibility(ctx); err != nil {
			return nil, err
		}
	}

	var others Expression
	for _, v := range m.variables {
		if !pinned[v.id] {
			others = others.Add(variableExpression(v))
		}
	}
	if others.IsConstant() && best != nil {
		return best, nil
	}

	t, _, err := m.optimize(ctx, base, others.Neg(), "tie-break")
	return t, err
}
