package ilp

import (
	"context"
	"sync"
	"sync/atomic"

	log "github.com/golang/glog"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

// enumerationTree runs a parallel depth-first branch-and-bound search.
// Every node owns its tableau; the only state shared between branches is the
// incumbent, guarded by mu.
type enumerationTree struct {
	constraints []BranchingConstraint
	heuristic   BranchHeuristic
	observer    SearchObserver

	// limits the number of goroutines exploring branches. Branches that cannot
	// get a slot are explored on the goroutine that created them.
	workers *semaphore.Weighted

	ids   atomic.Int64
	nodes atomic.Int64

	mu        sync.Mutex
	incumbent *subProblem
}

func newEnumerationTree(constraints []BranchingConstraint, opts Options) *enumerationTree {
	workers := opts.Workers
	if workers < 1 {
		workers = 1
	}
	observer := opts.Observer
	if observer == nil {
		observer = dummyObserver{}
	}
	return &enumerationTree{
		constraints: constraints,
		heuristic:   opts.BranchHeuristic,
		observer:    observer,
		// the calling goroutine counts as one worker
		workers: semaphore.NewWeighted(int64(workers - 1)),
	}
}

func (e *enumerationTree) nextID() int64 {
	return e.ids.Add(1) - 1
}

// startSearch solves the relaxation of the objective on the calling goroutine
// and then explores the branches. It returns the best complete solution.
func (e *enumerationTree) startSearch(ctx context.Context, t *tableau, objective int) (*subProblem, error) {
	root := &subProblem{
		id:        e.nextID(),
		parent:    -1,
		tableau:   t,
		objective: objective,
	}
	if err := root.solve(ctx); err != nil {
		return nil, err
	}
	if log.V(1) {
		log.Infof("relaxation optimum %s, %d branching constraints", root.value, len(e.constraints))
	}

	if err := e.explore(ctx, root); err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.incumbent == nil {
		return nil, errors.Wrap(ErrInfeasible, "no branch satisfies all branching constraints")
	}
	return e.incumbent, nil
}

func (e *enumerationTree) decide(p *subProblem, d Decision) {
	if log.V(2) {
		log.Infof("node %d (parent %d, depth %d, z=%s): %s", p.id, p.parent, len(p.path), p.value, d)
	}
	e.observer.ProcessDecision(p.node(), d)
}

// explore handles a solved node: prune it, record it as a complete solution, or branch.
func (e *enumerationTree) explore(ctx context.Context, p *subProblem) error {
	if err := ctx.Err(); err != nil {
		return interrupted(err)
	}
	e.nodes.Add(1)

	if e.worseThanIncumbent(p.value) {
		e.decide(p, DecisionWorseThanIncumbent)
		return nil
	}

	idx, alternatives := selectBranch(e.heuristic, e.constraints, p.tableau)
	if idx < 0 {
		e.submitCompleteSolution(p)
		return nil
	}
	e.decide(p, DecisionBranching)

	children := p.branch(alternatives, e.nextID)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)

	for i, child := range children {
		child := child
		if i < len(children)-1 && e.workers.TryAcquire(1) {
			g.Go(func() error {
				defer e.workers.Release(1)
				return e.solveChild(gctx, child)
			})
			continue
		}
		if err := e.solveChild(gctx, child); err != nil {
			cancel()
			_ = g.Wait()
			return err
		}
	}
	return g.Wait()
}

// solveChild solves a child node and explores it. Infeasible children are pruned;
// any other error aborts the whole search.
func (e *enumerationTree) solveChild(ctx context.Context, p *subProblem) error {
	if err := p.solve(ctx); err != nil {
		if errors.Is(err, ErrInfeasible) {
			e.decide(p, DecisionInfeasible)
			return nil
		}
		return err
	}
	return e.explore(ctx, p)
}

func (e *enumerationTree) worseThanIncumbent(value Fraction) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.incumbent != nil && value.Cmp(e.incumbent.value) < 0
}

// submitCompleteSolution replaces the incumbent if p has a better objective value,
// or an equal value and a lexicographically smaller path. The result therefore
// does not depend on the order in which branches finish.
func (e *enumerationTree) submitCompleteSolution(p *subProblem) {
	e.mu.Lock()
	inc := e.incumbent
	better := inc == nil
	if !better {
		cmp := p.value.Cmp(inc.value)
		better = cmp > 0 || (cmp == 0 && pathLess(p.path, inc.path))
	}
	if better {
		e.incumbent = p
	}
	e.mu.Unlock()

	if better {
		e.decide(p, DecisionIncumbent)
	} else {
		e.decide(p, DecisionNotBetter)
	}
}
