package ilp

import (
	"fmt"
	"io"
	"sync"

	"gonum.org/v1/gonum/graph/encoding"
	"gonum.org/v1/gonum/graph/encoding/dot"
	"gonum.org/v1/gonum/graph/simple"
)

// Decision is what branch-and-bound did with a node of the search tree.
type Decision string

const (
	DecisionInfeasible         Decision = "subproblem has no feasible solution"
	DecisionWorseThanIncumbent Decision = "worse than incumbent"
	DecisionBranching          Decision = "violates a branching constraint, so branching"
	DecisionIncumbent          Decision = "satisfies all branching constraints, replacing incumbent"
	DecisionNotBetter          Decision = "satisfies all branching constraints but does not beat incumbent"
)

// SearchNode summarizes a node of the branch-and-bound tree.
// Parent is -1 for the root. Path lists the alternative taken at each level.
type SearchNode struct {
	ID        int64
	Parent    int64
	Path      []int
	Objective Fraction
}

// SearchObserver receives every decision of the branch-and-bound search.
// Implementations must be safe for concurrent use.
type SearchObserver interface {
	ProcessDecision(SearchNode, Decision)
}

type dummyObserver struct{}

func (d dummyObserver) ProcessDecision(SearchNode, Decision) {}

type loggedNode struct {
	SearchNode
	decision Decision
}

// TreeLogger records the search tree so it can be inspected or rendered as DOT.
// Note that we only keep summaries; the tableaus are left to the garbage collector.
type TreeLogger struct {
	mu    sync.Mutex
	nodes []loggedNode
}

func (tl *TreeLogger) ProcessDecision(n SearchNode, d Decision) {
	tl.mu.Lock()
	defer tl.mu.Unlock()
	tl.nodes = append(tl.nodes, loggedNode{SearchNode: n, decision: d})
}

// Len returns the number of recorded decisions.
func (tl *TreeLogger) Len() int {
	tl.mu.Lock()
	defer tl.mu.Unlock()
	return len(tl.nodes)
}

// Decisions returns how often each decision was taken.
func (tl *TreeLogger) Decisions() map[Decision]int {
	tl.mu.Lock()
	defer tl.mu.Unlock()
	out := make(map[Decision]int)
	for _, n := range tl.nodes {
		out[n.decision]++
	}
	return out
}

type dotNode struct {
	id    int64
	label string
}

func (n dotNode) ID() int64 { return n.id }

func (n dotNode) Attributes() []encoding.Attribute {
	return []encoding.Attribute{{Key: "label", Value: fmt.Sprintf("%q", n.label)}}
}

// WriteDOT renders the recorded tree in Graphviz DOT format.
func (tl *TreeLogger) WriteDOT(w io.Writer) error {
	tl.mu.Lock()
	nodes := make([]loggedNode, len(tl.nodes))
	copy(nodes, tl.nodes)
	tl.mu.Unlock()

	g := simple.NewDirectedGraph()
	for _, n := range nodes {
		if g.Node(n.ID) != nil {
			continue
		}
		g.AddNode(dotNode{id: n.ID, label: fmt.Sprintf("z=%s\n%s", n.Objective, n.decision)})
	}
	for _, n := range nodes {
		if n.Parent < 0 || g.Node(n.Parent) == nil || n.Parent == n.ID {
			continue
		}
		g.SetEdge(g.NewEdge(g.Node(n.Parent), g.Node(n.ID)))
	}

	b, err := dot.Marshal(g, "enumtree", "", "  ")
	if err != nil {
		return err
	}
	_, err = w.Write(b)
	return err
}
