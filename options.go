package ilp

import (
	"fmt"
	"runtime"
	"sync"

	log "github.com/golang/glog"
)

// Options configures how a Model is solved.
//   - Workers: maximum number of goroutines exploring branches at once (default GOMAXPROCS).
//   - Logger: receives a human-readable trace of every pivot and tableau state.
//   - Observer: receives every branch-and-bound decision.
//   - BranchHeuristic: how the constraint to branch on is picked.
type Options struct {
	Workers         int
	Logger          func(string)
	Observer        SearchObserver
	BranchHeuristic BranchHeuristic
}

// Option mutates Options.
type Option func(*Options)

// DefaultOptions returns the options used when none are given.
func DefaultOptions() Options {
	return Options{
		Workers:         runtime.GOMAXPROCS(0),
		Observer:        dummyObserver{},
		BranchHeuristic: BranchFirstViolated,
	}
}

// WithWorkers bounds the number of concurrently explored branches. Values below 1 mean 1.
func WithWorkers(n int) Option {
	return func(o *Options) {
		if n < 1 {
			n = 1
		}
		o.Workers = n
	}
}

// WithLogger installs a callback for the pivot trace. It has no effect on results.
// Calls are serialized, so fn need not be safe for concurrent use, but lines of
// parallel branches interleave; each line of a branch starts with its node id.
func WithLogger(fn func(string)) Option {
	return func(o *Options) {
		o.Logger = fn
	}
}

// WithObserver installs an observer of branch-and-bound decisions.
func WithObserver(obs SearchObserver) Option {
	return func(o *Options) {
		if obs == nil {
			obs = dummyObserver{}
		}
		o.Observer = obs
	}
}

// WithBranchHeuristic selects the branching heuristic.
func WithBranchHeuristic(h BranchHeuristic) Option {
	return func(o *Options) {
		o.BranchHeuristic = h
	}
}

// tracer forwards trace lines to the logger callback and to glog at verbosity 3.
// Tracers derived with forNode share the lock of their root.
type tracer struct {
	logger func(string)
	prefix string
	mu     *sync.Mutex
}

func newTracer(logger func(string)) *tracer {
	return &tracer{logger: logger, mu: new(sync.Mutex)}
}

// forNode returns a tracer that prefixes every line with the search node id.
func (tr *tracer) forNode(id int64) *tracer {
	if tr == nil {
		return nil
	}
	return &tracer{logger: tr.logger, prefix: fmt.Sprintf("node %d: ", id), mu: tr.mu}
}

func (tr *tracer) enabled() bool {
	return tr != nil && (tr.logger != nil || bool(log.V(3)))
}

func (tr *tracer) printf(format string, args ...any) {
	msg := tr.prefix + fmt.Sprintf(format, args...)
	if tr.logger != nil {
		tr.mu.Lock()
		tr.logger(msg)
		tr.mu.Unlock()
	}
	if log.V(3) {
		log.InfoDepth(1, msg)
	}
}
