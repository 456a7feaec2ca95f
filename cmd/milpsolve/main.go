// Command milpsolve replays a model dump written by ilp.Model.WriteJSON.
//
// Usage:
//
//	milpsolve [-minimize] [-workers n] [-dot tree.dot] [-estimate] model.json
//
// glog flags such as -v and -logtostderr are accepted as well.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sort"

	log "github.com/golang/glog"

	ilp "github.com/jjhbw/exactmilp"
)

func main() {
	minimize := flag.Bool("minimize", false, "minimize the objectives instead of maximizing them")
	workers := flag.Int("workers", 0, "maximum number of concurrently explored branches (0: GOMAXPROCS)")
	dotPath := flag.String("dot", "", "write the branch-and-bound tree of the solve to this file in DOT format")
	estimate := flag.Bool("estimate", false, "also print a floating point estimate of each objective's relaxation")
	flag.Parse()
	defer log.Flush()

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: milpsolve [flags] model.json")
		flag.PrintDefaults()
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, flag.Arg(0), *minimize, *workers, *dotPath, *estimate); err != nil {
		log.Exitf("milpsolve: %v", err)
	}
}

func run(ctx context.Context, path string, minimize bool, workers int, dotPath string, estimate bool) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	var opts []ilp.Option
	if workers > 0 {
		opts = append(opts, ilp.WithWorkers(workers))
	}
	tree := &ilp.TreeLogger{}
	if dotPath != "" {
		opts = append(opts, ilp.WithObserver(tree))
	}

	model, objectives, err := ilp.ReadJSON(f, opts...)
	if err != nil {
		return err
	}
	log.V(1).Infof("loaded %d variables, %d constraints, %d branching constraints, %d objectives",
		len(model.Variables()), len(model.Constraints()), len(model.BranchingConstraints()), len(objectives))

	if estimate {
		for i, o := range objectives {
			if minimize {
				o = o.Neg()
			}
			z, err := model.EstimateRelaxation(o)
			if err != nil {
				fmt.Printf("objective %d: no relaxation estimate: %v\n", i, err)
				continue
			}
			if minimize {
				z = -z
			}
			fmt.Printf("objective %d: relaxation estimate %g\n", i, z)
		}
	}

	var result *ilp.OptimizationResult
	if minimize {
		result, err = model.Minimize(ctx, objectives...)
	} else {
		result, err = model.Maximize(ctx, objectives...)
	}
	if err != nil {
		return err
	}

	for i, v := range result.ObjectiveValues() {
		fmt.Printf("objective %d: %s\n", i, v)
	}
	values := result.Values()
	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if v := values[name]; !v.IsZero() {
			fmt.Printf("%s = %s (%g)\n", name, v, v.Float64())
		}
	}

	if dotPath != "" {
		out, err := os.Create(dotPath)
		if err != nil {
			return err
		}
		if err := tree.WriteDOT(out); err != nil {
			out.Close()
			return err
		}
		return out.Close()
	}
	return nil
}
