package rebuild

import (
	"context"
	"slices"

	"github.com/weavebuild/weave/internal/workspace"
)

// RunFunc runs the builder at index idx of a chain and reports whether it asked for the
// chain to run again.
type RunFunc func(ctx context.Context, idx, iteration int) (needRebuild bool)

// LoopResult summarizes a project loop.
type LoopResult struct {
	// Runs counts the runs of each builder of the chain.
	Runs       []int
	Iterations int
}

// RunProjectLoop runs a chain of n builders for cfg until no builder asks for a rebuild, at
// most MaxIterations times. The first iteration runs every builder. Later ones run the
// requesters and the builders a request cut off, or every builder when PropagateRebuild is
// set. Unless ProcessOtherBuilders is set a request ends the current iteration early, except
// in the last allowed iteration so that every builder runs at least once.
func RunProjectLoop(ctx context.Context, policy Policy, cfg workspace.BuildConfig, n int, run RunFunc) (*LoopResult, error) {
	maxIterations := policy.MaxIterations
	if maxIterations <= 0 {
		maxIterations = workspace.DefaultMaxBuildIterations
	}

	res := &LoopResult{Runs: make([]int, n)}

	selected := make([]int, n)
	for i := range selected {
		selected[i] = i
	}

	for iteration := 1; len(selected) > 0; iteration++ {
		res.Iterations = iteration

		var requesters, aborted []int

		for pos, idx := range selected {
			if ctx.Err() != nil {
				return res, nil
			}

			res.Runs[idx]++

			if !run(ctx, idx, iteration) {
				continue
			}

			requesters = append(requesters, idx)

			if !policy.ProcessOtherBuilders && iteration < maxIterations {
				aborted = append(aborted, selected[pos+1:]...)
				break
			}
		}

		if len(requesters) == 0 {
			return res, nil
		}

		if iteration >= maxIterations {
			return res, NewProjectNonConvergenceError(cfg, iteration)
		}

		if policy.PropagateRebuild {
			selected = selected[:0]
			for i := range n {
				selected = append(selected, i)
			}

			continue
		}

		selected = append(requesters, aborted...)
		slices.Sort(selected)
		selected = slices.Compact(selected)
	}

	return res, nil
}
