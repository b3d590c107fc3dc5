package order

import (
	"context"

	"github.com/weavebuild/weave/cli/commands/common"
	"github.com/weavebuild/weave/internal/order"
	"github.com/weavebuild/weave/options"
)

func Run(ctx context.Context, opts *options.WeaveOptions, cmdOpts *Options, args []string) error {
	session, err := common.NewSession(ctx, opts)
	if err != nil {
		return err
	}

	roots := session.Workspace.ActiveConfigs()
	if len(args) > 0 {
		roots = common.ParseConfigs(args)
	}

	res, err := order.NewComputer(session.Workspace, session.Workspace.Description().BuildOrder).Compute(roots, !cmdOpts.NoReferences)
	if err != nil {
		return err
	}

	if len(opts.Include) > 0 || len(opts.Exclude) > 0 {
		filter, err := order.NewFilter(opts.Include, opts.Exclude)
		if err != nil {
			return err
		}

		if res, err = filter.Apply(res); err != nil {
			return err
		}
	}

	knots := make([][]string, 0, len(res.Knots))
	for _, knot := range res.Knots {
		knots = append(knots, knot.Strings())
	}

	return common.NewReporter(opts.Writer, opts.DisableLogColors).Order(cmdOpts.Format, res.Configs.Strings(), knots)
}
