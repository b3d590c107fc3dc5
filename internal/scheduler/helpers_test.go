package scheduler_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/weavebuild/weave/internal/buildctx"
	"github.com/weavebuild/weave/internal/builder"
	"github.com/weavebuild/weave/internal/rule"
	"github.com/weavebuild/weave/internal/scheduler"
	"github.com/weavebuild/weave/internal/workspace"
	"github.com/weavebuild/weave/test/helpers/logger"
)

// call is what a fake builder saw in one run.
type call struct {
	Context   *buildctx.Context
	Paths     []string
	Config    workspace.BuildConfig
	Trigger   workspace.Trigger
	Iteration int
	Pass      int
	HasDelta  bool
}

// fakeBuilder records its runs. The build hook decides the outcome; nil means success.
type fakeBuilder struct {
	build  func(ctx context.Context, req *builder.Request) (*builder.Result, error)
	calls  []call
	rule   rule.Rule
	cleans int
	mu     sync.Mutex
}

func (b *fakeBuilder) Build(ctx context.Context, req *builder.Request) (*builder.Result, error) {
	b.mu.Lock()
	b.calls = append(b.calls, call{
		Context:   req.Context,
		Paths:     req.Delta.Paths(),
		Config:    req.Config,
		Trigger:   req.Trigger,
		Iteration: req.Iteration,
		Pass:      req.Pass,
		HasDelta:  req.Delta != nil,
	})
	hook := b.build
	b.mu.Unlock()

	if hook == nil {
		return &builder.Result{}, nil
	}

	return hook(ctx, req)
}

func (b *fakeBuilder) Rule(workspace.Trigger, map[string]string) rule.Rule {
	return b.rule
}

func (b *fakeBuilder) Clean(context.Context, *builder.Request) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.cleans++

	return nil
}

func (b *fakeBuilder) Calls() []call {
	b.mu.Lock()
	defer b.mu.Unlock()

	return append([]call(nil), b.calls...)
}

func (b *fakeBuilder) CallsFor(cfg workspace.BuildConfig) []call {
	var out []call

	for _, c := range b.Calls() {
		if c.Config == cfg {
			out = append(out, c)
		}
	}

	return out
}

func (b *fakeBuilder) Built() workspace.BuildConfigs {
	var out workspace.BuildConfigs

	for _, c := range b.Calls() {
		out = append(out, c.Config)
	}

	return out
}

func cfg(project string) workspace.BuildConfig {
	return workspace.BuildConfig{Project: project, Variant: workspace.DefaultVariant}
}

func active(project string) workspace.BuildConfig {
	return workspace.NewBuildConfig(project, "")
}

// newWorkspace returns a workspace whose projects all run the "fake" builder.
func newWorkspace(t *testing.T, desc workspace.Description, projects ...string) *workspace.Workspace {
	t.Helper()

	ws := workspace.New(desc)

	for _, name := range projects {
		require.NoError(t, ws.AddProject(&workspace.Project{
			Name:      name,
			BuildSpec: []workspace.Command{{BuilderID: "fake", Triggers: workspace.AllTriggersMask}},
		}))
	}

	return ws
}

func newScheduler(t *testing.T, ws *workspace.Workspace, fake *fakeBuilder, opts ...scheduler.Option) *scheduler.Scheduler {
	t.Helper()

	registry := builder.NewRegistry()
	require.NoError(t, registry.Register("fake", func(workspace.Command) (builder.Builder, error) { return fake, nil }))

	return scheduler.New(ws, registry, logger.CreateLogger(), opts...)
}
