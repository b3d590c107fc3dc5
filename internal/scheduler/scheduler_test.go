package scheduler_test

import (
	"context"
	"slices"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/weavebuild/weave/internal/builder"
	"github.com/weavebuild/weave/internal/builder/mocks"
	"github.com/weavebuild/weave/internal/delta"
	"github.com/weavebuild/weave/internal/errors"
	"github.com/weavebuild/weave/internal/rebuild"
	"github.com/weavebuild/weave/internal/rule"
	"github.com/weavebuild/weave/internal/scheduler"
	"github.com/weavebuild/weave/internal/workspace"
	"github.com/weavebuild/weave/test/helpers/logger"
	"go.uber.org/mock/gomock"
)

func newChain(t *testing.T) *workspace.Workspace {
	t.Helper()

	ws := newWorkspace(t, workspace.Description{}, "P0", "P1", "P2")
	require.NoError(t, ws.SetReferences(active("P0"), active("P1")))
	require.NoError(t, ws.SetReferences(active("P1"), active("P2")))

	return ws
}

func TestBuild_ContextOnChain(t *testing.T) {
	t.Parallel()

	fake := &fakeBuilder{}
	s := newScheduler(t, newChain(t), fake)

	status := s.Build(context.Background(), workspace.BuildConfigs{active("P0")}, workspace.FullBuild, true)
	require.NoError(t, status.Err())
	assert.Equal(t, scheduler.SeverityOK, status.Severity())
	assert.Equal(t, scheduler.StateComplete, status.State())

	assert.Equal(t, workspace.BuildConfigs{cfg("P2"), cfg("P1"), cfg("P0")}, fake.Built())

	p0 := fake.CallsFor(cfg("P0"))[0].Context
	assert.True(t, p0.HasContext())
	assert.Equal(t, workspace.BuildConfigs{cfg("P2"), cfg("P1")}, p0.ReferencedConfigs())
	assert.Empty(t, p0.ReferencingConfigs())

	p1 := fake.CallsFor(cfg("P1"))[0].Context
	assert.Equal(t, workspace.BuildConfigs{cfg("P2")}, p1.ReferencedConfigs())
	assert.Equal(t, workspace.BuildConfigs{cfg("P0")}, p1.ReferencingConfigs())
}

func TestBuild_WithoutReferencesBuildsRootsOnly(t *testing.T) {
	t.Parallel()

	fake := &fakeBuilder{}
	s := newScheduler(t, newChain(t), fake)

	status := s.Build(context.Background(), workspace.BuildConfigs{active("P0"), active("P2"), active("P0")}, workspace.FullBuild, false)
	require.NoError(t, status.Err())

	assert.Equal(t, workspace.BuildConfigs{cfg("P2"), cfg("P0")}, fake.Built())
}

func TestBuildConfig_HasNoContext(t *testing.T) {
	t.Parallel()

	fake := &fakeBuilder{}
	s := newScheduler(t, newChain(t), fake)

	status := s.BuildConfig(context.Background(), active("P0"), workspace.FullBuild)
	require.NoError(t, status.Err())

	calls := fake.Calls()
	require.Len(t, calls, 1)
	assert.False(t, calls[0].Context.HasContext())
	assert.Empty(t, calls[0].Context.ReferencedConfigs())
}

func TestBuild_DeduplicatesActiveAlias(t *testing.T) {
	t.Parallel()

	ws := newWorkspace(t, workspace.Description{}, "P0")
	require.NoError(t, ws.AddProject(&workspace.Project{
		Name:          "P1",
		Variants:      []string{"X", "Y"},
		ActiveVariant: "X",
		BuildSpec:     []workspace.Command{{BuilderID: "fake", Triggers: workspace.AllTriggersMask}},
	}))
	require.NoError(t, ws.SetReferences(active("P0"), active("P1"), workspace.NewBuildConfig("P1", "X")))

	fake := &fakeBuilder{}
	s := newScheduler(t, ws, fake)

	status := s.Build(context.Background(), workspace.BuildConfigs{active("P0")}, workspace.FullBuild, true)
	require.NoError(t, status.Err())

	x := workspace.BuildConfig{Project: "P1", Variant: "X"}
	assert.Equal(t, workspace.BuildConfigs{x, cfg("P0")}, fake.Built())
	assert.Equal(t, workspace.BuildConfigs{x}, fake.CallsFor(cfg("P0"))[0].Context.ReferencedConfigs())
}

func TestBuild_ProjectRebuildIsBounded(t *testing.T) {
	t.Parallel()

	fake := &fakeBuilder{build: func(context.Context, *builder.Request) (*builder.Result, error) {
		return &builder.Result{NeedRebuild: true}, nil
	}}

	s := newScheduler(t, newWorkspace(t, workspace.Description{MaxBuildIterations: 5}, "app"), fake)

	status := s.Build(context.Background(), workspace.BuildConfigs{active("app")}, workspace.FullBuild, true)

	assert.Len(t, fake.Calls(), 5)
	assert.Equal(t, scheduler.SeverityWarning, status.Severity())

	res, ok := status.Result(cfg("app"))
	require.True(t, ok)
	assert.Equal(t, 5, res.Builds)
	assert.Len(t, res.Warnings, 1)
}

func TestBuild_WorkspaceRebuildIsBounded(t *testing.T) {
	t.Parallel()

	fake := &fakeBuilder{build: func(_ context.Context, req *builder.Request) (*builder.Result, error) {
		return &builder.Result{RebuildRequests: []builder.RebuildRequest{{Target: req.Config, Count: 42}}}, nil
	}}

	s := newScheduler(t, newWorkspace(t, workspace.Description{}, "app"), fake, scheduler.WithMaxBuildIterations(5))

	status := s.BuildWorkspace(context.Background(), workspace.FullBuild)

	assert.Len(t, fake.Calls(), 5)
	assert.Equal(t, 5, status.Passes())
	assert.Equal(t, scheduler.SeverityWarning, status.Severity())

	require.Len(t, status.Warnings(), 1)

	var nonConvergence rebuild.NonConvergenceError
	require.True(t, errors.As(status.Warnings()[0], &nonConvergence))
	assert.True(t, nonConvergence.Workspace)
}

func TestBuild_RebuildRestartsFromTarget(t *testing.T) {
	t.Parallel()

	ws := newWorkspace(t, workspace.Description{}, "lib", "tool", "app")
	require.NoError(t, ws.SetReferences(active("app"), active("lib")))

	requested := false
	fake := &fakeBuilder{build: func(_ context.Context, req *builder.Request) (*builder.Result, error) {
		if req.Config.Project == "app" && !requested {
			requested = true
			return &builder.Result{RebuildRequests: []builder.RebuildRequest{{Target: active("tool")}}}, nil
		}

		return &builder.Result{}, nil
	}}

	s := newScheduler(t, ws, fake)

	status := s.BuildWorkspace(context.Background(), workspace.FullBuild)
	require.NoError(t, status.Err())

	// second pass starts at tool and runs everything after it
	assert.Equal(t, workspace.BuildConfigs{cfg("lib"), cfg("tool"), cfg("app"), cfg("tool"), cfg("app")}, fake.Built())
	assert.Equal(t, 2, status.Passes())
}

func TestBuild_EarlyExitSkipsUnaffectedConfigs(t *testing.T) {
	t.Parallel()

	ws := newWorkspace(t, workspace.Description{}, "lib", "tool", "app")
	require.NoError(t, ws.SetReferences(active("app"), active("lib")))

	requested := false
	fake := &fakeBuilder{build: func(_ context.Context, req *builder.Request) (*builder.Result, error) {
		if req.Config.Project == "app" && !requested {
			requested = true
			return &builder.Result{RebuildRequests: []builder.RebuildRequest{{Target: active("tool")}}}, nil
		}

		return &builder.Result{}, nil
	}}

	s := newScheduler(t, ws, fake, scheduler.WithEarlyExit(true))

	status := s.BuildWorkspace(context.Background(), workspace.FullBuild)
	require.NoError(t, status.Err())

	// app does not reference tool, so the second pass only rebuilds tool
	assert.Equal(t, workspace.BuildConfigs{cfg("lib"), cfg("tool"), cfg("app"), cfg("tool")}, fake.Built())
}

func TestBuild_FullIsIdempotent(t *testing.T) {
	t.Parallel()

	fake := &fakeBuilder{}
	s := newScheduler(t, newChain(t), fake)

	first := s.BuildWorkspace(context.Background(), workspace.FullBuild)
	firstCalls := fake.Built()

	second := s.BuildWorkspace(context.Background(), workspace.FullBuild)
	allCalls := fake.Built()

	assert.Equal(t, first.Severity(), second.Severity())
	assert.Equal(t, first.Order(), second.Order())
	assert.Equal(t, firstCalls, allCalls[len(firstCalls):])

	for _, c := range fake.Calls() {
		assert.Equal(t, workspace.FullBuild, c.Trigger)
		assert.False(t, c.HasDelta)
	}
}

func TestBuild_NoConflictRunsInParallel(t *testing.T) {
	t.Parallel()

	const (
		projects = 8
		sleep    = 200 * time.Millisecond
	)

	names := make([]string, projects)
	for i := range names {
		names[i] = string(rune('a' + i))
	}

	fake := &fakeBuilder{
		rule: rule.None(),
		build: func(context.Context, *builder.Request) (*builder.Result, error) {
			time.Sleep(sleep)
			return &builder.Result{}, nil
		},
	}

	s := newScheduler(t, newWorkspace(t, workspace.Description{}, names...), fake, scheduler.WithParallelism(projects))

	started := time.Now()
	status := s.BuildWorkspace(context.Background(), workspace.FullBuild)
	elapsed := time.Since(started)

	require.NoError(t, status.Err())
	assert.Len(t, fake.Calls(), projects)
	assert.Less(t, elapsed, 3*sleep)
}

func TestBuild_ConflictingRulesSerialize(t *testing.T) {
	t.Parallel()

	const sleep = 50 * time.Millisecond

	fake := &fakeBuilder{
		rule: rule.Workspace(),
		build: func(context.Context, *builder.Request) (*builder.Result, error) {
			time.Sleep(sleep)
			return &builder.Result{}, nil
		},
	}

	s := newScheduler(t, newWorkspace(t, workspace.Description{}, "a", "b", "c"), fake, scheduler.WithParallelism(3))

	started := time.Now()
	status := s.BuildWorkspace(context.Background(), workspace.FullBuild)

	require.NoError(t, status.Err())
	assert.GreaterOrEqual(t, time.Since(started), 3*sleep)
}

func TestBuild_PartialFailure(t *testing.T) {
	t.Parallel()

	for _, parallelism := range []int{1, 4} {
		ws := newWorkspace(t, workspace.Description{}, "lib", "app", "tool", "cli")
		require.NoError(t, ws.SetReferences(active("app"), active("lib")))
		require.NoError(t, ws.SetReferences(active("cli"), active("app")))

		fake := &fakeBuilder{build: func(_ context.Context, req *builder.Request) (*builder.Result, error) {
			if req.Config.Project == "lib" {
				return nil, errors.New("compile error")
			}

			return &builder.Result{}, nil
		}}

		s := newScheduler(t, ws, fake, scheduler.WithParallelism(parallelism))

		status := s.BuildWorkspace(context.Background(), workspace.FullBuild)

		assert.Equal(t, scheduler.SeverityError, status.Severity())
		assert.Equal(t, scheduler.StateFailed, status.State())
		assert.Equal(t, 1, status.ExitCode())
		assert.ElementsMatch(t, workspace.BuildConfigs{cfg("lib"), cfg("tool")}, fake.Built())

		lib, _ := status.Result(cfg("lib"))
		assert.Equal(t, scheduler.ConfigFailed, lib.State)

		var failed scheduler.BuilderFailedError
		require.True(t, errors.As(lib.Errors[0], &failed))
		assert.Equal(t, "fake", failed.Builder)

		cli, _ := status.Result(cfg("cli"))
		assert.Equal(t, scheduler.ConfigSkipped, cli.State)

		var depFailed scheduler.DependencyFailedError
		require.True(t, errors.As(cli.Errors[0], &depFailed))
		assert.Equal(t, cfg("app"), depFailed.Dependency)

		tool, _ := status.Result(cfg("tool"))
		assert.Equal(t, scheduler.ConfigSucceeded, tool.State)

		assert.ErrorContains(t, status.Err(), "compile error")
		assert.ElementsMatch(t, workspace.BuildConfigs{cfg("lib"), cfg("app"), cfg("cli")}, status.Failed())
	}
}

func TestBuild_PanicFailsConfig(t *testing.T) {
	t.Parallel()

	fake := &fakeBuilder{build: func(context.Context, *builder.Request) (*builder.Result, error) {
		panic("boom")
	}}

	s := newScheduler(t, newWorkspace(t, workspace.Description{}, "app"), fake)

	status := s.BuildWorkspace(context.Background(), workspace.FullBuild)

	assert.Equal(t, scheduler.SeverityError, status.Severity())
	assert.ErrorContains(t, status.Err(), "boom")
}

// panickingRule is a builder whose scheduling rule cannot be computed.
type panickingRule struct {
	*fakeBuilder
}

func (panickingRule) Rule(workspace.Trigger, map[string]string) rule.Rule {
	panic("rule boom")
}

func TestBuild_RulePanicFailsConfig(t *testing.T) {
	t.Parallel()

	fake := &fakeBuilder{}
	ws := newWorkspace(t, workspace.Description{}, "lib", "other")
	require.NoError(t, ws.AddProject(&workspace.Project{
		Name:       "app",
		References: map[string][]workspace.BuildConfig{workspace.DefaultVariant: {cfg("lib")}},
		BuildSpec:  []workspace.Command{{BuilderID: "broken", Triggers: workspace.AllTriggersMask}},
	}))
	require.NoError(t, ws.AddProject(&workspace.Project{
		Name:       "cli",
		References: map[string][]workspace.BuildConfig{workspace.DefaultVariant: {cfg("app")}},
		BuildSpec:  []workspace.Command{{BuilderID: "fake", Triggers: workspace.AllTriggersMask}},
	}))

	registry := builder.NewRegistry()
	require.NoError(t, registry.Register("fake", func(workspace.Command) (builder.Builder, error) { return fake, nil }))
	require.NoError(t, registry.Register("broken", func(workspace.Command) (builder.Builder, error) {
		return panickingRule{fakeBuilder: &fakeBuilder{}}, nil
	}))

	s := scheduler.New(ws, registry, logger.CreateLogger())

	var status *scheduler.Status

	require.NotPanics(t, func() { status = s.BuildWorkspace(context.Background(), workspace.FullBuild) })

	assert.Equal(t, scheduler.SeverityError, status.Severity())
	assert.ErrorContains(t, status.Err(), "rule boom")

	res, ok := status.Result(cfg("app"))
	require.True(t, ok)
	assert.Equal(t, scheduler.ConfigFailed, res.State)

	res, ok = status.Result(cfg("cli"))
	require.True(t, ok)
	assert.Equal(t, scheduler.ConfigSkipped, res.State)

	assert.ElementsMatch(t, workspace.BuildConfigs{cfg("lib"), cfg("other")}, fake.Built())
}

func TestBuild_FactoryPanicFailsConfig(t *testing.T) {
	t.Parallel()

	fake := &fakeBuilder{}
	ws := newWorkspace(t, workspace.Description{}, "lib")
	require.NoError(t, ws.AddProject(&workspace.Project{
		Name:      "app",
		BuildSpec: []workspace.Command{{BuilderID: "broken", Triggers: workspace.AllTriggersMask}},
	}))

	registry := builder.NewRegistry()
	require.NoError(t, registry.Register("fake", func(workspace.Command) (builder.Builder, error) { return fake, nil }))
	require.NoError(t, registry.Register("broken", func(workspace.Command) (builder.Builder, error) { panic("factory boom") }))

	s := scheduler.New(ws, registry, logger.CreateLogger())

	var status *scheduler.Status

	require.NotPanics(t, func() { status = s.BuildWorkspace(context.Background(), workspace.FullBuild) })

	assert.Equal(t, scheduler.SeverityError, status.Severity())
	assert.ErrorContains(t, status.Err(), "factory boom")
	assert.Equal(t, workspace.BuildConfigs{cfg("lib")}, fake.Built())
}

func TestBuild_ExplicitOrderHoldsInParallel(t *testing.T) {
	t.Parallel()

	fake := &fakeBuilder{build: func(_ context.Context, req *builder.Request) (*builder.Result, error) {
		if req.Config.Project == "app" {
			time.Sleep(50 * time.Millisecond)

			return nil, errors.New("app broke")
		}

		return &builder.Result{}, nil
	}}

	ws := newWorkspace(t, workspace.Description{BuildOrder: []string{"app", "lib"}}, "lib", "app", "tool")
	require.NoError(t, ws.SetReferences(cfg("app"), cfg("lib")))

	s := newScheduler(t, ws, fake, scheduler.WithParallelism(4))

	status := s.BuildWorkspace(context.Background(), workspace.FullBuild)

	built := fake.Built()
	require.Len(t, built, 3)
	assert.Less(t, slices.Index(built, cfg("app")), slices.Index(built, cfg("lib")))

	// an explicit predecessor that fails does not skip the next one
	res, ok := status.Result(cfg("lib"))
	require.True(t, ok)
	assert.Equal(t, scheduler.ConfigSucceeded, res.State)
}

func TestBuild_Cancellation(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	fake := &fakeBuilder{build: func(ctx context.Context, req *builder.Request) (*builder.Result, error) {
		if req.Config.Project == "a" {
			cancel()
		}

		return &builder.Result{}, nil
	}}

	s := newScheduler(t, newWorkspace(t, workspace.Description{}, "a", "b", "c"), fake)

	status := s.BuildWorkspace(ctx, workspace.FullBuild)

	assert.Equal(t, scheduler.StateCancelled, status.State())
	assert.Equal(t, scheduler.SeverityCancelled, status.Severity())
	assert.Equal(t, 2, status.ExitCode())
	assert.Equal(t, workspace.BuildConfigs{cfg("a")}, fake.Built())
}

func TestBuild_IncrementalDelta(t *testing.T) {
	t.Parallel()

	ws := newWorkspace(t, workspace.Description{}, "app")
	fake := &fakeBuilder{}
	s := newScheduler(t, ws, fake)
	build := func() call {
		status := s.BuildWorkspace(context.Background(), workspace.IncrementalBuild)
		require.NoError(t, status.Err())

		calls := fake.Calls()

		return calls[len(calls)-1]
	}

	first := build()
	assert.Equal(t, workspace.FullBuild, first.Trigger, "no previous state")
	assert.False(t, first.HasDelta)

	second := build()
	assert.Equal(t, workspace.IncrementalBuild, second.Trigger)
	assert.True(t, second.HasDelta)
	assert.Empty(t, second.Paths)

	require.NoError(t, ws.RecordChange("app", "a.txt", delta.Added))

	// a change lands while the builder runs
	fake.build = func(context.Context, *builder.Request) (*builder.Result, error) {
		require.NoError(t, ws.RecordChange("app", "b.txt", delta.Added))
		return &builder.Result{}, nil
	}

	third := build()
	assert.Equal(t, []string{"a.txt"}, third.Paths)

	fake.build = nil

	fourth := build()
	assert.Equal(t, []string{"b.txt"}, fourth.Paths)
}

func TestBuild_FailedBuildKeepsDelta(t *testing.T) {
	t.Parallel()

	ws := newWorkspace(t, workspace.Description{}, "app")
	fake := &fakeBuilder{}
	s := newScheduler(t, ws, fake)

	require.NoError(t, s.BuildWorkspace(context.Background(), workspace.FullBuild).Err())
	require.NoError(t, ws.RecordChange("app", "a.txt", delta.Changed))

	fake.build = func(context.Context, *builder.Request) (*builder.Result, error) {
		return nil, errors.New("flaky")
	}

	require.Error(t, s.BuildWorkspace(context.Background(), workspace.IncrementalBuild).Err())

	fake.build = nil

	require.NoError(t, s.BuildWorkspace(context.Background(), workspace.IncrementalBuild).Err())

	calls := fake.Calls()
	assert.Equal(t, []string{"a.txt"}, calls[len(calls)-1].Paths)
}

func TestBuild_InterestingProjects(t *testing.T) {
	t.Parallel()

	ws := newWorkspace(t, workspace.Description{}, "app", "lib")

	var related map[string][]delta.Change

	fake := &fakeBuilder{build: func(_ context.Context, req *builder.Request) (*builder.Result, error) {
		if req.Config.Project == "app" && req.Delta != nil {
			related = req.Delta.Related
		}

		return &builder.Result{InterestingProjects: []string{"lib"}}, nil
	}}

	s := newScheduler(t, ws, fake)

	require.NoError(t, s.BuildWorkspace(context.Background(), workspace.FullBuild).Err())
	require.NoError(t, ws.RecordChange("lib", "lib.go", delta.Changed))
	require.NoError(t, s.BuildConfig(context.Background(), active("app"), workspace.IncrementalBuild).Err())

	require.Contains(t, related, "lib")
	assert.Equal(t, "lib.go", related["lib"][0].Path)
}

func TestBuild_SkipOnEmptyDelta(t *testing.T) {
	t.Parallel()

	ws := workspace.New(workspace.Description{})
	require.NoError(t, ws.AddProject(&workspace.Project{
		Name:      "app",
		BuildSpec: []workspace.Command{{BuilderID: "fake", Triggers: workspace.AllTriggersMask, SkipOnEmptyDelta: true}},
	}))

	fake := &fakeBuilder{}
	s := newScheduler(t, ws, fake)

	require.NoError(t, s.BuildWorkspace(context.Background(), workspace.IncrementalBuild).Err())
	require.NoError(t, s.BuildWorkspace(context.Background(), workspace.IncrementalBuild).Err())
	assert.Len(t, fake.Calls(), 1)

	require.NoError(t, ws.RecordChange("app", "x", delta.Changed))
	require.NoError(t, s.BuildWorkspace(context.Background(), workspace.IncrementalBuild).Err())
	assert.Len(t, fake.Calls(), 2)
}

func TestBuild_TriggerMask(t *testing.T) {
	t.Parallel()

	ws := workspace.New(workspace.Description{AutoBuild: true})
	require.NoError(t, ws.AddProject(&workspace.Project{
		Name:      "app",
		BuildSpec: []workspace.Command{{BuilderID: "fake", Triggers: workspace.NewTriggerMask(workspace.FullBuild)}},
	}))

	fake := &fakeBuilder{}
	s := newScheduler(t, ws, fake)

	require.NoError(t, s.BuildWorkspace(context.Background(), workspace.AutoBuild).Err())
	assert.Empty(t, fake.Calls())

	require.NoError(t, s.BuildWorkspace(context.Background(), workspace.FullBuild).Err())
	assert.Len(t, fake.Calls(), 1)
}

func TestBuild_AutoBuildDisabled(t *testing.T) {
	t.Parallel()

	fake := &fakeBuilder{}
	s := newScheduler(t, newWorkspace(t, workspace.Description{AutoBuild: false}, "app"), fake)

	status := s.BuildWorkspace(context.Background(), workspace.AutoBuild)

	assert.Equal(t, scheduler.StateComplete, status.State())
	assert.Empty(t, fake.Calls())
}

func TestClean_ResetsState(t *testing.T) {
	t.Parallel()

	ws := newWorkspace(t, workspace.Description{}, "app")
	fake := &fakeBuilder{}
	s := newScheduler(t, ws, fake)

	require.NoError(t, s.BuildWorkspace(context.Background(), workspace.FullBuild).Err())
	require.NoError(t, s.Clean(context.Background()).Err())
	assert.Equal(t, 1, fake.cleans)

	require.NoError(t, s.BuildWorkspace(context.Background(), workspace.IncrementalBuild).Err())

	calls := fake.Calls()
	assert.Equal(t, workspace.FullBuild, calls[len(calls)-1].Trigger)
}

func TestBuild_CycleIsWarning(t *testing.T) {
	t.Parallel()

	ws := newWorkspace(t, workspace.Description{}, "a", "b")
	require.NoError(t, ws.SetReferences(active("a"), active("b")))
	require.NoError(t, ws.SetReferences(active("b"), active("a")))

	fake := &fakeBuilder{}
	s := newScheduler(t, ws, fake)

	status := s.BuildWorkspace(context.Background(), workspace.FullBuild)

	assert.Equal(t, scheduler.SeverityWarning, status.Severity())
	assert.Len(t, fake.Calls(), 2)
	require.Len(t, status.Knots(), 1)

	var cycle scheduler.CycleDetectedError
	require.True(t, errors.As(status.Warnings()[0], &cycle))
}

func TestBuild_UnknownBuilderFailsConfig(t *testing.T) {
	t.Parallel()

	ws := workspace.New(workspace.Description{})
	require.NoError(t, ws.AddProject(&workspace.Project{
		Name:      "app",
		BuildSpec: []workspace.Command{{BuilderID: "missing", Triggers: workspace.AllTriggersMask}},
	}))

	s := newScheduler(t, ws, &fakeBuilder{})

	status := s.BuildWorkspace(context.Background(), workspace.FullBuild)

	var unknown builder.UnknownBuilderError
	require.True(t, errors.As(status.Err(), &unknown))
}

func TestBuild_MockBuilder(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	mock := mocks.NewMockBuilder(ctrl)

	ws := workspace.New(workspace.Description{})
	require.NoError(t, ws.AddProject(&workspace.Project{
		Name:      "app",
		BuildSpec: []workspace.Command{{BuilderID: "mock", Triggers: workspace.AllTriggersMask, Args: map[string]string{"k": "v"}}},
	}))

	mock.EXPECT().Rule(workspace.FullBuild, map[string]string{"k": "v"}).Return(rule.Self())
	mock.EXPECT().Build(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, req *builder.Request) (*builder.Result, error) {
		assert.Equal(t, "v", req.Args["k"])
		assert.Equal(t, 1, req.Pass)

		return &builder.Result{Warnings: []string{"deprecated flag"}}, nil
	})

	registry := builder.NewRegistry()
	require.NoError(t, registry.Register("mock", func(workspace.Command) (builder.Builder, error) { return mock, nil }))

	s := scheduler.New(ws, registry, logger.CreateLogger())

	status := s.BuildWorkspace(context.Background(), workspace.FullBuild)

	assert.Equal(t, scheduler.SeverityWarning, status.Severity())
	assert.Equal(t, 0, status.ExitCode())

	res, _ := status.Result(cfg("app"))
	assert.Equal(t, []string{"deprecated flag"}, res.Warnings)
}
