package workspace_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/weavebuild/weave/internal/delta"
	"github.com/weavebuild/weave/internal/errors"
	"github.com/weavebuild/weave/internal/workspace"
)

func TestParseBuildConfig(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		input    string
		expected workspace.BuildConfig
		str      string
	}{
		{"app", workspace.BuildConfig{Project: "app", Variant: workspace.ActiveVariant}, "app"},
		{"app:debug", workspace.BuildConfig{Project: "app", Variant: "debug"}, "app:debug"},
		{"app:", workspace.BuildConfig{Project: "app", Variant: workspace.ActiveVariant}, "app"},
	}

	for _, tc := range testCases {
		t.Run(tc.input, func(t *testing.T) {
			t.Parallel()

			cfg := workspace.ParseBuildConfig(tc.input)
			assert.Equal(t, tc.expected, cfg)
			assert.Equal(t, tc.str, cfg.String())
		})
	}
}

func TestTriggerMask(t *testing.T) {
	t.Parallel()

	mask, err := workspace.ParseTriggerMask([]string{"full", "Clean"})
	require.NoError(t, err)

	assert.True(t, mask.Enabled(workspace.FullBuild))
	assert.True(t, mask.Enabled(workspace.CleanBuild))
	assert.False(t, mask.Enabled(workspace.AutoBuild))
	assert.Equal(t, "full,clean", mask.String())

	mask, err = workspace.ParseTriggerMask(nil)
	require.NoError(t, err)
	assert.Equal(t, workspace.AllTriggersMask, mask)

	_, err = workspace.ParseTriggerMask([]string{"sometimes"})
	require.Error(t, err)
}

func TestWorkspace_Resolve(t *testing.T) {
	t.Parallel()

	ws := workspace.New(workspace.Description{})
	require.NoError(t, ws.AddProject(&workspace.Project{Name: "app", Variants: []string{"debug", "release"}}))

	cfg, ok := ws.Resolve(workspace.NewBuildConfig("app", ""))
	require.True(t, ok)
	assert.Equal(t, "debug", cfg.Variant)

	require.NoError(t, ws.SetActiveVariant("app", "release"))

	cfg, ok = ws.Resolve(workspace.NewBuildConfig("app", ""))
	require.True(t, ok)
	assert.Equal(t, "release", cfg.Variant)

	_, ok = ws.Resolve(workspace.NewBuildConfig("app", "profile"))
	assert.False(t, ok)

	require.NoError(t, ws.SetClosed("app", true))

	_, ok = ws.Resolve(workspace.NewBuildConfig("app", "debug"))
	assert.False(t, ok)
	assert.Empty(t, ws.ActiveConfigs())

	err := ws.SetActiveVariant("app", "profile")

	var variantErr workspace.UnknownVariantError
	require.True(t, errors.As(err, &variantErr))
	assert.Equal(t, "profile", variantErr.Variant)
}

func TestWorkspace_ReferencesCollapseAliases(t *testing.T) {
	t.Parallel()

	ws := workspace.New(workspace.Description{})
	require.NoError(t, ws.AddProject(&workspace.Project{Name: "P0"}))
	require.NoError(t, ws.AddProject(&workspace.Project{Name: "P1", Variants: []string{"X", "Y"}}))

	p0 := workspace.NewBuildConfig("P0", "")
	require.NoError(t, ws.SetReferences(p0,
		workspace.NewBuildConfig("P1", ""),
		workspace.NewBuildConfig("P1", "X"),
		p0,
		workspace.NewBuildConfig("ghost", ""),
	))

	assert.Equal(t, workspace.BuildConfigs{{Project: "P1", Variant: "X"}}, ws.References(p0))

	require.NoError(t, ws.SetActiveVariant("P1", "Y"))
	assert.Equal(t, workspace.BuildConfigs{{Project: "P1", Variant: "Y"}, {Project: "P1", Variant: "X"}}, ws.References(p0))
}

func TestWorkspace_ProjectIsCopied(t *testing.T) {
	t.Parallel()

	ws := workspace.New(workspace.Description{})
	require.NoError(t, ws.AddProject(&workspace.Project{
		Name:      "app",
		BuildSpec: []workspace.Command{{BuilderID: "shell", Args: map[string]string{"command": "make"}}},
	}))

	spec := ws.BuildSpec("app")
	spec[0].Args["command"] = "rm"

	assert.Equal(t, "make", ws.BuildSpec("app")[0].Args["command"])
	assert.Equal(t, workspace.DefaultMaxBuildIterations, ws.Description().MaxBuildIterations)
}

func TestWorkspace_RecordChange(t *testing.T) {
	t.Parallel()

	ws := workspace.New(workspace.Description{})
	require.NoError(t, ws.AddProject(&workspace.Project{Name: "app"}))

	require.NoError(t, ws.RecordChange("app", "main.go", delta.Changed))
	require.Error(t, ws.RecordChange("ghost", "main.go", delta.Changed))

	assert.Equal(t, uint64(1), ws.Tracker().Snapshot())
}
