// Package config loads the workspace file, weave.hcl.
//
// A workspace file holds an optional workspace block, project blocks, and an include list of
// further files that may only hold project blocks:
//
//	workspace {
//	  build_order          = ["lib", "app"]
//	  max_build_iterations = 5
//	  parallelism          = 4
//	}
//
//	include = ["services/*.hcl"]
//
//	project "app" {
//	  variants = ["debug", "release"]
//
//	  reference "debug" {
//	    configs = ["lib:debug", "tool"]
//	  }
//
//	  builder "shell" {
//	    triggers = ["full", "incremental"]
//	    args = {
//	      command = "make -C ${workspace_dir}/${project}"
//	    }
//	  }
//	}
//
// Expressions can use workspace_dir, env, and inside a project block, project.
package config

import (
	"context"
	"path/filepath"
	"slices"

	"dario.cat/mergo"
	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/weavebuild/weave/config/hclparse"
	"github.com/weavebuild/weave/internal/errors"
	"github.com/weavebuild/weave/internal/workspace"
	"github.com/weavebuild/weave/pkg/log"
	"golang.org/x/sync/errgroup"
)

// MaxIncludeParallelism bounds the number of include files parsed at once.
const MaxIncludeParallelism = 8

type workspaceFile struct {
	Workspace *workspaceBlock `hcl:"workspace,block"`
	Include   []string        `hcl:"include,optional"`
	Projects  []projectBlock  `hcl:"project,block"`
}

type workspaceBlock struct {
	BuildOrder           []string `hcl:"build_order,optional"`
	MaxBuildIterations   *int     `hcl:"max_build_iterations,optional"`
	AutoBuild            *bool    `hcl:"auto_build,optional"`
	PropagateRebuild     *bool    `hcl:"propagate_rebuild,optional"`
	ProcessOtherBuilders *bool    `hcl:"process_other_builders,optional"`
	EarlyExit            *bool    `hcl:"early_exit,optional"`
	Parallelism          *int     `hcl:"parallelism,optional"`
}

// projectBlock is decoded in two steps so that the project name is in scope for its body.
type projectBlock struct {
	Body hcl.Body `hcl:",remain"`
	Name string   `hcl:"name,label"`
}

type projectBody struct {
	ActiveVariant *string          `hcl:"active_variant,optional"`
	Closed        *bool            `hcl:"closed,optional"`
	Variants      []string         `hcl:"variants,optional"`
	References    []referenceBlock `hcl:"reference,block"`
	Builders      []builderBlock   `hcl:"builder,block"`
}

type referenceBlock struct {
	Variant string   `hcl:"variant,label"`
	Configs []string `hcl:"configs"`
}

type builderBlock struct {
	SkipOnEmptyDelta *bool             `hcl:"skip_on_empty_delta,optional"`
	Args             map[string]string `hcl:"args,optional"`
	ID               string            `hcl:"id,label"`
	Triggers         []string          `hcl:"triggers,optional"`
}

// Settings are the scheduler settings a workspace file may carry. Command line flags win.
type Settings struct {
	Parallelism          int
	PropagateRebuild     bool
	ProcessOtherBuilders bool
	EarlyExit            bool
}

// WorkspaceConfig is a loaded workspace file.
type WorkspaceConfig struct {
	Settings    Settings
	Path        string
	Dir         string
	Projects    []*workspace.Project
	Description workspace.Description
}

// DefaultDescription is merged into every loaded description. Auto build is on unless the
// file turns it off.
func DefaultDescription() workspace.Description {
	return workspace.Description{
		MaxBuildIterations: workspace.DefaultMaxBuildIterations,
	}
}

// Load reads the workspace file at path and the files it includes.
func Load(ctx context.Context, l log.Logger, path string) (*WorkspaceConfig, error) {
	path, err := filepath.Abs(path)
	if err != nil {
		return nil, errors.New(err)
	}

	dir := filepath.Dir(path)

	root, err := decodeFile(l, path, dir)
	if err != nil {
		return nil, err
	}

	cfg := &WorkspaceConfig{Path: path, Dir: dir}

	if err := cfg.applyWorkspace(root.Workspace); err != nil {
		return nil, err
	}

	projects, err := decodeProjects(path, dir, root.Projects)
	if err != nil {
		return nil, err
	}

	included, err := loadIncludes(ctx, l, dir, root.Include)
	if err != nil {
		return nil, err
	}

	for _, project := range append(projects, included...) {
		if err := cfg.addProject(project); err != nil {
			return nil, err
		}
	}

	l.Debugf("Loaded %d projects from %s", len(cfg.Projects), path)

	return cfg, nil
}

// NewWorkspace builds a workspace from the loaded file.
func (cfg *WorkspaceConfig) NewWorkspace() (*workspace.Workspace, error) {
	ws := workspace.New(cfg.Description)

	for _, project := range cfg.Projects {
		if err := ws.AddProject(project); err != nil {
			return nil, errors.WithPrefix(err, "%s", cfg.Path)
		}
	}

	return ws, nil
}

func (cfg *WorkspaceConfig) applyWorkspace(block *workspaceBlock) error {
	desc := workspace.Description{}

	if block != nil {
		desc.BuildOrder = block.BuildOrder
		desc.AutoBuild = deref(block.AutoBuild, true)

		if block.MaxBuildIterations != nil {
			if *block.MaxBuildIterations < 1 {
				return errors.New(InvalidValueError{File: cfg.Path, Name: "max_build_iterations", Reason: "must be at least 1"})
			}

			desc.MaxBuildIterations = *block.MaxBuildIterations
		}

		if block.Parallelism != nil && *block.Parallelism < 1 {
			return errors.New(InvalidValueError{File: cfg.Path, Name: "parallelism", Reason: "must be at least 1"})
		}

		cfg.Settings = Settings{
			Parallelism:          deref(block.Parallelism, 0),
			PropagateRebuild:     deref(block.PropagateRebuild, false),
			ProcessOtherBuilders: deref(block.ProcessOtherBuilders, false),
			EarlyExit:            deref(block.EarlyExit, false),
		}
	} else {
		desc.AutoBuild = true
	}

	if err := mergo.Merge(&desc, DefaultDescription()); err != nil {
		return errors.New(err)
	}

	cfg.Description = desc

	return nil
}

func (cfg *WorkspaceConfig) addProject(project *workspace.Project) error {
	if slices.ContainsFunc(cfg.Projects, func(p *workspace.Project) bool { return p.Name == project.Name }) {
		return errors.New(DuplicateProjectError{File: cfg.Path, Project: project.Name})
	}

	cfg.Projects = append(cfg.Projects, project)

	return nil
}

// MergeSettings fills the zero fields of settings from the workspace file.
func (cfg *WorkspaceConfig) MergeSettings(settings *Settings) error {
	if err := mergo.Merge(settings, cfg.Settings); err != nil {
		return errors.New(err)
	}

	return nil
}

func decodeFile(l log.Logger, path, dir string) (*workspaceFile, error) {
	parser := hclparse.NewParser(hclparse.WithLogger(l))

	file, err := parser.ParseFromFile(path)
	if err != nil {
		return nil, err
	}

	out := &workspaceFile{}

	if diags := gohcl.DecodeBody(file.Body, newEvalContext(dir, ""), out); diags.HasErrors() {
		return nil, errors.New(diags)
	}

	return out, nil
}

func decodeProjects(path, dir string, blocks []projectBlock) ([]*workspace.Project, error) {
	projects := make([]*workspace.Project, 0, len(blocks))

	for _, block := range blocks {
		body := &projectBody{}

		if diags := gohcl.DecodeBody(block.Body, newEvalContext(dir, block.Name), body); diags.HasErrors() {
			return nil, errors.New(diags)
		}

		project, err := body.project(block.Name)
		if err != nil {
			return nil, errors.WithPrefix(err, "%s", path)
		}

		projects = append(projects, project)
	}

	return projects, nil
}

func (body *projectBody) project(name string) (*workspace.Project, error) {
	project := &workspace.Project{
		Name:          name,
		Variants:      body.Variants,
		ActiveVariant: deref(body.ActiveVariant, ""),
		Closed:        deref(body.Closed, false),
		References:    make(map[string][]workspace.BuildConfig, len(body.References)),
	}

	variants := project.Variants
	if len(variants) == 0 {
		variants = []string{workspace.DefaultVariant}
	}

	for _, ref := range body.References {
		if !slices.Contains(variants, ref.Variant) {
			return nil, workspace.NewUnknownVariantError(name, ref.Variant)
		}

		for _, str := range ref.Configs {
			project.References[ref.Variant] = append(project.References[ref.Variant], workspace.ParseBuildConfig(str))
		}
	}

	for _, b := range body.Builders {
		triggers, err := workspace.ParseTriggerMask(b.Triggers)
		if err != nil {
			return nil, err
		}

		project.BuildSpec = append(project.BuildSpec, workspace.Command{
			Args:             b.Args,
			BuilderID:        b.ID,
			Triggers:         triggers,
			SkipOnEmptyDelta: deref(b.SkipOnEmptyDelta, false),
		})
	}

	return project, nil
}

// loadIncludes parses the included files concurrently. Projects keep the order of the
// include list, then of the files a pattern matches.
func loadIncludes(ctx context.Context, l log.Logger, dir string, patterns []string) ([]*workspace.Project, error) {
	var files []string

	for _, pattern := range patterns {
		if !filepath.IsAbs(pattern) {
			pattern = filepath.Join(dir, pattern)
		}

		matches, err := filepath.Glob(pattern)
		if err != nil {
			return nil, errors.New(err)
		}

		if len(matches) == 0 {
			l.Warnf("Include %s matches no file", pattern)
		}

		files = append(files, matches...)
	}

	results := make([][]*workspace.Project, len(files))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(MaxIncludeParallelism)

	for i, file := range files {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return errors.New(err)
			}

			decoded, err := decodeFile(l, file, dir)
			if err != nil {
				return err
			}

			if decoded.Workspace != nil || len(decoded.Include) > 0 {
				return errors.New(InvalidIncludeError{File: file})
			}

			results[i], err = decodeProjects(file, dir, decoded.Projects)

			return err
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	var projects []*workspace.Project

	for _, res := range results {
		projects = append(projects, res...)
	}

	return projects, nil
}

func deref[T any](ptr *T, def T) T {
	if ptr == nil {
		return def
	}

	return *ptr
}
