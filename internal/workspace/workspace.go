// Package workspace holds the projects that take part in a build: their variants, their
// build specs and the references between their build configurations.
package workspace

import (
	"maps"
	"slices"
	"sync"

	"github.com/weavebuild/weave/internal/delta"
	"github.com/weavebuild/weave/internal/errors"
)

// DefaultMaxBuildIterations is used when the description does not set a cap.
const DefaultMaxBuildIterations = 10

// Description holds the workspace-wide build settings.
type Description struct {
	// BuildOrder is an explicit project order; nil means the computed order is used. Parallel
	// builds start a named project only once the previous named one has finished.
	BuildOrder         []string
	MaxBuildIterations int
	AutoBuild          bool
}

// Command is one entry of a project's build spec.
type Command struct {
	Args             map[string]string
	BuilderID        string
	Triggers         TriggerMask
	SkipOnEmptyDelta bool
}

// Project is a build unit owner with one or more variants.
type Project struct {
	// References maps a variant to the configs it depends on, in declaration order.
	References    map[string][]BuildConfig
	Name          string
	ActiveVariant string
	Variants      []string
	BuildSpec     []Command
	Closed        bool
}

// HasVariant reports whether the project declares the variant.
func (p *Project) HasVariant(variant string) bool {
	return slices.Contains(p.Variants, variant)
}

func (p *Project) clone() *Project {
	cp := *p
	cp.Variants = slices.Clone(p.Variants)
	cp.BuildSpec = slices.Clone(p.BuildSpec)
	cp.References = make(map[string][]BuildConfig, len(p.References))

	for variant, refs := range p.References {
		cp.References[variant] = slices.Clone(refs)
	}

	return &cp
}

// Workspace is the set of projects plus the change tracker. It is safe for concurrent use.
type Workspace struct {
	projects map[string]*Project
	tracker  *delta.Tracker
	names    []string
	desc     Description
	mu       sync.RWMutex
}

// New returns an empty workspace with the given description.
func New(desc Description) *Workspace {
	if desc.MaxBuildIterations <= 0 {
		desc.MaxBuildIterations = DefaultMaxBuildIterations
	}

	return &Workspace{
		projects: make(map[string]*Project),
		tracker:  delta.NewTracker(),
		desc:     desc,
	}
}

// Description returns a copy of the workspace description.
func (ws *Workspace) Description() Description {
	ws.mu.RLock()
	defer ws.mu.RUnlock()

	desc := ws.desc
	desc.BuildOrder = slices.Clone(ws.desc.BuildOrder)

	return desc
}

// Tracker returns the change tracker of the workspace.
func (ws *Workspace) Tracker() *delta.Tracker {
	return ws.tracker
}

// AddProject adds or replaces a project. A project without variants gets a single
// "default" variant; the first variant is active unless another one is set.
func (ws *Workspace) AddProject(project *Project) error {
	if project.Name == "" {
		return errors.New("project name must not be empty")
	}

	project = project.clone()

	if len(project.Variants) == 0 {
		project.Variants = []string{DefaultVariant}
	}

	if project.ActiveVariant == "" {
		project.ActiveVariant = project.Variants[0]
	}

	if !project.HasVariant(project.ActiveVariant) {
		return NewUnknownVariantError(project.Name, project.ActiveVariant)
	}

	ws.mu.Lock()
	defer ws.mu.Unlock()

	if _, ok := ws.projects[project.Name]; !ok {
		ws.names = append(ws.names, project.Name)
	}

	ws.projects[project.Name] = project

	return nil
}

// DefaultVariant is the variant given to projects that declare none.
const DefaultVariant = "default"

// Project returns a copy of the named project.
func (ws *Workspace) Project(name string) (*Project, bool) {
	ws.mu.RLock()
	defer ws.mu.RUnlock()

	project, ok := ws.projects[name]
	if !ok {
		return nil, false
	}

	return project.clone(), true
}

// ProjectNames returns every project name in insertion order, closed ones included.
func (ws *Workspace) ProjectNames() []string {
	ws.mu.RLock()
	defer ws.mu.RUnlock()

	return slices.Clone(ws.names)
}

// ActiveConfigs returns the active config of every open project in insertion order.
func (ws *Workspace) ActiveConfigs() BuildConfigs {
	ws.mu.RLock()
	defer ws.mu.RUnlock()

	configs := make(BuildConfigs, 0, len(ws.names))

	for _, name := range ws.names {
		project := ws.projects[name]
		if project.Closed {
			continue
		}

		configs = append(configs, BuildConfig{Project: name, Variant: project.ActiveVariant})
	}

	return configs
}

// SetActiveVariant changes the active variant of a project.
func (ws *Workspace) SetActiveVariant(name, variant string) error {
	return ws.update(name, func(project *Project) error {
		if !project.HasVariant(variant) {
			return NewUnknownVariantError(name, variant)
		}

		project.ActiveVariant = variant

		return nil
	})
}

// SetClosed opens or closes a project. Closed projects are left out of every build order.
func (ws *Workspace) SetClosed(name string, closed bool) error {
	return ws.update(name, func(project *Project) error {
		project.Closed = closed
		return nil
	})
}

// SetReferences replaces the configs the given variant depends on.
func (ws *Workspace) SetReferences(cfg BuildConfig, refs ...BuildConfig) error {
	return ws.update(cfg.Project, func(project *Project) error {
		variant := cfg.Variant
		if cfg.IsActiveAlias() {
			variant = project.ActiveVariant
		}

		if !project.HasVariant(variant) {
			return NewUnknownVariantError(cfg.Project, variant)
		}

		if project.References == nil {
			project.References = make(map[string][]BuildConfig)
		}

		project.References[variant] = slices.Clone(refs)

		return nil
	})
}

func (ws *Workspace) update(name string, fn func(project *Project) error) error {
	ws.mu.Lock()
	defer ws.mu.Unlock()

	project, ok := ws.projects[name]
	if !ok {
		return NewUnknownProjectError(name)
	}

	return fn(project)
}

// BuildSpec returns the builder commands of a project.
func (ws *Workspace) BuildSpec(name string) []Command {
	ws.mu.RLock()
	defer ws.mu.RUnlock()

	project, ok := ws.projects[name]
	if !ok {
		return nil
	}

	commands := make([]Command, len(project.BuildSpec))
	for i, cmd := range project.BuildSpec {
		cmd.Args = maps.Clone(cmd.Args)
		commands[i] = cmd
	}

	return commands
}

// Resolve turns an active-variant alias into the concrete config. It returns false when the
// project is missing or closed, or when the variant does not exist.
func (ws *Workspace) Resolve(cfg BuildConfig) (BuildConfig, bool) {
	ws.mu.RLock()
	defer ws.mu.RUnlock()

	return ws.resolve(cfg)
}

func (ws *Workspace) resolve(cfg BuildConfig) (BuildConfig, bool) {
	project, ok := ws.projects[cfg.Project]
	if !ok || project.Closed {
		return BuildConfig{}, false
	}

	if cfg.IsActiveAlias() {
		return BuildConfig{Project: cfg.Project, Variant: project.ActiveVariant}, true
	}

	if !project.HasVariant(cfg.Variant) {
		return BuildConfig{}, false
	}

	return cfg, true
}

// References returns the resolved configs cfg depends on, in declaration order. Aliases of one
// concrete config collapse into a single reference, references back to cfg itself are dropped
// and missing or closed targets are silently skipped.
func (ws *Workspace) References(cfg BuildConfig) BuildConfigs {
	ws.mu.RLock()
	defer ws.mu.RUnlock()

	cfg, ok := ws.resolve(cfg)
	if !ok {
		return nil
	}

	declared := ws.projects[cfg.Project].References[cfg.Variant]
	refs := make(BuildConfigs, 0, len(declared))

	for _, ref := range declared {
		resolved, ok := ws.resolve(ref)
		if !ok || resolved == cfg {
			continue
		}

		refs = append(refs, resolved)
	}

	return refs.Dedup()
}

// RecordChange records a change to a resource of an existing project.
func (ws *Workspace) RecordChange(project, path string, kind delta.Kind) error {
	ws.mu.RLock()
	_, ok := ws.projects[project]
	ws.mu.RUnlock()

	if !ok {
		return NewUnknownProjectError(project)
	}

	ws.tracker.Record(project, path, kind)

	return nil
}
