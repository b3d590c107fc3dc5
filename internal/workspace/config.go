package workspace

import (
	"strings"
)

// ActiveVariant is the variant name meaning "whichever variant is active for the project
// when references are resolved".
const ActiveVariant = "@active"

const variantSeparator = ":"

// BuildConfig identifies a buildable variant of a project.
type BuildConfig struct {
	Project string
	Variant string
}

// NewBuildConfig returns the config for the given project and variant. An empty variant
// means the active one.
func NewBuildConfig(project, variant string) BuildConfig {
	if variant == "" {
		variant = ActiveVariant
	}

	return BuildConfig{Project: project, Variant: variant}
}

// ParseBuildConfig parses `project` or `project:variant`.
func ParseBuildConfig(str string) BuildConfig {
	project, variant, _ := strings.Cut(str, variantSeparator)
	return NewBuildConfig(project, variant)
}

// IsActiveAlias reports whether the variant still has to be resolved.
func (cfg BuildConfig) IsActiveAlias() bool {
	return cfg.Variant == ActiveVariant || cfg.Variant == ""
}

func (cfg BuildConfig) String() string {
	if cfg.IsActiveAlias() {
		return cfg.Project
	}

	return cfg.Project + variantSeparator + cfg.Variant
}

// BuildConfigs is a list of configs.
type BuildConfigs []BuildConfig

// Strings returns the string form of every config.
func (configs BuildConfigs) Strings() []string {
	strs := make([]string, len(configs))
	for i, cfg := range configs {
		strs[i] = cfg.String()
	}

	return strs
}

// Contains reports whether cfg is in the list.
func (configs BuildConfigs) Contains(cfg BuildConfig) bool {
	for _, c := range configs {
		if c == cfg {
			return true
		}
	}

	return false
}

// Dedup returns the configs without duplicates, keeping the first occurrence.
func (configs BuildConfigs) Dedup() BuildConfigs {
	seen := make(map[BuildConfig]struct{}, len(configs))
	out := make(BuildConfigs, 0, len(configs))

	for _, cfg := range configs {
		if _, ok := seen[cfg]; ok {
			continue
		}

		seen[cfg] = struct{}{}
		out = append(out, cfg)
	}

	return out
}
