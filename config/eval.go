package config

import (
	"os"

	"github.com/hashicorp/hcl/v2"
	"github.com/weavebuild/weave/pkg/env"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/function"
	"github.com/zclconf/go-cty/cty/function/stdlib"
)

const (
	VarWorkspaceDir = "workspace_dir"
	VarEnv          = "env"
	VarProject      = "project"
)

func newEvalContext(dir, project string) *hcl.EvalContext {
	vars := map[string]cty.Value{
		VarWorkspaceDir: cty.StringVal(dir),
		VarEnv:          envValue(),
	}

	if project != "" {
		vars[VarProject] = cty.StringVal(project)
	}

	return &hcl.EvalContext{
		Variables: vars,
		Functions: functions(),
	}
}

func envValue() cty.Value {
	vals := make(map[string]cty.Value)

	for key, value := range env.Parse(os.Environ()) {
		vals[key] = cty.StringVal(value)
	}

	if len(vals) == 0 {
		return cty.MapValEmpty(cty.String)
	}

	return cty.MapVal(vals)
}

func functions() map[string]function.Function {
	return map[string]function.Function{
		"concat":    stdlib.ConcatFunc,
		"format":    stdlib.FormatFunc,
		"join":      stdlib.JoinFunc,
		"lower":     stdlib.LowerFunc,
		"split":     stdlib.SplitFunc,
		"trimspace": stdlib.TrimSpaceFunc,
		"upper":     stdlib.UpperFunc,
	}
}
