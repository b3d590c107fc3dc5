package env_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/weavebuild/weave/pkg/env"
)

func TestParse(t *testing.T) {
	t.Parallel()

	envs := env.Parse([]string{"A=1", "B=x=y", "=skipped", "NOVALUE", "A=2", "EMPTY="})

	assert.Equal(t, map[string]string{"A": "2", "B": "x=y", "EMPTY": ""}, envs)
}

func TestSlice(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []string{"A=1", "B=x=y"}, env.Slice(map[string]string{"B": "x=y", "A": "1"}))
	assert.Empty(t, env.Slice(nil))
}

func TestLookupEnvEmptyKey(t *testing.T) {
	t.Parallel()

	_, ok := env.LookupEnv("")
	assert.False(t, ok)
}
