// Package flags holds helpers shared by the command line flags.
package flags

import "strings"

// EnvVarPrefix is prepended to the environment variable of every flag.
const EnvVarPrefix = "WEAVE_"

// EnvVars returns the environment variable names for a flag name, e.g. log-level -> WEAVE_LOG_LEVEL.
func EnvVars(name string) []string {
	return []string{EnvVarPrefix + strings.ToUpper(strings.ReplaceAll(name, "-", "_"))}
}
