// Package env converts between environment lists and maps.
package env

import (
	"maps"
	"os"
	"slices"
	"strings"
)

// Parse converts `KEY=value` entries, as returned by os.Environ, into a map. Later entries win.
func Parse(environ []string) map[string]string {
	envs := make(map[string]string, len(environ))

	for _, kv := range environ {
		key, value, ok := strings.Cut(kv, "=")
		if !ok || key == "" {
			continue
		}

		envs[key] = value
	}

	return envs
}

// Slice converts the map back into `KEY=value` entries sorted by key.
func Slice(envs map[string]string) []string {
	keys := slices.Sorted(maps.Keys(envs))

	environ := make([]string, 0, len(keys))
	for _, key := range keys {
		environ = append(environ, key+"="+envs[key])
	}

	return environ
}

// LookupEnv behaves the same as `os.LookupEnv`, but additionally trims spaces in the value.
func LookupEnv(key string) (string, bool) {
	if key == "" {
		return "", false
	}

	val, ok := os.LookupEnv(key)
	val = strings.TrimSpace(val)

	isPresent := ok && val != ""

	return val, isPresent
}
