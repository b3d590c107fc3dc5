// Package builders contains the builders that ship with weave.
package builders

import (
	"github.com/mitchellh/mapstructure"
	"github.com/weavebuild/weave/internal/builder"
	"github.com/weavebuild/weave/internal/errors"
)

const (
	ShellBuilderID = "shell"
	NoopBuilderID  = "noop"
)

// Register adds the built-in builders to registry. Shell commands run relative to rootDir
// with the environment envs.
func Register(registry *builder.Registry, rootDir string, envs map[string]string) error {
	errs := &errors.MultiError{}

	errs = errs.Append(
		registry.Register(ShellBuilderID, NewShellFactory(rootDir, envs)),
		registry.Register(NoopBuilderID, NewNoop),
	)

	return errs.ErrorOrNil()
}

// decodeArgs decodes the string arguments of a build spec command into settings.
// Unknown keys are an error.
func decodeArgs(args map[string]string, settings any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		Result:           settings,
	})
	if err != nil {
		return errors.New(err)
	}

	if err := decoder.Decode(args); err != nil {
		return errors.New(InvalidArgsError{Err: err})
	}

	return nil
}

// InvalidArgsError is returned when a build spec command has arguments its builder does not accept.
type InvalidArgsError struct {
	Err error
}

func (err InvalidArgsError) Error() string {
	return "invalid builder arguments: " + err.Err.Error()
}

func (err InvalidArgsError) Unwrap() error {
	return err.Err
}
