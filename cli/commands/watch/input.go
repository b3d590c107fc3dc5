package watch

import (
	"strings"

	"github.com/weavebuild/weave/internal/delta"
	"github.com/weavebuild/weave/internal/errors"
	"github.com/weavebuild/weave/internal/workspace"
)

type commandKind int

const (
	commandTouch commandKind = iota
	commandBuild
	commandQuit
)

// command is one parsed stdin line.
type command struct {
	project string
	path    string
	kind    delta.Kind
	trigger workspace.Trigger
	name    commandKind
}

func parseCommand(line string) (*command, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil, nil
	}

	switch fields[0] {
	case "touch":
		if len(fields) < 3 || len(fields) > 4 {
			return nil, errors.Errorf("usage: touch PROJECT PATH [added|changed|removed]")
		}

		cmd := &command{name: commandTouch, project: fields[1], path: fields[2], kind: delta.Changed}

		if len(fields) == 4 {
			kind, err := delta.ParseKind(fields[3])
			if err != nil {
				return nil, err
			}

			cmd.kind = kind
		}

		return cmd, nil
	case "build":
		cmd := &command{name: commandBuild, trigger: workspace.IncrementalBuild}

		if len(fields) > 1 {
			trigger, err := workspace.ParseTrigger(fields[1])
			if err != nil {
				return nil, err
			}

			cmd.trigger = trigger
		}

		return cmd, nil
	case "quit", "exit":
		return &command{name: commandQuit}, nil
	}

	return nil, errors.Errorf("unknown command %q", fields[0])
}
