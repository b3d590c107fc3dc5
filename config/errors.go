package config

import "fmt"

type InvalidValueError struct {
	File   string
	Name   string
	Reason string
}

func (err InvalidValueError) Error() string {
	return fmt.Sprintf("%s: %s %s", err.File, err.Name, err.Reason)
}

type DuplicateProjectError struct {
	File    string
	Project string
}

func (err DuplicateProjectError) Error() string {
	return fmt.Sprintf("%s: project %q is declared more than once", err.File, err.Project)
}

// InvalidIncludeError is returned for an included file with a workspace block or includes of its own.
type InvalidIncludeError struct {
	File string
}

func (err InvalidIncludeError) Error() string {
	return fmt.Sprintf("%s: included files may only declare projects", err.File)
}
