package workspace

import (
	"fmt"

	"github.com/weavebuild/weave/internal/errors"
)

// UnknownProjectError is returned when a project is not part of the workspace.
type UnknownProjectError struct {
	Project string
}

func (err UnknownProjectError) Error() string {
	return fmt.Sprintf("project %q is not part of the workspace", err.Project)
}

func NewUnknownProjectError(project string) error {
	return errors.New(UnknownProjectError{Project: project})
}

// UnknownVariantError is returned when a project does not declare a variant.
type UnknownVariantError struct {
	Project string
	Variant string
}

func (err UnknownVariantError) Error() string {
	return fmt.Sprintf("project %q has no variant %q", err.Project, err.Variant)
}

func NewUnknownVariantError(project, variant string) error {
	return errors.New(UnknownVariantError{Project: project, Variant: variant})
}
