package digraph

import (
	"fmt"

	"github.com/weavebuild/weave/internal/errors"
)

// FrozenGraphError is returned when a frozen graph is mutated.
type FrozenGraphError struct{}

func (err FrozenGraphError) Error() string {
	return "graph is frozen and can no longer be modified"
}

func NewFrozenGraphError() error {
	return errors.New(FrozenGraphError{})
}

// NotFrozenError is returned when an operation that requires a frozen graph gets a mutable one.
type NotFrozenError struct{}

func (err NotFrozenError) Error() string {
	return "graph must be frozen before its order can be computed"
}

func NewNotFrozenError() error {
	return errors.New(NotFrozenError{})
}

// SelfEdgeError is returned when an edge would start and end at the same vertex.
type SelfEdgeError struct {
	Vertex any
}

func (err SelfEdgeError) Error() string {
	return fmt.Sprintf("self edge on vertex %v is not allowed", err.Vertex)
}

func NewSelfEdgeError(v any) error {
	return errors.New(SelfEdgeError{Vertex: v})
}

// MissingVertexError is returned when an edge endpoint is not a vertex of the graph.
type MissingVertexError struct {
	Vertex any
}

func (err MissingVertexError) Error() string {
	return fmt.Sprintf("vertex %v is not part of the graph", err.Vertex)
}

func NewMissingVertexError(v any) error {
	return errors.New(MissingVertexError{Vertex: v})
}
