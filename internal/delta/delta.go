// Package delta records resource changes per project and hands each builder the changes
// it has not seen yet.
//
// Changes are appended to a per-project log and stamped with a workspace-wide sequence
// number. Every builder instance owns a cursor: its delta is the set of changes with
// cursor < seq <= snapshot, where the snapshot is taken right before the builder runs.
// The cursor only moves to the snapshot when the build succeeds, so a change recorded
// while the builder was waiting for its lock or running shows up in the next delta.
package delta

import (
	"slices"
	"strings"

	"github.com/weavebuild/weave/internal/errors"
)

// Kind is the kind of change made to a resource.
type Kind uint8

const (
	Added Kind = iota + 1
	Changed
	Removed
)

func (kind Kind) String() string {
	switch kind {
	case Added:
		return "added"
	case Changed:
		return "changed"
	case Removed:
		return "removed"
	}

	return "unknown"
}

// ParseKind parses the name of a change kind.
func ParseKind(str string) (Kind, error) {
	for _, kind := range []Kind{Added, Changed, Removed} {
		if strings.EqualFold(str, kind.String()) {
			return kind, nil
		}
	}

	return 0, errors.Errorf("invalid change kind %q, expected added, changed or removed", str)
}

// Change is a single resource change.
type Change struct {
	Path string
	Kind Kind
	Seq  uint64
}

// Delta is the set of changes a builder has not processed yet. A nil *Delta means
// no delta is available (full and clean builds); an empty one means nothing changed.
type Delta struct {
	// Related holds the changes of the projects the builder declared interest in.
	Related map[string][]Change
	Project string
	Changes []Change
}

// Empty reports whether neither the project nor any related project changed.
func (d *Delta) Empty() bool {
	if d == nil {
		return true
	}

	if len(d.Changes) > 0 {
		return false
	}

	for _, changes := range d.Related {
		if len(changes) > 0 {
			return false
		}
	}

	return true
}

// Paths returns the changed paths of the project itself.
func (d *Delta) Paths() []string {
	if d == nil {
		return nil
	}

	paths := make([]string, 0, len(d.Changes))
	for _, change := range d.Changes {
		paths = append(paths, change.Path)
	}

	return paths
}

// coalesce folds several changes of one path into the net change, in sequence order.
// Added then removed cancels out; removed then added is a change.
func coalesce(changes []Change) []Change {
	type state struct {
		first Kind
		last  Change
	}

	var order []string

	byPath := make(map[string]*state, len(changes))

	for _, change := range changes {
		st, ok := byPath[change.Path]
		if !ok {
			byPath[change.Path] = &state{first: change.Kind, last: change}
			order = append(order, change.Path)

			continue
		}

		st.last = change
	}

	out := make([]Change, 0, len(order))

	for _, path := range order {
		st := byPath[path]
		net := st.last

		switch {
		case st.first == Added && net.Kind == Removed:
			continue
		case st.first == Added:
			net.Kind = Added
		case st.first == Removed && net.Kind == Added:
			net.Kind = Changed
		}

		out = append(out, net)
	}

	slices.SortStableFunc(out, func(a, b Change) int {
		switch {
		case a.Seq < b.Seq:
			return -1
		case a.Seq > b.Seq:
			return 1
		}

		return 0
	})

	return out
}
