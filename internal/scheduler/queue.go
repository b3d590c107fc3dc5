package scheduler

import (
	"sync"

	"github.com/weavebuild/weave/internal/workspace"
)

type entryStatus int

const (
	statusBlocked entryStatus = iota
	statusReady
	statusRunning
	statusSucceeded
	statusFailed
	// statusAncestorFailed entries are never run.
	statusAncestorFailed
)

func (status entryStatus) terminal() bool {
	return status >= statusSucceeded
}

type entry struct {
	// failedDep is the blocking entry that made this one fail.
	failedDep *entry
	cfg       workspace.BuildConfig
	blockedBy []*entry
	// after are entries that must finish first but whose failure does not skip this one.
	after  []*entry
	status entryStatus
}

// waiting reports whether an entry of after has not finished yet.
func (e *entry) waiting() bool {
	for _, p := range e.after {
		if !p.status.terminal() {
			return true
		}
	}

	return false
}

// passQueue keeps the dependency state of one pass. Entries are kept in build order. It starts
// no goroutines.
type passQueue struct {
	byConfig map[workspace.BuildConfig]*entry
	entries  []*entry
	mu       sync.Mutex
}

// newPassQueue wires every config to the configs it references within the pass. Configs of
// projects named in explicit also wait for the configs of the previous named project.
func newPassQueue(configs workspace.BuildConfigs, referenced func(cfg workspace.BuildConfig) workspace.BuildConfigs, explicit []string) *passQueue {
	q := &passQueue{byConfig: make(map[workspace.BuildConfig]*entry, len(configs))}

	for _, cfg := range configs {
		e := &entry{cfg: cfg}
		q.entries = append(q.entries, e)
		q.byConfig[cfg] = e
	}

	for _, e := range q.entries {
		for _, dep := range referenced(e.cfg) {
			if p, ok := q.byConfig[dep]; ok && p != e {
				e.blockedBy = append(e.blockedBy, p)
			}
		}
	}

	q.orderExplicit(explicit)

	for _, e := range q.entries {
		if len(e.blockedBy) == 0 && len(e.after) == 0 {
			e.status = statusReady
		}
	}

	return q
}

func (q *passQueue) orderExplicit(explicit []string) {
	var previous []*entry

	for _, project := range explicit {
		var group []*entry

		for _, e := range q.entries {
			if e.cfg.Project == project {
				group = append(group, e)
			}
		}

		if len(group) == 0 {
			continue
		}

		for _, e := range group {
			e.after = previous
		}

		previous = group
	}
}

// next returns the ready entries in build order and marks them running.
func (q *passQueue) next() []*entry {
	q.mu.Lock()
	defer q.mu.Unlock()

	var out []*entry

	for _, e := range q.entries {
		if e.status == statusReady {
			e.status = statusRunning
			out = append(out, e)
		}
	}

	return out
}

// done records the outcome of an entry and returns the entries that will never run because
// of it.
func (q *passQueue) done(e *entry, ok bool) []*entry {
	q.mu.Lock()
	defer q.mu.Unlock()

	e.status = statusSucceeded
	if !ok {
		e.status = statusFailed
	}

	var skipped []*entry

	// Entries are in build order, so one sweep settles every descendant.
	for changed := true; changed; {
		changed = false

		for _, child := range q.entries {
			if child.status != statusBlocked {
				continue
			}

			ready := true

			for _, p := range child.blockedBy {
				switch p.status {
				case statusSucceeded:
					continue
				case statusFailed, statusAncestorFailed:
					child.status = statusAncestorFailed
					child.failedDep = p
					skipped = append(skipped, child)
					changed = true
				}

				ready = false

				break
			}

			if ready && !child.waiting() {
				child.status = statusReady
			}
		}
	}

	return skipped
}

func (q *passQueue) empty() bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	for _, e := range q.entries {
		if !e.status.terminal() {
			return false
		}
	}

	return true
}
