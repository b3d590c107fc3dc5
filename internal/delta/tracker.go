package delta

import (
	"sort"
	"sync"

	"github.com/puzpuzpuz/xsync/v3"
)

// Cursor identifies the builder instance a delta is computed for.
type Cursor struct {
	Owner   string
	Builder string
}

// Tracker records resource changes and per-builder cursors. It is safe for concurrent use.
type Tracker struct {
	logs    map[string][]Change
	cursors *xsync.MapOf[Cursor, uint64]
	// held counts the snapshots of builds still running, by sequence number.
	held map[uint64]int
	seq  uint64
	mu   sync.RWMutex
}

// NewTracker returns an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{
		logs:    make(map[string][]Change),
		cursors: xsync.NewMapOf[Cursor, uint64](),
		held:    make(map[uint64]int),
	}
}

// Record appends a change to the project's log and returns its sequence number.
func (t *Tracker) Record(project, path string, kind Kind) uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.seq++
	t.logs[project] = append(t.logs[project], Change{Path: path, Kind: kind, Seq: t.seq})

	return t.seq
}

// Snapshot returns the sequence number of the latest recorded change.
func (t *Tracker) Snapshot() uint64 {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return t.seq
}

// Hold takes a snapshot that Compact keeps changes for until release is called. A build holds
// its snapshot from before it reads its delta until after it commits.
func (t *Tracker) Hold() (snapshot uint64, release func()) {
	t.mu.Lock()
	defer t.mu.Unlock()

	snapshot = t.seq
	t.held[snapshot]++

	var once sync.Once

	return snapshot, func() {
		once.Do(func() {
			t.mu.Lock()
			defer t.mu.Unlock()

			if t.held[snapshot]--; t.held[snapshot] <= 0 {
				delete(t.held, snapshot)
			}
		})
	}
}

// HasState reports whether the builder has completed a build before.
func (t *Tracker) HasState(cursor Cursor) bool {
	_, ok := t.cursors.Load(cursor)
	return ok
}

// Delta returns the changes of the project and the related projects that the builder has not
// processed, up to and including upTo. It returns nil when the builder has no recorded state.
func (t *Tracker) Delta(cursor Cursor, project string, related []string, upTo uint64) *Delta {
	from, ok := t.cursors.Load(cursor)
	if !ok {
		return nil
	}

	t.mu.RLock()
	defer t.mu.RUnlock()

	delta := &Delta{
		Project: project,
		Changes: coalesce(window(t.logs[project], from, upTo)),
	}

	for _, name := range related {
		if name == project {
			continue
		}

		if changes := window(t.logs[name], from, upTo); len(changes) > 0 {
			if delta.Related == nil {
				delta.Related = make(map[string][]Change)
			}

			delta.Related[name] = coalesce(changes)
		}
	}

	return delta
}

// Commit marks every change up to upTo as processed by the builder.
func (t *Tracker) Commit(cursor Cursor, upTo uint64) {
	t.cursors.Compute(cursor, func(old uint64, loaded bool) (uint64, bool) {
		if loaded && old > upTo {
			return old, false
		}

		return upTo, false
	})
}

// Forget drops the builder's state so its next incremental build runs as a full build.
func (t *Tracker) Forget(cursor Cursor) {
	t.cursors.Delete(cursor)
}

// Compact drops the changes every known cursor and every held snapshot has already passed.
func (t *Tracker) Compact() {
	t.mu.Lock()
	defer t.mu.Unlock()

	low := t.seq

	t.cursors.Range(func(_ Cursor, seq uint64) bool {
		low = min(low, seq)
		return true
	})

	for seq := range t.held {
		low = min(low, seq)
	}

	for project, changes := range t.logs {
		idx := sort.Search(len(changes), func(i int) bool { return changes[i].Seq > low })
		if idx == len(changes) {
			delete(t.logs, project)
			continue
		}

		t.logs[project] = append([]Change(nil), changes[idx:]...)
	}
}

func window(changes []Change, from, upTo uint64) []Change {
	start := sort.Search(len(changes), func(i int) bool { return changes[i].Seq > from })
	end := sort.Search(len(changes), func(i int) bool { return changes[i].Seq > upTo })

	if start >= end {
		return nil
	}

	return changes[start:end]
}
