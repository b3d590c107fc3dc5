package rule

import (
	"context"
	"sync"

	"github.com/weavebuild/weave/internal/errors"
)

// Manager grants rules so that no two held rules conflict. Waiters block until a conflicting
// rule is released or their context is done.
type Manager struct {
	changed chan struct{}
	held    map[uint64]Rule
	next    uint64
	mu      sync.Mutex
}

// NewManager returns a manager with nothing held.
func NewManager() *Manager {
	return &Manager{
		changed: make(chan struct{}),
		held:    make(map[uint64]Rule),
	}
}

// Acquire blocks until the rule can be held and returns the function releasing it. A NONE rule
// is granted immediately. An unbound SELF rule is an error: call Resolve first.
func (m *Manager) Acquire(ctx context.Context, rule Rule) (func(), error) {
	if rule.self {
		return nil, errors.Errorf("rule %s is not bound to a project", rule)
	}

	if rule.IsNone() {
		return func() {}, nil
	}

	for {
		m.mu.Lock()

		if !m.conflicts(rule) {
			id := m.next
			m.next++
			m.held[id] = rule
			m.mu.Unlock()

			var once sync.Once

			return func() { once.Do(func() { m.release(id) }) }, nil
		}

		wait := m.changed
		m.mu.Unlock()

		select {
		case <-wait:
		case <-ctx.Done():
			return nil, errors.New(ctx.Err())
		}
	}
}

// Run holds the rule while fn runs.
func (m *Manager) Run(ctx context.Context, rule Rule, fn func(ctx context.Context) error) error {
	release, err := m.Acquire(ctx, rule)
	if err != nil {
		return err
	}

	defer release()

	return fn(ctx)
}

// Held returns the number of rules currently held.
func (m *Manager) Held() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return len(m.held)
}

func (m *Manager) conflicts(rule Rule) bool {
	for _, held := range m.held {
		if held.Conflicts(rule) {
			return true
		}
	}

	return false
}

func (m *Manager) release(id uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.held, id)
	close(m.changed)
	m.changed = make(chan struct{})
}
