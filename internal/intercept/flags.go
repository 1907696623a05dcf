package intercept

import "sync"

// overrideTable tracks one-shot bypass flags keyed by acquisition id. A flag
// is set immediately before a replay is issued and consumed by the very next
// creation notification for that id, so the replay itself is not intercepted.
//
// A flag that is never consumed (the source dropped the retry) stays until
// process exit. That leak is harmless and intentional.
type overrideTable struct {
	mu    sync.Mutex
	flags map[string]struct{}
}

func newOverrideTable() *overrideTable {
	return &overrideTable{flags: make(map[string]struct{})}
}

// Set arms the bypass flag for id.
func (t *overrideTable) Set(id string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.flags[id] = struct{}{}
}

// Consume removes the flag for id and reports whether it was set. At most one
// caller observes true per Set.
func (t *overrideTable) Consume(id string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.flags[id]; !ok {
		return false
	}
	delete(t.flags, id)
	return true
}

// Len reports how many flags are currently armed.
func (t *overrideTable) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.flags)
}
