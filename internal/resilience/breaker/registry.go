package breaker

import (
	"fmt"
	"sort"
	"sync"
)

// Registry is a keyed collection of breakers, created lazily on first use.
type Registry struct {
	mu       sync.Mutex
	breakers map[string]*Breaker
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{breakers: make(map[string]*Breaker)}
}

// Key builds the operation key identifying one breaker.
func Key(pipeline, operation string) string {
	return fmt.Sprintf("%s:%s", pipeline, operation)
}

// Get returns the breaker for the key, creating it with cfg if absent. The
// config of an existing breaker is not changed.
func (r *Registry) Get(key string, cfg Config) *Breaker {
	r.mu.Lock()
	defer r.mu.Unlock()

	if b, ok := r.breakers[key]; ok {
		return b
	}
	b := New(key, cfg)
	r.breakers[key] = b
	return b
}

// Snapshots returns a point-in-time view of every breaker, sorted by key.
func (r *Registry) Snapshots() []Snapshot {
	r.mu.Lock()
	breakers := make([]*Breaker, 0, len(r.breakers))
	for _, b := range r.breakers {
		breakers = append(breakers, b)
	}
	r.mu.Unlock()

	// Snapshot outside the registry lock; each breaker has its own mutex.
	out := make([]Snapshot, 0, len(breakers))
	for _, b := range breakers {
		out = append(out, b.Snapshot())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}
