package pipeline

import (
	"sort"
	"sync"
)

// Registry maps stream names to their running Pipeline instances. The admin
// API reads health from it.
type Registry struct {
	mu        sync.RWMutex
	pipelines map[string]*Pipeline
}

// NewRegistry creates a new empty pipeline registry.
func NewRegistry() *Registry {
	return &Registry{pipelines: make(map[string]*Pipeline)}
}

// Register adds a pipeline to the registry, keyed by its stream.
func (r *Registry) Register(p *Pipeline) {
	r.mu.Lock()
	r.pipelines[p.cfg.Stream] = p
	r.mu.Unlock()
}

// Get returns the pipeline for stream, or nil if not found.
func (r *Registry) Get(stream string) *Pipeline {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.pipelines[stream]
}

// HealthSnapshots returns the health of every registered pipeline ordered
// by stream.
func (r *Registry) HealthSnapshots() []HealthSnapshot {
	r.mu.RLock()
	out := make([]HealthSnapshot, 0, len(r.pipelines))
	for _, p := range r.pipelines {
		out = append(out, p.health.Snapshot())
	}
	r.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Stream < out[j].Stream })
	return out
}
