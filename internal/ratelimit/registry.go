package ratelimit

import "sync"

// Registry holds named limiters, one per upstream API.
type Registry struct {
	mu       sync.RWMutex
	limiters map[string]*Limiter
}

// NewRegistry creates an empty limiter registry.
func NewRegistry() *Registry {
	return &Registry{limiters: make(map[string]*Limiter)}
}

// Add registers a limiter for a name, replacing any existing one.
func (r *Registry) Add(name string, requestsPerMinute int) *Limiter {
	r.mu.Lock()
	defer r.mu.Unlock()
	l := New(requestsPerMinute)
	r.limiters[name] = l
	return l
}

// Get returns the limiter for a name, or nil if none is registered.
func (r *Registry) Get(name string) *Limiter {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.limiters[name]
}
