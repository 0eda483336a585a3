// Package di provides a minimal service registry keyed by string tokens.
package di

import "sync"

// ServiceRegistry resolves registered services by token.
type ServiceRegistry interface {
	Get(token string) any
	Has(token string) bool
}

// Container extends ServiceRegistry with registration.
type Container interface {
	ServiceRegistry
	Register(token string, service any)
}

type container struct {
	mu       sync.RWMutex
	services map[string]any
}

// NewContainer creates an empty container.
func NewContainer() Container {
	return &container{services: make(map[string]any)}
}

func (c *container) Register(token string, service any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.services[token] = service
}

func (c *container) Get(token string) any {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.services[token]
}

func (c *container) Has(token string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.services[token]
	return ok
}

// Token is a typed handle for a registered service.
type Token[T any] struct {
	name string
}

// NewToken creates a typed token with a unique name.
func NewToken[T any](name string) Token[T] {
	return Token[T]{name: name}
}

// Name returns the token's registry key.
func (t Token[T]) Name() string {
	return t.name
}

// lazy defers construction until first resolution, then caches the value.
type lazy[T any] struct {
	once    sync.Once
	factory func(ServiceRegistry) T
	value   T
}

func (l *lazy[T]) resolve(sr ServiceRegistry) T {
	l.once.Do(func() {
		l.value = l.factory(sr)
	})
	return l.value
}

// RegisterToken registers a lazily-constructed singleton under a typed token.
func RegisterToken[T any](c Container, t Token[T], factory func(ServiceRegistry) T) {
	c.Register(t.name, &lazy[T]{factory: factory})
}

// GetToken resolves a typed token, constructing the service on first use.
func GetToken[T any](sr ServiceRegistry, t Token[T]) T {
	switch v := sr.Get(t.name).(type) {
	case *lazy[T]:
		return v.resolve(sr)
	case T:
		return v
	default:
		var zero T
		return zero
	}
}
