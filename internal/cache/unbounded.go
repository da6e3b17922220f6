package cache

import "sync"

// Unbounded is a read-mostly map guarded by an RWMutex. It never evicts:
// entries live for the lifetime of the process, so it only suits key
// spaces that stay small (one dataset per session upload).
type Unbounded[T any] struct {
	mu    sync.RWMutex
	items map[string]T
}

var _ Cache[int] = (*Unbounded[int])(nil)

func NewUnbounded[T any]() *Unbounded[T] {
	return &Unbounded[T]{items: make(map[string]T)}
}

func (c *Unbounded[T]) Get(key string) (T, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.items[key]
	return v, ok
}

func (c *Unbounded[T]) Set(key string, data T) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[key] = data
}

func (c *Unbounded[T]) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, key)
}

func (c *Unbounded[T]) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}
