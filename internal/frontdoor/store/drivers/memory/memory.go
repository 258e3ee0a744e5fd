// Package memory is an in-process Bucket, used by tests and by anything that
// does not need state to outlive the process.
package memory

import (
	"context"
	"maps"
	"sync"
)

type Bucket struct {
	mu     sync.RWMutex
	values map[string]string
}

func New() *Bucket {
	return &Bucket{values: make(map[string]string)}
}

func (b *Bucket) Get(_ context.Context, key string) (string, bool, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	v, ok := b.values[key]
	return v, ok, nil
}

func (b *Bucket) Put(_ context.Context, values map[string]string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	maps.Copy(b.values, values)
	return nil
}

func (b *Bucket) Delete(_ context.Context, keys ...string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, k := range keys {
		delete(b.values, k)
	}
	return nil
}

// Snapshot returns a copy of the stored values.
func (b *Bucket) Snapshot() map[string]string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return maps.Clone(b.values)
}

// Len returns the number of stored keys.
func (b *Bucket) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.values)
}
