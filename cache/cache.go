// Copyright 2026 The JaCe Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package cache stores compiled artifacts keyed by abstract signature.
// Concurrent callers asking for the same signature share a single
// compilation; distinct signatures compile independently.
package cache

import (
	"container/list"
	"sync"

	"github.com/GridTools/jace/signature"
	"go.uber.org/zap"
)

// DefaultCapacity bounds the number of cached compilations unless
// overridden with WithCapacity.
const DefaultCapacity = 256

// Cache is a bounded store of compilation results. The zero value is not
// usable; construct with New.
type Cache[V any] struct {
	log      *zap.Logger
	capacity int

	mu      sync.Mutex
	entries map[string]*entry[V]
	// recency lists the keys from most to least recently used.
	recency *list.List
}

type entry[V any] struct {
	once sync.Once
	val  V
	err  error
	elem *list.Element
}

// Option configures a cache.
type Option[V any] func(*Cache[V])

// WithCapacity bounds the number of cached compilations.
func WithCapacity[V any](n int) Option[V] {
	return func(c *Cache[V]) { c.capacity = n }
}

// WithLogger attaches a logger reporting cache activity.
func WithLogger[V any](log *zap.Logger) Option[V] {
	return func(c *Cache[V]) { c.log = log }
}

// New returns an empty cache.
func New[V any](opts ...Option[V]) *Cache[V] {
	c := &Cache[V]{
		log:      zap.NewNop(),
		capacity: DefaultCapacity,
		entries:  map[string]*entry[V]{},
		recency:  list.New(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GetOrCompile returns the value compiled for the signature, building it
// with build on the first call. Concurrent calls with an equal signature
// block on one build and share its result. A failed build is not cached:
// the error is returned to every waiting caller and the next call
// retries.
func (c *Cache[V]) GetOrCompile(sig *signature.Signature, build func() (V, error)) (V, error) {
	key := sig.Key()
	c.mu.Lock()
	e, hit := c.entries[key]
	if hit {
		c.recency.MoveToFront(e.elem)
	} else {
		e = &entry[V]{}
		e.elem = c.recency.PushFront(key)
		c.entries[key] = e
		if c.recency.Len() > c.capacity {
			c.evictLocked()
		}
	}
	c.mu.Unlock()
	e.once.Do(func() {
		c.log.Debug("compiling", zap.Uint64("fingerprint", sig.Fingerprint()))
		e.val, e.err = build()
		if e.err != nil {
			c.remove(key, e)
		}
	})
	if hit {
		c.log.Debug("cache hit", zap.Uint64("fingerprint", sig.Fingerprint()))
	}
	return e.val, e.err
}

// evictLocked drops the least recently used entry. The caller holds the
// lock.
func (c *Cache[V]) evictLocked() {
	last := c.recency.Back()
	if last == nil {
		return
	}
	key := last.Value.(string)
	c.recency.Remove(last)
	delete(c.entries, key)
	c.log.Debug("evicting", zap.String("key", key))
}

// remove drops an entry, unless the key has been concurrently evicted and
// reinserted as a fresh entry.
func (c *Cache[V]) remove(key string, e *entry[V]) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if current, ok := c.entries[key]; ok && current == e {
		c.recency.Remove(e.elem)
		delete(c.entries, key)
	}
}

// Len returns the number of cached compilations.
func (c *Cache[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Clear drops every cached compilation.
func (c *Cache[V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = map[string]*entry[V]{}
	c.recency.Init()
}
