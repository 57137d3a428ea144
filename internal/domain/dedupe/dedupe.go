// Package dedupe tracks idempotency keys so a retried action applies at most once.
package dedupe

import (
	"context"
	"sync"
	"sync/atomic"
)

// Default deduper configuration constants.
const (
	defaultMaxSize = 50000
)

// Deduper records idempotency keys per scope (a session ID).
type Deduper interface {
	// SeenAndRecord atomically checks if key was seen in scope and records it if not.
	// Returns true if key was already seen, false if it was newly recorded.
	SeenAndRecord(ctx context.Context, scope, key string) bool

	// Unrecord removes a key, allowing the action to be retried. Used when an
	// action was recorded but never reached the session (e.g. backpressure).
	Unrecord(ctx context.Context, scope, key string)

	// Forget drops every key of scope, e.g. when the session closes.
	Forget(ctx context.Context, scope string)

	Size() int64
}

// node is one entry of the recency list; head is newest, tail is oldest.
type node struct {
	scope, key string
	prev, next *node
}

// reset clears the node state for reuse
func (n *node) reset() {
	n.scope, n.key = "", ""
	n.prev, n.next = nil, nil
}

type entryKey struct {
	scope, key string
}

// inMemoryDeduper implements Deduper with a map and a doubly linked list.
// Bounded mode (maxSize > 0) evicts the oldest key when full.
// Unbounded mode (maxSize <= 0) never evicts.
type inMemoryDeduper struct {
	mu       sync.Mutex
	seen     map[entryKey]*node
	scopes   map[string]map[string]struct{}
	head     *node
	tail     *node
	maxSize  int
	size     atomic.Int64
	nodePool sync.Pool
}

// NewInMemoryDeduper creates a new in-memory deduper with configuration options.
func NewInMemoryDeduper(opts ...Option) Deduper {
	d := &inMemoryDeduper{
		maxSize: defaultMaxSize,
		seen:    make(map[entryKey]*node),
		scopes:  make(map[string]map[string]struct{}),
		nodePool: sync.Pool{
			New: func() interface{} {
				return &node{}
			},
		},
	}

	for _, opt := range opts {
		opt(d)
	}

	return d
}

// SeenAndRecord atomically checks if key was seen in scope and records it if not.
func (d *inMemoryDeduper) SeenAndRecord(_ context.Context, scope, key string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	k := entryKey{scope: scope, key: key}
	if _, exists := d.seen[k]; exists {
		return true
	}

	if d.maxSize > 0 && len(d.seen) >= d.maxSize {
		d.evictOldest()
	}

	n := d.nodePool.Get().(*node)
	n.scope, n.key = scope, key
	d.pushFront(n)
	d.seen[k] = n

	keys, ok := d.scopes[scope]
	if !ok {
		keys = make(map[string]struct{})
		d.scopes[scope] = keys
	}
	keys[key] = struct{}{}

	d.size.Add(1)
	return false
}

// Unrecord removes a key, allowing it to be retried.
func (d *inMemoryDeduper) Unrecord(_ context.Context, scope, key string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if n, exists := d.seen[entryKey{scope: scope, key: key}]; exists {
		d.remove(n)
	}
}

// Forget drops every key recorded for scope.
func (d *inMemoryDeduper) Forget(_ context.Context, scope string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	for key := range d.scopes[scope] {
		if n, exists := d.seen[entryKey{scope: scope, key: key}]; exists {
			d.remove(n)
		}
	}
	delete(d.scopes, scope)
}

// Size returns the current number of entries in the deduper.
func (d *inMemoryDeduper) Size() int64 {
	return d.size.Load()
}

// evictOldest must be called with d.mu held.
func (d *inMemoryDeduper) evictOldest() {
	if d.tail != nil {
		d.remove(d.tail)
	}
}

func (d *inMemoryDeduper) pushFront(n *node) {
	n.prev = nil
	n.next = d.head
	if d.head != nil {
		d.head.prev = n
	}
	d.head = n
	if d.tail == nil {
		d.tail = n
	}
}

// remove unlinks n, drops it from both indexes and returns it to the pool.
func (d *inMemoryDeduper) remove(n *node) {
	if n.prev != nil {
		n.prev.next = n.next
	} else {
		d.head = n.next
	}
	if n.next != nil {
		n.next.prev = n.prev
	} else {
		d.tail = n.prev
	}

	delete(d.seen, entryKey{scope: n.scope, key: n.key})
	if keys, ok := d.scopes[n.scope]; ok {
		delete(keys, n.key)
		if len(keys) == 0 {
			delete(d.scopes, n.scope)
		}
	}

	n.reset()
	d.nodePool.Put(n)
	d.size.Add(-1)
}
