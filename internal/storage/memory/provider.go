package memory

import (
	"bytes"
	"context"
	"sync"

	"github.com/google/btree"

	"github.com/yndnr/rollcall-go/internal/storage/segment"
)

// btreeDegree is the branching factor of each segment tree.
const btreeDegree = 32

type item struct {
	key   []byte
	value []byte
}

func lessItem(a, b item) bool {
	return bytes.Compare(a.key, b.key) < 0
}

// Provider is an in-memory segment.Provider.
type Provider struct {
	mu       sync.Mutex
	segments map[segment.Handle]*Region
	closed   bool
}

// Compile-time interface checks.
var (
	_ segment.Provider = (*Provider)(nil)
	_ segment.Region   = (*Region)(nil)
)

// New creates an empty provider.
func New() *Provider {
	return &Provider{
		segments: make(map[segment.Handle]*Region),
	}
}

// Segment returns the region for h, creating it on first use.
func (p *Provider) Segment(h segment.Handle) (segment.Region, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil, segment.ErrClosed
	}

	r, ok := p.segments[h]
	if !ok {
		r = &Region{tree: btree.NewG[item](btreeDegree, lessItem)}
		p.segments[h] = r
	}
	return r, nil
}

// Close marks the provider closed. Data is discarded.
func (p *Provider) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.closed = true
	for _, r := range p.segments {
		r.mu.Lock()
		r.closed = true
		r.tree.Clear(false)
		r.mu.Unlock()
	}
	return nil
}

// Region is one in-memory segment.
type Region struct {
	mu     sync.RWMutex
	tree   *btree.BTreeG[item]
	closed bool
}

// Get returns a copy of the value at key.
func (r *Region) Get(_ context.Context, key []byte) ([]byte, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		return nil, segment.ErrClosed
	}

	it, ok := r.tree.Get(item{key: key})
	if !ok {
		return nil, segment.ErrKeyNotFound
	}
	return bytes.Clone(it.value), nil
}

// Set stores a copy of value at key.
func (r *Region) Set(_ context.Context, key, value []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return segment.ErrClosed
	}

	r.tree.ReplaceOrInsert(item{key: bytes.Clone(key), value: bytes.Clone(value)})
	return nil
}

// Update runs fn with exclusive access and applies its writes on success.
func (r *Region) Update(_ context.Context, fn func(txn segment.Txn) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return segment.ErrClosed
	}

	txn := &memTxn{tree: r.tree, pending: make(map[string][]byte)}
	if err := fn(txn); err != nil {
		return err
	}

	for k, v := range txn.pending {
		r.tree.ReplaceOrInsert(item{key: []byte(k), value: v})
	}
	return nil
}

// Scan visits entries in ascending key order.
func (r *Region) Scan(ctx context.Context, fn func(key, value []byte) bool) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		return segment.ErrClosed
	}

	var err error
	r.tree.Ascend(func(it item) bool {
		if err = ctx.Err(); err != nil {
			return false
		}
		return fn(bytes.Clone(it.key), bytes.Clone(it.value))
	})
	return err
}

// Count returns the number of keys.
func (r *Region) Count(_ context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		return 0, segment.ErrClosed
	}
	return r.tree.Len(), nil
}

// memTxn buffers writes until Update commits them.
type memTxn struct {
	tree    *btree.BTreeG[item]
	pending map[string][]byte
}

func (t *memTxn) Get(key []byte) ([]byte, error) {
	if v, ok := t.pending[string(key)]; ok {
		return bytes.Clone(v), nil
	}
	it, ok := t.tree.Get(item{key: key})
	if !ok {
		return nil, segment.ErrKeyNotFound
	}
	return bytes.Clone(it.value), nil
}

func (t *memTxn) Set(key, value []byte) error {
	t.pending[string(key)] = bytes.Clone(value)
	return nil
}
