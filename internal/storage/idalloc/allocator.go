package idalloc

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/yndnr/rollcall-go/internal/storage/segment"
)

// Counter slots within the id-counter segment.
const (
	SlotAttendance uint64 = 0
	SlotEmployee   uint64 = 1
)

var (
	// ErrExhausted is returned once the counter reaches the maximum uint64.
	ErrExhausted = errors.New("idalloc: identifier space exhausted")

	// ErrCorruptCounter is returned when the stored counter is not 8 bytes.
	ErrCorruptCounter = errors.New("idalloc: corrupt counter value")
)

// Allocator issues identifiers for a single counter slot.
//
// Safe for concurrent use. Next serializes on a mutex and persists the new
// counter value in one transaction before returning it.
type Allocator struct {
	mu     sync.Mutex
	region segment.Region
	key    []byte
}

// New binds an allocator to slot within the counter region.
func New(region segment.Region, slot uint64) *Allocator {
	return &Allocator{
		region: region,
		key:    segment.Uint64Key(slot),
	}
}

// Next returns the next identifier. The first identifier of a fresh slot is 1.
//
// On error no identifier is consumed and the returned id is 0.
func (a *Allocator) Next(ctx context.Context) (uint64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	var next uint64
	err := a.region.Update(ctx, func(txn segment.Txn) error {
		current, err := readCounter(txn, a.key)
		if err != nil {
			return err
		}
		if current == ^uint64(0) {
			return ErrExhausted
		}
		next = current + 1
		return txn.Set(a.key, segment.Uint64Key(next))
	})
	if err != nil {
		return 0, fmt.Errorf("idalloc: next: %w", err)
	}
	return next, nil
}

// Current returns the last identifier issued, or 0 if none has been.
func (a *Allocator) Current(ctx context.Context) (uint64, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	value, err := a.region.Get(ctx, a.key)
	if errors.Is(err, segment.ErrKeyNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("idalloc: current: %w", err)
	}
	n, ok := segment.ParseUint64Key(value)
	if !ok {
		return 0, fmt.Errorf("%w (%d bytes)", ErrCorruptCounter, len(value))
	}
	return n, nil
}

func readCounter(txn segment.Txn, key []byte) (uint64, error) {
	value, err := txn.Get(key)
	if errors.Is(err, segment.ErrKeyNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	n, ok := segment.ParseUint64Key(value)
	if !ok {
		return 0, fmt.Errorf("%w (%d bytes)", ErrCorruptCounter, len(value))
	}
	return n, nil
}
