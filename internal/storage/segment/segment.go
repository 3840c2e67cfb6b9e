package segment

import (
	"context"
	"encoding/binary"
	"errors"
)

// Handle identifies a segment. Handles are stable across restarts.
type Handle uint8

// Well-known segment handles.
const (
	HandleIDCounter  Handle = 0
	HandleAttendance Handle = 5
	HandleEmployee   Handle = 6
)

// Common errors.
var (
	ErrKeyNotFound = errors.New("segment: key not found")
	ErrClosed      = errors.New("segment: provider closed")
)

// Provider supplies segments by handle.
type Provider interface {
	// Segment returns the region for h. Calling Segment twice with the same
	// handle returns views onto the same data.
	Segment(h Handle) (Region, error)

	// Close releases the provider. Regions must not be used afterwards.
	Close() error
}

// Region is a durable, sorted key-value region.
//
// Every method is atomic with respect to other calls on the same region.
// Keys are compared bytewise.
type Region interface {
	// Get returns a copy of the value stored at key, or ErrKeyNotFound.
	Get(ctx context.Context, key []byte) ([]byte, error)

	// Set stores value at key, replacing any previous value.
	Set(ctx context.Context, key, value []byte) error

	// Update runs fn inside a single read-write transaction. Either every
	// write made through txn is committed or none is.
	Update(ctx context.Context, fn func(txn Txn) error) error

	// Scan visits entries in ascending key order until fn returns false.
	Scan(ctx context.Context, fn func(key, value []byte) bool) error

	// Count returns the number of keys in the region.
	Count(ctx context.Context) (int, error)
}

// Txn is the view given to Region.Update.
type Txn interface {
	Get(key []byte) ([]byte, error)
	Set(key, value []byte) error
}

// Uint64Key encodes k as an 8-byte big-endian key so bytewise order equals
// numeric order.
func Uint64Key(k uint64) []byte {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], k)
	return b[:]
}

// ParseUint64Key is the inverse of Uint64Key.
func ParseUint64Key(b []byte) (uint64, bool) {
	if len(b) != 8 {
		return 0, false
	}
	return binary.BigEndian.Uint64(b), true
}
