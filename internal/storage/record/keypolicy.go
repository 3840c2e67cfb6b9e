package record

import "context"

// KeyPolicy decides where Insert gets a new record's key.
type KeyPolicy int

const (
	// Supplied stores read the key from the record (see Keyed).
	Supplied KeyPolicy = iota

	// Allocated stores draw the key from a Sequencer and hand it to the
	// record (see KeyAssigner).
	Allocated
)

func (p KeyPolicy) String() string {
	switch p {
	case Supplied:
		return "supplied"
	case Allocated:
		return "allocated"
	default:
		return "unknown"
	}
}

// Keyed is implemented by records that carry their own storage key.
type Keyed interface {
	RecordKey() uint64
}

// KeyAssigner is implemented by records that adopt an allocated key.
type KeyAssigner[E any] interface {
	WithRecordKey(key uint64) E
}

// Sequencer issues fresh keys. *idalloc.Allocator satisfies it.
type Sequencer interface {
	Next(ctx context.Context) (uint64, error)
}
