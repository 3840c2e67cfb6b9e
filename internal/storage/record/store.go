package record

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/yndnr/rollcall-go/internal/storage/segment"
)

// MaxRecordSize bounds the encoded size of a single record.
const MaxRecordSize = 1024

var (
	ErrRecordTooLarge = errors.New("record: encoded record exceeds size limit")
	ErrCorruptRecord  = errors.New("record: stored record cannot be decoded")
	ErrKeyPolicy      = errors.New("record: record type does not satisfy key policy")
)

// Config configures a Store.
type Config[E any] struct {
	// Name is used in error messages.
	Name string

	Region segment.Region
	Codec  Codec[E]
	Policy KeyPolicy

	// Sequencer is required for the Allocated policy.
	Sequencer Sequencer
}

// Store is a durable map from uint64 keys to records of type E.
//
// Put is exclusive, Get and Count are shared. Each Put is one atomic write,
// so a record is either fully stored or not at all.
type Store[E any] struct {
	mu     sync.RWMutex
	name   string
	region segment.Region
	codec  Codec[E]
	policy KeyPolicy
	seq    Sequencer
}

// New creates a store. A nil codec defaults to MsgpackCodec.
func New[E any](cfg Config[E]) (*Store[E], error) {
	if cfg.Region == nil {
		return nil, fmt.Errorf("record: region is required")
	}
	if cfg.Policy == Allocated && cfg.Sequencer == nil {
		return nil, fmt.Errorf("record: %s: allocated policy requires a sequencer", cfg.Name)
	}
	if cfg.Codec == nil {
		cfg.Codec = MsgpackCodec[E]{}
	}

	return &Store[E]{
		name:   cfg.Name,
		region: cfg.Region,
		codec:  cfg.Codec,
		policy: cfg.Policy,
		seq:    cfg.Sequencer,
	}, nil
}

// Policy returns the store's key policy.
func (s *Store[E]) Policy() KeyPolicy {
	return s.policy
}

// Put stores rec under key, replacing any existing record.
func (s *Store[E]) Put(ctx context.Context, key uint64, rec E) error {
	data, err := s.codec.Encode(rec)
	if err != nil {
		return fmt.Errorf("record: %s: encode: %w", s.name, err)
	}
	if len(data) > MaxRecordSize {
		return fmt.Errorf("%w: %s key %d is %d bytes (max %d)",
			ErrRecordTooLarge, s.name, key, len(data), MaxRecordSize)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.region.Set(ctx, segment.Uint64Key(key), data); err != nil {
		return fmt.Errorf("record: %s: put %d: %w", s.name, key, err)
	}
	return nil
}

// Get returns the record under key. The bool is false when no record exists.
func (s *Store[E]) Get(ctx context.Context, key uint64) (E, bool, error) {
	var zero E

	s.mu.RLock()
	data, err := s.region.Get(ctx, segment.Uint64Key(key))
	s.mu.RUnlock()

	if errors.Is(err, segment.ErrKeyNotFound) {
		return zero, false, nil
	}
	if err != nil {
		return zero, false, fmt.Errorf("record: %s: get %d: %w", s.name, key, err)
	}

	rec, err := s.codec.Decode(data)
	if err != nil {
		return zero, false, fmt.Errorf("%w: %s key %d: %v", ErrCorruptRecord, s.name, key, err)
	}
	return rec, true, nil
}

// Insert stores a new record, obtaining its key from the store's policy.
// It returns the record as stored.
func (s *Store[E]) Insert(ctx context.Context, rec E) (E, error) {
	var zero E

	var key uint64
	switch s.policy {
	case Allocated:
		assigner, ok := any(rec).(KeyAssigner[E])
		if !ok {
			return zero, fmt.Errorf("%w: %s: %T is not a KeyAssigner", ErrKeyPolicy, s.name, rec)
		}
		id, err := s.seq.Next(ctx)
		if err != nil {
			return zero, fmt.Errorf("record: %s: allocate key: %w", s.name, err)
		}
		key = id
		rec = assigner.WithRecordKey(id)

	case Supplied:
		keyed, ok := any(rec).(Keyed)
		if !ok {
			return zero, fmt.Errorf("%w: %s: %T is not Keyed", ErrKeyPolicy, s.name, rec)
		}
		key = keyed.RecordKey()

	default:
		return zero, fmt.Errorf("%w: %s: unknown policy %d", ErrKeyPolicy, s.name, s.policy)
	}

	if err := s.Put(ctx, key, rec); err != nil {
		return zero, err
	}
	return rec, nil
}

// Count returns the number of stored records.
func (s *Store[E]) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n, err := s.region.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("record: %s: count: %w", s.name, err)
	}
	return n, nil
}
