// Package record stores fixed-shape entities keyed by uint64 in a segment.
//
// A Store encodes entities with a Codec and keeps them under 8-byte
// big-endian keys. How a new record obtains its key is decided by the store's
// KeyPolicy: Allocated stores draw keys from a Sequencer, Supplied stores take
// the key from the record itself.
package record
