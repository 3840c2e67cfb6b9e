// Package segment defines the durable segment contract used by the storage layer.
//
// A segment is an independently persisted, sorted byte region addressed by a
// small integer handle. Different handles never alias: a write through one
// segment is never visible through another. The identifier allocator and the
// record stores are each bound to exactly one segment.
//
// Implementations:
//
//   - storage.BadgerEngine: durable, backed by a single Badger database with
//     the handle used as a one-byte key prefix
//   - memory.Provider: ephemeral, one B-tree per handle (tests, in-memory mode)
package segment
