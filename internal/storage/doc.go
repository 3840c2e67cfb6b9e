// Package storage provides the storage engine for rollcall.
//
// The Engine owns every piece of process-wide storage state:
//
//   - Segment provider: Badger on disk, or B-trees in memory for ephemeral runs
//   - Identifier allocator: the durable counter behind attendance ids
//   - Record stores: attendance (allocated keys) and employee (supplied keys)
//
// It is opened once at startup and injected into the services, which see it
// only through their repository interfaces.
//
// Durability comes from Badger: each record write and each counter increment
// is a single synchronous transaction, so a restart resumes from the last
// committed state without replay logic of our own.
package storage
