// Package memory provides an ephemeral segment provider for rollcall.
//
// Each segment is an ordered B-tree guarded by its own RWMutex, so the
// provider honours the same contract as the durable Badger engine except that
// nothing survives the process. It backs the server's in-memory mode and the
// storage tests.
//
// Thread Safety:
//
// Get, Scan and Count take the segment's read lock; Set and Update take the
// write lock. Update buffers its writes and applies them only when the
// callback returns nil.
package memory
