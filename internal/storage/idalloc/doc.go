// Package idalloc hands out strictly increasing 64-bit identifiers backed by
// a durable counter segment.
//
// Each allocator owns one counter slot, so attendance and employee ids
// advance independently. An id returned by Next is never returned again,
// including across restarts of the same store.
package idalloc
