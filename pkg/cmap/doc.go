// Package cmap provides a sharded map safe for concurrent use.
//
// Keys are spread over a power-of-two number of shards, each guarded by its
// own RWMutex, so callers touching different keys rarely contend.
//
//	m := cmap.New[string, int]()
//	m.Set("a", 1)
//	n := m.Compute("a", func(v int, ok bool) int { return v + 1 })
package cmap
