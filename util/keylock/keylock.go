// Package keylock serializes work per key (one bike at a time) without making
// different keys wait on each other.
package keylock

import "sync"

type entry struct {
	mu   sync.Mutex
	refs int
}

type Keyed struct {
	mu sync.Mutex
	m  map[int64]*entry
}

func New() *Keyed { return &Keyed{m: make(map[int64]*entry)} }

// Lock blocks until key is free and returns the matching unlock. Entries are
// dropped once nobody holds or waits on them.
func (k *Keyed) Lock(key int64) (unlock func()) {
	k.mu.Lock()
	e, ok := k.m[key]
	if !ok {
		e = &entry{}
		k.m[key] = e
	}
	e.refs++
	k.mu.Unlock()

	e.mu.Lock()
	return func() {
		e.mu.Unlock()
		k.mu.Lock()
		e.refs--
		if e.refs == 0 {
			delete(k.m, key)
		}
		k.mu.Unlock()
	}
}

// Len is the number of keys currently held or awaited.
func (k *Keyed) Len() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.m)
}
