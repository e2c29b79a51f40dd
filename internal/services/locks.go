package services

import "sync"

// keyedMutex serializes work per key: one lock per trip for seat claims, one
// per route pair for reverse-route creation. Entries are dropped once the
// last holder releases, so the map does not grow with traffic. Same job as
// the MySQL named locks used elsewhere, but in-process and cheaper.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*lockEntry
}

type lockEntry struct {
	mu   sync.Mutex
	refs int
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: map[string]*lockEntry{}}
}

// Lock blocks until the key is free and returns the unlock func.
func (k *keyedMutex) Lock(key string) func() {
	k.mu.Lock()
	e, ok := k.locks[key]
	if !ok {
		e = &lockEntry{}
		k.locks[key] = e
	}
	e.refs++
	k.mu.Unlock()

	e.mu.Lock()
	return func() {
		e.mu.Unlock()
		k.mu.Lock()
		e.refs--
		if e.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}

// Shared across per-request service values; the services themselves are
// constructed per handler call like everywhere else in this codebase.
var (
	tripLocks      = newKeyedMutex()
	routePairLocks = newKeyedMutex()
)
