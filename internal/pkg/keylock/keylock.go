package keylock

import (
	"context"
	"errors"
	"sync"
)

// ErrBusy is returned when a lock cannot be acquired before the context ends.
// Safe to retry.
var ErrBusy = errors.New("lock busy")

type entry struct {
	ch  chan struct{}
	ref int
}

// KeyLock serializes work per string key with bounded-time acquisition.
// Entries are reference counted so idle keys do not accumulate.
type KeyLock struct {
	mu      sync.Mutex
	entries map[string]*entry
}

func New() *KeyLock {
	return &KeyLock{entries: make(map[string]*entry)}
}

// Acquire blocks until the key's lock is free or ctx ends. On success it
// returns a release func; on timeout/cancellation it returns ErrBusy.
func (l *KeyLock) Acquire(ctx context.Context, key string) (func(), error) {
	l.mu.Lock()
	e, ok := l.entries[key]
	if !ok {
		e = &entry{ch: make(chan struct{}, 1)}
		l.entries[key] = e
	}
	e.ref++
	l.mu.Unlock()

	select {
	case e.ch <- struct{}{}:
		released := false
		return func() {
			if released {
				return
			}
			released = true
			<-e.ch
			l.drop(key, e)
		}, nil
	case <-ctx.Done():
		l.drop(key, e)
		return nil, ErrBusy
	}
}

func (l *KeyLock) drop(key string, e *entry) {
	l.mu.Lock()
	e.ref--
	if e.ref == 0 {
		delete(l.entries, key)
	}
	l.mu.Unlock()
}
