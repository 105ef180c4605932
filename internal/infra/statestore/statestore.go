// Package statestore provides the keyed turn state store: an in-memory TTL
// map with per-key locking so one conversation's turns are serialized while
// different conversations proceed in parallel.
// In production, this could be backed by Redis.
package statestore

import (
	"sync"
	"time"
)

type entry[T any] struct {
	value     T
	expiresAt time.Time
}

type keyLock struct {
	mu   sync.Mutex
	refs int
}

// Store is a thread-safe in-memory keyed store with TTL.
// The TTL bounds the lifetime of an idle conversation's state.
type Store[T any] struct {
	mu    sync.Mutex
	items map[string]entry[T]
	locks map[string]*keyLock
	ttl   time.Duration
}

// New creates a new store with the given TTL.
func New[T any](ttl time.Duration) *Store[T] {
	s := &Store[T]{
		items: make(map[string]entry[T]),
		locks: make(map[string]*keyLock),
		ttl:   ttl,
	}
	// Background cleanup goroutine
	go s.cleanup()
	return s
}

// Lock serializes access to one key. It blocks until the key is free and
// returns the unlock function. The get/set pair of a turn runs inside it.
func (s *Store[T]) Lock(key string) (unlock func()) {
	s.mu.Lock()
	kl, ok := s.locks[key]
	if !ok {
		kl = &keyLock{}
		s.locks[key] = kl
	}
	kl.refs++
	s.mu.Unlock()

	kl.mu.Lock()
	return func() {
		kl.mu.Unlock()
		s.mu.Lock()
		kl.refs--
		if kl.refs == 0 {
			delete(s.locks, key)
		}
		s.mu.Unlock()
	}
}

// Get retrieves a value. Returns false if not found or expired, so callers
// fall back to the default conversation state.
func (s *Store[T]) Get(key string) (T, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.items[key]
	if !ok || time.Now().After(e.expiresAt) {
		var zero T
		return zero, false
	}
	return e.value, true
}

// Set stores a value with the configured TTL. Every turn refreshes the
// entry, so the TTL counts from the last activity in the conversation.
func (s *Store[T]) Set(key string, value T) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items[key] = entry[T]{
		value:     value,
		expiresAt: time.Now().Add(s.ttl),
	}
}

// Delete removes a value from the store.
func (s *Store[T]) Delete(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.items, key)
}

// cleanup periodically removes expired entries.
func (s *Store[T]) cleanup() {
	ticker := time.NewTicker(s.ttl)
	defer ticker.Stop()

	for range ticker.C {
		s.mu.Lock()
		now := time.Now()
		for k, v := range s.items {
			if now.After(v.expiresAt) {
				delete(s.items, k)
			}
		}
		s.mu.Unlock()
	}
}
