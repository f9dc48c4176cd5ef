// Package ratelimit bounds the number of requests a single client may issue
// against an endpoint class within a rolling time window.
//
// Counters live in an injectable Store; the in-process MemoryStore default
// means each OS process keeps independent counters. The limiter is advisory,
// not security-critical: a restart clears all counters.
package ratelimit

import (
	"math"
	"sync"
	"time"

	"github.com/darasa-app/darasa/core"
)

// NowFunc returns the current time. Mockable for tests.
var NowFunc = time.Now

const sweepInterval = time.Minute

// Entry tracks one client's request count within the current window.
type Entry struct {
	Count     int
	ResetTime time.Time
}

// Store is the key-value backend holding limiter entries. Implementations
// must be safe for concurrent use; a shared external store (e.g. a
// distributed cache) may be swapped in without changing the algorithm.
type Store interface {
	Get(key string) (Entry, bool)
	Set(key string, e Entry)
	Delete(key string)
	Keys() []string
}

// MemoryStore is the default in-process Store.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]Entry
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]Entry)}
}

func (s *MemoryStore) Get(key string) (Entry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[key]
	return e, ok
}

func (s *MemoryStore) Set(key string, e Entry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = e
}

func (s *MemoryStore) Delete(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
}

func (s *MemoryStore) Keys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	keys := make([]string, 0, len(s.entries))
	for k := range s.entries {
		keys = append(keys, k)
	}
	return keys
}

// Limiter counts requests per client for one named endpoint class.
// Entries are keyed by (name, client id) so limiters sharing a store
// never collide on the same client.
type Limiter struct {
	name   string
	max    int
	window time.Duration
	store  Store

	mu   sync.Mutex
	stop chan struct{}
}

type Option func(*Limiter)

// WithStore swaps the default MemoryStore for a custom backend.
func WithStore(s Store) Option {
	return func(l *Limiter) { l.store = s }
}

func New(name string, max int, window time.Duration, opts ...Option) *Limiter {
	l := &Limiter{
		name:   name,
		max:    max,
		window: window,
		store:  NewMemoryStore(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Check records one request from the given client. It returns nil while the
// client stays within the limit, and a RATE_LIMIT_EXCEEDED error carrying
// retryAfter seconds once the limit is reached. A rejected request does not
// increment the counter.
func (l *Limiter) Check(clientID string) error {
	l.Start()

	key := l.name + ":" + clientID
	now := NowFunc()

	e, ok := l.store.Get(key)
	if !ok || !e.ResetTime.After(now) {
		l.store.Set(key, Entry{Count: 1, ResetTime: now.Add(l.window)})
		return nil
	}
	if e.Count >= l.max {
		retryAfter := int(math.Ceil(e.ResetTime.Sub(now).Seconds()))
		return core.NewRateLimitError(retryAfter)
	}

	e.Count++
	l.store.Set(key, e)
	return nil
}

// Start begins the background sweep that evicts expired entries once per
// sweepInterval. It is idempotent; Check calls it lazily on first use.
func (l *Limiter) Start() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.stop != nil {
		return
	}
	l.stop = make(chan struct{})
	go l.sweep(l.stop)
}

// Stop halts the background sweep. Safe to call when not started.
func (l *Limiter) Stop() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.stop == nil {
		return
	}
	close(l.stop)
	l.stop = nil
}

func (l *Limiter) sweep(stop <-chan struct{}) {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			l.removeExpired()
		}
	}
}

// removeExpired deletes every entry whose window has already elapsed.
// Entries with a future ResetTime are left untouched.
func (l *Limiter) removeExpired() {
	now := NowFunc()
	for _, key := range l.store.Keys() {
		if e, ok := l.store.Get(key); ok && !e.ResetTime.After(now) {
			l.store.Delete(key)
		}
	}
}
