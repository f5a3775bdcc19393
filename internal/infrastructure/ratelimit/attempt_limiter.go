package ratelimit

import (
	"sync"
	"time"
)

// Window is one fixed counting window for a key.
type Window struct {
	Start time.Time
	Count int
}

// WindowStore holds attempt windows. Update must apply fn atomically for the key.
type WindowStore interface {
	Update(key string, fn func(w Window, ok bool) Window)
	Delete(key string)
}

type memoryWindowStore struct {
	mu      sync.Mutex
	windows map[string]Window
}

func NewMemoryWindowStore() WindowStore {
	return &memoryWindowStore{windows: make(map[string]Window)}
}

func (s *memoryWindowStore) Update(key string, fn func(Window, bool) Window) {
	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.windows[key]
	s.windows[key] = fn(w, ok)
}

func (s *memoryWindowStore) Delete(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.windows, key)
}

// AttemptLimiter allows at most max attempts per key in each fixed window.
// The window starts at the first attempt and resets once it has elapsed.
type AttemptLimiter struct {
	max    int
	window time.Duration
	clock  Clock
	store  WindowStore
}

func NewAttemptLimiter(max int, window time.Duration, clock Clock, store WindowStore) *AttemptLimiter {
	if clock == nil {
		clock = SystemClock
	}
	if store == nil {
		store = NewMemoryWindowStore()
	}
	return &AttemptLimiter{
		max:    max,
		window: window,
		clock:  clock,
		store:  store,
	}
}

// Attempt records an attempt for key. When the key is over its limit the
// attempt is not counted and retryAfter is the time left in the window.
func (l *AttemptLimiter) Attempt(key string) (allowed bool, retryAfter time.Duration) {
	now := l.clock.Now()

	l.store.Update(key, func(w Window, ok bool) Window {
		if !ok || now.Sub(w.Start) >= l.window {
			allowed = true
			return Window{Start: now, Count: 1}
		}
		if w.Count >= l.max {
			retryAfter = w.Start.Add(l.window).Sub(now)
			return w
		}
		allowed = true
		w.Count++
		return w
	})
	return allowed, retryAfter
}

// Reset forgets key, e.g. after a successful sign-in.
func (l *AttemptLimiter) Reset(key string) {
	l.store.Delete(key)
}
