package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var epoch = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

func TestTokenBucketRefill(t *testing.T) {
	clock := NewManualClock(epoch)
	rl := NewRateLimiter(clock, map[string]Policy{"ping": {Burst: 2, Every: 10 * time.Second}})

	ok, _ := rl.Allow("u1", "ping")
	assert.True(t, ok)
	ok, _ = rl.Allow("u1", "ping")
	assert.True(t, ok)

	ok, wait := rl.Allow("u1", "ping")
	assert.False(t, ok)
	assert.Equal(t, 10*time.Second, wait)

	// other users have their own bucket
	ok, _ = rl.Allow("u2", "ping")
	assert.True(t, ok)

	clock.Advance(4 * time.Second)
	_, wait = rl.Allow("u1", "ping")
	assert.Equal(t, 6*time.Second, wait)

	clock.Advance(6 * time.Second)
	ok, _ = rl.Allow("u1", "ping")
	assert.True(t, ok)
}

func TestRateLimiterCleanup(t *testing.T) {
	clock := NewManualClock(epoch)
	rl := NewRateLimiter(clock, nil)

	rl.Allow("u1", ActionSendMessage)
	clock.Advance(30 * time.Minute)
	rl.Allow("u2", ActionSendMessage)
	clock.Advance(45 * time.Minute)

	assert.Equal(t, 1, rl.Cleanup(time.Hour))
}

func TestAttemptLimiterFixedWindow(t *testing.T) {
	clock := NewManualClock(epoch)
	l := NewAttemptLimiter(5, time.Minute, clock, nil)

	for i := 0; i < 5; i++ {
		ok, _ := l.Attempt("a@b.c")
		assert.True(t, ok, "attempt %d", i+1)
		clock.Advance(time.Second)
	}

	ok, retry := l.Attempt("a@b.c")
	assert.False(t, ok)
	assert.Equal(t, 55*time.Second, retry)

	ok, _ = l.Attempt("other@b.c")
	assert.True(t, ok)

	clock.Advance(55 * time.Second)
	ok, _ = l.Attempt("a@b.c")
	assert.True(t, ok)
}

func TestAttemptLimiterReset(t *testing.T) {
	l := NewAttemptLimiter(1, time.Minute, NewManualClock(epoch), nil)

	ok, _ := l.Attempt("k")
	assert.True(t, ok)
	ok, _ = l.Attempt("k")
	assert.False(t, ok)

	l.Reset("k")
	ok, _ = l.Attempt("k")
	assert.True(t, ok)
}
