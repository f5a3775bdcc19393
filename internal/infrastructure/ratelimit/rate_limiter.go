package ratelimit

import (
	"context"
	"sync"
	"time"
)

const (
	ActionSendMessage = "send_message"
	ActionCreateChat  = "create_chat"
	ActionUpload      = "upload"
	ActionAuthRequest = "auth_request"
)

// Policy describes a bucket: Burst tokens, refilled one per Every.
type Policy struct {
	Burst int
	Every time.Duration
}

// DefaultPolicies cap traffic per user, or per client IP for auth calls.
var DefaultPolicies = map[string]Policy{
	ActionSendMessage: {Burst: 10, Every: 6 * time.Second},
	ActionCreateChat:  {Burst: 5, Every: 12 * time.Minute},
	ActionUpload:      {Burst: 10, Every: 30 * time.Second},
	ActionAuthRequest: {Burst: 20, Every: 3 * time.Second},
}

var fallbackPolicy = Policy{Burst: 20, Every: 3 * time.Second}

type TokenBucket struct {
	tokens     int
	maxTokens  int
	refillTime time.Duration
	lastRefill time.Time
	lastUsed   time.Time
	mutex      sync.Mutex
}

func NewTokenBucket(p Policy, now time.Time) *TokenBucket {
	return &TokenBucket{
		tokens:     p.Burst,
		maxTokens:  p.Burst,
		refillTime: p.Every,
		lastRefill: now,
		lastUsed:   now,
	}
}

// Allow consumes a token if one is available. Otherwise it reports how long
// until the next token.
func (tb *TokenBucket) Allow(now time.Time) (bool, time.Duration) {
	tb.mutex.Lock()
	defer tb.mutex.Unlock()

	tb.lastUsed = now
	if tb.refillTime > 0 {
		if add := int(now.Sub(tb.lastRefill) / tb.refillTime); add > 0 {
			tb.tokens += add
			if tb.tokens > tb.maxTokens {
				tb.tokens = tb.maxTokens
			}
			tb.lastRefill = tb.lastRefill.Add(time.Duration(add) * tb.refillTime)
		}
	}

	if tb.tokens > 0 {
		tb.tokens--
		return true, 0
	}
	return false, tb.lastRefill.Add(tb.refillTime).Sub(now)
}

func (tb *TokenBucket) idleSince(now time.Time) time.Duration {
	tb.mutex.Lock()
	defer tb.mutex.Unlock()
	return now.Sub(tb.lastUsed)
}

// RateLimiter keeps one token bucket per user and action.
type RateLimiter struct {
	buckets  map[string]*TokenBucket
	policies map[string]Policy
	clock    Clock
	mutex    sync.RWMutex
}

func NewRateLimiter(clock Clock, policies map[string]Policy) *RateLimiter {
	if clock == nil {
		clock = SystemClock
	}
	merged := make(map[string]Policy, len(DefaultPolicies))
	for k, v := range DefaultPolicies {
		merged[k] = v
	}
	for k, v := range policies {
		merged[k] = v
	}
	return &RateLimiter{
		buckets:  make(map[string]*TokenBucket),
		policies: merged,
		clock:    clock,
	}
}

func (rl *RateLimiter) Allow(userID, action string) (bool, time.Duration) {
	key := userID + ":" + action
	now := rl.clock.Now()

	rl.mutex.RLock()
	bucket, exists := rl.buckets[key]
	rl.mutex.RUnlock()

	if !exists {
		rl.mutex.Lock()
		if bucket, exists = rl.buckets[key]; !exists {
			p, ok := rl.policies[action]
			if !ok {
				p = fallbackPolicy
			}
			bucket = NewTokenBucket(p, now)
			rl.buckets[key] = bucket
		}
		rl.mutex.Unlock()
	}

	return bucket.Allow(now)
}

// Cleanup drops buckets idle for longer than maxIdle.
func (rl *RateLimiter) Cleanup(maxIdle time.Duration) int {
	rl.mutex.Lock()
	defer rl.mutex.Unlock()

	now := rl.clock.Now()
	removed := 0
	for key, bucket := range rl.buckets {
		if bucket.idleSince(now) > maxIdle {
			delete(rl.buckets, key)
			removed++
		}
	}
	return removed
}

// RunCleanup prunes idle buckets every interval until ctx ends.
func (rl *RateLimiter) RunCleanup(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			rl.Cleanup(time.Hour)
		}
	}
}
