// Package ratelimit counts requests per key in fixed windows.
package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Rule admits Limit hits per Window. A zero Limit disables the rule.
type Rule struct {
	Limit  int
	Window time.Duration
}

func (r Rule) Enabled() bool {
	return r.Limit > 0 && r.Window > 0
}

// Result describes one counted hit
type Result struct {
	Allowed   bool
	Remaining int
	// ResetIn is the time left in the current window
	ResetIn time.Duration
}

// Store counts hits for key under rule
type Store interface {
	Hit(ctx context.Context, key string, rule Rule) (Result, error)
}

func result(count int64, rule Rule, resetIn time.Duration) Result {
	remaining := rule.Limit - int(count)
	if remaining < 0 {
		remaining = 0
	}
	return Result{Allowed: count <= int64(rule.Limit), Remaining: remaining, ResetIn: resetIn}
}

// ARGV[1] is the window in milliseconds. Returns {count, pttl}.
var hitScript = redis.NewScript(`
local count = redis.call('INCR', KEYS[1])
local ttl = redis.call('PTTL', KEYS[1])
if count == 1 or ttl < 0 then
  redis.call('PEXPIRE', KEYS[1], ARGV[1])
  ttl = tonumber(ARGV[1])
end
return {count, ttl}
`)

// RedisStore keeps one expiring counter per key and window
type RedisStore struct {
	client *redis.Client
	prefix string
}

var _ Store = (*RedisStore)(nil)

func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	if prefix == "" {
		prefix = "ratelimit"
	}
	return &RedisStore{client: client, prefix: prefix}
}

func (s *RedisStore) Hit(ctx context.Context, key string, rule Rule) (Result, error) {
	values, err := hitScript.Run(ctx, s.client, []string{s.prefix + ":" + key}, rule.Window.Milliseconds()).Int64Slice()
	if err != nil {
		return Result{}, fmt.Errorf("failed to count hit: %w", err)
	}
	if len(values) != 2 {
		return Result{}, fmt.Errorf("unexpected rate limit reply %v", values)
	}
	return result(values[0], rule, time.Duration(values[1])*time.Millisecond), nil
}

// MemoryStore counts in process. It serves single-instance deployments
// without redis.
type MemoryStore struct {
	mu      sync.Mutex
	windows map[string]*window
	now     func() time.Time
}

type window struct {
	count   int64
	resetAt time.Time
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{windows: make(map[string]*window), now: time.Now}
}

func (s *MemoryStore) Hit(ctx context.Context, key string, rule Rule) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	w, ok := s.windows[key]
	if !ok || !now.Before(w.resetAt) {
		s.sweep(now)
		w = &window{resetAt: now.Add(rule.Window)}
		s.windows[key] = w
	}
	w.count++
	return result(w.count, rule, w.resetAt.Sub(now)), nil
}

// sweep drops expired windows; callers hold mu
func (s *MemoryStore) sweep(now time.Time) {
	for key, w := range s.windows {
		if !now.Before(w.resetAt) {
			delete(s.windows, key)
		}
	}
}
