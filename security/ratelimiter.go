package security

import (
	"sync"
	"time"
)

// DefaultRPS is the initial per-client request cap.
const DefaultRPS = 100

type clientPolicy struct {
	rpsCap        uint32
	windowStart   time.Time
	countInWindow uint32
}

// RateLimiter is the Rate Limiter (C5): a per-client fixed 1-second window
// counter whose capacity can be dynamically tightened by EnforceDynamic in
// response to a scored anomaly. Caps only ever tighten here — they never
// relax except through Reset.
type RateLimiter struct {
	mu         sync.Mutex
	policies   map[string]*clientPolicy
	defaultRPS uint32
	now        func() time.Time
}

// NewRateLimiter returns a rate limiter with the default per-client cap.
func NewRateLimiter() *RateLimiter {
	return NewRateLimiterWithDefault(DefaultRPS)
}

// NewRateLimiterWithDefault returns a rate limiter with the given default
// per-client cap.
func NewRateLimiterWithDefault(defaultRPS uint32) *RateLimiter {
	return &RateLimiter{
		policies:   make(map[string]*clientPolicy),
		defaultRPS: defaultRPS,
		now:        time.Now,
	}
}

// CheckLimit rotates the client's 1-second window if it has elapsed, then
// reports whether the client may proceed, incrementing its window count on
// success. A previously unseen client is initialized with the default cap.
func (rl *RateLimiter) CheckLimit(clientID string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	p, ok := rl.policies[clientID]
	if !ok {
		p = &clientPolicy{rpsCap: rl.defaultRPS, windowStart: now}
		rl.policies[clientID] = p
	}

	if now.Sub(p.windowStart) >= time.Second {
		p.windowStart = now
		p.countInWindow = 0
	}

	if p.countInWindow >= p.rpsCap {
		return false
	}
	p.countInWindow++
	return true
}

// EnforceDynamic tightens the anomalous client's cap based on its level.
// HIGH+ caps at max(1, default/10); MEDIUM caps at max(5, default/5).
// Lower levels leave the cap untouched — caps never relax here.
func (rl *RateLimiter) EnforceDynamic(anomaly AnomalyScore) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	p, ok := rl.policies[anomaly.ClientID]
	if !ok {
		p = &clientPolicy{rpsCap: rl.defaultRPS, windowStart: rl.now()}
		rl.policies[anomaly.ClientID] = p
	}

	var target uint32
	switch {
	case anomaly.Level >= ThreatHigh:
		target = maxU32(1, rl.defaultRPS/10)
	case anomaly.Level >= ThreatMedium:
		target = maxU32(5, rl.defaultRPS/5)
	default:
		return
	}
	// Caps only ever tighten: a later lower-severity anomaly must not undo
	// an earlier, stricter cap.
	if target < p.rpsCap {
		p.rpsCap = target
	}
}

// Reset clears every client policy, restoring all clients to the default cap.
func (rl *RateLimiter) Reset() {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	rl.policies = make(map[string]*clientPolicy)
}

func maxU32(a, b uint32) uint32 {
	if a > b {
		return a
	}
	return b
}
