package server

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// signInLimiter throttles failed sign-in attempts per client and username.
// Only failures consume tokens; a success resets the key.
type signInLimiter struct {
	mu            sync.Mutex
	entries       map[string]*signInEntry
	limit         rate.Limit
	burst         int
	staleAfter    time.Duration
	opCount       int
	cleanupEveryN int
}

type signInEntry struct {
	limiter    *rate.Limiter
	lastSeenAt time.Time
}

func newSignInLimiter(limit rate.Limit, burst int) *signInLimiter {
	if limit <= 0 || burst <= 0 {
		return nil
	}
	// A key is stale once its bucket would have fully refilled.
	staleAfter := time.Duration(float64(burst) / float64(limit) * float64(time.Second))
	if staleAfter < 10*time.Minute {
		staleAfter = 10 * time.Minute
	}
	return &signInLimiter{
		entries:       make(map[string]*signInEntry),
		limit:         limit,
		burst:         burst,
		staleAfter:    staleAfter,
		cleanupEveryN: 64,
	}
}

// Allow reports whether key has budget for another attempt without consuming it.
func (l *signInLimiter) Allow(key string, now time.Time) bool {
	if l == nil || key == "" {
		return true
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	entry := l.entryLocked(key, now)
	return entry.limiter.TokensAt(now) >= 1
}

// RegisterFailure consumes one token for key.
func (l *signInLimiter) RegisterFailure(key string, now time.Time) {
	if l == nil || key == "" {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	entry := l.entryLocked(key, now)
	entry.limiter.AllowN(now, 1)
}

// Reset forgets key after a successful sign-in.
func (l *signInLimiter) Reset(key string) {
	if l == nil || key == "" {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.entries, key)
}

func (l *signInLimiter) entryLocked(key string, now time.Time) *signInEntry {
	entry, ok := l.entries[key]
	if !ok {
		entry = &signInEntry{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.entries[key] = entry
	}
	entry.lastSeenAt = now
	l.maybeCleanupLocked(now)
	return entry
}

func (l *signInLimiter) maybeCleanupLocked(now time.Time) {
	l.opCount++
	if l.opCount%l.cleanupEveryN != 0 {
		return
	}
	for key, entry := range l.entries {
		if now.Sub(entry.lastSeenAt) > l.staleAfter {
			delete(l.entries, key)
		}
	}
}
