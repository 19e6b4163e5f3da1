package http

import (
	"sync"
	"sync/atomic"
	"time"
)

const (
	defaultRateLimit  = 60
	defaultRateWindow = time.Minute
	staleClientAfter  = 10 * time.Minute
)

// rateLimiter is a fixed-window request counter per client IP.
type rateLimiter struct {
	mu      sync.Mutex
	limit   int
	window  time.Duration
	clients map[string]*clientWindow
	now     func() time.Time

	stopCleanup  chan struct{}
	shutdownOnce sync.Once
}

type clientWindow struct {
	start    time.Time
	lastSeen time.Time
	requests int
}

func newRateLimiter() *rateLimiter {
	rl := newRateLimiterWith(defaultRateLimit, defaultRateWindow, time.Now)
	go rl.startCleanup(5 * time.Minute)
	return rl
}

func newRateLimiterWith(limit int, window time.Duration, now func() time.Time) *rateLimiter {
	return &rateLimiter{
		limit:       limit,
		window:      window,
		clients:     make(map[string]*clientWindow),
		now:         now,
		stopCleanup: make(chan struct{}),
	}
}

func (rl *rateLimiter) startCleanup(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.cleanupStaleEntries()
		case <-rl.stopCleanup:
			return
		}
	}
}

// cleanupStaleEntries forgets clients idle for longer than staleClientAfter
// and returns how many were removed.
func (rl *rateLimiter) cleanupStaleEntries() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := rl.now().Add(-staleClientAfter)
	removed := 0
	for ip, c := range rl.clients {
		if c.lastSeen.Before(cutoff) {
			delete(rl.clients, ip)
			removed++
		}
	}
	return removed
}

func (rl *rateLimiter) stop() {
	rl.shutdownOnce.Do(func() {
		close(rl.stopCleanup)
	})
}

// allow counts a request from clientIP and reports whether it is within the
// limit for the current window.
func (rl *rateLimiter) allow(clientIP string, metrics *securityMetrics) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	c, ok := rl.clients[clientIP]
	if !ok || now.Sub(c.start) >= rl.window {
		rl.clients[clientIP] = &clientWindow{start: now, lastSeen: now, requests: 1}
		return true
	}

	c.requests++
	c.lastSeen = now
	if c.requests > rl.limit {
		if metrics != nil {
			atomic.AddInt64(&metrics.rateLimitHits, 1)
		}
		return false
	}
	return true
}
