package emulator

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/yaroslav/topoctl/internal/metrics"
)

// clientLimiter keeps a token bucket per client address.
type clientLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	rate     rate.Limit
	burst    int

	stop chan struct{}
	once sync.Once
}

// newClientLimiter creates a limiter and starts evicting idle buckets every
// cleanup interval until close is called.
func newClientLimiter(rps float64, burst int, cleanup time.Duration) *clientLimiter {
	l := &clientLimiter{
		limiters: make(map[string]*rate.Limiter),
		rate:     rate.Limit(rps),
		burst:    burst,
		stop:     make(chan struct{}),
	}
	go l.cleanupLoop(cleanup)
	return l
}

func (l *clientLimiter) allow(client string) bool {
	l.mu.Lock()
	limiter, ok := l.limiters[client]
	if !ok {
		limiter = rate.NewLimiter(l.rate, l.burst)
		l.limiters[client] = limiter
	}
	l.mu.Unlock()

	return limiter.Allow()
}

// cleanupLoop drops buckets that are full again, i.e. unused since they
// last refilled.
func (l *clientLimiter) cleanupLoop(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-l.stop:
			return
		case <-ticker.C:
			l.mu.Lock()
			for client, limiter := range l.limiters {
				if limiter.Tokens() >= float64(l.burst) {
					delete(l.limiters, client)
				}
			}
			l.mu.Unlock()
		}
	}
}

func (l *clientLimiter) close() {
	l.once.Do(func() { close(l.stop) })
}

// RateLimitByClient answers 429 to clients exceeding their request rate,
// the way a throttling controller does.
func RateLimitByClient(l *clientLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !l.allow(c.ClientIP()) {
			metrics.RateLimitedRequests.Inc()
			GetLogger(c).Warn("Rate limit exceeded", zap.String("client", c.ClientIP()))
			c.Header("Retry-After", "1")
			respondError(c, http.StatusTooManyRequests, "rate_limit_exceeded", "Rate limit exceeded")
			return
		}
		c.Next()
	}
}
