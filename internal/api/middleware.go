package api

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	apperrors "restaurant-agent/internal/common/errors"
	"restaurant-agent/internal/common/logger"
)

// RequestLogger logs one line per request after it completes.
func RequestLogger(log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := map[string]interface{}{
			"method":     c.Request.Method,
			"path":       c.FullPath(),
			"status":     c.Writer.Status(),
			"clientIp":   c.ClientIP(),
			"durationMs": time.Since(start).Milliseconds(),
		}
		if id := c.Writer.Header().Get(conversationIDHeader); id != "" {
			fields["conversationId"] = id
		}

		switch {
		case c.Writer.Status() >= http.StatusInternalServerError:
			log.Error("request failed", fields)
		case c.Writer.Status() >= http.StatusBadRequest:
			log.Warn("request rejected", fields)
		default:
			log.Info("request handled", fields)
		}
	}
}

// Recovery turns a handler panic into a 500 with a StandardError body.
func Recovery(log logger.Logger) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		log.Error("handler panicked", map[string]interface{}{
			"path":  c.FullPath(),
			"panic": recovered,
		})
		c.AbortWithStatusJSON(http.StatusInternalServerError, errorBody(&apperrors.StandardError{
			Code:      apperrors.ErrCodeInternal,
			Message:   "Internal server error",
			Timestamp: time.Now().UTC(),
		}))
	})
}

const (
	limiterIdleTTL    = 10 * time.Minute
	limiterMaxClients = 10000
)

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// limiterStore holds one token bucket per client IP. Buckets idle for longer
// than idleTTL are swept, and the store never holds more than maxClients.
type limiterStore struct {
	mu         sync.Mutex
	limiters   map[string]*clientLimiter
	limit      rate.Limit
	burst      int
	idleTTL    time.Duration
	maxClients int
	lastSweep  time.Time
	now        func() time.Time
}

func newLimiterStore(limit rate.Limit, burst int) *limiterStore {
	return &limiterStore{
		limiters:   make(map[string]*clientLimiter),
		limit:      limit,
		burst:      burst,
		idleTTL:    limiterIdleTTL,
		maxClients: limiterMaxClients,
		now:        time.Now,
	}
}

func (s *limiterStore) get(ip string) *rate.Limiter {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if now.Sub(s.lastSweep) >= s.idleTTL {
		s.sweep(now)
	}

	cl, ok := s.limiters[ip]
	if !ok {
		if len(s.limiters) >= s.maxClients {
			s.evictOldest()
		}
		cl = &clientLimiter{limiter: rate.NewLimiter(s.limit, s.burst)}
		s.limiters[ip] = cl
	}
	cl.lastSeen = now
	return cl.limiter
}

func (s *limiterStore) sweep(now time.Time) {
	for ip, cl := range s.limiters {
		if now.Sub(cl.lastSeen) >= s.idleTTL {
			delete(s.limiters, ip)
		}
	}
	s.lastSweep = now
}

func (s *limiterStore) evictOldest() {
	var oldestIP string
	var oldest time.Time
	for ip, cl := range s.limiters {
		if oldestIP == "" || cl.lastSeen.Before(oldest) {
			oldestIP, oldest = ip, cl.lastSeen
		}
	}
	delete(s.limiters, oldestIP)
}

func (s *limiterStore) size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.limiters)
}

// RateLimit allows requestsPerMinute per client IP with the given burst.
// A non-positive rate disables limiting. The client IP comes from
// gin's ClientIP, so forwarding headers count only from trusted proxies.
func RateLimit(requestsPerMinute, burst int, log logger.Logger) gin.HandlerFunc {
	if requestsPerMinute <= 0 {
		return func(c *gin.Context) { c.Next() }
	}
	if burst <= 0 {
		burst = 1
	}
	store := newLimiterStore(rate.Every(time.Minute/time.Duration(requestsPerMinute)), burst)

	return func(c *gin.Context) {
		ip := c.ClientIP()
		if !store.get(ip).Allow() {
			log.Warn("rate limit exceeded", map[string]interface{}{"clientIp": ip})
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": gin.H{"code": "RATE_LIMITED", "message": "Rate limit exceeded. Try again later."},
			})
			return
		}
		c.Next()
	}
}
