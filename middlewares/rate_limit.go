package middlewares

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

const (
	generalBurst = 100
	pickBurst    = 10
)

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// visitorSet keeps one limiter per client IP.
type visitorSet struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	newFn    func() *rate.Limiter
}

func newVisitorSet(newFn func() *rate.Limiter) *visitorSet {
	return &visitorSet{visitors: make(map[string]*visitor), newFn: newFn}
}

func (s *visitorSet) get(ip string) *rate.Limiter {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, exists := s.visitors[ip]
	if !exists {
		limiter := s.newFn()
		s.visitors[ip] = &visitor{limiter: limiter, lastSeen: time.Now()}
		return limiter
	}

	v.lastSeen = time.Now()
	return v.limiter
}

// prune drops visitors idle for longer than maxIdle.
func (s *visitorSet) prune(maxIdle time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for ip, v := range s.visitors {
		if time.Since(v.lastSeen) > maxIdle {
			delete(s.visitors, ip)
			removed++
		}
	}
	return removed
}

func (s *visitorSet) reset() {
	s.mu.Lock()
	s.visitors = make(map[string]*visitor)
	s.mu.Unlock()
}

var (
	visitors     = newVisitorSet(func() *rate.Limiter { return rate.NewLimiter(rate.Every(time.Second), generalBurst) })
	pickVisitors = newVisitorSet(func() *rate.Limiter { return rate.NewLimiter(rate.Every(500*time.Millisecond), pickBurst) })
)

// PruneVisitors forgets clients idle for longer than maxIdle.
func PruneVisitors(maxIdle time.Duration) int {
	return visitors.prune(maxIdle) + pickVisitors.prune(maxIdle)
}

// RateLimitMiddleware applies a per-IP rate limit for all routes.
func RateLimitMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !visitors.get(c.ClientIP()).Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "Too many requests. Please slow down.",
			})
			return
		}
		c.Next()
	}
}

// PickRateLimitMiddleware applies a stricter per-IP limit to pick submission.
func PickRateLimitMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !pickVisitors.get(c.ClientIP()).Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "Too many picks. Please wait and try again.",
			})
			return
		}
		c.Next()
	}
}
