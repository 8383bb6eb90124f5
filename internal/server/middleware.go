package server

import (
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/ButyrinIA/socialfeed/internal/loader"
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

const userIDKey = "user_id"

// observe logs each request and records its metrics.
func (s *Server) observe() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		elapsed := time.Since(start)

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := c.Writer.Status()
		s.deps.Metrics.RequestsTotal.WithLabelValues(c.Request.Method, route, strconv.Itoa(status)).Inc()
		s.deps.Metrics.RequestDuration.WithLabelValues(c.Request.Method, route).Observe(elapsed.Seconds())

		s.deps.Logger.Info("request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", status,
			"latency", elapsed,
		)
	}
}

// authorLoader attaches a fresh author loader to every request so lookups
// batch within a request and never leak across requests.
func (s *Server) authorLoader() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := loader.WithAuthorLoader(c.Request.Context(), loader.NewAuthorLoader(s.deps.Store))
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func (s *Server) requireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, found := strings.CutPrefix(header, "Bearer ")
		if !found {
			token = ""
		}
		userID, err := s.deps.Auth.ValidateToken(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}
		c.Set(userIDKey, userID)
		c.Next()
	}
}

func (s *Server) rateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !s.limiter.allow(c.ClientIP()) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
			return
		}
		c.Next()
	}
}

const limiterIdleTTL = 10 * time.Minute

type clientEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// clientLimiter keeps one token bucket per client address. Buckets idle for
// longer than idleTTL are swept on the next call after that interval.
type clientLimiter struct {
	limit     rate.Limit
	burst     int
	idleTTL   time.Duration
	clients   map[string]*clientEntry
	lastSweep time.Time
	now       func() time.Time
	mu        sync.Mutex
}

func newClientLimiter(rps float64, burst int) *clientLimiter {
	return &clientLimiter{
		limit:     rate.Limit(rps),
		burst:     burst,
		idleTTL:   limiterIdleTTL,
		clients:   make(map[string]*clientEntry),
		lastSweep: time.Now(),
		now:       time.Now,
	}
}

func (l *clientLimiter) allow(client string) bool {
	l.mu.Lock()
	now := l.now()
	if now.Sub(l.lastSweep) >= l.idleTTL {
		for addr, entry := range l.clients {
			if now.Sub(entry.lastSeen) >= l.idleTTL {
				delete(l.clients, addr)
			}
		}
		l.lastSweep = now
	}

	entry, exists := l.clients[client]
	if !exists {
		entry = &clientEntry{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.clients[client] = entry
	}
	entry.lastSeen = now
	l.mu.Unlock()

	return entry.limiter.AllowN(now, 1)
}

// size reports how many client buckets are held.
func (l *clientLimiter) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.clients)
}
