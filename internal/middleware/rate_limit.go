package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

type rateLimiter struct {
	requests map[string][]time.Time
	mutex    sync.Mutex
	limit    int
	window   time.Duration
}

// RateLimit limits each client IP to a number of requests per window.
// State is kept in-process, matching the single-instance deployment model.
func RateLimit(limit int, window time.Duration) gin.HandlerFunc {
	rl := &rateLimiter{
		requests: make(map[string][]time.Time),
		limit:    limit,
		window:   window,
	}

	// Drop stale entries every 5 minutes
	go func() {
		ticker := time.NewTicker(5 * time.Minute)
		for range ticker.C {
			rl.cleanup()
		}
	}()

	return func(c *gin.Context) {
		clientIP := c.ClientIP()

		rl.mutex.Lock()

		now := time.Now()
		cutoff := now.Add(-rl.window)

		var validRequests []time.Time
		for _, reqTime := range rl.requests[clientIP] {
			if reqTime.After(cutoff) {
				validRequests = append(validRequests, reqTime)
			}
		}

		if len(validRequests) >= rl.limit {
			rl.requests[clientIP] = validRequests
			rl.mutex.Unlock()
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error": "Rate limit exceeded. Please try again later.",
			})
			c.Abort()
			return
		}

		rl.requests[clientIP] = append(validRequests, now)
		rl.mutex.Unlock()

		c.Next()
	}
}

func (rl *rateLimiter) cleanup() {
	rl.mutex.Lock()
	defer rl.mutex.Unlock()

	cutoff := time.Now().Add(-rl.window)
	for ip, requests := range rl.requests {
		var valid []time.Time
		for _, reqTime := range requests {
			if reqTime.After(cutoff) {
				valid = append(valid, reqTime)
			}
		}
		if len(valid) == 0 {
			delete(rl.requests, ip)
		} else {
			rl.requests[ip] = valid
		}
	}
}
