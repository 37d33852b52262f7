package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

type windowInfo struct {
	start time.Time
	count int
}

var (
	prMu      sync.Mutex
	prWindows = make(map[int64]*windowInfo)
)

// PrincipalRateLimit caps mutating requests per authenticated user in a
// fixed window, in-process. It complements the per-IP Redis limiter: many
// users can share an IP, and one user can rotate IPs. Must run after JWT.
func PrincipalRateLimit(maxRequests int, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		uidVal, ok := c.Get("user_id")
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"message": "User not authenticated",
			})
			return
		}
		userID, _ := uidVal.(int64)

		now := time.Now()
		prMu.Lock()
		w, exists := prWindows[userID]
		if !exists || now.Sub(w.start) > window {
			prWindows[userID] = &windowInfo{start: now, count: 1}
			prMu.Unlock()
			c.Next()
			return
		}
		w.count++
		blocked := w.count > maxRequests
		prMu.Unlock()

		if blocked {
			RLBlocked.WithLabelValues(c.FullPath()).Inc()
			retryAfter := window - now.Sub(w.start)
			c.Header("Retry-After", strconv.Itoa(int(retryAfter.Seconds())+1))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"success": false,
				"message": "rate limit exceeded",
			})
			return
		}

		c.Next()
	}
}
