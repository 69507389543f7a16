package httpmiddleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// ScanCooldown suppresses rapid repeat scans per capture station, measured
// from the last accepted decode rather than the last successful marking.
// The business-level same-day dedup stays authoritative; this only throttles
// the capture boundary so one badge held up to the camera does not fire twice.
type ScanCooldown struct {
	window time.Duration
	mu     sync.Mutex
	last   map[string]time.Time
}

// NewScanCooldown creates a cooldown gate with the given window.
func NewScanCooldown(window time.Duration) *ScanCooldown {
	if window <= 0 {
		window = 2500 * time.Millisecond
	}
	return &ScanCooldown{window: window, last: make(map[string]time.Time)}
}

// GinMiddleware rejects scans arriving within the cooldown window. Stations
// identify themselves with X-Station-ID; unidentified stations share the
// client IP as their key.
func (g *ScanCooldown) GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.GetHeader("X-Station-ID")
		if key == "" {
			key = c.ClientIP()
		}
		if !g.allow(key, time.Now()) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "scan cooldown"})
			return
		}
		c.Next()
	}
}

func (g *ScanCooldown) allow(key string, now time.Time) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if last, ok := g.last[key]; ok && now.Sub(last) < g.window {
		return false
	}
	g.last[key] = now
	return true
}
