package middleware

import (
	"github.com/gin-gonic/gin"
)

// ForwardedIPHeaders are read, in order, from trusted proxies only.
var ForwardedIPHeaders = []string{"CF-Connecting-IP", "X-Forwarded-For", "X-Real-IP"}

// TrustProxies restricts forwarded client IP headers to peers inside
// proxies (IPs or CIDRs). With none, c.ClientIP() is the TCP peer.
func TrustProxies(r *gin.Engine, proxies []string) error {
	r.RemoteIPHeaders = ForwardedIPHeaders
	r.ForwardedByClientIP = true
	if len(proxies) == 0 {
		return r.SetTrustedProxies(nil)
	}
	return r.SetTrustedProxies(proxies)
}

// RealIP stores the client IP under "real_ip". It is c.ClientIP(), so the
// forwarded headers only count when the engine trusts the peer.
func RealIP() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("real_ip", c.ClientIP())
		c.Next()
	}
}
