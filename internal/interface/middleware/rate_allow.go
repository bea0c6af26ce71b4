package middleware

import (
	"net"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/oksasatya/codex/pkg/response"
)

// AllowPrivateIP reports true for loopback and RFC 1918 / RFC 4193 clients.
// As an AllowFunc it exempts internal callers from RateLimit.
func AllowPrivateIP() AllowFunc {
	return func(c *gin.Context) bool {
		return isPrivate(ipFromCtx(c))
	}
}

func isPrivate(ip string) bool {
	parsed := net.ParseIP(ip)
	return parsed != nil && (parsed.IsLoopback() || parsed.IsPrivate())
}

// RequirePrivateIP answers 404 unless both the TCP peer and the resolved
// client IP are private, so forwarded headers alone cannot open the route.
func RequirePrivateIP() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !isPrivate(c.RemoteIP()) || !isPrivate(ipFromCtx(c)) {
			response.Abort(c, http.StatusNotFound, response.CodeNotFound, "not found", nil)
			return
		}
		c.Next()
	}
}
