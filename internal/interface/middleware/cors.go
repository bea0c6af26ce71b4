package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

const (
	corsAllowMethods = "GET, POST, PUT, PATCH, DELETE, OPTIONS"
	corsAllowHeaders = "Content-Type, Authorization, X-Request-ID"
	corsMaxAge       = "86400"
)

// HeaderSet is the CORS header bundle resolved for one request.
type HeaderSet map[string]string

// Apply copies the set onto h, replacing existing values.
func (s HeaderSet) Apply(h http.Header) {
	for k, v := range s {
		h.Set(k, v)
	}
}

// CORSPolicy holds the per-environment origin allowlists and the canonical
// production origin used when a production request comes from elsewhere.
type CORSPolicy struct {
	dev       map[string]struct{}
	prod      map[string]struct{}
	canonical string
	logger    *logrus.Logger
}

func NewCORSPolicy(devOrigins, prodOrigins []string, canonical string, logger *logrus.Logger) *CORSPolicy {
	return &CORSPolicy{
		dev:       toSet(devOrigins),
		prod:      toSet(prodOrigins),
		canonical: canonical,
		logger:    logger,
	}
}

func toSet(list []string) map[string]struct{} {
	m := make(map[string]struct{}, len(list))
	for _, o := range list {
		m[strings.TrimRight(strings.TrimSpace(o), "/")] = struct{}{}
	}
	return m
}

// Resolve computes the CORS headers for origin. It never fails.
//
// Development echoes dev-listed origins and otherwise answers "*".
// Production echoes prod-listed origins and otherwise answers with the
// canonical origin; it never answers "*". Credentials are only allowed
// alongside a specific origin.
func (p *CORSPolicy) Resolve(origin string, dev bool) HeaderSet {
	h := HeaderSet{
		"Access-Control-Allow-Methods": corsAllowMethods,
		"Access-Control-Allow-Headers": corsAllowHeaders,
		"Access-Control-Max-Age":       corsMaxAge,
		"Vary":                         "Origin",
	}

	allowed := p.canonical
	switch {
	case dev && p.listed(p.dev, origin):
		allowed = origin
	case !dev && p.listed(p.prod, origin):
		allowed = origin
	case dev:
		allowed = "*"
		if origin != "" && p.logger != nil {
			p.logger.WithField("origin", origin).Warn("cors: origin not in development allowlist, answering with wildcard")
		}
	}

	h["Access-Control-Allow-Origin"] = allowed
	if allowed != "*" && allowed != "" {
		h["Access-Control-Allow-Credentials"] = "true"
	}
	return h
}

func (p *CORSPolicy) listed(set map[string]struct{}, origin string) bool {
	if origin == "" {
		return false
	}
	_, ok := set[origin]
	return ok
}

// Preflight answers an OPTIONS request with 204 and the resolved headers.
// When the browser announces the headers it intends to send, they are
// echoed back verbatim as the allowed headers.
func (p *CORSPolicy) Preflight(w http.ResponseWriter, r *http.Request, dev bool) {
	h := p.Resolve(r.Header.Get("Origin"), dev)
	if req := r.Header.Get("Access-Control-Request-Headers"); req != "" {
		h["Access-Control-Allow-Headers"] = req
	}
	h.Apply(w.Header())
	w.WriteHeader(http.StatusNoContent)
}

// CORS attaches the resolved headers to every response and short-circuits
// OPTIONS with Preflight. dev comes from config, not from a global.
func CORS(p *CORSPolicy, dev bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions {
			p.Preflight(c.Writer, c.Request, dev)
			c.Abort()
			return
		}
		p.Resolve(c.GetHeader("Origin"), dev).Apply(c.Writer.Header())
		c.Next()
	}
}
