package middleware

import (
	"expvar"
	"strconv"

	"github.com/gin-gonic/gin"
)

var httpResponses = expvar.NewMap("http_responses")

// CountResponses tallies responses by status class (2xx, 4xx, ...).
func CountResponses() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		httpResponses.Add(strconv.Itoa(c.Writer.Status()/100)+"xx", 1)
	}
}
