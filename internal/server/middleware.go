package server

import (
	"net/http"
	"time"

	"auction-engine/services/bidding/handler"
	"auction-engine/utils"

	"github.com/gin-gonic/gin"
)

// RequestLoggerMiddleware logs incoming requests with timing
func RequestLoggerMiddleware(c *gin.Context) {
	start := time.Now()

	c.Next() // process request

	utils.Info("HTTP Request", map[string]any{
		"method":  c.Request.Method,
		"path":    c.Request.URL.Path,
		"status":  c.Writer.Status(),
		"latency": time.Since(start).String(),
	})
}

// BidderIdentityMiddleware requires the X-Bidder-ID header on bid-placing
// routes and exposes it to handlers via the request context.
func BidderIdentityMiddleware(c *gin.Context) {
	bidderID := c.GetHeader("X-Bidder-ID")
	if bidderID == "" {
		utils.JSONError(c, http.StatusUnauthorized, errMissingBidderID, "missing X-Bidder-ID header")
		c.Abort()
		return
	}
	c.Set(handler.BidderIDKey, bidderID)
	c.Next()
}
