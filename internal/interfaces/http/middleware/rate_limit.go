package middleware

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/logigrain/portauth/internal/application/dto"
	"github.com/logigrain/portauth/internal/domain/service"
	"github.com/logigrain/portauth/pkg/constants"
)

// RateLimit bounds per-operator request volume on the ticket endpoints. It
// must run after Authenticate; unauthenticated requests pass through untouched
// and fail at the auth layer instead.
func RateLimit(limiter service.RateLimitService, limit int) gin.HandlerFunc {
	return func(c *gin.Context) {
		operatorID, ok := OperatorID(c)
		if !ok {
			c.Next()
			return
		}

		allowed, err := limiter.Allow(c.Request.Context(), "operator", strconv.FormatInt(operatorID, 10))
		if err != nil || allowed {
			c.Next()
			return
		}

		requestID, _ := c.Request.Context().Value(constants.ContextKeyRequestID).(string)
		c.Header("X-RateLimit-Limit", strconv.Itoa(limit))
		c.AbortWithStatusJSON(http.StatusTooManyRequests, dto.ErrorResponse{
			Code:      string(constants.ErrCodeRateLimitExceeded),
			Message:   "request budget exhausted, retry later",
			RequestID: requestID,
		})
	}
}
