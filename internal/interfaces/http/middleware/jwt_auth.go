package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/logigrain/portauth/internal/application/dto"
	appservice "github.com/logigrain/portauth/internal/application/service"
	"github.com/logigrain/portauth/pkg/constants"
)

// Authenticate verifies the Bearer session token and stores the operator id
// on the request context.
func Authenticate(authService *appservice.AuthAppService) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			abortUnauthorized(c, "missing bearer token")
			return
		}

		claims, err := authService.ValidateSession(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			abortUnauthorized(c, "invalid or expired session token")
			return
		}

		ctx := context.WithValue(c.Request.Context(), constants.ContextKeyOperatorID, claims.OperatorID)
		c.Request = c.Request.WithContext(ctx)
		c.Set(string(constants.ContextKeyOperatorID), claims.OperatorID)
		c.Next()
	}
}

// OperatorID extracts the authenticated operator id set by Authenticate.
func OperatorID(c *gin.Context) (int64, bool) {
	value, exists := c.Get(string(constants.ContextKeyOperatorID))
	if !exists {
		return 0, false
	}
	id, ok := value.(int64)
	return id, ok
}

func abortUnauthorized(c *gin.Context, message string) {
	requestID, _ := c.Request.Context().Value(constants.ContextKeyRequestID).(string)
	c.AbortWithStatusJSON(http.StatusUnauthorized, dto.ErrorResponse{
		Code:      string(constants.ErrCodeUnauthorized),
		Message:   message,
		RequestID: requestID,
	})
}
