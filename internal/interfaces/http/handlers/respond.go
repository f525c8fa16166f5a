// Package handlers implements the HTTP endpoints of the port authentication
// service.
package handlers

import (
	stderrors "errors"

	"github.com/gin-gonic/gin"

	"github.com/logigrain/portauth/internal/application/dto"
	"github.com/logigrain/portauth/pkg/constants"
	"github.com/logigrain/portauth/pkg/errors"
)

// respondError renders err through the uniform error envelope, mapping its
// code to an HTTP status. Descriptions of AppErrors are safe to expose; bare
// errors collapse to a generic message.
func respondError(c *gin.Context, err error) {
	requestID, _ := c.Request.Context().Value(constants.ContextKeyRequestID).(string)

	message := "internal server error"
	var appErr errors.AppError
	if stderrors.As(err, &appErr) {
		message = appErr.Description()
	}

	c.JSON(errors.HTTPStatusOf(err), dto.ErrorResponse{
		Code:      string(errors.CodeOf(err)),
		Message:   message,
		RequestID: requestID,
	})
}
