package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/logigrain/portauth/internal/application/dto"
	appservice "github.com/logigrain/portauth/internal/application/service"
	"github.com/logigrain/portauth/pkg/errors"
)

// AuthHandler serves the operator session endpoints.
type AuthHandler struct {
	authService *appservice.AuthAppService
}

// NewAuthHandler creates the auth handler.
func NewAuthHandler(authService *appservice.AuthAppService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// Login handles POST /api/v1/auth/login.
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, errors.ErrInvalidRequest("username and password are required"))
		return
	}

	resp, err := h.authService.Login(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
