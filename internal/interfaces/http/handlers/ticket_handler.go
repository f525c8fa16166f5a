package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/logigrain/portauth/internal/application/dto"
	appservice "github.com/logigrain/portauth/internal/application/service"
	"github.com/logigrain/portauth/internal/interfaces/http/middleware"
	"github.com/logigrain/portauth/pkg/constants"
	"github.com/logigrain/portauth/pkg/errors"
)

// TicketHandler serves the ticket acquisition endpoints.
type TicketHandler struct {
	ticketService *appservice.TicketAppService
}

// NewTicketHandler creates the ticket handler.
func NewTicketHandler(ticketService *appservice.TicketAppService) *TicketHandler {
	return &TicketHandler{ticketService: ticketService}
}

// GetTicket handles POST /api/v1/tickets/:service. The service path segment
// is the upper-cased service kind (cpe, embarques, facturacion).
func (h *TicketHandler) GetTicket(c *gin.Context) {
	operatorID, ok := middleware.OperatorID(c)
	if !ok {
		respondError(c, errors.ErrUnauthorized("no operator session"))
		return
	}

	kind := constants.ServiceKind(strings.ToUpper(c.Param("service")))
	if !kind.IsValid() {
		respondError(c, errors.ErrInvalidRequest("unknown service kind").
			WithMetadata("service", c.Param("service")))
		return
	}

	var req dto.TicketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, errors.ErrInvalidRequest("facility_code is required"))
		return
	}

	resp, err := h.ticketService.GetOrIssue(c.Request.Context(), operatorID, req.FacilityCode, kind)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// InvalidateTicket handles DELETE /api/v1/tickets/:service. It drops the
// cached pair so the next request issues a fresh one.
func (h *TicketHandler) InvalidateTicket(c *gin.Context) {
	operatorID, ok := middleware.OperatorID(c)
	if !ok {
		respondError(c, errors.ErrUnauthorized("no operator session"))
		return
	}

	kind := constants.ServiceKind(strings.ToUpper(c.Param("service")))
	if !kind.IsValid() {
		respondError(c, errors.ErrInvalidRequest("unknown service kind"))
		return
	}

	facilityCode := c.Query("facility_code")
	if facilityCode == "" {
		respondError(c, errors.ErrInvalidRequest("facility_code is required"))
		return
	}

	deleted, err := h.ticketService.Invalidate(c.Request.Context(), operatorID, facilityCode, kind)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.InvalidateResponse{Deleted: deleted})
}
