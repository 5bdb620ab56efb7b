package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/codeready-toolchain/remedy/pkg/models"
)

// getSessionHandler handles GET /api/v1/sessions/:id.
// Returns the full session including plan, command results, and report.
func (s *Server) getSessionHandler(c *gin.Context) {
	sessionID := c.Param("id")
	if sessionID == "" {
		respondError(c, http.StatusBadRequest, "session id is required")
		return
	}

	session, err := s.sessionService.GetSession(c.Request.Context(), sessionID)
	if err != nil {
		mapServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, session)
}

// listSessionsHandler handles GET /api/v1/sessions.
func (s *Server) listSessionsHandler(c *gin.Context) {
	var filters models.SessionFilters

	if v := c.Query("status"); v != "" {
		if !models.ValidSessionStatus(v) {
			respondError(c, http.StatusBadRequest, "invalid status: "+v)
			return
		}
		filters.Status = v
	}
	filters.AlertName = c.Query("alert_name")
	filters.Namespace = c.Query("namespace")

	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 || n > 100 {
			respondError(c, http.StatusBadRequest, "invalid limit: must be between 1 and 100")
			return
		}
		filters.Limit = n
	}
	if v := c.Query("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			respondError(c, http.StatusBadRequest, "invalid offset: must be non-negative")
			return
		}
		filters.Offset = n
	}

	list, err := s.sessionService.ListSessions(c.Request.Context(), filters)
	if err != nil {
		mapServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, list)
}

// cancelSessionHandler handles POST /api/v1/sessions/:id/cancel.
// Pending sessions are cancelled in the store; in_progress sessions through
// the worker pool's cancel registry.
func (s *Server) cancelSessionHandler(c *gin.Context) {
	sessionID := c.Param("id")
	if sessionID == "" {
		respondError(c, http.StatusBadRequest, "session id is required")
		return
	}

	if err := s.sessionService.CancelSession(c.Request.Context(), sessionID); err != nil {
		mapServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, &CancelResponse{
		SessionID: sessionID,
		Message:   "Session cancellation requested",
	})
}
