package api

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/codeready-toolchain/remedy/pkg/services"
)

// maxAlertFieldBytes caps the free-text alert fields (1 MB each). Alertmanager
// payloads stay far below this; the cap exists to bound session row size.
const maxAlertFieldBytes = 1 * 1024 * 1024

// submitAlertHandler handles POST /api/v1/alerts.
// Creates a session in "pending" status and returns immediately with session_id.
func (s *Server) submitAlertHandler(c *gin.Context) {
	var req SubmitAlertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	if req.AlertName == "" {
		respondError(c, http.StatusBadRequest, "alert_name field is required")
		return
	}
	if req.Namespace == "" {
		respondError(c, http.StatusBadRequest, "namespace field is required")
		return
	}
	if len(req.Diagnostics) > maxAlertFieldBytes || len(req.Recommendation) > maxAlertFieldBytes {
		respondError(c, http.StatusRequestEntityTooLarge,
			fmt.Sprintf("alert field exceeds maximum size of %d bytes", maxAlertFieldBytes))
		return
	}

	input := services.SubmitAlertInput{
		AlertName:      req.AlertName,
		Namespace:      req.Namespace,
		Diagnostics:    req.Diagnostics,
		Recommendation: req.Recommendation,
		RunbookURL:     req.RunbookURL,
		Author:         extractAuthor(c),
	}

	session, err := s.alertService.SubmitAlert(c.Request.Context(), input)
	if err != nil {
		mapServiceError(c, err)
		return
	}

	c.JSON(http.StatusAccepted, &AlertResponse{
		SessionID: session.ID,
		Status:    "queued",
		Message:   "Alert submitted for remediation",
	})
}
