package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/codeready-toolchain/remedy/pkg/services"
)

// respondError writes a JSON error body and aborts the handler chain.
func respondError(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, &ErrorResponse{Error: message})
}

// mapServiceError maps service-layer errors to HTTP error responses.
func mapServiceError(c *gin.Context, err error) {
	var validErr *services.ValidationError
	if errors.As(err, &validErr) {
		respondError(c, http.StatusBadRequest, validErr.Error())
		return
	}
	if errors.Is(err, services.ErrNotFound) {
		respondError(c, http.StatusNotFound, "session not found")
		return
	}
	if errors.Is(err, services.ErrNotCancellable) {
		respondError(c, http.StatusConflict, "session is not in a cancellable state")
		return
	}

	slog.Error("Unexpected service error", "error", err)
	respondError(c, http.StatusInternalServerError, "internal server error")
}
