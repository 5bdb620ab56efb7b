package api

import (
	"net/http"

	"github.com/coder/websocket"
	"github.com/gin-gonic/gin"
)

// wsHandler upgrades HTTP connections to WebSocket and delegates to the
// connection manager, which owns the socket until it closes.
func (s *Server) wsHandler(c *gin.Context) {
	if s.connManager == nil {
		respondError(c, http.StatusServiceUnavailable, "WebSocket not available")
		return
	}

	// Same-origin requests always pass; the config list adds the dashboard
	// origins served from elsewhere. Anything else is rejected.
	conn, err := websocket.Accept(c.Writer, c.Request, &websocket.AcceptOptions{
		OriginPatterns: s.cfg.AllowedWSOrigins,
	})
	if err != nil {
		// Accept has already written the HTTP error response.
		return
	}

	// Blocks until the WebSocket closes.
	s.connManager.HandleConnection(c.Request.Context(), conn)
}
