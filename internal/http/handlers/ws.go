package handlers

import (
	"net/http"

	"taskboard/internal/logger"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// cross-origin SPA; the JWT middleware already authenticated the caller
	CheckOrigin: func(r *http.Request) bool { return true },
}

// WS upgrades the connection and streams the caller's task events until the
// client disconnects. Runs behind the JWT middleware.
func (h *Handler) WS(c *gin.Context) {
	p, ok := getPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "User not authenticated"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Warn("websocket upgrade failed", "user_id", p.ID, "error", err)
		return
	}

	h.Events.Serve(p.ID, conn)
}
