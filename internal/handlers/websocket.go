package handlers

import (
	"net/http"

	"elevatr/internal/realtime"
	"elevatr/pkg/auth"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// Origin checking is delegated to the CORS layer
		return true
	},
}

type WebSocketHandler struct {
	hub        *realtime.Hub
	jwtManager *auth.JWTManager
}

func NewWebSocketHandler(hub *realtime.Hub, jwtManager *auth.JWTManager) *WebSocketHandler {
	return &WebSocketHandler{
		hub:        hub,
		jwtManager: jwtManager,
	}
}

// HandleWebSocket upgrades the connection to a personal notification
// channel. Identity comes from the JWT in the query string; the client
// still has to announce itself with a join frame before the directory
// holds an entry for it, and again after every reconnect.
// Method: GET /ws?token=<jwt>
func (h *WebSocketHandler) HandleWebSocket(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error": "Token is required",
		})
		return
	}

	claims, err := h.jwtManager.ValidateToken(token)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error": "Invalid token",
		})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logrus.WithError(err).Error("WebSocket upgrade error")
		return
	}

	client := realtime.NewClient(h.hub, conn, claims.UserID.Hex())
	client.Start()
}
