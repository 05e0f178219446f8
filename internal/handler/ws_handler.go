package handler

import (
	"log"
	"net/http"

	"taskhub/internal/middleware"
	"taskhub/internal/realtime"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

type WSHandler struct {
	hub      *realtime.Hub
	tokens   middleware.TokenParser
	policy   realtime.JoinPolicy
	upgrader websocket.Upgrader
}

func NewWSHandler(hub *realtime.Hub, tokens middleware.TokenParser, policy realtime.JoinPolicy) *WSHandler {
	return &WSHandler{
		hub:    hub,
		tokens: tokens,
		policy: policy,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
}

// Serve godoc
// @Summary Realtime event stream
// @Description Upgrades to a websocket. Send {"event":"join","data":"<userId>"} to receive personal notifications.
// @Tags realtime
// @Param token query string false "Session token, required when identity is enforced"
// @Success 101
// @Failure 401 {object} ErrorResponse
// @Router /ws [get]
func (h *WSHandler) Serve(c *gin.Context) {
	// Токен необязателен, пока не включена проверка личности
	var userID string
	if token := middleware.TokenFromRequest(c.Request); token != "" {
		if subject, err := h.tokens.ParseToken(token); err == nil {
			userID = subject
		}
	}
	if h.policy.RequireIdentity && userID == "" {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Invalid or expired token"})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("❌ websocket upgrade: %v", err)
		return
	}

	client := realtime.NewClient(uuid.NewString(), userID, realtime.DefaultSendBuffer)
	h.hub.Serve(conn, client, h.policy)
}
