package server

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	wsWriteWait = 10 * time.Second
	wsReadLimit = 64 << 10
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
}

// websocket serves a persistent chat connection. Each inbound frame is one
// turn, either a JSON chatRequest or plain text; each turn gets one JSON
// chatResponse frame back.
func (h *handlers) websocket(c *gin.Context) {
	header := http.Header{}
	id, err := c.Cookie(h.opts.CookieName)
	if err != nil || id == "" {
		id = uuid.NewString()
		cookie := &http.Cookie{
			Name:     h.opts.CookieName,
			Value:    id,
			Path:     "/",
			HttpOnly: true,
			Secure:   h.opts.CookieSecure,
			SameSite: http.SameSiteLaxMode,
		}
		header.Add("Set-Cookie", cookie.String())
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, header)
	if err != nil {
		log.Printf("server: websocket upgrade: %v", err)
		return
	}
	defer conn.Close()
	conn.SetReadLimit(wsReadLimit)

	ctx := c.Request.Context()
	for {
		kind, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Printf("server: websocket read for %s: %v", id, err)
			}
			return
		}
		if kind != websocket.TextMessage {
			continue
		}

		reply, err := h.opts.Service.Handle(ctx, id, frameMessage(data))
		var resp any
		if err != nil {
			log.Printf("server: websocket turn for %s: %v", id, err)
			resp = gin.H{"error": genericError}
		} else {
			resp = newChatResponse(reply)
		}

		conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
		if err := conn.WriteJSON(resp); err != nil {
			log.Printf("server: websocket write for %s: %v", id, err)
			return
		}
	}
}

// frameMessage extracts the user message from a text frame.
func frameMessage(data []byte) string {
	trimmed := strings.TrimSpace(string(data))
	if strings.HasPrefix(trimmed, "{") {
		var req chatRequest
		if err := json.Unmarshal(data, &req); err == nil {
			return req.Message
		}
	}
	return string(data)
}
