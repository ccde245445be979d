package http

import (
	"context"
	"net/http"
	"strings"
	"time"

	"CivicLink/internal/modules/assistant/application/dto/request"
	"CivicLink/internal/modules/assistant/application/service"
	"CivicLink/pkg/ws"
	"CivicLink/pkg/xerr"
	"CivicLink/pkg/zlog"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// WsHandler 网页聊天挂件的 WebSocket 通道
// 同一访客多标签页共用一个会话，回复推送到该访客的全部连接
type WsHandler struct {
	hub                 *ws.Hub
	conversationService service.ConversationService
}

func NewWsHandler(hub *ws.Hub, conversationService service.ConversationService) *WsHandler {
	return &WsHandler{hub: hub, conversationService: conversationService}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// wsEnvelope 推送帧
type wsEnvelope struct {
	Type string      `json:"type"` // reply / error
	Data interface{} `json:"data,omitempty"`
	Code int         `json:"code,omitempty"`
	Msg  string      `json:"message,omitempty"`
}

// Connect GET /ws/chat?user_id=xxx
func (h *WsHandler) Connect(c *gin.Context) {
	userID := strings.TrimSpace(c.Query("user_id"))
	if userID == "" {
		c.AbortWithStatus(http.StatusBadRequest)
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		zlog.Error("ws upgrade failed", zap.Error(err))
		return
	}

	client := ws.NewClient(userID, conn)
	h.hub.Register(client)
	defer h.hub.Unregister(client)

	conn.SetReadLimit(1 << 20)
	_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	conn.SetPongHandler(func(string) error {
		_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	go client.WritePump()

	userAgent := c.Request.UserAgent()

	for {
		var req request.ChatRequest
		if err := conn.ReadJSON(&req); err != nil {
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))

		// 连接即身份：user_id 以查询参数为准，渠道固定为 web
		req.UserId = userID
		req.Channel = "web"

		// 请求可能比连接活得短，这里用 Background
		resp, err := h.conversationService.Chat(context.Background(), &req, userAgent)
		if err != nil {
			if e, ok := err.(*xerr.CodeError); ok {
				if e.Code == xerr.ServiceUnavailable && resp != nil {
					// 降级回复照常推送
					_ = h.hub.SendJSON(userID, wsEnvelope{Type: "reply", Data: resp})
					continue
				}
				_ = h.hub.SendJSON(userID, wsEnvelope{Type: "error", Code: e.Code, Msg: e.Message})
				continue
			}
			_ = h.hub.SendJSON(userID, wsEnvelope{Type: "error", Code: xerr.InternalServerError, Msg: "internal server error"})
			continue
		}
		_ = h.hub.SendJSON(userID, wsEnvelope{Type: "reply", Data: resp})
	}
}
