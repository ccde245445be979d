package http

import (
	"errors"

	"CivicLink/internal/modules/assistant/application/dto/request"
	"CivicLink/internal/modules/assistant/application/service"
	"CivicLink/pkg/back"
	"CivicLink/pkg/xerr"

	"github.com/gin-gonic/gin"
)

// ChatHandler 对话 HTTP 接口
type ChatHandler struct {
	conversationService service.ConversationService
}

func NewChatHandler(conversationService service.ConversationService) *ChatHandler {
	return &ChatHandler{conversationService: conversationService}
}

// Chat POST /chat
func (h *ChatHandler) Chat(c *gin.Context) {
	var req request.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		back.Result(c, nil, xerr.ErrParam)
		return
	}

	resp, err := h.conversationService.Chat(c.Request.Context(), &req, c.Request.UserAgent())
	// 降级场景：错误码 503，但 data 仍携带兜底回复
	var codeErr *xerr.CodeError
	if errors.As(err, &codeErr) && codeErr.Code == xerr.ServiceUnavailable && resp != nil {
		back.ErrorWithData(c, codeErr.Code, codeErr.Message, resp)
		return
	}
	back.Result(c, resp, err)
}

// Feedback POST /chat/feedback
func (h *ChatHandler) Feedback(c *gin.Context) {
	var req request.FeedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		back.Result(c, nil, xerr.ErrParam)
		return
	}
	resp, err := h.conversationService.Feedback(c.Request.Context(), &req)
	back.Result(c, resp, err)
}

// Transcript GET /chat/transcript?conversation_id= 或 ?session_id=&limit=
func (h *ChatHandler) Transcript(c *gin.Context) {
	var req request.TranscriptRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		back.Result(c, nil, xerr.ErrParam)
		return
	}
	resp, err := h.conversationService.Transcript(c.Request.Context(), &req)
	back.Result(c, resp, err)
}

// ClearSession POST /chat/clearSession
func (h *ChatHandler) ClearSession(c *gin.Context) {
	var req request.ClearSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		back.Result(c, nil, xerr.ErrParam)
		return
	}
	resp, err := h.conversationService.ClearSession(c.Request.Context(), &req)
	back.Result(c, resp, err)
}
