package http

import (
	"errors"
	"strings"

	assistantRequest "CivicLink/internal/modules/assistant/application/dto/request"
	assistantService "CivicLink/internal/modules/assistant/application/service"
	"CivicLink/internal/modules/channels/application/dto/request"
	"CivicLink/internal/modules/channels/application/dto/respond"
	"CivicLink/pkg/back"
	"CivicLink/pkg/xerr"

	"github.com/gin-gonic/gin"
)

// IvrHandler 电话语音渠道入站回调
type IvrHandler struct {
	conversationService assistantService.ConversationService
}

func NewIvrHandler(conversationService assistantService.ConversationService) *IvrHandler {
	return &IvrHandler{conversationService: conversationService}
}

// Inbound POST /channels/ivr/inbound
func (h *IvrHandler) Inbound(c *gin.Context) {
	var req request.IvrInboundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		back.Result(c, nil, xerr.ErrParam)
		return
	}
	if strings.TrimSpace(req.CallerId) == "" || strings.TrimSpace(req.SpeechText) == "" {
		back.Result(c, nil, xerr.New(xerr.BadRequest, "caller_id and speech_text are required"))
		return
	}

	// 语音菜单按键选定的语言优先于文本检测
	chatResp, err := h.conversationService.Chat(c.Request.Context(), &assistantRequest.ChatRequest{
		Channel:  "ivr",
		UserId:   strings.TrimSpace(req.CallerId),
		Message:  req.SpeechText,
		Language: req.Language,
	}, "ivr-gateway")
	var codeErr *xerr.CodeError
	if err != nil && !(errors.As(err, &codeErr) && codeErr.Code == xerr.ServiceUnavailable && chatResp != nil) {
		back.Result(c, nil, err)
		return
	}

	back.Success(c, respond.IvrInboundRespond{
		Reply:    chatResp.Message,
		Language: chatResp.Language,
		Escalate: chatResp.Escalate,
	})
}
