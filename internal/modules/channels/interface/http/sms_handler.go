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

// SmsHandler 短信渠道入站回调
type SmsHandler struct {
	conversationService assistantService.ConversationService
}

func NewSmsHandler(conversationService assistantService.ConversationService) *SmsHandler {
	return &SmsHandler{conversationService: conversationService}
}

// Inbound POST /channels/sms/inbound
func (h *SmsHandler) Inbound(c *gin.Context) {
	var req request.SmsInboundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		back.Result(c, nil, xerr.ErrParam)
		return
	}
	if strings.TrimSpace(req.From) == "" || strings.TrimSpace(req.Body) == "" {
		back.Result(c, nil, xerr.New(xerr.BadRequest, "from and body are required"))
		return
	}

	chatResp, err := h.conversationService.Chat(c.Request.Context(), &assistantRequest.ChatRequest{
		Channel: "sms",
		UserId:  strings.TrimSpace(req.From),
		Message: req.Body,
	}, "sms-gateway")
	// 网关要的是可回发的文本，降级回复也照常回发
	var codeErr *xerr.CodeError
	if err != nil && !(errors.As(err, &codeErr) && codeErr.Code == xerr.ServiceUnavailable && chatResp != nil) {
		back.Result(c, nil, err)
		return
	}

	back.Success(c, respond.SmsInboundRespond{
		To:    strings.TrimSpace(req.From),
		Reply: chatResp.Message,
	})
}
