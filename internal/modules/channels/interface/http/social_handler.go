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

// SocialHandler 社交平台私信入站回调
type SocialHandler struct {
	conversationService assistantService.ConversationService
}

func NewSocialHandler(conversationService assistantService.ConversationService) *SocialHandler {
	return &SocialHandler{conversationService: conversationService}
}

var socialPlatforms = map[string]bool{
	"facebook":  true,
	"instagram": true,
	"whatsapp":  true,
}

// Inbound POST /channels/social/inbound
func (h *SocialHandler) Inbound(c *gin.Context) {
	var req request.SocialInboundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		back.Result(c, nil, xerr.ErrParam)
		return
	}

	platform := strings.ToLower(strings.TrimSpace(req.Platform))
	if !socialPlatforms[platform] {
		back.Result(c, nil, xerr.New(xerr.BadRequest, "unknown platform: "+platform))
		return
	}
	if strings.TrimSpace(req.SenderId) == "" || strings.TrimSpace(req.Text) == "" {
		back.Result(c, nil, xerr.New(xerr.BadRequest, "sender_id and text are required"))
		return
	}

	chatResp, err := h.conversationService.Chat(c.Request.Context(), &assistantRequest.ChatRequest{
		Channel: platform,
		UserId:  strings.TrimSpace(req.SenderId),
		Message: req.Text,
	}, "social-gateway/"+platform)
	var codeErr *xerr.CodeError
	if err != nil && !(errors.As(err, &codeErr) && codeErr.Code == xerr.ServiceUnavailable && chatResp != nil) {
		back.Result(c, nil, err)
		return
	}

	back.Success(c, respond.SocialInboundRespond{
		Platform: platform,
		SenderId: strings.TrimSpace(req.SenderId),
		Reply:    chatResp.Message,
		Escalate: chatResp.Escalate,
	})
}
