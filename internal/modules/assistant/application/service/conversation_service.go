package service

import (
	"context"
	"strings"
	"time"

	"CivicLink/internal/modules/assistant/application/dto/request"
	"CivicLink/internal/modules/assistant/application/dto/respond"
	logEntity "CivicLink/internal/modules/assistant/domain/entity"
	"CivicLink/internal/modules/assistant/domain/repository"
	"CivicLink/internal/modules/assistant/infrastructure/pipeline"
	"CivicLink/internal/modules/session/domain/entity"
	sessionRepository "CivicLink/internal/modules/session/domain/repository"
	"CivicLink/pkg/xerr"
	"CivicLink/pkg/zlog"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ConversationService 对话应用服务
type ConversationService interface {
	// Chat 处理一轮对话；LLM 未配置时返回 (respond, xerr.ErrLLMNotConfigured)，
	// respond 仍携带用户可见的兜底回复
	Chat(ctx context.Context, req *request.ChatRequest, userAgent string) (*respond.ChatRespond, error)
	Feedback(ctx context.Context, req *request.FeedbackRequest) (*respond.FeedbackRespond, error)
	ClearSession(ctx context.Context, req *request.ClearSessionRequest) (*respond.ClearSessionRespond, error)
	// Transcript 查询已归档的对话流水：按 conversation_id 查单条，或按 session_id 查整段
	Transcript(ctx context.Context, req *request.TranscriptRequest) (*respond.TranscriptRespond, error)
}

type conversationServiceImpl struct {
	pipe        *pipeline.ConversationPipeline
	sessionRepo sessionRepository.SessionRepository
	logRepo     repository.ConversationLogRepository
}

func NewConversationService(
	pipe *pipeline.ConversationPipeline,
	sessionRepo sessionRepository.SessionRepository,
	logRepo repository.ConversationLogRepository,
) ConversationService {
	return &conversationServiceImpl{pipe: pipe, sessionRepo: sessionRepo, logRepo: logRepo}
}

func (s *conversationServiceImpl) Chat(ctx context.Context, req *request.ChatRequest, userAgent string) (*respond.ChatRespond, error) {
	if req == nil {
		return nil, xerr.ErrParam
	}

	// 1. 校验必填参数（校验失败不触碰会话存储）
	if strings.TrimSpace(req.Message) == "" {
		return nil, xerr.New(xerr.BadRequest, "message is required")
	}
	if strings.TrimSpace(req.UserId) == "" {
		return nil, xerr.New(xerr.BadRequest, "user_id is required")
	}
	channel := entity.Channel(strings.ToLower(strings.TrimSpace(req.Channel)))
	if channel == "" {
		channel = entity.ChannelWeb
	}
	if !channel.Valid() {
		return nil, xerr.New(xerr.BadRequest, "unknown channel: "+string(channel))
	}

	// 2. 组装 Pipeline 请求
	var transcript []entity.HistoryEntry
	for _, h := range req.History {
		role := strings.TrimSpace(h.Role)
		if role != entity.RoleUser && role != entity.RoleAssistant {
			continue
		}
		if strings.TrimSpace(h.Content) == "" {
			continue
		}
		transcript = append(transcript, entity.HistoryEntry{Role: role, Content: h.Content})
	}

	result, err := s.pipe.Execute(ctx, &pipeline.ConversationRequest{
		Channel:      channel,
		UserID:       strings.TrimSpace(req.UserId),
		Message:      req.Message,
		LanguageHint: req.Language,
		Transcript:   transcript,
		UserAgent:    userAgent,
	})
	if err != nil {
		zlog.Error("conversation pipeline execute failed", zap.Error(err))
		return nil, xerr.ErrServerError
	}
	if result.Err != nil {
		zlog.Error("conversation pipeline returned error", zap.Error(result.Err))
		return nil, xerr.ErrServerError
	}

	// 3. 组装响应
	sources := make([]respond.SourceEntry, 0, len(result.Sources))
	for _, src := range result.Sources {
		sources = append(sources, respond.SourceEntry{Title: src.Title, Url: src.Url})
	}
	resp := &respond.ChatRespond{
		Message:        result.Reply,
		Language:       string(result.Language),
		Sentiment:      result.Sentiment,
		Sources:        sources,
		Escalate:       result.Escalate,
		SessionId:      result.SessionID,
		ConversationId: result.LogUuid,
		Fallback:       result.Fallback,
		Timing: respond.TimingInfo{
			AnalyzeMs: result.Timing.AnalyzeMs,
			SearchMs:  result.Timing.SearchMs,
			LLMMs:     result.Timing.LLMMs,
			TotalMs:   result.Timing.TotalMs,
		},
	}

	if result.ConfigErr {
		return resp, xerr.ErrLLMNotConfigured
	}
	return resp, nil
}

func (s *conversationServiceImpl) Feedback(ctx context.Context, req *request.FeedbackRequest) (*respond.FeedbackRespond, error) {
	if req == nil || strings.TrimSpace(req.ConversationId) == "" {
		return nil, xerr.New(xerr.BadRequest, "conversation_id is required")
	}
	if req.Helpful == nil {
		return nil, xerr.New(xerr.BadRequest, "helpful is required")
	}
	if s.logRepo == nil {
		return nil, xerr.New(xerr.ServiceUnavailable, "feedback storage is not available")
	}

	err := s.logRepo.UpdateFeedback(ctx, req.ConversationId, *req.Helpful)
	if err == gorm.ErrRecordNotFound {
		return nil, xerr.New(xerr.NotFound, "conversation not found")
	}
	if err != nil {
		zlog.Error("update feedback failed",
			zap.String("conversationId", req.ConversationId),
			zap.Error(err))
		return nil, xerr.ErrServerError
	}
	return &respond.FeedbackRespond{ConversationId: req.ConversationId, Recorded: true}, nil
}

func (s *conversationServiceImpl) Transcript(ctx context.Context, req *request.TranscriptRequest) (*respond.TranscriptRespond, error) {
	if req == nil {
		return nil, xerr.ErrParam
	}
	if s.logRepo == nil {
		return nil, xerr.New(xerr.ServiceUnavailable, "transcript storage is not available")
	}

	conversationId := strings.TrimSpace(req.ConversationId)
	sessionId := strings.TrimSpace(req.SessionId)

	// 单条查询
	if conversationId != "" {
		log, err := s.logRepo.FindByUuid(ctx, conversationId)
		if err == gorm.ErrRecordNotFound {
			return nil, xerr.New(xerr.NotFound, "conversation not found")
		}
		if err != nil {
			zlog.Error("find conversation log failed",
				zap.String("conversationId", conversationId),
				zap.Error(err))
			return nil, xerr.ErrServerError
		}
		return &respond.TranscriptRespond{
			SessionId: log.SessionId,
			Count:     1,
			Entries:   []respond.TranscriptEntry{toTranscriptEntry(log)},
		}, nil
	}

	// 整段查询
	if sessionId == "" {
		return nil, xerr.New(xerr.BadRequest, "conversation_id or session_id is required")
	}
	logs, err := s.logRepo.ListBySession(ctx, sessionId, req.Limit)
	if err != nil {
		zlog.Error("list conversation logs failed",
			zap.String("sessionId", sessionId),
			zap.Error(err))
		return nil, xerr.ErrServerError
	}
	entries := make([]respond.TranscriptEntry, 0, len(logs))
	for _, log := range logs {
		entries = append(entries, toTranscriptEntry(log))
	}
	return &respond.TranscriptRespond{SessionId: sessionId, Count: len(entries), Entries: entries}, nil
}

func toTranscriptEntry(log *logEntity.ConversationLog) respond.TranscriptEntry {
	return respond.TranscriptEntry{
		ConversationId:   log.LogUuid,
		UserMessage:      log.UserMessage,
		AssistantMessage: log.AssistantMessage,
		Language:         log.Language,
		Sentiment:        log.Sentiment,
		Escalated:        log.Escalated,
		FeedbackGiven:    log.FeedbackGiven,
		CreatedAt:        log.CreatedAt.Format(time.RFC3339),
	}
}

func (s *conversationServiceImpl) ClearSession(ctx context.Context, req *request.ClearSessionRequest) (*respond.ClearSessionRespond, error) {
	if req == nil || strings.TrimSpace(req.UserId) == "" {
		return nil, xerr.New(xerr.BadRequest, "user_id is required")
	}
	channel := entity.Channel(strings.ToLower(strings.TrimSpace(req.Channel)))
	if channel == "" {
		channel = entity.ChannelWeb
	}
	if !channel.Valid() {
		return nil, xerr.New(xerr.BadRequest, "unknown channel: "+string(channel))
	}

	if err := s.sessionRepo.Clear(ctx, channel, strings.TrimSpace(req.UserId)); err != nil {
		zlog.Error("clear session failed",
			zap.String("channel", string(channel)),
			zap.Error(err))
		return nil, xerr.ErrServerError
	}
	return &respond.ClearSessionRespond{Cleared: true}, nil
}
