package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	logEntity "CivicLink/internal/modules/assistant/domain/entity"
	"CivicLink/internal/modules/assistant/infrastructure/langdetect"
	"CivicLink/internal/modules/assistant/infrastructure/prompt"
	"CivicLink/internal/modules/assistant/infrastructure/sentiment"
	"CivicLink/internal/modules/knowledge/domain/kb"
	"CivicLink/internal/modules/session/domain/entity"
	"CivicLink/pkg/util"
	"CivicLink/pkg/zlog"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"go.uber.org/zap"
)

// conversationState Graph 内部状态（在节点间传递）
type conversationState struct {
	Req        *ConversationRequest
	SessionID  string
	History    []entity.HistoryEntry
	Language   entity.Language
	Sentiment  sentiment.Info
	Escalate   bool
	Retrieved  []kb.ScoredDocument
	PromptMsgs []schema.Message
	Answer     string
	Fallback   bool
	ConfigErr  bool
	QueryID    string
	Start      time.Time
	AnalyzeMs  int64
	SearchMs   int64
	LLMMs      int64
	Err        error
}

// Node 1: LoadSession - 取存活会话与历史
func (p *ConversationPipeline) loadSessionNode(ctx context.Context, req *ConversationRequest, _ ...any) (*conversationState, error) {
	st := &conversationState{
		Req:     req,
		Start:   time.Now(),
		QueryID: util.GenerateID("Q"),
	}

	// 1. 校验必填参数
	if !req.Channel.Valid() {
		st.Err = fmt.Errorf("unknown channel: %s", req.Channel)
		return st, nil
	}
	if strings.TrimSpace(req.UserID) == "" {
		st.Err = fmt.Errorf("user_id is required")
		return st, nil
	}
	if strings.TrimSpace(req.Message) == "" {
		st.Err = fmt.Errorf("message is required")
		return st, nil
	}

	sess, err := p.sessionRepo.GetOrCreate(ctx, req.Channel, req.UserID, entity.LanguageEN)
	if err != nil {
		st.Err = err
		return st, nil
	}
	st.SessionID = sess.SessionId

	// 客户端携带 transcript 时仅本次调用以其为准，存储侧不受影响
	if len(req.Transcript) > 0 {
		st.History = req.Transcript
	} else {
		history, err := p.sessionRepo.History(ctx, req.Channel, req.UserID)
		if err != nil {
			st.Err = err
			return st, nil
		}
		st.History = history
	}
	if len(st.History) > historyWindowSize {
		st.History = st.History[len(st.History)-historyWindowSize:]
	}

	zlog.Info("conversation load session done",
		zap.String("query_id", st.QueryID),
		zap.String("session_id", st.SessionID),
		zap.String("channel", string(req.Channel)),
		zap.Int("history_count", len(st.History)))

	return st, nil
}

// Node 2: Analyze - 语言检测 + 情绪分析
func (p *ConversationPipeline) analyzeNode(ctx context.Context, st *conversationState, _ ...any) (*conversationState, error) {
	if st == nil || st.Err != nil {
		return st, nil
	}

	analyzeStart := time.Now()

	// 渠道侧语言提示优先（IVR 语音菜单），否则按消息内容检测
	switch entity.Language(strings.ToLower(strings.TrimSpace(st.Req.LanguageHint))) {
	case entity.LanguageEN:
		st.Language = entity.LanguageEN
	case entity.LanguageES:
		st.Language = entity.LanguageES
	default:
		st.Language = langdetect.Detect(st.Req.Message)
	}

	st.Sentiment = sentiment.Analyze(st.Req.Message)
	st.Escalate = st.Sentiment.ShouldEscalate()
	st.AnalyzeMs = time.Since(analyzeStart).Milliseconds()

	zlog.Info("conversation analyze done",
		zap.String("query_id", st.QueryID),
		zap.String("language", string(st.Language)),
		zap.String("sentiment", string(st.Sentiment.Category)),
		zap.Bool("escalate", st.Escalate))

	return st, nil
}

// Node 3: Retrieve - 知识库召回
func (p *ConversationPipeline) retrieveNode(ctx context.Context, st *conversationState, _ ...any) (*conversationState, error) {
	if st == nil || st.Err != nil {
		return st, nil
	}

	searchStart := time.Now()
	st.Retrieved = p.index.Search(st.Req.Message, kb.SearchOptions{Limit: retrieveTopK})
	st.SearchMs = time.Since(searchStart).Milliseconds()

	zlog.Info("conversation retrieve done",
		zap.String("query_id", st.QueryID),
		zap.Int("results", len(st.Retrieved)),
		zap.Int64("search_ms", st.SearchMs))

	return st, nil
}

// Node 4: BuildPrompt - 拼装 LLM 消息
func (p *ConversationPipeline) buildPromptNode(ctx context.Context, st *conversationState, _ ...any) (*conversationState, error) {
	if st == nil || st.Err != nil {
		return st, nil
	}

	contextStr := prompt.BuildContext(st.Retrieved)
	system := prompt.SystemPrompt(st.Language, contextStr, st.Escalate)

	promptMsgs := make([]schema.Message, 0, 2+len(st.History))
	promptMsgs = append(promptMsgs, schema.Message{
		Role:    schema.System,
		Content: system,
	})

	for _, h := range st.History {
		role := schema.User
		if h.Role == entity.RoleAssistant {
			role = schema.Assistant
		}
		promptMsgs = append(promptMsgs, schema.Message{
			Role:    role,
			Content: h.Content,
		})
	}

	promptMsgs = append(promptMsgs, schema.Message{
		Role:    schema.User,
		Content: st.Req.Message,
	})
	st.PromptMsgs = promptMsgs

	return st, nil
}

// Node 5: ChatModel - 调用 LLM
// 模型未配置或调用失败不中断链路，改用降级回复
func (p *ConversationPipeline) chatModelNode(ctx context.Context, st *conversationState, _ ...any) (*conversationState, error) {
	if st == nil || st.Err != nil {
		return st, nil
	}

	if p.chatModel == nil {
		st.ConfigErr = true
		st.Fallback = true
		st.Answer = prompt.Fallback(st.Language)
		zlog.Warn("conversation chat model not configured, using fallback",
			zap.String("query_id", st.QueryID))
		return st, nil
	}

	llmStart := time.Now()

	promptMsgs := make([]*schema.Message, len(st.PromptMsgs))
	for i := range st.PromptMsgs {
		promptMsgs[i] = &st.PromptMsgs[i]
	}

	temperature := chatTemperature
	resp, err := p.chatModel.Generate(ctx, promptMsgs,
		model.WithTemperature(temperature),
		model.WithMaxTokens(maxTokensFor(st.Req.Channel)))
	st.LLMMs = time.Since(llmStart).Milliseconds()

	if err != nil || resp == nil || strings.TrimSpace(resp.Content) == "" {
		st.Fallback = true
		st.Answer = prompt.Fallback(st.Language)
		zlog.Error("conversation chat model failed, using fallback",
			zap.String("query_id", st.QueryID),
			zap.Error(err))
		return st, nil
	}

	st.Answer = resp.Content

	zlog.Info("conversation chat model done",
		zap.String("query_id", st.QueryID),
		zap.Int("answer_len", len(st.Answer)),
		zap.Int64("llm_ms", st.LLMMs))

	return st, nil
}

// Node 6: Persist - 回写会话 + 审计流水
func (p *ConversationPipeline) persistNode(ctx context.Context, st *conversationState, _ ...any) (*ConversationResult, error) {
	if st == nil {
		return &ConversationResult{Err: fmt.Errorf("nil state")}, nil
	}
	if st.Err != nil {
		return p.buildFinalResult(st), nil
	}

	req := st.Req

	// 1. 追加两条消息（降级回复也入会话，保持上下文连续）
	if err := p.sessionRepo.AppendMessage(ctx, req.Channel, req.UserID, entity.RoleUser, req.Message); err != nil {
		zlog.Error("failed to append user message", zap.String("query_id", st.QueryID), zap.Error(err))
	}
	if err := p.sessionRepo.AppendMessage(ctx, req.Channel, req.UserID, entity.RoleAssistant, st.Answer); err != nil {
		zlog.Error("failed to append assistant message", zap.String("query_id", st.QueryID), zap.Error(err))
	}

	// 2. 回写本轮检测到的语言
	if err := p.sessionRepo.SetLanguage(ctx, req.Channel, req.UserID, st.Language); err != nil {
		zlog.Error("failed to set session language", zap.String("query_id", st.QueryID), zap.Error(err))
	}

	// 3. 审计流水（异步尽力而为）
	logUuid := util.GenerateUUID()
	if p.recorder != nil {
		p.recorder.Record(&logEntity.ConversationLog{
			LogUuid:          logUuid,
			SessionId:        st.SessionID,
			Channel:          string(req.Channel),
			UserId:           req.UserID,
			Language:         string(st.Language),
			Sentiment:        string(st.Sentiment.Category),
			SentimentScore:   st.Sentiment.Score,
			Escalated:        st.Escalate,
			UserMessage:      req.Message,
			AssistantMessage: st.Answer,
			SourcesJson:      sourcesJSON(st.Retrieved),
			UserAgent:        req.UserAgent,
			CreatedAt:        time.Now(),
		})
	}

	result := p.buildFinalResult(st)
	result.LogUuid = logUuid

	zlog.Info("conversation persist done",
		zap.String("query_id", st.QueryID),
		zap.String("session_id", st.SessionID),
		zap.Bool("fallback", st.Fallback))

	return result, nil
}

func (p *ConversationPipeline) buildFinalResult(st *conversationState) *ConversationResult {
	sources := make([]kb.SourceRef, 0, len(st.Retrieved))
	for _, r := range st.Retrieved {
		sources = append(sources, kb.SourceRef{Title: r.Title, Url: r.Url})
	}
	return &ConversationResult{
		SessionID: st.SessionID,
		Reply:     st.Answer,
		Language:  st.Language,
		Sentiment: string(st.Sentiment.Category),
		Escalate:  st.Escalate,
		Sources:   sources,
		QueryID:   st.QueryID,
		Fallback:  st.Fallback,
		ConfigErr: st.ConfigErr,
		Timing: TimingInfo{
			AnalyzeMs: st.AnalyzeMs,
			SearchMs:  st.SearchMs,
			LLMMs:     st.LLMMs,
			TotalMs:   time.Since(st.Start).Milliseconds(),
		},
		Err: st.Err,
	}
}

func sourcesJSON(results []kb.ScoredDocument) string {
	if len(results) == 0 {
		return "[]"
	}
	refs := make([]kb.SourceRef, 0, len(results))
	for _, r := range results {
		refs = append(refs, kb.SourceRef{Title: r.Title, Url: r.Url})
	}
	b, err := json.Marshal(refs)
	if err != nil {
		return "[]"
	}
	return string(b)
}
