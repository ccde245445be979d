package pipeline

import (
	"context"
	"fmt"

	"CivicLink/internal/modules/assistant/infrastructure/audit"
	"CivicLink/internal/modules/knowledge/domain/kb"
	"CivicLink/internal/modules/session/domain/entity"
	sessionRepository "CivicLink/internal/modules/session/domain/repository"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/compose"
)

const (
	defaultMaxTokens   = 500
	shortFormMaxTokens = 150

	chatTemperature float32 = 0.7

	retrieveTopK      = 5
	historyWindowSize = 12
)

// ConversationRequest Pipeline 输入
type ConversationRequest struct {
	Channel      entity.Channel        // 渠道（必填）
	UserID       string                // 渠道内用户标识（必填）
	Message      string                // 用户消息（必填）
	LanguageHint string                // 渠道侧语言提示（可选，如 IVR 语音菜单选择）
	Transcript   []entity.HistoryEntry // 客户端携带的对话记录（仅 web，覆盖本次调用的上下文）
	UserAgent    string                // 客户端标识（审计用）
}

// ConversationResult Pipeline 输出
type ConversationResult struct {
	SessionID string
	Reply     string
	Language  entity.Language
	Sentiment string
	Escalate  bool
	Sources   []kb.SourceRef
	QueryID   string
	LogUuid   string
	Fallback  bool // 是否为降级回复（LLM 未配置或调用失败）
	ConfigErr bool // LLM 未配置
	Timing    TimingInfo
	Err       error
}

// TimingInfo 耗时统计
type TimingInfo struct {
	AnalyzeMs int64 `json:"analyze_ms"`
	SearchMs  int64 `json:"search_ms"`
	LLMMs     int64 `json:"llm_ms"`
	TotalMs   int64 `json:"total_ms"`
}

// ConversationPipeline 市政问答 Pipeline（基于 Eino Graph）
type ConversationPipeline struct {
	sessionRepo sessionRepository.SessionRepository
	index       *kb.Index
	chatModel   model.BaseChatModel
	recorder    *audit.Recorder
	r           compose.Runnable[*ConversationRequest, *ConversationResult]
}

// NewConversationPipeline 创建对话 Pipeline
// chatModel 允许为 nil：此时跳过模型调用，返回降级回复（其余链路照常）
func NewConversationPipeline(
	sessionRepo sessionRepository.SessionRepository,
	index *kb.Index,
	chatModel model.BaseChatModel,
	recorder *audit.Recorder,
) (*ConversationPipeline, error) {
	if sessionRepo == nil || index == nil {
		return nil, fmt.Errorf("required dependencies are nil")
	}

	p := &ConversationPipeline{
		sessionRepo: sessionRepo,
		index:       index,
		chatModel:   chatModel,
		recorder:    recorder,
	}

	r, err := p.buildGraph(context.Background())
	if err != nil {
		return nil, err
	}
	p.r = r

	return p, nil
}

// Execute 执行一轮对话
func (p *ConversationPipeline) Execute(ctx context.Context, req *ConversationRequest) (*ConversationResult, error) {
	if req == nil {
		return nil, fmt.Errorf("request is nil")
	}
	if p.r == nil {
		return nil, fmt.Errorf("pipeline runnable is nil")
	}
	return p.r.Invoke(ctx, req)
}

// buildGraph 构建 Eino Graph（6 个节点）
func (p *ConversationPipeline) buildGraph(ctx context.Context) (compose.Runnable[*ConversationRequest, *ConversationResult], error) {
	const (
		LoadSession = "LoadSession"
		Analyze     = "Analyze"
		Retrieve    = "Retrieve"
		BuildPrompt = "BuildPrompt"
		ChatModel   = "ChatModel"
		Persist     = "Persist"
	)

	g := compose.NewGraph[*ConversationRequest, *ConversationResult]()

	_ = g.AddLambdaNode(LoadSession, compose.InvokableLambdaWithOption(p.loadSessionNode), compose.WithNodeName(LoadSession))
	_ = g.AddLambdaNode(Analyze, compose.InvokableLambdaWithOption(p.analyzeNode), compose.WithNodeName(Analyze))
	_ = g.AddLambdaNode(Retrieve, compose.InvokableLambdaWithOption(p.retrieveNode), compose.WithNodeName(Retrieve))
	_ = g.AddLambdaNode(BuildPrompt, compose.InvokableLambdaWithOption(p.buildPromptNode), compose.WithNodeName(BuildPrompt))
	_ = g.AddLambdaNode(ChatModel, compose.InvokableLambdaWithOption(p.chatModelNode), compose.WithNodeName(ChatModel))
	_ = g.AddLambdaNode(Persist, compose.InvokableLambdaWithOption(p.persistNode), compose.WithNodeName(Persist))

	_ = g.AddEdge(compose.START, LoadSession)
	_ = g.AddEdge(LoadSession, Analyze)
	_ = g.AddEdge(Analyze, Retrieve)
	_ = g.AddEdge(Retrieve, BuildPrompt)
	_ = g.AddEdge(BuildPrompt, ChatModel)
	_ = g.AddEdge(ChatModel, Persist)
	_ = g.AddEdge(Persist, compose.END)

	return g.Compile(ctx, compose.WithGraphName("ConversationPipeline"), compose.WithNodeTriggerMode(compose.AllPredecessor))
}

// maxTokensFor 短信类渠道回复更短
func maxTokensFor(channel entity.Channel) int {
	switch channel {
	case entity.ChannelSMS, entity.ChannelIVR:
		return shortFormMaxTokens
	default:
		return defaultMaxTokens
	}
}
