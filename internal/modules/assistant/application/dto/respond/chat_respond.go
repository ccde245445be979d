package respond

// SourceEntry 回答引用的知识库来源
type SourceEntry struct {
	Title string `json:"title"`
	Url   string `json:"url"`
}

// TimingInfo 耗时统计
type TimingInfo struct {
	AnalyzeMs int64 `json:"analyze_ms"`
	SearchMs  int64 `json:"search_ms"`
	LLMMs     int64 `json:"llm_ms"`
	TotalMs   int64 `json:"total_ms"`
}

// ChatRespond 对话响应
type ChatRespond struct {
	Message        string        `json:"message"`
	Language       string        `json:"language"`
	Sentiment      string        `json:"sentiment"`
	Sources        []SourceEntry `json:"sources"`
	Escalate       bool          `json:"escalate"`
	SessionId      string        `json:"session_id"`
	ConversationId string        `json:"conversation_id"` // 反馈接口按此定位本轮对话
	Fallback       bool          `json:"fallback,omitempty"`
	Timing         TimingInfo    `json:"timing"`
}

// FeedbackRespond 反馈响应
type FeedbackRespond struct {
	ConversationId string `json:"conversation_id"`
	Recorded       bool   `json:"recorded"`
}

// ClearSessionRespond 清除会话响应
type ClearSessionRespond struct {
	Cleared bool `json:"cleared"`
}

// TranscriptEntry 一轮已归档的对话
type TranscriptEntry struct {
	ConversationId   string `json:"conversation_id"`
	UserMessage      string `json:"user_message"`
	AssistantMessage string `json:"assistant_message"`
	Language         string `json:"language"`
	Sentiment        string `json:"sentiment"`
	Escalated        bool   `json:"escalated"`
	FeedbackGiven    *bool  `json:"feedback_given"`
	CreatedAt        string `json:"created_at"` // RFC3339
}

// TranscriptRespond 流水查询响应
type TranscriptRespond struct {
	SessionId string            `json:"session_id,omitempty"`
	Count     int               `json:"count"`
	Entries   []TranscriptEntry `json:"entries"`
}
