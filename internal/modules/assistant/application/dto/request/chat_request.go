package request

// HistoryItem 客户端携带的历史消息
type HistoryItem struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest 对话请求
type ChatRequest struct {
	Channel  string        `json:"channel"`  // web/ivr/sms/facebook/instagram/whatsapp，缺省 web
	UserId   string        `json:"user_id"`  // 渠道内用户标识（必填）
	Message  string        `json:"message"`  // 用户消息（必填）
	Language string        `json:"language"` // 语言提示（可选：en/es）
	History  []HistoryItem `json:"history"`  // 客户端自带对话记录（可选，仅 web）
}

// FeedbackRequest 回答反馈
type FeedbackRequest struct {
	ConversationId string `json:"conversation_id"` // 对应 ChatRespond.ConversationId（必填）
	Helpful        *bool  `json:"helpful"`         // 是否有帮助（必填）
}

// ClearSessionRequest 清除会话
type ClearSessionRequest struct {
	Channel string `json:"channel"`
	UserId  string `json:"user_id"`
}

// TranscriptRequest 流水查询（二选一：conversation_id 查单条，session_id 查整段）
type TranscriptRequest struct {
	ConversationId string `form:"conversation_id"`
	SessionId      string `form:"session_id"`
	Limit          int    `form:"limit"` // 缺省 50
}
