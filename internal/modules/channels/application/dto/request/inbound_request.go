package request

// SmsInboundRequest 短信网关回调
type SmsInboundRequest struct {
	From string `json:"from"` // 发送方手机号（必填）
	Body string `json:"body"` // 短信正文（必填）
}

// IvrInboundRequest 电话语音系统回调（语音已转文字）
type IvrInboundRequest struct {
	CallerId   string `json:"caller_id"`   // 主叫号码（必填）
	SpeechText string `json:"speech_text"` // 识别出的用户话语（必填）
	Language   string `json:"language"`    // 语音菜单选择的语言（可选：en/es）
}

// SocialInboundRequest 社交平台私信回调
type SocialInboundRequest struct {
	Platform string `json:"platform"`  // facebook / instagram / whatsapp（必填）
	SenderId string `json:"sender_id"` // 平台侧用户句柄（必填）
	Text     string `json:"text"`      // 私信文本（必填）
}
