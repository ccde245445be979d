package respond

// SmsInboundRespond 短信回复（网关按 To 回发 Reply）
type SmsInboundRespond struct {
	To    string `json:"to"`
	Reply string `json:"reply"`
}

// IvrInboundRespond 语音回复（Language 供 TTS 选音色）
type IvrInboundRespond struct {
	Reply    string `json:"reply"`
	Language string `json:"language"`
	Escalate bool   `json:"escalate"` // 需要转接人工坐席
}

// SocialInboundRespond 社交私信回复
type SocialInboundRespond struct {
	Platform string `json:"platform"`
	SenderId string `json:"sender_id"`
	Reply    string `json:"reply"`
	Escalate bool   `json:"escalate"`
}
