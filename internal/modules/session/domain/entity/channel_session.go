package entity

import "time"

// Channel 会话渠道
type Channel string

const (
	ChannelWeb       Channel = "web"
	ChannelIVR       Channel = "ivr"
	ChannelSMS       Channel = "sms"
	ChannelFacebook  Channel = "facebook"
	ChannelInstagram Channel = "instagram"
	ChannelWhatsApp  Channel = "whatsapp"
)

// Valid 是否为已知渠道
func (c Channel) Valid() bool {
	switch c {
	case ChannelWeb, ChannelIVR, ChannelSMS, ChannelFacebook, ChannelInstagram, ChannelWhatsApp:
		return true
	}
	return false
}

// Language 会话语言
type Language string

const (
	LanguageEN Language = "en"
	LanguageES Language = "es"
)

// 消息角色
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// SessionMessage 会话内单条消息
type SessionMessage struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// HistoryEntry 历史消息投影（剥离时间戳，用于拼接 LLM 上下文）
type HistoryEntry struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChannelSession 按 (channel, userId) 键控的会话状态
// 不变量：同一键在任意时刻至多一个存活会话；
// now - lastActivity >= 渠道超时后视为过期，下次访问整体替换（旧消息丢弃）
type ChannelSession struct {
	SessionId    string           `json:"sessionId"`
	Channel      Channel          `json:"channel"`
	UserId       string           `json:"userId"` // 手机号 / 社交句柄 / 匿名浏览器 ID
	StartTime    time.Time        `json:"startTime"`
	LastActivity time.Time        `json:"lastActivity"`
	Language     Language         `json:"language"`
	Messages     []SessionMessage `json:"messages"`
}

// TimeoutTable 各渠道会话超时表
type TimeoutTable map[Channel]time.Duration

// DefaultTimeouts 缺省超时：web 30 分钟，ivr 5 分钟，消息类渠道 24 小时
func DefaultTimeouts() TimeoutTable {
	return TimeoutTable{
		ChannelWeb:       30 * time.Minute,
		ChannelIVR:       5 * time.Minute,
		ChannelSMS:       24 * time.Hour,
		ChannelFacebook:  24 * time.Hour,
		ChannelInstagram: 24 * time.Hour,
		ChannelWhatsApp:  24 * time.Hour,
	}
}

// Timeout 取渠道超时，未知渠道按消息类处理
func (t TimeoutTable) Timeout(c Channel) time.Duration {
	if d, ok := t[c]; ok && d > 0 {
		return d
	}
	return 24 * time.Hour
}
