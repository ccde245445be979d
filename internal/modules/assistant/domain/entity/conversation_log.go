package entity

import "time"

// ConversationLog 会话流水（仅追加，反馈标记除外）
type ConversationLog struct {
	Id               int64     `gorm:"column:id;primaryKey;autoIncrement"`
	LogUuid          string    `gorm:"column:log_uuid;type:varchar(32);uniqueIndex;not null"`
	SessionId        string    `gorm:"column:session_id;type:varchar(64);index;not null"`
	Channel          string    `gorm:"column:channel;type:varchar(16);index;not null"`
	UserId           string    `gorm:"column:user_id;type:varchar(64);index;not null"`
	Language         string    `gorm:"column:language;type:varchar(8);not null"`
	Sentiment        string    `gorm:"column:sentiment;type:varchar(16);not null"`
	SentimentScore   float64   `gorm:"column:sentiment_score"`
	Escalated        bool      `gorm:"column:escalated;default:false"`
	UserMessage      string    `gorm:"column:user_message;type:text"`
	AssistantMessage string    `gorm:"column:assistant_message;type:text"`
	SourcesJson      string    `gorm:"column:sources_json;type:text"`
	FeedbackGiven    *bool     `gorm:"column:feedback_given"`
	UserAgent        string    `gorm:"column:user_agent;type:varchar(255)"`
	CreatedAt        time.Time `gorm:"column:created_at;index;autoCreateTime"`
}

func (ConversationLog) TableName() string {
	return "conversation_log"
}
