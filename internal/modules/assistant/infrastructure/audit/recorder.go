package audit

import (
	"context"
	"encoding/json"
	"time"

	"CivicLink/internal/modules/assistant/domain/entity"
	"CivicLink/internal/modules/assistant/domain/repository"
	"CivicLink/internal/modules/assistant/infrastructure/mq"
	"CivicLink/pkg/zlog"

	"go.uber.org/zap"
)

const recordTimeout = 5 * time.Second

// Recorder 会话审计落库 + Kafka 广播
// 尽力而为：任一失败只记日志，绝不影响对话主链路
type Recorder struct {
	logRepo   repository.ConversationLogRepository
	publisher mq.Publisher
	topic     string
}

func NewRecorder(logRepo repository.ConversationLogRepository, publisher mq.Publisher, topic string) *Recorder {
	return &Recorder{logRepo: logRepo, publisher: publisher, topic: topic}
}

// auditEvent Kafka 审计事件载荷
type auditEvent struct {
	LogUuid        string  `json:"log_uuid"`
	SessionId      string  `json:"session_id"`
	Channel        string  `json:"channel"`
	UserId         string  `json:"user_id"`
	Language       string  `json:"language"`
	Sentiment      string  `json:"sentiment"`
	SentimentScore float64 `json:"sentiment_score"`
	Escalated      bool    `json:"escalated"`
	CreatedAt      string  `json:"created_at"`
}

// Record 异步记录一轮对话，立即返回
func (r *Recorder) Record(log *entity.ConversationLog) {
	if r == nil || log == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
		defer cancel()

		if r.logRepo != nil {
			if err := r.logRepo.Save(ctx, log); err != nil {
				zlog.Error("audit: save conversation log failed",
					zap.String("logUuid", log.LogUuid),
					zap.String("sessionId", log.SessionId),
					zap.Error(err))
			}
		}

		if r.publisher == nil || r.topic == "" {
			return
		}
		ev := auditEvent{
			LogUuid:        log.LogUuid,
			SessionId:      log.SessionId,
			Channel:        log.Channel,
			UserId:         log.UserId,
			Language:       log.Language,
			Sentiment:      log.Sentiment,
			SentimentScore: log.SentimentScore,
			Escalated:      log.Escalated,
			CreatedAt:      log.CreatedAt.UTC().Format(time.RFC3339),
		}
		payload, err := json.Marshal(ev)
		if err != nil {
			zlog.Error("audit: marshal audit event failed", zap.Error(err))
			return
		}
		_, err = r.publisher.Publish(ctx, mq.Message{
			Topic: r.topic,
			Key:   log.SessionId,
			Value: payload,
			Headers: map[string]string{
				"channel":   log.Channel,
				"escalated": boolStr(log.Escalated),
			},
		})
		if err != nil {
			zlog.Error("audit: publish audit event failed",
				zap.String("logUuid", log.LogUuid),
				zap.String("topic", r.topic),
				zap.Error(err))
		}
	}()
}

func boolStr(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
