package repository

import (
	"context"

	"CivicLink/internal/modules/assistant/domain/entity"
)

// ConversationLogRepository 会话流水仓储
type ConversationLogRepository interface {
	Save(ctx context.Context, log *entity.ConversationLog) error
	// UpdateFeedback 按流水号更新反馈标记（helpful = 是否有帮助）
	UpdateFeedback(ctx context.Context, logUuid string, helpful bool) error
	FindByUuid(ctx context.Context, logUuid string) (*entity.ConversationLog, error)
	ListBySession(ctx context.Context, sessionId string, limit int) ([]*entity.ConversationLog, error)
}
