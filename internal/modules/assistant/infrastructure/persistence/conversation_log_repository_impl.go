package persistence

import (
	"context"
	"errors"
	"strings"

	"CivicLink/internal/modules/assistant/domain/entity"
	"CivicLink/internal/modules/assistant/domain/repository"

	"gorm.io/gorm"
)

type conversationLogRepositoryImpl struct {
	db *gorm.DB
}

func NewConversationLogRepository(db *gorm.DB) repository.ConversationLogRepository {
	return &conversationLogRepositoryImpl{db: db}
}

// NewConversationLogRepositoryOrNil 数据库未配置时返回 nil，调用方据此降级
func NewConversationLogRepositoryOrNil(db *gorm.DB) repository.ConversationLogRepository {
	if db == nil {
		return nil
	}
	return &conversationLogRepositoryImpl{db: db}
}

func (r *conversationLogRepositoryImpl) Save(ctx context.Context, log *entity.ConversationLog) error {
	if log == nil {
		return nil
	}
	return r.db.WithContext(ctx).Create(log).Error
}

func (r *conversationLogRepositoryImpl) UpdateFeedback(ctx context.Context, logUuid string, helpful bool) error {
	logUuid = strings.TrimSpace(logUuid)
	if logUuid == "" {
		return errors.New("logUuid is empty")
	}
	res := r.db.WithContext(ctx).Model(&entity.ConversationLog{}).
		Where("log_uuid = ?", logUuid).
		Update("feedback_given", helpful)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *conversationLogRepositoryImpl) FindByUuid(ctx context.Context, logUuid string) (*entity.ConversationLog, error) {
	logUuid = strings.TrimSpace(logUuid)
	if logUuid == "" {
		return nil, gorm.ErrRecordNotFound
	}
	var out entity.ConversationLog
	err := r.db.WithContext(ctx).Where("log_uuid = ?", logUuid).First(&out).Error
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *conversationLogRepositoryImpl) ListBySession(ctx context.Context, sessionId string, limit int) ([]*entity.ConversationLog, error) {
	sessionId = strings.TrimSpace(sessionId)
	if sessionId == "" {
		return []*entity.ConversationLog{}, nil
	}
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	var out []*entity.ConversationLog
	err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionId).
		Order("id ASC").
		Limit(limit).
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}
