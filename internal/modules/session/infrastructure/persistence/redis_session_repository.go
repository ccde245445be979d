package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"CivicLink/internal/modules/session/domain/entity"
	"CivicLink/internal/modules/session/domain/repository"
	"CivicLink/pkg/redis"
	"CivicLink/pkg/util"
	"CivicLink/pkg/zlog"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	redisSessionKeyPrefix = "civiclink:session:"
	lockExpiration        = 3 * time.Second
	lockRetryInterval     = 20 * time.Millisecond
	lockMaxWait           = 2 * time.Second
)

// redisSessionRepository Redis 会话存储
// 会话整体序列化为 JSON 存在单个 key 下，TTL 即渠道超时；
// 读-改-写通过 SetNX 每键锁串行化，跨进程也安全
type redisSessionRepository struct {
	timeouts entity.TimeoutTable
}

// NewRedisSessionRepository 创建 Redis 会话存储
func NewRedisSessionRepository(timeouts entity.TimeoutTable) repository.SessionRepository {
	if timeouts == nil {
		timeouts = entity.DefaultTimeouts()
	}
	return &redisSessionRepository{timeouts: timeouts}
}

func redisSessionKey(channel entity.Channel, userID string) string {
	return fmt.Sprintf("%s%s:%s", redisSessionKeyPrefix, channel, userID)
}

// withKeyLock 持锁执行读-改-写；拿不到锁时退避重试，超时放弃
func (r *redisSessionRepository) withKeyLock(ctx context.Context, key string, fn func() error) error {
	lockKey := key + ":lock"
	deadline := time.Now().Add(lockMaxWait)
	for {
		ok, err := redis.Lock(ctx, lockKey, lockExpiration)
		if err != nil {
			return err
		}
		if ok {
			break
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("session key lock timeout: %s", key)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(lockRetryInterval):
		}
	}
	defer func() {
		if err := redis.Unlock(ctx, lockKey); err != nil {
			zlog.Warn("session lock release failed", zap.String("key", lockKey), zap.Error(err))
		}
	}()
	return fn()
}

// load 读取会话，不存在返回 nil
func (r *redisSessionRepository) load(ctx context.Context, key string) (*entity.ChannelSession, error) {
	raw, err := redis.Get(ctx, key)
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, nil
		}
		return nil, err
	}
	var sess entity.ChannelSession
	if err := json.Unmarshal([]byte(raw), &sess); err != nil {
		// 损坏数据按不存在处理，下次写入覆盖
		zlog.Warn("corrupt session blob dropped", zap.String("key", key), zap.Error(err))
		return nil, nil
	}
	return &sess, nil
}

// store 写回会话并重置 TTL
func (r *redisSessionRepository) store(ctx context.Context, key string, sess *entity.ChannelSession) error {
	b, err := json.Marshal(sess)
	if err != nil {
		return err
	}
	return redis.Set(ctx, key, string(b), r.timeouts.Timeout(sess.Channel))
}

// getOrCreateLocked 调用方必须已持有该键的锁
func (r *redisSessionRepository) getOrCreateLocked(ctx context.Context, channel entity.Channel, userID string, defaultLanguage entity.Language) (*entity.ChannelSession, error) {
	key := redisSessionKey(channel, userID)
	now := time.Now()

	sess, err := r.load(ctx, key)
	if err != nil {
		return nil, err
	}
	// TTL 兜底之外再校验 lastActivity，保证过期语义精确
	if sess != nil && now.Sub(sess.LastActivity) < r.timeouts.Timeout(channel) {
		sess.LastActivity = now
		if err := r.store(ctx, key, sess); err != nil {
			return nil, err
		}
		return sess, nil
	}

	sess = &entity.ChannelSession{
		SessionId:    util.GenerateID("CS"),
		Channel:      channel,
		UserId:       userID,
		StartTime:    now,
		LastActivity: now,
		Language:     defaultLanguage,
		Messages:     []entity.SessionMessage{},
	}
	if err := r.store(ctx, key, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

func (r *redisSessionRepository) GetOrCreate(ctx context.Context, channel entity.Channel, userID string, defaultLanguage entity.Language) (*entity.ChannelSession, error) {
	var out *entity.ChannelSession
	err := r.withKeyLock(ctx, redisSessionKey(channel, userID), func() error {
		sess, err := r.getOrCreateLocked(ctx, channel, userID, defaultLanguage)
		if err != nil {
			return err
		}
		out = sess
		return nil
	})
	return out, err
}

func (r *redisSessionRepository) AppendMessage(ctx context.Context, channel entity.Channel, userID string, role string, content string) error {
	key := redisSessionKey(channel, userID)
	return r.withKeyLock(ctx, key, func() error {
		sess, err := r.getOrCreateLocked(ctx, channel, userID, entity.LanguageEN)
		if err != nil {
			return err
		}
		now := time.Now()
		sess.Messages = append(sess.Messages, entity.SessionMessage{
			Role:      role,
			Content:   content,
			Timestamp: now,
		})
		sess.LastActivity = now
		return r.store(ctx, key, sess)
	})
}

func (r *redisSessionRepository) SetLanguage(ctx context.Context, channel entity.Channel, userID string, language entity.Language) error {
	key := redisSessionKey(channel, userID)
	return r.withKeyLock(ctx, key, func() error {
		sess, err := r.getOrCreateLocked(ctx, channel, userID, language)
		if err != nil {
			return err
		}
		sess.Language = language
		return r.store(ctx, key, sess)
	})
}

func (r *redisSessionRepository) Clear(ctx context.Context, channel entity.Channel, userID string) error {
	key := redisSessionKey(channel, userID)
	return r.withKeyLock(ctx, key, func() error {
		_, err := redis.Del(ctx, key)
		return err
	})
}

func (r *redisSessionRepository) History(ctx context.Context, channel entity.Channel, userID string) ([]entity.HistoryEntry, error) {
	key := redisSessionKey(channel, userID)
	sess, err := r.load(ctx, key)
	if err != nil {
		return nil, err
	}
	if sess == nil || time.Since(sess.LastActivity) >= r.timeouts.Timeout(channel) {
		return []entity.HistoryEntry{}, nil
	}
	out := make([]entity.HistoryEntry, 0, len(sess.Messages))
	for _, m := range sess.Messages {
		out = append(out, entity.HistoryEntry{Role: m.Role, Content: m.Content})
	}
	return out, nil
}
