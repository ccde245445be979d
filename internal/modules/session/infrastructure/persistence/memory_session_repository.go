package persistence

import (
	"context"
	"fmt"
	"sync"
	"time"

	"CivicLink/internal/modules/session/domain/entity"
	"CivicLink/internal/modules/session/domain/repository"
	"CivicLink/pkg/util"
)

// memorySessionRepository 进程内会话存储
// 用于未配置 Redis 的部署和测试；每键一把互斥锁串行化读-改-写
type memorySessionRepository struct {
	mu       sync.Mutex
	sessions map[string]*entity.ChannelSession
	locks    map[string]*sync.Mutex
	timeouts entity.TimeoutTable
	now      func() time.Time
}

// NewMemorySessionRepository 创建内存会话存储
func NewMemorySessionRepository(timeouts entity.TimeoutTable) repository.SessionRepository {
	return newMemorySessionRepository(timeouts, time.Now)
}

// newMemorySessionRepository 允许注入时钟，测试用
func newMemorySessionRepository(timeouts entity.TimeoutTable, now func() time.Time) *memorySessionRepository {
	if timeouts == nil {
		timeouts = entity.DefaultTimeouts()
	}
	return &memorySessionRepository{
		sessions: make(map[string]*entity.ChannelSession),
		locks:    make(map[string]*sync.Mutex),
		timeouts: timeouts,
		now:      now,
	}
}

func sessionKey(channel entity.Channel, userID string) string {
	return fmt.Sprintf("%s:%s", channel, userID)
}

// keyLock 取该键的互斥锁（惰性创建）
func (r *memorySessionRepository) keyLock(key string) *sync.Mutex {
	r.mu.Lock()
	defer r.mu.Unlock()
	l := r.locks[key]
	if l == nil {
		l = &sync.Mutex{}
		r.locks[key] = l
	}
	return l
}

// getOrCreateLocked 调用方必须已持有该键的锁
func (r *memorySessionRepository) getOrCreateLocked(channel entity.Channel, userID string, defaultLanguage entity.Language) *entity.ChannelSession {
	key := sessionKey(channel, userID)
	now := r.now()

	r.mu.Lock()
	sess := r.sessions[key]
	r.mu.Unlock()

	if sess != nil && now.Sub(sess.LastActivity) < r.timeouts.Timeout(channel) {
		sess.LastActivity = now
		return sess
	}

	// 过期或不存在：整体替换为全新会话
	sess = &entity.ChannelSession{
		SessionId:    util.GenerateID("CS"),
		Channel:      channel,
		UserId:       userID,
		StartTime:    now,
		LastActivity: now,
		Language:     defaultLanguage,
		Messages:     []entity.SessionMessage{},
	}
	r.mu.Lock()
	r.sessions[key] = sess
	r.mu.Unlock()
	return sess
}

func (r *memorySessionRepository) GetOrCreate(_ context.Context, channel entity.Channel, userID string, defaultLanguage entity.Language) (*entity.ChannelSession, error) {
	l := r.keyLock(sessionKey(channel, userID))
	l.Lock()
	defer l.Unlock()

	sess := r.getOrCreateLocked(channel, userID, defaultLanguage)
	snapshot := *sess
	snapshot.Messages = append([]entity.SessionMessage(nil), sess.Messages...)
	return &snapshot, nil
}

func (r *memorySessionRepository) AppendMessage(_ context.Context, channel entity.Channel, userID string, role string, content string) error {
	l := r.keyLock(sessionKey(channel, userID))
	l.Lock()
	defer l.Unlock()

	sess := r.getOrCreateLocked(channel, userID, entity.LanguageEN)
	now := r.now()
	sess.Messages = append(sess.Messages, entity.SessionMessage{
		Role:      role,
		Content:   content,
		Timestamp: now,
	})
	sess.LastActivity = now
	return nil
}

func (r *memorySessionRepository) SetLanguage(_ context.Context, channel entity.Channel, userID string, language entity.Language) error {
	l := r.keyLock(sessionKey(channel, userID))
	l.Lock()
	defer l.Unlock()

	sess := r.getOrCreateLocked(channel, userID, language)
	sess.Language = language
	return nil
}

func (r *memorySessionRepository) Clear(_ context.Context, channel entity.Channel, userID string) error {
	key := sessionKey(channel, userID)
	l := r.keyLock(key)
	l.Lock()
	defer l.Unlock()

	r.mu.Lock()
	delete(r.sessions, key)
	r.mu.Unlock()
	return nil
}

func (r *memorySessionRepository) History(_ context.Context, channel entity.Channel, userID string) ([]entity.HistoryEntry, error) {
	key := sessionKey(channel, userID)
	l := r.keyLock(key)
	l.Lock()
	defer l.Unlock()

	r.mu.Lock()
	sess := r.sessions[key]
	r.mu.Unlock()

	if sess == nil || r.now().Sub(sess.LastActivity) >= r.timeouts.Timeout(channel) {
		return []entity.HistoryEntry{}, nil
	}

	out := make([]entity.HistoryEntry, 0, len(sess.Messages))
	for _, m := range sess.Messages {
		out = append(out, entity.HistoryEntry{Role: m.Role, Content: m.Content})
	}
	return out, nil
}
