package repository

import (
	"context"

	"CivicLink/internal/modules/session/domain/entity"
)

// SessionRepository 会话存储契约
//
// 并发约束：同一 (channel, userId) 键上的读-改-写必须串行化
// （每键互斥即可，跨键不要求），否则并发追加会丢消息
type SessionRepository interface {
	// GetOrCreate 返回该键的存活会话；已过期或不存在时原子创建全新会话
	// （新 sessionId、空消息列表、指定默认语言），旧会话的消息被丢弃。
	// 取到存活会话视为一次活动，会顺带刷新 lastActivity
	GetOrCreate(ctx context.Context, channel entity.Channel, userID string, defaultLanguage entity.Language) (*entity.ChannelSession, error)

	// AppendMessage 向当前会话追加一条消息并刷新 lastActivity（必要时先创建会话）
	AppendMessage(ctx context.Context, channel entity.Channel, userID string, role string, content string) error

	// SetLanguage 仅覆写会话的语言字段
	SetLanguage(ctx context.Context, channel entity.Channel, userID string, language entity.Language) error

	// Clear 删除该键的会话（之后的访问会创建全新会话）
	Clear(ctx context.Context, channel entity.Channel, userID string) error

	// History 当前会话消息的只读投影（剥离时间戳），按到达顺序
	History(ctx context.Context, channel entity.Channel, userID string) ([]entity.HistoryEntry, error)
}
