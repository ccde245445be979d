package persistence

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"CivicLink/internal/modules/session/domain/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock 可推进的测试时钟
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

// TestMemorySession_GetOrCreateNew 首次访问创建全新会话
func TestMemorySession_GetOrCreateNew(t *testing.T) {
	clock := newFakeClock()
	repo := newMemorySessionRepository(nil, clock.Now)
	ctx := context.Background()

	sess, err := repo.GetOrCreate(ctx, entity.ChannelWeb, "visitor-1", entity.LanguageEN)
	require.NoError(t, err)
	assert.NotEmpty(t, sess.SessionId)
	assert.Equal(t, entity.ChannelWeb, sess.Channel)
	assert.Equal(t, "visitor-1", sess.UserId)
	assert.Equal(t, entity.LanguageEN, sess.Language)
	assert.Empty(t, sess.Messages)
}

// TestMemorySession_SameKeyReturnsSameSession 超时内同键返回同一会话
func TestMemorySession_SameKeyReturnsSameSession(t *testing.T) {
	clock := newFakeClock()
	repo := newMemorySessionRepository(nil, clock.Now)
	ctx := context.Background()

	first, err := repo.GetOrCreate(ctx, entity.ChannelWeb, "visitor-1", entity.LanguageEN)
	require.NoError(t, err)

	clock.Advance(10 * time.Minute)
	second, err := repo.GetOrCreate(ctx, entity.ChannelWeb, "visitor-1", entity.LanguageEN)
	require.NoError(t, err)
	assert.Equal(t, first.SessionId, second.SessionId)

	// 不同键各自独立
	other, err := repo.GetOrCreate(ctx, entity.ChannelWeb, "visitor-2", entity.LanguageEN)
	require.NoError(t, err)
	assert.NotEqual(t, first.SessionId, other.SessionId)
}

// TestMemorySession_IvrExpiry ivr 渠道 5 分钟超时：4 分钟存活，6 分钟过期换新
func TestMemorySession_IvrExpiry(t *testing.T) {
	clock := newFakeClock()
	repo := newMemorySessionRepository(nil, clock.Now)
	ctx := context.Background()

	first, err := repo.GetOrCreate(ctx, entity.ChannelIVR, "+15551234567", entity.LanguageEN)
	require.NoError(t, err)
	require.NoError(t, repo.AppendMessage(ctx, entity.ChannelIVR, "+15551234567", entity.RoleUser, "trash pickup"))

	clock.Advance(4 * time.Minute)
	alive, err := repo.GetOrCreate(ctx, entity.ChannelIVR, "+15551234567", entity.LanguageEN)
	require.NoError(t, err)
	assert.Equal(t, first.SessionId, alive.SessionId)

	// 取会话刷新了 lastActivity，再等 6 分钟才过期
	clock.Advance(6 * time.Minute)
	replaced, err := repo.GetOrCreate(ctx, entity.ChannelIVR, "+15551234567", entity.LanguageEN)
	require.NoError(t, err)
	assert.NotEqual(t, first.SessionId, replaced.SessionId)
	assert.Empty(t, replaced.Messages, "过期替换后旧消息丢弃")
}

// TestMemorySession_ActivityKeepsAlive 持续活动的会话不过期
func TestMemorySession_ActivityKeepsAlive(t *testing.T) {
	clock := newFakeClock()
	repo := newMemorySessionRepository(nil, clock.Now)
	ctx := context.Background()

	first, err := repo.GetOrCreate(ctx, entity.ChannelWeb, "visitor-1", entity.LanguageEN)
	require.NoError(t, err)

	// 每 20 分钟一条消息，跨度超过 30 分钟超时但始终存活
	for i := 0; i < 4; i++ {
		clock.Advance(20 * time.Minute)
		require.NoError(t, repo.AppendMessage(ctx, entity.ChannelWeb, "visitor-1", entity.RoleUser, fmt.Sprintf("msg %d", i)))
	}

	sess, err := repo.GetOrCreate(ctx, entity.ChannelWeb, "visitor-1", entity.LanguageEN)
	require.NoError(t, err)
	assert.Equal(t, first.SessionId, sess.SessionId)
	assert.Len(t, sess.Messages, 4)
}

// TestMemorySession_HistoryOrderAndProjection 历史按到达顺序，投影无时间戳
func TestMemorySession_HistoryOrderAndProjection(t *testing.T) {
	clock := newFakeClock()
	repo := newMemorySessionRepository(nil, clock.Now)
	ctx := context.Background()

	require.NoError(t, repo.AppendMessage(ctx, entity.ChannelSMS, "+15550001111", entity.RoleUser, "when is trash pickup?"))
	require.NoError(t, repo.AppendMessage(ctx, entity.ChannelSMS, "+15550001111", entity.RoleAssistant, "Trash is collected weekly."))
	require.NoError(t, repo.AppendMessage(ctx, entity.ChannelSMS, "+15550001111", entity.RoleUser, "what about recycling?"))

	history, err := repo.History(ctx, entity.ChannelSMS, "+15550001111")
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, entity.RoleUser, history[0].Role)
	assert.Equal(t, "when is trash pickup?", history[0].Content)
	assert.Equal(t, entity.RoleAssistant, history[1].Role)
	assert.Equal(t, entity.RoleUser, history[2].Role)
}

// TestMemorySession_HistoryOfExpiredSessionEmpty 过期会话的历史为空
func TestMemorySession_HistoryOfExpiredSessionEmpty(t *testing.T) {
	clock := newFakeClock()
	repo := newMemorySessionRepository(nil, clock.Now)
	ctx := context.Background()

	require.NoError(t, repo.AppendMessage(ctx, entity.ChannelIVR, "+15550001111", entity.RoleUser, "hello"))
	clock.Advance(6 * time.Minute)

	history, err := repo.History(ctx, entity.ChannelIVR, "+15550001111")
	require.NoError(t, err)
	assert.Empty(t, history)
}

// TestMemorySession_Clear 清除后下次访问创建新会话
func TestMemorySession_Clear(t *testing.T) {
	clock := newFakeClock()
	repo := newMemorySessionRepository(nil, clock.Now)
	ctx := context.Background()

	first, err := repo.GetOrCreate(ctx, entity.ChannelWeb, "visitor-1", entity.LanguageEN)
	require.NoError(t, err)
	require.NoError(t, repo.AppendMessage(ctx, entity.ChannelWeb, "visitor-1", entity.RoleUser, "hi"))

	require.NoError(t, repo.Clear(ctx, entity.ChannelWeb, "visitor-1"))

	replaced, err := repo.GetOrCreate(ctx, entity.ChannelWeb, "visitor-1", entity.LanguageEN)
	require.NoError(t, err)
	assert.NotEqual(t, first.SessionId, replaced.SessionId)
	assert.Empty(t, replaced.Messages)
}

// TestMemorySession_SetLanguage 语言覆写保留消息
func TestMemorySession_SetLanguage(t *testing.T) {
	clock := newFakeClock()
	repo := newMemorySessionRepository(nil, clock.Now)
	ctx := context.Background()

	require.NoError(t, repo.AppendMessage(ctx, entity.ChannelWeb, "visitor-1", entity.RoleUser, "hola"))
	require.NoError(t, repo.SetLanguage(ctx, entity.ChannelWeb, "visitor-1", entity.LanguageES))

	sess, err := repo.GetOrCreate(ctx, entity.ChannelWeb, "visitor-1", entity.LanguageEN)
	require.NoError(t, err)
	assert.Equal(t, entity.LanguageES, sess.Language)
	assert.Len(t, sess.Messages, 1)
}

// TestMemorySession_ConcurrentAppends 并发追加不丢消息
func TestMemorySession_ConcurrentAppends(t *testing.T) {
	repo := NewMemorySessionRepository(nil)
	ctx := context.Background()

	const n = 50
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func(i int) {
			defer wg.Done()
			_ = repo.AppendMessage(ctx, entity.ChannelWeb, "visitor-1", entity.RoleUser, fmt.Sprintf("msg %d", i))
		}(i)
	}
	wg.Wait()

	history, err := repo.History(ctx, entity.ChannelWeb, "visitor-1")
	require.NoError(t, err)
	assert.Len(t, history, n)
}

// TestMemorySession_SnapshotIsolation 返回的会话是副本，外部修改不影响存储
func TestMemorySession_SnapshotIsolation(t *testing.T) {
	clock := newFakeClock()
	repo := newMemorySessionRepository(nil, clock.Now)
	ctx := context.Background()

	require.NoError(t, repo.AppendMessage(ctx, entity.ChannelWeb, "visitor-1", entity.RoleUser, "original"))

	sess, err := repo.GetOrCreate(ctx, entity.ChannelWeb, "visitor-1", entity.LanguageEN)
	require.NoError(t, err)
	sess.Messages[0].Content = "mutated"
	sess.Language = entity.LanguageES

	again, err := repo.GetOrCreate(ctx, entity.ChannelWeb, "visitor-1", entity.LanguageEN)
	require.NoError(t, err)
	assert.Equal(t, "original", again.Messages[0].Content)
	assert.Equal(t, entity.LanguageEN, again.Language)
}
