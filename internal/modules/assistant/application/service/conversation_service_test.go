package service

import (
	"context"
	"testing"
	"time"

	"CivicLink/internal/modules/assistant/application/dto/request"
	"CivicLink/internal/modules/assistant/domain/entity"
	"CivicLink/internal/modules/assistant/domain/repository"
	"CivicLink/internal/modules/assistant/infrastructure/pipeline"
	"CivicLink/internal/modules/knowledge/domain/kb"
	sessionEntity "CivicLink/internal/modules/session/domain/entity"
	sessionRepository "CivicLink/internal/modules/session/domain/repository"
	sessionPersistence "CivicLink/internal/modules/session/infrastructure/persistence"
	"CivicLink/pkg/xerr"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// fakeLogRepo 内存流水仓储
type fakeLogRepo struct {
	saved    []*entity.ConversationLog
	feedback map[string]bool
}

func newFakeLogRepo() *fakeLogRepo {
	return &fakeLogRepo{feedback: make(map[string]bool)}
}

func (f *fakeLogRepo) Save(_ context.Context, log *entity.ConversationLog) error {
	f.saved = append(f.saved, log)
	return nil
}

func (f *fakeLogRepo) UpdateFeedback(_ context.Context, logUuid string, helpful bool) error {
	for _, l := range f.saved {
		if l.LogUuid == logUuid {
			f.feedback[logUuid] = helpful
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (f *fakeLogRepo) FindByUuid(_ context.Context, logUuid string) (*entity.ConversationLog, error) {
	for _, l := range f.saved {
		if l.LogUuid == logUuid {
			return l, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeLogRepo) ListBySession(_ context.Context, sessionId string, _ int) ([]*entity.ConversationLog, error) {
	var out []*entity.ConversationLog
	for _, l := range f.saved {
		if l.SessionId == sessionId {
			out = append(out, l)
		}
	}
	return out, nil
}

func newTestService(t *testing.T, logRepo *fakeLogRepo) (ConversationService, sessionRepository.SessionRepository) {
	t.Helper()
	sessionRepo := sessionPersistence.NewMemorySessionRepository(nil)
	ix := kb.NewIndex()
	ix.Load([]kb.Document{
		{Id: "a", Title: "Trash Collection", Url: "/services/trash", Content: "trash weekly pickup"},
	}, time.Now())

	// 模型未配置：走降级回复分支
	pipe, err := pipeline.NewConversationPipeline(sessionRepo, ix, nil, nil)
	require.NoError(t, err)
	// 显式传接口 nil，避免携带 nil 指针的非 nil 接口绕过降级判断
	var repoIface repository.ConversationLogRepository
	if logRepo != nil {
		repoIface = logRepo
	}
	return NewConversationService(pipe, sessionRepo, repoIface), sessionRepo
}

// TestChat_ValidationBeforeSession 缺参返回 400 且不创建会话
func TestChat_ValidationBeforeSession(t *testing.T) {
	svc, sessionRepo := newTestService(t, newFakeLogRepo())
	ctx := context.Background()

	cases := []*request.ChatRequest{
		{Channel: "web", UserId: "visitor-1", Message: ""},
		{Channel: "web", UserId: "", Message: "hello"},
		{Channel: "telegraph", UserId: "visitor-1", Message: "hello"},
	}
	for _, req := range cases {
		_, err := svc.Chat(ctx, req, "test-agent")
		require.Error(t, err, "req: %+v", req)
		codeErr, ok := err.(*xerr.CodeError)
		require.True(t, ok)
		assert.Equal(t, xerr.BadRequest, codeErr.Code)
	}

	history, err := sessionRepo.History(ctx, sessionEntity.ChannelWeb, "visitor-1")
	require.NoError(t, err)
	assert.Empty(t, history)
}

// TestChat_UnconfiguredModelReturns503WithReply 降级时 503 + 可见兜底回复
func TestChat_UnconfiguredModelReturns503WithReply(t *testing.T) {
	svc, _ := newTestService(t, newFakeLogRepo())

	resp, err := svc.Chat(context.Background(), &request.ChatRequest{
		UserId:  "visitor-1",
		Message: "when is trash pickup?",
	}, "test-agent")

	require.Error(t, err)
	codeErr, ok := err.(*xerr.CodeError)
	require.True(t, ok)
	assert.Equal(t, xerr.ServiceUnavailable, codeErr.Code)

	require.NotNil(t, resp, "降级响应仍携带内容")
	assert.True(t, resp.Fallback)
	assert.NotEmpty(t, resp.Message)
	assert.Equal(t, "en", resp.Language)
	assert.NotEmpty(t, resp.SessionId)
	// channel 缺省为 web
	require.NotEmpty(t, resp.Sources)
	assert.Equal(t, "/services/trash", resp.Sources[0].Url)
}

// TestFeedback_RoundTrip 用 conversation_id 标记反馈
func TestFeedback_RoundTrip(t *testing.T) {
	logRepo := newFakeLogRepo()
	svc, _ := newTestService(t, logRepo)
	ctx := context.Background()

	logRepo.saved = append(logRepo.saved, &entity.ConversationLog{LogUuid: "known-log"})

	helpful := true
	resp, err := svc.Feedback(ctx, &request.FeedbackRequest{ConversationId: "known-log", Helpful: &helpful})
	require.NoError(t, err)
	assert.True(t, resp.Recorded)
	assert.True(t, logRepo.feedback["known-log"])

	// 未知 conversation_id 返回 404
	_, err = svc.Feedback(ctx, &request.FeedbackRequest{ConversationId: "missing", Helpful: &helpful})
	require.Error(t, err)
	codeErr, ok := err.(*xerr.CodeError)
	require.True(t, ok)
	assert.Equal(t, xerr.NotFound, codeErr.Code)

	// helpful 缺失返回 400
	_, err = svc.Feedback(ctx, &request.FeedbackRequest{ConversationId: "known-log"})
	require.Error(t, err)
}

// TestTranscript_BySessionAndByConversation 流水查询的两种键
func TestTranscript_BySessionAndByConversation(t *testing.T) {
	logRepo := newFakeLogRepo()
	svc, _ := newTestService(t, logRepo)
	ctx := context.Background()

	logRepo.saved = append(logRepo.saved,
		&entity.ConversationLog{LogUuid: "log-1", SessionId: "sess-1", UserMessage: "when is trash pickup?", AssistantMessage: "Weekly.", Language: "en", Sentiment: "neutral"},
		&entity.ConversationLog{LogUuid: "log-2", SessionId: "sess-1", UserMessage: "what about recycling?", AssistantMessage: "Every other week.", Language: "en", Sentiment: "neutral"},
		&entity.ConversationLog{LogUuid: "log-3", SessionId: "sess-2", UserMessage: "hola", AssistantMessage: "Hola.", Language: "es", Sentiment: "neutral"},
	)

	// 按 session_id 查整段，顺序与写入一致
	resp, err := svc.Transcript(ctx, &request.TranscriptRequest{SessionId: "sess-1"})
	require.NoError(t, err)
	assert.Equal(t, 2, resp.Count)
	require.Len(t, resp.Entries, 2)
	assert.Equal(t, "log-1", resp.Entries[0].ConversationId)
	assert.Equal(t, "what about recycling?", resp.Entries[1].UserMessage)

	// 按 conversation_id 查单条
	resp, err = svc.Transcript(ctx, &request.TranscriptRequest{ConversationId: "log-3"})
	require.NoError(t, err)
	assert.Equal(t, 1, resp.Count)
	assert.Equal(t, "sess-2", resp.SessionId)
	assert.Equal(t, "es", resp.Entries[0].Language)
}

// TestTranscript_Errors 未知 conversation_id 404、两键皆缺 400、无存储 503
func TestTranscript_Errors(t *testing.T) {
	svc, _ := newTestService(t, newFakeLogRepo())
	ctx := context.Background()

	_, err := svc.Transcript(ctx, &request.TranscriptRequest{ConversationId: "missing"})
	require.Error(t, err)
	codeErr, ok := err.(*xerr.CodeError)
	require.True(t, ok)
	assert.Equal(t, xerr.NotFound, codeErr.Code)

	_, err = svc.Transcript(ctx, &request.TranscriptRequest{})
	require.Error(t, err)
	codeErr, ok = err.(*xerr.CodeError)
	require.True(t, ok)
	assert.Equal(t, xerr.BadRequest, codeErr.Code)

	noStore, _ := newTestService(t, nil)
	_, err = noStore.Transcript(ctx, &request.TranscriptRequest{SessionId: "sess-1"})
	require.Error(t, err)
	codeErr, ok = err.(*xerr.CodeError)
	require.True(t, ok)
	assert.Equal(t, xerr.ServiceUnavailable, codeErr.Code)
}

// TestClearSession 清除后历史为空
func TestClearSession(t *testing.T) {
	svc, sessionRepo := newTestService(t, newFakeLogRepo())
	ctx := context.Background()

	_, err := svc.Chat(ctx, &request.ChatRequest{UserId: "visitor-1", Message: "hello there"}, "test-agent")
	// 模型未配置，预期 503，但会话已记录
	require.Error(t, err)

	history, err := sessionRepo.History(ctx, sessionEntity.ChannelWeb, "visitor-1")
	require.NoError(t, err)
	require.NotEmpty(t, history)

	resp, err := svc.ClearSession(ctx, &request.ClearSessionRequest{Channel: "web", UserId: "visitor-1"})
	require.NoError(t, err)
	assert.True(t, resp.Cleared)

	history, err = sessionRepo.History(ctx, sessionEntity.ChannelWeb, "visitor-1")
	require.NoError(t, err)
	assert.Empty(t, history)
}
