package http

import (
	"context"
	"time"

	"CivicLink/internal/config"
	"CivicLink/internal/initial"
	assistantService "CivicLink/internal/modules/assistant/application/service"
	"CivicLink/internal/modules/assistant/infrastructure/audit"
	"CivicLink/internal/modules/assistant/infrastructure/llm"
	assistantPersistence "CivicLink/internal/modules/assistant/infrastructure/persistence"
	"CivicLink/internal/modules/assistant/infrastructure/pipeline"
	assistantHandler "CivicLink/internal/modules/assistant/interface/http"
	channelsHandler "CivicLink/internal/modules/channels/interface/http"
	"CivicLink/internal/modules/knowledge/application/service"
	"CivicLink/internal/modules/knowledge/domain/kb"
	"CivicLink/internal/modules/knowledge/infrastructure/snapshot"
	knowledgeHandler "CivicLink/internal/modules/knowledge/interface/http"
	"CivicLink/internal/modules/session/domain/entity"
	sessionRepository "CivicLink/internal/modules/session/domain/repository"
	sessionPersistence "CivicLink/internal/modules/session/infrastructure/persistence"
	"CivicLink/pkg/redis"
	"CivicLink/pkg/ssl"
	"CivicLink/pkg/ws"
	"CivicLink/pkg/zlog"

	cors "github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

var GE *gin.Engine

func init() {
	conf := config.GetConfig()

	GE = gin.Default()
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{"*"}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization"}
	GE.Use(cors.New(corsConfig))
	GE.Use(ssl.TlsHandler(conf.MainConfig.Host, conf.MainConfig.Port))

	wsHub := ws.NewHub()

	// 知识库：启动时装载快照
	index := kb.NewIndex()
	loader := snapshot.NewLoader(conf.KnowledgeConfig.SnapshotPath,
		conf.KnowledgeConfig.MaxContentLength, conf.KnowledgeConfig.SummaryLength)
	docs, generatedAt, err := loader.Load()
	if err != nil {
		zlog.Warn("知识库快照装载失败，索引为空", zap.Error(err))
	} else {
		index.Load(docs, generatedAt)
		zlog.Info("知识库快照装载完成", zap.Int("documents", len(docs)))
	}

	// 会话存储：Redis 可用时优先，否则内存实现
	timeouts := timeoutsFromConfig(conf)
	var sessionRepo sessionRepository.SessionRepository
	if redis.IsConnected() {
		sessionRepo = sessionPersistence.NewRedisSessionRepository(timeouts)
		zlog.Info("会话存储使用 Redis")
	} else {
		sessionRepo = sessionPersistence.NewMemorySessionRepository(timeouts)
		zlog.Info("会话存储使用内存实现")
	}

	// LLM：凭证缺失时降级运行
	chatModel, chatMeta, err := llm.NewChatModelFromConfig(context.Background(), conf)
	if err != nil {
		zlog.Warn("ChatModel 未就绪，对话将返回降级回复", zap.Error(err))
	} else {
		zlog.Info("ChatModel 就绪",
			zap.String("provider", chatMeta.Provider),
			zap.String("model", chatMeta.Model))
	}

	// 审计：落库 + Kafka 广播，缺哪个降级哪个
	logRepo := assistantPersistence.NewConversationLogRepositoryOrNil(initial.GormDB)
	recorder := audit.NewRecorder(logRepo, initial.KafkaPublisher, conf.KafkaConfig.AuditTopic)

	pipe, err := pipeline.NewConversationPipeline(sessionRepo, index, chatModel, recorder)
	if err != nil {
		zlog.Fatal("构建对话 Pipeline 失败: " + err.Error())
	}

	knowledgeSvc := service.NewKnowledgeService(index, loader)
	conversationSvc := assistantService.NewConversationService(pipe, sessionRepo, logRepo)

	knowledgeH := knowledgeHandler.NewKnowledgeHandler(knowledgeSvc)
	chatH := assistantHandler.NewChatHandler(conversationSvc)
	wsH := assistantHandler.NewWsHandler(wsHub, conversationSvc)
	smsH := channelsHandler.NewSmsHandler(conversationSvc)
	ivrH := channelsHandler.NewIvrHandler(conversationSvc)
	socialH := channelsHandler.NewSocialHandler(conversationSvc)

	GE.POST("/chat", chatH.Chat)
	GE.POST("/chat/feedback", chatH.Feedback)
	GE.POST("/chat/clearSession", chatH.ClearSession)
	GE.GET("/chat/transcript", chatH.Transcript)
	GE.GET("/ws/chat", wsH.Connect)

	GE.GET("/knowledge/search", knowledgeH.Search)
	GE.POST("/knowledge/refresh", knowledgeH.Refresh)

	GE.POST("/channels/sms/inbound", smsH.Inbound)
	GE.POST("/channels/ivr/inbound", ivrH.Inbound)
	GE.POST("/channels/social/inbound", socialH.Inbound)
}

// timeoutsFromConfig 渠道超时表，未配置的渠道用缺省值
func timeoutsFromConfig(conf *config.Config) entity.TimeoutTable {
	t := entity.DefaultTimeouts()
	if conf.SessionConfig.WebTimeoutMinutes > 0 {
		t[entity.ChannelWeb] = time.Duration(conf.SessionConfig.WebTimeoutMinutes) * time.Minute
	}
	if conf.SessionConfig.IvrTimeoutMinutes > 0 {
		t[entity.ChannelIVR] = time.Duration(conf.SessionConfig.IvrTimeoutMinutes) * time.Minute
	}
	if conf.SessionConfig.MessagingTimeoutHours > 0 {
		d := time.Duration(conf.SessionConfig.MessagingTimeoutHours) * time.Hour
		t[entity.ChannelSMS] = d
		t[entity.ChannelFacebook] = d
		t[entity.ChannelInstagram] = d
		t[entity.ChannelWhatsApp] = d
	}
	return t
}
