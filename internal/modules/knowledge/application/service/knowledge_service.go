package service

import (
	"strings"

	"CivicLink/internal/modules/knowledge/application/dto/request"
	"CivicLink/internal/modules/knowledge/application/dto/respond"
	"CivicLink/internal/modules/knowledge/domain/kb"
	"CivicLink/internal/modules/knowledge/infrastructure/snapshot"
	"CivicLink/pkg/xerr"
	"CivicLink/pkg/zlog"

	"go.uber.org/zap"
)

const maxBrowseLimit = 50

// KnowledgeService 知识库查询服务接口
//
// 双模式契约：查询串非空时执行词法检索；为空时返回索引统计
// （栏目列表 + 计数），这是刻意设计的联合返回，不是错误路径
type KnowledgeService interface {
	// Search 词法检索（查询串必须非空）
	Search(req request.KnowledgeSearchRequest) (*respond.KnowledgeSearchRespond, error)
	// Stats 索引统计
	Stats() (*respond.KnowledgeStatsRespond, error)
	// Refresh 重新读取快照文件并原子重载索引
	Refresh() (*respond.KnowledgeRefreshRespond, error)
}

type knowledgeServiceImpl struct {
	index  *kb.Index
	loader *snapshot.Loader
}

// NewKnowledgeService 创建知识库查询服务
func NewKnowledgeService(index *kb.Index, loader *snapshot.Loader) KnowledgeService {
	return &knowledgeServiceImpl{index: index, loader: loader}
}

func (s *knowledgeServiceImpl) Search(req request.KnowledgeSearchRequest) (*respond.KnowledgeSearchRespond, error) {
	query := strings.TrimSpace(req.Query)
	if query == "" {
		return nil, xerr.New(xerr.BadRequest, "query is required")
	}

	limit := req.Limit
	if limit <= 0 {
		limit = kb.DefaultBrowseLimit
	}
	if limit > maxBrowseLimit {
		limit = maxBrowseLimit
	}

	scored := s.index.Search(query, kb.SearchOptions{
		Section: req.Section,
		Limit:   limit,
	})

	results := make([]respond.KnowledgeResultItem, 0, len(scored))
	for _, sd := range scored {
		item := respond.KnowledgeResultItem{
			Id:      sd.Document.Id,
			Title:   sd.Document.Title,
			Section: sd.Document.Section,
			Url:     sd.Document.Url,
			Summary: sd.Document.Summary,
			Score:   sd.Score,
		}
		if req.IncludeContent {
			item.Content = sd.Document.Content
		}
		results = append(results, item)
	}

	return &respond.KnowledgeSearchRespond{
		Query:   query,
		Count:   len(results),
		Results: results,
	}, nil
}

func (s *knowledgeServiceImpl) Stats() (*respond.KnowledgeStatsRespond, error) {
	stats := s.index.Stats()
	return &respond.KnowledgeStatsRespond{
		Stats:       stats,
		Sections:    stats.Sections,
		GeneratedAt: stats.GeneratedAt,
	}, nil
}

func (s *knowledgeServiceImpl) Refresh() (*respond.KnowledgeRefreshRespond, error) {
	if s.loader == nil {
		return nil, xerr.New(xerr.ServiceUnavailable, "knowledge snapshot is not configured")
	}

	docs, generatedAt, err := s.loader.Load()
	if err != nil {
		zlog.Error("knowledge snapshot refresh failed", zap.Error(err))
		return nil, xerr.New(xerr.InternalServerError, "failed to reload knowledge snapshot")
	}

	s.index.Reload(docs, generatedAt)
	zlog.Info("knowledge snapshot reloaded",
		zap.Int("pages", len(docs)),
		zap.Time("generated_at", generatedAt))

	return &respond.KnowledgeRefreshRespond{
		TotalPages:  len(docs),
		GeneratedAt: generatedAt,
	}, nil
}
