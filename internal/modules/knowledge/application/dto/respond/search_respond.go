package respond

import (
	"time"

	"CivicLink/internal/modules/knowledge/domain/kb"
)

// KnowledgeResultItem 单条检索结果
type KnowledgeResultItem struct {
	Id      string `json:"id"`
	Title   string `json:"title"`
	Section string `json:"section"`
	Url     string `json:"url"`
	Summary string `json:"summary"`
	Score   int    `json:"score"`
	Content string `json:"content,omitempty"` // 仅 includeContent=true 时返回
}

// KnowledgeSearchRespond 检索模式响应
type KnowledgeSearchRespond struct {
	Query   string                `json:"query"`
	Count   int                   `json:"count"`
	Results []KnowledgeResultItem `json:"results"`
}

// KnowledgeStatsRespond 统计模式响应（空查询时返回）
type KnowledgeStatsRespond struct {
	Stats       kb.Stats  `json:"stats"`
	Sections    []string  `json:"sections"`
	GeneratedAt time.Time `json:"generatedAt"`
}

// KnowledgeRefreshRespond 快照刷新响应
type KnowledgeRefreshRespond struct {
	TotalPages  int       `json:"totalPages"`
	GeneratedAt time.Time `json:"generatedAt"`
}
