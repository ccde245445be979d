package http

import (
	"strconv"
	"strings"

	"CivicLink/internal/modules/knowledge/application/dto/request"
	"CivicLink/internal/modules/knowledge/application/service"
	"CivicLink/pkg/back"
	"CivicLink/pkg/zlog"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// KnowledgeHandler 知识库 HTTP Handler
type KnowledgeHandler struct {
	svc service.KnowledgeService
}

// NewKnowledgeHandler 创建 KnowledgeHandler
func NewKnowledgeHandler(svc service.KnowledgeService) *KnowledgeHandler {
	return &KnowledgeHandler{svc: svc}
}

// Search 知识库检索（双模式）
//
// 路由: GET /knowledge/search
// 查询参数: q, section, limit, includeContent
// q 非空: 返回检索结果列表
// q 为空: 返回索引统计（栏目列表 + 计数）
func (h *KnowledgeHandler) Search(c *gin.Context) {
	query := strings.TrimSpace(c.Query("q"))

	// 空查询模式：返回索引统计而非报错
	if query == "" {
		data, err := h.svc.Stats()
		if err != nil {
			zlog.Error("knowledge stats failed", zap.Error(err))
		}
		back.Result(c, data, err)
		return
	}

	req := request.KnowledgeSearchRequest{
		Query:   query,
		Section: strings.TrimSpace(c.Query("section")),
	}
	if l := c.Query("limit"); l != "" {
		if n, err := strconv.Atoi(l); err == nil && n > 0 {
			req.Limit = n
		}
	}
	if v := c.Query("includeContent"); v == "true" || v == "1" {
		req.IncludeContent = true
	}

	data, err := h.svc.Search(req)
	if err != nil {
		zlog.Error("knowledge search failed", zap.Error(err), zap.String("query", query))
	}
	back.Result(c, data, err)
}

// Refresh 重新装载知识库快照
//
// 路由: POST /knowledge/refresh
func (h *KnowledgeHandler) Refresh(c *gin.Context) {
	data, err := h.svc.Refresh()
	if err != nil {
		zlog.Error("knowledge refresh failed", zap.Error(err))
	}
	back.Result(c, data, err)
}
