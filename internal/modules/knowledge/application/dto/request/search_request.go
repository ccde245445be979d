package request

// KnowledgeSearchRequest 知识库检索请求
type KnowledgeSearchRequest struct {
	Query          string `json:"query" form:"q"`                         // 查询串（空则返回索引统计）
	Section        string `json:"section" form:"section"`                 // 栏目过滤（可选）
	Limit          int    `json:"limit" form:"limit"`                     // 返回条数（浏览默认 10，RAG 默认 5）
	IncludeContent bool   `json:"includeContent" form:"includeContent"`   // 是否返回全文（RAG 路径用，浏览路径省略以免向列表 UI 泄露全文）
}
