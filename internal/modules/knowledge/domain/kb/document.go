package kb

// Document 知识库文档（抓取的城市官网页面，加载后只读）
type Document struct {
	Id      string `json:"id"`      // 唯一 slug
	Title   string `json:"title"`   // 页面标题
	Section string `json:"section"` // 栏目分类（如 City Services / Events / Parks & Recreation）
	Url     string `json:"url"`     // 源页面路径
	Content string `json:"content"` // 正文（入库时截断到上限）
	Summary string `json:"summary"` // 正文前缀摘要
}

// ScoredDocument 单次查询的打分结果，不持久化
type ScoredDocument struct {
	Document `json:"document"`
	Score    int `json:"score"`
}

// SourceRef 回答溯源信息（对外只暴露标题与链接）
type SourceRef struct {
	Title string `json:"title"`
	Url   string `json:"url"`
}
