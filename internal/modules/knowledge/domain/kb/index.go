package kb

import (
	"sort"
	"strings"
	"sync"
	"time"
)

const (
	// DefaultSearchLimit RAG 上下文检索的默认返回条数
	DefaultSearchLimit = 5
	// DefaultBrowseLimit 浏览接口的默认返回条数
	DefaultBrowseLimit = 10

	scoreTitleFullMatch   = 100 // 标题包含完整查询串
	scoreTitleWordMatch   = 20  // 标题包含单个查询词
	scoreContentWordMatch = 2   // 正文出现一次查询词
	scoreContentFullMatch = 30  // 正文包含完整查询串
	contentMatchCap       = 10  // 每个查询词在正文中最多计 10 次
	minWordLength         = 3   // 短于 3 个字符的词不参与单词打分
)

// SearchOptions 检索选项
type SearchOptions struct {
	Section string // 按栏目过滤（大小写不敏感的精确匹配），空则不过滤
	Limit   int    // 返回条数上限，<=0 时取 DefaultSearchLimit
}

// Stats 索引统计信息（空查询模式返回）
type Stats struct {
	TotalPages  int            `json:"totalPages"`
	BySection   map[string]int `json:"bySection"`
	Sections    []string       `json:"sections"`
	GeneratedAt time.Time      `json:"generatedAt"`
}

// Index 内存词法索引
// 文档集合整体只读，Reload 原子替换（读写锁保证读方看到完整的新旧集合之一）
// 不使用进程级单例，由装配方注入，便于多实例隔离测试
type Index struct {
	mu          sync.RWMutex
	docs        []Document
	generatedAt time.Time
}

func NewIndex() *Index {
	return &Index{}
}

// Load 首次装载文档集合
func (ix *Index) Load(docs []Document, generatedAt time.Time) {
	ix.Reload(docs, generatedAt)
}

// Reload 原子替换整个文档集合，旧集合在替换完成前保持可查
func (ix *Index) Reload(docs []Document, generatedAt time.Time) {
	replacement := make([]Document, len(docs))
	copy(replacement, docs)

	ix.mu.Lock()
	ix.docs = replacement
	ix.generatedAt = generatedAt
	ix.mu.Unlock()
}

// Size 当前文档数
func (ix *Index) Size() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.docs)
}

// Search 词法打分检索
// 打分规则（按文档累加）：
//   - 标题包含完整查询串 +100
//   - 标题包含某个查询词 +20/词
//   - 正文出现某个查询词 +2/次，每词封顶 10 次
//   - 正文包含完整查询串 +30
//
// 0 分文档被排除；按分数降序，同分按文档装载顺序（稳定排序）
func (ix *Index) Search(query string, opts SearchOptions) []ScoredDocument {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return nil
	}

	limit := opts.Limit
	if limit <= 0 {
		limit = DefaultSearchLimit
	}
	section := strings.ToLower(strings.TrimSpace(opts.Section))

	words := queryWords(q)

	ix.mu.RLock()
	docs := ix.docs
	ix.mu.RUnlock()

	scored := make([]ScoredDocument, 0, len(docs))
	for i := range docs {
		doc := docs[i]
		if section != "" && strings.ToLower(doc.Section) != section {
			continue
		}

		score := scoreDocument(doc, q, words)
		if score == 0 {
			continue
		}
		scored = append(scored, ScoredDocument{Document: doc, Score: score})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	if len(scored) > limit {
		scored = scored[:limit]
	}
	return scored
}

// Stats 索引统计（栏目列表 + 计数），用于空查询模式
func (ix *Index) Stats() Stats {
	ix.mu.RLock()
	docs := ix.docs
	generatedAt := ix.generatedAt
	ix.mu.RUnlock()

	bySection := make(map[string]int)
	sections := make([]string, 0)
	for i := range docs {
		s := docs[i].Section
		if _, ok := bySection[s]; !ok {
			sections = append(sections, s)
		}
		bySection[s]++
	}
	sort.Strings(sections)

	return Stats{
		TotalPages:  len(docs),
		BySection:   bySection,
		Sections:    sections,
		GeneratedAt: generatedAt,
	}
}

func scoreDocument(doc Document, query string, words []string) int {
	title := strings.ToLower(doc.Title)
	content := strings.ToLower(doc.Content)

	score := 0
	if strings.Contains(title, query) {
		score += scoreTitleFullMatch
	}
	for _, w := range words {
		if strings.Contains(title, w) {
			score += scoreTitleWordMatch
		}
		if n := strings.Count(content, w); n > 0 {
			if n > contentMatchCap {
				n = contentMatchCap
			}
			score += n * scoreContentWordMatch
		}
	}
	if strings.Contains(content, query) {
		score += scoreContentFullMatch
	}
	return score
}

// queryWords 切分查询词，过滤过短的词（它们只通过整串匹配贡献分数）
func queryWords(query string) []string {
	fields := strings.FieldsFunc(query, func(r rune) bool {
		return !isWordRune(r)
	})
	words := make([]string, 0, len(fields))
	for _, f := range fields {
		if len([]rune(f)) >= minWordLength {
			words = append(words, f)
		}
	}
	return words
}

func isWordRune(r rune) bool {
	if r >= 'a' && r <= 'z' || r >= '0' && r <= '9' {
		return true
	}
	// 西语字符也算词的一部分
	switch r {
	case 'á', 'é', 'í', 'ó', 'ú', 'ü', 'ñ':
		return true
	}
	return false
}
