package snapshot

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"CivicLink/internal/modules/knowledge/domain/kb"
)

const (
	defaultMaxContentLength = 5000
	defaultSummaryLength    = 200
)

// pageRecord 快照文件中的单条页面记录（由外部抓取流程导出）
type pageRecord struct {
	Id      string `json:"id"`
	Title   string `json:"title"`
	Section string `json:"section"`
	Url     string `json:"url"`
	Content string `json:"content"`
}

// snapshotFile 快照文件整体结构，兼容裸数组格式
type snapshotFile struct {
	GeneratedAt time.Time    `json:"generatedAt"`
	Pages       []pageRecord `json:"pages"`
}

// Loader 从 JSON 快照文件装载知识库文档
// 入库时正文截断到上限，摘要取正文前缀；整个集合在刷新时整体替换，不做局部更新
type Loader struct {
	path             string
	maxContentLength int
	summaryLength    int
}

func NewLoader(path string, maxContentLength, summaryLength int) *Loader {
	if maxContentLength <= 0 {
		maxContentLength = defaultMaxContentLength
	}
	if summaryLength <= 0 {
		summaryLength = defaultSummaryLength
	}
	return &Loader{
		path:             path,
		maxContentLength: maxContentLength,
		summaryLength:    summaryLength,
	}
}

// Load 读取快照文件并转换为文档集合
func (l *Loader) Load() ([]kb.Document, time.Time, error) {
	raw, err := os.ReadFile(l.path)
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("read knowledge snapshot: %w", err)
	}

	var file snapshotFile
	if err := json.Unmarshal(raw, &file); err != nil {
		// 兼容旧导出格式：顶层就是页面数组
		var pages []pageRecord
		if err2 := json.Unmarshal(raw, &pages); err2 != nil {
			return nil, time.Time{}, fmt.Errorf("parse knowledge snapshot: %w", err)
		}
		file.Pages = pages
	}

	generatedAt := file.GeneratedAt
	if generatedAt.IsZero() {
		generatedAt = time.Now()
	}

	docs := make([]kb.Document, 0, len(file.Pages))
	for _, p := range file.Pages {
		if strings.TrimSpace(p.Id) == "" || strings.TrimSpace(p.Title) == "" {
			continue
		}
		content := truncateRunes(p.Content, l.maxContentLength)
		docs = append(docs, kb.Document{
			Id:      p.Id,
			Title:   p.Title,
			Section: p.Section,
			Url:     p.Url,
			Content: content,
			Summary: truncateRunes(content, l.summaryLength),
		})
	}
	return docs, generatedAt, nil
}

func truncateRunes(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
