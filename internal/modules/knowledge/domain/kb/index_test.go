package kb

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestIndex(docs []Document) *Index {
	ix := NewIndex()
	ix.Load(docs, time.Date(2026, 8, 20, 6, 0, 0, 0, time.UTC))
	return ix
}

// TestIndexSearch_TitleFullMatchDominates 标题整串命中权重最高
func TestIndexSearch_TitleFullMatchDominates(t *testing.T) {
	ix := newTestIndex([]Document{
		{Id: "a", Title: "Building Permits", Section: "permits", Content: "apply online"},
		{Id: "b", Title: "Department Directory", Section: "departments", Content: "building permits are handled by development services"},
	})

	results := ix.Search("building permits", SearchOptions{})
	require.Len(t, results, 2)
	assert.Equal(t, "a", results[0].Id)
	// 标题整串 +100，外加两个词各 +20
	assert.GreaterOrEqual(t, results[0].Score, 100)
	assert.Greater(t, results[0].Score, results[1].Score)
}

// TestIndexSearch_ContentOccurrencesCapped 正文出现次数每词封顶计分
func TestIndexSearch_ContentOccurrencesCapped(t *testing.T) {
	many := ""
	for i := 0; i < 30; i++ {
		many += "recycling "
	}
	ix := newTestIndex([]Document{
		{Id: "spam", Title: "page one", Content: many},
		{Id: "normal", Title: "page two", Content: "recycling recycling recycling"},
	})

	results := ix.Search("recycling", SearchOptions{})
	require.Len(t, results, 2)
	// 30 次出现也只按 10 次计：2*10=20，再加整串命中 30
	assert.Equal(t, "spam", results[0].Id)
	assert.Equal(t, 50, results[0].Score)
	assert.Equal(t, 36, results[1].Score)
}

// TestIndexSearch_ZeroScoreExcluded 不相关文档不出现在结果里
func TestIndexSearch_ZeroScoreExcluded(t *testing.T) {
	ix := newTestIndex([]Document{
		{Id: "a", Title: "Water Billing", Content: "pay your water bill"},
		{Id: "b", Title: "Events Calendar", Content: "farmers market every saturday"},
	})

	results := ix.Search("water", SearchOptions{})
	require.Len(t, results, 1)
	assert.Equal(t, "a", results[0].Id)
}

// TestIndexSearch_SectionFilter 栏目过滤先于打分
func TestIndexSearch_SectionFilter(t *testing.T) {
	ix := newTestIndex([]Document{
		{Id: "a", Title: "Parking Payments", Section: "payments", Content: "pay parking tickets"},
		{Id: "b", Title: "Parking Rules", Section: "services", Content: "parking enforcement hours"},
	})

	results := ix.Search("parking", SearchOptions{Section: "payments"})
	require.Len(t, results, 1)
	assert.Equal(t, "a", results[0].Id)

	// 过滤大小写不敏感
	results = ix.Search("parking", SearchOptions{Section: "PAYMENTS"})
	require.Len(t, results, 1)
}

// TestIndexSearch_TieBrokenByIngestionOrder 同分按装载顺序，结果可复现
func TestIndexSearch_TieBrokenByIngestionOrder(t *testing.T) {
	docs := []Document{
		{Id: "first", Title: "Library Hours", Content: "library"},
		{Id: "second", Title: "Library Cards", Content: "library"},
		{Id: "third", Title: "Library Events", Content: "library"},
	}
	ix := newTestIndex(docs)

	for i := 0; i < 5; i++ {
		results := ix.Search("library", SearchOptions{})
		require.Len(t, results, 3)
		assert.Equal(t, "first", results[0].Id)
		assert.Equal(t, "second", results[1].Id)
		assert.Equal(t, "third", results[2].Id)
	}
}

// TestIndexSearch_ShortWordsIgnored 短词只通过整串匹配贡献分数
func TestIndexSearch_ShortWordsIgnored(t *testing.T) {
	ix := newTestIndex([]Document{
		{Id: "a", Title: "Pay a Parking Ticket", Content: "citations can be paid online"},
	})

	// "is" 和 "my" 都短于 3 字符，不参与词匹配
	results := ix.Search("is my", SearchOptions{})
	assert.Empty(t, results)
}

// TestIndexSearch_LimitAndDefault 返回条数受限
func TestIndexSearch_LimitAndDefault(t *testing.T) {
	docs := make([]Document, 0, 8)
	for _, id := range []string{"a", "b", "c", "d", "e", "f", "g", "h"} {
		docs = append(docs, Document{Id: id, Title: "permit " + id, Content: "permit info"})
	}
	ix := newTestIndex(docs)

	assert.Len(t, ix.Search("permit", SearchOptions{}), DefaultSearchLimit)
	assert.Len(t, ix.Search("permit", SearchOptions{Limit: 2}), 2)
	assert.Len(t, ix.Search("permit", SearchOptions{Limit: 100}), 8)
}

// TestIndexSearch_EmptyQuery 空查询不打分
func TestIndexSearch_EmptyQuery(t *testing.T) {
	ix := newTestIndex([]Document{{Id: "a", Title: "Anything", Content: "anything"}})
	assert.Nil(t, ix.Search("", SearchOptions{}))
	assert.Nil(t, ix.Search("   ", SearchOptions{}))
}

// TestIndexSearch_SpanishQuery 西语字符参与词切分
func TestIndexSearch_SpanishQuery(t *testing.T) {
	ix := newTestIndex([]Document{
		{Id: "es", Title: "Recolección de Basura", Content: "la recolección es semanal"},
	})

	results := ix.Search("recolección", SearchOptions{})
	require.Len(t, results, 1)
	assert.Equal(t, "es", results[0].Id)
}

// TestIndexStats 统计模式返回栏目计数
func TestIndexStats(t *testing.T) {
	generatedAt := time.Date(2026, 8, 20, 6, 0, 0, 0, time.UTC)
	ix := NewIndex()
	ix.Load([]Document{
		{Id: "a", Title: "A", Section: "services"},
		{Id: "b", Title: "B", Section: "services"},
		{Id: "c", Title: "C", Section: "permits"},
	}, generatedAt)

	stats := ix.Stats()
	assert.Equal(t, 3, stats.TotalPages)
	assert.Equal(t, 2, stats.BySection["services"])
	assert.Equal(t, 1, stats.BySection["permits"])
	assert.Equal(t, []string{"permits", "services"}, stats.Sections)
	assert.Equal(t, generatedAt, stats.GeneratedAt)
}

// TestIndexReload 整体替换后旧文档不可见
func TestIndexReload(t *testing.T) {
	ix := newTestIndex([]Document{
		{Id: "old", Title: "Old Page", Content: "old content"},
	})
	require.Equal(t, 1, ix.Size())

	ix.Reload([]Document{
		{Id: "new1", Title: "New Page", Content: "new content"},
		{Id: "new2", Title: "Another Page", Content: "more content"},
	}, time.Now())

	assert.Equal(t, 2, ix.Size())
	assert.Empty(t, ix.Search("old", SearchOptions{}))
	assert.Len(t, ix.Search("new", SearchOptions{}), 2)
}

// TestIndexReload_SameCollectionIdempotent 重复载入同一批文档，查询结果不变
func TestIndexReload_SameCollectionIdempotent(t *testing.T) {
	docs := []Document{
		{Id: "trash", Title: "Trash Collection", Section: "services", Content: "weekly trash pickup schedule"},
		{Id: "water", Title: "Water Billing", Section: "services", Content: "pay your water bill online"},
		{Id: "permits", Title: "Building Permits", Section: "permits", Content: "apply for a building permit"},
	}
	ix := newTestIndex(docs)

	first := ix.Search("water bill", SearchOptions{})
	require.NotEmpty(t, first)

	ix.Reload(docs, time.Now())
	second := ix.Search("water bill", SearchOptions{})
	ix.Reload(docs, time.Now())
	third := ix.Search("water bill", SearchOptions{})

	assert.Equal(t, first, second)
	assert.Equal(t, first, third)
	assert.Equal(t, len(docs), ix.Size())
}
