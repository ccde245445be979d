package prompt

import (
	"strings"
	"testing"

	"CivicLink/internal/modules/knowledge/domain/kb"
	"CivicLink/internal/modules/session/domain/entity"

	"github.com/stretchr/testify/assert"
)

// TestBuildContext_NumberedBlocks 检索结果拼成带编号的块
func TestBuildContext_NumberedBlocks(t *testing.T) {
	results := []kb.ScoredDocument{
		{Document: kb.Document{Title: "Trash Collection", Content: "weekly pickup"}, Score: 52},
		{Document: kb.Document{Title: "Water Billing", Content: "monthly bills"}, Score: 22},
	}

	out := BuildContext(results)
	assert.Contains(t, out, "[Source 1: Trash Collection]")
	assert.Contains(t, out, "weekly pickup")
	assert.Contains(t, out, "[Source 2: Water Billing]")
	assert.Contains(t, out, "---")
	// 顺序与输入一致
	assert.Less(t, strings.Index(out, "Source 1"), strings.Index(out, "Source 2"))
}

// TestBuildContext_EmptyUsesPlaceholder 零结果给固定占位串
func TestBuildContext_EmptyUsesPlaceholder(t *testing.T) {
	assert.Equal(t, NoContextPlaceholder, BuildContext(nil))
	assert.Equal(t, NoContextPlaceholder, BuildContext([]kb.ScoredDocument{}))
}

// TestSystemPrompt_LanguageSelection 语言决定模板和联系方式块
func TestSystemPrompt_LanguageSelection(t *testing.T) {
	en := SystemPrompt(entity.LanguageEN, "ctx", false)
	assert.Contains(t, en, "Always respond in English")
	assert.Contains(t, en, "City Hall: 200 Civic Center Plaza")
	assert.Contains(t, en, "ctx")
	assert.NotContains(t, en, "appears frustrated")

	es := SystemPrompt(entity.LanguageES, "ctx", false)
	assert.Contains(t, es, "Responde siempre en español")
	assert.Contains(t, es, "Ayuntamiento")
}

// TestSystemPrompt_EscalationNote 转人工提醒按语言追加
func TestSystemPrompt_EscalationNote(t *testing.T) {
	en := SystemPrompt(entity.LanguageEN, "ctx", true)
	assert.Contains(t, en, "appears frustrated")

	es := SystemPrompt(entity.LanguageES, "ctx", true)
	assert.Contains(t, es, "parece frustrado")
}

// TestFallback_PerLanguage 兜底回复都带总机号码
func TestFallback_PerLanguage(t *testing.T) {
	assert.Contains(t, Fallback(entity.LanguageEN), "(555) 310-4400")
	assert.Contains(t, Fallback(entity.LanguageES), "(555) 310-4400")
	assert.NotEqual(t, Fallback(entity.LanguageEN), Fallback(entity.LanguageES))
}
