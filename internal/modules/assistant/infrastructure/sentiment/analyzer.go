package sentiment

import (
	"strings"
)

// Category 情绪类别，四值之一
type Category string

const (
	CategoryPositive Category = "positive"
	CategoryNeutral  Category = "neutral"
	CategoryNegative Category = "negative"
	CategoryUrgent   Category = "urgent"
)

// Info 情绪分析结果，内嵌在对话日志里，不单独持久化
type Info struct {
	Category Category `json:"category"`
	Score    float64  `json:"score"`
}

// ShouldEscalate negative 和 urgent 触发转人工，positive/neutral 永不触发
func (i Info) ShouldEscalate() bool {
	return i.Category == CategoryNegative || i.Category == CategoryUrgent
}

// 双语关键词表。urgent 命中即定类；否则按 negative/positive 计数多者定类，平局 neutral
var urgentKeywords = []string{
	"emergency", "urgent", "immediately", "right now", "danger", "dangerous",
	"fire", "flood", "flooding", "gas leak", "power line", "911", "injured", "hurt",
	"emergencia", "urgente", "inmediatamente", "ahora mismo", "peligro", "peligroso",
	"incendio", "inundación", "fuga de gas", "herido",
}

var negativeKeywords = []string{
	"angry", "furious", "frustrated", "frustrating", "terrible", "awful", "horrible",
	"worst", "unacceptable", "disappointed", "complaint", "complain", "ridiculous",
	"useless", "broken", "never works", "fed up", "sick of",
	"enojado", "enojada", "furioso", "frustrado", "terrible", "horrible",
	"pésimo", "inaceptable", "decepcionado", "queja", "quejar", "ridículo", "inútil",
	"harto", "harta",
}

var positiveKeywords = []string{
	"thanks", "thank you", "great", "excellent", "awesome", "wonderful", "helpful",
	"appreciate", "perfect", "love",
	"gracias", "excelente", "genial", "maravilloso", "perfecto", "amable", "agradezco",
}

// Analyze 对单条消息做关键词情绪打分
// 只看当前消息不看历史；类别恒为四值之一
func Analyze(text string) Info {
	lower := strings.ToLower(text)

	for _, kw := range urgentKeywords {
		if strings.Contains(lower, kw) {
			return Info{Category: CategoryUrgent, Score: 1.0}
		}
	}

	negatives := countHits(lower, negativeKeywords)
	positives := countHits(lower, positiveKeywords)

	switch {
	case negatives > positives:
		return Info{Category: CategoryNegative, Score: -float64(negatives-positives) / float64(negatives+1)}
	case positives > negatives:
		return Info{Category: CategoryPositive, Score: float64(positives-negatives) / float64(positives+1)}
	default:
		return Info{Category: CategoryNeutral, Score: 0}
	}
}

func countHits(text string, keywords []string) int {
	n := 0
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			n++
		}
	}
	return n
}
