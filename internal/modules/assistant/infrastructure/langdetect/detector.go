package langdetect

import (
	"regexp"
	"strings"

	"CivicLink/internal/modules/session/domain/entity"
)

// 两组固定模式：西语功能词/变音符号 vs 英语功能词
// 每个模式只判存在，不计出现次数，对各自组最多贡献 1 分
var spanishPatterns = []*regexp.Regexp{
	regexp.MustCompile(`[áéíóúñü¿¡]`),
	regexp.MustCompile(`\b(el|la|los|las|un|una|unos|unas)\b`),
	regexp.MustCompile(`\b(es|está|están|estoy|soy|eres|somos)\b`),
	regexp.MustCompile(`\b(qué|cómo|dónde|cuándo|cuál|quién|por qué)\b`),
	regexp.MustCompile(`\b(de|del|en|con|por|para|sobre)\b`),
	regexp.MustCompile(`\b(horario|ayuda|necesito|quiero|gracias|hola|buenos|buenas)\b`),
	regexp.MustCompile(`\b(ciudad|alcaldía|oficina|servicio|servicios|pago|impuestos)\b`),
	regexp.MustCompile(`\b(no|sí|también|pero|porque|cuando|donde)\b`),
}

var englishPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\b(the|a|an|this|that|these|those)\b`),
	regexp.MustCompile(`\b(is|are|am|was|were|be|been)\b`),
	regexp.MustCompile(`\b(what|how|where|when|which|who|why)\b`),
	regexp.MustCompile(`\b(of|in|on|with|for|about|from)\b`),
	regexp.MustCompile(`\b(hours|help|need|want|thanks|thank|hello|please)\b`),
	regexp.MustCompile(`\b(city|hall|office|service|services|payment|taxes)\b`),
	regexp.MustCompile(`\b(can|could|would|should|will|do|does)\b`),
	regexp.MustCompile(`\b(not|yes|also|but|because|and|or)\b`),
}

// Detect 判别短文本语言，返回 en 或 es
// 统计两组命中的模式个数，仅当西语严格多于英语时返回 es；
// 平局（含双零）与无命中一律回落到 en——下游的提示词与语音选择依赖这一规则，
// 空串返回 en，没有错误路径
func Detect(text string) entity.Language {
	lower := strings.ToLower(text)

	spanishScore := 0
	for _, p := range spanishPatterns {
		if p.MatchString(lower) {
			spanishScore++
		}
	}

	englishScore := 0
	for _, p := range englishPatterns {
		if p.MatchString(lower) {
			englishScore++
		}
	}

	if spanishScore > englishScore {
		return entity.LanguageES
	}
	return entity.LanguageEN
}
