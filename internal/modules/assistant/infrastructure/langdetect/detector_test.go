package langdetect

import (
	"testing"

	"CivicLink/internal/modules/session/domain/entity"

	"github.com/stretchr/testify/assert"
)

// TestDetect_Spanish 典型西语问句
func TestDetect_Spanish(t *testing.T) {
	cases := []string{
		"¿Cuándo recogen la basura en mi calle?",
		"necesito ayuda con el pago de impuestos",
		"hola, quiero información sobre los servicios de la ciudad",
		"gracias por la ayuda con mi permiso",
	}
	for _, text := range cases {
		assert.Equal(t, entity.LanguageES, Detect(text), "text: %s", text)
	}
}

// TestDetect_English 典型英语问句
func TestDetect_English(t *testing.T) {
	cases := []string{
		"when is trash pickup on my street?",
		"i need help with paying my water bill",
		"what are the hours for city hall?",
		"thanks for the help with my permit",
	}
	for _, text := range cases {
		assert.Equal(t, entity.LanguageEN, Detect(text), "text: %s", text)
	}
}

// TestDetect_TieDefaultsToEnglish 平局与无命中一律返回 en
func TestDetect_TieDefaultsToEnglish(t *testing.T) {
	assert.Equal(t, entity.LanguageEN, Detect(""))
	assert.Equal(t, entity.LanguageEN, Detect("12345"))
	assert.Equal(t, entity.LanguageEN, Detect("xyzzy"))
}

// TestDetect_CaseInsensitive 大写输入不影响判别
func TestDetect_CaseInsensitive(t *testing.T) {
	assert.Equal(t, entity.LanguageES, Detect("NECESITO AYUDA CON LOS IMPUESTOS"))
	assert.Equal(t, entity.LanguageEN, Detect("WHAT ARE THE HOURS FOR CITY HALL"))
}

// TestDetect_MixedLeansMajority 混合文本按命中多的一侧
func TestDetect_MixedLeansMajority(t *testing.T) {
	// 英语为主，夹一个西语词
	assert.Equal(t, entity.LanguageEN, Detect("what is the horario for city hall?"))
}
