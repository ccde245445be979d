package prompt

import (
	"fmt"
	"strings"

	"CivicLink/internal/modules/knowledge/domain/kb"
	"CivicLink/internal/modules/session/domain/entity"
)

// 固定联系方式，两种语言的模板共用
const contactBlockEN = `City Hall: 200 Civic Center Plaza, Monday-Friday 8:00 AM - 5:00 PM
Main line: (555) 310-4400
Police non-emergency: (555) 310-4490
Emergencies: always call 911`

const contactBlockES = `Ayuntamiento: 200 Civic Center Plaza, lunes a viernes de 8:00 AM a 5:00 PM
Línea principal: (555) 310-4400
Policía (no emergencias): (555) 310-4490
Emergencias: llame siempre al 911`

const systemTemplateEN = `You are the virtual assistant for the City's official website. You help residents with information about city services, events, permits, payments and departments.

Instructions:
1. Always respond in English.
2. Be helpful, concise and courteous.
3. Base your answers on the knowledge context provided below. Do not invent city policies.
4. If you are not sure which department handles a request, suggest the most likely department and the main line.
5. For any emergency, always direct the resident to call 911 immediately.

Contact information:
%s

Knowledge context:
%s`

const systemTemplateES = `Eres el asistente virtual del sitio web oficial de la Ciudad. Ayudas a los residentes con información sobre servicios municipales, eventos, permisos, pagos y departamentos.

Instrucciones:
1. Responde siempre en español.
2. Sé útil, conciso y cortés.
3. Basa tus respuestas en el contexto de conocimiento proporcionado abajo. No inventes políticas municipales.
4. Si no estás seguro de qué departamento atiende una solicitud, sugiere el departamento más probable y la línea principal.
5. Ante cualquier emergencia, indica siempre llamar al 911 de inmediato.

Información de contacto:
%s

Contexto de conocimiento:
%s`

// 情绪为 negative/urgent 时追加的提醒句
const escalationNoteEN = `
Note: the resident appears frustrated or reports something urgent. Acknowledge their concern, be especially empathetic, and let them know a city representative can follow up with them.`

const escalationNoteES = `
Nota: el residente parece frustrado o reporta algo urgente. Reconoce su preocupación, sé especialmente empático e infórmale que un representante de la ciudad puede darle seguimiento.`

// NoContextPlaceholder 检索零结果时填入上下文位的固定占位串
const NoContextPlaceholder = "No relevant information was found in the city knowledge base for this question."

// LLM 调用失败或超时的兜底回复
const fallbackEN = "I'm sorry, I'm having trouble answering right now. Please try again in a moment, or call City Hall at (555) 310-4400 for assistance."

const fallbackES = "Lo siento, estoy teniendo problemas para responder en este momento. Inténtelo de nuevo en un momento o llame al Ayuntamiento al (555) 310-4400 para recibir ayuda."

// contextSeparator 上下文块之间的分隔行
const contextSeparator = "---"

// BuildContext 把排好序的检索结果拼成带编号的上下文串
// 零结果时返回固定占位串
func BuildContext(results []kb.ScoredDocument) string {
	if len(results) == 0 {
		return NoContextPlaceholder
	}
	var sb strings.Builder
	for i, r := range results {
		if i > 0 {
			sb.WriteString(contextSeparator)
			sb.WriteString("\n")
		}
		sb.WriteString(fmt.Sprintf("[Source %d: %s]\n%s\n", i+1, r.Document.Title, r.Document.Content))
	}
	return sb.String()
}

// SystemPrompt 按语言选择模板并插入上下文，必要时追加转人工提醒
func SystemPrompt(language entity.Language, contextStr string, escalationAware bool) string {
	var out string
	if language == entity.LanguageES {
		out = fmt.Sprintf(systemTemplateES, contactBlockES, contextStr)
		if escalationAware {
			out += escalationNoteES
		}
		return out
	}
	out = fmt.Sprintf(systemTemplateEN, contactBlockEN, contextStr)
	if escalationAware {
		out += escalationNoteEN
	}
	return out
}

// Fallback 语言对应的兜底回复
func Fallback(language entity.Language) string {
	if language == entity.LanguageES {
		return fallbackES
	}
	return fallbackEN
}
