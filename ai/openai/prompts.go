package openai

import (
	"fmt"
	"strings"

	"github.com/quellwerk/concierge/ai"
)

const systemPromptTemplate = `Du bist der KI-Kundenservice-Assistent für %s.

Wichtige Richtlinien:
- Antworte immer freundlich und professionell im Stil von: %s
- Verwende ausschließlich Informationen aus den bereitgestellten Wissensauszügen
- Wenn die Auszüge eine Frage nicht beantworten, sage das ehrlich und verweise auf %s
- Erfinde keine Bestellnummern, Preise oder Lieferzeiten
- Antworte in der Sprache %s, es sei denn, der Kunde schreibt in einer anderen Sprache

Halte Antworten kurz und präzise.`

const contextHeader = "Wissensauszüge:"

// buildSystemPrompt renders the brand-specific system prompt for a request.
func buildSystemPrompt(req ai.CompletionRequest) string {
	voice := req.BrandVoice
	if voice == "" {
		voice = "freundlich und hilfsbereit"
	}
	contact := req.SupportContact
	if contact == "" {
		contact = "den Kundenservice"
	}
	language := req.Language
	if language == "" {
		language = "de"
	}
	return fmt.Sprintf(systemPromptTemplate, req.BrandName, voice, contact, language)
}

// buildUserPrompt renders the final user turn: retrieved context followed by
// the customer message. With no context the message is passed through as-is so
// the model answers ungrounded (the orchestrator lowers confidence for that).
func buildUserPrompt(req ai.CompletionRequest) string {
	if len(req.Context) == 0 {
		return req.Message
	}

	var b strings.Builder
	b.WriteString(contextHeader)
	b.WriteString("\n")
	for i, passage := range req.Context {
		b.WriteString(fmt.Sprintf("[%d] %s\n", i+1, passage))
	}
	b.WriteString("\nKundenanfrage: ")
	b.WriteString(req.Message)
	return b.String()
}
