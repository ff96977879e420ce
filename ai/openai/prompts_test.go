package openai

import (
	"strings"
	"testing"

	"github.com/quellwerk/concierge/ai"
	"github.com/stretchr/testify/assert"
)

func TestBuildSystemPrompt(t *testing.T) {
	req := ai.CompletionRequest{
		BrandName:      "Heinrich Heine GmbH",
		BrandVoice:     "herzlich und verbindlich",
		SupportContact: "service@heine.example",
		Language:       "de",
	}

	prompt := buildSystemPrompt(req)

	assert.Contains(t, prompt, "Heinrich Heine GmbH")
	assert.Contains(t, prompt, "herzlich und verbindlich")
	assert.Contains(t, prompt, "service@heine.example")
}

func TestBuildSystemPrompt_Defaults(t *testing.T) {
	prompt := buildSystemPrompt(ai.CompletionRequest{BrandName: "Acme"})

	assert.Contains(t, prompt, "freundlich und hilfsbereit")
	assert.Contains(t, prompt, "den Kundenservice")
}

func TestBuildUserPrompt(t *testing.T) {
	req := ai.CompletionRequest{
		Message: "Wo ist meine Bestellung?",
		Context: []string{
			"Lieferzeiten betragen 2-4 Werktage.",
			"Sendungsverfolgung unter heine.example/tracking.",
		},
	}

	prompt := buildUserPrompt(req)

	assert.True(t, strings.HasPrefix(prompt, contextHeader))
	assert.Contains(t, prompt, "[1] Lieferzeiten betragen 2-4 Werktage.")
	assert.Contains(t, prompt, "[2] Sendungsverfolgung")
	assert.Contains(t, prompt, "Kundenanfrage: Wo ist meine Bestellung?")
}

func TestBuildUserPrompt_NoContext(t *testing.T) {
	prompt := buildUserPrompt(ai.CompletionRequest{Message: "Hallo"})
	assert.Equal(t, "Hallo", prompt)
}
