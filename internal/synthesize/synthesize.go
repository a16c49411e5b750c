// Package synthesize produces one holistic narrative for a whole
// filtered set of items, used by the batch variant instead of
// per-item enrichment.
package synthesize

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/latifnjimoluh/veille/internal/llm"
	"github.com/latifnjimoluh/veille/internal/schema"
)

const synthesisPrompt = `Tu analyses la liste d'articles d'une veille technologique pour une équipe de développement.

Voici les articles au format JSON :

%s

Rédige une analyse globale en français : les tendances qui ressortent, les articles à lire en priorité et pourquoi, et ce que l'équipe devrait tester. Utilise du markdown (titres ##, listes, gras).

Réponds uniquement avec ce JSON :
{
    "titre": "Un titre de 5 à 8 mots pour la synthèse",
    "analyse": "Ton analyse en markdown ici."
}`

// Synthesizer produces the batch narrative.
type Synthesizer struct {
	provider  llm.Provider
	maxTokens int
}

// NewSynthesizer creates a synthesizer.
func NewSynthesizer(provider llm.Provider, maxTokens int) *Synthesizer {
	if maxTokens == 0 {
		maxTokens = 1024
	}
	return &Synthesizer{provider: provider, maxTokens: maxTokens}
}

// Synthesize serializes the items to JSON, requests a single
// completion, and returns the narrative markdown. Unlike per-item
// enrichment, a provider failure here propagates to the caller.
func (s *Synthesizer) Synthesize(ctx context.Context, items []schema.Item) (string, error) {
	if s.provider == nil {
		return "", fmt.Errorf("no LLM provider available for synthesis")
	}

	payload, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshaling items: %w", err)
	}

	prompt := fmt.Sprintf(synthesisPrompt, string(payload))
	responseText, err := s.provider.Generate(ctx, prompt, s.maxTokens)
	if err != nil {
		return "", fmt.Errorf("generating synthesis: %w", err)
	}

	parsed := llm.ParseJSONResponse(responseText)
	if parsed == nil {
		// The model ignored the JSON instruction; use the raw text.
		narrative := strings.TrimSpace(responseText)
		if narrative == "" {
			return "", fmt.Errorf("empty synthesis response")
		}
		return narrative, nil
	}

	title := getStr(parsed, "titre", "")
	analysis := getStr(parsed, "analyse", "")
	if analysis == "" {
		return "", fmt.Errorf("synthesis response missing analysis")
	}
	if title != "" {
		return "## " + title + "\n\n" + analysis, nil
	}
	return analysis, nil
}

func getStr(m map[string]any, key, fallback string) string {
	if v, ok := m[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return fallback
}
