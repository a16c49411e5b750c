package synthesize

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/latifnjimoluh/veille/internal/schema"
)

type mockProvider struct {
	response string
	err      error
	prompt   string
}

func (m *mockProvider) Generate(_ context.Context, prompt string, _ int) (string, error) {
	m.prompt = prompt
	return m.response, m.err
}

func (m *mockProvider) IsConfigured() bool { return true }

func items() []schema.Item {
	return []schema.Item{
		{Title: "Go 1.23", URL: "https://go.dev", Description: "Nouveautés du langage", Status: "Pas commencé"},
		{Title: "HTMX en production", URL: "https://htmx.org", Description: "Retour d'expérience", Status: "Pas commencé"},
	}
}

func TestSynthesizeParsesJSONResponse(t *testing.T) {
	resp, _ := json.Marshal(map[string]string{
		"titre":   "Semaine du langage Go",
		"analyse": "## Tendances\n\nGo domine cette semaine.",
	})
	provider := &mockProvider{response: string(resp)}

	s := NewSynthesizer(provider, 0)
	narrative, err := s.Synthesize(context.Background(), items())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !strings.Contains(narrative, "Semaine du langage Go") {
		t.Errorf("expected title in narrative, got %q", narrative)
	}
	if !strings.Contains(narrative, "Go domine cette semaine.") {
		t.Errorf("expected analysis in narrative, got %q", narrative)
	}
	// The whole filtered set goes into the prompt as one JSON blob.
	if !strings.Contains(provider.prompt, "HTMX en production") {
		t.Error("expected all items serialized into the prompt")
	}
}

func TestSynthesizeFallsBackToRawText(t *testing.T) {
	provider := &mockProvider{response: "Une analyse en texte libre, sans JSON."}
	s := NewSynthesizer(provider, 0)

	narrative, err := s.Synthesize(context.Background(), items())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if narrative != "Une analyse en texte libre, sans JSON." {
		t.Errorf("expected raw text fallback, got %q", narrative)
	}
}

func TestSynthesizePropagatesProviderError(t *testing.T) {
	provider := &mockProvider{err: errors.New("quota exceeded")}
	s := NewSynthesizer(provider, 0)

	if _, err := s.Synthesize(context.Background(), items()); err == nil {
		t.Fatal("expected provider error to propagate")
	}
}

func TestSynthesizeWithoutProvider(t *testing.T) {
	s := NewSynthesizer(nil, 0)
	if _, err := s.Synthesize(context.Background(), items()); err == nil {
		t.Fatal("expected error without provider")
	}
}

func TestSynthesizeEmptyResponse(t *testing.T) {
	s := NewSynthesizer(&mockProvider{response: "   "}, 0)
	if _, err := s.Synthesize(context.Background(), items()); err == nil {
		t.Fatal("expected error for empty response")
	}
}
