package enrich

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"unicode/utf8"

	"github.com/latifnjimoluh/veille/internal/schema"
)

// mockProvider implements llm.Provider for testing.
type mockProvider struct {
	response string
	err      error
}

func (m *mockProvider) Generate(_ context.Context, _ string, _ int) (string, error) {
	return m.response, m.err
}

func (m *mockProvider) IsConfigured() bool { return true }

// mockPatcher records UpdatePage calls and can fail for chosen pages.
type mockPatcher struct {
	mu      sync.Mutex
	patched map[string]map[string]any
	failFor map[string]bool
}

func newMockPatcher() *mockPatcher {
	return &mockPatcher{patched: make(map[string]map[string]any), failFor: make(map[string]bool)}
}

func (m *mockPatcher) UpdatePage(_ context.Context, pageID string, properties map[string]any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failFor[pageID] {
		return errors.New("patch rejected")
	}
	m.patched[pageID] = properties
	return nil
}

func item(pageID, title string) schema.Item {
	return schema.Item{PageID: pageID, Title: title, URL: "https://example.com/" + pageID, Description: "desc"}
}

func TestSummarizeAppendsReadMore(t *testing.T) {
	e := NewEnricher(&mockProvider{response: "Un résumé utile."}, newMockPatcher(), 0)
	got := e.Summarize(context.Background(), item("p1", "Titre"))

	if !strings.HasPrefix(got, "Un résumé utile.") {
		t.Errorf("unexpected summary %q", got)
	}
	if !strings.Contains(got, "Lisez l'article complet ici : https://example.com/p1") {
		t.Errorf("expected read-more suffix, got %q", got)
	}
}

func TestSummarizeFallbackOnError(t *testing.T) {
	e := NewEnricher(&mockProvider{err: errors.New("upstream down")}, newMockPatcher(), 0)
	got := e.Summarize(context.Background(), item("p1", "Titre"))

	if got != SummaryFallback {
		t.Errorf("expected %q, got %q", SummaryFallback, got)
	}
}

func TestSummarizeFallbackWithoutProvider(t *testing.T) {
	e := NewEnricher(nil, newMockPatcher(), 0)
	if got := e.Summarize(context.Background(), item("p1", "Titre")); got != SummaryFallback {
		t.Errorf("expected %q, got %q", SummaryFallback, got)
	}
}

func TestClassifyTrimsResponse(t *testing.T) {
	e := NewEnricher(&mockProvider{response: "  Cybersécurité \n"}, newMockPatcher(), 0)
	if got := e.Classify(context.Background(), item("p1", "Titre")); got != "Cybersécurité" {
		t.Errorf("expected 'Cybersécurité', got %q", got)
	}
}

func TestClassifyFallbackOnError(t *testing.T) {
	e := NewEnricher(&mockProvider{err: errors.New("upstream down")}, newMockPatcher(), 0)
	if got := e.Classify(context.Background(), item("p1", "Titre")); got != CategoryFallback {
		t.Errorf("expected %q, got %q", CategoryFallback, got)
	}
}

func TestEnrichAllPatchesEveryItem(t *testing.T) {
	patcher := newMockPatcher()
	e := NewEnricher(&mockProvider{response: "Résumé."}, patcher, 0)

	items := []schema.Item{item("p1", "A"), item("p2", "B"), item("p3", "C")}
	result := e.EnrichAll(context.Background(), schema.Techno, items)

	if len(result.Items) != 3 {
		t.Fatalf("expected 3 items, got %d", len(result.Items))
	}
	if result.PatchFailures != 0 {
		t.Errorf("expected no patch failures, got %d", result.PatchFailures)
	}
	// Output order matches input order regardless of completion order.
	for i, title := range []string{"A", "B", "C"} {
		if result.Items[i].Title != title {
			t.Errorf("item %d: expected title %q, got %q", i, title, result.Items[i].Title)
		}
	}
	if len(patcher.patched) != 3 {
		t.Errorf("expected 3 patches, got %d", len(patcher.patched))
	}

	props := patcher.patched["p1"]
	if _, ok := props[schema.Techno.Fields.Status]; !ok {
		t.Error("expected status in patch payload")
	}
	if _, ok := props[schema.Techno.Fields.Category]; !ok {
		t.Error("expected category in patch payload")
	}
}

func TestEnrichAllToleratesPatchFailure(t *testing.T) {
	patcher := newMockPatcher()
	patcher.failFor["p2"] = true
	e := NewEnricher(&mockProvider{response: "Résumé."}, patcher, 0)

	items := []schema.Item{item("p1", "A"), item("p2", "B"), item("p3", "C")}
	result := e.EnrichAll(context.Background(), schema.Techno, items)

	if result.PatchFailures != 1 {
		t.Errorf("expected 1 patch failure, got %d", result.PatchFailures)
	}
	if len(result.Items) != 3 {
		t.Errorf("expected all items despite the failed patch, got %d", len(result.Items))
	}
	// The failed item still carries its enrichment.
	if result.Items[1].Summary == "" || result.Items[1].Category == "" {
		t.Error("expected enrichment on the item whose patch failed")
	}
	if len(patcher.patched) != 2 {
		t.Errorf("expected 2 successful patches, got %d", len(patcher.patched))
	}
}

func TestEnrichAllSetsDoneStatus(t *testing.T) {
	e := NewEnricher(&mockProvider{response: "Résumé."}, newMockPatcher(), 0)
	result := e.EnrichAll(context.Background(), schema.Radar, []schema.Item{item("p1", "A")})

	if result.Items[0].Status != schema.Radar.DoneStatus {
		t.Errorf("expected status %q, got %q", schema.Radar.DoneStatus, result.Items[0].Status)
	}
}

func TestPatchPropertiesTruncatesComment(t *testing.T) {
	it := item("p1", "A")
	it.Comment = strings.Repeat("x", 3000)
	props := PatchProperties(schema.Techno, it)

	rt := props[schema.Techno.Fields.Comment].(map[string]any)["rich_text"].([]map[string]any)
	content := rt[0]["text"].(map[string]string)["content"]
	if len(content) != 2000 {
		t.Errorf("expected comment truncated to 2000, got %d", len(content))
	}
}

func TestPatchPropertiesTruncatesOnRuneBoundary(t *testing.T) {
	it := item("p1", "A")
	// Byte 2000 lands inside a two-byte "é".
	it.Comment = strings.Repeat("x", 1999) + strings.Repeat("é", 100)
	props := PatchProperties(schema.Techno, it)

	rt := props[schema.Techno.Fields.Comment].(map[string]any)["rich_text"].([]map[string]any)
	content := rt[0]["text"].(map[string]string)["content"]
	if !utf8.ValidString(content) {
		t.Fatal("truncated comment is not valid UTF-8")
	}
	if len(content) != 1999 {
		t.Errorf("expected the split rune dropped entirely, got %d bytes", len(content))
	}
}
