package compose

import (
	"strings"
	"testing"

	"github.com/latifnjimoluh/veille/internal/schema"
)

func TestBuildEmailOneListItemPerItem(t *testing.T) {
	items := []schema.Item{
		{Title: "Go 1.23", URL: "https://go.dev", Category: "Développement Web", Summary: "Résumé A"},
		{Title: "HTMX", URL: "https://htmx.org", Category: "Développement Web", Summary: "Résumé B"},
	}

	subject, body, err := BuildEmail(schema.Techno, items, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !strings.Contains(subject, "Veille techno du ") {
		t.Errorf("unexpected subject %q", subject)
	}
	if got := strings.Count(body, "<li "); got != 2 {
		t.Errorf("expected exactly 2 <li> blocks, got %d", got)
	}
	if !strings.Contains(body, "Go 1.23") || !strings.Contains(body, "HTMX") {
		t.Error("expected both titles in the body")
	}
	if !strings.Contains(body, `href="https://go.dev"`) {
		t.Error("expected item link in the body")
	}
}

func TestBuildEmailRendersNarrativeMarkdown(t *testing.T) {
	items := []schema.Item{{Title: "A", Category: "Autre"}}
	narrative := "## Tendances\n\nGo **domine** cette semaine."

	_, body, err := BuildEmail(schema.Tech, items, narrative)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !strings.Contains(body, "<h2>Tendances</h2>") {
		t.Error("expected narrative heading rendered as HTML")
	}
	if !strings.Contains(body, "<strong>domine</strong>") {
		t.Error("expected bold markdown rendered")
	}
}

func TestBuildEmailWithoutNarrative(t *testing.T) {
	items := []schema.Item{{Title: "A", Category: "Autre", Description: "Une description"}}

	_, body, err := BuildEmail(schema.Radar, items, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.Contains(body, "border-left:4px solid") {
		t.Error("expected no narrative block without a narrative")
	}
	if !strings.Contains(body, "Une description") {
		t.Error("expected description shown when no summary exists")
	}
}

func TestBuildEmailEscapesItemText(t *testing.T) {
	items := []schema.Item{{Title: "<script>alert(1)</script>", Category: "Autre"}}

	_, body, err := BuildEmail(schema.Techno, items, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.Contains(body, "<script>alert(1)</script>") {
		t.Error("expected item title to be escaped")
	}
}
