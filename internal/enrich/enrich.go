// Package enrich runs the per-item AI step: summarize, classify, and
// patch each record back into Notion.
package enrich

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/latifnjimoluh/veille/internal/llm"
	"github.com/latifnjimoluh/veille/internal/schema"
)

// Fallbacks returned when the AI call fails. Enrichment failures are
// always recovered locally; they never abort a request.
const (
	SummaryFallback  = "Résumé non disponible."
	CategoryFallback = "Autre"
)

// Categories is the closed label set for classification.
var Categories = []string{
	"Intelligence Artificielle",
	"Développement Web",
	"Cybersécurité",
	"Cloud & DevOps",
	"Data & Analytics",
	"Autre",
}

const summaryPrompt = `Tu rédiges le résumé d'un article pour une veille technologique interne.

Article : %s
Description : %s
Lien : %s

Écris un résumé clair de 3 à 4 phrases en français, sans langage marketing. Réponds uniquement avec le résumé.`

const classifyPrompt = `Classe cet article de veille dans UNE seule de ces catégories :
%s

Article : %s
Description : %s
Lien : %s

Réponds uniquement avec le nom exact de la catégorie, rien d'autre.`

const readMoreSuffix = "Lisez l'article complet ici : "

// Notion rich_text blocks reject content above 2000 characters.
const maxCommentLen = 2000

// PagePatcher is the slice of the Notion client enrichment needs.
type PagePatcher interface {
	UpdatePage(ctx context.Context, pageID string, properties map[string]any) error
}

// Result aggregates one enrichment run. Patch failures are counted
// per item instead of failing the whole batch.
type Result struct {
	Items         []schema.Item
	PatchFailures int
}

// Enricher summarizes and classifies items, writing results back to
// their source pages.
type Enricher struct {
	provider  llm.Provider
	notion    PagePatcher
	maxTokens int
}

// NewEnricher creates an enricher.
func NewEnricher(provider llm.Provider, notion PagePatcher, maxTokens int) *Enricher {
	if maxTokens == 0 {
		maxTokens = 512
	}
	return &Enricher{provider: provider, notion: notion, maxTokens: maxTokens}
}

// Summarize asks the provider for a short summary of one item. Any
// upstream failure yields the fixed fallback text.
func (e *Enricher) Summarize(ctx context.Context, item schema.Item) string {
	if e.provider == nil {
		return SummaryFallback
	}

	prompt := fmt.Sprintf(summaryPrompt, item.Title, item.Description, item.URL)
	text, err := e.provider.Generate(ctx, prompt, e.maxTokens)
	if err != nil {
		log.Printf("Summary generation failed for %q: %v", item.Title, err)
		return SummaryFallback
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return SummaryFallback
	}
	if item.URL != "" {
		text += "\n\n" + readMoreSuffix + item.URL
	}
	return text
}

// Classify returns the category label for one item, or the catch-all
// label on any failure.
func (e *Enricher) Classify(ctx context.Context, item schema.Item) string {
	if e.provider == nil {
		return CategoryFallback
	}

	labels := "- " + strings.Join(Categories, "\n- ")
	prompt := fmt.Sprintf(classifyPrompt, labels, item.Title, item.Description, item.URL)
	text, err := e.provider.Generate(ctx, prompt, 32)
	if err != nil {
		log.Printf("Classification failed for %q: %v", item.Title, err)
		return CategoryFallback
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return CategoryFallback
	}
	return text
}

// EnrichAll fans out over the items, enriching and patching each one
// independently. Output order matches input order; completion order is
// unspecified. A failing patch is logged and counted, not propagated.
func (e *Enricher) EnrichAll(ctx context.Context, v schema.Variant, items []schema.Item) *Result {
	out := make([]schema.Item, len(items))
	var wg sync.WaitGroup
	var mu sync.Mutex
	failures := 0

	for i := range items {
		wg.Add(1)
		go func(i int, item schema.Item) {
			defer wg.Done()

			item.Summary = e.Summarize(ctx, item)
			item.Category = e.Classify(ctx, item)
			item.Status = v.DoneStatus
			item.Comment = item.Summary

			if err := e.notion.UpdatePage(ctx, item.PageID, PatchProperties(v, item)); err != nil {
				log.Printf("Failed to patch page %s: %v", item.PageID, err)
				mu.Lock()
				failures++
				mu.Unlock()
			}
			out[i] = item
		}(i, items[i])
	}
	wg.Wait()

	return &Result{Items: out, PatchFailures: failures}
}

// PatchProperties builds the Notion property payload writing an
// item's category, status, and comment back to its page.
func PatchProperties(v schema.Variant, item schema.Item) map[string]any {
	comment := schema.Clip(item.Comment, maxCommentLen)

	return map[string]any{
		v.Fields.Category: map[string]any{
			"select": map[string]string{"name": item.Category},
		},
		v.Fields.Status: map[string]any{
			"status": map[string]string{"name": item.Status},
		},
		v.Fields.Comment: map[string]any{
			"rich_text": []map[string]any{
				{"text": map[string]string{"content": comment}},
			},
		},
	}
}

// StatusProperties builds the payload that only moves a page's status.
func StatusProperties(v schema.Variant) map[string]any {
	return map[string]any{
		v.Fields.Status: map[string]any{
			"status": map[string]string{"name": v.DoneStatus},
		},
	}
}
