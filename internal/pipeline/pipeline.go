// Package pipeline runs one digest request end to end: query the
// watch database, project and filter, enrich or synthesize, send the
// email, and move the processed records to their done status. The
// three route families share this one pipeline; a schema.Variant
// carries everything that differs between them.
package pipeline

import (
	"context"
	"fmt"
	"log"

	"github.com/latifnjimoluh/veille/internal/compose"
	"github.com/latifnjimoluh/veille/internal/enrich"
	"github.com/latifnjimoluh/veille/internal/fetch"
	"github.com/latifnjimoluh/veille/internal/llm"
	"github.com/latifnjimoluh/veille/internal/mailer"
	"github.com/latifnjimoluh/veille/internal/notion"
	"github.com/latifnjimoluh/veille/internal/schema"
	"github.com/latifnjimoluh/veille/internal/synthesize"
)

// NothingToDo is returned when no record carries the trigger status.
const NothingToDo = "Aucune donnée à traiter."

// NotionAPI is the slice of the Notion client the pipeline needs.
type NotionAPI interface {
	QueryDatabase(ctx context.Context, databaseID string) ([]notion.Page, error)
	UpdatePage(ctx context.Context, pageID string, properties map[string]any) error
}

// RunResult is the outcome of one pipeline run.
type RunResult struct {
	Items         []schema.Item
	Suggestions   string
	Message       string
	Sent          bool
	PatchFailures int
}

// Pipeline holds the external clients, injected once at startup.
type Pipeline struct {
	notion    NotionAPI
	provider  llm.Provider
	sender    mailer.Sender
	fetcher   *fetch.ContentFetcher
	from      string
	maxTokens int
}

// New creates a pipeline. fetcher may be nil to skip content
// fetching for empty descriptions.
func New(n NotionAPI, provider llm.Provider, sender mailer.Sender, fetcher *fetch.ContentFetcher, from string, maxTokens int) *Pipeline {
	if maxTokens == 0 {
		maxTokens = 512
	}
	return &Pipeline{
		notion:    n,
		provider:  provider,
		sender:    sender,
		fetcher:   fetcher,
		from:      from,
		maxTokens: maxTokens,
	}
}

// Run executes one variant against one database and emails the digest
// to recipient. An empty filtered set short-circuits with a message
// and no side effects. Record write failures never abort the run; they
// are counted in the result. AI and mail failures outside per-item
// enrichment propagate to the caller.
func (p *Pipeline) Run(ctx context.Context, v schema.Variant, databaseID, recipient string) (*RunResult, error) {
	pages, err := p.notion.QueryDatabase(ctx, databaseID)
	if err != nil {
		return nil, fmt.Errorf("querying database %s: %w", databaseID, err)
	}

	items := v.ProjectAll(pages)
	filtered := schema.Filter(items, v.TriggerStatus)
	if len(filtered) == 0 {
		log.Printf("No %s records with status %q in %s", v.Name, v.TriggerStatus, databaseID)
		return &RunResult{Message: NothingToDo}, nil
	}
	log.Printf("Processing %d/%d %s records", len(filtered), len(items), v.Name)

	if p.fetcher != nil {
		p.fetcher.FillDescriptions(filtered)
	}

	var narrative string
	var patchFailures int
	if v.PerItem {
		enricher := enrich.NewEnricher(p.provider, p.notion, p.maxTokens)
		result := enricher.EnrichAll(ctx, v, filtered)
		filtered = result.Items
		patchFailures = result.PatchFailures
	} else {
		synth := synthesize.NewSynthesizer(p.provider, p.maxTokens*2)
		narrative, err = synth.Synthesize(ctx, filtered)
		if err != nil {
			return nil, err
		}
	}

	subject, body, err := compose.BuildEmail(v, filtered, narrative)
	if err != nil {
		return nil, err
	}

	msg := mailer.Message{From: p.from, To: recipient, Subject: subject, HTML: body}
	if err := p.sender.Send(msg); err != nil {
		// Batch status writes must not happen when the send failed.
		return nil, err
	}
	log.Printf("Digest sent to %s (%d articles)", recipient, len(filtered))

	if !v.PerItem {
		patchFailures += p.markDone(ctx, v, filtered)
	}

	return &RunResult{
		Items:         filtered,
		Suggestions:   narrative,
		Message:       fmt.Sprintf("Email envoyé à %s (%d article(s)).", recipient, len(filtered)),
		Sent:          true,
		PatchFailures: patchFailures,
	}, nil
}

// markDone moves each record to the done status, one at a time. A
// failing patch is logged and skipped; the remaining records are
// still patched.
func (p *Pipeline) markDone(ctx context.Context, v schema.Variant, items []schema.Item) int {
	failures := 0
	for i := range items {
		if err := p.notion.UpdatePage(ctx, items[i].PageID, enrich.StatusProperties(v)); err != nil {
			log.Printf("Failed to mark page %s done: %v", items[i].PageID, err)
			failures++
			continue
		}
		items[i].Status = v.DoneStatus
	}
	return failures
}
