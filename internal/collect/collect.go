// Package collect fills a watch database from RSS/Atom feeds. New
// entries become Notion pages carrying the variant's trigger status,
// ready for the next digest run.
package collect

import (
	"context"
	"log"

	"github.com/latifnjimoluh/veille/internal/notion"
	"github.com/latifnjimoluh/veille/internal/schema"
)

const maxDescriptionLen = 1900

// NotionWriter is the slice of the Notion client collection needs.
type NotionWriter interface {
	QueryDatabase(ctx context.Context, databaseID string) ([]notion.Page, error)
	CreatePage(ctx context.Context, databaseID string, properties map[string]any) error
}

// Result holds the results of a collection run.
type Result struct {
	TotalFound int
	Created    int
	Duplicates int
	Errors     int
}

// Collector imports feed entries into a Notion watch database.
type Collector struct {
	notion   NotionWriter
	reader   *FeedReader
	variant  schema.Variant
	daysBack int
}

// NewCollector creates a collector for one variant's database.
func NewCollector(n NotionWriter, feeds []Feed, variant schema.Variant, daysBack int) *Collector {
	return &Collector{
		notion:   n,
		reader:   NewFeedReader(feeds),
		variant:  variant,
		daysBack: daysBack,
	}
}

// Collect parses all feeds and creates a page for every entry whose
// URL is not already in the database. Creation failures are logged
// and counted, not propagated.
func (c *Collector) Collect(ctx context.Context, databaseID string) (*Result, error) {
	existing, err := c.existingURLs(ctx, databaseID)
	if err != nil {
		return nil, err
	}

	r := &Result{}
	entries := c.reader.Recent(c.daysBack)
	r.TotalFound = len(entries)

	for _, entry := range entries {
		if _, ok := existing[entry.URL]; ok {
			r.Duplicates++
			continue
		}

		if err := c.notion.CreatePage(ctx, databaseID, c.pageProperties(entry)); err != nil {
			log.Printf("Failed to create page for %s: %v", entry.URL, err)
			r.Errors++
			continue
		}
		existing[entry.URL] = struct{}{}
		r.Created++
	}

	log.Printf("Collection complete: %d found, %d created, %d duplicates, %d errors",
		r.TotalFound, r.Created, r.Duplicates, r.Errors)
	return r, nil
}

func (c *Collector) existingURLs(ctx context.Context, databaseID string) (map[string]struct{}, error) {
	pages, err := c.notion.QueryDatabase(ctx, databaseID)
	if err != nil {
		return nil, err
	}

	urls := make(map[string]struct{}, len(pages))
	for _, item := range c.variant.ProjectAll(pages) {
		if item.URL != "" {
			urls[item.URL] = struct{}{}
		}
	}
	return urls, nil
}

func (c *Collector) pageProperties(entry Entry) map[string]any {
	fields := c.variant.Fields

	props := map[string]any{
		fields.Title: map[string]any{
			"title": []map[string]any{
				{"text": map[string]string{"content": entry.Title}},
			},
		},
		fields.URL: map[string]any{"url": entry.URL},
		fields.Status: map[string]any{
			"status": map[string]string{"name": c.variant.TriggerStatus},
		},
	}

	if entry.Published != "" {
		props[fields.Date] = map[string]any{
			"date": map[string]string{"start": entry.Published},
		}
	}

	if entry.Summary != "" {
		props[fields.Description] = map[string]any{
			"rich_text": []map[string]any{
				{"text": map[string]string{"content": schema.Clip(entry.Summary, maxDescriptionLen)}},
			},
		}
	}

	return props
}
