package collect

import (
	"html"
	"log"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
)

// entryCap bounds how many entries a single feed can contribute per
// run, so one chatty source cannot flood the database.
const entryCap = 20

// Entry is one feed item ready to become a watch record.
type Entry struct {
	Title     string
	URL       string
	Published string // YYYY-MM-DD, empty when the feed gives no date
	Summary   string
}

// Feed identifies one configured RSS or Atom source.
type Feed struct {
	URL  string
	Name string
}

// FeedReader pulls recent entries from a set of feeds.
type FeedReader struct {
	feeds  []Feed
	parser *gofeed.Parser
}

func NewFeedReader(feeds []Feed) *FeedReader {
	return &FeedReader{feeds: feeds, parser: gofeed.NewParser()}
}

// Recent returns entries published within the last daysBack days, in
// feed order. Unreachable feeds are logged and skipped.
func (r *FeedReader) Recent(daysBack int) []Entry {
	cutoff := time.Now().AddDate(0, 0, -daysBack)

	var entries []Entry
	for _, f := range r.feeds {
		feed, err := r.parser.ParseURL(f.URL)
		if err != nil {
			log.Printf("Failed to read feed %s: %v", f.URL, err)
			continue
		}

		kept := 0
		for _, item := range feed.Items {
			if kept >= entryCap {
				break
			}
			entry, ok := toEntry(item)
			if !ok || !recentEnough(entry.Published, cutoff) {
				continue
			}
			entries = append(entries, entry)
			kept++
		}
		log.Printf("Feed %s: kept %d of %d entries", feedLabel(f), kept, len(feed.Items))
	}
	return entries
}

func feedLabel(f Feed) string {
	if f.Name != "" {
		return f.Name
	}
	return f.URL
}

// toEntry converts a raw feed item, rejecting items without a usable
// link or title.
func toEntry(item *gofeed.Item) (Entry, bool) {
	link := item.Link
	if link == "" {
		link = item.GUID
	}
	title := strings.TrimSpace(item.Title)
	if link == "" || title == "" {
		return Entry{}, false
	}

	e := Entry{Title: title, URL: link}
	switch {
	case item.PublishedParsed != nil:
		e.Published = item.PublishedParsed.Format("2006-01-02")
	case item.UpdatedParsed != nil:
		e.Published = item.UpdatedParsed.Format("2006-01-02")
	}

	if item.Content != "" {
		e.Summary = flattenHTML(item.Content)
	} else if item.Description != "" {
		e.Summary = flattenHTML(item.Description)
	}
	return e, true
}

// recentEnough keeps undated and unparseable dates rather than losing
// entries over sloppy feeds.
func recentEnough(published string, cutoff time.Time) bool {
	if published == "" {
		return true
	}
	pub, err := time.Parse("2006-01-02", published)
	if err != nil {
		return true
	}
	return !pub.Before(cutoff)
}

// flattenHTML reduces feed HTML to plain text: tags out, entities
// decoded, whitespace collapsed.
func flattenHTML(s string) string {
	var b strings.Builder
	inTag := false
	for _, r := range s {
		switch {
		case r == '<':
			inTag = true
			b.WriteRune(' ')
		case r == '>':
			inTag = false
		case !inTag:
			b.WriteRune(r)
		}
	}
	return strings.Join(strings.Fields(html.UnescapeString(b.String())), " ")
}
