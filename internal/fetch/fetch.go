// Package fetch pulls readable article text for items whose Notion
// record has no description, so the AI prompts have something to
// work with.
package fetch

import (
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	readability "github.com/go-shiori/go-readability"

	"github.com/latifnjimoluh/veille/internal/schema"
)

// maxDescriptionLen bounds how much extracted text is kept per item.
const maxDescriptionLen = 4000

// Result holds the results of a content fetch run.
type Result struct {
	Fetched int
	Skipped int
	Failed  int
}

// ContentFetcher fetches article text via HTTP + readability extraction.
type ContentFetcher struct {
	client *http.Client
}

// NewContentFetcher creates a new content fetcher.
func NewContentFetcher(timeout time.Duration) *ContentFetcher {
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	return &ContentFetcher{
		client: &http.Client{
			Timeout: timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 10 {
					return http.ErrUseLastResponse
				}
				return nil
			},
		},
	}
}

// FillDescriptions replaces default descriptions with extracted
// article text where a URL is available. Items are mutated in place;
// fetch failures leave the item untouched.
func (f *ContentFetcher) FillDescriptions(items []schema.Item) *Result {
	result := &Result{}
	failedDomains := make(map[string]struct{})

	for i := range items {
		item := &items[i]
		if item.Description != "" && item.Description != schema.DefaultDescription {
			result.Skipped++
			continue
		}
		if item.URL == "" {
			result.Skipped++
			continue
		}

		u, _ := url.Parse(item.URL)
		domain := ""
		if u != nil {
			domain = strings.ToLower(u.Host)
		}
		if _, failed := failedDomains[domain]; failed {
			result.Failed++
			continue
		}

		content := f.fetchArticleContent(item.URL)
		if content == "" {
			result.Failed++
			if domain != "" {
				failedDomains[domain] = struct{}{}
			}
			log.Printf("No extractable content from %s", item.URL)
			continue
		}

		if len(content) > maxDescriptionLen {
			content = schema.Clip(content, maxDescriptionLen) + "..."
		}
		item.Description = content
		result.Fetched++
		log.Printf("Fetched content for: %s", item.Title)
	}

	return result
}

func (f *ContentFetcher) fetchArticleContent(articleURL string) string {
	req, err := http.NewRequest("GET", articleURL, nil)
	if err != nil {
		return ""
	}
	req.Header.Set("User-Agent", "veille/1.0 (tech watch)")

	resp, err := f.client.Do(req)
	if err != nil {
		return ""
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return ""
	}

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return ""
	}

	parsedURL, _ := url.Parse(articleURL)
	article, err := readability.FromReader(strings.NewReader(string(bodyBytes)), parsedURL)
	if err != nil {
		return ""
	}

	text := strings.TrimSpace(article.TextContent)
	if len(text) > 100 {
		return text
	}
	return ""
}
