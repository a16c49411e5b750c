package notion

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// queryTimeout bounds database queries. Other calls run with the
// default client timeout.
const queryTimeout = 10 * time.Second

// Client talks to the Notion REST API.
type Client struct {
	baseURL string
	token   string
	version string
	client  *http.Client
}

// NewClient creates a Notion API client. The token and version are
// sent on every request as bearer auth and the Notion-Version header.
func NewClient(baseURL, token, version string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		version: version,
		client:  &http.Client{},
	}
}

// ListDatabases returns every database the integration can access.
func (c *Client) ListDatabases(ctx context.Context) ([]Database, error) {
	body := map[string]any{
		"filter": map[string]string{"value": "database", "property": "object"},
	}

	var result struct {
		Results []struct {
			ID    string     `json:"id"`
			Title []RichText `json:"title"`
		} `json:"results"`
	}
	if err := c.do(ctx, http.MethodPost, "/v1/search", body, &result); err != nil {
		return nil, err
	}

	databases := make([]Database, 0, len(result.Results))
	for _, r := range result.Results {
		name := plainText(r.Title)
		if name == "" {
			name = "Sans titre"
		}
		databases = append(databases, Database{ID: r.ID, Name: name})
	}
	return databases, nil
}

// QueryDatabase fetches every page of a database, unfiltered,
// following the cursor past the API's 100-result cap. A response
// without a results list is an error. The timeout covers the whole
// paginated query.
func (c *Client) QueryDatabase(ctx context.Context, databaseID string) ([]Page, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	path := fmt.Sprintf("/v1/databases/%s/query", databaseID)
	body := map[string]any{}

	var pages []Page
	for {
		var result struct {
			Results    *[]Page `json:"results"`
			HasMore    bool    `json:"has_more"`
			NextCursor *string `json:"next_cursor"`
		}
		if err := c.do(ctx, http.MethodPost, path, body, &result); err != nil {
			return nil, err
		}
		if result.Results == nil {
			return nil, fmt.Errorf("notion response for database %s has no results list", databaseID)
		}
		pages = append(pages, *result.Results...)

		if !result.HasMore || result.NextCursor == nil {
			return pages, nil
		}
		body["start_cursor"] = *result.NextCursor
	}
}

// UpdatePage patches the given properties on a page.
func (c *Client) UpdatePage(ctx context.Context, pageID string, properties map[string]any) error {
	body := map[string]any{"properties": properties}
	return c.do(ctx, http.MethodPatch, "/v1/pages/"+pageID, body, nil)
}

// CreatePage creates a new page in a database.
func (c *Client) CreatePage(ctx context.Context, databaseID string, properties map[string]any) error {
	body := map[string]any{
		"parent":     map[string]string{"database_id": databaseID},
		"properties": properties,
	}
	return c.do(ctx, http.MethodPost, "/v1/pages", body, nil)
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Notion-Version", c.version)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("notion API error: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("notion API returned %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

func plainText(spans []RichText) string {
	var parts []string
	for _, s := range spans {
		if s.PlainText != "" {
			parts = append(parts, s.PlainText)
		}
	}
	return strings.TrimSpace(strings.Join(parts, ""))
}
