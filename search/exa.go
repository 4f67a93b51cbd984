package search

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

// DefaultExaBaseURL is the public Exa API.
const DefaultExaBaseURL = "https://api.exa.ai"

// ExaClient talks to the Exa search API.
type ExaClient struct {
	client *resty.Client
}

// ExaOption configures an ExaClient.
type ExaOption func(*resty.Client)

// WithBaseURL points the client at another server.
func WithBaseURL(url string) ExaOption {
	return func(c *resty.Client) { c.SetBaseURL(url) }
}

// WithTimeout bounds each request.
func WithTimeout(d time.Duration) ExaOption {
	return func(c *resty.Client) { c.SetTimeout(d) }
}

// NewExaClient creates a client authenticated with apiKey.
func NewExaClient(apiKey string, opts ...ExaOption) *ExaClient {
	client := resty.New().
		SetBaseURL(DefaultExaBaseURL).
		SetTimeout(30*time.Second).
		SetHeader("Content-Type", "application/json").
		SetHeader("x-api-key", apiKey)
	for _, opt := range opts {
		opt(client)
	}
	return &ExaClient{client: client}
}

type exaContents struct {
	Text       bool `json:"text"`
	Highlights bool `json:"highlights,omitempty"`
}

type exaSearchRequest struct {
	Query      string      `json:"query"`
	Type       string      `json:"type"`
	NumResults int         `json:"numResults"`
	Contents   exaContents `json:"contents"`
}

type exaContentsRequest struct {
	IDs  []string `json:"ids"`
	Text bool     `json:"text"`
}

type exaResult struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	URL   string `json:"url"`
	Text  string `json:"text"`
}

type exaResponse struct {
	Results []exaResult `json:"results"`
}

type exaError struct {
	Error string `json:"error"`
}

// Search runs an auto-typed search and returns results with their text.
func (c *ExaClient) Search(ctx context.Context, query string, n int) ([]Result, error) {
	var out exaResponse
	err := c.post(ctx, "/search", exaSearchRequest{
		Query:      query,
		Type:       "auto",
		NumResults: n,
		Contents:   exaContents{Text: true, Highlights: true},
	}, &out)
	if err != nil {
		return nil, err
	}

	results := make([]Result, 0, len(out.Results))
	for _, r := range out.Results {
		results = append(results, Result(r))
	}
	return results, nil
}

// Contents retrieves page text for previously returned result IDs.
func (c *ExaClient) Contents(ctx context.Context, ids []string) ([]Page, error) {
	var out exaResponse
	if err := c.post(ctx, "/contents", exaContentsRequest{IDs: ids, Text: true}, &out); err != nil {
		return nil, err
	}

	pages := make([]Page, 0, len(out.Results))
	for _, r := range out.Results {
		pages = append(pages, Page(r))
	}
	return pages, nil
}

func (c *ExaClient) post(ctx context.Context, path string, body, out any) error {
	var apiErr exaError
	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(body).
		SetResult(out).
		SetError(&apiErr).
		Post(path)
	if err != nil {
		return fmt.Errorf("exa request %s failed: %w", path, err)
	}
	if resp.IsError() {
		if apiErr.Error != "" {
			return fmt.Errorf("exa %s returned %d: %s", path, resp.StatusCode(), apiErr.Error)
		}
		return fmt.Errorf("exa %s returned %d: %s", path, resp.StatusCode(), resp.String())
	}
	return nil
}
