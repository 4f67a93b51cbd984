// Web Search and Page Content Tools.
//
// Information Hiding:
// - Search backend hidden behind search.Provider
// - Result formatting and placeholders for missing fields
// - Missing credential reported as text, never as an error

package tools

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/richinex/llao1/model"
	"github.com/richinex/llao1/search"
)

// DefaultNumResults is used when the model gives no usable count.
const DefaultNumResults = 5

const missingKey = "Error: Exa API Key is not set."

// WebSearch searches the web through a search.Provider.
type WebSearch struct {
	provider search.Provider
}

// NewWebSearch creates a web search tool.
func NewWebSearch(provider search.Provider) *WebSearch {
	return &WebSearch{provider: provider}
}

// Metadata returns the tool metadata.
func (t *WebSearch) Metadata() ToolMetadata {
	return ToolMetadata{
		Name:        string(model.ToolWebSearch),
		Description: "Search the web; each result carries an ID usable with fetch_page_content",
		Parameters: []ToolParameter{
			{Name: "tool_input", ParamType: "string", Description: "The search query", Required: true},
			{Name: "num_results", ParamType: "integer", Description: fmt.Sprintf("Number of results (default %d)", DefaultNumResults)},
		},
	}
}

// Execute runs the search and formats one block per result.
func (t *WebSearch) Execute(ctx context.Context, call Call) ToolResult {
	n := DefaultNumResults
	if call.NumResults != nil && *call.NumResults > 0 {
		n = *call.NumResults
	}

	results, err := t.provider.Search(ctx, call.Text(), n)
	if errors.Is(err, search.ErrNotConfigured) {
		return FailureResult(missingKey, err)
	}
	if err != nil {
		return FailureResult("An error occurred while using Exa API: "+err.Error(), err)
	}
	return SuccessResult(FormatResults(results))
}

// FormatResults renders search results, numbered from 1, separated by a
// blank line.
func FormatResults(results []search.Result) string {
	blocks := make([]string, 0, len(results))
	for i, r := range results {
		blocks = append(blocks, fmt.Sprintf("Result %d:\nID: %s\nTitle: %s\nSnippet: %s\nURL: %s\n",
			i+1,
			orDefault(r.ID, "No ID found"),
			orDefault(r.Title, "No title found"),
			orDefault(r.Text, "No snippet found"),
			orDefault(r.URL, "No URL found")))
	}
	return strings.Join(blocks, "\n")
}

// FetchPageContent retrieves page text for search result IDs.
type FetchPageContent struct {
	provider search.Provider
}

// NewFetchPageContent creates a page content tool.
func NewFetchPageContent(provider search.Provider) *FetchPageContent {
	return &FetchPageContent{provider: provider}
}

// Metadata returns the tool metadata.
func (t *FetchPageContent) Metadata() ToolMetadata {
	return ToolMetadata{
		Name:        string(model.ToolFetchPageContent),
		Description: "Fetch the full text of pages by the IDs returned from web_search",
		Parameters: []ToolParameter{
			{Name: "tool_input", ParamType: "array", Description: "Result IDs; a single ID is accepted", Required: true},
		},
	}
}

// Execute retrieves the pages. A single ID behaves like a one-element list.
func (t *FetchPageContent) Execute(ctx context.Context, call Call) ToolResult {
	pages, err := t.provider.Contents(ctx, call.IDs())
	if errors.Is(err, search.ErrNotConfigured) {
		return FailureResult(missingKey, err)
	}
	if err != nil {
		return FailureResult("An error occurred while retrieving page content: "+err.Error(), err)
	}
	return SuccessResult(FormatPages(pages))
}

// FormatPages renders page contents separated by a blank line.
func FormatPages(pages []search.Page) string {
	blocks := make([]string, 0, len(pages))
	for _, p := range pages {
		blocks = append(blocks, fmt.Sprintf("Title: %s\nContent: %s\n",
			orDefault(p.Title, "No title found"),
			orDefault(p.Text, "No text found")))
	}
	return strings.Join(blocks, "\n")
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
