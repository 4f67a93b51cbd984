package tools

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/richinex/llao1/model"
	"github.com/richinex/llao1/search"
)

// fakeSearch is an in-memory search.Provider that records its calls.
type fakeSearch struct {
	results []search.Result
	pages   []search.Page
	err     error

	queries []string
	counts  []int
	idLists [][]string
}

func (f *fakeSearch) Search(_ context.Context, query string, n int) ([]search.Result, error) {
	f.queries = append(f.queries, query)
	f.counts = append(f.counts, n)
	if f.err != nil {
		return nil, f.err
	}
	if n < len(f.results) {
		return f.results[:n], nil
	}
	return f.results, nil
}

func (f *fakeSearch) Contents(_ context.Context, ids []string) ([]search.Page, error) {
	f.idLists = append(f.idLists, ids)
	if f.err != nil {
		return nil, f.err
	}
	return f.pages, nil
}

func newTestDispatcher(t *testing.T, provider search.Provider) *Dispatcher {
	t.Helper()
	registry, err := WithDefaults(provider)
	require.NoError(t, err)
	return NewDispatcher(registry, nil)
}

func textCall(tool model.ToolName, text string) Call {
	in := model.TextInput(text)
	return Call{Tool: tool, Input: &in}
}

func TestDispatchWebSearchRoundTrip(t *testing.T) {
	fake := &fakeSearch{results: []search.Result{
		{ID: "r1", Title: "First", URL: "https://one.example", Text: "alpha"},
		{ID: "r2", Title: "Second", URL: "https://two.example", Text: "beta"},
		{ID: "r3", Title: "Third", URL: "https://three.example", Text: "gamma"},
	}}
	d := newTestDispatcher(t, fake)

	call := textCall(model.ToolWebSearch, "foo")
	n := 2
	call.NumResults = &n

	out := d.Dispatch(context.Background(), call)

	assert.Equal(t, []string{"foo"}, fake.queries)
	assert.Equal(t, []int{2}, fake.counts)
	assert.Equal(t, 2, strings.Count(out, "Result "))
	assert.Equal(t,
		"Result 1:\nID: r1\nTitle: First\nSnippet: alpha\nURL: https://one.example\n"+
			"\n"+
			"Result 2:\nID: r2\nTitle: Second\nSnippet: beta\nURL: https://two.example\n",
		out)
}

func TestDispatchWebSearchDefaultsCount(t *testing.T) {
	fake := &fakeSearch{}
	d := newTestDispatcher(t, fake)

	d.Dispatch(context.Background(), textCall(model.ToolWebSearch, "q"))
	zero := 0
	call := textCall(model.ToolWebSearch, "q")
	call.NumResults = &zero
	d.Dispatch(context.Background(), call)

	assert.Equal(t, []int{DefaultNumResults, DefaultNumResults}, fake.counts)
}

func TestFormatResultsPlaceholders(t *testing.T) {
	out := FormatResults([]search.Result{{}})
	assert.Equal(t, "Result 1:\nID: No ID found\nTitle: No title found\nSnippet: No snippet found\nURL: No URL found\n", out)
	assert.Equal(t, "", FormatResults(nil))
}

func TestDispatchFetchSingleIDCoercion(t *testing.T) {
	fake := &fakeSearch{pages: []search.Page{{ID: "id1", Title: "Page", Text: "body"}}}
	d := newTestDispatcher(t, fake)

	single := d.Dispatch(context.Background(), textCall(model.ToolFetchPageContent, "id1"))
	list := model.ListInput("id1")
	listed := d.Dispatch(context.Background(), Call{Tool: model.ToolFetchPageContent, Input: &list})

	assert.Equal(t, single, listed)
	assert.Equal(t, "Title: Page\nContent: body\n", single)
	assert.Equal(t, [][]string{{"id1"}, {"id1"}}, fake.idLists)
}

func TestFormatPagesPlaceholders(t *testing.T) {
	out := FormatPages([]search.Page{{}, {Title: "T", Text: "x"}})
	assert.Equal(t, "Title: No title found\nContent: No text found\n\nTitle: T\nContent: x\n", out)
}

func TestDispatchMissingCredential(t *testing.T) {
	d := newTestDispatcher(t, search.Unconfigured{})

	for _, tool := range []model.ToolName{model.ToolWebSearch, model.ToolFetchPageContent} {
		out := d.Dispatch(context.Background(), textCall(tool, "anything"))
		assert.Equal(t, "Error: Exa API Key is not set.", out, "tool %s", tool)
	}
}

func TestDispatchNilProviderIsUnconfigured(t *testing.T) {
	d := newTestDispatcher(t, nil)
	out := d.Dispatch(context.Background(), textCall(model.ToolWebSearch, "q"))
	assert.True(t, strings.HasPrefix(out, "Error:"))
}

func TestDispatchProviderFailures(t *testing.T) {
	fake := &fakeSearch{err: errors.New("rate limited")}
	d := newTestDispatcher(t, fake)

	assert.Equal(t, "An error occurred while using Exa API: rate limited",
		d.Dispatch(context.Background(), textCall(model.ToolWebSearch, "q")))
	assert.Equal(t, "An error occurred while retrieving page content: rate limited",
		d.Dispatch(context.Background(), textCall(model.ToolFetchPageContent, "id")))
}

func TestDispatchUnknownTool(t *testing.T) {
	d := newTestDispatcher(t, &fakeSearch{})
	out := d.Dispatch(context.Background(), textCall("calculator", "1+1"))
	assert.Equal(t, "Error: Unknown tool 'calculator'", out)
}

func TestDispatchMissingInput(t *testing.T) {
	d := newTestDispatcher(t, &fakeSearch{})
	out := d.Dispatch(context.Background(), Call{Tool: model.ToolWebSearch})
	assert.Equal(t, "Error: Missing tool_input for tool 'web_search'", out)
}

type panickingSearch struct{}

func (panickingSearch) Search(context.Context, string, int) ([]search.Result, error) {
	panic("index corrupted")
}

func (panickingSearch) Contents(context.Context, []string) ([]search.Page, error) {
	panic("index corrupted")
}

func TestDispatchRecoversFromPanic(t *testing.T) {
	d := newTestDispatcher(t, panickingSearch{})

	var out string
	require.NotPanics(t, func() {
		out = d.Dispatch(context.Background(), textCall(model.ToolWebSearch, "q"))
	})
	assert.Equal(t, "Error: index corrupted", out)

	// the dispatcher stays usable
	out = d.Dispatch(context.Background(), textCall("calculator", "1+1"))
	assert.Equal(t, "Error: Unknown tool 'calculator'", out)
}

func TestCallFor(t *testing.T) {
	_, ok := CallFor(model.StepDirective{Title: "thinking"})
	assert.False(t, ok)

	tool := model.ToolCodeExecutor
	in := model.TextInput("print(1)")
	call, ok := CallFor(model.StepDirective{Tool: &tool, ToolInput: &in})
	require.True(t, ok)
	assert.Equal(t, model.ToolCodeExecutor, call.Tool)
	assert.Equal(t, "print(1)", call.Text())
}
