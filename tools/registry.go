// Package tools provides tool management and registration.
//
// Information Hiding:
// - Tool storage and lookup implementation hidden
// - Registration and discovery mechanisms abstracted

package tools

import (
	"fmt"
	"sync"

	"github.com/armon/go-radix"

	"github.com/richinex/llao1/search"
)

// Registry manages available tools with dynamic registration.
// Tools are kept in a radix tree keyed by name, so listing is ordered and
// prefix queries are cheap.
type Registry struct {
	mu    sync.RWMutex
	tools *radix.Tree
}

// NewRegistry creates a new empty tool registry.
func NewRegistry() *Registry {
	return &Registry{
		tools: radix.New(),
	}
}

// Register adds a new tool to the registry.
// Returns error if a tool with the same name already exists.
func (r *Registry) Register(tool Tool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := tool.Metadata().Name
	if _, exists := r.tools.Get(name); exists {
		return fmt.Errorf("tool '%s' already registered", name)
	}
	r.tools.Insert(name, tool)
	return nil
}

// Get returns a tool by name.
func (r *Registry) Get(name string) (Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	v, exists := r.tools.Get(name)
	if !exists {
		return nil, false
	}
	return v.(Tool), true
}

// Len returns the number of registered tools.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.tools.Len()
}

// ListPrefix returns metadata for the tools whose name starts with prefix,
// sorted by name.
func (r *Registry) ListPrefix(prefix string) []ToolMetadata {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var metadata []ToolMetadata
	r.tools.WalkPrefix(prefix, func(_ string, v interface{}) bool {
		metadata = append(metadata, v.(Tool).Metadata())
		return false
	})
	return metadata
}

// WithDefaults creates a registry holding code_executor, web_search and
// fetch_page_content. A nil provider means no search credential.
func WithDefaults(provider search.Provider, opts ...CodeOption) (*Registry, error) {
	if provider == nil {
		provider = search.Unconfigured{}
	}
	registry := NewRegistry()

	tools := []Tool{
		NewCodeExecutor(opts...),
		NewWebSearch(provider),
		NewFetchPageContent(provider),
	}

	for _, t := range tools {
		if err := registry.Register(t); err != nil {
			return nil, fmt.Errorf("failed to register default tools: %w", err)
		}
	}

	return registry, nil
}
