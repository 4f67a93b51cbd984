// Package tools provides the tools the reasoning loop can invoke.
//
// Information Hiding:
// - Tool execution details hidden behind interface
// - Backend failures converted to text inside each tool
// - Registry implementation details hidden from consumers
package tools

import (
	"context"
	"fmt"

	"github.com/richinex/llao1/model"
)

// ToolParameter defines a parameter accepted by a tool.
type ToolParameter struct {
	Name        string `json:"name"`
	ParamType   string `json:"param_type"`
	Description string `json:"description"`
	Required    bool   `json:"required"`
}

// ToolMetadata describes what a tool does and how to use it.
type ToolMetadata struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Parameters  []ToolParameter `json:"parameters"`
}

// String returns a string representation of the tool metadata.
func (m ToolMetadata) String() string {
	return fmt.Sprintf("%s: %s", m.Name, m.Description)
}

// ToolResult is the outcome of one tool execution.
// Output is always the text handed back to the model, including on failure;
// Error keeps the underlying cause for logging.
type ToolResult struct {
	Output string
	Error  error
}

// Success returns true if the tool execution succeeded.
func (t ToolResult) Success() bool {
	return t.Error == nil
}

// SuccessResult creates a successful tool result.
func SuccessResult(output string) ToolResult {
	return ToolResult{Output: output}
}

// FailureResult creates a failed tool result whose model-facing text is output.
func FailureResult(output string, err error) ToolResult {
	return ToolResult{Output: output, Error: err}
}

// Call is one tool invocation requested by the model.
type Call struct {
	Tool       model.ToolName
	Input      *model.ToolInput
	NumResults *int
}

// CallFor builds the call described by a directive. ok is false when the
// directive names no tool.
func CallFor(d model.StepDirective) (Call, bool) {
	if d.Tool == nil {
		return Call{}, false
	}
	return Call{Tool: *d.Tool, Input: d.ToolInput, NumResults: d.NumResults}, true
}

// Text returns the input as text, or "" when absent.
func (c Call) Text() string {
	if c.Input == nil {
		return ""
	}
	return c.Input.String()
}

// IDs returns the input coerced to a list of identifiers.
func (c Call) IDs() []string {
	if c.Input == nil {
		return nil
	}
	return c.Input.IDs()
}

// Tool is the interface that all tools must implement.
//
// Information Hiding: Tool implementations hide their internal execution logic,
// data structures, and error handling strategies behind this interface.
type Tool interface {
	// Metadata returns tool metadata (name, description, parameters).
	Metadata() ToolMetadata

	// Execute runs the tool. It never returns a Go error; failures are
	// reported through ToolResult.
	Execute(ctx context.Context, call Call) ToolResult
}
