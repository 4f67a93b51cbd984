package tools

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Dispatcher routes model tool requests to registered tools and always
// answers with text that can be spliced back into the conversation.
// It holds no per-session state and may be shared.
type Dispatcher struct {
	registry *Registry
	logger   *slog.Logger
}

// NewDispatcher creates a dispatcher over registry. A nil logger uses
// slog.Default().
func NewDispatcher(registry *Registry, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{registry: registry, logger: logger}
}

// Dispatch runs the requested tool and returns its textual result. A tool
// that panics is reported as an error result.
func (d *Dispatcher) Dispatch(ctx context.Context, call Call) (output string) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("tool panicked", "tool", call.Tool, "panic", r)
			output = "Error: " + fmt.Sprint(r)
		}
	}()

	tool, ok := d.registry.Get(string(call.Tool))
	if !ok {
		d.logger.Warn("unknown tool requested", "tool", call.Tool)
		return fmt.Sprintf("Error: Unknown tool '%s'", call.Tool)
	}

	if call.Input == nil {
		d.logger.Warn("tool requested without input", "tool", call.Tool)
		return fmt.Sprintf("Error: Missing tool_input for tool '%s'", call.Tool)
	}

	d.logger.Debug("tool call", "tool", call.Tool, "input", call.Text())
	start := time.Now()
	result := tool.Execute(ctx, call)
	if !result.Success() {
		d.logger.Warn("tool failed",
			"tool", call.Tool,
			"duration", time.Since(start),
			"error", result.Error)
	} else {
		d.logger.Debug("tool result",
			"tool", call.Tool,
			"duration", time.Since(start),
			"bytes", len(result.Output))
	}
	return result.Output
}
