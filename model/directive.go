package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Defaults filled in when the model omits a field.
const (
	DefaultTitle   = "No Title"
	DefaultContent = "No Content"
)

// ToolInput is the model-supplied tool argument: either free text
// (code, a search query) or a list of result identifiers.
type ToolInput struct {
	text   string
	ids    []string
	isList bool
}

// TextInput creates a text tool input.
func TextInput(text string) ToolInput {
	return ToolInput{text: text}
}

// ListInput creates a list tool input.
func ListInput(ids ...string) ToolInput {
	return ToolInput{ids: append([]string(nil), ids...), isList: true}
}

// IsList reports whether the input was given as a list.
func (t ToolInput) IsList() bool {
	return t.isList
}

// IDs returns the input as a list, wrapping a single text value.
func (t ToolInput) IDs() []string {
	if t.isList {
		return append([]string(nil), t.ids...)
	}
	return []string{t.text}
}

// String returns the text, or the JSON encoding of a list.
func (t ToolInput) String() string {
	if !t.isList {
		return t.text
	}
	ids := t.ids
	if ids == nil {
		ids = []string{}
	}
	b, err := json.Marshal(ids)
	if err != nil {
		return strings.Join(ids, ", ")
	}
	return string(b)
}

// MarshalJSON encodes text as a JSON string and lists as a JSON array.
func (t ToolInput) MarshalJSON() ([]byte, error) {
	if t.isList {
		ids := t.ids
		if ids == nil {
			ids = []string{}
		}
		return json.Marshal(ids)
	}
	return json.Marshal(t.text)
}

// UnmarshalJSON accepts a string, an array, or any other JSON value.
// Array elements that are not strings keep their JSON text; other scalar
// or object values become text.
func (t *ToolInput) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '[' {
		var items []json.RawMessage
		if err := json.Unmarshal(data, &items); err != nil {
			return err
		}
		ids := make([]string, 0, len(items))
		for _, item := range items {
			ids = append(ids, textOf(item))
		}
		*t = ToolInput{ids: ids, isList: true}
		return nil
	}
	if !json.Valid(data) {
		return fmt.Errorf("invalid tool_input: %q", data)
	}
	*t = ToolInput{text: textOf(data)}
	return nil
}

// wireDirective mirrors the loosely typed object the model produces.
type wireDirective struct {
	Title      json.RawMessage `json:"title"`
	Content    json.RawMessage `json:"content"`
	NextAction json.RawMessage `json:"next_action"`
	Tool       json.RawMessage `json:"tool"`
	ToolInput  json.RawMessage `json:"tool_input"`
	NumResults json.RawMessage `json:"num_results"`
}

// ParseDirective maps one JSON object from the model onto a StepDirective.
// Missing or mistyped fields are defaulted; only input that is not a JSON
// object at all is an error.
func ParseDirective(data []byte) (StepDirective, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return StepDirective{}, fmt.Errorf("directive is not a JSON object: %.40q", trimmed)
	}
	var w wireDirective
	if err := json.Unmarshal(trimmed, &w); err != nil {
		return StepDirective{}, fmt.Errorf("directive is not a JSON object: %w", err)
	}

	d := StepDirective{
		Title:      DefaultTitle,
		Content:    DefaultContent,
		NextAction: ActionContinue,
	}
	if present(w.Title) {
		d.Title = textOf(w.Title)
	}
	if present(w.Content) {
		d.Content = textOf(w.Content)
	}
	if present(w.NextAction) && NextAction(textOf(w.NextAction)) == ActionFinalAnswer {
		d.NextAction = ActionFinalAnswer
	}
	if present(w.Tool) {
		if name := strings.TrimSpace(textOf(w.Tool)); name != "" {
			tool := ToolName(name)
			d.Tool = &tool
		}
	}
	if present(w.ToolInput) {
		var in ToolInput
		if err := in.UnmarshalJSON(w.ToolInput); err == nil {
			d.ToolInput = &in
		}
	}
	if n, ok := intOf(w.NumResults); ok {
		d.NumResults = &n
	}
	return d, nil
}

// present reports whether a raw field was supplied with a non-null value.
func present(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && !bytes.Equal(trimmed, []byte("null"))
}

// textOf returns a JSON string's value, or the indented JSON text of any
// other value.
func textOf(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var v interface{}
	if err := json.Unmarshal(raw, &v); err == nil {
		if pretty, err := json.MarshalIndent(v, "", "  "); err == nil {
			return string(pretty)
		}
	}
	return string(raw)
}

// intOf accepts integers, integral floats and numeric strings.
func intOf(raw json.RawMessage) (int, bool) {
	if !present(raw) {
		return 0, false
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		if f == math.Trunc(f) {
			return int(f), true
		}
		return 0, false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if n, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
			return n, true
		}
	}
	return 0, false
}
