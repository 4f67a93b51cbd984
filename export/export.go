// Package export serializes a reasoning session to a portable JSON document.
//
// Absent tool fields are written as explicit nulls, so a reader can tell
// "no tool used" from a missing field.
package export

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"time"

	"github.com/richinex/llao1/model"
)

// Document is the exported form of a session.
type Document struct {
	Query string `json:"query"`
	Steps []Step `json:"steps"`
}

// Step is the exported form of one step record. ThinkingTime is seconds.
type Step struct {
	Title        string  `json:"title"`
	Content      string  `json:"content"`
	ThinkingTime float64 `json:"thinking_time"`
	Tool         *string `json:"tool"`
	ToolInput    *string `json:"tool_input"`
	ToolResult   *string `json:"tool_result"`
}

// FromRecords builds the document for query and steps.
func FromRecords(query string, steps []model.StepRecord) Document {
	doc := Document{Query: query, Steps: make([]Step, 0, len(steps))}
	for _, r := range steps {
		doc.Steps = append(doc.Steps, Step{
			Title:        r.Label,
			Content:      r.Content,
			ThinkingTime: r.Elapsed.Seconds(),
			Tool:         r.Tool,
			ToolInput:    r.ToolInput,
			ToolResult:   r.ToolResult,
		})
	}
	return doc
}

// Records converts the document back to step records. Thinking time is
// rounded to the nearest nanosecond.
func (d Document) Records() []model.StepRecord {
	records := make([]model.StepRecord, 0, len(d.Steps))
	for _, s := range d.Steps {
		records = append(records, model.StepRecord{
			Label:      s.Title,
			Content:    s.Content,
			Elapsed:    time.Duration(math.Round(s.ThinkingTime * float64(time.Second))),
			Tool:       s.Tool,
			ToolInput:  s.ToolInput,
			ToolResult: s.ToolResult,
		})
	}
	return records
}

// Session converts the document to a model.Session.
func (d Document) Session() model.Session {
	return model.Session{Query: d.Query, Steps: d.Records()}
}

// Export renders query and steps as indented JSON.
func Export(query string, steps []model.StepRecord) ([]byte, error) {
	data, err := json.MarshalIndent(FromRecords(query, steps), "", "    ")
	if err != nil {
		return nil, fmt.Errorf("failed to export session: %w", err)
	}
	return data, nil
}

// Parse reads a document produced by Export.
func Parse(data []byte) (Document, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return Document{}, fmt.Errorf("failed to parse export: %w", err)
	}
	return doc, nil
}

// WriteFile exports the session to path.
func WriteFile(path, query string, steps []model.StepRecord) error {
	data, err := Export(query, steps)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write export: %w", err)
	}
	return nil
}
