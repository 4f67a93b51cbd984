// Package model provides domain types shared across packages.
//
// A reasoning session is a sequence of StepDirectives parsed from model
// output, each turned into a StepRecord once any requested tool has run.
package model

import (
	"fmt"
	"time"
)

// NextAction is the model's stated intent after a step.
type NextAction string

const (
	ActionContinue    NextAction = "continue"
	ActionFinalAnswer NextAction = "final_answer"
)

// ToolName identifies a tool the model may request.
// Names outside the known set survive parsing so the dispatcher can
// report them back to the model.
type ToolName string

const (
	ToolCodeExecutor     ToolName = "code_executor"
	ToolWebSearch        ToolName = "web_search"
	ToolFetchPageContent ToolName = "fetch_page_content"
)

// KnownTools lists the tools the reasoning protocol advertises.
func KnownTools() []ToolName {
	return []ToolName{ToolCodeExecutor, ToolWebSearch, ToolFetchPageContent}
}

// Known reports whether n is one of KnownTools.
func (n ToolName) Known() bool {
	for _, k := range KnownTools() {
		if n == k {
			return true
		}
	}
	return false
}

// StepDirective is one structured reply from the model.
// Optional fields are nil when the model omitted them.
type StepDirective struct {
	Title      string     `json:"title"`
	Content    string     `json:"content"`
	NextAction NextAction `json:"next_action"`
	Tool       *ToolName  `json:"tool,omitempty"`
	ToolInput  *ToolInput `json:"tool_input,omitempty"`
	NumResults *int       `json:"num_results,omitempty"`
	ToolResult *string    `json:"tool_result,omitempty"`
}

// IsFinal reports whether the model asked to stop reasoning.
func (d StepDirective) IsFinal() bool {
	return d.NextAction == ActionFinalAnswer
}

// UsesTool reports whether the directive names a tool.
func (d StepDirective) UsesTool() bool {
	return d.Tool != nil
}

// StepRecord is the durable unit of session history.
type StepRecord struct {
	Label      string
	Content    string
	Elapsed    time.Duration
	Tool       *string
	ToolInput  *string
	ToolResult *string
}

// FinalAnswerLabel labels the terminal record of every session.
const FinalAnswerLabel = "Final Answer"

// NewStepRecord builds the record for step n (1-based) from a directive
// whose tool, if any, has already run.
func NewStepRecord(n int, d StepDirective, elapsed time.Duration) StepRecord {
	r := StepRecord{
		Label:      stepLabel(n, d.Title),
		Content:    d.Content,
		Elapsed:    elapsed,
		ToolResult: d.ToolResult,
	}
	if d.Tool != nil {
		tool := string(*d.Tool)
		r.Tool = &tool
	}
	if d.ToolInput != nil {
		input := d.ToolInput.String()
		r.ToolInput = &input
	}
	return r
}

// NewFinalRecord builds the terminal record. It never carries tool fields.
func NewFinalRecord(answer string, elapsed time.Duration) StepRecord {
	return StepRecord{
		Label:   FinalAnswerLabel,
		Content: answer,
		Elapsed: elapsed,
	}
}

// IsFinal reports whether r is the terminal record.
func (r StepRecord) IsFinal() bool {
	return r.Label == FinalAnswerLabel
}

func stepLabel(n int, title string) string {
	return fmt.Sprintf("Step %d: %s", n, title)
}

// Session is the unit of export: a query and its ordered step records.
type Session struct {
	Query string
	Steps []StepRecord
}
