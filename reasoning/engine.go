// Package reasoning drives a model through self-reflective JSON steps,
// running tools between steps, until it produces a final answer.
//
// Information Hiding:
// - Conversation seeding and growth hidden inside Session
// - Step limit, token budget and accounting hidden
// - Tool dispatch coordination hidden
//
// A Session is a pull-based producer: each call to Next performs one
// model round-trip (plus any tool call) and returns the progress so far.
package reasoning

import (
	"context"
	"log/slog"

	"github.com/richinex/llao1/llm"
	"github.com/richinex/llao1/tools"
)

// Defaults applied to zero-valued Options and Request fields.
const (
	DefaultMaxSteps          = 15
	DefaultThinkingTokens    = 600
	DefaultFinalAnswerTokens = 1200
	DefaultTemperature       = float32(0.2)
)

// Gateway is the model access the loop needs. *llm.Gateway implements it.
// Implementations never fail; exhausted retries come back as terminal
// results.
type Gateway interface {
	Step(ctx context.Context, conversation []llm.ChatMessage, opts llm.CallOptions) llm.StepResult
	Final(ctx context.Context, conversation []llm.ChatMessage, opts llm.CallOptions) llm.FinalResult
}

// Dispatcher runs tools. *tools.Dispatcher implements it.
type Dispatcher interface {
	Dispatch(ctx context.Context, call tools.Call) string
}

// ImageEncoder turns an image file into a base64 JPEG payload.
type ImageEncoder interface {
	EncodeImage(path string) (string, error)
}

// ImageEncoderFunc adapts a function to ImageEncoder.
type ImageEncoderFunc func(path string) (string, error)

// EncodeImage calls f(path).
func (f ImageEncoderFunc) EncodeImage(path string) (string, error) {
	return f(path)
}

// Options configures an Engine. Zero values select the defaults.
type Options struct {
	// MaxSteps bounds stepping: it stops once the step counter exceeds
	// MaxSteps, so at most MaxSteps+1 structured calls are made.
	MaxSteps int

	// FinalAnswerTokens is the max output of the final call.
	FinalAnswerTokens int

	// ToolBonus is added to the thinking tokens after a tool ran.
	// Negative disables the bonus.
	ToolBonus int

	Accounting Accounting

	// Images encodes Request.ImagePath. Without it an image request
	// degrades to the text-only note.
	Images ImageEncoder

	Logger *slog.Logger
}

// Engine starts reasoning sessions. It holds no per-session state and may
// be shared by concurrent sessions.
type Engine struct {
	gateway    Gateway
	dispatcher Dispatcher
	opts       Options
	budget     TokenBudget
	logger     *slog.Logger
}

// New creates an engine.
func New(gateway Gateway, dispatcher Dispatcher, opts Options) *Engine {
	if opts.MaxSteps <= 0 {
		opts.MaxSteps = DefaultMaxSteps
	}
	if opts.FinalAnswerTokens <= 0 {
		opts.FinalAnswerTokens = DefaultFinalAnswerTokens
	}
	bonus := opts.ToolBonus
	switch {
	case bonus == 0:
		bonus = DefaultToolBonus
	case bonus < 0:
		bonus = 0
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		gateway:    gateway,
		dispatcher: dispatcher,
		opts:       opts,
		budget:     TokenBudget{Bonus: bonus},
		logger:     logger,
	}
}

// Request is one reasoning query.
type Request struct {
	Prompt string

	// ThinkingTokens is the max output of each structured call.
	ThinkingTokens int

	// Model overrides the provider's default model.
	Model string

	// ImagePath, if set, attaches an image after the seed messages.
	ImagePath string

	// PreviousMessages continue an earlier conversation. They follow the
	// acknowledgement.
	PreviousMessages []llm.ChatMessage

	Temperature *float32
}

// Start creates a session for req. No model call happens until Next.
func (e *Engine) Start(req Request) *Session {
	if req.ThinkingTokens <= 0 {
		req.ThinkingTokens = DefaultThinkingTokens
	}
	if req.Temperature == nil {
		req.Temperature = llm.Float32(DefaultTemperature)
	}
	req.PreviousMessages = append([]llm.ChatMessage(nil), req.PreviousMessages...)

	return &Session{
		engine:  e,
		request: req,
		state:   stateSeeding,
		logger:  e.logger.With("query", preview(req.Prompt)),
	}
}

// Run drives a session to completion and returns its last progress.
// onProgress, if set, sees every intermediate progress value. On error the
// returned progress holds the records made before the failure.
func (e *Engine) Run(ctx context.Context, req Request, onProgress func(Progress)) (Progress, error) {
	var last Progress
	session := e.Start(req)
	for p, err := range session.All(ctx) {
		if err != nil {
			last.Steps = session.Steps()
			return last, err
		}
		last = p
		if onProgress != nil {
			onProgress(p)
		}
	}
	return last, nil
}

// preview shortens s to 60 runes for log attributes.
func preview(s string) string {
	runes := []rune(s)
	if len(runes) > 60 {
		return string(runes[:60]) + "..."
	}
	return s
}
