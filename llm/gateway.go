package llm

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/richinex/llao1/internal/json"
	"github.com/richinex/llao1/internal/retry"
	"github.com/richinex/llao1/model"
)

// DefaultAttempts is the number of tries a gateway call gets before it
// degrades to a synthetic result.
const DefaultAttempts = 3

// DefaultBackoff is the pause between attempts.
const DefaultBackoff = time.Second

// StepResult is the outcome of a structured gateway call.
type StepResult struct {
	Directive model.StepDirective
	Usage     *TokenUsage
	Failed    bool
}

// FinalResult is the outcome of a free-text gateway call.
type FinalResult struct {
	Text   string
	Usage  *TokenUsage
	Failed bool
}

// GatewayOption configures a Gateway.
type GatewayOption func(*Gateway)

// WithRetryPolicy replaces the default three attempts with a one second pause.
func WithRetryPolicy(p retry.Policy) GatewayOption {
	return func(g *Gateway) { g.policy = p }
}

// WithLogger sets the gateway logger.
func WithLogger(l *slog.Logger) GatewayOption {
	return func(g *Gateway) { g.logger = l }
}

// Gateway wraps a Provider with bounded retry and response parsing.
//
// Information Hiding:
// - Retry counting and backoff hidden behind Step and Final
// - JSON extraction and directive defaulting hidden
// - Failures converted to terminal-shaped results, never returned as errors
type Gateway struct {
	provider Provider
	policy   retry.Policy
	logger   *slog.Logger
}

// NewGateway creates a gateway for provider.
func NewGateway(provider Provider, opts ...GatewayOption) *Gateway {
	g := &Gateway{
		provider: provider,
		policy:   retry.Fixed(DefaultAttempts, DefaultBackoff),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Provider returns the underlying provider.
func (g *Gateway) Provider() Provider {
	return g.provider
}

// Step asks for one structured reasoning step. After the final failed
// attempt it returns an "Error" directive whose next action is final_answer,
// so the caller stops stepping.
func (g *Gateway) Step(ctx context.Context, conversation []ChatMessage, opts CallOptions) StepResult {
	opts.Format = ResponseFormatJSONObject

	var result StepResult
	err := g.do(ctx, "step", func(ctx context.Context) error {
		resp, err := g.provider.Chat(ctx, conversation, opts)
		if err != nil {
			return err
		}
		obj, err := json.ExtractObject(resp.Content)
		if err != nil {
			return err
		}
		d, err := model.ParseDirective([]byte(obj))
		if err != nil {
			return err
		}
		result = StepResult{Directive: d, Usage: resp.Usage}
		return nil
	})
	if err != nil {
		return StepResult{
			Directive: model.StepDirective{
				Title:      "Error",
				Content:    fmt.Sprintf("Failed to generate step after %d attempts. Error: %v", g.attempts(), err),
				NextAction: model.ActionFinalAnswer,
			},
			Failed: true,
		}
	}
	return result
}

// Final asks for the free-text final answer.
func (g *Gateway) Final(ctx context.Context, conversation []ChatMessage, opts CallOptions) FinalResult {
	opts.Format = ResponseFormatText

	var result FinalResult
	err := g.do(ctx, "final", func(ctx context.Context) error {
		resp, err := g.provider.Chat(ctx, conversation, opts)
		if err != nil {
			return err
		}
		result = FinalResult{Text: resp.Content, Usage: resp.Usage}
		return nil
	})
	if err != nil {
		return FinalResult{
			Text:   fmt.Sprintf("Failed to generate final answer after %d attempts. Error: %v", g.attempts(), err),
			Failed: true,
		}
	}
	return result
}

func (g *Gateway) do(ctx context.Context, mode string, fn func(context.Context) error) error {
	policy := g.policy
	userHook := policy.OnRetry
	policy.OnRetry = func(attempt int, err error) {
		g.logger.Warn("model call failed, retrying",
			"provider", g.provider.Name(),
			"mode", mode,
			"attempt", attempt,
			"error", err)
		if userHook != nil {
			userHook(attempt, err)
		}
	}

	err := policy.Do(ctx, fn)
	if err != nil {
		g.logger.Error("model call gave up",
			"provider", g.provider.Name(),
			"mode", mode,
			"attempts", g.attempts(),
			"error", err)
	}
	return err
}

func (g *Gateway) attempts() int {
	if g.policy.Attempts < 1 {
		return 1
	}
	return g.policy.Attempts
}
