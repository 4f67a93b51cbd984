package reasoning

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"slices"
	"time"

	"github.com/richinex/llao1/llm"
	"github.com/richinex/llao1/model"
	"github.com/richinex/llao1/tools"
)

// ErrSessionDone is returned by Next once the final answer was delivered.
var ErrSessionDone = errors.New("reasoning session is done")

type state int

const (
	stateSeeding state = iota
	stateStepping
	stateFinalizing
	stateDone
	stateFailed
)

func (s state) String() string {
	switch s {
	case stateSeeding:
		return "seeding"
	case stateStepping:
		return "stepping"
	case stateFinalizing:
		return "finalizing"
	case stateDone:
		return "done"
	case stateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Progress is the state of a session after one Next call.
// Until Done, Steps holds the step records so far; the Done progress adds
// the terminal "Final Answer" record.
type Progress struct {
	Steps []model.StepRecord

	// Elapsed is the total model time, set only on the Done progress.
	// Tool time is not included.
	Elapsed time.Duration

	Tokens int
	Done   bool
}

// Final returns the terminal record, if the session is done.
func (p Progress) Final() (model.StepRecord, bool) {
	if !p.Done || len(p.Steps) == 0 {
		return model.StepRecord{}, false
	}
	return p.Steps[len(p.Steps)-1], true
}

// Session is one reasoning run. It is not safe for concurrent use; the
// conversation and records belong to it alone.
type Session struct {
	engine  *Engine
	request Request
	logger  *slog.Logger

	state        state
	err          error
	conversation []llm.ChatMessage
	steps        []model.StepRecord
	previous     *model.StepDirective
	stepCount    int
	elapsed      time.Duration
	tokens       int
}

// Next advances the session by one stage and returns the progress. After
// the Done progress it returns ErrSessionDone. A cancelled context or an
// unexpected failure ends the session with an error; Steps still returns
// the records made before it.
func (s *Session) Next(ctx context.Context) (p Progress, err error) {
	switch s.state {
	case stateDone:
		return Progress{}, ErrSessionDone
	case stateFailed:
		return Progress{}, s.err
	}

	defer func() {
		if r := recover(); r != nil {
			err = s.fail(fmt.Errorf("reasoning step panicked: %v", r))
			p = Progress{}
		}
	}()

	if err := ctx.Err(); err != nil {
		return Progress{}, s.fail(err)
	}

	if s.state == stateSeeding {
		s.seed()
		s.state = stateStepping
	}

	switch s.state {
	case stateStepping:
		if err := s.step(ctx); err != nil {
			return Progress{}, s.fail(err)
		}
		return s.progress(false), nil
	default:
		if err := s.finalize(ctx); err != nil {
			return Progress{}, s.fail(err)
		}
		s.state = stateDone
		return s.progress(true), nil
	}
}

// All returns an iterator over the session's progress. Iteration stops
// after the Done progress or after the first error, which is yielded.
func (s *Session) All(ctx context.Context) iter.Seq2[Progress, error] {
	return func(yield func(Progress, error) bool) {
		for {
			p, err := s.Next(ctx)
			if errors.Is(err, ErrSessionDone) {
				return
			}
			if !yield(p, err) || err != nil || p.Done {
				return
			}
		}
	}
}

// Steps returns a copy of the records made so far.
func (s *Session) Steps() []model.StepRecord {
	return append([]model.StepRecord(nil), s.steps...)
}

// Conversation returns a copy of the conversation so far.
func (s *Session) Conversation() []llm.ChatMessage {
	return append([]llm.ChatMessage(nil), s.conversation...)
}

// Query returns the prompt the session answers.
func (s *Session) Query() string {
	return s.request.Prompt
}

// Err returns the error that ended the session, if any.
func (s *Session) Err() error {
	return s.err
}

// Snapshot returns the session's exportable form.
func (s *Session) Snapshot() model.Session {
	return model.Session{Query: s.request.Prompt, Steps: s.Steps()}
}

func (s *Session) fail(err error) error {
	s.logger.Error("reasoning session failed",
		"state", s.state,
		"steps", len(s.steps),
		"error", err)
	s.state = stateFailed
	s.err = err
	return err
}

func (s *Session) seed() {
	s.conversation = append(s.conversation,
		llm.SystemMessage(SystemPrompt),
		llm.UserMessage(s.request.Prompt),
		llm.AssistantMessage(Acknowledgement),
	)
	s.conversation = append(s.conversation, s.request.PreviousMessages...)

	if s.request.ImagePath == "" {
		return
	}
	encoded, err := s.encodeImage(s.request.ImagePath)
	if err != nil {
		s.logger.Warn("image encoding failed, continuing text only",
			"path", s.request.ImagePath,
			"error", err)
		s.conversation = append(s.conversation, llm.UserMessage(imageNote(err)))
		return
	}
	s.conversation = append(s.conversation, llm.ImageMessage(encoded))
}

func (s *Session) encodeImage(path string) (string, error) {
	if s.engine.opts.Images == nil {
		return "", errors.New("no image encoder configured")
	}
	return s.engine.opts.Images.EncodeImage(path)
}

func (s *Session) step(ctx context.Context) error {
	s.stepCount++
	n := s.stepCount
	budget := s.engine.budget.For(s.request.ThinkingTokens, s.previous)

	s.logger.Debug("reasoning step", "step", n, "max_tokens", budget)

	start := time.Now()
	res := s.engine.gateway.Step(ctx, slices.Clip(s.conversation), llm.CallOptions{
		Model:       s.request.Model,
		MaxTokens:   budget,
		Temperature: s.request.Temperature,
	})
	elapsed := time.Since(start)
	if err := ctx.Err(); err != nil {
		return err
	}

	d := res.Directive
	if call, ok := tools.CallFor(d); ok {
		result := s.engine.dispatcher.Dispatch(ctx, call)
		if err := ctx.Err(); err != nil {
			return err
		}
		d.ToolResult = &result
	}

	raw, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("encode step %d: %w", n, err)
	}

	s.steps = append(s.steps, model.NewStepRecord(n, d, elapsed))
	s.conversation = append(s.conversation, llm.AssistantMessage(string(raw)))
	if d.ToolResult != nil {
		s.conversation = append(s.conversation, llm.SystemMessage(ToolResultPrefix+*d.ToolResult))
	}
	s.elapsed += elapsed
	s.tokens += s.engine.opts.Accounting.charge(budget, res.Usage)
	s.previous = &d

	s.logger.Debug("reasoning step done",
		"step", n,
		"title", d.Title,
		"tool", toolName(d),
		"next_action", d.NextAction,
		"elapsed", elapsed,
		"failed", res.Failed)

	if d.IsFinal() || n > s.engine.opts.MaxSteps {
		s.state = stateFinalizing
	}
	return nil
}

func (s *Session) finalize(ctx context.Context) error {
	s.conversation = append(s.conversation, llm.UserMessage(FinalAnswerPrompt))

	start := time.Now()
	res := s.engine.gateway.Final(ctx, slices.Clip(s.conversation), llm.CallOptions{
		Model:       s.request.Model,
		MaxTokens:   s.engine.opts.FinalAnswerTokens,
		Temperature: s.request.Temperature,
	})
	elapsed := time.Since(start)
	if err := ctx.Err(); err != nil {
		return err
	}

	s.steps = append(s.steps, model.NewFinalRecord(res.Text, elapsed))
	s.elapsed += elapsed
	if s.engine.opts.Accounting == AccountReported && res.Usage != nil {
		s.tokens += int(res.Usage.TotalTokens)
	}

	s.logger.Info("final answer",
		"steps", s.stepCount,
		"elapsed", s.elapsed,
		"tokens", s.tokens,
		"failed", res.Failed)
	return nil
}

func (s *Session) progress(done bool) Progress {
	p := Progress{
		Steps:  s.Steps(),
		Tokens: s.tokens,
		Done:   done,
	}
	if done {
		p.Elapsed = s.elapsed
	}
	return p
}

func toolName(d model.StepDirective) string {
	if d.Tool == nil {
		return ""
	}
	return string(*d.Tool)
}
