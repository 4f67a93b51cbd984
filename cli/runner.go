// Command execution for CLI commands.
//
// Information Hiding:
// - Provider, tool and engine wiring hidden
// - Session persistence hidden
// - Output formatting hidden

package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/google/uuid"

	"github.com/richinex/llao1/config"
	"github.com/richinex/llao1/export"
	"github.com/richinex/llao1/llm"
	"github.com/richinex/llao1/media"
	"github.com/richinex/llao1/reasoning"
	"github.com/richinex/llao1/search"
	"github.com/richinex/llao1/storage"
	"github.com/richinex/llao1/tools"
)

// Options holds CLI execution options. Zero values keep the configured
// settings.
type Options struct {
	ConfigPath     string
	Provider       string
	Model          string
	ThinkingTokens int
	Temperature    *float64
	MaxSteps       int
	DBPath         string
	Verbose        bool
	NoColor        bool
}

// AskOptions holds options for a single query.
type AskOptions struct {
	ImagePath  string
	ExportPath string
	Save       bool
}

// Runner runs reasoning sessions and renders them.
type Runner struct {
	engine *reasoning.Engine
	store  storage.Store
	base   reasoning.Request
	out    io.Writer
	logger *slog.Logger
}

func newRunner(engine *reasoning.Engine, store storage.Store, base reasoning.Request, out io.Writer, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{engine: engine, store: store, base: base, out: out, logger: logger}
}

// Close releases the session store.
func (r *Runner) Close() error {
	if r.store == nil {
		return nil
	}
	return r.store.Close()
}

// Ask answers one query, printing each step as it arrives. The finished run
// is stored under sessionID when the runner has a store.
func (r *Runner) Ask(ctx context.Context, prompt, sessionID string, opts AskOptions) (storage.Run, error) {
	req := r.base
	req.Prompt = prompt
	req.ImagePath = opts.ImagePath
	return r.run(ctx, req, sessionID, opts)
}

func (r *Runner) run(ctx context.Context, req reasoning.Request, sessionID string, opts AskOptions) (storage.Run, error) {
	printer := NewPrinter(r.out)
	last, err := r.engine.Run(ctx, req, printer.Update)
	if err != nil {
		if opts.ExportPath != "" && len(last.Steps) > 0 {
			if exportErr := export.WriteFile(opts.ExportPath, req.Prompt, last.Steps); exportErr != nil {
				r.logger.Warn("failed to export partial steps", "path", opts.ExportPath, "error", exportErr)
			} else {
				fmt.Fprintf(r.out, "Exported %d partial steps to %s\n", len(last.Steps), opts.ExportPath)
			}
		}
		return storage.Run{Query: req.Prompt, Steps: last.Steps, Tokens: last.Tokens}, fmt.Errorf("reasoning failed: %w", err)
	}

	run := storage.Run{
		SessionID: sessionID,
		Query:     req.Prompt,
		Steps:     last.Steps,
		Elapsed:   last.Elapsed,
		Tokens:    last.Tokens,
	}

	if opts.ExportPath != "" {
		if err := export.WriteFile(opts.ExportPath, run.Query, run.Steps); err != nil {
			return run, err
		}
		fmt.Fprintf(r.out, "Exported steps to %s\n", opts.ExportPath)
	}

	if opts.Save && r.store != nil {
		id, err := r.store.SaveRun(ctx, run)
		if err != nil {
			return run, fmt.Errorf("failed to save run: %w", err)
		}
		run.ID = id
		fmt.Fprintf(r.out, "Saved run %s\n", id)
	}
	return run, nil
}

// Chat reads queries from in until EOF or "exit". Each answer joins the
// session history, which is handed to the next query as previous messages
// and persisted when the runner has a store.
func (r *Runner) Chat(ctx context.Context, sessionID string, in io.Reader) error {
	var history []llm.ChatMessage
	if r.store != nil {
		loaded, err := r.store.Load(ctx, sessionID)
		if err != nil {
			return fmt.Errorf("failed to load history: %w", err)
		}
		history = loaded
		if len(history) > 0 {
			fmt.Fprintf(r.out, "Resuming session '%s' (%d messages)\n\n", sessionID, len(history))
		}
	}

	fmt.Fprintf(r.out, "LLao1 chat, session '%s'. Type 'exit' to quit.\n\n", sessionID)
	scanner := bufio.NewScanner(in)

	for {
		fmt.Fprint(r.out, "> ")
		if !scanner.Scan() {
			break
		}

		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}
		if input == "exit" || input == "quit" {
			break
		}

		req := r.base
		req.Prompt = input
		req.PreviousMessages = history

		run, err := r.run(ctx, req, sessionID, AskOptions{Save: true})
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			r.logger.Error("query failed", "error", err)
			continue
		}

		history = append(history,
			llm.UserMessage(input),
			llm.AssistantMessage(run.Answer()),
		)
		if r.store != nil {
			if err := r.store.Save(ctx, sessionID, history); err != nil {
				r.logger.Warn("failed to save history", "session", sessionID, "error", err)
			}
		}
	}

	return scanner.Err()
}

// Ask runs a single query.
func Ask(ctx context.Context, prompt string, askOpts AskOptions, opts Options) error {
	runner, err := Setup(opts, askOpts.Save)
	if err != nil {
		return err
	}
	defer runner.Close()

	_, err = runner.Ask(ctx, prompt, "", askOpts)
	return err
}

// Chat starts an interactive session on stdin. An empty sessionID starts a
// new session.
func Chat(ctx context.Context, sessionID string, opts Options) error {
	runner, err := Setup(opts, true)
	if err != nil {
		return err
	}
	defer runner.Close()

	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	return runner.Chat(ctx, sessionID, os.Stdin)
}

// Export writes a stored run as JSON to path, or to stdout for "" or "-".
func Export(ctx context.Context, runID, path string, opts Options) error {
	store, err := openStore(opts)
	if err != nil {
		return err
	}
	defer store.Close()

	return exportRun(ctx, store, runID, path, os.Stdout)
}

func exportRun(ctx context.Context, store storage.RunStorage, runID, path string, stdout io.Writer) error {
	run, err := store.LoadRun(ctx, runID)
	if errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("run %q not found", runID)
	}
	if err != nil {
		return err
	}

	if path != "" && path != "-" {
		return export.WriteFile(path, run.Query, run.Steps)
	}
	data, err := export.Export(run.Query, run.Steps)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(stdout, string(data))
	return err
}

// Sessions lists stored runs, newest first, optionally for one chat session.
func Sessions(ctx context.Context, sessionID string, opts Options) error {
	store, err := openStore(opts)
	if err != nil {
		return err
	}
	defer store.Close()

	return listRuns(ctx, store, sessionID, os.Stdout)
}

func listRuns(ctx context.Context, store storage.RunStorage, sessionID string, out io.Writer) error {
	runs, err := store.ListRuns(ctx, sessionID)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Fprintln(out, "No stored runs.")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "RUN\tSESSION\tCREATED\tSTEPS\tTOKENS\tQUERY")
	for _, run := range runs {
		session := run.SessionID
		if session == "" {
			session = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%s\n",
			run.ID, session, run.CreatedAt.Format("2006-01-02 15:04:05"),
			run.StepCount, run.Tokens, truncateString(run.Query, 60))
	}
	return w.Flush()
}

// Chats lists chat sessions, most recently used first.
func Chats(ctx context.Context, opts Options) error {
	store, err := openStore(opts)
	if err != nil {
		return err
	}
	defer store.Close()

	return listChats(ctx, store, os.Stdout)
}

func listChats(ctx context.Context, store storage.Store, out io.Writer) error {
	sessions, err := store.ListSessions(ctx)
	if err != nil {
		return err
	}
	if len(sessions) == 0 {
		fmt.Fprintln(out, "No chat sessions.")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SESSION\tMESSAGES\tRUNS")
	for _, id := range sessions {
		history, err := store.Load(ctx, id)
		if err != nil {
			return err
		}
		runs, err := store.ListRuns(ctx, id)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%s\t%d\t%d\n", id, len(history), len(runs))
	}
	return w.Flush()
}

// DeleteChat removes a chat session together with its stored runs.
func DeleteChat(ctx context.Context, sessionID string, opts Options) error {
	store, err := openStore(opts)
	if err != nil {
		return err
	}
	defer store.Close()

	return deleteChat(ctx, store, sessionID, os.Stdout)
}

func deleteChat(ctx context.Context, store storage.ConversationStorage, sessionID string, out io.Writer) error {
	exists, err := store.Exists(ctx, sessionID)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("session %q not found", sessionID)
	}
	if err := store.Delete(ctx, sessionID); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	fmt.Fprintf(out, "Deleted session %s\n", sessionID)
	return nil
}

// ListTools prints the tools the model can call whose name starts with
// prefix.
func ListTools(prefix string, verbose bool) error {
	registry, err := tools.WithDefaults(nil)
	if err != nil {
		return err
	}
	printTools(os.Stdout, registry, prefix, verbose)
	return nil
}

func printTools(out io.Writer, registry *tools.Registry, prefix string, verbose bool) {
	matched := registry.ListPrefix(prefix)
	if len(matched) == 0 {
		fmt.Fprintf(out, "No tools match %q.\n", prefix)
		return
	}

	fmt.Fprintln(out, "Available tools:")
	fmt.Fprintln(out)

	for _, meta := range matched {
		fmt.Fprintf(out, "  %s\n", meta.Name)
		fmt.Fprintf(out, "    %s\n", meta.Description)

		if verbose && len(meta.Parameters) > 0 {
			fmt.Fprintln(out, "    Parameters:")
			for _, param := range meta.Parameters {
				req := ""
				if param.Required {
					req = "*"
				}
				fmt.Fprintf(out, "      %s%s: %s - %s\n", param.Name, req, param.ParamType, param.Description)
			}
		}
		fmt.Fprintln(out)
	}
}

// Setup loads settings and wires the provider, tools and engine. With
// persist set the runner stores runs in the configured database.
func Setup(opts Options, persist bool) (*Runner, error) {
	settings, err := loadSettings(opts)
	if err != nil {
		return nil, err
	}

	logger := NewLogger(os.Stderr, opts.Verbose, opts.NoColor)
	slog.SetDefault(logger)

	provider, err := createProvider(settings)
	if err != nil {
		return nil, err
	}

	registry, err := tools.WithDefaults(
		search.New(settings.Tools.ExaAPIKey),
		tools.WithPython(settings.Tools.Python),
		tools.WithCodeTimeout(settings.Tools.CodeTimeout),
	)
	if err != nil {
		return nil, err
	}

	accounting, ok := reasoning.ParseAccounting(settings.Reasoning.Accounting)
	if !ok {
		return nil, fmt.Errorf("unknown accounting mode: %q", settings.Reasoning.Accounting)
	}

	engine := reasoning.New(
		llm.NewGateway(provider, llm.WithLogger(logger)),
		tools.NewDispatcher(registry, logger),
		reasoning.Options{
			MaxSteps:          settings.Reasoning.MaxSteps,
			FinalAnswerTokens: settings.Reasoning.FinalAnswerTokens,
			Accounting:        accounting,
			Images:            media.Encoder{},
			Logger:            logger,
		},
	)

	var store storage.Store
	if persist {
		s, err := storage.OpenSqlite(settings.Storage.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to open database: %w", err)
		}
		store = s
	}

	base := reasoning.Request{
		ThinkingTokens: settings.Reasoning.ThinkingTokens,
		Model:          settings.LLM.Model,
		Temperature:    llm.Float32(float32(settings.LLM.Temperature)),
	}

	logger.Debug("llao1 ready",
		"provider", settings.LLM.Provider,
		"model", settings.LLM.Model,
		"thinking_tokens", settings.Reasoning.ThinkingTokens,
		"max_steps", settings.Reasoning.MaxSteps,
		"tools", registry.Len(),
		"db", settings.Storage.Path)

	return newRunner(engine, store, base, os.Stdout, logger), nil
}

func loadSettings(opts Options) (config.Settings, error) {
	settings, err := config.Load(opts.ConfigPath, opts.Provider)
	if err != nil {
		return config.Settings{}, err
	}

	if opts.Model != "" {
		settings.LLM.Model = opts.Model
	}
	if opts.ThinkingTokens != 0 {
		settings.Reasoning.ThinkingTokens = opts.ThinkingTokens
	}
	if opts.Temperature != nil {
		settings.LLM.Temperature = *opts.Temperature
	}
	if opts.MaxSteps != 0 {
		settings.Reasoning.MaxSteps = opts.MaxSteps
	}
	if opts.DBPath != "" {
		settings.Storage.Path = opts.DBPath
	}

	if err := settings.Validate(); err != nil {
		return config.Settings{}, err
	}
	return settings, nil
}

func openStore(opts Options) (*storage.SqliteStorage, error) {
	settings, err := loadSettings(opts)
	if err != nil {
		return nil, err
	}
	store, err := storage.OpenSqlite(settings.Storage.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return store, nil
}

func createProvider(settings config.Settings) (llm.Provider, error) {
	providerType, err := llm.ParseProviderType(settings.LLM.Provider)
	if err != nil {
		return nil, err
	}

	apiKey, err := settings.APIKey()
	if err != nil {
		return nil, err
	}

	return providerType.
		Model(settings.LLM.Model).
		Host(settings.LLM.Host).
		Temperature(float32(settings.LLM.Temperature)).
		APIKey(apiKey)
}
