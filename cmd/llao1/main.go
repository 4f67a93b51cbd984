// Package main provides the llao1 CLI entry point.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/richinex/llao1/cli"
	"github.com/spf13/cobra"
)

var (
	// Global flags
	configPath     string
	provider       string
	model          string
	thinkingTokens int
	temperature    float64
	maxSteps       int
	dbPath         string
	verbose        bool
	noColor        bool
)

func main() {
	// Load .env file if present (ignore "file not found" errors)
	if err := godotenv.Load(); err != nil {
		if !os.IsNotExist(err) {
			fmt.Fprintf(os.Stderr, "Warning: failed to load .env file: %v\n", err)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rootCmd := &cobra.Command{
		Use:   "llao1",
		Short: "Multi-step reasoning with tool calls on local or hosted models",
		Long: `llao1 makes a model reason in explicit steps. Each step is a JSON
object with a title, content and the next action; a step may run a tool
(Python code, web search or page retrieval) whose result feeds the next
step. After at most 15 steps the model writes a final answer.

Ollama is the default provider and needs no API key. Web search needs
EXA_API_KEY.`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "YAML config file (default $LLAO1_CONFIG)")
	rootCmd.PersistentFlags().StringVarP(&provider, "provider", "p", "", "LLM provider (ollama, openai, anthropic, deepseek, gemini)")
	rootCmd.PersistentFlags().StringVarP(&model, "model", "m", "", "Model name (default per provider)")
	rootCmd.PersistentFlags().IntVarP(&thinkingTokens, "thinking-tokens", "t", 0, "Max tokens per reasoning step (default 600)")
	rootCmd.PersistentFlags().Float64Var(&temperature, "temperature", 0, "Sampling temperature (default 0.2)")
	rootCmd.PersistentFlags().IntVar(&maxSteps, "max-steps", 0, "Step limit before the final answer is forced (default 15)")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "Database path for stored sessions (default ~/.llao1/llao1.db)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log every step, tool call and retry")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored log output")

	rootCmd.AddCommand(askCmd(ctx))
	rootCmd.AddCommand(chatCmd(ctx))
	rootCmd.AddCommand(exportCmd(ctx))
	rootCmd.AddCommand(sessionsCmd(ctx))
	rootCmd.AddCommand(toolsCmd())

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func options(cmd *cobra.Command) cli.Options {
	opts := cli.Options{
		ConfigPath:     configPath,
		Provider:       provider,
		Model:          model,
		ThinkingTokens: thinkingTokens,
		MaxSteps:       maxSteps,
		DBPath:         dbPath,
		Verbose:        verbose,
		NoColor:        noColor,
	}
	if cmd.Flags().Changed("temperature") {
		t := temperature
		opts.Temperature = &t
	}
	return opts
}

func askCmd(ctx context.Context) *cobra.Command {
	var askOpts cli.AskOptions

	cmd := &cobra.Command{
		Use:   "ask [query]",
		Short: "Answer one query, showing each reasoning step",
		Long: `Answer one query. Steps are printed as they arrive, followed by the
final answer and the total thinking time.

Use --image to attach a picture for multimodal models and --export to
write the steps as JSON.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cli.Ask(ctx, args[0], askOpts, options(cmd))
		},
	}

	cmd.Flags().StringVarP(&askOpts.ImagePath, "image", "i", "", "Image file to attach to the query")
	cmd.Flags().StringVarP(&askOpts.ExportPath, "export", "e", "", "Write the steps as JSON to this file")
	cmd.Flags().BoolVar(&askOpts.Save, "save", true, "Store the run in the database")

	return cmd
}

func chatCmd(ctx context.Context) *cobra.Command {
	var sessionID string

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive session that remembers earlier answers",
		Long: `Start an interactive session. Each query sees the earlier queries and
final answers of the session. History and runs are stored in the
database; pass --session to resume.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cli.Chat(ctx, sessionID, options(cmd))
		},
	}

	cmd.Flags().StringVarP(&sessionID, "session", "s", "", "Session ID to resume (default: new session)")

	return cmd
}

func exportCmd(ctx context.Context) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "export [run-id]",
		Short: "Export a stored run as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cli.Export(ctx, args[0], output, options(cmd))
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "llao1_reasoning_steps.json", "Output file, - for stdout")

	return cmd
}

func sessionsCmd(ctx context.Context) *cobra.Command {
	var sessionID string
	var chats bool

	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "List stored runs or chat sessions",
		Long: `List stored runs, newest first. With --chats list the chat sessions
instead, most recently used first; pass one to 'chat --session' to resume it.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if chats {
				return cli.Chats(ctx, options(cmd))
			}
			return cli.Sessions(ctx, sessionID, options(cmd))
		},
	}

	cmd.Flags().StringVarP(&sessionID, "session", "s", "", "Only list runs of this chat session")
	cmd.Flags().BoolVar(&chats, "chats", false, "List chat sessions instead of runs")

	cmd.AddCommand(&cobra.Command{
		Use:   "rm [session-id]",
		Short: "Delete a chat session with its history and runs",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cli.DeleteChat(ctx, args[0], options(cmd))
		},
	})

	return cmd
}

func toolsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tools [prefix]",
		Short: "List the tools the model can call",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			prefix := ""
			if len(args) == 1 {
				prefix = args[0]
			}
			return cli.ListTools(prefix, verbose)
		},
	}
}
