package main

import (
	"bufio"
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/atirut-w/gpt-code/harness"
	"github.com/atirut-w/gpt-code/llmrunner"
)

var (
	configPath  string
	provider    string
	model       string
	autoConfirm bool
	verbose     bool

	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "gpt-code",
	Short: "Interactive LLM-driven coding assistant",
	Long: `gpt-code is an interactive coding assistant. It reads prompts from the
terminal, sends them to a model provider, and lets the model work in the
current directory through a catalog of file, search, and shell tools.

Shell commands proposed by the model are printed and require confirmation
before they run. Type /help inside the session to list slash commands.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSession(cmd.Context())
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", defaultConfigPath(), "path to YAML config file")
	rootCmd.PersistentFlags().StringVarP(&provider, "provider", "p", "", "model provider (openai, anthropic, ...)")
	rootCmd.PersistentFlags().StringVarP(&model, "model", "m", "", "model identifier")
	rootCmd.PersistentFlags().BoolVarP(&autoConfirm, "yes", "y", false, "run shell commands without confirmation")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

func defaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return home + "/.config/gpt-code/config.yaml"
}

func buildLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.OutputPaths = []string{"stderr"}

	lvl := zapcore.WarnLevel
	if verbose {
		lvl = zapcore.DebugLevel
	} else if level != "" {
		if err := lvl.Set(level); err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", level, err)
		}
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	return cfg.Build()
}

func runSession(ctx context.Context) error {
	cfg, err := harness.LoadConfig(configPath)
	if err != nil {
		return err
	}
	if provider != "" {
		cfg.Provider = provider
	}
	if model != "" {
		cfg.Model = model
	}
	if autoConfirm {
		cfg.AutoConfirm = true
	}

	logger, err = buildLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	tools := harness.NewRegistry()
	harness.RegisterFileTools(tools)
	harness.RegisterSearchTools(tools)

	// One buffered reader over stdin, shared by the REPL and the confirmer
	// so neither reads past a line meant for the other.
	stdin := bufio.NewReader(os.Stdin)

	confirm := harness.StdinConfirmer(stdin, os.Stdout)
	if cfg.AutoConfirm {
		confirm = harness.AlwaysConfirm
	}
	harness.RegisterShellTool(tools, confirm)

	commands := harness.NewCommandRegistry()
	harness.RegisterBuiltins(commands, os.Stdout)

	backend, err := llmrunner.NewGollmProvider(cfg.Provider, os.Getenv("GPTCODE_API_KEY"),
		llmrunner.WithModel(cfg.Model))
	if err != nil {
		return fmt.Errorf("initialize provider %s: %w", cfg.Provider, err)
	}

	emitter := harness.NewEmitter(256)
	defer emitter.Close()
	go drainEvents(emitter, logger)

	runner := llmrunner.New(backend, tools,
		llmrunner.WithLogger(logger),
		llmrunner.WithEmitter(emitter),
		llmrunner.WithRunnerModel(cfg.Model),
		llmrunner.WithMaxRounds(cfg.MaxToolRounds),
		llmrunner.WithLoopWindow(cfg.LoopWindow),
		llmrunner.WithRetryPolicy(llmrunner.RetryPolicy{
			MaxRetries:        cfg.Retry.MaxRetries,
			BaseDelay:         cfg.Retry.BaseDelay,
			MaxDelay:          cfg.Retry.MaxDelay,
			BackoffMultiplier: 2.0,
			Jitter:            true,
		}))

	repl := harness.NewREPL(commands, tools, runner, &harness.REPLConfig{
		Input:   stdin,
		Logger:  logger,
		Emitter: emitter,
	})

	logger.Info("session starting",
		zap.String("provider", cfg.Provider),
		zap.String("model", cfg.Model),
		zap.Int("tools", tools.Count()))

	code := repl.Run(ctx)
	if code != 0 {
		return exitError{code: code}
	}
	return nil
}

// drainEvents forwards session events into the structured log at debug level.
func drainEvents(emitter *harness.Emitter, logger *zap.Logger) {
	for event := range emitter.Events() {
		logger.Debug("session event",
			zap.String("kind", string(event.Kind)),
			zap.Any("data", event.Data))
	}
}

// exitError carries a non-zero REPL exit code through cobra.
type exitError struct{ code int }

func (e exitError) Error() string { return fmt.Sprintf("exit code %d", e.code) }

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		if ee, ok := err.(exitError); ok {
			os.Exit(ee.code)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
