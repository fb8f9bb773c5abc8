package cli

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/cloudwego/eino/compose"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dyike/MomentumGo/config"
	"github.com/dyike/MomentumGo/consts"
	"github.com/dyike/MomentumGo/internal/debug"
	"github.com/dyike/MomentumGo/internal/display"
	"github.com/dyike/MomentumGo/internal/graph"
	"github.com/dyike/MomentumGo/internal/logging"
	"github.com/dyike/MomentumGo/internal/models"
	"github.com/dyike/MomentumGo/internal/trading"
	"github.com/dyike/MomentumGo/pkg/utils"
)

var Version = "0.1.0"

// app carries what every subcommand shares once the root has parsed flags.
type app struct {
	mu          sync.RWMutex
	cfg         *config.Config
	manager     *config.Manager
	logger      *zap.Logger
	sessionOpts []trading.SessionOption

	configPath string
	debug      bool
}

func (a *app) currentConfig() *config.Config {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.cfg
}

// setConfig installs a config read from a file, with env values layered on top.
func (a *app) setConfig(cfg config.Config) {
	cfg.ApplyEnvOverrides()
	a.replaceConfig(cfg)
}

func (a *app) replaceConfig(cfg config.Config) {
	a.mu.Lock()
	a.cfg = &cfg
	a.mu.Unlock()
}

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	return newRootCmd(config.DefaultConfig())
}

func newRootCmd(cfg *config.Config, sessionOpts ...trading.SessionOption) *cobra.Command {
	a := &app{
		cfg:         cfg,
		logger:      zap.NewNop(),
		sessionOpts: sessionOpts,
	}

	rootCmd := &cobra.Command{
		Use:   "momentum",
		Short: "MomentumGo - LLM momentum analyst",
		Long: `MomentumGo runs a momentum analyst backed by a large language model.
The model reads price history and technical indicators through two tools and
writes a momentum and trend turning point report for a ticker.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = a.logger.Sync()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runInteractive(cmd)
		},
	}

	rootCmd.AddCommand(a.newStepCmd())
	rootCmd.AddCommand(a.newAnalyzeCmd())
	rootCmd.AddCommand(a.newConfigCmd())
	rootCmd.AddCommand(a.newResultsCmd())
	rootCmd.AddCommand(newVersionCmd())

	rootCmd.PersistentFlags().BoolVar(&a.debug, "debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&a.configPath, "config", "", "Configuration file path (.json, .yaml or .yml)")

	return rootCmd
}

func (a *app) setup(cmd *cobra.Command) error {
	if a.configPath != "" && cmd.Name() != "init" {
		m, err := config.NewManager(config.WithConfigPath(a.configPath))
		if err != nil {
			return fmt.Errorf("failed to load config file: %w", err)
		}
		a.manager = m
		a.setConfig(m.Get())
	}

	if a.debug {
		cfg := *a.currentConfig()
		cfg.Debug = true
		a.replaceConfig(cfg)
	}
	cfg := a.currentConfig()

	logger, err := logging.New(cfg.Debug)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	a.logger = logger

	if err := cfg.EnsureDirectories(); err != nil {
		return fmt.Errorf("failed to create directories: %w", err)
	}

	if err := debug.NewEinoDebugger(cfg, logger).Initialize(commandContext(cmd)); err != nil {
		return err
	}
	return nil
}

func (a *app) newStepCmd() *cobra.Command {
	var date string
	var save bool
	cmd := &cobra.Command{
		Use:   "step SYMBOL",
		Short: "Run the momentum analyst once",
		Long: `Invoke the momentum analyst a single time. The output is either the
momentum report or the tool calls the model asked for.
Example: momentum step AAPL --date=2024-03-15`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runStep(commandContext(cmd), cmd.OutOrStdout(), args[0], defaultDate(date), save)
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "Analysis date in YYYY-MM-DD format (today if not provided)")
	cmd.Flags().BoolVar(&save, "save", false, "Write the report to the results directory")
	return cmd
}

func (a *app) newAnalyzeCmd() *cobra.Command {
	var date string
	var save bool
	cmd := &cobra.Command{
		Use:   "analyze SYMBOL",
		Short: "Run the momentum analyst with tools until it reports",
		Long: `Run the analyst and its tools in a loop until the model writes its
report. Requires DATAFLOWS_URL to point at the data service.
Example: momentum analyze AAPL --date=2024-03-15 --save`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runAnalyze(commandContext(cmd), cmd.OutOrStdout(), args[0], defaultDate(date), save)
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "Analysis date in YYYY-MM-DD format (today if not provided)")
	cmd.Flags().BoolVar(&save, "save", false, "Write the report to the results directory")
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "MomentumGo v%s\n", Version)
			fmt.Fprintln(out, "LLM momentum and trend turning point analyst")
		},
	}
}

func (a *app) newConfigCmd() *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration management",
	}

	configCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprint(cmd.OutOrStdout(), display.RenderConfig(a.currentConfig()))
		},
	})

	configCmd.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Validate configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			return validateConfig(cmd.OutOrStdout(), a.currentConfig())
		},
	})

	configCmd.AddCommand(&cobra.Command{
		Use:   "init PATH",
		Short: "Write the current configuration to a file, without API keys",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := *a.currentConfig()
			cfg.OpenAIAPIKey = ""
			cfg.DeepSeekAPIKey = ""
			m, err := config.NewManager(
				config.WithConfigPath(args[0]),
				config.WithInitialConfig(&cfg),
				config.WithLogger(a.logger))
			if err != nil {
				return err
			}
			// an existing file is opened rather than created; replace its contents
			if err := m.Update(cfg); err != nil {
				return err
			}
			display.DisplaySuccess(cmd.OutOrStdout(), "configuration written to "+m.Path())
			return nil
		},
	})

	return configCmd
}

func (a *app) newResultsCmd() *cobra.Command {
	resultsCmd := &cobra.Command{
		Use:   "results",
		Short: "Browse saved momentum reports",
	}

	var sortBy string
	var reverse bool
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List saved reports",
		RunE: func(cmd *cobra.Command, args []string) error {
			results, err := NewResultsManager(a.currentConfig().ResultsDir).ListResults(sortBy, reverse)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(results) == 0 {
				fmt.Fprintln(out, "No saved reports.")
				return nil
			}
			for _, r := range results {
				fmt.Fprintf(out, "%-10s %s  %-8s %s\n", r.Symbol, r.Date, r.Signal, r.FilePath)
			}
			return nil
		},
	}
	listCmd.Flags().StringVar(&sortBy, "sort", "date", "Sort by date, symbol or created")
	listCmd.Flags().BoolVar(&reverse, "reverse", false, "Reverse the sort order")

	resultsCmd.AddCommand(listCmd)
	resultsCmd.AddCommand(&cobra.Command{
		Use:   "show SYMBOL DATE",
		Short: "Print a saved report",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			content, err := NewResultsManager(a.currentConfig().ResultsDir).ShowResult(args[0], args[1])
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), content)
			return nil
		},
	})
	resultsCmd.AddCommand(&cobra.Command{
		Use:   "delete SYMBOL DATE",
		Short: "Delete a saved report",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return NewResultsManager(a.currentConfig().ResultsDir).DeleteResult(args[0], args[1])
		},
	})
	return resultsCmd
}

func (a *app) newSession(ctx context.Context) (*trading.MomentumSession, error) {
	opts := append([]trading.SessionOption{trading.WithLogger(a.logger)}, a.sessionOpts...)
	return trading.NewMomentumSession(ctx, a.currentConfig(), opts...)
}

func (a *app) runStep(ctx context.Context, out io.Writer, symbol, date string, save bool) error {
	session, err := a.newSession(ctx)
	if err != nil {
		return err
	}
	state, err := session.Step(ctx, symbol, date)
	if err != nil {
		return fmt.Errorf("momentum step failed: %w", err)
	}
	return a.finish(out, state, save)
}

func (a *app) runAnalyze(ctx context.Context, out io.Writer, symbol, date string, save bool) error {
	session, err := a.newSession(ctx)
	if err != nil {
		return err
	}

	events := make(chan *models.ChatResp, 64)
	cb := graph.NewLoggerCallback(a.logger, events)

	runCtx, cancel := context.WithCancel(ctx)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case evt := <-events:
				printEvent(out, evt)
			case <-runCtx.Done():
				return
			}
		}
	}()

	fmt.Fprintf(out, "🚀 Starting momentum analysis for %s on %s\n", symbol, date)
	state, err := session.Analyze(ctx, symbol, date, compose.WithCallbacks(cb))
	cancel()
	wg.Wait()
	drainEvents(out, events)
	if err != nil {
		return fmt.Errorf("analysis failed: %w", err)
	}
	return a.finish(out, state, save)
}

func (a *app) finish(out io.Writer, state *models.TradingState, save bool) error {
	display.NewResultsDisplay(state.CompanyOfInterest, state.TradeDate).DisplayAnalysisResults(out, state)
	if !save {
		return nil
	}
	if state.MomentumReport == "" {
		display.DisplayWarning(out, "no momentum report to save, the model asked for tools")
		return nil
	}
	path, err := utils.WriteMarkdown(a.currentConfig().ResultsDir,
		utils.ReportFileName(state.CompanyOfInterest, state.TradeDate),
		utils.ReportMarkdown(state.CompanyOfInterest, state.TradeDate, state.MomentumReport))
	if err != nil {
		return err
	}
	a.logger.Info("report saved", zap.String("path", path))
	display.DisplaySuccess(out, "report saved to "+path)
	return nil
}

func (a *app) runInteractive(cmd *cobra.Command) error {
	ctx := commandContext(cmd)
	out := cmd.OutOrStdout()

	if a.manager != nil {
		watchCtx, cancel := context.WithCancel(ctx)
		defer cancel()
		err := a.manager.Watch(watchCtx, func(cfg config.Config) {
			a.setConfig(cfg)
			a.logger.Info("configuration reloaded", zap.String("path", a.manager.Path()))
		})
		if err != nil {
			a.logger.Warn("config watch disabled", zap.Error(err))
		}
	}

	fmt.Fprintln(out, "🚀 Welcome to MomentumGo")
	for {
		symbol, err := PromptForTicker()
		if err != nil {
			return err
		}
		date, err := PromptForAnalysisDate()
		if err != nil {
			return err
		}
		mode, err := PromptForMode(a.currentConfig().DataflowsURL != "")
		if err != nil {
			return err
		}
		save, err := PromptForSave()
		if err != nil {
			return err
		}

		if mode == modeAnalyze {
			err = a.runAnalyze(ctx, out, symbol, date, save)
		} else {
			err = a.runStep(ctx, out, symbol, date, save)
		}
		if err != nil {
			display.DisplayError(out, err, "analysis")
		}

		again, err := PromptForRestartOrExit()
		if err != nil || !again {
			fmt.Fprintln(out, "👋 Thank you for using MomentumGo!")
			return err
		}
	}
}

func validateConfig(out io.Writer, cfg *config.Config) error {
	fmt.Fprintln(out, "🔍 Validating MomentumGo configuration...")
	if err := cfg.Validate(); err != nil {
		display.DisplayError(out, err, "config")
		return err
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return fmt.Errorf("directory validation failed: %w", err)
	}

	warnings := 0
	if cfg.APIKey() == "" {
		display.DisplayWarning(out, fmt.Sprintf("no API key set for provider %s", cfg.LLMProvider))
		warnings++
	}
	if cfg.DataflowsURL == "" {
		display.DisplayWarning(out, "DATAFLOWS_URL not set, only 'step' is available")
		warnings++
	}
	if warnings == 0 {
		display.DisplaySuccess(out, "configuration is valid")
	} else {
		display.DisplaySuccess(out, fmt.Sprintf("configuration is valid with %d warnings", warnings))
	}
	return nil
}

func printEvent(out io.Writer, evt *models.ChatResp) {
	if evt == nil {
		return
	}
	switch evt.Event {
	case "tool_calls":
		for _, tc := range evt.ToolCallChunks {
			fmt.Fprintf(out, "🔧 %s(%s)\n", tc.Name, tc.Args)
		}
	case "tool_call_result":
		fmt.Fprintf(out, "📥 tool result %s (%d bytes)\n", evt.ToolCallID, len(evt.Content))
	}
}

func drainEvents(out io.Writer, events <-chan *models.ChatResp) {
	for {
		select {
		case evt := <-events:
			printEvent(out, evt)
		default:
			return
		}
	}
}

func defaultDate(date string) string {
	if date == "" {
		return time.Now().Format(consts.DateLayout)
	}
	return date
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
