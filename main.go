package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"jekyll_hyde/config"
	"jekyll_hyde/diagnostics"
	"jekyll_hyde/generation"
	"jekyll_hyde/handlers"
)

var (
	cfg    *config.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "jekyll_hyde",
	Short: "Two-sided moral advice from Dr. Jekyll and Mr. Hyde",
	Long: `Serves an HTTP API that answers a dilemma with two opposing pieces of advice,
one from Reason (Jekyll) and one from Impulse (Hyde), and turns a history of
choices into a literary persona profile.

Run without arguments to start the server.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to load .env: %w", err)
		}

		var err error
		cfg, err = config.Load()
		if err != nil {
			return err
		}
		logger, err = newLogger(cfg)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		zap.ReplaceGlobals(logger)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd, askCmd, dilemmasCmd)
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	level, err := zap.ParseAtomicLevel(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("LOG_LEVEL: %w", err)
	}
	zc := zap.NewProductionConfig()
	if !cfg.IsProduction() {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = level
	return zc.Build()
}

// newProvider returns nil when the selected provider has no credential.
func newProvider(ctx context.Context, cfg *config.Config) (generation.Provider, func() error, error) {
	key := cfg.APIKey()
	if key == "" {
		return nil, func() error { return nil }, nil
	}
	switch cfg.Provider {
	case config.ProviderAnthropic:
		return generation.NewAnthropic(key), func() error { return nil }, nil
	default:
		g, err := generation.NewGemini(ctx, key)
		if err != nil {
			return nil, nil, fmt.Errorf("create gemini client: %w", err)
		}
		return g, g.Close, nil
	}
}

// buildHandler wires the provider, generation client and diagnostics store into
// a Handler. The returned cleanup releases them.
func buildHandler(ctx context.Context) (*handlers.Handler, func(), error) {
	provider, closeProvider, err := newProvider(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	closers := []func() error{closeProvider}
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i](); err != nil {
				logger.Warn("cleanup failed", zap.Error(err))
			}
		}
	}

	h := &handlers.Handler{
		AdviceModel:     cfg.AdviceModel,
		FinalModel:      cfg.FinalModel,
		Recorder:        diagnostics.Nop{},
		Logger:          logger,
		MaxDilemmaChars: cfg.MaxDilemmaChars,
		RequestBudget:   cfg.RequestBudget,
		Debug:           !cfg.IsProduction(),
	}

	if provider != nil {
		h.Generator = generation.NewClient(provider, generation.Config{
			Timeout:    cfg.GenerationTimeout,
			MaxRetries: cfg.MaxRetries,
			BaseDelay:  cfg.BackoffBase,
			MaxJitter:  cfg.BackoffJitter,
			MaxDelay:   cfg.BackoffMax,
		}, generation.WithLogger(logger.Named("generation")))
	} else {
		logger.Warn("no API key configured, generate requests will fail",
			zap.String("provider", cfg.Provider))
	}

	if cfg.DiagnosticsDB != "" {
		store, err := diagnostics.NewSQLite(cfg.DiagnosticsDB)
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("open diagnostics store: %w", err)
		}
		closers = append(closers, store.Close)
		h.Recorder = store
		h.Store = store
		if h.Debug {
			h.Failures = store
		}
		logger.Info("recording generation failures", zap.String("path", cfg.DiagnosticsDB))
	}

	return h, cleanup, nil
}
