package commands

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/diogo/nutribuddy/internal/assistant"
	"github.com/diogo/nutribuddy/internal/config"
	"github.com/diogo/nutribuddy/internal/logging"
	"github.com/diogo/nutribuddy/internal/models"
	"github.com/diogo/nutribuddy/internal/server"
)

// NewServeCmd creates the serve command
func NewServeCmd(deps *Dependencies) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the nutrition chat backend and web widget",
		Long: `Run the HTTP backend. It serves the web chat widget at /, the JSON API at
POST /api/chat and a health check at /healthz.

GEMINI_API_KEY must be set in the environment or in a .env file.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.ListenAddr = addr
			}
			return runServe(cmd, deps, cfg)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default from config, "+config.EnvListenAddr+")")
	return cmd
}

func runServe(cmd *cobra.Command, deps *Dependencies, cfg config.Config) error {
	logger, err := logging.New(cfg.Verbose)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	gen := deps.Generator
	modelName := resolveModel(cfg.DefaultModel)
	if gen == nil {
		if cfg.APIKey == "" {
			return fmt.Errorf("%s is not set", config.EnvAPIKey)
		}
		gemini, err := assistant.NewGeminiGenerator(ctx, cfg.APIKey, modelName)
		if err != nil {
			return err
		}
		gen = gemini
	}

	svc, err := assistant.NewService(gen,
		assistant.WithLogger(logger),
		assistant.WithCacheSize(cfg.CacheSize),
	)
	if err != nil {
		return err
	}

	srv := server.New(svc,
		server.WithLogger(logger),
		server.WithRateLimit(cfg.RateLimit),
		server.WithReplyTimeout(cfg.Timeout()),
	)

	logger.Info("starting server",
		zap.String("addr", cfg.ListenAddr),
		zap.String("model", modelName),
		zap.Int("cache_size", cfg.CacheSize),
		zap.Int("rate_limit", cfg.RateLimit),
	)

	if err := srv.Start(ctx, cfg.ListenAddr); err != nil {
		return fmt.Errorf("server failed: %w", err)
	}
	logger.Info("server stopped")
	return nil
}

// resolveModel maps a model alias to its full name. Unknown names are passed
// through so newer models work without a release.
func resolveModel(name string) string {
	if model := models.ModelFromName(name); model != models.ModelUnspecified {
		return model.Name
	}
	return name
}
