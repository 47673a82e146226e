package commands

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/diogo/nutribuddy/internal/api"
	"github.com/diogo/nutribuddy/internal/config"
	"github.com/diogo/nutribuddy/internal/logging"
	"github.com/diogo/nutribuddy/internal/render"
	"github.com/diogo/nutribuddy/internal/tui"
)

// chatLogFile receives TUI diagnostics when --verbose is set
const chatLogFile = "chat.log"

// NewChatCmd creates the chat command
func NewChatCmd(deps *Dependencies) *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive chat session",
		Long: `Start an interactive chat with the nutrition assistant.

Enter sends, Alt+Enter inserts a newline, Esc cancels a pending reply.
Type 'exit', 'quit', or press Ctrl+C to end the session.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			return runChat(cmd, deps, cfg)
		},
	}
}

func runChat(cmd *cobra.Command, deps *Dependencies, cfg config.Config) error {
	client, closeClient, err := deps.chatClient(cfg.ServerURL, api.WithTimeout(cfg.Timeout()))
	if err != nil {
		return fmt.Errorf("failed to create client: %w", err)
	}
	defer closeClient()

	logger := zap.NewNop()
	if cfg.Verbose {
		dir, err := config.EnsureConfigDir()
		if err != nil {
			return err
		}
		logger, err = logging.NewFile(filepath.Join(dir, chatLogFile))
		if err != nil {
			return err
		}
		defer func() { _ = logger.Sync() }()
	}

	if cfg.TUITheme != "" && render.SetTUITheme(cfg.TUITheme) {
		tui.UpdateTheme()
	}

	return deps.TUI.RunChat(cmd.Context(), client, tui.Options{
		ServerURL: cfg.ServerURL,
		Timeout:   cfg.Timeout(),
		Logger:    logger,
		Render:    render.LoadOptions(0),
	})
}
