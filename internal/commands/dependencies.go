package commands

import (
	"context"

	"github.com/diogo/nutribuddy/internal/api"
	"github.com/diogo/nutribuddy/internal/assistant"
	"github.com/diogo/nutribuddy/internal/chat"
	"github.com/diogo/nutribuddy/internal/tui"
)

// TUIInterface defines the methods required from the TUI package.
type TUIInterface interface {
	RunChat(ctx context.Context, client chat.Replier, opts tui.Options) error
}

// Dependencies holds the external dependencies for the commands.
// Nil fields are built from the config when a command runs.
type Dependencies struct {
	// Client is the backend chat client used by chat and ask.
	Client api.ChatClientInterface

	// Generator answers prompts for serve.
	Generator assistant.Generator

	// TUI is the terminal user interface.
	TUI TUIInterface
}

// DefaultTUI is the production implementation of TUIInterface.
type DefaultTUI struct{}

func (d *DefaultTUI) RunChat(ctx context.Context, client chat.Replier, opts tui.Options) error {
	return tui.Run(ctx, client, opts)
}

// NewDependencies creates a new Dependencies struct with default implementations.
func NewDependencies() *Dependencies {
	return &Dependencies{
		TUI: &DefaultTUI{},
	}
}

// chatClient returns the injected client or one built for serverURL. The
// returned function releases a client built here.
func (d *Dependencies) chatClient(serverURL string, opts ...api.ClientOption) (api.ChatClientInterface, func(), error) {
	if d.Client != nil {
		return d.Client, func() {}, nil
	}
	client, err := api.NewClient(serverURL, opts...)
	if err != nil {
		return nil, nil, err
	}
	return client, client.Close, nil
}
