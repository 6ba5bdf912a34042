package commands

import (
	"context"
	"io"
	"os"

	"github.com/atotto/clipboard"
	"github.com/rs/zerolog"

	"github.com/diogo/klosachat/internal/api"
	"github.com/diogo/klosachat/internal/chat"
	"github.com/diogo/klosachat/internal/config"
	"github.com/diogo/klosachat/internal/tui"
)

// ExchangeClient is what the commands need from the endpoint client
type ExchangeClient interface {
	chat.Exchanger
	Endpoint() string
	Close()
}

// ClientFactory builds an ExchangeClient from the effective configuration
type ClientFactory func(cfg config.Config, log zerolog.Logger) (ExchangeClient, error)

// TUIInterface defines the methods required from the TUI package.
type TUIInterface interface {
	RunChat(ctx context.Context, ctrl *chat.Controller, cfg tui.Config) error
}

// Dependencies holds the external dependencies for the commands.
// This allows for dependency injection and easier testing.
type Dependencies struct {
	NewClient ClientFactory
	TUI       TUIInterface
	Clipboard func(string) error

	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer

	// StdinIsPipe reports whether stdin carries piped input
	StdinIsPipe func() bool
	// StdoutIsTTY reports whether stdout is an interactive terminal
	StdoutIsTTY func() bool
}

// DefaultTUI is the production implementation of TUIInterface.
type DefaultTUI struct{}

func (d *DefaultTUI) RunChat(ctx context.Context, ctrl *chat.Controller, cfg tui.Config) error {
	return tui.RunChat(ctx, ctrl, cfg)
}

// newAPIClient creates the real endpoint client
func newAPIClient(cfg config.Config, log zerolog.Logger) (ExchangeClient, error) {
	client, err := api.NewClient(cfg.Endpoint(),
		api.WithTimeout(cfg.RequestTimeout),
		api.WithProxy(cfg.Proxy),
		api.WithUserAgent(cfg.UserAgent),
		api.WithLogger(log),
	)
	if err != nil {
		return nil, err
	}
	return client, nil
}

// NewDependencies creates a new Dependencies struct with default implementations.
func NewDependencies() *Dependencies {
	return &Dependencies{
		NewClient:   newAPIClient,
		TUI:         &DefaultTUI{},
		Clipboard:   clipboard.WriteAll,
		Stdin:       os.Stdin,
		Stdout:      os.Stdout,
		Stderr:      os.Stderr,
		StdinIsPipe: stdinIsPipe,
		StdoutIsTTY: isStdoutTTY,
	}
}

func stdinIsPipe() bool {
	stat, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return (stat.Mode() & os.ModeCharDevice) == 0
}
