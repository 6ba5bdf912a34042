package commands

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/diogo/klosachat/internal/chat"
	"github.com/diogo/klosachat/internal/render"
	"github.com/diogo/klosachat/internal/tui"
)

func newChatCmd(deps *Dependencies, opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive chat session",
		Long: `Start an interactive chat session.

The whole conversation is sent with every message. Enter sends,
Alt+Enter inserts a newline. Commands:
  /clear           start a new conversation
  /copy            copy the last reply to the clipboard
  /export <path>   save the transcript (.json for JSON, markdown otherwise)
  /exit, /quit     leave`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), deps, opts, false, runChat)
		},
	}
}

func runChat(ctx context.Context, deps *Dependencies, a *app) error {
	ctrl := chat.NewController(a.client, chat.WithLogger(a.log.Component("chat")))
	a.log.Info().Str("session", ctrl.SessionID()).Msg("chat started")

	return deps.TUI.RunChat(ctx, ctrl, tui.Config{
		Endpoint:  a.client.Endpoint(),
		Render:    render.OptionsFromConfig(a.cfg.Markdown),
		Clipboard: deps.Clipboard,
	})
}

// applyTheme activates the configured palette, falling back to the default
func applyTheme(a *app) {
	name := a.cfg.TUITheme
	if name == "" {
		name = render.DefaultPaletteName
	}
	if !render.SetPalette(name) {
		a.log.Warn().Str("theme", name).Strs("available", render.PaletteNames()).Msg("unknown theme, using default")
		render.SetPalette(render.DefaultPaletteName)
	}
	tui.UpdateTheme()
}
