package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/diogo/klosachat/internal/chat"
	"github.com/diogo/klosachat/internal/render"
	"github.com/diogo/klosachat/internal/tui"
)

// spinner is the waiting indicator shown during a one-shot exchange
type spinner struct {
	out     io.Writer
	message string
	stop    chan struct{}
	done    chan struct{}
	mu      sync.Mutex
	frame   int
	started time.Time
	stopped bool
}

var spinnerFrames = []string{"⣾", "⣽", "⣻", "⢿", "⡿", "⣟", "⣯", "⣷"}

func newSpinner(out io.Writer, message string) *spinner {
	return &spinner{
		out:     out,
		message: message,
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
}

func (s *spinner) start() {
	s.started = time.Now()
	go func() {
		defer close(s.done)

		ticker := time.NewTicker(80 * time.Millisecond)
		defer ticker.Stop()

		fmt.Fprint(s.out, "\033[?25l")

		for {
			select {
			case <-s.stop:
				fmt.Fprint(s.out, "\r\033[K\033[?25h")
				return
			case <-ticker.C:
				s.mu.Lock()
				s.render()
				s.frame++
				s.mu.Unlock()
			}
		}
	}()
}

func (s *spinner) render() {
	p := render.CurrentPalette()
	char := lipgloss.NewStyle().Foreground(p.Pending).Bold(true).Render(spinnerFrames[s.frame%len(spinnerFrames)])
	msg := lipgloss.NewStyle().Foreground(p.Text).Render(s.message)
	elapsed := lipgloss.NewStyle().Foreground(p.Muted).Render(fmt.Sprintf("%.1fs", time.Since(s.started).Seconds()))

	fmt.Fprintf(s.out, "\r\033[K%s %s %s", char, msg, elapsed)
}

// stopOnce closes the stop channel only once
func (s *spinner) stopOnce() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.stopped {
		close(s.stop)
		s.stopped = true
	}
}

func (s *spinner) stopWithSuccess(message string) {
	s.stopOnce()
	<-s.done

	p := render.CurrentPalette()
	fmt.Fprintln(s.out, lipgloss.NewStyle().Foreground(p.Assistant).Render("✓ "+message))
}

func (s *spinner) stopWithError() {
	s.stopOnce()
	<-s.done
}

// queryOptions controls how a one-shot reply is delivered
type queryOptions struct {
	raw    bool
	output string
	copy   bool
}

// runQuery sends prompt as a new one-message conversation and prints the
// reply. The raw reply is what -o writes; stdout and the clipboard get the
// sanitized text.
func runQuery(ctx context.Context, deps *Dependencies, a *app, prompt string, opts queryOptions) error {
	ctrl := chat.NewController(a.client, chat.WithLogger(a.log.Component("chat")))

	var spin *spinner
	if !opts.raw {
		spin = newSpinner(deps.Stderr, "Waiting for reply")
		spin.start()
	}

	ctrl.Submit(ctx, prompt)

	if err := ctrl.LastError(); err != nil {
		if opts.raw {
			return fmt.Errorf("exchange failed: %w", err)
		}
		spin.stopWithError()
		fmt.Fprintln(deps.Stderr, formatErrorMessage(err, "Exchange failed"))
		return &reportedError{err: err}
	}
	if !opts.raw {
		spin.stopWithSuccess("Done")
	}

	reply, _ := ctrl.LastReply()
	plain := render.SanitizeReply(reply)

	if opts.raw {
		if opts.output != "" {
			return writeReply(opts.output, reply)
		}
		fmt.Fprintln(deps.Stdout, plain)
		return nil
	}

	fmt.Fprintln(deps.Stderr)

	if opts.copy || a.cfg.CopyToClipboard {
		p := render.CurrentPalette()
		if err := deps.Clipboard(plain); err != nil {
			fmt.Fprintln(deps.Stderr, lipgloss.NewStyle().Foreground(p.Error).Render(
				fmt.Sprintf("⚠ Failed to copy to clipboard: %v", err)))
		} else {
			fmt.Fprintln(deps.Stderr, lipgloss.NewStyle().Foreground(p.Assistant).Render("✓ Copied to clipboard"))
		}
	}

	if opts.output != "" {
		if err := writeReply(opts.output, reply); err != nil {
			return err
		}
		fmt.Fprintln(deps.Stderr, lipgloss.NewStyle().Foreground(render.CurrentPalette().Assistant).Render(
			fmt.Sprintf("✓ Reply saved to %s", opts.output)))
		return nil
	}

	fmt.Fprintln(deps.Stdout, formatReply(reply, a, getTerminalWidth()))
	return nil
}

func writeReply(path, reply string) error {
	if err := os.WriteFile(path, []byte(reply), 0o644); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}
	return nil
}

// formatReply renders the reply in the same bubble the chat window uses
func formatReply(reply string, a *app, termWidth int) string {
	bubbleWidth := termWidth - 4
	if bubbleWidth < 40 {
		bubbleWidth = 40
	}
	if bubbleWidth > 120 {
		bubbleWidth = 120
	}

	p := render.CurrentPalette()
	label := lipgloss.NewStyle().Foreground(p.Assistant).Bold(true).Render("✦ Assistant")
	bubble := lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(p.Assistant).
		Foreground(p.Text).
		Padding(0, 1).
		Width(bubbleWidth)

	opts := render.OptionsFromConfig(a.cfg.Markdown).WithWidth(bubbleWidth - 4)
	return label + "\n" + bubble.Render(render.Reply(reply, opts))
}

// getTerminalWidth returns the terminal width or a default value
func getTerminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return 80
	}
	return width
}

// isStdoutTTY returns true if stdout is connected to a terminal
func isStdoutTTY() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// formatErrorMessage prefixes the structured error display with context
func formatErrorMessage(err error, context string) string {
	if err == nil {
		return ""
	}
	return strings.Replace(tui.FormatError(err), "✗ ", "✗ "+context+": ", 1)
}
