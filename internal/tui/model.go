package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/diogo/klosachat/internal/chat"
	"github.com/diogo/klosachat/internal/models"
	"github.com/diogo/klosachat/internal/render"
	"github.com/diogo/klosachat/internal/transcript"
)

// Animation tick message
type animationTickMsg time.Time

// Message types for the TUI
type (
	responseMsg struct {
		reply string
	}
	errMsg struct {
		err error
	}
)

// Config holds what the chat window needs besides the controller
type Config struct {
	// Endpoint is shown in the header and recorded in exports
	Endpoint string
	Render   render.Options
	// Clipboard writes text to the system clipboard. Defaults to atotto/clipboard.
	Clipboard func(string) error
}

// Model represents the TUI state. The conversation itself lives in the
// controller; Model only keeps what is needed to draw it.
type Model struct {
	ctx  context.Context
	ctrl *chat.Controller
	cfg  Config

	// UI components
	viewport viewport.Model
	textarea textarea.Model
	spinner  spinner.Model

	ready          bool
	animationFrame int
	notice         string

	width  int
	height int
}

// NewChatModel creates a chat window driven by ctrl
func NewChatModel(ctx context.Context, ctrl *chat.Controller, cfg Config) Model {
	if cfg.Clipboard == nil {
		cfg.Clipboard = clipboard.WriteAll
	}
	if cfg.Render.Style == "" {
		cfg.Render = render.DefaultOptions()
	}

	ta := textarea.New()
	ta.Placeholder = "Type your message here..."
	ta.CharLimit = 4000
	ta.ShowLineNumbers = false
	ta.SetHeight(2)
	ta.KeyMap.InsertNewline = key.NewBinding(key.WithKeys("alt+enter", "ctrl+j"))
	ta.Focus()

	ta.FocusedStyle.CursorLine = lipgloss.NewStyle()
	ta.FocusedStyle.Base = lipgloss.NewStyle().Foreground(colorText)
	ta.FocusedStyle.Placeholder = lipgloss.NewStyle().Foreground(colorMuted)
	ta.BlurredStyle = ta.FocusedStyle

	s := spinner.New()
	s.Spinner = spinner.Points
	s.Style = typingStyle

	return Model{
		ctx:      ctx,
		ctrl:     ctrl,
		cfg:      cfg,
		textarea: ta,
		spinner:  s,
	}
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return textarea.Blink
}

func animationTick() tea.Cmd {
	return tea.Tick(time.Millisecond*300, func(t time.Time) tea.Msg {
		return animationTickMsg(t)
	})
}

// scrollKeys keeps letter keys away from the viewport so typing never scrolls
func scrollKeys() viewport.KeyMap {
	return viewport.KeyMap{
		PageDown:     key.NewBinding(key.WithKeys("pgdown")),
		PageUp:       key.NewBinding(key.WithKeys("pgup")),
		HalfPageDown: key.NewBinding(key.WithKeys("ctrl+d")),
		HalfPageUp:   key.NewBinding(key.WithKeys("ctrl+u")),
		Down:         key.NewBinding(key.WithKeys("ctrl+down")),
		Up:           key.NewBinding(key.WithKeys("ctrl+up")),
	}
}

// Update handles messages and updates the model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		headerHeight := 4
		inputHeight := 6
		statusHeight := 2
		padding := 2

		vpHeight := m.height - headerHeight - inputHeight - statusHeight - padding
		if vpHeight < 5 {
			vpHeight = 5
		}

		contentWidth := m.width - 4

		if !m.ready {
			m.viewport = viewport.New(contentWidth, vpHeight)
			m.viewport.KeyMap = scrollKeys()
			m.ready = true
		} else {
			m.viewport.Width = contentWidth
			m.viewport.Height = vpHeight
		}
		m.textarea.SetWidth(contentWidth - 4)
		m.updateViewport()

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			return m, tea.Quit

		case "enter":
			return m.submit()
		}

		before := m.textarea.Value()
		m.textarea, cmd = m.textarea.Update(msg)
		cmds = append(cmds, cmd)
		if after := m.textarea.Value(); after != before {
			m.ctrl.UpdateDraft(after)
		}

	case responseMsg:
		m.ctrl.Settle(msg.reply, nil)
		m.updateViewport()
		m.viewport.GotoBottom()

	case errMsg:
		m.ctrl.Settle("", msg.err)
		m.updateViewport()
		m.viewport.GotoBottom()

	case spinner.TickMsg:
		if m.ctrl.Sending() {
			m.spinner, cmd = m.spinner.Update(msg)
			cmds = append(cmds, cmd)
		}

	case animationTickMsg:
		if m.ctrl.Sending() {
			m.animationFrame++
			cmds = append(cmds, animationTick())
		}
	}

	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

// submit handles Enter: slash commands run locally, anything else is
// handed to the controller, which ignores it while a reply is pending
func (m Model) submit() (tea.Model, tea.Cmd) {
	input := m.textarea.Value()
	if name, arg, ok := parseCommand(input); ok {
		return m.runCommand(name, arg)
	}

	history, ok := m.ctrl.Begin(input)
	if !ok {
		return m, nil
	}

	m.textarea.Reset()
	m.notice = ""
	m.animationFrame = 0
	m.updateViewport()
	m.viewport.GotoBottom()

	return m, tea.Batch(
		m.exchange(history),
		m.spinner.Tick,
		animationTick(),
	)
}

// exchange runs the network call off the update loop
func (m Model) exchange(history []models.Message) tea.Cmd {
	ctx := m.ctx
	ctrl := m.ctrl
	return func() tea.Msg {
		reply, err := ctrl.Send(ctx, history)
		if err != nil {
			return errMsg{err: err}
		}
		return responseMsg{reply: reply}
	}
}

// parseCommand recognizes the chat commands. Only /export takes an
// argument; any other input, including unknown slash words, is a message.
func parseCommand(input string) (name, arg string, ok bool) {
	trimmed := strings.TrimSpace(input)
	name, arg, _ = strings.Cut(trimmed, " ")
	arg = strings.TrimSpace(arg)

	switch name {
	case "/exit", "/quit", "/clear", "/copy":
		return name, "", arg == ""
	case "/export":
		return name, arg, true
	}
	return "", "", false
}

// runCommand executes a chat command. Commands are never sent to the endpoint.
func (m Model) runCommand(name, arg string) (tea.Model, tea.Cmd) {
	m.textarea.Reset()
	m.ctrl.UpdateDraft("")

	switch name {
	case "/exit", "/quit":
		return m, tea.Quit

	case "/clear":
		if m.ctrl.Reset() {
			m.notice = "Started a new conversation"
		} else {
			m.notice = "Wait for the reply before clearing"
		}
		m.updateViewport()

	case "/copy":
		reply, ok := m.ctrl.LastReply()
		if !ok {
			m.notice = "Nothing to copy yet"
			break
		}
		if err := m.cfg.Clipboard(render.SanitizeReply(reply)); err != nil {
			m.notice = fmt.Sprintf("Copy failed: %v", err)
			break
		}
		m.notice = "Copied last reply to clipboard"

	case "/export":
		if arg == "" {
			m.notice = "Usage: /export <path>"
			break
		}
		t := transcript.New(m.ctrl.SessionID(), m.cfg.Endpoint, m.ctrl.Messages())
		format, err := t.WriteFile(arg)
		if err != nil {
			m.notice = fmt.Sprintf("Export failed: %v", err)
			break
		}
		m.notice = fmt.Sprintf("Exported %s transcript to %s", format, arg)
	}

	return m, nil
}

// View renders the TUI
func (m Model) View() string {
	if !m.ready {
		return typingStyle.Render("  Initializing...")
	}

	var sections []string
	contentWidth := m.width - 4

	headerParts := []string{titleStyle.Render("✦ klosachat")}
	if m.cfg.Endpoint != "" {
		headerParts = append(headerParts,
			hintStyle.Render("  •  "),
			subtitleStyle.Render(m.cfg.Endpoint),
		)
	}
	headerContent := lipgloss.JoinHorizontal(lipgloss.Center, headerParts...)
	sections = append(sections, headerStyle.Width(contentWidth).Render(headerContent))

	var messagesContent string
	if len(m.ctrl.Messages()) == 0 {
		messagesContent = m.renderWelcome()
	} else {
		messagesContent = m.viewport.View()
	}
	sections = append(sections, messagesAreaStyle.
		Width(contentWidth).
		Height(m.viewport.Height).
		Render(messagesContent))

	label := inputLabelStyle.Render("You")
	if m.ctrl.Sending() {
		label = m.renderTyping()
	}
	inputContent := lipgloss.JoinVertical(lipgloss.Left, label, m.textarea.View())
	sections = append(sections, inputPanelStyle.Width(contentWidth).Render(inputContent))

	sections = append(sections, m.renderStatusBar(contentWidth))

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m Model) renderWelcome() string {
	width := m.viewport.Width - 4
	height := m.viewport.Height

	content := lipgloss.JoinVertical(
		lipgloss.Center,
		welcomeIconStyle.Width(width).Render("✦"),
		"",
		welcomeTitleStyle.Width(width).Render("How can I help?"),
		"",
		welcomeStyle.Width(width).Render("Type a message below and press Enter"),
	)

	topPadding := (height - lipgloss.Height(content)) / 2
	if topPadding < 0 {
		topPadding = 0
	}

	return strings.Repeat("\n", topPadding) + content
}

// renderTyping renders the indicator shown while a reply is pending
func (m Model) renderTyping() string {
	dots := strings.Repeat("•", m.animationFrame%3+1)
	return lipgloss.JoinHorizontal(lipgloss.Center,
		m.spinner.View(),
		typingStyle.Render(" Assistant is typing "+dots),
	)
}

func (m Model) renderStatusBar(width int) string {
	shortcuts := []struct {
		key  string
		desc string
	}{
		{"Enter", "Send"},
		{"Alt+Enter", "Newline"},
		{"PgUp/PgDn", "Scroll"},
		{"/clear", "New chat"},
		{"/export", "Save"},
		{"Esc", "Quit"},
	}

	var items []string
	for _, s := range shortcuts {
		items = append(items, statusKeyStyle.Render(s.key)+statusDescStyle.Render(" "+s.desc))
	}

	bar := statusBarStyle.Width(width).Align(lipgloss.Center).Render(strings.Join(items, " · "))
	if m.notice == "" {
		return bar
	}
	return lipgloss.JoinVertical(lipgloss.Left, bar, noticeStyle.Width(width).Align(lipgloss.Center).Render(m.notice))
}

// updateViewport redraws the conversation into the viewport
func (m *Model) updateViewport() {
	if !m.ready {
		return
	}

	messages := m.ctrl.Messages()
	lastErr := m.ctrl.LastError()
	lastAssistant := -1
	for i, msg := range messages {
		if msg.Sender == models.SenderAssistant {
			lastAssistant = i
		}
	}

	var content strings.Builder
	bubbleWidth := m.viewport.Width - 6

	for i, msg := range messages {
		if i > 0 {
			content.WriteString("\n")
		}

		if msg.Sender == models.SenderUser {
			label := userLabelStyle.Render("● " + msg.Sender.Label())
			bubble := userBubbleStyle.Width(bubbleWidth).Render(msg.Text)
			content.WriteString(label + "\n" + bubble)
		} else {
			label := assistantLabelStyle.Render("✦ " + msg.Sender.Label())
			rendered := render.Reply(msg.Text, m.cfg.Render.WithWidth(bubbleWidth-4))
			bubble := assistantBubbleStyle.Width(bubbleWidth).Render(rendered)
			content.WriteString(label + "\n" + bubble)

			if i == lastAssistant && lastErr != nil {
				content.WriteString("\n" + failureDetailStyle.Render("↳ "+describeFailure(lastErr)))
			}
		}
		content.WriteString("\n")
	}

	m.viewport.SetContent(content.String())
}

// RunChat starts the chat TUI and blocks until the user quits
func RunChat(ctx context.Context, ctrl *chat.Controller, cfg Config) error {
	m := NewChatModel(ctx, ctrl, cfg)

	p := tea.NewProgram(
		m,
		tea.WithAltScreen(),
		tea.WithContext(ctx),
	)

	_, err := p.Run()
	return err
}
