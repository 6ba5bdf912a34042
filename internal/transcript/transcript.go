// Package transcript exports a conversation to markdown or JSON.
package transcript

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/diogo/klosachat/internal/models"
	"github.com/diogo/klosachat/internal/render"
)

// Format is the output format of an export
type Format string

const (
	FormatMarkdown Format = "markdown"
	FormatJSON     Format = "json"
)

// FormatForPath picks JSON for a .json extension and markdown otherwise
func FormatForPath(path string) Format {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return FormatJSON
	}
	return FormatMarkdown
}

// Transcript is a snapshot of a conversation prepared for export
type Transcript struct {
	SessionID  string           `json:"session_id"`
	Endpoint   string           `json:"endpoint,omitempty"`
	ExportedAt time.Time        `json:"exported_at"`
	Messages   []models.Message `json:"messages"`
}

// New snapshots messages. The slice is copied.
func New(sessionID, endpoint string, messages []models.Message) Transcript {
	msgs := make([]models.Message, len(messages))
	copy(msgs, messages)
	return Transcript{
		SessionID:  sessionID,
		Endpoint:   endpoint,
		ExportedAt: time.Now(),
		Messages:   msgs,
	}
}

// Markdown renders the transcript as a markdown document.
// Assistant replies are sanitized; the JSON export keeps them verbatim.
func (t Transcript) Markdown() string {
	var sb strings.Builder

	sb.WriteString("# Conversation ")
	sb.WriteString(t.SessionID)
	sb.WriteString("\n\n")

	if t.Endpoint != "" {
		sb.WriteString("**Endpoint:** ")
		sb.WriteString(t.Endpoint)
		sb.WriteString("\n")
	}
	sb.WriteString("**Exported:** ")
	sb.WriteString(t.ExportedAt.Format("2006-01-02 15:04:05"))
	sb.WriteString("\n")
	fmt.Fprintf(&sb, "**Messages:** %d\n\n---\n\n", len(t.Messages))

	for i, msg := range t.Messages {
		sb.WriteString("## ")
		sb.WriteString(msg.Sender.Label())
		sb.WriteString("\n\n")

		text := msg.Text
		if msg.Sender == models.SenderAssistant {
			text = render.SanitizeReply(text)
		}
		sb.WriteString(text)
		sb.WriteString("\n")

		if i < len(t.Messages)-1 {
			sb.WriteString("\n---\n\n")
		}
	}

	return sb.String()
}

// JSON encodes the transcript with indentation
func (t Transcript) JSON() ([]byte, error) {
	if t.Messages == nil {
		t.Messages = []models.Message{}
	}
	return json.MarshalIndent(t, "", "  ")
}

// Encode renders the transcript in the given format
func (t Transcript) Encode(format Format) ([]byte, error) {
	switch format {
	case FormatJSON:
		return t.JSON()
	case FormatMarkdown:
		return []byte(t.Markdown()), nil
	default:
		return nil, fmt.Errorf("unknown export format: %s", format)
	}
}

// WriteFile writes the transcript to path in the format its extension
// selects and returns that format
func (t Transcript) WriteFile(path string) (Format, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return "", fmt.Errorf("export path is empty")
	}

	format := FormatForPath(path)
	data, err := t.Encode(format)
	if err != nil {
		return "", err
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", fmt.Errorf("failed to create export directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write transcript: %w", err)
	}
	return format, nil
}
