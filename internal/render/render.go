package render

import "strings"

// Markdown renders markdown content for terminal display.
func Markdown(content string, opts Options) (string, error) {
	renderer, err := globalPool.get(opts)
	if err != nil {
		return "", err
	}
	defer globalPool.put(opts, renderer)

	return renderer.Render(content)
}

// MarkdownWithWidth renders with default options at the given width.
func MarkdownWithWidth(content string, width int) (string, error) {
	return Markdown(content, DefaultOptions().WithWidth(width))
}

// Reply sanitizes an assistant reply and renders it for the terminal.
// If rendering fails the sanitized plain text is returned.
func Reply(markup string, opts Options) string {
	text := SanitizeReply(markup)
	rendered, err := Markdown(text, opts)
	if err != nil {
		return text
	}
	return strings.Trim(rendered, "\n")
}
