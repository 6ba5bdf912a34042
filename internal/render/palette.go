package render

import (
	"slices"
	"sync"

	"github.com/charmbracelet/lipgloss"
)

// Palette is the color scheme of the chat window
type Palette struct {
	Name        string
	Description string

	Border lipgloss.Color
	Header lipgloss.Color

	User      lipgloss.Color
	Assistant lipgloss.Color
	Pending   lipgloss.Color
	Error     lipgloss.Color

	Text  lipgloss.Color
	Muted lipgloss.Color
}

// DefaultPaletteName is used when no theme is configured
const DefaultPaletteName = "harbor"

var palettes = []Palette{
	{
		Name:        "harbor",
		Description: "Dark blue with teal replies",
		Border:      lipgloss.Color("#3a4a63"),
		Header:      lipgloss.Color("#5fa8d3"),
		User:        lipgloss.Color("#8ecae6"),
		Assistant:   lipgloss.Color("#62c1a8"),
		Pending:     lipgloss.Color("#e9c46a"),
		Error:       lipgloss.Color("#e76f51"),
		Text:        lipgloss.Color("#dfe7f0"),
		Muted:       lipgloss.Color("#7b8aa0"),
	},
	{
		Name:        "ember",
		Description: "Warm dark theme",
		Border:      lipgloss.Color("#4a3b35"),
		Header:      lipgloss.Color("#f4a261"),
		User:        lipgloss.Color("#f6bd60"),
		Assistant:   lipgloss.Color("#f28482"),
		Pending:     lipgloss.Color("#e9c46a"),
		Error:       lipgloss.Color("#d62828"),
		Text:        lipgloss.Color("#f1e3d3"),
		Muted:       lipgloss.Color("#9c8577"),
	},
	{
		Name:        "paper",
		Description: "Light theme for bright terminals",
		Border:      lipgloss.Color("#c9ced6"),
		Header:      lipgloss.Color("#1d4e89"),
		User:        lipgloss.Color("#1d4e89"),
		Assistant:   lipgloss.Color("#2a7f62"),
		Pending:     lipgloss.Color("#b7791f"),
		Error:       lipgloss.Color("#c53030"),
		Text:        lipgloss.Color("#1f2933"),
		Muted:       lipgloss.Color("#6b7785"),
	},
	{
		Name:        "mono",
		Description: "Greyscale",
		Border:      lipgloss.Color("#5c5c5c"),
		Header:      lipgloss.Color("#ffffff"),
		User:        lipgloss.Color("#e0e0e0"),
		Assistant:   lipgloss.Color("#bdbdbd"),
		Pending:     lipgloss.Color("#9e9e9e"),
		Error:       lipgloss.Color("#ffffff"),
		Text:        lipgloss.Color("#eeeeee"),
		Muted:       lipgloss.Color("#808080"),
	},
}

var (
	paletteMu     sync.RWMutex
	activePalette = palettes[0]
)

// CurrentPalette returns the active palette
func CurrentPalette() Palette {
	paletteMu.RLock()
	defer paletteMu.RUnlock()
	return activePalette
}

// SetPalette activates the palette with the given name.
// It returns false and leaves the active palette unchanged for unknown names.
func SetPalette(name string) bool {
	p, ok := PaletteByName(name)
	if !ok {
		return false
	}
	paletteMu.Lock()
	activePalette = p
	paletteMu.Unlock()
	return true
}

// PaletteByName looks up a built-in palette
func PaletteByName(name string) (Palette, bool) {
	i := slices.IndexFunc(palettes, func(p Palette) bool { return p.Name == name })
	if i < 0 {
		return Palette{}, false
	}
	return palettes[i], true
}

// PaletteNames lists the built-in palettes in display order
func PaletteNames() []string {
	names := make([]string, len(palettes))
	for i, p := range palettes {
		names[i] = p.Name
	}
	return names
}
