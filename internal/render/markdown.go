// Package render turns assistant replies into terminal output and locates the code
// they contain.
package render

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/muesli/termenv"

	"gemichat/internal/logger"
)

// Markdown renders markdown to ANSI text with Glamour.
type Markdown struct {
	renderer *glamour.TermRenderer
	style    string
	width    int
}

// AvailableStyles lists the accepted style names.
func AvailableStyles() []string {
	return []string{
		"auto",  // detect from the terminal background
		"dark",  // dark theme
		"light", // light theme
		"notty", // plain text, no colors
		"ascii", // ASCII-only styling
	}
}

// NewMarkdown creates a renderer. "auto" is resolved once, up front, because
// Glamour's own detection queries the terminal and cannot run while a TUI owns it.
func NewMarkdown(style string, width int) (*Markdown, error) {
	if width <= 0 {
		return nil, fmt.Errorf("word wrap width must be positive, got %d", width)
	}
	m := &Markdown{style: ResolveStyle(style), width: width}
	if err := m.rebuild(); err != nil {
		return nil, err
	}
	logger.Debug("Markdown renderer initialized", "style", m.style, "width", width)
	return m, nil
}

// ResolveStyle maps "auto" (or an empty/unknown style) to a concrete Glamour style.
func ResolveStyle(style string) string {
	switch strings.ToLower(style) {
	case "dark", "light", "notty", "ascii":
		return strings.ToLower(style)
	}
	if termenv.EnvColorProfile() == termenv.Ascii {
		return "notty"
	}
	if termenv.HasDarkBackground() {
		return "dark"
	}
	return "light"
}

// Style returns the resolved style name.
func (m *Markdown) Style() string {
	return m.style
}

// Width returns the word wrap width.
func (m *Markdown) Width() int {
	return m.width
}

// Render renders markdown content. Blank input renders to an empty string.
func (m *Markdown) Render(markdown string) (string, error) {
	if strings.TrimSpace(markdown) == "" {
		return "", nil
	}

	rendered, err := m.renderer.Render(markdown)
	if err != nil {
		return "", fmt.Errorf("failed to render markdown: %w", err)
	}
	return rendered, nil
}

// SetWordWrap rebuilds the renderer for a new width, e.g. after a terminal resize.
func (m *Markdown) SetWordWrap(width int) error {
	if width <= 0 {
		return fmt.Errorf("word wrap width must be positive, got %d", width)
	}
	if width == m.width {
		return nil
	}
	previous := m.width
	m.width = width
	if err := m.rebuild(); err != nil {
		m.width = previous
		return err
	}
	logger.Debug("Markdown word wrap updated", "width", width)
	return nil
}

func (m *Markdown) rebuild() error {
	renderer, err := glamour.NewTermRenderer(
		glamour.WithStylePath(m.style),
		glamour.WithWordWrap(m.width),
	)
	if err != nil {
		return fmt.Errorf("failed to create markdown renderer with style %q: %w", m.style, err)
	}
	m.renderer = renderer
	return nil
}
