package output

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Theme styles semantic output with lipgloss colors.
type Theme struct {
	styles    map[SemanticType]lipgloss.Style
	available bool
}

// NewTheme creates the default theme. It is unavailable when the terminal has no
// color support, so printers fall back to plain prefixes.
func NewTheme() *Theme {
	return &Theme{
		styles: map[SemanticType]lipgloss.Style{
			SemanticInfo:    lipgloss.NewStyle().Foreground(lipgloss.Color("39")),
			SemanticSuccess: lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
			SemanticWarning: lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
			SemanticError:   lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true),
		},
		available: lipgloss.ColorProfile() != termenv.Ascii,
	}
}

// GetStyle returns the lipgloss style for semantic; unknown types render unstyled.
func (t *Theme) GetStyle(semantic string) TextStyle {
	if style, ok := t.styles[SemanticType(semantic)]; ok {
		return lipglossStyle{style}
	}
	return lipglossStyle{lipgloss.NewStyle()}
}

// lipglossStyle narrows the variadic lipgloss.Style.Render to TextStyle.
type lipglossStyle struct {
	lipgloss.Style
}

func (s lipglossStyle) Render(text string) string {
	return s.Style.Render(text)
}

// IsAvailable reports whether the terminal supports colors.
func (t *Theme) IsAvailable() bool {
	return t.available
}
