// Package output prints the results of gemichat's one-shot commands, styled when
// the terminal allows it and plain otherwise.
package output

// StyleProvider supplies a style per semantic type. The printer falls back to plain
// text when no provider is available.
type StyleProvider interface {
	// GetStyle returns the style for a semantic type such as "info" or "error".
	GetStyle(semantic string) TextStyle

	// IsAvailable reports whether styles can be applied.
	IsAvailable() bool
}

// TextStyle renders text. Theme wraps lipgloss styles to satisfy it.
type TextStyle interface {
	Render(text string) string
}

// Mode defines different output modes the printer can operate in.
type Mode int

const (
	// ModeAuto styles output when a provider is available
	ModeAuto Mode = iota

	// ModePlain forces plain text output with semantic prefixes
	ModePlain

	// ModeJSON outputs one JSON object per line
	ModeJSON
)

// SemanticType defines the semantic meaning of output for consistent styling.
type SemanticType string

const (
	// SemanticPlain represents plain text without any semantic meaning.
	SemanticPlain SemanticType = "plain"
	// SemanticInfo represents informational text.
	SemanticInfo SemanticType = "info"
	// SemanticSuccess represents success or completion text.
	SemanticSuccess SemanticType = "success"
	// SemanticWarning represents warning text.
	SemanticWarning SemanticType = "warning"
	// SemanticError represents error text.
	SemanticError SemanticType = "error"
	// SemanticReply represents a rendered backend reply.
	SemanticReply SemanticType = "reply"
)
