package view

import (
	"strings"
	"unicode"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"gemichat/internal/logger"
	"gemichat/internal/render"
	"gemichat/pkg/chattypes"
)

const (
	// bubbleShare is the percentage of the surface width a bubble may use.
	bubbleShare = 80
	// fallbackWidth is used before the surface knows its size.
	fallbackWidth = 80
	minBubbleText = 10
)

// Bubble is one rendered message.
type Bubble struct {
	Message chattypes.Message
	Align   chattypes.Alignment
	// Body is the message text as displayed inside the frame: rendered markdown for
	// the assistant, sanitized plain text for the user.
	Body string
	// Framed is the body with its border and horizontal placement applied.
	Framed string
	// Code holds the code elements of an assistant reply. User bubbles have none.
	Code []render.CodeSpan

	blocks     []lineRange // where each block of Code is shown, parallel to Code
	start, end int
}

// Lines returns the half-open range of content lines the bubble occupies.
func (b *Bubble) Lines() (start, end int) {
	return b.start, b.end
}

// Styles holds the frame styles for each kind of bubble.
type Styles struct {
	User      lipgloss.Style
	Assistant lipgloss.Style
	Failure   lipgloss.Style
}

// DefaultStyles returns rounded frames: accent for the user, grey for the assistant
// and red for failures.
func DefaultStyles() Styles {
	base := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		Padding(0, 1)
	return Styles{
		User:      base.BorderForeground(lipgloss.Color("63")),
		Assistant: base.BorderForeground(lipgloss.Color("240")),
		Failure:   base.BorderForeground(lipgloss.Color("196")),
	}
}

func (v *View) newBubble(msg chattypes.Message) *Bubble {
	bubble := &Bubble{Message: msg, Align: msg.Alignment()}
	if msg.IsUser() {
		bubble.Body = SanitizeText(msg.Text)
	} else {
		bubble.Body = v.safeRenderMarkdown(msg.Text)
		bubble.Code = render.ExtractCode(msg.Text)
	}
	bubble.Framed = v.frame(bubble)
	bubble.blocks = locateBlocks(bubble.Framed, bubble.Code)
	return bubble
}

// safeRenderMarkdown renders markdown with panic recovery, falling back to the raw
// text. Assistant content is not sanitized.
func (v *View) safeRenderMarkdown(content string) (result string) {
	defer func() {
		if r := recover(); r != nil {
			logger.Warn("Markdown renderer panicked, showing plain text", "panic", r)
			result = content
		}
	}()

	if v.renderer == nil || strings.TrimSpace(content) == "" {
		return content
	}
	rendered, err := v.renderer.Render(content)
	if err != nil {
		logger.Warn("Markdown rendering failed, showing plain text", "error", err)
		return content
	}
	rendered = strings.Trim(rendered, "\n")
	lines := strings.Split(rendered, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " ")
	}
	return strings.Join(lines, "\n")
}

// TextWidth returns the widest body an assistant bubble holds without rewrapping.
// Markdown renderers should wrap at this width.
func (v *View) TextWidth() int {
	return textWidth(v.surfaceWidth(), v.styles.Assistant)
}

func (v *View) surfaceWidth() int {
	if width := v.surface.Width(); width > 0 {
		return width
	}
	return fallbackWidth
}

func textWidth(surfaceWidth int, style lipgloss.Style) int {
	width := surfaceWidth*bubbleShare/100 - style.GetHorizontalFrameSize()
	if width < minBubbleText {
		return minBubbleText
	}
	return width
}

func (v *View) frame(b *Bubble) string {
	width := v.surfaceWidth()

	style := v.styles.Assistant
	switch {
	case b.Message.IsUser():
		style = v.styles.User
	case b.Message.Failed:
		style = v.styles.Failure
	}

	maxText := textWidth(width, style)
	if lipgloss.Width(b.Body) > maxText {
		style = style.Width(maxText + style.GetHorizontalPadding())
	}

	framed := style.Render(b.Body)
	position := lipgloss.Left
	if b.Align == chattypes.AlignRight {
		position = lipgloss.Right
	}
	return lipgloss.PlaceHorizontal(width, position, framed)
}

// SanitizeText removes terminal escape sequences and control characters from text
// typed by the user so it is shown literally.
func SanitizeText(text string) string {
	stripped := ansi.Strip(text)
	return strings.Map(func(r rune) rune {
		switch {
		case r == '\t':
			return ' '
		case r == '\n':
			return r
		case unicode.IsControl(r):
			return -1
		}
		return r
	}, stripped)
}
