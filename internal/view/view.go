// Package view keeps the rendered conversation: an ordered list of bubbles laid out
// on a scrollable surface. It follows new messages only when the reader was already
// at the bottom, and copies code to the clipboard when a code element is clicked.
package view

import (
	"strings"

	"gemichat/internal/logger"
	"gemichat/pkg/chattypes"
)

// Surface is the scrollable container the conversation is drawn on.
type Surface interface {
	Width() int
	ViewportHeight() int
	ContentHeight() int
	ScrollOffset() int
	SetScrollOffset(offset int)
	SetContent(content string)
}

// Renderer turns markdown into display text.
type Renderer interface {
	Render(markdown string) (string, error)
}

// Clipboard receives copied code.
type Clipboard interface {
	WriteText(text string) error
}

// Scheduler runs work after the current update has been drawn.
type Scheduler interface {
	Defer(fn func())
}

// View is the conversation display. It is not safe for concurrent use; all calls
// happen on the UI event loop.
type View struct {
	surface   Surface
	renderer  Renderer
	clipboard Clipboard
	scheduler Scheduler
	styles    Styles

	bubbles     []*Bubble
	lines       []string
	menuVisible bool
}

// Option configures a View.
type Option func(*View)

// WithStyles replaces the default bubble styles.
func WithStyles(styles Styles) Option {
	return func(v *View) {
		v.styles = styles
	}
}

// New creates an empty conversation view.
func New(surface Surface, renderer Renderer, clipboard Clipboard, scheduler Scheduler, opts ...Option) *View {
	v := &View{
		surface:   surface,
		renderer:  renderer,
		clipboard: clipboard,
		scheduler: scheduler,
		styles:    DefaultStyles(),
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// AppendMessage adds a bubble for msg at the end of the conversation. When the view
// was at the bottom before the append, a scroll to the new bottom is scheduled.
func (v *View) AppendMessage(msg chattypes.Message) *Bubble {
	atBottom := v.IsAtBottom()

	bubble := v.newBubble(msg)
	v.bubbles = append(v.bubbles, bubble)
	v.layout()

	logger.Debug("Bubble appended", "origin", msg.Origin, "failed", msg.Failed, "follow", atBottom)
	if atBottom {
		v.scheduler.Defer(v.ScrollToBottom)
	}
	return bubble
}

// Clear removes every bubble.
func (v *View) Clear() {
	v.bubbles = nil
	v.lines = nil
	v.surface.SetContent("")
	v.surface.SetScrollOffset(0)
}

// Bubbles returns the bubbles in display order.
func (v *View) Bubbles() []*Bubble {
	out := make([]*Bubble, len(v.bubbles))
	copy(out, v.bubbles)
	return out
}

// Len returns the number of bubbles.
func (v *View) Len() int {
	return len(v.bubbles)
}

// IsAtBottom reports whether the last line of content is visible.
func (v *View) IsAtBottom() bool {
	return v.surface.ScrollOffset()+v.surface.ViewportHeight() >= v.surface.ContentHeight()
}

// ScrollToBottom moves the viewport to the end of the content. The surface clamps
// the offset.
func (v *View) ScrollToBottom() {
	v.surface.SetScrollOffset(v.surface.ContentHeight())
}

// Refresh re-renders every bubble, e.g. after the surface width changed. A view that
// was at the bottom stays at the bottom.
func (v *View) Refresh() {
	atBottom := v.IsAtBottom()
	for i, bubble := range v.bubbles {
		v.bubbles[i] = v.newBubble(bubble.Message)
	}
	v.layout()
	if atBottom {
		v.ScrollToBottom()
	}
}

// ToggleMenu shows or hides the menu.
func (v *View) ToggleMenu() {
	v.menuVisible = !v.menuVisible
}

// CloseMenu hides the menu.
func (v *View) CloseMenu() {
	v.menuVisible = false
}

// MenuVisible reports whether the menu is shown.
func (v *View) MenuVisible() bool {
	return v.menuVisible
}

// layout joins the bubbles into the surface content and records the content lines
// each bubble occupies.
func (v *View) layout() {
	v.lines = v.lines[:0]
	for i, bubble := range v.bubbles {
		if i > 0 {
			v.lines = append(v.lines, "")
		}
		bubble.start = len(v.lines)
		v.lines = append(v.lines, strings.Split(bubble.Framed, "\n")...)
		bubble.end = len(v.lines)
	}
	v.surface.SetContent(strings.Join(v.lines, "\n"))
}
