package tui

import (
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
)

// viewportSurface exposes a bubbles viewport as the conversation surface.
type viewportSurface struct {
	vp viewport.Model
}

func newViewportSurface() *viewportSurface {
	return &viewportSurface{vp: viewport.New(0, 0)}
}

func (s *viewportSurface) Width() int          { return s.vp.Width }
func (s *viewportSurface) ViewportHeight() int { return s.vp.Height }
func (s *viewportSurface) ContentHeight() int  { return s.vp.TotalLineCount() }
func (s *viewportSurface) ScrollOffset() int   { return s.vp.YOffset }

func (s *viewportSurface) SetScrollOffset(offset int) {
	s.vp.SetYOffset(offset)
}

func (s *viewportSurface) SetContent(content string) {
	s.vp.SetContent(content)
}

func (s *viewportSurface) resize(width, height int) {
	s.vp.Width = width
	s.vp.Height = height
	// Re-clamp the offset for the new height.
	s.vp.SetYOffset(s.vp.YOffset)
}

func (s *viewportSurface) update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	s.vp, cmd = s.vp.Update(msg)
	return cmd
}

func (s *viewportSurface) view() string {
	return s.vp.View()
}

// tickQueue defers view work to the next Update, the terminal's "next tick".
type tickQueue struct {
	fns []func()
}

// tickMsg runs the deferred work.
type tickMsg struct{}

func (q *tickQueue) Defer(fn func()) {
	q.fns = append(q.fns, fn)
}

// cmd returns a command delivering tickMsg, or nil when nothing is queued.
func (q *tickQueue) cmd() tea.Cmd {
	if len(q.fns) == 0 {
		return nil
	}
	return func() tea.Msg { return tickMsg{} }
}

func (q *tickQueue) run() {
	fns := q.fns
	q.fns = nil
	for _, fn := range fns {
		fn()
	}
}
