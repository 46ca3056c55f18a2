package testutils

import (
	"errors"
	"strings"
	"sync"
)

// MemorySurface is a scrollable text area without a terminal. Scroll offsets are
// clamped the way a browser clamps scrollTop.
type MemorySurface struct {
	width   int
	height  int
	offset  int
	content string
	lines   int
}

// NewMemorySurface creates a surface with the given viewport size.
func NewMemorySurface(width, height int) *MemorySurface {
	return &MemorySurface{width: width, height: height}
}

// Width returns the viewport width.
func (s *MemorySurface) Width() int { return s.width }

// ViewportHeight returns the number of visible lines.
func (s *MemorySurface) ViewportHeight() int { return s.height }

// ContentHeight returns the number of content lines.
func (s *MemorySurface) ContentHeight() int { return s.lines }

// ScrollOffset returns the first visible line.
func (s *MemorySurface) ScrollOffset() int { return s.offset }

// SetScrollOffset moves the viewport, clamped to the content.
func (s *MemorySurface) SetScrollOffset(offset int) {
	maxOffset := s.lines - s.height
	if maxOffset < 0 {
		maxOffset = 0
	}
	switch {
	case offset < 0:
		offset = 0
	case offset > maxOffset:
		offset = maxOffset
	}
	s.offset = offset
}

// SetContent replaces the content without moving the viewport.
func (s *MemorySurface) SetContent(content string) {
	s.content = content
	if content == "" {
		s.lines = 0
	} else {
		s.lines = len(strings.Split(content, "\n"))
	}
}

// Content returns the last content set.
func (s *MemorySurface) Content() string { return s.content }

// Resize changes the viewport size.
func (s *MemorySurface) Resize(width, height int) {
	s.width = width
	s.height = height
}

// ManualScheduler queues deferred work until Flush, standing in for "next tick".
type ManualScheduler struct {
	mu    sync.Mutex
	queue []func()
}

// Defer queues fn.
func (s *ManualScheduler) Defer(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queue = append(s.queue, fn)
}

// Pending returns the number of queued functions.
func (s *ManualScheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queue)
}

// Flush runs everything queued so far. Work deferred while flushing waits for the next Flush.
func (s *ManualScheduler) Flush() {
	s.mu.Lock()
	queue := s.queue
	s.queue = nil
	s.mu.Unlock()

	for _, fn := range queue {
		fn()
	}
}

// ErrClipboardUnavailable is returned by a RecordingClipboard set to fail.
var ErrClipboardUnavailable = errors.New("clipboard unavailable")

// RecordingClipboard records every text written to it.
type RecordingClipboard struct {
	mu    sync.Mutex
	texts []string
	Fail  bool
}

// WriteText records text, or fails when Fail is set.
func (c *RecordingClipboard) WriteText(text string) error {
	if c.Fail {
		return ErrClipboardUnavailable
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.texts = append(c.texts, text)
	return nil
}

// Texts returns the recorded writes in order.
func (c *RecordingClipboard) Texts() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.texts))
	copy(out, c.texts)
	return out
}

// PlainRenderer returns markdown unchanged, so tests can assert on exact text.
type PlainRenderer struct{}

// Render returns markdown as-is.
func (PlainRenderer) Render(markdown string) (string, error) {
	return markdown, nil
}
