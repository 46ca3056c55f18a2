// Package clipboard writes text to the system clipboard.
package clipboard

import (
	"errors"
	"fmt"
	"sync"

	"gemichat/internal/logger"
)

// ErrUnavailable is returned when this platform has no usable clipboard.
var ErrUnavailable = errors.New("clipboard not available on this platform")

// System is the OS clipboard. The backend is initialized on first write.
type System struct {
	once    sync.Once
	initErr error
}

// New creates a clipboard writer.
func New() *System {
	return &System{}
}

// Available reports whether a clipboard backend exists on this platform.
func (s *System) Available() bool {
	return clipboardAvailable()
}

// WriteText copies text to the clipboard.
func (s *System) WriteText(text string) error {
	if !clipboardAvailable() {
		return ErrUnavailable
	}

	s.once.Do(func() {
		s.initErr = initClipboard()
	})
	if s.initErr != nil {
		return fmt.Errorf("clipboard initialization failed: %w", s.initErr)
	}

	if err := writeToClipboard(text); err != nil {
		return fmt.Errorf("failed to write to clipboard: %w", err)
	}
	logger.Debug("Copied to clipboard", "characters", len(text))
	return nil
}
