package view

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/x/ansi"

	"gemichat/internal/logger"
	"gemichat/internal/render"
)

// AnyColumn matches a click anywhere on a line.
const AnyColumn = -1

// frameRunes are the border characters stripped before comparing a clicked line
// with code text.
const frameRunes = "│╭╮╰╯─ "

// CodeAt returns the code element shown at a content line and column, if any. Only
// assistant bubbles contain code elements. A negative column matches any inline span
// on the line.
func (v *View) CodeAt(line, column int) (render.CodeSpan, bool) {
	if line < 0 || line >= len(v.lines) {
		return render.CodeSpan{}, false
	}
	bubble := v.bubbleAt(line)
	if bubble == nil || bubble.Message.IsUser() || len(bubble.Code) == 0 {
		return render.CodeSpan{}, false
	}

	plain := ansi.Strip(v.lines[line])
	content := strings.Trim(plain, frameRunes)
	if content == "" {
		return render.CodeSpan{}, false
	}

	rel := line - bubble.start
	for i, span := range bubble.Code {
		if span.Block && bubble.blocks[i].contains(rel) {
			return span, true
		}
	}
	for _, span := range bubble.Code {
		if !span.Block && inlineAt(plain, span.Text, column) {
			return span, true
		}
	}
	return render.CodeSpan{}, false
}

// OnContainerClick copies the code element under a click to the clipboard. It
// reports whether anything was copied; clicks outside code do nothing.
func (v *View) OnContainerClick(line, column int) (bool, error) {
	span, ok := v.CodeAt(line, column)
	if !ok {
		return false, nil
	}
	if err := v.copy(span.Text); err != nil {
		return false, err
	}
	logger.Debug("Code copied on click", "line", line, "block", span.Block)
	return true, nil
}

// CopyLastCode copies the most recent code block of the conversation, falling back
// to the most recent inline code span.
func (v *View) CopyLastCode() (bool, error) {
	for i := len(v.bubbles) - 1; i >= 0; i-- {
		bubble := v.bubbles[i]
		if bubble.Message.IsUser() {
			continue
		}
		span, ok := render.LastBlock(bubble.Code)
		if !ok {
			continue
		}
		if err := v.copy(span.Text); err != nil {
			return false, err
		}
		return true, nil
	}
	return false, nil
}

func (v *View) copy(text string) error {
	if v.clipboard == nil {
		return fmt.Errorf("no clipboard configured")
	}
	if err := v.clipboard.WriteText(text); err != nil {
		logger.Warn("Copy to clipboard failed", "error", err)
		return fmt.Errorf("failed to copy code: %w", err)
	}
	return nil
}

func (v *View) bubbleAt(line int) *Bubble {
	for _, bubble := range v.bubbles {
		if line >= bubble.start && line < bubble.end {
			return bubble
		}
	}
	return nil
}

// lineRange is a half-open range of lines relative to the first line of a bubble.
type lineRange struct {
	start, end int
}

func (r lineRange) contains(line int) bool {
	return line >= r.start && line < r.end
}

// locateBlocks finds the lines each code block occupies in a framed bubble. Blocks
// are searched in document order, each one after the previous. A block whose lines
// cannot be found gets an empty range and is not clickable.
func locateBlocks(framed string, spans []render.CodeSpan) []lineRange {
	contents := strings.Split(framed, "\n")
	for i, line := range contents {
		contents[i] = strings.Trim(ansi.Strip(line), frameRunes)
	}

	ranges := make([]lineRange, len(spans))
	from := 0
	for i, span := range spans {
		if !span.Block {
			continue
		}
		want := codeLines(span.Text)
		for start := from; start < len(contents) && len(want) > 0; start++ {
			if end, ok := matchBlock(contents, want, start); ok {
				ranges[i] = lineRange{start: start, end: end}
				from = end
				break
			}
		}
	}
	return ranges
}

// codeLines returns the non-blank lines of code without the indentation a renderer
// may add.
func codeLines(code string) []string {
	var lines []string
	for _, line := range strings.Split(code, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

// matchBlock reports whether want appears in order from contents[start], with only
// blank lines in between, and returns the end of the match.
func matchBlock(contents, want []string, start int) (int, bool) {
	next := 0
	for line := start; line < len(contents); line++ {
		switch strings.TrimSpace(contents[line]) {
		case want[next]:
			next++
			if next == len(want) {
				return line + 1, true
			}
		case "":
			if next == 0 {
				return 0, false
			}
		default:
			return 0, false
		}
	}
	return 0, false
}

// inlineAt reports whether an occurrence of code on the plain line covers column.
func inlineAt(plain, code string, column int) bool {
	if code == "" {
		return false
	}
	offset := 0
	for {
		idx := strings.Index(plain[offset:], code)
		if idx < 0 {
			return false
		}
		idx += offset
		if column < 0 {
			return true
		}
		startCol := ansi.StringWidth(plain[:idx])
		endCol := startCol + ansi.StringWidth(code)
		if column >= startCol && column < endCol {
			return true
		}
		offset = idx + len(code)
	}
}
