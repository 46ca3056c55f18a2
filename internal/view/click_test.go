package view

import (
	"strings"
	"testing"

	"github.com/charmbracelet/x/ansi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gemichat/internal/render"
	"gemichat/internal/testutils"
	"gemichat/pkg/chattypes"
)

const replyWithCode = "Install it with `go install`:\n\n```sh\ngo install ./cmd/gemichat\n```\n\nThen run it."

func TestOnContainerClick_CodeBlockCopied(t *testing.T) {
	f := newFixture(t, 80, 20)
	f.view.AppendMessage(chattypes.NewAssistantMessage(replyWithCode))

	copied, err := f.view.OnContainerClick(f.lineIndex(t, "go install ./cmd/gemichat"), AnyColumn)

	require.NoError(t, err)
	assert.True(t, copied)
	assert.Equal(t, []string{"go install ./cmd/gemichat"}, f.clipboard.Texts())
}

func TestOnContainerClick_InlineCodeColumn(t *testing.T) {
	f := newFixture(t, 80, 20)
	f.view.AppendMessage(chattypes.NewAssistantMessage(replyWithCode))
	line := f.lineIndex(t, "Install it with")
	plain := f.lines()[line]
	column := ansi.StringWidth(plain[:strings.Index(plain, "go install")])

	copied, err := f.view.OnContainerClick(line, column+3)
	require.NoError(t, err)
	assert.True(t, copied)

	copied, err = f.view.OnContainerClick(line, 2)
	require.NoError(t, err)
	assert.False(t, copied, "click on prose before the span")

	assert.Equal(t, []string{"go install"}, f.clipboard.Texts())
}

func TestOnContainerClick_OutsideCodeIsNoop(t *testing.T) {
	f := newFixture(t, 80, 20)
	f.view.AppendMessage(chattypes.NewUserMessage("`not code` from the user"))
	f.view.AppendMessage(chattypes.NewAssistantMessage(replyWithCode))

	tests := []struct {
		name string
		line int
	}{
		{"prose line", f.lineIndex(t, "Then run it.")},
		{"user bubble", f.lineIndex(t, "not code")},
		{"border", 0},
		{"separator", 3},
		{"negative", -1},
		{"past the end", 1000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			copied, err := f.view.OnContainerClick(tt.line, AnyColumn)
			require.NoError(t, err)
			assert.False(t, copied)
		})
	}
	assert.Empty(t, f.clipboard.Texts())
}

func TestOnContainerClick_ProseMatchingCodeLine(t *testing.T) {
	f := newFixture(t, 80, 30)
	f.view.AppendMessage(chattypes.NewAssistantMessage("done\n\n```sh\nmake test\ndone\n```\n\ndone"))

	var done []int
	for i, line := range f.lines() {
		if strings.Trim(line, frameRunes) == "done" {
			done = append(done, i)
		}
	}
	require.Len(t, done, 3)

	for _, line := range []int{done[0], done[2]} {
		copied, err := f.view.OnContainerClick(line, AnyColumn)
		require.NoError(t, err)
		assert.False(t, copied, "prose line %d", line)
	}
	assert.Empty(t, f.clipboard.Texts())

	copied, err := f.view.OnContainerClick(done[1], AnyColumn)
	require.NoError(t, err)
	assert.True(t, copied)
	assert.Equal(t, []string{"make test\ndone"}, f.clipboard.Texts())
}

func TestLocateBlocks(t *testing.T) {
	spans := []render.CodeSpan{
		{Text: "x := 1\n\ny := 2", Block: true},
		{Text: "y"},
		{Text: "x := 1", Block: true},
	}
	framed := strings.Join([]string{
		"│ x := 1 │",
		"│ text   │",
		"│ x := 1 │",
		"│        │",
		"│ y := 2 │",
		"│ x := 1 │",
	}, "\n")

	ranges := locateBlocks(framed, spans)

	assert.Equal(t, []lineRange{{start: 2, end: 5}, {}, {start: 5, end: 6}}, ranges)
	assert.Equal(t, []lineRange{{}}, locateBlocks("│ other │", spans[:1]))
}

func TestOnContainerClick_ClipboardFailure(t *testing.T) {
	f := newFixture(t, 80, 20)
	f.clipboard.Fail = true
	f.view.AppendMessage(chattypes.NewAssistantMessage(replyWithCode))

	copied, err := f.view.OnContainerClick(f.lineIndex(t, "go install ./cmd/gemichat"), AnyColumn)

	assert.False(t, copied)
	assert.ErrorIs(t, err, testutils.ErrClipboardUnavailable)
}

func TestCopyLastCode(t *testing.T) {
	f := newFixture(t, 80, 20)
	f.view.AppendMessage(chattypes.NewAssistantMessage("```\nfirst\n```"))
	f.view.AppendMessage(chattypes.NewAssistantMessage(replyWithCode))
	f.view.AppendMessage(chattypes.NewUserMessage("```\nuser code\n```"))

	copied, err := f.view.CopyLastCode()

	require.NoError(t, err)
	assert.True(t, copied)
	assert.Equal(t, []string{"go install ./cmd/gemichat"}, f.clipboard.Texts())
}

func TestCopyLastCode_NothingToCopy(t *testing.T) {
	f := newFixture(t, 80, 20)
	f.view.AppendMessage(chattypes.NewAssistantMessage("no code here"))

	copied, err := f.view.CopyLastCode()

	require.NoError(t, err)
	assert.False(t, copied)
	assert.Empty(t, f.clipboard.Texts())
}

func TestCopy_NoClipboard(t *testing.T) {
	v := New(testutils.NewMemorySurface(80, 20), testutils.PlainRenderer{}, nil, &testutils.ManualScheduler{})
	v.AppendMessage(chattypes.NewAssistantMessage("```\ncode\n```"))

	copied, err := v.CopyLastCode()

	assert.False(t, copied)
	assert.Error(t, err)
}

func TestInlineAt(t *testing.T) {
	line := "│ use x or x │"

	assert.True(t, inlineAt(line, "x", AnyColumn))
	assert.True(t, inlineAt(line, "x", 6))
	assert.True(t, inlineAt(line, "x", 11), "second occurrence")
	assert.False(t, inlineAt(line, "x", 8))
	assert.False(t, inlineAt(line, "", AnyColumn))
	assert.False(t, inlineAt(line, "y", AnyColumn))
}
