// Package tui is the terminal front end of gemichat: a bubbletea program showing the
// conversation in a scrollable viewport above a message input.
package tui

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"gemichat/internal/controller"
	"gemichat/internal/gateway"
	"gemichat/internal/logger"
	"gemichat/internal/view"
)

// headerHeight is the number of lines above the viewport; the footer holds the
// status or menu line, the attachment line and the input line.
const (
	headerHeight = 1
	footerHeight = 3
)

// WordWrapper is implemented by renderers that can follow the terminal width.
type WordWrapper interface {
	SetWordWrap(width int) error
}

// Options wires the model to the rest of the client.
type Options struct {
	Requests  controller.Requester
	Tokens    controller.TokenSource
	Renderer  view.Renderer
	Clipboard view.Clipboard
	Endpoint  string
}

// resultMsg carries a settled request into the update loop.
type resultMsg struct {
	kind   controller.Kind
	result gateway.Result
}

// Model is the bubbletea model. It is used through a pointer so the view and the
// controller keep referring to the same surface and inputs across updates.
type Model struct {
	ctx        context.Context
	controller *controller.Controller
	view       *view.View
	surface    *viewportSurface
	queue      *tickQueue
	renderer   view.Renderer
	styles     styles
	endpoint   string

	input      textinput.Model
	attachment textinput.Model
	attachOpen bool

	status string
	width  int
	height int
	ready  bool
}

// New creates the model.
func New(ctx context.Context, opts Options) *Model {
	m := &Model{
		ctx:      ctx,
		surface:  newViewportSurface(),
		queue:    &tickQueue{},
		renderer: opts.Renderer,
		styles:   defaultStyles(),
		endpoint: opts.Endpoint,
	}

	m.input = textinput.New()
	m.input.Placeholder = "Type a message and press Enter"
	m.input.Prompt = "› "
	m.input.Focus()

	m.attachment = textinput.New()
	m.attachment.Placeholder = "Path to an image (ctrl+f)"
	m.attachment.Prompt = "📎 "

	m.view = view.New(m.surface, opts.Renderer, opts.Clipboard, m.queue)
	m.controller = controller.New(opts.Requests, opts.Tokens, m.view, controller.WithInputField(inputFields{m}))
	return m
}

// Run starts the program on the alternate screen with mouse support and blocks
// until the user quits or ctx is cancelled.
func Run(ctx context.Context, m *Model) error {
	p := tea.NewProgram(m,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
		tea.WithContext(ctx),
	)
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}

// inputFields clears both entry fields after a submit.
type inputFields struct {
	m *Model
}

func (f inputFields) Clear() {
	f.m.input.Reset()
	f.m.attachment.Reset()
	f.m.closeAttachment()
}

// Init starts the cursor blink.
func (m *Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles one message.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil

	case tickMsg:
		m.queue.run()
		return m, m.queue.cmd()

	case resultMsg:
		m.controller.Complete(msg.kind, msg.result)
		if msg.result.Err != nil {
			m.status = "Request failed"
		} else {
			m.status = ""
		}
		return m, m.queue.cmd()

	case tea.MouseMsg:
		return m, m.handleMouse(msg)

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "esc":
		if m.view.MenuVisible() {
			m.view.CloseMenu()
			return m, nil
		}
		if m.attachOpen {
			m.closeAttachment()
			return m, nil
		}
		return m, tea.Quit
	case "enter":
		return m, m.submit()
	case "ctrl+o", "f2":
		m.controller.ToggleMenu()
		return m, nil
	case "ctrl+r":
		return m, m.reset()
	case "ctrl+f":
		return m, m.toggleAttachment()
	case "ctrl+y":
		copied, err := m.controller.CopyLastCode()
		m.reportCopy(copied, err, "No code to copy")
		return m, nil
	case "pgup", "pgdown", "ctrl+u", "ctrl+d":
		return m, m.surface.update(msg)
	}

	if m.view.MenuVisible() {
		if msg.String() == "r" {
			return m, m.reset()
		}
		return m, nil
	}

	var cmd tea.Cmd
	if m.attachOpen {
		m.attachment, cmd = m.attachment.Update(msg)
	} else {
		m.input, cmd = m.input.Update(msg)
	}
	return m, cmd
}

func (m *Model) handleMouse(msg tea.MouseMsg) tea.Cmd {
	if msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonLeft {
		row := msg.Y - headerHeight
		if row < 0 || row >= m.surface.ViewportHeight() {
			return nil
		}
		copied, err := m.controller.Click(m.surface.ScrollOffset()+row, msg.X)
		if copied || err != nil {
			m.reportCopy(copied, err, "")
		}
		return nil
	}
	return m.surface.update(msg)
}

func (m *Model) submit() tea.Cmd {
	p, ok := m.controller.Submit(m.ctx, controller.Input{
		Text:      m.input.Value(),
		ImagePath: m.attachment.Value(),
	})
	if !ok {
		return m.queue.cmd()
	}
	m.status = ""
	return tea.Batch(m.queue.cmd(), waitForResult(p))
}

func (m *Model) reset() tea.Cmd {
	p, ok := m.controller.Reset(m.ctx)
	if !ok {
		return m.queue.cmd()
	}
	m.status = ""
	return tea.Batch(m.queue.cmd(), waitForResult(p))
}

// waitForResult delivers the outcome of p as a resultMsg.
func waitForResult(p controller.Pending) tea.Cmd {
	return func() tea.Msg {
		res, ok := <-p.Results
		if !ok {
			res = gateway.Result{Err: errors.New("request produced no result")}
		}
		return resultMsg{kind: p.Kind, result: res}
	}
}

func (m *Model) toggleAttachment() tea.Cmd {
	if m.attachOpen {
		m.closeAttachment()
		return nil
	}
	m.attachOpen = true
	m.input.Blur()
	return m.attachment.Focus()
}

func (m *Model) closeAttachment() {
	m.attachOpen = false
	m.attachment.Blur()
	m.input.Focus()
}

func (m *Model) reportCopy(copied bool, err error, none string) {
	switch {
	case err != nil:
		m.status = fmt.Sprintf("Copy failed: %v", err)
	case copied:
		m.status = "Copied code to clipboard"
	default:
		m.status = none
	}
}

func (m *Model) resize(width, height int) {
	if width < 1 {
		width = 1
	}
	vpHeight := height - headerHeight - footerHeight
	if vpHeight < 1 {
		vpHeight = 1
	}
	m.width, m.height = width, height
	m.surface.resize(width, vpHeight)
	m.input.Width = max(1, width-lipgloss.Width(m.input.Prompt)-1)
	m.attachment.Width = max(1, width-lipgloss.Width(m.attachment.Prompt)-1)

	if wrapper, ok := m.renderer.(WordWrapper); ok {
		if err := wrapper.SetWordWrap(m.view.TextWidth()); err != nil {
			logger.Warn("Failed to update word wrap", "error", err)
		}
	}
	m.view.Refresh()

	if !m.ready {
		m.ready = true
		m.view.ScrollToBottom()
	}
}

// View renders the screen.
func (m *Model) View() string {
	if !m.ready {
		return "Initializing..."
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		m.headerView(),
		m.surface.view(),
		m.statusView(),
		m.attachmentView(),
		m.input.View(),
	)
}

func (m *Model) headerView() string {
	title := m.styles.title.Render(" gemichat ")
	endpoint := m.styles.muted.Render(" " + m.endpoint)
	return lipgloss.NewStyle().MaxWidth(m.width).Render(title + endpoint)
}

func (m *Model) statusView() string {
	switch {
	case m.view.MenuVisible():
		return m.styles.menu.Render(" Menu: [r] Reset conversation  [esc] close ")
	case m.controller.State() == controller.StateSending:
		return m.styles.status.Render("sending…")
	case m.status != "":
		return m.styles.status.Render(m.status)
	}
	return m.styles.muted.Render("enter: send | ctrl+f: attach | ctrl+o: menu | ctrl+y: copy code | click code to copy | ctrl+c: quit")
}

func (m *Model) attachmentView() string {
	if m.attachOpen || m.attachment.Value() != "" {
		return m.attachment.View()
	}
	return ""
}
