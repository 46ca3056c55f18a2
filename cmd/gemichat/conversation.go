package main

import (
	"strings"

	"gemichat/internal/logger"
	"gemichat/internal/output"
	"gemichat/internal/view"
	"gemichat/pkg/chattypes"
)

// printedConversation shows the conversation of a one-shot command as printer
// lines. The user's own message is not echoed, and there is nothing to scroll or
// click.
type printedConversation struct {
	printer  *output.Printer
	renderer view.Renderer
	reply    func(text string)
	failed   bool
}

func newPrintedConversation(printer *output.Printer, renderer view.Renderer) *printedConversation {
	return &printedConversation{printer: printer, renderer: renderer, reply: printer.Reply}
}

// AppendMessage prints assistant messages: failures as errors, replies rendered as
// Markdown when a renderer is set.
func (p *printedConversation) AppendMessage(msg chattypes.Message) *view.Bubble {
	switch {
	case msg.IsUser():
	case msg.Failed:
		p.failed = true
		p.printer.Error(msg.Text)
	default:
		p.reply(p.render(msg.Text))
	}
	return nil
}

func (p *printedConversation) render(text string) string {
	if p.renderer == nil {
		return text
	}
	rendered, err := p.renderer.Render(text)
	if err != nil {
		logger.Debug("Markdown rendering failed", "error", err)
		p.printer.Warning("Reply could not be formatted, showing it as received")
		return text
	}
	return strings.Trim(rendered, "\n")
}

func (p *printedConversation) Clear()      {}
func (p *printedConversation) ToggleMenu() {}
func (p *printedConversation) CloseMenu()  {}

func (p *printedConversation) OnContainerClick(int, int) (bool, error) { return false, nil }
func (p *printedConversation) CopyLastCode() (bool, error)             { return false, nil }
