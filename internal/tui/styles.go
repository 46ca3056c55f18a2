package tui

import "github.com/charmbracelet/lipgloss"

type styles struct {
	title  lipgloss.Style
	muted  lipgloss.Style
	status lipgloss.Style
	menu   lipgloss.Style
}

func defaultStyles() styles {
	return styles{
		title: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("230")).
			Background(lipgloss.Color("63")),
		muted:  lipgloss.NewStyle().Foreground(lipgloss.Color("240")),
		status: lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
		menu: lipgloss.NewStyle().
			Foreground(lipgloss.Color("230")).
			Background(lipgloss.Color("62")),
	}
}
