package chat

import "github.com/charmbracelet/lipgloss"

type styles struct {
	title      lipgloss.Style
	header     lipgloss.Style
	human      lipgloss.Style
	assistant  lipgloss.Style
	body       lipgloss.Style
	meta       lipgloss.Style
	success    lipgloss.Style
	warning    lipgloss.Style
	section    lipgloss.Style
	empty      lipgloss.Style
	barBracket lipgloss.Style
	barFill    lipgloss.Style
	barEmpty   lipgloss.Style
}

func newStyles() styles {
	return styles{
		title:      lipgloss.NewStyle().Bold(true),
		header:     lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
		human:      lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39")),
		assistant:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("170")),
		body:       lipgloss.NewStyle().Foreground(lipgloss.Color("252")),
		meta:       lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
		success:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("78")),
		warning:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("203")),
		section:    lipgloss.NewStyle().MarginTop(1),
		empty:      lipgloss.NewStyle().Faint(true),
		barBracket: lipgloss.NewStyle().Foreground(lipgloss.Color("244")),
		barFill:    lipgloss.NewStyle().Foreground(lipgloss.Color("159")),
		barEmpty:   lipgloss.NewStyle().Foreground(lipgloss.Color("238")),
	}
}
