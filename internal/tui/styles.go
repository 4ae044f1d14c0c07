package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/philipparndt/facelabel/internal/labels"
	"github.com/philipparndt/facelabel/internal/status"
)

type styles struct {
	Tab       lipgloss.Style
	ActiveTab lipgloss.Style
	Header    lipgloss.Style
	Cursor    lipgloss.Style
	Selected  lipgloss.Style
	Dim       lipgloss.Style
	Pane      lipgloss.Style
	Info      lipgloss.Style
	Warn      lipgloss.Style
	Error     lipgloss.Style
}

func defaultStyles() styles {
	return styles{
		Tab:       lipgloss.NewStyle().Padding(0, 1).Foreground(lipgloss.Color("245")),
		ActiveTab: lipgloss.NewStyle().Padding(0, 1).Bold(true).Foreground(lipgloss.Color("230")).Background(lipgloss.Color("62")),
		Header:    lipgloss.NewStyle().Bold(true),
		Cursor:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212")),
		Selected:  lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFF00")),
		Dim:       lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
		Pane:      lipgloss.NewStyle().BorderStyle(lipgloss.NormalBorder()).BorderTop(true).BorderForeground(lipgloss.Color("240")),
		Info:      lipgloss.NewStyle(),
		Warn:      lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
		Error:     lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
	}
}

func (s styles) level(l status.Level) lipgloss.Style {
	switch l {
	case status.Warn:
		return s.Warn
	case status.Error:
		return s.Error
	default:
		return s.Info
	}
}

func labelStyle(l labels.Label) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(l.Color().Hex()))
}
