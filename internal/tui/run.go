package tui

import (
	tea "github.com/charmbracelet/bubbletea"
)

// Run shows the session until the user quits and waits for running exports
func Run(opts Options) error {
	model, unsubscribe := New(opts)
	defer unsubscribe()

	p := tea.NewProgram(model, tea.WithAltScreen())
	_, err := p.Run()
	opts.Workspace.Wait()
	return err
}
