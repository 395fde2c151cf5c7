package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/pithecene-io/docent/metrics"
	"github.com/pithecene-io/docent/types"
)

// RunSession shows a live session until the user exits.
// The caller starts the session and subscribes to its log before calling.
func RunSession(source SessionSource, updates <-chan types.Event, prompt string, stats func() metrics.Snapshot) error {
	p := tea.NewProgram(NewSessionModel(source, updates, prompt, stats), tea.WithAltScreen())
	_, err := p.Run()
	return err
}

// RunUpload shows upload progress until every item is terminal or the user exits.
func RunUpload(source UploadSource) error {
	p := tea.NewProgram(NewUploadModel(source), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
