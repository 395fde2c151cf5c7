package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/pithecene-io/docent/types"
)

// pollInterval is how often the upload view re-reads the queue.
const pollInterval = 100 * time.Millisecond

// UploadSource is the read side of an upload queue.
type UploadSource interface {
	Items() []types.UploadItem
}

type tickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(pollInterval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

// UploadModel shows per-item upload progress and exits once every item is
// terminal. Quitting early leaves the queue running.
type UploadModel struct {
	source   UploadSource
	items    []types.UploadItem
	done     bool
	quitting bool
}

// NewUploadModel creates an upload view.
func NewUploadModel(source UploadSource) UploadModel {
	return UploadModel{source: source, items: source.Items()}
}

// Init implements tea.Model.
func (m UploadModel) Init() tea.Cmd {
	return tick()
}

// Update implements tea.Model.
func (m UploadModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tickMsg:
		m.items = m.source.Items()
		if allTerminal(m.items) {
			m.done = true
			return m, tea.Quit
		}
		return m, tick()

	case tea.KeyMsg:
		if key.Matches(msg, keys.Quit) {
			m.quitting = true
			return m, tea.Quit
		}
	}
	return m, nil
}

// Done reports whether every item reached done or error.
func (m UploadModel) Done() bool { return m.done }

// View implements tea.Model.
func (m UploadModel) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(TitleStyle.Render("docent · upload"))
	b.WriteString("\n")

	var done, failed int
	for _, item := range m.items {
		status := string(item.Status)
		b.WriteString(fmt.Sprintf("%s %s\n",
			StateStyle(status).Width(10).Render(status),
			ValueStyle.Render(item.Name)))
		switch item.Status {
		case types.UploadStatusDone:
			done++
		case types.UploadStatusError:
			failed++
		}
	}

	b.WriteString("\n" + uploadStats(len(m.items), done, failed))
	b.WriteString("\n" + HelpStyle.Render("Press q to stop watching (uploads continue)"))
	return b.String()
}

func allTerminal(items []types.UploadItem) bool {
	for _, item := range items {
		if !item.Status.IsTerminal() {
			return false
		}
	}
	return true
}
