package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/pithecene-io/docent/cli/render"
	"github.com/pithecene-io/docent/metrics"
	"github.com/pithecene-io/docent/types"
)

// SessionSource is the read side of a stream session plus its cancel hook.
type SessionSource interface {
	ID() string
	State() types.SessionState
	Events() []types.Event
	Cancel()
}

// eventMsg signals that the session's log grew.
type eventMsg struct{}

// closedMsg signals that the session reached a terminal state.
type closedMsg struct{}

// waitForEvent blocks on the subscription. The event itself is not used:
// the model re-reads the full snapshot, so a subscriber that fell behind
// never misses anything.
func waitForEvent(updates <-chan types.Event) tea.Cmd {
	return func() tea.Msg {
		if _, ok := <-updates; !ok {
			return closedMsg{}
		}
		return eventMsg{}
	}
}

// SessionModel shows a live agent session.
// While the session is active, q cancels it; once it ended, q exits.
type SessionModel struct {
	source  SessionSource
	updates <-chan types.Event
	stats   func() metrics.Snapshot
	prompt  string

	events     []types.Event
	state      types.SessionState
	ended      bool
	cancelling bool
	width      int
	height     int
	quitting   bool
}

// NewSessionModel creates a session view. updates is a subscription to the
// session's event log; stats may be nil.
func NewSessionModel(source SessionSource, updates <-chan types.Event, prompt string, stats func() metrics.Snapshot) SessionModel {
	return SessionModel{
		source:  source,
		updates: updates,
		stats:   stats,
		prompt:  prompt,
		state:   source.State(),
		events:  source.Events(),
	}
}

// Init implements tea.Model.
func (m SessionModel) Init() tea.Cmd {
	return waitForEvent(m.updates)
}

// Update implements tea.Model.
func (m SessionModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case eventMsg:
		m.refresh()
		return m, waitForEvent(m.updates)

	case closedMsg:
		m.refresh()
		m.ended = true
		return m, nil

	case tea.KeyMsg:
		if key.Matches(msg, keys.Quit) {
			if !m.ended {
				m.source.Cancel()
				m.cancelling = true
				return m, nil
			}
			m.quitting = true
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m *SessionModel) refresh() {
	m.events = m.source.Events()
	m.state = m.source.State()
}

// Ended reports whether the session reached a terminal state.
func (m SessionModel) Ended() bool { return m.ended }

// View implements tea.Model.
func (m SessionModel) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(TitleStyle.Render("docent · session " + shortID(m.source.ID())))
	b.WriteString("\n")
	b.WriteString(LabelStyle.Render("Prompt") + ValueStyle.Render(m.prompt) + "\n")
	b.WriteString(LabelStyle.Render("State") + StateStyle(string(m.state)).Render(string(m.state)) + "\n\n")

	var answer string
	lines := make([]string, 0, len(m.events))
	for _, ev := range m.events {
		if ev.Type == types.EventTypeFinal {
			answer = ev.Answer
			continue
		}
		lines = append(lines, m.eventLine(ev))
	}
	if limit := m.maxLines(); limit > 0 && len(lines) > limit {
		lines = lines[len(lines)-limit:]
	}
	b.WriteString(strings.Join(lines, "\n"))

	if answer != "" {
		box := AnswerStyle
		if m.width > 4 {
			box = box.Width(m.width - 4)
		}
		b.WriteString("\n\n" + box.Render(answer))
	}

	if m.stats != nil {
		b.WriteString("\n\n" + sessionStats(m.stats()))
	}

	b.WriteString("\n" + HelpStyle.Render(m.help()))
	return b.String()
}

func (m SessionModel) eventLine(ev types.Event) string {
	label := EventStyle(ev.Type).Render(fmt.Sprintf("%-9s", ev.Type))
	text := render.EventLine(ev)
	// EventLine starts with its own bracketed label; keep only the detail.
	if _, rest, ok := strings.Cut(text, "] "); ok {
		text = rest
	} else if ev.Type == types.EventTypeDone {
		text = ""
	}
	if m.width > 12 {
		text = render.Truncate(text, m.width-12)
	}
	return label + " " + text
}

// maxLines is the number of event lines that fit the window.
func (m SessionModel) maxLines() int {
	if m.height == 0 {
		return 0
	}
	// Title, prompt, state, answer box, stats and help take about 16 rows.
	return max(m.height-16, 3)
}

func (m SessionModel) help() string {
	switch {
	case m.ended:
		return "Press q to exit"
	case m.cancelling:
		return "Cancelling…"
	default:
		return "Press q or Ctrl+C to cancel"
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
