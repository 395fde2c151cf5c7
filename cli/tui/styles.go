// Package tui provides Bubble Tea views for live agent sessions and uploads.
//
// Views are read-only: they observe snapshots of session and queue state and
// never mutate it. The only action a view can take is asking an active
// session to cancel.
package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/pithecene-io/docent/types"
)

// Color palette.
var (
	primaryColor   = lipgloss.Color("#7C3AED") // Purple
	successColor   = lipgloss.Color("#10B981") // Green
	warningColor   = lipgloss.Color("#F59E0B") // Amber
	errorColor     = lipgloss.Color("#EF4444") // Red
	mutedColor     = lipgloss.Color("#6B7280") // Gray
	highlightColor = lipgloss.Color("#3B82F6") // Blue
)

// Styles for TUI components.
var (
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(primaryColor).
			MarginBottom(1)

	LabelStyle = lipgloss.NewStyle().
			Foreground(mutedColor).
			Width(12)

	ValueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFFFF"))

	SuccessStyle = lipgloss.NewStyle().Foreground(successColor)
	WarningStyle = lipgloss.NewStyle().Foreground(warningColor)
	ErrorStyle   = lipgloss.NewStyle().Foreground(errorColor)
	MutedStyle   = lipgloss.NewStyle().Foreground(mutedColor)

	// AnswerStyle frames the final answer.
	AnswerStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(successColor).
			Padding(0, 1)

	HelpStyle = lipgloss.NewStyle().
			Foreground(mutedColor).
			MarginTop(1)

	StatBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(highlightColor).
			Padding(0, 2).
			Width(16).
			Align(lipgloss.Center)

	StatLabelStyle = lipgloss.NewStyle().
			Foreground(mutedColor).
			Align(lipgloss.Center)

	StatValueStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FFFFFF")).
			Align(lipgloss.Center)
)

// StateStyle returns the style for a session state or upload status.
func StateStyle(state string) lipgloss.Style {
	switch state {
	case string(types.SessionStateCompleted), string(types.UploadStatusDone):
		return SuccessStyle
	case string(types.SessionStateActive), string(types.UploadStatusUploading):
		return WarningStyle
	case string(types.SessionStateErrored), string(types.UploadStatusError):
		return ErrorStyle
	case string(types.SessionStateCancelled), string(types.UploadStatusQueued):
		return MutedStyle
	default:
		return ValueStyle
	}
}

// EventStyle returns the label style for an event kind.
func EventStyle(t types.EventType) lipgloss.Style {
	switch t {
	case types.EventTypeStatus:
		return lipgloss.NewStyle().Foreground(highlightColor)
	case types.EventTypeThought:
		return lipgloss.NewStyle().Foreground(primaryColor).Italic(true)
	case types.EventTypeRetrieved, types.EventTypeContext:
		return MutedStyle
	case types.EventTypeFinal, types.EventTypeDone:
		return SuccessStyle
	case types.EventTypeError:
		return ErrorStyle
	default:
		return ValueStyle
	}
}
