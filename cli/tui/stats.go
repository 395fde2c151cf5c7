package tui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/pithecene-io/docent/metrics"
)

// renderStatBox renders a single labelled counter.
func renderStatBox(label string, value int64, color lipgloss.Color) string {
	return StatBoxStyle.BorderForeground(color).Render(
		StatLabelStyle.Render(label) + "\n" + StatValueStyle.Render(fmt.Sprintf("%d", value)),
	)
}

// sessionStats renders the stream counters of a snapshot.
func sessionStats(s metrics.Snapshot) string {
	return lipgloss.JoinHorizontal(lipgloss.Top,
		renderStatBox("Chunks", s.ChunksRead, highlightColor),
		renderStatBox("Bytes", s.BytesRead, highlightColor),
		renderStatBox("Events", s.EventsAppended, successColor),
		renderStatBox("Dropped", s.FramesDropped, warningColor),
	)
}

// uploadStats renders upload totals.
func uploadStats(total, done, failed int) string {
	return lipgloss.JoinHorizontal(lipgloss.Top,
		renderStatBox("Files", int64(total), highlightColor),
		renderStatBox("Done", int64(done), successColor),
		renderStatBox("Failed", int64(failed), errorColor),
	)
}
