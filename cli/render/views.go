package render

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/pithecene-io/docent/types"
)

// snippetWidth bounds content columns in tables.
const snippetWidth = 72

// QueryResults renders query hits in server order.
type QueryResults []types.QueryResult

// Headers implements Tabular.
func (QueryResults) Headers() []string { return []string{"#", "SCORE", "TITLE", "CONTENT"} }

// Rows implements Tabular.
func (q QueryResults) Rows() [][]string {
	rows := make([][]string, len(q))
	for i, r := range q {
		title := ""
		if r.Title != nil {
			title = *r.Title
		}
		rows[i] = []string{
			strconv.Itoa(i + 1),
			strconv.FormatFloat(r.Score, 'f', 3, 64),
			title,
			Truncate(r.Content, snippetWidth),
		}
	}
	return rows
}

// UploadItems renders upload queue items in submission order.
type UploadItems []types.UploadItem

// Headers implements Tabular.
func (UploadItems) Headers() []string { return []string{"NAME", "STATUS", "SOURCE", "ID"} }

// Rows implements Tabular.
func (u UploadItems) Rows() [][]string {
	rows := make([][]string, len(u))
	for i, item := range u {
		rows[i] = []string{item.Name, string(item.Status), item.Source, item.ID}
	}
	return rows
}

// Transcript renders a session's events in log order.
type Transcript []types.Event

// Headers implements Tabular.
func (Transcript) Headers() []string { return []string{"#", "TYPE", "DETAIL"} }

// Rows implements Tabular.
func (t Transcript) Rows() [][]string {
	rows := make([][]string, len(t))
	for i, ev := range t {
		rows[i] = []string{strconv.Itoa(i + 1), string(ev.Type), Truncate(detail(ev), snippetWidth)}
	}
	return rows
}

// EventWriter prints events one at a time as a session produces them:
// one JSON object per line for json/yaml output, a labelled line for table.
type EventWriter struct {
	out  io.Writer
	json bool
}

// NewEventWriter creates an event writer matching the renderer's format.
func (r *Renderer) NewEventWriter() *EventWriter {
	return &EventWriter{out: r.out, json: r.format != FormatTable}
}

// Write prints one event.
func (w *EventWriter) Write(ev types.Event) error {
	if w.json {
		data, err := json.Marshal(ev)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintf(w.out, "%s\n", data)
		return err
	}
	_, err := fmt.Fprintln(w.out, EventLine(ev))
	return err
}

// EventLine is the one-line plain text form of an event.
func EventLine(ev types.Event) string {
	switch ev.Type {
	case types.EventTypeFinal:
		return "answer: " + ev.Answer
	case types.EventTypeContext:
		return fmt.Sprintf("[context %d] %s", ev.Index, Truncate(ev.Snippet, snippetWidth))
	case types.EventTypeDone:
		return "[done]"
	default:
		return fmt.Sprintf("[%s] %s", ev.Type, detail(ev))
	}
}

func detail(ev types.Event) string {
	if ev.Type == types.EventTypeRetrieved {
		return fmt.Sprintf("%d documents", ev.Count)
	}
	return ev.Text()
}

// Truncate shortens s to at most n runes on one line, marking the cut with "…".
func Truncate(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	runes := []rune(s)
	if len(runes) <= n || n < 1 {
		return s
	}
	return string(runes[:n-1]) + "…"
}
