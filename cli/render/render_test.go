package render

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/pithecene-io/docent/types"
)

func TestParseFormat(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Format
		wantErr bool
	}{
		{"json lowercase", "json", FormatJSON, false},
		{"json uppercase", "JSON", FormatJSON, false},
		{"table", "table", FormatTable, false},
		{"yaml", "yaml", FormatYAML, false},
		{"empty", "", "", false},
		{"invalid", "xml", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseFormat(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ParseFormat(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
				return
			}
			if got != tt.want {
				t.Errorf("ParseFormat(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}

	if _, err := ParseFormat("csv"); err == nil || !strings.Contains(err.Error(), "json, table, or yaml") {
		t.Errorf("error message should mention valid formats, got: %v", err)
	}
}

func title(s string) *string { return &s }

func TestRenderer_QueryResultsTable(t *testing.T) {
	var buf bytes.Buffer
	r := NewRendererWithWriter(FormatTable, true, &buf)

	results := QueryResults{
		{Score: 0.92, Content: "cats are great", Title: title("cats.md")},
		{Score: 0.5, Content: "dogs\nare  fine"},
	}
	if err := r.Render(results); err != nil {
		t.Fatalf("Render failed: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header + 2 rows, got:\n%s", buf.String())
	}
	if !strings.HasPrefix(lines[0], "#") || !strings.Contains(lines[0], "SCORE") {
		t.Errorf("header = %q", lines[0])
	}
	if !strings.Contains(lines[1], "0.920") || !strings.Contains(lines[1], "cats.md") {
		t.Errorf("row 1 = %q", lines[1])
	}
	if !strings.Contains(lines[2], "dogs are fine") {
		t.Errorf("row 2 should collapse whitespace: %q", lines[2])
	}
}

func TestRenderer_QueryResultsJSON(t *testing.T) {
	var buf bytes.Buffer
	r := NewRendererWithWriter(FormatJSON, false, &buf)

	if err := r.Render(QueryResults{{Score: 0.92, Content: "cats are great"}}); err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	var got []types.QueryResult
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("output is not a JSON array: %v\n%s", err, buf.String())
	}
	if len(got) != 1 || got[0].Score != 0.92 {
		t.Errorf("got %+v", got)
	}
	if strings.Contains(buf.String(), "title") {
		t.Error("absent title should be omitted")
	}
}

func TestRenderer_EmptyTable(t *testing.T) {
	var buf bytes.Buffer
	r := NewRendererWithWriter(FormatTable, false, &buf)

	if err := r.Render(QueryResults{}); err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if !strings.Contains(buf.String(), "(no results)") {
		t.Errorf("empty results should show '(no results)', got: %s", buf.String())
	}
}

func TestRenderer_UploadItemsYAML(t *testing.T) {
	var buf bytes.Buffer
	r := NewRendererWithWriter(FormatYAML, false, &buf)

	items := UploadItems{
		{ID: "a1", Name: "a.pdf", Source: "a.pdf", Status: types.UploadStatusDone},
		{ID: "b2", Name: "b.pdf", Source: "s3://docs/b.pdf", Status: types.UploadStatusError},
	}
	if err := r.Render(items); err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	got := buf.String()
	for _, want := range []string{"name: a.pdf", "status: done", "status: error", "source: s3://docs/b.pdf"} {
		if !strings.Contains(got, want) {
			t.Errorf("YAML output missing %q:\n%s", want, got)
		}
	}
}

func TestRenderer_StructFields(t *testing.T) {
	var buf bytes.Buffer
	r := NewRendererWithWriter(FormatTable, false, &buf)

	type stats struct {
		Sessions int              `json:"sessions"`
		Dropped  map[string]int64 `json:"dropped_by_kind"`
		internal string
	}
	if err := r.Render(stats{Sessions: 2, Dropped: map[string]int64{"decode": 1, "discarded": 3}}); err != nil {
		t.Fatalf("Render failed: %v", err)
	}

	got := buf.String()
	if !strings.Contains(got, "sessions:") || !strings.Contains(got, "2") {
		t.Errorf("missing sessions field: %s", got)
	}
	if !strings.Contains(got, "decode=1 discarded=3") {
		t.Errorf("map should render sorted pairs: %s", got)
	}
	if strings.Contains(got, "internal") {
		t.Errorf("unexported fields should be skipped: %s", got)
	}
}

func TestRenderer_NoColorDoesNotAffectJSON(t *testing.T) {
	var color, plain bytes.Buffer
	data := Transcript{types.StatusEvent("hi"), types.DoneEvent()}

	if err := NewRendererWithWriter(FormatJSON, false, &color).Render(data); err != nil {
		t.Fatal(err)
	}
	if err := NewRendererWithWriter(FormatJSON, true, &plain).Render(data); err != nil {
		t.Fatal(err)
	}
	if color.String() != plain.String() {
		t.Errorf("--no-color should not affect JSON output")
	}
}

func TestEventWriter(t *testing.T) {
	events := []types.Event{
		types.StatusEvent("searching"),
		types.RetrievedEvent(2),
		types.ContextEvent(0, "cats purr"),
		types.FinalEvent("fish"),
		types.DoneEvent(),
	}

	t.Run("table", func(t *testing.T) {
		var buf bytes.Buffer
		w := NewRendererWithWriter(FormatTable, true, &buf).NewEventWriter()
		for _, ev := range events {
			if err := w.Write(ev); err != nil {
				t.Fatal(err)
			}
		}
		want := "[status] searching\n[retrieved] 2 documents\n[context 0] cats purr\nanswer: fish\n[done]\n"
		if buf.String() != want {
			t.Errorf("got:\n%s\nwant:\n%s", buf.String(), want)
		}
	})

	t.Run("json lines", func(t *testing.T) {
		var buf bytes.Buffer
		w := NewRendererWithWriter(FormatJSON, false, &buf).NewEventWriter()
		for _, ev := range events {
			if err := w.Write(ev); err != nil {
				t.Fatal(err)
			}
		}
		lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
		if len(lines) != len(events) {
			t.Fatalf("got %d lines, want %d", len(lines), len(events))
		}
		var ev types.Event
		if err := json.Unmarshal([]byte(lines[2]), &ev); err != nil || ev != types.ContextEvent(0, "cats purr") {
			t.Errorf("line 3 = %s (%v)", lines[2], err)
		}
	})
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in   string
		n    int
		want string
	}{
		{"short", 10, "short"},
		{"exactly ten", 11, "exactly ten"},
		{"a longer sentence", 8, "a longe…"},
		{"猫について話す", 4, "猫につ…"},
		{"line\nbreaks\tand  spaces", 40, "line breaks and spaces"},
	}
	for _, tt := range tests {
		if got := Truncate(tt.in, tt.n); got != tt.want {
			t.Errorf("Truncate(%q, %d) = %q, want %q", tt.in, tt.n, got, tt.want)
		}
	}
}
