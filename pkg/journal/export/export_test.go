package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"mercator-hq/wsrelay/pkg/journal"
)

func sampleRecords() []*journal.SessionRecord {
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	return []*journal.SessionRecord{
		{
			ID: "s1", User: "alice", Target: "ws://a", Outcome: journal.OutcomeCompleted,
			StartedAt: start, EndedAt: start.Add(1500 * time.Millisecond),
			BytesClientToTarget: 42,
		},
		{
			ID: "s2", User: "bob", Target: "ws://b", Outcome: journal.OutcomeDialFailed,
			StartedAt: start, EndedAt: start, Error: `dial tcp: "refused", retry`,
		},
	}
}

func TestJSONExporter_Export(t *testing.T) {
	tests := []struct {
		name    string
		records []*journal.SessionRecord
		pretty  bool
		wantLen int
	}{
		{"empty", nil, false, 0},
		{"records", sampleRecords(), false, 2},
		{"pretty", sampleRecords(), true, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			if err := NewJSONExporter(tt.pretty).Export(tt.records, &buf); err != nil {
				t.Fatalf("Export() error = %v", err)
			}
			var decoded []journal.SessionRecord
			if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
				t.Fatalf("output is not a JSON array: %v\n%s", err, buf.String())
			}
			if len(decoded) != tt.wantLen {
				t.Errorf("decoded %d records, want %d", len(decoded), tt.wantLen)
			}
			if tt.pretty && !strings.Contains(buf.String(), "\n  ") {
				t.Error("pretty output is not indented")
			}
		})
	}
}

func TestCSVExporter_Export(t *testing.T) {
	var buf bytes.Buffer
	if err := NewCSVExporter(true).Export(sampleRecords(), &buf); err != nil {
		t.Fatalf("Export() error = %v", err)
	}

	rows, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("output is not valid CSV: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("got %d rows, want header + 2", len(rows))
	}
	if rows[0][0] != "id" || len(rows[0]) != len(Header()) {
		t.Errorf("header = %v", rows[0])
	}
	if rows[1][7] != "1500" {
		t.Errorf("duration_ms = %q, want 1500", rows[1][7])
	}
	if rows[2][9] != `dial tcp: "refused", retry` {
		t.Errorf("error column = %q", rows[2][9])
	}

	buf.Reset()
	NewCSVExporter(false).Export(sampleRecords(), &buf)
	if strings.HasPrefix(buf.String(), "id,") {
		t.Error("header written with IncludeHeader=false")
	}
}
