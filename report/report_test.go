package report

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/latticedata/rowexport/metadata"
)

func TestWriteSortsRowsDescending(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.txt")
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	finish := start.Add(2 * time.Minute)

	err := Write(path, Summary{
		SchemaName: "dbo",
		StartedAt:  start,
		FinishedAt: finish,
		Results: map[string]metadata.ExportResult{
			"small": {TableName: "small", RowCount: 5},
			"big":   {TableName: "big", RowCount: 500},
			"mid":   {TableName: "mid", RowCount: 50},
		},
		Warnings: []string{`table "cyclic" is part of a foreign-key cycle`},
		Phases: []PhaseTiming{
			{Name: "introspect", Duration: 3 * time.Second},
			{Name: "export", Duration: 90 * time.Second},
		},
	})
	if err != nil {
		t.Fatal(err)
	}

	buf, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	content := string(buf)

	bigIdx := strings.Index(content, "big")
	midIdx := strings.Index(content, "mid")
	smallIdx := strings.Index(content, "small")
	if !(bigIdx < midIdx && midIdx < smallIdx) {
		t.Errorf("expected descending row-count order (big, mid, small), got content:\n%s", content)
	}
	if !strings.Contains(content, "Total rows: 555") {
		t.Errorf("expected total of 555 rows, got:\n%s", content)
	}
	if !strings.Contains(content, "WARNING: table \"cyclic\"") {
		t.Errorf("expected cycle warning, got:\n%s", content)
	}
	if !strings.Contains(content, "Phase introspect") || !strings.Contains(content, "Phase export") {
		t.Errorf("expected phase timings, got:\n%s", content)
	}
}

func TestWriteEmptyResultsNoDivideByZero(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.txt")
	now := time.Now()
	err := Write(path, Summary{SchemaName: "dbo", StartedAt: now, FinishedAt: now, Results: map[string]metadata.ExportResult{}})
	if err != nil {
		t.Fatal(err)
	}
	buf, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(buf), "Total rows: 0") {
		t.Errorf("expected zero total, got:\n%s", string(buf))
	}
}
