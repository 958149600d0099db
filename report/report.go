// Package report renders the human-readable run summary written to
// export_report_<ts>.txt: start/end timestamps, duration, totals, and
// per-table row counts sorted descending.
package report

import (
	"cmp"
	"fmt"
	"os"
	"slices"
	"time"

	"github.com/latticedata/rowexport/metadata"
)

// PhaseTiming is how long one phase of the run took.
type PhaseTiming struct {
	Name     string
	Duration time.Duration
}

// Summary is the input to Write: one run's results plus its phase timings.
type Summary struct {
	SchemaName string
	StartedAt  time.Time
	FinishedAt time.Time
	Results    map[string]metadata.ExportResult
	Warnings   []string
	Phases     []PhaseTiming
}

// Write renders summary to path.
func Write(path string, summary Summary) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("report: create %q: %w", path, err)
	}
	defer f.Close()

	rows := make([]metadata.ExportResult, 0, len(summary.Results))
	var totalRows int64
	for _, r := range summary.Results {
		rows = append(rows, r)
		totalRows += r.RowCount
	}
	slices.SortFunc(rows, func(a, b metadata.ExportResult) int {
		return cmp.Compare(b.RowCount, a.RowCount)
	})

	if _, err := fmt.Fprintf(f, "Row export report\n"); err != nil {
		return fmt.Errorf("report: write %q: %w", path, err)
	}
	return writeBody(f, summary, rows, totalRows, path)
}

func writeBody(f *os.File, summary Summary, rows []metadata.ExportResult, totalRows int64, path string) error {
	if _, err := fmt.Fprintf(f, "Schema: %s\n", summary.SchemaName); err != nil {
		return fmt.Errorf("report: write %q: %w", path, err)
	}
	if _, err := fmt.Fprintf(f, "Started:  %s\n", summary.StartedAt.UTC().Format(time.RFC3339)); err != nil {
		return fmt.Errorf("report: write %q: %w", path, err)
	}
	if _, err := fmt.Fprintf(f, "Finished: %s\n", summary.FinishedAt.UTC().Format(time.RFC3339)); err != nil {
		return fmt.Errorf("report: write %q: %w", path, err)
	}
	if _, err := fmt.Fprintf(f, "Duration: %s\n", summary.FinishedAt.Sub(summary.StartedAt)); err != nil {
		return fmt.Errorf("report: write %q: %w", path, err)
	}
	if _, err := fmt.Fprintf(f, "Tables exported: %d\n", len(rows)); err != nil {
		return fmt.Errorf("report: write %q: %w", path, err)
	}
	if _, err := fmt.Fprintf(f, "Total rows: %d\n\n", totalRows); err != nil {
		return fmt.Errorf("report: write %q: %w", path, err)
	}

	for _, p := range summary.Phases {
		if _, err := fmt.Fprintf(f, "Phase %-12s %8.2fs\n", p.Name, p.Duration.Seconds()); err != nil {
			return fmt.Errorf("report: write %q: %w", path, err)
		}
	}
	if len(summary.Phases) > 0 {
		if _, err := fmt.Fprintln(f); err != nil {
			return fmt.Errorf("report: write %q: %w", path, err)
		}
	}

	for _, w := range summary.Warnings {
		if _, err := fmt.Fprintf(f, "WARNING: %s\n", w); err != nil {
			return fmt.Errorf("report: write %q: %w", path, err)
		}
	}
	if len(summary.Warnings) > 0 {
		if _, err := fmt.Fprintln(f); err != nil {
			return fmt.Errorf("report: write %q: %w", path, err)
		}
	}

	for _, r := range rows {
		if _, err := fmt.Fprintf(f, "%-40s %10d rows  %8.2fs\n", r.TableName, r.RowCount, r.DurationSeconds); err != nil {
			return fmt.Errorf("report: write %q: %w", path, err)
		}
	}
	return nil
}
