// Package export sequences the phases of one run: open primary session
// and pool, bulk introspection, filter, sink initialization, scheduled
// parallel export, and finalize. Errors are returned, never fatal-exited,
// so cmd/rowexport owns the process-termination decision.
package export

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/latticedata/rowexport/config"
	"github.com/latticedata/rowexport/exporter"
	"github.com/latticedata/rowexport/filter"
	"github.com/latticedata/rowexport/metadata"
	"github.com/latticedata/rowexport/pool"
	"github.com/latticedata/rowexport/report"
	"github.com/latticedata/rowexport/scheduler"
	"github.com/latticedata/rowexport/sink"

	_ "github.com/microsoft/go-mssqldb"
)

// Result is what Run returns on success: per-table outcomes plus the paths
// of the artifacts it wrote.
type Result struct {
	Tables     map[string]metadata.ExportResult
	SQLPath    string
	ReportPath string
}

// Run drives one export end to end against cfg. runID disambiguates the
// three timestamped output artifacts across concurrent runs sharing an
// output directory.
func Run(ctx context.Context, cfg *config.ExportConfig, runID string) (*Result, error) {
	started := time.Now()
	var phases []report.PhaseTiming
	phase := func(name string, start time.Time) {
		phases = append(phases, report.PhaseTiming{Name: name, Duration: time.Since(start)})
	}

	if err := os.MkdirAll(cfg.OutputDirectory, 0o755); err != nil {
		return nil, fmt.Errorf("export: create output directory %q: %w", cfg.OutputDirectory, err)
	}

	phaseStart := time.Now()
	db, err := sql.Open("sqlserver", cfg.ConnectionString())
	if err != nil {
		return nil, fmt.Errorf("export: open connection: %w", err)
	}
	defer db.Close()

	connPool, err := pool.Open(ctx, db, cfg.ParallelThreads)
	if err != nil {
		return nil, fmt.Errorf("export: open connection pool: %w", err)
	}
	defer connPool.Close()
	phase("connect", phaseStart)

	phaseStart = time.Now()
	slog.Info("introspecting schema", "schema", cfg.SchemaName)
	catalog, err := metadata.Extract(ctx, db, cfg.SchemaName, cfg.IncludeSystemTables)
	if err != nil {
		return nil, fmt.Errorf("export: extract catalog: %w", err)
	}
	for _, w := range catalog.Warnings {
		slog.Warn(w)
	}
	phase("introspect", phaseStart)

	phaseStart = time.Now()
	filterPolicy, err := filter.LoadPolicy(cfg.FilterPolicyFile)
	if err != nil {
		return nil, fmt.Errorf("export: load filter policy: %w", err)
	}
	tableFilter, err := filter.New(filterPolicy)
	if err != nil {
		return nil, fmt.Errorf("export: build filter: %w", err)
	}

	tables := make(map[string]metadata.TableMetadata)
	for _, t := range catalog.Tables {
		if tableFilter.Include(t.TableName, t.EstimatedRowCount) {
			tables[t.TableName] = t
		}
	}
	slog.Info("filtered export set", "tables", len(tables), "excluded", len(catalog.Tables)-len(tables))
	phase("filter", phaseStart)

	phaseStart = time.Now()
	sqlPath := filepath.Join(cfg.OutputDirectory, fmt.Sprintf("export_%s.sql", runID))
	outSink, err := sink.Open(sqlPath, cfg.DBName, cfg.SchemaName, len(tables), cfg.RowLimit)
	if err != nil {
		return nil, fmt.Errorf("export: open sink: %w", err)
	}
	phase("sink init", phaseStart)

	phaseStart = time.Now()
	plan := scheduler.BuildPlan(tables)

	results, runErr := scheduler.Run(ctx, plan, cfg.ParallelThreads, func(ctx context.Context, tableName string) (metadata.ExportResult, error) {
		conn, err := connPool.Acquire(ctx)
		if err != nil {
			return metadata.ExportResult{}, fmt.Errorf("acquire pool connection: %w", err)
		}
		return exporter.Export(ctx, connPool, conn, outSink, tables[tableName], cfg.RowLimit, cfg.BatchSize)
	})
	phase("export", phaseStart)

	phaseStart = time.Now()
	if closeErr := outSink.Close(); closeErr != nil && runErr == nil {
		runErr = fmt.Errorf("export: close sink: %w", closeErr)
	}
	if runErr != nil {
		return nil, runErr
	}
	phase("finalize", phaseStart)

	finished := time.Now()
	reportPath := filepath.Join(cfg.OutputDirectory, fmt.Sprintf("export_report_%s.txt", runID))
	if err := report.Write(reportPath, report.Summary{
		SchemaName: cfg.SchemaName,
		StartedAt:  started,
		FinishedAt: finished,
		Results:    results,
		Warnings:   plan.Warnings,
		Phases:     phases,
	}); err != nil {
		return nil, fmt.Errorf("export: write report: %w", err)
	}

	return &Result{Tables: results, SQLPath: sqlPath, ReportPath: reportPath}, nil
}
