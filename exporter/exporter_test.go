package exporter

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/latticedata/rowexport/codec"
	"github.com/latticedata/rowexport/metadata"
	"github.com/latticedata/rowexport/pool"
)

// fakeRows is a hand-rolled pool.Rows over an in-memory slice of row
// values, standing in for a live cursor.
type fakeRows struct {
	data [][]any
	i    int
}

func (r *fakeRows) Next() bool {
	return r.i < len(r.data)
}

func (r *fakeRows) Scan(dest ...any) error {
	row := r.data[r.i]
	r.i++
	for i, v := range row {
		p := dest[i].(*any)
		*p = v
	}
	return nil
}

func (r *fakeRows) Err() error   { return nil }
func (r *fakeRows) Close() error { return nil }

type fakeQuerier struct {
	rows *fakeRows
}

func (q *fakeQuerier) QueryContext(ctx context.Context, query string, args ...any) (pool.Rows, error) {
	return q.rows, nil
}

func (q *fakeQuerier) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return nil, nil
}

type fakeSink struct {
	headers  int
	batches  [][]string
	footers  int
}

func (s *fakeSink) WriteTableHeader(schemaName, tableName string, estimatedRowCount int64) error {
	s.headers++
	return nil
}

func (s *fakeSink) WriteBatch(statements []string) error {
	s.batches = append(s.batches, statements)
	return nil
}

func (s *fakeSink) WriteTableFooter() error {
	s.footers++
	return nil
}

func TestExportBatchesRowsAndReleasesConn(t *testing.T) {
	table := metadata.TableMetadata{
		TableName:  "orders",
		SchemaName: "dbo",
		Columns: []metadata.ColumnInfo{
			{Name: "id", SQLTypeCode: codec.TypeInteger},
			{Name: "name", SQLTypeCode: codec.TypeVarChar},
		},
	}

	querier := &fakeQuerier{rows: &fakeRows{data: [][]any{
		{int64(1), "alice"},
		{int64(2), "bob"},
		{int64(3), "carol"},
	}}}

	p := pool.NewFake(&pool.Conn{DB: querier})
	conn, err := p.Acquire(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	sink := &fakeSink{}

	result, err := Export(context.Background(), p, conn, sink, table, 0, 2)
	if err != nil {
		t.Fatal(err)
	}
	if result.RowCount != 3 {
		t.Errorf("RowCount = %d, want 3", result.RowCount)
	}
	if sink.headers != 1 || sink.footers != 1 {
		t.Errorf("expected exactly one header/footer, got %d/%d", sink.headers, sink.footers)
	}
	if len(sink.batches) != 2 {
		t.Fatalf("expected 2 batches (2 then 1 rows), got %d: %v", len(sink.batches), sink.batches)
	}
	if len(sink.batches[0]) != 2 || len(sink.batches[1]) != 1 {
		t.Errorf("unexpected batch sizes: %v", sink.batches)
	}
	if sink.batches[1][0] != "INSERT INTO [dbo].[orders] ([id], [name]) VALUES (3, N'carol');" {
		t.Errorf("unexpected statement: %q", sink.batches[1][0])
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if _, err := p.Acquire(ctx); err != nil {
		t.Errorf("expected Export to release conn back to the pool: %v", err)
	}
}
