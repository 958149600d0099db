// Package exporter drives the per-table export worker: on a pooled session
// the caller has acquired, run a SELECT cursor, encode and batch rows into
// INSERT statements, hand each batch to the sink, and release the session.
package exporter

import (
	"context"
	"fmt"
	"time"

	"github.com/latticedata/rowexport/codec"
	"github.com/latticedata/rowexport/metadata"
	"github.com/latticedata/rowexport/pool"
	"github.com/latticedata/rowexport/stmt"
	"github.com/latticedata/rowexport/util"
)

// queryTimeout bounds a single table's SELECT cursor.
const queryTimeout = 300 * time.Second

// Sink is the subset of sink.Sink the exporter writes through.
type Sink interface {
	WriteTableHeader(schemaName, tableName string, estimatedRowCount int64) error
	WriteBatch(statements []string) error
	WriteTableFooter() error
}

// Export runs one table's export on conn, which the caller has already
// acquired from p: builds and runs the SELECT, encodes and batches rows,
// writes them to sink, and always releases conn back to p. rowLimit of 0 means unbounded (no TOP clause).
func Export(ctx context.Context, p *pool.Pool, conn *pool.Conn, sink Sink, table metadata.TableMetadata, rowLimit, batchSize int) (metadata.ExportResult, error) {
	defer p.Release(conn)

	start := time.Now()

	if err := sink.WriteTableHeader(table.SchemaName, table.TableName, table.EstimatedRowCount); err != nil {
		return metadata.ExportResult{}, err
	}

	columnNames := util.TransformSlice(table.Columns, func(c metadata.ColumnInfo) string { return c.Name })

	sortClause := ""
	if table.SortStrategy != nil {
		sortClause = table.SortStrategy.OrderByClause()
	}
	query := stmt.BuildSelect(table.SchemaName, table.TableName, columnNames, sortClause, rowLimit)

	queryCtx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	rows, err := conn.DB.QueryContext(queryCtx, query)
	if err != nil {
		return metadata.ExportResult{}, fmt.Errorf("exporter: query %s.%s: %w", table.SchemaName, table.TableName, err)
	}
	defer rows.Close()

	rowCount, err := drain(rows, table, columnNames, batchSize, sink)
	if err != nil {
		return metadata.ExportResult{}, fmt.Errorf("exporter: read rows from %s.%s: %w", table.SchemaName, table.TableName, err)
	}

	if err := sink.WriteTableFooter(); err != nil {
		return metadata.ExportResult{}, err
	}

	return metadata.ExportResult{
		TableName:       table.TableName,
		RowCount:        rowCount,
		DurationSeconds: time.Since(start).Seconds(),
	}, nil
}

func drain(rows pool.Rows, table metadata.TableMetadata, columnNames []string, batchSize int, sink Sink) (int64, error) {
	var rowCount int64
	batch := make([]string, 0, batchSize)

	scanDest := make([]any, len(table.Columns))
	scanVals := make([]any, len(table.Columns))
	for i := range scanDest {
		scanDest[i] = &scanVals[i]
	}

	for rows.Next() {
		if err := rows.Scan(scanDest...); err != nil {
			return rowCount, err
		}

		values := make([]string, len(table.Columns))
		for i, col := range table.Columns {
			values[i] = codec.Encode(scanVals[i], col.SQLTypeCode)
		}
		batch = append(batch, stmt.BuildInsert(table.SchemaName, table.TableName, columnNames, values))
		rowCount++

		if len(batch) >= batchSize {
			if err := sink.WriteBatch(batch); err != nil {
				return rowCount, err
			}
			batch = batch[:0]
		}
	}
	if err := rows.Err(); err != nil {
		return rowCount, err
	}
	if len(batch) > 0 {
		if err := sink.WriteBatch(batch); err != nil {
			return rowCount, err
		}
	}
	return rowCount, nil
}
