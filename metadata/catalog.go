package metadata

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"

	_ "github.com/microsoft/go-mssqldb"

	"github.com/latticedata/rowexport/codec"
	"github.com/latticedata/rowexport/sortstrategy"
)

// sqlTypeNames maps a SQL Server type name (sys.types.name, lowercase) to
// the codec's closed SQLTypeCode dispatch set.
var sqlTypeNames = map[string]codec.SQLTypeCode{
	"char":             codec.TypeChar,
	"varchar":          codec.TypeVarChar,
	"nchar":            codec.TypeNChar,
	"nvarchar":         codec.TypeNVarChar,
	"text":             codec.TypeText,
	"ntext":            codec.TypeText,
	"xml":              codec.TypeText,
	"date":             codec.TypeDate,
	"time":             codec.TypeTime,
	"datetime":         codec.TypeTimestamp,
	"datetime2":        codec.TypeTimestamp,
	"smalldatetime":    codec.TypeTimestamp,
	"datetimeoffset":   codec.TypeTimestampTZ,
	"bit":              codec.TypeBit,
	"tinyint":          codec.TypeTinyInt,
	"smallint":         codec.TypeSmallInt,
	"int":              codec.TypeInteger,
	"bigint":           codec.TypeBigInt,
	"numeric":          codec.TypeNumeric,
	"decimal":          codec.TypeDecimal,
	"real":             codec.TypeReal,
	"float":            codec.TypeFloat,
	"money":            codec.TypeDecimal,
	"smallmoney":       codec.TypeDecimal,
	"binary":           codec.TypeBinary,
	"varbinary":        codec.TypeVarBinary,
	"image":            codec.TypeLongVarBinary,
}

// defaultExcludedExactTableNames are excluded from export by default unless
// includeSystemTables is set.
var defaultExcludedExactTableNames = map[string]bool{
	"sysdiagrams":    true,
	"dtproperties":   true,
	"sysconstraints": true,
	"syssegments":    true,
}

var defaultExcludedPrefixes = []string{"sys", "msreplication", "spt_", "__"}

// Catalog is the bulk-extracted schema catalog, built from one
// table-discovery query plus four bulk catalog queries, independent of
// table count.
type Catalog struct {
	SchemaName string
	Tables     []TableMetadata
	Warnings   []string
}

// Extract runs a table-discovery query and the four bulk catalog queries
// against db and assembles TableMetadata
// in table-discovery order, attaching a resolved SortStrategy to each table.
func Extract(ctx context.Context, db *sql.DB, schemaName string, includeSystemTables bool) (*Catalog, error) {
	tables, err := discoverTables(ctx, db, schemaName, includeSystemTables)
	if err != nil {
		return nil, fmt.Errorf("metadata: discover tables: %w", err)
	}

	primaryKeys, err := fetchPrimaryKeys(ctx, db, schemaName)
	if err != nil {
		return nil, fmt.Errorf("metadata: fetch primary keys: %w", err)
	}
	foreignKeys, err := fetchForeignKeys(ctx, db, schemaName)
	if err != nil {
		return nil, fmt.Errorf("metadata: fetch foreign keys: %w", err)
	}
	columns, err := fetchColumns(ctx, db, schemaName)
	if err != nil {
		return nil, fmt.Errorf("metadata: fetch columns: %w", err)
	}
	rowCounts, err := fetchRowCounts(ctx, db, schemaName)
	if err != nil {
		return nil, fmt.Errorf("metadata: fetch row counts: %w", err)
	}

	cat := &Catalog{SchemaName: schemaName}
	for _, tableName := range tables {
		pk := primaryKeys[tableName]
		cols := columns[tableName]
		sort.Slice(cols, func(i, j int) bool { return cols[i].Ordinal < cols[j].Ordinal })

		fks := foreignKeys[tableName]
		sort.Slice(fks, func(i, j int) bool { return fks[i].KeySequence < fks[j].KeySequence })

		rowCount, ok := rowCounts[tableName]
		if !ok {
			rowCount = -1
		}

		strategy, warning := sortstrategy.Resolve(toSortColumns(cols), pk)
		if warning != "" {
			cat.Warnings = append(cat.Warnings, fmt.Sprintf("%s: %s", tableName, warning))
		}

		cat.Tables = append(cat.Tables, TableMetadata{
			TableName:         tableName,
			SchemaName:        schemaName,
			PrimaryKeyColumns: pk,
			ForeignKeys:       fks,
			Columns:           cols,
			SortStrategy:      strategy,
			EstimatedRowCount: rowCount,
			HasCompositeKey:   len(pk) > 1,
		})
	}
	return cat, nil
}

func toSortColumns(cols []ColumnInfo) []sortstrategy.Column {
	out := make([]sortstrategy.Column, len(cols))
	for i, c := range cols {
		out[i] = sortstrategy.Column{Name: c.Name, IsDateTime: c.IsDateTime()}
	}
	return out
}

func isDefaultExcludedTableName(name string) bool {
	if defaultExcludedExactTableNames[name] {
		return true
	}
	lower := strings.ToLower(name)
	if strings.Contains(lower, "$") {
		return true
	}
	for _, prefix := range defaultExcludedPrefixes {
		if strings.HasPrefix(lower, prefix) {
			return true
		}
	}
	return false
}

// discoverTables lists base tables in schemaName, using the session's
// catalog-metadata facility (sys.tables), filtered to base tables and
// (unless includeSystemTables) stripped of system-looking names.
func discoverTables(ctx context.Context, db *sql.DB, schemaName string, includeSystemTables bool) ([]string, error) {
	const query = `
SELECT t.name
FROM sys.tables t
INNER JOIN sys.schemas s ON s.schema_id = t.schema_id
WHERE s.name = @schema
ORDER BY t.name ASC`

	rows, err := db.QueryContext(ctx, query, sql.Named("schema", schemaName))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		if !includeSystemTables && isDefaultExcludedTableName(name) {
			continue
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// fetchPrimaryKeys is the first of the four bulk catalog queries: one join
// of the PK constraint view to its column-usage view, ordered by table then
// ordinal.
func fetchPrimaryKeys(ctx context.Context, db *sql.DB, schemaName string) (map[string][]string, error) {
	const query = `
SELECT
	tc.TABLE_NAME,
	kcu.COLUMN_NAME,
	kcu.ORDINAL_POSITION
FROM INFORMATION_SCHEMA.TABLE_CONSTRAINTS tc
INNER JOIN INFORMATION_SCHEMA.KEY_COLUMN_USAGE kcu
	ON tc.CONSTRAINT_NAME = kcu.CONSTRAINT_NAME
	AND tc.TABLE_SCHEMA = kcu.TABLE_SCHEMA
WHERE tc.CONSTRAINT_TYPE = 'PRIMARY KEY'
	AND tc.TABLE_SCHEMA = @schema
ORDER BY tc.TABLE_NAME, kcu.ORDINAL_POSITION`

	rows, err := db.QueryContext(ctx, query, sql.Named("schema", schemaName))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make(map[string][]string)
	for rows.Next() {
		var table, column string
		var ordinal int
		if err := rows.Scan(&table, &column, &ordinal); err != nil {
			return nil, err
		}
		result[table] = append(result[table], column)
	}
	return result, rows.Err()
}

// fetchForeignKeys is the second bulk catalog query: one pass over the
// server's foreign-key system views, returning constraint name, local
// table/column, referenced schema/table/column, and constraint_column_id
// for ordering composite keys.
func fetchForeignKeys(ctx context.Context, db *sql.DB, schemaName string) (map[string][]ForeignKeyInfo, error) {
	const query = `
SELECT
	fk.name,
	tp.name AS parent_table,
	cp.name AS parent_column,
	rs.name AS referenced_schema,
	tr.name AS referenced_table,
	cr.name AS referenced_column,
	fkc.constraint_column_id
FROM sys.foreign_keys fk
INNER JOIN sys.foreign_key_columns fkc ON fkc.constraint_object_id = fk.object_id
INNER JOIN sys.tables tp ON tp.object_id = fk.parent_object_id
INNER JOIN sys.schemas sp ON sp.schema_id = tp.schema_id
INNER JOIN sys.columns cp ON cp.object_id = fkc.parent_object_id AND cp.column_id = fkc.parent_column_id
INNER JOIN sys.tables tr ON tr.object_id = fk.referenced_object_id
INNER JOIN sys.schemas rs ON rs.schema_id = tr.schema_id
INNER JOIN sys.columns cr ON cr.object_id = fkc.referenced_object_id AND cr.column_id = fkc.referenced_column_id
WHERE sp.name = @schema
ORDER BY tp.name, fk.name, fkc.constraint_column_id`

	rows, err := db.QueryContext(ctx, query, sql.Named("schema", schemaName))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make(map[string][]ForeignKeyInfo)
	for rows.Next() {
		var constraintName, parentTable, parentColumn string
		var referencedSchema, referencedTable, referencedColumn string
		var keySeq int
		if err := rows.Scan(&constraintName, &parentTable, &parentColumn,
			&referencedSchema, &referencedTable, &referencedColumn, &keySeq); err != nil {
			return nil, err
		}
		result[parentTable] = append(result[parentTable], ForeignKeyInfo{
			ConstraintName:   constraintName,
			LocalColumn:      parentColumn,
			ReferencedSchema: referencedSchema,
			ReferencedTable:  referencedTable,
			ReferencedColumn: referencedColumn,
			KeySequence:      keySeq,
		})
	}
	return result, rows.Err()
}

// fetchColumns is the third bulk catalog query: one pass over the columns
// catalog, translating the server's type name to the closed SQLTypeCode
// set, with nullability, identity flag, max length, and ordinal.
func fetchColumns(ctx context.Context, db *sql.DB, schemaName string) (map[string][]ColumnInfo, error) {
	const query = `
SELECT
	t.name AS table_name,
	c.name AS column_name,
	ty.name AS type_name,
	c.max_length,
	c.is_nullable,
	c.is_identity,
	c.column_id
FROM sys.columns c
INNER JOIN sys.tables t ON t.object_id = c.object_id
INNER JOIN sys.schemas s ON s.schema_id = t.schema_id
INNER JOIN sys.types ty ON ty.user_type_id = c.user_type_id
WHERE s.name = @schema
ORDER BY t.name, c.column_id`

	rows, err := db.QueryContext(ctx, query, sql.Named("schema", schemaName))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make(map[string][]ColumnInfo)
	for rows.Next() {
		var tableName, columnName, typeName string
		var maxLength int
		var nullable, identity bool
		var columnID int
		if err := rows.Scan(&tableName, &columnName, &typeName, &maxLength, &nullable, &identity, &columnID); err != nil {
			return nil, err
		}

		code, ok := sqlTypeNames[strings.ToLower(typeName)]
		if !ok {
			code = codec.TypeVarChar
		}

		result[tableName] = append(result[tableName], ColumnInfo{
			Name:          columnName,
			SQLTypeCode:   code,
			TypeName:      typeName,
			Size:          maxLength,
			Nullable:      nullable,
			AutoIncrement: identity,
			Ordinal:       columnID,
		})
	}
	return result, rows.Err()
}

// fetchRowCounts is the fourth bulk catalog query: one pass over the
// partitions catalog, summing rows over index_id in (0, 1), the heap or
// clustered index partitions that hold actual row data.
func fetchRowCounts(ctx context.Context, db *sql.DB, schemaName string) (map[string]int64, error) {
	const query = `
SELECT
	t.name,
	SUM(p.rows)
FROM sys.partitions p
INNER JOIN sys.tables t ON t.object_id = p.object_id
INNER JOIN sys.schemas s ON s.schema_id = t.schema_id
WHERE s.name = @schema
	AND p.index_id IN (0, 1)
GROUP BY t.name`

	rows, err := db.QueryContext(ctx, query, sql.Named("schema", schemaName))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make(map[string]int64)
	for rows.Next() {
		var tableName string
		var rowCount int64
		if err := rows.Scan(&tableName, &rowCount); err != nil {
			return nil, err
		}
		result[tableName] = rowCount
	}
	return result, rows.Err()
}
