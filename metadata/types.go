// Package metadata reconstructs the table/column/PK/FK catalog of one
// schema and extracts estimated row counts, using a small, fixed number of
// catalog queries rather than per-table metadata lookups.
package metadata

import (
	"github.com/latticedata/rowexport/codec"
	"github.com/latticedata/rowexport/sortstrategy"
)

// ColumnInfo describes one column. Immutable once constructed.
type ColumnInfo struct {
	Name          string
	SQLTypeCode   codec.SQLTypeCode
	TypeName      string
	Size          int
	Nullable      bool
	AutoIncrement bool
	Ordinal       int
}

// IsDateTime reports whether the column holds a date/time value.
func (c ColumnInfo) IsDateTime() bool {
	switch c.SQLTypeCode {
	case codec.TypeDate, codec.TypeTime, codec.TypeTimestamp, codec.TypeTimestampTZ:
		return true
	}
	return false
}

// IsNumeric reports whether the column holds a numeric value.
func (c ColumnInfo) IsNumeric() bool {
	switch c.SQLTypeCode {
	case codec.TypeTinyInt, codec.TypeSmallInt, codec.TypeInteger, codec.TypeBigInt,
		codec.TypeNumeric, codec.TypeDecimal, codec.TypeReal, codec.TypeFloat, codec.TypeDouble:
		return true
	}
	return false
}

// IsString reports whether the column holds string data.
func (c ColumnInfo) IsString() bool {
	switch c.SQLTypeCode {
	case codec.TypeChar, codec.TypeVarChar, codec.TypeNChar, codec.TypeNVarChar, codec.TypeText:
		return true
	}
	return false
}

// ForeignKeyInfo describes one column of a (possibly composite) foreign
// key, ordered within its constraint by KeySequence. Immutable.
type ForeignKeyInfo struct {
	ConstraintName    string
	LocalColumn       string
	ReferencedSchema  string
	ReferencedTable   string
	ReferencedColumn  string
	KeySequence       int
}

// TableMetadata is the full description of one exportable table, built once
// during introspection and read-only thereafter.
type TableMetadata struct {
	TableName          string
	SchemaName         string
	PrimaryKeyColumns  []string
	ForeignKeys        []ForeignKeyInfo
	Columns            []ColumnInfo
	SortStrategy        SortStrategy
	EstimatedRowCount   int64
	HasCompositeKey     bool
}

// QualifiedName returns "schema.table".
func (t TableMetadata) QualifiedName() string {
	if t.SchemaName == "" {
		return t.TableName
	}
	return t.SchemaName + "." + t.TableName
}

// SortStrategy aliases sortstrategy.Strategy so callers working only with
// metadata types don't need a second import for the field's type.
type SortStrategy = sortstrategy.Strategy

// ExportResult is the outcome of exporting one table.
type ExportResult struct {
	TableName       string
	RowCount        int64
	DurationSeconds float64
}
