// Package stmt composes SELECT and INSERT statements from table metadata,
// a sort clause, and a row's already-encoded literal values.
package stmt

import (
	"strconv"
	"strings"
)

// BuildSelect composes:
//
//	SELECT [TOP <n> ] [c1], [c2], ... FROM [schema].[table] [ ORDER BY <sortClause> ]
//
// TOP is emitted only when rowLimit > 0. Column identifiers are always
// bracket-quoted. sortClause is the SortStrategy's OrderByClause() output;
// an empty clause omits ORDER BY. The schema qualifier is emitted only when
// non-empty.
func BuildSelect(schema, table string, columns []string, sortClause string, rowLimit int) string {
	var b strings.Builder
	b.WriteString("SELECT ")
	if rowLimit > 0 {
		b.WriteString("TOP ")
		b.WriteString(strconv.Itoa(rowLimit))
		b.WriteString(" ")
	}
	b.WriteString(bracketList(columns))
	b.WriteString(" FROM ")
	b.WriteString(qualifiedName(schema, table))
	if sortClause != "" {
		b.WriteString(" ORDER BY ")
		b.WriteString(sortClause)
	}
	return b.String()
}

// BuildInsert composes:
//
//	INSERT INTO [schema].[table] ([c1], [c2], ...) VALUES (v1, v2, ...);
//
// columns and values must be the same length and in the same order. The
// exporter takes both from the table metadata's column order, which is also
// the column order of its SELECT, so they line up with the cursor's columns.
func BuildInsert(schema, table string, columns []string, values []string) string {
	var b strings.Builder
	b.WriteString("INSERT INTO ")
	b.WriteString(qualifiedName(schema, table))
	b.WriteString(" (")
	b.WriteString(bracketList(columns))
	b.WriteString(") VALUES (")
	b.WriteString(strings.Join(values, ", "))
	b.WriteString(");")
	return b.String()
}

func qualifiedName(schema, table string) string {
	if schema == "" {
		return "[" + table + "]"
	}
	return "[" + schema + "].[" + table + "]"
}

func bracketList(names []string) string {
	quoted := make([]string, len(names))
	for i, name := range names {
		quoted[i] = "[" + name + "]"
	}
	return strings.Join(quoted, ", ")
}
