package sink

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestSinkWritesHeaderBatchFooter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "export.sql")
	s, err := Open(path, "mydb", "dbo", 1, 200)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.WriteTableHeader("dbo", "orders", 2); err != nil {
		t.Fatal(err)
	}
	if err := s.WriteBatch([]string{
		"INSERT INTO [dbo].[orders] ([id]) VALUES (1);",
		"INSERT INTO [dbo].[orders] ([id]) VALUES (2);",
	}); err != nil {
		t.Fatal(err)
	}
	if err := s.WriteTableFooter(); err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}

	buf, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	content := string(buf)
	for _, want := range []string{
		"Row export of database [mydb], schema [dbo]",
		"Tables: 1, row limit per table: 200",
		"SET NOCOUNT ON;",
		"Table [dbo].[orders]",
		"INSERT INTO [dbo].[orders] ([id]) VALUES (1);",
		"INSERT INTO [dbo].[orders] ([id]) VALUES (2);",
		"GO",
		"Export complete: 1 tables",
	} {
		if !strings.Contains(content, want) {
			t.Errorf("output missing %q\nfull output:\n%s", want, content)
		}
	}
}

func TestSinkEmptySchemaProducesHeaderAndFooterOnly(t *testing.T) {
	path := filepath.Join(t.TempDir(), "export.sql")
	s, err := Open(path, "mydb", "dbo", 0, 200)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}

	buf, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	content := string(buf)
	if !strings.Contains(content, "Row export of database [mydb], schema [dbo]") || !strings.Contains(content, "Export complete: 0 tables") {
		t.Errorf("expected header and footer only, got:\n%s", content)
	}
	if strings.Contains(content, "INSERT INTO") {
		t.Errorf("expected no INSERT statements, got:\n%s", content)
	}
}
