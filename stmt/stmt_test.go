package stmt

import "testing"

func TestBuildSelect(t *testing.T) {
	got := BuildSelect("dbo", "orders", []string{"id", "updated_at"}, "[updated_at] DESC", 10)
	want := "SELECT TOP 10 [id], [updated_at] FROM [dbo].[orders] ORDER BY [updated_at] DESC"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestBuildSelectNoLimitNoSortNoSchema(t *testing.T) {
	got := BuildSelect("", "orders", []string{"id"}, "", 0)
	want := "SELECT [id] FROM [orders]"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestBuildInsert(t *testing.T) {
	got := BuildInsert("dbo", "orders", []string{"id", "name"}, []string{"1", "N'widget'"})
	want := "INSERT INTO [dbo].[orders] ([id], [name]) VALUES (1, N'widget');"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}
