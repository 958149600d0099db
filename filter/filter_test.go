package filter

import (
	"regexp"
	"testing"
)

func TestIncludeDefaultPolicy(t *testing.T) {
	f, err := New(Policy{})
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		want bool
	}{
		{"audit_log", false},       // *_log wildcard
		{"users", true},
		{"users_backup", false},    // *_backup wildcard
		{"sysjobs", false},         // sys prefix
		{"tmp_import", false},      // tmp_* wildcard
		{"orders_20240101", false}, // .*_\d{8}$ regex
	}
	for _, tt := range tests {
		if got := f.Include(tt.name, -1); got != tt.want {
			t.Errorf("Include(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestIncludeBlankName(t *testing.T) {
	f, err := New(Policy{})
	if err != nil {
		t.Fatal(err)
	}
	if f.Include("", -1) {
		t.Error("blank table name must be excluded")
	}
	if f.Include("   ", -1) {
		t.Error("blank (whitespace) table name must be excluded")
	}
}

func TestIncludeEmptyTablesPolicy(t *testing.T) {
	f, err := New(Policy{ExcludeEmptyTables: true})
	if err != nil {
		t.Fatal(err)
	}
	if f.Include("empty_table", 0) {
		t.Error("zero-row table must be excluded when ExcludeEmptyTables is set")
	}
	if !f.Include("empty_table", -1) {
		t.Error("unknown row count (-1) must not be treated as empty")
	}
}

func TestIncludeUserOverride(t *testing.T) {
	f, err := New(Policy{ExactNames: []string{"legacy_junk"}})
	if err != nil {
		t.Fatal(err)
	}
	if f.Include("legacy_junk", -1) {
		t.Error("user-supplied exact list should replace (not extend) the default")
	}
	// Default exact names no longer apply once the user supplies their own
	// list; "dtproperties" doesn't match prefix/wildcard/regex defaults.
	if !f.Include("dtproperties", -1) {
		t.Error("dtproperties should be included once the exact-list default is overridden")
	}
}

func TestWildcardToRegex(t *testing.T) {
	re := wildcardToRegex("tmp_*")
	if !reMatch(re, "tmp_foo") || reMatch(re, "nontmp_foo") {
		t.Errorf("wildcardToRegex(%q) compiled incorrectly", "tmp_*")
	}
}

func reMatch(pattern, s string) bool {
	return regexp.MustCompile(pattern).MatchString(s)
}
