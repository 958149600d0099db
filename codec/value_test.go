package codec

import "testing"

func TestEncodeString(t *testing.T) {
	tests := []struct {
		name  string
		value any
		code  SQLTypeCode
		want  string
	}{
		{"simple", "hello", TypeVarChar, "N'hello'"},
		{"quote doubled", "O'Reilly", TypeVarChar, "N'O''Reilly'"},
		{"crlf to space", "O'Reilly\r\nInc", TypeVarChar, "N'O''Reilly Inc'"},
		{"lf to space", "O'Reilly\nInc", TypeVarChar, "N'O''Reilly Inc'"},
		{"cr to space", "O'Reilly\rInc", TypeVarChar, "N'O''Reilly Inc'"},
		{"null", nil, TypeVarChar, "NULL"},
		{"nchar still N prefixed", "x", TypeNChar, "N'x'"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Encode(tt.value, tt.code); got != tt.want {
				t.Errorf("Encode(%v, %v) = %q, want %q", tt.value, tt.code, got, tt.want)
			}
		})
	}
}

func TestEncodeBit(t *testing.T) {
	if got := Encode(true, TypeBit); got != "1" {
		t.Errorf("true -> %q, want 1", got)
	}
	if got := Encode(false, TypeBit); got != "0" {
		t.Errorf("false -> %q, want 0", got)
	}
}

func TestEncodeNumeric(t *testing.T) {
	if got := Encode(int64(42), TypeBigInt); got != "42" {
		t.Errorf("int64 -> %q, want 42", got)
	}
	if got := Encode(nil, TypeInteger); got != "NULL" {
		t.Errorf("nil int -> %q, want NULL", got)
	}
}

func TestEncodeBinary(t *testing.T) {
	small := []byte{0xDE, 0xAD, 0xBE, 0xEF}
	if got := Encode(small, TypeVarBinary); got != "0xdeadbeef" {
		t.Errorf("small binary -> %q, want 0xdeadbeef", got)
	}

	large := make([]byte, maxInlineBinaryBytes+1)
	if got := Encode(large, TypeVarBinary); got != "NULL /* Binary data too large */" {
		t.Errorf("8001-byte binary -> %q, want sentinel", got)
	}
}

func TestEncodeTemporal(t *testing.T) {
	if got := Encode("2024-01-01 00:00:00", TypeTimestamp); got != "'2024-01-01 00:00:00'" {
		t.Errorf("timestamp -> %q", got)
	}
}
