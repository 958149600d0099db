// Package codec formats a single column value as a T-SQL literal safe to
// paste into a VALUES list.
package codec

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// SQLTypeCode is the closed enumeration the codec dispatches on. It mirrors
// the SQL Server catalog type names the metadata extractor (package
// metadata) translates column types into.
type SQLTypeCode int

const (
	TypeUnknown SQLTypeCode = iota

	// String family.
	TypeChar
	TypeVarChar
	TypeNChar
	TypeNVarChar
	TypeText // long text / CLOB / NCLOB

	// Temporal.
	TypeDate
	TypeTime
	TypeTimestamp
	TypeTimestampTZ

	// Boolean.
	TypeBit

	// Numeric.
	TypeTinyInt
	TypeSmallInt
	TypeInteger
	TypeBigInt
	TypeNumeric
	TypeDecimal
	TypeReal
	TypeFloat
	TypeDouble

	// Binary.
	TypeBinary
	TypeVarBinary
	TypeLongVarBinary
	TypeBlob
)

// maxInlineBinaryBytes is the cutoff above which binary data is replaced
// with a sentinel comment instead of a hex literal.
const maxInlineBinaryBytes = 8000

// Encode dispatches by code and returns the T-SQL literal for value. A nil
// value always yields NULL, regardless of code.
func Encode(value any, code SQLTypeCode) string {
	if value == nil {
		return "NULL"
	}

	switch code {
	case TypeChar, TypeVarChar, TypeNChar, TypeNVarChar, TypeText:
		return encodeString(value)
	case TypeDate, TypeTime, TypeTimestamp, TypeTimestampTZ:
		return encodeTemporal(value, code)
	case TypeBit:
		return encodeBit(value)
	case TypeTinyInt, TypeSmallInt, TypeInteger, TypeBigInt,
		TypeNumeric, TypeDecimal, TypeReal, TypeFloat, TypeDouble:
		return encodeNumeric(value)
	case TypeBinary, TypeVarBinary, TypeLongVarBinary, TypeBlob:
		return encodeBinary(value)
	default:
		return encodeString(value)
	}
}

// EscapeString applies T-SQL string-literal escaping: a single quote
// doubles, and CRLF/LF/CR each collapse to a single ASCII space.
func EscapeString(s string) string {
	s = strings.ReplaceAll(s, "\r\n", " ")
	s = strings.ReplaceAll(s, "\n", " ")
	s = strings.ReplaceAll(s, "\r", " ")
	s = strings.ReplaceAll(s, "'", "''")
	return s
}

func encodeString(value any) string {
	s := stringify(value)
	return "N'" + EscapeString(s) + "'"
}

func encodeTemporal(value any, code SQLTypeCode) string {
	// A string from the driver is quoted verbatim; a time.Time is formatted
	// in the ISO-like textual form of the column's type.
	s := stringify(value)
	if t, ok := value.(time.Time); ok {
		switch code {
		case TypeDate:
			s = t.Format("2006-01-02")
		case TypeTime:
			s = t.Format("15:04:05.9999999")
		case TypeTimestampTZ:
			s = t.Format("2006-01-02 15:04:05.9999999 -07:00")
		default:
			s = t.Format("2006-01-02 15:04:05.9999999")
		}
	}
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

func encodeBit(value any) string {
	switch v := value.(type) {
	case bool:
		if v {
			return "1"
		}
		return "0"
	case int64:
		if v != 0 {
			return "1"
		}
		return "0"
	default:
		s := stringify(value)
		if s == "1" || strings.EqualFold(s, "true") {
			return "1"
		}
		return "0"
	}
}

func encodeNumeric(value any) string {
	return stringify(value)
}

func encodeBinary(value any) string {
	b, ok := value.([]byte)
	if !ok {
		return "NULL /* Binary data too large */"
	}
	if len(b) > maxInlineBinaryBytes {
		return "NULL /* Binary data too large */"
	}
	return "0x" + hex.EncodeToString(b)
}

// stringify renders the driver value's canonical decimal/textual form
// without introducing scientific notation or locale formatting.
func stringify(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case []byte:
		return string(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32)
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}
