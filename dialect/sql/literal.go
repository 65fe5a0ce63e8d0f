package sql

import (
	"database/sql/driver"
	"encoding/hex"
	"errors"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrUnsupportedLiteral is returned when a value has no SQL literal form.
var ErrUnsupportedLiteral = errors.New("dialect/sql: unsupported literal type")

// TimeLayout is the layout used for date-time literals.
const TimeLayout = "2006-01-02 15:04:05.000"

// MaxTime is the upper date-time sentinel. Like the zero time, it stands for
// "no value" and never reaches the database as a literal.
var MaxTime = time.Date(9999, time.December, 31, 23, 59, 59, 999999900, time.UTC)

// Expr is a raw SQL expression. It is rendered verbatim, without quoting.
type Expr string

// dbNull is the type of DBNull.
type dbNull struct{}

func (dbNull) String() string { return "NULL" }

// DBNull is the database null marker. It renders as NULL and, in a where
// clause, as an IS NULL predicate.
var DBNull = dbNull{}

var (
	timeType     = reflect.TypeOf(time.Time{})
	durationType = reflect.TypeOf(time.Duration(0))
	uuidType     = reflect.TypeOf(uuid.UUID{})
	bytesType    = reflect.TypeOf([]byte(nil))
	stringerType = reflect.TypeOf((*fmt.Stringer)(nil)).Elem()
	valuerType   = reflect.TypeOf((*driver.Valuer)(nil)).Elem()
)

// IsNull reports whether v is a null marker: nil, DBNull, a nil pointer,
// slice or map, or a driver.Valuer whose value is nil (e.g. an invalid
// sql.NullString).
func IsNull(v any) bool {
	if v == nil || v == DBNull {
		return true
	}
	switch rv := reflect.ValueOf(v); rv.Kind() {
	case reflect.Pointer, reflect.Slice, reflect.Map:
		if rv.IsNil() {
			return true
		}
	}
	if vr, ok := v.(driver.Valuer); ok {
		dv, err := vr.Value()
		return err == nil && dv == nil
	}
	return false
}

// IsSentinel reports whether v is a null marker or one of the "no value"
// sentinels: the nil UUID, a zero duration, the zero time or MaxTime.
func IsSentinel(v any) bool {
	if IsNull(v) {
		return true
	}
	switch x := v.(type) {
	case uuid.UUID:
		return x == uuid.Nil
	case time.Duration:
		return x == 0
	case time.Time:
		return isTimeSentinel(x)
	}
	return false
}

func isTimeSentinel(t time.Time) bool {
	return t.IsZero() || !t.Before(MaxTime)
}

// Quote returns s as a single-quoted SQL string literal with embedded quotes doubled.
func Quote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// QuoteIdent brackets a column or table name, doubling any embedded closing
// bracket. Names that contain a dot, a parenthesis or a space are raw
// expressions (t.col, COUNT(1)) and are only trimmed.
func QuoteIdent(name string) string {
	name = strings.TrimSpace(name)
	if strings.ContainsAny(name, ".( ") {
		return name
	}
	return bracket(name)
}

func bracket(name string) string {
	return "[" + strings.ReplaceAll(name, "]", "]]") + "]"
}

// Literal renders v as SQL literal text. The declared type typ drives the
// rendering; a nil typ means the dynamic type of v.
func Literal(v any, typ reflect.Type) (string, error) {
	if v == nil || v == DBNull {
		return "NULL", nil
	}
	if e, ok := v.(Expr); ok {
		return string(e), nil
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer:
		if rv.IsNil() {
			return "NULL", nil
		}
		if !rv.Type().Implements(valuerType) {
			return Literal(rv.Elem().Interface(), nil)
		}
	case reflect.Slice, reflect.Map:
		if rv.IsNil() {
			return "NULL", nil
		}
	}
	if typ == nil || (typ.Kind() == reflect.Interface) {
		typ = rv.Type()
	}
	switch {
	case typ == bytesType || (typ.Kind() == reflect.Slice && typ.Elem().Kind() == reflect.Uint8):
		return "0x" + strings.ToUpper(hex.EncodeToString(rv.Bytes())), nil
	case typ == timeType:
		t, ok := v.(time.Time)
		if !ok {
			return "", fmt.Errorf("%w: %T declared as time.Time", ErrUnsupportedLiteral, v)
		}
		if isTimeSentinel(t) {
			return "NULL", nil
		}
		return Quote(t.Format(TimeLayout)), nil
	case typ == durationType:
		if rv.Kind() != reflect.Int64 {
			return "", fmt.Errorf("%w: %T declared as time.Duration", ErrUnsupportedLiteral, v)
		}
		return strconv.FormatFloat(time.Duration(rv.Int()).Seconds(), 'f', -1, 64), nil
	case typ == uuidType:
		return Quote(fmt.Sprint(v)), nil
	}
	switch typ.Kind() {
	case reflect.Bool:
		if rv.Kind() != reflect.Bool {
			return "", fmt.Errorf("%w: %T declared as bool", ErrUnsupportedLiteral, v)
		}
		if rv.Bool() {
			return "1", nil
		}
		return "0", nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64:
		// A named integer with a String method is an enum; without ordinal
		// encoding it is stored by name.
		if typ.Implements(stringerType) && typ.PkgPath() != "" {
			return Quote(fmt.Sprint(v)), nil
		}
		return formatNumber(rv)
	case reflect.String:
		if rv.Kind() == reflect.String {
			return Quote(rv.String()), nil
		}
		return Quote(fmt.Sprint(v)), nil
	}
	if vr, ok := v.(driver.Valuer); ok {
		dv, err := vr.Value()
		if err != nil {
			return "", err
		}
		return Literal(dv, nil)
	}
	if s, ok := v.(fmt.Stringer); ok {
		return Quote(s.String()), nil
	}
	return "", fmt.Errorf("%w: %T", ErrUnsupportedLiteral, v)
}

func formatNumber(rv reflect.Value) (string, error) {
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(rv.Int(), 10), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return strconv.FormatUint(rv.Uint(), 10), nil
	case reflect.Float32, reflect.Float64:
		f := rv.Float()
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return "", fmt.Errorf("%w: %v has no numeric literal", ErrUnsupportedLiteral, f)
		}
		return strconv.FormatFloat(f, 'f', -1, rv.Type().Bits()), nil
	default:
		return "", fmt.Errorf("%w: %s declared as number", ErrUnsupportedLiteral, rv.Type())
	}
}
