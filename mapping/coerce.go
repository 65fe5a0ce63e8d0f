package mapping

import (
	"database/sql"
	"encoding"
	"errors"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/syssam/datamodel/schema"
)

// ErrUnsupportedConversion is returned when no rule converts a value into
// the requested type.
var ErrUnsupportedConversion = errors.New("mapping: unsupported conversion")

var (
	timeType      = reflect.TypeOf(time.Time{})
	durationType  = reflect.TypeOf(time.Duration(0))
	uuidType      = reflect.TypeOf(uuid.UUID{})
	scannerType   = reflect.TypeOf((*sql.Scanner)(nil)).Elem()
	unmarshalType = reflect.TypeOf((*encoding.TextUnmarshaler)(nil)).Elem()
)

// timeLayouts are tried in order when a time is read from text.
var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02",
}

// Coerce converts a column value into a value of type t. It is the single
// conversion table of the package; a nil value yields the zero value of t.
func Coerce(value any, t reflect.Type) (reflect.Value, error) {
	if value == nil {
		return reflect.Zero(t), nil
	}
	src := reflect.ValueOf(value)
	if src.Type() == t {
		return src, nil
	}
	if t.Kind() == reflect.Pointer {
		inner, err := Coerce(value, t.Elem())
		if err != nil {
			return reflect.Value{}, err
		}
		ptr := reflect.New(t.Elem())
		ptr.Elem().Set(inner)
		return ptr, nil
	}
	switch {
	case t == uuidType:
		u, err := toUUID(value)
		return convert(t, u, err)
	case schema.IsEnum(t):
		return toEnum(value, t)
	case t.Kind() == reflect.Bool:
		b := toBool(value)
		return reflect.ValueOf(b).Convert(t), nil
	case t == durationType:
		d, err := toDuration(value)
		return convert(t, d, err)
	case t == timeType:
		tm, err := toTime(value)
		return convert(t, tm, err)
	case reflect.PointerTo(t).Implements(scannerType):
		ptr := reflect.New(t)
		if err := ptr.Interface().(sql.Scanner).Scan(value); err != nil {
			return reflect.Value{}, err
		}
		return ptr.Elem(), nil
	}
	switch t.Kind() {
	case reflect.String:
		return reflect.ValueOf(toString(value)).Convert(t), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := toInt64(value)
		if err != nil {
			return reflect.Value{}, err
		}
		v := reflect.New(t).Elem()
		if v.OverflowInt(n) {
			return reflect.Value{}, fmt.Errorf("mapping: %d overflows %s", n, t)
		}
		v.SetInt(n)
		return v, nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, err := toInt64(value)
		if err != nil {
			return reflect.Value{}, err
		}
		v := reflect.New(t).Elem()
		if n < 0 || v.OverflowUint(uint64(n)) {
			return reflect.Value{}, fmt.Errorf("mapping: %d overflows %s", n, t)
		}
		v.SetUint(uint64(n))
		return v, nil
	case reflect.Float32, reflect.Float64:
		f, err := toFloat64(value)
		if err != nil {
			return reflect.Value{}, err
		}
		v := reflect.New(t).Elem()
		v.SetFloat(f)
		return v, nil
	case reflect.Slice:
		if t.Elem().Kind() == reflect.Uint8 {
			switch x := value.(type) {
			case []byte:
				return reflect.ValueOf(append([]byte(nil), x...)).Convert(t), nil
			case string:
				return reflect.ValueOf([]byte(x)).Convert(t), nil
			}
		}
	}
	if src.Type().ConvertibleTo(t) {
		return src.Convert(t), nil
	}
	return reflect.Value{}, fmt.Errorf("%w: %T to %s", ErrUnsupportedConversion, value, t)
}

func convert(t reflect.Type, v any, err error) (reflect.Value, error) {
	if err != nil {
		return reflect.Value{}, err
	}
	return reflect.ValueOf(v).Convert(t), nil
}

func toUUID(value any) (uuid.UUID, error) {
	switch x := value.(type) {
	case uuid.UUID:
		return x, nil
	case string:
		return uuid.Parse(x)
	case []byte:
		if len(x) == 16 {
			return uuid.FromBytes(x)
		}
		return uuid.ParseBytes(x)
	case fmt.Stringer:
		return uuid.Parse(x.String())
	}
	return uuid.Nil, fmt.Errorf("%w: %T to uuid.UUID", ErrUnsupportedConversion, value)
}

// toBool treats "1" and "true" (any case) as true and everything else as false.
func toBool(value any) bool {
	if b, ok := value.(bool); ok {
		return b
	}
	s := toString(value)
	return s == "1" || strings.EqualFold(s, "true")
}

// toDuration reads a duration stored as a number of seconds.
func toDuration(value any) (time.Duration, error) {
	if d, ok := value.(time.Duration); ok {
		return d, nil
	}
	secs, err := toFloat64(value)
	if err != nil {
		return 0, err
	}
	return time.Duration(secs * float64(time.Second)), nil
}

func toTime(value any) (time.Time, error) {
	switch x := value.(type) {
	case time.Time:
		return x, nil
	case []byte:
		return parseTime(string(x))
	case string:
		return parseTime(x)
	}
	return time.Time{}, fmt.Errorf("%w: %T to time.Time", ErrUnsupportedConversion, value)
}

func parseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("mapping: cannot parse %q as time", s)
}

func toString(value any) string {
	switch x := value.(type) {
	case string:
		return x
	case []byte:
		return string(x)
	case time.Time:
		return x.Format(time.RFC3339Nano)
	}
	return fmt.Sprint(value)
}

func toInt64(value any) (int64, error) {
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int(), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		u := rv.Uint()
		if u > math.MaxInt64 {
			return 0, fmt.Errorf("mapping: %d overflows int64", u)
		}
		return int64(u), nil
	case reflect.Float32, reflect.Float64:
		f := math.RoundToEven(rv.Float())
		if f < math.MinInt64 || f >= math.MaxInt64 {
			return 0, fmt.Errorf("mapping: %v overflows int64", rv.Float())
		}
		return int64(f), nil
	case reflect.Bool:
		if rv.Bool() {
			return 1, nil
		}
		return 0, nil
	case reflect.String:
		return parseInt(rv.String())
	}
	if b, ok := value.([]byte); ok {
		return parseInt(string(b))
	}
	return 0, fmt.Errorf("%w: %T to integer", ErrUnsupportedConversion, value)
}

func parseInt(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n, nil
	}
	// Decimal columns arrive as text, e.g. "12.000".
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("mapping: cannot parse %q as integer", s)
	}
	return toInt64(f)
}

func toFloat64(value any) (float64, error) {
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Float32, reflect.Float64:
		return rv.Float(), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(rv.Uint()), nil
	case reflect.String:
		return strconv.ParseFloat(strings.TrimSpace(rv.String()), 64)
	}
	if b, ok := value.([]byte); ok {
		return strconv.ParseFloat(strings.TrimSpace(string(b)), 64)
	}
	return 0, fmt.Errorf("%w: %T to float", ErrUnsupportedConversion, value)
}

// enumProbe is the number of ordinals probed when an enum is read by name.
const enumProbe = 256

// enumNames caches, per enum type, the lower-cased name of every probed
// ordinal. The first ordinal wins when names repeat.
var enumNames sync.Map // map[reflect.Type]map[string]int64

func toEnum(value any, t reflect.Type) (reflect.Value, error) {
	v := reflect.New(t).Elem()
	var name string
	switch x := value.(type) {
	case string:
		name = x
	case []byte:
		name = string(x)
	default:
		n, err := toInt64(value)
		if err != nil {
			return reflect.Value{}, err
		}
		return setOrdinal(v, n)
	}
	name = strings.TrimSpace(name)
	if reflect.PointerTo(t).Implements(unmarshalType) {
		ptr := reflect.New(t)
		if err := ptr.Interface().(encoding.TextUnmarshaler).UnmarshalText([]byte(name)); err == nil {
			return ptr.Elem(), nil
		}
	}
	if n, err := strconv.ParseInt(name, 10, 64); err == nil {
		return setOrdinal(v, n)
	}
	if n, ok := enumOrdinals(t)[strings.ToLower(name)]; ok {
		return setOrdinal(v, n)
	}
	return reflect.Value{}, fmt.Errorf("mapping: %q is not a %s", name, t)
}

func setOrdinal(v reflect.Value, n int64) (reflect.Value, error) {
	switch v.Kind() {
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		if n < 0 || v.OverflowUint(uint64(n)) {
			return reflect.Value{}, fmt.Errorf("mapping: %d overflows %s", n, v.Type())
		}
		v.SetUint(uint64(n))
	default:
		if v.OverflowInt(n) {
			return reflect.Value{}, fmt.Errorf("mapping: %d overflows %s", n, v.Type())
		}
		v.SetInt(n)
	}
	return v, nil
}

func enumOrdinals(t reflect.Type) map[string]int64 {
	if m, ok := enumNames.Load(t); ok {
		return m.(map[string]int64)
	}
	m := make(map[string]int64, enumProbe)
	v := reflect.New(t).Elem()
	for i := int64(0); i < enumProbe; i++ {
		if _, err := setOrdinal(v, i); err != nil {
			break
		}
		name := strings.ToLower(v.Interface().(fmt.Stringer).String())
		if _, dup := m[name]; !dup {
			m[name] = i
		}
	}
	enumNames.Store(t, m)
	return m
}
