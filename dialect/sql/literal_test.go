package sql

import (
	"math"
	"reflect"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type color int

const (
	red color = iota
	green
)

func (c color) String() string {
	switch c {
	case red:
		return "Red"
	case green:
		return "Green"
	}
	return "Unknown"
}

func TestLiteral(t *testing.T) {
	t.Parallel()
	five := 5
	id := uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")
	tests := []struct {
		name string
		in   any
		typ  reflect.Type
		want string
	}{
		{"nil", nil, nil, "NULL"},
		{"DBNull", DBNull, nil, "NULL"},
		{"Expr", Expr("GETDATE()"), nil, "GETDATE()"},
		{"NilPointer", (*int)(nil), nil, "NULL"},
		{"Pointer", &five, nil, "5"},
		{"NilBytes", []byte(nil), nil, "NULL"},
		{"Bytes", []byte{0xab, 0x01}, nil, "0xAB01"},
		{"Time", time.Date(2024, 1, 2, 3, 4, 5, 6e6, time.UTC), nil, "'2024-01-02 03:04:05.006'"},
		{"ZeroTime", time.Time{}, nil, "NULL"},
		{"MaxTime", MaxTime, nil, "NULL"},
		{"Duration", 90 * time.Second, nil, "90"},
		{"FractionalDuration", 1500 * time.Millisecond, nil, "1.5"},
		{"UUID", id, nil, "'6ba7b810-9dad-11d1-80b4-00c04fd430c8'"},
		{"True", true, nil, "1"},
		{"False", false, nil, "0"},
		{"Int", int64(-12), nil, "-12"},
		{"Uint", uint8(200), nil, "200"},
		{"Float", 3.25, nil, "3.25"},
		{"Float32", float32(0.1), nil, "0.1"},
		{"String", "O'Brien", nil, "'O''Brien'"},
		{"Enum", green, nil, "'Green'"},
		{"EnumAsInt", green, reflect.TypeOf(0), "1"},
		{"InterfaceType", 7, reflect.TypeOf((*any)(nil)).Elem(), "7"},
		{"NullString", NullString{}, nil, "NULL"},
		{"ValidNullString", NullString{String: "x", Valid: true}, nil, "'x'"},
		{"NullBool", NullBool{}, nil, "NULL"},
		{"ValidNullBool", NullBool{Bool: true, Valid: true}, nil, "1"},
		{"ValidNullInt64", NullInt64{Int64: 42, Valid: true}, nil, "42"},
		{"ValidNullFloat64", NullFloat64{Float64: 2.5, Valid: true}, nil, "2.5"},
		{"ValidNullTime", NullTime{Time: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), Valid: true}, nil, "'2024-01-02 00:00:00.000'"},
		{"NumberAsString", 12, reflect.TypeOf(""), "'12'"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := Literal(tt.in, tt.typ)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLiteralErrors(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		in   any
		typ  reflect.Type
	}{
		{"Struct", struct{}{}, nil},
		{"StringAsBool", "x", reflect.TypeOf(true)},
		{"StringAsTime", "2024-01-01", timeType},
		{"StringAsDuration", "1s", durationType},
		{"StringAsNumber", "1", reflect.TypeOf(0)},
		{"NaN", math.NaN(), nil},
		{"PositiveInf", math.Inf(1), nil},
		{"NegativeInf", float32(math.Inf(-1)), nil},
		{"InvalidNullFloat64", NullFloat64{Float64: math.Inf(1), Valid: true}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := Literal(tt.in, tt.typ)
			require.ErrorIs(t, err, ErrUnsupportedLiteral)
		})
	}
}

func TestSentinel(t *testing.T) {
	t.Parallel()
	for _, v := range []any{nil, DBNull, (*int)(nil), uuid.Nil, time.Duration(0), time.Time{}, MaxTime, NullInt64{}, NullTime{}} {
		assert.True(t, IsSentinel(v), "%#v", v)
	}
	for _, v := range []any{0, "", false, uuid.New(), time.Second, time.Now()} {
		assert.False(t, IsSentinel(v), "%#v", v)
	}
	assert.True(t, IsNull(map[string]int(nil)))
	assert.False(t, IsNull(time.Time{}))
}

func TestQuote(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "'it''s'", Quote("it's"))
	assert.Equal(t, "[Name]", QuoteIdent(" Name "))
	assert.Equal(t, "u.Name", QuoteIdent("u.Name"))
	assert.Equal(t, "COUNT(1)", QuoteIdent("COUNT(1)"))
	assert.Equal(t, "[odd]]name]", QuoteIdent("odd]name"))
}
