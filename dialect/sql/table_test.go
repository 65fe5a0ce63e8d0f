package sql

import (
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTable(t *testing.T) {
	t.Parallel()
	tbl := NewTable("Id", "Name", RowNumberColumn).
		AddRow(int64(1), "ann", int64(1)).
		AddRow(int64(2), "bob", int64(2))
	assert.Equal(t, 2, tbl.Len())
	assert.Equal(t, 1, tbl.ColumnIndex("NAME"))
	assert.Equal(t, -1, tbl.ColumnIndex("Missing"))
	assert.True(t, tbl.HasColumn("dm_row_number"))

	require.True(t, tbl.RemoveColumn(RowNumberColumn))
	assert.False(t, tbl.RemoveColumn(RowNumberColumn))
	assert.Equal(t, []string{"Id", "Name"}, tbl.Columns)
	assert.Equal(t, []any{int64(2), "bob"}, tbl.Row(1).Values())

	var names []any
	require.NoError(t, tbl.Each(func(r Row) error {
		v, ok := r.Value("name")
		require.True(t, ok)
		names = append(names, v)
		return nil
	}))
	assert.Equal(t, []any{"ann", "bob"}, names)

	stop := errors.New("stop")
	calls := 0
	err := tbl.Each(func(Row) error {
		calls++
		return stop
	})
	require.ErrorIs(t, err, stop)
	assert.Equal(t, 1, calls)

	_, ok := tbl.Row(0).Value("Missing")
	assert.False(t, ok)
	assert.Zero(t, (*Table)(nil).Len())
	assert.Panics(t, func() { tbl.AddRow(1) })
}

func TestScanTable(t *testing.T) {
	t.Parallel()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	mock.ExpectQuery("SELECT").WillReturnRows(sqlmock.NewRows([]string{"Id", "Data"}).
		AddRow(int64(1), []byte("a")).
		AddRow(int64(2), []byte("b")))
	rows, err := db.Query("SELECT")
	require.NoError(t, err)
	defer rows.Close()

	tbl, err := ScanTable(rows)
	require.NoError(t, err)
	require.Equal(t, 2, tbl.Len())
	assert.Equal(t, []byte("a"), tbl.Rows[0][1])
	assert.Equal(t, []byte("b"), tbl.Rows[1][1])
}
