package adapter_test

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/datamodel"
	"github.com/syssam/datamodel/adapter"
	"github.com/syssam/datamodel/dialect"
	"github.com/syssam/datamodel/dialect/sql"
)

func pageRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"Id", "Name", "Active", sql.RowNumberColumn})
}

func TestPaginate(t *testing.T) {
	ctx := context.Background()
	const count = "SELECT COUNT(1) FROM [Accounts] WHERE 1=1"

	t.Run("ClampPastEnd", func(t *testing.T) {
		f := newFixture(t, dialect.SQLServer)
		f.mock.ExpectQuery(count).WillReturnRows(sqlmock.NewRows([]string{""}).AddRow(int64(23)))
		f.mock.ExpectQuery(adapter.PageStatement("[Accounts]", "1=1", "[Id] ASC", 10, 3)).
			WillReturnRows(pageRows().
				AddRow(int64(21), "u", true, int64(21)).
				AddRow(int64(22), "v", true, int64(22)).
				AddRow(int64(23), "w", false, int64(23)))
		r := adapter.Paginate[Account](ctx, f.Adapter, nil, sql.Order().Asc("Id"), 10, 4, nil)
		require.True(t, r.Succeed(), r.String())
		page, ok := datamodel.DataAs[adapter.Page[Account]](r)
		require.True(t, ok)
		assert.Equal(t, adapter.PageQuery{PageSize: 10, Page: 3, TotalRecords: 23, TotalPages: 3}, page.PageQuery)
		require.Len(t, page.Items, 3)
		assert.Equal(t, "w", page.Items[2].Name)
		require.NoError(t, f.mock.ExpectationsWereMet())
	})
	t.Run("ClampBeforeStart", func(t *testing.T) {
		f := newFixture(t, dialect.SQLServer)
		f.mock.ExpectQuery(count).WillReturnRows(sqlmock.NewRows([]string{""}).AddRow(int64(23)))
		f.mock.ExpectQuery("SELECT * FROM (SELECT *, ROW_NUMBER() OVER (ORDER BY (SELECT 0)) AS [DM_ROW_NUMBER] FROM (SELECT * FROM [Accounts] WHERE 1=1) A) B WHERE [DM_ROW_NUMBER] > 0 AND [DM_ROW_NUMBER] <= 10").
			WillReturnRows(pageRows().AddRow(int64(1), "a", true, int64(1)))
		r := adapter.PaginateAsTable[Account](ctx, f.Adapter, nil, nil, 10, 0, nil)
		require.True(t, r.Succeed(), r.String())
		page, ok := datamodel.DataAs[adapter.TablePage](r)
		require.True(t, ok)
		assert.Equal(t, 1, page.Page)
		assert.Equal(t, 3, page.TotalPages)
		assert.False(t, page.Table.HasColumn(sql.RowNumberColumn))
		assert.Equal(t, []any{int64(1), "a", true}, page.Table.Rows[0])
		require.NoError(t, f.mock.ExpectationsWereMet())
	})
	t.Run("Empty", func(t *testing.T) {
		f := newFixture(t, dialect.SQLServer)
		f.mock.ExpectQuery("SELECT COUNT(1) FROM [Accounts] WHERE [Name] = 'none'").
			WillReturnRows(sqlmock.NewRows([]string{""}).AddRow(int64(0)))
		r := adapter.Paginate[Account](ctx, f.Adapter, sql.Where().Append("Name", "none"), nil, 10, 2, nil)
		require.True(t, r.Succeed(), r.String())
		page, ok := datamodel.DataAs[adapter.Page[Account]](r)
		require.True(t, ok)
		assert.Zero(t, page.TotalPages)
		assert.Zero(t, page.TotalRecords)
		assert.Empty(t, page.Items)
		require.NoError(t, f.mock.ExpectationsWereMet(), "no row query is issued for an empty result")
	})
	t.Run("InvalidPageSize", func(t *testing.T) {
		f := newFixture(t, dialect.SQLServer)
		r := adapter.Paginate[Account](ctx, f.Adapter, nil, nil, 0, 1, nil)
		assert.Equal(t, datamodel.DataValidateFailure, r.Kind())
		assert.Equal(t, adapter.ItemPaging, r.Item())
		require.NoError(t, f.mock.ExpectationsWereMet())
	})
}

func TestPageArithmetic(t *testing.T) {
	t.Parallel()
	tests := []struct {
		total, size, pages int
	}{
		{0, 10, 0},
		{1, 10, 1},
		{10, 10, 1},
		{11, 10, 2},
		{23, 10, 3},
		{5, 0, 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.pages, adapter.TotalPages(tt.total, tt.size), "%d/%d", tt.total, tt.size)
	}
	assert.Equal(t, 3, adapter.ClampPage(4, 3))
	assert.Equal(t, 1, adapter.ClampPage(0, 3))
	assert.Equal(t, 1, adapter.ClampPage(-7, 3))
	assert.Equal(t, 2, adapter.ClampPage(2, 3))
	assert.Equal(t,
		"SELECT * FROM (SELECT *, ROW_NUMBER() OVER (ORDER BY [Id] ASC) AS [DM_ROW_NUMBER] FROM (SELECT * FROM [T] WHERE 1=1) A) B WHERE [DM_ROW_NUMBER] > 20 AND [DM_ROW_NUMBER] <= 30",
		adapter.PageStatement("[T]", "1=1", "[Id] ASC", 10, 3),
	)
}
