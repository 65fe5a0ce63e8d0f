package adapter_test

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/datamodel"
	"github.com/syssam/datamodel/adapter"
	"github.com/syssam/datamodel/dialect"
	"github.com/syssam/datamodel/dialect/sql"
)

func TestReadCache(t *testing.T) {
	ctx := context.Background()
	cache := adapter.NewMemoryCache()
	f := newFixture(t, dialect.SQLServer, adapter.WithCache(cache, 0))

	f.mock.ExpectQuery("SELECT COUNT(1) FROM [Accounts] WHERE 1=1").
		WillReturnRows(sqlmock.NewRows([]string{""}).AddRow(int64(2)))
	for range 3 {
		r := adapter.Count[Account](ctx, f.Adapter, nil, nil)
		require.True(t, r.Succeed(), r.String())
		assert.Equal(t, 2, r.Data())
	}

	f.mock.ExpectQuery("SELECT * FROM [Accounts] WHERE 1=1").
		WillReturnRows(accountRows().AddRow(int64(1), "a", true).AddRow(int64(2), "b", []byte{0x01}))
	for range 2 {
		r := adapter.LoadManyAsTable[Account](ctx, f.Adapter, nil, nil, nil)
		require.True(t, r.Succeed(), r.String())
		table, ok := datamodel.DataAs[*sql.Table](r)
		require.True(t, ok)
		assert.Equal(t, 2, table.Len())
		assert.Equal(t, "b", table.Rows[1][1])
	}
	assert.Equal(t, 2, cache.Len())

	f.mock.ExpectExec("DELETE FROM [Accounts] WHERE [Id] = 1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.True(t, f.DeleteModel(ctx, &Account{ID: 1}, nil).Succeed())
	assert.Zero(t, cache.Len(), "a write drops the cached reads of the table")

	f.mock.ExpectQuery("SELECT COUNT(1) FROM [Accounts] WHERE 1=1").
		WillReturnRows(sqlmock.NewRows([]string{""}).AddRow(int64(1)))
	r := adapter.Count[Account](ctx, f.Adapter, nil, nil)
	require.True(t, r.Succeed(), r.String())
	assert.Equal(t, 1, r.Data())
	require.NoError(t, f.mock.ExpectationsWereMet())
}

func TestReadCacheBypassedInTransaction(t *testing.T) {
	ctx := context.Background()
	cache := adapter.NewMemoryCache()
	f := newFixture(t, dialect.SQLServer, adapter.WithCache(cache, time.Minute))
	f.mock.ExpectBegin()
	f.mock.ExpectQuery("SELECT COUNT(1) FROM [Accounts] WHERE 1=1").
		WillReturnRows(sqlmock.NewRows([]string{""}).AddRow(int64(2)))
	f.mock.ExpectQuery("SELECT COUNT(1) FROM [Accounts] WHERE 1=1").
		WillReturnRows(sqlmock.NewRows([]string{""}).AddRow(int64(2)))
	f.mock.ExpectCommit()
	tx, err := f.sources.Begin(ctx, "main", nil)
	require.NoError(t, err)
	for range 2 {
		require.True(t, adapter.Count[Account](ctx, f.Adapter, nil, tx).Succeed())
	}
	require.NoError(t, tx.Commit())
	assert.Zero(t, cache.Len())
	require.NoError(t, f.mock.ExpectationsWereMet())
}

func TestReadCacheDroppedOnCommit(t *testing.T) {
	ctx := context.Background()
	cache := adapter.NewMemoryCache()
	f := newFixture(t, dialect.SQLServer, adapter.WithCache(cache, time.Minute))

	f.mock.ExpectBegin()
	f.mock.ExpectExec("DELETE FROM [Accounts] WHERE [Id] = 1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	f.mock.ExpectQuery("SELECT COUNT(1) FROM [Accounts] WHERE 1=1").
		WillReturnRows(sqlmock.NewRows([]string{""}).AddRow(int64(2)))
	f.mock.ExpectCommit()
	f.mock.ExpectQuery("SELECT COUNT(1) FROM [Accounts] WHERE 1=1").
		WillReturnRows(sqlmock.NewRows([]string{""}).AddRow(int64(1)))

	tx, err := f.sources.Begin(ctx, "main", nil)
	require.NoError(t, err)
	require.True(t, f.DeleteModel(ctx, &Account{ID: 1}, tx).Succeed())

	// Outside the transaction the deleted row is still visible.
	r := adapter.Count[Account](ctx, f.Adapter, nil, nil)
	require.True(t, r.Succeed(), r.String())
	assert.Equal(t, 2, r.Data())
	assert.Equal(t, 1, cache.Len())

	require.NoError(t, tx.Commit())
	assert.Zero(t, cache.Len())

	r = adapter.Count[Account](ctx, f.Adapter, nil, nil)
	require.True(t, r.Succeed(), r.String())
	assert.Equal(t, 1, r.Data())
	require.NoError(t, f.mock.ExpectationsWereMet())
}

func TestMemoryCache(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	c := adapter.NewMemoryCache()
	v, err := c.Get(ctx, "missing")
	require.NoError(t, err)
	assert.Nil(t, v)

	require.NoError(t, c.Set(ctx, "[a]:count::", []byte("1"), 0))
	require.NoError(t, c.Set(ctx, "[a]:select::", []byte("2"), 0))
	require.NoError(t, c.Set(ctx, "[ab]:count::", []byte("3"), 0))
	require.NoError(t, c.DeletePrefix(ctx, "[a]:"))
	assert.Equal(t, 1, c.Len())
	v, err = c.Get(ctx, "[ab]:count::")
	require.NoError(t, err)
	assert.Equal(t, []byte("3"), v)

	require.NoError(t, c.Set(ctx, "gone", []byte("x"), time.Nanosecond))
	time.Sleep(time.Millisecond)
	v, err = c.Get(ctx, "gone")
	require.NoError(t, err)
	assert.Nil(t, v)

	require.NoError(t, c.Delete(ctx, "[ab]:count::"))
	require.NoError(t, c.Clear(ctx))
	assert.Zero(t, c.Len())
}

func TestCacheKey(t *testing.T) {
	t.Parallel()
	k := adapter.CacheKey{Table: "[Accounts]", Operation: "count", Predicates: "1=1"}
	assert.Equal(t, "[Accounts]:count:1=1:", k.String())
	k.Limit, k.Offset = 10, 20
	assert.Equal(t, "[Accounts]:count:1=1::10:20", k.String())
}
