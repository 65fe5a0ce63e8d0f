package adapter

import (
	"context"
	"fmt"
	"reflect"

	"github.com/syssam/datamodel"
	"github.com/syssam/datamodel/dialect"
	"github.com/syssam/datamodel/dialect/sql"
	"github.com/syssam/datamodel/mapping"
)

var intType = reflect.TypeFor[int]()

// UpdateMany applies update to every row of T matching where (nil matches
// every row). An empty update succeeds with payload 0 without touching the
// database; otherwise the payload is the number of affected rows (int64).
func UpdateMany[T any](ctx context.Context, a *Adapter, update *sql.UpdateSet, where *sql.WhereSet, tx *sql.Tx) datamodel.Result {
	return a.run(ctx, "update_many", typeOf[T](), tx, func(c *call) (datamodel.Result, error) {
		if update == nil {
			return datamodel.Succeed(int64(0)), nil
		}
		if err := update.Err(); err != nil {
			return datamodel.Result{}, err
		}
		if update.Len() == 0 {
			return datamodel.Succeed(int64(0)), nil
		}
		assignments := update.Render()
		if assignments == "" {
			return datamodel.Result{}, errUnrendered
		}
		w, err := whereClause(where)
		if err != nil {
			return datamodel.Result{}, err
		}
		defer c.invalidate(ctx)
		n, err := c.exec(ctx, fmt.Sprintf("UPDATE %s SET %s WHERE %s", c.table(), assignments, w))
		if err != nil {
			return datamodel.Result{}, err
		}
		return datamodel.Succeed(n), nil
	})
}

// Load reads the first row of T matching where in order. The payload is a
// *T, or nil when no row matches.
func Load[T any](ctx context.Context, a *Adapter, where *sql.WhereSet, order *sql.OrderSet, tx *sql.Tx) datamodel.Result {
	return a.run(ctx, "load", typeOf[T](), tx, func(c *call) (datamodel.Result, error) {
		w, err := whereClause(where)
		if err != nil {
			return datamodel.Result{}, err
		}
		o, _, err := orderClause(order)
		if err != nil {
			return datamodel.Result{}, err
		}
		t, err := c.fill(ctx, c.selectOne(w, o))
		if err != nil {
			return datamodel.Result{}, err
		}
		if t.Len() == 0 {
			return datamodel.Succeed(nil), nil
		}
		v, err := mapping.Scan[T](a.reg, t.Row(0))
		if err != nil {
			return datamodel.Result{}, err
		}
		return datamodel.Succeed(v), nil
	})
}

// LoadMany reads every row of T matching where, ordered only when order is
// not empty. The payload is a []*T.
func LoadMany[T any](ctx context.Context, a *Adapter, where *sql.WhereSet, order *sql.OrderSet, tx *sql.Tx) datamodel.Result {
	return a.run(ctx, "load_many", typeOf[T](), tx, func(c *call) (datamodel.Result, error) {
		t, err := c.loadTable(ctx, where, order)
		if err != nil {
			return datamodel.Result{}, err
		}
		items, err := mapping.ScanAll[T](a.reg, t)
		if err != nil {
			return datamodel.Result{}, err
		}
		return datamodel.Succeed(items), nil
	})
}

// LoadManyAsTable is LoadMany returning the raw rows. The payload is a
// *sql.Table and is served from the read cache when one is configured.
func LoadManyAsTable[T any](ctx context.Context, a *Adapter, where *sql.WhereSet, order *sql.OrderSet, tx *sql.Tx) datamodel.Result {
	return a.run(ctx, "load_table", typeOf[T](), tx, func(c *call) (datamodel.Result, error) {
		t, err := c.loadTable(ctx, where, order)
		if err != nil {
			return datamodel.Result{}, err
		}
		return datamodel.Succeed(t), nil
	})
}

func (c *call) loadTable(ctx context.Context, where *sql.WhereSet, order *sql.OrderSet) (*sql.Table, error) {
	w, err := whereClause(where)
	if err != nil {
		return nil, err
	}
	o, ordered, err := orderClause(order)
	if err != nil {
		return nil, err
	}
	text := fmt.Sprintf("SELECT * FROM %s WHERE %s", c.table(), w)
	if ordered {
		text += " ORDER BY " + o
	}
	key := CacheKey{Table: c.table(), Operation: "select", Predicates: w}
	if ordered {
		key.OrderBy = o
	}
	return cached(ctx, c, key, func() (*sql.Table, error) {
		return c.fill(ctx, text)
	}, encodeTable, decodeTable)
}

// Count returns the number of rows of T matching where. The payload is an
// int.
func Count[T any](ctx context.Context, a *Adapter, where *sql.WhereSet, tx *sql.Tx) datamodel.Result {
	return a.run(ctx, "count", typeOf[T](), tx, func(c *call) (datamodel.Result, error) {
		n, err := c.count(ctx, where)
		if err != nil {
			return datamodel.Result{}, err
		}
		return datamodel.Succeed(n), nil
	})
}

func (c *call) count(ctx context.Context, where *sql.WhereSet) (int, error) {
	w, err := whereClause(where)
	if err != nil {
		return 0, err
	}
	key := CacheKey{Table: c.table(), Operation: "count", Predicates: w}
	return cached(ctx, c, key, func() (int, error) {
		v, err := c.scalar(ctx, fmt.Sprintf("SELECT COUNT(1) FROM %s WHERE %s", c.table(), w))
		if err != nil {
			return 0, err
		}
		n, err := mapping.Coerce(v, intType)
		if err != nil {
			return 0, err
		}
		return int(n.Int()), nil
	}, encodeInt, decodeInt)
}

// Delete removes every row of T matching where. A nil or empty where
// removes every row; a non-empty where that cannot be rendered fails with
// SupportFailed and deletes nothing. The payload is the number of affected
// rows (int64).
func Delete[T any](ctx context.Context, a *Adapter, where *sql.WhereSet, tx *sql.Tx) datamodel.Result {
	return a.run(ctx, "delete_many", typeOf[T](), tx, func(c *call) (datamodel.Result, error) {
		w, err := whereClause(where)
		if err != nil {
			return datamodel.Result{}, err
		}
		defer c.invalidate(ctx)
		n, err := c.exec(ctx, fmt.Sprintf("DELETE FROM %s WHERE %s", c.table(), w))
		if err != nil {
			return datamodel.Result{}, err
		}
		return datamodel.Succeed(n), nil
	})
}

// TruncateTable removes every row of T. The payload is the affected row
// count reported by the driver (int64), which is 0 for TRUNCATE on most
// databases.
func TruncateTable[T any](ctx context.Context, a *Adapter, tx *sql.Tx) datamodel.Result {
	return a.run(ctx, "truncate", typeOf[T](), tx, func(c *call) (datamodel.Result, error) {
		text := "TRUNCATE TABLE " + c.table()
		if c.dialect() == dialect.SQLite {
			text = "DELETE FROM " + c.table()
		}
		defer c.invalidate(ctx)
		n, err := c.exec(ctx, text)
		if err != nil {
			return datamodel.Result{}, err
		}
		return datamodel.Succeed(n), nil
	})
}
