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

// Insert writes v, a registered struct or a pointer to one. With
// returnGenerated the payload is the value generated by the database for the
// identity column; otherwise it is the number of affected rows (int64).
// Pass tx to run inside a caller transaction, or nil.
func (a *Adapter) Insert(ctx context.Context, v any, returnGenerated bool, tx *sql.Tx) datamodel.Result {
	return a.run(ctx, "insert", reflect.TypeOf(v), tx, func(c *call) (datamodel.Result, error) {
		set, err := mapping.ToInsert(a.reg, v)
		if err != nil {
			return datamodel.Result{}, err
		}
		if set.Len() == 0 {
			return datamodel.Result{}, datamodel.NewDesignError(c.d.Type, "no insertable property", nil)
		}
		values := set.Render()
		if values == "" {
			return datamodel.Result{}, errUnrendered
		}
		text := fmt.Sprintf("INSERT INTO %s %s", c.table(), values)
		defer c.invalidate(ctx)
		if returnGenerated {
			return c.insertGenerated(ctx, text)
		}
		n, err := c.exec(ctx, text)
		if err != nil {
			return datamodel.Result{}, err
		}
		if n <= 0 {
			return datamodel.Fail(datamodel.OperationFailure, ItemLogical, explainInsertFailed), nil
		}
		return datamodel.Succeed(n), nil
	})
}

// insertGenerated runs the insert and reads back the generated identity the
// way the dialect exposes it.
func (c *call) insertGenerated(ctx context.Context, text string) (datamodel.Result, error) {
	var (
		value any
		err   error
	)
	switch c.dialect() {
	case dialect.SQLServer:
		value, err = c.scalar(ctx, text+"; SELECT SCOPE_IDENTITY()")
	case dialect.Postgres:
		id := c.d.Identity()
		if id == nil {
			return datamodel.Result{}, datamodel.NewDesignError(c.d.Type, "no identity column to return", nil)
		}
		value, err = c.scalar(ctx, text+" RETURNING "+sql.QuoteIdent(id.Column))
	default:
		value, err = c.lastInsertID(ctx, text)
	}
	if err != nil {
		return datamodel.Result{}, err
	}
	if sql.IsNull(value) {
		return datamodel.Fail(datamodel.OperationFailure, ItemLogical, explainNoReturnValue), nil
	}
	return datamodel.Succeed(value), nil
}

func (c *call) lastInsertID(ctx context.Context, text string) (any, error) {
	res, err := c.execResult(ctx, text)
	if err != nil {
		return nil, err
	}
	n, err := res.RowsAffected()
	if err != nil || n <= 0 {
		return nil, dbFault(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, dbFault(err)
	}
	return id, nil
}

// InsertMany inserts the values one by one, stopping at the first failure,
// which is returned as is. The payload is the number of inserted values.
// Values inserted before a failure stay written unless tx is rolled back.
func (a *Adapter) InsertMany(ctx context.Context, vs []any, tx *sql.Tx) datamodel.Result {
	n := 0
	for _, v := range vs {
		if r := a.Insert(ctx, v, false, tx); !r.Succeed() {
			return r
		}
		n++
	}
	return datamodel.Succeed(n)
}

// UpdateModel writes the update-bound properties of v to the row selected
// by its primary key. Properties named in ignore are left untouched. The
// payload is the number of affected rows (int64).
func (a *Adapter) UpdateModel(ctx context.Context, v any, tx *sql.Tx, ignore ...string) datamodel.Result {
	return a.run(ctx, "update", reflect.TypeOf(v), tx, func(c *call) (datamodel.Result, error) {
		set, err := mapping.ToUpdate(a.reg, v, ignore...)
		if err != nil {
			return datamodel.Result{}, err
		}
		if set.Len() == 0 {
			return datamodel.Succeed(int64(0)), nil
		}
		where, err := mapping.ToWhere(a.reg, v)
		if err != nil {
			return datamodel.Result{}, err
		}
		w, err := whereClause(where)
		if err != nil {
			return datamodel.Result{}, err
		}
		assignments := set.Render()
		if assignments == "" {
			return datamodel.Result{}, errUnrendered
		}
		defer c.invalidate(ctx)
		n, err := c.exec(ctx, fmt.Sprintf("UPDATE %s SET %s WHERE %s", c.table(), assignments, w))
		if err != nil {
			return datamodel.Result{}, err
		}
		return datamodel.Succeed(n), nil
	})
}

// DeleteModel deletes the row selected by the primary key of v. The payload
// is the number of affected rows (int64).
func (a *Adapter) DeleteModel(ctx context.Context, v any, tx *sql.Tx) datamodel.Result {
	return a.run(ctx, "delete", reflect.TypeOf(v), tx, func(c *call) (datamodel.Result, error) {
		where, err := mapping.ToWhere(a.reg, v)
		if err != nil {
			return datamodel.Result{}, err
		}
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
