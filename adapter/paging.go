package adapter

import (
	"context"
	"fmt"

	"github.com/syssam/datamodel"
	"github.com/syssam/datamodel/dialect/sql"
	"github.com/syssam/datamodel/mapping"
)

// PageQuery describes one page of a paginated read. Page is the page
// actually served, after clamping.
type PageQuery struct {
	PageSize     int
	Page         int
	TotalRecords int
	TotalPages   int
}

// Page is the payload of Paginate.
type Page[T any] struct {
	PageQuery
	Items []*T
}

// TablePage is the payload of PaginateAsTable.
type TablePage struct {
	PageQuery
	Table *sql.Table
}

// Paginate reads page number page (1-based) of pageSize rows of T matching
// where, numbered in order. Out of range pages are clamped into
// [1, TotalPages]. When no row matches, no row query is issued and the page
// is empty. The payload is a Page[T].
func Paginate[T any](ctx context.Context, a *Adapter, where *sql.WhereSet, order *sql.OrderSet, pageSize, page int, tx *sql.Tx) datamodel.Result {
	return a.run(ctx, "paginate", typeOf[T](), tx, func(c *call) (datamodel.Result, error) {
		q, t, err := c.paginate(ctx, where, order, pageSize, page)
		if err != nil {
			return datamodel.Result{}, err
		}
		items, err := mapping.ScanAll[T](a.reg, t)
		if err != nil {
			return datamodel.Result{}, err
		}
		return datamodel.Succeed(Page[T]{PageQuery: q, Items: items}), nil
	})
}

// PaginateAsTable is Paginate returning the raw rows. The payload is a
// TablePage.
func PaginateAsTable[T any](ctx context.Context, a *Adapter, where *sql.WhereSet, order *sql.OrderSet, pageSize, page int, tx *sql.Tx) datamodel.Result {
	return a.run(ctx, "paginate_table", typeOf[T](), tx, func(c *call) (datamodel.Result, error) {
		q, t, err := c.paginate(ctx, where, order, pageSize, page)
		if err != nil {
			return datamodel.Result{}, err
		}
		return datamodel.Succeed(TablePage{PageQuery: q, Table: t}), nil
	})
}

// paginate counts the matching rows, clamps the page and reads it. With no
// matching row the requested page is reported unchanged.
func (c *call) paginate(ctx context.Context, where *sql.WhereSet, order *sql.OrderSet, pageSize, page int) (PageQuery, *sql.Table, error) {
	q := PageQuery{PageSize: pageSize, Page: page}
	if pageSize <= 0 {
		return q, nil, &validationError{item: ItemPaging, reason: fmt.Sprintf("page size must be positive, got %d", pageSize)}
	}
	w, err := whereClause(where)
	if err != nil {
		return q, nil, err
	}
	o, _, err := orderClause(order)
	if err != nil {
		return q, nil, err
	}
	if q.TotalRecords, err = c.count(ctx, where); err != nil {
		return q, nil, err
	}
	q.TotalPages = TotalPages(q.TotalRecords, pageSize)
	if q.TotalPages == 0 {
		return q, sql.NewTable(), nil
	}
	q.Page = ClampPage(page, q.TotalPages)
	t, err := c.fill(ctx, PageStatement(c.table(), w, o, pageSize, q.Page))
	if err != nil {
		return q, nil, err
	}
	t.RemoveColumn(sql.RowNumberColumn)
	return q, t, nil
}

// TotalPages returns the number of pages of size holding total rows.
func TotalPages(total, size int) int {
	if total <= 0 || size <= 0 {
		return 0
	}
	return (total + size - 1) / size
}

// ClampPage moves page into [1, pages]. The upper bound is applied first, so
// that a page past the end is served as the last page.
func ClampPage(page, pages int) int {
	if page > pages {
		page = pages
	}
	if page < 1 {
		page = 1
	}
	return page
}

// PageStatement returns the windowed query reading rows
// (size*(page-1), size*page] of table filtered by where and numbered in
// order.
func PageStatement(table, where, order string, size, page int) string {
	return fmt.Sprintf(
		"SELECT * FROM (SELECT *, ROW_NUMBER() OVER (ORDER BY %s) AS [%s] FROM (SELECT * FROM %s WHERE %s) A) B WHERE [%s] > %d AND [%s] <= %d",
		order, sql.RowNumberColumn, table, where,
		sql.RowNumberColumn, size*(page-1), sql.RowNumberColumn, size*page,
	)
}
