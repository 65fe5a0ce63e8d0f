package sql

import (
	"fmt"
	"strings"
)

// Table is a raw, in-memory row set. Column lookup is case-insensitive.
type Table struct {
	Columns []string
	Rows    [][]any
}

// NewTable returns an empty table with the given columns.
func NewTable(columns ...string) *Table {
	return &Table{Columns: columns}
}

// AddRow appends a row. It panics if the number of values does not match the
// number of columns.
func (t *Table) AddRow(values ...any) *Table {
	if len(values) != len(t.Columns) {
		panic(fmt.Sprintf("dialect/sql: row has %d values, table has %d columns", len(values), len(t.Columns)))
	}
	t.Rows = append(t.Rows, values)
	return t
}

// Len returns the number of rows.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// ColumnIndex returns the index of the named column, or -1.
func (t *Table) ColumnIndex(name string) int {
	for i, c := range t.Columns {
		if strings.EqualFold(c, name) {
			return i
		}
	}
	return -1
}

// HasColumn reports whether the table has the named column.
func (t *Table) HasColumn(name string) bool {
	return t.ColumnIndex(name) >= 0
}

// RemoveColumn drops the named column and its values. It reports whether
// the column existed.
func (t *Table) RemoveColumn(name string) bool {
	i := t.ColumnIndex(name)
	if i < 0 {
		return false
	}
	t.Columns = append(t.Columns[:i:i], t.Columns[i+1:]...)
	for r, row := range t.Rows {
		t.Rows[r] = append(row[:i:i], row[i+1:]...)
	}
	return true
}

// Row returns the i-th row.
func (t *Table) Row(i int) Row {
	return Row{table: t, values: t.Rows[i]}
}

// Each calls fn for every row until fn returns an error.
func (t *Table) Each(fn func(Row) error) error {
	for i := range t.Rows {
		if err := fn(t.Row(i)); err != nil {
			return err
		}
	}
	return nil
}

// Row is a view over a single table row.
type Row struct {
	table  *Table
	values []any
}

// Value returns the value of the named column. The second result is false
// when the table has no such column.
func (r Row) Value(column string) (any, bool) {
	i := r.table.ColumnIndex(column)
	if i < 0 {
		return nil, false
	}
	return r.values[i], true
}

// Values returns the row values in column order.
func (r Row) Values() []any {
	return r.values
}

// ScanTable reads all remaining rows of s into a Table. It does not close s.
func ScanTable(s ColumnScanner) (*Table, error) {
	cols, err := s.Columns()
	if err != nil {
		return nil, fmt.Errorf("dialect/sql: columns: %w", err)
	}
	t := NewTable(cols...)
	for s.Next() {
		values := make([]any, len(cols))
		dest := make([]any, len(cols))
		for i := range values {
			dest[i] = &values[i]
		}
		if err := s.Scan(dest...); err != nil {
			return nil, fmt.Errorf("dialect/sql: scan: %w", err)
		}
		for i, v := range values {
			// Drivers may reuse the memory of []byte values between rows.
			if b, ok := v.([]byte); ok {
				values[i] = append([]byte(nil), b...)
			}
		}
		t.Rows = append(t.Rows, values)
	}
	if err := s.Err(); err != nil {
		return nil, err
	}
	return t, nil
}
