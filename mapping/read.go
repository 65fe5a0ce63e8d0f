package mapping

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/syssam/datamodel"
	"github.com/syssam/datamodel/dialect/sql"
	"github.com/syssam/datamodel/schema"
)

// FromRow copies the row into dst, which must be a non-nil pointer to a
// registered struct. Every select-bound property whose column is present is
// converted with Coerce; NULL columns leave the field untouched.
func FromRow(reg *schema.Registry, row sql.Row, dst any, ignore ...string) error {
	d, err := reg.Lookup(dst)
	if err != nil {
		return err
	}
	rv := reflect.ValueOf(dst)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return fmt.Errorf("mapping: destination must be a non-nil pointer, got %T", dst)
	}
	rv = rv.Elem()
	for _, p := range d.Bound(schema.BindSelect) {
		if skip(p, ignore) {
			continue
		}
		value, ok := row.Value(p.Column)
		if !ok || sql.IsNull(value) {
			continue
		}
		cv, err := Coerce(value, p.Type)
		if err != nil {
			return &datamodel.ConversionError{Column: p.Column, Field: p.Field, Value: value, Err: err}
		}
		rv.FieldByIndex(p.Index).Set(cv)
	}
	return nil
}

func skip(p *schema.Property, ignore []string) bool {
	for _, name := range ignore {
		if strings.EqualFold(name, p.Field) || strings.EqualFold(name, p.Column) {
			return true
		}
	}
	return false
}

// Scan returns a new T read from the row.
func Scan[T any](reg *schema.Registry, row sql.Row) (*T, error) {
	v := new(T)
	if err := FromRow(reg, row, v); err != nil {
		return nil, err
	}
	return v, nil
}

// ScanAll reads every row of the table.
func ScanAll[T any](reg *schema.Registry, t *sql.Table) ([]*T, error) {
	items := make([]*T, 0, t.Len())
	err := t.Each(func(row sql.Row) error {
		v, err := Scan[T](reg, row)
		if err != nil {
			return err
		}
		items = append(items, v)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return items, nil
}
