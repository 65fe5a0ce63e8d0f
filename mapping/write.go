package mapping

import (
	"reflect"

	"github.com/syssam/datamodel"
	"github.com/syssam/datamodel/dialect/sql"
	"github.com/syssam/datamodel/schema"
)

// ToConditions returns the column values of v written for flag, in field
// order. An empty value (nil, DBNull or a sentinel such as the zero time)
// of a property with a default expression is replaced by that expression,
// or dropped when the column is maintained by the database.
func ToConditions(reg *schema.Registry, v any, flag schema.BindingFlag, ignore ...string) ([]sql.Condition, error) {
	values, err := reg.Properties(v, flag, ignore...)
	if err != nil {
		return nil, err
	}
	conds := make([]sql.Condition, 0, len(values))
	for _, pv := range values {
		if sql.IsSentinel(pv.Value) && pv.Default != "" {
			if pv.Omitted() {
				continue
			}
			conds = append(conds, sql.Condition{Name: pv.Column, Value: sql.Expr(pv.Default), Op: "="})
			continue
		}
		conds = append(conds, sql.Condition{Name: pv.Column, Value: pv.Value, Type: valueType(pv), Op: "="})
	}
	return conds, nil
}

// valueType is the declared type of the property, or the dynamic type of
// the value once an enum was converted to its ordinal.
func valueType(pv schema.PropertyValue) reflect.Type {
	if pv.Value == nil {
		return pv.Type
	}
	if t := reflect.TypeOf(pv.Value); t != pv.Type {
		return t
	}
	return pv.Type
}

// ToInsert returns the insert set of v.
func ToInsert(reg *schema.Registry, v any, ignore ...string) (*sql.InsertSet, error) {
	conds, err := ToConditions(reg, v, schema.BindInsert, ignore...)
	if err != nil {
		return nil, err
	}
	set := sql.Insert()
	for _, c := range conds {
		set.AppendTyped(c.Name, c.Value, c.Type)
	}
	return set, set.Err()
}

// ToUpdate returns the update set of v.
func ToUpdate(reg *schema.Registry, v any, ignore ...string) (*sql.UpdateSet, error) {
	conds, err := ToConditions(reg, v, schema.BindUpdate, ignore...)
	if err != nil {
		return nil, err
	}
	set := sql.Update()
	for _, c := range conds {
		set.AppendTyped(c.Name, c.Value, c.Type)
	}
	return set, set.Err()
}

// ToWhere returns the predicate selecting v by its primary key. A type
// without primary key yields a *datamodel.DesignError, so that a keyed
// statement can never fall back to the always-true predicate.
func ToWhere(reg *schema.Registry, v any) (*sql.WhereSet, error) {
	d, err := reg.Lookup(v)
	if err != nil {
		return nil, err
	}
	keys := d.PrimaryKeys()
	if len(keys) == 0 {
		return nil, datamodel.NewDesignError(d.Type, "no primary key declared", nil)
	}
	rv := reflect.Indirect(reflect.ValueOf(v))
	if !rv.IsValid() {
		return nil, datamodel.NewDesignError(d.Type, "nil value", nil)
	}
	w := sql.Where()
	for _, p := range keys {
		pv := schema.PropertyValue{Property: p, Value: p.ValueOf(rv)}
		w.AppendTyped(p.Column, pv.Value, valueType(pv), "=")
	}
	return w, w.Err()
}

// ToTable returns a one-row table holding the condition values. Raw
// expressions are kept as is.
func ToTable(conds []sql.Condition) *sql.Table {
	t := sql.NewTable()
	row := make([]any, 0, len(conds))
	for _, c := range conds {
		t.Columns = append(t.Columns, c.Name)
		row = append(row, c.Value)
	}
	return t.AddRow(row...)
}
