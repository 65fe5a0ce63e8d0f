package adapter

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"reflect"
	"testing"

	mssql "github.com/microsoft/go-mssqldb"
	"github.com/stretchr/testify/assert"

	"github.com/syssam/datamodel"
	"github.com/syssam/datamodel/dialect/sql/sqlerr"
)

func TestFault(t *testing.T) {
	t.Parallel()
	a := New(nil, nil)
	typ := reflect.TypeFor[struct{ Name string }]()
	tests := []struct {
		name string
		err  error
		kind datamodel.ErrorKind
		item string
	}{
		{"NotRegistered", datamodel.NewDesignError(typ, "missing", datamodel.ErrNotRegistered), datamodel.DataDesignError, ItemDesign},
		{"ReservedColumn", fmt.Errorf("set: %w", datamodel.ErrReservedColumn), datamodel.DataDesignError, ItemDesign},
		{"Validation", &validationError{item: ItemPaging, reason: "bad"}, datamodel.DataValidateFailure, ItemPaging},
		{"TooLarge", dbFault(bytes.ErrTooLarge), datamodel.OperationFailure, ItemSystem},
		{"Conversion", &datamodel.ConversionError{Column: "Id", Field: "ID", Err: errors.New("bad")}, datamodel.OperationFailure, ItemConvert},
		{"InProcess", errors.New("boom"), datamodel.SupportFailed, ItemUnknown},
		{"Deadline", dbFault(fmt.Errorf("exec: %w", context.DeadlineExceeded)), datamodel.OperationTimeout, ItemAccess},
		{"Coded", dbFault(mssql.Error{Number: 2627, Message: "dup"}), datamodel.OperationFailure, sqlerr.Item},
		{"TimeoutText", dbFault(errors.New("i/o timed out")), datamodel.OperationTimeout, ItemAccess},
		{"Engine", dbFault(fmt.Errorf("outer: %w", errors.New("connection refused"))), datamodel.OperationFailure, ItemEngine},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			r := a.fault(typ, tt.err)
			assert.False(t, r.Succeed())
			assert.Equal(t, tt.kind, r.Kind())
			assert.Equal(t, tt.item, r.Item())
		})
	}
	r := a.fault(typ, datamodel.NewDesignError(typ, "missing", datamodel.ErrNotRegistered))
	assert.Equal(t, explainMissingSchema, r.Explanation())
	r = a.fault(typ, dbFault(fmt.Errorf("outer: %w", errors.New("connection refused"))))
	assert.Equal(t, "connection refused", r.Explanation())
}

func TestRecovered(t *testing.T) {
	t.Parallel()
	a := New(nil, nil)
	r := a.recovered(bytes.ErrTooLarge)
	assert.Equal(t, datamodel.OperationFailure, r.Kind())
	assert.Equal(t, ItemSystem, r.Item())
	r = a.recovered("unexpected")
	assert.Equal(t, datamodel.SupportFailed, r.Kind())
	assert.Equal(t, "unexpected", r.Explanation())
	r = a.recovered(errors.New("nil map"))
	assert.Equal(t, ItemUnknown, r.Item())
}

func TestRunRecoversPanics(t *testing.T) {
	t.Parallel()
	a := New(nil, nil)
	r := a.run(context.Background(), "panic", nil, nil, nil)
	assert.False(t, r.Succeed(), "a nil registry panics and the panic becomes a failure")
	assert.Equal(t, datamodel.SupportFailed, r.Kind())
}
