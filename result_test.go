package datamodel_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/syssam/datamodel"
)

func TestResultSucceed(t *testing.T) {
	t.Parallel()

	res := datamodel.Succeed(3)
	assert.True(t, res.Succeed())
	assert.Equal(t, datamodel.None, res.Kind())
	assert.Equal(t, 3, res.Data())
	assert.NoError(t, res.Err())

	n, ok := datamodel.DataAs[int](res)
	assert.True(t, ok)
	assert.Equal(t, 3, n)

	_, ok = datamodel.DataAs[string](res)
	assert.False(t, ok)

	var zero datamodel.Result
	assert.True(t, zero.Succeed())
	assert.Nil(t, zero.Data())
}

func TestResultFail(t *testing.T) {
	t.Parallel()

	res := datamodel.Fail(datamodel.DataDesignError, "Design error", "missing schema")
	assert.False(t, res.Succeed())
	assert.Equal(t, datamodel.DataDesignError, res.Kind())
	assert.Equal(t, "Design error", res.Item())
	assert.Equal(t, "missing schema", res.Explanation())
	assert.Nil(t, res.Data())
	assert.Equal(t, "DataDesignError [Design error] missing schema", res.String())

	// A failure always names a kind.
	res = datamodel.Fail(datamodel.None, "x", "y")
	assert.False(t, res.Succeed())
	assert.Equal(t, datamodel.SupportFailed, res.Kind())
}

func TestErrorKind(t *testing.T) {
	t.Parallel()

	tests := []struct {
		kind  datamodel.ErrorKind
		name  string
		value int
	}{
		{datamodel.None, "None", 0},
		{datamodel.DataValidateFailure, "DataValidateFailure", 110},
		{datamodel.OperationWarning, "OperationWarning", 290},
		{datamodel.OperationFailure, "OperationFailure", 300},
		{datamodel.OperationTimeout, "OperationTimeout", 350},
		{datamodel.SupportFailed, "SupportFailed", 400},
		{datamodel.DataDesignError, "DataDesignError", 2000},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.name, tt.kind.String())
			assert.Equal(t, tt.value, int(tt.kind))
			assert.Equal(t, tt.kind == datamodel.OperationTimeout, tt.kind.Retryable())
		})
	}
	assert.Equal(t, "ErrorKind(7)", datamodel.ErrorKind(7).String())
}
