package sqlerr

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	mssql "github.com/microsoft/go-mssqldb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/datamodel"
)

func TestClassify(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		err         error
		kind        datamodel.ErrorKind
		item        string
		explanation string
	}{
		{
			name:        "nil",
			err:         nil,
			kind:        datamodel.OperationFailure,
			item:        "Data execution exception",
			explanation: explainUnhandled,
		},
		{
			name:        "raised first line",
			err:         mssql.Error{Number: 50000, Message: "Balance too low\r\nat line 3"},
			kind:        datamodel.OperationFailure,
			item:        Item,
			explanation: "Balance too low",
		},
		{
			name:        "raised postgres",
			err:         &pgconn.PgError{Code: "P0001", Message: "custom\nsecond"},
			kind:        datamodel.OperationFailure,
			item:        Item,
			explanation: "custom",
		},
		{
			name:        "reference delete",
			err:         mssql.Error{Number: 547, Message: "The DELETE statement conflicted with the REFERENCE constraint"},
			kind:        datamodel.OperationFailure,
			item:        Item,
			explanation: explainDeleteReference,
		},
		{
			name:        "reference insert",
			err:         mssql.Error{Number: 547, Message: "The INSERT statement conflicted with the FOREIGN KEY constraint"},
			kind:        datamodel.OperationFailure,
			item:        Item,
			explanation: explainInsertUnique,
		},
		{
			name:        "reference update",
			err:         mssql.Error{Number: 547, Message: "The UPDATE statement conflicted with the CHECK constraint"},
			kind:        datamodel.OperationFailure,
			item:        Item,
			explanation: explainUpdate,
		},
		{
			name:        "reference unknown verb",
			err:         mssql.Error{Number: 547, Message: "The MERGE statement conflicted"},
			kind:        datamodel.OperationFailure,
			item:        Item,
			explanation: "The MERGE statement conflicted",
		},
		{
			name:        "duplicate sqlserver",
			err:         mssql.Error{Number: 2601, Message: "Cannot insert duplicate key row"},
			kind:        datamodel.OperationFailure,
			item:        Item,
			explanation: explainDuplicate,
		},
		{
			name:        "duplicate mysql",
			err:         &mysql.MySQLError{Number: 1062, Message: "Duplicate entry 'a' for key 'name'"},
			kind:        datamodel.OperationFailure,
			item:        Item,
			explanation: explainDuplicate,
		},
		{
			name:        "duplicate pq wrapped",
			err:         fmt.Errorf("dialect/sql: exec: %w", &pq.Error{Code: "23505", Message: "anything"}),
			kind:        datamodel.OperationFailure,
			item:        Item,
			explanation: explainDuplicate,
		},
		{
			name:        "timeout keyword",
			err:         mssql.Error{Number: -2, Message: "Timeout expired. The timeout period elapsed"},
			kind:        datamodel.OperationTimeout,
			item:        Item,
			explanation: explainTimeout,
		},
		{
			name:        "timeout keyword localized",
			err:         errors.New("执行超时"),
			kind:        datamodel.OperationTimeout,
			item:        Item,
			explanation: explainTimeout,
		},
		{
			name:        "raw message",
			err:         fmt.Errorf("dialect/sql: exec: %w", errors.New("syntax error near FROM")),
			kind:        datamodel.OperationFailure,
			item:        Item,
			explanation: "syntax error near FROM",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := Classify(tt.err)
			require.False(t, r.Succeed())
			assert.Equal(t, tt.kind, r.Kind())
			assert.Equal(t, tt.item, r.Item())
			assert.Equal(t, tt.explanation, r.Explanation())
		})
	}
}

func TestNormalize(t *testing.T) {
	t.Parallel()

	f, ok := Normalize(&mysql.MySQLError{Number: 1452, Message: "Cannot add or update a child row"})
	require.True(t, ok)
	assert.Equal(t, CodeReference, f.Number)
	assert.Equal(t, explainUpdate, Classify(&mysql.MySQLError{Number: 1452, Message: f.Message}).Explanation())

	f, ok = Normalize(&pq.Error{Code: "42P01", Message: "relation does not exist"})
	require.True(t, ok)
	assert.Zero(t, f.Number)
	assert.Equal(t, "relation does not exist", f.Message)

	_, ok = Normalize(errors.New("plain"))
	assert.False(t, ok)
	_, ok = Normalize(nil)
	assert.False(t, ok)
}

func TestPredicates(t *testing.T) {
	t.Parallel()

	assert.True(t, IsUniqueConstraintError(mssql.Error{Number: 2627}))
	assert.True(t, IsUniqueConstraintError(errors.New("UNIQUE constraint failed: users.name")))
	assert.False(t, IsUniqueConstraintError(mssql.Error{Number: 547}))
	assert.False(t, IsUniqueConstraintError(nil))

	assert.True(t, IsForeignKeyConstraintError(&pgconn.PgError{Code: "23503"}))
	assert.True(t, IsForeignKeyConstraintError(errors.New("FOREIGN KEY constraint failed")))
	assert.False(t, IsForeignKeyConstraintError(&pgconn.PgError{Code: "23505"}))

	assert.True(t, IsDriverFault(fmt.Errorf("wrap: %w", &mysql.MySQLError{Number: 1})))
	assert.False(t, IsDriverFault(errors.New("plain")))

	assert.True(t, IsTimeout(context.DeadlineExceeded))
	assert.True(t, IsTimeout(fmt.Errorf("query: %w", context.DeadlineExceeded)))
	assert.True(t, IsTimeout(errors.New("i/o Timed Out")))
	assert.False(t, IsTimeout(errors.New("connection refused")))
	assert.False(t, IsTimeout(nil))
}
