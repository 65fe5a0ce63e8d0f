// Package sqlerr maps database driver faults onto the datamodel error
// taxonomy.
package sqlerr

import (
	"context"
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"golang.org/x/text/cases"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/syssam/datamodel"
)

// Fault numbers. Faults of every driver are folded onto these.
const (
	CodeRaised      = 50000 // error raised by a statement or procedure
	CodeReference   = 547   // reference or check constraint
	CodeUnique      = 2627  // unique constraint
	CodeUniqueIndex = 2601  // unique index
)

// Item labels the failing area of every driver fault.
const Item = "The data engine is abnormal"

const (
	explainUnhandled       = "Exceptions that the framework failed to handle."
	explainDeleteReference = "Because the execution statement does not meet the operation conditions, the data to be deleted must be isolated data items!"
	explainInsertUnique    = "Because the statement does not meet operation conditions, the unique attribute item must be unique."
	explainUpdate          = "The execution statement did not meet the operation conditions"
	explainDuplicate       = "The only property that is currently added is the same as some existing data, which is not allowed."
	explainTimeout         = "The database operation timed out"
)

// msSQLError is implemented by go-mssqldb errors.
type msSQLError interface {
	SQLErrorNumber() int32
	SQLErrorMessage() string
}

// Fault is a driver fault reduced to a number and a message.
type Fault struct {
	Number  int
	Message string
}

// Normalize extracts the driver fault from the error chain. It reports false
// when err carries no recognized driver error.
func Normalize(err error) (Fault, bool) {
	if err == nil {
		return Fault{}, false
	}
	if e, ok := asError[msSQLError](err); ok {
		return Fault{Number: int(e.SQLErrorNumber()), Message: e.SQLErrorMessage()}, true
	}
	if e, ok := asError[*mysql.MySQLError](err); ok {
		return Fault{Number: mysqlNumber(e.Number), Message: e.Message}, true
	}
	if e, ok := asError[*pgconn.PgError](err); ok {
		return Fault{Number: pgNumber(e.Code), Message: e.Message}, true
	}
	if e, ok := asError[*pq.Error](err); ok {
		return Fault{Number: pgNumber(string(e.Code)), Message: e.Message}, true
	}
	if e, ok := asError[*sqlite.Error](err); ok {
		return Fault{Number: sqliteNumber(e.Code()), Message: e.Error()}, true
	}
	return Fault{}, false
}

func mysqlNumber(n uint16) int {
	switch n {
	case 1644: // ER_SIGNAL_EXCEPTION
		return CodeRaised
	case 1451, 1452, 3819:
		return CodeReference
	case 1062:
		return CodeUnique
	}
	return int(n)
}

func pgNumber(code string) int {
	switch code {
	case "P0001": // raise_exception
		return CodeRaised
	case "23503", "23514":
		return CodeReference
	case "23505":
		return CodeUnique
	}
	return 0
}

func sqliteNumber(code int) int {
	switch code {
	case sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY, sqlite3.SQLITE_CONSTRAINT_CHECK:
		return CodeReference
	case sqlite3.SQLITE_CONSTRAINT_UNIQUE:
		return CodeUnique
	case sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
		return CodeUniqueIndex
	}
	return code
}

// Classify maps a driver fault onto a failed Result. It never panics; a nil
// fault yields a generic "framework failed to handle" failure.
func Classify(err error) datamodel.Result {
	if err == nil {
		return datamodel.Fail(datamodel.OperationFailure, "Data execution exception", explainUnhandled)
	}
	f, ok := Normalize(err)
	if !ok {
		f = Fault{Message: Innermost(err).Error()}
	}
	switch f.Number {
	case CodeRaised:
		msg, _, _ := strings.Cut(f.Message, "\n")
		return fail(strings.TrimSuffix(msg, "\r"))
	case CodeReference:
		upper := strings.ToUpper(f.Message)
		switch {
		case strings.Contains(upper, "DELETE"):
			return fail(explainDeleteReference)
		case strings.Contains(upper, "INSERT"):
			return fail(explainInsertUnique)
		case strings.Contains(upper, "UPDATE"):
			return fail(explainUpdate)
		}
		return fail(f.Message)
	case CodeUnique, CodeUniqueIndex:
		return fail(explainDuplicate)
	}
	if hasTimeoutKeyword(f.Message) || hasTimeoutKeyword(err.Error()) {
		return datamodel.Fail(datamodel.OperationTimeout, Item, explainTimeout)
	}
	return fail(f.Message)
}

func fail(explanation string) datamodel.Result {
	return datamodel.Fail(datamodel.OperationFailure, Item, explanation)
}

// IsDriverFault reports whether err carries a recognized driver error.
func IsDriverFault(err error) bool {
	_, ok := Normalize(err)
	return ok
}

// IsTimeout reports whether err is a deadline, a network timeout, or a driver
// fault whose message names a timeout.
func IsTimeout(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	if e, ok := asError[interface{ Timeout() bool }](err); ok && e.Timeout() {
		return true
	}
	return hasTimeoutKeyword(err.Error())
}

// IsUniqueConstraintError reports if the error resulted from a DB uniqueness
// constraint violation.
func IsUniqueConstraintError(err error) bool {
	if f, ok := Normalize(err); ok {
		return f.Number == CodeUnique || f.Number == CodeUniqueIndex
	}
	return err != nil && containsAny(err.Error(),
		"Error 1062",
		"violates unique constraint",
		"UNIQUE constraint failed",
	)
}

// IsForeignKeyConstraintError reports if the error resulted from a database
// reference or check constraint violation.
func IsForeignKeyConstraintError(err error) bool {
	if f, ok := Normalize(err); ok {
		return f.Number == CodeReference
	}
	return err != nil && containsAny(err.Error(),
		"Error 1451",
		"Error 1452",
		"violates foreign key constraint",
		"FOREIGN KEY constraint failed",
	)
}

var timeoutKeywords = []string{"timeout expired", "timed out", "超时"}

func hasTimeoutKeyword(msg string) bool {
	return containsAny(cases.Fold().String(msg), timeoutKeywords...)
}

// Innermost returns the deepest error of a single-unwrap chain.
func Innermost(err error) error {
	for {
		next := errors.Unwrap(err)
		if next == nil {
			return err
		}
		err = next
	}
}

// asError attempts to extract an error implementing T from the error chain.
func asError[T any](err error) (T, bool) {
	var target T
	if errors.As(err, &target) {
		return target, true
	}
	return target, false
}

// containsAny returns true if s contains any of the substrings.
func containsAny(s string, substrings ...string) bool {
	for _, sub := range substrings {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
