package adapter

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"time"

	"github.com/syssam/datamodel"
	"github.com/syssam/datamodel/dialect"
	"github.com/syssam/datamodel/dialect/sql"
	"github.com/syssam/datamodel/dialect/sql/sqlerr"
	"github.com/syssam/datamodel/schema"
)

// Failure items reported by the adapter itself. Driver faults carrying a
// database error code are reported by sqlerr.Classify instead.
const (
	ItemDesign  = "Design error"
	ItemAccess  = "Access"
	ItemSystem  = "System"
	ItemEngine  = "Data Engine"
	ItemUnknown = "Unknown"
	ItemLogical = "Logical error"
	ItemConvert = "Data Convert Error"
	ItemPaging  = "Paging"
)

const (
	explainMissingSchema = "Object is not configured with a data schema"
	explainTimeout       = "Timeout"
	explainMemory        = "A memory overflow occurred during a database query"
	explainNoReturnValue = "Data has no return value or data insertion failed"
	explainInsertFailed  = "Data insertion failed. The cause of the error is unknown"
)

// Connector hands out connections for a logical data source name.
// *sql.Sources implements it.
type Connector interface {
	Session(ctx context.Context, name string) (*sql.Session, error)
}

// Adapter runs the CRUD and query operations of registered types. It holds
// no per-call state and is safe for concurrent use.
type Adapter struct {
	reg     *schema.Registry
	sources Connector
	log     *slog.Logger
	cache   Cache
	ttl     time.Duration
}

// Option configures an Adapter.
type Option func(*Adapter)

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(a *Adapter) {
		if l != nil {
			a.log = l
		}
	}
}

// WithCache enables the read cache for counts and full table reads. Entries
// expire after ttl; zero keeps them until a write on the table.
func WithCache(c Cache, ttl time.Duration) Option {
	return func(a *Adapter) {
		a.cache = c
		a.ttl = ttl
	}
}

// New returns an adapter reading descriptors from reg and connections from
// sources.
func New(reg *schema.Registry, sources Connector, opts ...Option) *Adapter {
	a := &Adapter{reg: reg, sources: sources, log: slog.Default()}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Registry returns the registry of the adapter.
func (a *Adapter) Registry() *schema.Registry { return a.reg }

// dbError marks an error raised by the database or its driver, as opposed to
// mapping and conversion errors raised in-process.
type dbError struct{ err error }

func (e *dbError) Error() string { return e.err.Error() }
func (e *dbError) Unwrap() error { return e.err }

func dbFault(err error) error {
	if err == nil {
		return nil
	}
	return &dbError{err: err}
}

// validationError reports a caller argument outside its domain.
type validationError struct {
	item   string
	reason string
}

func (e *validationError) Error() string { return e.item + ": " + e.reason }

// call is one adapter operation on one descriptor, bound to a connection.
type call struct {
	a    *Adapter
	op   string
	d    *schema.Descriptor
	conn sql.Conn
	tx   *sql.Tx
}

// run resolves t, acquires a connection and runs fn. Every error and panic
// is turned into a failed Result; a connection opened here is released on
// every path.
func (a *Adapter) run(ctx context.Context, op string, t reflect.Type, tx *sql.Tx, fn func(*call) (datamodel.Result, error)) (r datamodel.Result) {
	c := &call{a: a, op: op, tx: tx}
	defer func() {
		if v := recover(); v != nil {
			r = a.recovered(v)
		}
		if !r.Succeed() {
			a.log.WarnContext(ctx, "datamodel: operation failed",
				slog.String("op", op),
				slog.String("table", c.table()),
				slog.String("kind", r.Kind().String()),
				slog.String("item", r.Item()),
				slog.String("explanation", r.Explanation()),
			)
		}
	}()
	d, err := a.reg.Resolve(t)
	if err != nil {
		return a.fault(t, err)
	}
	c.d = d
	if tx != nil {
		c.conn = tx.Conn
	} else {
		s, err := a.sources.Session(ctx, d.Schema.DataSource)
		if err != nil {
			return a.fault(t, dbFault(err))
		}
		defer s.Close()
		c.conn = s.Conn
	}
	r, err = fn(c)
	if err != nil {
		return a.fault(t, err)
	}
	return r
}

func (a *Adapter) fault(t reflect.Type, err error) datamodel.Result {
	var (
		dbe *dbError
		ve  *validationError
	)
	switch {
	case errors.As(err, &ve):
		return datamodel.Fail(datamodel.DataValidateFailure, ve.item, ve.reason)
	case datamodel.IsDesignError(err):
		explanation := err.Error()
		if errors.Is(err, datamodel.ErrNotRegistered) {
			explanation = explainMissingSchema
		}
		return datamodel.Fail(datamodel.DataDesignError, ItemDesign, explanation)
	case errors.Is(err, bytes.ErrTooLarge):
		return datamodel.Fail(datamodel.OperationFailure, ItemSystem, explainMemory)
	case datamodel.IsConversionError(err):
		return datamodel.Fail(datamodel.OperationFailure, ItemConvert,
			fmt.Sprintf("An error occurred while converting data object %s: %v", t, err))
	case !errors.As(err, &dbe):
		return datamodel.Fail(datamodel.SupportFailed, ItemUnknown, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return datamodel.Fail(datamodel.OperationTimeout, ItemAccess, explainTimeout)
	case sqlerr.IsDriverFault(err):
		return sqlerr.Classify(err)
	case sqlerr.IsTimeout(err):
		return datamodel.Fail(datamodel.OperationTimeout, ItemAccess, explainTimeout)
	default:
		return datamodel.Fail(datamodel.OperationFailure, ItemEngine, sqlerr.Innermost(err).Error())
	}
}

func (a *Adapter) recovered(v any) datamodel.Result {
	if err, ok := v.(error); ok {
		if errors.Is(err, bytes.ErrTooLarge) {
			return datamodel.Fail(datamodel.OperationFailure, ItemSystem, explainMemory)
		}
		return datamodel.Fail(datamodel.SupportFailed, ItemUnknown, err.Error())
	}
	return datamodel.Fail(datamodel.SupportFailed, ItemUnknown, fmt.Sprint(v))
}

func (c *call) table() string {
	if c.d == nil {
		return ""
	}
	return c.d.Table()
}

func (c *call) dialect() string { return c.conn.Dialect() }

func (c *call) debug(ctx context.Context, text string, start time.Time) {
	c.a.log.DebugContext(ctx, "datamodel: statement",
		slog.String("op", c.op),
		slog.String("table", c.table()),
		slog.String("sql", text),
		slog.Duration("duration", time.Since(start)),
	)
}

func (c *call) exec(ctx context.Context, text string) (int64, error) {
	defer c.debug(ctx, text, time.Now())
	n, err := c.conn.Command(text).Exec(ctx)
	return n, dbFault(err)
}

func (c *call) execResult(ctx context.Context, text string) (sql.Result, error) {
	defer c.debug(ctx, text, time.Now())
	res, err := c.conn.Command(text).ExecResult(ctx)
	return res, dbFault(err)
}

func (c *call) fill(ctx context.Context, text string) (*sql.Table, error) {
	defer c.debug(ctx, text, time.Now())
	t, err := c.conn.Command(text).Fill(ctx)
	return t, dbFault(err)
}

func (c *call) scalar(ctx context.Context, text string) (any, error) {
	defer c.debug(ctx, text, time.Now())
	v, err := c.conn.Command(text).Scalar(ctx)
	return v, dbFault(err)
}

// selectOne returns the statement reading the first row in order.
func (c *call) selectOne(where, order string) string {
	if c.dialect() == dialect.SQLServer {
		return fmt.Sprintf("SELECT TOP 1 * FROM %s WHERE %s ORDER BY %s", c.table(), where, order)
	}
	return fmt.Sprintf("SELECT * FROM %s WHERE %s ORDER BY %s LIMIT 1", c.table(), where, order)
}

// invalidate drops the cached reads of the table after a write.
// invalidate drops the cached reads of the call's table. Inside a
// transaction the entries are dropped again once it commits, since reads
// outside the transaction may cache the old rows until then.
func (c *call) invalidate(ctx context.Context) {
	if c.a.cache == nil {
		return
	}
	c.a.dropTable(ctx, c.table())
	if c.tx != nil {
		table := c.table()
		c.tx.OnCommit(func() {
			c.a.dropTable(context.WithoutCancel(ctx), table)
		})
	}
}

func (a *Adapter) dropTable(ctx context.Context, table string) {
	if err := a.cache.DeletePrefix(ctx, tablePrefix(table)); err != nil {
		a.log.WarnContext(ctx, "datamodel: cache invalidation failed",
			slog.String("table", table), slog.Any("error", err))
	}
}

func typeOf[T any]() reflect.Type { return reflect.TypeFor[T]() }

// errUnrendered is returned when a non-empty condition set renders to
// nothing, which happens when one of its values has no literal form.
var errUnrendered = errors.New("adapter: condition set could not be rendered")

// whereClause renders w, nil meaning every row.
func whereClause(w *sql.WhereSet) (string, error) {
	if w == nil {
		return w.Render(), nil
	}
	if err := w.Err(); err != nil {
		return "", err
	}
	s := w.Render()
	if s == "" {
		return "", errUnrendered
	}
	return s, nil
}

// orderClause renders o; ok is false for an empty set.
func orderClause(o *sql.OrderSet) (s string, ok bool, err error) {
	if o.Empty() {
		return sql.NoOrder, false, nil
	}
	if err := o.Err(); err != nil {
		return "", false, err
	}
	return o.Render(), true, nil
}
