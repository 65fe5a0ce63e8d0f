package sql

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/syssam/datamodel/dialect"
)

// CommandTimeout bounds every statement. It is the only cancellation
// mechanism besides the caller's context.
const CommandTimeout = time.Hour

// Driver is a dialect.Driver implementation for SQL based databases.
type Driver struct {
	Conn
	dialect string
}

// NewDriver creates a new Driver with the given Conn and dialect.
func NewDriver(dialect string, c Conn) *Driver {
	return &Driver{dialect: dialect, Conn: c}
}

// Open resolves the provider name (see dialect.LookupProvider) and wraps
// database/sql.Open.
func Open(provider, source string) (*Driver, error) {
	p, ok := dialect.LookupProvider(provider)
	if !ok {
		return nil, fmt.Errorf("dialect/sql: unknown provider %q", provider)
	}
	db, err := sql.Open(p.DriverName, source)
	if err != nil {
		return nil, err
	}
	return OpenDB(p.Dialect, db), nil
}

// OpenDB wraps the given database/sql.DB method with a Driver.
func OpenDB(dialect string, db *sql.DB) *Driver {
	return NewDriver(dialect, Conn{ExecQuerier: db, dialect: dialect})
}

// DB returns the underlying *sql.DB instance.
func (d Driver) DB() *sql.DB {
	return d.ExecQuerier.(*sql.DB)
}

// Dialect implements the dialect.Dialect method.
func (d Driver) Dialect() string {
	return d.dialect
}

// Tx starts and returns a transaction.
func (d *Driver) Tx(ctx context.Context) (dialect.Tx, error) {
	return d.BeginTx(ctx, nil)
}

// BeginTx starts a transaction with options.
func (d *Driver) BeginTx(ctx context.Context, opts *TxOptions) (*Tx, error) {
	tx, err := d.DB().BeginTx(ctx, opts)
	if err != nil {
		return nil, err
	}
	return &Tx{
		Conn: Conn{ExecQuerier: tx, dialect: d.dialect, stats: d.stats},
		Tx:   tx,
	}, nil
}

// Session reserves a dedicated connection from the pool. The caller must
// Close the session to release it.
func (d *Driver) Session(ctx context.Context) (*Session, error) {
	conn, err := d.DB().Conn(ctx)
	if err != nil {
		return nil, err
	}
	return &Session{
		Conn: Conn{ExecQuerier: conn, dialect: d.dialect, stats: d.stats},
		conn: conn,
	}, nil
}

// Close closes the underlying connection.
func (d *Driver) Close() error { return d.DB().Close() }

// Tx implements dialect.Tx interface. The embedded Conn is the connection
// owning the transaction.
type Tx struct {
	Conn
	driver.Tx

	mu       sync.Mutex
	onCommit []func()
}

var _ dialect.Tx = (*Tx)(nil)

// OnCommit registers fn to run after the transaction commits successfully.
// Hooks run in registration order and are discarded on rollback.
func (tx *Tx) OnCommit(fn func()) {
	tx.mu.Lock()
	defer tx.mu.Unlock()
	tx.onCommit = append(tx.onCommit, fn)
}

// Commit commits the transaction and then runs the OnCommit hooks.
func (tx *Tx) Commit() error {
	if err := tx.Tx.Commit(); err != nil {
		return err
	}
	for _, fn := range tx.hooks() {
		fn()
	}
	return nil
}

// Rollback aborts the transaction and drops the OnCommit hooks.
func (tx *Tx) Rollback() error {
	tx.hooks()
	return tx.Tx.Rollback()
}

func (tx *Tx) hooks() []func() {
	tx.mu.Lock()
	defer tx.mu.Unlock()
	hooks := tx.onCommit
	tx.onCommit = nil
	return hooks
}

// Session is a connection reserved for the lifetime of one operation.
type Session struct {
	Conn
	conn *sql.Conn
}

// Close returns the connection to the pool.
func (s *Session) Close() error {
	return s.conn.Close()
}

// ExecQuerier wraps the standard Exec and Query methods.
type ExecQuerier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// Conn implements dialect.ExecQuerier given ExecQuerier.
type Conn struct {
	ExecQuerier
	dialect string
	stats   *Stats
}

// Dialect returns the dialect of the connection.
func (c Conn) Dialect() string {
	return c.dialect
}

// Exec implements the dialect.Exec method.
func (c Conn) Exec(ctx context.Context, query string, args, v any) (rerr error) {
	argv, ok := args.([]any)
	if !ok {
		return fmt.Errorf("dialect/sql: invalid type %T. expect []any for args", args)
	}
	defer c.stats.track(ctx, query, time.Now(), false, &rerr)
	switch v := v.(type) {
	case nil:
		if _, err := c.ExecContext(ctx, query, argv...); err != nil {
			return fmt.Errorf("dialect/sql: exec: %w", err)
		}
	case *sql.Result:
		res, err := c.ExecContext(ctx, query, argv...)
		if err != nil {
			return fmt.Errorf("dialect/sql: exec: %w", err)
		}
		*v = res
	default:
		return fmt.Errorf("dialect/sql: invalid type %T. expect *sql.Result", v)
	}
	return nil
}

// Query implements the dialect.Query method.
func (c Conn) Query(ctx context.Context, query string, args, v any) (rerr error) {
	vr, ok := v.(*Rows)
	if !ok {
		return fmt.Errorf("dialect/sql: invalid type %T. expect *sql.Rows", v)
	}
	argv, ok := args.([]any)
	if !ok {
		return fmt.Errorf("dialect/sql: invalid type %T. expect []any for args", args)
	}
	defer c.stats.track(ctx, query, time.Now(), true, &rerr)
	rows, err := c.QueryContext(ctx, query, argv...)
	if err != nil {
		return fmt.Errorf("dialect/sql: query: %w", err)
	}
	*vr = Rows{rows}
	return nil
}

// Command returns a command for text bound to the connection, with the
// fixed CommandTimeout.
func (c Conn) Command(text string) *Command {
	return &Command{conn: c, Text: text, Timeout: CommandTimeout}
}

// Command is a single SQL statement ready to run on a connection.
type Command struct {
	conn    Conn
	Text    string
	Timeout time.Duration
}

func (cmd *Command) context(ctx context.Context) (context.Context, context.CancelFunc) {
	if cmd.Timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, cmd.Timeout)
}

// Exec runs the command as a non-query and returns the number of affected rows.
func (cmd *Command) Exec(ctx context.Context) (int64, error) {
	res, err := cmd.ExecResult(ctx)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// ExecResult runs the command as a non-query and returns the driver result.
func (cmd *Command) ExecResult(ctx context.Context) (Result, error) {
	ctx, cancel := cmd.context(ctx)
	defer cancel()
	var res sql.Result
	if err := cmd.conn.Exec(ctx, cmd.Text, []any{}, &res); err != nil {
		return nil, err
	}
	return res, nil
}

// Scalar runs the command as a query and returns the first column of the
// first row, or nil when the query yields no rows.
func (cmd *Command) Scalar(ctx context.Context) (any, error) {
	t, err := cmd.Fill(ctx)
	if err != nil {
		return nil, err
	}
	if t.Len() == 0 || len(t.Columns) == 0 {
		return nil, nil
	}
	return t.Rows[0][0], nil
}

// Fill runs the command as a query and reads every row into a Table.
func (cmd *Command) Fill(ctx context.Context) (_ *Table, rerr error) {
	ctx, cancel := cmd.context(ctx)
	defer cancel()
	rows := &Rows{}
	if err := cmd.conn.Query(ctx, cmd.Text, []any{}, rows); err != nil {
		return nil, err
	}
	defer func() { rerr = errors.Join(rerr, rows.Close()) }()
	t, err := ScanTable(rows)
	if err != nil {
		return nil, fmt.Errorf("dialect/sql: query: %w", err)
	}
	return t, nil
}

var _ dialect.Driver = (*Driver)(nil)

type (
	// Rows wraps the sql.Rows to avoid locks copy.
	Rows struct{ ColumnScanner }
	// Result is an alias to sql.Result.
	Result = sql.Result
	// NullBool is an alias to sql.NullBool.
	NullBool = sql.NullBool
	// NullInt64 is an alias to sql.NullInt64.
	NullInt64 = sql.NullInt64
	// NullString is an alias to sql.NullString.
	NullString = sql.NullString
	// NullFloat64 is an alias to sql.NullFloat64.
	NullFloat64 = sql.NullFloat64
	// NullTime represents a time.Time that may be null.
	NullTime = sql.NullTime
	// TxOptions holds the transaction options to be used in DB.BeginTx.
	TxOptions = sql.TxOptions
)

// ColumnScanner is the interface that wraps the standard
// sql.Rows methods used for scanning database rows.
type ColumnScanner interface {
	Close() error
	ColumnTypes() ([]*sql.ColumnType, error)
	Columns() ([]string, error)
	Err() error
	Next() bool
	NextResultSet() bool
	Scan(dest ...any) error
}
