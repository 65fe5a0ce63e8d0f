package dialect

import (
	"context"
	"strings"
)

// Dialect names for supported databases.
const (
	SQLServer = "sqlserver"
	MySQL     = "mysql"
	Postgres  = "postgres"
	SQLite    = "sqlite"
)

// DefaultProvider is used when a data source does not name its provider.
const DefaultProvider = SQLServer

// Provider describes how a logical provider name maps onto database/sql.
type Provider struct {
	// Name is the normalized provider name.
	Name string
	// DriverName is the name registered with database/sql.
	DriverName string
	// Dialect is the SQL dialect spoken by the provider.
	Dialect string
}

// providers maps lower-cased provider names and aliases.
var providers = map[string]Provider{
	"sqlserver":             {Name: "sqlserver", DriverName: "sqlserver", Dialect: SQLServer},
	"mssql":                 {Name: "sqlserver", DriverName: "sqlserver", Dialect: SQLServer},
	"system.data.sqlclient": {Name: "sqlserver", DriverName: "sqlserver", Dialect: SQLServer},
	"mysql":                 {Name: "mysql", DriverName: "mysql", Dialect: MySQL},
	"postgres":              {Name: "postgres", DriverName: "postgres", Dialect: Postgres},
	"postgresql":            {Name: "postgres", DriverName: "postgres", Dialect: Postgres},
	"pgx":                   {Name: "pgx", DriverName: "pgx", Dialect: Postgres},
	"sqlite":                {Name: "sqlite", DriverName: "sqlite", Dialect: SQLite},
	"sqlite3":               {Name: "sqlite", DriverName: "sqlite", Dialect: SQLite},
}

// LookupProvider resolves a provider name or alias. An empty name resolves
// to DefaultProvider.
func LookupProvider(name string) (Provider, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		name = DefaultProvider
	}
	p, ok := providers[name]
	return p, ok
}

// ExecQuerier wraps the two database operations.
type ExecQuerier interface {
	// Exec executes a query that does not return records. For example, in SQL, INSERT or UPDATE.
	// It scans the result into the pointer v. For SQL drivers, it is dialect/sql.Result.
	Exec(ctx context.Context, query string, args, v any) error
	// Query executes a query that returns rows, typically a SELECT in SQL.
	// It scans the result into the pointer v. For SQL drivers, it is *dialect/sql.Rows.
	Query(ctx context.Context, query string, args, v any) error
}

// Driver is the interface that wraps all necessary operations for database drivers.
type Driver interface {
	ExecQuerier
	// Tx starts and returns a new transaction.
	Tx(context.Context) (Tx, error)
	// Close closes the underlying connection.
	Close() error
	// Dialect returns the dialect name of the driver.
	Dialect() string
}

// Tx wraps the Exec and Query operations in transaction.
type Tx interface {
	ExecQuerier
	Commit() error
	Rollback() error
}
