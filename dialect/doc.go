// Package dialect provides database dialect abstraction for datamodel.
//
// This package defines the interfaces used for database operations and the
// provider table that maps configured provider names onto database/sql
// driver names and SQL dialects.
//
// # Supported Dialects
//
//   - SQLServer: Microsoft SQL Server (the default provider)
//   - MySQL: MySQL/MariaDB database
//   - Postgres: PostgreSQL database (lib/pq or pgx)
//   - SQLite: SQLite database (modernc.org/sqlite)
//
// # Providers
//
// Data sources name a provider. Aliases are accepted so that existing
// configuration keeps working:
//
//	dialect.LookupProvider("System.Data.SqlClient") // sqlserver
//	dialect.LookupProvider("postgresql")            // postgres
//	dialect.LookupProvider("")                      // sqlserver
//
// # Driver Interface
//
//	type Driver interface {
//	    Exec(ctx context.Context, query string, args, v any) error
//	    Query(ctx context.Context, query string, args, v any) error
//	    Tx(ctx context.Context) (Tx, error)
//	    Close() error
//	    Dialect() string
//	}
package dialect
