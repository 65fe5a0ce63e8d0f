// Package datamodel is an annotation-driven object-relational mapping core.
//
// Registered Go structs are turned into literal SQL text, executed against a
// relational store through database/sql, and every outcome is reported as a
// Result carrying a closed ErrorKind taxonomy instead of a raw error.
//
// # Packages
//
//   - schema: the metadata registry (table and column descriptors)
//   - dialect/sql: literal formatting, condition builders, the database driver
//   - dialect/sql/sqlerr: driver error classification
//   - mapping: struct to condition and row to struct conversion
//   - adapter: CRUD, counting and windowed pagination
//   - config: named data sources
//
// # Usage
//
//	type User struct {
//	    ID    uuid.UUID `db:"id,pk,default=NEWID()"`
//	    Name  string    `db:"name"`
//	    Level Level     `db:"level,bind=insert|update|select|enumvalue"`
//	}
//
//	reg := schema.NewRegistry()
//	schema.MustRegister[User](reg, schema.Schema{DataSource: "main", Name: "users"})
//
//	a := adapter.New(reg, sql.NewSources(cfg))
//	res := a.Insert(ctx, &User{Name: "O'Brien"}, false, nil)
//	if !res.Succeed() {
//	    log.Printf("%s: %s", res.Kind(), res.Explanation())
//	}
//
// Values are embedded in the generated SQL as literals; quotes are doubled,
// but no bound parameters are used.
package datamodel
