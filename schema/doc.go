// Package schema holds the metadata registry: the table a type is stored in
// and, per struct field, the column it maps to and the statements it takes
// part in.
//
// Types are registered once, from struct tags and options:
//
//	type User struct {
//	    ID      uuid.UUID `db:"Id,pk,default=NEWID()"`
//	    Name    string    `db:"Name,type=nvarchar,len=50"`
//	    Status  Status    `db:"Status,bind=all"`
//	    Version []byte    `db:"Version,type=rowversion,bind=select"`
//	    Note    string    // not declared, never part of a statement
//	}
//
//	reg := schema.NewRegistry()
//	schema.MustRegister[User](reg, schema.Schema{DataSource: "main", Name: "Users"},
//	    schema.Field("Name", schema.Description("display name")),
//	)
//
// A declared field without a bind= entry takes part in insert, update,
// where and select statements. Undeclared fields take part in none.
//
// Registry.Validate reports mappings that register fine but fail at run
// time, such as a type without a primary key or an identity column bound
// for insert.
package schema
