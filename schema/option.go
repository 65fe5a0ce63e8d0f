package schema

import (
	"fmt"
	"strconv"
	"strings"
)

// TagName is the struct tag read by the registry.
const TagName = "db"

// Option configures one property.
type Option func(*Property)

// Column sets the column name.
func Column(name string) Option {
	return func(p *Property) { p.Column = name }
}

// PrimaryKey marks the property as part of the primary key.
func PrimaryKey() Option {
	return func(p *Property) { p.PrimaryKey = true }
}

// Identity marks the property as the identity column.
func Identity() Option {
	return func(p *Property) { p.Identity = true }
}

// Default sets the SQL expression written when the value is empty. String
// constants must carry their own quotes, e.g. Default("'n/a'").
func Default(expr string) Option {
	return func(p *Property) { p.Default = expr }
}

// NativeType sets the database type name, e.g. "nvarchar".
func NativeType(typ string) Option {
	return func(p *Property) { p.NativeType = typ }
}

// Length sets the column length.
func Length(n int) Option {
	return func(p *Property) { p.Length = n }
}

// Scale sets the numeric scale.
func Scale(n int) Option {
	return func(p *Property) { p.Scale = n }
}

// AllowNull marks the column nullable.
func AllowNull() Option {
	return func(p *Property) { p.AllowNull = true }
}

// Bind replaces the binding of the property.
func Bind(flag BindingFlag) Option {
	return func(p *Property) { p.Binding = flag }
}

// Description sets the column description.
func Description(s string) Option {
	return func(p *Property) { p.Description = s }
}

// FieldOption applies options to the named struct field at registration.
type FieldOption struct {
	field string
	opts  []Option
}

// Field returns a FieldOption for the struct field name. Options override
// the values read from the field's tag.
func Field(name string, opts ...Option) FieldOption {
	return FieldOption{field: name, opts: opts}
}

// parseTag applies a tag of the form
//
//	db:"column,pk,identity,null,default=expr,type=nvarchar,len=50,scale=2,bind=insert|select,desc=text"
//
// to p. The first element is the column name; an empty one keeps the
// field name.
func parseTag(p *Property, tag string) error {
	parts := strings.Split(tag, ",")
	if name := strings.TrimSpace(parts[0]); name != "" {
		p.Column = name
	}
	for _, part := range parts[1:] {
		key, value, _ := strings.Cut(strings.TrimSpace(part), "=")
		var err error
		switch strings.ToLower(key) {
		case "":
		case "pk", "primarykey":
			p.PrimaryKey = true
		case "identity":
			p.Identity = true
		case "null":
			p.AllowNull = true
		case "default":
			p.Default = value
		case "type":
			p.NativeType = value
		case "len", "length":
			p.Length, err = strconv.Atoi(value)
		case "scale":
			p.Scale, err = strconv.Atoi(value)
		case "bind":
			p.Binding, err = ParseBinding(value)
		case "desc":
			p.Description = value
		default:
			return fmt.Errorf("schema: unknown tag option %q", key)
		}
		if err != nil {
			return fmt.Errorf("schema: tag option %q: %w", key, err)
		}
	}
	return nil
}
