package schema

import (
	"fmt"
	"reflect"
	"strings"
	"time"
)

// Schema describes the table or view a type is stored in.
type Schema struct {
	// DataSource is the logical data source name, resolved by configuration.
	DataSource string
	// Name is the table or view name. It defaults to the pluralized,
	// underscored type name.
	Name string
	// Namespace is the database schema owning the table, e.g. "dbo".
	Namespace string
	// IsView marks a read-only view.
	IsView      bool
	Description string
}

// Table returns the bracket-quoted, optionally schema-qualified table name.
func (s Schema) Table() string {
	if s.Namespace != "" {
		return "[" + s.Namespace + "].[" + s.Name + "]"
	}
	return "[" + s.Name + "]"
}

// Property describes how one struct field maps onto a column.
type Property struct {
	// Field is the Go struct field name.
	Field string
	// Index is the field index path, embedded structs included.
	Index []int
	// Type is the Go type of the field.
	Type reflect.Type

	Column      string
	NativeType  string
	Length      int
	Scale       int
	Default     string
	Identity    bool
	PrimaryKey  bool
	AllowNull   bool
	Binding     BindingFlag
	Description string

	declared bool
}

// Omitted reports whether the column is maintained by the database and must
// never be written (timestamp and rowversion columns).
func (p *Property) Omitted() bool {
	switch strings.ToLower(p.NativeType) {
	case "timestamp", "rowversion":
		return true
	}
	return false
}

// IsEnum reports whether the property holds an enum value.
func (p *Property) IsEnum() bool {
	return IsEnum(p.Type)
}

func (p *Property) String() string {
	return fmt.Sprintf("%s(%s %s)", p.Field, p.Column, p.Binding)
}

// Descriptor is the cached metadata of a registered type.
type Descriptor struct {
	Type       reflect.Type
	Schema     Schema
	Properties []*Property
}

// Table returns the quoted table name of the type.
func (d *Descriptor) Table() string {
	return d.Schema.Table()
}

// PrimaryKeys returns the primary key properties in field order.
func (d *Descriptor) PrimaryKeys() []*Property {
	var keys []*Property
	for _, p := range d.Properties {
		if p.PrimaryKey {
			keys = append(keys, p)
		}
	}
	return keys
}

// Identity returns the identity property, or nil.
func (d *Descriptor) Identity() *Property {
	for _, p := range d.Properties {
		if p.Identity {
			return p
		}
	}
	return nil
}

// Property returns the property with the given field or column name,
// compared case-insensitively.
func (d *Descriptor) Property(name string) (*Property, bool) {
	for _, p := range d.Properties {
		if strings.EqualFold(p.Field, name) || strings.EqualFold(p.Column, name) {
			return p, true
		}
	}
	return nil, false
}

// Bound returns the properties sharing at least one flag with flag.
func (d *Descriptor) Bound(flag BindingFlag) []*Property {
	var props []*Property
	for _, p := range d.Properties {
		if p.Binding.Any(flag) {
			props = append(props, p)
		}
	}
	return props
}

var (
	stringerType = reflect.TypeOf((*fmt.Stringer)(nil)).Elem()
	durationType = reflect.TypeOf(time.Duration(0))
)

// IsEnum reports whether t is an enum type: a named integer type with a
// String method. time.Duration is not an enum.
func IsEnum(t reflect.Type) bool {
	if t == nil || t.PkgPath() == "" || t == durationType {
		return false
	}
	switch t.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return t.Implements(stringerType)
	}
	return false
}
