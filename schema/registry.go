package schema

import (
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-openapi/inflect"

	"github.com/syssam/datamodel"
)

// missingSchema is the reason reported for unregistered types.
const missingSchema = "object is not configured with a data schema"

// Registry holds the descriptors of registered types and the factory map
// used to instantiate them by name. It is safe for concurrent use.
type Registry struct {
	mu        sync.Mutex
	types     map[reflect.Type]*Descriptor
	factories map[string]func() any
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		types:     make(map[reflect.Type]*Descriptor),
		factories: make(map[string]func() any),
	}
}

// Register registers T with the given schema. Registering a type again
// replaces its descriptor.
func Register[T any](r *Registry, s Schema, opts ...FieldOption) error {
	t := reflect.TypeFor[T]()
	d, err := describe(t, s, opts)
	if err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.types[t] = d
	r.factories[t.Name()] = func() any { return new(T) }
	return nil
}

// MustRegister is like Register but panics on error.
func MustRegister[T any](r *Registry, s Schema, opts ...FieldOption) {
	if err := Register[T](r, s, opts...); err != nil {
		panic(err)
	}
}

// Resolve returns the descriptor of t. Pointer types resolve to their
// element type. An unregistered type yields a *datamodel.DesignError.
func (r *Registry) Resolve(t reflect.Type) (*Descriptor, error) {
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	r.mu.Lock()
	d, ok := r.types[t]
	r.mu.Unlock()
	if !ok {
		return nil, datamodel.NewDesignError(t, missingSchema, datamodel.ErrNotRegistered)
	}
	return d, nil
}

// Lookup returns the descriptor of the dynamic type of v.
func (r *Registry) Lookup(v any) (*Descriptor, error) {
	return r.Resolve(reflect.TypeOf(v))
}

// Descriptors returns the property descriptors of t in field order.
func (r *Registry) Descriptors(t reflect.Type) ([]*Property, error) {
	d, err := r.Resolve(t)
	if err != nil {
		return nil, err
	}
	return d.Properties, nil
}

// PropertyValue pairs a property with the current value of its field.
type PropertyValue struct {
	*Property
	Value any
}

// Properties returns the properties of v bound to at least one flag of flag,
// with their current values, in field order. Properties named in ignore
// (field or column, case-insensitive) are skipped. Enum values of
// properties bound with UseEnumValue are converted to their ordinal.
func (r *Registry) Properties(v any, flag BindingFlag, ignore ...string) ([]PropertyValue, error) {
	d, err := r.Lookup(v)
	if err != nil {
		return nil, err
	}
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil, fmt.Errorf("schema: nil %s", d.Type)
		}
		rv = rv.Elem()
	}
	var values []PropertyValue
	for _, p := range d.Properties {
		if !p.Binding.Any(flag) || ignored(p, ignore) {
			continue
		}
		values = append(values, PropertyValue{Property: p, Value: p.ValueOf(rv)})
	}
	return values, nil
}

// ValueOf returns the field value of p in the struct value rv. Enum values
// of a property bound with UseEnumValue are returned as their int64 ordinal.
func (p *Property) ValueOf(rv reflect.Value) any {
	fv := rv.FieldByIndex(p.Index)
	if p.Binding.Has(UseEnumValue) && IsEnum(p.Type) {
		switch fv.Kind() {
		case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
			return int64(fv.Uint())
		default:
			return fv.Int()
		}
	}
	return fv.Interface()
}

func ignored(p *Property, ignore []string) bool {
	for _, name := range ignore {
		if strings.EqualFold(name, p.Field) || strings.EqualFold(name, p.Column) {
			return true
		}
	}
	return false
}

// Factory registers fn as the constructor for name, replacing the one
// installed by Register.
func (r *Registry) Factory(name string, fn func() any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[name] = fn
}

// New returns a new instance of the type registered under name.
func (r *Registry) New(name string) (any, error) {
	r.mu.Lock()
	fn, ok := r.factories[name]
	r.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", datamodel.ErrNotRegistered, name)
	}
	return fn(), nil
}

// TableName returns the default table name of a type name: "OrderLine"
// becomes "order_lines".
func TableName(typeName string) string {
	return inflect.Pluralize(inflect.Underscore(typeName))
}

func describe(t reflect.Type, s Schema, opts []FieldOption) (*Descriptor, error) {
	if t.Kind() != reflect.Struct {
		return nil, datamodel.NewDesignError(t, "only struct types can be registered", nil)
	}
	if s.Name == "" {
		s.Name = TableName(t.Name())
	}
	d := &Descriptor{Type: t, Schema: s}
	if err := collect(d, t, nil); err != nil {
		return nil, datamodel.NewDesignError(t, err.Error(), err)
	}
	for _, o := range opts {
		p, ok := d.field(o.field)
		if !ok {
			return nil, datamodel.NewDesignError(t, fmt.Sprintf("unknown field %q", o.field), nil)
		}
		if !p.declared {
			p.declared = true
			p.Binding = BindDefault
		}
		for _, opt := range o.opts {
			opt(p)
		}
	}
	for _, p := range d.Properties {
		if strings.EqualFold(p.Column, "DM_ROW_NUMBER") {
			return nil, datamodel.NewDesignError(t, "column DM_ROW_NUMBER is reserved", datamodel.ErrReservedColumn)
		}
	}
	return d, nil
}

// collect walks the exported fields of t. Embedded structs without a tag are
// flattened; embedded pointers are skipped.
func collect(d *Descriptor, t reflect.Type, index []int) error {
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		tag, hasTag := f.Tag.Lookup(TagName)
		if tag == "-" {
			continue
		}
		path := append(append([]int(nil), index...), i)
		if f.Anonymous && !hasTag {
			if f.Type.Kind() == reflect.Struct {
				if err := collect(d, f.Type, path); err != nil {
					return err
				}
			}
			continue
		}
		if !f.IsExported() {
			continue
		}
		p := &Property{Field: f.Name, Index: path, Type: f.Type, Column: f.Name}
		if hasTag {
			p.declared = true
			p.Binding = BindDefault
			if err := parseTag(p, tag); err != nil {
				return fmt.Errorf("field %s: %w", f.Name, err)
			}
		}
		d.Properties = append(d.Properties, p)
	}
	return nil
}

func (d *Descriptor) field(name string) (*Property, bool) {
	for _, p := range d.Properties {
		if p.Field == name {
			return p, true
		}
	}
	return nil, false
}
