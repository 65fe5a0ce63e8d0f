package schema

import (
	"fmt"
	"sort"
	"strings"
)

// ValidationError represents a schema validation finding.
type ValidationError struct {
	Type    string
	Column  string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Column != "" {
		return fmt.Sprintf("%s.%s: %s", e.Type, e.Column, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// ValidationResult holds the results of schema validation.
type ValidationResult struct {
	Errors   []*ValidationError
	Warnings []*ValidationError
}

// HasErrors returns true if there are any validation errors.
func (r *ValidationResult) HasErrors() bool {
	return len(r.Errors) > 0
}

// HasWarnings returns true if there are any validation warnings.
func (r *ValidationResult) HasWarnings() bool {
	return len(r.Warnings) > 0
}

// String returns a human-readable summary of the validation result.
func (r *ValidationResult) String() string {
	var sb strings.Builder
	write := func(title string, list []*ValidationError) {
		if len(list) == 0 {
			return
		}
		sb.WriteString(title)
		sb.WriteString(":\n")
		for _, e := range list {
			sb.WriteString("  - ")
			sb.WriteString(e.Error())
			sb.WriteString("\n")
		}
	}
	write("Errors", r.Errors)
	write("Warnings", r.Warnings)
	if !r.HasErrors() && !r.HasWarnings() {
		sb.WriteString("No issues found")
	}
	return sb.String()
}

func (r *ValidationResult) merge(o *ValidationResult) {
	r.Errors = append(r.Errors, o.Errors...)
	r.Warnings = append(r.Warnings, o.Warnings...)
}

// Validate checks every registered type, in type name order, and reports
// types sharing a table of the same data source.
//
// Example:
//
//	if res := reg.Validate(); res.HasErrors() {
//	    log.Fatal(res)
//	}
func (r *Registry) Validate() *ValidationResult {
	r.mu.Lock()
	descs := make([]*Descriptor, 0, len(r.types))
	for _, d := range r.types {
		descs = append(descs, d)
	}
	r.mu.Unlock()
	sort.Slice(descs, func(i, j int) bool {
		return descs[i].Type.String() < descs[j].Type.String()
	})

	result := &ValidationResult{}
	tables := make(map[string]string, len(descs))
	for _, d := range descs {
		result.merge(ValidateDescriptor(d))
		key := strings.ToLower(d.Schema.DataSource + "/" + d.Table())
		if other, ok := tables[key]; ok && !d.Schema.IsView {
			result.Warnings = append(result.Warnings, &ValidationError{
				Type:    d.Type.String(),
				Message: fmt.Sprintf("table %s is shared with %s", d.Table(), other),
			})
			continue
		}
		tables[key] = d.Type.String()
	}
	return result
}

// ValidateDescriptor validates a single type descriptor. Registration
// already rejects malformed tags and reserved columns; this reports mapping
// choices that make some operations fail at run time.
func ValidateDescriptor(d *Descriptor) *ValidationResult {
	result := &ValidationResult{}
	name := d.Type.String()
	finding := func(p *Property, format string, args ...any) *ValidationError {
		e := &ValidationError{Type: name, Message: fmt.Sprintf(format, args...)}
		if p != nil {
			e.Column = p.Column
		}
		return e
	}

	if len(d.PrimaryKeys()) == 0 {
		result.Warnings = append(result.Warnings, finding(nil, "type has no primary key"))
	}

	columns := make(map[string]bool, len(d.Properties))
	identities := 0
	for _, p := range d.Properties {
		col := strings.ToLower(p.Column)
		if p.Binding != BindNone {
			if columns[col] {
				result.Errors = append(result.Errors, finding(p, "duplicate column name"))
			}
			columns[col] = true
		}
		if p.Identity {
			identities++
			if p.Binding.Any(BindInsert | BindUpdate) {
				result.Warnings = append(result.Warnings, finding(p, "identity column is bound to %s", p.Binding&(BindInsert|BindUpdate)))
			}
		}
		if p.Omitted() && p.Binding.Any(BindInsert|BindUpdate) {
			result.Warnings = append(result.Warnings, finding(p, "%s column is never written", p.NativeType))
		}
		if p.Binding.Has(UseEnumValue) && !p.IsEnum() {
			result.Warnings = append(result.Warnings, finding(p, "enumvalue binding on non-enum type %s", p.Type))
		}
		if p.Length < 0 || p.Scale < 0 {
			result.Errors = append(result.Errors, finding(p, "negative length or scale"))
		}
		if d.Schema.IsView && p.Binding.Any(BindInsert|BindUpdate) {
			result.Warnings = append(result.Warnings, finding(p, "view column is bound to %s", p.Binding&(BindInsert|BindUpdate)))
		}
	}
	if identities > 1 {
		result.Errors = append(result.Errors, finding(nil, "%d identity columns", identities))
	}
	return result
}
