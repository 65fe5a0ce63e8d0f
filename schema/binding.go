package schema

import (
	"fmt"
	"strings"
)

// BindingFlag selects the statements a property takes part in.
type BindingFlag uint8

// Binding flags.
const (
	BindNone   BindingFlag = 0
	BindInsert BindingFlag = 1 << (iota - 1)
	BindUpdate
	BindWhere
	BindSelect
	// UseEnumValue stores enum properties by ordinal instead of by name.
	UseEnumValue

	// BindAll is every flag, UseEnumValue included.
	BindAll = BindInsert | BindUpdate | BindWhere | BindSelect | UseEnumValue
	// BindDefault is the binding of a declared property without an explicit
	// bind= entry.
	BindDefault = BindInsert | BindUpdate | BindWhere | BindSelect
)

var bindingNames = []struct {
	flag BindingFlag
	name string
}{
	{BindInsert, "insert"},
	{BindUpdate, "update"},
	{BindWhere, "where"},
	{BindSelect, "select"},
	{UseEnumValue, "enumvalue"},
}

// Any reports whether b shares at least one flag with flag.
func (b BindingFlag) Any(flag BindingFlag) bool {
	return b&flag != 0
}

// Has reports whether every flag of flag is set in b.
func (b BindingFlag) Has(flag BindingFlag) bool {
	return b&flag == flag
}

func (b BindingFlag) String() string {
	switch b {
	case BindNone:
		return "none"
	case BindAll:
		return "all"
	}
	var parts []string
	for _, n := range bindingNames {
		if b.Has(n.flag) {
			parts = append(parts, n.name)
		}
	}
	return strings.Join(parts, "|")
}

// ParseBinding parses a "|" separated list of flag names such as
// "insert|select". The names "all" and "none" are accepted as well.
func ParseBinding(s string) (BindingFlag, error) {
	var b BindingFlag
	for _, part := range strings.Split(s, "|") {
		part = strings.ToLower(strings.TrimSpace(part))
		switch part {
		case "", "none":
			continue
		case "all":
			b |= BindAll
			continue
		case "enum":
			b |= UseEnumValue
			continue
		}
		found := false
		for _, n := range bindingNames {
			if n.name == part {
				b |= n.flag
				found = true
				break
			}
		}
		if !found {
			return 0, fmt.Errorf("schema: unknown binding %q", part)
		}
	}
	return b, nil
}
