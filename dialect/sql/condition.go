package sql

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/syssam/datamodel"
)

// RowNumberColumn is the synthetic column added by windowed pagination.
// It is reserved and can never be used as a user column.
const RowNumberColumn = "DM_ROW_NUMBER"

// Condition is one (name, value, type, operator) entry of a condition set.
type Condition struct {
	Name  string
	Value any
	Type  reflect.Type
	Op    string
}

// SortOrder is the collation direction of an order term.
type SortOrder int

// Sort orders.
const (
	Ascending SortOrder = iota
	Descending
	Unspecified
)

// String returns the SQL keyword of the order.
func (o SortOrder) String() string {
	switch o {
	case Ascending:
		return "ASC"
	case Descending:
		return "DESC"
	default:
		return ""
	}
}

// conditions holds the state shared by all condition sets.
// A set is not safe for concurrent use.
type conditions struct {
	list []Condition
	raw  []string
	err  error
}

// reserved records a fault and reports true if name is RowNumberColumn.
func (c *conditions) reserved(name string) bool {
	if !strings.EqualFold(strings.TrimSpace(name), RowNumberColumn) {
		return false
	}
	c.fail(fmt.Errorf("%w: %s", datamodel.ErrReservedColumn, RowNumberColumn))
	return true
}

func (c *conditions) fail(err error) {
	if c.err == nil {
		c.err = err
	}
}

func (c *conditions) add(name string, value any, typ reflect.Type, op string) {
	if c.reserved(name) {
		return
	}
	if typ == nil && value != nil {
		typ = reflect.TypeOf(value)
	}
	c.list = append(c.list, Condition{Name: name, Value: value, Type: typ, Op: op})
}

func (c *conditions) addRaw(s string) {
	if strings.TrimSpace(s) != "" {
		c.raw = append(c.raw, strings.TrimSpace(s))
	}
}

// Conditions returns a copy of the recorded conditions.
func (c *conditions) Conditions() []Condition {
	return append([]Condition(nil), c.list...)
}

// Len returns the number of conditions and raw fragments.
func (c *conditions) Len() int {
	return len(c.list) + len(c.raw)
}

// Err returns the first design fault recorded while appending, such as the
// use of the reserved RowNumberColumn.
func (c *conditions) Err() error {
	return c.err
}

// Clear removes all conditions, raw fragments and recorded faults.
func (c *conditions) Clear() {
	c.list, c.raw, c.err = nil, nil, nil
}

// render runs fn and degrades every failure, panics included, to "".
func render(fn func() (string, error)) (s string) {
	defer func() {
		if recover() != nil {
			s = ""
		}
	}()
	s, err := fn()
	if err != nil {
		return ""
	}
	return s
}

// WhereSet builds the predicate of a WHERE clause. Predicates are joined
// with AND; an empty set renders the always-true predicate 1=1.
type WhereSet struct{ conditions }

// Where returns an empty WhereSet.
func Where() *WhereSet { return &WhereSet{} }

// Append adds name = value.
func (w *WhereSet) Append(name string, value any) *WhereSet {
	w.add(name, value, nil, "=")
	return w
}

// AppendOp adds name <op> value, e.g. AppendOp("age", ">=", 18).
func (w *WhereSet) AppendOp(name, op string, value any) *WhereSet {
	w.add(name, value, nil, op)
	return w
}

// AppendTyped adds name <op> value rendered as typ.
func (w *WhereSet) AppendTyped(name string, value any, typ reflect.Type, op string) *WhereSet {
	w.add(name, value, typ, op)
	return w
}

// AppendRaw adds a free-text predicate. Blank fragments are ignored.
func (w *WhereSet) AppendRaw(fragment string) *WhereSet {
	w.addRaw(fragment)
	return w
}

// AppendRawf adds a formatted free-text predicate.
func (w *WhereSet) AppendRawf(format string, args ...any) *WhereSet {
	w.addRaw(fmt.Sprintf(format, args...))
	return w
}

// Render returns the predicate text, "1=1" for an empty set, or "" if a
// value could not be rendered.
func (w *WhereSet) Render() string {
	if w == nil {
		return "1=1"
	}
	return render(func() (string, error) {
		parts := make([]string, 0, w.Len())
		for _, c := range w.list {
			if IsNull(c.Value) {
				parts = append(parts, QuoteIdent(c.Name)+" IS NULL")
				continue
			}
			lit, err := Literal(c.Value, c.Type)
			if err != nil {
				return "", err
			}
			parts = append(parts, QuoteIdent(c.Name)+" "+c.Op+" "+lit)
		}
		parts = append(parts, w.raw...)
		if len(parts) == 0 {
			return "1=1", nil
		}
		return strings.Join(parts, " AND "), nil
	})
}

// InsertSet builds the column and value lists of an INSERT statement.
type InsertSet struct{ conditions }

// Insert returns an empty InsertSet.
func Insert() *InsertSet { return &InsertSet{} }

// Append adds a column and its value.
func (s *InsertSet) Append(name string, value any) *InsertSet {
	s.add(name, value, nil, "=")
	return s
}

// AppendTyped adds a column and its value rendered as typ.
func (s *InsertSet) AppendTyped(name string, value any, typ reflect.Type) *InsertSet {
	s.add(name, value, typ, "=")
	return s
}

// Render returns "([a],[b]) VALUES (x,y)", or "" when the set is empty or a
// value could not be rendered.
func (s *InsertSet) Render() string {
	if s == nil {
		return ""
	}
	return render(func() (string, error) {
		if len(s.list) == 0 {
			return "", nil
		}
		cols := make([]string, len(s.list))
		vals := make([]string, len(s.list))
		for i, c := range s.list {
			lit, err := Literal(c.Value, c.Type)
			if err != nil {
				return "", err
			}
			cols[i] = bracket(strings.TrimSpace(c.Name))
			vals[i] = lit
		}
		return "(" + strings.Join(cols, ",") + ") VALUES (" + strings.Join(vals, ",") + ")", nil
	})
}

// UpdateSet builds the assignment list of an UPDATE statement.
type UpdateSet struct{ conditions }

// Update returns an empty UpdateSet.
func Update() *UpdateSet { return &UpdateSet{} }

// Append adds name = value.
func (s *UpdateSet) Append(name string, value any) *UpdateSet {
	s.add(name, value, nil, "=")
	return s
}

// AppendTyped adds name = value rendered as typ.
func (s *UpdateSet) AppendTyped(name string, value any, typ reflect.Type) *UpdateSet {
	s.add(name, value, typ, "=")
	return s
}

// AppendRaw adds a free-text assignment such as "[hits] = [hits] + 1".
func (s *UpdateSet) AppendRaw(fragment string) *UpdateSet {
	s.addRaw(fragment)
	return s
}

// AppendRawf adds a formatted free-text assignment.
func (s *UpdateSet) AppendRawf(format string, args ...any) *UpdateSet {
	s.addRaw(fmt.Sprintf(format, args...))
	return s
}

// Render returns "[a] = x, [b] = y", or "" when the set is empty or a value
// could not be rendered.
func (s *UpdateSet) Render() string {
	if s == nil {
		return ""
	}
	return render(func() (string, error) {
		parts := make([]string, 0, s.Len())
		for _, c := range s.list {
			lit, err := Literal(c.Value, c.Type)
			if err != nil {
				return "", err
			}
			parts = append(parts, QuoteIdent(c.Name)+" = "+lit)
		}
		parts = append(parts, s.raw...)
		return strings.Join(parts, ", "), nil
	})
}

// NoOrder is the stable no-op ordering expression.
const NoOrder = "(SELECT 0)"

// OrderSet builds the term list of an ORDER BY clause.
type OrderSet struct{ conditions }

// Order returns an empty OrderSet.
func Order() *OrderSet { return &OrderSet{} }

// Append adds an order term.
func (s *OrderSet) Append(name string, order SortOrder) *OrderSet {
	s.add(name, nil, nil, order.String())
	return s
}

// Asc adds an ascending term.
func (s *OrderSet) Asc(name string) *OrderSet { return s.Append(name, Ascending) }

// Desc adds a descending term.
func (s *OrderSet) Desc(name string) *OrderSet { return s.Append(name, Descending) }

// Empty reports whether no term was added.
func (s *OrderSet) Empty() bool { return s == nil || s.Len() == 0 }

// Render returns the order terms, or NoOrder for an empty set.
func (s *OrderSet) Render() string {
	if s.Empty() {
		return NoOrder
	}
	parts := make([]string, len(s.list))
	for i, c := range s.list {
		parts[i] = strings.TrimSpace(QuoteIdent(c.Name) + " " + c.Op)
	}
	return strings.Join(parts, ", ")
}
