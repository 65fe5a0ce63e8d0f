package sql

import (
	"reflect"
	"strings"
)

// Predicate adds one condition to a WhereSet.
type Predicate func(*WhereSet)

// Match applies the predicates to w.
func (w *WhereSet) Match(ps ...Predicate) *WhereSet {
	for _, p := range ps {
		p(w)
	}
	return w
}

// Match returns a WhereSet holding the predicates.
func Match(ps ...Predicate) *WhereSet {
	return Where().Match(ps...)
}

// Column is a typed column name. Values are rendered as T, so an enum
// column renders its name and a time column its sentinel-aware literal.
//
// Usage:
//
//	var (
//		Name    = sql.Column[string]("Name")
//		Created = sql.Column[time.Time]("Created")
//	)
//	w := sql.Match(Name.EQ("ann"), Created.GTE(since))
type Column[T any] string

// Name returns the column name.
func (c Column[T]) Name() string { return string(c) }

func (c Column[T]) op(op string, v T) Predicate {
	return func(w *WhereSet) {
		w.AppendTyped(string(c), v, reflect.TypeFor[T](), op)
	}
}

// EQ returns a predicate that checks if the column equals v.
func (c Column[T]) EQ(v T) Predicate { return c.op("=", v) }

// NEQ returns a predicate that checks if the column does not equal v.
func (c Column[T]) NEQ(v T) Predicate { return c.op("<>", v) }

// GT returns a predicate that checks if the column is greater than v.
func (c Column[T]) GT(v T) Predicate { return c.op(">", v) }

// GTE returns a predicate that checks if the column is greater than or equal to v.
func (c Column[T]) GTE(v T) Predicate { return c.op(">=", v) }

// LT returns a predicate that checks if the column is less than v.
func (c Column[T]) LT(v T) Predicate { return c.op("<", v) }

// LTE returns a predicate that checks if the column is less than or equal to v.
func (c Column[T]) LTE(v T) Predicate { return c.op("<=", v) }

// Between returns a predicate that checks if the column is within [lo, hi].
func (c Column[T]) Between(lo, hi T) Predicate {
	return func(w *WhereSet) {
		w.Match(c.GTE(lo), c.LTE(hi))
	}
}

// In returns a predicate that checks if the column equals one of vs. An
// empty list matches nothing.
func (c Column[T]) In(vs ...T) Predicate { return c.list("IN", "1=0", vs) }

// NotIn returns a predicate that checks if the column equals none of vs.
// An empty list matches everything.
func (c Column[T]) NotIn(vs ...T) Predicate { return c.list("NOT IN", "1=1", vs) }

func (c Column[T]) list(op, empty string, vs []T) Predicate {
	return func(w *WhereSet) {
		if w.reserved(string(c)) {
			return
		}
		if len(vs) == 0 {
			w.AppendRaw(empty)
			return
		}
		typ := reflect.TypeFor[T]()
		lits := make([]string, len(vs))
		for i, v := range vs {
			lit, err := Literal(v, typ)
			if err != nil {
				w.fail(err)
				return
			}
			lits[i] = lit
		}
		w.addRaw(QuoteIdent(string(c)) + " " + op + " (" + strings.Join(lits, ", ") + ")")
	}
}

// IsNull returns a predicate that checks if the column is NULL.
func (c Column[T]) IsNull() Predicate { return column(string(c), "IS NULL") }

// NotNull returns a predicate that checks if the column is not NULL.
func (c Column[T]) NotNull() Predicate { return column(string(c), "IS NOT NULL") }

// column returns a predicate of the quoted name followed by rest.
func column(name, rest string) Predicate {
	return func(w *WhereSet) {
		if !w.reserved(name) {
			w.addRaw(QuoteIdent(name) + " " + rest)
		}
	}
}

// TextColumn is a string column with pattern predicates. Patterns are
// escaped, so the argument matches literally.
type TextColumn string

// Column returns c as a Column[string].
func (c TextColumn) Column() Column[string] { return Column[string](c) }

// EQ returns a predicate that checks if the column equals v.
func (c TextColumn) EQ(v string) Predicate { return c.Column().EQ(v) }

// Contains returns a predicate that checks if the column contains v.
func (c TextColumn) Contains(v string) Predicate { return c.like("%" + escapeLike(v) + "%") }

// HasPrefix returns a predicate that checks if the column starts with v.
func (c TextColumn) HasPrefix(v string) Predicate { return c.like(escapeLike(v) + "%") }

// HasSuffix returns a predicate that checks if the column ends with v.
func (c TextColumn) HasSuffix(v string) Predicate { return c.like("%" + escapeLike(v)) }

// EqualFold returns a predicate that checks if the column equals v,
// ignoring case.
func (c TextColumn) EqualFold(v string) Predicate {
	return func(w *WhereSet) {
		if !w.reserved(string(c)) {
			w.addRaw("LOWER(" + QuoteIdent(string(c)) + ") = " + Quote(strings.ToLower(v)))
		}
	}
}

func (c TextColumn) like(pattern string) Predicate {
	return column(string(c), "LIKE "+Quote(pattern)+` ESCAPE '\'`)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`, `[`, `\[`)

func escapeLike(s string) string { return likeEscaper.Replace(s) }
