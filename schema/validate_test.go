package schema_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/datamodel/schema"
)

func TestValidate(t *testing.T) {
	t.Parallel()

	t.Run("Clean", func(t *testing.T) {
		t.Parallel()
		res := newRegistry(t).Validate()
		assert.False(t, res.HasErrors())
		assert.False(t, res.HasWarnings())
		assert.Equal(t, "No issues found", res.String())
	})

	t.Run("Findings", func(t *testing.T) {
		t.Parallel()
		type messy struct {
			ID      int    `db:"Id,identity"`
			Seq     int    `db:"Seq,identity,bind=select"`
			Name    string `db:"Name"`
			Alias   string `db:"name"`
			Version []byte `db:"Version,type=timestamp"`
			Count   int    `db:"Count,bind=insert|enumvalue"`
		}
		reg := schema.NewRegistry()
		require.NoError(t, schema.Register[messy](reg, schema.Schema{},
			schema.Field("Count", schema.Length(-1)),
		))
		res := reg.Validate()
		require.True(t, res.HasErrors())

		var errs, warns []string
		for _, e := range res.Errors {
			errs = append(errs, e.Error())
		}
		for _, w := range res.Warnings {
			warns = append(warns, w.Error())
		}
		assert.ElementsMatch(t, []string{
			"schema_test.messy.name: duplicate column name",
			"schema_test.messy.Count: negative length or scale",
			"schema_test.messy: 2 identity columns",
		}, errs)
		assert.ElementsMatch(t, []string{
			"schema_test.messy: type has no primary key",
			"schema_test.messy.Id: identity column is bound to insert|update",
			"schema_test.messy.Version: timestamp column is never written",
			"schema_test.messy.Count: enumvalue binding on non-enum type int",
		}, warns)
		assert.Contains(t, res.String(), "Errors:\n  - ")
		assert.Contains(t, res.String(), "Warnings:\n  - ")
	})

	t.Run("SharedTable", func(t *testing.T) {
		t.Parallel()
		type first struct {
			ID int `db:"Id,pk"`
		}
		type second struct {
			ID int `db:"Id,pk"`
		}
		type summary struct {
			ID int `db:"Id,pk,bind=insert"`
		}
		reg := schema.NewRegistry()
		s := schema.Schema{DataSource: "main", Name: "Things"}
		require.NoError(t, schema.Register[first](reg, s))
		require.NoError(t, schema.Register[second](reg, s))
		require.NoError(t, schema.Register[summary](reg, schema.Schema{DataSource: "main", Name: "Things", IsView: true}))

		res := reg.Validate()
		assert.False(t, res.HasErrors())
		require.Len(t, res.Warnings, 2)
		assert.Equal(t, "schema_test.second: table [Things] is shared with schema_test.first", res.Warnings[0].Error())
		assert.Equal(t, "schema_test.summary.Id: view column is bound to insert", res.Warnings[1].Error())
	})
}
