// SPDX-FileCopyrightText: Copyright 2025 SAP SE or an SAP affiliate company
//
// SPDX-License-Identifier: Apache-2.0

package db

import (
	"strings"
	"testing"

	sq "github.com/Masterminds/squirrel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sapcc/pgcrud/internal/errors"
	"github.com/sapcc/pgcrud/internal/sqlbuilder"
)

func newCompiler(t *testing.T) *Compiler {
	t.Helper()
	c, err := NewCompiler(16)
	require.NoError(t, err)
	return c
}

func TestCompileInsert(t *testing.T) {
	stmt, err := sqlbuilder.Insert("my_table", "", sqlbuilder.Row("name", "johan", "age", 43))
	require.NoError(t, err)

	sql, args, err := newCompiler(t).Compile(stmt)
	require.NoError(t, err)
	assert.Equal(t, `INSERT INTO "my_table"("name", "age") VALUES($1, $2) RETURNING "id";`, sql)
	assert.Equal(t, []any{"johan", 43}, args)
}

func TestCompileUpsert(t *testing.T) {
	stmt, err := sqlbuilder.Upsert("table", "", sqlbuilder.Row("id", "7", "name", "a", "age", 1))
	require.NoError(t, err)

	sql, args, err := newCompiler(t).Compile(stmt)
	require.NoError(t, err)
	assert.Equal(t, `INSERT INTO "table"("id", "name", "age") VALUES($1, $2, $3) `+
		`ON CONFLICT("id") DO UPDATE SET "name"=EXCLUDED."name", "age"=EXCLUDED."age" RETURNING "id";`, sql)
	assert.Equal(t, []any{"7", "a", 1}, args)
}

func TestCompileOrdinals(t *testing.T) {
	c := newCompiler(t)

	sql, args, err := c.Compile(sqlbuilder.Statement{
		SQL:    "SELECT $2 FROM $1~ WHERE $3~=$2 OR $3~=$4;",
		Params: []any{"t", 5, "c", 6},
	})
	require.NoError(t, err)
	assert.Equal(t, `SELECT $1 FROM "t" WHERE "c"=$1 OR "c"=$2;`, sql)
	assert.Equal(t, []any{5, 6}, args)

	sql, args, err = c.Compile(sqlbuilder.Statement{SQL: `SELECT 1 FROM $1~;`, Params: []any{`we"ird`}})
	require.NoError(t, err)
	assert.Equal(t, `SELECT 1 FROM "we""ird";`, sql)
	assert.Empty(t, args)
}

func TestCompileErrors(t *testing.T) {
	c := newCompiler(t)

	_, _, err := c.Compile(sqlbuilder.Statement{SQL: "SELECT $3;", Params: []any{1, 2}})
	assert.ErrorIs(t, err, errors.ErrParamOutOfRange)

	_, _, err = c.Compile(sqlbuilder.Statement{SQL: "SELECT $0;", Params: []any{1}})
	assert.ErrorIs(t, err, errors.ErrParamOutOfRange)

	_, _, err = c.Compile(sqlbuilder.Statement{SQL: "SELECT 1 FROM $1~;", Params: []any{42}})
	assert.ErrorIs(t, err, errors.ErrInvalidIdentifier)
}

func TestCompileCache(t *testing.T) {
	c := newCompiler(t)
	for _, name := range []string{"a", "b", "c"} {
		stmt, err := sqlbuilder.Insert("t", "", sqlbuilder.Row(name, 1))
		require.NoError(t, err)
		_, _, err = c.Compile(stmt)
		require.NoError(t, err)
	}
	assert.Equal(t, 1, c.cache.Len())

	_, err := NewCompiler(0)
	assert.Error(t, err)
}

// normalize drops the formatting differences between squirrel and sqlbuilder.
func normalize(sql string) string {
	return strings.TrimSuffix(strings.ReplaceAll(sql, " ", ""), ";")
}

func TestCompileMatchesSquirrel(t *testing.T) {
	c := newCompiler(t)
	two, one := uint64(2), uint64(1)

	tests := []struct {
		name  string
		build func() (sqlbuilder.Statement, error)
		want  sq.Sqlizer
	}{
		{
			"select",
			func() (sqlbuilder.Statement, error) {
				return sqlbuilder.Select("table", &sqlbuilder.Query{
					Columns: []string{"id", "name"},
					Where:   sqlbuilder.Row("active", true, "age", 20),
					Limit:   &two,
					Offset:  &one,
				})
			},
			sq.Select(`"id"`, `"name"`).From(`"table"`).
				Where(sq.Eq{`"active"`: true}).
				Where(sq.Eq{`"age"`: 20}).
				Suffix("LIMIT ? OFFSET ?", two, one).
				PlaceholderFormat(sq.Dollar),
		},
		{
			"insert",
			func() (sqlbuilder.Statement, error) {
				return sqlbuilder.Insert("table", "", sqlbuilder.Row("name", "johan", "age", 43))
			},
			sq.Insert(`"table"`).Columns(`"name"`, `"age"`).Values("johan", 43).
				Suffix(`RETURNING "id"`).
				PlaceholderFormat(sq.Dollar),
		},
		{
			"update",
			func() (sqlbuilder.Statement, error) {
				return sqlbuilder.Update("table", "", sqlbuilder.Row("id", "1", "name", "alex", "age", 44), nil)
			},
			sq.Update(`"table"`).Set(`"name"`, "alex").Set(`"age"`, 44).
				Where(sq.Eq{`"id"`: "1"}).
				Suffix(`RETURNING "id"`).
				PlaceholderFormat(sq.Dollar),
		},
		{
			"upsert",
			func() (sqlbuilder.Statement, error) {
				return sqlbuilder.Upsert("table", "", sqlbuilder.Row("id", "1", "name", "alex"))
			},
			sq.Insert(`"table"`).Columns(`"id"`, `"name"`).Values("1", "alex").
				Suffix(`ON CONFLICT("id") DO UPDATE SET "name"=EXCLUDED."name" RETURNING "id"`).
				PlaceholderFormat(sq.Dollar),
		},
		{
			"delete",
			func() (sqlbuilder.Statement, error) {
				return sqlbuilder.Delete("table", sqlbuilder.Row("age", 20, "active", true))
			},
			sq.Delete(`"table"`).
				Where(sq.Eq{`"age"`: 20}).
				Where(sq.Eq{`"active"`: true}).
				PlaceholderFormat(sq.Dollar),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stmt, err := tt.build()
			require.NoError(t, err)
			sql, args, err := c.Compile(stmt)
			require.NoError(t, err)

			wantSQL, wantArgs, err := tt.want.ToSql()
			require.NoError(t, err)
			assert.Equal(t, normalize(wantSQL), normalize(sql))
			assert.Equal(t, wantArgs, args)
		})
	}
}
