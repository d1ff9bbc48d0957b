// SPDX-FileCopyrightText: Copyright 2025 SAP SE or an SAP affiliate company
//
// SPDX-License-Identifier: Apache-2.0

package sqlbuilder

import (
	"fmt"
	"strings"

	"github.com/sapcc/pgcrud/internal/errors"
)

// Query restricts a select. Nil Limit or Offset leave the clause out.
type Query struct {
	Columns []string
	Where   Data
	Limit   *uint64
	Offset  *uint64
}

// Condition selects the rows an update applies to. See Filter and ByID.
type Condition interface {
	filter(idColumn string) Data
}

// Filter matches rows where all columns equal the given values.
type Filter Data

func (f Filter) filter(string) Data {
	return Data(f)
}

// ByID matches the row whose id column equals Value.
type ByID struct {
	Value any
}

func (b ByID) filter(idColumn string) Data {
	if b.Value == nil {
		return nil
	}
	return Data{{Name: idColumn, Value: b.Value}}
}

func appendNames(params []any, d Data) []any {
	for _, c := range d {
		params = append(params, c.Name)
	}
	return params
}

// Select builds SELECT <columns> FROM <table> [WHERE ...] [LIMIT ...] [OFFSET ...].
// A nil query selects all columns of all rows.
func Select(table string, q *Query) (Statement, error) {
	const op = "select"
	if table == "" {
		return fail(op, table, errors.ErrMissingTable)
	}
	if q == nil {
		q = &Query{}
	}

	params := []any{table}
	columns := "*"
	if len(q.Columns) > 0 {
		columns = strings.Join(NameParams(len(params), len(q.Columns)), ", ")
		for _, c := range q.Columns {
			params = append(params, c)
		}
	}

	var sb strings.Builder
	sb.WriteString("SELECT " + columns + " FROM $1~")

	if len(q.Where) > 0 {
		if err := q.Where.checkNames(); err != nil {
			return fail(op, table, err)
		}
		values, err := prepareValues(q.Where)
		if err != nil {
			return fail(op, table, err)
		}
		sb.WriteString(" WHERE ")
		sb.WriteString(strings.Join(KeyVals(len(params), len(q.Where)), " AND "))
		params = appendNames(params, q.Where)
		params = append(params, values...)
	}

	if q.Limit != nil {
		params = append(params, *q.Limit)
		sb.WriteString(fmt.Sprintf(" LIMIT $%d", len(params)))
	}
	if q.Offset != nil {
		params = append(params, *q.Offset)
		sb.WriteString(fmt.Sprintf(" OFFSET $%d", len(params)))
	}
	sb.WriteString(";")

	return Statement{SQL: sb.String(), Params: params}, nil
}

// Insert builds INSERT INTO <table>(<columns>) VALUES(<values>) RETURNING <idColumn>.
// An empty idColumn means DefaultIDColumn.
func Insert(table, idColumn string, data Data) (Statement, error) {
	const op = "insert"
	if table == "" {
		return fail(op, table, errors.ErrMissingTable)
	}
	if len(data) == 0 {
		return fail(op, table, errors.ErrEmptyData)
	}
	if err := data.checkNames(); err != nil {
		return fail(op, table, err)
	}
	values, err := prepareValues(data)
	if err != nil {
		return fail(op, table, err)
	}

	n := len(data)
	params := make([]any, 0, 2*n+2)
	params = append(params, table)
	names := NameParams(len(params), n)
	params = appendNames(params, data)
	vals := ValParams(len(params), n)
	params = append(params, values...)
	params = append(params, idColumnOrDefault(idColumn))

	sql := fmt.Sprintf("INSERT INTO $1~(%s) VALUES(%s) RETURNING $%d~;",
		strings.Join(names, ", "), strings.Join(vals, ", "), len(params))
	return Statement{SQL: sql, Params: params}, nil
}

// Update builds UPDATE <table> SET <col=val,...> WHERE <col=val AND ...> RETURNING <idColumn>.
//
// With a nil condition the value of the id column is taken out of data and
// becomes the only WHERE condition.
func Update(table, idColumn string, data Data, where Condition) (Statement, error) {
	const op = "update"
	if table == "" {
		return fail(op, table, errors.ErrMissingTable)
	}
	idColumn = idColumnOrDefault(idColumn)
	if err := data.checkNames(); err != nil {
		return fail(op, table, err)
	}

	var filter Data
	if where == nil {
		id, ok := data.Get(idColumn)
		if !ok {
			return fail(op, table, errors.ErrMissingID)
		}
		filter = Data{{Name: idColumn, Value: id}}
		data = data.Without(idColumn)
	} else {
		filter = where.filter(idColumn)
	}
	if len(data) == 0 {
		return fail(op, table, errors.ErrEmptyData)
	}
	if len(filter) == 0 {
		return fail(op, table, errors.ErrMissingWhere)
	}
	if err := filter.checkNames(); err != nil {
		return fail(op, table, err)
	}

	values, err := prepareValues(data)
	if err != nil {
		return fail(op, table, err)
	}
	wvalues, err := prepareValues(filter)
	if err != nil {
		return fail(op, table, err)
	}

	params := make([]any, 0, 2*len(data)+2*len(filter)+2)
	params = append(params, table)
	set := KeyVals(len(params), len(data))
	params = appendNames(params, data)
	params = append(params, values...)
	wheres := KeyVals(len(params), len(filter))
	params = appendNames(params, filter)
	params = append(params, wvalues...)
	params = append(params, idColumn)

	sql := fmt.Sprintf("UPDATE $1~ SET %s WHERE %s RETURNING $%d~;",
		strings.Join(set, ", "), strings.Join(wheres, " AND "), len(params))
	return Statement{SQL: sql, Params: params}, nil
}

// Upsert builds an INSERT that updates all other columns when a row with the
// same id already exists. data must hold a value for the id column.
func Upsert(table, idColumn string, data Data) (Statement, error) {
	const op = "upsert"
	if table == "" {
		return fail(op, table, errors.ErrMissingTable)
	}
	idColumn = idColumnOrDefault(idColumn)
	if err := data.checkNames(); err != nil {
		return fail(op, table, err)
	}

	id, ok := data.Get(idColumn)
	if !ok {
		return fail(op, table, errors.ErrMissingID)
	}
	other := data.Without(idColumn)
	if len(other) == 0 {
		return fail(op, table, errors.ErrEmptyData)
	}
	idValue, err := PrepareValue(id)
	if err != nil {
		return fail(op, table, err)
	}
	values, err := prepareValues(other)
	if err != nil {
		return fail(op, table, err)
	}

	// $2 is the id column, its value follows the other column names
	n := len(other)
	params := make([]any, 0, 2*n+3)
	params = append(params, table, idColumn)
	params = appendNames(params, other)
	params = append(params, idValue)
	params = append(params, values...)

	sql := fmt.Sprintf("INSERT INTO $1~(%s) VALUES(%s) ON CONFLICT($2~) DO UPDATE SET %s RETURNING $2~;",
		strings.Join(NameParams(1, n+1), ", "),
		strings.Join(ValParams(n+2, n+1), ", "),
		strings.Join(Excludeds(2, n), ", "))
	return Statement{SQL: sql, Params: params}, nil
}

// Delete builds DELETE FROM <table> [WHERE ...].
//
// Called without a filter it deletes every row of the table. A filter that is
// passed but empty is rejected with ErrMissingWhere, it most likely means the
// caller lost its conditions on the way.
func Delete(table string, filter ...Data) (Statement, error) {
	const op = "delete"
	if table == "" {
		return fail(op, table, errors.ErrMissingTable)
	}
	switch len(filter) {
	case 0:
		return Statement{SQL: "DELETE FROM $1~;", Params: []any{table}}, nil
	case 1:
	default:
		return fail(op, table, fmt.Errorf("%w: more than one filter", errors.ErrInvalidArguments))
	}

	where := filter[0]
	if len(where) == 0 {
		return fail(op, table, errors.ErrMissingWhere)
	}
	if err := where.checkNames(); err != nil {
		return fail(op, table, err)
	}
	values, err := prepareValues(where)
	if err != nil {
		return fail(op, table, err)
	}

	params := make([]any, 0, 2*len(where)+1)
	params = append(params, table)
	wheres := KeyVals(len(params), len(where))
	params = appendNames(params, where)
	params = append(params, values...)

	sql := fmt.Sprintf("DELETE FROM $1~ WHERE %s;", strings.Join(wheres, " AND "))
	return Statement{SQL: sql, Params: params}, nil
}

// Truncate empties the table and restarts its identity sequences.
func Truncate(table string) (Statement, error) {
	if table == "" {
		return fail("truncate", table, errors.ErrMissingTable)
	}
	return Statement{SQL: "TRUNCATE TABLE $1~ RESTART IDENTITY;", Params: []any{table}}, nil
}
