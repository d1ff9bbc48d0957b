// SPDX-FileCopyrightText: Copyright 2025 SAP SE or an SAP affiliate company
//
// SPDX-License-Identifier: Apache-2.0

// Package sqlbuilder builds parameterized PostgreSQL CRUD statements.
//
// A Statement carries a template with two kinds of positional placeholders and
// the parameters they refer to:
//
//	$n   value placeholder, bound to Params[n-1] as data
//	$n~  identifier placeholder, Params[n-1] is quoted as a table or column name
//
// Table names, column names and values never appear in the template itself,
// they only travel through Params. The executor in package db resolves both
// placeholder kinds before handing the query to pgx.
package sqlbuilder

import (
	"fmt"
)

// DefaultIDColumn is the id column used when none is given.
const DefaultIDColumn = "id"

// Statement is a SQL template and its ordered parameters.
type Statement struct {
	SQL    string
	Params []any
}

// String renders the statement with literal values, see Deparameterise.
func (s Statement) String() string {
	return Deparameterise(s)
}

// Error is returned for statements that cannot be built.
type Error struct {
	Op    string
	Table string
	Err   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s %q: %s", e.Op, e.Table, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func fail(op, table string, err error) (Statement, error) {
	return Statement{}, &Error{Op: op, Table: table, Err: err}
}

func idColumnOrDefault(idColumn string) string {
	if idColumn == "" {
		return DefaultIDColumn
	}
	return idColumn
}
