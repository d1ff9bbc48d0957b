// SPDX-FileCopyrightText: Copyright 2025 SAP SE or an SAP affiliate company
//
// SPDX-License-Identifier: Apache-2.0

package sqlbuilder

import (
	"fmt"

	"github.com/sapcc/pgcrud/internal/errors"
)

// Builder is implemented by the argument sets of all statements.
type Builder interface {
	Build() (Statement, error)
}

type SelectArgs struct {
	Table string
	Query *Query
}

func (a SelectArgs) Build() (Statement, error) {
	return Select(a.Table, a.Query)
}

type InsertArgs struct {
	Table    string
	IDColumn string
	Data     Data
}

func (a InsertArgs) Build() (Statement, error) {
	return Insert(a.Table, a.IDColumn, a.Data)
}

type UpdateArgs struct {
	Table    string
	IDColumn string
	Data     Data
	// Where is nil to match the id column value taken from Data.
	Where Condition
}

func (a UpdateArgs) Build() (Statement, error) {
	return Update(a.Table, a.IDColumn, a.Data, a.Where)
}

type UpsertArgs struct {
	Table    string
	IDColumn string
	Data     Data
}

func (a UpsertArgs) Build() (Statement, error) {
	return Upsert(a.Table, a.IDColumn, a.Data)
}

// DeleteArgs deletes the rows matching Where. Deleting all rows of a table
// requires Unfiltered and an empty Where, a zero DeleteArgs fails with
// ErrMissingWhere.
type DeleteArgs struct {
	Table      string
	Where      Data
	Unfiltered bool
}

func (a DeleteArgs) Build() (Statement, error) {
	if a.Unfiltered {
		if len(a.Where) > 0 {
			return fail("delete", a.Table, fmt.Errorf("%w: unfiltered delete with filter", errors.ErrInvalidArguments))
		}
		return Delete(a.Table)
	}
	return Delete(a.Table, a.Where)
}

type TruncateArgs struct {
	Table string
}

func (a TruncateArgs) Build() (Statement, error) {
	return Truncate(a.Table)
}

// The Resolve functions accept the positional call shapes
//
//	table, data
//	table, idColumn, data
//
// (plus a trailing where for updates) and turn them into argument sets. A
// string in second position is always an id column, data must be Data, Filter
// or map[string]any.

// ResolveInsert resolves table, [idColumn], data.
func ResolveInsert(args ...any) (InsertArgs, error) {
	table, idColumn, data, rest, err := resolveWrite("insert", args)
	if err != nil {
		return InsertArgs{}, err
	}
	if len(rest) > 0 {
		return InsertArgs{}, invalid("insert", table, "%d unexpected arguments", len(rest))
	}
	return InsertArgs{Table: table, IDColumn: idColumn, Data: data}, nil
}

// ResolveUpsert resolves table, [idColumn], data.
func ResolveUpsert(args ...any) (UpsertArgs, error) {
	table, idColumn, data, rest, err := resolveWrite("upsert", args)
	if err != nil {
		return UpsertArgs{}, err
	}
	if len(rest) > 0 {
		return UpsertArgs{}, invalid("upsert", table, "%d unexpected arguments", len(rest))
	}
	return UpsertArgs{Table: table, IDColumn: idColumn, Data: data}, nil
}

// ResolveUpdate resolves table, [idColumn], data, [where]. A where that is a
// column map becomes a Filter, nil is no condition and any other value is an
// id (ByID).
func ResolveUpdate(args ...any) (UpdateArgs, error) {
	table, idColumn, data, rest, err := resolveWrite("update", args)
	if err != nil {
		return UpdateArgs{}, err
	}
	a := UpdateArgs{Table: table, IDColumn: idColumn, Data: data}
	switch len(rest) {
	case 0:
	case 1:
		if rest[0] == nil {
			break
		}
		if filter, ok := toData(rest[0]); ok {
			a.Where = Filter(filter)
		} else {
			a.Where = ByID{Value: rest[0]}
		}
	default:
		return UpdateArgs{}, invalid("update", table, "%d unexpected arguments", len(rest)-1)
	}
	return a, nil
}

// ResolveDelete resolves table, [filter]. Leaving out the filter deletes all
// rows, passing a nil or empty filter does not.
func ResolveDelete(args ...any) (DeleteArgs, error) {
	if len(args) == 0 {
		return DeleteArgs{}, invalid("delete", "", "missing table")
	}
	table, ok := args[0].(string)
	if !ok {
		return DeleteArgs{}, invalid("delete", "", "table %v is not a string", args[0])
	}
	switch len(args) {
	case 1:
		return DeleteArgs{Table: table, Unfiltered: true}, nil
	case 2:
		if args[1] == nil {
			return DeleteArgs{Table: table}, nil
		}
		filter, ok := toData(args[1])
		if !ok {
			return DeleteArgs{}, invalid("delete", table, "filter %T is not a column map", args[1])
		}
		return DeleteArgs{Table: table, Where: filter}, nil
	default:
		return DeleteArgs{}, invalid("delete", table, "%d unexpected arguments", len(args)-2)
	}
}

func resolveWrite(op string, args []any) (table, idColumn string, data Data, rest []any, err error) {
	if len(args) < 2 {
		return "", "", nil, nil, invalid(op, "", "expected table and data")
	}
	table, ok := args[0].(string)
	if !ok {
		return "", "", nil, nil, invalid(op, "", "table %v is not a string", args[0])
	}

	rest = args[1:]
	if s, ok := rest[0].(string); ok {
		idColumn = s
		rest = rest[1:]
		if len(rest) == 0 {
			return "", "", nil, nil, invalid(op, table, "missing data after id column %q", idColumn)
		}
	}
	data, ok = toData(rest[0])
	if !ok {
		return "", "", nil, nil, invalid(op, table, "data %T is not a column map", rest[0])
	}
	return table, idColumn, data, rest[1:], nil
}

func toData(v any) (Data, bool) {
	switch d := v.(type) {
	case Data:
		return d, true
	case Filter:
		return Data(d), true
	case map[string]any:
		return FromMap(d), true
	default:
		return nil, false
	}
}

func invalid(op, table, format string, a ...any) error {
	return &Error{Op: op, Table: table, Err: fmt.Errorf("%w: %s", errors.ErrInvalidArguments, fmt.Sprintf(format, a...))}
}
