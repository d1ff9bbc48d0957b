// SPDX-FileCopyrightText: Copyright 2025 SAP SE or an SAP affiliate company
//
// SPDX-License-Identifier: Apache-2.0

package db

import (
	"context"
	"fmt"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/sapcc/pgcrud/internal/sqlbuilder"
)

// PgxIface is the part of pgx used by Client. It is implemented by
// *pgxpool.Pool, *pgx.Conn, pgx.Tx and pgxmock.
type PgxIface interface {
	Begin(context.Context) (pgx.Tx, error)
	Exec(context.Context, string, ...any) (pgconn.CommandTag, error)
	Query(context.Context, string, ...any) (pgx.Rows, error)
	QueryRow(context.Context, string, ...any) pgx.Row
}

// Client executes sqlbuilder statements. It is safe for concurrent use if
// the underlying PgxIface is.
type Client struct {
	db       PgxIface
	compiler *Compiler
}

func NewClient(db PgxIface, cacheSize int) (*Client, error) {
	compiler, err := NewCompiler(cacheSize)
	if err != nil {
		return nil, err
	}
	return &Client{db: db, compiler: compiler}, nil
}

// Rows are result rows keyed by column name.
type Rows []map[string]any

func collect(ctx context.Context, db PgxIface, sql string, args []any) (Rows, error) {
	rows, err := db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowToMap)
}

// run compiles stmt and hands it to fn, retrying transient failures.
func (c *Client) run(ctx context.Context, operation string, stmt sqlbuilder.Statement, fn func(ctx context.Context, sql string, args []any) error) error {
	sql, args, err := c.compiler.Compile(stmt)
	if err == nil {
		logStatement(operation, stmt)
		err = Retry(ctx, func(ctx context.Context) error {
			return fn(ctx, sql, args)
		})
	}
	observe(operation, err)
	if err != nil {
		return fmt.Errorf("%s: %w", operation, err)
	}
	return nil
}

// Query executes any statement and returns its rows.
func (c *Client) Query(ctx context.Context, stmt sqlbuilder.Statement) (Rows, error) {
	return c.query(ctx, "query", stmt)
}

func (c *Client) query(ctx context.Context, operation string, stmt sqlbuilder.Statement) (Rows, error) {
	var rows Rows
	err := c.run(ctx, operation, stmt, func(ctx context.Context, sql string, args []any) (err error) {
		rows, err = collect(ctx, c.db, sql, args)
		return err
	})
	return rows, err
}

func (c *Client) queryOne(ctx context.Context, operation string, stmt sqlbuilder.Statement) (map[string]any, error) {
	var row map[string]any
	err := c.run(ctx, operation, stmt, func(ctx context.Context, sql string, args []any) error {
		rows, err := c.db.Query(ctx, sql, args...)
		if err != nil {
			return err
		}
		row, err = pgx.CollectExactlyOneRow(rows, pgx.RowToMap)
		return err
	})
	return row, err
}

func (c *Client) exec(ctx context.Context, operation string, stmt sqlbuilder.Statement) (int64, error) {
	var affected int64
	err := c.run(ctx, operation, stmt, func(ctx context.Context, sql string, args []any) error {
		tag, err := c.db.Exec(ctx, sql, args...)
		affected = tag.RowsAffected()
		return err
	})
	return affected, err
}

func (c *Client) Select(ctx context.Context, table string, q *sqlbuilder.Query) (Rows, error) {
	stmt, err := sqlbuilder.Select(table, q)
	if err != nil {
		return nil, err
	}
	return c.query(ctx, "select", stmt)
}

// SelectInto scans the selected rows into dest, a pointer to a slice of
// structs or maps, see pgxscan.Select.
func (c *Client) SelectInto(ctx context.Context, dest any, table string, q *sqlbuilder.Query) error {
	stmt, err := sqlbuilder.Select(table, q)
	if err != nil {
		return err
	}
	return c.run(ctx, "select", stmt, func(ctx context.Context, sql string, args []any) error {
		return pgxscan.Select(ctx, c.db, dest, sql, args...)
	})
}

// Insert returns the id column of the new row.
func (c *Client) Insert(ctx context.Context, table, idColumn string, data sqlbuilder.Data) (map[string]any, error) {
	stmt, err := sqlbuilder.Insert(table, idColumn, data)
	if err != nil {
		return nil, err
	}
	return c.queryOne(ctx, "insert", stmt)
}

// Update returns the id column of every updated row.
func (c *Client) Update(ctx context.Context, table, idColumn string, data sqlbuilder.Data, where sqlbuilder.Condition) (Rows, error) {
	stmt, err := sqlbuilder.Update(table, idColumn, data, where)
	if err != nil {
		return nil, err
	}
	return c.query(ctx, "update", stmt)
}

// Upsert returns the id column of the inserted or updated row.
func (c *Client) Upsert(ctx context.Context, table, idColumn string, data sqlbuilder.Data) (map[string]any, error) {
	stmt, err := sqlbuilder.Upsert(table, idColumn, data)
	if err != nil {
		return nil, err
	}
	return c.queryOne(ctx, "upsert", stmt)
}

// Delete returns the number of deleted rows. See sqlbuilder.Delete for the
// meaning of an omitted filter.
func (c *Client) Delete(ctx context.Context, table string, filter ...sqlbuilder.Data) (int64, error) {
	stmt, err := sqlbuilder.Delete(table, filter...)
	if err != nil {
		return 0, err
	}
	return c.exec(ctx, "delete", stmt)
}

func (c *Client) Truncate(ctx context.Context, table string) error {
	stmt, err := sqlbuilder.Truncate(table)
	if err != nil {
		return err
	}
	_, err = c.exec(ctx, "truncate", stmt)
	return err
}

// Execute builds and runs any argument set. Statements returning rows
// (everything except delete and truncate) return them, the others return the
// number of affected rows in the "rows_affected" column.
func (c *Client) Execute(ctx context.Context, operation string, b sqlbuilder.Builder) (Rows, error) {
	stmt, err := b.Build()
	if err != nil {
		return nil, err
	}
	switch b.(type) {
	case sqlbuilder.DeleteArgs, sqlbuilder.TruncateArgs:
		affected, err := c.exec(ctx, operation, stmt)
		if err != nil {
			return nil, err
		}
		return Rows{{"rows_affected": affected}}, nil
	default:
		return c.query(ctx, operation, stmt)
	}
}
