// SPDX-FileCopyrightText: Copyright 2025 SAP SE or an SAP affiliate company
//
// SPDX-License-Identifier: Apache-2.0

package db

import (
	"context"
	"fmt"
	"runtime"

	"github.com/jackc/pgx/v5"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/sapcc/pgcrud/internal/sqlbuilder"
)

// BuildUpserts builds the statements of a batch concurrently. The result keeps
// the order of batch. Rows not yet built are skipped once one row failed or
// ctx is done.
func BuildUpserts(ctx context.Context, batch []sqlbuilder.UpsertArgs) ([]sqlbuilder.Statement, error) {
	stmts := make([]sqlbuilder.Statement, len(batch))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, args := range batch {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			stmt, err := args.Build()
			if err != nil {
				return fmt.Errorf("batch row %d: %w", i, err)
			}
			stmts[i] = stmt
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return stmts, nil
}

type compiled struct {
	sql  string
	args []any
}

// BatchUpsert upserts all rows in a single transaction and returns the id
// column of each row in batch order. If one row fails, none is written.
func (c *Client) BatchUpsert(ctx context.Context, batch []sqlbuilder.UpsertArgs) (Rows, error) {
	if len(batch) == 0 {
		return nil, nil
	}
	stmts, err := BuildUpserts(ctx, batch)
	if err != nil {
		return nil, err
	}

	queries := make([]compiled, len(stmts))
	for i, stmt := range stmts {
		sql, args, err := c.compiler.Compile(stmt)
		if err != nil {
			return nil, fmt.Errorf("batch row %d: %w", i, err)
		}
		queries[i] = compiled{sql, args}
		logStatement("batch_upsert", stmt)
	}

	var results Rows
	err = Retry(ctx, func(ctx context.Context) error {
		results = make(Rows, 0, len(queries))
		return pgx.BeginFunc(ctx, c.db, func(tx pgx.Tx) error {
			for i, q := range queries {
				rows, err := tx.Query(ctx, q.sql, q.args...)
				if err != nil {
					return fmt.Errorf("batch row %d: %w", i, err)
				}
				row, err := pgx.CollectExactlyOneRow(rows, pgx.RowToMap)
				if err != nil {
					return fmt.Errorf("batch row %d: %w", i, err)
				}
				results = append(results, row)
			}
			return nil
		})
	})
	observe("batch_upsert", err)
	if err != nil {
		return nil, fmt.Errorf("batch_upsert: %w", err)
	}
	log.WithField("rows", len(results)).Debug("batch upsert committed")
	return results, nil
}
