// SPDX-FileCopyrightText: Copyright 2025 SAP SE or an SAP affiliate company
//
// SPDX-License-Identifier: Apache-2.0

package client

import (
	"context"
	"fmt"

	"github.com/sapcc/pgcrud/internal/config"
	"github.com/sapcc/pgcrud/internal/sqlbuilder"
)

// RenderOptions builds a statement without touching the database.
type RenderOptions struct {
	RequestOptions
	All        bool `long:"all" description:"Allow delete without where"`
	GenerateID bool `long:"generate-id" description:"Insert a random uuid if the data has no id"`
	Positional struct {
		Operation string `positional-arg-name:"operation" description:"select, insert, update, upsert, delete or truncate"`
	} `positional-args:"yes" required:"yes"`
}

func (o *RenderOptions) Execute(_ []string) error {
	req, err := o.request()
	if err != nil {
		return err
	}
	b, err := req.Builder(o.Positional.Operation, o.All, o.GenerateID)
	if err != nil {
		return err
	}
	stmt, err := b.Build()
	if err != nil {
		return err
	}

	if config.Global.Output.Params {
		if err := WriteStatement(stmt); err != nil {
			return err
		}
	}
	_, err = fmt.Fprintln(Stdout, sqlbuilder.Deparameterise(stmt))
	return err
}

// ExecuteOptions runs the statement named by Operation.
type ExecuteOptions struct {
	RequestOptions
	Operation string `no-flag:"true"`
}

func (o *ExecuteOptions) run(all, generateID bool, adjust func(*Request)) error {
	req, err := o.request()
	if err != nil {
		return err
	}
	if adjust != nil {
		adjust(req)
	}
	b, err := req.Builder(o.Operation, all, generateID)
	if err != nil {
		return err
	}
	if config.Global.Output.Params {
		stmt, err := b.Build()
		if err != nil {
			return err
		}
		if err := WriteStatement(stmt); err != nil {
			return err
		}
	}

	ctx := context.Background()
	c, done, err := newClient(ctx)
	if err != nil {
		return err
	}
	defer done()

	rows, err := c.Execute(ctx, o.Operation, b)
	if err != nil {
		return err
	}
	return WriteRows(rows)
}

type SelectOptions struct {
	ExecuteOptions
	Columns []string `short:"c" long:"column" description:"Select only this column, can be repeated"`
	Limit   *uint64  `long:"limit" description:"Return at most this many rows"`
	Offset  *uint64  `long:"offset" description:"Skip this many rows"`
}

func (o *SelectOptions) Execute(_ []string) error {
	return o.run(false, false, func(req *Request) {
		if len(o.Columns) > 0 {
			req.Columns = o.Columns
		}
		if o.Limit != nil {
			req.Limit = o.Limit
		}
		if o.Offset != nil {
			req.Offset = o.Offset
		}
	})
}

type WriteOptions struct {
	ExecuteOptions
	GenerateID bool `long:"generate-id" description:"Insert a random uuid if the data has no id"`
}

func (o *WriteOptions) Execute(_ []string) error {
	return o.run(false, o.GenerateID, nil)
}

type UpdateOptions struct {
	ExecuteOptions
}

func (o *UpdateOptions) Execute(_ []string) error {
	return o.run(false, false, nil)
}

type DeleteOptions struct {
	ExecuteOptions
	All bool `long:"all" description:"Delete all rows if the request has no where"`
}

func (o *DeleteOptions) Execute(_ []string) error {
	return o.run(o.All, false, nil)
}

type TruncateOptions struct {
	ExecuteOptions
}

func (o *TruncateOptions) Execute(_ []string) error {
	return o.run(false, false, nil)
}

// BatchUpsertOptions upserts a YAML list of requests in one transaction.
type BatchUpsertOptions struct {
	Input      string `short:"i" long:"input" default:"-" description:"Read the YAML requests from this file, - for stdin"`
	Table      string `short:"t" long:"table" description:"Table name for requests without one"`
	GenerateID bool   `long:"generate-id" description:"Insert a random uuid if the data has no id"`
}

func (o *BatchUpsertOptions) Execute(_ []string) error {
	var reqs []Request
	if err := decodeInput(o.Input, &reqs); err != nil {
		return err
	}

	batch := make([]sqlbuilder.UpsertArgs, len(reqs))
	for i := range reqs {
		if reqs[i].Table == "" {
			reqs[i].Table = o.Table
		}
		b, err := reqs[i].Builder("upsert", false, o.GenerateID)
		if err != nil {
			return err
		}
		batch[i] = b.(sqlbuilder.UpsertArgs)
	}

	ctx := context.Background()
	c, done, err := newClient(ctx)
	if err != nil {
		return err
	}
	defer done()

	rows, err := c.BatchUpsert(ctx, batch)
	if err != nil {
		return err
	}
	return WriteRows(rows)
}

func init() {
	commands := []struct {
		name, short, long string
		data              any
	}{
		{"render", "Render statement",
			"Print the literal SQL of a statement. The output is for reading only, never execute it.",
			&RenderOptions{}},
		{"select", "Select rows", "Select the rows matching the request.",
			&SelectOptions{ExecuteOptions: ExecuteOptions{Operation: "select"}}},
		{"insert", "Insert row", "Insert the request data and print the new id.",
			&WriteOptions{ExecuteOptions: ExecuteOptions{Operation: "insert"}}},
		{"upsert", "Insert or update row", "Insert the request data, updating the row with the same id if it exists.",
			&WriteOptions{ExecuteOptions: ExecuteOptions{Operation: "upsert"}}},
		{"update", "Update rows", "Update the rows matching where, or the row with the id in the data.",
			&UpdateOptions{ExecuteOptions: ExecuteOptions{Operation: "update"}}},
		{"delete", "Delete rows", "Delete the rows matching where.",
			&DeleteOptions{ExecuteOptions: ExecuteOptions{Operation: "delete"}}},
		{"truncate", "Truncate table", "Remove all rows and restart the identity sequences.",
			&TruncateOptions{ExecuteOptions: ExecuteOptions{Operation: "truncate"}}},
		{"batch-upsert", "Upsert rows atomically", "Upsert a list of requests in a single transaction.",
			&BatchUpsertOptions{}},
	}
	for _, cmd := range commands {
		if _, err := Parser.AddCommand(cmd.name, cmd.short, cmd.long, cmd.data); err != nil {
			panic(err)
		}
	}
}
