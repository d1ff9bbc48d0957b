// SPDX-FileCopyrightText: Copyright 2025 SAP SE or an SAP affiliate company
//
// SPDX-License-Identifier: Apache-2.0

package client

import (
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/sapcc/pgcrud/internal/errors"
	"github.com/sapcc/pgcrud/internal/sqlbuilder"
)

// Request describes one statement as YAML document:
//
//	table: users
//	id_column: uid
//	columns: [uid, name]
//	data: {name: alex, age: 44}
//	where: {active: true}
//	limit: 10
//	offset: 20
//
// For update a scalar where is the value of the id column.
type Request struct {
	Table    string          `yaml:"table"`
	IDColumn string          `yaml:"id_column"`
	Columns  []string        `yaml:"columns"`
	Data     sqlbuilder.Data `yaml:"data"`
	Where    yaml.Node       `yaml:"where"`
	Limit    *uint64         `yaml:"limit"`
	Offset   *uint64         `yaml:"offset"`
}

func openInput(name string) (io.ReadCloser, error) {
	if name == "-" {
		return io.NopCloser(Stdin), nil
	}
	return os.Open(name)
}

func decodeInput(name string, out any) error {
	r, err := openInput(name)
	if err != nil {
		return err
	}
	defer r.Close()

	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(out); err != nil && err != io.EOF {
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}

func (r *Request) hasWhere() bool {
	return r.Where.Kind != 0 && r.Where.ShortTag() != "!!null"
}

func (r *Request) filter() (sqlbuilder.Data, error) {
	if !r.hasWhere() {
		return nil, nil
	}
	if r.Where.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("%w: line %d: where must be a mapping", errors.ErrInvalidArguments, r.Where.Line)
	}
	var where sqlbuilder.Data
	if err := r.Where.Decode(&where); err != nil {
		return nil, err
	}
	return where, nil
}

func (r *Request) condition() (sqlbuilder.Condition, error) {
	if !r.hasWhere() {
		return nil, nil
	}
	switch r.Where.Kind {
	case yaml.MappingNode:
		where, err := r.filter()
		return sqlbuilder.Filter(where), err
	case yaml.ScalarNode:
		var id any
		if err := r.Where.Decode(&id); err != nil {
			return nil, err
		}
		return sqlbuilder.ByID{Value: id}, nil
	default:
		return nil, fmt.Errorf("%w: line %d: where must be a mapping or a scalar", errors.ErrInvalidArguments, r.Where.Line)
	}
}

// withGeneratedID puts a random uuid in front of the request data unless it
// already holds a value for the id column.
func (r *Request) withGeneratedID() sqlbuilder.Data {
	idColumn := r.IDColumn
	if idColumn == "" {
		idColumn = sqlbuilder.DefaultIDColumn
	}
	if _, ok := r.Data.Get(idColumn); ok {
		return r.Data
	}
	return append(sqlbuilder.Data{{Name: idColumn, Value: uuid.NewString()}}, r.Data...)
}

// Builder returns the argument set of operation. Deleting without where
// requires all, a where that is present but empty is passed on and fails.
func (r *Request) Builder(operation string, all, generateID bool) (sqlbuilder.Builder, error) {
	data := r.Data
	if generateID {
		data = r.withGeneratedID()
	}

	switch operation {
	case "select":
		where, err := r.filter()
		if err != nil {
			return nil, err
		}
		return sqlbuilder.SelectArgs{Table: r.Table, Query: &sqlbuilder.Query{
			Columns: r.Columns,
			Where:   where,
			Limit:   r.Limit,
			Offset:  r.Offset,
		}}, nil
	case "insert":
		return sqlbuilder.InsertArgs{Table: r.Table, IDColumn: r.IDColumn, Data: data}, nil
	case "upsert":
		return sqlbuilder.UpsertArgs{Table: r.Table, IDColumn: r.IDColumn, Data: data}, nil
	case "update":
		where, err := r.condition()
		if err != nil {
			return nil, err
		}
		return sqlbuilder.UpdateArgs{Table: r.Table, IDColumn: r.IDColumn, Data: r.Data, Where: where}, nil
	case "delete":
		if r.Where.Kind == 0 {
			return sqlbuilder.DeleteArgs{Table: r.Table, Unfiltered: all}, nil
		}
		where, err := r.filter()
		if err != nil {
			return nil, err
		}
		return sqlbuilder.DeleteArgs{Table: r.Table, Where: where}, nil
	case "truncate":
		return sqlbuilder.TruncateArgs{Table: r.Table}, nil
	default:
		return nil, fmt.Errorf("%w: unknown operation %q", errors.ErrInvalidArguments, operation)
	}
}
