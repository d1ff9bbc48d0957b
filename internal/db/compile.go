// SPDX-FileCopyrightText: Copyright 2025 SAP SE or an SAP affiliate company
//
// SPDX-License-Identifier: Apache-2.0

package db

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/jackc/pgx/v5"

	"github.com/sapcc/pgcrud/internal/errors"
	"github.com/sapcc/pgcrud/internal/sqlbuilder"
)

var placeholderRx = regexp.MustCompile(`\$(\d+)(~?)`)

// segment is SQL text followed by an optional placeholder.
type segment struct {
	text        string
	placeholder bool
	index       int
	ident       bool
}

func parseTemplate(sql string) []segment {
	var segments []segment
	last := 0
	for _, m := range placeholderRx.FindAllStringSubmatchIndex(sql, -1) {
		// the pattern only matches digits, Atoi cannot fail short of overflow
		n, err := strconv.Atoi(sql[m[2]:m[3]])
		if err != nil {
			n = -1
		}
		segments = append(segments, segment{
			text:        sql[last:m[0]],
			placeholder: true,
			index:       n,
			ident:       m[5] > m[4],
		})
		last = m[1]
	}
	return append(segments, segment{text: sql[last:]})
}

// Compiler turns statement templates into queries for pgx. Parsed templates
// are kept in an LRU cache, most applications only ever build a few dozen
// distinct templates.
type Compiler struct {
	cache *lru.Cache[string, []segment]
}

func NewCompiler(size int) (*Compiler, error) {
	cache, err := lru.New[string, []segment](size)
	if err != nil {
		return nil, err
	}
	return &Compiler{cache: cache}, nil
}

// Compile resolves the placeholders of stmt:
//
//	$n~  is replaced by Params[n-1] quoted as identifier, it must be a string
//	$n   becomes a pgx ordinal argument, every n gets exactly one argument
//
// Placeholders referencing a parameter that does not exist are rejected.
func (c *Compiler) Compile(stmt sqlbuilder.Statement) (string, []any, error) {
	segments, ok := c.cache.Get(stmt.SQL)
	if !ok {
		segments = parseTemplate(stmt.SQL)
		c.cache.Add(stmt.SQL, segments)
	}

	var sb strings.Builder
	args := make([]any, 0, len(stmt.Params))
	ordinals := make(map[int]int)
	for _, seg := range segments {
		sb.WriteString(seg.text)
		if !seg.placeholder {
			continue
		}
		if seg.index < 1 || seg.index > len(stmt.Params) {
			return "", nil, fmt.Errorf("%w: $%d with %d parameters", errors.ErrParamOutOfRange, seg.index, len(stmt.Params))
		}

		param := stmt.Params[seg.index-1]
		if seg.ident {
			name, ok := param.(string)
			if !ok {
				return "", nil, fmt.Errorf("%w: $%d~ is %T", errors.ErrInvalidIdentifier, seg.index, param)
			}
			sb.WriteString(pgx.Identifier{name}.Sanitize())
			continue
		}

		ordinal, ok := ordinals[seg.index]
		if !ok {
			args = append(args, param)
			ordinal = len(args)
			ordinals[seg.index] = ordinal
		}
		sb.WriteString(fmt.Sprintf("$%d", ordinal))
	}
	return sb.String(), args, nil
}
