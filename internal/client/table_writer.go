/*
 *   Copyright 2021 SAP SE
 *
 *   Licensed under the Apache License, Version 2.0 (the "License");
 *   you may not use this file except in compliance with the License.
 *   You may obtain a copy of the License at
 *
 *       http://www.apache.org/licenses/LICENSE-2.0
 *
 *   Unless required by applicable law or agreed to in writing, software
 *   distributed under the License is distributed on an "AS IS" BASIS,
 *   WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 *   See the License for the specific language governing permissions and
 *   limitations under the License.
 */

package client

import (
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/sapcc/pgcrud/internal/config"
	"github.com/sapcc/pgcrud/internal/db"
	"github.com/sapcc/pgcrud/internal/sqlbuilder"
)

func formatValue(v any) string {
	switch v := v.(type) {
	case nil:
		return "Null"
	case bool:
		return fmt.Sprintf("%t", v)
	case string:
		return v
	case []byte:
		return string(v)
	case time.Time:
		return v.Format(time.RFC3339)
	case fmt.Stringer:
		return v.String()
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Map, reflect.Slice, reflect.Array, reflect.Struct:
		if b, err := json.Marshal(v); err == nil {
			return string(b)
		}
	case reflect.Ptr:
		if rv.IsNil() {
			return "Null"
		}
		return formatValue(rv.Elem().Interface())
	}
	return fmt.Sprintf("%v", v)
}

// sortedHeader returns the union of all row columns. id and name come
// first, created_at and updated_at last, the rest alphabetically.
func sortedHeader(rows db.Rows) []string {
	seen := make(map[string]struct{})
	var header []string
	for _, row := range rows {
		for column := range row {
			if _, ok := seen[column]; !ok {
				seen[column] = struct{}{}
				header = append(header, column)
			}
		}
	}

	rank := func(column string) int {
		switch column {
		case "id":
			return 0
		case "name":
			return 1
		case "created_at":
			return 3
		case "updated_at":
			return 4
		default:
			return 2
		}
	}
	sort.Slice(header, func(i, j int) bool {
		if ri, rj := rank(header[i]), rank(header[j]); ri != rj {
			return ri < rj
		}
		return header[i] < header[j]
	})
	return header
}

func newTable() table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(Stdout)
	return t
}

func render(t table.Writer) error {
	switch config.Global.Output.Format {
	case "", "table":
		t.SetStyle(table.StyleLight)
		t.Render()
	case "csv":
		t.RenderCSV()
	case "markdown":
		t.RenderMarkdown()
	case "html":
		t.RenderHTML()
	case "value":
		t.SetStyle(table.Style{
			Name: "value",
			Box: table.BoxStyle{
				MiddleHorizontal: " ",
				MiddleVertical:   " ",
			},
			Options: table.OptionsNoBorders,
		})
		t.Render()
	default:
		return fmt.Errorf("format option %s is not supported", config.Global.Output.Format)
	}
	return nil
}

// WriteRows prints result rows via the table writer.
func WriteRows(rows db.Rows) error {
	if len(rows) == 0 {
		return nil
	}

	t := newTable()
	header := sortedHeader(rows)
	if config.Global.Output.Format != "value" {
		r := make(table.Row, len(header))
		for i, column := range header {
			r[i] = column
		}
		t.AppendHeader(r)
	}
	for _, row := range rows {
		r := make(table.Row, len(header))
		for i, column := range header {
			value, ok := row[column]
			if !ok {
				r[i] = ""
				continue
			}
			r[i] = formatValue(value)
		}
		t.AppendRow(r)
	}
	return render(t)
}

// WriteStatement prints the template of stmt and its parameters.
func WriteStatement(stmt sqlbuilder.Statement) error {
	if _, err := fmt.Fprintln(Stdout, stmt.SQL); err != nil {
		return err
	}

	t := newTable()
	if config.Global.Output.Format != "value" {
		t.AppendHeader(table.Row{"#", "Type", "Parameter"})
	}
	for i, p := range stmt.Params {
		t.AppendRow(table.Row{fmt.Sprintf("$%d", i+1), fmt.Sprintf("%T", p), formatValue(p)})
	}
	return render(t)
}
