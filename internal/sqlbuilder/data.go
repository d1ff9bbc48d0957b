// SPDX-FileCopyrightText: Copyright 2025 SAP SE or an SAP affiliate company
//
// SPDX-License-Identifier: Apache-2.0

package sqlbuilder

import (
	"bytes"
	"fmt"
	"maps"
	"reflect"
	"slices"

	"github.com/iancoleman/strcase"
	"github.com/jmoiron/sqlx/reflectx"
	"gopkg.in/yaml.v3"

	"github.com/sapcc/pgcrud/internal/errors"
)

// Mapper resolves struct fields to column names for FromStruct. Fields without a
// db tag are mapped to their snake_case name.
var Mapper = reflectx.NewMapperFunc("db", strcase.ToSnake)

// Column is a single column name with its value.
type Column struct {
	Name  string
	Value any
}

// Data is an ordered column-value map. The order of the columns is the order of
// the placeholders in the generated statement.
type Data []Column

// Row builds Data from alternating column names and values. It panics if kv has
// an odd length or a name is not a string.
func Row(kv ...any) Data {
	if len(kv)%2 != 0 {
		panic("sqlbuilder.Row: odd number of arguments")
	}
	var d Data
	for i := 0; i < len(kv); i += 2 {
		name, ok := kv[i].(string)
		if !ok {
			panic(fmt.Sprintf("sqlbuilder.Row: column name %v is not a string", kv[i]))
		}
		d = d.Set(name, kv[i+1])
	}
	return d
}

// FromMap converts a map to Data. Columns are sorted by name.
func FromMap(m map[string]any) Data {
	if m == nil {
		return nil
	}
	d := make(Data, 0, len(m))
	for _, name := range slices.Sorted(maps.Keys(m)) {
		d = append(d, Column{Name: name, Value: m[name]})
	}
	return d
}

// FromStruct converts a struct (or pointer to struct) to Data in field order.
// Fields of embedded structs follow the outer fields. Fields tagged
// `db:"-"` are skipped, fields tagged with the omitempty option are skipped
// when they hold their zero value.
func FromStruct(v any) (Data, error) {
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil, fmt.Errorf("sqlbuilder.FromStruct: nil %T", v)
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return nil, fmt.Errorf("sqlbuilder.FromStruct: %T is not a struct", v)
	}

	tm := Mapper.TypeMap(rv.Type())
	var d Data
	for _, fi := range tm.Index {
		if fi == nil || fi.Embedded || !promoted(fi, tm.Tree) {
			continue
		}
		field := reflectx.FieldByIndexesReadOnly(rv, fi.Index)
		if !field.CanInterface() {
			continue
		}
		if _, ok := fi.Options["omitempty"]; ok && field.IsZero() {
			continue
		}
		d = d.Set(fi.Name, field.Interface())
	}
	return d, nil
}

// promoted reports whether fi is a direct field of the root struct or of a
// struct embedded into it.
func promoted(fi, root *reflectx.FieldInfo) bool {
	for p := fi.Parent; p != root; p = p.Parent {
		if p == nil || !p.Embedded {
			return false
		}
	}
	return true
}

// Names returns the column names in order.
func (d Data) Names() []string {
	names := make([]string, len(d))
	for i, c := range d {
		names[i] = c.Name
	}
	return names
}

// Get returns the value of the named column.
func (d Data) Get(name string) (any, bool) {
	for _, c := range d {
		if c.Name == name {
			return c.Value, true
		}
	}
	return nil, false
}

// Set returns a copy of d with the named column set to value. An existing
// column keeps its position, a new one is appended.
func (d Data) Set(name string, value any) Data {
	out := slices.Clone(d)
	for i := range out {
		if out[i].Name == name {
			out[i].Value = value
			return out
		}
	}
	return append(out, Column{Name: name, Value: value})
}

// checkNames fails with ErrInvalidArguments if a column name occurs twice.
func (d Data) checkNames() error {
	seen := make(map[string]struct{}, len(d))
	for _, c := range d {
		if _, ok := seen[c.Name]; ok {
			return fmt.Errorf("%w: duplicate column %q", errors.ErrInvalidArguments, c.Name)
		}
		seen[c.Name] = struct{}{}
	}
	return nil
}

// Without returns a copy of d without the named column.
func (d Data) Without(name string) Data {
	return slices.DeleteFunc(slices.Clone(d), func(c Column) bool {
		return c.Name == name
	})
}

// MarshalJSON encodes d as a JSON object keeping the column order.
func (d Data) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, c := range d {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := encodeJSON(c.Name)
		if err != nil {
			return nil, err
		}
		val, err := encodeJSON(c.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalYAML decodes a YAML mapping keeping the document order of its keys.
// Nested values are decoded the way yaml.v3 decodes into an interface value.
func (d *Data) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.AliasNode {
		node = node.Alias
	}
	if node.Tag == "!!null" {
		*d = nil
		return nil
	}
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: expected a mapping of columns, got %s", node.Line, node.Tag)
	}

	out := make(Data, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		var name string
		if err := node.Content[i].Decode(&name); err != nil {
			return err
		}
		var value any
		if err := node.Content[i+1].Decode(&value); err != nil {
			return err
		}
		out = out.Set(name, value)
	}
	*d = out
	return nil
}
