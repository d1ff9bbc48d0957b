// SPDX-FileCopyrightText: Copyright 2025 SAP SE or an SAP affiliate company
//
// SPDX-License-Identifier: Apache-2.0

package sqlbuilder

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"reflect"
	"time"
)

// PrepareValue returns the parameter for a column value. nil, slices, arrays,
// times, driver.Valuer and scalar values are passed through for the driver to
// encode. Maps, structs, Data and Filter are encoded as JSON text.
func PrepareValue(v any) (any, error) {
	switch v.(type) {
	case nil, time.Time, *time.Time, driver.Valuer:
		return v, nil
	case Data:
		return marshalJSON(v)
	case Filter:
		return marshalJSON(Data(v))
	}

	rv := reflect.ValueOf(v)
	kind := rv.Kind()
	if kind == reflect.Pointer {
		if rv.IsNil() {
			return v, nil
		}
		kind = rv.Elem().Kind()
	}
	switch kind {
	case reflect.Map:
		if rv.Kind() == reflect.Map && rv.IsNil() {
			return nil, nil
		}
		return marshalJSON(v)
	case reflect.Struct:
		return marshalJSON(v)
	default:
		return v, nil
	}
}

func marshalJSON(v any) (string, error) {
	b, err := encodeJSON(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// encodeJSON is json.Marshal without escaping &, < and >.
func encodeJSON(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// prepareValues runs PrepareValue over all values of d.
func prepareValues(d Data) ([]any, error) {
	out := make([]any, len(d))
	for i, c := range d {
		v, err := PrepareValue(c.Value)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}
