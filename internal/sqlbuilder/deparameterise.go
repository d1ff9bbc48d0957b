// SPDX-FileCopyrightText: Copyright 2025 SAP SE or an SAP affiliate company
//
// SPDX-License-Identifier: Apache-2.0

package sqlbuilder

import (
	"encoding"
	"encoding/json"
	"fmt"
	"reflect"
	"regexp"
	"strconv"
	"strings"
)

var placeholderRx = regexp.MustCompile(`\$(\d+)(~?)`)

// escapedQuote stands in for \" while the other double quotes become single quotes.
const escapedQuote = "\x00"

// Deparameterise renders the statement as one SQL string with all parameters
// substituted, for logs and debugging.
//
// The result is NOT safe to execute. Identifiers are inserted as is, values
// are approximated as SQL literals from their JSON encoding without any
// escaping of single quotes.
//
// The template is scanned once from left to right, so text substituted for
// one placeholder is never taken for another one and $1 never matches the
// start of $10. Placeholders without a parameter are left untouched.
func Deparameterise(stmt Statement) string {
	return placeholderRx.ReplaceAllStringFunc(stmt.SQL, func(m string) string {
		sub := placeholderRx.FindStringSubmatch(m)
		n, err := strconv.Atoi(sub[1])
		if err != nil || n < 1 || n > len(stmt.Params) {
			return m
		}
		param := stmt.Params[n-1]
		if sub[2] == "~" {
			return fmt.Sprint(param)
		}
		return literal(param)
	})
}

func literal(v any) string {
	if f, ok := v.(Filter); ok {
		v = Data(f)
	}
	if isList(v) {
		b, err := encodeJSON(v)
		if err == nil {
			return "'" + string(b) + "'"
		}
	}

	b, err := encodeJSON(v)
	if err != nil {
		return fmt.Sprintf("'%v'", v)
	}
	s := strings.ReplaceAll(string(b), `\"`, escapedQuote)
	s = strings.ReplaceAll(s, `"`, `'`)
	return strings.ReplaceAll(s, escapedQuote, `"`)
}

// isList reports whether v is a non-nil slice or array that is not encoded
// as a JSON scalar or object.
func isList(v any) bool {
	if v == nil {
		return false
	}
	switch v.(type) {
	case []byte, json.Marshaler, encoding.TextMarshaler:
		return false
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice:
		return !rv.IsNil()
	case reflect.Array:
		return true
	default:
		return false
	}
}
