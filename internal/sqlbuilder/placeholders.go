// SPDX-FileCopyrightText: Copyright 2025 SAP SE or an SAP affiliate company
//
// SPDX-License-Identifier: Apache-2.0

package sqlbuilder

import (
	"fmt"
)

// The placeholder helpers emit n consecutive placeholders starting at index
// offset+1. Callers pass the number of parameters already collected as offset.

// NameParams returns identifier placeholders: $k~
func NameParams(offset, n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("$%d~", offset+i+1)
	}
	return out
}

// ValParams returns value placeholders: $k
func ValParams(offset, n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("$%d", offset+i+1)
	}
	return out
}

// Excludeds returns conflict update assignments: $k~=EXCLUDED.$k~
func Excludeds(offset, n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("$%d~=EXCLUDED.$%d~", offset+i+1, offset+i+1)
	}
	return out
}

// KeyVals returns assignments of n names followed by their n values: $k~=$(k+n)
func KeyVals(offset, n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("$%d~=$%d", offset+i+1, offset+i+n+1)
	}
	return out
}
