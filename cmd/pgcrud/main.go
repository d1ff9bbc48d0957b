// SPDX-FileCopyrightText: Copyright 2025 SAP SE or an SAP affiliate company
//
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"os"

	"github.com/sapcc/pgcrud/internal/client"
)

func main() {
	client.Parser.ShortDescription = "pgcrud"
	client.Parser.LongDescription = "pgcrud builds parameterized CRUD statements from YAML requests and runs them against PostgreSQL."
	os.Exit(client.Run())
}
