// Copyright 2023 SAP SE
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//    http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package client

import (
	"context"
	"fmt"
	"time"

	"github.com/sapcc/pgcrud/internal/config"
	"github.com/sapcc/pgcrud/internal/sqlbuilder"
)

type VersionOptions struct {
	Server bool `long:"server" description:"Also query the database server version"`
}

func (o *VersionOptions) Execute(_ []string) error {
	fmt.Fprintf(Stdout, "CLI Version: %s (%s)\n", config.Version, config.BuildTime)
	if !o.Server {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	c, done, err := newClient(ctx)
	if err != nil {
		return err
	}
	defer done()

	rows, err := c.Query(ctx, sqlbuilder.Statement{SQL: "SHOW server_version;"})
	if err != nil {
		return err
	}
	if len(rows) != 1 {
		return fmt.Errorf("unexpected server_version result: %v", rows)
	}
	fmt.Fprintf(Stdout, "Server Version: %s\n", formatValue(rows[0]["server_version"]))
	return nil
}

func init() {
	if _, err := Parser.AddCommand("version", "Version",
		"Show Version.", &VersionOptions{}); err != nil {
		panic(err)
	}
}
