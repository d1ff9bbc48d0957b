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
	"context"
	"io"
	"os"
	"strings"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/jessevdk/go-flags"
	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"

	"github.com/sapcc/pgcrud/internal/config"
	"github.com/sapcc/pgcrud/internal/db"
)

var (
	Parser           = flags.NewParser(&config.Global, flags.Default)
	Stdout io.Writer = os.Stdout
	Stdin  io.Reader = os.Stdin

	// Connect opens the database used by the executing commands. The
	// returned function releases it.
	Connect = func(ctx context.Context) (db.PgxIface, func(), error) {
		pool, err := db.Connect(ctx, prometheus.DefaultRegisterer)
		if err != nil {
			return nil, nil, err
		}
		return pool, pool.Close, nil
	}
)

// RequestOptions are shared by all commands reading a request document.
type RequestOptions struct {
	Input    string `short:"i" long:"input" description:"Read the YAML request from this file, - for stdin"`
	Table    string `short:"t" long:"table" description:"Table name, overrides the request"`
	IDColumn string `long:"id-column" description:"Id column, overrides the request"`
}

func (o *RequestOptions) request() (*Request, error) {
	req := &Request{}
	if o.Input != "" {
		if err := decodeInput(o.Input, req); err != nil {
			return nil, err
		}
	}
	if o.Table != "" {
		req.Table = o.Table
	}
	if o.IDColumn != "" {
		req.IDColumn = o.IDColumn
	}
	return req, nil
}

func newClient(ctx context.Context) (*db.Client, func(), error) {
	conn, done, err := Connect(ctx)
	if err != nil {
		return nil, nil, err
	}
	c, err := db.NewClient(conn, config.Global.Database.CacheSize)
	if err != nil {
		done()
		return nil, nil, err
	}
	return c, done, nil
}

// logMetrics logs the statement counters and the connection pool metrics.
func logMetrics(gatherer prometheus.Gatherer) {
	families, err := gatherer.Gather()
	if err != nil {
		log.WithError(err).Debug("gathering metrics failed")
		return
	}
	for _, mf := range families {
		if !strings.HasPrefix(mf.GetName(), "pgcrud_") && !strings.HasPrefix(mf.GetName(), "pgxpool_") {
			continue
		}
		for _, m := range mf.GetMetric() {
			value := m.GetGauge().GetValue()
			if m.GetCounter() != nil {
				value = m.GetCounter().GetValue()
			}
			fields := log.Fields{"value": value}
			for _, l := range m.GetLabel() {
				fields[l.GetName()] = l.GetValue()
			}
			log.WithFields(fields).Debug(mf.GetName())
		}
	}
}

// Run parses the command line and executes the selected command. It returns
// the process exit code.
func Run() int {
	Parser.CommandHandler = func(command flags.Commander, args []string) error {
		if command == nil {
			return nil
		}
		config.ParseConfig(Parser)
		config.InitSentry()

		err := command.Execute(args)
		if config.IsDebug() {
			logMetrics(prometheus.DefaultGatherer)
		}
		if err != nil && config.Global.Default.SentryDSN != "" {
			sentry.CaptureException(err)
			sentry.Flush(2 * time.Second)
		}
		return err
	}

	if _, err := Parser.Parse(); err != nil {
		return config.ExitCode(err)
	}
	return 0
}

func init() {
	db.InitializePrometheus(prometheus.DefaultRegisterer)
}
