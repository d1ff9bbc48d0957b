/*
 *   Copyright 2020 SAP SE
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

package config

import (
	"errors"

	"github.com/getsentry/sentry-go"
	"github.com/jessevdk/go-flags"
	"github.com/sapcc/go-bits/osext"
	log "github.com/sirupsen/logrus"
)

var (
	Global    Pgcrud
	Version   = "dev"
	BuildTime = "unknown"
)

type Pgcrud struct {
	ConfigFile string   `long:"config-file" description:"Use config file"`
	Default    Default  `group:"DEFAULT"`
	Database   Database `group:"database"`
	Output     Output   `group:"output"`
}

type Default struct {
	Debug     bool   `short:"d" long:"debug" description:"Show debug information"`
	SentryDSN string `long:"sentry-dsn" ini-name:"sentry_dsn" env:"SENTRY_DSN" description:"Report errors to this Sentry DSN."`
}

type Database struct {
	Connection string `long:"database-connection" ini-name:"connection" env:"DB_URL" description:"Connection string to use to connect to the database."`
	Trace      bool   `long:"database-trace" ini-name:"trace" description:"Log every query sent to the database."`
	MaxRetries uint64 `long:"database-max-retries" ini-name:"max_retries" default:"2" description:"Retries of statements failing with a transient error."`
	CacheSize  int    `long:"database-cache-size" ini-name:"cache_size" default:"256" description:"Number of compiled statement templates to keep."`
}

type Output struct {
	Format string `short:"f" long:"format" ini-name:"format" description:"The output format, defaults to table" choice:"table" choice:"csv" choice:"markdown" choice:"html" choice:"value" default:"table"`
	Params bool   `long:"params" ini-name:"params" description:"Also print the statement template and its parameters"`
}

func IsDebug() bool {
	return Global.Default.Debug
}

// ParseConfig reads the optional ini config file on top of the command line
// options and configures logging.
func ParseConfig(parser *flags.Parser) {
	if Global.ConfigFile != "" {
		ini := flags.NewIniParser(parser)
		if err := ini.ParseFile(Global.ConfigFile); err != nil {
			log.Fatal(err.Error())
		}
	}
	if Global.Database.Connection == "" {
		Global.Database.Connection = osext.GetenvOrDefault(
			"DATABASE_URL", "postgres://postgres@127.0.0.1:5432/postgres?sslmode=disable")
	}

	if IsDebug() {
		log.SetLevel(log.DebugLevel)
	}
}

// InitSentry enables error reporting if a DSN is configured.
func InitSentry() {
	if Global.Default.SentryDSN == "" {
		return
	}
	if err := sentry.Init(sentry.ClientOptions{
		Dsn:     Global.Default.SentryDSN,
		Release: Version,
		Debug:   IsDebug(),
	}); err != nil {
		log.WithError(err).Error("sentry initialization failed")
		return
	}
	log.Info("Sentry error reporting enabled")
}

// ExitCode maps a go-flags parse error to the process exit code.
func ExitCode(err error) int {
	var fe *flags.Error
	if errors.As(err, &fe) && fe.Type == flags.ErrHelp {
		return 0
	}
	return 1
}
