// SPDX-FileCopyrightText: Copyright 2025 SAP SE or an SAP affiliate company
//
// SPDX-License-Identifier: Apache-2.0

package db

import (
	"context"

	"github.com/IBM/pgxpoolprometheus"
	logrus "github.com/jackc/pgx-logrus"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/tracelog"
	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"

	"github.com/sapcc/pgcrud/internal/config"
	"github.com/sapcc/pgcrud/internal/sqlbuilder"
)

func GetTracer() *tracelog.TraceLog {
	logLevel := tracelog.LogLevelError
	if config.Global.Database.Trace {
		logLevel = tracelog.LogLevelDebug
	}
	return &tracelog.TraceLog{
		Logger:   logrus.NewLogger(log.StandardLogger()),
		LogLevel: logLevel,
	}
}

// Connect creates the connection pool for database.connection. The pool
// collector is registered with reg unless it is nil.
func Connect(ctx context.Context, reg prometheus.Registerer) (*pgxpool.Pool, error) {
	connConfig, err := pgxpool.ParseConfig(config.Global.Database.Connection)
	if err != nil {
		return nil, err
	}
	connConfig.ConnConfig.Tracer = GetTracer()

	pool, err := pgxpool.NewWithConfig(ctx, connConfig)
	if err != nil {
		return nil, err
	}

	dbConfig := pool.Config()
	if reg != nil {
		collector := pgxpoolprometheus.NewCollector(pool, map[string]string{"db_name": dbConfig.ConnConfig.Database})
		reg.MustRegister(collector)
	}
	log.Infof("Connecting to PostgreSQL host=%s, database=%s, max_conns=%d",
		dbConfig.ConnConfig.Host, dbConfig.ConnConfig.Database, dbConfig.MaxConns)
	return pool, nil
}

func logStatement(operation string, stmt sqlbuilder.Statement) {
	if !log.IsLevelEnabled(log.DebugLevel) {
		return
	}
	log.WithFields(log.Fields{
		"operation": operation,
		"sql":       sqlbuilder.Deparameterise(stmt),
	}).Debug("executing statement")
}
