// SPDX-FileCopyrightText: Copyright 2025 SAP SE or an SAP affiliate company
//
// SPDX-License-Identifier: Apache-2.0

package db

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/z0ne-dev/mgx/v2"

	"github.com/sapcc/pgcrud/internal/config"
	"github.com/sapcc/pgcrud/internal/sqlbuilder"
)

var testMigrations = mgx.Migrations(
	mgx.NewMigration("test table", func(ctx context.Context, commands mgx.Commands) error {
		_, err := commands.Exec(ctx, `
			CREATE TABLE test
			(
				id       BIGSERIAL NOT NULL PRIMARY KEY,
				name     VARCHAR(64),
				age      INTEGER,
				active   BOOLEAN,
				born     DATE,
				modified TIMESTAMP WITHOUT TIME ZONE,
				profile  JSON,
				hobbies  TEXT[]
			);`,
		)
		return err
	}),
)

type IntegrationSuite struct {
	suite.Suite
	pool     *pgxpool.Pool
	client   *Client
	registry *prometheus.Registry
}

func TestIntegrationSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("needs a postgres container")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)
	suite.Run(t, new(IntegrationSuite))
}

func (s *IntegrationSuite) SetupSuite() {
	ctx := context.Background()
	ctr, err := postgres.Run(ctx, "postgres:16-alpine",
		postgres.WithDatabase("simple"),
		postgres.WithUsername("tester"),
		postgres.WithPassword("password"),
		postgres.BasicWaitStrategies(),
	)
	testcontainers.CleanupContainer(s.T(), ctr)
	s.Require().NoError(err)

	config.Global.Database.Connection, err = ctr.ConnectionString(ctx, "sslmode=disable")
	s.Require().NoError(err)

	conn, err := pgx.Connect(ctx, config.Global.Database.Connection)
	s.Require().NoError(err)
	migrator, err := mgx.New(testMigrations)
	s.Require().NoError(err)
	s.Require().NoError(migrator.Migrate(ctx, conn))
	s.Require().NoError(conn.Close(ctx))

	s.registry = prometheus.NewRegistry()
	s.pool, err = Connect(ctx, s.registry)
	s.Require().NoError(err)
	s.client, err = NewClient(s.pool, 16)
	s.Require().NoError(err)
}

func (s *IntegrationSuite) TearDownSuite() {
	if s.pool != nil {
		s.pool.Close()
	}
}

func (s *IntegrationSuite) TearDownTest() {
	s.Require().NoError(s.client.Truncate(context.Background(), "test"))
}

type profile struct {
	Foo  string `json:"foo"`
	Herp string `json:"herp"`
}

func person(name string) sqlbuilder.Data {
	return sqlbuilder.Row(
		"name", name,
		"age", 43,
		"active", true,
		"born", time.Date(1973, 4, 16, 0, 0, 0, 0, time.UTC),
		"modified", time.Now().UTC().Truncate(time.Microsecond),
		"profile", profile{Foo: "bar", Herp: "derp"},
		"hobbies", []string{"movies", "beer"},
	)
}

func (s *IntegrationSuite) seed() {
	_, err := s.client.Query(context.Background(), sqlbuilder.Statement{
		SQL: `INSERT INTO test(name, age, active) VALUES
			('foo', 20, true), ('bar', 20, false), ('baz', 20, true),
			('herp', 60, true), ('derp', 20, true), ('tim', 20, true);`,
	})
	s.Require().NoError(err)
}

func (s *IntegrationSuite) TestSelect() {
	ctx := context.Background()
	s.seed()

	rows, err := s.client.Select(ctx, "test", nil)
	s.Require().NoError(err)
	s.Len(rows, 6)

	limit, offset := uint64(2), uint64(1)
	rows, err = s.client.Select(ctx, "test", &sqlbuilder.Query{
		Columns: []string{"id", "name"},
		Where:   sqlbuilder.Row("active", true, "age", 20),
		Limit:   &limit,
		Offset:  &offset,
	})
	s.Require().NoError(err)
	s.Equal(Rows{
		{"id": int64(3), "name": "baz"},
		{"id": int64(5), "name": "derp"},
	}, rows)
}

func (s *IntegrationSuite) TestInsert() {
	ctx := context.Background()

	row, err := s.client.Insert(ctx, "test", "", person("johan"))
	s.Require().NoError(err)
	s.Equal(map[string]any{"id": int64(1)}, row)

	rows, err := s.client.Select(ctx, "test", nil)
	s.Require().NoError(err)
	s.Require().Len(rows, 1)
	s.Equal("johan", rows[0]["name"])
	s.Equal(int32(43), rows[0]["age"])
	s.Equal(map[string]any{"foo": "bar", "herp": "derp"}, rows[0]["profile"])
	s.Equal([]any{"movies", "beer"}, rows[0]["hobbies"])
}

func (s *IntegrationSuite) TestUpdate() {
	ctx := context.Background()

	row, err := s.client.Insert(ctx, "test", "id", person("johan"))
	s.Require().NoError(err)

	data := person("alex").Set("id", row["id"])
	rows, err := s.client.Update(ctx, "test", "", data, nil)
	s.Require().NoError(err)
	s.Equal(Rows{{"id": int64(1)}}, rows)

	rows, err = s.client.Update(ctx, "test", "", sqlbuilder.Row("age", 44), sqlbuilder.Filter(sqlbuilder.Row("name", "alex")))
	s.Require().NoError(err)
	s.Equal(Rows{{"id": int64(1)}}, rows)

	rows, err = s.client.Update(ctx, "test", "", sqlbuilder.Row("age", 45), sqlbuilder.ByID{Value: 1})
	s.Require().NoError(err)
	s.Equal(Rows{{"id": int64(1)}}, rows)

	var people []struct {
		Name string
		Age  int32
	}
	s.Require().NoError(s.client.SelectInto(ctx, &people, "test", &sqlbuilder.Query{Columns: []string{"name", "age"}}))
	s.Require().Len(people, 1)
	s.Equal("alex", people[0].Name)
	s.EqualValues(45, people[0].Age)
}

func (s *IntegrationSuite) TestUpsert() {
	ctx := context.Background()

	row, err := s.client.Upsert(ctx, "test", "", person("johan").Set("id", 1))
	s.Require().NoError(err)
	s.Equal(map[string]any{"id": int64(1)}, row)

	row, err = s.client.Upsert(ctx, "test", "", sqlbuilder.Row("id", 1, "name", "alex"))
	s.Require().NoError(err)
	s.Equal(map[string]any{"id": int64(1)}, row)

	rows, err := s.client.Select(ctx, "test", nil)
	s.Require().NoError(err)
	s.Require().Len(rows, 1)
	s.Equal("alex", rows[0]["name"])
	s.Equal(int32(43), rows[0]["age"])
}

func (s *IntegrationSuite) TestBatchUpsert() {
	ctx := context.Background()

	rows, err := s.client.BatchUpsert(ctx, []sqlbuilder.UpsertArgs{
		{Table: "test", Data: sqlbuilder.Row("id", 1, "name", "a")},
		{Table: "test", Data: sqlbuilder.Row("id", 2, "name", "b")},
	})
	s.Require().NoError(err)
	s.Equal(Rows{{"id": int64(1)}, {"id": int64(2)}}, rows)

	// the second row fails, the first one must not be written
	_, err = s.client.BatchUpsert(ctx, []sqlbuilder.UpsertArgs{
		{Table: "test", Data: sqlbuilder.Row("id", 3, "name", "c")},
		{Table: "test", Data: sqlbuilder.Row("id", 4, "age", "not a number")},
	})
	s.Error(err)

	rows, err = s.client.Select(ctx, "test", nil)
	s.Require().NoError(err)
	s.Len(rows, 2)
}

func (s *IntegrationSuite) TestDelete() {
	ctx := context.Background()
	s.seed()

	n, err := s.client.Delete(ctx, "test", sqlbuilder.Row("age", 20, "active", true))
	s.Require().NoError(err)
	s.EqualValues(4, n)

	n, err = s.client.Delete(ctx, "test")
	s.Require().NoError(err)
	s.EqualValues(2, n)
}

func (s *IntegrationSuite) TestTruncateRestartsIdentity() {
	ctx := context.Background()
	s.seed()
	s.Require().NoError(s.client.Truncate(ctx, "test"))

	row, err := s.client.Insert(ctx, "test", "", sqlbuilder.Row("name", "first"))
	s.Require().NoError(err)
	s.Equal(map[string]any{"id": int64(1)}, row)
}

func (s *IntegrationSuite) TestPoolMetrics() {
	s.seed()

	families, err := s.registry.Gather()
	s.Require().NoError(err)
	var pool []string
	for _, mf := range families {
		if !strings.HasPrefix(mf.GetName(), "pgxpool_") {
			continue
		}
		pool = append(pool, mf.GetName())
		for _, m := range mf.GetMetric() {
			s.Equal("db_name", m.GetLabel()[0].GetName())
			s.Equal("simple", m.GetLabel()[0].GetValue())
		}
	}
	s.NotEmpty(pool)
}

func TestClientClosedPool(t *testing.T) {
	pool, err := pgxpool.New(context.Background(), "postgres://127.0.0.1:1/none?connect_timeout=1")
	require.NoError(t, err)
	pool.Close()

	c, err := NewClient(pool, 4)
	require.NoError(t, err)
	_, err = c.Select(context.Background(), "test", nil)
	assert.Error(t, err)
}
