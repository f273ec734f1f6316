//go:build integration

/*
 * Copyright 2025 tomoncle.
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package repository

import (
	"context"
	"database/sql"
	"strconv"
	"testing"

	_ "github.com/lib/pq"
	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tomoncle/datajpa/database"
	"github.com/tomoncle/datajpa/entity"
	"github.com/tomoncle/datajpa/types"
	"github.com/uptrace/bun"
)

func setupPostgres(t *testing.T, driver string) *bun.DB {
	t.Helper()

	pool, err := dockertest.NewPool("")
	require.NoError(t, err)

	resource, err := pool.RunWithOptions(&dockertest.RunOptions{
		Repository: "postgres",
		Tag:        "16-alpine",
		Env: []string{
			"POSTGRES_PASSWORD=postgres",
			"POSTGRES_USER=postgres",
			"POSTGRES_DB=datajpa",
		},
	}, func(hc *docker.HostConfig) {
		hc.AutoRemove = true
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = pool.Purge(resource) })

	hostPort := resource.GetPort("5432/tcp")
	require.NoError(t, pool.Retry(func() error {
		db, err := sql.Open("postgres", "host=localhost port="+hostPort+" user=postgres password=postgres dbname=datajpa sslmode=disable")
		if err != nil {
			return err
		}
		defer func() { _ = db.Close() }()
		return db.Ping()
	}))

	port, err := strconv.Atoi(hostPort)
	require.NoError(t, err)

	cfg := database.DefaultConfig()
	cfg.ConnectionConfig.Type = "postgres"
	cfg.ConnectionConfig.Driver = driver
	cfg.ConnectionConfig.Host = "localhost"
	cfg.ConnectionConfig.Port = port
	cfg.ConnectionConfig.Username = "postgres"
	cfg.ConnectionConfig.Password = "postgres"
	cfg.ConnectionConfig.DBName = "datajpa"
	cfg.ConnectionConfig.SSLMode = "disable"
	cfg.ConnectionConfig.HealthCheckInterval = 0
	cfg.DataMigrateConfig.EnableForeignKey = true
	cfg.DataMigrateConfig.ForeignKeyFile = ""

	manager, err := database.NewDatabaseFactory().CreateFromConfig(cfg)
	require.NoError(t, err)
	ctx := context.Background()
	require.NoError(t, manager.Connect(ctx))
	t.Cleanup(func() { _ = manager.Disconnect() })
	require.NoError(t, manager.RunMigrations(ctx))
	return manager.GetDB()
}

func TestPostgresIntegration(t *testing.T) {
	for _, driver := range []string{"pq", "pgx"} {
		t.Run(driver, func(t *testing.T) {
			db := setupPostgres(t, driver)
			ctx := context.Background()

			teams := saveTeams(t, NewTeamRepository(db), "teamA")
			members := NewMemberRepository(db)
			for i, name := range []string{"member1", "member2", "member3", "member4", "member5"} {
				var team *entity.Team
				if i%2 == 0 {
					team = teams[0]
				}
				require.NoError(t, members.Save(ctx, entity.NewMemberWithTeam(name, 10, team)))
			}

			page, err := members.FindByAge(ctx, 10, types.PageRequestOf(0, 3, types.Order{Property: "username", Direction: types.DESC}))
			require.NoError(t, err)
			assert.EqualValues(t, 5, page.TotalElements)
			assert.Equal(t, 2, page.TotalPages())
			assert.Equal(t, "member5", page.Content[0].UserName)

			dtos, err := members.FindMemberDto(ctx)
			require.NoError(t, err)
			assert.Len(t, dtos, 3)

			err = RunInUnit(ctx, db, func(ctx context.Context, u *UnitOfWork) error {
				stale, err := u.Members().FindMemberByUsername(ctx, "member1")
				require.NoError(t, err)
				n, err := u.Members().BulkAgePlus(ctx, 10)
				require.NoError(t, err)
				assert.EqualValues(t, 5, n)

				again, err := u.Members().FindMemberByUsername(ctx, "member1")
				require.NoError(t, err)
				assert.Equal(t, 10, again.Age)
				assert.Same(t, stale, again)
				return nil
			})
			require.NoError(t, err)

			err = NewTeamRepository(db).Delete(ctx, teams[0])
			assert.ErrorIs(t, err, ErrConstraintViolation)
		})
	}
}
