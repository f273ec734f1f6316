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
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tomoncle/datajpa/database"
	"github.com/tomoncle/datajpa/entity"
	"github.com/uptrace/bun"
)

// openTestDB migrates a private in-memory SQLite database for the test.
func openTestDB(t *testing.T, foreignKeys bool) *bun.DB {
	t.Helper()
	cfg := database.DefaultConfig()
	cfg.ConnectionConfig.DSN = fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	cfg.ConnectionConfig.HealthCheckInterval = 0
	cfg.ConnectionConfig.SlowQueryTime = 0
	cfg.DataMigrateConfig.EnableForeignKey = foreignKeys
	cfg.DataMigrateConfig.ForeignKeyFile = ""

	manager, err := database.NewDatabaseFactory().CreateFromConfig(cfg)
	require.NoError(t, err)
	ctx := context.Background()
	require.NoError(t, manager.Connect(ctx))
	t.Cleanup(func() { _ = manager.Disconnect() })
	require.NoError(t, manager.RunMigrations(ctx))
	return manager.GetDB()
}

func saveTeams(t *testing.T, repo TeamRepository, names ...string) []*entity.Team {
	t.Helper()
	teams := make([]*entity.Team, len(names))
	for i, name := range names {
		teams[i] = entity.NewTeam(name)
		require.NoError(t, repo.Save(context.Background(), teams[i]))
	}
	return teams
}
