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

package datajpa

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tomoncle/datajpa/config"
	"github.com/tomoncle/datajpa/database"
	"github.com/tomoncle/datajpa/entity"
	"github.com/tomoncle/datajpa/repository"
)

func TestStoreOverGlobalDatabase(t *testing.T) {
	ctx := context.Background()
	lazy := NewStore()

	cfg, err := config.Load("")
	require.NoError(t, err)
	cfg.Database.ConnectionConfig.DSN = "file:datajpa_store?mode=memory&cache=shared"
	cfg.Database.ConnectionConfig.HealthCheckInterval = 0

	store, err := Open(ctx, cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.CloseDB() })

	team := entity.NewTeam("teamA")
	require.NoError(t, store.Teams().Save(ctx, team))
	require.NoError(t, store.Members().SaveAll(ctx,
		entity.NewMemberWithTeam("member1", 10, team),
		entity.NewMemberWithTeam("member2", 20, team),
	))

	count, err := lazy.Members().Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	err = store.InUnit(ctx, func(ctx context.Context, u *repository.UnitOfWork) error {
		before, err := u.Members().FindMemberByUsername(ctx, "member2")
		require.NoError(t, err)
		n, err := u.Members().BulkAgePlus(ctx, 20)
		require.NoError(t, err)
		assert.EqualValues(t, 1, n)
		assert.Equal(t, 20, before.Age)

		u.Clear()
		after, err := u.Members().FindMemberByUsername(ctx, "member2")
		require.NoError(t, err)
		assert.Equal(t, 21, after.Age)
		return nil
	})
	require.NoError(t, err)
}

func TestOpenRejectsNilConfig(t *testing.T) {
	_, err := Open(context.Background(), nil)
	assert.Error(t, err)
}

func TestStoreWithoutDatabase(t *testing.T) {
	store := NewStore()
	assert.Nil(t, store.DB())
	err := store.InUnit(context.Background(), func(context.Context, *repository.UnitOfWork) error { return nil })
	assert.ErrorIs(t, err, repository.ErrNoDatabase)

	_, err = store.Members().Count(context.Background())
	assert.ErrorIs(t, err, repository.ErrNoDatabase)
	_, err = store.Teams().FindAll(context.Background())
	assert.ErrorIs(t, err, repository.ErrNoDatabase)
}

func TestStoreRepositoriesTakenBeforeOpen(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	members := store.Members()
	teams := store.Teams()

	_, err := members.Count(ctx)
	require.ErrorIs(t, err, repository.ErrNoDatabase)

	cfg, err := config.Load("")
	require.NoError(t, err)
	cfg.Database.ConnectionConfig.DSN = "file:datajpa_store_late?mode=memory&cache=shared"
	cfg.Database.ConnectionConfig.HealthCheckInterval = 0
	_, err = Open(ctx, cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.CloseDB() })

	team := entity.NewTeam("teamA")
	require.NoError(t, teams.Save(ctx, team))
	require.NoError(t, members.Save(ctx, entity.NewMemberWithTeam("member1", 10, team)))
	count, err := members.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	assert.NotNil(t, store.DB())
}
