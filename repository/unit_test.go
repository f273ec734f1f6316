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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tomoncle/datajpa/entity"
	"github.com/uptrace/bun"
)

func TestUnitOfWorkIdentity(t *testing.T) {
	db := openTestDB(t, false)
	ctx := context.Background()
	u := NewUnitOfWork(db)
	assert.NotEqual(t, u.ID(), NewUnitOfWork(db).ID())
	assert.Same(t, db, u.DB())

	team := entity.NewTeam("teamA")
	require.NoError(t, u.Teams().Save(ctx, team))
	m := entity.NewMemberWithTeam("member1", 10, team)
	require.NoError(t, u.Members().Save(ctx, m))
	assert.Equal(t, 2, u.Size())

	found, err := u.Members().FindByUsername(ctx, "member1")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Same(t, m, found[0])

	all, err := u.Members().FindAll(ctx)
	require.NoError(t, err)
	assert.Same(t, m, all[0])
	assert.Same(t, team, all[0].Team())

	u.Detach(m)
	assert.False(t, u.Contains(m))
	assert.True(t, u.Contains(team))

	reloaded, err := u.Members().FindByID(ctx, m.ID)
	require.NoError(t, err)
	got, _ := reloaded.Get()
	require.NotNil(t, got)
	assert.NotSame(t, m, got)
	assert.Same(t, team, got.Team(), "cached team resolves the reference")

	u.Clear()
	assert.Zero(t, u.Size())
}

func TestUnitOfWorkIgnoresUnknownEntities(t *testing.T) {
	u := NewUnitOfWork(nil)
	u.Detach("member")
	u.attach(entity.NewMember("unsaved"))
	assert.False(t, u.Contains(42))
	assert.Zero(t, u.Size())
}

func TestFreshUnitPerCall(t *testing.T) {
	db := openTestDB(t, false)
	ctx := context.Background()
	repo := NewMemberRepository(db)

	m := entity.NewMember("member1")
	require.NoError(t, repo.Save(ctx, m))

	first, err := repo.FindByID(ctx, m.ID)
	require.NoError(t, err)
	second, err := repo.FindByID(ctx, m.ID)
	require.NoError(t, err)
	a, _ := first.Get()
	b, _ := second.Get()
	assert.NotSame(t, a, b)
	assert.Equal(t, a, b)
}

func TestRepositoriesWithoutDatabase(t *testing.T) {
	ctx := context.Background()

	_, err := NewMemberRepository(nil).Count(ctx)
	assert.ErrorIs(t, err, ErrNoDatabase)
	assert.ErrorIs(t, NewMemberRepository(nil).Save(ctx, entity.NewMember("member1")), ErrNoDatabase)
	_, err = NewTeamRepository(nil).FindByID(ctx, 1)
	assert.ErrorIs(t, err, ErrNoDatabase)
	_, err = NewLazyTeamRepository(nil).FindAll(ctx)
	assert.ErrorIs(t, err, ErrNoDatabase)
}

func TestLazyRepositoryResolvesOnEachCall(t *testing.T) {
	ctx := context.Background()
	var current bun.IDB
	members := NewLazyMemberRepository(func() bun.IDB { return current })
	teams := NewLazyTeamRepository(func() bun.IDB { return current })

	_, err := members.Count(ctx)
	require.ErrorIs(t, err, ErrNoDatabase)

	current = openTestDB(t, false)
	team := entity.NewTeam("teamA")
	require.NoError(t, teams.Save(ctx, team))
	require.NoError(t, members.Save(ctx, entity.NewMemberWithTeam("member1", 10, team)))

	count, err := members.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}
