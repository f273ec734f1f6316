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
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tomoncle/datajpa/database"
	"github.com/tomoncle/datajpa/entity"
)

func TestTeamCrud(t *testing.T) {
	db := openTestDB(t, false)
	ctx := context.Background()
	repo := NewTeamRepository(db)

	teams := saveTeams(t, repo, "teamA", "teamB")
	require.NotZero(t, teams[0].ID)

	found, err := repo.FindByID(ctx, teams[1].ID)
	require.NoError(t, err)
	got, ok := found.Get()
	require.True(t, ok)
	assert.Equal(t, "teamB", got.Name)

	teams[1].Name = "teamC"
	require.NoError(t, repo.Save(ctx, teams[1]))
	byName, err := repo.FindByName(ctx, "teamC")
	require.NoError(t, err)
	require.Len(t, byName, 1)
	assert.Equal(t, teams[1].ID, byName[0].ID)

	all, err := repo.FindAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	require.NoError(t, repo.Delete(ctx, teams[0]))
	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	missing, err := repo.FindByID(ctx, teams[0].ID)
	require.NoError(t, err)
	assert.True(t, missing.IsEmpty())

	dup := &entity.Team{ID: teams[1].ID, Name: "dup"}
	assert.ErrorIs(t, repo.Persist(ctx, dup), ErrConstraintViolation)
}

func TestTeamFindWithMembers(t *testing.T) {
	db := openTestDB(t, false)
	ctx := context.Background()
	teams := saveTeams(t, NewTeamRepository(db), "teamA", "teamB")
	members := NewMemberRepository(db)
	require.NoError(t, members.SaveAll(ctx,
		entity.NewMemberWithTeam("member1", 10, teams[0]),
		entity.NewMemberWithTeam("member2", 20, teams[0]),
		entity.NewMemberWithTeam("member3", 30, teams[1]),
	))

	found, err := NewTeamRepository(db).FindWithMembers(ctx, teams[0].ID)
	require.NoError(t, err)
	team, ok := found.Get()
	require.True(t, ok)
	require.Len(t, team.Members(), 2)
	assert.Equal(t, "member1", team.Members()[0].UserName)
	for _, m := range team.Members() {
		assert.Same(t, team, m.Team())
	}

	missing, err := NewTeamRepository(db).FindWithMembers(ctx, 999)
	require.NoError(t, err)
	assert.True(t, missing.IsEmpty())
}

func TestTeamDeleteDoesNotCascade(t *testing.T) {
	db := openTestDB(t, false)
	ctx := context.Background()
	teams := saveTeams(t, NewTeamRepository(db), "teamA")
	members := NewMemberRepository(db)
	require.NoError(t, members.Save(ctx, entity.NewMemberWithTeam("member1", 10, teams[0])))

	require.NoError(t, NewTeamRepository(db).DeleteByID(ctx, teams[0].ID))

	count, err := members.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestTeamDeleteWithForeignKey(t *testing.T) {
	db := openTestDB(t, true)
	ctx := context.Background()

	teams := saveTeams(t, NewTeamRepository(db), "teamA")
	members := NewMemberRepository(db)
	require.NoError(t, members.Save(ctx, entity.NewMemberWithTeam("member1", 10, teams[0])))

	err := NewTeamRepository(db).Delete(ctx, teams[0])
	var cve *ConstraintViolationError
	require.True(t, errors.As(err, &cve), "got %v", err)
	assert.Equal(t, database.ForeignKeyViolationErr, cve.Kind)

	count, err := members.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}
