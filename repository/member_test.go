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
	"github.com/tomoncle/datajpa/types"
)

func TestMemberSaveFindDelete(t *testing.T) {
	db := openTestDB(t, false)
	ctx := context.Background()
	repo := NewMemberRepository(db)

	m1 := entity.NewMemberWithAge("member1", 10)
	m2 := entity.NewMemberWithAge("member2", 20)
	require.NoError(t, repo.SaveAll(ctx, m1, m2))
	require.NotZero(t, m1.ID)
	require.NotEqual(t, m1.ID, m2.ID)

	found, err := repo.FindByID(ctx, m1.ID)
	require.NoError(t, err)
	got, ok := found.Get()
	require.True(t, ok)
	assert.Equal(t, m1.ID, got.ID)
	assert.Equal(t, m1.UserName, got.UserName)
	assert.Equal(t, m1.Age, got.Age)
	assert.False(t, got.HasTeam())

	all, err := repo.FindAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	require.NoError(t, repo.Delete(ctx, m1))
	require.NoError(t, repo.DeleteByID(ctx, m2.ID))
	require.NoError(t, repo.DeleteByID(ctx, 12345))
	count, err = repo.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)

	missing, err := repo.FindByID(ctx, m1.ID)
	require.NoError(t, err)
	assert.True(t, missing.IsEmpty())
}

func TestMemberDeleteAll(t *testing.T) {
	db := openTestDB(t, false)
	ctx := context.Background()
	repo := NewMemberRepository(db)

	for _, name := range []string{"a", "b", "c"} {
		require.NoError(t, repo.Save(ctx, entity.NewMember(name)))
	}
	require.NoError(t, repo.DeleteAll(ctx))
	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestMemberSaveUpdatesExisting(t *testing.T) {
	db := openTestDB(t, false)
	ctx := context.Background()
	repo := NewMemberRepository(db)

	m := entity.NewMemberWithAge("member1", 10)
	require.NoError(t, repo.Save(ctx, m))
	id := m.ID

	m.Age = 11
	m.UserName = "renamed"
	require.NoError(t, repo.Save(ctx, m))
	assert.Equal(t, id, m.ID)

	found, err := repo.FindByID(ctx, id)
	require.NoError(t, err)
	got, _ := found.Get()
	require.NotNil(t, got)
	assert.Equal(t, 11, got.Age)
	assert.Equal(t, "renamed", got.UserName)

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestMemberPersistDuplicateIsConstraintViolation(t *testing.T) {
	db := openTestDB(t, false)
	ctx := context.Background()
	repo := NewMemberRepository(db)

	m := entity.NewMember("member1")
	require.NoError(t, repo.Persist(ctx, m))

	dup := entity.LoadMember(m.ID, "member2", 3, 0)
	err := repo.Persist(ctx, dup)
	require.Error(t, err)

	var cve *ConstraintViolationError
	require.True(t, errors.As(err, &cve))
	assert.Equal(t, database.DuplicateKeyErr, cve.Kind)
	assert.Equal(t, "persist member", cve.Op)
	assert.ErrorIs(t, err, ErrConstraintViolation)
}

func TestMemberSaveRejectsUnsavedTeam(t *testing.T) {
	db := openTestDB(t, false)
	repo := NewMemberRepository(db)

	m := entity.NewMemberWithTeam("member1", 10, entity.NewTeam("unsaved"))
	err := repo.Save(context.Background(), m)
	assert.ErrorIs(t, err, ErrTransientTeam)
	assert.Zero(t, m.ID)
}

func TestDerivedAndNamedQueries(t *testing.T) {
	db := openTestDB(t, false)
	ctx := context.Background()
	repo := NewMemberRepository(db)

	require.NoError(t, repo.SaveAll(ctx,
		entity.NewMemberWithAge("AAA", 10),
		entity.NewMemberWithAge("AAA", 20),
		entity.NewMemberWithAge("BBB", 20),
	))

	older, err := repo.FindByUsernameAndAgeGreaterThan(ctx, "AAA", 15)
	require.NoError(t, err)
	require.Len(t, older, 1)
	assert.Equal(t, 20, older[0].Age)

	byName, err := repo.FindByUsername(ctx, "AAA")
	require.NoError(t, err)
	assert.Len(t, byName, 2)

	users, err := repo.FindUser(ctx, "AAA", 10)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "AAA", users[0].UserName)

	names, err := repo.FindUsernameList(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"AAA", "AAA", "BBB"}, names)

	in, err := repo.FindByNames(ctx, []string{"AAA", "BBB", "CCC"})
	require.NoError(t, err)
	assert.Len(t, in, 3)

	none, err := repo.FindByNames(ctx, nil)
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestMemberDtoProjection(t *testing.T) {
	db := openTestDB(t, false)
	ctx := context.Background()
	teams := saveTeams(t, NewTeamRepository(db), "teamA")
	repo := NewMemberRepository(db)

	m1 := entity.NewMemberWithTeam("member1", 10, teams[0])
	m2 := entity.NewMemberWithAge("loner", 20)
	require.NoError(t, repo.SaveAll(ctx, m1, m2))

	dtos, err := repo.FindMemberDto(ctx)
	require.NoError(t, err)
	assert.Equal(t, []entity.MemberDto{entity.NewMemberDto(m1.ID, "member1", "teamA")}, dtos)

	left, err := repo.FindMemberDtoLeftJoin(ctx)
	require.NoError(t, err)
	assert.Equal(t, []entity.MemberDto{
		entity.NewMemberDto(m1.ID, "member1", "teamA"),
		entity.NewMemberDto(m2.ID, "loner", ""),
	}, left)
}

func TestAbsenceContracts(t *testing.T) {
	db := openTestDB(t, false)
	ctx := context.Background()
	repo := NewMemberRepository(db)

	list, err := repo.FindListByUsername(ctx, "nobody")
	require.NoError(t, err)
	assert.NotNil(t, list)
	assert.Empty(t, list)

	single, err := repo.FindMemberByUsername(ctx, "nobody")
	require.NoError(t, err)
	assert.Nil(t, single)

	opt, err := repo.FindOptionalMemberByUsername(ctx, "nobody")
	require.NoError(t, err)
	assert.True(t, opt.IsEmpty())

	require.NoError(t, repo.Save(ctx, entity.NewMemberWithAge("twin", 1)))
	single, err = repo.FindMemberByUsername(ctx, "twin")
	require.NoError(t, err)
	require.NotNil(t, single)
	assert.Equal(t, "twin", single.UserName)

	require.NoError(t, repo.Save(ctx, entity.NewMemberWithAge("twin", 2)))
	_, err = repo.FindMemberByUsername(ctx, "twin")
	assert.ErrorIs(t, err, ErrIncorrectResultSize)
	_, err = repo.FindOptionalMemberByUsername(ctx, "twin")
	assert.ErrorIs(t, err, ErrIncorrectResultSize)
}

func saveSameAge(t *testing.T, repo MemberRepository, age int, names ...string) {
	t.Helper()
	for _, name := range names {
		require.NoError(t, repo.Save(context.Background(), entity.NewMemberWithAge(name, age)))
	}
}

func TestFindByAgePage(t *testing.T) {
	db := openTestDB(t, false)
	ctx := context.Background()
	repo := NewMemberRepository(db)
	saveSameAge(t, repo, 10, "member1", "member2", "member3", "member4", "member5")
	saveSameAge(t, repo, 11, "other")

	req := types.PageRequestOf(0, 3, types.Order{Property: "username", Direction: types.DESC})
	page, err := repo.FindByAge(ctx, 10, req)
	require.NoError(t, err)
	assert.Len(t, page.Content, 3)
	assert.EqualValues(t, 5, page.TotalElements)
	assert.Equal(t, 0, page.Number)
	assert.Equal(t, 2, page.TotalPages())
	assert.True(t, page.IsFirst())
	assert.True(t, page.HasNext())
	assert.Equal(t, "member5", page.Content[0].UserName)
	assert.Equal(t, "member3", page.Content[2].UserName)

	second, err := repo.FindByAge(ctx, 10, req.Next())
	require.NoError(t, err)
	assert.Len(t, second.Content, 2)
	assert.True(t, second.IsLast())
	assert.Equal(t, "member1", second.Content[1].UserName)

	beyond, err := repo.FindByAge(ctx, 10, types.PageRequestOf(7, 3))
	require.NoError(t, err)
	assert.Empty(t, beyond.Content)
	assert.EqualValues(t, 5, beyond.TotalElements)
	assert.False(t, beyond.HasNext())

	_, err = repo.FindByAge(ctx, 10, types.PageRequestOf(0, 3, types.Order{Property: "password"}))
	assert.ErrorIs(t, err, ErrUnknownSortProperty)
}

func TestFindByAgeSlice(t *testing.T) {
	db := openTestDB(t, false)
	ctx := context.Background()
	repo := NewMemberRepository(db)
	saveSameAge(t, repo, 10, "member1", "member2", "member3", "member4", "member5")

	req := types.PageRequestOf(0, 3, types.Order{Property: "userName", Direction: types.ASC})
	slice, err := repo.FindByAgeSlice(ctx, 10, req)
	require.NoError(t, err)
	assert.Len(t, slice.Content, 3)
	assert.True(t, slice.HasNext())
	assert.True(t, slice.IsFirst())

	last, err := repo.FindByAgeSlice(ctx, 10, req.Next())
	require.NoError(t, err)
	assert.Len(t, last.Content, 2)
	assert.False(t, last.HasNext())
	assert.True(t, last.HasPrevious())

	empty, err := repo.FindByAgeSlice(ctx, 99, req)
	require.NoError(t, err)
	assert.Empty(t, empty.Content)
	assert.False(t, empty.HasNext())
}

func TestFindByAgeWithoutPageRequest(t *testing.T) {
	db := openTestDB(t, false)
	ctx := context.Background()
	repo := NewMemberRepository(db)
	saveSameAge(t, repo, 10, "member1", "member2")

	page, err := repo.FindByAge(ctx, 10, nil)
	require.NoError(t, err)
	assert.Len(t, page.Content, 2)
	assert.Equal(t, 0, page.Number)
	assert.Equal(t, types.DefaultPageSize, page.Size)

	slice, err := repo.FindByAgeSlice(ctx, 10, nil)
	require.NoError(t, err)
	assert.Len(t, slice.Content, 2)
	assert.False(t, slice.HasNext())

	counted, err := repo.FindByAgeAddCount(ctx, 10, nil)
	require.NoError(t, err)
	assert.EqualValues(t, 2, counted.TotalElements)
}

func TestFindByAgeAddCount(t *testing.T) {
	db := openTestDB(t, false)
	ctx := context.Background()
	teams := saveTeams(t, NewTeamRepository(db), "teamA")
	repo := NewMemberRepository(db)

	require.NoError(t, repo.SaveAll(ctx,
		entity.NewMemberWithTeam("member1", 10, teams[0]),
		entity.NewMemberWithAge("member2", 10),
		entity.NewMemberWithTeam("member3", 10, teams[0]),
	))

	page, err := repo.FindByAgeAddCount(ctx, 10, types.PageRequestOf(0, 2))
	require.NoError(t, err)
	assert.EqualValues(t, 3, page.TotalElements)
	require.Len(t, page.Content, 2)
	require.NotNil(t, page.Content[0].Team())
	assert.Equal(t, "teamA", page.Content[0].Team().Name)
	assert.False(t, page.Content[1].HasTeam())
}

func TestBulkAgePlusStaleWorkingSet(t *testing.T) {
	db := openTestDB(t, false)
	ctx := context.Background()

	err := RunInUnit(ctx, db, func(ctx context.Context, u *UnitOfWork) error {
		repo := u.Members()
		require.NoError(t, repo.SaveAll(ctx,
			entity.NewMemberWithAge("member1", 10),
			entity.NewMemberWithAge("member2", 19),
			entity.NewMemberWithAge("member3", 20),
			entity.NewMemberWithAge("member4", 21),
			entity.NewMemberWithAge("member5", 40),
		))

		n, err := repo.BulkAgePlus(ctx, 20)
		require.NoError(t, err)
		assert.EqualValues(t, 3, n)

		stale, err := repo.FindMemberByUsername(ctx, "member5")
		require.NoError(t, err)
		assert.Equal(t, 40, stale.Age)

		u.Clear()
		fresh, err := repo.FindMemberByUsername(ctx, "member5")
		require.NoError(t, err)
		assert.Equal(t, 41, fresh.Age)
		assert.NotSame(t, stale, fresh)

		untouched, err := repo.FindMemberByUsername(ctx, "member2")
		require.NoError(t, err)
		assert.Equal(t, 19, untouched.Age)
		return nil
	})
	require.NoError(t, err)
}

func TestBulkAgePlusClearAutomatically(t *testing.T) {
	db := openTestDB(t, false)
	ctx := context.Background()

	err := RunInUnit(ctx, db, func(ctx context.Context, u *UnitOfWork) error {
		repo := u.Members()
		m := entity.NewMemberWithAge("member1", 30)
		require.NoError(t, repo.Save(ctx, m))
		assert.True(t, u.Contains(m))

		n, err := repo.BulkAgePlus(ctx, 20, ClearAutomatically())
		require.NoError(t, err)
		assert.EqualValues(t, 1, n)
		assert.Zero(t, u.Size())

		found, err := repo.FindByID(ctx, m.ID)
		require.NoError(t, err)
		got, _ := found.Get()
		require.NotNil(t, got)
		assert.Equal(t, 31, got.Age)

		none, err := repo.BulkAgePlus(ctx, 100)
		require.NoError(t, err)
		assert.Zero(t, none)
		return nil
	})
	require.NoError(t, err)
}

func TestFetchJoinAndLazyTeam(t *testing.T) {
	db := openTestDB(t, false)
	ctx := context.Background()
	teams := saveTeams(t, NewTeamRepository(db), "teamA", "teamB")
	repo := NewMemberRepository(db)

	m1 := entity.NewMemberWithTeam("member1", 10, teams[0])
	m2 := entity.NewMemberWithTeam("member2", 10, teams[1])
	m3 := entity.NewMemberWithAge("member3", 10)
	require.NoError(t, repo.SaveAll(ctx, m1, m2, m3))

	for _, load := range []func(context.Context) ([]*entity.Member, error){
		repo.FindMemberFetchJoin,
		repo.FindMemberEntityGraph,
		repo.FindAll,
	} {
		members, err := load(ctx)
		require.NoError(t, err)
		require.Len(t, members, 3)
		require.NotNil(t, members[0].Team())
		assert.Equal(t, "teamA", members[0].Team().Name)
		assert.Equal(t, "teamB", members[1].Team().Name)
		assert.Nil(t, members[2].Team())
	}

	graph, err := repo.FindEntityGraphByUsername(ctx, "member2")
	require.NoError(t, err)
	require.Len(t, graph, 1)
	assert.Equal(t, "teamB", graph[0].Team().Name)

	found, err := repo.FindByID(ctx, m1.ID)
	require.NoError(t, err)
	lazy, _ := found.Get()
	require.NotNil(t, lazy)
	assert.False(t, lazy.TeamResolved())
	assert.Equal(t, teams[0].ID, lazy.TeamID())

	team, err := repo.LoadTeam(ctx, lazy)
	require.NoError(t, err)
	require.NotNil(t, team)
	assert.Equal(t, "teamA", team.Name)
	assert.Same(t, team, lazy.Team())
	assert.True(t, team.HasMember(lazy))

	none, err := repo.LoadTeam(ctx, m3)
	require.NoError(t, err)
	assert.Nil(t, none)
}

func TestChangeTeamIsPersisted(t *testing.T) {
	db := openTestDB(t, false)
	ctx := context.Background()
	teams := saveTeams(t, NewTeamRepository(db), "teamA", "teamB")
	repo := NewMemberRepository(db)

	m := entity.NewMemberWithTeam("member1", 10, teams[0])
	require.NoError(t, repo.Save(ctx, m))

	m.ChangeTeam(teams[1])
	assert.True(t, teams[1].HasMember(m))
	assert.False(t, teams[0].HasMember(m))
	require.NoError(t, repo.Save(ctx, m))

	dtos, err := repo.FindMemberDto(ctx)
	require.NoError(t, err)
	require.Len(t, dtos, 1)
	assert.Equal(t, "teamB", dtos[0].TeamName)
}

func TestRunInUnitRollsBack(t *testing.T) {
	db := openTestDB(t, false)
	ctx := context.Background()
	boom := errors.New("boom")

	var unit *UnitOfWork
	err := RunInUnit(ctx, db, func(ctx context.Context, u *UnitOfWork) error {
		unit = u
		require.NoError(t, u.Members().Save(ctx, entity.NewMember("member1")))
		assert.Equal(t, 1, u.Size())
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Zero(t, unit.Size())

	count, err := NewMemberRepository(db).Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
}
