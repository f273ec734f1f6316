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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tomoncle/datajpa/types"
	"github.com/uptrace/bun"
)

func TestRepositoryCrud(t *testing.T) {
	db := openTestDB(t, false)
	ctx := context.Background()
	repo := NewRepository[teamModel](db)

	teams := []*teamModel{{Name: "a"}, {Name: "b"}, {Name: "c"}}
	require.NoError(t, repo.Create(ctx, teams...))
	for _, team := range teams {
		assert.NotZero(t, team.ID)
	}

	one, err := repo.GetOne(ctx, teams[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "a", one.Name)

	missing, err := repo.GetOne(ctx, 999)
	require.NoError(t, err)
	assert.Nil(t, missing)

	teams[0].Name = "a2"
	n, err := repo.Update(ctx, teams[0])
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	found, err := repo.Query(ctx, "t.name = ?", "a2")
	require.NoError(t, err)
	assert.Len(t, found, 1)

	count, err := repo.Count(ctx, types.NewQueryFilter("t.name <> ?", "b"))
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	require.NoError(t, repo.Delete(ctx, teams[1].ID))
	all, err := repo.GetAll(ctx, WithOrder("t.id DESC"))
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "c", all[0].Name)

	require.NoError(t, repo.DeleteAll(ctx))
	count, err = repo.Count(ctx, nil)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestRepositoryUpsert(t *testing.T) {
	db := openTestDB(t, false)
	ctx := context.Background()
	repo := NewRepository[teamModel](db)

	require.NoError(t, repo.Create(ctx, &teamModel{Name: "a"}))
	first, err := repo.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, first, 1)

	err = repo.Upsert(ctx, []string{"name"}, []string{"id"},
		&teamModel{ID: first[0].ID, Name: "renamed"},
		&teamModel{ID: first[0].ID + 1, Name: "new"},
	)
	require.NoError(t, err)

	all, err := repo.GetAll(ctx, WithOrder("t.id ASC"))
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "renamed", all[0].Name)
	assert.Equal(t, "new", all[1].Name)

	assert.Error(t, repo.Upsert(ctx, nil, nil, all[0]))
	assert.NoError(t, repo.Upsert(ctx, []string{"name"}, nil))
}

func TestRepositoryPaging(t *testing.T) {
	db := openTestDB(t, false)
	ctx := context.Background()
	repo := NewRepository[teamModel](db)
	for _, name := range []string{"a", "b", "c", "d"} {
		require.NoError(t, repo.Create(ctx, &teamModel{Name: name}))
	}

	req := types.NewPageRequestWithFilter(1, 2, types.NewQueryFilter("t.name <> ?", "a"))
	page, err := repo.Page(ctx, req, []string{"t.name ASC"})
	require.NoError(t, err)
	assert.EqualValues(t, 3, page.TotalElements)
	require.Len(t, page.Content, 1)
	assert.Equal(t, "d", page.Content[0].Name)
	assert.True(t, page.IsLast())

	slice, err := repo.Slice(ctx, types.PageRequestOf(0, 3), []string{"t.id ASC"})
	require.NoError(t, err)
	assert.Len(t, slice.Content, 3)
	assert.True(t, slice.HasNext())

	empty, err := repo.Page(ctx, types.PageRequestOf(0, 2), nil, WithWhere("t.name = ?", "zzz"))
	require.NoError(t, err)
	assert.Empty(t, empty.Content)
	assert.Equal(t, 0, empty.TotalPages())
}

func TestRepositoryWithTx(t *testing.T) {
	db := openTestDB(t, false)
	ctx := context.Background()
	repo := NewRepository[teamModel](db)

	err := db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		txRepo := repo.WithTx(tx)
		require.NoError(t, txRepo.Create(ctx, &teamModel{Name: "in-tx"}))
		n, err := txRepo.Count(ctx, nil)
		require.NoError(t, err)
		assert.Equal(t, 1, n)
		return sql.ErrTxDone
	})
	assert.ErrorIs(t, err, sql.ErrTxDone)

	n, err := repo.Count(ctx, nil)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Equal(t, db.Dialect().Name(), repo.Dialect().Name())
}
