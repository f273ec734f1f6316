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

	"github.com/tomoncle/datajpa/entity"
	"github.com/tomoncle/datajpa/types"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/schema"
)

// QueryOption customises a select query, e.g. WithRelation("Team").
type QueryOption func(q *bun.SelectQuery) *bun.SelectQuery

// CrudRepository defines basic CRUD operations over a bun model type.
type CrudRepository[T any] interface {
	// GetOne returns nil, nil when no row has the id.
	GetOne(ctx context.Context, id any) (*T, error)

	GetAll(ctx context.Context, opts ...QueryOption) ([]*T, error)

	List(ctx context.Context, filter *types.QueryFilter, opts ...QueryOption) ([]*T, error)

	Query(ctx context.Context, query string, args ...interface{}) ([]*T, error)

	Count(ctx context.Context, filter *types.QueryFilter) (int, error)

	Create(ctx context.Context, entity ...*T) error

	Upsert(ctx context.Context, fields []string, duplicateKeys []string, entity ...*T) error

	// Update writes entity by primary key and returns the affected row count.
	Update(ctx context.Context, entity *T) (int64, error)

	Delete(ctx context.Context, id any) error

	DeleteAll(ctx context.Context) error
}

// PageQueryRepository defines zero-based paging over a bun model type.
type PageQueryRepository[T any] interface {
	Page(ctx context.Context, page *types.PageRequest, orders []string, opts ...QueryOption) (*types.Page[T], error)

	// PageWithCount counts with countOpts instead of the content options.
	PageWithCount(ctx context.Context, page *types.PageRequest, orders []string, contentOpts, countOpts []QueryOption) (*types.Page[T], error)

	// Slice fetches one row beyond the page size instead of counting.
	Slice(ctx context.Context, page *types.PageRequest, orders []string, opts ...QueryOption) (*types.Slice[T], error)
}

// Repository combines CRUD and paging and exposes Bun query builders for
// advanced use cases. WithTx rebinds the repository to a transaction.
type Repository[T any] interface {
	CrudRepository[T]
	PageQueryRepository[T]
	WithTx(tx bun.IDB) Repository[T]
	Dialect() schema.Dialect
	NewSelect() *bun.SelectQuery
	NewInsert() *bun.InsertQuery
	NewUpdate() *bun.UpdateQuery
	NewDelete() *bun.DeleteQuery
}

// MemberRepository is the data-access contract for members. Finders never
// report "not found" as an error: list results are empty, single results are
// nil and optional results are empty.
type MemberRepository interface {
	// Save inserts a member with ID 0 and upserts any other.
	Save(ctx context.Context, m *entity.Member) error
	SaveAll(ctx context.Context, members ...*entity.Member) error
	// Persist always inserts, so an existing ID is a constraint violation.
	Persist(ctx context.Context, m *entity.Member) error
	FindByID(ctx context.Context, id int64) (types.Optional[entity.Member], error)
	// FindAll loads every member with its team.
	FindAll(ctx context.Context) ([]*entity.Member, error)
	Count(ctx context.Context) (int, error)
	Delete(ctx context.Context, m *entity.Member) error
	DeleteByID(ctx context.Context, id int64) error
	DeleteAll(ctx context.Context) error

	FindByUsernameAndAgeGreaterThan(ctx context.Context, username string, age int) ([]*entity.Member, error)
	FindByUsername(ctx context.Context, username string) ([]*entity.Member, error)
	FindUser(ctx context.Context, username string, age int) ([]*entity.Member, error)
	FindUsernameList(ctx context.Context) ([]string, error)
	// FindMemberDto inner joins team: members without a team are left out.
	FindMemberDto(ctx context.Context) ([]entity.MemberDto, error)
	// FindMemberDtoLeftJoin keeps members without a team, with an empty TeamName.
	FindMemberDtoLeftJoin(ctx context.Context) ([]entity.MemberDto, error)
	FindByNames(ctx context.Context, names []string) ([]*entity.Member, error)

	FindListByUsername(ctx context.Context, username string) ([]*entity.Member, error)
	// FindMemberByUsername returns nil when absent and ErrIncorrectResultSize
	// when more than one member matches.
	FindMemberByUsername(ctx context.Context, username string) (*entity.Member, error)
	FindOptionalMemberByUsername(ctx context.Context, username string) (types.Optional[entity.Member], error)

	FindByAge(ctx context.Context, age int, page *types.PageRequest) (*types.Page[entity.Member], error)
	FindByAgeSlice(ctx context.Context, age int, page *types.PageRequest) (*types.Slice[entity.Member], error)
	// FindByAgeAddCount joins team for the content and counts without the join.
	FindByAgeAddCount(ctx context.Context, age int, page *types.PageRequest) (*types.Page[entity.Member], error)

	// BulkAgePlus runs "age = age + 1" for every member with age >= age and
	// returns the affected row count. Members already loaded in the unit of
	// work keep their old age until the unit is cleared, which only happens
	// here with ClearAutomatically.
	BulkAgePlus(ctx context.Context, age int, opts ...BulkOption) (int64, error)

	FindMemberFetchJoin(ctx context.Context) ([]*entity.Member, error)
	FindMemberEntityGraph(ctx context.Context) ([]*entity.Member, error)
	FindEntityGraphByUsername(ctx context.Context, username string) ([]*entity.Member, error)
	// LoadTeam resolves the lazy team reference of m; nil when m has no team.
	LoadTeam(ctx context.Context, m *entity.Member) (*entity.Team, error)
}

// TeamRepository is the data-access contract for teams. Deleting a team
// never deletes its members.
type TeamRepository interface {
	Save(ctx context.Context, t *entity.Team) error
	Persist(ctx context.Context, t *entity.Team) error
	FindByID(ctx context.Context, id int64) (types.Optional[entity.Team], error)
	FindAll(ctx context.Context) ([]*entity.Team, error)
	Count(ctx context.Context) (int, error)
	Delete(ctx context.Context, t *entity.Team) error
	DeleteByID(ctx context.Context, id int64) error
	// FindWithMembers loads the team and all of its members.
	FindWithMembers(ctx context.Context, id int64) (types.Optional[entity.Team], error)
	FindByName(ctx context.Context, name string) ([]*entity.Team, error)
}
