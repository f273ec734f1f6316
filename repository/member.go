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
	"fmt"

	"github.com/tomoncle/datajpa/entity"
	"github.com/tomoncle/datajpa/types"
	"github.com/uptrace/bun"
)

var memberUpsertFields = []string{"username", "age", "team_id"}

type bulkOptions struct {
	clear bool
}

// BulkOption configures a bulk update.
type BulkOption func(*bulkOptions)

// ClearAutomatically clears the unit of work after the bulk update, so that
// later reads return the updated rows.
func ClearAutomatically() BulkOption {
	return func(o *bulkOptions) { o.clear = true }
}

type memberRepository struct {
	db   func() bun.IDB
	unit *UnitOfWork
}

// NewMemberRepository returns a MemberRepository over db. Each call runs in
// its own unit of work; use UnitOfWork.Members to share one across calls.
func NewMemberRepository(db bun.IDB) MemberRepository {
	return &memberRepository{db: fixedDB(db)}
}

// NewLazyMemberRepository resolves the database on every call. Calls made
// while resolve returns nil fail with ErrNoDatabase.
func NewLazyMemberRepository(resolve func() bun.IDB) MemberRepository {
	return &memberRepository{db: resolve}
}

func (r *memberRepository) uow() (*UnitOfWork, error) {
	return unitFor(r.unit, r.db)
}

func memberRows(u *UnitOfWork) *baseRepositoryImpl[memberModel] {
	return newBaseRepository[memberModel](u.db)
}

func (r *memberRepository) Save(ctx context.Context, m *entity.Member) error {
	return r.write(ctx, "save member", m, false)
}

func (r *memberRepository) SaveAll(ctx context.Context, members ...*entity.Member) error {
	for _, m := range members {
		if err := r.Save(ctx, m); err != nil {
			return err
		}
	}
	return nil
}

func (r *memberRepository) Persist(ctx context.Context, m *entity.Member) error {
	return r.write(ctx, "persist member", m, true)
}

// write inserts m when it has no id or insertOnly is set, and upserts it otherwise.
func (r *memberRepository) write(ctx context.Context, op string, m *entity.Member, insertOnly bool) error {
	if m == nil {
		return fmt.Errorf("%s: nil member", op)
	}
	if t := m.Team(); t != nil && t.ID == 0 {
		return fmt.Errorf("%s %q: %w", op, m.UserName, ErrTransientTeam)
	}
	u, err := r.uow()
	if err != nil {
		return err
	}
	row := toMemberModel(m)
	rows := memberRows(u)

	if row.ID == 0 || insertOnly {
		err = rows.Create(ctx, row)
	} else {
		err = rows.Upsert(ctx, memberUpsertFields, []string{"id"}, row)
	}
	if err != nil {
		return translate(op, err)
	}
	m.ID = row.ID
	u.attach(m)
	return nil
}

func (r *memberRepository) FindByID(ctx context.Context, id int64) (types.Optional[entity.Member], error) {
	u, err := r.uow()
	if err != nil {
		return types.Empty[entity.Member](), err
	}
	if m := u.cachedMember(id); m != nil {
		return types.OptionalOf(m), nil
	}
	row, err := memberRows(u).GetOne(ctx, id)
	if err != nil {
		return types.Empty[entity.Member](), fmt.Errorf("find member %d: %w", id, err)
	}
	if row == nil {
		return types.Empty[entity.Member](), nil
	}
	return types.OptionalOf(u.member(row)), nil
}

func (r *memberRepository) FindAll(ctx context.Context) ([]*entity.Member, error) {
	return r.list(ctx, "find all members", WithRelation("Team"), WithOrder("m.id ASC"))
}

func (r *memberRepository) Count(ctx context.Context) (int, error) {
	u, err := r.uow()
	if err != nil {
		return 0, err
	}
	return memberRows(u).Count(ctx, nil)
}

func (r *memberRepository) Delete(ctx context.Context, m *entity.Member) error {
	if m == nil {
		return nil
	}
	u, err := r.uow()
	if err != nil {
		return err
	}
	if err := memberRows(u).Delete(ctx, m.ID); err != nil {
		return translate("delete member", err)
	}
	u.Detach(m)
	return nil
}

func (r *memberRepository) DeleteByID(ctx context.Context, id int64) error {
	u, err := r.uow()
	if err != nil {
		return err
	}
	if err := memberRows(u).Delete(ctx, id); err != nil {
		return translate("delete member", err)
	}
	if m := u.cachedMember(id); m != nil {
		u.Detach(m)
	}
	return nil
}

func (r *memberRepository) DeleteAll(ctx context.Context) error {
	u, err := r.uow()
	if err != nil {
		return err
	}
	if err := memberRows(u).DeleteAll(ctx); err != nil {
		return translate("delete all members", err)
	}
	u.evict(memberTable)
	return nil
}

func (r *memberRepository) list(ctx context.Context, op string, opts ...QueryOption) ([]*entity.Member, error) {
	u, err := r.uow()
	if err != nil {
		return nil, err
	}
	rows, err := memberRows(u).GetAll(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return u.members(rows), nil
}

func (r *memberRepository) named(ctx context.Context, name QueryName, params types.Params, extra ...QueryOption) ([]*entity.Member, error) {
	opts, err := namedOptions(name, params)
	if err != nil {
		return nil, err
	}
	opts = append(opts, extra...)
	return r.list(ctx, name.Name(), append(opts, WithOrder("m.id ASC"))...)
}

func (r *memberRepository) FindByUsernameAndAgeGreaterThan(ctx context.Context, username string, age int) ([]*entity.Member, error) {
	return r.named(ctx, MemberFindByUsernameAndAgeGreaterThan, types.Params{"username": username, "age": age})
}

func (r *memberRepository) FindByUsername(ctx context.Context, username string) ([]*entity.Member, error) {
	return r.named(ctx, MemberFindByUsername, types.Params{"username": username})
}

func (r *memberRepository) FindUser(ctx context.Context, username string, age int) ([]*entity.Member, error) {
	return r.named(ctx, MemberFindUser, types.Params{"username": username, "age": age})
}

func (r *memberRepository) FindUsernameList(ctx context.Context) ([]string, error) {
	u, err := r.uow()
	if err != nil {
		return nil, err
	}
	names := make([]string, 0)
	err = memberRows(u).NewSelect().
		Column("username").
		OrderExpr("m.id ASC").
		Scan(ctx, &names)
	if err != nil {
		return nil, fmt.Errorf("find username list: %w", err)
	}
	return names, nil
}

func (r *memberRepository) FindMemberDto(ctx context.Context) ([]entity.MemberDto, error) {
	return r.memberDtos(ctx, "JOIN team AS t ON t.id = m.team_id")
}

func (r *memberRepository) FindMemberDtoLeftJoin(ctx context.Context) ([]entity.MemberDto, error) {
	return r.memberDtos(ctx, "LEFT JOIN team AS t ON t.id = m.team_id")
}

func (r *memberRepository) memberDtos(ctx context.Context, join string) ([]entity.MemberDto, error) {
	u, err := r.uow()
	if err != nil {
		return nil, err
	}
	dtos := make([]entity.MemberDto, 0)
	err = memberRows(u).NewSelect().
		ColumnExpr("m.id AS id").
		ColumnExpr("m.username AS username").
		ColumnExpr("COALESCE(t.name, '') AS team_name").
		Join(join).
		OrderExpr("m.id ASC").
		Scan(ctx, &dtos)
	if err != nil {
		return nil, fmt.Errorf("find member dto: %w", err)
	}
	return dtos, nil
}

// FindByNames issues no query for an empty names.
func (r *memberRepository) FindByNames(ctx context.Context, names []string) ([]*entity.Member, error) {
	if len(names) == 0 {
		return make([]*entity.Member, 0), nil
	}
	return r.named(ctx, MemberFindByNames, types.Params{"names": bun.In(names)})
}

func (r *memberRepository) FindListByUsername(ctx context.Context, username string) ([]*entity.Member, error) {
	return r.FindByUsername(ctx, username)
}

func (r *memberRepository) FindMemberByUsername(ctx context.Context, username string) (*entity.Member, error) {
	found, err := r.named(ctx, MemberFindByUsername, types.Params{"username": username}, WithLimit(2))
	if err != nil {
		return nil, err
	}
	switch len(found) {
	case 0:
		return nil, nil
	case 1:
		return found[0], nil
	default:
		return nil, fmt.Errorf("find member by username %q: %w", username, ErrIncorrectResultSize)
	}
}

func (r *memberRepository) FindOptionalMemberByUsername(ctx context.Context, username string) (types.Optional[entity.Member], error) {
	m, err := r.FindMemberByUsername(ctx, username)
	if err != nil {
		return types.Empty[entity.Member](), err
	}
	return types.OptionalOf(m), nil
}

func (r *memberRepository) ageQuery(age int, page *types.PageRequest) ([]QueryOption, []string, error) {
	orders, err := memberOrders(types.DefaultPageRequest(page).GetSort())
	if err != nil {
		return nil, nil, err
	}
	opts, err := namedOptions(MemberFindByAge, types.Params{"age": age})
	if err != nil {
		return nil, nil, err
	}
	return opts, orders, nil
}

func (r *memberRepository) FindByAge(ctx context.Context, age int, page *types.PageRequest) (*types.Page[entity.Member], error) {
	opts, orders, err := r.ageQuery(age, page)
	if err != nil {
		return nil, err
	}
	u, err := r.uow()
	if err != nil {
		return nil, err
	}
	rows, err := memberRows(u).Page(ctx, page, orders, opts...)
	if err != nil {
		return nil, fmt.Errorf("find by age: %w", err)
	}
	return types.MapPage(rows, u.member), nil
}

func (r *memberRepository) FindByAgeSlice(ctx context.Context, age int, page *types.PageRequest) (*types.Slice[entity.Member], error) {
	opts, orders, err := r.ageQuery(age, page)
	if err != nil {
		return nil, err
	}
	u, err := r.uow()
	if err != nil {
		return nil, err
	}
	rows, err := memberRows(u).Slice(ctx, page, orders, opts...)
	if err != nil {
		return nil, fmt.Errorf("find by age slice: %w", err)
	}
	return types.MapSlice(rows, u.member), nil
}

func (r *memberRepository) FindByAgeAddCount(ctx context.Context, age int, page *types.PageRequest) (*types.Page[entity.Member], error) {
	countOpts, orders, err := r.ageQuery(age, page)
	if err != nil {
		return nil, err
	}
	contentOpts := append([]QueryOption{WithRelation("Team")}, countOpts...)
	u, err := r.uow()
	if err != nil {
		return nil, err
	}
	rows, err := memberRows(u).PageWithCount(ctx, page, orders, contentOpts, countOpts)
	if err != nil {
		return nil, fmt.Errorf("find by age with count: %w", err)
	}
	return types.MapPage(rows, u.member), nil
}

func (r *memberRepository) BulkAgePlus(ctx context.Context, age int, opts ...BulkOption) (int64, error) {
	var o bulkOptions
	for _, opt := range opts {
		opt(&o)
	}
	u, err := r.uow()
	if err != nil {
		return 0, err
	}
	res, err := memberRows(u).NewUpdate().
		Set("age = age + 1").
		Where("age >= ?", age).
		Exec(ctx)
	if err != nil {
		return 0, translate("bulk age plus", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("bulk age plus: %w", err)
	}
	if o.clear {
		u.Clear()
	} else if size := u.Size(); size > 0 {
		repoLogger.Debug("bulk update bypassed the working set, cached entities are stale until cleared",
			"unit", u.ID().String(), "cached", size, "updated", n)
	}
	return n, nil
}

func (r *memberRepository) FindMemberFetchJoin(ctx context.Context) ([]*entity.Member, error) {
	return r.list(ctx, "find member fetch join", WithRelation("Team"), WithOrder("m.id ASC"))
}

func (r *memberRepository) FindMemberEntityGraph(ctx context.Context) ([]*entity.Member, error) {
	return r.named(ctx, MemberEntityGraph, nil)
}

func (r *memberRepository) FindEntityGraphByUsername(ctx context.Context, username string) ([]*entity.Member, error) {
	return r.named(ctx, MemberEntityGraphByUsername, types.Params{"username": username})
}

func (r *memberRepository) LoadTeam(ctx context.Context, m *entity.Member) (*entity.Team, error) {
	if m == nil || !m.HasTeam() {
		return nil, nil
	}
	if t := m.Team(); t != nil {
		return t, nil
	}
	found, err := (&teamRepository{db: r.db, unit: r.unit}).FindByID(ctx, m.TeamID())
	if err != nil {
		return nil, err
	}
	t, ok := found.Get()
	if !ok {
		return nil, fmt.Errorf("load team %d of member %d: %w", m.TeamID(), m.ID, errDanglingTeam)
	}
	m.ChangeTeam(t)
	return t, nil
}

var errDanglingTeam = errors.New("team no longer exists")
