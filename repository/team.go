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

	"github.com/tomoncle/datajpa/entity"
	"github.com/tomoncle/datajpa/types"
	"github.com/uptrace/bun"
)

type teamRepository struct {
	db   func() bun.IDB
	unit *UnitOfWork
}

// NewTeamRepository returns a TeamRepository over db with one unit of work per call.
func NewTeamRepository(db bun.IDB) TeamRepository {
	return &teamRepository{db: fixedDB(db)}
}

// NewLazyTeamRepository is the TeamRepository counterpart of NewLazyMemberRepository.
func NewLazyTeamRepository(resolve func() bun.IDB) TeamRepository {
	return &teamRepository{db: resolve}
}

func (r *teamRepository) uow() (*UnitOfWork, error) {
	return unitFor(r.unit, r.db)
}

func teamRows(u *UnitOfWork) *baseRepositoryImpl[teamModel] {
	return newBaseRepository[teamModel](u.db)
}

func (r *teamRepository) Save(ctx context.Context, t *entity.Team) error {
	return r.write(ctx, "save team", t, false)
}

func (r *teamRepository) Persist(ctx context.Context, t *entity.Team) error {
	return r.write(ctx, "persist team", t, true)
}

func (r *teamRepository) write(ctx context.Context, op string, t *entity.Team, insertOnly bool) error {
	if t == nil {
		return fmt.Errorf("%s: nil team", op)
	}
	u, err := r.uow()
	if err != nil {
		return err
	}
	row := toTeamModel(t)
	rows := teamRows(u)

	if row.ID == 0 || insertOnly {
		err = rows.Create(ctx, row)
	} else {
		err = rows.Upsert(ctx, []string{"name"}, []string{"id"}, row)
	}
	if err != nil {
		return translate(op, err)
	}
	t.ID = row.ID
	u.attach(t)
	return nil
}

func (r *teamRepository) FindByID(ctx context.Context, id int64) (types.Optional[entity.Team], error) {
	u, err := r.uow()
	if err != nil {
		return types.Empty[entity.Team](), err
	}
	if t := u.cachedTeam(id); t != nil {
		return types.OptionalOf(t), nil
	}
	row, err := teamRows(u).GetOne(ctx, id)
	if err != nil {
		return types.Empty[entity.Team](), fmt.Errorf("find team %d: %w", id, err)
	}
	return types.OptionalOf(u.team(row)), nil
}

func (r *teamRepository) FindAll(ctx context.Context) ([]*entity.Team, error) {
	u, err := r.uow()
	if err != nil {
		return nil, err
	}
	rows, err := teamRows(u).GetAll(ctx, WithOrder("t.id ASC"))
	if err != nil {
		return nil, fmt.Errorf("find all teams: %w", err)
	}
	return u.teams(rows), nil
}

func (r *teamRepository) Count(ctx context.Context) (int, error) {
	u, err := r.uow()
	if err != nil {
		return 0, err
	}
	return teamRows(u).Count(ctx, nil)
}

// Delete removes the team row only. Its members keep their team_id, or the
// delete fails with a ConstraintViolationError when the foreign key is enabled.
func (r *teamRepository) Delete(ctx context.Context, t *entity.Team) error {
	if t == nil {
		return nil
	}
	return r.DeleteByID(ctx, t.ID)
}

func (r *teamRepository) DeleteByID(ctx context.Context, id int64) error {
	u, err := r.uow()
	if err != nil {
		return err
	}
	if err := teamRows(u).Delete(ctx, id); err != nil {
		return translate("delete team", err)
	}
	if t := u.cachedTeam(id); t != nil {
		u.Detach(t)
	}
	return nil
}

// FindWithMembers loads the team and then its members with the
// Member.findByTeam query, both in the same unit of work.
func (r *teamRepository) FindWithMembers(ctx context.Context, id int64) (types.Optional[entity.Team], error) {
	u, err := r.uow()
	if err != nil {
		return types.Empty[entity.Team](), err
	}
	row, err := teamRows(u).GetOne(ctx, id)
	if err != nil {
		return types.Empty[entity.Team](), fmt.Errorf("find team %d with members: %w", id, err)
	}
	if row == nil {
		return types.Empty[entity.Team](), nil
	}

	t := u.team(row)
	// members resolve t from the working set
	if _, err := (&memberRepository{unit: u}).named(ctx, MemberFindByTeam, types.Params{"teamId": id}); err != nil {
		return types.Empty[entity.Team](), fmt.Errorf("find team %d with members: %w", id, err)
	}
	return types.OptionalOf(t), nil
}

func (r *teamRepository) FindByName(ctx context.Context, name string) ([]*entity.Team, error) {
	opts, err := namedOptions(TeamFindByName, types.Params{"name": name})
	if err != nil {
		return nil, err
	}
	u, err := r.uow()
	if err != nil {
		return nil, err
	}
	rows, err := teamRows(u).GetAll(ctx, append(opts, WithOrder("t.id ASC"))...)
	if err != nil {
		return nil, fmt.Errorf("find team by name: %w", err)
	}
	return u.teams(rows), nil
}
