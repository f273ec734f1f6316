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
	"sync"

	"github.com/google/uuid"
	"github.com/tomoncle/datajpa/database"
	"github.com/tomoncle/datajpa/entity"
	"github.com/uptrace/bun"
)

const (
	memberTable = "member"
	teamTable   = "team"
)

type entityKey struct {
	table string
	id    int64
}

// UnitOfWork is an identity map of the entities loaded through one bun.IDB.
// Loading a row whose key is already present returns the cached instance
// unchanged, so a bulk update is only visible after Clear or Detach.
//
// A UnitOfWork must not be shared between goroutines.
type UnitOfWork struct {
	id      uuid.UUID
	db      bun.IDB
	mu      sync.Mutex
	entries map[entityKey]interface{}
}

// NewUnitOfWork starts an empty working set over db.
func NewUnitOfWork(db bun.IDB) *UnitOfWork {
	return &UnitOfWork{
		id:      uuid.New(),
		db:      db,
		entries: make(map[entityKey]interface{}),
	}
}

// RunInUnit runs fn in a transaction with a fresh unit of work bound to it.
// The transaction commits when fn returns nil and rolls back otherwise; the
// working set is cleared in both cases.
func RunInUnit(ctx context.Context, db bun.IDB, fn func(ctx context.Context, u *UnitOfWork) error) error {
	return db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		u := NewUnitOfWork(tx)
		defer u.Clear()
		return fn(ctx, u)
	})
}

func fixedDB(db bun.IDB) func() bun.IDB {
	return func() bun.IDB { return db }
}

// unitFor returns unit when set, or a fresh unit over the resolved database.
func unitFor(unit *UnitOfWork, resolve func() bun.IDB) (*UnitOfWork, error) {
	if unit != nil {
		return unit, nil
	}
	if resolve == nil {
		return nil, ErrNoDatabase
	}
	db := resolve()
	if db == nil {
		return nil, ErrNoDatabase
	}
	return NewUnitOfWork(db), nil
}

func (u *UnitOfWork) ID() uuid.UUID { return u.id }

func (u *UnitOfWork) DB() bun.IDB { return u.db }

// Members returns a member repository sharing this working set.
func (u *UnitOfWork) Members() MemberRepository {
	return &memberRepository{unit: u}
}

// Teams returns a team repository sharing this working set.
func (u *UnitOfWork) Teams() TeamRepository {
	return &teamRepository{unit: u}
}

// Clear empties the working set.
func (u *UnitOfWork) Clear() {
	u.mu.Lock()
	n := len(u.entries)
	u.entries = make(map[entityKey]interface{})
	u.mu.Unlock()
	if n > 0 {
		repoLogger.Debug("working set cleared", "unit", u.id.String(), "entries", n)
	}
}

// Detach removes a *entity.Member or *entity.Team from the working set.
func (u *UnitOfWork) Detach(e interface{}) {
	k, ok := keyOf(e)
	if !ok {
		return
	}
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.entries[k] == e {
		delete(u.entries, k)
	}
}

// Contains reports whether e is the instance cached for its key.
func (u *UnitOfWork) Contains(e interface{}) bool {
	k, ok := keyOf(e)
	if !ok {
		return false
	}
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.entries[k] == e
}

func (u *UnitOfWork) Size() int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return len(u.entries)
}

func keyOf(e interface{}) (entityKey, bool) {
	switch v := e.(type) {
	case *entity.Member:
		if v != nil && v.ID != 0 {
			return entityKey{memberTable, v.ID}, true
		}
	case *entity.Team:
		if v != nil && v.ID != 0 {
			return entityKey{teamTable, v.ID}, true
		}
	}
	return entityKey{}, false
}

func (u *UnitOfWork) lookup(k entityKey) (interface{}, bool) {
	u.mu.Lock()
	defer u.mu.Unlock()
	e, ok := u.entries[k]
	return e, ok
}

// putIfAbsent caches e unless another instance holds k, and returns the cached one.
func (u *UnitOfWork) putIfAbsent(k entityKey, e interface{}) interface{} {
	u.mu.Lock()
	defer u.mu.Unlock()
	if cur, ok := u.entries[k]; ok {
		return cur
	}
	u.entries[k] = e
	return e
}

// attach caches e, replacing any instance held for its key.
func (u *UnitOfWork) attach(e interface{}) {
	k, ok := keyOf(e)
	if !ok {
		return
	}
	u.mu.Lock()
	defer u.mu.Unlock()
	u.entries[k] = e
}

// evict drops every cached entity of table.
func (u *UnitOfWork) evict(table string) {
	u.mu.Lock()
	defer u.mu.Unlock()
	for k := range u.entries {
		if k.table == table {
			delete(u.entries, k)
		}
	}
}

func (u *UnitOfWork) cachedMember(id int64) *entity.Member {
	if e, ok := u.lookup(entityKey{memberTable, id}); ok {
		return e.(*entity.Member)
	}
	return nil
}

func (u *UnitOfWork) cachedTeam(id int64) *entity.Team {
	if e, ok := u.lookup(entityKey{teamTable, id}); ok {
		return e.(*entity.Team)
	}
	return nil
}

func (u *UnitOfWork) team(row *teamModel) *entity.Team {
	if row == nil || row.ID == 0 {
		return nil
	}
	if t := u.cachedTeam(row.ID); t != nil {
		return t
	}
	t := &entity.Team{ID: row.ID, Name: row.Name}
	return u.putIfAbsent(entityKey{teamTable, row.ID}, t).(*entity.Team)
}

// member maps row to its cached instance. A fetched or already cached team
// resolves the member's team reference; the member's fields are never
// overwritten.
func (u *UnitOfWork) member(row *memberModel) *entity.Member {
	m := u.cachedMember(row.ID)
	if m == nil {
		m = entity.LoadMember(row.ID, row.UserName, row.Age, row.TeamID)
		m = u.putIfAbsent(entityKey{memberTable, row.ID}, m).(*entity.Member)
	}
	if m.TeamResolved() {
		return m
	}
	var t *entity.Team
	if row.Team != nil && row.Team.ID == m.TeamID() {
		t = u.team(row.Team)
	} else {
		t = u.cachedTeam(m.TeamID())
	}
	if t != nil {
		m.ChangeTeam(t)
	}
	return m
}

func (u *UnitOfWork) members(rows []*memberModel) []*entity.Member {
	out := make([]*entity.Member, len(rows))
	for i, row := range rows {
		out[i] = u.member(row)
	}
	return out
}

func (u *UnitOfWork) teams(rows []*teamModel) []*entity.Team {
	out := make([]*entity.Team, len(rows))
	for i, row := range rows {
		out[i] = u.team(row)
	}
	return out
}

var repoLogger database.Logger = database.NewNamedLogger("REPOSITORY")
