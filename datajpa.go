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

// Package datajpa is the entry point of the member and team data-access
// façade: a Store hands out repositories bound to the global database or to
// an explicit bun.IDB.
package datajpa

import (
	"context"
	"fmt"
	"sync"

	"github.com/tomoncle/datajpa/config"
	"github.com/tomoncle/datajpa/database"
	"github.com/tomoncle/datajpa/repository"
	"github.com/uptrace/bun"
)

type Store interface {
	// Members returns a repository running each call in its own unit of work.
	Members() repository.MemberRepository

	Teams() repository.TeamRepository

	// InUnit runs fn in a transaction with one unit of work shared by the
	// repositories of u.
	InUnit(ctx context.Context, fn func(ctx context.Context, u *repository.UnitOfWork) error) error

	DB() bun.IDB
}

type storeImpl struct {
	db      bun.IDB
	members repository.MemberRepository
	teams   repository.TeamRepository
	once    sync.Once
}

// NewStore returns a Store over the global database. The connection is
// resolved on every call, so database.InitDB may run after NewStore and
// repositories taken before it fail with repository.ErrNoDatabase until then.
func NewStore() Store {
	return &storeImpl{}
}

// NewStoreWithDB returns a Store over db.
func NewStoreWithDB(db bun.IDB) Store {
	return &storeImpl{db: db}
}

// Open configures logging, opens the global database described by cfg and
// returns a Store over it. Close it with database.CloseDB.
func Open(ctx context.Context, cfg *config.Config) (Store, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be empty")
	}
	cfg.ApplyLogging()
	db, err := database.InitDB(ctx, &cfg.Database)
	if err != nil {
		return nil, err
	}
	return NewStoreWithDB(db), nil
}

func (s *storeImpl) init() {
	s.once.Do(func() {
		s.members = repository.NewLazyMemberRepository(s.DB)
		s.teams = repository.NewLazyTeamRepository(s.DB)
	})
}

func (s *storeImpl) Members() repository.MemberRepository {
	s.init()
	return s.members
}

func (s *storeImpl) Teams() repository.TeamRepository {
	s.init()
	return s.teams
}

// DB returns the bound database, or the global one once it is open.
func (s *storeImpl) DB() bun.IDB {
	if s.db != nil {
		return s.db
	}
	if db := database.GetDB(); db != nil {
		return db
	}
	return nil
}

func (s *storeImpl) InUnit(ctx context.Context, fn func(ctx context.Context, u *repository.UnitOfWork) error) error {
	db := s.DB()
	if db == nil {
		return repository.ErrNoDatabase
	}
	return repository.RunInUnit(ctx, db, fn)
}
