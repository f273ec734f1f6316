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
	"errors"
	"fmt"
	"strings"

	"github.com/tomoncle/datajpa/types"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/feature"
	"github.com/uptrace/bun/schema"
)

type baseRepositoryImpl[T any] struct {
	db bun.IDB
}

// NewRepository returns a generic repository over db, which may be a *bun.DB
// or a bun.Tx.
func NewRepository[T any](db bun.IDB) Repository[T] {
	return newBaseRepository[T](db)
}

func newBaseRepository[T any](db bun.IDB) *baseRepositoryImpl[T] {
	return &baseRepositoryImpl[T]{db: db}
}

// WithRelation eagerly joins or loads the named bun relation.
func WithRelation(name string) QueryOption {
	return func(q *bun.SelectQuery) *bun.SelectQuery { return q.Relation(name) }
}

func WithWhere(query string, args ...interface{}) QueryOption {
	return func(q *bun.SelectQuery) *bun.SelectQuery { return q.Where(query, args...) }
}

// WithOrder appends raw ORDER BY expressions such as "m.id ASC".
func WithOrder(orders ...string) QueryOption {
	return func(q *bun.SelectQuery) *bun.SelectQuery {
		for _, o := range orders {
			q = q.OrderExpr(o)
		}
		return q
	}
}

func WithLimit(n int) QueryOption {
	return func(q *bun.SelectQuery) *bun.SelectQuery { return q.Limit(n) }
}

func applyOptions(q *bun.SelectQuery, filter *types.QueryFilter, opts []QueryOption) *bun.SelectQuery {
	if filter != nil && filter.Schema != "" {
		q = q.Where(filter.Schema, filter.Args...)
	}
	for _, opt := range opts {
		q = opt(q)
	}
	return q
}

func (r *baseRepositoryImpl[T]) WithTx(tx bun.IDB) Repository[T] {
	return newBaseRepository[T](tx)
}

func (r *baseRepositoryImpl[T]) Dialect() schema.Dialect { return r.db.Dialect() }

func (r *baseRepositoryImpl[T]) NewSelect() *bun.SelectQuery { return r.db.NewSelect().Model((*T)(nil)) }

func (r *baseRepositoryImpl[T]) NewInsert() *bun.InsertQuery { return r.db.NewInsert() }

func (r *baseRepositoryImpl[T]) NewUpdate() *bun.UpdateQuery { return r.db.NewUpdate().Model((*T)(nil)) }

func (r *baseRepositoryImpl[T]) NewDelete() *bun.DeleteQuery { return r.db.NewDelete().Model((*T)(nil)) }

func (r *baseRepositoryImpl[T]) GetOne(ctx context.Context, id any) (*T, error) {
	entity := new(T)
	err := r.db.NewSelect().Model(entity).Where("?TableAlias.id = ?", id).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return entity, nil
}

func (r *baseRepositoryImpl[T]) GetAll(ctx context.Context, opts ...QueryOption) ([]*T, error) {
	return r.List(ctx, nil, opts...)
}

func (r *baseRepositoryImpl[T]) List(ctx context.Context, filter *types.QueryFilter, opts ...QueryOption) ([]*T, error) {
	entities := make([]*T, 0)
	err := applyOptions(r.db.NewSelect().Model(&entities), filter, opts).Scan(ctx)
	if err != nil {
		return nil, err
	}
	return entities, nil
}

func (r *baseRepositoryImpl[T]) Query(ctx context.Context, query string, args ...interface{}) ([]*T, error) {
	return r.List(ctx, types.NewQueryFilter(query, args...))
}

func (r *baseRepositoryImpl[T]) Count(ctx context.Context, filter *types.QueryFilter) (int, error) {
	return applyOptions(r.db.NewSelect().Model((*T)(nil)), filter, nil).Count(ctx)
}

func (r *baseRepositoryImpl[T]) Page(ctx context.Context, page *types.PageRequest, orders []string, opts ...QueryOption) (*types.Page[T], error) {
	return r.PageWithCount(ctx, page, orders, opts, opts)
}

// PageWithCount counts first and skips the content query when the requested
// page starts beyond the last row.
func (r *baseRepositoryImpl[T]) PageWithCount(ctx context.Context, page *types.PageRequest, orders []string, contentOpts, countOpts []QueryOption) (*types.Page[T], error) {
	page = types.DefaultPageRequest(page)
	total, err := applyOptions(r.db.NewSelect().Model((*T)(nil)), page.GetFilter(), countOpts).Count(ctx)
	if err != nil {
		return nil, err
	}
	if total == 0 || page.GetOffset() >= total {
		return types.NewPage[T](nil, page, int64(total)), nil
	}

	entities := make([]*T, 0, page.GetPageSize())
	err = applyOptions(r.db.NewSelect().Model(&entities), page.GetFilter(), contentOpts).
		Apply(WithOrder(orders...)).
		Offset(page.GetOffset()).
		Limit(page.GetPageSize()).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return types.NewPage(entities, page, int64(total)), nil
}

func (r *baseRepositoryImpl[T]) Slice(ctx context.Context, page *types.PageRequest, orders []string, opts ...QueryOption) (*types.Slice[T], error) {
	page = types.DefaultPageRequest(page)
	entities := make([]*T, 0, page.GetPageSize()+1)
	err := applyOptions(r.db.NewSelect().Model(&entities), page.GetFilter(), opts).
		Apply(WithOrder(orders...)).
		Offset(page.GetOffset()).
		Limit(page.GetPageSize() + 1).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return types.NewSlice(entities, page), nil
}

// Create inserts entities one by one so generated keys are written back to
// each of them.
func (r *baseRepositoryImpl[T]) Create(ctx context.Context, entity ...*T) error {
	for _, e := range entity {
		q := r.db.NewInsert().Model(e)
		if r.db.Dialect().Features().Has(feature.InsertReturning) {
			q = q.Returning("id")
		}
		if _, err := q.Exec(ctx); err != nil {
			return err
		}
	}
	return nil
}

func (r *baseRepositoryImpl[T]) Upsert(ctx context.Context, fields []string, duplicateKeys []string, entity ...*T) error {
	if len(fields) == 0 {
		return fmt.Errorf("fields cannot be empty")
	}
	if len(entity) == 0 {
		return nil
	}

	entities := make([]*T, len(entity))
	copy(entities, entity)

	features := r.db.Dialect().Features()
	switch {
	case features.Has(feature.InsertOnConflict):
		return r.upsertOnConflict(ctx, fields, duplicateKeys, entities)
	case features.Has(feature.InsertOnDuplicateKey):
		return r.upsertOnDuplicateKey(ctx, fields, entities)
	default:
		return r.upsertFallback(ctx, entities)
	}
}

func (r *baseRepositoryImpl[T]) upsertOnDuplicateKey(ctx context.Context, fields []string, entities []*T) error {
	queryArgs := make([]string, 0, len(fields))
	for _, field := range fields {
		queryArgs = append(queryArgs, fmt.Sprintf("%s = VALUES(%s)", field, field))
	}
	_, err := r.db.NewInsert().
		Model(&entities).
		On("DUPLICATE KEY UPDATE " + strings.Join(queryArgs, ", ")).
		Exec(ctx)
	return err
}

func (r *baseRepositoryImpl[T]) upsertOnConflict(ctx context.Context, fields []string, duplicateKeys []string, entities []*T) error {
	if len(duplicateKeys) == 0 {
		duplicateKeys = []string{"id"}
	}
	queryArgs := make([]string, 0, len(fields))
	for _, field := range fields {
		queryArgs = append(queryArgs, fmt.Sprintf("%s = EXCLUDED.%s", field, field))
	}
	_, err := r.db.NewInsert().
		Model(&entities).
		On("CONFLICT (" + strings.Join(duplicateKeys, ",") + ") DO UPDATE").
		Set(strings.Join(queryArgs, ", ")).
		Exec(ctx)
	return err
}

func (r *baseRepositoryImpl[T]) upsertFallback(ctx context.Context, entities []*T) error {
	for _, entity := range entities {
		if _, err := r.db.NewInsert().Model(entity).Exec(ctx); err != nil {
			if _, updateErr := r.db.NewUpdate().Model(entity).WherePK().Exec(ctx); updateErr != nil {
				return fmt.Errorf("upsert failed for entity: insert error: %v, update error: %w", err, updateErr)
			}
		}
	}
	return nil
}

func (r *baseRepositoryImpl[T]) Update(ctx context.Context, entity *T) (int64, error) {
	res, err := r.db.NewUpdate().Model(entity).WherePK().Exec(ctx)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *baseRepositoryImpl[T]) Delete(ctx context.Context, id any) error {
	_, err := r.db.NewDelete().Model((*T)(nil)).Where("id = ?", id).Exec(ctx)
	return err
}

func (r *baseRepositoryImpl[T]) DeleteAll(ctx context.Context) error {
	_, err := r.db.NewDelete().Model((*T)(nil)).Where("1 = 1").Exec(ctx)
	return err
}
