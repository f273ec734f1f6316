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

// Package repository provides the member and team data-access façade on Bun.
//
// A generic Repository[T] covers CRUD, paging and upserts over the persistence
// rows. MemberRepository and TeamRepository map those rows to the entity
// package through a UnitOfWork, an identity map that returns the same
// instance for the same row until it is cleared:
//
//	err := repository.RunInUnit(ctx, db, func(ctx context.Context, u *repository.UnitOfWork) error {
//		members := u.Members()
//		if _, err := members.BulkAgePlus(ctx, 20); err != nil {
//			return err
//		}
//		u.Clear() // reads after this point see the new ages
//		return nil
//	})
//
// Finders never report absence as an error: lists are empty, single results
// are nil and optional results are empty.
package repository
