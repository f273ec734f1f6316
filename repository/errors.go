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
	"errors"
	"fmt"

	"github.com/tomoncle/datajpa/database"
)

var (
	// ErrIncorrectResultSize is returned by single-result finders when more
	// than one row matches.
	ErrIncorrectResultSize = errors.New("incorrect result size: expected at most one row")

	// ErrTransientTeam is returned when a member references a team that has
	// not been saved yet.
	ErrTransientTeam = errors.New("member references an unsaved team")

	// ErrNoDatabase is returned by repositories whose database has not been
	// opened yet.
	ErrNoDatabase = errors.New("database not initialized")

	ErrUnknownSortProperty = errors.New("unknown sort property")
	ErrUnknownQuery        = errors.New("unknown named query")
	ErrMissingParam        = errors.New("missing named query parameter")

	// ErrConstraintViolation matches every *ConstraintViolationError with errors.Is.
	ErrConstraintViolation = errors.New("constraint violation")
)

// ConstraintViolationError reports an integrity constraint failure raised by
// the database while writing an entity.
type ConstraintViolationError struct {
	Op   string
	Kind database.SQLError
	Err  error
}

func (e *ConstraintViolationError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *ConstraintViolationError) Unwrap() error { return e.Err }

func (e *ConstraintViolationError) Is(target error) bool {
	return target == ErrConstraintViolation
}

// translate wraps constraint failures in a ConstraintViolationError and any
// other error with the operation name.
func translate(op string, err error) error {
	if err == nil {
		return nil
	}
	if is, kind := database.IsSqlError(err); is && kind.IsConstraintViolation() {
		return &ConstraintViolationError{Op: op, Kind: kind, Err: err}
	}
	return fmt.Errorf("%s: %w", op, err)
}
