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
	"fmt"

	"github.com/tomoncle/datajpa/types"
)

// memberSortColumns whitelists the member properties a PageRequest may sort by.
var memberSortColumns = map[string]string{
	"id":       "m.id",
	"username": "m.username",
	"userName": "m.username",
	"age":      "m.age",
}

// memberOrders turns sort into ORDER BY expressions. The id is appended as a
// tiebreaker so that pages never overlap.
func memberOrders(sort types.Sort) ([]string, error) {
	orders := make([]string, 0, len(sort)+1)
	byID := false
	for _, o := range sort {
		column, ok := memberSortColumns[o.Property]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownSortProperty, o.Property)
		}
		if !o.Direction.IsValid() {
			return nil, fmt.Errorf("invalid direction for %q", o.Property)
		}
		byID = byID || column == "m.id"
		orders = append(orders, column+" "+o.Direction.Name())
	}
	if !byID {
		orders = append(orders, "m.id ASC")
	}
	return orders, nil
}
