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
	"github.com/tomoncle/datajpa/database"
	"github.com/tomoncle/datajpa/entity"
	"github.com/uptrace/bun"
)

func init() {
	database.RegisteredModel(database.NewModelAdapter((*teamModel)(nil), 1))
	database.RegisteredModel(database.NewModelAdapter((*memberModel)(nil), 2))
}

// teamModel is the row of table team.
type teamModel struct {
	bun.BaseModel `bun:"table:team,alias:t"`

	ID   int64  `bun:"id,pk,autoincrement"`
	Name string `bun:"name"`
}

// memberModel is the row of table member; a zero TeamID is stored as NULL.
type memberModel struct {
	bun.BaseModel `bun:"table:member,alias:m"`

	ID       int64      `bun:"id,pk,autoincrement"`
	UserName string     `bun:"username"`
	Age      int        `bun:"age"`
	TeamID   int64      `bun:"team_id,nullzero"`
	Team     *teamModel `bun:"rel:belongs-to,join:team_id=id"`
}

func toMemberModel(m *entity.Member) *memberModel {
	return &memberModel{ID: m.ID, UserName: m.UserName, Age: m.Age, TeamID: m.TeamID()}
}

func toTeamModel(t *entity.Team) *teamModel {
	return &teamModel{ID: t.ID, Name: t.Name}
}
