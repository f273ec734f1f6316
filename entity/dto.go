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

package entity

// MemberDto is a read-only projection of a member joined with its team.
// TeamName is empty when the query used a left join and the member has no team.
type MemberDto struct {
	ID       int64  `bun:"id" json:"id"`
	UserName string `bun:"username" json:"username"`
	TeamName string `bun:"team_name" json:"team_name"`
}

func NewMemberDto(id int64, userName, teamName string) MemberDto {
	return MemberDto{ID: id, UserName: userName, TeamName: teamName}
}
