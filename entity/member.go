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

// Package entity defines the Member and Team domain entities and the
// MemberDto projection.
package entity

import "fmt"

// Member is a person who optionally belongs to one Team.
//
// The team reference is owned by the member and can only be changed through
// ChangeTeam, which keeps Team.Members in step.
type Member struct {
	// ID is the surrogate key; zero until the member is first saved.
	ID       int64
	UserName string
	Age      int

	team   *Team
	teamID int64
}

func NewMember(userName string) *Member {
	return &Member{UserName: userName}
}

func NewMemberWithAge(userName string, age int) *Member {
	return &Member{UserName: userName, Age: age}
}

// NewMemberWithTeam creates a member and joins it to team. A nil team leaves
// the member without a team.
func NewMemberWithTeam(userName string, age int, team *Team) *Member {
	m := &Member{UserName: userName, Age: age}
	if team != nil {
		m.ChangeTeam(team)
	}
	return m
}

// LoadMember rebuilds a member read from storage. The team reference stays
// unresolved until the team itself is attached with ChangeTeam.
func LoadMember(id int64, userName string, age int, teamID int64) *Member {
	return &Member{ID: id, UserName: userName, Age: age, teamID: teamID}
}

// ChangeTeam moves the member to team, removing it from its previous team's
// members. A nil team detaches the member.
func (m *Member) ChangeTeam(team *Team) {
	if m.team != nil && m.team != team {
		m.team.removeMember(m)
	}
	m.team = team
	if team == nil {
		m.teamID = 0
		return
	}
	m.teamID = team.ID
	team.addMember(m)
}

// Team returns the resolved team, or nil when the member has no team or the
// reference has not been loaded yet (see TeamResolved).
func (m *Member) Team() *Team {
	return m.team
}

// TeamID returns the key of the member's team, 0 for none.
func (m *Member) TeamID() int64 {
	if m.team != nil {
		return m.team.ID
	}
	return m.teamID
}

func (m *Member) HasTeam() bool {
	return m.TeamID() != 0 || m.team != nil
}

// TeamResolved reports whether Team() reflects the stored reference.
func (m *Member) TeamResolved() bool {
	return m.team != nil || m.teamID == 0
}

func (m *Member) String() string {
	return fmt.Sprintf("Member(id=%d, userName=%s, age=%d)", m.ID, m.UserName, m.Age)
}
