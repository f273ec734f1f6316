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

import "fmt"

// Team groups members. Deleting a team never deletes its members.
type Team struct {
	ID   int64
	Name string

	members []*Member
}

func NewTeam(name string) *Team {
	return &Team{Name: name}
}

// Members returns a copy of the members currently attached to the team.
func (t *Team) Members() []*Member {
	out := make([]*Member, len(t.members))
	copy(out, t.members)
	return out
}

func (t *Team) HasMember(m *Member) bool {
	return t.indexOf(m) >= 0
}

func (t *Team) String() string {
	return fmt.Sprintf("Team(id=%d, name=%s)", t.ID, t.Name)
}

func (t *Team) indexOf(m *Member) int {
	for i, cur := range t.members {
		if cur == m {
			return i
		}
	}
	return -1
}

func (t *Team) addMember(m *Member) {
	if t.indexOf(m) < 0 {
		t.members = append(t.members, m)
	}
}

func (t *Team) removeMember(m *Member) {
	if i := t.indexOf(m); i >= 0 {
		t.members = append(t.members[:i], t.members[i+1:]...)
	}
}
