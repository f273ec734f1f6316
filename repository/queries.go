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
	"strings"

	"github.com/tomoncle/datajpa/types"
)

// QueryName enumerates the predefined member and team queries.
type QueryName int

const (
	MemberFindByUsername QueryName = iota
	MemberFindByUsernameAndAgeGreaterThan
	MemberFindUser
	MemberFindByNames
	MemberFindByAge
	MemberFindByTeam
	MemberEntityGraph
	MemberEntityGraphByUsername
	TeamFindByName
)

var _ types.BaseEnum = MemberFindByUsername

var queryNames = map[QueryName]string{
	MemberFindByUsername:                  "Member.findByUsername",
	MemberFindByUsernameAndAgeGreaterThan: "Member.findByUsernameAndAgeGreaterThan",
	MemberFindUser:                        "Member.findUser",
	MemberFindByNames:                     "Member.findByNames",
	MemberFindByAge:                       "Member.findByAge",
	MemberFindByTeam:                      "Member.findByTeam",
	MemberEntityGraph:                     "Member.findMemberEntityGraph",
	MemberEntityGraphByUsername:           "Member.findEntityGraphByUsername",
	TeamFindByName:                        "Team.findByName",
}

var queryDescs = map[QueryName]string{
	MemberFindByUsername:                  "members with the given username",
	MemberFindByUsernameAndAgeGreaterThan: "members with the given username older than age",
	MemberFindUser:                        "members with the given username and age",
	MemberFindByNames:                     "members whose username is in names",
	MemberFindByAge:                       "members of the given age",
	MemberFindByTeam:                      "members of the given team",
	MemberEntityGraph:                     "all members with their team",
	MemberEntityGraphByUsername:           "members with the given username and their team",
	TeamFindByName:                        "teams with the given name",
}

// QueryNames returns every defined query name in declaration order.
func QueryNames() []QueryName {
	names := make([]QueryName, 0, len(queryNames))
	for q := MemberFindByUsername; q.IsValid(); q++ {
		names = append(names, q)
	}
	return names
}

func (q QueryName) IsValid() bool {
	_, ok := queryNames[q]
	return ok
}

func (q QueryName) Number() int {
	if !q.IsValid() {
		return types.IllegalValue
	}
	return int(q)
}

func (q QueryName) Name() string {
	if name, ok := queryNames[q]; ok {
		return name
	}
	return types.IllegalName
}

func (q QueryName) String() string { return q.Name() }

func (q QueryName) Desc() string {
	if desc, ok := queryDescs[q]; ok {
		return desc
	}
	return types.IllegalDesc
}

// NamedQuery is a WHERE template whose "?" placeholders are bound, in order,
// to the named Params. Relations are fetched with the result.
type NamedQuery struct {
	Name      QueryName
	Where     string
	Params    []string
	Relations []string
}

// Args binds params to the template placeholders.
func (q NamedQuery) Args(params types.Params) ([]interface{}, error) {
	args := make([]interface{}, len(q.Params))
	for i, name := range q.Params {
		v, ok := params[name]
		if !ok {
			return nil, fmt.Errorf("%w: %s requires %q", ErrMissingParam, q.Name, name)
		}
		args[i] = v
	}
	return args, nil
}

// Options binds params and returns the where clause and relations as query options.
func (q NamedQuery) Options(params types.Params) ([]QueryOption, error) {
	args, err := q.Args(params)
	if err != nil {
		return nil, err
	}
	opts := make([]QueryOption, 0, len(q.Relations)+1)
	opts = append(opts, WithWhere(q.Where, args...))
	for _, rel := range q.Relations {
		opts = append(opts, WithRelation(rel))
	}
	return opts, nil
}

var namedQueries = mustQueryRegistry(
	NamedQuery{Name: MemberFindByUsername, Where: "m.username = ?", Params: []string{"username"}},
	NamedQuery{Name: MemberFindByUsernameAndAgeGreaterThan, Where: "m.username = ? AND m.age > ?", Params: []string{"username", "age"}},
	NamedQuery{Name: MemberFindUser, Where: "m.username = ? AND m.age = ?", Params: []string{"username", "age"}},
	NamedQuery{Name: MemberFindByNames, Where: "m.username IN (?)", Params: []string{"names"}},
	NamedQuery{Name: MemberFindByAge, Where: "m.age = ?", Params: []string{"age"}},
	NamedQuery{Name: MemberFindByTeam, Where: "m.team_id = ?", Params: []string{"teamId"}},
	NamedQuery{Name: MemberEntityGraph, Where: "1 = 1", Relations: []string{"Team"}},
	NamedQuery{Name: MemberEntityGraphByUsername, Where: "m.username = ?", Params: []string{"username"}, Relations: []string{"Team"}},
	NamedQuery{Name: TeamFindByName, Where: "t.name = ?", Params: []string{"name"}},
)

func mustQueryRegistry(defs ...NamedQuery) map[QueryName]NamedQuery {
	registry, err := newQueryRegistry(defs...)
	if err != nil {
		panic(err)
	}
	return registry
}

// newQueryRegistry validates defs: names must be defined and unique and the
// placeholder count must match the parameter count.
func newQueryRegistry(defs ...NamedQuery) (map[QueryName]NamedQuery, error) {
	registry := make(map[QueryName]NamedQuery, len(defs))
	for _, def := range defs {
		if !def.Name.IsValid() {
			return nil, fmt.Errorf("%w: %d", ErrUnknownQuery, int(def.Name))
		}
		if _, ok := registry[def.Name]; ok {
			return nil, fmt.Errorf("duplicate named query %s", def.Name)
		}
		if n := strings.Count(def.Where, "?"); n != len(def.Params) {
			return nil, fmt.Errorf("named query %s has %d placeholders but %d params", def.Name, n, len(def.Params))
		}
		registry[def.Name] = def
	}
	return registry, nil
}

// LookupQuery returns the registered template of name.
func LookupQuery(name QueryName) (NamedQuery, error) {
	q, ok := namedQueries[name]
	if !ok {
		return NamedQuery{}, fmt.Errorf("%w: %s", ErrUnknownQuery, name)
	}
	return q, nil
}

func namedOptions(name QueryName, params types.Params) ([]QueryOption, error) {
	q, err := LookupQuery(name)
	if err != nil {
		return nil, err
	}
	return q.Options(params)
}
