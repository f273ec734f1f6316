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

// Command datajpa connects to the configured database, migrates and seeds it
// and walks through the member and team repository operations.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"
	"github.com/tomoncle/datajpa"
	"github.com/tomoncle/datajpa/config"
	"github.com/tomoncle/datajpa/database"
	"github.com/tomoncle/datajpa/entity"
	"github.com/tomoncle/datajpa/repository"
	"github.com/tomoncle/datajpa/types"
	"github.com/tomoncle/datajpa/utils"
)

var log = utils.NewLogger("DATAJPA")

func main() {
	configPath := pflag.StringP("config", "c", "configs/config.yaml", "path of the YAML configuration file")
	envFile := pflag.String("env-file", ".env", "optional .env file loaded before the configuration")
	seed := pflag.Bool("seed", false, "run the SQL seed files after connecting")
	migrate := pflag.Bool("migrate", true, "run migrations after connecting")
	logLevel := pflag.String("log-level", "", "override log.level")
	pflag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, *configPath, *envFile, *seed, *migrate, *logLevel); err != nil {
		log.WithError(err).Error("datajpa failed")
		os.Exit(1)
	}
}

func run(ctx context.Context, configPath, envFile string, seed, migrate bool, logLevel string) error {
	if _, err := os.Stat(configPath); errors.Is(err, os.ErrNotExist) {
		log.Warnf("config file %s not found, using defaults", configPath)
		configPath = ""
	}
	cfg, err := config.LoadWithEnvFile(configPath, envFile)
	if err != nil {
		return err
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	cfg.Database.DataMigrateConfig.EnableMigrateOnStartup = migrate
	cfg.Database.DataInitConfig.AutoInitOnStartup = seed

	store, err := datajpa.Open(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = database.CloseDB() }()

	return demo(ctx, store)
}

func demo(ctx context.Context, store datajpa.Store) error {
	members, teams := store.Members(), store.Teams()

	count, err := members.Count(ctx)
	if err != nil {
		return err
	}
	if count == 0 {
		if err := sampleData(ctx, teams, members); err != nil {
			return err
		}
	}

	all, err := members.FindAll(ctx)
	if err != nil {
		return err
	}
	for _, m := range all {
		team := "-"
		if m.Team() != nil {
			team = m.Team().Name
		}
		log.Infof("%s team=%s", m, team)
	}

	names, err := members.FindUsernameList(ctx)
	if err != nil {
		return err
	}
	log.WithField("names", names).Info("username list")

	dtos, err := members.FindMemberDtoLeftJoin(ctx)
	if err != nil {
		return err
	}
	for _, dto := range dtos {
		log.WithField("dto", fmt.Sprintf("%+v", dto)).Info("member dto")
	}

	page, err := members.FindByAge(ctx, 10, types.PageRequestOf(0, 3, types.Order{Property: "username", Direction: types.DESC}))
	if err != nil {
		return err
	}
	log.Info(page.String())

	slice, err := members.FindByAgeSlice(ctx, 10, types.PageRequestOf(0, 3))
	if err != nil {
		return err
	}
	log.Infof("slice of %d members, has next: %t", slice.NumberOfElements(), slice.HasNext())

	single, err := members.FindMemberByUsername(ctx, "member1")
	switch {
	case errors.Is(err, repository.ErrIncorrectResultSize):
		log.Warn("member1 is not unique")
	case err != nil:
		return err
	default:
		log.Infof("single member: %v", single)
	}

	err = store.InUnit(ctx, func(ctx context.Context, u *repository.UnitOfWork) error {
		repo := u.Members()
		loaded, err := repo.FindByAge(ctx, 10, types.PageRequestOf(0, 1))
		if err != nil || !loaded.HasContent() {
			return err
		}
		n, err := repo.BulkAgePlus(ctx, 10)
		if err != nil {
			return err
		}
		log.Infof("bulk age plus updated %d rows, cached age still %d", n, loaded.Content[0].Age)
		u.Clear()
		fresh, err := repo.FindByID(ctx, loaded.Content[0].ID)
		if err != nil {
			return err
		}
		fresh.IfPresent(func(m *entity.Member) { log.Infof("after clear: %s", m) })
		return errRollback
	})
	if errors.Is(err, errRollback) {
		return nil
	}
	return err
}

// errRollback rolls back the bulk update of the demo unit.
var errRollback = errors.New("rollback demo changes")

func sampleData(ctx context.Context, teams repository.TeamRepository, members repository.MemberRepository) error {
	teamA, teamB := entity.NewTeam("teamA"), entity.NewTeam("teamB")
	for _, t := range []*entity.Team{teamA, teamB} {
		if err := teams.Save(ctx, t); err != nil {
			return err
		}
	}
	return members.SaveAll(ctx,
		entity.NewMemberWithTeam("member1", 10, teamA),
		entity.NewMemberWithTeam("member2", 10, teamA),
		entity.NewMemberWithTeam("member3", 10, teamB),
		entity.NewMemberWithTeam("member4", 10, teamB),
		entity.NewMemberWithAge("member5", 10),
	)
}
