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

// Package config loads the application configuration from a YAML file, an
// optional .env file and DATAJPA_ prefixed environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
	"github.com/tomoncle/datajpa/database"
	"github.com/tomoncle/datajpa/utils"
)

// EnvPrefix prefixes every environment override, e.g.
// DATAJPA_DATABASE_CONNECTION_TYPE=postgres.
const EnvPrefix = "DATAJPA"

type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
}

// LogConfig sets the base level, the console format ("text" or "json") and
// per-logger levels keyed by logger name.
type LogConfig struct {
	Level   string            `mapstructure:"level"`
	Format  string            `mapstructure:"format"`
	Loggers map[string]string `mapstructure:"loggers"`
}

type Config struct {
	App      AppConfig       `mapstructure:"app"`
	Log      LogConfig       `mapstructure:"log"`
	Database database.Config `mapstructure:"database"`
}

// Load reads path, which may be empty, and applies environment overrides.
func Load(path string) (*Config, error) {
	return LoadWithEnvFile(path, "")
}

// LoadWithEnvFile is Load after reading envFile into the process environment.
// Variables already set take precedence over the file, and a missing file is
// ignored.
func LoadWithEnvFile(path, envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("read env file %s: %w", envFile, err)
		}
	}

	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.Database.ConnectionConfig.Type = strings.ToLower(cfg.Database.ConnectionConfig.Type)
	if cfg.Database.DataInitConfig.Environment == "" {
		cfg.Database.DataInitConfig.Environment = cfg.App.Environment
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "datajpa")
	v.SetDefault("app.environment", "dev")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	def := database.DefaultConfig()
	conn := def.ConnectionConfig
	v.SetDefault("database.connection.type", conn.Type)
	v.SetDefault("database.connection.driver", "pq")
	v.SetDefault("database.connection.dsn", "")
	v.SetDefault("database.connection.host", "localhost")
	v.SetDefault("database.connection.port", 0)
	v.SetDefault("database.connection.username", "")
	v.SetDefault("database.connection.password", "")
	v.SetDefault("database.connection.dbname", conn.DBName)
	v.SetDefault("database.connection.sslmode", "disable")
	v.SetDefault("database.connection.max_idle_conns", conn.MaxIdleConns)
	v.SetDefault("database.connection.max_open_conns", conn.MaxOpenConns)
	v.SetDefault("database.connection.conn_max_lifetime", conn.ConnMaxLifetime)
	v.SetDefault("database.connection.conn_max_idle_time", conn.ConnMaxIdleTime)
	v.SetDefault("database.connection.connect_timeout", conn.ConnectTimeout)
	v.SetDefault("database.connection.read_timeout", conn.ReadTimeout)
	v.SetDefault("database.connection.write_timeout", conn.WriteTimeout)
	v.SetDefault("database.connection.enable_reconnect", conn.EnableReconnect)
	v.SetDefault("database.connection.reconnect_interval", conn.ReconnectInterval)
	v.SetDefault("database.connection.max_reconnect_tries", conn.MaxReconnectTries)
	v.SetDefault("database.connection.health_check_interval", conn.HealthCheckInterval)
	v.SetDefault("database.connection.enable_query_log", conn.EnableQueryLog)
	v.SetDefault("database.connection.query_log_style", "bundebug")
	v.SetDefault("database.connection.slow_query_time", conn.SlowQueryTime)

	v.SetDefault("database.data_migrate.enable_migrate_on_startup", def.DataMigrateConfig.EnableMigrateOnStartup)
	v.SetDefault("database.data_migrate.enable_foreign_key", def.DataMigrateConfig.EnableForeignKey)
	v.SetDefault("database.data_migrate.foreign_key_file", def.DataMigrateConfig.ForeignKeyFile)

	v.SetDefault("database.data_init.auto_init_on_startup", def.DataInitConfig.AutoInitOnStartup)
	v.SetDefault("database.data_init.auto_init_on_migration", def.DataInitConfig.AutoInitOnMigration)
	v.SetDefault("database.data_init.filepath", def.DataInitConfig.Filepath)
	v.SetDefault("database.data_init.environment", "")
}

// Validate rejects unsupported database types, drivers and log settings.
func (c *Config) Validate() error {
	conn := c.Database.ConnectionConfig
	if !database.IsSupportedType(conn.Type) {
		return fmt.Errorf("unsupported database type: %q", conn.Type)
	}
	switch conn.Driver {
	case "", "pq", "pgx":
	default:
		return fmt.Errorf("unsupported postgres driver: %q", conn.Driver)
	}
	if !strings.HasPrefix(conn.Type, "sqlite") && conn.DSN == "" && conn.Host == "" {
		return fmt.Errorf("database host is required for %s", conn.Type)
	}
	if _, err := logrus.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log level: %w", err)
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("unsupported log format: %q", c.Log.Format)
	}
	if c.App.Environment == "" {
		return errors.New("app environment is required")
	}
	return nil
}

// ApplyLogging configures the utils loggers from c.Log. Logger names are
// upper-cased since viper lower-cases map keys.
func (c *Config) ApplyLogging() {
	utils.ConfigureConsoleLogFormat(c.Log.Format)
	utils.ConfigureLogLevel(c.Log.Level)
	for name, level := range c.Log.Loggers {
		name = strings.ToUpper(name)
		utils.NewLogger(name)
		utils.SetLoggerLevel(name, level)
	}
}
