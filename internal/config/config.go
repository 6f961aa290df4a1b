// Copyright 2018 Google Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package config reads the store connection settings from the environment,
// optionally seeded from a gams.env file.
package config

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"

	"github.com/googlegenomics/gams/store"
)

// DefaultFile is the environment file read by Load.
const DefaultFile = "gams.env"

// Store backends.
const (
	Redis  = "redis"
	Badger = "badger"
	Memory = "memory"
)

// Config holds the settings shared by the binaries.
type Config struct {
	// Store selects the backend: Redis, Badger or Memory.
	Store     string
	Redis     store.RedisOptions
	BadgerDir string
	LogLevel  log.Level
}

// Load reads files (DefaultFile when none is given) into the environment
// without overriding variables already set, then returns the configuration
// described by the environment.  Missing files are ignored.
func Load(files ...string) (*Config, error) {
	if len(files) == 0 {
		files = []string{DefaultFile}
	}
	for _, file := range files {
		if err := godotenv.Load(file); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("loading %s: %v", file, err)
		}
	}
	return FromEnv(os.Getenv)
}

// FromEnv returns the configuration described by getenv.
func FromEnv(getenv func(string) string) (*Config, error) {
	lookup := func(key, def string) string {
		if v := getenv(key); v != "" {
			return v
		}
		return def
	}

	cfg := &Config{
		Store:     lookup("GAMS_STORE", Redis),
		BadgerDir: lookup("BADGER_DIR", ""),
		Redis: store.RedisOptions{
			Addr:     net.JoinHostPort(lookup("REDIS_HOST", "localhost"), lookup("REDIS_PORT", "6379")),
			Password: getenv("REDIS_PASSWORD"),
		},
	}

	var err error
	if cfg.Redis.TLS, err = strconv.ParseBool(lookup("REDIS_TLS", "false")); err != nil {
		return nil, fmt.Errorf("parsing REDIS_TLS: %v", err)
	}
	if cfg.LogLevel, err = log.ParseLevel(lookup("GAMS_LOG_LEVEL", "info")); err != nil {
		return nil, fmt.Errorf("parsing GAMS_LOG_LEVEL: %v", err)
	}
	switch cfg.Store {
	case Redis, Badger, Memory:
	default:
		return nil, fmt.Errorf("unknown store %q", cfg.Store)
	}
	return cfg, nil
}

// Opener returns the OpenFunc of the configured store and a function
// releasing the resources shared by its handles.
func (c *Config) Opener() (store.OpenFunc, func() error, error) {
	switch c.Store {
	case Memory:
		m := store.NewMemory()
		return m.Open, m.Close, nil
	case Badger:
		b, err := store.OpenBadger(c.BadgerDir)
		if err != nil {
			return nil, nil, err
		}
		return b.Open, b.Close, nil
	default:
		return store.NewRedisOpener(c.Redis), func() error { return nil }, nil
	}
}

// Open returns one handle to the configured store together with the
// function releasing it.
func (c *Config) Open(ctx context.Context) (store.Store, func() error, error) {
	open, release, err := c.Opener()
	if err != nil {
		return nil, nil, err
	}
	s, err := open(ctx)
	if err != nil {
		release()
		return nil, nil, err
	}
	return s, func() error {
		s.Close()
		return release()
	}, nil
}

// Template is the content written by WriteTemplate.
var Template = map[string]string{
	"GAMS_STORE":     Redis,
	"REDIS_HOST":     "localhost",
	"REDIS_PORT":     "6379",
	"REDIS_PASSWORD": "",
	"REDIS_TLS":      "false",
	"BADGER_DIR":     "",
	"GAMS_LOG_LEVEL": "info",
}

// WriteTemplate writes an environment file holding the default settings.
func WriteTemplate(path string) error {
	if err := godotenv.Write(Template, path); err != nil {
		return fmt.Errorf("writing %s: %v", path, err)
	}
	return nil
}
