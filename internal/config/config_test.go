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

package config

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func env(vars map[string]string) func(string) string {
	return func(key string) string { return vars[key] }
}

func TestFromEnv(t *testing.T) {
	cfg, err := FromEnv(env(nil))
	require.NoError(t, err)
	assert.Equal(t, Redis, cfg.Store)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.False(t, cfg.Redis.TLS)
	assert.Equal(t, log.InfoLevel, cfg.LogLevel)

	cfg, err = FromEnv(env(map[string]string{
		"GAMS_STORE":     Badger,
		"BADGER_DIR":     "/tmp/gams",
		"REDIS_HOST":     "db.internal",
		"REDIS_PORT":     "7000",
		"REDIS_TLS":      "true",
		"GAMS_LOG_LEVEL": "debug",
	}))
	require.NoError(t, err)
	assert.Equal(t, Badger, cfg.Store)
	assert.Equal(t, "/tmp/gams", cfg.BadgerDir)
	assert.Equal(t, "db.internal:7000", cfg.Redis.Addr)
	assert.True(t, cfg.Redis.TLS)
	assert.Equal(t, log.DebugLevel, cfg.LogLevel)
}

func TestFromEnv_InvalidInputs(t *testing.T) {
	for _, vars := range []map[string]string{
		{"GAMS_STORE": "mysql"},
		{"REDIS_TLS": "maybe"},
		{"GAMS_LOG_LEVEL": "loud"},
	} {
		if _, err := FromEnv(env(vars)); err == nil {
			t.Errorf("FromEnv(%v): unexpected success", vars)
		}
	}
}

func TestOpen(t *testing.T) {
	ctx := context.Background()
	for _, backend := range []string{Memory, Badger} {
		t.Run(backend, func(t *testing.T) {
			cfg := &Config{Store: backend}
			s, release, err := cfg.Open(ctx)
			require.NoError(t, err)
			require.NoError(t, s.Set(ctx, "top:name", []byte("yeast")))
			got, err := s.Get(ctx, "top:name")
			require.NoError(t, err)
			assert.Equal(t, "yeast", string(got))
			assert.NoError(t, release())
		})
	}
}

func TestWriteTemplate(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultFile)
	require.NoError(t, WriteTemplate(path))

	vars, err := godotenv.Read(path)
	require.NoError(t, err)
	assert.Equal(t, "6379", vars["REDIS_PORT"])
	assert.Equal(t, Redis, vars["GAMS_STORE"])
}
