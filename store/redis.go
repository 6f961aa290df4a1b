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

package store

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const scanCount = 1000

// RedisOptions describes how to reach a Redis server.
type RedisOptions struct {
	Addr     string
	Password string
	TLS      bool
}

// Redis is a Store backed by a Redis server.
type Redis struct {
	client *redis.Client
}

// NewRedisOpener returns an OpenFunc that dials a fresh connection per call.
func NewRedisOpener(opts RedisOptions) OpenFunc {
	return func(ctx context.Context) (Store, error) {
		return OpenRedis(ctx, opts)
	}
}

// OpenRedis connects to the server described by opts and checks that it
// answers.
func OpenRedis(ctx context.Context, opts RedisOptions) (*Redis, error) {
	options := &redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
	}
	if opts.TLS {
		options.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	client := redis.NewClient(options)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connecting to redis at %s: %v", opts.Addr, err)
	}
	return &Redis{client}, nil
}

func (r *Redis) Get(ctx context.Context, key string) ([]byte, error) {
	value, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	return value, err
}

func (r *Redis) Set(ctx context.Context, key string, value []byte) error {
	return r.client.Set(ctx, key, value, 0).Err()
}

func (r *Redis) Incr(ctx context.Context, key string, n int64) (int64, error) {
	return r.client.IncrBy(ctx, key, n).Result()
}

func (r *Redis) Scan(ctx context.Context, prefix string) ([]string, error) {
	seen := make(map[string]bool)
	iter := r.client.Scan(ctx, 0, escapePattern(prefix)+"*", scanCount).Iterator()
	for iter.Next(ctx) {
		seen[iter.Val()] = true
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("scanning %s: %v", prefix, err)
	}
	keys := make([]string, 0, len(seen))
	for key := range seen {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys, nil
}

func (r *Redis) HGet(ctx context.Context, key, field string) ([]byte, error) {
	value, err := r.client.HGet(ctx, key, field).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	return value, err
}

func (r *Redis) HSet(ctx context.Context, key, field string, value []byte) error {
	return r.client.HSet(ctx, key, field, value).Err()
}

func (r *Redis) Expire(ctx context.Context, key string, ttl time.Duration) error {
	return r.client.Expire(ctx, key, ttl).Err()
}

func (r *Redis) Del(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return r.client.Del(ctx, keys...).Err()
}

func (r *Redis) Close() error {
	return r.client.Close()
}

func (r *Redis) ZAdd(ctx context.Context, key string, member Member) error {
	return r.client.ZAdd(ctx, key, redis.Z{Score: member.Score, Member: member.Name}).Err()
}

func (r *Redis) ZRangeStore(ctx context.Context, dst, src string, min, max float64) error {
	return r.client.ZRangeStore(ctx, dst, redis.ZRangeArgs{
		Key:     src,
		Start:   formatScore(min),
		Stop:    formatScore(max),
		ByScore: true,
	}).Err()
}

func (r *Redis) ZInterStoreMin(ctx context.Context, dst string, keys ...string) error {
	return r.client.ZInterStore(ctx, dst, &redis.ZStore{Keys: keys, Aggregate: "MIN"}).Err()
}

func (r *Redis) ZRange(ctx context.Context, key string) ([]Member, error) {
	zs, err := r.client.ZRangeWithScores(ctx, key, 0, -1).Result()
	if err != nil {
		return nil, err
	}
	members := make([]Member, 0, len(zs))
	for _, z := range zs {
		members = append(members, Member{fmt.Sprint(z.Member), z.Score})
	}
	return members, nil
}

func formatScore(score float64) string {
	switch {
	case math.IsInf(score, 1):
		return "+inf"
	case math.IsInf(score, -1):
		return "-inf"
	}
	return strconv.FormatFloat(score, 'f', -1, 64)
}

// escapePattern escapes the glob metacharacters of a SCAN MATCH pattern.
func escapePattern(s string) string {
	var b strings.Builder
	for _, c := range s {
		switch c {
		case '*', '?', '[', ']', '\\':
			b.WriteByte('\\')
		}
		b.WriteRune(c)
	}
	return b.String()
}
