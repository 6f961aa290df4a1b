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

// Package store defines the key-value contract used as the shared database
// and provides Memory, Redis and Badger implementations of it.
package store

import (
	"context"
	"errors"
	"sort"
	"time"
)

// ErrNotFound is returned when a key or hash field does not exist.
var ErrNotFound = errors.New("key not found")

// Store is a handle to the backing key-value store.  A Store may be used by
// one goroutine at a time; concurrent workers should open their own handle.
type Store interface {
	// Get returns the value of key or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)
	// Set stores value under key without expiration.
	Set(ctx context.Context, key string, value []byte) error
	// Incr atomically adds n to the counter at key and returns the new value.
	// Missing counters start at 0.
	Incr(ctx context.Context, key string, n int64) (int64, error)
	// Scan returns every key starting with prefix in ascending order.
	Scan(ctx context.Context, prefix string) ([]string, error)
	// HGet returns a field of the hash at key or ErrNotFound.
	HGet(ctx context.Context, key, field string) ([]byte, error)
	// HSet sets a field of the hash at key.
	HSet(ctx context.Context, key, field string, value []byte) error
	// Expire sets the time to live of key.
	Expire(ctx context.Context, key string, ttl time.Duration) error
	// Del removes keys.  Missing keys are ignored.
	Del(ctx context.Context, keys ...string) error
	// Close releases the handle.
	Close() error
}

// Member is an element of a sorted set.
type Member struct {
	Name  string
	Score float64
}

// SortedSets is implemented by stores that support ordered sets.
type SortedSets interface {
	// ZAdd adds or updates member in the sorted set at key.
	ZAdd(ctx context.Context, key string, member Member) error
	// ZRangeStore stores the members of src with min <= score <= max into dst.
	ZRangeStore(ctx context.Context, dst, src string, min, max float64) error
	// ZInterStoreMin stores the intersection of keys into dst keeping the
	// lowest score of every member.
	ZInterStoreMin(ctx context.Context, dst string, keys ...string) error
	// ZRange returns all members of key ordered by ascending score.
	ZRange(ctx context.Context, key string) ([]Member, error)
}

// OpenFunc opens a new handle to a store.
type OpenFunc func(ctx context.Context) (Store, error)

func sortMembers(members []Member) {
	sort.Slice(members, func(i, j int) bool {
		if members[i].Score != members[j].Score {
			return members[i].Score < members[j].Score
		}
		return members[i].Name < members[j].Name
	})
}
