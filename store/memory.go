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
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Memory is an in-process Store.  Unlike the networked stores a single Memory
// is safe for concurrent use, and Open hands out the same instance.
type Memory struct {
	mu      sync.Mutex
	strings map[string][]byte
	hashes  map[string]map[string][]byte
	zsets   map[string]map[string]float64
	expires map[string]time.Time
	now     func() time.Time
}

// NewMemory returns an empty Memory store.
func NewMemory() *Memory {
	return &Memory{
		strings: make(map[string][]byte),
		hashes:  make(map[string]map[string][]byte),
		zsets:   make(map[string]map[string]float64),
		expires: make(map[string]time.Time),
		now:     time.Now,
	}
}

// Open returns m itself.  It satisfies OpenFunc.
func (m *Memory) Open(context.Context) (Store, error) {
	return m, nil
}

// expire drops key if its deadline has passed.  m.mu must be held.
func (m *Memory) expire(key string) {
	deadline, ok := m.expires[key]
	if !ok || m.now().Before(deadline) {
		return
	}
	m.remove(key)
}

func (m *Memory) remove(key string) {
	delete(m.strings, key)
	delete(m.hashes, key)
	delete(m.zsets, key)
	delete(m.expires, key)
}

func (m *Memory) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.expire(key)
	value, ok := m.strings[key]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), value...), nil
}

func (m *Memory) Set(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.remove(key)
	m.strings[key] = append([]byte(nil), value...)
	return nil
}

func (m *Memory) Incr(_ context.Context, key string, n int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.expire(key)
	var current int64
	if value, ok := m.strings[key]; ok {
		v, err := strconv.ParseInt(string(value), 10, 64)
		if err != nil {
			return 0, fmt.Errorf("counter %s: %v", key, err)
		}
		current = v
	}
	current += n
	m.strings[key] = []byte(strconv.FormatInt(current, 10))
	return current, nil
}

func (m *Memory) Scan(_ context.Context, prefix string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var keys []string
	collect := func(key string) {
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	for key := range m.expires {
		m.expire(key)
	}
	for key := range m.strings {
		collect(key)
	}
	for key := range m.hashes {
		collect(key)
	}
	for key := range m.zsets {
		collect(key)
	}
	sort.Strings(keys)
	return keys, nil
}

func (m *Memory) HGet(_ context.Context, key, field string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.expire(key)
	value, ok := m.hashes[key][field]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), value...), nil
}

func (m *Memory) HSet(_ context.Context, key, field string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.expire(key)
	hash, ok := m.hashes[key]
	if !ok {
		hash = make(map[string][]byte)
		m.hashes[key] = hash
	}
	hash[field] = append([]byte(nil), value...)
	return nil
}

func (m *Memory) Expire(_ context.Context, key string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.expire(key)
	_, isString := m.strings[key]
	_, isHash := m.hashes[key]
	_, isZSet := m.zsets[key]
	if isString || isHash || isZSet {
		m.expires[key] = m.now().Add(ttl)
	}
	return nil
}

func (m *Memory) Del(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, key := range keys {
		m.remove(key)
	}
	return nil
}

// Close is a no-op; the data outlives every handle.
func (m *Memory) Close() error {
	return nil
}

func (m *Memory) ZAdd(_ context.Context, key string, member Member) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.expire(key)
	set, ok := m.zsets[key]
	if !ok {
		set = make(map[string]float64)
		m.zsets[key] = set
	}
	set[member.Name] = member.Score
	return nil
}

func (m *Memory) ZRangeStore(_ context.Context, dst, src string, min, max float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.expire(src)
	out := make(map[string]float64)
	for name, score := range m.zsets[src] {
		if score >= min && score <= max {
			out[name] = score
		}
	}
	m.remove(dst)
	if len(out) > 0 {
		m.zsets[dst] = out
	}
	return nil
}

func (m *Memory) ZInterStoreMin(_ context.Context, dst string, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out map[string]float64
	for i, key := range keys {
		m.expire(key)
		set := m.zsets[key]
		if i == 0 {
			out = make(map[string]float64, len(set))
			for name, score := range set {
				out[name] = score
			}
			continue
		}
		for name, score := range out {
			other, ok := set[name]
			if !ok {
				delete(out, name)
				continue
			}
			if other < score {
				out[name] = other
			}
		}
	}
	m.remove(dst)
	if len(out) > 0 {
		m.zsets[dst] = out
	}
	return nil
}

func (m *Memory) ZRange(_ context.Context, key string) ([]Member, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.expire(key)
	var members []Member
	for name, score := range m.zsets[key] {
		members = append(members, Member{name, score})
	}
	sortMembers(members)
	return members, nil
}
