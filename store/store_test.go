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
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) (*Redis, *miniredis.Miniredis) {
	t.Helper()
	server := miniredis.RunT(t)
	r, err := OpenRedis(context.Background(), RedisOptions{Addr: server.Addr()})
	require.NoError(t, err)
	t.Cleanup(func() { r.Close() })
	return r, server
}

func newTestBadger(t *testing.T) *Badger {
	t.Helper()
	b, err := OpenBadger("")
	require.NoError(t, err)
	t.Cleanup(func() { b.Close() })
	return b
}

func backends(t *testing.T) map[string]Store {
	r, _ := newTestRedis(t)
	return map[string]Store{
		"memory": NewMemory(),
		"badger": newTestBadger(t),
		"redis":  r,
	}
}

func TestContract(t *testing.T) {
	ctx := context.Background()
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			_, err := s.Get(ctx, "missing")
			assert.ErrorIs(t, err, ErrNotFound)

			require.NoError(t, s.Set(ctx, "top:name", []byte("S288c")))
			got, err := s.Get(ctx, "top:name")
			require.NoError(t, err)
			assert.Equal(t, "S288c", string(got))

			n, err := s.Incr(ctx, "cnt:ctg:I", 5)
			require.NoError(t, err)
			assert.Equal(t, int64(5), n)
			n, err = s.Incr(ctx, "cnt:ctg:I", 1)
			require.NoError(t, err)
			assert.Equal(t, int64(6), n)

			for i := 1; i <= 3; i++ {
				require.NoError(t, s.Set(ctx, fmt.Sprintf("ctg:I:%d", i), []byte{byte(i)}))
			}
			require.NoError(t, s.Set(ctx, "ctg:II:1", nil))
			require.NoError(t, s.HSet(ctx, "cache:I:0", "I:1-100", []byte("0.5")))

			keys, err := s.Scan(ctx, "ctg:I:")
			require.NoError(t, err)
			assert.Equal(t, []string{"ctg:I:1", "ctg:I:2", "ctg:I:3"}, keys)
			keys, err = s.Scan(ctx, "cache:")
			require.NoError(t, err)
			assert.Equal(t, []string{"cache:I:0"}, keys)

			value, err := s.HGet(ctx, "cache:I:0", "I:1-100")
			require.NoError(t, err)
			assert.Equal(t, "0.5", string(value))
			_, err = s.HGet(ctx, "cache:I:0", "I:1-200")
			assert.ErrorIs(t, err, ErrNotFound)

			require.NoError(t, s.Expire(ctx, "cache:I:0", time.Minute))
			_, err = s.HGet(ctx, "cache:I:0", "I:1-100")
			assert.NoError(t, err)

			require.NoError(t, s.Del(ctx, "ctg:I:1", "cache:I:0", "missing"))
			_, err = s.Get(ctx, "ctg:I:1")
			assert.ErrorIs(t, err, ErrNotFound)
			_, err = s.HGet(ctx, "cache:I:0", "I:1-100")
			assert.ErrorIs(t, err, ErrNotFound)
		})
	}
}

func TestDel_ManyKeys(t *testing.T) {
	ctx := context.Background()
	stores := map[string]Store{
		"memory": NewMemory(),
		"badger": newTestBadger(t),
	}
	for name, s := range stores {
		t.Run(name, func(t *testing.T) {
			var keys []string
			for i := 1; i <= 20000; i++ {
				key := fmt.Sprintf("feature:ctg:I:1:%d", i)
				require.NoError(t, s.Set(ctx, key, []byte("x")))
				keys = append(keys, key)
			}
			for i := 0; i < 100; i++ {
				key := fmt.Sprintf("cache:I:%d", i)
				for _, field := range []string{"I:1-10", "I:11-20", "I:21-30"} {
					require.NoError(t, s.HSet(ctx, key, field, []byte("0.5")))
				}
				keys = append(keys, key)
			}

			require.NoError(t, s.Del(ctx, keys...))

			for _, prefix := range []string{"feature:", "cache:"} {
				left, err := s.Scan(ctx, prefix)
				require.NoError(t, err)
				assert.Empty(t, left, prefix)
			}
			_, err := s.HGet(ctx, "cache:I:42", "I:11-20")
			assert.ErrorIs(t, err, ErrNotFound)
		})
	}
}

func TestIncr_Concurrent(t *testing.T) {
	ctx := context.Background()
	for name, s := range map[string]Store{"memory": NewMemory(), "badger": newTestBadger(t)} {
		t.Run(name, func(t *testing.T) {
			var wg sync.WaitGroup
			for i := 0; i < 8; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					for j := 0; j < 25; j++ {
						if _, err := s.Incr(ctx, "cnt:rg:ctg:I:1", 2); err != nil {
							t.Errorf("Incr failed: %v", err)
						}
					}
				}()
			}
			wg.Wait()
			n, err := s.Incr(ctx, "cnt:rg:ctg:I:1", 0)
			require.NoError(t, err)
			assert.Equal(t, int64(400), n)
		})
	}
}

func TestMemoryExpire(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	now := time.Unix(1000, 0)
	m.now = func() time.Time { return now }

	require.NoError(t, m.HSet(ctx, "cache:I:1", "I:1001-1100", []byte("0.4")))
	require.NoError(t, m.Expire(ctx, "cache:I:1", 180*time.Second))

	now = now.Add(179 * time.Second)
	_, err := m.HGet(ctx, "cache:I:1", "I:1001-1100")
	assert.NoError(t, err)

	now = now.Add(time.Second)
	_, err = m.HGet(ctx, "cache:I:1", "I:1001-1100")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRedisExpire(t *testing.T) {
	ctx := context.Background()
	r, server := newTestRedis(t)

	require.NoError(t, r.HSet(ctx, "cache:I:1", "I:1001-1100", []byte("0.4")))
	require.NoError(t, r.Expire(ctx, "cache:I:1", 180*time.Second))
	server.FastForward(181 * time.Second)
	_, err := r.HGet(ctx, "cache:I:1", "I:1001-1100")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemorySortedSets(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	for i, start := range []float64{1, 101, 201} {
		name := fmt.Sprintf("ctg:I:%d", i+1)
		require.NoError(t, m.ZAdd(ctx, "ctg-s:I", Member{name, start}))
		require.NoError(t, m.ZAdd(ctx, "ctg-e:I", Member{name, start + 99}))
	}

	require.NoError(t, m.ZRangeStore(ctx, "tmp:s", "ctg-s:I", -1e18, 150))
	require.NoError(t, m.ZRangeStore(ctx, "tmp:e", "ctg-e:I", 160, 1e18))
	require.NoError(t, m.ZInterStoreMin(ctx, "tmp:i", "tmp:s", "tmp:e"))

	members, err := m.ZRange(ctx, "tmp:i")
	require.NoError(t, err)
	assert.Equal(t, []Member{{"ctg:I:2", 101}}, members)

	require.NoError(t, m.ZRangeStore(ctx, "tmp:s", "ctg-s:I", 500, 600))
	members, err = m.ZRange(ctx, "tmp:s")
	require.NoError(t, err)
	assert.Empty(t, members)
}

func TestEscapePattern(t *testing.T) {
	assert.Equal(t, `ctg:chr\*1:`, escapePattern("ctg:chr*1:"))
	assert.Equal(t, "ctg:I:", escapePattern("ctg:I:"))
}
