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
	"bytes"
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/dgraph-io/badger/v4"
)

const (
	valuePrefix = "v\x00"
	hashPrefix  = "h\x00"
	fieldSep    = "\x00"
)

// Badger is a Store backed by an embedded Badger database.  It does not
// implement SortedSets.  A Badger is safe for concurrent use; Open returns
// handles that share the database and leave it open on Close.
type Badger struct {
	db *badger.DB
}

// OpenBadger opens (or creates) the database in dir.  An empty dir opens an
// in-memory database.
func OpenBadger(dir string) (*Badger, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	if dir == "" {
		opts = opts.WithInMemory(true)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("opening badger database %q: %v", dir, err)
	}
	return &Badger{db}, nil
}

// Open returns a handle sharing b.  It satisfies OpenFunc.
func (b *Badger) Open(context.Context) (Store, error) {
	return badgerHandle{b}, nil
}

type badgerHandle struct {
	*Badger
}

func (badgerHandle) Close() error {
	return nil
}

func valueKey(key string) []byte {
	return []byte(valuePrefix + key)
}

func fieldKey(key, field string) []byte {
	return []byte(hashPrefix + key + fieldSep + field)
}

func fieldsPrefix(key string) []byte {
	return []byte(hashPrefix + key + fieldSep)
}

func (b *Badger) Get(_ context.Context, key string) ([]byte, error) {
	var value []byte
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(valueKey(key))
		if err != nil {
			return err
		}
		value, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrNotFound
	}
	return value, err
}

func (b *Badger) Set(_ context.Context, key string, value []byte) error {
	return b.db.Update(func(txn *badger.Txn) error {
		return txn.Set(valueKey(key), value)
	})
}

func (b *Badger) Incr(_ context.Context, key string, n int64) (int64, error) {
	for {
		var current int64
		err := b.db.Update(func(txn *badger.Txn) error {
			item, err := txn.Get(valueKey(key))
			switch {
			case errors.Is(err, badger.ErrKeyNotFound):
				current = 0
			case err != nil:
				return err
			default:
				value, err := item.ValueCopy(nil)
				if err != nil {
					return err
				}
				if current, err = strconv.ParseInt(string(value), 10, 64); err != nil {
					return fmt.Errorf("counter %s: %v", key, err)
				}
			}
			current += n
			return txn.Set(valueKey(key), []byte(strconv.FormatInt(current, 10)))
		})
		if errors.Is(err, badger.ErrConflict) {
			continue
		}
		return current, err
	}
}

func (b *Badger) Scan(_ context.Context, prefix string) ([]string, error) {
	seen := make(map[string]bool)
	err := b.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		for _, namespace := range []string{valuePrefix, hashPrefix} {
			start := []byte(namespace + prefix)
			for it.Seek(start); it.ValidForPrefix(start); it.Next() {
				key := it.Item().KeyCopy(nil)[len(namespace):]
				if namespace == hashPrefix {
					key = key[:bytes.Index(key, []byte(fieldSep))]
				}
				seen[string(key)] = true
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %v", prefix, err)
	}
	keys := make([]string, 0, len(seen))
	for key := range seen {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys, nil
}

func (b *Badger) HGet(ctx context.Context, key, field string) ([]byte, error) {
	var value []byte
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(fieldKey(key, field))
		if err != nil {
			return err
		}
		value, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrNotFound
	}
	return value, err
}

// HSet keeps the expiration already set on the hash, if any.
func (b *Badger) HSet(_ context.Context, key, field string, value []byte) error {
	return b.db.Update(func(txn *badger.Txn) error {
		entry := badger.NewEntry(fieldKey(key, field), value)
		if deadline := hashDeadline(txn, key); deadline > 0 {
			entry.ExpiresAt = deadline
		}
		return txn.SetEntry(entry)
	})
}

func prefixOptions(key string) badger.IteratorOptions {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = fieldsPrefix(key)
	return opts
}

func hashDeadline(txn *badger.Txn, key string) uint64 {
	it := txn.NewIterator(prefixOptions(key))
	defer it.Close()
	it.Rewind()
	if !it.Valid() {
		return 0
	}
	return it.Item().ExpiresAt()
}

func (b *Badger) Expire(_ context.Context, key string, ttl time.Duration) error {
	return b.db.Update(func(txn *badger.Txn) error {
		type kv struct{ k, v []byte }
		var entries []kv

		item, err := txn.Get(valueKey(key))
		switch {
		case err == nil:
			value, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			entries = append(entries, kv{valueKey(key), value})
		case !errors.Is(err, badger.ErrKeyNotFound):
			return err
		}

		it := txn.NewIterator(prefixOptions(key))
		for it.Rewind(); it.Valid(); it.Next() {
			value, err := it.Item().ValueCopy(nil)
			if err != nil {
				it.Close()
				return err
			}
			entries = append(entries, kv{it.Item().KeyCopy(nil), value})
		}
		it.Close()

		for _, e := range entries {
			if err := txn.SetEntry(badger.NewEntry(e.k, e.v).WithTTL(ttl)); err != nil {
				return err
			}
		}
		return nil
	})
}

// Del collects the hash fields of keys in a read-only transaction and then
// deletes everything through a write batch, so large deletions are neither
// bounded by the transaction size nor slowed down by pending writes.
func (b *Badger) Del(_ context.Context, keys ...string) error {
	doomed := make([][]byte, 0, len(keys))
	err := b.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		for _, key := range keys {
			doomed = append(doomed, valueKey(key))
			prefix := fieldsPrefix(key)
			for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
				doomed = append(doomed, it.Item().KeyCopy(nil))
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("collecting fields: %v", err)
	}

	wb := b.db.NewWriteBatch()
	defer wb.Cancel()
	for _, key := range doomed {
		if err := wb.Delete(key); err != nil {
			return fmt.Errorf("deleting %q: %v", key, err)
		}
	}
	return wb.Flush()
}

// Close closes the database.
func (b *Badger) Close() error {
	return b.db.Close()
}
