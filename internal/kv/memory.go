// SPDX-License-Identifier: AGPL-3.0-or-later
// dsdneo-go - software digital-voice decoder for trunked and conventional LMR
// Copyright (C) 2024-2026 The dsdneo-go Authors
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.
//
// The source code is available at <https://github.com/dsdneo/dsdneo-go>

package kv

import (
	"context"
	"fmt"
	"path"
	"time"

	"github.com/puzpuzpuz/xsync/v4"
)

func makeInMemoryKV() KV {
	return &inMemoryKV{
		m: xsync.NewMap[string, kvValue](),
	}
}

type kvValue struct {
	values [][]byte
	ttl    time.Time // zero means no expiry
}

func (v kvValue) expired() bool {
	return !v.ttl.IsZero() && v.ttl.Before(time.Now())
}

type inMemoryKV struct {
	m *xsync.Map[string, kvValue]
}

func (kv *inMemoryKV) Has(_ context.Context, key string) (bool, error) {
	v, ok := kv.m.Load(key)
	if !ok {
		return false, nil
	}
	if v.expired() {
		kv.m.Delete(key)
		return false, nil
	}
	return true, nil
}

func (kv *inMemoryKV) Get(_ context.Context, key string) ([]byte, error) {
	v, ok := kv.m.Load(key)
	if !ok {
		return nil, fmt.Errorf("key %s not found", key)
	}
	if v.expired() {
		kv.m.Delete(key)
		return nil, fmt.Errorf("key %s not found", key)
	}
	if len(v.values) == 0 {
		return nil, fmt.Errorf("key %s has no value", key)
	}
	return v.values[0], nil
}

func (kv *inMemoryKV) Set(_ context.Context, key string, value []byte) error {
	kv.m.Store(key, kvValue{values: [][]byte{value}})
	return nil
}

func (kv *inMemoryKV) Delete(_ context.Context, key string) error {
	kv.m.Delete(key)
	return nil
}

func (kv *inMemoryKV) Expire(_ context.Context, key string, ttl time.Duration) error {
	v, ok := kv.m.Load(key)
	if !ok {
		return fmt.Errorf("key %s not found", key)
	}
	if ttl <= 0 {
		kv.m.Delete(key)
		return nil
	}
	v.ttl = time.Now().Add(ttl)
	kv.m.Store(key, v)
	return nil
}

func (kv *inMemoryKV) Scan(_ context.Context, _ uint64, match string, _ int64) ([]string, uint64, error) {
	var keys []string
	kv.m.Range(func(key string, v kvValue) bool {
		if v.expired() {
			kv.m.Delete(key)
			return true
		}
		if matched, _ := path.Match(match, key); match == "" || matched {
			keys = append(keys, key)
		}
		return true
	})
	return keys, 0, nil
}

func (kv *inMemoryKV) RPush(_ context.Context, key string, value []byte) (int64, error) {
	v, _ := kv.m.Load(key)
	v.values = append(v.values, value)
	kv.m.Store(key, v)
	return int64(len(v.values)), nil
}

func (kv *inMemoryKV) LDrain(_ context.Context, key string) ([][]byte, error) {
	v, ok := kv.m.LoadAndDelete(key)
	if !ok {
		return nil, nil
	}
	return v.values, nil
}

func (kv *inMemoryKV) Close() error {
	return nil
}
