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

package chanimport_test

import (
	"strings"
	"testing"

	"github.com/dsdneo/dsdneo-go/internal/chanimport"
	"github.com/dsdneo/dsdneo-go/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenStoreNoneDriverIsNil(t *testing.T) {
	t.Parallel()
	store, err := chanimport.OpenStore(config.ChanimportOptions{
		DBDriver: config.From(config.DatabaseDriverNone),
	})
	require.NoError(t, err)
	assert.Nil(t, store)
	assert.NoError(t, store.Close())
}

func TestOpenStorePostgresWithoutDSNErrors(t *testing.T) {
	t.Parallel()
	_, err := chanimport.OpenStore(config.ChanimportOptions{
		DBDriver: config.From(config.DatabaseDriverPostgres),
	})
	require.Error(t, err)
}

func TestStorePersistAndLoadRoundTrip(t *testing.T) {
	t.Parallel()
	dsn := "file:" + t.Name() + "?mode=memory&cache=shared"
	store, err := chanimport.OpenStore(config.ChanimportOptions{
		DBDriver: config.From(config.DatabaseDriverSQLite),
		DBDSN:    config.From(dsn),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	tables := chanimport.NewTables()
	require.NoError(t, tables.LoadChannelMapCSV(strings.NewReader("1,851012500\n")))
	require.NoError(t, tables.LoadGroupListCSV(strings.NewReader("100,Dispatch,D\n")))
	require.NoError(t, tables.LoadKeysCSV(strings.NewReader("5,0xabcd\n")))

	require.NoError(t, store.Persist(tables))

	loaded, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, uint64(851012500), loaded.Channels[1])
	assert.Equal(t, "Dispatch", loaded.Groups[100].Name)
	assert.Equal(t, []byte{0xab, 0xcd}, loaded.Keys[5].Value)
}
