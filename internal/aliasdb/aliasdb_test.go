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

package aliasdb_test

import (
	"testing"

	"github.com/dsdneo/dsdneo-go/internal/aliasdb"
	"github.com/dsdneo/dsdneo-go/internal/chanimport"
	"github.com/stretchr/testify/assert"
)

func TestLookupMissingIsNotError(t *testing.T) {
	t.Parallel()
	db := aliasdb.New()
	alias, ok := db.Lookup(1234)
	assert.False(t, ok)
	assert.Empty(t, alias)
}

func TestResolveFallsBackToNumericID(t *testing.T) {
	t.Parallel()
	db := aliasdb.New()
	assert.Equal(t, "1234", db.Resolve(1234))
}

func TestSetAndResolve(t *testing.T) {
	t.Parallel()
	db := aliasdb.New()
	db.Set(100, "Fire Dispatch")
	assert.Equal(t, "Fire Dispatch", db.Resolve(100))
}

func TestFromGroupsSkipsEmptyNames(t *testing.T) {
	t.Parallel()
	groups := map[uint32]chanimport.Group{
		1: {ID: 1, Name: "Fire Dispatch", Mode: chanimport.GroupModeDMR},
		2: {ID: 2, Name: "", Mode: chanimport.GroupModeAnalog},
	}
	db := aliasdb.FromGroups(groups)
	assert.Equal(t, 1, db.Len())
	assert.Equal(t, "Fire Dispatch", db.Resolve(1))
	assert.Equal(t, "2", db.Resolve(2))
}

func TestLoadGroupsDoesNotClearExistingEntries(t *testing.T) {
	t.Parallel()
	db := aliasdb.New()
	db.Set(999, "Manual Override")
	db.LoadGroups(map[uint32]chanimport.Group{1: {ID: 1, Name: "Imported"}})

	assert.Equal(t, "Manual Override", db.Resolve(999))
	assert.Equal(t, "Imported", db.Resolve(1))
}
