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

// Package aliasdb maps a numeric subscriber or talkgroup ID to a
// human-readable display alias, for populating the event-history
// message/alias field. The group-list CSV import feeds it, and an absent
// alias is never an error: the numeric ID is always authoritative and is
// what gets stored regardless.
package aliasdb

import (
	"strconv"
	"sync"

	"github.com/dsdneo/dsdneo-go/internal/chanimport"
)

// DB is a concurrency-safe, swappable alias lookup table. The zero value is
// an empty, usable DB.
type DB struct {
	mu      sync.RWMutex
	aliases map[uint32]string
}

// New returns an empty alias database.
func New() *DB {
	return &DB{aliases: make(map[uint32]string)}
}

// FromGroups builds a DB from an already-loaded chanimport group list,
// using each group's Name as the alias for its ID.
func FromGroups(groups map[uint32]chanimport.Group) *DB {
	db := New()
	db.LoadGroups(groups)
	return db
}

// LoadGroups replaces every alias named in groups, leaving entries for IDs
// not present in groups untouched.
func (d *DB) LoadGroups(groups map[uint32]chanimport.Group) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for id, g := range groups {
		if g.Name == "" {
			continue
		}
		d.aliases[id] = g.Name
	}
}

// Set records an explicit alias for id, overriding any value a CSV import
// previously set.
func (d *DB) Set(id uint32, alias string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.aliases[id] = alias
}

// Lookup returns the display alias for id, if any has been learned. A
// missing alias is expected and routine, not an error condition: callers
// fall back to the numeric ID for display.
func (d *DB) Lookup(id uint32) (string, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	alias, ok := d.aliases[id]
	return alias, ok
}

// Resolve returns the alias for id if known, otherwise a decimal rendering
// of id itself — the numeric ID remains authoritative, an alias is purely
// cosmetic.
func (d *DB) Resolve(id uint32) string {
	if alias, ok := d.Lookup(id); ok {
		return alias
	}
	return formatID(id)
}

// Len reports how many aliases are currently known.
func (d *DB) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.aliases)
}

func formatID(id uint32) string {
	return strconv.FormatUint(uint64(id), 10)
}
