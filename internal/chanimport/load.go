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

package chanimport

import (
	"fmt"
	"io"
	"os"

	"github.com/dsdneo/dsdneo-go/internal/config"
)

// LoadFromOptions reads whichever of opts.ChannelMapCSV / GroupListCSV /
// KeysCSV are set, and, if a persistence driver is configured, mirrors the
// result into that store. Any of the three CSV paths may be empty; an
// entirely empty opts yields empty Tables, not an error.
func LoadFromOptions(opts config.ChanimportOptions) (*Tables, *Store, error) {
	t := NewTables()

	if path := opts.ChannelMapCSV.Value; path != "" {
		if err := loadFile(path, t.LoadChannelMapCSV); err != nil {
			return nil, nil, fmt.Errorf("channel map: %w", err)
		}
	}
	if path := opts.GroupListCSV.Value; path != "" {
		if err := loadFile(path, t.LoadGroupListCSV); err != nil {
			return nil, nil, fmt.Errorf("group list: %w", err)
		}
	}
	if path := opts.KeysCSV.Value; path != "" {
		if err := loadFile(path, t.LoadKeysCSV); err != nil {
			return nil, nil, fmt.Errorf("keys: %w", err)
		}
	}

	store, err := OpenStore(opts)
	if err != nil {
		return nil, nil, err
	}
	if err := store.Persist(t); err != nil {
		_ = store.Close()
		return nil, nil, err
	}

	return t, store, nil
}

func loadFile(path string, load func(r io.Reader) error) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return load(f)
}
