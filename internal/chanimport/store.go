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

	"github.com/dsdneo/dsdneo-go/internal/config"
	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// channelRow, groupRow and keyRow are the gorm-persisted mirrors of the
// in-memory Tables maps. Persistence is a durable record of the last
// import, never read back onto the decode path.
type channelRow struct {
	LCN uint16 `gorm:"primaryKey"`
	Hz  uint64
}

type groupRow struct {
	ID   uint32 `gorm:"primaryKey"`
	Name string
	Mode string
}

type keyRow struct {
	ID    uint32 `gorm:"primaryKey"`
	Value []byte
}

// Store mirrors imported Tables into a gorm-backed database, selected by
// config.ChanimportOptions.DBDriver.
type Store struct {
	db *gorm.DB
}

// OpenStore opens (creating and migrating if necessary) the persistence
// backend named by opts. A DatabaseDriverNone driver, or an unset one,
// returns a nil *Store; callers must treat that as "persistence disabled".
func OpenStore(opts config.ChanimportOptions) (*Store, error) {
	driver := opts.DBDriver.Value
	if driver == "" || driver == config.DatabaseDriverNone {
		return nil, nil
	}

	var dialector gorm.Dialector
	switch driver {
	case config.DatabaseDriverSQLite:
		dsn := opts.DBDSN.Value
		if dsn == "" {
			dsn = "chanimport.sqlite"
		}
		dialector = sqlite.Open(dsn)
	case config.DatabaseDriverPostgres:
		if opts.DBDSN.Value == "" {
			return nil, fmt.Errorf("chanimport: postgres driver requires a DSN")
		}
		dialector = postgres.Open(opts.DBDSN.Value)
	default:
		return nil, fmt.Errorf("chanimport: unknown database driver %q", driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("chanimport: open database: %w", err)
	}
	if err := db.AutoMigrate(&channelRow{}, &groupRow{}, &keyRow{}); err != nil {
		return nil, fmt.Errorf("chanimport: migrate database: %w", err)
	}
	return &Store{db: db}, nil
}

// Persist upserts every entry of t into the store. A nil *Store is a no-op,
// so callers need not special-case "persistence disabled".
func (s *Store) Persist(t *Tables) error {
	if s == nil {
		return nil
	}

	if len(t.Channels) > 0 {
		rows := make([]channelRow, 0, len(t.Channels))
		for lcn, hz := range t.Channels {
			rows = append(rows, channelRow{LCN: lcn, Hz: hz})
		}
		if err := s.db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "lcn"}},
			DoUpdates: clause.AssignmentColumns([]string{"hz"}),
		}).CreateInBatches(rows, len(rows)).Error; err != nil {
			return fmt.Errorf("chanimport: persist channel map: %w", err)
		}
	}

	if len(t.Groups) > 0 {
		rows := make([]groupRow, 0, len(t.Groups))
		for _, g := range t.Groups {
			rows = append(rows, groupRow{ID: g.ID, Name: g.Name, Mode: string(g.Mode)})
		}
		if err := s.db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"name", "mode"}),
		}).CreateInBatches(rows, len(rows)).Error; err != nil {
			return fmt.Errorf("chanimport: persist group list: %w", err)
		}
	}

	if len(t.Keys) > 0 {
		rows := make([]keyRow, 0, len(t.Keys))
		for _, k := range t.Keys {
			rows = append(rows, keyRow{ID: k.ID, Value: k.Value})
		}
		if err := s.db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"value"}),
		}).CreateInBatches(rows, len(rows)).Error; err != nil {
			return fmt.Errorf("chanimport: persist keys: %w", err)
		}
	}

	return nil
}

// Load reads every persisted row back into a fresh Tables, for tooling that
// wants to inspect or re-export the last import without the source CSVs.
func (s *Store) Load() (*Tables, error) {
	t := NewTables()
	if s == nil {
		return t, nil
	}

	var channels []channelRow
	if err := s.db.Find(&channels).Error; err != nil {
		return nil, fmt.Errorf("chanimport: load channel map: %w", err)
	}
	for _, c := range channels {
		t.Channels[c.LCN] = c.Hz
	}

	var groups []groupRow
	if err := s.db.Find(&groups).Error; err != nil {
		return nil, fmt.Errorf("chanimport: load group list: %w", err)
	}
	for _, g := range groups {
		t.Groups[g.ID] = Group{ID: g.ID, Name: g.Name, Mode: GroupMode(g.Mode)}
	}

	var keys []keyRow
	if err := s.db.Find(&keys).Error; err != nil {
		return nil, fmt.Errorf("chanimport: load keys: %w", err)
	}
	for _, k := range keys {
		t.Keys[k.ID] = Key{ID: k.ID, Value: k.Value}
	}

	return t, nil
}

// Close releases the underlying database connection.
func (s *Store) Close() error {
	if s == nil {
		return nil
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
