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

// Package chanimport parses the operator-supplied channel map, group list,
// and key CSV files into the in-memory tables the decoder reads from, and
// optionally mirrors them into a durable gorm-backed store (sqlite or
// postgres) for inspection and reuse across restarts. The CSV-derived maps
// are always the hot path; persistence is best-effort and never consulted
// during decode.
package chanimport

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/dsdneo/dsdneo-go/internal/chanplan"
)

var (
	ErrBadRecord = errors.New("chanimport: malformed record")
	ErrBadMode   = errors.New("chanimport: unknown group mode")
)

// GroupMode is the group-list "mode" column: A (analog), B (TDMA slot B),
// D (DMR), DE (DMR encrypted).
type GroupMode string

const (
	GroupModeAnalog       GroupMode = "A"
	GroupModeTDMASlotB    GroupMode = "B"
	GroupModeDMR          GroupMode = "D"
	GroupModeDMREncrypted GroupMode = "DE"
)

func parseGroupMode(s string) (GroupMode, error) {
	switch GroupMode(strings.ToUpper(strings.TrimSpace(s))) {
	case GroupModeAnalog:
		return GroupModeAnalog, nil
	case GroupModeTDMASlotB:
		return GroupModeTDMASlotB, nil
	case GroupModeDMR:
		return GroupModeDMR, nil
	case GroupModeDMREncrypted:
		return GroupModeDMREncrypted, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrBadMode, s)
	}
}

// Group is one group-list entry: a talkgroup/subscriber ID mapped to a
// display name and its expected mode.
type Group struct {
	ID   uint32
	Name string
	Mode GroupMode
}

// Key is one decoded key-list entry. For a hex key Value holds the decoded
// key bytes; for a decimal key it holds the decimal digits as ASCII text.
type Key struct {
	ID    uint32
	Value []byte
}

// Tables is the full set of CSV-derived in-memory lookup tables a decoder
// instance consults: channel map overrides (fed into chanplan.Plan), the
// talkgroup/subscriber group list, and key material.
type Tables struct {
	Channels map[uint16]uint64
	Groups   map[uint32]Group
	Keys     map[uint32]Key
}

// NewTables returns an empty table set.
func NewTables() *Tables {
	return &Tables{
		Channels: make(map[uint16]uint64),
		Groups:   make(map[uint32]Group),
		Keys:     make(map[uint32]Key),
	}
}

// ApplyToPlan copies every channel-map override into p.ChannelMap, letting
// chanplan.Plan.Resolve return the imported frequency verbatim.
func (t *Tables) ApplyToPlan(p *chanplan.Plan) {
	for ch, hz := range t.Channels {
		p.ChannelMap[ch] = hz
	}
}

// LoadChannelMapCSV reads "lcn,hz" rows (LCN in decimal or 0x-prefixed hex,
// Hz in decimal) into t.Channels. Blank lines and lines starting with '#'
// are skipped.
func (t *Tables) LoadChannelMapCSV(r io.Reader) error {
	return readCSV(r, 2, func(rec []string) error {
		lcn, err := parseUint(rec[0], 16)
		if err != nil {
			return fmt.Errorf("%w: channel %q: %w", ErrBadRecord, rec[0], err)
		}
		hz, err := parseUint(rec[1], 64)
		if err != nil {
			return fmt.Errorf("%w: frequency %q: %w", ErrBadRecord, rec[1], err)
		}
		t.Channels[uint16(lcn)] = hz
		return nil
	})
}

// LoadGroupListCSV reads "id,name,mode" rows into t.Groups, where mode is
// one of A, B, D, DE.
func (t *Tables) LoadGroupListCSV(r io.Reader) error {
	return readCSV(r, 3, func(rec []string) error {
		id, err := parseUint(rec[0], 32)
		if err != nil {
			return fmt.Errorf("%w: id %q: %w", ErrBadRecord, rec[0], err)
		}
		mode, err := parseGroupMode(rec[2])
		if err != nil {
			return err
		}
		t.Groups[uint32(id)] = Group{ID: uint32(id), Name: strings.TrimSpace(rec[1]), Mode: mode}
		return nil
	})
}

// LoadKeysCSV reads "id,key" rows, where key is decimal or 0x-prefixed hex,
// into t.Keys.
func (t *Tables) LoadKeysCSV(r io.Reader) error {
	return readCSV(r, 2, func(rec []string) error {
		id, err := parseUint(rec[0], 32)
		if err != nil {
			return fmt.Errorf("%w: id %q: %w", ErrBadRecord, rec[0], err)
		}
		keyVal, err := parseKeyBytes(rec[1])
		if err != nil {
			return fmt.Errorf("%w: key %q: %w", ErrBadRecord, rec[1], err)
		}
		t.Keys[uint32(id)] = Key{ID: uint32(id), Value: keyVal}
		return nil
	})
}

func readCSV(r io.Reader, minFields int, handle func(rec []string) error) error {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	for {
		rec, err := reader.Read()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("%w: %w", ErrBadRecord, err)
		}
		if len(rec) == 0 || strings.HasPrefix(strings.TrimSpace(rec[0]), "#") {
			continue
		}
		if len(rec) < minFields {
			return fmt.Errorf("%w: expected at least %d fields, got %d", ErrBadRecord, minFields, len(rec))
		}
		if err := handle(rec); err != nil {
			return err
		}
	}
}

func parseUint(s string, bits int) (uint64, error) {
	s = strings.TrimSpace(s)
	base := 10
	if strings.HasPrefix(strings.ToLower(s), "0x") {
		s = s[2:]
		base = 16
	}
	return strconv.ParseUint(s, base, bits)
}

func parseKeyBytes(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(strings.ToLower(s), "0x") {
		s = s[2:]
		if len(s)%2 != 0 {
			s = "0" + s
		}
		out := make([]byte, len(s)/2)
		for i := range out {
			v, err := strconv.ParseUint(s[i*2:i*2+2], 16, 8)
			if err != nil {
				return nil, err
			}
			out[i] = byte(v)
		}
		return out, nil
	}
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return nil, err
	}
	return []byte(strconv.FormatUint(v, 10)), nil
}
