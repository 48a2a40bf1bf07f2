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

// Package chanplan resolves a 16-bit P25/DMR logical channel identifier into
// an RF frequency, slot id, and the symbol-rate parameters the DSP front end
// should use, via a learned IDEN table with per-entry trust levels.
package chanplan

import (
	"fmt"
	"time"
)

// Trust is the confidence level of a learned IDEN table entry.
type Trust int

const (
	TrustUnknown Trust = iota
	TrustProvisional
	TrustConfirmed
)

func (t Trust) String() string {
	switch t {
	case TrustProvisional:
		return "provisional"
	case TrustConfirmed:
		return "confirmed"
	default:
		return "unknown"
	}
}

// slotsPerCarrier is indexed by P25 IDEN channel-type (0..15).
var slotsPerCarrier = [16]int{1, 1, 1, 2, 4, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2}

// IDEN is one entry of the 16-slot P25 IDEN_UP / IDEN_UP_TDMA table.
type IDEN struct {
	Base     uint32 // raw units; Hz = Base*5
	Spac     uint32 // raw units; Hz = Spac*125
	TDMA     bool
	ChanType int
	TxOffset int64

	WACN  uint32
	SYSID uint32
	RFSS  uint8
	SITE  uint8

	Trust Trust
}

func (i IDEN) populated() bool {
	return i.Base != 0 || i.Spac != 0
}

// Resolved is the output of resolving a logical channel.
type Resolved struct {
	FreqHz           uint64
	Slot             int // -1 for FDMA / non-TDMA channels
	SamplesPerSymbol int
	SymbolCenter     int
	Trust            Trust
	OK               bool
}

// Site identifies the trunked system the Plan currently believes it is
// parked on; used to gate IDEN trust promotion.
type Site struct {
	WACN  uint32
	SYSID uint32
	RFSS  uint8
	SITE  uint8
}

// Plan owns the IDEN table, direct channel-map overrides, the CC-candidate
// cache, and the neighbor set for one trunked system.
type Plan struct {
	Idens       [16]IDEN
	ChannelMap  map[uint16]uint64 // learned/CSV-imported exact overrides
	CurrentSite Site

	candidates CandidateRing
	neighbors  NeighborSet
}

// NewPlan returns an empty channel plan.
func NewPlan() *Plan {
	return &Plan{
		ChannelMap: make(map[uint16]uint64),
		neighbors:  NeighborSet{ttl: 30 * time.Minute},
	}
}

func symbolCenter(sps int) int {
	return (sps - 1) / 2
}

// Resolve maps a 16-bit logical channel into a frequency, slot, and the DSP
// symbol-rate parameters. The high nibble of ch selects the IDEN table
// entry; the low 12 bits are the raw channel number.
func (p *Plan) Resolve(ch uint16) Resolved {
	idenIdx := (ch >> 12) & 0xF
	raw := uint32(ch & 0xFFF)
	iden := p.Idens[idenIdx]

	if !iden.populated() {
		return Resolved{OK: false}
	}

	spc := slotsPerCarrier[iden.ChanType&0xF]
	if spc < 1 {
		spc = 1
	}
	step := raw / uint32(spc)
	slot := -1
	if spc > 1 {
		slot = int(raw % uint32(spc))
	}

	freqHz := uint64(iden.Base)*5 + uint64(step)*uint64(iden.Spac)*125
	if override, ok := p.ChannelMap[ch]; ok {
		freqHz = override
	}

	sps := 10
	if spc > 1 {
		sps = 8
	}

	return Resolved{
		FreqHz:           freqHz,
		Slot:             slot,
		SamplesPerSymbol: sps,
		SymbolCenter:     symbolCenter(sps),
		Trust:            iden.Trust,
		OK:               true,
	}
}

// ConfirmIdensForCurrentSite promotes every provisional IDEN entry whose
// learned provenance matches p.CurrentSite to confirmed.
func (p *Plan) ConfirmIdensForCurrentSite() {
	for i := range p.Idens {
		e := &p.Idens[i]
		if e.Trust != TrustProvisional {
			continue
		}
		if e.WACN == p.CurrentSite.WACN && e.SYSID == p.CurrentSite.SYSID &&
			e.RFSS == p.CurrentSite.RFSS && e.SITE == p.CurrentSite.SITE {
			e.Trust = TrustConfirmed
		}
	}
}

// HasConfirmedAlternate reports whether a confirmed IDEN exists at the same
// table index as ch — used by the TSM to gate retunes onto provisional
// entries per the "provisional only if no confirmed alternative" invariant.
func (p *Plan) HasConfirmedAlternate(ch uint16) bool {
	idenIdx := (ch >> 12) & 0xF
	return p.Idens[idenIdx].Trust == TrustConfirmed
}

// FormatChannelSuffix renders the human-readable channel suffix used in UI
// and log lines, e.g. " (FDMA 0001 S4)". slotHint, when >= 0, overrides the
// displayed (1-based) slot number instead of the one derived from ch.
func (p *Plan) FormatChannelSuffix(ch uint16, slotHint int) string {
	idenIdx := (ch >> 12) & 0xF
	raw := uint32(ch & 0xFFF)
	iden := p.Idens[idenIdx]

	spc := slotsPerCarrier[iden.ChanType&0xF]
	if spc < 1 {
		spc = 1
	}
	step := raw / uint32(spc)
	slot := 0
	if spc > 1 {
		slot = int(raw % uint32(spc))
	}
	if slotHint >= 0 {
		slot = slotHint
	}

	return fmt.Sprintf(" (FDMA %04b S%d)", step, slot+1)
}
