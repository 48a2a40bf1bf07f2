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

package p25p1

import (
	"github.com/dsdneo/dsdneo-go/internal/chanplan"
	"github.com/dsdneo/dsdneo-go/internal/fec"
	"github.com/dsdneo/dsdneo-go/internal/pdu"
	"github.com/dsdneo/dsdneo-go/internal/tsm"
)

var tduRS = fec.NewRSCode(24, 12)

// LCWFormatGroupVoiceUpdate is the explicit Group Voice Channel Update LCW
// format TDULC grants use.
const LCWFormatGroupVoiceUpdate = 0x44

// GroupVoiceUpdate is the parsed body of an LCW format-0x44 link control
// word: format byte, MFID byte, service-options byte, explicit channel-T,
// channel-R, and talkgroup, 9 bytes (72 bits) total.
type GroupVoiceUpdate struct {
	Format  byte
	MFID    byte
	SvcBits byte
	ChanT   uint16
	ChanR   uint16
	TG      uint16
}

// DecodeTDULC Golay-decodes 12 24-bit codewords (6 data words followed by 6
// parity words), assembles the 24-hexbit-symbol RS(24,12,13)
// codeword, corrects it, and parses the resulting 72-bit LC as a
// GroupVoiceUpdate. Returns ok=false if either the Golay or RS stage fails
// irrecoverably.
func DecodeTDULC(words [12]uint32) (gvu GroupVoiceUpdate, corrected int, ok bool) {
	var symbols [24]byte
	golayCorrections := 0
	for i, w := range words {
		data, gok, n := fec.Golay24Decode(w)
		if !gok {
			return GroupVoiceUpdate{}, 0, false
		}
		golayCorrections += n
		symbols[i*2] = byte((data >> 6) & 0x3F)
		symbols[i*2+1] = byte(data & 0x3F)
	}

	rsCorrected, rsOK := tduRS.Decode(symbols[:], nil)
	if !rsOK {
		return GroupVoiceUpdate{}, 0, false
	}

	// The 6 data words (symbols[0:12], two hexbit symbols each) carry the
	// 72-bit LC; the remaining 12 symbols are RS parity and play no further
	// part once the codeword has been corrected.
	var bitBuf uint32
	var bitCount uint
	var lc [9]byte
	lcPos := 0
	for i := 0; i < 6; i++ {
		hi, lo := symbols[i*2], symbols[i*2+1]
		val := uint32(hi)<<6 | uint32(lo)
		bitBuf = bitBuf<<12 | val
		bitCount += 12
		for bitCount >= 8 {
			bitCount -= 8
			lc[lcPos] = byte(bitBuf >> bitCount)
			lcPos++
		}
	}

	gvu = GroupVoiceUpdate{
		Format:  lc[0],
		MFID:    lc[1],
		SvcBits: lc[2],
		ChanT:   uint16(lc[3])<<8 | uint16(lc[4]),
		ChanR:   uint16(lc[5])<<8 | uint16(lc[6]),
		TG:      uint16(lc[7])<<8 | uint16(lc[8]),
	}
	return gvu, golayCorrections + rsCorrected, true
}

// EncodeTDULC is the inverse of DecodeTDULC's framing: it packs a
// GroupVoiceUpdate into the 9-byte LC, computes the RS(24,12,13) parity
// over its hexbit symbols, and Golay-encodes all 12 resulting 12-bit words
// into 24-bit codewords. Used to build synthetic TDULC fixtures for tests.
func EncodeTDULC(gvu GroupVoiceUpdate) [12]uint32 {
	lc := [9]byte{
		gvu.Format, gvu.MFID, gvu.SvcBits,
		byte(gvu.ChanT >> 8), byte(gvu.ChanT),
		byte(gvu.ChanR >> 8), byte(gvu.ChanR),
		byte(gvu.TG >> 8), byte(gvu.TG),
	}

	var dataSymbols [12]byte
	var bitBuf uint32
	var bitCount uint
	si := 0
	for _, b := range lc {
		bitBuf = bitBuf<<8 | uint32(b)
		bitCount += 8
		for bitCount >= 6 {
			bitCount -= 6
			dataSymbols[si] = byte((bitBuf >> bitCount) & 0x3F)
			si++
		}
	}

	parity := tduRS.Encode(dataSymbols[:])

	var words [12]uint32
	for i := 0; i < 6; i++ {
		val := uint32(dataSymbols[i*2])<<6 | uint32(dataSymbols[i*2+1])
		words[i] = fec.Golay24Encode(val)
	}
	for i := 0; i < 6; i++ {
		val := uint32(parity[i*2])<<6 | uint32(parity[i*2+1])
		words[6+i] = fec.Golay24Encode(val)
	}
	return words
}

// TDULCOptions carries the narrow subset of follower policy the TDULC LCW
// retune path checks directly: LCW-retune enabled, group calls allowed,
// TG-hold satisfied, encryption allowed if the encrypted service bit is
// set.
type TDULCOptions struct {
	LCWRetune bool
	Trunk     bool
	Tsm       tsm.Options
}

const encryptedSvcBit = 0x40

// HandleGroupVoiceUpdate applies the LCW-retune/trunk/policy-gate checks to
// a decoded format-0x44 LCW and, if they all pass and the channel resolves,
// returns the Grant event to raise into the TSM.
//
// lastSrc is state.lastsrc: format 0x44 carries no source RID of its own,
// so the grant's Src is whatever source RID was last observed by another
// frame. If that has never happened, lastSrc is 0 and the grant reports a
// zero source.
func HandleGroupVoiceUpdate(gvu GroupVoiceUpdate, opts TDULCOptions, plan *chanplan.Plan, lastSrc uint32) (ev pdu.SmEvent, ok bool) {
	if gvu.Format != LCWFormatGroupVoiceUpdate {
		return pdu.SmEvent{}, false
	}
	if !opts.LCWRetune || !opts.Trunk {
		return pdu.SmEvent{}, false
	}

	resolved := plan.Resolve(gvu.ChanT)
	if !resolved.OK {
		return pdu.SmEvent{}, false
	}
	if resolved.Trust == chanplan.TrustProvisional && plan.HasConfirmedAlternate(gvu.ChanT) {
		return pdu.SmEvent{}, false
	}

	grant := pdu.Grant{
		FreqHz:   resolved.FreqHz,
		TGOrDst:  uint32(gvu.TG),
		Src:      lastSrc,
		IsGroup:  true,
		SvcBits:  gvu.SvcBits,
		Slot:     resolved.Slot,
		Protocol: "p25p1",
	}
	if gPass, _ := tsm.EvaluateGates(opts.Tsm, grant); !gPass {
		return pdu.SmEvent{}, false
	}

	return pdu.SmEvent{Kind: pdu.SmEventGrant, Slot: resolved.Slot, Grant: grant}, true
}
