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

package p25p2

import "github.com/dsdneo/dsdneo-go/internal/pdu"

// SACCHCapacityOctets and FACCHCapacityOctets bound the MAC-VPDU length
// resolver's derived lengths.
const (
	SACCHCapacityOctets = 19
	FACCHCapacityOctets = 16
)

// mfidOpcode keys the known-message-length table by (MFID, opcode).
type mfidOpcode struct {
	mfid, opcode byte
}

// LengthTable maps (MFID, opcode) to the octet length of the message that
// opcode introduces. A zero-value/missing entry means "unknown", triggering
// the MCO-derived fallback.
type LengthTable map[mfidOpcode]int

// NewStandardLengthTable returns the length table for MFID 0 (standard)
// opcodes; vendor tables are built separately and queried first by callers
// that know the active MFID.
func NewStandardLengthTable() LengthTable {
	return LengthTable{
		{0, 0x00}: 0, // MAC_SIGNAL/NULL -- no operand
		{0, 0x01}: 7,
		{0, 0x02}: 8,
		{0, 0x03}: 7,
		{0, 0x10}: 9,  // MAC_PTT
		{0, 0x11}: 9,  // MAC_END_PTT
		{0, 0x12}: 2,  // MAC_IDLE
		{0, 0x13}: 9,  // MAC_ACTIVE
		{0, 0x14}: 6,  // MAC_HANGTIME
		{0, 0x20}: 7,  // MAC_GRANT_UPDATE
		{0, 0x21}: 10, // MAC_GRANT
	}
}

func (t LengthTable) lookup(mfid, opcode byte) (int, bool) {
	v, ok := t[mfidOpcode{mfid, opcode}]
	return v, ok
}

// MacVpduLengths is the resolved (len_A, len_B, len_C) octet split for a
// MAC-VPDU. len_A is always the header message itself; the
// resolver is only concerned with deriving len_B and, if room remains,
// len_C.
type MacVpduLengths struct {
	LenA, LenB, LenC int
}

// ResolveLengths derives the MAC-VPDU message split:
//   - len_B starts from table[(mfid, mac[1])] (the opcode at the start of
//     message B); if that's 0 or exceeds the channel capacity, it is
//     re-derived from MCO (the low 6 bits of mac[1]): len_B = min(MCO-1,
//     capacity).
//   - if space remains after A and B, len_C is looked up the same way from
//     the opcode at the start of message C; if still unknown, len_C fills
//     the remaining capacity.
//
// channelClass selects the capacity (19 octets SACCH, 16 FACCH). mac is the
// full decoded MAC-VPDU octet buffer; lenA is the (already-known) length of
// message A (the MAC header itself).
func ResolveLengths(table LengthTable, mfid byte, channelClass pdu.MacChannelClass, mac []byte, lenA int) MacVpduLengths {
	capacity := FACCHCapacityOctets
	if channelClass == pdu.MacChannelSACCH {
		capacity = SACCHCapacityOctets
	}

	lengths := MacVpduLengths{LenA: lenA}

	if lenA >= len(mac) {
		return lengths
	}
	opcodeB := mac[lenA] & 0x3F
	lenB, known := table.lookup(mfid, opcodeB)
	if !known || lenB == 0 || lenB > capacity {
		mco := int(mac[lenA] & 0x3F)
		lenB = mco - 1
		if lenB < 0 {
			lenB = 0
		}
		if lenB > capacity {
			lenB = capacity
		}
	}
	lengths.LenB = lenB

	remaining := capacity - lenB
	if remaining <= 0 {
		return lengths
	}
	cOffset := lenA + lenB
	if cOffset >= len(mac) {
		lengths.LenC = remaining
		return lengths
	}
	opcodeC := mac[cOffset] & 0x3F
	lenC, known := table.lookup(mfid, opcodeC)
	if !known || lenC == 0 || lenC > remaining {
		lenC = remaining
	}
	lengths.LenC = lenC
	return lengths
}

// ChannelLabel returns the "xch" label logged for a decoded MAC-VPDU's
// channel class.
func ChannelLabel(class pdu.MacChannelClass) string {
	return class.String()
}
