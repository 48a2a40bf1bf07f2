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

package dmr

import (
	"github.com/dsdneo/dsdneo-go/internal/dmrconst"
	"github.com/dsdneo/dsdneo-go/internal/fec"
)

// SlotTypeBits is the 20-bit Golay(20,8,7)-protected slot-type field split
// around a data burst's sync word: 4-bit color code, 4-bit data type, 12
// parity bits. Golay(20,8) is Golay(24,12) shortened by the 4 high data
// bits, so the shared 24-bit codec serves here too.
const SlotTypeBits = 20

// SlotType identifies what a DMR data-sync burst carries.
type SlotType struct {
	ColorCode byte
	DataType  dmrconst.DataType
}

// EncodeSlotType builds the 20-bit field (one bit per byte, MSB-first).
func EncodeSlotType(st SlotType) [SlotTypeBits]byte {
	word := uint32(st.ColorCode&0xF)<<4 | uint32(st.DataType)&0xF
	cw := fec.Golay24Encode(word)
	var out [SlotTypeBits]byte
	for i := 0; i < SlotTypeBits; i++ {
		out[i] = byte(cw >> uint(SlotTypeBits-1-i) & 1)
	}
	return out
}

// DecodeSlotType corrects and parses a received slot-type field. The 4
// dropped (always-zero) high data bits are reinstated before the Golay
// decode; a correction that lands outside the shortened code's data range
// is rejected.
func DecodeSlotType(bits [SlotTypeBits]byte) (SlotType, bool) {
	var cw uint32
	for i := 0; i < SlotTypeBits; i++ {
		cw = cw<<1 | uint32(bits[i]&1)
	}
	data, ok, _ := fec.Golay24Decode(cw)
	if !ok || data > 0xFF {
		return SlotType{}, false
	}
	return SlotType{
		ColorCode: byte(data >> 4 & 0xF),
		DataType:  dmrconst.DataType(data & 0xF),
	}, true
}
