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

// Package p25p2 implements the P25 Phase 2 TDMA frame pipeline: hexbit
// extraction with soft-decision erasure marking, RS(63,35)/RS(63,37)-backed
// FACCH/SACCH decode, four-frame ESS assembly, and the MAC-VPDU length
// resolver, all on top of internal/fec.
package p25p2

// Hexbit is one 6-bit RS(2^6) symbol recovered from 3 consecutive dibits,
// carrying the minimum constituent dibit reliability for soft-decision
// erasure marking.
type Hexbit struct {
	Value       byte
	Reliability byte
}

// DefaultErasureThreshold is the reliability cutoff (on a 0..255 scale)
// below which a hexbit position is marked as an RS erasure.
const DefaultErasureThreshold byte = 64

// ExtractHexbit pulls one hexbit out of a dibit/reliability stream at the
// given bit offset and TDMA frame counter:
// dibit_index = (bit_offset + ts_counter*360) / 2, 3 consecutive dibits.
func ExtractHexbit(dibits, reliability []byte, bitOffset, tsCounter int) Hexbit {
	idx := (bitOffset + tsCounter*360) / 2
	var v byte
	minRel := byte(255)
	for i := 0; i < 3; i++ {
		if idx+i >= len(dibits) {
			break
		}
		v = v<<2 | (dibits[idx+i] & 0x3)
		if r := reliability[idx+i]; r < minRel {
			minRel = r
		}
	}
	return Hexbit{Value: v & 0x3F, Reliability: minRel}
}

// erasurePositions returns the RS codeword positions (offset by base)
// whose reliability falls below threshold, capped at maxCount (10 for
// FACCH, 16 for SACCH, 28 for ESS).
func erasurePositions(hexbits []Hexbit, base int, threshold byte, maxCount int) []int {
	var erasures []int
	for i, h := range hexbits {
		if h.Reliability < threshold {
			erasures = append(erasures, base+i)
			if len(erasures) >= maxCount {
				break
			}
		}
	}
	return erasures
}

func hexbitValues(hexbits []Hexbit) []byte {
	out := make([]byte, len(hexbits))
	for i, h := range hexbits {
		out[i] = h.Value
	}
	return out
}
