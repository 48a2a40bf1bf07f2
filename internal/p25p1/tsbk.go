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

// Package p25p1 implements the P25 Phase 1 frame pipeline: TSBK repetition
// selection, TDULC link-control decode, and voice-frame (HDU/LDU1/LDU2)
// bookkeeping, all built on internal/fec.
package p25p1

import (
	"github.com/dsdneo/dsdneo-go/internal/fec"
	"github.com/dsdneo/dsdneo-go/internal/state"
)

// MaxTSBKRepetitions is the most repetitions a single TSBK burst carries.
const MaxTSBKRepetitions = 3

// Repetition is one already-Viterbi-decoded TSBK candidate: 12 bytes (96
// bits), the last 2 of which are the CRC-16 trailer.
type Repetition struct {
	Bytes [12]byte
}

// SelectTSBK picks the winning repetition: the first
// repetition whose CRC-16 passes wins outright; otherwise the 96 bits are
// majority-voted bitwise across all available repetitions and CRC is
// recomputed on the result.
func SelectTSBK(reps []Repetition) (bytes [12]byte, crcOK bool, selectedIndex int) {
	for i, r := range reps {
		if fec.CRC16CCITTCheck(r.Bytes[:]) {
			return r.Bytes, true, i
		}
	}

	var majority [12]byte
	for bitIdx := 0; bitIdx < 96; bitIdx++ {
		byteIdx, shift := bitIdx/8, 7-bitIdx%8
		ones := 0
		for _, r := range reps {
			if r.Bytes[byteIdx]&(1<<uint(shift)) != 0 {
				ones++
			}
		}
		if ones*2 > len(reps) {
			majority[byteIdx] |= 1 << uint(shift)
		}
	}
	return majority, fec.CRC16CCITTCheck(majority[:]), -1
}

// Header is the fixed first-two-byte layout common to every TSBK.
type Header struct {
	LB      bool
	Protect bool
	Opcode  byte
	MFID    byte
}

// ParseHeader extracts LB/protect/opcode/MFID from a decoded TSBK's first
// two bytes.
func ParseHeader(bytes [12]byte) Header {
	return Header{
		LB:      bytes[0]&0x80 != 0,
		Protect: bytes[0]&0x40 != 0,
		Opcode:  bytes[0] & 0x3F,
		MFID:    bytes[1],
	}
}

// Frame is the outcome of decoding one TSBK burst (all available
// repetitions), combining selection, header parsing, and the counters the
// decode affects.
type Frame struct {
	Bytes         [12]byte
	CRCOK         bool
	SelectedRep   int
	Header        Header
	RefreshCCSync bool
}

// DecodeTSBK runs SelectTSBK, parses the header, records the outcome in
// counters, and reports whether the CC-sync watchdog timer should be
// refreshed.
func DecodeTSBK(reps []Repetition, counters *state.Counters) Frame {
	bytes, ok, idx := SelectTSBK(reps)
	counters.P1TSBKHeader.RecordHard(ok)
	f := Frame{
		Bytes:         bytes,
		CRCOK:         ok,
		SelectedRep:   idx,
		Header:        ParseHeader(bytes),
		RefreshCCSync: ok,
	}
	return f
}

// IsMACEligible reports whether a decoded TSBK qualifies for the MAC-like
// PDU repackaging path: MFID < 2, protect bit clear, CRC OK.
func (f Frame) IsMACEligible() bool {
	return f.CRCOK && f.Header.MFID < 2 && !f.Header.Protect
}

// ToMACPDU repackages a MAC-eligible TSBK as a 24-entry MAC-like PDU:
// the MAC-coded opcode is the raw opcode with 0x40 set, payload is bytes
// 2..9, and the trailing CRC bytes are zeroed.
func (f Frame) ToMACPDU() [24]byte {
	var out [24]byte
	rawOpcode := f.Bytes[0] & 0x3F
	out[0] = rawOpcode | 0x40
	copy(out[1:9], f.Bytes[2:10])
	return out
}
