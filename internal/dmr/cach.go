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

// Package dmr implements the DMR Tier II/III frame pipeline: the CACH's
// embedded SLCO/EMB signaling, CSBK decode, data-header PDU assembly with
// DBSN tracking, and LCN-based channel resolution, reusing internal/tsm for
// the trunking-SM shape and internal/fec for FEC primitives.
package dmr

import (
	"github.com/dsdneo/dsdneo-go/internal/dmrconst"
	"github.com/dsdneo/dsdneo-go/internal/fec"
)

// CACH is the decoded Common Announcement Channel carried ahead of every
// DMR Tier III burst: a Hamming(15,11,3)-protected short link-control word
// (SLCO + the embedded LCSS/color-code/PI fields the EMB also repeats) plus
// which of the two TDMA slots it announces is carrying inbound traffic.
type CACH struct {
	SLCO      dmrconst.SLCO
	LCSS      byte
	ColorCode byte
	PI        bool
	TC        bool // Tactical Channel: true if slot 1, false if slot 0
	Corrected bool
	OK        bool
}

// ParseCACH Hamming-decodes the CACH word (bits[0] is TC, bits[1:16] is the
// full Hamming(15,11,3)-protected short LC: 11 payload bits followed by its
// 4 parity bits) and extracts its fields.
func ParseCACH(bits [16]byte) CACH {
	tc := bits[0] != 0

	full := make([]bool, 15)
	for i := 0; i < 15; i++ {
		full[i] = bits[i+1] != 0
	}

	ok := fec.DecodeHamming15113(full)

	slco := dmrconst.SLCO((boolBit(full[0]) << 1) | boolBit(full[1]))
	colorCode := byte(boolBit(full[2])<<3 | boolBit(full[3])<<2 | boolBit(full[4])<<1 | boolBit(full[5]))
	pi := full[6]
	lcss := byte(boolBit(full[7])<<1 | boolBit(full[8]))

	return CACH{
		SLCO:      slco,
		LCSS:      lcss,
		ColorCode: colorCode,
		PI:        pi,
		TC:        tc,
		Corrected: ok,
		OK:        ok,
	}
}

func boolBit(b bool) byte {
	if b {
		return 1
	}
	return 0
}

// EncodeCACH is the inverse of ParseCACH's framing, used to build synthetic
// CACH fixtures for tests.
func EncodeCACH(c CACH) [16]byte {
	full := make([]bool, 15)
	full[0] = c.SLCO&0x2 != 0
	full[1] = c.SLCO&0x1 != 0
	full[2] = c.ColorCode&0x8 != 0
	full[3] = c.ColorCode&0x4 != 0
	full[4] = c.ColorCode&0x2 != 0
	full[5] = c.ColorCode&0x1 != 0
	full[6] = c.PI
	full[7] = c.LCSS&0x2 != 0
	full[8] = c.LCSS&0x1 != 0

	fec.EncodeHamming15113(full)

	var out [16]byte
	if c.TC {
		out[0] = 1
	}
	for i := 0; i < 15; i++ {
		if full[i] {
			out[i+1] = 1
		}
	}
	return out
}
