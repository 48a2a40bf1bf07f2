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

import "github.com/dsdneo/dsdneo-go/internal/fec"

// BPTC(196,96) protects every DMR data burst's 196 payload bits: after
// undoing the 181-step interleave, the bits form a 13x15 matrix (plus one
// reserved leading bit) whose first 9 rows are Hamming(15,11,3) words and
// whose 15 columns are Hamming(13,9,3) words. The 96 info bits live in
// row 0 columns 3..10 and rows 1..8 columns 0..10.
const (
	// BPTCBits is the interleaved payload size of one data burst.
	BPTCBits = 196

	bptcRows = 13
	bptcCols = 15
)

// bptcDeinterleave undoes the 181-step bit interleave.
func bptcDeinterleave(raw *[BPTCBits]byte) [BPTCBits]byte {
	var d [BPTCBits]byte
	for i := 0; i < BPTCBits; i++ {
		d[i] = raw[i*181%BPTCBits] & 1
	}
	return d
}

// bptcInterleave is the transmit-side inverse, used to build fixtures.
func bptcInterleave(d *[BPTCBits]byte) [BPTCBits]byte {
	var raw [BPTCBits]byte
	for i := 0; i < BPTCBits; i++ {
		raw[i*181%BPTCBits] = d[i] & 1
	}
	return raw
}

// DecodeBPTC19696 deinterleaves and error-corrects one data burst's 196
// payload bits (one bit per byte) and returns the 96 info bits packed
// MSB-first into 12 bytes. Columns are corrected before rows so a
// single-bit row error introduced by a noisy column still falls within
// the row code's radius.
func DecodeBPTC19696(raw [BPTCBits]byte) (data [12]byte, ok bool) {
	d := bptcDeinterleave(&raw)
	ok = true

	col := make([]bool, bptcRows)
	for c := 0; c < bptcCols; c++ {
		for r := 0; r < bptcRows; r++ {
			col[r] = d[1+r*bptcCols+c] == 1
		}
		if !fec.DecodeHamming1393(col) {
			ok = false
		}
		for r := 0; r < bptcRows; r++ {
			d[1+r*bptcCols+c] = boolBit(col[r])
		}
	}

	row := make([]bool, bptcCols)
	for r := 0; r < 9; r++ {
		for c := 0; c < bptcCols; c++ {
			row[c] = d[1+r*bptcCols+c] == 1
		}
		if !fec.DecodeHamming15113(row) {
			ok = false
		}
		for c := 0; c < bptcCols; c++ {
			d[1+r*bptcCols+c] = boolBit(row[c])
		}
	}

	bit := 0
	push := func(v byte) {
		if v != 0 {
			data[bit/8] |= 1 << uint(7-bit%8)
		}
		bit++
	}
	for c := 3; c <= 10; c++ {
		push(d[1+c])
	}
	for r := 1; r <= 8; r++ {
		for c := 0; c <= 10; c++ {
			push(d[1+r*bptcCols+c])
		}
	}
	return data, ok
}

// EncodeBPTC19696 is the transmit-side framing, used to build synthetic
// data bursts for tests: it places the 96 info bits, computes row and
// column parity, and interleaves.
func EncodeBPTC19696(data [12]byte) [BPTCBits]byte {
	var d [BPTCBits]byte

	bit := 0
	pull := func() byte {
		v := data[bit/8] >> uint(7-bit%8) & 1
		bit++
		return v
	}
	for c := 3; c <= 10; c++ {
		d[1+c] = pull()
	}
	for r := 1; r <= 8; r++ {
		for c := 0; c <= 10; c++ {
			d[1+r*bptcCols+c] = pull()
		}
	}

	row := make([]bool, bptcCols)
	for r := 0; r < 9; r++ {
		for c := 0; c < 11; c++ {
			row[c] = d[1+r*bptcCols+c] == 1
		}
		fec.EncodeHamming15113(row)
		for c := 11; c < bptcCols; c++ {
			d[1+r*bptcCols+c] = boolBit(row[c])
		}
	}

	col := make([]bool, bptcRows)
	for c := 0; c < bptcCols; c++ {
		for r := 0; r < 9; r++ {
			col[r] = d[1+r*bptcCols+c] == 1
		}
		fec.EncodeHamming1393(col)
		for r := 9; r < bptcRows; r++ {
			d[1+r*bptcCols+c] = boolBit(col[r])
		}
	}

	return bptcInterleave(&d)
}
