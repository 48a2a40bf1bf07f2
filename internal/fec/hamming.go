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

package fec

// boolXOR folds a run of booleans with XOR, used by the Hamming parity
// equations below.
func boolXOR(values ...bool) bool {
	result := false
	for _, v := range values {
		result = result != v
	}
	return result
}

// EncodeHamming1393 computes the 4 parity bits of a Hamming(13,9,3) word
// in place: data[0:9] is the payload, data[9:13] is filled with parity.
func EncodeHamming1393(data []bool) {
	data[9] = boolXOR(data[0], data[1], data[3], data[5], data[6])
	data[10] = boolXOR(data[0], data[1], data[2], data[4], data[6], data[7])
	data[11] = boolXOR(data[0], data[1], data[2], data[3], data[5], data[7], data[8])
	data[12] = boolXOR(data[0], data[2], data[4], data[5], data[8])
}

// DecodeHamming1393 corrects a single-bit error in a 13-bit Hamming(13,9,3)
// word in place and reports whether the result is trustworthy (no error, or
// a correctable single-bit error).
func DecodeHamming1393(data []bool) bool {
	c0 := boolXOR(data[0], data[1], data[3], data[5], data[6])
	c1 := boolXOR(data[0], data[1], data[2], data[4], data[6], data[7])
	c2 := boolXOR(data[0], data[1], data[2], data[3], data[5], data[7], data[8])
	c3 := boolXOR(data[0], data[2], data[4], data[5], data[8])

	var syndrome uint8
	if c0 != data[9] {
		syndrome |= 0x01
	}
	if c1 != data[10] {
		syndrome |= 0x02
	}
	if c2 != data[11] {
		syndrome |= 0x04
	}
	if c3 != data[12] {
		syndrome |= 0x08
	}

	switch syndrome {
	case 0x00:
		return true
	case 0x01:
		data[9] = !data[9]
	case 0x02:
		data[10] = !data[10]
	case 0x04:
		data[11] = !data[11]
	case 0x08:
		data[12] = !data[12]
	case 0x0F:
		data[0] = !data[0]
	case 0x07:
		data[1] = !data[1]
	case 0x0E:
		data[2] = !data[2]
	case 0x05:
		data[3] = !data[3]
	case 0x0A:
		data[4] = !data[4]
	case 0x0D:
		data[5] = !data[5]
	case 0x03:
		data[6] = !data[6]
	case 0x06:
		data[7] = !data[7]
	case 0x0C:
		data[8] = !data[8]
	default:
		return false
	}
	return true
}

// EncodeHamming15113 computes the 4 parity bits of a Hamming(15,11,3) word
// in place: data[0:11] is the payload, data[11:15] is filled with parity.
// This is the CACH short-LC / EMB fragment code (DMR ETSI TS 102 361-1
// §B.3.4 "variant 1").
func EncodeHamming15113(data []bool) {
	data[11] = boolXOR(data[0], data[1], data[2], data[3], data[4], data[5], data[6])
	data[12] = boolXOR(data[0], data[1], data[2], data[3], data[7], data[8], data[9])
	data[13] = boolXOR(data[0], data[1], data[4], data[5], data[7], data[8], data[10])
	data[14] = boolXOR(data[0], data[2], data[4], data[6], data[7], data[9], data[10])
}

// DecodeHamming15113 corrects a single-bit error in a 15-bit
// Hamming(15,11,3) word in place and reports whether the result is
// trustworthy.
func DecodeHamming15113(data []bool) bool {
	c0 := boolXOR(data[0], data[1], data[2], data[3], data[4], data[5], data[6])
	c1 := boolXOR(data[0], data[1], data[2], data[3], data[7], data[8], data[9])
	c2 := boolXOR(data[0], data[1], data[4], data[5], data[7], data[8], data[10])
	c3 := boolXOR(data[0], data[2], data[4], data[6], data[7], data[9], data[10])

	var syndrome uint8
	if c0 != data[11] {
		syndrome |= 0x01
	}
	if c1 != data[12] {
		syndrome |= 0x02
	}
	if c2 != data[13] {
		syndrome |= 0x04
	}
	if c3 != data[14] {
		syndrome |= 0x08
	}

	switch syndrome {
	case 0x00:
		return true
	case 0x01:
		data[11] = !data[11]
	case 0x02:
		data[12] = !data[12]
	case 0x04:
		data[13] = !data[13]
	case 0x08:
		data[14] = !data[14]
	case 0x0F:
		data[0] = !data[0]
	case 0x07:
		data[1] = !data[1]
	case 0x0B:
		data[2] = !data[2]
	case 0x03:
		data[3] = !data[3]
	case 0x0D:
		data[4] = !data[4]
	case 0x05:
		data[5] = !data[5]
	case 0x09:
		data[6] = !data[6]
	case 0x0E:
		data[7] = !data[7]
	case 0x06:
		data[8] = !data[8]
	case 0x0A:
		data[9] = !data[9]
	case 0x0C:
		data[10] = !data[10]
	default:
		return false
	}
	return true
}
