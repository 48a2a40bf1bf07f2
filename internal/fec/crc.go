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

const crc16CCITTPoly = 0x1021

// CRC16CCITT computes the CRC-CCITT (poly 0x1021, init 0xFFFF, final
// complement) checksum used by P25 TSBK/PDU and DMR CSBK trailers.
func CRC16CCITT(data []byte) uint16 {
	crc := uint16(0xFFFF)
	for _, b := range data {
		crc ^= uint16(b) << 8
		for i := 0; i < 8; i++ {
			if crc&0x8000 != 0 {
				crc = (crc << 1) ^ crc16CCITTPoly
			} else {
				crc <<= 1
			}
		}
	}
	return ^crc
}

// CRC16CCITTCheck reports whether the last two bytes of data hold the valid
// CRC-CCITT trailer for the bytes preceding them.
func CRC16CCITTCheck(data []byte) bool {
	if len(data) < 2 {
		return false
	}
	want := CRC16CCITT(data[:len(data)-2])
	return byte(want>>8) == data[len(data)-2] && byte(want) == data[len(data)-1]
}
