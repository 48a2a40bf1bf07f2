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

// gf64 is the Galois field GF(2^6) with primitive polynomial x^6+x+1 (0x43),
// the field P25's Reed-Solomon codes (hexbit symbols) are defined over.
const (
	gf64Size = 63 // non-zero elements
	gf64Prim = 0x43
)

var gf64Exp [gf64Size * 2]byte
var gf64Log [gf64Size + 1]byte

func init() {
	x := 1
	for i := 0; i < gf64Size; i++ {
		gf64Exp[i] = byte(x)
		gf64Log[x] = byte(i)
		x <<= 1
		if x&0x40 != 0 {
			x ^= gf64Prim
		}
	}
	for i := gf64Size; i < len(gf64Exp); i++ {
		gf64Exp[i] = gf64Exp[i-gf64Size]
	}
}

func gf64Mul(a, b byte) byte {
	if a == 0 || b == 0 {
		return 0
	}
	return gf64Exp[int(gf64Log[a])+int(gf64Log[b])]
}

func gf64Div(a, b byte) byte {
	if a == 0 {
		return 0
	}
	la := int(gf64Log[a])
	lb := int(gf64Log[b])
	d := la - lb
	if d < 0 {
		d += gf64Size
	}
	return gf64Exp[d]
}

func gf64Pow(a byte, p int) byte {
	if a == 0 {
		if p == 0 {
			return 1
		}
		return 0
	}
	l := (int(gf64Log[a]) * p) % gf64Size
	if l < 0 {
		l += gf64Size
	}
	return gf64Exp[l]
}

func gf64Inv(a byte) byte {
	return gf64Exp[gf64Size-int(gf64Log[a])]
}
