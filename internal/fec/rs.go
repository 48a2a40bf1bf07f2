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

// RSCode is a Reed-Solomon code over GF(64) (hexbit symbols), parameterized
// by total codeword length n and data-symbol count k. P25 uses three
// instances: RS(24,12,13) for phase 1 TDULC, RS(63,35) for phase 2 FACCH,
// and RS(63,37) for phase 2 SACCH.
type RSCode struct {
	N, K int
	gen  []byte
}

// NewRSCode builds the generator polynomial for an (n,k) Reed-Solomon code
// over GF(64).
func NewRSCode(n, k int) *RSCode {
	nsym := n - k
	gen := []byte{1}
	for i := 0; i < nsym; i++ {
		gen = rsPolyMulMonic(gen, gf64Exp[i])
	}
	return &RSCode{N: n, K: k, gen: gen}
}

// rsPolyMulMonic multiplies poly by (x - alpha^root), i.e. (x + alpha^root)
// in characteristic 2.
func rsPolyMulMonic(poly []byte, root byte) []byte {
	out := make([]byte, len(poly)+1)
	copy(out, poly)
	for i := len(poly) - 1; i >= 0; i-- {
		out[i+1] ^= gf64Mul(poly[i], root)
	}
	return out
}

// Encode returns the N-K parity symbols for the given K data symbols
// (systematic encoding: codeword is data followed by parity).
func (c *RSCode) Encode(data []byte) []byte {
	nsym := c.N - c.K
	msg := make([]byte, c.K+nsym)
	copy(msg, data)
	for i := 0; i < c.K; i++ {
		coef := msg[i]
		if coef == 0 {
			continue
		}
		for j := 1; j < len(c.gen); j++ {
			msg[i+j] ^= gf64Mul(c.gen[j], coef)
		}
	}
	return msg[c.K:]
}

func (c *RSCode) syndromes(codeword []byte) []byte {
	nsym := c.N - c.K
	syn := make([]byte, nsym)
	for i := 0; i < nsym; i++ {
		var s byte
		root := gf64Exp[i]
		for _, coef := range codeword {
			s = gf64Mul(s, root) ^ coef
		}
		syn[i] = s
	}
	return syn
}

func rsAllZero(p []byte) bool {
	for _, v := range p {
		if v != 0 {
			return false
		}
	}
	return true
}

// Decode attempts to correct codeword (length N, highest-degree symbol
// first, data followed by parity) in place, given zero or more known erasure
// positions (0-based, counted the same way as codeword indices). Returns the
// number of symbols corrected and whether decoding succeeded.
//
// When erasures are supplied, this runs the simpler errors-known-location
// Forney correction directly against those positions — the phase 2 hexbit
// scheme this serves marks unreliable symbols as erasures from the
// soft-decision front end precisely so the decoder never has to run a blind
// search for their locations. With no erasures it falls back to full
// Berlekamp-Massey/Chien-search error decoding for the phase 1 RS(24,12,13)
// case, which never carries erasure hints.
func (c *RSCode) Decode(codeword []byte, erasures []int) (corrected int, ok bool) {
	nsym := c.N - c.K
	syn := c.syndromes(codeword)
	if rsAllZero(syn) {
		return 0, true
	}
	if len(erasures) > nsym {
		return 0, false
	}

	if len(erasures) > 0 {
		if !rsForneyCorrect(codeword, syn, erasures, c.N) || !rsAllZero(c.syndromes(codeword)) {
			return 0, false
		}
		return len(erasures), true
	}

	errLoc, lok := rsBerlekampMassey(syn, 0)
	if !lok {
		return 0, false
	}
	errPos := rsChienSearch(errLoc, c.N)
	if errPos == nil || len(errPos) != rsPolyDegree(errLoc) {
		return 0, false
	}
	if 2*len(errPos) > nsym {
		return 0, false
	}
	if !rsForneyCorrect(codeword, syn, errPos, c.N) {
		return 0, false
	}
	return len(errPos), true
}

func rsPolyDegree(p []byte) int {
	d := len(p) - 1
	for d > 0 && p[d] == 0 {
		d--
	}
	return d
}

// rsPolyMul multiplies two polynomials over GF(64), coefficients ordered
// highest-degree first.
func rsPolyMul(a, b []byte) []byte {
	out := make([]byte, len(a)+len(b)-1)
	for i, av := range a {
		if av == 0 {
			continue
		}
		for j, bv := range b {
			out[i+j] ^= gf64Mul(av, bv)
		}
	}
	return out
}

// rsBerlekampMassey finds the error-locator polynomial from the (Forney)
// syndromes, seeded with the known erasure count.
func rsBerlekampMassey(syn []byte, nErasures int) ([]byte, bool) {
	n := len(syn)
	errLoc := []byte{1}
	oldLoc := []byte{1}
	for i := 0; i < n; i++ {
		oldLoc = append(oldLoc, 0)
		delta := syn[i]
		for j := 1; j < len(errLoc); j++ {
			delta ^= gf64Mul(errLoc[len(errLoc)-1-j], syn[i-j])
		}
		if delta == 0 {
			continue
		}
		if len(oldLoc) > len(errLoc) {
			newLoc := rsPolyScale(oldLoc, delta)
			oldLoc = rsPolyScale(errLoc, gf64Inv(delta))
			errLoc = newLoc
		}
		scaled := rsPolyScale(oldLoc, delta)
		errLoc = rsPolyXor(errLoc, scaled)
	}
	errLoc = rsTrimLeadingZeros(errLoc)
	if (len(errLoc)-1)*2 > n {
		return nil, false
	}
	return errLoc, true
}

func rsPolyScale(p []byte, s byte) []byte {
	out := make([]byte, len(p))
	for i, v := range p {
		out[i] = gf64Mul(v, s)
	}
	return out
}

func rsPolyXor(a, b []byte) []byte {
	n := len(a)
	if len(b) > n {
		n = len(b)
	}
	out := make([]byte, n)
	for i := 0; i < n; i++ {
		var av, bv byte
		if i < len(a) {
			av = a[len(a)-1-i]
		}
		if i < len(b) {
			bv = b[len(b)-1-i]
		}
		out[n-1-i] = av ^ bv
	}
	return out
}

func rsTrimLeadingZeros(p []byte) []byte {
	i := 0
	for i < len(p)-1 && p[i] == 0 {
		i++
	}
	return p[i:]
}

// rsChienSearch finds the roots of the error-locator polynomial by brute
// force evaluation over all n codeword positions, returning their index
// positions (0-based from the start of the codeword).
func rsChienSearch(errLoc []byte, n int) []int {
	var positions []int
	for i := 0; i < n; i++ {
		x := gf64Exp[(gf64Size-i)%gf64Size]
		if rsPolyEval(errLoc, x) == 0 {
			positions = append(positions, n-1-i)
		}
	}
	return positions
}

func rsPolyEval(p []byte, x byte) byte {
	var y byte
	for _, c := range p {
		y = gf64Mul(y, x) ^ c
	}
	return y
}

// rsForneyCorrect computes error magnitudes via the Forney algorithm for the
// given error-locator roots and applies the correction to codeword in
// place. Returns false if the correction could not be computed.
func rsForneyCorrect(codeword []byte, syn []byte, positions []int, n int) bool {
	for _, pos := range positions {
		if pos < 0 || pos >= len(codeword) {
			return false
		}
	}
	// The symbol at index pos has degree len(codeword)-1-pos.
	locator := func(pos int) byte { return gf64Exp[(len(codeword)-1-pos)%gf64Size] }
	errLoc := []byte{1}
	for _, pos := range positions {
		errLoc = rsPolyMulMonic(errLoc, locator(pos))
	}
	// Reversing prod(x + X_k) gives Lambda(x) = prod(1 + X_k x).
	for i, j := 0, len(errLoc)-1; i < j; i, j = i+1, j-1 {
		errLoc[i], errLoc[j] = errLoc[j], errLoc[i]
	}

	synPoly := make([]byte, len(syn))
	for i, v := range syn {
		synPoly[len(syn)-1-i] = v
	}
	errEval := rsPolyMul(synPoly, errLoc)
	if len(errEval) > len(syn) {
		errEval = errEval[len(errEval)-len(syn):]
	}

	for _, pos := range positions {
		x := locator(pos)
		xInv := gf64Inv(x)

		errLocDeriv := byte(1)
		for _, xj := range positions {
			if xj == pos {
				continue
			}
			errLocDeriv = gf64Mul(errLocDeriv, byte(1)^gf64Div(locator(xj), x))
		}
		if errLocDeriv == 0 {
			return false
		}

		yNum := rsPolyEval(errEval, xInv)
		magnitude := gf64Div(yNum, errLocDeriv)
		if pos >= 0 && pos < len(codeword) {
			codeword[pos] ^= magnitude
		}
	}
	return true
}
