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

package dsp

import "math"

// gcd is used to reduce a requested rate ratio to its lowest L/M terms.
func gcd(a, b int) int {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}

// RationalResampler resamples a complex stream by L/M using linear
// interpolation between input samples at the fractional output instant —
// a deliberately simple choice (versus a polyphase windowed-sinc design)
// since the decimator cascade already does the heavy anti-alias filtering
// and this stage only needs to land on the target output rate (default
// 48 kHz).
type RationalResampler struct {
	l, m     int
	pos      float64 // fractional read position into the pending buffer, in input-sample units
	pending  []complex64
	lastTwo  [2]complex64
	haveLast bool
}

// NewRationalResampler builds a resampler for inRate -> outRate, reducing
// to lowest terms.
func NewRationalResampler(inRate, outRate int) *RationalResampler {
	if inRate <= 0 || outRate <= 0 {
		return &RationalResampler{l: 1, m: 1}
	}
	g := gcd(inRate, outRate)
	return &RationalResampler{l: outRate / g, m: inRate / g}
}

// Process resamples in, retaining fractional phase and the last input
// sample across calls for continuous interpolation at block boundaries.
func (r *RationalResampler) Process(in []complex64) []complex64 {
	if r.l == r.m {
		return in
	}
	buf := in
	if r.haveLast {
		buf = make([]complex64, 0, len(in)+1)
		buf = append(buf, r.lastTwo[1])
		buf = append(buf, in...)
	}
	if len(buf) < 2 {
		if len(in) > 0 {
			r.lastTwo[1] = in[len(in)-1]
			r.haveLast = true
		}
		return nil
	}

	step := float64(r.m) / float64(r.l)
	var out []complex64
	pos := r.pos
	for {
		idx := int(math.Floor(pos))
		if idx+1 >= len(buf) {
			break
		}
		frac := pos - float64(idx)
		a, b := buf[idx], buf[idx+1]
		re := real(a) + float32(frac)*(real(b)-real(a))
		im := imag(a) + float32(frac)*(imag(b)-imag(a))
		out = append(out, complex(re, im))
		pos += step
	}

	consumedWhole := int(math.Floor(pos))
	if consumedWhole > len(buf)-1 {
		consumedWhole = len(buf) - 1
	}
	r.pos = pos - float64(consumedWhole)
	r.lastTwo[1] = buf[len(buf)-1]
	r.haveLast = true
	return out
}

// Reset clears interpolation phase, used on retune or rate change.
func (r *RationalResampler) Reset() {
	r.pos = 0
	r.haveLast = false
}
