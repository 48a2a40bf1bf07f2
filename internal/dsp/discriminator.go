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

// Discriminator is an FM quadrature discriminator: instantaneous phase
// difference between consecutive complex samples, the standard
// demodulator for the FSK family (C4FM, GFSK).
type Discriminator struct {
	prev     complex64
	havePrev bool
}

// Process returns one real-valued phase-difference sample per input
// sample (radians, normalized by pi so the C4FM 4-level deviations land
// near +-1/3 and +-1).
func (d *Discriminator) Process(in []complex64) []float32 {
	out := make([]float32, len(in))
	for i, x := range in {
		if d.havePrev {
			angle := math.Atan2(
				float64(imag(x))*float64(real(d.prev))-float64(real(x))*float64(imag(d.prev)),
				float64(real(x))*float64(real(d.prev))+float64(imag(x))*float64(imag(d.prev)),
			)
			out[i] = float32(angle / math.Pi)
		}
		d.prev = x
		d.havePrev = true
	}
	return out
}

// Reset clears discriminator memory, used on retune.
func (d *Discriminator) Reset() { d.havePrev = false }

// C4FMLevels are the four normalized nominal discriminator deviations a
// C4FM symbol slices between, in the conventional dibit order used
// throughout the pack's decoders: {+3, +1, -1, -3} mapped to dibits
// {01, 00, 10, 11}.
var C4FMLevels = [4]float32{1.0, 1.0 / 3.0, -1.0 / 3.0, -1.0}

// SliceC4FM maps one discriminator sample to the nearest of the four C4FM
// levels, returning the dibit and a reliability in [0,255] derived from
// how close the sample landed to its chosen level versus the nearest
// competing level (an eye-closure proxy).
func SliceC4FM(sample float32) (dibit byte, reliability byte) {
	best := 0
	bestDist := float32(math.MaxFloat32)
	second := float32(math.MaxFloat32)
	for i, lvl := range C4FMLevels {
		d := sample - lvl
		if d < 0 {
			d = -d
		}
		if d < bestDist {
			second = bestDist
			bestDist = d
			best = i
		} else if d < second {
			second = d
		}
	}
	dibitOrder := [4]byte{1, 0, 2, 3}
	margin := second - bestDist
	if margin < 0 {
		margin = 0
	}
	if margin > 1 {
		margin = 1
	}
	return dibitOrder[best], byte(margin * 255)
}

// CQPSK is a Costas-loop carrier tracker plus a timing error detector,
// the alternative discriminator chain for P25 TDMA voice channels where
// the modulation is linear (differential QPSK) rather than C4FM.
type CQPSK struct {
	phase, freq float64
	alpha, beta float64
	evmAccum    float64
	evmCount    int
}

// NewCQPSK builds a Costas loop with the given proportional/integral
// gains.
func NewCQPSK(alpha, beta float64) *CQPSK {
	return &CQPSK{alpha: alpha, beta: beta}
}

// Process derotates in by the tracked carrier phase and slices each
// sample to the nearest QPSK constellation point, returning the
// corresponding dibit stream and accumulating an EVM estimate.
func (c *CQPSK) Process(in []complex64) []byte {
	out := make([]byte, len(in))
	for i, x := range in {
		rot := complex(float32(math.Cos(-c.phase)), float32(math.Sin(-c.phase)))
		y := x * rot

		re, im := real(y), imag(y)
		var dibit byte
		switch {
		case re >= 0 && im >= 0:
			dibit = 0
		case re < 0 && im >= 0:
			dibit = 1
		case re < 0 && im < 0:
			dibit = 3
		default:
			dibit = 2
		}
		out[i] = dibit

		ideal := complex(float32(math.Copysign(1, float64(re))), float32(math.Copysign(1, float64(im))))
		errSig := float64(imag(y*complexConj(ideal)))*float64(real(ideal)) -
			float64(real(y*complexConj(ideal)))*float64(imag(ideal))
		c.freq += c.beta * errSig
		c.phase += c.alpha*errSig + c.freq

		evmRe := float64(re) - float64(real(ideal))*0.7071
		evmIm := float64(im) - float64(imag(ideal))*0.7071
		c.evmAccum += evmRe*evmRe + evmIm*evmIm
		c.evmCount++
	}
	return out
}

func complexConj(c complex64) complex64 { return complex(real(c), -imag(c)) }

// EVM returns the root-mean-square error-vector-magnitude estimate
// accumulated since the last call, then resets the accumulator.
func (c *CQPSK) EVM() float64 {
	if c.evmCount == 0 {
		return 0
	}
	v := math.Sqrt(c.evmAccum / float64(c.evmCount))
	c.evmAccum, c.evmCount = 0, 0
	return v
}
