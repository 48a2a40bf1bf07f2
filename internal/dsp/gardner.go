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

// GardnerTED is a lightweight fractional symbol-timing error detector,
// used for digital modes at SPS >= ~8: at each
// estimated symbol instant it samples one half-symbol early to compute
// the classic Gardner error term 2*mid*(late-early), nudging a
// fractional-sample accumulator rather than the whole-sample SPS.
type GardnerTED struct {
	sps       int
	fracBias  float64
	gain      float64
	lastError float64
}

// NewGardnerTED builds a TED for the given samples-per-symbol and loop
// gain.
func NewGardnerTED(sps int, gain float64) *GardnerTED {
	return &GardnerTED{sps: sps, gain: gain}
}

// Update feeds one symbol period's worth of real-valued (post-
// discriminator) samples and returns the fractional sample offset to
// apply to the next symbol center.
func (g *GardnerTED) Update(samples []float32) float64 {
	half := g.sps / 2
	if half <= 0 || g.sps > len(samples) {
		return g.fracBias
	}
	early := float64(samples[0])
	mid := float64(samples[half])
	late := float64(samples[g.sps-1])
	err := 2 * mid * (late - early)
	g.lastError = err
	g.fracBias += g.gain * err
	if g.fracBias > 1 {
		g.fracBias -= 1
	} else if g.fracBias < -1 {
		g.fracBias += 1
	}
	return g.fracBias
}

// Bias returns the current fractional timing offset without updating it.
func (g *GardnerTED) Bias() float64 { return g.fracBias }

// LastError returns the most recent raw Gardner error term (Frontend.Metrics
// reports Bias, not this value).
func (g *GardnerTED) LastError() float64 { return g.lastError }

// Reset clears accumulated timing bias, used on retune or SPS change.
func (g *GardnerTED) Reset() { g.fracBias, g.lastError = 0, 0 }
