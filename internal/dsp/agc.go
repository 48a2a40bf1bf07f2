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

// AGC is an envelope-following gain control gated on a target RMS, with
// separate smoothing time constants for gain increase (slow, to avoid
// pumping on sync bursts) versus decrease (fast, to avoid clipping a
// sudden strong signal). It holds gain at unity below minEngageRMS so
// it never amplifies silence/noise into a false-positive symbol stream.
type AGC struct {
	targetRMS    float64
	minEngageRMS float64
	attackTC     float64 // gain decrease (signal got stronger): fast
	releaseTC    float64 // gain increase (signal got weaker): slow
	gain         float64
	rms          float64
}

// NewAGC builds an AGC gated on minEngageRMS, driving the envelope toward
// targetRMS.
func NewAGC(targetRMS, minEngageRMS float64) *AGC {
	return &AGC{
		targetRMS:    targetRMS,
		minEngageRMS: minEngageRMS,
		attackTC:     0.05,
		releaseTC:    0.002,
		gain:         1.0,
	}
}

// TrackRMS updates the envelope RMS estimate from in without applying any
// gain, used when FM AGC is disabled but squelch still needs a power
// estimate to gate on.
func (a *AGC) TrackRMS(in []complex64) {
	for _, x := range in {
		mag := math.Hypot(float64(real(x)), float64(imag(x)))
		a.rms += (mag - a.rms) * 0.01
	}
}

// Process applies the tracked gain to in, returning a newly allocated
// output slice. It is an FM AGC: it tracks envelope magnitude, not I/Q
// phase, so it's safe ahead of a discriminator or CQPSK Costas loop alike.
func (a *AGC) Process(in []complex64) []complex64 {
	out := make([]complex64, len(in))
	for i, x := range in {
		mag := math.Hypot(float64(real(x)), float64(imag(x)))
		a.rms += (mag - a.rms) * 0.01

		if a.rms >= a.minEngageRMS {
			target := a.targetRMS / math.Max(a.rms, 1e-9)
			tc := a.releaseTC
			if target < a.gain {
				tc = a.attackTC
			}
			a.gain += (target - a.gain) * tc
		} else {
			a.gain += (1.0 - a.gain) * a.releaseTC
		}

		g := float32(a.gain)
		out[i] = complex(real(x)*g, imag(x)*g)
	}
	return out
}

// RMS returns the current tracked envelope RMS, used for squelch gating.
func (a *AGC) RMS() float64 { return a.rms }
