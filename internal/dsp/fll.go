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

// FLL is a frequency-locked loop that tracks residual carrier offset via a
// proportional/integral update to an NCO, driven by the alpha/beta gain
// knobs (FLLGainAlpha/FLLGainBeta).
type FLL struct {
	alpha, beta float64
	deadbandRad float64
	maxSlewRad  float64
	freqRad     float64 // integrated frequency estimate, radians/sample
	phaseRad    float64
	prev        complex64
	haveSample  bool
	forcedOnFM  bool
}

// NewFLL builds an FLL with the given proportional (alpha) and integral
// (beta) gains. deadbandRad suppresses correction for offsets small enough
// to be normal analog-FM sweep rather than a true frequency error;
// maxSlewRad bounds how far freqRad can move in a single update.
func NewFLL(alpha, beta, deadbandRad, maxSlewRad float64) *FLL {
	return &FLL{alpha: alpha, beta: beta, deadbandRad: deadbandRad, maxSlewRad: maxSlewRad}
}

// ForceOnAnalogFM overrides the normal "skip on analog FM" behavior; by
// default Process is a no-op passthrough unless digital is true.
func (f *FLL) ForceOnAnalogFM(forced bool) { f.forcedOnFM = forced }

// Process runs the loop over in, correcting each sample's phase by the
// current NCO estimate and updating the estimate from the sample-to-sample
// phase error. digital indicates this is a digital-mode channel (FLL always
// runs); for analog FM, Process only runs if ForceOnAnalogFM(true) was set.
func (f *FLL) Process(in []complex64, digital bool) []complex64 {
	if !digital && !f.forcedOnFM {
		return in
	}
	out := make([]complex64, len(in))
	for i, x := range in {
		if f.haveSample {
			errRad := math.Atan2(
				float64(imag(x))*float64(real(f.prev))-float64(real(x))*float64(imag(f.prev)),
				float64(real(x))*float64(real(f.prev))+float64(imag(x))*float64(imag(f.prev)),
			) - f.freqRad
			if math.Abs(errRad) > f.deadbandRad {
				freqStep := f.beta * errRad
				if freqStep > f.maxSlewRad {
					freqStep = f.maxSlewRad
				} else if freqStep < -f.maxSlewRad {
					freqStep = -f.maxSlewRad
				}
				f.freqRad += freqStep
				f.phaseRad += f.alpha * errRad
			}
		}
		f.prev = x
		f.haveSample = true

		f.phaseRad += f.freqRad
		f.phaseRad = math.Mod(f.phaseRad+math.Pi, 2*math.Pi) - math.Pi

		rot := complex(float32(math.Cos(-f.phaseRad)), float32(math.Sin(-f.phaseRad)))
		out[i] = x * rot
	}
	return out
}

// OffsetHz reports the current frequency estimate converted to Hz for the
// given sample rate, for metrics().
func (f *FLL) OffsetHz(sampleRateHz float64) float64 {
	return f.freqRad * sampleRateHz / (2 * math.Pi)
}

// Reset clears the loop's integrated state, used on retune.
func (f *FLL) Reset() {
	f.freqRad, f.phaseRad = 0, 0
	f.haveSample = false
}
