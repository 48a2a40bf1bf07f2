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

// DCBlocker is a one-pole leaky-integrator DC blocker on a complex stream:
// dc += (x - dc) * alpha, y = x - dc. Alpha plays the role of the
// fixed-point formulation's ">> k" shift.
type DCBlocker struct {
	alpha float32
	dc    complex64
}

// NewDCBlocker builds a blocker with the given leak rate; alpha in (0, 1),
// smaller tracks DC more slowly.
func NewDCBlocker(alpha float32) *DCBlocker {
	return &DCBlocker{alpha: alpha}
}

// Process removes the tracked DC offset from in, returning a newly
// allocated output slice the same length as in.
func (d *DCBlocker) Process(in []complex64) []complex64 {
	out := make([]complex64, len(in))
	for i, x := range in {
		d.dc += complex(d.alpha, 0) * (x - d.dc)
		out[i] = x - d.dc
	}
	return out
}

// Reset clears the tracked DC estimate, used on retune.
func (d *DCBlocker) Reset() { d.dc = 0 }
