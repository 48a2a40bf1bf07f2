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

// halfBandTaps9 is an 11-tap half-band FIR (every other coefficient but the
// center is exactly zero, the hallmark of a half-band design): a cheap
// decimate-by-2 anti-alias filter suitable for cascading.
var halfBandTaps9 = []float32{
	-0.0144, 0, 0.0923, 0, 0.3087, 0.5, 0.3087, 0, 0.0923, 0, -0.0144,
}

// HalfBandDecimator halves the sample rate of a complex stream through one
// half-band FIR stage, retaining history across Process calls so block
// boundaries never lose filter state.
type HalfBandDecimator struct {
	taps    []float32
	history []complex64
}

// NewHalfBandDecimator builds a single decimate-by-2 stage.
func NewHalfBandDecimator() *HalfBandDecimator {
	return &HalfBandDecimator{
		taps:    halfBandTaps9,
		history: make([]complex64, len(halfBandTaps9)-1),
	}
}

// Process filters and decimates in by 2, returning roughly len(in)/2
// output samples.
func (h *HalfBandDecimator) Process(in []complex64) []complex64 {
	buf := make([]complex64, 0, len(h.history)+len(in))
	buf = append(buf, h.history...)
	buf = append(buf, in...)

	n := (len(buf) - len(h.taps) + 1) / 2
	if n < 0 {
		n = 0
	}
	out := make([]complex64, n)
	for i := 0; i < n; i++ {
		start := i * 2
		var acc complex64
		for k, tap := range h.taps {
			acc += buf[start+k] * complex(tap, 0)
		}
		out[i] = acc
	}

	if len(buf) >= len(h.history) {
		h.history = append([]complex64{}, buf[len(buf)-len(h.history):]...)
	}
	return out
}

// CascadeDecimator chains HalfBandDecimator stages to reach one of the
// supported baseband rates: {4, 6, 8, 12, 16, 24, 48} kHz.
type CascadeDecimator struct {
	stages []*HalfBandDecimator
}

// NewCascadeDecimator builds a cascade of `stages` decimate-by-2 halfbands,
// for a total decimation factor of 2^stages.
func NewCascadeDecimator(stages int) *CascadeDecimator {
	c := &CascadeDecimator{stages: make([]*HalfBandDecimator, stages)}
	for i := range c.stages {
		c.stages[i] = NewHalfBandDecimator()
	}
	return c
}

// Process runs in through every cascade stage in order.
func (c *CascadeDecimator) Process(in []complex64) []complex64 {
	cur := in
	for _, s := range c.stages {
		cur = s.Process(cur)
	}
	return cur
}

// ChannelLPF is an optional post-decimation channel low-pass, reusing the
// same half-band-style symmetric FIR shape as the decimator stages but
// without discarding samples.
type ChannelLPF struct {
	taps    []float32
	history []complex64
}

// NewChannelLPF builds a channel filter from an odd-length symmetric tap
// set (the caller is expected to design taps for the target channel
// bandwidth; halfBandTaps9 is a reasonable default narrowband choice).
func NewChannelLPF(taps []float32) *ChannelLPF {
	return &ChannelLPF{taps: taps, history: make([]complex64, len(taps)-1)}
}

// Process filters in without decimating.
func (f *ChannelLPF) Process(in []complex64) []complex64 {
	buf := make([]complex64, 0, len(f.history)+len(in))
	buf = append(buf, f.history...)
	buf = append(buf, in...)

	out := make([]complex64, len(in))
	for i := range in {
		var acc complex64
		for k, tap := range f.taps {
			acc += buf[i+k] * complex(tap, 0)
		}
		out[i] = acc
	}

	if len(buf) >= len(f.history) {
		f.history = append([]complex64{}, buf[len(buf)-len(f.history):]...)
	}
	return out
}
