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

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWidenU8IQCentersAroundZero(t *testing.T) {
	t.Parallel()
	raw := []byte{255, 255, 0, 0, 127, 127}
	out, phase := WidenU8IQ(raw, false, 0)
	require.Len(t, out, 3)
	assert.InDelta(t, 1.0, real(out[0]), 0.01)
	assert.InDelta(t, -1.0, real(out[1]), 0.02)
	assert.Equal(t, 0, phase)
}

func TestWidenU8IQFs4ShiftCyclesPhase(t *testing.T) {
	t.Parallel()
	raw := make([]byte, 16)
	for i := range raw {
		raw[i] = 200
	}
	_, phase := WidenU8IQ(raw, true, 0)
	assert.Equal(t, 0, phase) // 8 samples consumed, phase cycles mod 4 back to 0
}

func TestDCBlockerRemovesOffset(t *testing.T) {
	t.Parallel()
	d := NewDCBlocker(0.05)
	in := make([]complex64, 2000)
	for i := range in {
		in[i] = complex(0.5, 0.5)
	}
	var out []complex64
	for i := 0; i < len(in); i += 100 {
		out = d.Process(in[i : i+100])
	}
	assert.Less(t, math.Abs(float64(real(out[len(out)-1]))), 0.05)
}

func TestAGCConvergesTowardTargetRMS(t *testing.T) {
	t.Parallel()
	a := NewAGC(1.0, 0.01)
	in := make([]complex64, 5000)
	for i := range in {
		in[i] = complex(0.1, 0)
	}
	var out []complex64
	for i := 0; i < len(in); i += 100 {
		out = a.Process(in[i : i+100])
	}
	last := real(out[len(out)-1])
	assert.InDelta(t, 1.0, math.Abs(float64(last)), 0.3)
}

func TestHalfBandDecimatorHalvesLength(t *testing.T) {
	t.Parallel()
	h := NewHalfBandDecimator()
	in := make([]complex64, 2000)
	for i := range in {
		in[i] = complex(float32(i%7), 0)
	}
	out := h.Process(in)
	assert.InDelta(t, 1000, len(out), 5)
}

func TestCascadeDecimatorReachesBaseband(t *testing.T) {
	t.Parallel()
	c := NewCascadeDecimator(3) // /8
	in := make([]complex64, 8000)
	out := c.Process(in)
	assert.InDelta(t, 1000, len(out), 10)
}

func TestRationalResamplerUpsampleRatio(t *testing.T) {
	t.Parallel()
	r := NewRationalResampler(8000, 48000) // L=6, M=1
	in := make([]complex64, 1000)
	for i := range in {
		in[i] = complex(float32(i), 0)
	}
	out := r.Process(in)
	assert.InDelta(t, 6000, len(out), 10)
}

func TestRationalResamplerIdentityWhenRatesMatch(t *testing.T) {
	t.Parallel()
	r := NewRationalResampler(48000, 48000)
	in := make([]complex64, 100)
	out := r.Process(in)
	assert.Equal(t, 100, len(out))
}

func TestFLLTracksConstantFrequencyOffset(t *testing.T) {
	t.Parallel()
	f := NewFLL(0.1, 0.01, 0.001, 0.5)
	const offsetRad = 0.05
	in := make([]complex64, 4000)
	phase := 0.0
	for i := range in {
		in[i] = complex(float32(math.Cos(phase)), float32(math.Sin(phase)))
		phase += offsetRad
	}
	f.Process(in, true)
	assert.InDelta(t, offsetRad, f.freqRad, 0.02)
}

func TestSliceC4FMNearestLevel(t *testing.T) {
	t.Parallel()
	dibit, _ := SliceC4FM(1.0)
	assert.Equal(t, byte(1), dibit)
	dibit, _ = SliceC4FM(-1.0)
	assert.Equal(t, byte(3), dibit)
	dibit, _ = SliceC4FM(1.0 / 3.0)
	assert.Equal(t, byte(0), dibit)
	dibit, _ = SliceC4FM(-1.0 / 3.0)
	assert.Equal(t, byte(2), dibit)
}

func TestDiscriminatorRecoversToneFrequency(t *testing.T) {
	t.Parallel()
	d := Discriminator{}
	const step = 0.3 // radians/sample
	in := make([]complex64, 500)
	phase := 0.0
	for i := range in {
		in[i] = complex(float32(math.Cos(phase)), float32(math.Sin(phase)))
		phase += step
	}
	out := d.Process(in)
	assert.InDelta(t, step/math.Pi, out[len(out)-1], 0.01)
}

func TestCQPSKProducesDibitsAndTracksEVM(t *testing.T) {
	t.Parallel()
	c := NewCQPSK(0.05, 0.001)
	in := make([]complex64, 200)
	for i := range in {
		in[i] = complex(0.7071, 0.7071)
	}
	out := c.Process(in)
	assert.Len(t, out, 200)
	assert.GreaterOrEqual(t, c.EVM(), 0.0)
}

func TestGardnerTEDNudgesTowardEarlyLateBalance(t *testing.T) {
	t.Parallel()
	g := NewGardnerTED(10, 0.1)
	samples := make([]float32, 10)
	samples[0] = -0.5 // early
	samples[5] = 1.0  // mid
	samples[9] = 0.5  // late
	bias := g.Update(samples)
	assert.NotEqual(t, 0.0, bias)
	assert.Equal(t, bias, g.Bias())
}

func TestClockAssistNudgesEveryNSymbolsUnlessLocked(t *testing.T) {
	t.Parallel()
	c := NewClockAssist(3, false)
	var last int
	for i := 0; i < 3; i++ {
		last = c.Update(0.2, 0.8)
	}
	assert.Equal(t, 1, last)

	c.SetLocked(true)
	assert.Equal(t, 0, c.Update(0.2, 0.8))
}

func TestSyncHuntRotatesCandidatesAfterBound(t *testing.T) {
	t.Parallel()
	h := NewSyncHunt(5)
	assert.Equal(t, 10, h.Current())
	var rotated bool
	var sps int
	for i := 0; i < 5; i++ {
		rotated, sps = h.NoteSymbol()
	}
	assert.True(t, rotated)
	assert.Equal(t, 20, sps)
	h.NoteSync()
	assert.Equal(t, 20, h.Current())
}

func TestFrontendIngestProducesSymbolsReadableViaReadSymbols(t *testing.T) {
	t.Parallel()
	f := NewFrontend(Options{
		SampleRateHz:   48000,
		BasebandHz:     12000,
		OutputRateHz:   48000,
		FiltersEnable:  true,
		FMAGCEnable:    true,
		FMAGCTargetRMS: 0.5,
		FMAGCMinRMS:    0.001,
		FLLAlpha:       0.01,
		FLLBeta:        0.001,
		DigitalMode:    true,
	})
	defer f.Close()

	raw := make([]byte, 48000*2)
	for i := 0; i < len(raw); i += 2 {
		raw[i] = byte(128 + 60*math.Sin(float64(i)*0.1))
		raw[i+1] = byte(128 + 60*math.Cos(float64(i)*0.1))
	}
	f.IngestU8IQ(raw)

	buf := make([]Symbol, 128)
	n, sps := f.ReadSymbols(buf, len(buf))
	assert.Greater(t, n, 0)
	assert.Contains(t, syncHuntCandidates[:], sps)

	m := f.Metrics()
	assert.GreaterOrEqual(t, m.FLLOffsetHz, -24000.0)
}

func TestFrontendReadSymbolsTimesOutWithoutError(t *testing.T) {
	t.Parallel()
	f := NewFrontend(Options{SampleRateHz: 48000, BasebandHz: 12000, OutputRateHz: 48000})
	defer f.Close()

	buf := make([]Symbol, 8)
	start := time.Now()
	n, _ := f.ReadSymbols(buf, len(buf))
	assert.Equal(t, 0, n)
	assert.Less(t, time.Since(start), time.Second)
}

// TestRetuneAppliesDrainPolicy: with draining disabled a retune clears the
// in-flight symbols outright; with a drain window only output beyond the
// window is discarded.
func TestRetuneAppliesDrainPolicy(t *testing.T) {
	t.Parallel()
	f := NewFrontend(Options{SampleRateHz: 48000, BasebandHz: 12000, OutputRateHz: 4800, RetuneDrainMS: 0})
	f.symbols.Write(make([]Symbol, 100))
	f.Retune(851000000, false)
	assert.Equal(t, 0, f.symbols.Stats().Used)

	f = NewFrontend(Options{SampleRateHz: 48000, BasebandHz: 12000, OutputRateHz: 4800, RetuneDrainMS: 50})
	f.symbols.Write(make([]Symbol, 100)) // 100 < 240 symbols/50ms: kept
	f.Retune(851000000, false)
	assert.Equal(t, 100, f.symbols.Stats().Used)

	f.symbols.Write(make([]Symbol, 300)) // now past the window: cleared
	f.Retune(851000000, false)
	assert.Equal(t, 0, f.symbols.Stats().Used)
}
