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
	"sync"
	"time"

	"github.com/dsdneo/dsdneo-go/internal/ring"
)

// Symbol is one soft-decision symbol produced by the front-end: a dibit
// value plus a [0,255] reliability weight, the unit internal/fec's
// Viterbi/FEC stages consume.
type Symbol struct {
	Dibit       byte
	Reliability byte
}

// Metrics is the point-in-time snapshot Frontend.Metrics returns.
type Metrics struct {
	C4FMEyeSNR    float64
	CQPSKEVM      float64
	GFSKSNR       float64
	FLLOffsetHz   float64
	TEDBias       float64
	ProducerDrops uint64
	ReadTimeouts  uint64
}

// Options configures a Frontend's pipeline stages.
type Options struct {
	SampleRateHz   int
	BasebandHz     int
	OutputRateHz   int
	Fs4Shift       bool
	FiltersEnable  bool
	FMAGCEnable    bool
	FMAGCTargetRMS float64
	FMAGCMinRMS    float64
	FLLAlpha       float64
	FLLBeta        float64
	TEDEnable      bool
	DigitalMode    bool // true for C4FM/CQPSK channels; false skips FLL/TED unless forced
	SyncHuntBound  int  // symbols with no sync before SPS is cycled

	// RetuneDrainMS bounds the in-flight symbols that survive a Retune:
	// output beyond this many milliseconds at OutputRateHz is discarded,
	// and 0 clears the symbol ring outright.
	RetuneDrainMS int
}

// Frontend is the full capture-to-symbol pipeline: it ingests
// raw complex baseband a capture source produced, runs it through DC
// blocking, AGC, decimation, FLL, resampling, and discriminator/slicer
// stages, and publishes the resulting soft symbols through an SPSC ring
// for a decoder goroutine to drain via ReadSymbols.
type Frontend struct {
	opts Options

	mu       sync.Mutex
	fs4Phase int
	dc       *DCBlocker
	agc      *AGC
	cascade  *CascadeDecimator
	lpf      *ChannelLPF
	fll      *FLL
	resamp   *RationalResampler
	disc     Discriminator
	cqpsk    *CQPSK
	ted      *GardnerTED
	clock    *ClockAssist
	hunt     *SyncHunt

	symbols *ring.Ring[Symbol]

	squelchLinear float64
	needsRestart  bool
}

// NewFrontend builds a Frontend from the given options, sizing the
// decimation cascade so SampleRateHz / 2^stages lands near BasebandHz.
func NewFrontend(opts Options) *Frontend {
	stages := 0
	rate := opts.SampleRateHz
	for rate > opts.BasebandHz*2 && stages < 6 {
		rate /= 2
		stages++
	}

	f := &Frontend{
		opts:    opts,
		dc:      NewDCBlocker(0.001),
		agc:     NewAGC(opts.FMAGCTargetRMS, opts.FMAGCMinRMS),
		cascade: NewCascadeDecimator(stages),
		fll:     NewFLL(opts.FLLAlpha, opts.FLLBeta, 0.01, 0.2),
		resamp:  NewRationalResampler(rate, opts.OutputRateHz),
		cqpsk:   NewCQPSK(0.05, 0.001),
		ted:     NewGardnerTED(10, 0.05),
		clock:   NewClockAssist(8, false),
		hunt:    NewSyncHunt(2000),
		symbols: ring.New[Symbol](4096),
	}
	if opts.FiltersEnable {
		f.lpf = NewChannelLPF(halfBandTaps9)
	}
	return f
}

// Retune prepares the front-end for a new center frequency; hz itself is
// not stored or applied here, tuning the capture source is done separately.
// Resets the loops whose state no longer applies (DC, FLL, resampler
// phase, timing), and marks the stream for a lazy restart the caller
// should honor at the next capture boundary if the hardware can only
// apply some knobs (device index, tuner bandwidth, gain) at open time.
func (f *Frontend) Retune(hz uint64, hardwareNeedsRestart bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.dc.Reset()
	f.fll.Reset()
	f.resamp.Reset()
	f.ted.Reset()
	f.clock.Reset()
	f.hunt.Reset()
	f.disc.Reset()
	f.fs4Phase = 0
	f.drainSymbolsLocked()
	if hardwareNeedsRestart {
		f.needsRestart = true
	}
	_ = hz
}

// drainSymbolsLocked applies the retune drain policy: symbols already
// produced for the old frequency are cleared, except that up to
// RetuneDrainMS worth may be left for the consumer to finish.
func (f *Frontend) drainSymbolsLocked() {
	if f.opts.RetuneDrainMS <= 0 {
		f.symbols.Clear()
		return
	}
	keep := f.opts.OutputRateHz * f.opts.RetuneDrainMS / 1000
	if f.symbols.Stats().Used > keep {
		f.symbols.Clear()
	}
}

// NeedsRestart reports (and clears) whether the capture source should be
// closed and reopened before the next Ingest.
func (f *Frontend) NeedsRestart() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	v := f.needsRestart
	f.needsRestart = false
	return v
}

// SetChannelSquelch updates the power threshold used to skip expensive
// slicer/sync-hunt work when the estimated channel power is too low to
// carry a real signal.
func (f *Frontend) SetChannelSquelch(powerLinear float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.squelchLinear = powerLinear
}

// IngestU8IQ runs one block of raw unsigned-8-bit I/Q bytes through the
// full pipeline and enqueues the resulting symbols for ReadSymbols.
func (f *Frontend) IngestU8IQ(raw []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()

	widened, phase := WidenU8IQ(raw, f.opts.Fs4Shift, f.fs4Phase)
	f.fs4Phase = phase

	blocked := f.dc.Process(widened)

	if f.opts.FMAGCEnable {
		blocked = f.agc.Process(blocked)
	} else {
		f.agc.TrackRMS(blocked)
	}
	if f.agc.RMS()*f.agc.RMS() < f.squelchLinear {
		f.hunt.NoteSymbol()
		return
	}

	decimated := f.cascade.Process(blocked)
	if f.lpf != nil {
		decimated = f.lpf.Process(decimated)
	}

	corrected := f.fll.Process(decimated, f.opts.DigitalMode)
	resampled := f.resamp.Process(corrected)
	if len(resampled) == 0 {
		return
	}

	disc := f.disc.Process(resampled)

	out := make([]Symbol, 0, len(disc))
	for _, s := range disc {
		dibit, rel := SliceC4FM(s)
		out = append(out, Symbol{Dibit: dibit, Reliability: rel})
	}
	f.symbols.Write(out)
}

// ReadSymbols blocks for up to 250ms waiting for at least one symbol,
// then copies up to max symbols into buf, returning the count read and
// the SPS the sync hunter currently assumes. Returns (0, sps) on
// shutdown or timeout, never an error: read timeouts are counted, not
// fatal.
func (f *Frontend) ReadSymbols(buf []Symbol, max int) (n int, spsUsed int) {
	if max < len(buf) {
		buf = buf[:max]
	}
	n = f.symbols.Read(buf, 250*time.Millisecond)
	f.mu.Lock()
	sps := f.hunt.Current()
	f.mu.Unlock()
	return n, sps
}

// Close shuts down the symbol ring, waking any blocked ReadSymbols call.
func (f *Frontend) Close() { f.symbols.Close() }

// Metrics returns a point-in-time snapshot of the front-end's tracked
// quality indicators.
func (f *Frontend) Metrics() Metrics {
	f.mu.Lock()
	defer f.mu.Unlock()
	stats := f.symbols.Stats()
	return Metrics{
		CQPSKEVM:      f.cqpsk.EVM(),
		FLLOffsetHz:   f.fll.OffsetHz(float64(f.opts.SampleRateHz)),
		TEDBias:       f.ted.Bias(),
		ProducerDrops: stats.ProducerDrops,
		ReadTimeouts:  stats.ReadTimeouts,
	}
}
