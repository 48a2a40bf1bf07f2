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

// Package pipeline owns the decoder's concurrency model: a capture
// goroutine, a DSP goroutine, a decoder goroutine, and a watchdog scheduler,
// wired together with an errgroup.Group so the first fatal error anywhere
// tears the whole run down cleanly. It is the thing cmd/root.go constructs
// and runs; every other package in this module is a library these
// goroutines call into.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/dsdneo/dsdneo-go/internal/aliasdb"
	"github.com/dsdneo/dsdneo-go/internal/capture"
	"github.com/dsdneo/dsdneo-go/internal/chanimport"
	"github.com/dsdneo/dsdneo-go/internal/config"
	"github.com/dsdneo/dsdneo-go/internal/diag"
	"github.com/dsdneo/dsdneo-go/internal/dsp"
	"github.com/dsdneo/dsdneo-go/internal/events"
	"github.com/dsdneo/dsdneo-go/internal/kv"
	"github.com/dsdneo/dsdneo-go/internal/metrics"
	"github.com/dsdneo/dsdneo-go/internal/pdu"
	"github.com/dsdneo/dsdneo-go/internal/state"
	"github.com/dsdneo/dsdneo-go/internal/tsm"
	"github.com/go-co-op/gocron/v2"
	"golang.org/x/sync/errgroup"
)

const symbolHistoryCapacity = 4096

// watchdogInterval is the TSM tick cadence; ticks must fire at 1 Hz or
// faster even when the DSP loop is stalled on I/O.
const watchdogInterval = 200 * time.Millisecond

// neighborAgeInterval matches chanplan's 30-minute neighbor TTL window.
const neighborAgeInterval = 30 * time.Minute

// cacheSyncInterval is how often the CC-candidate ring is mirrored to the
// shared kv.KV cache, letting a fleet of decoders at one site pool hunt
// candidates (only useful once CacheOptions.RedisAddr names a shared
// store, but harmless against the local in-process store too).
const cacheSyncInterval = time.Minute

// Pipeline wires every collaborator package into the running decoder: the
// capture source, the DSP front-end, decoder state, the trunking state
// machine, and the diagnostics server, all coordinated by one errgroup.
type Pipeline struct {
	opts config.Options

	source   *capture.Supervisor
	frontend *dsp.Frontend
	decoder  *state.Decoder
	machine  *tsm.Machine
	metrics  *metrics.Metrics
	cache    kv.KV
	tables   *chanimport.Tables
	store    *chanimport.Store
	aliases  *aliasdb.DB
	diagSrv  *diag.Server
	frameDec *frameDecoder

	scheduler gocron.Scheduler

	// commands is the bounded UI-command queue; any thread may post,
	// only the decoder goroutine drains, at safe points between frames.
	commands chan pdu.UICommand
}

const commandQueueDepth = 16

// capability adapts tsm.Machine's protocol-agnostic Capability interface to
// this pipeline's frontend/source, so Retune/hold decisions the state
// machine makes actually reach the hardware.
type capability struct {
	frontend *dsp.Frontend
	source   *capture.Supervisor
	decoder  *state.Decoder
}

func (c capability) Retune(freqHz uint64, slot int) error {
	c.frontend.Retune(freqHz, c.frontend.NeedsRestart())
	if err := c.source.Retune(freqHz); err != nil {
		return err
	}
	c.decoder.SetTuned(slot, freqHz)
	return nil
}

func (c capability) ReturnToCC(freqHz uint64) error {
	c.frontend.Retune(freqHz, c.frontend.NeedsRestart())
	if err := c.source.Retune(freqHz); err != nil {
		return err
	}
	c.decoder.ClearTuned()
	return nil
}

func (c capability) NextCandidate() (uint64, bool) {
	return c.decoder.Plan.Candidates().Pop()
}

func (c capability) CCFreq() uint64 {
	return c.decoder.CCFreqHz()
}

// New assembles a Pipeline from resolved options. It performs the
// potentially-failing setup (cache, chanimport, capture dial) but does not
// start any goroutines; call Run for that.
func New(ctx context.Context, opts config.Options) (*Pipeline, error) {
	decoder := state.New()

	tables, store, err := chanimport.LoadFromOptions(opts.Chanimport)
	if err != nil {
		return nil, fmt.Errorf("load channel import tables: %w", err)
	}
	tables.ApplyToPlan(decoder.Plan)

	aliases := aliasdb.FromGroups(tables.Groups)

	cache, err := kv.MakeKV(ctx, opts.Cache)
	if err != nil {
		return nil, fmt.Errorf("open cc-candidate cache: %w", err)
	}
	// A missing or unreadable cache file just means a cold start; the
	// candidate ring fills back in from live CC_SYNC traffic.
	_ = decoder.Plan.LoadCandidateCache(opts.Cache.Dir.Value)

	src, err := capture.New(opts.Source)
	if err != nil {
		return nil, fmt.Errorf("open capture source: %w", err)
	}

	frontend := dsp.NewFrontend(dsp.Options{
		SampleRateHz:   opts.Source.SampleRate.Value,
		BasebandHz:     12500,
		OutputRateHz:   4800,
		FiltersEnable:  opts.DSP.FiltersEnable.Value,
		FMAGCEnable:    opts.DSP.FMAGCEnable.Value,
		FMAGCTargetRMS: opts.DSP.FMAGCTargetRMS.Value,
		FMAGCMinRMS:    opts.DSP.FMAGCMinRMS.Value,
		FLLAlpha:       opts.DSP.FLLGainAlpha.Value,
		FLLBeta:        opts.DSP.FLLGainBeta.Value,
		TEDEnable:      opts.DSP.TEDEnable.Value,
		DigitalMode:    true,
		SyncHuntBound:  4800,
		RetuneDrainMS:  opts.DSP.RetuneDrainMS.Or(50),
	})

	machine := tsm.NewMachine(opts.Trunking.Resolve(), capability{frontend: frontend, source: src, decoder: decoder})
	// state.Decoder implements tsm.AudioActivity directly, so the watchdog's
	// ring_hold_s/p25p1_err_hold_s/mac_hold_s checks see the same
	// per-slot voice context the decoder goroutine mutates through
	// Decoder.WithSlotVoice.
	machine.SetAudioActivity(decoder)

	frameDec := newFrameDecoder(decoder, machine, opts)

	m := metrics.NewMetrics()

	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("create scheduler: %w", err)
	}

	var diagSrv *diag.Server
	if opts.Diag.Enable.Value {
		diagSrv = diag.NewServer(opts.Diag.ListenAddr.Value, decoder, machine, opts.Diag.PprofOn.Value)
	}

	p := &Pipeline{
		opts:      opts,
		source:    src,
		frontend:  frontend,
		decoder:   decoder,
		machine:   machine,
		metrics:   m,
		cache:     cache,
		tables:    tables,
		store:     store,
		aliases:   aliases,
		diagSrv:   diagSrv,
		frameDec:  frameDec,
		scheduler: scheduler,
		commands:  make(chan pdu.UICommand, commandQueueDepth),
	}
	frameDec.publish = p.PublishEvent
	if diagSrv != nil {
		diagSrv.SetCommandSink(p.PostCommand)
	}
	return p, nil
}

// Run drives capture, DSP draining, and the TSM watchdog until ctx is
// canceled or a collaborator goroutine returns a fatal error. It always
// returns once every goroutine it started has stopped.
func (p *Pipeline) Run(ctx context.Context) error {
	if err := p.scheduleWatchdog(); err != nil {
		return fmt.Errorf("schedule watchdog: %w", err)
	}
	if p.opts.Trunking.Resolve().TrunkEnable {
		p.machine.Start(time.Now())
	}
	p.scheduler.Start()
	defer func() { _ = p.scheduler.Shutdown() }()

	if p.diagSrv != nil {
		p.diagSrv.Start()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = p.diagSrv.Stop(shutdownCtx)
		}()
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return p.captureLoop(gctx) })
	g.Go(func() error { return p.symbolDrainLoop(gctx) })

	err := g.Wait()
	p.shutdown()
	return err
}

// PublishEvent records a call-history entry, filling in Message from the
// alias table when the caller left it blank.
func (p *Pipeline) PublishEvent(slot int, e events.Event) {
	if e.Message == "" {
		e.Message = p.aliases.Resolve(e.Target)
	}
	p.decoder.PublishEvent(slot, e)
}

func (p *Pipeline) shutdown() {
	if p.store != nil {
		_ = p.store.Close()
	}
	_ = p.cache.Close()
	_ = p.decoder.Plan.SaveCandidateCache(p.opts.Cache.Dir.Value)
	_ = p.source.Close()
	p.frontend.Close()
}

// captureLoop pulls raw 8-bit interleaved I/Q from the capture source and
// feeds it to the DSP front-end. Capture
// failures never reach here as fatal errors: Supervisor absorbs them into
// a silent-input fallback, so this loop
// only ever returns on ctx cancellation or a Close.
func (p *Pipeline) captureLoop(ctx context.Context) error {
	buf := make([]byte, 16384)
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}
		n, err := p.source.Read(buf)
		if err != nil {
			if err == capture.ErrClosed {
				return nil
			}
			return fmt.Errorf("capture read: %w", err)
		}
		if n > 0 {
			p.frontend.IngestU8IQ(buf[:n])
		}
	}
}

// symbolDrainLoop is the decoder goroutine: it drains soft symbols the
// front-end produced, keeps the bounded recent symbol history the
// diagnostics snapshot reads, hands the same symbols to frameDec to
// sync-hunt/FEC-decode/dispatch into the per-protocol packages and raise
// TSM events, and samples metrics each pass.
func (p *Pipeline) symbolDrainLoop(ctx context.Context) error {
	buf := make([]dsp.Symbol, 256)
	observed := metrics.NewObserved()
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}

		p.drainCommands()
		n, _ := p.frontend.ReadSymbols(buf, len(buf))
		if n > 0 {
			p.decoder.Symbols.Dibits = appendSymbols(p.decoder.Symbols.Dibits, buf[:n], symbolHistoryCapacity)
			p.frameDec.Feed(buf[:n])
		}
		p.metrics.Sample(&p.decoder.Counters, observed, nil)
	}
}

// PostCommand enqueues a UI-originated command for the decoder goroutine.
// Never blocks; returns false when the queue is full and the command was
// dropped.
func (p *Pipeline) PostCommand(cmd pdu.UICommand) bool {
	select {
	case p.commands <- cmd:
		return true
	default:
		return false
	}
}

// drainCommands applies every queued UI command. Runs on the decoder
// goroutine only, between frames, so applications never race a decode.
func (p *Pipeline) drainCommands() {
	for {
		select {
		case cmd := <-p.commands:
			p.applyCommand(cmd)
		default:
			return
		}
	}
}

func (p *Pipeline) applyCommand(cmd pdu.UICommand) {
	switch cmd.Kind {
	case pdu.UICommandSetTGHold:
		p.machine.SetTGHold(cmd.TG)
		p.decoder.SetTGHold(cmd.TG)
	case pdu.UICommandSetSquelch:
		p.frontend.SetChannelSquelch(cmd.PowerLinear)
	case pdu.UICommandRetune:
		p.frontend.Retune(cmd.FreqHz, p.frontend.NeedsRestart())
		if err := p.source.Retune(cmd.FreqHz); err != nil {
			slog.Warn("ui retune failed", "freq_hz", cmd.FreqHz, "error", err)
		}
	}
}

func appendSymbols(dst []byte, syms []dsp.Symbol, capacity int) []byte {
	for _, s := range syms {
		dst = append(dst, s.Dibit)
	}
	if len(dst) > capacity {
		dst = dst[len(dst)-capacity:]
	}
	return dst
}

// scheduleWatchdog registers the TSM tick job and the
// neighbor-set TTL aging job.
func (p *Pipeline) scheduleWatchdog() error {
	_, err := p.scheduler.NewJob(
		gocron.DurationJob(watchdogInterval),
		gocron.NewTask(func() { p.machine.Tick(time.Now()) }),
	)
	if err != nil {
		return err
	}
	_, err = p.scheduler.NewJob(
		gocron.DurationJob(neighborAgeInterval),
		gocron.NewTask(func() { p.decoder.Plan.Neighbors().AgeOut(time.Now()) }),
	)
	if err != nil {
		return err
	}
	_, err = p.scheduler.NewJob(
		gocron.DurationJob(cacheSyncInterval),
		gocron.NewTask(p.syncCandidateCache),
	)
	return err
}

// cacheKey identifies the shared candidate-ring entry for the system the
// decoder is currently following. An all-zero identity means no system has
// been resolved yet, so there is nothing worth sharing.
func (p *Pipeline) cacheKey() (string, bool) {
	id := p.decoder.Identity
	if id.WACN == 0 && id.SYSID == 0 {
		return "", false
	}
	return fmt.Sprintf("dsdneo:cc-candidates:%05X:%03X:%d:%d", id.WACN, id.SYSID, id.RFSS, id.Site), true
}

// syncCandidateCache pulls any candidates a sibling decoder at this site
// published into the shared cache, then republishes the local ring so
// siblings see this decoder's discoveries in turn.
func (p *Pipeline) syncCandidateCache() {
	key, ok := p.cacheKey()
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	ring := p.decoder.Plan.Candidates()
	if raw, err := p.cache.Get(ctx, key); err == nil {
		for _, tok := range strings.Split(string(raw), ",") {
			if freq, err := strconv.ParseUint(tok, 10, 64); err == nil {
				ring.Push(freq)
			}
		}
	}

	n := ring.Len()
	freqs := make([]string, 0, n)
	for i := 0; i < n; i++ {
		freq, ok := ring.Pop()
		if !ok {
			break
		}
		freqs = append(freqs, strconv.FormatUint(freq, 10))
		ring.Push(freq)
	}
	_ = p.cache.Set(ctx, key, []byte(strings.Join(freqs, ",")))
}
