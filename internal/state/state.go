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

// Package state owns the single mutable Decoder record: symbol buffers,
// per-system identity, per-slot voice context, FEC
// counters, and the event-history banks. Exactly one goroutine — the
// decoder thread — ever writes it; every other reader goes through a
// snapshot (events.Hub for history, Decoder.Snapshot for everything else).
package state

import (
	"sync"
	"time"

	"github.com/dsdneo/dsdneo-go/internal/chanplan"
	"github.com/dsdneo/dsdneo-go/internal/events"
)

// SymbolBuffer holds an ordered run of dibit decisions with a parallel
// per-dibit reliability value in 0..255, plus the most recent 144-dibit
// TDMA frame for one slot.
type SymbolBuffer struct {
	Dibits       []byte
	Reliability  []byte
	SlotFrame    [2][144]byte
	SlotFrameLen [2]int
}

// Push appends one dibit/reliability pair, trimming the buffer to the last
// History capacity entries.
func (s *SymbolBuffer) Push(dibit, reliability byte, capacity int) {
	s.Dibits = append(s.Dibits, dibit)
	s.Reliability = append(s.Reliability, reliability)
	if len(s.Dibits) > capacity {
		drop := len(s.Dibits) - capacity
		s.Dibits = s.Dibits[drop:]
		s.Reliability = s.Reliability[drop:]
	}
}

// EncryptionParams holds the per-slot crypto bookkeeping.
type EncryptionParams struct {
	Alg          byte
	KeyID        uint16
	MI           uint64
	CurrentIV    uint64
	NextIV       uint64
	PendingCount int
}

// PCMJitterRing is the depth-4, 160-sample-frame per-slot audio ring.
type PCMJitterRing struct {
	frames   [4][160]int16
	filled   int
	readIdx  int
	writeIdx int
	Inserted uint64
	Dropped  uint64
	Consumed uint64
}

// Push enqueues one 160-sample PCM frame, dropping the oldest on overflow.
func (j *PCMJitterRing) Push(frame [160]int16) {
	if j.filled == 4 {
		j.readIdx = (j.readIdx + 1) % 4
		j.Dropped++
	} else {
		j.filled++
	}
	j.frames[j.writeIdx] = frame
	j.writeIdx = (j.writeIdx + 1) % 4
	j.Inserted++
}

// Pop dequeues the oldest frame, if any.
func (j *PCMJitterRing) Pop() ([160]int16, bool) {
	if j.filled == 0 {
		return [160]int16{}, false
	}
	f := j.frames[j.readIdx]
	j.readIdx = (j.readIdx + 1) % 4
	j.filled--
	j.Consumed++
	return f, true
}

// Len reports the number of frames currently buffered.
func (j *PCMJitterRing) Len() int { return j.filled }

// errMovingAverage is a bounded-window moving average of IMBE/AMBE voice
// errors, window capacity <= 64.
type errMovingAverage struct {
	window []float64
	cap    int
	sum    float64
}

func newErrMovingAverage(capacity int) errMovingAverage {
	if capacity <= 0 || capacity > 64 {
		capacity = 64
	}
	return errMovingAverage{cap: capacity}
}

func (e *errMovingAverage) Add(v float64) {
	e.window = append(e.window, v)
	e.sum += v
	if len(e.window) > e.cap {
		e.sum -= e.window[0]
		e.window = e.window[1:]
	}
}

// Value returns the current average, or 0 if no samples have been added.
func (e *errMovingAverage) Value() float64 {
	if len(e.window) == 0 {
		return 0
	}
	return e.sum / float64(len(e.window))
}

// SlotVoiceContext is the per-slot voice follower state.
type SlotVoiceContext struct {
	AudioAllowed bool

	LastMacActiveWall int64
	LastMacActiveMono int64
	LastMacEndWall    int64
	LastMacEndMono    int64

	Jitter PCMJitterRing

	imbeErr errMovingAverage

	EncPending int
	Enc        EncryptionParams
}

// NewSlotVoiceContext constructs a SlotVoiceContext with the default IMBE
// error moving-average window.
func NewSlotVoiceContext() SlotVoiceContext {
	return SlotVoiceContext{imbeErr: newErrMovingAverage(64)}
}

// RecordIMBEError feeds one per-frame IMBE/AMBE error count into the
// moving average.
func (s *SlotVoiceContext) RecordIMBEError(errCount float64) {
	s.imbeErr.Add(errCount)
}

// IMBEErrorRate returns the current moving-average IMBE error rate.
func (s *SlotVoiceContext) IMBEErrorRate() float64 { return s.imbeErr.Value() }

// Identity is the per-system identity block.
type Identity struct {
	WACN  uint32
	SYSID uint16
	NAC   uint16
	CC    uint16
	RFSS  byte
	Site  byte
}

// TrunkingContext tracks where the decoder is parked: the control-channel
// frequency, the voice frequency each slot follows, and the last CC/VC sync
// stamps. Wall-clock stamps are display/log only; monotonic drives nothing
// here (control decisions belong to the trunking state machine).
type TrunkingContext struct {
	CCFreqHz uint64
	VCFreqHz [2]uint64
	Tuned    bool
	TGHold   uint32

	LastCCSyncWall int64 // unix seconds
	LastCCSyncMono int64 // monotonic nanoseconds
	LastVCSyncWall int64
	LastVCSyncMono int64
}

// Decoder is the single mutable decoder-state record. It is constructed
// once at startup and owned exclusively by the decoder goroutine.
type Decoder struct {
	mu sync.Mutex

	Symbols  SymbolBuffer
	Identity Identity
	Plan     *chanplan.Plan
	Trunk    TrunkingContext

	SlotVoice [2]SlotVoiceContext

	Counters Counters

	// patches is the vendor dynamic-regroup table: supergroup TG to the
	// set of working TGs currently patched into it. encLockedTGs records
	// talkgroups a vendor encryption command declared encrypted.
	patches      map[uint16]map[uint16]bool
	encLockedTGs map[uint16]bool

	EventBanks events.Banks
	Hub        *events.Hub
}

// New constructs a Decoder ready for use.
func New() *Decoder {
	return &Decoder{
		Plan:         chanplan.NewPlan(),
		SlotVoice:    [2]SlotVoiceContext{NewSlotVoiceContext(), NewSlotVoiceContext()},
		patches:      make(map[uint16]map[uint16]bool),
		encLockedTGs: make(map[uint16]bool),
		Hub:          events.NewHub(),
	}
}

// ApplyPatch adds (or, with add=false, removes) a working group from a
// supergroup's regroup patch.
func (d *Decoder) ApplyPatch(superGroup, group uint16, add bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if add {
		if d.patches[superGroup] == nil {
			d.patches[superGroup] = make(map[uint16]bool)
		}
		d.patches[superGroup][group] = true
		return
	}
	delete(d.patches[superGroup], group)
	if len(d.patches[superGroup]) == 0 {
		delete(d.patches, superGroup)
	}
}

// PatchedGroups returns the working groups currently patched into
// superGroup, in no particular order.
func (d *Decoder) PatchedGroups(superGroup uint16) []uint16 {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]uint16, 0, len(d.patches[superGroup]))
	for tg := range d.patches[superGroup] {
		out = append(out, tg)
	}
	return out
}

// SetTGEncLocked records (or clears) a talkgroup's vendor-declared
// encrypted state.
func (d *Decoder) SetTGEncLocked(tg uint16, locked bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if locked {
		d.encLockedTGs[tg] = true
	} else {
		delete(d.encLockedTGs, tg)
	}
}

// TGEncLocked reports whether a vendor encryption command has declared tg
// encrypted.
func (d *Decoder) TGEncLocked(tg uint16) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.encLockedTGs[tg]
}

// SetSystemIdentity records the WACN/SYSID a network status broadcast
// announced.
func (d *Decoder) SetSystemIdentity(wacn uint32, sysid uint16) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.Identity.WACN = wacn
	d.Identity.SYSID = sysid
}

// WithSlotVoice runs fn against slot's voice context under the decoder
// lock. The decoder-owning goroutine uses this to mutate AudioAllowed,
// LastMacActive*, Jitter, and imbeErr from the live frame pipeline while
// the TSM watchdog, on its own goroutine, reads the same fields through
// SlotRecentActivity/SlotIdle/P25P1ErrElevated below.
func (d *Decoder) WithSlotVoice(slot int, fn func(*SlotVoiceContext)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if slot < 0 || slot > 1 {
		return
	}
	fn(&d.SlotVoice[slot])
}

// p25p1ErrElevatedThreshold is the IMBE-error-moving-average value (mean
// count of the 9 per-frame voice words needing Hamming correction) above
// which tsm.AudioActivity.P25P1ErrElevated reports true, extending a
// hangtime release by p25p1_err_hold_s.
const p25p1ErrElevatedThreshold = 1.0

// SlotRecentActivity implements tsm.AudioActivity: true when slot's audio
// jitter ring currently holds a frame, or its last MAC_ACTIVE timestamp
// falls within holdS of now.
func (d *Decoder) SlotRecentActivity(slot int, now time.Time, holdS float64) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if slot < 0 || slot > 1 {
		return false
	}
	sv := &d.SlotVoice[slot]
	if sv.Jitter.Len() > 0 {
		return true
	}
	if sv.LastMacActiveWall == 0 {
		return false
	}
	last := time.Unix(0, sv.LastMacActiveWall)
	return now.Sub(last) <= time.Duration(holdS*float64(time.Second))
}

// SlotIdle implements tsm.AudioActivity: true when slot has audio_allowed
// cleared, an empty ring, and a last_mac_active timestamp older than
// macHoldS. A slot that has never seen MAC activity is idle.
func (d *Decoder) SlotIdle(slot int, now time.Time, macHoldS float64) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if slot < 0 || slot > 1 {
		return true
	}
	sv := &d.SlotVoice[slot]
	if sv.AudioAllowed || sv.Jitter.Len() > 0 {
		return false
	}
	if sv.LastMacActiveWall == 0 {
		return true
	}
	last := time.Unix(0, sv.LastMacActiveWall)
	return now.Sub(last) > time.Duration(macHoldS*float64(time.Second))
}

// P25P1ErrElevated implements tsm.AudioActivity: true when slot's IMBE
// error moving average exceeds p25p1ErrElevatedThreshold.
func (d *Decoder) P25P1ErrElevated(slot int) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if slot < 0 || slot > 1 {
		return false
	}
	return d.SlotVoice[slot].IMBEErrorRate() > p25p1ErrElevatedThreshold
}

// SetCCFreq records the control-channel frequency the decoder is parked on.
func (d *Decoder) SetCCFreq(hz uint64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.Trunk.CCFreqHz = hz
}

// CCFreqHz returns the currently known control-channel frequency, 0 when no
// system has announced one yet.
func (d *Decoder) CCFreqHz() uint64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.Trunk.CCFreqHz
}

// SetTuned marks the decoder as following a voice channel on slot (or both,
// for slot -1) at the given frequency.
func (d *Decoder) SetTuned(slot int, vcHz uint64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.Trunk.Tuned = true
	if slot == 0 || slot == 1 {
		d.Trunk.VCFreqHz[slot] = vcHz
	} else {
		d.Trunk.VCFreqHz[0] = vcHz
		d.Trunk.VCFreqHz[1] = vcHz
	}
}

// ClearTuned records a return to the control channel.
func (d *Decoder) ClearTuned() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.Trunk.Tuned = false
	d.Trunk.VCFreqHz = [2]uint64{}
}

// NoteCCSync stamps the last control-channel sync time, wall and monotonic.
func (d *Decoder) NoteCCSync(now time.Time) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.Trunk.LastCCSyncWall = now.Unix()
	d.Trunk.LastCCSyncMono = now.UnixNano()
}

// NoteVCSync stamps the last voice-channel sync time, wall and monotonic.
func (d *Decoder) NoteVCSync(now time.Time) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.Trunk.LastVCSyncWall = now.Unix()
	d.Trunk.LastVCSyncMono = now.UnixNano()
}

// SetTGHold records the UI-commanded talkgroup hold for display; the gate
// itself lives in the trunking state machine's options.
func (d *Decoder) SetTGHold(tg uint32) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.Trunk.TGHold = tg
}

// PublishEvent records one call-history entry on the given slot (0 or 1)
// and fans a fresh deep-copied snapshot out to subscribers.
func (d *Decoder) PublishEvent(slot int, e events.Event) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if slot == 1 {
		d.EventBanks.Slot1.Push(e)
	} else {
		d.EventBanks.Slot0.Push(e)
	}
	d.Hub.Publish(&d.EventBanks)
}

// Snapshot is the read-only, fully-owned view of decoder state handed to
// the UI/diagnostics collaborator before each paint. It never aliases the
// live Decoder: every field is copied by value.
type Snapshot struct {
	Identity Identity

	CCFreqHz uint64
	VCFreqHz [2]uint64
	Tuned    bool
	TGHold   uint32

	SlotVoice [2]SlotVoiceSnapshot
}

// SlotVoiceSnapshot is the read-only per-slot view within a Snapshot.
type SlotVoiceSnapshot struct {
	AudioAllowed  bool
	IMBEErrorRate float64
	EncPending    int
	JitterLen     int
}

// StateSnapshot deep-copies the fields a UI/diagnostics reader cares about.
// It does not include the event-history banks; those are read through
// Hub.Subscribe so that path keeps its own deep-copy-on-publish contract.
func (d *Decoder) StateSnapshot() Snapshot {
	d.mu.Lock()
	defer d.mu.Unlock()
	snap := Snapshot{
		Identity: d.Identity,
		CCFreqHz: d.Trunk.CCFreqHz,
		VCFreqHz: d.Trunk.VCFreqHz,
		Tuned:    d.Trunk.Tuned,
		TGHold:   d.Trunk.TGHold,
	}
	for i := range d.SlotVoice {
		snap.SlotVoice[i] = SlotVoiceSnapshot{
			AudioAllowed:  d.SlotVoice[i].AudioAllowed,
			IMBEErrorRate: d.SlotVoice[i].IMBEErrorRate(),
			EncPending:    d.SlotVoice[i].EncPending,
			JitterLen:     d.SlotVoice[i].Jitter.Len(),
		}
	}
	return snap
}
