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

// Package tsm implements the trunking state machine shared by the P25 and
// DMR pipelines: one explicit FSM with states {IDLE, ON_CC, TUNED, HUNTING},
// driven by frame-derived events and a periodic watchdog TICK.
package tsm

import (
	"sync"
	"time"

	"github.com/dsdneo/dsdneo-go/internal/pdu"
)

// State is one of the four TSM states.
type State int

const (
	StateIdle State = iota
	StateOnCC
	StateTuned
	StateHunting
)

func (s State) String() string {
	switch s {
	case StateOnCC:
		return "ON_CC"
	case StateTuned:
		return "TUNED"
	case StateHunting:
		return "HUNTING"
	default:
		return "IDLE"
	}
}

// Mode is the high-level UI-facing mode, distinct from State because e.g.
// TUNED covers both active-voice and hangtime sub-phases.
type Mode int

const (
	ModeOnCC Mode = iota
	ModeOnVC
	ModeHang
	ModeHunting
	ModeArmed
	ModeFollow
	ModeReturning
)

func (m Mode) String() string {
	switch m {
	case ModeOnVC:
		return "ON_VC"
	case ModeHang:
		return "HANG"
	case ModeHunting:
		return "HUNTING"
	case ModeArmed:
		return "ARMED"
	case ModeFollow:
		return "FOLLOW"
	case ModeReturning:
		return "RETURNING"
	default:
		return "ON_CC"
	}
}

// Options carries the trunking policy and follower knobs.
type Options struct {
	TrunkEnable   bool
	AllowListMode bool
	AllowList     []uint32

	TuneGroup     bool
	TunePrivate   bool
	TuneData      bool
	TuneEncrypted bool
	TGHold        uint32

	HangtimeS           float64
	GrantVoiceToS       float64
	MinFollowDwellS     float64
	RetuneBackoffS      float64
	ForceReleaseExtraS  float64
	ForceReleaseMarginS float64
	RingHoldS           float64
	P25P1ErrHoldS       float64
	MacHoldS            float64
	CCGraceS            float64
}

// AudioActivity lets the TSM consult the per-slot audio/ring state the
// decoder pipeline owns (the ring_hold_s/p25p1_err_hold_s/mac_hold_s hold
// conditions), so hangtime-expiry and both-slots-idle
// release decisions can see more than just the last VOICE_SYNC timestamp.
// A Machine with no AudioActivity wired behaves exactly as before this
// interface existed: holdExtended and the mac-hold idle check both no-op.
type AudioActivity interface {
	// SlotRecentActivity reports whether slot has ring data queued or saw
	// MAC activity within holdS of now.
	SlotRecentActivity(slot int, now time.Time, holdS float64) bool
	// SlotIdle reports whether slot has audio_allowed cleared, an empty
	// ring, and its last MAC activity older than macHoldS.
	SlotIdle(slot int, now time.Time, macHoldS float64) bool
	// P25P1ErrElevated reports whether slot's Phase-1 IMBE error rate
	// currently warrants the extra p25p1_err_hold_s grace.
	P25P1ErrElevated(slot int) bool
}

// Capability is the per-protocol polymorphic capability set the TSM drives —
// the Go realization of the C code's function-pointer SM API
// (`p25_sm_set_api`), generalized to P25/DMR and test doubles that capture
// invocations.
type Capability interface {
	// Retune commands the capture layer onto freqHz for the given slot
	// (-1 for FDMA). Returns an error only for programming-bug-level
	// invariant violations, never for ordinary tuning failures.
	Retune(freqHz uint64, slot int) error
	// ReturnToCC commands the capture layer back onto the control channel.
	ReturnToCC(freqHz uint64) error
	// NextCandidate pops the next CC-hunt candidate frequency, or
	// (0, false) if none remain.
	NextCandidate() (uint64, bool)
	// CCFreq returns the currently known control-channel frequency.
	CCFreq() uint64
}

// reasonEntry is one entry of the bounded reason-tag ring.
type reasonEntry struct {
	reason string
	at     time.Time
}

type lastReturnKey struct {
	freqHz uint64
	slot   int
}

// Machine is the protocol-parameterized TSM engine. Handle runs on the
// decoder goroutine and Tick on the watchdog scheduler's, so every exported
// entry point takes mu; the guard also keeps a watchdog tick from
// overlapping an in-line one.
type Machine struct {
	mu sync.Mutex

	Opts  Options
	Cap   Capability
	Audio AudioActivity

	state State
	mode  Mode

	tTune   time.Time
	tVoice  [2]time.Time
	tCCSync time.Time
	tSynced bool

	activeSlot   int
	audioAllowed [2]bool

	tuneCount     uint64
	releaseCount  uint64
	ccReturnCount uint64

	reasons    []reasonEntry
	lastReturn map[lastReturnKey]time.Time
}

const reasonRingCapacity = 8

// NewMachine constructs a Machine in state IDLE.
func NewMachine(opts Options, cap Capability) *Machine {
	return &Machine{
		Opts:       opts,
		Cap:        cap,
		state:      StateIdle,
		mode:       ModeOnCC,
		activeSlot: -1,
		lastReturn: make(map[lastReturnKey]time.Time),
	}
}

// SetAudioActivity wires the decoder's per-slot audio/ring state into the
// machine. Leaving it unset preserves the tVoice-only hangtime/release
// behavior every Capability-only test double already exercises.
func (m *Machine) SetAudioActivity(a AudioActivity) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Audio = a
}

// SetTGHold changes the talkgroup hold at runtime; 0 clears it. This is the
// application point for the UI-command channel's tg-hold command.
func (m *Machine) SetTGHold(tg uint32) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Opts.TGHold = tg
}

// State reports the current FSM state.
func (m *Machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Mode reports the current UI-facing mode.
func (m *Machine) Mode() Mode {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.mode
}

// Counters returns the tune/release/cc-return counters.
func (m *Machine) Counters() (tune, release, ccReturn uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tuneCount, m.releaseCount, m.ccReturnCount
}

// ReasonTags returns a copy of the last up-to-8 reason tags, newest last.
func (m *Machine) ReasonTags() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.reasons))
	for i, r := range m.reasons {
		out[i] = r.reason
	}
	return out
}

func (m *Machine) recordReason(reason string, now time.Time) {
	m.reasons = append(m.reasons, reasonEntry{reason: reason, at: now})
	if len(m.reasons) > reasonRingCapacity {
		m.reasons = m.reasons[len(m.reasons)-reasonRingCapacity:]
	}
}

// canReturn enforces the retune-backoff invariant: no tune to the same
// (freq, slot) before retuneBackoffS has elapsed since the last return.
func (m *Machine) canReturn(freqHz uint64, slot int, now time.Time) bool {
	last, ok := m.lastReturn[lastReturnKey{freqHz, slot}]
	if !ok {
		return true
	}
	return now.Sub(last) >= time.Duration(m.Opts.RetuneBackoffS*float64(time.Second))
}

// Handle applies one event to the machine at the given monotonic time.
// Control decisions are driven exclusively by now (monotonic); wall-clock
// bookkeeping belongs to the caller's event-history layer, not here.
func (m *Machine) Handle(ev pdu.SmEvent, now time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	switch ev.Kind {
	case pdu.SmEventGrant:
		m.handleGrant(ev.Grant, now)
	case pdu.SmEventVoiceSync:
		m.handleVoiceSync(ev.Slot, now)
	case pdu.SmEventDataSync:
		// Data sync behaves like voice sync for hangtime purposes.
		m.handleVoiceSync(ev.Slot, now)
	case pdu.SmEventRelease:
		m.handleRelease(ev.Slot, now)
	case pdu.SmEventCcSync:
		m.handleCCSync(now)
	case pdu.SmEventSyncLost:
		m.toHunting(now)
	}
}

func (m *Machine) handleGrant(grant pdu.Grant, now time.Time) {
	if m.state != StateOnCC {
		return
	}
	ok, reason := evaluateGates(m.Opts, grant)
	if !ok {
		m.recordReason(reason, now)
		return
	}
	if grant.FreqHz == 0 {
		m.recordReason("release-blocked", now)
		return
	}

	m.tTune = now
	// t_voice is scoped to this grant: a stale stamp from a prior call
	// would defeat the grant-timeout check.
	m.tVoice[0] = time.Time{}
	m.tVoice[1] = time.Time{}
	m.activeSlot = grant.Slot
	if grant.Slot >= 0 {
		m.audioAllowed[grant.Slot] = true
	} else {
		m.audioAllowed[0] = true
	}
	m.tuneCount++
	m.state = StateTuned
	m.mode = ModeOnVC
	if err := m.Cap.Retune(grant.FreqHz, grant.Slot); err != nil {
		m.recordReason("retune-error", now)
	}
}

func (m *Machine) handleVoiceSync(slot int, now time.Time) {
	if m.state != StateTuned {
		return
	}
	idx := slot
	if idx < 0 {
		idx = 0
	}
	m.tVoice[idx] = now
	m.mode = ModeOnVC
}

func (m *Machine) handleRelease(slot int, now time.Time) {
	if m.state != StateTuned {
		return
	}
	if slot != -1 && slot != m.activeSlot {
		return
	}
	otherActive := false
	for i := 0; i < 2; i++ {
		if i != m.activeSlot && m.audioAllowed[i] {
			otherActive = true
		}
	}
	if otherActive {
		return
	}
	if m.Audio != nil && m.Opts.MacHoldS > 0 {
		for i := 0; i < 2; i++ {
			if !m.Audio.SlotIdle(i, now, m.Opts.MacHoldS) {
				m.recordReason("mac-hold", now)
				return
			}
		}
	}
	m.returnToCC(now, "release")
}

func (m *Machine) handleCCSync(now time.Time) {
	m.tCCSync = now
	m.tSynced = true
	if m.state == StateHunting {
		m.state = StateOnCC
		m.mode = ModeOnCC
	}
}

func (m *Machine) toHunting(now time.Time) {
	m.state = StateHunting
	m.mode = ModeHunting
	m.tSynced = false
}

// Tick drives the periodic watchdog event; the scheduler fires it well
// above 1 Hz.
func (m *Machine) Tick(now time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	switch m.state {
	case StateTuned:
		m.tickTuned(now)
	case StateHunting:
		m.tickHunting(now)
	case StateOnCC:
		if m.tSynced && m.Opts.CCGraceS > 0 && now.Sub(m.tCCSync) > durationS(m.Opts.CCGraceS) {
			m.toHunting(now)
		}
	}
}

func durationS(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

func (m *Machine) tickTuned(now time.Time) {
	if m.Opts.GrantVoiceToS > 0 && now.Sub(m.tTune) > durationS(m.Opts.GrantVoiceToS) && m.lastVoice().IsZero() {
		m.returnToCC(now, "grant-timeout")
		return
	}

	lastVoice := m.lastVoice()
	if !lastVoice.IsZero() && m.Opts.HangtimeS > 0 && now.Sub(lastVoice) >= durationS(m.Opts.HangtimeS) {
		dwellOK := now.Sub(m.tTune) >= durationS(m.Opts.MinFollowDwellS)
		if dwellOK && !m.holdExtended(now) {
			m.returnToCC(now, "hangtime-expired")
			return
		}
	}

	forceAt := durationS(m.Opts.HangtimeS + m.Opts.ForceReleaseExtraS + m.Opts.ForceReleaseMarginS)
	if forceAt > 0 && now.Sub(m.tTune) > forceAt {
		m.returnToCC(now, "force-release")
	}
}

// holdExtended reports whether recent ring/MAC activity (ring_hold_s) or an
// elevated Phase-1 IMBE error rate (p25p1_err_hold_s) should suppress an
// otherwise-due hangtime-expiry release.
func (m *Machine) holdExtended(now time.Time) bool {
	if m.Audio == nil {
		return false
	}
	slot := m.activeSlot
	if slot < 0 {
		slot = 0
	}
	if m.Opts.RingHoldS > 0 && m.Audio.SlotRecentActivity(slot, now, m.Opts.RingHoldS) {
		m.recordReason("ring-hold", now)
		return true
	}
	if m.Opts.P25P1ErrHoldS > 0 && m.Audio.P25P1ErrElevated(slot) {
		m.recordReason("p25p1-err-hold", now)
		return true
	}
	return false
}

func (m *Machine) lastVoice() time.Time {
	best := m.tVoice[0]
	for _, t := range m.tVoice[1:] {
		if t.After(best) {
			best = t
		}
	}
	return best
}

func (m *Machine) tickHunting(now time.Time) {
	freq, ok := m.Cap.NextCandidate()
	if !ok {
		return
	}
	if err := m.Cap.Retune(freq, -1); err == nil {
		m.state = StateOnCC
		m.mode = ModeOnCC
	}
}

func (m *Machine) returnToCC(now time.Time, reason string) {
	freq := m.Cap.CCFreq()
	if !m.canReturn(freq, m.activeSlot, now) {
		return
	}
	if err := m.Cap.ReturnToCC(freq); err != nil {
		m.recordReason("return-error", now)
		return
	}
	m.lastReturn[lastReturnKey{freq, m.activeSlot}] = now
	m.releaseCount++
	m.ccReturnCount++
	m.state = StateOnCC
	m.mode = ModeOnCC
	m.activeSlot = -1
	m.audioAllowed[0] = false
	m.audioAllowed[1] = false
	m.tVoice[0] = time.Time{}
	m.tVoice[1] = time.Time{}
	m.recordReason(reason, now)
}

// Start arms the machine onto the control channel (from IDLE).
func (m *Machine) Start(now time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = StateOnCC
	m.mode = ModeOnCC
	m.tCCSync = now
	m.tSynced = true
}
