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

package p25p2

import (
	"github.com/dsdneo/dsdneo-go/internal/chanplan"
	"github.com/dsdneo/dsdneo-go/internal/pdu"
	"github.com/dsdneo/dsdneo-go/internal/state"
	"github.com/dsdneo/dsdneo-go/internal/tsm"
)

// FrameDibits is the length of one 360-bit TDMA timeslot burst in dibits,
// sync word included. Callers hand HandleBurst the whole frame so ESS_B
// extraction can use frame-relative bit offsets.
const FrameDibits = 180

// syncBits is the burst's leading 40-bit sync word; control-channel
// hexbits start right after it.
const syncBits = 40

// MAC opcodes (low 6 bits of the MAC header octet).
const (
	MacOpSignal      = 0x00
	MacOpPTT         = 0x10
	MacOpEndPTT      = 0x11
	MacOpIdle        = 0x12
	MacOpActive      = 0x13
	MacOpHangtime    = 0x14
	MacOpGrantUpdate = 0x20
	MacOpGrant       = 0x21
)

// MacOpGrantAbbr is the abbreviated group voice grant: a TSBK grant
// repackaged into MAC space with the 0x40 class bit set. Its operand layout
// is MAC_GRANT's.
const MacOpGrantAbbr = 0x40

// AlgClear is P25's "no encryption" algorithm ID.
const AlgClear = 0x80

// BurstKind classifies a timeslot burst by which decode attempt succeeded.
type BurstKind int

const (
	BurstFACCH BurstKind = iota
	BurstSACCH
	BurstVoice
)

func (k BurstKind) String() string {
	switch k {
	case BurstFACCH:
		return "FACCH"
	case BurstSACCH:
		return "SACCH"
	default:
		return "4V"
	}
}

// ESSResult is a successfully recovered Encryption Sync Segment.
type ESSResult struct {
	Alg   byte
	KeyID uint16
	MI    uint64
}

// BurstResult is everything one timeslot burst produced: the decoded
// MAC-VPDU (control bursts), trunking events to raise, and the follower
// flags the pipeline applies to per-slot voice state.
type BurstResult struct {
	Kind BurstKind
	Vpdu pdu.MacVpdu

	Events []pdu.SmEvent

	// EncIndicated is set on a MAC_PTT whose algorithm is not clear;
	// ClearIndicated on one whose algorithm is. The pipeline's early
	// lockout needs to see both, since a single EncIndicated must not
	// lock a slot out by itself.
	EncIndicated   bool
	ClearIndicated bool
	MacActive      bool
	MacEnd         bool

	ESS *ESSResult
}

// Follower tracks the per-slot TDMA decode state of one Phase 2 channel:
// control-burst RS decode attempts, the four-frame ESS_B assembly, and the
// MAC-VPDU-derived trunking events. One Follower serves both slots.
type Follower struct {
	opts      tsm.Options
	table     LengthTable
	threshold byte

	voiceFrames [2]int
	voiceBuf    [2][]byte
	voiceRel    [2][]byte
	ess         [2]ESSAssembler
}

// NewFollower builds a Follower with the standard MFID-0 length table and
// the default erasure threshold.
func NewFollower(opts tsm.Options) *Follower {
	return &Follower{
		opts:      opts,
		table:     NewStandardLengthTable(),
		threshold: DefaultErasureThreshold,
	}
}

// HandleBurst decodes one full timeslot frame (FrameDibits dibits with a
// parallel reliability run). A burst with no slot-type side channel is
// classified by decode outcome: FACCH first, SACCH second, and anything
// the RS stages reject is treated as a 4V voice burst — on a traffic
// channel that is what the overwhelming majority of bursts are, and the
// two RS codes' parity makes a control burst surviving misclassification
// vanishingly unlikely.
func (f *Follower) HandleBurst(slot int, dibits, rel []byte, plan *chanplan.Plan, counters *state.Counters) BurstResult {
	if slot != 0 && slot != 1 {
		slot = 0
	}
	if len(dibits) < FrameDibits || len(rel) < len(dibits) {
		return BurstResult{Kind: BurstVoice}
	}

	if mac, corrected, ok := f.tryFACCH(dibits, rel); ok {
		counters.P2FACCH.RecordSoft(true, corrected)
		return f.handleMAC(pdu.MacChannelFACCH, slot, mac, plan)
	}
	counters.P2FACCH.RecordSoft(false, 0)

	if mac, corrected, ok := f.trySACCH(dibits, rel); ok {
		counters.P2SACCH.RecordSoft(true, corrected)
		return f.handleMAC(pdu.MacChannelSACCH, slot, mac, plan)
	}
	counters.P2SACCH.RecordSoft(false, 0)

	return f.handleVoice(slot, dibits, rel, counters)
}

func (f *Follower) tryFACCH(dibits, rel []byte) ([]byte, int, bool) {
	var payload [FACCHPayloadLen]Hexbit
	var parity [FACCHParityLen]Hexbit
	for i := range payload {
		payload[i] = ExtractHexbit(dibits, rel, syncBits+i*6, 0)
	}
	for i := range parity {
		parity[i] = ExtractHexbit(dibits, rel, syncBits+(FACCHPayloadLen+i)*6, 0)
	}
	data, corrected, ok := DecodeFACCH(payload, parity, f.threshold)
	if !ok {
		return nil, corrected, false
	}
	return packHexbits(data[:]), corrected, true
}

func (f *Follower) trySACCH(dibits, rel []byte) ([]byte, int, bool) {
	var payload [SACCHPayloadLen]Hexbit
	var parity [SACCHParityLen]Hexbit
	for i := range payload {
		payload[i] = ExtractHexbit(dibits, rel, syncBits+i*6, 0)
	}
	for i := range parity {
		parity[i] = ExtractHexbit(dibits, rel, syncBits+(SACCHPayloadLen+i)*6, 0)
	}
	data, corrected, ok := DecodeSACCH(payload, parity, f.threshold)
	if !ok {
		return nil, corrected, false
	}
	return packHexbits(data[:]), corrected, true
}

// handleVoice accumulates a 4V voice frame into the slot's ESS_B assembly
// and, once four frames are in, attempts the RS(63,16) ESS recovery.
func (f *Follower) handleVoice(slot int, dibits, rel []byte, counters *state.Counters) BurstResult {
	res := BurstResult{
		Kind:   BurstVoice,
		Events: []pdu.SmEvent{{Kind: pdu.SmEventVoiceSync, Slot: slot}},
	}

	f.voiceBuf[slot] = append(f.voiceBuf[slot], dibits[:FrameDibits]...)
	f.voiceRel[slot] = append(f.voiceRel[slot], rel[:FrameDibits]...)
	f.ess[slot].AddESSBFrame(f.voiceFrames[slot], f.voiceBuf[slot], f.voiceRel[slot])
	f.voiceFrames[slot]++

	if f.voiceFrames[slot] < 4 {
		return res
	}
	data, corrected, ok := f.ess[slot].Decode(f.threshold)
	counters.P2ESS.RecordSoft(ok, corrected)
	if ok {
		b := packHexbits(data[:])
		res.ESS = &ESSResult{
			Alg:   b[0],
			KeyID: uint16(b[1])<<8 | uint16(b[2]),
			MI:    beUint64(b[3:11]),
		}
	}
	f.voiceFrames[slot] = 0
	f.voiceBuf[slot] = f.voiceBuf[slot][:0]
	f.voiceRel[slot] = f.voiceRel[slot][:0]
	f.ess[slot] = ESSAssembler{}
	return res
}

// HandleMacPDU runs a MAC-like PDU repackaged from a Phase 1 TSBK through
// the same parser native FACCH messages use, so abbreviated FDMA signaling
// and Phase 2 signaling share one dispatch path. The repackaged opcode
// carries the 0x40 abbreviated-class bit; the grant layout under it is
// identical to MAC_GRANT's, so that one case is mapped across.
func (f *Follower) HandleMacPDU(slot int, mac []byte, plan *chanplan.Plan) BurstResult {
	return f.handleMAC(pdu.MacChannelFACCH, slot, mac, plan)
}

// handleMAC parses a decoded control-channel MAC-VPDU and derives the
// trunking events it implies.
func (f *Follower) handleMAC(class pdu.MacChannelClass, slot int, mac []byte, plan *chanplan.Plan) BurstResult {
	if len(mac) == 0 {
		return BurstResult{Kind: kindForClass(class)}
	}
	// The two high header bits flag a low-rate (LCCH) carrier; the label
	// and the CC-sync path both key off it.
	if mac[0]&0xC0 == 0xC0 {
		class = pdu.MacChannelLCCH
	}
	opcode := mac[0] & 0x3F
	if mac[0] == MacOpGrantAbbr {
		opcode = MacOpGrant
	}

	lenA := 1
	if operand, known := f.table.lookup(0, opcode); known {
		lenA += operand
	}
	lengths := ResolveLengths(f.table, 0, class, mac, lenA)

	vpdu := pdu.MacVpdu{
		Channel: class,
		Slot:    slot,
		MFID:    0,
		Opcode:  opcode,
		Length:  lengths.LenA,
	}
	copy(vpdu.Payload[:], mac)

	res := BurstResult{Kind: kindForClass(class), Vpdu: vpdu}
	operands := mac[1:]

	switch opcode {
	case MacOpSignal:
		if class == pdu.MacChannelLCCH {
			res.Events = append(res.Events, pdu.SmEvent{Kind: pdu.SmEventCcSync})
		}

	case MacOpPTT:
		if len(operands) >= 8 {
			alg := operands[0]
			if alg == AlgClear || alg == 0 {
				res.ClearIndicated = true
			} else {
				res.EncIndicated = true
			}
		}
		res.MacActive = true
		res.Events = append(res.Events, pdu.SmEvent{Kind: pdu.SmEventVoiceSync, Slot: slot})

	case MacOpActive:
		res.MacActive = true
		res.Events = append(res.Events, pdu.SmEvent{Kind: pdu.SmEventVoiceSync, Slot: slot})

	case MacOpEndPTT:
		res.MacEnd = true
		res.Events = append(res.Events, pdu.SmEvent{Kind: pdu.SmEventRelease, Slot: slot})

	case MacOpIdle, MacOpHangtime:
		// Channel marker only; hangtime expiry is the watchdog's call.

	case MacOpGrant:
		if len(operands) >= 8 {
			ch := uint16(operands[1])<<8 | uint16(operands[2])
			tg := uint32(operands[3])<<8 | uint32(operands[4])
			src := uint32(operands[5])<<16 | uint32(operands[6])<<8 | uint32(operands[7])
			if ev, ok := f.grantEvent(ch, tg, src, operands[0], plan); ok {
				res.Events = append(res.Events, ev)
			}
		}

	case MacOpGrantUpdate:
		if len(operands) >= 4 {
			ch := uint16(operands[0])<<8 | uint16(operands[1])
			tg := uint32(operands[2])<<8 | uint32(operands[3])
			if ev, ok := f.grantEvent(ch, tg, 0, 0, plan); ok {
				res.Events = append(res.Events, ev)
			}
		}
	}
	return res
}

// grantEvent resolves a granted channel and applies the policy gates,
// mirroring the Phase 1 TDULC grant path. A provisional IDEN is never used
// while a confirmed entry exists for the same channel.
func (f *Follower) grantEvent(ch uint16, tg, src uint32, svc byte, plan *chanplan.Plan) (pdu.SmEvent, bool) {
	resolved := plan.Resolve(ch)
	if !resolved.OK {
		return pdu.SmEvent{}, false
	}
	if resolved.Trust == chanplan.TrustProvisional && plan.HasConfirmedAlternate(ch) {
		return pdu.SmEvent{}, false
	}

	grant := pdu.Grant{
		FreqHz:   resolved.FreqHz,
		LPCN:     ch,
		TGOrDst:  tg,
		Src:      src,
		IsGroup:  true,
		SvcBits:  svc,
		Slot:     resolved.Slot,
		Protocol: "p25p2",
	}
	if pass, _ := tsm.EvaluateGates(f.opts, grant); !pass {
		return pdu.SmEvent{}, false
	}
	return pdu.SmEvent{Kind: pdu.SmEventGrant, Slot: resolved.Slot, Grant: grant}, true
}

func kindForClass(class pdu.MacChannelClass) BurstKind {
	if class == pdu.MacChannelSACCH {
		return BurstSACCH
	}
	return BurstFACCH
}

// packHexbits packs 6-bit symbols into bytes, MSB-first; a trailing
// partial byte is zero-padded.
func packHexbits(vals []byte) []byte {
	out := make([]byte, (len(vals)*6+7)/8)
	bit := 0
	for _, v := range vals {
		for j := 5; j >= 0; j-- {
			if v>>uint(j)&1 == 1 {
				out[bit/8] |= 1 << uint(7-bit%8)
			}
			bit++
		}
	}
	return out
}

func beUint64(b []byte) uint64 {
	var v uint64
	for _, x := range b {
		v = v<<8 | uint64(x)
	}
	return v
}
