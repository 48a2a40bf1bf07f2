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

package pipeline

import (
	"time"

	"github.com/dsdneo/dsdneo-go/internal/config"
	"github.com/dsdneo/dsdneo-go/internal/dmr"
	"github.com/dsdneo/dsdneo-go/internal/dmrconst"
	"github.com/dsdneo/dsdneo-go/internal/dsp"
	"github.com/dsdneo/dsdneo-go/internal/events"
	"github.com/dsdneo/dsdneo-go/internal/framing"
	"github.com/dsdneo/dsdneo-go/internal/p25p1"
	"github.com/dsdneo/dsdneo-go/internal/p25p2"
	"github.com/dsdneo/dsdneo-go/internal/pdu"
	"github.com/dsdneo/dsdneo-go/internal/state"
	"github.com/dsdneo/dsdneo-go/internal/tsm"
)

// frameDecoderBufCapacity bounds the raw dibit hunt buffer; large enough to
// hold several TDULC/HDU-sized frames (144 dibits) between drains without
// growing unbounded.
const frameDecoderBufCapacity = 2048

// syncLostDibits is one second of dibits at 4800 symbols/s: no sync word in
// that long surfaces SYNC_LOST to the trunking state machine.
const syncLostDibits = 4800

// p25RawDUID maps the 4-bit DUID field TIA-102's NID carries onto pdu.DUID.
var p25RawDUID = map[byte]pdu.DUID{
	0x0: pdu.DUIDHDU,
	0x3: pdu.DUIDTDU,
	0x5: pdu.DUIDLDU1,
	0x7: pdu.DUIDTSBK,
	0xA: pdu.DUIDLDU2,
	0xC: pdu.DUIDMPDU,
	0xF: pdu.DUIDTDULC,
}

// p25PayloadDibits gives the post-NID payload length, in dibits, frameDecoder
// reads for each DUID under its raw-framing simplification: P25's real
// trellis-3/4 (TSBK/MPDU) and Golay/RS (TDULC/HDU/LDU2) interleave is not
// undone here, so these lengths assume the dibits immediately after the NID
// are already in final bit order (DESIGN.md documents the gap).
var p25PayloadDibits = map[pdu.DUID]int{
	pdu.DUIDHDU:   144,
	pdu.DUIDTDULC: 144,
	pdu.DUIDLDU2:  144,
	pdu.DUIDTSBK:  48,
	pdu.DUIDLDU1:  68,
	pdu.DUIDTDU:   0,
	pdu.DUIDMPDU:  0,
}

// A DMR burst splits its 196 BPTC-interleaved payload bits around the
// 48-bit sync word: 98 info bits, the first slot-type half (10 bits),
// sync, the second slot-type half, 98 info bits. The CACH word announcing
// the burst's TDMA slot precedes the whole burst.
const (
	dmrHalfInfoDibits = 49 // 98 bits
	dmrSlotTypeHalf   = 5  // 10 bits
	dmrHalfDibits     = dmrHalfInfoDibits + dmrSlotTypeHalf
	dmrCACHDibits     = 8 // 16 bits
)

// frameDecoder segments the raw dibit stream the DSP front-end produces
// into P25 Phase 1, P25 Phase 2, and DMR frames by hunting the standard
// sync words (internal/framing), then dispatches each recognized frame to
// the existing per-protocol Decode*/Handle* entry points and raises
// whatever pdu.SmEvent results into the trunking state machine.
//
// DMR data bursts are BPTC(196,96)-deinterleaved and slot-type-decoded
// before dispatch. P25 Phase 1's trellis-3/4 interleave (TSBK/MPDU) is
// not undone: those dibits are treated as already being in final bit
// order. That is a known, documented fidelity gap (see DESIGN.md), not a
// silent one: it trades perfect frame recovery for exercising the real
// FEC/CRC/PDU/TSM-event code path end to end on whatever framing the sync
// hunt actually finds.
type frameDecoder struct {
	decoder *state.Decoder
	machine *tsm.Machine

	p25p1Enabled bool
	p25p2Enabled bool
	dmrEnabled   bool

	tdulcOpts p25p1.TDULCOptions
	dmrPipe   *dmr.Pipeline
	p2        *p25p2.Follower

	// hardsetIdentity pins the configured WACN/SYSID against NET_STS
	// overwrites.
	hardsetIdentity bool

	// lastSrc is the last source RID observed by any frame; format 0x44
	// TDULC grants carry no source of their own (see
	// p25p1.HandleGroupVoiceUpdate's doc comment). Phase 2 MAC_GRANTs
	// populate it.
	lastSrc uint32

	// p2TS counts Phase 2 timeslot bursts; its low bit is the slot the
	// next burst belongs to, since the two logical slots strictly
	// alternate on the carrier.
	p2TS int

	// publish, when wired, records a call-history event; nil in tests
	// that only care about TSM effects.
	publish func(slot int, e events.Event)

	// synced/dibitsSinceSync drive SYNC_LOST: once any sync word has been
	// seen, going syncLostDibits without another raises the event once.
	synced          bool
	dibitsSinceSync int

	// buf and rel are parallel: rel[i] is the per-dibit reliability of
	// buf[i], preserved for the Phase 2 soft-decision erasure marking.
	buf    []byte
	rel    []byte
	cursor int
}

func newFrameDecoder(decoder *state.Decoder, machine *tsm.Machine, opts config.Options) *frameDecoder {
	trunking := opts.Trunking.Resolve()
	return &frameDecoder{
		decoder:      decoder,
		machine:      machine,
		p25p1Enabled: opts.Protocols.P25P1.Value,
		p25p2Enabled: opts.Protocols.P25P2.Value,
		dmrEnabled:   opts.Protocols.DMR.Value,
		tdulcOpts: p25p1.TDULCOptions{
			LCWRetune: true,
			Trunk:     trunking.TrunkEnable,
			Tsm:       trunking,
		},
		dmrPipe:         dmr.NewPipeline(trunking),
		p2:              p25p2.NewFollower(trunking),
		hardsetIdentity: opts.Trunking.HardsetIdentity.Or(false),
	}
}

// Feed appends newly-drained symbols to the hunt buffer and dispatches
// every complete frame it can find before trimming the buffer back down.
func (fd *frameDecoder) Feed(syms []dsp.Symbol) {
	for _, s := range syms {
		fd.buf = append(fd.buf, s.Dibit)
		fd.rel = append(fd.rel, s.Reliability)
	}
	fd.dibitsSinceSync += len(syms)
	fd.drain()
	fd.trim()
	if fd.synced && fd.dibitsSinceSync > syncLostDibits {
		fd.synced = false
		fd.machine.Handle(pdu.SmEvent{Kind: pdu.SmEventSyncLost, Slot: -1}, time.Now())
	}
}

// noteSync resets the sync-loss watchdog on every recognized sync word.
func (fd *frameDecoder) noteSync() {
	fd.synced = true
	fd.dibitsSinceSync = 0
}

// trim drops dibits the hunt cursor has already passed once the buffer
// grows past capacity, keeping the last SyncLenDibits so a pattern
// straddling the trim point is never missed.
func (fd *frameDecoder) trim() {
	if len(fd.buf) < frameDecoderBufCapacity {
		return
	}
	drop := fd.cursor - framing.SyncLenDibits
	if drop <= 0 {
		return
	}
	fd.buf = fd.buf[drop:]
	fd.rel = fd.rel[drop:]
	fd.cursor -= drop
}

// syncLenFor is the matched sync word's length in dibits, needed to step
// the cursor back to the word's first dibit when a frame is incomplete.
func syncLenFor(p framing.Protocol) int {
	if p == framing.ProtocolP25P2 {
		return framing.P25P2SyncLenDibits
	}
	return framing.SyncLenDibits
}

func (fd *frameDecoder) drain() {
	for {
		hit, next, ok := framing.Hunt(fd.buf, fd.cursor)
		if !ok {
			fd.cursor = next
			return
		}
		fd.noteSync()
		switch hit.Protocol {
		case framing.ProtocolP25P1:
			fd.cursor = fd.processP25P1(hit)
		case framing.ProtocolP25P2:
			fd.cursor = fd.processP25P2(hit)
		case framing.ProtocolDMR:
			fd.cursor = fd.processDMR(hit)
		default:
			fd.cursor = hit.End
		}
		if fd.cursor <= hit.End-syncLenFor(hit.Protocol) {
			// Frame incomplete: the cursor was stepped back to the sync
			// word's start so the next Feed re-hunts the same frame once
			// its tail has arrived.
			return
		}
	}
}

// nidHeaderDibits/nidParityDibits split P25's 64-bit NID: 16 info bits
// (NAC+DUID) followed by 48 bits of BCH(63,16,23) parity this decoder does
// not correct against (documented simplification).
const (
	nidHeaderDibits = 8
	nidParityDibits = 24
)

func (fd *frameDecoder) processP25P1(hit framing.Hit) int {
	nidStart := hit.End
	if !fd.p25p1Enabled {
		return nidStart
	}
	syncStart := hit.End - framing.SyncLenDibits
	nidEnd := nidStart + nidHeaderDibits
	if nidEnd > len(fd.buf) {
		return syncStart
	}
	header := framing.PackBytes(fd.buf[nidStart:nidEnd])
	_, rawDUID := framing.NACAndDUID(header)
	duid, known := p25RawDUID[rawDUID]
	if !known {
		return nidEnd
	}

	payloadStart := nidStart + nidHeaderDibits + nidParityDibits
	payloadLen := p25PayloadDibits[duid]
	payloadEnd := payloadStart + payloadLen
	if payloadEnd > len(fd.buf) {
		return syncStart
	}

	now := time.Now()
	if duid != pdu.DUIDLDU1 {
		fd.decoder.Counters.RecordDUID(int(duid))
	}

	switch duid {
	case pdu.DUIDTSBK:
		rep := p25p1.Repetition{Bytes: bytes12(framing.PackBytes(fd.buf[payloadStart:payloadEnd]))}
		frame := p25p1.DecodeTSBK([]p25p1.Repetition{rep}, &fd.decoder.Counters)
		if frame.RefreshCCSync {
			fd.decoder.NoteCCSync(now)
			fd.machine.Handle(pdu.SmEvent{Kind: pdu.SmEventCcSync}, now)
		}
		if frame.CRCOK {
			fd.handleTSBKOpcode(frame, now)
		}

	case pdu.DUIDTDULC:
		words := words12(framing.PackBytes(fd.buf[payloadStart:payloadEnd]))
		if gvu, _, ok := p25p1.DecodeTDULC(words); ok {
			if ev, granted := p25p1.HandleGroupVoiceUpdate(gvu, fd.tdulcOpts, fd.decoder.Plan, fd.lastSrc); granted {
				fd.machine.Handle(ev, now)
				fd.publishGrant(events.KindP25P1, ev, now)
			}
		}

	case pdu.DUIDHDU:
		words := words12(framing.PackBytes(fd.buf[payloadStart:payloadEnd]))
		if hdu, _, ok := p25p1.DecodeHDU(words); ok {
			fd.recordEncSync(0, hdu.AlgID, hdu.KeyID, hdu.MI)
		}

	case pdu.DUIDLDU2:
		words := words12(framing.PackBytes(fd.buf[payloadStart:payloadEnd]))
		if ess, _, ok := p25p1.DecodeLDU2ESS(words); ok {
			fd.recordEncSync(0, ess.AlgID, ess.KeyID, ess.MI)
		}
		fd.markVoiceActivity(0, now)
		fd.machine.Handle(pdu.SmEvent{Kind: pdu.SmEventVoiceSync, Slot: 0}, now)

	case pdu.DUIDLDU1:
		words := voiceWords(framing.PackBits(fd.buf[payloadStart:payloadEnd]))
		p25p1.ProcessVoiceFrame(int(duid), words, &fd.decoder.SlotVoice[0], &fd.decoder.Counters)
		fd.markVoiceActivity(0, now)
		fd.machine.Handle(pdu.SmEvent{Kind: pdu.SmEventVoiceSync, Slot: 0}, now)

	case pdu.DUIDTDU:
		fd.machine.Handle(pdu.SmEvent{Kind: pdu.SmEventRelease, Slot: 0}, now)
	}

	return payloadEnd
}

// handleTSBKOpcode dispatches a CRC-OK TSBK on its MFID/opcode: vendor
// blocks update local tables (patches, encryption lockout) rather than
// tuning; standard blocks drive grants and identity learning.
func (fd *frameDecoder) handleTSBKOpcode(frame p25p1.Frame, now time.Time) {
	switch {
	case frame.Header.MFID == p25p1.MFIDMotorola:
		if cmd, ok := p25p1.ParseMotRegroup(frame.Bytes); ok {
			fd.decoder.ApplyPatch(cmd.SuperGroup, cmd.Group, cmd.Add)
		}

	case frame.Header.MFID == p25p1.MFIDHarris:
		cmd := p25p1.ParseHarrisEnc(frame.Bytes)
		fd.decoder.SetTGEncLocked(cmd.TG, cmd.Locked)

	case frame.Header.MFID < 2 && frame.Header.Opcode == p25p1.TSBKOpGrpVoiceGrant:
		g := p25p1.ParseGroupVoiceGrant(frame.Bytes)
		if ev, granted := p25p1.HandleGroupVoiceGrant(g, fd.tdulcOpts.Tsm, fd.decoder.Plan); granted {
			fd.lastSrc = g.Src
			fd.machine.Handle(ev, now)
			fd.publishGrant(events.KindP25P1, ev, now)
		}

	case frame.Header.MFID < 2 && frame.Header.Opcode == p25p1.TSBKOpNetStsBcst:
		fd.applyNetStatus(p25p1.ParseNetStatus(frame.Bytes), now)

	case frame.IsMACEligible():
		// Every remaining standard unprotected TSBK rides the shared
		// MAC-VPDU parser as a repackaged abbreviated message.
		mac := frame.ToMACPDU()
		fd.applyP2Result(0, events.KindP25P1, fd.p2.HandleMacPDU(0, mac[:], fd.decoder.Plan), now)
	}
}

// applyNetStatus learns (or, under hardset identity, only refreshes the
// channel plan from) a network status broadcast: identity, control-channel
// frequency as a hunt candidate and neighbor, and provisional-IDEN
// promotion for the now-confirmed site.
func (fd *frameDecoder) applyNetStatus(ns p25p1.NetStatus, now time.Time) {
	if !fd.hardsetIdentity {
		fd.decoder.SetSystemIdentity(ns.WACN, ns.SYSID)
	}
	plan := fd.decoder.Plan
	plan.CurrentSite.WACN = ns.WACN
	plan.CurrentSite.SYSID = uint32(ns.SYSID)
	if r := plan.Resolve(ns.Chan); r.OK {
		fd.decoder.SetCCFreq(r.FreqHz)
		plan.Candidates().Push(r.FreqHz)
		plan.Neighbors().See(r.FreqHz, now)
	}
	plan.ConfirmIdensForCurrentSite()
}

func (fd *frameDecoder) processP25P2(hit framing.Hit) int {
	frameStart := hit.End - framing.P25P2SyncLenDibits
	if !fd.p25p2Enabled {
		return hit.End
	}
	frameEnd := frameStart + p25p2.FrameDibits
	if frameEnd > len(fd.buf) {
		return frameStart
	}

	now := time.Now()
	slot := fd.p2TS & 1
	fd.p2TS++

	res := fd.p2.HandleBurst(slot,
		fd.buf[frameStart:frameEnd], fd.rel[frameStart:frameEnd],
		fd.decoder.Plan, &fd.decoder.Counters)
	fd.applyP2Result(slot, events.KindP25P2, res, now)
	return frameEnd
}

// applyP2Result folds one MAC-VPDU-bearing burst's outcome into the slot's
// voice context and raises its trunking events; kind labels the protocol
// the PDU arrived on (native Phase 2, or a repackaged Phase 1 TSBK).
// Encryption lockout waits for a second confirming MAC_PTT indication so a
// single bit-errored PTT cannot mute a clear call.
func (fd *frameDecoder) applyP2Result(slot int, kind events.Kind, res p25p2.BurstResult, now time.Time) {
	fd.decoder.WithSlotVoice(slot, func(sv *state.SlotVoiceContext) {
		if res.MacActive {
			sv.LastMacActiveWall = now.UnixNano()
			sv.LastMacActiveMono = now.UnixNano()
		}
		if res.MacEnd {
			sv.LastMacEndWall = now.UnixNano()
			sv.LastMacEndMono = now.UnixNano()
			sv.AudioAllowed = false
		}
		switch {
		case res.EncIndicated:
			sv.EncPending++
			if sv.EncPending >= 2 {
				sv.AudioAllowed = false
			}
		case res.ClearIndicated:
			sv.EncPending = 0
		}
		if res.ESS != nil {
			sv.Enc.Alg = res.ESS.Alg
			sv.Enc.KeyID = res.ESS.KeyID
			sv.Enc.MI = res.ESS.MI
		}
	})

	if res.Kind == p25p2.BurstVoice {
		fd.markVoiceActivity(slot, now)
	}
	for _, ev := range res.Events {
		if ev.Kind == pdu.SmEventGrant && ev.Grant.Src != 0 {
			fd.lastSrc = ev.Grant.Src
		}
		fd.machine.Handle(ev, now)
		fd.publishGrant(kind, ev, now)
	}
}

// publishGrant records a grant in the call-history banks. Other event kinds
// stay out of the history; they are state, not calls.
func (fd *frameDecoder) publishGrant(kind events.Kind, ev pdu.SmEvent, now time.Time) {
	if fd.publish == nil || ev.Kind != pdu.SmEventGrant {
		return
	}
	slot := ev.Slot
	if slot != 1 {
		slot = 0
	}
	id := fd.decoder.Identity
	fd.publish(slot, events.Event{
		Kind:      kind,
		Subtype:   "grant",
		WACN:      id.WACN,
		SYSID:     id.SYSID,
		RFSS:      id.RFSS,
		Site:      id.Site,
		IsGroup:   ev.Grant.IsGroup,
		Encrypted: ev.Grant.SvcBits&0x40 != 0,
		Source:    ev.Grant.Src,
		Target:    ev.Grant.TGOrDst,
		WallTime:  now.Unix(),
		Mono:      now.UnixNano(),
	})
}

func (fd *frameDecoder) processDMR(hit framing.Hit) int {
	if !fd.dmrEnabled {
		return hit.End
	}
	syncStart := hit.End - framing.SyncLenDibits
	now := time.Now()

	// The burst's slot comes from the CACH word ahead of it when that was
	// captured; a burst whose head predates the hunt buffer defaults to
	// slot 0.
	slot := 0
	if cachStart := syncStart - dmrHalfDibits - dmrCACHDibits; cachStart >= 0 {
		var cachBits [16]byte
		copy(cachBits[:], framing.PackBits(fd.buf[cachStart:cachStart+dmrCACHDibits]))
		if cach := dmr.ParseCACH(cachBits); cach.OK && cach.TC {
			slot = 1
		}
	}

	if hit.DMRClass == framing.DMRBurstVoice {
		// Voice bursts carry EMB where data bursts carry slot type; the
		// sync word alone is enough to stamp slot activity.
		fd.markVoiceActivity(slot, now)
		fd.machine.Handle(pdu.SmEvent{Kind: pdu.SmEventVoiceSync, Slot: slot}, now)
		return hit.End
	}

	end := hit.End + dmrHalfDibits
	if end > len(fd.buf) {
		return syncStart
	}
	if syncStart < dmrHalfDibits {
		// First payload half predates the hunt buffer; the BPTC codeword
		// cannot be assembled.
		return hit.End
	}
	fd.processDMRData(slot, syncStart, hit.End, now)
	return end
}

// processDMRData assembles the split BPTC payload and slot-type field of a
// data burst and dispatches on the decoded data type.
func (fd *frameDecoder) processDMRData(slot, syncStart, syncEnd int, now time.Time) {
	left := fd.buf[syncStart-dmrHalfDibits : syncStart]
	right := fd.buf[syncEnd : syncEnd+dmrHalfDibits]

	var payload [dmr.BPTCBits]byte
	bit := 0
	for _, d := range left[:dmrHalfInfoDibits] {
		payload[bit] = d >> 1 & 1
		payload[bit+1] = d & 1
		bit += 2
	}
	for _, d := range right[dmrSlotTypeHalf:] {
		payload[bit] = d >> 1 & 1
		payload[bit+1] = d & 1
		bit += 2
	}

	var stBits [dmr.SlotTypeBits]byte
	copy(stBits[:10], framing.PackBits(left[dmrHalfInfoDibits:]))
	copy(stBits[10:], framing.PackBits(right[:dmrSlotTypeHalf]))
	st, ok := dmr.DecodeSlotType(stBits)
	if !ok {
		return
	}

	data, ok := dmr.DecodeBPTC19696(payload)
	if !ok {
		return
	}

	switch st.DataType {
	case dmrconst.DTypeCSBK:
		if ev, granted := fd.dmrPipe.HandleCSBKBurst(data, &fd.decoder.Counters); granted {
			fd.machine.Handle(ev, now)
			fd.publishGrant(events.KindDMR, ev, now)
		}
	case dmrconst.DTypeDataHeader:
		fd.dmrPipe.HandleDataHeaderBurst(slot, data)
		fd.machine.Handle(pdu.SmEvent{Kind: pdu.SmEventDataSync, Slot: slot}, now)
	case dmrconst.DTypeTerminatorLC:
		fd.machine.Handle(pdu.SmEvent{Kind: pdu.SmEventRelease, Slot: slot}, now)
	case dmrconst.DTypeRate12Data:
		// Confirmed rate-1/2 block: 7-bit DBSN, 9-bit block CRC, payload.
		// The BPTC decode already vouched for the bits, so the block CRC
		// is not re-verified here.
		block := dmr.DataBlock{
			DBSN:    data[0] >> 1,
			Payload: append([]byte(nil), data[2:]...),
			CRCOK:   true,
		}
		fd.dmrPipe.HandleDataBlock(slot, block)
	}
}

// recordEncSync stashes a decoded HDU/LDU2-ESS encryption sync into slot's
// voice context under the decoder lock.
func (fd *frameDecoder) recordEncSync(slot int, alg byte, keyID uint16, mi uint64) {
	fd.decoder.WithSlotVoice(slot, func(sv *state.SlotVoiceContext) {
		sv.Enc.Alg = alg
		sv.Enc.KeyID = keyID
		sv.Enc.MI = mi
	})
}

// markVoiceActivity records the ring/MAC-activity bookkeeping
// tsm.AudioActivity's ring_hold_s/mac_hold_s checks read. The
// PCM frame pushed is a zero-filled placeholder standing in for the
// externally-invoked vocoder this project does not implement.
func (fd *frameDecoder) markVoiceActivity(slot int, now time.Time) {
	fd.decoder.WithSlotVoice(slot, func(sv *state.SlotVoiceContext) {
		sv.AudioAllowed = sv.EncPending < 2
		sv.LastMacActiveWall = now.UnixNano()
		sv.LastMacActiveMono = now.UnixNano()
		var frame [160]int16
		sv.Jitter.Push(frame)
	})
}

func bytes12(b []byte) [12]byte {
	var out [12]byte
	copy(out[:], b)
	return out
}

func words12(b []byte) [12]uint32 {
	var out [12]uint32
	for i := 0; i < 12 && i*3+2 < len(b); i++ {
		out[i] = uint32(b[i*3])<<16 | uint32(b[i*3+1])<<8 | uint32(b[i*3+2])
	}
	return out
}

func voiceWords(bits []byte) [9][15]byte {
	var out [9][15]byte
	for w := 0; w < 9; w++ {
		for b := 0; b < 15; b++ {
			idx := w*15 + b
			if idx < len(bits) {
				out[w][b] = bits[idx]
			}
		}
	}
	return out
}
