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
	"testing"

	"github.com/dsdneo/dsdneo-go/internal/chanplan"
	"github.com/dsdneo/dsdneo-go/internal/pdu"
	"github.com/dsdneo/dsdneo-go/internal/state"
	"github.com/dsdneo/dsdneo-go/internal/tsm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// macToHexbits splits mac's bits MSB-first into n 6-bit symbols,
// zero-padded past the end of mac — the inverse of packHexbits.
func macToHexbits(mac []byte, n int) []byte {
	out := make([]byte, n)
	for i := 0; i < n*6; i++ {
		byteIdx, bitIdx := i/8, uint(7-i%8)
		var bit byte
		if byteIdx < len(mac) {
			bit = mac[byteIdx] >> bitIdx & 1
		}
		out[i/6] = out[i/6]<<1 | bit
	}
	return out
}

// placeHexbit writes one 6-bit symbol into a frame's dibits at control
// hexbit index idx (hexbits start right after the 40-bit sync word).
func placeHexbit(dibits []byte, idx int, v byte) {
	base := (syncBits + idx*6) / 2
	dibits[base] = v >> 4 & 3
	dibits[base+1] = v >> 2 & 3
	dibits[base+2] = v & 3
}

func fullReliability() []byte {
	rel := make([]byte, FrameDibits)
	for i := range rel {
		rel[i] = 255
	}
	return rel
}

// facchFrame lays mac out as a full-reliability FACCH burst in a timeslot
// frame, parity from EncodeFACCH.
func facchFrame(mac []byte) (dibits, rel []byte) {
	var data [FACCHPayloadLen]byte
	copy(data[:], macToHexbits(mac, FACCHPayloadLen))
	payload, parity := EncodeFACCH(data)

	dibits = make([]byte, FrameDibits)
	for i, h := range payload {
		placeHexbit(dibits, i, h.Value)
	}
	for i, h := range parity {
		placeHexbit(dibits, FACCHPayloadLen+i, h.Value)
	}
	return dibits, fullReliability()
}

// sacchFrame is facchFrame's SACCH analogue.
func sacchFrame(mac []byte) (dibits, rel []byte) {
	var data [SACCHPayloadLen]byte
	copy(data[:], macToHexbits(mac, SACCHPayloadLen))
	payload, parity := EncodeSACCH(data)

	dibits = make([]byte, FrameDibits)
	for i, h := range payload {
		placeHexbit(dibits, i, h.Value)
	}
	for i, h := range parity {
		placeHexbit(dibits, SACCHPayloadLen+i, h.Value)
	}
	return dibits, fullReliability()
}

func grantPlan() *chanplan.Plan {
	p := chanplan.NewPlan()
	p.Idens[1] = chanplan.IDEN{
		Base:     170200000,
		Spac:     100,
		ChanType: 1,
		Trust:    chanplan.TrustConfirmed,
	}
	return p
}

func TestFollowerFACCHMacActive(t *testing.T) {
	f := NewFollower(tsm.Options{})
	counters := &state.Counters{}
	dibits, rel := facchFrame([]byte{MacOpActive, 1, 2, 3, 4, 5, 6, 7, 8, 9})

	res := f.HandleBurst(0, dibits, rel, chanplan.NewPlan(), counters)

	require.Equal(t, BurstFACCH, res.Kind)
	assert.True(t, res.MacActive)
	assert.Equal(t, byte(MacOpActive), res.Vpdu.Opcode)
	assert.Equal(t, pdu.MacChannelFACCH, res.Vpdu.Channel)
	assert.Equal(t, "FACCH", ChannelLabel(res.Vpdu.Channel))
	require.Len(t, res.Events, 1)
	assert.Equal(t, pdu.SmEventVoiceSync, res.Events[0].Kind)
	assert.Equal(t, 0, res.Events[0].Slot)
	assert.Equal(t, uint64(1), counters.P2FACCH.OK.Load())
}

func TestFollowerSACCHIdle(t *testing.T) {
	f := NewFollower(tsm.Options{})
	counters := &state.Counters{}
	dibits, rel := sacchFrame([]byte{MacOpIdle, 0x00})

	res := f.HandleBurst(1, dibits, rel, chanplan.NewPlan(), counters)

	require.Equal(t, BurstSACCH, res.Kind)
	assert.Equal(t, pdu.MacChannelSACCH, res.Vpdu.Channel)
	assert.Equal(t, "SACCH", ChannelLabel(res.Vpdu.Channel))
	assert.Empty(t, res.Events)
	assert.Equal(t, uint64(1), counters.P2SACCH.OK.Load())
	assert.Equal(t, uint64(1), counters.P2FACCH.Fail.Load())
}

func TestFollowerLCCHSignalRaisesCCSync(t *testing.T) {
	f := NewFollower(tsm.Options{})
	counters := &state.Counters{}
	dibits, rel := facchFrame([]byte{0xC0 | MacOpSignal})

	res := f.HandleBurst(0, dibits, rel, chanplan.NewPlan(), counters)

	assert.Equal(t, pdu.MacChannelLCCH, res.Vpdu.Channel)
	assert.Equal(t, "LCCH", ChannelLabel(res.Vpdu.Channel))
	require.Len(t, res.Events, 1)
	assert.Equal(t, pdu.SmEventCcSync, res.Events[0].Kind)
}

func TestFollowerGrantResolvesAndGates(t *testing.T) {
	opts := tsm.Options{TrunkEnable: true, TuneGroup: true}
	f := NewFollower(opts)
	counters := &state.Counters{}
	// svc=0, channel=(1<<12)|5, tg=1234, src=12345
	mac := []byte{MacOpGrant, 0x00, 0x10, 0x05, 0x04, 0xD2, 0x00, 0x30, 0x39}
	dibits, rel := facchFrame(mac)

	res := f.HandleBurst(0, dibits, rel, grantPlan(), counters)

	require.Len(t, res.Events, 1)
	ev := res.Events[0]
	require.Equal(t, pdu.SmEventGrant, ev.Kind)
	// base*5 + step*spac*125 with step=5
	assert.Equal(t, uint64(851062500), ev.Grant.FreqHz)
	assert.Equal(t, uint32(1234), ev.Grant.TGOrDst)
	assert.Equal(t, uint32(12345), ev.Grant.Src)
	assert.Equal(t, "p25p2", ev.Grant.Protocol)
	assert.True(t, ev.Grant.IsGroup)
}

func TestFollowerGrantAllowsProvisionalIden(t *testing.T) {
	opts := tsm.Options{TrunkEnable: true, TuneGroup: true}
	f := NewFollower(opts)
	plan := grantPlan()
	plan.Idens[1].Trust = chanplan.TrustProvisional

	mac := []byte{MacOpGrant, 0x00, 0x10, 0x05, 0x04, 0xD2, 0x00, 0x30, 0x39}
	dibits, rel := facchFrame(mac)
	res := f.HandleBurst(0, dibits, rel, plan, &state.Counters{})

	require.Len(t, res.Events, 1)
	assert.Equal(t, pdu.SmEventGrant, res.Events[0].Kind)
}

func TestFollowerGrantBlockedByTGHold(t *testing.T) {
	opts := tsm.Options{TrunkEnable: true, TuneGroup: true, TGHold: 999}
	f := NewFollower(opts)
	mac := []byte{MacOpGrant, 0x00, 0x10, 0x05, 0x04, 0xD2, 0x00, 0x30, 0x39}
	dibits, rel := facchFrame(mac)

	res := f.HandleBurst(0, dibits, rel, grantPlan(), &state.Counters{})

	assert.Empty(t, res.Events)
}

func TestFollowerEncPTTIndication(t *testing.T) {
	f := NewFollower(tsm.Options{})
	// alg=0xAA (not clear), keyid, tg, src
	mac := []byte{MacOpPTT, 0xAA, 0x01, 0x02, 0x04, 0xD2, 0x00, 0x30, 0x39}
	dibits, rel := facchFrame(mac)

	res := f.HandleBurst(0, dibits, rel, chanplan.NewPlan(), &state.Counters{})

	assert.True(t, res.EncIndicated)
	assert.False(t, res.ClearIndicated)
	assert.True(t, res.MacActive)

	clearMac := []byte{MacOpPTT, AlgClear, 0x01, 0x02, 0x04, 0xD2, 0x00, 0x30, 0x39}
	dibits, rel = facchFrame(clearMac)
	res = f.HandleBurst(0, dibits, rel, chanplan.NewPlan(), &state.Counters{})
	assert.False(t, res.EncIndicated)
	assert.True(t, res.ClearIndicated)
}

// TestFollowerVoiceBurstsFeedESS: four bursts that pass neither RS stage
// classify as 4V voice, raise per-slot voice sync, and drive exactly one
// ESS decode attempt.
func TestFollowerVoiceBurstsFeedESS(t *testing.T) {
	f := NewFollower(tsm.Options{})
	counters := &state.Counters{}

	dibits := make([]byte, FrameDibits)
	for i := range dibits {
		dibits[i] = 3
	}
	rel := fullReliability()

	for i := 0; i < 4; i++ {
		res := f.HandleBurst(1, dibits, rel, chanplan.NewPlan(), counters)
		require.Equal(t, BurstVoice, res.Kind)
		require.Len(t, res.Events, 1)
		assert.Equal(t, pdu.SmEventVoiceSync, res.Events[0].Kind)
		assert.Equal(t, 1, res.Events[0].Slot)
	}

	total := counters.P2ESS.OK.Load() + counters.P2ESS.Fail.Load()
	assert.Equal(t, uint64(1), total, "ESS decode should run once per four voice frames")
}

// TestHandleMacPDUAbbreviatedGrant: a repackaged Phase 1 TSBK grant (the
// 0x40 abbreviated-class header) rides the MAC parser's MAC_GRANT case and
// produces the same gated grant a native Phase 2 MAC_GRANT would.
func TestHandleMacPDUAbbreviatedGrant(t *testing.T) {
	f := NewFollower(tsm.Options{TrunkEnable: true, TuneGroup: true})

	// svc=0, channel=(1<<12)|5, tg=1234, src=12345
	mac := []byte{MacOpGrantAbbr, 0x00, 0x10, 0x05, 0x04, 0xD2, 0x00, 0x30, 0x39}
	res := f.HandleMacPDU(0, mac, grantPlan())

	require.Len(t, res.Events, 1)
	ev := res.Events[0]
	assert.Equal(t, pdu.SmEventGrant, ev.Kind)
	assert.Equal(t, uint32(1234), ev.Grant.TGOrDst)
	assert.Equal(t, uint32(12345), ev.Grant.Src)
	assert.NotZero(t, ev.Grant.FreqHz)
	assert.Equal(t, pdu.MacChannelFACCH, res.Vpdu.Channel)
}
