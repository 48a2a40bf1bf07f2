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

package dmr

import (
	"github.com/dsdneo/dsdneo-go/internal/dmrconst"
	"github.com/dsdneo/dsdneo-go/internal/fec"
	"github.com/dsdneo/dsdneo-go/internal/pdu"
	"github.com/dsdneo/dsdneo-go/internal/tsm"
)

// DecodeCSBK CRC-checks a 12-byte Control Signaling Block (byte 0: LB/PF/
// opcode, byte 1: FID, bytes 2..9: payload, bytes 10..11: CRC trailer) and
// parses the fields each grant-bearing opcode carries.
func DecodeCSBK(bytes [12]byte) (pdu.CsbkResult, bool) {
	ok := fec.CRC16CCITTCheck(bytes[:])

	r := pdu.CsbkResult{
		LB:     bytes[0]&0x80 != 0,
		PF:     bytes[0]&0x40 != 0,
		Opcode: bytes[0] & 0x3F,
		FID:    bytes[1],
		Bytes:  append([]byte(nil), bytes[:]...),
	}
	if !ok {
		return r, false
	}

	payload := bytes[2:10]
	switch dmrconst.CsbkOpcode(r.Opcode) {
	case dmrconst.CsbkOpTalkgroupVoiceGrant, dmrconst.CsbkOpPrivateVoiceGrant, dmrconst.CsbkOpBroadcastTalkgroup:
		r.StatusBits = payload[0]
		r.LCN = uint16(payload[1])<<4 | uint16(payload[2])>>4
		r.LPCN = r.LCN
		r.Target = uint32(payload[3])<<16 | uint32(payload[4])<<8 | uint32(payload[5])
		r.Source = uint32(payload[6])<<8 | uint32(payload[7])
	case dmrconst.CsbkOpUnitToUnitVoiceReq, dmrconst.CsbkOpUnitToUnitVoiceAns:
		r.StatusBits = payload[0]
		r.Target = uint32(payload[1])<<16 | uint32(payload[2])<<8 | uint32(payload[3])
		r.Source = uint32(payload[4])<<16 | uint32(payload[5])<<8 | uint32(payload[6])
	case dmrconst.CsbkOpAhoy, dmrconst.CsbkOpBroadcast, dmrconst.CsbkOpChanTimingSched:
		r.LCN = uint16(payload[1])<<4 | uint16(payload[2])>>4
		r.PhysicalChannelNumber = r.LCN
	}
	return r, true
}

// IsGroupGrant reports whether opcode is a talkgroup (vs. private) voice
// channel grant.
func IsGroupGrant(opcode byte) bool {
	switch dmrconst.CsbkOpcode(opcode) {
	case dmrconst.CsbkOpTalkgroupVoiceGrant, dmrconst.CsbkOpBroadcastTalkgroup:
		return true
	default:
		return false
	}
}

// IsVoiceGrant reports whether opcode is one of the voice channel grant
// opcodes DecodeCSBK resolves an LCN for.
func IsVoiceGrant(opcode byte) bool {
	switch dmrconst.CsbkOpcode(opcode) {
	case dmrconst.CsbkOpTalkgroupVoiceGrant, dmrconst.CsbkOpPrivateVoiceGrant, dmrconst.CsbkOpBroadcastTalkgroup:
		return true
	default:
		return false
	}
}

// HandleCSBK applies the trunking policy gates to a decoded, CRC-OK voice
// channel grant CSBK and, if it passes and lcns resolves the LCN to a
// frequency, returns the Grant event to raise into the TSM. Slot is always
// -1: Tier III FDMA/TDMA channel assignment is carried by the LCN, not a
// fixed slot, so the follower tunes the whole logical channel and lets the
// CACH/slot-type fields on the destination determine which TDMA slot (if
// any) carries the call.
func HandleCSBK(csbk pdu.CsbkResult, opts tsm.Options, lcns LCNTable) (pdu.SmEvent, bool) {
	if !IsVoiceGrant(csbk.Opcode) {
		return pdu.SmEvent{}, false
	}
	freqHz, ok := lcns.Resolve(csbk.LCN)
	if !ok {
		return pdu.SmEvent{}, false
	}

	grant := pdu.Grant{
		FreqHz:   freqHz,
		LPCN:     csbk.LCN,
		TGOrDst:  csbk.Target,
		Src:      csbk.Source,
		IsGroup:  IsGroupGrant(csbk.Opcode),
		SvcBits:  csbk.StatusBits,
		Slot:     -1,
		Protocol: "dmr",
	}
	if gPass, _ := tsm.EvaluateGates(opts, grant); !gPass {
		return pdu.SmEvent{}, false
	}
	return pdu.SmEvent{Kind: pdu.SmEventGrant, Slot: -1, Grant: grant}, true
}
