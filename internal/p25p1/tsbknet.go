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

package p25p1

import (
	"github.com/dsdneo/dsdneo-go/internal/chanplan"
	"github.com/dsdneo/dsdneo-go/internal/pdu"
	"github.com/dsdneo/dsdneo-go/internal/tsm"
)

// Manufacturer IDs whose TSBK opcodes get vendor-specific handling: these
// update local tables (patches, encryption lockout) rather than tuning.
const (
	MFIDMotorola = 0x90
	MFIDHarris   = 0xA4
)

// TSBKOpNetStsBcst is the abbreviated Network Status Broadcast opcode: the
// control channel announcing its own identity and downlink channel.
const TSBKOpNetStsBcst = 0x3B

// TSBKOpGrpVoiceGrant is the standard group voice channel grant opcode.
const TSBKOpGrpVoiceGrant = 0x00

// GroupVoiceGrant is a parsed GRP_V_CH_GRANT TSBK.
type GroupVoiceGrant struct {
	SvcBits byte
	ChanT   uint16
	TG      uint16
	Src     uint32
}

// ParseGroupVoiceGrant extracts the service bits, channel, talkgroup, and
// source RID from a CRC-OK GRP_V_CH_GRANT payload.
func ParseGroupVoiceGrant(bytes [12]byte) GroupVoiceGrant {
	return GroupVoiceGrant{
		SvcBits: bytes[2],
		ChanT:   uint16(bytes[3])<<8 | uint16(bytes[4]),
		TG:      uint16(bytes[5])<<8 | uint16(bytes[6]),
		Src:     uint32(bytes[7])<<16 | uint32(bytes[8])<<8 | uint32(bytes[9]),
	}
}

// HandleGroupVoiceGrant resolves a TSBK grant's channel and applies the
// policy gates, returning the event to raise into the TSM. A provisional
// IDEN is never used to retune while a confirmed entry exists for the
// channel.
func HandleGroupVoiceGrant(g GroupVoiceGrant, opts tsm.Options, plan *chanplan.Plan) (pdu.SmEvent, bool) {
	if !opts.TrunkEnable {
		return pdu.SmEvent{}, false
	}
	resolved := plan.Resolve(g.ChanT)
	if !resolved.OK {
		return pdu.SmEvent{}, false
	}
	if resolved.Trust == chanplan.TrustProvisional && plan.HasConfirmedAlternate(g.ChanT) {
		return pdu.SmEvent{}, false
	}

	grant := pdu.Grant{
		FreqHz:   resolved.FreqHz,
		LPCN:     g.ChanT,
		TGOrDst:  uint32(g.TG),
		Src:      g.Src,
		IsGroup:  true,
		SvcBits:  g.SvcBits,
		Slot:     resolved.Slot,
		Protocol: "p25p1",
	}
	if pass, _ := tsm.EvaluateGates(opts, grant); !pass {
		return pdu.SmEvent{}, false
	}
	return pdu.SmEvent{Kind: pdu.SmEventGrant, Slot: resolved.Slot, Grant: grant}, true
}

// Motorola dynamic-regroup opcodes under MFID 0x90.
const (
	MotOpRegroupAdd    = 0x00
	MotOpRegroupDelete = 0x01
)

// NetStatus is a parsed abbreviated NET_STS_BCST: the identity hierarchy
// the site broadcasts plus the control channel's own channel number.
type NetStatus struct {
	LRA   byte
	WACN  uint32
	SYSID uint16
	Chan  uint16
}

// ParseNetStatus extracts the 20-bit WACN, 12-bit SYSID, and 16-bit
// channel from a CRC-OK NET_STS_BCST TSBK's payload.
func ParseNetStatus(bytes [12]byte) NetStatus {
	return NetStatus{
		LRA:   bytes[2],
		WACN:  uint32(bytes[3])<<12 | uint32(bytes[4])<<4 | uint32(bytes[5])>>4,
		SYSID: uint16(bytes[5]&0xF)<<8 | uint16(bytes[6]),
		Chan:  uint16(bytes[7])<<8 | uint16(bytes[8]),
	}
}

// RegroupCommand is a Motorola MFID-0x90 dynamic regroup: patch (or
// unpatch) a working group into a supergroup.
type RegroupCommand struct {
	Add        bool
	SuperGroup uint16
	Group      uint16
}

// ParseMotRegroup parses a Motorola vendor TSBK. Only the regroup
// add/delete opcodes are acted on; vendor status opcodes report false.
func ParseMotRegroup(bytes [12]byte) (RegroupCommand, bool) {
	opcode := bytes[0] & 0x3F
	if opcode != MotOpRegroupAdd && opcode != MotOpRegroupDelete {
		return RegroupCommand{}, false
	}
	return RegroupCommand{
		Add:        opcode == MotOpRegroupAdd,
		SuperGroup: uint16(bytes[2])<<8 | uint16(bytes[3]),
		Group:      uint16(bytes[4])<<8 | uint16(bytes[5]),
	}, true
}

// EncCommand is a Harris MFID-0xA4 explicit encryption command: the system
// declaring a talkgroup's traffic encrypted (or clear again).
type EncCommand struct {
	TG     uint16
	Locked bool
}

// ParseHarrisEnc parses a Harris vendor TSBK's talkgroup and
// encrypted-state flag.
func ParseHarrisEnc(bytes [12]byte) EncCommand {
	return EncCommand{
		TG:     uint16(bytes[2])<<8 | uint16(bytes[3]),
		Locked: bytes[4]&0x1 != 0,
	}
}
