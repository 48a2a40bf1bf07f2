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

// Package pdu holds the typed intermediate records passed between the
// protocol frame decoders, the trunking state machine, and the shared
// decoder state.
package pdu

// DUID identifies a P25 Phase 1 frame type.
type DUID int

const (
	DUIDHDU DUID = iota
	DUIDLDU1
	DUIDLDU2
	DUIDTDU
	DUIDTDULC
	DUIDTSBK
	DUIDMPDU
)

func (d DUID) String() string {
	switch d {
	case DUIDHDU:
		return "HDU"
	case DUIDLDU1:
		return "LDU1"
	case DUIDLDU2:
		return "LDU2"
	case DUIDTDU:
		return "TDU"
	case DUIDTDULC:
		return "TDULC"
	case DUIDTSBK:
		return "TSBK"
	case DUIDMPDU:
		return "MPDU"
	default:
		return "UNKNOWN"
	}
}

// P1FrameDecision is the outcome of decoding one P25 Phase 1 DUID.
type P1FrameDecision struct {
	DUID DUID

	// RawBits holds the raw dibit stream as delivered by the symbol
	// feeder, one dibit value (0..3) per byte, before FEC.
	RawBits []byte

	// BestRepetition is the index (0-based) of the TSBK/HDU repetition
	// selected as the decode source, or -1 when a majority vote across
	// repetitions was used instead.
	BestRepetition int

	CRCOK            bool
	RSOK             bool
	CorrectedSymbols int

	// Bytes is the decoded payload: 12 bytes for TSBK, parsed LC words for
	// TDULC, voice digital bytes for HDU/LDU.
	Bytes []byte
}

// MacChannelClass identifies which P25 Phase 2 logical channel carried a
// MAC-VPDU.
type MacChannelClass int

const (
	MacChannelFACCH MacChannelClass = iota
	MacChannelSACCH
	MacChannelLCCH
)

func (c MacChannelClass) String() string {
	switch c {
	case MacChannelFACCH:
		return "FACCH"
	case MacChannelSACCH:
		return "SACCH"
	case MacChannelLCCH:
		return "LCCH"
	default:
		return "UNKNOWN"
	}
}

// MacVpdu is a decoded P25 Phase 2 MAC Voice/data Protocol Data Unit.
type MacVpdu struct {
	Channel MacChannelClass
	Slot    int
	MFID    byte
	Opcode  byte
	Length  int
	Payload [24]byte
}

// CsbkResult is the outcome of decoding a DMR Control Signaling Block.
type CsbkResult struct {
	LB     bool
	PF     bool
	Opcode byte
	FID    byte

	LPCN                  uint16
	PhysicalChannelNumber uint16
	LCN                   uint16
	StatusBits            byte

	Source uint32
	Target uint32

	// ResolvedFreqHz is the channel-plan-resolved frequency, or 0 if it
	// could not be mapped.
	ResolvedFreqHz uint64

	Bits  []byte
	Bytes []byte
}

// SmEventKind tags the variant carried by an SmEvent.
type SmEventKind int

const (
	SmEventGrant SmEventKind = iota
	SmEventVoiceSync
	SmEventDataSync
	SmEventRelease
	SmEventCcSync
	SmEventSyncLost
)

func (k SmEventKind) String() string {
	switch k {
	case SmEventGrant:
		return "GRANT"
	case SmEventVoiceSync:
		return "VOICE_SYNC"
	case SmEventDataSync:
		return "DATA_SYNC"
	case SmEventRelease:
		return "RELEASE"
	case SmEventCcSync:
		return "CC_SYNC"
	case SmEventSyncLost:
		return "SYNC_LOST"
	default:
		return "UNKNOWN"
	}
}

// Grant carries the payload of an SmEventGrant.
type Grant struct {
	FreqHz   uint64
	LPCN     uint16
	TGOrDst  uint32
	Src      uint32
	IsGroup  bool
	SvcBits  byte
	Slot     int // -1 when the grant is FDMA (no TDMA slot)
	Protocol string
}

// UICommandKind tags the variant carried by a UICommand.
type UICommandKind int

const (
	UICommandSetTGHold UICommandKind = iota
	UICommandSetSquelch
	UICommandRetune
)

// UICommand is a typed UI-originated mutation. UI surfaces enqueue these on
// a bounded channel and the decoder goroutine drains them at safe points
// between frames, so no UI thread ever holds a writable pointer into
// decoder state.
type UICommand struct {
	Kind UICommandKind

	TG          uint32  // SetTGHold; 0 clears the hold
	PowerLinear float64 // SetSquelch
	FreqHz      uint64  // Retune
}

// SmEvent is the tagged-variant event the frame decoders raise into the
// trunking state machine.
type SmEvent struct {
	Kind SmEventKind

	// Slot applies to VoiceSync/DataSync/Release; -1 means "no specific
	// slot" (FDMA or "both slots").
	Slot int

	Grant Grant
}
