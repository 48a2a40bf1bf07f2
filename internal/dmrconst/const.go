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

// Package dmrconst holds the frame-level constants for DMR Tier II/III:
// burst/slot types, CACH/SLCO/EMB fields, and CSBK opcodes.
package dmrconst

// Timeslot is one of the two TDMA slots of a DMR physical channel.
type Timeslot uint8

const (
	TimeslotOne Timeslot = 1
	TimeslotTwo Timeslot = 2
)

func (t Timeslot) String() string {
	switch t {
	case TimeslotOne:
		return "1"
	case TimeslotTwo:
		return "2"
	default:
		return "?"
	}
}

// BurstType is the DMR physical-layer burst classification carried by the
// sync pattern.
type BurstType uint

const (
	BurstVoice BurstType = iota
	BurstVoiceSync
	BurstDataSync
	BurstUnknown
)

func (b BurstType) String() string {
	switch b {
	case BurstVoice:
		return "Voice"
	case BurstVoiceSync:
		return "Voice Sync"
	case BurstDataSync:
		return "Data Sync"
	default:
		return "Unknown"
	}
}

// DataType is the DATA TYPE field of a data/control sync burst's slot type.
type DataType uint

const (
	DTypePIHeader      DataType = 0x0
	DTypeVoiceLCHeader DataType = 0x1
	DTypeTerminatorLC  DataType = 0x2
	DTypeCSBK          DataType = 0x3
	DTypeMBCHeader     DataType = 0x4
	DTypeMBCContinue   DataType = 0x5
	DTypeDataHeader    DataType = 0x6
	DTypeRate12Data    DataType = 0x7
	DTypeRate34Data    DataType = 0x8
	DTypeIdle          DataType = 0x9
)

func (d DataType) String() string {
	switch d {
	case DTypePIHeader:
		return "PI Header"
	case DTypeVoiceLCHeader:
		return "Voice LC Header"
	case DTypeTerminatorLC:
		return "Terminator LC"
	case DTypeCSBK:
		return "CSBK"
	case DTypeMBCHeader:
		return "MBC Header"
	case DTypeMBCContinue:
		return "MBC Continue"
	case DTypeDataHeader:
		return "Data Header"
	case DTypeRate12Data:
		return "1/2 Rate Data"
	case DTypeRate34Data:
		return "3/4 Rate Data"
	case DTypeIdle:
		return "Idle"
	default:
		return "Unknown"
	}
}

// CsbkOpcode identifies the opcode field of a Control Signaling Block.
type CsbkOpcode uint8

const (
	CsbkOpUnitToUnitVoiceReq  CsbkOpcode = 0x04
	CsbkOpUnitToUnitVoiceAns  CsbkOpcode = 0x05
	CsbkOpNegAck              CsbkOpcode = 0x26
	CsbkOpPreamble            CsbkOpcode = 0x3D
	CsbkOpChanTimingSched     CsbkOpcode = 0x3E
	CsbkOpBroadcast           CsbkOpcode = 0x3F
	CsbkOpPrivateVoiceGrant   CsbkOpcode = 0x00
	CsbkOpTalkgroupVoiceGrant CsbkOpcode = 0x30
	CsbkOpBroadcastTalkgroup  CsbkOpcode = 0x01
	CsbkOpAhoy                CsbkOpcode = 0x1C
)

func (c CsbkOpcode) String() string {
	switch c {
	case CsbkOpUnitToUnitVoiceReq:
		return "Unit-to-Unit Voice Request"
	case CsbkOpUnitToUnitVoiceAns:
		return "Unit-to-Unit Voice Answer"
	case CsbkOpNegAck:
		return "Negative Acknowledgement"
	case CsbkOpPreamble:
		return "Preamble"
	case CsbkOpChanTimingSched:
		return "Channel Timing Schedule"
	case CsbkOpBroadcast:
		return "Broadcast"
	case CsbkOpPrivateVoiceGrant:
		return "Private Voice Channel Grant"
	case CsbkOpTalkgroupVoiceGrant:
		return "Talkgroup Voice Channel Grant"
	case CsbkOpBroadcastTalkgroup:
		return "Broadcast Talkgroup Voice Channel Grant"
	case CsbkOpAhoy:
		return "Ahoy"
	default:
		return "Unknown"
	}
}

// SLCO is the Slot Type's Short Link Control Opcode carried on the CACH of
// every burst.
type SLCO uint8

const (
	SLCONull          SLCO = 0x0
	SLCOActivity      SLCO = 0x1
	SLCOAloha         SLCO = 0x2
	SLCOChanTimingSch SLCO = 0x3
)

// EMB carries the CACH embedded-signalling fields: color code, PI, and LCSS
// fragment sequence.
type EMB struct {
	ColorCode byte
	PI        bool
	LCSS      byte
}

// LCSS fragment-sequence values for embedded LC reassembly.
const (
	LCSSSingleFragment byte = 0x0
	LCSSFirstFragment  byte = 0x1
	LCSSLastFragment   byte = 0x2
	LCSSContinuation   byte = 0x3
)

// MaxDMRAddress is the maximum value of a 24-bit DMR radio ID.
const MaxDMRAddress = 0xFFFFFF

// SyncPattern enumerates the DMR sync-pattern classes recognized at the
// physical layer.
type SyncPattern uint8

const (
	SyncBSVoice SyncPattern = iota
	SyncBSData
	SyncMSVoice
	SyncMSData
	SyncMSRC
	SyncDirectVoiceTS1
	SyncDirectVoiceTS2
	SyncDirectDataTS1
	SyncDirectDataTS2
	SyncUnknown
)

func (s SyncPattern) String() string {
	switch s {
	case SyncBSVoice:
		return "BS Voice"
	case SyncBSData:
		return "BS Data"
	case SyncMSVoice:
		return "MS Voice"
	case SyncMSData:
		return "MS Data"
	case SyncMSRC:
		return "MS RC"
	case SyncDirectVoiceTS1:
		return "Direct Voice TS1"
	case SyncDirectVoiceTS2:
		return "Direct Voice TS2"
	case SyncDirectDataTS1:
		return "Direct Data TS1"
	case SyncDirectDataTS2:
		return "Direct Data TS2"
	default:
		return "Unknown"
	}
}

// VoiceFrameIndex names the six voice frames (A..F) of a DMR superframe.
const (
	VoiceA = iota
	VoiceB
	VoiceC
	VoiceD
	VoiceE
	VoiceF
)
