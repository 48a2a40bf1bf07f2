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

import "github.com/dsdneo/dsdneo-go/internal/fec"

// ESS (Encryption Sync Segment) is protected by RS(63,16): the 16 payload
// hexbits occupy the code's full data half (no shortening there); the 28
// transmitted parity hexbits are the first 28 of the 47-symbol parity
// half.
const (
	ESSPayloadLen  = 16
	ESSParityStart = ESSPayloadLen
	ESSParityLen   = 28
	ESSErasureCap  = 28
)

var essRS = fec.NewRSCode(63, ESSPayloadLen)

// essBBaseBitOffset is ESS_B's (4V mode) base bit offset: bits 148..171,
// advanced by 360 bits per frame, carry the 16 payload hexbits spread
// across 4 frames (4 hexbits = 24 bits per frame).
const essBBaseBitOffset = 148

// ESSAssembler accumulates one ESS codeword's payload (from up to 4 ESS_B
// voice frames) and parity (from up to 2 ESS_A voice frames) hexbits before
// attempting an RS(63,16) decode.
//
// ESS_A's bit layout skips bits 244..245 and has no simple
// base-offset-plus-advance formula the way ESS_B does, so this assembler
// exposes a direct per-hexbit setter for ESS_A
// (SetParityHexbit) rather than hard-coding an offset table — callers
// computing ESS_A hexbits from raw dibits are expected to account for the
// skip themselves. See DESIGN.md.
type ESSAssembler struct {
	payload    [ESSPayloadLen]Hexbit
	parity     [ESSParityLen]Hexbit
	gotPayload [4]bool
	gotParity  [2]bool
}

// AddESSBFrame extracts this frame's 4 payload hexbits (frameIndex 0..3)
// from a dibit/reliability stream using ESS_B's
// base-offset-plus-360-per-frame rule.
func (a *ESSAssembler) AddESSBFrame(frameIndex int, dibits, reliability []byte) {
	if frameIndex < 0 || frameIndex > 3 {
		return
	}
	for i := 0; i < 4; i++ {
		offset := essBBaseBitOffset + i*6
		a.payload[frameIndex*4+i] = ExtractHexbit(dibits, reliability, offset, frameIndex)
	}
	a.gotPayload[frameIndex] = true
}

// SetParityHexbit sets one of the 28 ESS_A parity hexbits directly (see the
// ESSAssembler doc comment for why this is a direct setter rather than a
// frame/offset-driven extractor).
func (a *ESSAssembler) SetParityHexbit(i int, h Hexbit) {
	if i >= 0 && i < ESSParityLen {
		a.parity[i] = h
	}
}

// MarkESSAFrameReceived records that ESS_A frame index (0 or 1) has
// contributed its 14 parity hexbits, for completeness tracking by callers.
func (a *ESSAssembler) MarkESSAFrameReceived(frameIndex int) {
	if frameIndex == 0 || frameIndex == 1 {
		a.gotParity[frameIndex] = true
	}
}

// Ready reports whether all 4 ESS_B frames and both ESS_A frames have been
// supplied.
func (a *ESSAssembler) Ready() bool {
	for _, got := range a.gotPayload {
		if !got {
			return false
		}
	}
	return a.gotParity[0] && a.gotParity[1]
}

// Decode runs the RS(63,16) correction over the assembled ESS codeword
// regardless of Ready(), since erasure marking already accounts for missing
// or unreliable hexbits.
func (a *ESSAssembler) Decode(threshold byte) (data [ESSPayloadLen]byte, corrected int, ok bool) {
	out, corrected, ok := decodeShortened(essRS, a.payload[:], a.parity[:], 0, ESSParityStart, threshold, ESSErasureCap)
	if !ok {
		return data, corrected, false
	}
	copy(data[:], out)
	return data, corrected, true
}
