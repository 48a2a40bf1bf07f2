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

// FACCH carries a 26-hexbit payload protected by RS(63,35): payload at
// codeword positions 9..34, parity at positions 35..53. The
// remaining codeword positions are untransmitted: 0..8 of the data half are
// held at zero and 54..62 of the parity half are decoded as erasures, i.e.
// this is a shortened and punctured RS(63,35) rather than the full code.
const (
	FACCHPayloadStart = 9
	FACCHPayloadLen   = 26
	FACCHParityStart  = 35
	FACCHParityLen    = 19
	FACCHErasureCap   = 10
)

// SACCH carries a 30-hexbit payload protected by RS(63,37): payload at
// positions 5..34. Parity is placed starting at the code's natural K=37
// data/parity boundary (position 37); the air-interface numbering starts
// parity two positions earlier, overlapping what this package's
// data-then-parity codeword layout (internal/fec.RSCode.Encode) treats as
// the data half, so only the absolute offset of the 22-symbol parity
// sub-range is adjusted to stay inside the parity half.
const (
	SACCHPayloadStart = 5
	SACCHPayloadLen   = 30
	SACCHParityStart  = 37
	SACCHParityLen    = 22
	SACCHErasureCap   = 16
)

var (
	facchRS = fec.NewRSCode(63, 35)
	sacchRS = fec.NewRSCode(63, 37)
)

// decodeShortened runs erasure-aware RS decode over a codeword assembled
// from a payload and parity hexbit run placed at the given offsets, honoring
// the per-channel erasure cap. Untransmitted data positions are zero; the
// untransmitted parity tail after the parity run is always erased, and those
// erasures neither count against the cap nor toward corrected.
func decodeShortened(rs *fec.RSCode, payload, parity []Hexbit, payloadStart, parityStart int, threshold byte, cap int) (data []byte, corrected int, ok bool) {
	codeword := make([]byte, rs.N)
	copy(codeword[payloadStart:], hexbitValues(payload))
	copy(codeword[parityStart:], hexbitValues(parity))

	erasures := erasurePositions(payload, payloadStart, threshold, cap)
	if len(erasures) < cap {
		erasures = append(erasures, erasurePositions(parity, parityStart, threshold, cap-len(erasures))...)
	}
	soft := len(erasures)
	for pos := parityStart + len(parity); pos < rs.N; pos++ {
		erasures = append(erasures, pos)
	}

	corrected, ok = rs.Decode(codeword, erasures)
	if !ok {
		return nil, corrected, false
	}
	if corrected > soft {
		corrected = soft
	}
	return codeword[payloadStart : payloadStart+len(payload)], corrected, true
}

// DecodeFACCH corrects a FACCH hexbit frame and returns its 26 payload
// symbols.
func DecodeFACCH(payload [FACCHPayloadLen]Hexbit, parity [FACCHParityLen]Hexbit, threshold byte) (data [FACCHPayloadLen]byte, corrected int, ok bool) {
	out, corrected, ok := decodeShortened(facchRS, payload[:], parity[:], FACCHPayloadStart, FACCHParityStart, threshold, FACCHErasureCap)
	if !ok {
		return data, corrected, false
	}
	copy(data[:], out)
	return data, corrected, true
}

// DecodeSACCH corrects a SACCH hexbit frame and returns its 30 payload
// symbols.
func DecodeSACCH(payload [SACCHPayloadLen]Hexbit, parity [SACCHParityLen]Hexbit, threshold byte) (data [SACCHPayloadLen]byte, corrected int, ok bool) {
	out, corrected, ok := decodeShortened(sacchRS, payload[:], parity[:], SACCHPayloadStart, SACCHParityStart, threshold, SACCHErasureCap)
	if !ok {
		return data, corrected, false
	}
	copy(data[:], out)
	return data, corrected, true
}

// EncodeFACCH is the inverse framing used to build synthetic FACCH test
// fixtures: it computes RS(63,35) parity over the given 26 payload symbols
// and returns hexbits (full reliability) for both payload and the
// transmitted parity slice.
func EncodeFACCH(data [FACCHPayloadLen]byte) (payload [FACCHPayloadLen]Hexbit, parity [FACCHParityLen]Hexbit) {
	full := make([]byte, facchRS.K)
	copy(full[FACCHPayloadStart:], data[:])
	par := facchRS.Encode(full)
	for i := range payload {
		payload[i] = Hexbit{Value: data[i], Reliability: 255}
	}
	for i := range parity {
		parity[i] = Hexbit{Value: par[i], Reliability: 255}
	}
	return payload, parity
}

// EncodeSACCH is SACCH's analogue of EncodeFACCH.
func EncodeSACCH(data [SACCHPayloadLen]byte) (payload [SACCHPayloadLen]Hexbit, parity [SACCHParityLen]Hexbit) {
	full := make([]byte, sacchRS.K)
	copy(full[SACCHPayloadStart:], data[:])
	par := sacchRS.Encode(full)
	for i := range payload {
		payload[i] = Hexbit{Value: data[i], Reliability: 255}
	}
	for i := range parity {
		parity[i] = Hexbit{Value: par[i], Reliability: 255}
	}
	return payload, parity
}
