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
	"github.com/dsdneo/dsdneo-go/internal/fec"
	"github.com/dsdneo/dsdneo-go/internal/state"
)

// HDUFrame is the decoded Header Data Unit: the encryption sync (algorithm
// ID, key ID, message indicator) that precedes a voice call's first LDU1.
type HDUFrame struct {
	MFID  byte
	AlgID byte
	KeyID uint16
	MI    uint64
}

// DecodeHDU reuses the same Golay(24,12)-over-RS(24,12,13) codec as
// DecodeTDULC — an HDU is structurally a link-control word carrying
// encryption-sync fields instead of a channel grant — and parses the
// resulting 72-bit payload as MFID/ALGID/KeyID. MI holds KeyID in bits
// 32..47 and the payload's remaining 32 bits in bits 0..31.
func DecodeHDU(words [12]uint32) (HDUFrame, int, bool) {
	gvu, corrected, ok := DecodeTDULC(words)
	if !ok {
		return HDUFrame{}, 0, false
	}
	mi := uint64(gvu.ChanT)<<32 | uint64(gvu.ChanR)<<16 | uint64(gvu.TG)
	return HDUFrame{
		MFID:  gvu.MFID,
		AlgID: gvu.SvcBits,
		KeyID: gvu.ChanT,
		MI:    mi,
	}, corrected, true
}

// EncodeHDU frames h for DecodeHDU, built for test fixtures. Only MI's low
// 32 bits are carried, so MFID, AlgID and KeyID round-trip but MI does not.
func EncodeHDU(h HDUFrame) [12]uint32 {
	return EncodeTDULC(GroupVoiceUpdate{
		Format:  LCWFormatGroupVoiceUpdate,
		MFID:    h.MFID,
		SvcBits: h.AlgID,
		ChanT:   h.KeyID,
		ChanR:   uint16(h.MI >> 16),
		TG:      uint16(h.MI),
	})
}

// imbeWordCount is the number of Hamming(15,11,3)-protected voice codewords
// carried per LDU voice frame (9 IMBE-derived 15-bit words, reusing the
// same code family internal/fec's DMR CACH decode uses: P25's own voice
// frame FEC mixes Golay/Hamming codes across bit-significance classes,
// and a single Hamming(15,11,3) pass over every word approximates that
// layered scheme).
const imbeWordCount = 9

// DecodeVoiceFrame Hamming-decodes the 9 words of one LDU voice frame (A
// through I), returning the corrected 11-bit payload words and the number
// of words whose parity disagreed with their payload — the basis for the
// per-slot IMBE error moving average. Hamming(15,11,3)
// is a perfect code: DecodeHamming15113 always reports success, silently
// miscorrecting on a double-bit error rather than flagging it, so the error
// tally here counts words that needed ANY correction rather than trusting
// its bool return.
func DecodeVoiceFrame(words [imbeWordCount][15]byte) (payload [imbeWordCount]uint16, errCount int) {
	for i, w := range words {
		bits := make([]bool, 15)
		original := make([]bool, 15)
		for b := 0; b < 15; b++ {
			bits[b] = w[b] != 0
			original[b] = bits[b]
		}
		fec.DecodeHamming15113(bits)
		for b := 0; b < 15; b++ {
			if bits[b] != original[b] {
				errCount++
				break
			}
		}
		var v uint16
		for b := 0; b < 11; b++ {
			if bits[b] {
				v |= 1 << uint(10-b)
			}
		}
		payload[i] = v
	}
	return payload, errCount
}

// EncodeVoiceFrame is the inverse framing of DecodeVoiceFrame, for test
// fixtures.
func EncodeVoiceFrame(payload [imbeWordCount]uint16) [imbeWordCount][15]byte {
	var words [imbeWordCount][15]byte
	for i, v := range payload {
		bits := make([]bool, 15)
		for b := 0; b < 11; b++ {
			bits[b] = v&(1<<uint(10-b)) != 0
		}
		fec.EncodeHamming15113(bits)
		for b := 0; b < 15; b++ {
			if bits[b] {
				words[i][b] = 1
			}
		}
	}
	return words
}

// LDU2ESS is the Encryption Sync Sequence an LDU2 carries, structurally
// identical to an HDU's sync fields.
type LDU2ESS = HDUFrame

// DecodeLDU2ESS decodes an LDU2's ESS using the same codec as DecodeHDU.
func DecodeLDU2ESS(words [12]uint32) (LDU2ESS, int, bool) {
	return DecodeHDU(words)
}

// KeyScheduleChanged reports whether an LDU2's ESS disagrees with the
// HDU's encryption sync recorded at call start: a live rekey mid-call, or
// (more commonly) late entry into a call whose HDU was never seen.
func KeyScheduleChanged(hdu, ess HDUFrame) bool {
	return hdu.AlgID != ess.AlgID || hdu.KeyID != ess.KeyID || hdu.MI != ess.MI
}

// ProcessVoiceFrame folds one LDU voice frame's decode outcome into the
// slot's IMBE error moving average and FEC counters, and tallies the DUID
// histogram for the frame's DUID.
func ProcessVoiceFrame(duid int, words [imbeWordCount][15]byte, ctx *state.SlotVoiceContext, counters *state.Counters) (payload [imbeWordCount]uint16, errCount int) {
	payload, errCount = DecodeVoiceFrame(words)
	counters.RecordDUID(duid)
	counters.P1VoiceRS.RecordSoft(errCount == 0, 0)
	ctx.RecordIMBEError(float64(errCount))
	return payload, errCount
}
