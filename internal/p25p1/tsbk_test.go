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
	"testing"

	"github.com/dsdneo/dsdneo-go/internal/fec"
	"github.com/dsdneo/dsdneo-go/internal/state"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// validTSBK builds a 12-byte TSBK whose trailing two bytes are a correct
// CRC-16/CCITT trailer over the first 10.
func validTSBK(payload [10]byte) [12]byte {
	var out [12]byte
	copy(out[:10], payload[:])
	crc := fec.CRC16CCITT(out[:10])
	out[10] = byte(crc >> 8)
	out[11] = byte(crc)
	return out
}

// TestDecodeTSBKSelectsCRCPassingRepetition:
// three repetitions where only #2 (index 1) carries a valid CRC. The
// decoder must pick it outright without falling back to a majority vote,
// refresh the CC-sync watchdog, and tally the success in P1TSBKHeader.
func TestDecodeTSBKSelectsCRCPassingRepetition(t *testing.T) {
	t.Parallel()
	good := validTSBK([10]byte{0x01, 0x00, 0xAA, 0xBB, 0xCC, 0xDD, 0xEE, 0xFF, 0x11, 0x22})

	rep1 := good
	rep1[3] ^= 0xFF
	rep3 := good
	rep3[7] ^= 0xFF
	reps := []Repetition{{Bytes: rep1}, {Bytes: good}, {Bytes: rep3}}

	var counters state.Counters
	frame := DecodeTSBK(reps, &counters)

	require.True(t, frame.CRCOK)
	assert.True(t, frame.RefreshCCSync, "a correct decode must refresh last_cc_sync_time")
	assert.Equal(t, 1, frame.SelectedRep, "repetition #2 (index 1) carried the passing CRC")
	assert.Equal(t, good, frame.Bytes)
	assert.Equal(t, uint64(1), counters.P1TSBKHeader.OK.Load())
	assert.Equal(t, uint64(0), counters.P1TSBKHeader.Fail.Load())
}

// TestDecodeTSBKFallsBackToMajorityVoteAcrossRepetitions exercises
// SelectTSBK's second branch: no repetition passes CRC on its own, but a
// bitwise majority across all of them does.
func TestDecodeTSBKFallsBackToMajorityVoteAcrossRepetitions(t *testing.T) {
	t.Parallel()
	good := validTSBK([10]byte{0x10, 0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08, 0x09})
	// Each repetition has a different byte fully inverted, so no single one
	// passes its own CRC, but every bit still has a 2-of-3 majority matching
	// the original.
	rep1 := good
	rep1[0] ^= 0xFF
	rep2 := good
	rep2[1] ^= 0xFF
	rep3 := good
	rep3[2] ^= 0xFF

	var counters state.Counters
	frame := DecodeTSBK([]Repetition{{Bytes: rep1}, {Bytes: rep2}, {Bytes: rep3}}, &counters)

	require.True(t, frame.CRCOK)
	assert.Equal(t, -1, frame.SelectedRep, "majority vote, not a single repetition, produced the result")
	assert.Equal(t, good, frame.Bytes)
}

// TestDecodeTSBKRecordsFailureWhenNoRepetitionOrVoteAgrees covers the
// all-corrupted case: neither individual CRC checks nor the majority vote
// recover a valid frame.
func TestDecodeTSBKRecordsFailureWhenNoRepetitionOrVoteAgrees(t *testing.T) {
	t.Parallel()
	good := validTSBK([10]byte{0xAA, 0xAA, 0xAA, 0xAA, 0xAA, 0xAA, 0xAA, 0xAA, 0xAA, 0xAA})
	rep1 := good
	rep1[0] ^= 0xFF
	rep2 := good
	rep2[0] ^= 0x0F

	var counters state.Counters
	frame := DecodeTSBK([]Repetition{{Bytes: rep1}, {Bytes: rep2}}, &counters)

	assert.False(t, frame.CRCOK)
	assert.False(t, frame.RefreshCCSync)
	assert.Equal(t, uint64(1), counters.P1TSBKHeader.Fail.Load())
}

func TestParseHeaderAndMACEligibility(t *testing.T) {
	t.Parallel()
	bytes := [12]byte{0xC0, 0x01}
	h := ParseHeader(bytes)
	assert.True(t, h.LB)
	assert.True(t, h.Protect)
	assert.Equal(t, byte(1), h.MFID)

	f := Frame{CRCOK: true, Header: Header{MFID: 0, Protect: false}}
	assert.True(t, f.IsMACEligible())
	f.Header.Protect = true
	assert.False(t, f.IsMACEligible())
	f.Header.Protect = false
	f.Header.MFID = 5
	assert.False(t, f.IsMACEligible())
}

func TestToMACPDUSetsMACBitAndCopiesPayload(t *testing.T) {
	t.Parallel()
	var bytes [12]byte
	bytes[0] = 0x05
	copy(bytes[2:10], []byte{1, 2, 3, 4, 5, 6, 7, 8})
	f := Frame{Bytes: bytes}

	out := f.ToMACPDU()
	assert.Equal(t, byte(0x45), out[0])
	assert.Equal(t, []byte{1, 2, 3, 4, 5, 6, 7, 8}, out[1:9])
}
