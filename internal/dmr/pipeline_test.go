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
	"testing"

	"github.com/dsdneo/dsdneo-go/internal/dmrconst"
	"github.com/dsdneo/dsdneo-go/internal/fec"
	"github.com/dsdneo/dsdneo-go/internal/state"
	"github.com/dsdneo/dsdneo-go/internal/tsm"
	"github.com/stretchr/testify/require"
)

func TestPipelineHandleCSBKBurstGrantsAndCounts(t *testing.T) {
	p := NewPipeline(tsm.Options{TrunkEnable: true, TuneGroup: true})
	p.LCNs.Set(0x0012, 851012500)

	payload := [8]byte{0, 0x01, 0x20, 0, 0, 0, 0, 0}
	bytes := buildCSBK(dmrconst.CsbkOpTalkgroupVoiceGrant, 0, payload)

	var counters state.Counters
	ev, ok := p.HandleCSBKBurst(bytes, &counters)
	require.True(t, ok)
	require.Equal(t, uint64(851012500), ev.Grant.FreqHz)
	require.Equal(t, uint64(1), counters.P1TSBKHeader.OK.Load())
}

func TestPipelineHandleCSBKBurstCountsFailureOnBadCRC(t *testing.T) {
	p := NewPipeline(tsm.Options{})
	bytes := buildCSBK(dmrconst.CsbkOpTalkgroupVoiceGrant, 0, [8]byte{})
	bytes[11] ^= 0xFF

	var counters state.Counters
	_, ok := p.HandleCSBKBurst(bytes, &counters)
	require.False(t, ok)
	require.Equal(t, uint64(1), counters.P1TSBKHeader.Fail.Load())
}

func TestPipelineDataHeaderAndBlockReassembly(t *testing.T) {
	p := NewPipeline(tsm.Options{})

	var hdr [12]byte
	hdr[0] = 0x80
	payload := [8]byte{2, 0, 0, 0, 0, 0, 0, 0}
	copy(hdr[2:10], payload[:])
	crc := fec.CRC16CCITT(hdr[:10])
	hdr[10] = byte(crc >> 8)
	hdr[11] = byte(crc)

	_, ok := p.HandleDataHeaderBurst(0, hdr)
	require.True(t, ok)

	out, complete := p.HandleDataBlock(0, DataBlock{DBSN: 0, Payload: []byte{0xAA}, CRCOK: true})
	require.False(t, complete)
	require.Nil(t, out)

	out, complete = p.HandleDataBlock(0, DataBlock{DBSN: 1, Payload: []byte{0xBB}, CRCOK: true})
	require.True(t, complete)
	require.Equal(t, []byte{0xAA, 0xBB}, out)
}

func TestPipelineHandleEmbeddedLCAcrossSlots(t *testing.T) {
	p := NewPipeline(tsm.Options{})
	emb := dmrconst.EMB{LCSS: dmrconst.LCSSSingleFragment}

	_, ok := p.HandleEmbeddedLC(1, emb, [4]byte{1, 2, 3, 4})
	require.True(t, ok)
	_, ok = p.HandleEmbeddedLC(0, dmrconst.EMB{LCSS: dmrconst.LCSSContinuation}, [4]byte{9, 9, 9, 9})
	require.False(t, ok)
}
