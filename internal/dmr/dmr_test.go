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
	"github.com/dsdneo/dsdneo-go/internal/pdu"
	"github.com/dsdneo/dsdneo-go/internal/tsm"
	"github.com/stretchr/testify/require"
)

func TestCACHRoundTripNoErrors(t *testing.T) {
	c := CACH{SLCO: dmrconst.SLCOActivity, LCSS: dmrconst.LCSSFirstFragment, ColorCode: 7, PI: false, TC: true}
	bits := EncodeCACH(c)

	out := ParseCACH(bits)
	require.True(t, out.OK)
	require.Equal(t, c.SLCO, out.SLCO)
	require.Equal(t, c.LCSS, out.LCSS)
	require.Equal(t, c.ColorCode, out.ColorCode)
	require.Equal(t, c.TC, out.TC)
}

func TestCACHCorrectsSingleBitError(t *testing.T) {
	c := CACH{SLCO: dmrconst.SLCOAloha, LCSS: dmrconst.LCSSLastFragment, ColorCode: 3, PI: true}
	bits := EncodeCACH(c)
	bits[3] ^= 1

	out := ParseCACH(bits)
	require.True(t, out.OK)
	require.Equal(t, c.ColorCode, out.ColorCode)
}

func TestEMBRoundTrip(t *testing.T) {
	e := dmrconst.EMB{ColorCode: 9, PI: true, LCSS: dmrconst.LCSSContinuation}
	raw := EncodeEMB(e)
	out := ParseEMB(raw)
	require.Equal(t, e, out)
}

func TestLCFragmentAssemblerCompletesInOrder(t *testing.T) {
	var a LCFragmentAssembler
	a.Add(dmrconst.LCSSFirstFragment, [4]byte{1, 2, 3, 4})
	require.False(t, a.Ready())
	a.Add(dmrconst.LCSSContinuation, [4]byte{5, 6, 7, 8})
	a.Add(dmrconst.LCSSContinuation, [4]byte{9, 10, 11, 12})
	require.False(t, a.Ready())
	a.Add(dmrconst.LCSSLastFragment, [4]byte{13, 14, 15, 16})
	require.True(t, a.Ready())

	lc, ok := a.Assemble()
	require.True(t, ok)
	require.Equal(t, [16]byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16}, lc)
	require.False(t, a.Ready())
}

func TestLCFragmentAssemblerLateEntryRestartsOnFirstFragment(t *testing.T) {
	var a LCFragmentAssembler
	a.Add(dmrconst.LCSSContinuation, [4]byte{1, 1, 1, 1})
	require.False(t, a.Ready())
	a.Add(dmrconst.LCSSFirstFragment, [4]byte{2, 2, 2, 2})
	a.Add(dmrconst.LCSSContinuation, [4]byte{3, 3, 3, 3})
	a.Add(dmrconst.LCSSContinuation, [4]byte{5, 5, 5, 5})
	a.Add(dmrconst.LCSSLastFragment, [4]byte{4, 4, 4, 4})
	require.True(t, a.Ready())

	lc, ok := a.Assemble()
	require.True(t, ok)
	require.Equal(t, [16]byte{2, 2, 2, 2, 3, 3, 3, 3, 5, 5, 5, 5, 4, 4, 4, 4}, lc)
}

func buildCSBK(opcode dmrconst.CsbkOpcode, fid byte, payload [8]byte) [12]byte {
	var b [12]byte
	b[0] = byte(opcode) & 0x3F
	b[1] = fid
	copy(b[2:10], payload[:])
	crc := fec.CRC16CCITT(b[:10])
	b[10] = byte(crc >> 8)
	b[11] = byte(crc)
	return b
}

func TestDecodeCSBKTalkgroupGrant(t *testing.T) {
	payload := [8]byte{0x55, 0x01, 0x20, 0x00, 0x00, 0x07, 0x00, 0x64}
	bytes := buildCSBK(dmrconst.CsbkOpTalkgroupVoiceGrant, 0, payload)

	csbk, ok := DecodeCSBK(bytes)
	require.True(t, ok)
	require.Equal(t, byte(0x55), csbk.StatusBits)
	require.Equal(t, uint16(0x0012), csbk.LCN)
	require.Equal(t, uint32(0x000007), csbk.Target)
	require.Equal(t, uint32(0x0064), csbk.Source)
}

func TestDecodeCSBKBadCRCFails(t *testing.T) {
	bytes := buildCSBK(dmrconst.CsbkOpTalkgroupVoiceGrant, 0, [8]byte{})
	bytes[11] ^= 0xFF

	_, ok := DecodeCSBK(bytes)
	require.False(t, ok)
}

func TestHandleCSBKGrantsWhenPolicyAllowsAndLCNResolves(t *testing.T) {
	payload := [8]byte{0, 0x00, 0x10, 0x00, 0x00, 0x09, 0x00, 0x00}
	bytes := buildCSBK(dmrconst.CsbkOpTalkgroupVoiceGrant, 0, payload)
	csbk, ok := DecodeCSBK(bytes)
	require.True(t, ok)

	lcns := LCNTable{csbk.LCN: 851012500}
	opts := tsm.Options{TrunkEnable: true, TuneGroup: true}

	ev, granted := HandleCSBK(csbk, opts, lcns)
	require.True(t, granted)
	require.Equal(t, pdu.SmEventGrant, ev.Kind)
	require.Equal(t, uint64(851012500), ev.Grant.FreqHz)
	require.Equal(t, -1, ev.Grant.Slot)
	require.Equal(t, "dmr", ev.Grant.Protocol)
}

func TestHandleCSBKRejectsWhenLCNUnresolved(t *testing.T) {
	payload := [8]byte{0, 0xFF, 0xF0, 0, 0, 0, 0, 0}
	bytes := buildCSBK(dmrconst.CsbkOpTalkgroupVoiceGrant, 0, payload)
	csbk, ok := DecodeCSBK(bytes)
	require.True(t, ok)

	_, granted := HandleCSBK(csbk, tsm.Options{TrunkEnable: true, TuneGroup: true}, LCNTable{})
	require.False(t, granted)
}

func TestDataHeaderAndPDUAssembly(t *testing.T) {
	var hdr [12]byte
	hdr[0] = 0x80 // group addressed
	payload := [8]byte{3, 0, 0, 0x09, 0, 0, 0x64, 0}
	copy(hdr[2:10], payload[:])
	crc := fec.CRC16CCITT(hdr[:10])
	hdr[10] = byte(crc >> 8)
	hdr[11] = byte(crc)

	h, ok := ParseDataHeader(hdr)
	require.True(t, ok)
	require.True(t, h.GroupAddressed)
	require.Equal(t, 3, h.Blocks)
	require.Equal(t, uint32(0x000009), h.Target)
	require.Equal(t, uint32(0x000064), h.Source)

	asm := NewPDUAssembler(h)
	asm.AddBlock(DataBlock{DBSN: 1, Payload: []byte{0xBB}, CRCOK: true})
	require.False(t, asm.Complete())
	asm.AddBlock(DataBlock{DBSN: 0, Payload: []byte{0xAA}, CRCOK: true})
	asm.AddBlock(DataBlock{DBSN: 2, Payload: []byte{0xCC}, CRCOK: true})
	require.True(t, asm.Complete())
	require.Empty(t, asm.MissingDBSNs())

	out, ok := asm.Assemble()
	require.True(t, ok)
	require.Equal(t, []byte{0xAA, 0xBB, 0xCC}, out)
}

func TestPDUAssemblerIgnoresDuplicateAndBadCRCBlocks(t *testing.T) {
	h := DataHeader{Blocks: 2}
	asm := NewPDUAssembler(h)
	asm.AddBlock(DataBlock{DBSN: 0, Payload: []byte{1}, CRCOK: false})
	require.Equal(t, []byte{0, 1}, asm.MissingDBSNs(), "bad-CRC block should not satisfy DBSN 0")

	asm.AddBlock(DataBlock{DBSN: 0, Payload: []byte{1}, CRCOK: true})
	asm.AddBlock(DataBlock{DBSN: 0, Payload: []byte{99}, CRCOK: true})
	asm.AddBlock(DataBlock{DBSN: 1, Payload: []byte{2}, CRCOK: true})

	out, ok := asm.Assemble()
	require.True(t, ok)
	require.Equal(t, []byte{1, 2}, out)
}
