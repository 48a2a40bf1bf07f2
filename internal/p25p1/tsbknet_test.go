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

	"github.com/dsdneo/dsdneo-go/internal/chanplan"
	"github.com/dsdneo/dsdneo-go/internal/pdu"
	"github.com/dsdneo/dsdneo-go/internal/tsm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseNetStatus(t *testing.T) {
	t.Parallel()
	var b [12]byte
	b[0] = TSBKOpNetStsBcst
	b[2] = 0x01                         // LRA
	b[3], b[4], b[5] = 0xBE, 0xE0, 0x01 // WACN=0xBEE00, SYSID=0x123
	b[6] = 0x23
	b[7], b[8] = 0x10, 0x0A // CHAN-T=0x100A

	ns := ParseNetStatus(b)
	assert.Equal(t, byte(0x01), ns.LRA)
	assert.Equal(t, uint32(0xBEE00), ns.WACN)
	assert.Equal(t, uint16(0x123), ns.SYSID)
	assert.Equal(t, uint16(0x100A), ns.Chan)
}

func TestParseMotRegroup(t *testing.T) {
	t.Parallel()
	var b [12]byte
	b[0] = MotOpRegroupAdd
	b[1] = MFIDMotorola
	b[2], b[3] = 0x0F, 0xA0 // supergroup 4000
	b[4], b[5] = 0x04, 0xD2 // group 1234

	cmd, ok := ParseMotRegroup(b)
	require.True(t, ok)
	assert.True(t, cmd.Add)
	assert.Equal(t, uint16(4000), cmd.SuperGroup)
	assert.Equal(t, uint16(1234), cmd.Group)

	b[0] = 0x3F // vendor status, not a regroup
	_, ok = ParseMotRegroup(b)
	assert.False(t, ok)
}

func TestParseHarrisEnc(t *testing.T) {
	t.Parallel()
	var b [12]byte
	b[1] = MFIDHarris
	b[2], b[3] = 0x04, 0xD2
	b[4] = 0x01

	cmd := ParseHarrisEnc(b)
	assert.Equal(t, uint16(1234), cmd.TG)
	assert.True(t, cmd.Locked)
}

func TestHandleGroupVoiceGrantResolvesAndGates(t *testing.T) {
	t.Parallel()
	plan := chanplan.NewPlan()
	plan.Idens[1] = chanplan.IDEN{Base: 170200000, Spac: 100, ChanType: 1, Trust: chanplan.TrustConfirmed}
	opts := tsm.Options{TrunkEnable: true, TuneGroup: true}

	g := GroupVoiceGrant{ChanT: (1 << 12) | 5, TG: 0x4567, Src: 99}
	ev, ok := HandleGroupVoiceGrant(g, opts, plan)
	require.True(t, ok)
	require.Equal(t, pdu.SmEventGrant, ev.Kind)
	assert.Equal(t, uint64(851062500), ev.Grant.FreqHz)
	assert.Equal(t, uint32(0x4567), ev.Grant.TGOrDst)
	assert.Equal(t, uint32(99), ev.Grant.Src)
	assert.Equal(t, "p25p1", ev.Grant.Protocol)

	// TG-hold mismatch blocks the grant before it reaches the machine.
	opts.TGHold = 1
	_, ok = HandleGroupVoiceGrant(g, opts, plan)
	assert.False(t, ok)
}
