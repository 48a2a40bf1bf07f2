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

package chanimport_test

import (
	"strings"
	"testing"

	"github.com/dsdneo/dsdneo-go/internal/chanimport"
	"github.com/dsdneo/dsdneo-go/internal/chanplan"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadChannelMapCSV(t *testing.T) {
	t.Parallel()
	tables := chanimport.NewTables()
	csv := "# lcn,hz\n0x0001,851012500\n2,851037500\n"

	require.NoError(t, tables.LoadChannelMapCSV(strings.NewReader(csv)))
	assert.Equal(t, uint64(851012500), tables.Channels[1])
	assert.Equal(t, uint64(851037500), tables.Channels[2])
}

func TestApplyToPlanOverridesResolve(t *testing.T) {
	t.Parallel()
	tables := chanimport.NewTables()
	require.NoError(t, tables.LoadChannelMapCSV(strings.NewReader("0x0001,999999999\n")))

	plan := chanplan.NewPlan()
	plan.Idens[0] = chanplan.IDEN{Base: 170203400 / 5, Spac: 100, ChanType: 1}
	tables.ApplyToPlan(plan)

	resolved := plan.Resolve(1)
	assert.True(t, resolved.OK)
	assert.Equal(t, uint64(999999999), resolved.FreqHz)
}

func TestLoadGroupListCSV(t *testing.T) {
	t.Parallel()
	tables := chanimport.NewTables()
	csv := "1,Fire Dispatch,D\n2,PD Tac,DE\n3,Analog Repeater,A\n"

	require.NoError(t, tables.LoadGroupListCSV(strings.NewReader(csv)))
	require.Len(t, tables.Groups, 3)
	assert.Equal(t, "Fire Dispatch", tables.Groups[1].Name)
	assert.Equal(t, chanimport.GroupModeDMR, tables.Groups[1].Mode)
	assert.Equal(t, chanimport.GroupModeDMREncrypted, tables.Groups[2].Mode)
}

func TestLoadGroupListCSVRejectsBadMode(t *testing.T) {
	t.Parallel()
	tables := chanimport.NewTables()
	err := tables.LoadGroupListCSV(strings.NewReader("1,Bad,Z\n"))
	require.Error(t, err)
	assert.ErrorIs(t, err, chanimport.ErrBadMode)
}

func TestLoadKeysCSVDecimalAndHex(t *testing.T) {
	t.Parallel()
	tables := chanimport.NewTables()
	csv := "1,0xdeadbeef\n2,1234\n"

	require.NoError(t, tables.LoadKeysCSV(strings.NewReader(csv)))
	assert.Equal(t, []byte{0xde, 0xad, 0xbe, 0xef}, tables.Keys[1].Value)
	assert.Equal(t, "1234", string(tables.Keys[2].Value))
}

func TestLoadChannelMapCSVMalformedRecord(t *testing.T) {
	t.Parallel()
	tables := chanimport.NewTables()
	err := tables.LoadChannelMapCSV(strings.NewReader("not-a-number,851012500\n"))
	require.Error(t, err)
	assert.ErrorIs(t, err, chanimport.ErrBadRecord)
}

func TestLoadChannelMapCSVSkipsCommentsAndBlankLines(t *testing.T) {
	t.Parallel()
	tables := chanimport.NewTables()
	csv := "# comment\n\n1,851012500\n"
	require.NoError(t, tables.LoadChannelMapCSV(strings.NewReader(csv)))
	assert.Len(t, tables.Channels, 1)
}
