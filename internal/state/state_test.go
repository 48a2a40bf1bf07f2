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

package state_test

import (
	"testing"
	"time"

	"github.com/dsdneo/dsdneo-go/internal/events"
	"github.com/dsdneo/dsdneo-go/internal/state"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPCMJitterRingDropsOldestOnOverflow(t *testing.T) {
	t.Parallel()
	var j state.PCMJitterRing
	for i := 0; i < 5; i++ {
		var f [160]int16
		f[0] = int16(i)
		j.Push(f)
	}
	assert.Equal(t, 4, j.Len())
	f, ok := j.Pop()
	require.True(t, ok)
	assert.Equal(t, int16(1), f[0], "oldest frame (index 0) should have been dropped")
}

func TestSlotVoiceContextIMBEMovingAverage(t *testing.T) {
	t.Parallel()
	sv := state.NewSlotVoiceContext()
	assert.Equal(t, 0.0, sv.IMBEErrorRate())
	sv.RecordIMBEError(2)
	sv.RecordIMBEError(4)
	assert.Equal(t, 3.0, sv.IMBEErrorRate())
}

func TestDecoderPublishEventFansOutDeepCopy(t *testing.T) {
	t.Parallel()
	d := state.New()
	sub := d.Hub.Subscribe()
	defer sub.Close()

	d.PublishEvent(0, events.Event{Source: 42})
	snap := <-sub.Channel()
	require.Len(t, snap.Slot0, 1)
	assert.Equal(t, uint32(42), snap.Slot0[0].Source)
}

func TestCountersLayerRecordSoftTracksCorrections(t *testing.T) {
	t.Parallel()
	var c state.Counters
	c.P2FACCH.RecordSoft(true, 3)
	c.P2FACCH.RecordSoft(false, 0)
	assert.Equal(t, uint64(1), c.P2FACCH.OK.Load())
	assert.Equal(t, uint64(1), c.P2FACCH.SoftOK.Load())
	assert.Equal(t, uint64(1), c.P2FACCH.Fail.Load())
	assert.Equal(t, uint64(3), c.P2FACCH.CorrectedSymbols.Load())
}

// TestTrunkingContextFlowsIntoSnapshot: the CC/VC bookkeeping the retune
// capability writes is what StateSnapshot hands the diagnostics reader.
func TestTrunkingContextFlowsIntoSnapshot(t *testing.T) {
	t.Parallel()
	d := state.New()
	d.SetCCFreq(851000000)
	d.SetTuned(1, 852037500)
	d.SetTGHold(1234)
	d.NoteCCSync(time.Now())

	snap := d.StateSnapshot()
	assert.Equal(t, uint64(851000000), snap.CCFreqHz)
	assert.Equal(t, uint64(852037500), snap.VCFreqHz[1])
	assert.Zero(t, snap.VCFreqHz[0])
	assert.True(t, snap.Tuned)
	assert.Equal(t, uint32(1234), snap.TGHold)
	assert.Equal(t, uint64(851000000), d.CCFreqHz())
	assert.NotZero(t, d.Trunk.LastCCSyncMono)

	d.ClearTuned()
	snap = d.StateSnapshot()
	assert.False(t, snap.Tuned)
	assert.Zero(t, snap.VCFreqHz[1])
}
