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

package events_test

import (
	"testing"

	"github.com/dsdneo/dsdneo-go/internal/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRingOverwritesOldestWhenFull(t *testing.T) {
	t.Parallel()
	var r events.Ring
	for i := 0; i < 255+10; i++ {
		r.Push(events.Event{Source: uint32(i)})
	}
	snap := r.Snapshot()
	require.Len(t, snap, 255)
	assert.Equal(t, uint32(10), snap[0].Source)
	assert.Equal(t, uint32(264), snap[len(snap)-1].Source)
}

func TestHubPublishDeepCopiesBanks(t *testing.T) {
	t.Parallel()
	hub := events.NewHub()
	sub := hub.Subscribe()
	defer sub.Close()

	var banks events.Banks
	banks.Slot0.Push(events.Event{Source: 1})
	hub.Publish(&banks)

	snap := <-sub.Channel()
	require.Len(t, snap.Slot0, 1)
	assert.Equal(t, uint32(1), snap.Slot0[0].Source)

	// Mutating the live banks after publish must not affect the snapshot
	// already delivered to the subscriber.
	banks.Slot0.Push(events.Event{Source: 2})
	assert.Len(t, snap.Slot0, 1, "subscriber snapshot must not alias decoder state")
}

func TestHubSlowSubscriberGetsLatestNotBlocked(t *testing.T) {
	t.Parallel()
	hub := events.NewHub()
	sub := hub.Subscribe()
	defer sub.Close()

	var banks events.Banks
	banks.Slot0.Push(events.Event{Source: 1})
	hub.Publish(&banks)
	banks.Slot0.Push(events.Event{Source: 2})
	hub.Publish(&banks) // subscriber hasn't drained the first yet

	snap := <-sub.Channel()
	assert.Len(t, snap.Slot0, 2, "second publish should replace the stale buffered snapshot")
}

func TestMessageTruncatedAt2000Chars(t *testing.T) {
	t.Parallel()
	var r events.Ring
	long := make([]byte, 2500)
	for i := range long {
		long[i] = 'x'
	}
	r.Push(events.Event{Message: string(long)})
	snap := r.Snapshot()
	require.Len(t, snap, 1)
	assert.Len(t, snap[0].Message, 2000)
}
