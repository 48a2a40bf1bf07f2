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

package state

import "sync/atomic"

// LayerCounter tracks FEC outcomes for one protected layer: OK/fail counts
// plus the running sum of corrected symbols on successful soft decodes.
type LayerCounter struct {
	OK               atomic.Uint64
	Fail             atomic.Uint64
	SoftOK           atomic.Uint64
	CorrectedSymbols atomic.Uint64
}

// RecordHard records a hard-decision (erasure-free) outcome.
func (l *LayerCounter) RecordHard(ok bool) {
	if ok {
		l.OK.Add(1)
	} else {
		l.Fail.Add(1)
	}
}

// RecordSoft records a soft-decision (erasure-aware) outcome and the
// number of symbols the RS/Viterbi decoder corrected.
func (l *LayerCounter) RecordSoft(ok bool, corrected int) {
	if ok {
		l.OK.Add(1)
		l.SoftOK.Add(1)
		if corrected > 0 {
			l.CorrectedSymbols.Add(uint64(corrected))
		}
	} else {
		l.Fail.Add(1)
	}
}

// Counters is the full per-layer FEC and DUID-histogram counter set.
type Counters struct {
	P1TSBKHeader LayerCounter
	P1VoiceRS    LayerCounter
	P2FACCH      LayerCounter
	P2SACCH      LayerCounter
	P2ESS        LayerCounter

	DUIDHistogram [7]atomic.Uint64 // indexed by pdu.DUID

	SoftDecisionSuccesses atomic.Uint64

	TuneCount     atomic.Uint64
	ReleaseCount  atomic.Uint64
	CCReturnCount atomic.Uint64

	ProducerDrops atomic.Uint64
	ReadTimeouts  atomic.Uint64
}

// RecordDUID bumps the DUID histogram bucket for d.
func (c *Counters) RecordDUID(d int) {
	if d < 0 || d >= len(c.DUIDHistogram) {
		return
	}
	c.DUIDHistogram[d].Add(1)
}
