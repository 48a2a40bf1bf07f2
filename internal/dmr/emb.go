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

import "github.com/dsdneo/dsdneo-go/internal/dmrconst"

// ParseEMB decodes the 8-bit EMB field carried on voice bursts B..E of a
// superframe: color code in the top nibble, PI in bit 3, LCSS in the low 2
// bits.
func ParseEMB(raw byte) dmrconst.EMB {
	return dmrconst.EMB{
		ColorCode: raw >> 4,
		PI:        raw&0x08 != 0,
		LCSS:      raw & 0x03,
	}
}

// EncodeEMB is the inverse of ParseEMB, used to build synthetic fixtures.
func EncodeEMB(e dmrconst.EMB) byte {
	raw := e.ColorCode << 4
	if e.PI {
		raw |= 0x08
	}
	raw |= e.LCSS & 0x03
	return raw
}

// lcFragmentCount is the number of 4-byte fragments a full 9-byte embedded
// LC is split across (voice frames B, C, D, E of a superframe).
const lcFragmentCount = 4

// LCFragmentAssembler reassembles a Voice LC, or the late-entry MI carried
// in its place, from the LCSS-tagged fragments embedded on voice frames
// B..E. A late entry (tuning in mid-superframe) can miss fragment 0
// (LCSSFirstFragment); fragments gathered before the next LCSSFirstFragment
// are discarded when it starts the window over, and the LC completes once
// that window's first fragment, two continuations and last fragment have
// all arrived.
type LCFragmentAssembler struct {
	fragments [lcFragmentCount][4]byte
	got       [lcFragmentCount]bool
}

// Reset clears all held fragments.
func (a *LCFragmentAssembler) Reset() {
	a.got = [lcFragmentCount]bool{}
}

// Add ingests one fragment, keyed by its LCSS value. A LCSSSingleFragment
// carries the whole LC in one hit and is treated as the sole fragment 0;
// LCSSFirstFragment restarts the sequence (handles flywheel re-sync).
func (a *LCFragmentAssembler) Add(lcss byte, fragment [4]byte) {
	switch lcss {
	case dmrconst.LCSSSingleFragment:
		a.Reset()
		a.fragments[0] = fragment
		a.got[0] = true
		for i := 1; i < lcFragmentCount; i++ {
			a.got[i] = true
		}
	case dmrconst.LCSSFirstFragment:
		a.Reset()
		a.fragments[0] = fragment
		a.got[0] = true
	case dmrconst.LCSSContinuation:
		for i := 1; i < lcFragmentCount-1; i++ {
			if !a.got[i] {
				a.fragments[i] = fragment
				a.got[i] = true
				return
			}
		}
	case dmrconst.LCSSLastFragment:
		a.fragments[lcFragmentCount-1] = fragment
		a.got[lcFragmentCount-1] = true
	}
}

// Ready reports whether every fragment needed to assemble the full LC has
// arrived.
func (a *LCFragmentAssembler) Ready() bool {
	for _, g := range a.got {
		if !g {
			return false
		}
	}
	return true
}

// Assemble concatenates the 4 fragments into the 16-byte embedded LC (the
// Voice LC header's 9-byte LC plus 7 bytes of CRC/parity carried alongside
// it in the embedded-signalling channel), clearing state once read.
func (a *LCFragmentAssembler) Assemble() (lc [16]byte, ok bool) {
	if !a.Ready() {
		return lc, false
	}
	for i := 0; i < lcFragmentCount; i++ {
		copy(lc[i*4:i*4+4], a.fragments[i][:])
	}
	a.Reset()
	return lc, true
}
