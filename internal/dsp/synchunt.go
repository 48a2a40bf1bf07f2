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

package dsp

// syncHuntCandidates is the SPS cycle order the hunter walks when no
// valid sync has been seen for too long: {10, 20, 5, 8}.
var syncHuntCandidates = [4]int{10, 20, 5, 8}

// SyncHunt cycles the decoder's assumed samples-per-symbol among
// syncHuntCandidates when no valid frame sync has been observed for a
// bounded run of symbols, so an unknown or misconfigured baseband rate
// doesn't wedge the decoder onto a permanently wrong SPS.
type SyncHunt struct {
	boundSymbols   int
	symbolsNoSync  int
	candidateIndex int
}

// NewSyncHunt builds a hunter that cycles SPS after boundSymbols
// consecutive symbols with no valid sync.
func NewSyncHunt(boundSymbols int) *SyncHunt {
	return &SyncHunt{boundSymbols: boundSymbols}
}

// Current returns the SPS currently in use.
func (s *SyncHunt) Current() int { return syncHuntCandidates[s.candidateIndex] }

// NoteSync resets the no-sync counter on a valid sync; NoteSymbol
// advances it and returns true (with the new SPS taking effect) if the
// bound was reached and the hunter rotated to the next candidate.
func (s *SyncHunt) NoteSync() { s.symbolsNoSync = 0 }

// NoteSymbol advances the no-sync counter by one symbol.
func (s *SyncHunt) NoteSymbol() (rotated bool, sps int) {
	s.symbolsNoSync++
	if s.symbolsNoSync < s.boundSymbols {
		return false, s.Current()
	}
	s.symbolsNoSync = 0
	s.candidateIndex = (s.candidateIndex + 1) % len(syncHuntCandidates)
	return true, s.Current()
}

// Reset returns the hunter to its first candidate SPS, used on retune.
func (s *SyncHunt) Reset() { s.symbolsNoSync, s.candidateIndex = 0, 0 }
