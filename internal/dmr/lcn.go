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

// LCNTable maps a DMR Logical Channel Number (or, on Tier III, a Logical
// Physical Channel Number) to the frequency it identifies, generalizing
// internal/chanplan's IDEN table to DMR's flatter channel-plan shape: a
// site publishes its LCN->frequency map directly rather than deriving it
// from a base/step/spacing formula.
type LCNTable map[uint16]uint64

// Resolve looks up lcn's frequency.
func (t LCNTable) Resolve(lcn uint16) (freqHz uint64, ok bool) {
	freqHz, ok = t[lcn]
	return freqHz, ok
}

// Set records lcn's frequency, overwriting any prior mapping (site channel
// plans can be republished by Ahoy/Broadcast CSBKs).
func (t LCNTable) Set(lcn uint16, freqHz uint64) {
	t[lcn] = freqHz
}
