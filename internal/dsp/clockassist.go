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

// ClockAssist is the C4FM clock assist: once every N
// symbols it nudges the integer symbol-center index by at most +-1,
// using an early-late energy comparison (Mueller & Muller needs a
// decision-directed reference the discriminator path doesn't cheaply
// provide, so early-late serves the decision-free C4FM case).
type ClockAssist struct {
	everyN          int
	count           int
	activeAfterLock bool
	locked          bool
	center          int
}

// NewClockAssist builds an assist that nudges once every everyN symbols.
// activeAfterLock controls whether it keeps nudging once SetLocked(true)
// has been called.
func NewClockAssist(everyN int, activeAfterLock bool) *ClockAssist {
	return &ClockAssist{everyN: everyN, activeAfterLock: activeAfterLock}
}

// SetLocked records whether frame sync has been acquired.
func (c *ClockAssist) SetLocked(locked bool) { c.locked = locked }

// Update feeds one symbol period's early/center/late energies (or
// discriminator magnitudes) and returns the signed nudge to apply to the
// next symbol's integer sample offset: -1, 0, or +1. Returns 0 without
// counting toward the next nudge if locked and assist is configured to
// go quiet after lock.
func (c *ClockAssist) Update(early, late float32) int {
	if c.locked && !c.activeAfterLock {
		return 0
	}
	c.count++
	if c.count < c.everyN {
		return 0
	}
	c.count = 0

	switch {
	case early > late:
		c.center--
		return -1
	case late > early:
		c.center++
		return 1
	default:
		return 0
	}
}

// Center returns the accumulated sample-offset correction.
func (c *ClockAssist) Center() int { return c.center }

// Reset clears the assist's nudge accumulator and lock state, used on
// retune.
func (c *ClockAssist) Reset() { c.count, c.center, c.locked = 0, 0, false }
