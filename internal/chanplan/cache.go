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

package chanplan

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"
)

const candidateCapacity = 16
const neighborCapacity = 32

// CandidateRing is the bounded CC-candidate ring the TSM hunts through when
// its control channel is lost. Insertion and consumption are counted
// separately so diagnostics can tell a stalled hunt from a healthy one.
// Internally locked: the decoder goroutine pushes learned candidates while
// the watchdog scheduler's cache-sync job drains and republishes the ring.
type CandidateRing struct {
	mu       sync.Mutex
	entries  []uint64
	next     int
	inserted uint64
	consumed uint64
}

// Push adds a candidate frequency, evicting the oldest entry once the ring
// is at capacity.
func (r *CandidateRing) Push(freqHz uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, f := range r.entries {
		if f == freqHz {
			return
		}
	}
	if len(r.entries) < candidateCapacity {
		r.entries = append(r.entries, freqHz)
	} else {
		r.entries = append(r.entries[1:], freqHz)
	}
	r.inserted++
}

// Pop returns and removes the next candidate frequency in FIFO order, or
// (0, false) if the ring is empty.
func (r *CandidateRing) Pop() (uint64, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.entries) == 0 {
		return 0, false
	}
	freq := r.entries[0]
	r.entries = r.entries[1:]
	r.consumed++
	return freq, true
}

// Len reports the number of candidates currently queued.
func (r *CandidateRing) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// Stats returns the insertion/consumption counters.
func (r *CandidateRing) Stats() (inserted, consumed uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.inserted, r.consumed
}

// Candidates exposes the ring's CandidateRing for hunt management.
func (p *Plan) Candidates() *CandidateRing { return &p.candidates }

// cachePath builds the persisted CC-candidate file path:
// $DSD_NEO_CACHE_DIR/p25_cc_{WACN:05X}_{SYSID:03X}[_R{RFSS}_S{SITE}].txt
func cachePath(cacheDir string, s Site) string {
	name := fmt.Sprintf("p25_cc_%05X_%03X", s.WACN, s.SYSID)
	if s.RFSS != 0 || s.SITE != 0 {
		name += fmt.Sprintf("_R%d_S%d", s.RFSS, s.SITE)
	}
	return filepath.Join(cacheDir, name+".txt")
}

// LoadCandidateCache reads the persisted candidate file for p.CurrentSite,
// most-recent-first, pushing each frequency into the candidate ring. Missing
// files are not an error — the ring simply starts empty.
func (p *Plan) LoadCandidateCache(cacheDir string) error {
	f, err := os.Open(cachePath(cacheDir, p.CurrentSite))
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	var freqs []uint64
	for scanner.Scan() {
		freq, err := strconv.ParseUint(scanner.Text(), 10, 64)
		if err != nil {
			continue
		}
		freqs = append(freqs, freq)
	}
	for i := len(freqs) - 1; i >= 0; i-- {
		p.candidates.Push(freqs[i])
	}
	return scanner.Err()
}

// SaveCandidateCache writes the current candidate ring back out, most recent
// first, creating cacheDir if necessary.
func (p *Plan) SaveCandidateCache(cacheDir string) error {
	if err := os.MkdirAll(cacheDir, 0o755); err != nil {
		return err
	}
	f, err := os.Create(cachePath(cacheDir, p.CurrentSite))
	if err != nil {
		return err
	}
	defer f.Close()

	p.candidates.mu.Lock()
	entries := append([]uint64(nil), p.candidates.entries...)
	p.candidates.mu.Unlock()

	w := bufio.NewWriter(f)
	for i := len(entries) - 1; i >= 0; i-- {
		fmt.Fprintln(w, entries[i])
	}
	return w.Flush()
}

// neighborEntry is one learned neighbor-site frequency.
type neighborEntry struct {
	freqHz   uint64
	lastSeen time.Time
}

// NeighborSet is the bounded, TTL-aged set of neighbor control-channel
// frequencies learned from broadcast PDUs.
// Internally locked for the same reason as CandidateRing: See runs on the
// decoder goroutine, AgeOut on the watchdog scheduler.
type NeighborSet struct {
	mu      sync.Mutex
	entries []neighborEntry
	ttl     time.Duration
}

// See marks freqHz as seen at now, adding it if new and evicting the oldest
// entry if the set is full.
func (n *NeighborSet) See(freqHz uint64, now time.Time) {
	n.mu.Lock()
	defer n.mu.Unlock()
	for i := range n.entries {
		if n.entries[i].freqHz == freqHz {
			n.entries[i].lastSeen = now
			return
		}
	}
	if len(n.entries) >= neighborCapacity {
		oldest := 0
		for i := range n.entries {
			if n.entries[i].lastSeen.Before(n.entries[oldest].lastSeen) {
				oldest = i
			}
		}
		n.entries[oldest] = neighborEntry{freqHz: freqHz, lastSeen: now}
		return
	}
	n.entries = append(n.entries, neighborEntry{freqHz: freqHz, lastSeen: now})
}

// AgeOut removes entries whose lastSeen is older than the TTL (default 30
// minutes) relative to now. Called from the TSM watchdog TICK.
func (n *NeighborSet) AgeOut(now time.Time) {
	n.mu.Lock()
	defer n.mu.Unlock()
	ttl := n.ttl
	if ttl == 0 {
		ttl = 30 * time.Minute
	}
	kept := n.entries[:0]
	for _, e := range n.entries {
		if now.Sub(e.lastSeen) < ttl {
			kept = append(kept, e)
		}
	}
	n.entries = kept
}

// Len reports the number of live neighbor entries.
func (n *NeighborSet) Len() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.entries)
}

// Neighbors exposes the plan's NeighborSet.
func (p *Plan) Neighbors() *NeighborSet { return &p.neighbors }
