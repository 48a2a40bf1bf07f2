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

// Package ring implements the bounded single-producer/single-consumer rings
// that carry samples between the capture, DSP, and decoder goroutines.
package ring

import (
	"sync"
	"sync/atomic"
	"time"
)

// Stats is a point-in-time snapshot of a Ring's counters.
type Stats struct {
	Capacity      int
	Used          int
	ProducerDrops uint64
	ReadTimeouts  uint64
}

// Ring is a fixed-capacity SPSC ring buffer. One producer goroutine calls
// Write/WriteBlocking; one consumer goroutine calls Read. Usable occupancy
// is one less than the backing storage New allocates; the spare slot lets
// full and empty be told apart without separate flags. State changes are announced by
// swapping out a closed "wake" channel, so waiters never block inside a
// goroutine that outlives the wait itself.
type Ring[T any] struct {
	mu sync.Mutex

	buf      []T
	readIdx  int
	writeIdx int
	usable   int
	wake     chan struct{}

	exit      atomic.Bool
	drops     atomic.Uint64
	readTouts atomic.Uint64
}

// New creates a ring sized for capacity slots of backing storage, one of
// which is reserved to distinguish full from empty without a separate flag;
// usable occupancy is therefore capacity-1 (must be >= 2).
func New[T any](capacity int) *Ring[T] {
	if capacity < 2 {
		capacity = 2
	}
	return &Ring[T]{
		buf:    make([]T, capacity),
		usable: capacity - 1,
		wake:   make(chan struct{}),
	}
}

func (r *Ring[T]) usedLocked() int {
	n := r.writeIdx - r.readIdx
	if n < 0 {
		n += len(r.buf)
	}
	return n
}

func (r *Ring[T]) freeLocked() int {
	return r.usable - r.usedLocked()
}

// broadcastLocked wakes every current waiter. Must be called with r.mu held.
func (r *Ring[T]) broadcastLocked() {
	close(r.wake)
	r.wake = make(chan struct{})
}

// Write copies as many items as fit without blocking. Items beyond the free
// space are dropped and counted in ProducerDrops; previously written data is
// never overwritten. Returns the number of items actually written.
func (r *Ring[T]) Write(items []T) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	free := r.freeLocked()
	n := len(items)
	if n > free {
		dropped := n - free
		r.drops.Add(uint64(dropped))
		n = free
	}
	for i := 0; i < n; i++ {
		r.buf[r.writeIdx] = items[i]
		r.writeIdx = (r.writeIdx + 1) % len(r.buf)
	}
	if n > 0 {
		r.broadcastLocked()
	}
	return n
}

// WriteBlocking writes all items, blocking (subject to done/exit) when the
// ring is full rather than dropping. Used by the output ring to apply
// back-pressure from a slow audio sink. Returns the number actually written;
// this is less than len(items) only if the ring was closed or done fired
// mid-write.
func (r *Ring[T]) WriteBlocking(done <-chan struct{}, items []T) int {
	written := 0
	for written < len(items) {
		r.mu.Lock()
		for r.freeLocked() == 0 && !r.exit.Load() {
			wake := r.wake
			r.mu.Unlock()
			select {
			case <-done:
				return written
			case <-wake:
			}
			r.mu.Lock()
		}
		if r.exit.Load() {
			r.mu.Unlock()
			return written
		}
		r.buf[r.writeIdx] = items[written]
		r.writeIdx = (r.writeIdx + 1) % len(r.buf)
		written++
		r.broadcastLocked()
		r.mu.Unlock()
	}
	return written
}

// Read blocks for up to timeout waiting for at least one item, then copies
// up to len(buf) available items into buf. Returns 0 and increments
// ReadTimeouts if nothing became available in time, or if the ring was
// closed with nothing left to drain.
func (r *Ring[T]) Read(buf []T, timeout time.Duration) int {
	deadline := time.Now().Add(timeout)

	r.mu.Lock()
	for r.usedLocked() == 0 && !r.exit.Load() {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			r.mu.Unlock()
			r.readTouts.Add(1)
			return 0
		}
		wake := r.wake
		r.mu.Unlock()

		timer := time.NewTimer(remaining)
		select {
		case <-wake:
			timer.Stop()
		case <-timer.C:
			r.readTouts.Add(1)
			return 0
		}
		r.mu.Lock()
	}
	if r.usedLocked() == 0 {
		r.mu.Unlock()
		return 0
	}
	n := 0
	for n < len(buf) && r.usedLocked() > 0 {
		buf[n] = r.buf[r.readIdx]
		r.readIdx = (r.readIdx + 1) % len(r.buf)
		n++
	}
	r.broadcastLocked()
	r.mu.Unlock()
	return n
}

// Clear discards all unread items, returning how many were dropped. Used on
// retune when the configured drain policy is "clear" rather than letting the
// consumer finish the in-flight output.
func (r *Ring[T]) Clear() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := r.usedLocked()
	r.readIdx = r.writeIdx
	if n > 0 {
		r.broadcastLocked()
	}
	return n
}

// Close sets the exit flag and wakes any blocked readers/writers so they
// return promptly.
func (r *Ring[T]) Close() {
	r.mu.Lock()
	r.exit.Store(true)
	r.broadcastLocked()
	r.mu.Unlock()
}

// Closed reports whether Close has been called.
func (r *Ring[T]) Closed() bool { return r.exit.Load() }

// Stats returns a snapshot of the ring's counters. Safe to call from any
// goroutine.
func (r *Ring[T]) Stats() Stats {
	r.mu.Lock()
	used := r.usedLocked()
	r.mu.Unlock()
	return Stats{
		Capacity:      r.usable,
		Used:          used,
		ProducerDrops: r.drops.Load(),
		ReadTimeouts:  r.readTouts.Load(),
	}
}
