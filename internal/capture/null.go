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

package capture

import "sync"

// NullSource produces silence: Read blocks until Close, matching the
// "null" input variant used by tests and the silent-input fallback mode.
type NullSource struct {
	mu     sync.Mutex
	closed bool
	done   chan struct{}
}

// NewNullSource constructs a NullSource.
func NewNullSource() *NullSource {
	return &NullSource{done: make(chan struct{})}
}

func (s *NullSource) Read(buf []byte) (int, error) {
	<-s.done
	return 0, ErrClosed
}

// Retune is a no-op: the null source has no RF to tune.
func (s *NullSource) Retune(uint64) error { return nil }

// Close unblocks any in-flight Read.
func (s *NullSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.closed = true
		close(s.done)
	}
	return nil
}
