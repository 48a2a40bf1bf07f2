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

import (
	"io"
	"os"
	"strings"
	"time"
)

// SymbolCaptureFormat selects how a symbol-capture file's bytes are
// interpreted.
type SymbolCaptureFormat int

const (
	// SymbolFormatDibits is a ".bin" file: one dibit value (0..3) per byte.
	SymbolFormatDibits SymbolCaptureFormat = iota
	// SymbolFormatFloat is a ".sym"/".raw" file: little-endian float32 soft
	// symbols, one per 4 bytes.
	SymbolFormatFloat
)

// DetectSymbolCaptureFormat maps a file extension to its format.
func DetectSymbolCaptureFormat(path string) SymbolCaptureFormat {
	if strings.HasSuffix(path, ".bin") {
		return SymbolFormatDibits
	}
	return SymbolFormatFloat
}

// SymbolCaptureSource replays a previously captured symbol file at a fixed
// throttle rate, standing in for live RF capture in tests and offline
// analysis.
type SymbolCaptureSource struct {
	f        *os.File
	format   SymbolCaptureFormat
	throttle time.Duration
	unitSize int
	closed   chan struct{}
}

// OpenSymbolCapture opens path for replay. throttle is the pacing delay
// applied per read when non-zero; zero disables throttling (read as fast
// as possible, e.g. for tests).
func OpenSymbolCapture(path string, throttle time.Duration) (*SymbolCaptureSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	format := DetectSymbolCaptureFormat(path)
	unitSize := 1
	if format == SymbolFormatFloat {
		unitSize = 4
	}
	return &SymbolCaptureSource{f: f, format: format, throttle: throttle, unitSize: unitSize, closed: make(chan struct{})}, nil
}

// Format reports the replay file's symbol encoding.
func (s *SymbolCaptureSource) Format() SymbolCaptureFormat { return s.format }

func (s *SymbolCaptureSource) Read(buf []byte) (int, error) {
	// Round buf down to a whole number of units so callers never see a
	// torn dibit/float symbol split across two reads.
	n := len(buf) - (len(buf) % s.unitSize)
	if n == 0 {
		n = s.unitSize
	}
	read, err := s.f.Read(buf[:n])
	if err != nil {
		if err == io.EOF {
			return read, io.EOF
		}
		return read, err
	}
	if s.throttle > 0 {
		select {
		case <-time.After(s.throttle):
		case <-s.closed:
			return read, ErrClosed
		}
	}
	return read, nil
}

// Retune is a no-op: a capture-file replay has no RF to tune.
func (s *SymbolCaptureSource) Retune(uint64) error { return nil }

func (s *SymbolCaptureSource) Close() error {
	select {
	case <-s.closed:
	default:
		close(s.closed)
	}
	return s.f.Close()
}
