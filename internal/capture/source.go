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

// Package capture implements the raw I/Q source variants (RTL-TCP, UDP/TCP
// PCM, a symbol-capture file, and a null source) that feed internal/dsp's
// front end, plus a reconnect-with-backoff supervisor so source failures
// never abort decode.
package capture

import (
	"errors"
	"fmt"
)

// Source is a raw-sample producer: Read fills buf with as many bytes of
// the source's wire format as are currently available, following
// io.Reader's blocking-read contract; Retune applies a new center
// frequency where the source supports it.
type Source interface {
	Read(buf []byte) (int, error)
	Retune(hz uint64) error
	Close() error
}

// SourceFailed wraps a capture source's terminal error (device-open or
// network failure): the decoder never treats this as fatal, it falls back
// to a silent-input mode while Supervisor reattempts the connection.
type SourceFailed struct {
	Variant string
	Err     error
}

func (e *SourceFailed) Error() string {
	return fmt.Sprintf("capture source %q failed: %v", e.Variant, e.Err)
}

func (e *SourceFailed) Unwrap() error { return e.Err }

// ErrClosed is returned by Read once the source (or its Supervisor) has
// been closed.
var ErrClosed = errors.New("capture source closed")
