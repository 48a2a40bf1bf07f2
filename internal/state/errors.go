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

// ErrKind tags the decode-error taxonomy; it exists so the decoder's
// top-level goroutine can decide propagation policy (count-and-continue vs.
// abort-the-frame) without string-matching error text.
type ErrKind int

const (
	// ErrTransientDecode is a per-frame FEC/CRC failure: counted, no retry.
	ErrTransientDecode ErrKind = iota
	// ErrSoftCorrectable is a successful decode with non-zero corrections.
	ErrSoftCorrectable
	// ErrSyncLost surfaces to the TSM as SYNC_LOST.
	ErrSyncLost
	// ErrSourceFailure is an I/O error from the capture backend.
	ErrSourceFailure
	// ErrResourceExhaustion is a ring-full drop.
	ErrResourceExhaustion
	// ErrConfigInconsistency is a conflicting CLI/env/config value.
	ErrConfigInconsistency
	// ErrInvariantViolation indicates a programming bug: the frame is
	// aborted and the error logged, never silently corrected.
	ErrInvariantViolation
)

func (k ErrKind) String() string {
	switch k {
	case ErrSoftCorrectable:
		return "soft-correctable"
	case ErrSyncLost:
		return "sync-lost"
	case ErrSourceFailure:
		return "source-failure"
	case ErrResourceExhaustion:
		return "resource-exhaustion"
	case ErrConfigInconsistency:
		return "config-inconsistency"
	case ErrInvariantViolation:
		return "invariant-violation"
	default:
		return "transient-decode"
	}
}

// DecodeError pairs an ErrKind with the frame/layer it occurred in, the
// typed return value every decoder function reports to the pipeline
// instead of panicking.
type DecodeError struct {
	Kind  ErrKind
	Layer string
	Err   error
}

func (e *DecodeError) Error() string {
	if e.Err == nil {
		return e.Layer + ": " + e.Kind.String()
	}
	return e.Layer + ": " + e.Kind.String() + ": " + e.Err.Error()
}

func (e *DecodeError) Unwrap() error { return e.Err }
