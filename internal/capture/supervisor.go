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
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dsdneo/dsdneo-go/internal/config"
)

// Opener constructs a fresh Source on demand; Supervisor calls it on
// startup and again after every reconnect.
type Opener func() (Source, error)

const defaultReconnectBackoff = 300 * time.Millisecond

// Supervisor wraps a Source with device-open/network reconnect
// semantics: a failed open or Read falls back to a silent-input NullSource
// (a failed Read also surfaces as SourceFailed) while a background
// goroutine retries the real Opener with exponential backoff. A failed
// Retune is returned to the caller unchanged and causes no fallback.
type Supervisor struct {
	variant string
	open    Opener
	backoff time.Duration

	mu      sync.Mutex
	current Source
	fell    atomic.Bool

	closed chan struct{}
}

// NewSupervisor constructs a Supervisor. backoff is the initial reconnect
// delay (default 300ms); it doubles on each consecutive failure up to a
// 30s ceiling.
func NewSupervisor(variant string, open Opener, backoff time.Duration) (*Supervisor, error) {
	if backoff <= 0 {
		backoff = defaultReconnectBackoff
	}
	s := &Supervisor{variant: variant, open: open, backoff: backoff, closed: make(chan struct{})}
	src, err := open()
	if err != nil {
		s.fellBack(err)
	} else {
		s.current = src
	}
	return s, nil
}

// FellBack reports whether the supervisor is currently serving silence
// because the real source failed to open or errored during Read.
func (s *Supervisor) FellBack() bool { return s.fell.Load() }

func (s *Supervisor) fellBack(err error) {
	slog.Warn("capture source failed, falling back to silent input", "variant", s.variant, "error", err)
	s.mu.Lock()
	s.current = NewNullSource()
	s.mu.Unlock()
	s.fell.Store(true)
	go s.reconnectLoop()
}

func (s *Supervisor) reconnectLoop() {
	delay := s.backoff
	const ceiling = 30 * time.Second
	for {
		select {
		case <-s.closed:
			return
		case <-time.After(delay):
		}
		src, err := s.open()
		if err != nil {
			slog.Warn("capture source reconnect attempt failed", "variant", s.variant, "error", err)
			delay *= 2
			if delay > ceiling {
				delay = ceiling
			}
			continue
		}
		s.mu.Lock()
		old := s.current
		s.current = src
		s.mu.Unlock()
		s.fell.Store(false)
		if old != nil {
			_ = old.Close()
		}
		slog.Info("capture source reconnected", "variant", s.variant)
		return
	}
}

func (s *Supervisor) Read(buf []byte) (int, error) {
	s.mu.Lock()
	cur := s.current
	s.mu.Unlock()
	n, err := cur.Read(buf)
	if err != nil && err != ErrClosed && !s.fell.Load() {
		s.fellBack(&SourceFailed{Variant: s.variant, Err: err})
		return n, nil
	}
	return n, err
}

func (s *Supervisor) Retune(hz uint64) error {
	s.mu.Lock()
	cur := s.current
	s.mu.Unlock()
	return cur.Retune(hz)
}

func (s *Supervisor) Close() error {
	select {
	case <-s.closed:
	default:
		close(s.closed)
	}
	s.mu.Lock()
	cur := s.current
	s.mu.Unlock()
	if cur != nil {
		return cur.Close()
	}
	return nil
}

// New constructs the Source variant named by opts, wrapped in a
// Supervisor so device-open/network failures never abort the decoder.
func New(opts config.SourceOptions) (*Supervisor, error) {
	variant := string(opts.Variant.Value)
	open := func() (Source, error) { return openVariant(opts) }
	return NewSupervisor(variant, open, defaultReconnectBackoff)
}

func openVariant(opts config.SourceOptions) (Source, error) {
	switch opts.Variant.Value {
	case config.SourceRTL:
		return DialRTLTCP(opts.Host.Value, opts.Port.Value)
	case config.SourceUDP:
		return DialUDPPCM(opts.Host.Value, opts.Port.Value)
	case config.SourceTCP:
		return DialTCPPCM(opts.Host.Value, opts.Port.Value)
	case config.SourceSymbolFile:
		return OpenSymbolCapture(opts.Device.Value, defaultReconnectBackoff)
	case config.SourceNull, config.SourceStdin, config.SourcePulseAudio, config.SourceWAV:
		// PulseAudio/stdin/WAV playback are owned by the platform audio
		// backend collaborator; the
		// core falls back to the null source so the rest of the pipeline
		// still exercises cleanly without that collaborator wired in.
		return NewNullSource(), nil
	default:
		return nil, fmt.Errorf("capture: unknown source variant %q", opts.Variant.Value)
	}
}
