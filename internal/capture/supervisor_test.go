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

package capture_test

import (
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dsdneo/dsdneo-go/internal/capture"
	"github.com/dsdneo/dsdneo-go/internal/testutils/retry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// failOnceSource fails its first Read, then behaves like a NullSource.
type failOnceSource struct {
	*capture.NullSource
	failed atomic.Bool
}

func (f *failOnceSource) Read(buf []byte) (int, error) {
	if !f.failed.Swap(true) {
		return 0, errors.New("simulated device error")
	}
	return f.NullSource.Read(buf)
}

func TestSupervisorFailsOverOnOpenError(t *testing.T) {
	t.Parallel()
	attempts := 0
	open := func() (capture.Source, error) {
		attempts++
		if attempts == 1 {
			return nil, errors.New("device busy")
		}
		return capture.NewNullSource(), nil
	}

	sup, err := capture.NewSupervisor("test", open, 10*time.Millisecond)
	require.NoError(t, err)
	defer sup.Close()

	assert.True(t, sup.FellBack())
	assert.Eventually(t, func() bool { return !sup.FellBack() }, time.Second, time.Millisecond)
}

func TestSupervisorFallsBackOnReadError(t *testing.T) {
	t.Parallel()
	opened := 0
	open := func() (capture.Source, error) {
		opened++
		return &failOnceSource{NullSource: capture.NewNullSource()}, nil
	}

	sup, err := capture.NewSupervisor("test", open, 10*time.Millisecond)
	require.NoError(t, err)
	defer sup.Close()
	require.False(t, sup.FellBack())

	buf := make([]byte, 4)
	n, err := sup.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	assert.True(t, sup.FellBack())

	assert.Eventually(t, func() bool { return !sup.FellBack() }, time.Second, time.Millisecond)
	assert.GreaterOrEqual(t, opened, 2)
}

// TestSupervisorRecoversAfterRepeatedOpenFailures drives the exponential
// backoff through several failed reopen attempts before the device comes
// back, polling with the retry helper since each backoff doubling pushes
// the recovery point further out than a fixed Eventually window likes.
func TestSupervisorRecoversAfterRepeatedOpenFailures(t *testing.T) {
	t.Parallel()
	var attempts atomic.Int32
	open := func() (capture.Source, error) {
		if attempts.Add(1) <= 3 {
			return nil, errors.New("device busy")
		}
		return capture.NewNullSource(), nil
	}

	sup, err := capture.NewSupervisor("test", open, time.Millisecond)
	require.NoError(t, err)
	defer sup.Close()
	require.True(t, sup.FellBack())

	retry.Retry(t, 50, 10*time.Millisecond, func(r *retry.R) {
		if sup.FellBack() {
			r.Errorf("still on the silent fallback after %d open attempts", attempts.Load())
		}
	})
	assert.GreaterOrEqual(t, attempts.Load(), int32(4))
}
