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
	"testing"
	"time"

	"github.com/dsdneo/dsdneo-go/internal/capture"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNullSourceReadBlocksUntilClose(t *testing.T) {
	t.Parallel()
	src := capture.NewNullSource()
	require.NoError(t, src.Retune(851000000))

	done := make(chan error, 1)
	go func() {
		buf := make([]byte, 16)
		_, err := src.Read(buf)
		done <- err
	}()

	select {
	case <-done:
		t.Fatal("Read returned before Close")
	case <-time.After(20 * time.Millisecond):
	}

	require.NoError(t, src.Close())

	select {
	case err := <-done:
		assert.ErrorIs(t, err, capture.ErrClosed)
	case <-time.After(time.Second):
		t.Fatal("Read did not unblock after Close")
	}
}

func TestNullSourceCloseIsIdempotent(t *testing.T) {
	t.Parallel()
	src := capture.NewNullSource()
	require.NoError(t, src.Close())
	require.NoError(t, src.Close())
}
