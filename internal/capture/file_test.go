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
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/dsdneo/dsdneo-go/internal/capture"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectSymbolCaptureFormat(t *testing.T) {
	t.Parallel()
	assert.Equal(t, capture.SymbolFormatDibits, capture.DetectSymbolCaptureFormat("capture.bin"))
	assert.Equal(t, capture.SymbolFormatFloat, capture.DetectSymbolCaptureFormat("capture.sym"))
	assert.Equal(t, capture.SymbolFormatFloat, capture.DetectSymbolCaptureFormat("capture.raw"))
}

func TestSymbolCaptureSourceNeverTearsAUnit(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "capture.bin")
	require.NoError(t, os.WriteFile(path, []byte{0, 1, 2, 3, 0, 1}, 0o644))

	src, err := capture.OpenSymbolCapture(path, 0)
	require.NoError(t, err)
	defer src.Close()
	assert.Equal(t, capture.SymbolFormatDibits, src.Format())

	// A 3-byte buffer with unitSize 1 should read exactly 3 whole dibits.
	buf := make([]byte, 3)
	n, err := src.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, []byte{0, 1, 2}, buf)
}

func TestSymbolCaptureSourceReadsToEOF(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "capture.bin")
	require.NoError(t, os.WriteFile(path, []byte{0, 1, 2}, 0o644))

	src, err := capture.OpenSymbolCapture(path, 0)
	require.NoError(t, err)
	defer src.Close()

	buf := make([]byte, 16)
	total := 0
	for {
		n, err := src.Read(buf)
		total += n
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		if n == 0 {
			break
		}
	}
	assert.Equal(t, 3, total)
}
