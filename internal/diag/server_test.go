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

package diag_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dsdneo/dsdneo-go/internal/diag"
	"github.com/dsdneo/dsdneo-go/internal/pdu"
	"github.com/dsdneo/dsdneo-go/internal/state"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandleHealthz(t *testing.T) {
	t.Parallel()
	srv := diag.NewServer("127.0.0.1:0", state.New(), nil, false)
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "ok"))
}

func TestHandleSnapshotReflectsDecoderState(t *testing.T) {
	t.Parallel()
	d := state.New()
	d.Identity.NAC = 0x3A1
	d.SlotVoice[0].AudioAllowed = true

	srv := diag.NewServer("127.0.0.1:0", d, nil, false)
	req := httptest.NewRequest(http.MethodGet, "/snapshot", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var payload diag.StatePayload
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	assert.EqualValues(t, 0x3A1, payload.State.Identity.NAC)
	assert.True(t, payload.State.SlotVoice[0].AudioAllowed)
}

func TestHandleCommandForwardsToSink(t *testing.T) {
	t.Parallel()
	srv := diag.NewServer("127.0.0.1:0", state.New(), nil, false)

	var got []pdu.UICommand
	srv.SetCommandSink(func(cmd pdu.UICommand) bool {
		got = append(got, cmd)
		return true
	})

	post := func(body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/command", strings.NewReader(body))
		rec := httptest.NewRecorder()
		srv.Handler().ServeHTTP(rec, req)
		return rec
	}

	assert.Equal(t, http.StatusAccepted, post(`{"op":"tg_hold","value":1234}`).Code)
	assert.Equal(t, http.StatusAccepted, post(`{"op":"retune","value":851000000}`).Code)
	assert.Equal(t, http.StatusBadRequest, post(`{"op":"reboot"}`).Code)

	require.Len(t, got, 2)
	assert.Equal(t, pdu.UICommandSetTGHold, got[0].Kind)
	assert.Equal(t, uint32(1234), got[0].TG)
	assert.Equal(t, pdu.UICommandRetune, got[1].Kind)
	assert.Equal(t, uint64(851000000), got[1].FreqHz)

	// GET is not a command, and a sink-less server refuses rather than
	// silently dropping.
	req := httptest.NewRequest(http.MethodGet, "/command", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)

	bare := diag.NewServer("127.0.0.1:0", state.New(), nil, false)
	req = httptest.NewRequest(http.MethodPost, "/command", strings.NewReader(`{"op":"tg_hold"}`))
	rec = httptest.NewRecorder()
	bare.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
