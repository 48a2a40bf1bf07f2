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

// Package diag implements the HTTP+WebSocket diagnostics server: a thin,
// swappable stand-in for a terminal UI. It never mutates decoder state
// directly; it reads published snapshots and exposes them to an operator
// process or test harness, and forwards operator commands as typed UI
// commands through a CommandSink.
package diag

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/pprof"
	"strings"
	"time"

	"github.com/dsdneo/dsdneo-go/internal/events"
	"github.com/dsdneo/dsdneo-go/internal/pdu"
	"github.com/dsdneo/dsdneo-go/internal/state"
	"github.com/dsdneo/dsdneo-go/internal/tsm"
	"github.com/gorilla/websocket"
	promhttp "github.com/prometheus/client_golang/prometheus/promhttp"
)

// StatePayload is the JSON body served at GET /snapshot.
type StatePayload struct {
	State state.Snapshot `json:"state"`
	TSM   TSMPayload     `json:"tsm"`
}

// TSMPayload is the trunking state machine's UI-facing view.
type TSMPayload struct {
	State        string   `json:"state"`
	Mode         string   `json:"mode"`
	TuneCount    uint64   `json:"tune_count"`
	ReleaseCount uint64   `json:"release_count"`
	CCReturn     uint64   `json:"cc_return_count"`
	ReasonTags   []string `json:"reason_tags"`
}

// CommandSink forwards a UI command toward the decoder goroutine's bounded
// command queue; it reports false when the queue is full.
type CommandSink func(pdu.UICommand) bool

// Server is the diagnostics HTTP+WebSocket surface. It is a side
// collaborator: operator actions it accepts are translated into the same
// typed UI-command channel the decoder already defines, never a direct
// mutation.
type Server struct {
	decoder *state.Decoder
	machine *tsm.Machine
	sink    CommandSink

	httpServer *http.Server
	upgrader   websocket.Upgrader
}

// NewServer builds a Server bound to decoder's snapshot contract and
// machine's UI-facing state. pprofEnabled mounts /debug/pprof/*.
func NewServer(addr string, decoder *state.Decoder, machine *tsm.Machine, pprofEnabled bool) *Server {
	s := &Server{
		decoder: decoder,
		machine: machine,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealthz)
	mux.HandleFunc("/snapshot", s.handleSnapshot)
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/ws", s.handleWS)
	mux.HandleFunc("/command", s.handleCommand)
	if pprofEnabled {
		mux.HandleFunc("/debug/pprof/", pprof.Index)
		mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
		mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
		mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
		mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
	}

	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Handler exposes the server's routes as a plain http.Handler, letting
// tests and httptest.NewServer drive it without binding a real listener.
func (s *Server) Handler() http.Handler { return s.httpServer.Handler }

// Start begins serving in a background goroutine; it never blocks.
func (s *Server) Start() {
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("diagnostics server stopped", "error", err)
		}
	}()
}

// Stop gracefully shuts the server down.
func (s *Server) Stop(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// SetCommandSink wires the operator-command path. Must be called before
// Start; without a sink, POST /command answers 503.
func (s *Server) SetCommandSink(sink CommandSink) { s.sink = sink }

// handleCommand translates an operator action into the decoder's typed
// UI-command queue. The server never mutates decoder state itself.
func (s *Server) handleCommand(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "POST only", http.StatusMethodNotAllowed)
		return
	}
	if s.sink == nil {
		http.Error(w, "no command sink wired", http.StatusServiceUnavailable)
		return
	}

	var req struct {
		Op    string  `json:"op"`
		Value uint64  `json:"value"`
		Power float64 `json:"power"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad request body", http.StatusBadRequest)
		return
	}

	var cmd pdu.UICommand
	switch req.Op {
	case "tg_hold":
		cmd = pdu.UICommand{Kind: pdu.UICommandSetTGHold, TG: uint32(req.Value)}
	case "squelch":
		cmd = pdu.UICommand{Kind: pdu.UICommandSetSquelch, PowerLinear: req.Power}
	case "retune":
		cmd = pdu.UICommand{Kind: pdu.UICommandRetune, FreqHz: req.Value}
	default:
		http.Error(w, "unknown op", http.StatusBadRequest)
		return
	}

	if !s.sink(cmd) {
		http.Error(w, "command queue full", http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

func (s *Server) tsmPayload() TSMPayload {
	if s.machine == nil {
		return TSMPayload{}
	}
	tune, release, ccReturn := s.machine.Counters()
	return TSMPayload{
		State:        s.machine.State().String(),
		Mode:         s.machine.Mode().String(),
		TuneCount:    tune,
		ReleaseCount: release,
		CCReturn:     ccReturn,
		ReasonTags:   s.machine.ReasonTags(),
	}
}

func (s *Server) handleSnapshot(w http.ResponseWriter, _ *http.Request) {
	payload := StatePayload{State: s.decoder.StateSnapshot(), TSM: s.tsmPayload()}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(payload)
}

// handleWS streams snapshots to the client on every decoder event
// publication, and on a 1s heartbeat so the TSM-only fields
// stay current even between events.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("diagnostics websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	sub := s.decoder.Hub.Subscribe()
	defer sub.Close()

	readFailed := make(chan struct{})
	go func() {
		defer close(readFailed)
		for {
			if _, msg, err := conn.ReadMessage(); err != nil {
				return
			} else if strings.EqualFold(string(msg), "ping") {
				if err := conn.WriteMessage(websocket.TextMessage, []byte("pong")); err != nil {
					return
				}
			}
		}
	}()

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	send := func(history events.Snapshot) bool {
		payload := struct {
			State   state.Snapshot  `json:"state"`
			TSM     TSMPayload      `json:"tsm"`
			History events.Snapshot `json:"history"`
		}{s.decoder.StateSnapshot(), s.tsmPayload(), history}
		return conn.WriteJSON(payload) == nil
	}

	for {
		select {
		case <-r.Context().Done():
			return
		case <-readFailed:
			return
		case hist := <-sub.Channel():
			if !send(hist) {
				return
			}
		case <-ticker.C:
			if !send(events.Snapshot{}) {
				return
			}
		}
	}
}
