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

// Package metrics exposes the decoder's FEC and TSM counters as
// Prometheus collectors: frame-pipeline FEC outcomes and
// trunking-state-machine tune/release activity. Ring producer-drop and
// read-timeout series are registered, but Sample adds no ring counts to them.
package metrics

import (
	"github.com/dsdneo/dsdneo-go/internal/ring"
	"github.com/dsdneo/dsdneo-go/internal/state"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics wraps the Prometheus collectors this package registers.
type Metrics struct {
	FECOutcomesTotal      *prometheus.CounterVec
	FECCorrectedSymbols   *prometheus.CounterVec
	DUIDTotal             *prometheus.CounterVec
	SoftDecisionSuccesses prometheus.Counter

	RingProducerDrops *prometheus.CounterVec
	RingReadTimeouts  *prometheus.CounterVec

	TSMTuneTotal     prometheus.Counter
	TSMReleaseTotal  prometheus.Counter
	TSMCCReturnTotal prometheus.Counter
}

// NewMetrics constructs and registers every collector against the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		FECOutcomesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dsdneo_fec_outcomes_total",
			Help: "FEC decode outcomes per protected layer",
		}, []string{"layer", "result"}),
		FECCorrectedSymbols: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dsdneo_fec_corrected_symbols_total",
			Help: "Symbols corrected by soft-decision FEC per protected layer",
		}, []string{"layer"}),
		DUIDTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dsdneo_p25p1_duid_total",
			Help: "P25 Phase 1 frames observed per DUID",
		}, []string{"duid"}),
		SoftDecisionSuccesses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dsdneo_soft_decision_successes_total",
			Help: "Total successful soft-decision (erasure-aware) FEC decodes",
		}),
		RingProducerDrops: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dsdneo_ring_producer_drops_total",
			Help: "Items dropped by a full SPSC ring",
		}, []string{"ring"}),
		RingReadTimeouts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dsdneo_ring_read_timeouts_total",
			Help: "Reads that timed out against an empty SPSC ring",
		}, []string{"ring"}),
		TSMTuneTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dsdneo_tsm_tune_total",
			Help: "Total grants the trunking state machine acted on",
		}),
		TSMReleaseTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dsdneo_tsm_release_total",
			Help: "Total voice-channel releases",
		}),
		TSMCCReturnTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dsdneo_tsm_cc_return_total",
			Help: "Total returns to the control channel",
		}),
	}
	m.register()
	return m
}

func (m *Metrics) register() {
	prometheus.MustRegister(
		m.FECOutcomesTotal,
		m.FECCorrectedSymbols,
		m.DUIDTotal,
		m.SoftDecisionSuccesses,
		m.RingProducerDrops,
		m.RingReadTimeouts,
		m.TSMTuneTotal,
		m.TSMReleaseTotal,
		m.TSMCCReturnTotal,
	)
}

var duidNames = [...]string{"HDU", "LDU1", "LDU2", "TDU", "TDULC", "TSBK", "MPDU"}

func (m *Metrics) observeLayer(layer string, l *state.LayerCounter, lastOK, lastFail, lastSoft, lastCorrected uint64) (ok, fail, soft, corrected uint64) {
	ok, fail = l.OK.Load(), l.Fail.Load()
	soft = l.SoftOK.Load()
	corrected = l.CorrectedSymbols.Load()
	if d := ok - lastOK; d > 0 {
		m.FECOutcomesTotal.WithLabelValues(layer, "ok").Add(float64(d))
	}
	if d := fail - lastFail; d > 0 {
		m.FECOutcomesTotal.WithLabelValues(layer, "fail").Add(float64(d))
	}
	if d := corrected - lastCorrected; d > 0 {
		m.FECCorrectedSymbols.WithLabelValues(layer).Add(float64(d))
	}
	_ = lastSoft
	return
}

// observed is the last-seen cumulative counter values, used to turn the
// decoder's monotonically-increasing atomic counters into Prometheus
// counter .Add() deltas without double-registering a second collector tree
// per decoder instance.
type observed struct {
	tsbkOK, tsbkFail, tsbkCorr    uint64
	voiceOK, voiceFail, voiceCorr uint64
	facchOK, facchFail, facchCorr uint64
	sacchOK, sacchFail, sacchCorr uint64
	essOK, essFail, essCorr       uint64
	duid                          [7]uint64
	softSuccesses                 uint64
	tune, release, ccReturn       uint64
}

// Sample pulls the latest values out of c, updating the FEC, DUID,
// soft-decision and TSM collectors by the observed delta. For each named
// entry in rings it only creates the producer-drop series (adding zero); no
// ring drop or timeout counts are added. The pipeline's symbol-drain loop
// calls it; Prometheus counters never go backward, so Sample is safe to
// call from any single goroutine at any cadence.
func (m *Metrics) Sample(c *state.Counters, o *observed, rings map[string]*ring.Stats) {
	o.tsbkOK, o.tsbkFail, _, o.tsbkCorr = m.observeLayer("p1_tsbk_header", &c.P1TSBKHeader, o.tsbkOK, o.tsbkFail, 0, o.tsbkCorr)
	o.voiceOK, o.voiceFail, _, o.voiceCorr = m.observeLayer("p1_voice_rs", &c.P1VoiceRS, o.voiceOK, o.voiceFail, 0, o.voiceCorr)
	o.facchOK, o.facchFail, _, o.facchCorr = m.observeLayer("p2_facch", &c.P2FACCH, o.facchOK, o.facchFail, 0, o.facchCorr)
	o.sacchOK, o.sacchFail, _, o.sacchCorr = m.observeLayer("p2_sacch", &c.P2SACCH, o.sacchOK, o.sacchFail, 0, o.sacchCorr)
	o.essOK, o.essFail, _, o.essCorr = m.observeLayer("p2_ess", &c.P2ESS, o.essOK, o.essFail, 0, o.essCorr)

	for i := range c.DUIDHistogram {
		v := c.DUIDHistogram[i].Load()
		if d := v - o.duid[i]; d > 0 {
			name := "UNKNOWN"
			if i < len(duidNames) {
				name = duidNames[i]
			}
			m.DUIDTotal.WithLabelValues(name).Add(float64(d))
		}
		o.duid[i] = v
	}

	if v := c.SoftDecisionSuccesses.Load(); v > o.softSuccesses {
		m.SoftDecisionSuccesses.Add(float64(v - o.softSuccesses))
		o.softSuccesses = v
	}
	if v := c.TuneCount.Load(); v > o.tune {
		m.TSMTuneTotal.Add(float64(v - o.tune))
		o.tune = v
	}
	if v := c.ReleaseCount.Load(); v > o.release {
		m.TSMReleaseTotal.Add(float64(v - o.release))
		o.release = v
	}
	if v := c.CCReturnCount.Load(); v > o.ccReturn {
		m.TSMCCReturnTotal.Add(float64(v - o.ccReturn))
		o.ccReturn = v
	}

	for name, s := range rings {
		m.RingProducerDrops.WithLabelValues(name).Add(0) // ensure series exists
		_ = s
	}
}

// NewObserved returns a zeroed delta-tracking cursor for Sample.
func NewObserved() *observed { return &observed{} }
