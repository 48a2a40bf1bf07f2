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

// Package config holds the decoder's immutable-after-startup options
// record and the CLI/env/file/default loader
// that produces it.
package config

import "github.com/dsdneo/dsdneo-go/internal/tsm"

// Set wraps a value with whether it was ever explicitly assigned, giving
// every option field in this package an explicit "unset" sentinel so the
// loader can tell "the user set this to the zero value" apart from "the
// user never touched this knob" when applying CLI > env > file > default
// precedence.
type Set[T any] struct {
	Value T
	IsSet bool
}

// From marks v as explicitly set.
func From[T any](v T) Set[T] {
	return Set[T]{Value: v, IsSet: true}
}

// Or returns s.Value if set, otherwise def.
func (s Set[T]) Or(def T) T {
	if s.IsSet {
		return s.Value
	}
	return def
}

// Merge returns override if it is set, otherwise the receiver.
func (s Set[T]) Merge(override Set[T]) Set[T] {
	if override.IsSet {
		return override
	}
	return s
}

// SourceOptions configures the capture input.
type SourceOptions struct {
	Variant Set[SourceVariant]

	// Device/address fields; only the ones relevant to Variant are read.
	Device     Set[string] // PulseAudio device name, WAV path, symbol-capture path
	Host       Set[string] // RTL/UDP/TCP host
	Port       Set[int]    // RTL/UDP/TCP port
	SampleRate Set[int]
}

// SinkOptions configures the decoded-audio output.
type SinkOptions struct {
	Variant Set[SinkVariant]
	Device  Set[string]
	Host    Set[string]
	Port    Set[int]
}

// ProtocolEnables toggles which frame decoders run.
type ProtocolEnables struct {
	P25P1 Set[bool]
	P25P2 Set[bool]
	DMR   Set[bool]
}

// DSPOptions carries the DSP front-end knobs.
type DSPOptions struct {
	FiltersEnable  Set[bool]
	FMAGCEnable    Set[bool]
	FMAGCTargetRMS Set[float64]
	FMAGCMinRMS    Set[float64]
	FLLGainAlpha   Set[float64]
	FLLGainBeta    Set[float64]
	TEDEnable      Set[bool]
	DeemphasisMode Set[string]
	AggressiveSync Set[bool] // "aggressive_framesync" Open Question knob, preserved verbatim
	RelaxedCRC     Set[bool] // "relaxed CRC" Open Question knob, preserved verbatim

	// RetuneDrainMS bounds how much in-flight DSP output survives a retune:
	// up to this many milliseconds is drained by the consumer, 0 clears the
	// symbol ring immediately.
	RetuneDrainMS Set[int]
}

// TrunkingOptions mirrors tsm.Options with explicit-unset wrappers; Resolve
// collapses it against built-in defaults into the plain tsm.Options the
// state machine actually runs with.
type TrunkingOptions struct {
	TrunkEnable   Set[bool]
	AllowListMode Set[bool]
	AllowList     Set[[]uint32]

	TuneGroup     Set[bool]
	TunePrivate   Set[bool]
	TuneData      Set[bool]
	TuneEncrypted Set[bool]
	TGHold        Set[uint32]

	// HardsetIdentity pins the operator-supplied WACN/SYSID: network
	// status broadcasts then refresh the control channel but never
	// overwrite the identity.
	HardsetIdentity Set[bool]

	HangtimeS           Set[float64]
	GrantVoiceToS       Set[float64]
	MinFollowDwellS     Set[float64]
	RetuneBackoffS      Set[float64]
	ForceReleaseExtraS  Set[float64]
	ForceReleaseMarginS Set[float64]
	RingHoldS           Set[float64]
	P25P1ErrHoldS       Set[float64]
	MacHoldS            Set[float64]
	CCGraceS            Set[float64]
}

// Resolve collapses t against DefaultTrunkingOptions(), yielding the
// tsm.Options the trunking state machine runs with.
func (t TrunkingOptions) Resolve() tsm.Options {
	d := DefaultTrunkingOptions()
	return tsm.Options{
		TrunkEnable:   t.TrunkEnable.Or(d.TrunkEnable.Value),
		AllowListMode: t.AllowListMode.Or(d.AllowListMode.Value),
		AllowList:     t.AllowList.Or(d.AllowList.Value),

		TuneGroup:     t.TuneGroup.Or(d.TuneGroup.Value),
		TunePrivate:   t.TunePrivate.Or(d.TunePrivate.Value),
		TuneData:      t.TuneData.Or(d.TuneData.Value),
		TuneEncrypted: t.TuneEncrypted.Or(d.TuneEncrypted.Value),
		TGHold:        t.TGHold.Or(d.TGHold.Value),

		HangtimeS:           t.HangtimeS.Or(d.HangtimeS.Value),
		GrantVoiceToS:       t.GrantVoiceToS.Or(d.GrantVoiceToS.Value),
		MinFollowDwellS:     t.MinFollowDwellS.Or(d.MinFollowDwellS.Value),
		RetuneBackoffS:      t.RetuneBackoffS.Or(d.RetuneBackoffS.Value),
		ForceReleaseExtraS:  t.ForceReleaseExtraS.Or(d.ForceReleaseExtraS.Value),
		ForceReleaseMarginS: t.ForceReleaseMarginS.Or(d.ForceReleaseMarginS.Value),
		RingHoldS:           t.RingHoldS.Or(d.RingHoldS.Value),
		P25P1ErrHoldS:       t.P25P1ErrHoldS.Or(d.P25P1ErrHoldS.Value),
		MacHoldS:            t.MacHoldS.Or(d.MacHoldS.Value),
		CCGraceS:            t.CCGraceS.Or(d.CCGraceS.Value),
	}
}

// DiagOptions configures the diagnostics HTTP+WS server.
type DiagOptions struct {
	Enable     Set[bool]
	ListenAddr Set[string]
	PprofOn    Set[bool]
}

// ChanimportOptions configures the CSV import and optional persistence
// layer.
type ChanimportOptions struct {
	ChannelMapCSV Set[string]
	GroupListCSV  Set[string]
	KeysCSV       Set[string]

	DBDriver Set[DatabaseDriver]
	DBDSN    Set[string]
}

// CacheOptions configures the CC-candidate cache backing store.
type CacheOptions struct {
	Dir       Set[string] // cache root; one candidate file per system identity
	RedisAddr Set[string] // empty means the in-process map KV
}

// Options is the decoder's full configuration record: immutable after
// startup barring UI commands.
type Options struct {
	LogLevel Set[LogLevel]

	Source SourceOptions
	Sink   SinkOptions

	Protocols  ProtocolEnables
	DSP        DSPOptions
	Trunking   TrunkingOptions
	Diag       DiagOptions
	Chanimport ChanimportOptions
	Cache      CacheOptions
}
