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

package config

import (
	"os"
	"path/filepath"
)

// DefaultTrunkingOptions returns the built-in defaults for the trunking
// follower knobs.
func DefaultTrunkingOptions() TrunkingOptions {
	return TrunkingOptions{
		TrunkEnable:   From(true),
		AllowListMode: From(false),
		AllowList:     From([]uint32(nil)),

		TuneGroup:     From(true),
		TunePrivate:   From(false),
		TuneData:      From(false),
		TuneEncrypted: From(false),
		TGHold:        From(uint32(0)),

		HardsetIdentity: From(false),

		HangtimeS:           From(3.0),
		GrantVoiceToS:       From(1.0),
		MinFollowDwellS:     From(0.5),
		RetuneBackoffS:      From(1.0),
		ForceReleaseExtraS:  From(1.0),
		ForceReleaseMarginS: From(0.5),
		RingHoldS:           From(0.75),
		P25P1ErrHoldS:       From(0.0),
		MacHoldS:            From(3.0),
		CCGraceS:            From(2.0),
	}
}

// DefaultOptions returns the built-in default Options (the last-resort
// layer of the CLI > env > config file > built-in default precedence).
func DefaultOptions() Options {
	return Options{
		LogLevel: From(LogLevelInfo),

		Source: SourceOptions{
			Variant:    From(SourceNull),
			SampleRate: From(48000),
		},
		Sink: SinkOptions{
			Variant: From(SinkNull),
		},

		Protocols: ProtocolEnables{
			P25P1: From(true),
			P25P2: From(true),
			DMR:   From(true),
		},

		DSP: DSPOptions{
			FiltersEnable:  From(true),
			FMAGCEnable:    From(true),
			FMAGCTargetRMS: From(0.3),
			FMAGCMinRMS:    From(0.01),
			FLLGainAlpha:   From(0.02),
			FLLGainBeta:    From(0.0002),
			TEDEnable:      From(true),
			DeemphasisMode: From("none"),
			AggressiveSync: From(false),
			RelaxedCRC:     From(false),
			RetuneDrainMS:  From(50),
		},

		Trunking: DefaultTrunkingOptions(),

		Diag: DiagOptions{
			Enable:     From(true),
			ListenAddr: From("127.0.0.1:9123"),
			PprofOn:    From(false),
		},

		Chanimport: ChanimportOptions{
			DBDriver: From(DatabaseDriverNone),
		},

		Cache: CacheOptions{
			Dir: From(defaultCacheDir()),
		},
	}
}

// defaultCacheDir is the CC-candidate cache root: the DSD_NEO_CACHE_DIR
// override when set, else a dsdneo directory under the platform cache
// root, else the working directory.
func defaultCacheDir() string {
	if dir := os.Getenv("DSD_NEO_CACHE_DIR"); dir != "" {
		return dir
	}
	if dir, err := os.UserCacheDir(); err == nil {
		return filepath.Join(dir, "dsdneo")
	}
	return "."
}
