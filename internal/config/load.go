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
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// RegisterFlags declares every CLI flag the loader understands on cmd, with
// defaults matching DefaultOptions() so that a flag's own zero-configuration
// value already is the "built-in default" layer of the CLI > env > config
// file > built-in default precedence.
func RegisterFlags(cmd *cobra.Command) {
	d := DefaultOptions()
	f := cmd.Flags()

	f.String("config", "", "path to an INI config file")
	f.String("log-level", string(d.LogLevel.Value), "log level (debug, info, warn, error)")

	f.String("source-variant", string(d.Source.Variant.Value), "input source: pulseaudio, stdin, wav, rtl, symbolfile, udp, tcp, null")
	f.String("source-device", "", "input device/file path")
	f.String("source-host", "", "input host (rtl/udp/tcp)")
	f.Int("source-port", 0, "input port (rtl/udp/tcp)")
	f.Int("source-sample-rate", d.Source.SampleRate.Value, "input sample rate in Hz")

	f.String("sink-variant", string(d.Sink.Variant.Value), "output sink: pulseaudio, stdout, wav, udp, null")
	f.String("sink-device", "", "output device/file path")
	f.String("sink-host", "", "output host (udp)")
	f.Int("sink-port", 0, "output port (udp)")

	f.Bool("enable-p25p1", d.Protocols.P25P1.Value, "enable P25 Phase 1 decoding")
	f.Bool("enable-p25p2", d.Protocols.P25P2.Value, "enable P25 Phase 2 decoding")
	f.Bool("enable-dmr", d.Protocols.DMR.Value, "enable DMR decoding")

	f.Bool("dsp-filters", d.DSP.FiltersEnable.Value, "enable channel filtering")
	f.Bool("dsp-fm-agc", d.DSP.FMAGCEnable.Value, "enable FM AGC / envelope limiter")
	f.Float64("dsp-fm-agc-target-rms", d.DSP.FMAGCTargetRMS.Value, "FM AGC target RMS")
	f.Float64("dsp-fm-agc-min-rms", d.DSP.FMAGCMinRMS.Value, "FM AGC minimum engage RMS")
	f.Float64("dsp-fll-alpha", d.DSP.FLLGainAlpha.Value, "FLL proportional gain")
	f.Float64("dsp-fll-beta", d.DSP.FLLGainBeta.Value, "FLL integral gain")
	f.Bool("dsp-ted", d.DSP.TEDEnable.Value, "enable Gardner timing error detector")
	f.String("dsp-deemphasis", d.DSP.DeemphasisMode.Value, "deemphasis mode")
	f.Bool("aggressive-framesync", d.DSP.AggressiveSync.Value, "aggressive frame-sync search")
	f.Bool("relaxed-crc", d.DSP.RelaxedCRC.Value, "accept frames that fail CRC under relaxed thresholds")
	f.Int("dsp-retune-drain-ms", d.DSP.RetuneDrainMS.Value, "milliseconds of in-flight DSP output drained across a retune, 0 to clear")

	f.Bool("trunk-enable", d.Trunking.TrunkEnable.Value, "enable the trunking state machine")
	f.Bool("trunk-allow-list-mode", d.Trunking.AllowListMode.Value, "require talkgroups to appear on the allow-list")
	f.Bool("trunk-tune-group", d.Trunking.TuneGroup.Value, "follow group-call grants")
	f.Bool("trunk-tune-private", d.Trunking.TunePrivate.Value, "follow private-call grants")
	f.Bool("trunk-tune-data", d.Trunking.TuneData.Value, "follow data-call grants")
	f.Bool("trunk-tune-encrypted", d.Trunking.TuneEncrypted.Value, "follow encrypted-call grants")
	f.Uint32("trunk-tg-hold", d.Trunking.TGHold.Value, "hold on this talkgroup only, 0 to disable")
	f.Bool("trunk-hardset-identity", d.Trunking.HardsetIdentity.Value, "never let NET_STS broadcasts overwrite the configured WACN/SYSID")
	f.Float64("trunk-hangtime-s", d.Trunking.HangtimeS.Value, "seconds to linger on a voice channel after last voice")
	f.Float64("trunk-grant-voice-timeout-s", d.Trunking.GrantVoiceToS.Value, "seconds to wait for voice after a grant before releasing")
	f.Float64("trunk-min-follow-dwell-s", d.Trunking.MinFollowDwellS.Value, "minimum seconds to stay tuned before a hangtime release")
	f.Float64("trunk-retune-backoff-s", d.Trunking.RetuneBackoffS.Value, "minimum seconds between returns to the same (freq, slot)")
	f.Float64("trunk-force-release-extra-s", d.Trunking.ForceReleaseExtraS.Value, "extra seconds added to the force-release safety net")
	f.Float64("trunk-force-release-margin-s", d.Trunking.ForceReleaseMarginS.Value, "margin seconds added to the force-release safety net")
	f.Float64("trunk-ring-hold-s", d.Trunking.RingHoldS.Value, "extra hold seconds while the PCM ring shows recent activity")
	f.Float64("trunk-p25p1-err-hold-s", d.Trunking.P25P1ErrHoldS.Value, "extra hold seconds under elevated Phase 1 IMBE error rate")
	f.Float64("trunk-mac-hold-s", d.Trunking.MacHoldS.Value, "extra hold seconds anchored to the last MAC_ACTIVE")
	f.Float64("trunk-cc-grace-s", d.Trunking.CCGraceS.Value, "seconds without CC_SYNC before hunting")

	f.Bool("diag-enable", d.Diag.Enable.Value, "enable the diagnostics HTTP+WS server")
	f.String("diag-listen-addr", d.Diag.ListenAddr.Value, "diagnostics server listen address")
	f.Bool("diag-pprof", d.Diag.PprofOn.Value, "expose /debug/pprof on the diagnostics server")

	f.String("chanimport-channel-map-csv", "", "channel map CSV path")
	f.String("chanimport-group-list-csv", "", "group list CSV path")
	f.String("chanimport-keys-csv", "", "keys CSV path")
	f.String("chanimport-db-driver", string(d.Chanimport.DBDriver.Value), "chanimport persistence driver: sqlite, postgres, none")
	f.String("chanimport-db-dsn", "", "chanimport database DSN")

	f.String("cache-dir", d.Cache.Dir.Value, "CC-candidate cache directory (one file per system identity)")
	f.String("cache-redis-addr", "", "optional Redis address for a shared CC-candidate cache")
}

// Load resolves Options from cmd's flags, environment variables (prefixed
// DSDNEO_), and an optional INI config file, in CLI > env > config file >
// built-in default precedence, then validates the result.
func Load(cmd *cobra.Command) (Options, error) {
	v := viper.New()
	v.SetEnvPrefix("DSDNEO")
	v.AutomaticEnv()

	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return Options{}, fmt.Errorf("bind flags: %w", err)
	}

	configPath := v.GetString("config")
	if configPath == "" {
		configPath = os.Getenv("DSDNEO_CONFIG")
	}
	if configPath != "" {
		v.SetConfigFile(configPath)
		v.SetConfigType("ini")
		if err := v.ReadInConfig(); err != nil {
			return Options{}, fmt.Errorf("read config file %s: %w", configPath, err)
		}
	}

	opts := Options{
		LogLevel: From(LogLevel(v.GetString("log-level"))),

		Source: SourceOptions{
			Variant:    From(SourceVariant(v.GetString("source-variant"))),
			Device:     From(v.GetString("source-device")),
			Host:       From(v.GetString("source-host")),
			Port:       From(v.GetInt("source-port")),
			SampleRate: From(v.GetInt("source-sample-rate")),
		},
		Sink: SinkOptions{
			Variant: From(SinkVariant(v.GetString("sink-variant"))),
			Device:  From(v.GetString("sink-device")),
			Host:    From(v.GetString("sink-host")),
			Port:    From(v.GetInt("sink-port")),
		},

		Protocols: ProtocolEnables{
			P25P1: From(v.GetBool("enable-p25p1")),
			P25P2: From(v.GetBool("enable-p25p2")),
			DMR:   From(v.GetBool("enable-dmr")),
		},

		DSP: DSPOptions{
			FiltersEnable:  From(v.GetBool("dsp-filters")),
			FMAGCEnable:    From(v.GetBool("dsp-fm-agc")),
			FMAGCTargetRMS: From(v.GetFloat64("dsp-fm-agc-target-rms")),
			FMAGCMinRMS:    From(v.GetFloat64("dsp-fm-agc-min-rms")),
			FLLGainAlpha:   From(v.GetFloat64("dsp-fll-alpha")),
			FLLGainBeta:    From(v.GetFloat64("dsp-fll-beta")),
			TEDEnable:      From(v.GetBool("dsp-ted")),
			DeemphasisMode: From(v.GetString("dsp-deemphasis")),
			AggressiveSync: From(v.GetBool("aggressive-framesync")),
			RelaxedCRC:     From(v.GetBool("relaxed-crc")),
			RetuneDrainMS:  From(v.GetInt("dsp-retune-drain-ms")),
		},

		Trunking: TrunkingOptions{
			TrunkEnable:   From(v.GetBool("trunk-enable")),
			AllowListMode: From(v.GetBool("trunk-allow-list-mode")),

			TuneGroup:     From(v.GetBool("trunk-tune-group")),
			TunePrivate:   From(v.GetBool("trunk-tune-private")),
			TuneData:      From(v.GetBool("trunk-tune-data")),
			TuneEncrypted: From(v.GetBool("trunk-tune-encrypted")),
			TGHold:        From(uint32(v.GetUint("trunk-tg-hold"))),

			HardsetIdentity: From(v.GetBool("trunk-hardset-identity")),

			HangtimeS:           From(v.GetFloat64("trunk-hangtime-s")),
			GrantVoiceToS:       From(v.GetFloat64("trunk-grant-voice-timeout-s")),
			MinFollowDwellS:     From(v.GetFloat64("trunk-min-follow-dwell-s")),
			RetuneBackoffS:      From(v.GetFloat64("trunk-retune-backoff-s")),
			ForceReleaseExtraS:  From(v.GetFloat64("trunk-force-release-extra-s")),
			ForceReleaseMarginS: From(v.GetFloat64("trunk-force-release-margin-s")),
			RingHoldS:           From(v.GetFloat64("trunk-ring-hold-s")),
			P25P1ErrHoldS:       From(v.GetFloat64("trunk-p25p1-err-hold-s")),
			MacHoldS:            From(v.GetFloat64("trunk-mac-hold-s")),
			CCGraceS:            From(v.GetFloat64("trunk-cc-grace-s")),
		},

		Diag: DiagOptions{
			Enable:     From(v.GetBool("diag-enable")),
			ListenAddr: From(v.GetString("diag-listen-addr")),
			PprofOn:    From(v.GetBool("diag-pprof")),
		},

		Chanimport: ChanimportOptions{
			ChannelMapCSV: From(v.GetString("chanimport-channel-map-csv")),
			GroupListCSV:  From(v.GetString("chanimport-group-list-csv")),
			KeysCSV:       From(v.GetString("chanimport-keys-csv")),
			DBDriver:      From(DatabaseDriver(v.GetString("chanimport-db-driver"))),
			DBDSN:         From(v.GetString("chanimport-db-dsn")),
		},

		Cache: CacheOptions{
			Dir:       From(v.GetString("cache-dir")),
			RedisAddr: From(v.GetString("cache-redis-addr")),
		},
	}

	if err := Validate(opts); err != nil {
		return Options{}, err
	}
	return opts, nil
}
