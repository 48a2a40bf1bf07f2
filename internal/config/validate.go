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

	"github.com/go-playground/validator/v10"
)

// flatForValidation projects the generic Set[T]-wrapped Options fields that
// carry external input (enums, network addresses, numeric ranges) into a
// plain struct validator/v10 can reflect over directly; Set[T] itself isn't
// a shape the library's tag-based reflection handles well.
type flatForValidation struct {
	LogLevel      string `validate:"oneof=debug info warn error"`
	SourceVariant string `validate:"oneof=pulseaudio stdin wav rtl symbolfile udp tcp null"`
	SinkVariant   string `validate:"oneof=pulseaudio stdout wav udp null"`
	SampleRate    int    `validate:"gt=0"`
	DBDriver      string `validate:"oneof=sqlite postgres none"`

	HangtimeS           float64 `validate:"gte=0"`
	GrantVoiceToS       float64 `validate:"gte=0"`
	MinFollowDwellS     float64 `validate:"gte=0"`
	RetuneBackoffS      float64 `validate:"gte=0"`
	ForceReleaseExtraS  float64 `validate:"gte=0"`
	ForceReleaseMarginS float64 `validate:"gte=0"`
	CCGraceS            float64 `validate:"gte=0"`
}

var validate = validator.New() //nolint:gochecknoglobals

// Validate checks an Options record for the inconsistencies treated as
// fatal startup errors (invalid enum values, negative durations that
// would make the TSM or DSP front-end misbehave).
func Validate(o Options) error {
	flat := flatForValidation{
		LogLevel:      string(o.LogLevel.Value),
		SourceVariant: string(o.Source.Variant.Value),
		SinkVariant:   string(o.Sink.Variant.Value),
		SampleRate:    o.Source.SampleRate.Value,
		DBDriver:      string(o.Chanimport.DBDriver.Value),

		HangtimeS:           o.Trunking.HangtimeS.Value,
		GrantVoiceToS:       o.Trunking.GrantVoiceToS.Value,
		MinFollowDwellS:     o.Trunking.MinFollowDwellS.Value,
		RetuneBackoffS:      o.Trunking.RetuneBackoffS.Value,
		ForceReleaseExtraS:  o.Trunking.ForceReleaseExtraS.Value,
		ForceReleaseMarginS: o.Trunking.ForceReleaseMarginS.Value,
		CCGraceS:            o.Trunking.CCGraceS.Value,
	}
	if err := validate.Struct(flat); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}
