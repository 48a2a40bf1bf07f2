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

// LogLevel represents the logging level for the application.
type LogLevel string

const (
	// LogLevelDebug is the debug logging level, providing detailed information.
	LogLevelDebug LogLevel = "debug"
	// LogLevelInfo is the informational logging level, providing general information.
	LogLevelInfo LogLevel = "info"
	// LogLevelWarn is the warning logging level, indicating potential issues.
	LogLevelWarn LogLevel = "warn"
	// LogLevelError is the error logging level, indicating serious issues.
	LogLevelError LogLevel = "error"
)

// SourceVariant selects the input capture source.
type SourceVariant string

const (
	SourcePulseAudio SourceVariant = "pulseaudio"
	SourceStdin      SourceVariant = "stdin"
	SourceWAV        SourceVariant = "wav"
	SourceRTL        SourceVariant = "rtl"
	SourceSymbolFile SourceVariant = "symbolfile"
	SourceUDP        SourceVariant = "udp"
	SourceTCP        SourceVariant = "tcp"
	SourceNull       SourceVariant = "null"
)

// SinkVariant selects the decoded-audio output sink.
type SinkVariant string

const (
	SinkPulseAudio SinkVariant = "pulseaudio"
	SinkStdout     SinkVariant = "stdout"
	SinkWAV        SinkVariant = "wav"
	SinkUDP        SinkVariant = "udp"
	SinkNull       SinkVariant = "null"
)

// DatabaseDriver selects the chanimport persistence backend.
type DatabaseDriver string

const (
	DatabaseDriverSQLite   DatabaseDriver = "sqlite"
	DatabaseDriverPostgres DatabaseDriver = "postgres"
	DatabaseDriverNone     DatabaseDriver = "none"
)
