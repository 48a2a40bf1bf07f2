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

// Package sdk carries the build-time identity stamped into the CLI version
// string, log lines, and diagnostics payloads.
package sdk

// Version and GitCommit are overridden by release builds via
//
//	-ldflags "-X github.com/dsdneo/dsdneo-go/internal/sdk.Version=v... \
//	          -X github.com/dsdneo/dsdneo-go/internal/sdk.GitCommit=..."
//
// The defaults identify a from-source development build.
var (
	Version   = "0.0.0-dev" //nolint:gochecknoglobals
	GitCommit = "unknown"   //nolint:gochecknoglobals
)
