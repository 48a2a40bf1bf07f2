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

package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewCommandCarriesVersionAnnotations(t *testing.T) {
	t.Parallel()
	c := NewCommand("1.2.3", "abcdef0")
	assert.Equal(t, "1.2.3", c.Annotations["version"])
	assert.Equal(t, "abcdef0", c.Annotations["commit"])
	assert.Contains(t, c.Version, "1.2.3")
	assert.Contains(t, c.Version, "abcdef0")
}

func TestNewCommandRegistersConfigFlags(t *testing.T) {
	t.Parallel()
	c := NewCommand("dev", "none")
	assert.NotNil(t, c.Flags().Lookup("log-level"))
	assert.NotNil(t, c.Flags().Lookup("source-variant"))
}
