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

package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/dsdneo/dsdneo-go/internal/config"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
)

func newTestCommand() *cobra.Command {
	cmd := &cobra.Command{Use: "test"}
	config.RegisterFlags(cmd)
	return cmd
}

func TestLoadDefaults(t *testing.T) {
	cmd := newTestCommand()
	opts, err := config.Load(cmd)
	require.NoError(t, err)
	require.Equal(t, config.LogLevelInfo, opts.LogLevel.Value)
	require.Equal(t, config.SourceNull, opts.Source.Variant.Value)
	require.True(t, opts.Trunking.TrunkEnable.Value)
	require.Equal(t, 3.0, opts.Trunking.HangtimeS.Value)
}

func TestLoadCLIOverridesDefault(t *testing.T) {
	cmd := newTestCommand()
	require.NoError(t, cmd.Flags().Set("source-variant", "rtl"))
	require.NoError(t, cmd.Flags().Set("trunk-hangtime-s", "7.5"))

	opts, err := config.Load(cmd)
	require.NoError(t, err)
	require.Equal(t, config.SourceRTL, opts.Source.Variant.Value)
	require.Equal(t, 7.5, opts.Trunking.HangtimeS.Value)
}

func TestLoadEnvOverridesFileAndDefault(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "dsdneo.ini")
	require.NoError(t, os.WriteFile(cfgPath, []byte("trunk-hangtime-s = 4.0\n"), 0o600))

	cmd := newTestCommand()
	require.NoError(t, cmd.Flags().Set("config", cfgPath))
	t.Setenv("DSDNEO_TRUNK_HANGTIME_S", "9.0")

	opts, err := config.Load(cmd)
	require.NoError(t, err)
	require.Equal(t, 9.0, opts.Trunking.HangtimeS.Value)
}

func TestLoadFileOverridesDefault(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "dsdneo.ini")
	require.NoError(t, os.WriteFile(cfgPath, []byte("trunk-hangtime-s = 4.0\n"), 0o600))

	cmd := newTestCommand()
	require.NoError(t, cmd.Flags().Set("config", cfgPath))

	opts, err := config.Load(cmd)
	require.NoError(t, err)
	require.Equal(t, 4.0, opts.Trunking.HangtimeS.Value)
}

func TestLoadRejectsInvalidSourceVariant(t *testing.T) {
	cmd := newTestCommand()
	require.NoError(t, cmd.Flags().Set("source-variant", "bogus"))

	_, err := config.Load(cmd)
	require.Error(t, err)
}

func TestTrunkingOptionsResolveFallsBackToDefaults(t *testing.T) {
	var partial config.TrunkingOptions
	partial.HangtimeS = config.From(12.0)

	resolved := partial.Resolve()
	require.Equal(t, 12.0, resolved.HangtimeS)
	// Untouched fields fall back to the same defaults DefaultTrunkingOptions returns.
	require.Equal(t, config.DefaultTrunkingOptions().CCGraceS.Value, resolved.CCGraceS)
}

func TestSetMergePrefersOverrideWhenSet(t *testing.T) {
	base := config.From(1)
	override := config.Set[int]{}
	require.Equal(t, base, base.Merge(override))

	override = config.From(2)
	require.Equal(t, override, base.Merge(override))
}
