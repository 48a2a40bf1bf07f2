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

// Package cmd wires the CLI entrypoint: flag/env/file configuration
// loading, logger setup, and the pipeline.Pipeline run loop, with a
// signal-driven graceful-shutdown handler that waits on the pipeline with
// a forced-exit timeout.
package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/dsdneo/dsdneo-go/internal/config"
	"github.com/dsdneo/dsdneo-go/internal/logging"
	"github.com/dsdneo/dsdneo-go/internal/pipeline"
	"github.com/spf13/cobra"
)

// NewCommand builds the root cobra.Command.
func NewCommand(version, commit string) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "dsdneo",
		Version: fmt.Sprintf("%s - %s", version, commit),
		Annotations: map[string]string{
			"version": version,
			"commit":  commit,
		},
		RunE:              runRoot,
		SilenceErrors:     true,
		DisableAutoGenTag: true,
	}
	config.RegisterFlags(cmd)
	return cmd
}

func runRoot(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	fmt.Printf("dsdneo-go - %s (%s)\n", cmd.Annotations["version"], cmd.Annotations["commit"])

	opts, err := config.Load(cmd)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	slog.SetDefault(logging.New(opts.LogLevel.Value))

	p, err := pipeline.New(ctx, opts)
	if err != nil {
		return fmt.Errorf("failed to assemble decoder pipeline: %w", err)
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	runErr := make(chan error, 1)
	go func() { runErr <- p.Run(runCtx) }()

	setupShutdownHandlers(cancel, runErr)
	return nil
}

// setupShutdownHandlers blocks until either the pipeline exits on its own
// or a termination signal arrives, then drives an orderly shutdown: cancel
// the run context, wait for the pipeline goroutine to return, and force an
// exit if it doesn't within the timeout.
func setupShutdownHandlers(cancel context.CancelFunc, runErr <-chan error) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT, syscall.SIGHUP)

	select {
	case err := <-runErr:
		if err != nil {
			slog.Error("Decoder pipeline exited", "error", err)
			os.Exit(1)
		}
		slog.Info("Decoder pipeline exited cleanly")
		os.Exit(0)
	case sig := <-sigCh:
		slog.Error("Shutting down due to signal", "signal", sig)
	}

	cancel()

	wg := new(sync.WaitGroup)
	wg.Add(1)
	go func() {
		defer wg.Done()
		<-runErr
	}()

	const timeout = 10 * time.Second
	c := make(chan struct{})
	go func() {
		defer close(c)
		wg.Wait()
	}()
	select {
	case <-c:
		slog.Info("Decoder pipeline stopped, shutting down gracefully")
		os.Exit(0)
	case <-time.After(timeout):
		slog.Error("Shutdown timed out, forcing exit")
		os.Exit(1)
	}
}
