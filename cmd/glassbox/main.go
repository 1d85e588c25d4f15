// Copyright (C) 2025 Octank Labs (oss@octanklabs.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// glassbox is the Octank Insurance virtual-agent demo client: a terminal
// chat UI with an "under the hood" panel that exposes the orchestration
// trace, tool calls, retrieval sources, review queue, audit log, and
// compliance flags behind every reply.
package main

import (
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/octanklabs/glassbox/pkg/backend"
	"github.com/octanklabs/glassbox/pkg/logging"
	"github.com/octanklabs/glassbox/pkg/session"
)

var flags struct {
	backendURL      string
	logDir          string
	latencySim      bool
	reviewThreshold float64
	regionEU        bool
	debug           bool
}

var rootCmd = &cobra.Command{
	Use:   "glassbox",
	Short: "Octank Insurance virtual-agent demo client",
	Long: `glassbox connects to the Octank Insurance virtual-agent backend and
renders the member chat experience alongside full turn diagnostics:
the orchestration trace, tool invocations, knowledge sources, human
review queue, audit log, and compliance flags.`,
	SilenceUsage: true,
	RunE:         run,
}

func init() {
	rootCmd.Flags().StringVar(&flags.backendURL, "backend-url", "http://localhost:8000",
		"base URL of the virtual-agent backend")
	rootCmd.Flags().StringVar(&flags.logDir, "log-dir", "~/.glassbox/logs",
		"directory for log files")
	rootCmd.Flags().BoolVar(&flags.latencySim, "latency-sim", true,
		"simulate voice-channel latency legs on the waterfall")
	rootCmd.Flags().Float64Var(&flags.reviewThreshold, "review-threshold", 0.7,
		"queue replies for human review below this confidence")
	rootCmd.Flags().BoolVar(&flags.regionEU, "region-eu", false,
		"present compliance flags under GDPR framing instead of HIPAA")
	rootCmd.Flags().BoolVar(&flags.debug, "debug", false,
		"enable debug logging")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	if !isatty.IsTerminal(os.Stdout.Fd()) && !isatty.IsCygwinTerminal(os.Stdout.Fd()) {
		return fmt.Errorf("glassbox is interactive and requires a terminal")
	}

	level := logging.LevelInfo
	if flags.debug {
		level = logging.LevelDebug
	}
	// Quiet keeps slog output off stderr; the alternate screen owns the
	// terminal while the program runs.
	log := logging.New(logging.Config{
		Level:   level,
		LogDir:  flags.logDir,
		Service: "glassbox",
		JSON:    true,
		Quiet:   true,
	})
	defer log.Close()

	client, err := backend.NewClient(backend.Config{
		BaseURL: flags.backendURL,
		Timeout: 30 * time.Second,
	})
	if err != nil {
		return fmt.Errorf("backend client: %w", err)
	}

	m := newModel(modelConfig{
		client:     client,
		backendURL: flags.backendURL,
		log:        log,
		session: session.Config{
			ReviewThreshold: flags.reviewThreshold,
			LatencySim:      flags.latencySim,
			RegionEU:        flags.regionEU,
		},
	})

	p := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		log.Error("program exited with error", "error", err)
		return err
	}
	return nil
}
