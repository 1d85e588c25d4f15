// Copyright (C) 2025 Octank Labs (oss@octanklabs.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package trace

import "github.com/octanklabs/glassbox/pkg/backend"

// Simulated voice-channel legs, used when latency simulation is on. The
// demo has no real ASR/TTS; these are fixed representative figures.
const (
	simulatedASRMS = 380
	simulatedTTSMS = 290
)

// End-to-end latency thresholds for the waterfall badge.
const (
	waterfallWarnMS   = 2000
	waterfallDangerMS = 3000
)

// WaterfallLevel grades the end-to-end latency.
type WaterfallLevel string

const (
	LevelOK     WaterfallLevel = "ok"
	LevelWarn   WaterfallLevel = "warn"
	LevelDanger WaterfallLevel = "danger"
)

// WaterfallLeg is one sequential bar of the latency waterfall.
type WaterfallLeg struct {
	Label     string
	MS        int
	OffsetMS  int
	Simulated bool
}

// Waterfall is the Gantt-style latency breakdown for one turn.
type Waterfall struct {
	Legs    []WaterfallLeg
	TotalMS int
	Level   WaterfallLevel
}

// BuildWaterfall lays the breakdown legs end to end. When simulate is true,
// synthetic ASR and TTS legs bracket the real stages and count toward the
// total, mimicking a voice channel.
func BuildWaterfall(b backend.LatencyBreakdown, latencyMS int, simulate bool) Waterfall {
	var legs []WaterfallLeg
	offset := 0

	add := func(label string, ms int, simulated bool) {
		legs = append(legs, WaterfallLeg{Label: label, MS: ms, OffsetMS: offset, Simulated: simulated})
		offset += ms
	}

	if simulate {
		add("ASR", simulatedASRMS, true)
	}
	add("Classify", b.ClassificationMS, false)
	add("Tools", b.ToolsMS, false)
	add("Generate", b.GenerationMS, false)
	add("Guardrails", b.GuardrailsMS, false)
	if simulate {
		add("TTS", simulatedTTSMS, true)
	}

	total := latencyMS
	if simulate {
		total += simulatedASRMS + simulatedTTSMS
	}

	level := LevelOK
	switch {
	case total > waterfallDangerMS:
		level = LevelDanger
	case total > waterfallWarnMS:
		level = LevelWarn
	}

	return Waterfall{Legs: legs, TotalMS: total, Level: level}
}
