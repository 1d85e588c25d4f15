// Copyright (C) 2025 Octank Labs (oss@octanklabs.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package trace

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/octanklabs/glassbox/pkg/backend"
)

func liveSupervisor() Step {
	return Step{Name: "Supervisor Classification", Kind: KindSupervisor, DurationMS: 120}
}

func liveRouting() Step {
	return Step{Name: "Route → claim_status", Kind: KindRouting}
}

func responseSteps() []Step {
	return []Step{
		{Name: "Supervisor Classification", Kind: KindSupervisor, Status: StatusSuccess},
		{Name: "Route → claim_status", Kind: KindRouting, Status: StatusSuccess},
		{Name: "Claims Specialist", Kind: KindSpecialist, Status: StatusSuccess, DurationMS: 640},
		{Name: "get_claim_status", Kind: KindToolCall, Status: StatusSuccess, DurationMS: 85},
	}
}

func TestTimeline_AppendLive_DropsDuplicateSupervisorAndRouting(t *testing.T) {
	tl := NewTimeline()
	tl.AppendLive(liveSupervisor())
	tl.AppendLive(liveSupervisor())
	tl.AppendLive(liveRouting())
	tl.AppendLive(liveRouting())

	require.Equal(t, 2, tl.Len())
	assert.Equal(t, KindSupervisor, tl.Steps()[0].Kind)
	assert.Equal(t, KindRouting, tl.Steps()[1].Kind)
}

func TestTimeline_AppendLive_ForcesSuccessStatus(t *testing.T) {
	tl := NewTimeline()
	tl.AppendLive(Step{Name: "Supervisor Classification", Kind: KindSupervisor, Status: StatusBlocked})

	require.Equal(t, 1, tl.Len())
	assert.Equal(t, StatusSuccess, tl.Steps()[0].Status)
}

func TestTimeline_Merge_SkipsLiveRenderedKinds(t *testing.T) {
	tl := NewTimeline()
	tl.AppendLive(liveSupervisor())
	tl.AppendLive(liveRouting())
	tl.Merge(responseSteps())

	require.Equal(t, 4, tl.Len())
	kinds := []StepKind{}
	for _, s := range tl.Steps() {
		kinds = append(kinds, s.Kind)
	}
	assert.Equal(t, []StepKind{KindSupervisor, KindRouting, KindSpecialist, KindToolCall}, kinds)
}

// The dedup rule must hold regardless of whether the channel events beat
// the response or arrived after it.
func TestTimeline_Merge_OrderIndependent(t *testing.T) {
	t.Run("live before merge", func(t *testing.T) {
		tl := NewTimeline()
		tl.AppendLive(liveSupervisor())
		tl.AppendLive(liveRouting())
		tl.Merge(responseSteps())

		assert.Equal(t, 4, tl.Len())
	})

	t.Run("merge before live", func(t *testing.T) {
		tl := NewTimeline()
		tl.Merge(responseSteps())
		tl.AppendLive(liveSupervisor())
		tl.AppendLive(liveRouting())

		// Supervisor and routing still appear exactly once each.
		assert.Equal(t, 4, tl.Len())
		supervisors, routings := 0, 0
		for _, s := range tl.Steps() {
			switch s.Kind {
			case KindSupervisor:
				supervisors++
			case KindRouting:
				routings++
			}
		}
		assert.Equal(t, 1, supervisors)
		assert.Equal(t, 1, routings)
	})
}

func TestTimeline_Merge_KeepsBlockedSteps(t *testing.T) {
	tl := NewTimeline()
	tl.Merge([]Step{
		{Name: "Guardrail Check", Kind: KindGuardrail, Status: StatusBlocked},
	})

	require.Equal(t, 1, tl.Len())
	assert.Equal(t, StatusBlocked, tl.Steps()[0].Status)
}

func TestTimeline_SetSummary_SingleAndIdempotent(t *testing.T) {
	tl := NewTimeline()
	tl.SetSummary(1240, 0.87)
	tl.SetSummary(1240, 0.87)

	s := tl.Summary()
	require.NotNil(t, s)
	assert.Equal(t, 1240, s.LatencyMS)
	assert.Equal(t, 0.87, s.Confidence)
	assert.Equal(t, TierHigh, s.Tier)
	assert.Equal(t, 0, tl.Len(), "summary must not be a step")
}

func TestTimeline_Reset(t *testing.T) {
	tl := NewTimeline()
	tl.AppendLive(liveSupervisor())
	tl.SetSummary(900, 0.9)

	tl.Reset()
	assert.Equal(t, 0, tl.Len())
	assert.Nil(t, tl.Summary())
}

func TestTierFor(t *testing.T) {
	tests := []struct {
		confidence float64
		want       ConfidenceTier
	}{
		{0.95, TierHigh},
		{0.8, TierHigh},
		{0.79, TierMedium},
		{0.7, TierMedium},
		{0.5, TierMedium},
		{0.49, TierLow},
		{0.42, TierLow},
		{0.0, TierLow},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, TierFor(tt.confidence), "confidence %v", tt.confidence)
	}
}

func TestFromWire(t *testing.T) {
	w := backend.TraceStep{
		Name:       "Guardrail Check",
		StepType:   "guardrail",
		DurationMS: 45,
		Status:     "blocked",
		Details:    map[string]any{"topic": "medical_advice"},
	}

	s := FromWire(w)
	assert.Equal(t, "Guardrail Check", s.Name)
	assert.Equal(t, KindGuardrail, s.Kind)
	assert.Equal(t, 45, s.DurationMS)
	assert.Equal(t, StatusBlocked, s.Status)
	assert.Equal(t, "medical_advice", s.Details["topic"])
}
