// Copyright (C) 2025 Octank Labs (oss@octanklabs.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package trace assembles the ordered diagnostic timeline for the turn in
// progress from two independently-arriving sources: live push-channel events
// and the final turn response.
//
// The two sources overlap. The supervisor and routing stages are rendered
// live the moment the channel delivers them, and they appear again inside
// the response's trace_steps. Correctness of the merged timeline depends on
// one rule only, not on arrival order: Merge skips every response step of
// kind supervisor or routing. See session.Pipeline for the caller.
package trace

import "github.com/octanklabs/glassbox/pkg/backend"

// StepKind classifies a timeline entry by processing stage.
type StepKind string

const (
	KindSupervisor StepKind = "supervisor"
	KindRouting    StepKind = "routing"
	KindSpecialist StepKind = "specialist"
	KindToolCall   StepKind = "tool_call"
	KindRAGSearch  StepKind = "rag_search"
	KindGuardrail  StepKind = "guardrail"
	KindEscalation StepKind = "escalation"
)

// StepStatus is the outcome of a stage.
type StepStatus string

const (
	StatusSuccess StepStatus = "success"
	StatusBlocked StepStatus = "blocked"
)

// Step is one diagnostic timeline entry.
type Step struct {
	Name       string
	Kind       StepKind
	DurationMS int
	Status     StepStatus
	Details    map[string]any
}

// FromWire converts a backend trace step into a timeline step.
func FromWire(w backend.TraceStep) Step {
	return Step{
		Name:       w.Name,
		Kind:       StepKind(w.StepType),
		DurationMS: w.DurationMS,
		Status:     StepStatus(w.Status),
		Details:    w.Details,
	}
}

// ConfidenceTier buckets a turn's confidence for the total-summary badge.
type ConfidenceTier string

const (
	TierHigh   ConfidenceTier = "high"
	TierMedium ConfidenceTier = "medium"
	TierLow    ConfidenceTier = "low"
)

// TierFor maps confidence to its tier: ≥0.8 high, ≥0.5 medium, else low.
func TierFor(confidence float64) ConfidenceTier {
	switch {
	case confidence >= 0.8:
		return TierHigh
	case confidence >= 0.5:
		return TierMedium
	default:
		return TierLow
	}
}

// Summary is the synthetic closing entry of a turn's timeline: total
// latency plus the confidence tier. At most one exists per turn.
type Summary struct {
	LatencyMS  int
	Confidence float64
	Tier       ConfidenceTier
}

// Timeline holds the ordered, deduplicated trace for the turn in progress.
// It is cleared at the start of every accepted turn; all other hood state
// is session-scoped and lives elsewhere.
//
// Timeline is not safe for concurrent use. All mutation happens on the UI
// event loop.
type Timeline struct {
	steps   []Step
	summary *Summary
}

// NewTimeline returns an empty timeline.
func NewTimeline() *Timeline {
	return &Timeline{}
}

// AppendLive adds a step delivered by the push channel. The channel
// protocol has no failure signal, so live steps are always success.
//
// The timeline may hold at most one supervisor and one routing step per
// turn; a duplicate live step of either kind is dropped, which makes a
// replayed channel event harmless.
func (t *Timeline) AppendLive(s Step) {
	if s.Kind == KindSupervisor || s.Kind == KindRouting {
		for _, existing := range t.steps {
			if existing.Kind == s.Kind {
				return
			}
		}
	}
	s.Status = StatusSuccess
	t.steps = append(t.steps, s)
}

// Merge folds the response's trace steps into the timeline. Steps of kind
// supervisor or routing are skipped — they were already rendered via the
// live path — and the remainder is appended unchanged, in response order.
//
// This skip rule is the only ordering guarantee the design relies on: it
// holds whether the channel events arrived before or after the response.
func (t *Timeline) Merge(steps []Step) {
	for _, s := range steps {
		if s.Kind == KindSupervisor || s.Kind == KindRouting {
			continue
		}
		t.steps = append(t.steps, s)
	}
}

// SetSummary computes and installs the turn's total summary, replacing any
// existing one. Repeated calls with the same inputs are idempotent.
func (t *Timeline) SetSummary(latencyMS int, confidence float64) {
	t.summary = &Summary{
		LatencyMS:  latencyMS,
		Confidence: confidence,
		Tier:       TierFor(confidence),
	}
}

// Steps returns the ordered timeline entries. The returned slice is the
// timeline's own; callers must not mutate it.
func (t *Timeline) Steps() []Step {
	return t.steps
}

// Summary returns the total summary, or nil if none was computed yet.
func (t *Timeline) Summary() *Summary {
	return t.summary
}

// Len reports the number of steps, excluding the summary.
func (t *Timeline) Len() int {
	return len(t.steps)
}

// Reset clears the timeline for the next turn.
func (t *Timeline) Reset() {
	t.steps = nil
	t.summary = nil
}
