// Copyright (C) 2025 Octank Labs (oss@octanklabs.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package session

import (
	"log/slog"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/octanklabs/glassbox/pkg/backend"
	"github.com/octanklabs/glassbox/pkg/hood"
	"github.com/octanklabs/glassbox/pkg/trace"
)

// reviewPreviewLen caps the reply excerpt stored on a review item.
const reviewPreviewLen = 150

// medicalDisclosure catches member utterances that disclose injury or
// medical information, which must raise the hipaa compliance flag before
// anything leaves the client. Stems keep inflections like "injured" and
// "broken" in scope.
var medicalDisclosure = regexp.MustCompile(
	`(?i)\b(injur[a-z]*|hurt|hospital|doctor|medical|pain|ambulance|emergency room|er|broke|broken|bleeding)\b`)

// SubmitTurn runs the pre-dispatch half of the turn pipeline. It reports
// whether the turn was accepted; the host dispatches the backend request
// only on true and must then call exactly one of CompleteTurn or
// FailTurn.
//
// A blank message, a missing session, or an already in-flight turn is
// rejected without side effects, so double-submit while processing is a
// no-op.
func (c *Controller) SubmitTurn(text string) bool {
	text = strings.TrimSpace(text)
	if text == "" || c.sess == nil || c.processing {
		return false
	}

	c.processing = true
	c.fillerIdx = 0
	c.sess.TurnCount++
	c.timeline.Reset()
	c.waterfall = nil

	c.messages = append(c.messages, ChatMessage{
		Role:   RoleUser,
		Sender: c.sess.Member.Name,
		Text:   text,
		SentAt: time.Now(),
	})

	if medicalDisclosure.MatchString(text) {
		c.stores.RaiseFlag(hood.FlagHIPAA, "Member disclosed injury/medical information")
	}

	if c.cfg.LatencySim {
		gen := c.generation
		c.timers.Every(TimerFiller, fillerInterval, func() {
			c.notify(TimerEvent{Name: TimerFiller, Generation: gen})
		})
	}

	c.log.Debug("turn submitted",
		slog.String("session_id", c.sess.ID),
		slog.Int("turn", c.sess.TurnCount))
	return true
}

// CompleteTurn runs the post-response half of the pipeline: transcript,
// trace merge, store updates, review gating, guardrail handling, and the
// escalation trigger. The processing gate is released on every path.
func (c *Controller) CompleteTurn(resp *backend.TurnResponse) TurnOutcome {
	defer c.endTurn()

	if c.sess == nil {
		return TurnOutcome{}
	}
	turn := c.sess.TurnCount

	c.messages = append(c.messages, ChatMessage{
		Role:    RoleAssistant,
		Sender:  resp.Agent,
		Text:    resp.Response,
		Tools:   toolNames(resp.ToolsCalled),
		Sources: sourceDocs(resp.RAGSources),
		SentAt:  time.Now(),
	})
	c.sess.CurrentAgent = resp.Agent

	c.mergeTrace(resp)
	c.recordStores(turn, resp)
	c.reviewGate(turn, resp)
	blocked := c.applyGuardrails(turn, resp)

	outcome := TurnOutcome{Blocked: blocked}
	if resp.Escalated {
		c.scheduleHandoff(resp)
		outcome.Escalated = true
	}

	c.log.Info("turn completed",
		slog.String("session_id", c.sess.ID),
		slog.Int("turn", turn),
		slog.String("intent", resp.Intent),
		slog.Float64("confidence", resp.Confidence),
		slog.Int("latency_ms", resp.LatencyMS),
		slog.Bool("escalated", resp.Escalated))
	return outcome
}

// FailTurn handles a failed turn request: a fallback apology enters the
// transcript and nothing else changes. Stores and the trace keep whatever
// the live channel already delivered.
func (c *Controller) FailTurn(err error) {
	defer c.endTurn()

	if c.sess == nil {
		return
	}
	c.messages = append(c.messages, ChatMessage{
		Role:   RoleAssistant,
		Sender: "Assistant",
		Text:   fallbackReply,
		SentAt: time.Now(),
	})
	c.log.Error("turn failed",
		slog.String("session_id", c.sess.ID),
		slog.Int("turn", c.sess.TurnCount),
		slog.String("error", err.Error()))
}

func (c *Controller) endTurn() {
	c.timers.Cancel(TimerFiller)
	c.processing = false
}

func (c *Controller) mergeTrace(resp *backend.TurnResponse) {
	steps := make([]trace.Step, 0, len(resp.TraceSteps))
	for _, w := range resp.TraceSteps {
		steps = append(steps, trace.FromWire(w))
	}
	c.timeline.Merge(steps)
	if resp.LatencyMS > 0 {
		c.timeline.SetSummary(resp.LatencyMS, resp.Confidence)
	}
	if resp.LatencyBreakdown != nil {
		w := trace.BuildWaterfall(*resp.LatencyBreakdown, resp.LatencyMS, c.cfg.LatencySim)
		c.waterfall = &w
	}
}

func (c *Controller) recordStores(turn int, resp *backend.TurnResponse) {
	c.stores.SetSentiment(hood.Sentiment(resp.Sentiment))
	for _, tc := range resp.ToolsCalled {
		c.stores.AddTool(tc.Tool, tc.Input, tc.Output, tc.DurationMS)
	}
	for _, src := range resp.RAGSources {
		c.stores.AddKnowledge(hood.KnowledgeSource{
			SourceDoc: src.SourceDoc,
			Heading:   src.Heading,
			Excerpt:   src.ChunkText,
			Relevance: src.RelevanceScore,
		})
	}
	c.stores.AddAudit(hood.AuditEntry{
		Turn:      turn,
		Timestamp: time.Now(),
		LatencyMS: resp.LatencyMS,
		Intent:    resp.Intent,
		Agent:     resp.Agent,
		Sentiment: hood.Sentiment(resp.Sentiment),
		Tools:     toolNames(resp.ToolsCalled),
	})
}

// reviewGate queues the reply for human review when confidence falls
// strictly below the threshold. A reply exactly at the threshold passes.
func (c *Controller) reviewGate(turn int, resp *backend.TurnResponse) {
	if resp.Confidence >= c.cfg.ReviewThreshold {
		return
	}
	c.stores.AddReview(hood.ReviewItem{
		Turn:       turn,
		Confidence: resp.Confidence,
		Intent:     resp.Intent,
		Preview:    preview(resp.Response),
		Reason:     hood.ReasonLowConfidence,
	})
}

// applyGuardrails folds the response's guardrail flags into the
// compliance and review stores and reports whether the turn was blocked.
func (c *Controller) applyGuardrails(turn int, resp *backend.TurnResponse) bool {
	for _, f := range resp.GuardrailFlags {
		switch f.Type {
		case "topic_blocked":
			c.stores.RaiseFlag(hood.FlagTopicBlocked, "Blocked: "+topicLabel(f.Topic))
			if f.Topic == "medical_advice" {
				c.stores.RaiseFlag(hood.FlagHIPAA, "Medical advice request blocked")
			}
		case "pii_detected":
			types := piiTypes(f.Details)
			c.stores.AddReview(hood.ReviewItem{
				Turn:       turn,
				Confidence: 1.0,
				Intent:     "pii_detected",
				Preview:    "PII detected: " + types,
				Reason:     hood.ReasonPIIInInput,
			})
			c.stores.RaiseFlag(hood.FlagPII, "PII types: "+types)
		default:
			c.log.Warn("unrecognized guardrail flag", slog.String("type", f.Type))
		}
	}
	return resp.Intent == "blocked"
}

func toolNames(calls []backend.ToolCall) []string {
	if len(calls) == 0 {
		return nil
	}
	names := make([]string, 0, len(calls))
	for _, tc := range calls {
		names = append(names, tc.Tool)
	}
	return names
}

func sourceDocs(sources []backend.RAGSource) []string {
	if len(sources) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(sources))
	docs := make([]string, 0, len(sources))
	for _, src := range sources {
		if _, dup := seen[src.SourceDoc]; dup {
			continue
		}
		seen[src.SourceDoc] = struct{}{}
		docs = append(docs, src.SourceDoc)
	}
	return docs
}

func preview(text string) string {
	if len(text) <= reviewPreviewLen {
		return text
	}
	// Back off to a rune boundary so the cut never splits a multi-byte
	// character.
	cut := reviewPreviewLen
	for cut > 0 && !utf8.RuneStart(text[cut]) {
		cut--
	}
	return text[:cut]
}

func topicLabel(topic string) string {
	return strings.ReplaceAll(topic, "_", " ")
}

func piiTypes(details []backend.PIIDetail) string {
	if len(details) == 0 {
		return "unspecified"
	}
	types := make([]string, 0, len(details))
	for _, d := range details {
		types = append(types, d.Type)
	}
	return strings.Join(types, ", ")
}
