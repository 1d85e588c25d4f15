// Copyright (C) 2025 Octank Labs (oss@octanklabs.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package hood holds the "under the hood" panel's derived observability
// state: tool invocations, knowledge sources, the audit log, the review
// queue, compliance flags, and the live sentiment reading.
//
// Everything here is session-scoped and monotonically growing. Unlike the
// trace timeline (cleared per turn), these stores are cleared together only
// when the session is reset or a new chat starts — Reset is the single
// teardown point.
//
// Stores is not safe for concurrent use; all mutation happens on the UI
// event loop.
package hood

import "time"

// =============================================================================
// Tool log
// =============================================================================

// AccessClass labels a tool invocation as read-only or mutating.
type AccessClass string

const (
	AccessRead  AccessClass = "read"
	AccessWrite AccessClass = "write"
)

// readTools is the static set of tools known to be read-only. Everything
// else is assumed to mutate backend state.
var readTools = map[string]struct{}{
	"get_eligibility":       {},
	"get_claim_status":      {},
	"search_knowledge_base": {},
}

// AccessFor derives the access class from the static read-tool set.
func AccessFor(tool string) AccessClass {
	if _, ok := readTools[tool]; ok {
		return AccessRead
	}
	return AccessWrite
}

// ToolInvocation is one tool call the backend performed, with payloads for
// the expandable tool card.
type ToolInvocation struct {
	Name       string
	Input      map[string]any
	Output     map[string]any
	DurationMS int
	Access     AccessClass
}

// =============================================================================
// Knowledge log
// =============================================================================

// KnowledgeSource is one retrieved excerpt shown in the knowledge tab.
// Server-provided order is preserved.
type KnowledgeSource struct {
	SourceDoc string
	Heading   string
	Excerpt   string
	Relevance float64
}

// =============================================================================
// Audit log
// =============================================================================

// AuditEntry is one turn's audit record. Entries are prepended (newest
// first) and never removed during the session.
type AuditEntry struct {
	Turn      int
	Timestamp time.Time
	LatencyMS int
	Intent    string
	Agent     string
	Sentiment Sentiment
	Tools     []string
}

// =============================================================================
// Review queue
// =============================================================================

// ReviewReason is why a turn was queued for human audit.
type ReviewReason string

const (
	ReasonLowConfidence ReviewReason = "low_confidence"
	ReasonPIIInInput    ReviewReason = "pii_in_input"
)

// ReviewItem is one queued turn. Items are appended for the session
// lifetime and never removed.
type ReviewItem struct {
	Turn       int
	Confidence float64
	Intent     string
	Preview    string
	Reason     ReviewReason
}

// =============================================================================
// Compliance flags
// =============================================================================

// FlagType enumerates the regulatory-relevant event categories.
type FlagType string

const (
	FlagHIPAA               FlagType = "hipaa"
	FlagPII                 FlagType = "pii"
	FlagSentimentEscalation FlagType = "sentiment_escalation"
	FlagTopicBlocked        FlagType = "topic_blocked"
)

// ComplianceFlag records that a category of event occurred this session.
// At most one flag exists per type; the first detail wins.
type ComplianceFlag struct {
	Type   FlagType
	Detail string
}

// =============================================================================
// Sentiment
// =============================================================================

// Sentiment is the member's current read, as classified by the backend.
type Sentiment string

const (
	SentimentPositive   Sentiment = "positive"
	SentimentNeutral    Sentiment = "neutral"
	SentimentConcerned  Sentiment = "concerned"
	SentimentFrustrated Sentiment = "frustrated"
	SentimentAngry      Sentiment = "angry"
)

// Label returns the display name for the sentiment; unknown values read as
// Neutral, matching the indicator's fallback.
func (s Sentiment) Label() string {
	switch s {
	case SentimentPositive:
		return "Positive"
	case SentimentConcerned:
		return "Concerned"
	case SentimentFrustrated:
		return "Frustrated"
	case SentimentAngry:
		return "Angry"
	default:
		return "Neutral"
	}
}

// =============================================================================
// Stores
// =============================================================================

// Stores aggregates the hood panel's session-scoped collections.
type Stores struct {
	tools     []ToolInvocation
	knowledge []KnowledgeSource
	audit     []AuditEntry
	review    []ReviewItem
	flags     []ComplianceFlag
	flagSeen  map[FlagType]struct{}
	sentiment Sentiment
}

// NewStores returns empty stores with a neutral sentiment reading.
func NewStores() *Stores {
	return &Stores{
		flagSeen:  make(map[FlagType]struct{}),
		sentiment: SentimentNeutral,
	}
}

// AddTool appends a tool invocation, deriving its access class.
func (s *Stores) AddTool(name string, input, output map[string]any, durationMS int) {
	s.tools = append(s.tools, ToolInvocation{
		Name:       name,
		Input:      input,
		Output:     output,
		DurationMS: durationMS,
		Access:     AccessFor(name),
	})
}

// AddKnowledge appends a knowledge source, preserving server order.
func (s *Stores) AddKnowledge(k KnowledgeSource) {
	s.knowledge = append(s.knowledge, k)
}

// AddAudit prepends an audit entry; the log reads newest first.
func (s *Stores) AddAudit(e AuditEntry) {
	s.audit = append([]AuditEntry{e}, s.audit...)
}

// AddReview appends a review-queue item.
func (s *Stores) AddReview(item ReviewItem) {
	s.review = append(s.review, item)
}

// RaiseFlag records a compliance flag, keyed by type. It reports whether
// the flag was newly raised; repeat triggers of the same type are no-ops.
func (s *Stores) RaiseFlag(t FlagType, detail string) bool {
	if _, seen := s.flagSeen[t]; seen {
		return false
	}
	s.flagSeen[t] = struct{}{}
	s.flags = append(s.flags, ComplianceFlag{Type: t, Detail: detail})
	return true
}

// SetSentiment updates the live reading. A frustrated or angry reading
// raises the sentiment_escalation compliance flag as a side effect.
func (s *Stores) SetSentiment(v Sentiment) {
	if v == "" {
		v = SentimentNeutral
	}
	s.sentiment = v
	if v == SentimentFrustrated || v == SentimentAngry {
		s.RaiseFlag(FlagSentimentEscalation, "Sentiment: "+string(v))
	}
}

// Tools returns the tool log in insertion order.
func (s *Stores) Tools() []ToolInvocation { return s.tools }

// Knowledge returns the knowledge log in insertion order.
func (s *Stores) Knowledge() []KnowledgeSource { return s.knowledge }

// Audit returns the audit log, newest first.
func (s *Stores) Audit() []AuditEntry { return s.audit }

// Review returns the review queue in insertion order.
func (s *Stores) Review() []ReviewItem { return s.review }

// Flags returns the compliance flags in the order first raised.
func (s *Stores) Flags() []ComplianceFlag { return s.flags }

// Sentiment returns the current sentiment reading.
func (s *Stores) Sentiment() Sentiment { return s.sentiment }

// Reset clears every store atomically. Called only on session reset or
// new-chat; individual stores are never cleared on their own.
func (s *Stores) Reset() {
	s.tools = nil
	s.knowledge = nil
	s.audit = nil
	s.review = nil
	s.flags = nil
	s.flagSeen = make(map[FlagType]struct{})
	s.sentiment = SentimentNeutral
}
