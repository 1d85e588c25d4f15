// Copyright (C) 2025 Octank Labs (oss@octanklabs.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package backend

// Wire types for the demo backend. Field names and JSON tags mirror the
// server contract exactly; do not rename tags without a server change.

// Coverage describes a member's active coverage.
type Coverage struct {
	Type       string `json:"type"`
	Deductible int    `json:"deductible"`
}

// Member is one entry of the member directory.
type Member struct {
	MemberID     string   `json:"member_id"`
	Name         string   `json:"name"`
	PolicyNumber string   `json:"policy_number"`
	PolicyType   string   `json:"policy_type"`
	Phone        string   `json:"phone,omitempty"`
	Email        string   `json:"email,omitempty"`
	Coverage     Coverage `json:"coverage,omitempty"`
}

// StartSessionRequest opens a new session for a member.
type StartSessionRequest struct {
	MemberID string `json:"member_id"`
}

// StartSessionResponse carries the server-assigned session identity and the
// resolved member record.
type StartSessionResponse struct {
	SessionID string `json:"session_id"`
	Member    Member `json:"member"`
}

// TurnRequest submits one user message for the session.
type TurnRequest struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
}

// ToolCall records one tool invocation the backend performed for a turn.
type ToolCall struct {
	Tool       string         `json:"tool"`
	Input      map[string]any `json:"input"`
	Output     map[string]any `json:"output"`
	DurationMS int            `json:"duration_ms"`
}

// RAGSource is one knowledge-base excerpt the backend retrieved.
type RAGSource struct {
	ChunkText      string  `json:"chunk_text"`
	SourceDoc      string  `json:"source_doc"`
	Heading        string  `json:"heading,omitempty"`
	Page           *int    `json:"page,omitempty"`
	RelevanceScore float64 `json:"relevance_score"`
}

// TraceStep is one diagnostic timeline entry from the backend's processing
// trace. StepType and Status values are defined by pkg/trace; the backend may
// also emit statuses this client renders verbatim.
type TraceStep struct {
	Name       string         `json:"name"`
	StepType   string         `json:"step_type"`
	DurationMS int            `json:"duration_ms"`
	Status     string         `json:"status"`
	Details    map[string]any `json:"details,omitempty"`
}

// PIIDetail names one detected PII category. The backend never echoes the
// matched text, only the category.
type PIIDetail struct {
	Type   string `json:"type"`
	Action string `json:"action"`
}

// GuardrailFlag is a policy-violation signal raised during turn processing.
type GuardrailFlag struct {
	Type    string      `json:"type"`
	Topic   string      `json:"topic,omitempty"`
	Action  string      `json:"action,omitempty"`
	Details []PIIDetail `json:"details,omitempty"`
}

// HandoffContext is the abbreviated escalation context attached to a turn
// response. The full context comes from AgentDesktop.
type HandoffContext struct {
	Summary       string   `json:"summary"`
	Intent        string   `json:"intent"`
	ActionsTaken  []string `json:"actions_taken"`
	OpenQuestions []string `json:"open_questions"`
	RetrievedDocs []string `json:"retrieved_docs"`
	Sentiment     string   `json:"sentiment"`
}

// LatencyBreakdown splits a turn's server latency by processing stage.
type LatencyBreakdown struct {
	ClassificationMS int `json:"classification_ms"`
	ToolsMS          int `json:"tools_ms"`
	GenerationMS     int `json:"generation_ms"`
	GuardrailsMS     int `json:"guardrails_ms"`
}

// TurnResponse is the complete result of one submitted turn.
type TurnResponse struct {
	Response         string            `json:"response"`
	Intent           string            `json:"intent"`
	Agent            string            `json:"agent"`
	ToolsCalled      []ToolCall        `json:"tools_called"`
	RAGSources       []RAGSource       `json:"rag_sources"`
	TraceSteps       []TraceStep       `json:"trace_steps"`
	Escalated        bool              `json:"escalated"`
	EscalationReason string            `json:"escalation_reason"`
	HandoffContext   *HandoffContext   `json:"handoff_context,omitempty"`
	Confidence       float64           `json:"confidence"`
	Sentiment        string            `json:"sentiment"`
	LatencyMS        int               `json:"latency_ms"`
	LatencyBreakdown *LatencyBreakdown `json:"latency_breakdown,omitempty"`
	GuardrailFlags   []GuardrailFlag   `json:"guardrail_flags,omitempty"`
}

// ConversationMessage is one transcript entry in the hand-off context.
type ConversationMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ActionTaken is one AI-performed action summarized for the human agent.
type ActionTaken struct {
	Description string `json:"description"`
	Tool        string `json:"tool,omitempty"`
	Turn        int    `json:"turn"`
}

// KnowledgeItem is a retrieved or proactively suggested document excerpt in
// the hand-off context, annotated with the turn that produced it.
type KnowledgeItem struct {
	SourceDoc      string  `json:"source_doc"`
	ChunkText      string  `json:"chunk_text"`
	Heading        string  `json:"heading,omitempty"`
	RelevanceScore float64 `json:"relevance_score"`
	Turn           int     `json:"turn,omitempty"`
	Intent         string  `json:"intent,omitempty"`
}

// SessionMeta summarizes the session for the agent desktop header.
type SessionMeta struct {
	CreatedAt      float64 `json:"created_at"`
	TurnCount      int     `json:"turn_count"`
	CurrentIntent  string  `json:"current_intent"`
	CurrentAgent   string  `json:"current_agent"`
	ToolsUsedCount int     `json:"tools_used_count"`
	AssemblyMS     int     `json:"assembly_ms"`
}

// EscalationDetail records how and when the session escalated.
type EscalationDetail struct {
	Escalated bool   `json:"escalated"`
	Reason    string `json:"reason,omitempty"`
	Turn      int    `json:"turn,omitempty"`
	Timestamp string `json:"timestamp,omitempty"`
}

// AgentDesktop is the full hand-off context for the agent-desktop screen.
type AgentDesktop struct {
	SessionID          string                `json:"session_id"`
	Member             Member                `json:"member"`
	AISummary          string                `json:"ai_summary"`
	SessionMeta        SessionMeta           `json:"session_meta"`
	Conversation       []ConversationMessage `json:"conversation"`
	SentimentHistory   []string              `json:"sentiment_history"`
	ActionsTaken       []ActionTaken         `json:"actions_taken"`
	KnowledgeRetrieved []KnowledgeItem       `json:"knowledge_retrieved"`
	KnowledgeProactive []KnowledgeItem       `json:"knowledge_proactive"`
	OpenQuestions      []string              `json:"open_questions"`
	SuggestedActions   []string              `json:"suggested_actions"`
	Escalation         EscalationDetail      `json:"escalation"`
	CurrentSentiment   string                `json:"current_sentiment"`
}

// CountByIntent, CountByDay, CountByReason, CountByTool, PctBySentiment, and
// SecondsByIntent are the analytics distribution rows.
type CountByIntent struct {
	Intent string `json:"intent"`
	Count  int    `json:"count"`
}

type CountByDay struct {
	Day   string `json:"day"`
	Count int    `json:"count"`
}

type CountByReason struct {
	Reason string `json:"reason"`
	Count  int    `json:"count"`
}

type CountByTool struct {
	Tool  string `json:"tool"`
	Count int    `json:"count"`
}

type PctBySentiment struct {
	Sentiment string  `json:"sentiment"`
	Pct       float64 `json:"pct"`
}

type SecondsByIntent struct {
	Intent  string `json:"intent"`
	Seconds int    `json:"seconds"`
}

// Analytics is the aggregate dashboard payload.
type Analytics struct {
	TotalConversations     int               `json:"total_conversations"`
	ContainmentRate        float64           `json:"containment_rate"`
	AvgHandleTimeSeconds   int               `json:"avg_handle_time_seconds"`
	CSATScore              float64           `json:"csat_score"`
	EscalationRate         float64           `json:"escalation_rate"`
	FirstContactResolution float64           `json:"first_contact_resolution"`
	IntentDistribution     []CountByIntent   `json:"intent_distribution"`
	DailyVolume            []CountByDay      `json:"daily_volume"`
	EscalationReasons      []CountByReason   `json:"escalation_reasons"`
	SentimentDistribution  []PctBySentiment  `json:"sentiment_distribution"`
	ToolCallFrequency      []CountByTool     `json:"tool_call_frequency"`
	AvgHandleTimeByIntent  []SecondsByIntent `json:"avg_handle_time_by_intent"`
}

// DocumentResponse wraps a fetched knowledge-base document.
type DocumentResponse struct {
	Name    string `json:"name"`
	Content string `json:"content"`
}

// MembersResponse wraps the member directory listing.
type MembersResponse struct {
	Members []Member `json:"members"`
}
