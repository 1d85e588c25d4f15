// Copyright (C) 2025 Octank Labs (oss@octanklabs.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package session

import (
	"time"

	"github.com/octanklabs/glassbox/pkg/backend"
)

// Screen identifies which top-level view the client is showing. The
// Controller owns the only legal transitions between screens.
type Screen int

const (
	ScreenAuth Screen = iota
	ScreenChat
	ScreenAgentDesktop
	ScreenAnalytics
)

func (s Screen) String() string {
	switch s {
	case ScreenAuth:
		return "auth"
	case ScreenChat:
		return "chat"
	case ScreenAgentDesktop:
		return "agent_desktop"
	case ScreenAnalytics:
		return "analytics"
	default:
		return "unknown"
	}
}

// Role tags who authored a transcript message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleAgent     Role = "agent"
)

// ChatMessage is one entry in the conversation transcript. Assistant
// messages carry the tool and source names surfaced inline under the
// reply; agent messages are typed from the agent desktop and persist when
// the view switches back to chat.
type ChatMessage struct {
	Role    Role
	Sender  string
	Text    string
	Tools   []string
	Sources []string
	SentAt  time.Time
}

// Session is the state of one authenticated conversation. A new Session is
// created per start-session call and discarded wholesale on sign-out.
type Session struct {
	ID               string
	Member           backend.Member
	TurnCount        int
	Escalated        bool
	EscalationReason string
	CurrentAgent     string
	StartedAt        time.Time
}

// fillerPhrases rotate under the processing placeholder while latency
// simulation is on, so the wait reads like a live agent working rather
// than a frozen screen.
var fillerPhrases = []string{
	"Let me check that for you...",
	"Pulling up your account details...",
	"Searching our records...",
	"Looking into your policy...",
	"One moment while I verify that...",
	"Checking with our system...",
}

// thinkingFallback shows when latency simulation is off and there is no
// phrase rotation.
const thinkingFallback = "Agent is reasoning..."

// fallbackReply is the transcript entry for a failed turn. The real reply,
// if any, is lost; stores and trace stay untouched.
const fallbackReply = "I apologize, but I encountered an error processing your request. Please try again."
