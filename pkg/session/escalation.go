// Copyright (C) 2025 Octank Labs (oss@octanklabs.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package session

import (
	"log/slog"
	"time"

	"github.com/octanklabs/glassbox/pkg/backend"
)

// scheduleHandoff marks the session escalated and arms the delayed
// transition to the agent desktop. The escalation banner shows in the
// meantime; resetting the session during the delay voids the hand-off via
// the generation guard.
func (c *Controller) scheduleHandoff(resp *backend.TurnResponse) {
	c.sess.Escalated = true
	c.sess.EscalationReason = resp.EscalationReason
	c.handoff = resp.HandoffContext

	gen := c.generation
	c.timers.After(TimerHandoff, c.cfg.HandoffDelay, func() {
		c.notify(TimerEvent{Name: TimerHandoff, Generation: gen})
	})
	c.log.Info("handoff scheduled",
		slog.String("session_id", c.sess.ID),
		slog.String("reason", resp.EscalationReason),
		slog.Duration("delay", c.cfg.HandoffDelay))
}

// handoffDue decides what to do when the hand-off timer fires. The
// generation already matched in OnTimer; this re-checks the conditions
// that may have changed during the delay.
func (c *Controller) handoffDue() TimerAction {
	if c.sess == nil || !c.sess.Escalated {
		return ActionNone
	}
	if c.screen == ScreenAgentDesktop {
		return ActionNone
	}
	return ActionFetchDesktop
}

// Handoff returns the escalation context handed to the human agent, or
// nil when the session never escalated.
func (c *Controller) Handoff() *backend.HandoffContext { return c.handoff }

// EnterDesktop installs the fetched agent desktop, switches screens, and
// starts the handle-time clock from zero.
func (c *Controller) EnterDesktop(data *backend.AgentDesktop) {
	if c.sess == nil {
		return
	}
	c.desktop = data
	c.screen = ScreenAgentDesktop
	c.handleSeconds = 0

	gen := c.generation
	c.timers.Every(TimerHandleClock, handleClockInterval, func() {
		c.notify(TimerEvent{Name: TimerHandleClock, Generation: gen})
	})
	c.log.Info("agent desktop entered", slog.String("session_id", c.sess.ID))
}

// DesktopLoadFailed surfaces a dismissable alert and leaves the current
// screen in place. The hand-off stays pending; the host may retry the
// fetch from the escalation banner.
func (c *Controller) DesktopLoadFailed(err error) {
	c.alert = "Failed to load agent desktop. Please try again."
	c.log.Error("agent desktop load failed", slog.String("error", err.Error()))
}

// BackToChat returns from the agent desktop to the chat screen. The
// handle clock stops; escalation state is kept so the desktop can be
// reopened.
func (c *Controller) BackToChat() {
	if c.screen != ScreenAgentDesktop {
		return
	}
	c.timers.Cancel(TimerHandleClock)
	c.screen = ScreenChat
}

// AgentReply appends a message typed by the human agent on the desktop.
// It lands in the shared transcript, so it remains visible after
// switching back to chat.
func (c *Controller) AgentReply(text string) {
	if c.sess == nil || text == "" {
		return
	}
	agent := c.sess.CurrentAgent
	if agent == "" {
		agent = "Agent"
	}
	c.messages = append(c.messages, ChatMessage{
		Role:   RoleAgent,
		Sender: agent,
		Text:   text,
		SentAt: time.Now(),
	})
}
