// Copyright (C) 2025 Octank Labs (oss@octanklabs.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package session owns the client's conversational state machine: the
// screen transitions, the turn pipeline, the escalation hand-off, and the
// named timers that drive them. All mutation happens on the host event
// loop; methods here are plain state transitions and never perform I/O.
package session

import (
	"log/slog"
	"strings"
	"time"

	"github.com/octanklabs/glassbox/pkg/backend"
	"github.com/octanklabs/glassbox/pkg/channel"
	"github.com/octanklabs/glassbox/pkg/hood"
	"github.com/octanklabs/glassbox/pkg/trace"
)

const (
	defaultReviewThreshold = 0.7
	defaultHandoffDelay    = 2 * time.Second
	fillerInterval         = 2500 * time.Millisecond
	handleClockInterval    = time.Second
)

// Config tunes the Controller. Zero values select the defaults noted on
// each field.
type Config struct {
	// ReviewThreshold queues replies for human review when the model's
	// confidence falls strictly below it. Default 0.7.
	ReviewThreshold float64

	// LatencySim enables the simulated speech legs on the waterfall and
	// the filler-phrase rotation while a turn is in flight.
	LatencySim bool

	// HandoffDelay is how long the escalation banner shows before the
	// client transitions to the agent desktop. Default 2s.
	HandoffDelay time.Duration

	// RegionEU switches displayed regulatory framing from HIPAA to GDPR.
	// Purely presentational; flag types on the wire are unchanged.
	RegionEU bool
}

// TurnOutcome tells the host what a completed turn requires of the
// presentation layer beyond a redraw.
type TurnOutcome struct {
	// Blocked means guardrails refused the turn; the host should surface
	// the trace tab so the refusal is inspectable.
	Blocked bool

	// Escalated means a hand-off to a human agent has been scheduled.
	Escalated bool
}

// TimerAction is the Controller's answer to a timer event: what, if
// anything, the host should do next.
type TimerAction int

const (
	// ActionNone: the timer was stale or needed no follow-up.
	ActionNone TimerAction = iota

	// ActionRedraw: state changed; repaint.
	ActionRedraw

	// ActionFetchDesktop: the hand-off delay elapsed; the host should
	// fetch the agent desktop and call EnterDesktop with the result.
	ActionFetchDesktop
)

// Controller is the single authority over session state. It is not safe
// for concurrent use: the host event loop is the only caller, and timers
// re-enter it only through posted TimerEvents.
type Controller struct {
	log    *slog.Logger
	cfg    Config
	timers *timerRegistry
	notify Notify

	// generation increments on every session start and reset. Timer
	// events stamped with an older generation are ignored.
	generation int

	screen   Screen
	sess     *Session
	messages []ChatMessage

	stores    *hood.Stores
	timeline  *trace.Timeline
	waterfall *trace.Waterfall

	processing bool
	fillerIdx  int

	handoff       *backend.HandoffContext
	desktop       *backend.AgentDesktop
	handleSeconds int

	alert string
}

// NewController builds a Controller on the auth screen with empty stores.
//
// # Description
//
//	The notify callback is how armed timers re-enter the event loop; it is
//	invoked from timer goroutines and must only post a message. Config
//	zero values are replaced with defaults.
//
// # Inputs
//   - cfg: behavioral tuning; see Config.
//   - log: structured logger; must not be nil.
//   - notify: timer event sink; must not be nil.
//
// # Outputs
//   - *Controller: ready for BeginSession.
func NewController(cfg Config, log *slog.Logger, notify Notify) *Controller {
	if cfg.ReviewThreshold == 0 {
		cfg.ReviewThreshold = defaultReviewThreshold
	}
	if cfg.HandoffDelay == 0 {
		cfg.HandoffDelay = defaultHandoffDelay
	}
	return &Controller{
		log:      log,
		cfg:      cfg,
		timers:   newTimerRegistry(),
		notify:   notify,
		screen:   ScreenAuth,
		stores:   hood.NewStores(),
		timeline: trace.NewTimeline(),
	}
}

// StartSessionAllowed gates the start-session dispatch: a blank member
// selection is a silent no-op, not an error.
func (c *Controller) StartSessionAllowed(memberID string) bool {
	return strings.TrimSpace(memberID) != ""
}

// BeginSession installs a freshly started session and moves to the chat
// screen. Any prior session's timers, stores, and transcript are torn
// down first, so switching members never leaks observability data across
// sessions.
func (c *Controller) BeginSession(resp *backend.StartSessionResponse) {
	c.teardown()

	c.sess = &Session{
		ID:        resp.SessionID,
		Member:    resp.Member,
		StartedAt: time.Now(),
	}
	c.screen = ScreenChat
	c.log.Info("session started",
		slog.String("session_id", resp.SessionID),
		slog.String("member_id", resp.Member.MemberID))
}

// ResetToAuth signs out: every timer is cancelled, every store cleared,
// and the screen returns to auth. A hand-off that was pending when reset
// fired is voided by the generation bump even if its timer already
// expired. The host is responsible for closing the trace channel.
func (c *Controller) ResetToAuth() {
	c.teardown()
	c.screen = ScreenAuth
	c.log.Info("session reset")
}

func (c *Controller) teardown() {
	c.timers.CancelAll()
	c.generation++
	c.sess = nil
	c.messages = nil
	c.stores.Reset()
	c.timeline.Reset()
	c.waterfall = nil
	c.processing = false
	c.fillerIdx = 0
	c.handoff = nil
	c.desktop = nil
	c.handleSeconds = 0
	c.alert = ""
}

// ShowAnalytics moves to the analytics screen from chat or the agent
// desktop. The session, if any, stays live underneath.
func (c *Controller) ShowAnalytics() {
	if c.screen == ScreenChat || c.screen == ScreenAgentDesktop {
		c.screen = ScreenAnalytics
	}
}

// LeaveAnalytics returns to chat when a session is active, otherwise to
// the auth screen.
func (c *Controller) LeaveAnalytics() {
	if c.screen != ScreenAnalytics {
		return
	}
	if c.sess != nil {
		c.screen = ScreenChat
	} else {
		c.screen = ScreenAuth
	}
}

// OnTimer handles a posted timer expiry. Events from a superseded
// generation are dropped; this is the guard that makes cancelled
// hand-offs and sign-outs race-free against timers that already fired.
func (c *Controller) OnTimer(ev TimerEvent) TimerAction {
	if ev.Generation != c.generation {
		return ActionNone
	}

	switch ev.Name {
	case TimerFiller:
		if !c.processing {
			return ActionNone
		}
		c.fillerIdx = (c.fillerIdx + 1) % len(fillerPhrases)
		return ActionRedraw

	case TimerHandoff:
		return c.handoffDue()

	case TimerHandleClock:
		if c.screen != ScreenAgentDesktop {
			return ActionNone
		}
		c.handleSeconds++
		return ActionRedraw

	default:
		c.log.Warn("unknown timer", slog.String("name", ev.Name))
		return ActionNone
	}
}

// FillerPhrase is the text under the processing placeholder right now.
func (c *Controller) FillerPhrase() string {
	if !c.cfg.LatencySim {
		return thinkingFallback
	}
	return fillerPhrases[c.fillerIdx]
}

// Alert returns the current dismissable error banner, or "".
func (c *Controller) Alert() string { return c.alert }

// DismissAlert clears the error banner.
func (c *Controller) DismissAlert() { c.alert = "" }

// ToggleLatencySim flips latency simulation. Takes effect on the next
// turn; an in-flight turn keeps the mode it started with for its
// waterfall.
func (c *Controller) ToggleLatencySim() { c.cfg.LatencySim = !c.cfg.LatencySim }

// ToggleRegion flips the HIPAA/GDPR presentation framing.
func (c *Controller) ToggleRegion() { c.cfg.RegionEU = !c.cfg.RegionEU }

// SetReviewThreshold adjusts the review gate for subsequent turns.
// Values outside [0,1] are clamped.
func (c *Controller) SetReviewThreshold(v float64) {
	if v < 0 {
		v = 0
	}
	if v > 1 {
		v = 1
	}
	c.cfg.ReviewThreshold = v
}

// Accessors. The presentation layer reads everything through these; it
// never holds its own copy of session state.

func (c *Controller) Screen() Screen { return c.screen }

func (c *Controller) Session() *Session { return c.sess }

func (c *Controller) Messages() []ChatMessage { return c.messages }

func (c *Controller) Stores() *hood.Stores { return c.stores }

func (c *Controller) Timeline() *trace.Timeline { return c.timeline }

func (c *Controller) Waterfall() *trace.Waterfall { return c.waterfall }

func (c *Controller) Processing() bool { return c.processing }

func (c *Controller) Desktop() *backend.AgentDesktop { return c.desktop }

func (c *Controller) HandleSeconds() int { return c.handleSeconds }

func (c *Controller) RegionEU() bool { return c.cfg.RegionEU }

func (c *Controller) LatencySim() bool { return c.cfg.LatencySim }

func (c *Controller) ReviewThreshold() float64 { return c.cfg.ReviewThreshold }

func (c *Controller) Generation() int { return c.generation }

// ApplyChannelEvent folds a push-channel event into the live trace. Only
// the intent classification carries payload; the other kinds exist so the
// switch stays exhaustive as the protocol grows.
func (c *Controller) ApplyChannelEvent(ev channel.Event) {
	if c.sess == nil {
		return
	}

	switch ev.Kind {
	case channel.KindProcessingStarted:
		// The placeholder is already up; nothing to record.

	case channel.KindIntentClassified:
		c.stores.SetSentiment(hood.Sentiment(ev.Sentiment))
		c.timeline.AppendLive(trace.Step{
			Name:       "Supervisor Classification",
			Kind:       trace.KindSupervisor,
			DurationMS: ev.SupervisorMS,
			Details: map[string]any{
				"intent":     ev.Intent,
				"confidence": ev.Confidence,
				"sentiment":  ev.Sentiment,
			},
		})
		c.timeline.AppendLive(trace.Step{
			Name:    "Route → " + ev.Intent,
			Kind:    trace.KindRouting,
			Details: map[string]any{"reasoning": ev.Reasoning},
		})

	case channel.KindResponseReady:
		// The authoritative result arrives on the request path.
	}
}
