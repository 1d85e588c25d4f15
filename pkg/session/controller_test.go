// Copyright (C) 2025 Octank Labs (oss@octanklabs.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/octanklabs/glassbox/pkg/backend"
	"github.com/octanklabs/glassbox/pkg/hood"
)

func TestController_Defaults(t *testing.T) {
	c := newTestController(Config{})
	assert.Equal(t, ScreenAuth, c.Screen())
	assert.Equal(t, 0.7, c.ReviewThreshold())
	assert.False(t, c.Processing())
	assert.Nil(t, c.Session())
}

func TestStartSessionAllowed(t *testing.T) {
	c := newTestController(Config{})
	assert.False(t, c.StartSessionAllowed(""))
	assert.False(t, c.StartSessionAllowed("   "))
	assert.True(t, c.StartSessionAllowed("M1001"))
}

func TestBeginSession_ReplacesPriorSessionState(t *testing.T) {
	c := startedController(t, Config{})
	require.True(t, c.SubmitTurn("I broke my arm in an accident"))
	c.CompleteTurn(okResponse())
	require.NotEmpty(t, c.Stores().Flags())
	require.NotEmpty(t, c.Messages())

	c.BeginSession(&backend.StartSessionResponse{
		SessionID: "sess-2",
		Member:    backend.Member{MemberID: "M1002", Name: "James Chen"},
	})

	assert.Equal(t, ScreenChat, c.Screen())
	assert.Equal(t, "sess-2", c.Session().ID)
	assert.Equal(t, 0, c.Session().TurnCount)
	assert.Empty(t, c.Messages())
	assert.Empty(t, c.Stores().Flags())
	assert.Empty(t, c.Stores().Audit())
	assert.Zero(t, c.Timeline().Len())
}

func TestResetToAuth_ClearsEverything(t *testing.T) {
	c := startedController(t, Config{})
	require.True(t, c.SubmitTurn("where is my claim?"))
	c.CompleteTurn(okResponse())

	c.ResetToAuth()

	assert.Equal(t, ScreenAuth, c.Screen())
	assert.Nil(t, c.Session())
	assert.Empty(t, c.Messages())
	assert.Empty(t, c.Stores().Audit())
	assert.Zero(t, c.Timeline().Len())
	assert.False(t, c.Processing())
}

func TestAnalyticsNavigation(t *testing.T) {
	t.Run("from chat and back", func(t *testing.T) {
		c := startedController(t, Config{})
		c.ShowAnalytics()
		assert.Equal(t, ScreenAnalytics, c.Screen())
		c.LeaveAnalytics()
		assert.Equal(t, ScreenChat, c.Screen())
	})

	t.Run("back lands on auth without a session", func(t *testing.T) {
		c := startedController(t, Config{})
		c.ShowAnalytics()
		c.ResetToAuth()
		// Reset wins; a later leave is a no-op on the auth screen.
		assert.Equal(t, ScreenAuth, c.Screen())
		c.LeaveAnalytics()
		assert.Equal(t, ScreenAuth, c.Screen())
	})

	t.Run("not reachable from auth", func(t *testing.T) {
		c := newTestController(Config{})
		c.ShowAnalytics()
		assert.Equal(t, ScreenAuth, c.Screen())
	})
}

func TestApplyChannelEvent(t *testing.T) {
	t.Run("ignored without a session", func(t *testing.T) {
		c := newTestController(Config{})
		c.ApplyChannelEvent(intentEvent())
		assert.Zero(t, c.Timeline().Len())
	})

	t.Run("intent classification renders two live steps", func(t *testing.T) {
		c := startedController(t, Config{})
		require.True(t, c.SubmitTurn("where is my claim?"))
		c.ApplyChannelEvent(intentEvent())

		require.Equal(t, 2, c.Timeline().Len())
		steps := c.Timeline().Steps()
		assert.Equal(t, "Supervisor Classification", steps[0].Name)
		assert.Equal(t, 140, steps[0].DurationMS)
		assert.Equal(t, "claim_status", steps[0].Details["intent"])
		assert.Equal(t, "Route → claim_status", steps[1].Name)
	})

	t.Run("frustrated sentiment raises the escalation flag", func(t *testing.T) {
		c := startedController(t, Config{})
		ev := intentEvent()
		ev.Sentiment = "frustrated"
		c.ApplyChannelEvent(ev)

		assert.Equal(t, hood.SentimentFrustrated, c.Stores().Sentiment())
		require.Len(t, c.Stores().Flags(), 1)
		assert.Equal(t, hood.FlagSentimentEscalation, c.Stores().Flags()[0].Type)
	})
}

func TestOnTimer_FillerRotation(t *testing.T) {
	c := startedController(t, Config{LatencySim: true})
	require.True(t, c.SubmitTurn("hello"))
	first := c.FillerPhrase()

	action := c.OnTimer(TimerEvent{Name: TimerFiller, Generation: c.Generation()})
	assert.Equal(t, ActionRedraw, action)
	assert.NotEqual(t, first, c.FillerPhrase())

	// Rotation wraps around the phrase list.
	for i := 0; i < len(fillerPhrases)-1; i++ {
		c.OnTimer(TimerEvent{Name: TimerFiller, Generation: c.Generation()})
	}
	assert.Equal(t, first, c.FillerPhrase())
}

func TestFillerPhrases_MatchProductionCopy(t *testing.T) {
	// The rotation copy is part of the demo script; keep it verbatim.
	assert.Equal(t, []string{
		"Let me check that for you...",
		"Pulling up your account details...",
		"Searching our records...",
		"Looking into your policy...",
		"One moment while I verify that...",
		"Checking with our system...",
	}, fillerPhrases)
}

func TestOnTimer_FillerIgnoredWhenIdle(t *testing.T) {
	c := startedController(t, Config{LatencySim: true})
	action := c.OnTimer(TimerEvent{Name: TimerFiller, Generation: c.Generation()})
	assert.Equal(t, ActionNone, action)
}

func TestFillerPhrase_WithoutSimulation(t *testing.T) {
	c := startedController(t, Config{})
	require.True(t, c.SubmitTurn("hello"))
	assert.Equal(t, thinkingFallback, c.FillerPhrase())
	assert.False(t, c.timers.active(TimerFiller), "no rotation timer without simulation")
}

func TestToggles(t *testing.T) {
	c := newTestController(Config{})

	assert.False(t, c.RegionEU())
	c.ToggleRegion()
	assert.True(t, c.RegionEU())

	assert.False(t, c.LatencySim())
	c.ToggleLatencySim()
	assert.True(t, c.LatencySim())

	c.SetReviewThreshold(1.4)
	assert.Equal(t, 1.0, c.ReviewThreshold())
	c.SetReviewThreshold(-0.2)
	assert.Equal(t, 0.0, c.ReviewThreshold())
	c.SetReviewThreshold(0.55)
	assert.Equal(t, 0.55, c.ReviewThreshold())
}
