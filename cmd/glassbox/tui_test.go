// Copyright (C) 2025 Octank Labs (oss@octanklabs.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/octanklabs/glassbox/pkg/backend"
	"github.com/octanklabs/glassbox/pkg/channel"
	"github.com/octanklabs/glassbox/pkg/logging"
)

// stubClient satisfies backend.Client for update-loop tests that never
// execute the returned commands.
type stubClient struct{}

func (stubClient) StartSession(context.Context, string) (*backend.StartSessionResponse, error) {
	return &backend.StartSessionResponse{}, nil
}

func (stubClient) SubmitTurn(context.Context, string, string) (*backend.TurnResponse, error) {
	return &backend.TurnResponse{}, nil
}

func (stubClient) AgentDesktop(context.Context, string) (*backend.AgentDesktop, error) {
	return &backend.AgentDesktop{}, nil
}

func (stubClient) Analytics(context.Context) (*backend.Analytics, error) {
	return &backend.Analytics{}, nil
}

func (stubClient) Document(context.Context, string) (string, error) { return "", nil }

func (stubClient) Members(context.Context) ([]backend.Member, error) { return nil, nil }

func newTestModel(t *testing.T) model {
	t.Helper()
	log := logging.New(logging.Config{Quiet: true})
	t.Cleanup(func() { _ = log.Close() })
	return newModel(modelConfig{
		client:     stubClient{},
		backendURL: "http://localhost:8000",
		log:        log,
	})
}

func startedTestModel(t *testing.T) model {
	t.Helper()
	m := newTestModel(t)
	m.ctrl.BeginSession(&backend.StartSessionResponse{
		SessionID: "sess-1",
		Member:    backend.Member{MemberID: "M1001", Name: "Sarah Chen"},
	})
	return m
}

func intentClassifiedEvent() channel.Event {
	return channel.Event{
		Kind:         channel.KindIntentClassified,
		Intent:       "claim_status",
		Confidence:   0.91,
		Sentiment:    "neutral",
		SupervisorMS: 120,
	}
}

func TestWaitForEvent_NilAdapterReturnsNoCommand(t *testing.T) {
	require.Nil(t, waitForEvent(nil))
}

func TestUpdate_ChannelEventAfterSignOutDoesNotRearm(t *testing.T) {
	m := newTestModel(t)
	m.adapter = nil

	// An event queued by the old session's adapter can still be delivered
	// after sign-out. It must be dropped without re-arming the wait, which
	// would otherwise block on a nil adapter.
	updated, cmd := m.Update(channelEventMsg{from: new(channel.Adapter), ev: intentClassifiedEvent()})

	require.Nil(t, cmd)
	assert.Nil(t, updated.(model).adapter)
}

func TestUpdate_StaleChannelEventIsDropped(t *testing.T) {
	m := startedTestModel(t)
	current := new(channel.Adapter)
	stale := new(channel.Adapter)
	m.adapter = current

	updated, cmd := m.Update(channelEventMsg{from: stale, ev: intentClassifiedEvent()})

	require.Nil(t, cmd)
	assert.Equal(t, 0, updated.(model).ctrl.Timeline().Len(), "stale event must not reach the timeline")
}

func TestUpdate_CurrentChannelEventIsApplied(t *testing.T) {
	m := startedTestModel(t)
	current := new(channel.Adapter)
	m.adapter = current

	updated, cmd := m.Update(channelEventMsg{from: current, ev: intentClassifiedEvent()})

	require.NotNil(t, cmd, "wait must re-arm on the live adapter")
	assert.Equal(t, 2, updated.(model).ctrl.Timeline().Len())
}

func TestUpdate_StaleChannelClosedKeepsCurrentAdapter(t *testing.T) {
	m := startedTestModel(t)
	current := new(channel.Adapter)
	stale := new(channel.Adapter)
	m.adapter = current

	updated, _ := m.Update(channelClosedMsg{from: stale})
	m = updated.(model)

	assert.Same(t, current, m.adapter, "a superseded adapter's closure must not detach the live one")
	assert.Empty(t, m.status)

	updated, _ = m.Update(channelClosedMsg{from: current})
	m = updated.(model)

	assert.Nil(t, m.adapter)
	assert.Equal(t, "Live trace disconnected", m.status)
}
