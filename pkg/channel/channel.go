// Copyright (C) 2025 Octank Labs (oss@octanklabs.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package channel owns the per-session push connection that delivers early
// turn diagnostics before the request/response result lands.
//
// The protocol is a closed set of three message kinds; anything else is
// logged and dropped. Channel closure is terminal: there is no reconnect,
// and the Events stream simply ends.
package channel

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/websocket"
)

// EventKind enumerates the push-channel message kinds. The set is closed;
// switch statements over it must be exhaustive.
type EventKind int

const (
	// KindProcessingStarted announces the backend accepted the turn.
	// It carries no payload and triggers no state change.
	KindProcessingStarted EventKind = iota

	// KindIntentClassified carries the supervisor's classification. It is
	// rendered immediately as live supervisor and routing trace steps.
	KindIntentClassified

	// KindResponseReady announces the response is about to arrive on the
	// request/response call. The response itself never travels the channel.
	KindResponseReady
)

// String returns the wire tag for the kind.
func (k EventKind) String() string {
	switch k {
	case KindProcessingStarted:
		return "processing_started"
	case KindIntentClassified:
		return "intent_classified"
	case KindResponseReady:
		return "response_ready"
	default:
		return "unknown"
	}
}

// Event is one decoded push-channel message. The payload fields are only
// populated for KindIntentClassified.
type Event struct {
	Kind         EventKind
	Intent       string
	Confidence   float64
	Sentiment    string
	SupervisorMS int
	Reasoning    string
}

// wireEvent is the JSON envelope the backend sends.
type wireEvent struct {
	Type         string  `json:"type"`
	Intent       string  `json:"intent"`
	Confidence   float64 `json:"confidence"`
	Sentiment    string  `json:"sentiment"`
	SupervisorMS int     `json:"supervisor_ms"`
	Reasoning    string  `json:"reasoning"`
}

// decodeEvent maps a raw channel message onto the closed kind set.
func decodeEvent(data []byte) (Event, error) {
	var w wireEvent
	if err := json.Unmarshal(data, &w); err != nil {
		return Event{}, fmt.Errorf("decode channel message: %w", err)
	}

	switch w.Type {
	case "processing_started":
		return Event{Kind: KindProcessingStarted}, nil
	case "intent_classified":
		return Event{
			Kind:         KindIntentClassified,
			Intent:       w.Intent,
			Confidence:   w.Confidence,
			Sentiment:    w.Sentiment,
			SupervisorMS: w.SupervisorMS,
			Reasoning:    w.Reasoning,
		}, nil
	case "response_ready":
		return Event{Kind: KindResponseReady}, nil
	default:
		return Event{}, fmt.Errorf("unknown channel message type %q", w.Type)
	}
}

// Config holds the channel adapter configuration.
type Config struct {
	// BaseURL is the backend HTTP origin; the websocket URL is derived
	// from it (http → ws, https → wss).
	BaseURL string `validate:"required,url"`

	// SessionID binds the connection to one session.
	SessionID string `validate:"required"`
}

// Adapter is one live push connection. Create with Dial, consume Events
// until the stream ends, and Close on session teardown.
//
// Adapter is not restartable; a new session dials a new Adapter.
type Adapter struct {
	conn   *websocket.Conn
	events chan Event
	log    *slog.Logger

	closeOnce sync.Once
}

// Dial connects the push channel for a session.
//
// # Inputs
//
//   - ctx: bounds the connection handshake only, not the stream lifetime.
//   - config: validated; BaseURL must parse as a URL.
//   - log: structured logger; must not be nil.
//
// # Outputs
//
//   - *Adapter: connected adapter with its read loop running.
//   - error: handshake or config failure. The caller treats this as
//     non-fatal; a session without a channel still works, it just renders
//     no live trace steps.
func Dial(ctx context.Context, config Config, log *slog.Logger) (*Adapter, error) {
	if err := validator.New().Struct(config); err != nil {
		return nil, fmt.Errorf("invalid channel config: %w", err)
	}

	wsURL, err := websocketURL(config.BaseURL, config.SessionID)
	if err != nil {
		return nil, err
	}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return nil, fmt.Errorf("dial channel: %w", err)
	}

	a := &Adapter{
		conn:   conn,
		events: make(chan Event, 16),
		log:    log,
	}
	go a.readLoop()

	log.Info("channel connected", "session_id", config.SessionID)
	return a, nil
}

// Events returns the decoded event stream. The channel is closed when the
// connection drops or Close is called; consumers should treat a closed
// stream as silence, not an error.
func (a *Adapter) Events() <-chan Event {
	return a.events
}

// Close tears down the connection. Safe to call multiple times and safe to
// call concurrently with the read loop.
func (a *Adapter) Close() error {
	var err error
	a.closeOnce.Do(func() {
		err = a.conn.Close()
	})
	return err
}

// readLoop pumps messages until the connection dies. Closure is silent by
// protocol: logged, no reconnection attempt.
func (a *Adapter) readLoop() {
	defer close(a.events)
	for {
		_, data, err := a.conn.ReadMessage()
		if err != nil {
			a.log.Info("channel closed", "reason", err.Error())
			return
		}

		ev, err := decodeEvent(data)
		if err != nil {
			a.log.Warn("dropping channel message", "error", err)
			continue
		}
		a.events <- ev
	}
}

// websocketURL derives ws(s)://host/ws/{sessionID} from the HTTP base URL.
func websocketURL(baseURL, sessionID string) (string, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("parse base URL: %w", err)
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + "/ws/" + sessionID
	return u.String(), nil
}
