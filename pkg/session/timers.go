// Copyright (C) 2025 Octank Labs (oss@octanklabs.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package session

import (
	"sync"
	"time"
)

// Named session timers. Every timer the session owns is registered under
// one of these names so a single CancelAll covers every teardown path.
const (
	// TimerFiller rotates the thinking-placeholder filler phrases while a
	// turn is in flight with latency simulation enabled.
	TimerFiller = "filler_rotation"

	// TimerHandoff is the delayed escalation transition to the agent
	// desktop. Cancelling it voids a pending hand-off.
	TimerHandoff = "handoff_transition"

	// TimerHandleClock ticks the agent desktop's handle-time display.
	TimerHandleClock = "handle_clock"
)

// TimerEvent is what a fired timer posts back into the event loop. The
// generation stamps which session armed the timer; handlers compare it to
// the current generation so a stale timer can never touch a superseded
// session.
type TimerEvent struct {
	Name       string
	Generation int
}

// Notify delivers a TimerEvent to the event loop. Implementations must be
// safe to call from timer goroutines and must not mutate session state
// themselves; all mutation happens when the loop hands the event back to
// the Controller.
type Notify func(TimerEvent)

// timerRegistry tracks the session's named cancellable timers. Arming a
// name that is already armed replaces the previous timer.
//
// The registry is the one concurrency boundary in this package: Stop
// functions race with their own firing goroutines, so the map is
// mutex-protected. Everything a fired timer does is post a message.
type timerRegistry struct {
	mu    sync.Mutex
	stops map[string]func()
}

func newTimerRegistry() *timerRegistry {
	return &timerRegistry{stops: make(map[string]func())}
}

// After arms a one-shot timer. fn runs once on a timer goroutine.
func (r *timerRegistry) After(name string, d time.Duration, fn func()) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if stop, ok := r.stops[name]; ok {
		stop()
	}
	t := time.AfterFunc(d, fn)
	r.stops[name] = func() { t.Stop() }
}

// Every arms a repeating timer. fn runs on a dedicated goroutine each tick
// until the name is cancelled.
func (r *timerRegistry) Every(name string, d time.Duration, fn func()) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if stop, ok := r.stops[name]; ok {
		stop()
	}

	ticker := time.NewTicker(d)
	done := make(chan struct{})
	go func() {
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				fn()
			}
		}
	}()

	var once sync.Once
	r.stops[name] = func() {
		once.Do(func() {
			ticker.Stop()
			close(done)
		})
	}
}

// Cancel stops and forgets one timer. Unknown names are no-ops.
func (r *timerRegistry) Cancel(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if stop, ok := r.stops[name]; ok {
		stop()
		delete(r.stops, name)
	}
}

// CancelAll stops every registered timer. This is the single teardown
// routine behind session reset, new-chat, and hand-off cancellation.
func (r *timerRegistry) CancelAll() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for name, stop := range r.stops {
		stop()
		delete(r.stops, name)
	}
}

// active reports whether a timer is currently armed. Test hook.
func (r *timerRegistry) active(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.stops[name]
	return ok
}
