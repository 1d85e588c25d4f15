// Copyright (C) 2025 Octank Labs (oss@octanklabs.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package session

import (
	"testing"
	"time"
)

func TestTimerRegistry_After(t *testing.T) {
	r := newTimerRegistry()
	fired := make(chan struct{}, 1)

	r.After("test", 5*time.Millisecond, func() { fired <- struct{}{} })

	select {
	case <-fired:
	case <-time.After(time.Second):
		t.Fatal("timer did not fire")
	}
}

func TestTimerRegistry_CancelPreventsFiring(t *testing.T) {
	r := newTimerRegistry()
	fired := make(chan struct{}, 1)

	r.After("test", 20*time.Millisecond, func() { fired <- struct{}{} })
	r.Cancel("test")

	select {
	case <-fired:
		t.Fatal("cancelled timer fired")
	case <-time.After(60 * time.Millisecond):
	}
	if r.active("test") {
		t.Error("cancelled timer still registered")
	}
}

func TestTimerRegistry_ArmingReplacesPrevious(t *testing.T) {
	r := newTimerRegistry()
	firstFired := make(chan struct{}, 1)
	secondFired := make(chan struct{}, 1)

	r.After("test", 10*time.Millisecond, func() { firstFired <- struct{}{} })
	r.After("test", 30*time.Millisecond, func() { secondFired <- struct{}{} })

	select {
	case <-firstFired:
		t.Fatal("replaced timer fired")
	case <-secondFired:
	case <-time.After(time.Second):
		t.Fatal("replacement timer did not fire")
	}
}

func TestTimerRegistry_EveryRepeats(t *testing.T) {
	r := newTimerRegistry()
	ticks := make(chan struct{}, 8)

	r.Every("tick", 5*time.Millisecond, func() { ticks <- struct{}{} })
	defer r.Cancel("tick")

	for i := 0; i < 3; i++ {
		select {
		case <-ticks:
		case <-time.After(time.Second):
			t.Fatalf("tick %d never arrived", i)
		}
	}
}

func TestTimerRegistry_CancelAll(t *testing.T) {
	r := newTimerRegistry()
	fired := make(chan struct{}, 4)

	r.After("a", 20*time.Millisecond, func() { fired <- struct{}{} })
	r.Every("b", 10*time.Millisecond, func() { fired <- struct{}{} })
	r.CancelAll()

	if r.active("a") || r.active("b") {
		t.Error("timers survived CancelAll")
	}
	select {
	case <-fired:
		t.Fatal("cancelled timer fired")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestTimerRegistry_CancelUnknownIsNoOp(t *testing.T) {
	r := newTimerRegistry()
	r.Cancel("never-armed")
}

func TestTimerRegistry_DoubleCancelEvery(t *testing.T) {
	r := newTimerRegistry()
	r.Every("tick", time.Millisecond, func() {})
	r.Cancel("tick")
	r.Cancel("tick")
}
