// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core

import (
	"time"
)

const defaultEventPollDelay = 10 * time.Millisecond

// NewTime creates a new time service
func NewTime(cfg TimeConfiguration) *Time {
	var interval time.Duration
	if cfg.FramesPerSecond == 0 {
		interval = time.Nanosecond
	} else {
		interval = time.Second / time.Duration(cfg.FramesPerSecond)
	}

	eventInterval := time.Duration(cfg.EventPollDelay) * time.Millisecond
	if eventInterval <= 0 {
		eventInterval = defaultEventPollDelay
	}

	return &Time{
		fps:            cfg.FramesPerSecond,
		fpsInterval:    interval,
		fpsTicker:      time.NewTicker(interval),
		eventPollDelay: eventInterval,
		eventTicker:    time.NewTicker(eventInterval),
	}
}

// Time contains all the time services and tickers
type Time struct {
	fps         int
	fpsInterval time.Duration
	fpsTicker   *time.Ticker

	eventPollDelay time.Duration
	eventTicker    *time.Ticker
}

// Fps gets the set frames per second
func (t *Time) Fps() int {
	return t.fps
}

// FrameInterval is the time between two frame ticks
func (t *Time) FrameInterval() time.Duration {
	return t.fpsInterval
}

// EventPollDelay is the time between two event ticks
func (t *Time) EventPollDelay() time.Duration {
	return t.eventPollDelay
}

// FpsTicker gets the initialized fps ticker
func (t *Time) FpsTicker() *time.Ticker {
	return t.fpsTicker
}

// EventTicker gets the initialized event ticker for the event loop
func (t *Time) EventTicker() *time.Ticker {
	return t.eventTicker
}

// Stop stops both tickers
func (t *Time) Stop() {
	t.fpsTicker.Stop()
	t.eventTicker.Stop()
}
